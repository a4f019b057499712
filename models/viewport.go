package models

import "time"

// PixelRegion is a raw selection in screen pixels.
type PixelRegion struct {
	Top    float64
	Left   float64
	Bottom float64
	Right  float64
}

func (r PixelRegion) Width() float64 {
	return r.Right - r.Left
}

func (r PixelRegion) Height() float64 {
	return r.Bottom - r.Top
}

// ToArcsec converts the pixel selection into arc-second image coordinates at
// the given image scale.
func (r PixelRegion) ToArcsec(imageScale float64) RegionOfInterest {
	return RegionOfInterest{
		X1: r.Left * imageScale,
		X2: r.Right * imageScale,
		Y1: r.Top * imageScale,
		Y2: r.Bottom * imageScale,
	}
}

// ViewportState is the implicit request source: the current region, layers
// and observation time of the viewer.
type ViewportState struct {
	Region          PixelRegion
	ImageScale      float64
	Layers          LayerList
	Events          string
	EventsLabels    bool
	Scale           bool
	ScaleType       string
	ScaleX          float64
	ScaleY          float64
	ObservationTime time.Time
	Duration        time.Duration
}

// MovieForm is the explicit request source: a start/end pair plus exactly one
// speed setting.
type MovieForm struct {
	StartTime   string
	EndTime     string
	FrameRate   *int
	MovieLength *int
}

package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

type MovieStatus uint8

const (
	MovieStatus_Queued MovieStatus = iota
	MovieStatus_Processing
	MovieStatus_Ready
	MovieStatus_Error
)

func (s MovieStatus) String() string {
	switch s {
	case MovieStatus_Queued:
		return "queued"
	case MovieStatus_Processing:
		return "processing"
	case MovieStatus_Ready:
		return "ready"
	case MovieStatus_Error:
		return "error"
	}
	return "unknown"
}

func (s MovieStatus) Terminal() bool {
	return s == MovieStatus_Ready || s == MovieStatus_Error
}

// Layer is a single image layer in a movie, e.g. "[SDO,AIA,AIA,304,1,100]".
type Layer struct {
	Observatory string
	Instrument  string
	Detector    string
	Measurement string
	Visible     bool
	Opacity     float64
}

func (l Layer) Shown() bool {
	return l.Visible && l.Opacity != 0
}

func (l Layer) String() string {
	visible := "0"
	if l.Visible {
		visible = "1"
	}
	return "[" + strings.Join([]string{
		l.Observatory,
		l.Instrument,
		l.Detector,
		l.Measurement,
		visible,
		strconv.FormatFloat(l.Opacity, 'f', -1, 64),
	}, ",") + "]"
}

type LayerList []Layer

// String serializes the list into the API's bracketed form:
// "[obs,inst,det,meas,visible,opacity],[...]".
func (ll LayerList) String() string {
	parts := make([]string, len(ll))
	for idx, layer := range ll {
		parts[idx] = layer.String()
	}
	return strings.Join(parts, ",")
}

func (ll LayerList) NumShown() int {
	numShown := 0
	for _, layer := range ll {
		if layer.Shown() {
			numShown++
		}
	}
	return numShown
}

func (ll LayerList) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(ll.String())), nil
}

func (ll *LayerList) UnmarshalJSON(data []byte) error {
	layerStr, err := strconv.Unquote(string(data))
	if err != nil {
		return err
	}
	parsed, err := ParseLayerString(layerStr)
	if err != nil {
		return err
	}
	*ll = parsed
	return nil
}

func ParseLayerString(layerStr string) (LayerList, error) {
	layerStr = strings.TrimSpace(layerStr)
	if len(layerStr) == 0 {
		return nil, nil
	}
	layers := make(LayerList, 0, 3)
	for _, part := range strings.Split(layerStr, "],[") {
		part = strings.Trim(part, "[]")
		fields := strings.Split(part, ",")
		if len(fields) < 6 {
			return nil, fmt.Errorf("malformed layer descriptor: %q", part)
		}
		opacity, err := strconv.ParseFloat(fields[len(fields)-1], 64)
		if err != nil {
			return nil, fmt.Errorf("malformed layer opacity: %q", part)
		}
		layers = append(layers, Layer{
			Observatory: fields[0],
			Instrument:  fields[1],
			Detector:    fields[2],
			Measurement: fields[3],
			Visible:     fields[len(fields)-2] == "1",
			Opacity:     opacity,
		})
	}
	return layers, nil
}

// RegionOfInterest is a rectangular selection in arc-second image coordinates.
type RegionOfInterest struct {
	X1 float64 `json:"x1"`
	X2 float64 `json:"x2"`
	Y1 float64 `json:"y1"`
	Y2 float64 `json:"y2"`
}

func (r RegionOfInterest) Width() float64 {
	return r.X2 - r.X1
}

func (r RegionOfInterest) Height() float64 {
	return r.Y2 - r.Y1
}

// MovieRequest is everything needed to queue one movie. Exactly one of
// FrameRate or MovieLength is set; the Composer enforces that along with the
// layer and region constraints before a request ever reaches the API.
type MovieRequest struct {
	Region       RegionOfInterest `validate:"required"`
	ImageScale   float64          `validate:"required,gt=0"`
	Layers       LayerList        `validate:"required,min=1"`
	Events       string
	EventsLabels bool
	Scale        bool
	ScaleType    string
	ScaleX       float64
	ScaleY       float64
	StartTime    time.Time `validate:"required"`
	EndTime      time.Time `validate:"required"`
	FrameRate    *int      `validate:"omitempty,min=1,max=30"`
	MovieLength  *int      `validate:"omitempty,min=5,max=100"`
}

// MovieEntry is the registry's unit of record. Entries are created in the
// Queued state on submission acknowledgment and mutated in place through
// RegistryService.Update as poll responses arrive.
type MovieEntry struct {
	Id            string      `json:"id"`
	Status        MovieStatus `json:"status"`
	Progress      int         `json:"progress,omitempty"`
	Token         string      `json:"token,omitempty"`
	Name          string      `json:"name,omitempty"`
	DateRequested time.Time   `json:"dateRequested"`

	// Request fields retained for rebuild
	ImageScale   float64   `json:"imageScale"`
	Layers       LayerList `json:"layers"`
	Events       string    `json:"events,omitempty"`
	EventsLabels bool      `json:"eventsLabels,omitempty"`
	Scale        bool      `json:"scale,omitempty"`
	ScaleType    string    `json:"scaleType,omitempty"`
	ScaleX       float64   `json:"scaleX,omitempty"`
	ScaleY       float64   `json:"scaleY,omitempty"`
	StartDate    time.Time `json:"startDate"`
	EndDate      time.Time `json:"endDate"`
	X1           float64   `json:"x1"`
	X2           float64   `json:"x2"`
	Y1           float64   `json:"y1"`
	Y2           float64   `json:"y2"`
	FrameRate    *int      `json:"frameRate,omitempty"`
	MovieLength  *int      `json:"movieLength,omitempty"`

	// Populated once the movie is ready
	Duration  float64 `json:"duration,omitempty"`
	NumFrames int     `json:"numFrames,omitempty"`
	Width     int     `json:"width,omitempty"`
	Height    int     `json:"height,omitempty"`
	Thumbnail string  `json:"thumbnail,omitempty"`
	Url       string  `json:"url,omitempty"`
}

// Stale reports whether a Ready entry's artifact is presumed expired by the
// retention policy. Staleness gates playback but does not change the stored
// status.
func (e *MovieEntry) Stale(now time.Time, maxAge time.Duration) bool {
	return e.Status == MovieStatus_Ready && now.Sub(e.DateRequested) >= maxAge
}

// Request reconstructs the original MovieRequest from the stored fields so
// that an entry can be re-submitted unchanged.
func (e *MovieEntry) Request() *MovieRequest {
	return &MovieRequest{
		Region:       RegionOfInterest{X1: e.X1, X2: e.X2, Y1: e.Y1, Y2: e.Y2},
		ImageScale:   e.ImageScale,
		Layers:       e.Layers,
		Events:       e.Events,
		EventsLabels: e.EventsLabels,
		Scale:        e.Scale,
		ScaleType:    e.ScaleType,
		ScaleX:       e.ScaleX,
		ScaleY:       e.ScaleY,
		StartTime:    e.StartDate,
		EndTime:      e.EndDate,
		FrameRate:    e.FrameRate,
		MovieLength:  e.MovieLength,
	}
}

// MoviePatch carries partial updates merged into an existing entry. Nil
// fields are left untouched.
type MoviePatch struct {
	Status        *MovieStatus
	Progress      *int
	Token         *string
	DateRequested *time.Time
	Duration      *float64
	NumFrames     *int
	FrameRate     *int
	Width         *int
	Height        *int
	Thumbnail     *string
	Url           *string
	StartDate     *time.Time
	EndDate       *time.Time
}

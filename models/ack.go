package models

// ServerAck is the transient response to a queueMovie/reQueueMovie call:
// accepted ({id, eta, token}), accepted with caveat ({warning}, no job
// created), or rejected ({error, errno}).
type ServerAck struct {
	Id      string `json:"id,omitempty"`
	Eta     int    `json:"eta,omitempty"`
	Token   string `json:"token,omitempty"`
	Warning string `json:"warning,omitempty"`
	Error   string `json:"error,omitempty"`
	ErrNo   int    `json:"errno,omitempty"`
}

func (a *ServerAck) Accepted() bool {
	return len(a.Error) == 0 && len(a.Warning) == 0 && len(a.Id) > 0
}

func (a *ServerAck) QueueFull() bool {
	return len(a.Error) > 0 && a.ErrNo == ErrNo_QueueFull
}

type Thumbnails struct {
	Small string `json:"small,omitempty"`
	Full  string `json:"full,omitempty"`
}

// MovieStatusResponse is the getMovieStatus payload. While the job is
// non-terminal only Eta (and optionally Progress) are set. The verbose fields
// at the bottom are only returned for getMovieStatus with verbose=true.
type MovieStatusResponse struct {
	Status   *int   `json:"status,omitempty"`
	Eta      int    `json:"eta,omitempty"`
	Progress *int   `json:"progress,omitempty"`
	Error    string `json:"error,omitempty"`

	Url       string     `json:"url,omitempty"`
	Duration  float64    `json:"duration,omitempty"`
	NumFrames int        `json:"numFrames,omitempty"`
	FrameRate float64    `json:"frameRate,omitempty"`
	Width     int        `json:"width,omitempty"`
	Height    int        `json:"height,omitempty"`
	Thumbnail Thumbnails `json:"thumbnails,omitempty"`
	StartDate string     `json:"startDate,omitempty"`
	EndDate   string     `json:"endDate,omitempty"`

	Timestamp    string  `json:"timestamp,omitempty"`
	ImageScale   float64 `json:"imageScale,omitempty"`
	Layers       string  `json:"layers,omitempty"`
	Events       string  `json:"events,omitempty"`
	EventsLabels bool    `json:"eventsLabels,omitempty"`
	X1           float64 `json:"x1,omitempty"`
	X2           float64 `json:"x2,omitempty"`
	Y1           float64 `json:"y1,omitempty"`
	Y2           float64 `json:"y2,omitempty"`
}

func (r *MovieStatusResponse) Ready() bool {
	return (r.Status != nil && MovieStatus(*r.Status) == MovieStatus_Ready) || len(r.Url) > 0
}

func (r *MovieStatusResponse) Failed() bool {
	return (r.Status != nil && MovieStatus(*r.Status) == MovieStatus_Error) || len(r.Error) > 0
}

// MovieETAResponse is returned by getETAForMovie on the legacy build path.
type MovieETAResponse struct {
	Eta   int    `json:"eta,omitempty"`
	Error string `json:"error,omitempty"`
}

// MoviePollResponse is returned by getMovie on the legacy build path: {eta}
// means retry, {url} means done, {error} means failed.
type MoviePollResponse struct {
	Id    string `json:"id,omitempty"`
	Eta   int    `json:"eta,omitempty"`
	Url   string `json:"url,omitempty"`
	Error string `json:"error,omitempty"`
}

package models

import "time"

const DefaultHistorySize = 12

// A Ready entry older than this must be rebuilt before playback.
const DefaultStaleMovieAge = 180 * 24 * time.Hour

const (
	MinShownLayers = 1
	MaxShownLayers = 3
)

const (
	MinFrameRate   = 1
	MaxFrameRate   = 30
	MinMovieLength = 5
	MaxMovieLength = 100
)

// Smallest selectable region, in screen pixels at the current image scale.
const MinSelectionPixels = 50.0

const DefaultMovieFormat = "mp4"

// Window derived around the observation time when no explicit start/end pair
// is given.
const DefaultMovieDuration = time.Hour

// The server rejects a queueMovie request with this errno when the build
// queue is at capacity.
const ErrNo_QueueFull = 40

const (
	Env_MovieDuration = "HV_MOVIE_DURATION"
	Env_HistorySize   = "HV_HISTORY_SIZE"
	Env_StaleAfter    = "HV_STALE_AFTER"
)

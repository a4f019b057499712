package models

import (
	"time"

	"github.com/google/uuid"
)

// MovieStatusEvent is broadcast to downstream consumers when an entry reaches
// a terminal state.
type MovieStatusEvent struct {
	Id        uuid.UUID   `json:"eid"`
	MovieId   string      `json:"mid"`
	Status    MovieStatus `json:"sts"`
	Url       string      `json:"url,omitempty"`
	Timestamp time.Time   `json:"ts"`
}

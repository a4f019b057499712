package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Helioviewer-Project/go-movies/models"
)

const publishTimeout = 30 * time.Second

// EventService is a registry observer that broadcasts terminal status events
// to the downstream queue.
type EventService struct {
	publisher models.QueuePublisher
	logger    models.Logger
}

func NewEventService(publisher models.QueuePublisher, logger models.Logger) *EventService {
	return &EventService{publisher, logger}
}

// Broadcast implements models.RegistryObserver.
func (e *EventService) Broadcast(entry *models.MovieEntry) {
	if !entry.Status.Terminal() {
		return
	}
	event := &models.MovieStatusEvent{
		Id:        uuid.New(),
		MovieId:   entry.Id,
		Status:    entry.Status,
		Url:       entry.Url,
		Timestamp: time.Now().UTC(),
	}
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	if _, err := e.publisher.SendMessage(ctx, event); err != nil {
		e.logger.Errorf("events: failed to send message: %v, %v", event, err)
	}
}

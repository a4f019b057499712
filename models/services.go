package models

import (
	"context"
	"time"
)

// MovieApi is the transport adapter for the remote rendering service. It
// defines interpretation-free access to the JSON API; timeouts and the
// one-shot retry on connection failure live behind this interface.
type MovieApi interface {
	QueueMovie(ctx context.Context, request *MovieRequest, format string) (*ServerAck, error)
	ReQueueMovie(ctx context.Context, id string) (*ServerAck, error)
	GetMovieStatus(ctx context.Context, id, format string, verbose bool, token string) (*MovieStatusResponse, error)
	GetETAForMovie(ctx context.Context, request *MovieRequest) (*MovieETAResponse, error)
	GetMovie(ctx context.Context, id string) (*MoviePollResponse, error)
}

// HistoryRepository is the external settings-store collaborator. The whole
// history is overwritten wholesale on each save, best effort.
type HistoryRepository interface {
	LoadHistory(ctx context.Context) ([]*MovieEntry, error)
	SaveHistory(ctx context.Context, entries []*MovieEntry) error
}

// ArchiveRepository records terminal job outcomes for operator statistics.
type ArchiveRepository interface {
	RecordOutcome(ctx context.Context, entry *MovieEntry) error
}

type QueuePublisher interface {
	GetUrl() string
	SendMessage(ctx context.Context, event any) (string, error)
}

// Notifier delivers non-blocking user-visible messages. Failures to notify
// are logged and never fail the operation being reported on.
type Notifier interface {
	SendInfo(content string) error
	SendWarning(content string) error
}

type MetricService interface {
	Count(ctx context.Context, name MetricName, val int) error
	Distribution(ctx context.Context, name MetricName, val int) error
	Shutdown(ctx context.Context)
}

// Scheduler is the cancellable timer abstraction used by the pollers: at most
// one task is armed per job id, and re-scheduling an id replaces its task.
// Tests substitute a fake that fires tasks deterministically.
type Scheduler interface {
	Schedule(id string, delay time.Duration, task func())
	Cancel(id string) bool
}

// RegistryObserver is invoked with a snapshot of an entry after every
// registry mutation that added it or changed its status.
type RegistryObserver func(entry *MovieEntry)

type Logger interface {
	Debugf(template string, args ...interface{})
	Debugw(msg string, args ...interface{})
	Errorf(template string, args ...interface{})
	Fatalf(template string, args ...interface{})
	Infof(template string, args ...interface{})
	Infoln(args ...interface{})
	Warnf(template string, args ...interface{})
	Sync() error
}

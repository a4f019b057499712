package services

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/Helioviewer-Project/go-movies/models"
)

// FreshnessService is the lazy staleness/retry gate: evaluated when a user
// reaches for an entry, never on a timer sweep. A Ready entry younger than the
// retention limit is reused as-is; an Error entry, or a Ready one past the
// limit, is rebuilt in place through reQueueMovie so it keeps its id.
type FreshnessService struct {
	apiClient     models.MovieApi
	registry      *RegistryService
	poller        *PollingService
	notifier      models.Notifier
	metricService models.MetricService
	logger        models.Logger
	maxAge        time.Duration
	now           func() time.Time
}

func NewFreshnessService(apiClient models.MovieApi, registry *RegistryService, poller *PollingService, notifier models.Notifier, metricService models.MetricService, logger models.Logger) *FreshnessService {
	maxAge := models.DefaultStaleMovieAge
	if configMaxAge, found := os.LookupEnv(models.Env_StaleAfter); found {
		if parsedMaxAge, err := time.ParseDuration(configMaxAge); err == nil && parsedMaxAge > 0 {
			maxAge = parsedMaxAge
		}
	}
	return &FreshnessService{apiClient, registry, poller, notifier, metricService, logger, maxAge, time.Now}
}

// EnsureFresh returns the entry matching id, rebuilding it first if it is
// errored or stale. A reusable entry is returned unchanged, so calling this
// twice in a row on a fresh Ready entry is a no-op both times.
func (f *FreshnessService) EnsureFresh(ctx context.Context, id string) (*models.MovieEntry, error) {
	entry, found := f.registry.Get(id)
	if !found {
		return nil, fmt.Errorf("freshness: unknown movie %s", id)
	}

	switch {
	case entry.Status == models.MovieStatus_Queued || entry.Status == models.MovieStatus_Processing:
		// Still in flight, its polling chain owns the next transition.
		return entry, nil
	case entry.Status == models.MovieStatus_Ready && !entry.Stale(f.now(), f.maxAge):
		return entry, nil
	}
	return f.rebuild(ctx, entry)
}

func (f *FreshnessService) rebuild(ctx context.Context, entry *models.MovieEntry) (*models.MovieEntry, error) {
	f.logger.Infof("freshness: rebuilding %s movie %s", entry.Status, entry.Id)
	ack, err := f.apiClient.ReQueueMovie(ctx, entry.Id)
	if err != nil {
		return nil, f.rejected(ctx, &models.BuildError{Detail: err.Error()})
	}

	switch {
	case ack.QueueFull():
		f.metricService.Count(ctx, models.MetricName_CapacityRejected, 1)
		f.notify(ack.Error)
		return nil, &models.CapacityError{Message: ack.Error}
	case len(ack.Error) > 0:
		return nil, f.rejected(ctx, &models.BuildError{Detail: ack.Error})
	case len(ack.Warning) > 0:
		f.metricService.Count(ctx, models.MetricName_SubmitWarning, 1)
		f.notify(ack.Warning)
		return entry, nil
	case !ack.Accepted():
		return nil, f.rejected(ctx, &models.BuildError{Detail: "empty acknowledgment"})
	}

	// Reset in place: same id, fresh attempt starting over at Queued.
	status := models.MovieStatus_Queued
	progress := 0
	requestedAt := f.now().UTC()
	f.registry.Update(ctx, entry.Id, &models.MoviePatch{
		Status:        &status,
		Progress:      &progress,
		Token:         &ack.Token,
		DateRequested: &requestedAt,
	})
	f.metricService.Count(ctx, models.MetricName_MovieRebuilt, 1)
	f.poller.Watch(ctx, entry.Id, ack.Token, ack.Eta)

	rebuilt, _ := f.registry.Get(entry.Id)
	return rebuilt, nil
}

func (f *FreshnessService) rejected(ctx context.Context, buildErr *models.BuildError) error {
	f.logger.Warnf("freshness: reQueueMovie rejected: %s", buildErr.Detail)
	f.metricService.Count(ctx, models.MetricName_MovieFailed, 1)
	f.notify(buildErr.Error())
	return buildErr
}

func (f *FreshnessService) notify(content string) {
	if err := f.notifier.SendWarning(content); err != nil {
		f.logger.Errorf("freshness: error sending notification: %v", err)
	}
}

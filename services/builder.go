package services

import (
	"context"
	"fmt"
	"os"

	movies "github.com/Helioviewer-Project/go-movies"
	"github.com/Helioviewer-Project/go-movies/models"
)

// BuildService is the low-level build path: it asks for an ETA up front,
// queues the movie, then polls getMovie by id until a playback URL or an
// error comes back. Jobs on this path are fire-and-forget and never enter the
// registry; the result is delivered to the caller's callback.
type BuildService struct {
	apiClient     models.MovieApi
	scheduler     models.Scheduler
	notifier      models.Notifier
	metricService models.MetricService
	logger        models.Logger
	format        string
}

func NewBuildService(apiClient models.MovieApi, scheduler models.Scheduler, notifier models.Notifier, metricService models.MetricService, logger models.Logger) *BuildService {
	format := models.DefaultMovieFormat
	if configFormat, found := os.LookupEnv(movies.Env_MovieFormat); found {
		format = configFormat
	}
	return &BuildService{apiClient, scheduler, notifier, metricService, logger, format}
}

// Build queues the request and polls until done. onDone receives either the
// playback URL or the build failure.
func (b *BuildService) Build(ctx context.Context, request *models.MovieRequest, onDone func(url string, err error)) error {
	etaResp, err := b.apiClient.GetETAForMovie(ctx, request)
	if err != nil {
		return &models.BuildError{Detail: err.Error()}
	}
	if len(etaResp.Error) > 0 {
		return &models.BuildError{Detail: etaResp.Error}
	}
	if err = b.notifier.SendInfo(fmt.Sprintf(models.MsgFmt_Processing, humanEta(etaResp.Eta))); err != nil {
		b.logger.Errorf("build: error sending notification: %v", err)
	}

	ack, err := b.apiClient.QueueMovie(ctx, request, b.format)
	if err != nil {
		return &models.BuildError{Detail: err.Error()}
	}
	if len(ack.Error) > 0 {
		if ack.QueueFull() {
			return &models.CapacityError{Message: ack.Error}
		}
		return &models.BuildError{Detail: ack.Error}
	}
	if !ack.Accepted() {
		return &models.BuildError{Detail: "empty acknowledgment"}
	}

	b.metricService.Count(ctx, models.MetricName_MovieQueued, 1)
	b.schedule(ctx, ack.Id, etaResp.Eta, onDone)
	return nil
}

func (b *BuildService) schedule(ctx context.Context, id string, etaSeconds int, onDone func(url string, err error)) {
	b.scheduler.Schedule("build:"+id, delayFor(etaSeconds), func() {
		b.poll(ctx, id, onDone)
	})
}

func (b *BuildService) poll(ctx context.Context, id string, onDone func(url string, err error)) {
	b.metricService.Count(ctx, models.MetricName_StatusPoll, 1)
	pollResp, err := b.apiClient.GetMovie(ctx, id)
	if err != nil {
		onDone("", &models.BuildError{Detail: err.Error()})
		return
	}
	switch {
	case len(pollResp.Error) > 0:
		b.metricService.Count(ctx, models.MetricName_MovieFailed, 1)
		onDone("", &models.BuildError{Detail: pollResp.Error})
	case len(pollResp.Url) > 0:
		b.metricService.Count(ctx, models.MetricName_MovieReady, 1)
		onDone(pollResp.Url, nil)
	default:
		b.schedule(ctx, id, pollResp.Eta, onDone)
	}
}

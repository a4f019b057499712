package services

import (
	"context"
	"fmt"
	"os"

	movies "github.com/Helioviewer-Project/go-movies"
	"github.com/Helioviewer-Project/go-movies/models"
)

// PollingService drives every in-flight job through Queued -> Processing ->
// {Ready, Error}. Each job is an independent chain: one status query is armed
// per response, after the server-provided eta, so a slow backend never sees a
// fixed-interval poll storm. There is no retry cap; a chain ends only on a
// terminal response.
type PollingService struct {
	apiClient     models.MovieApi
	registry      *RegistryService
	scheduler     models.Scheduler
	notifier      models.Notifier
	metricService models.MetricService
	logger        models.Logger
	format        string
}

func NewPollingService(apiClient models.MovieApi, registry *RegistryService, scheduler models.Scheduler, notifier models.Notifier, metricService models.MetricService, logger models.Logger) *PollingService {
	format := models.DefaultMovieFormat
	if configFormat, found := os.LookupEnv(movies.Env_MovieFormat); found {
		format = configFormat
	}
	return &PollingService{apiClient, registry, scheduler, notifier, metricService, logger, format}
}

// Watch arms the polling chain for a freshly acknowledged job. Watching an id
// that already has a pending poll replaces it, so a rebuilt job gets a single
// fresh chain.
func (p *PollingService) Watch(ctx context.Context, id, token string, etaSeconds int) {
	p.schedule(ctx, id, token, etaSeconds)
}

// Stop cancels a job's pending poll, if any. Already-queued server-side
// rendering continues out-of-band.
func (p *PollingService) Stop(id string) bool {
	return p.scheduler.Cancel(id)
}

func (p *PollingService) schedule(ctx context.Context, id, token string, etaSeconds int) {
	p.scheduler.Schedule(id, delayFor(etaSeconds), func() {
		p.poll(ctx, id, token)
	})
}

func (p *PollingService) poll(ctx context.Context, id, token string) {
	p.metricService.Count(ctx, models.MetricName_StatusPoll, 1)
	statusResp, err := p.apiClient.GetMovieStatus(ctx, id, p.format, false, token)
	if err != nil {
		// The transport already retried once; from here any failure is an
		// Error outcome for this attempt.
		p.fail(ctx, id, err.Error())
		return
	}
	if statusResp.Failed() {
		p.fail(ctx, id, statusResp.Error)
		return
	}
	if statusResp.Ready() {
		p.complete(ctx, id, statusResp)
		return
	}

	status := models.MovieStatus_Processing
	p.registry.Update(ctx, id, &models.MoviePatch{
		Status:   &status,
		Progress: statusResp.Progress,
	})
	p.logger.Debugf("poll: movie %s still processing, next check in %ds", id, statusResp.Eta)
	p.schedule(ctx, id, token, statusResp.Eta)
}

func (p *PollingService) complete(ctx context.Context, id string, statusResp *models.MovieStatusResponse) {
	status := models.MovieStatus_Ready
	patch := &models.MoviePatch{
		Status:    &status,
		Duration:  &statusResp.Duration,
		NumFrames: &statusResp.NumFrames,
		Width:     &statusResp.Width,
		Height:    &statusResp.Height,
		Thumbnail: &statusResp.Thumbnail.Small,
		Url:       &statusResp.Url,
	}
	if statusResp.FrameRate > 0 {
		frameRate := int(statusResp.FrameRate)
		patch.FrameRate = &frameRate
	}
	if startDate, err := models.ParseUTCDate(statusResp.StartDate); err == nil {
		patch.StartDate = &startDate
	}
	if endDate, err := models.ParseUTCDate(statusResp.EndDate); err == nil {
		patch.EndDate = &endDate
	}
	p.registry.Update(ctx, id, patch)

	p.logger.Infof("poll: movie %s is ready: %s", id, statusResp.Url)
	p.metricService.Count(ctx, models.MetricName_MovieReady, 1)
	name := id
	if entry, found := p.registry.Get(id); found && len(entry.Name) > 0 {
		name = entry.Name
	}
	if err := p.notifier.SendInfo(fmt.Sprintf(models.MsgFmt_Ready, name)); err != nil {
		p.logger.Errorf("poll: error sending notification: %v", err)
	}
}

func (p *PollingService) fail(ctx context.Context, id, detail string) {
	status := models.MovieStatus_Error
	p.registry.Update(ctx, id, &models.MoviePatch{Status: &status})

	p.logger.Warnf("poll: movie %s failed: %s", id, detail)
	p.metricService.Count(ctx, models.MetricName_MovieFailed, 1)
	buildErr := models.BuildError{Detail: detail}
	if err := p.notifier.SendWarning(buildErr.Error()); err != nil {
		p.logger.Errorf("poll: error sending notification: %v", err)
	}
}

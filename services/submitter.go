package services

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	movies "github.com/Helioviewer-Project/go-movies"
	"github.com/Helioviewer-Project/go-movies/models"
)

// SubmitService sends composed requests to the rendering service and
// interprets the immediate acknowledgment. A successful acknowledgment
// produces exactly one Queued registry entry and arms the poller for it;
// every other outcome leaves the registry untouched.
type SubmitService struct {
	apiClient     models.MovieApi
	registry      *RegistryService
	poller        *PollingService
	notifier      models.Notifier
	metricService models.MetricService
	logger        models.Logger
	format        string
	now           func() time.Time
}

func NewSubmitService(apiClient models.MovieApi, registry *RegistryService, poller *PollingService, notifier models.Notifier, metricService models.MetricService, logger models.Logger) *SubmitService {
	format := models.DefaultMovieFormat
	if configFormat, found := os.LookupEnv(movies.Env_MovieFormat); found {
		format = configFormat
	}
	return &SubmitService{apiClient, registry, poller, notifier, metricService, logger, format, time.Now}
}

// Submit queues the request. The returned entry is nil when the server
// answered with a warning: nothing was queued and the caller must resubmit if
// still wanted.
func (s *SubmitService) Submit(ctx context.Context, request *models.MovieRequest) (*models.MovieEntry, error) {
	ack, err := s.apiClient.QueueMovie(ctx, request, s.format)
	if err != nil {
		return nil, s.rejected(ctx, &models.BuildError{Detail: err.Error()})
	}

	switch {
	case ack.QueueFull():
		s.metricService.Count(ctx, models.MetricName_CapacityRejected, 1)
		s.notifyInfo(ack.Error)
		return nil, &models.CapacityError{Message: ack.Error}
	case len(ack.Error) > 0:
		return nil, s.rejected(ctx, &models.BuildError{Detail: ack.Error})
	case len(ack.Warning) > 0:
		s.logger.Infof("submit: request abandoned with warning: %s", ack.Warning)
		s.metricService.Count(ctx, models.MetricName_SubmitWarning, 1)
		s.notifyWarning(ack.Warning)
		return nil, nil
	case !ack.Accepted():
		return nil, s.rejected(ctx, &models.BuildError{Detail: "empty acknowledgment"})
	}

	entry := s.newEntry(request, ack)
	stored := s.registry.Add(ctx, entry)
	s.logger.Infof("submit: queued movie %s, eta %ds", stored.Id, ack.Eta)
	s.metricService.Count(ctx, models.MetricName_MovieQueued, 1)
	s.metricService.Distribution(ctx, models.MetricName_QueueEta, ack.Eta)
	s.notifyInfo(fmt.Sprintf(models.MsgFmt_Processing, humanEta(ack.Eta)))
	s.poller.Watch(ctx, stored.Id, ack.Token, ack.Eta)
	return stored, nil
}

func (s *SubmitService) rejected(ctx context.Context, buildErr *models.BuildError) error {
	s.logger.Warnf("submit: queueMovie rejected: %s", buildErr.Detail)
	s.metricService.Count(ctx, models.MetricName_MovieFailed, 1)
	s.notifyWarning(buildErr.Error())
	return buildErr
}

func (s *SubmitService) notifyInfo(content string) {
	if err := s.notifier.SendInfo(content); err != nil {
		s.logger.Errorf("submit: error sending notification: %v", err)
	}
}

func (s *SubmitService) notifyWarning(content string) {
	if err := s.notifier.SendWarning(content); err != nil {
		s.logger.Errorf("submit: error sending notification: %v", err)
	}
}

func (s *SubmitService) newEntry(request *models.MovieRequest, ack *models.ServerAck) *models.MovieEntry {
	return &models.MovieEntry{
		Id:            ack.Id,
		Status:        models.MovieStatus_Queued,
		Token:         ack.Token,
		Name:          movieName(request.Layers),
		DateRequested: s.now().UTC(),
		ImageScale:    request.ImageScale,
		Layers:        request.Layers,
		Events:        request.Events,
		EventsLabels:  request.EventsLabels,
		Scale:         request.Scale,
		ScaleType:     request.ScaleType,
		ScaleX:        request.ScaleX,
		ScaleY:        request.ScaleY,
		StartDate:     request.StartTime,
		EndDate:       request.EndTime,
		X1:            request.Region.X1,
		X2:            request.Region.X2,
		Y1:            request.Region.Y1,
		Y2:            request.Region.Y2,
		FrameRate:     request.FrameRate,
		MovieLength:   request.MovieLength,
	}
}

// movieName builds a human-readable title from the shown layers, e.g.
// "SDO AIA 304, SOHO LASCO C2".
func movieName(layers models.LayerList) string {
	names := make([]string, 0, len(layers))
	for _, layer := range layers {
		if !layer.Shown() {
			continue
		}
		parts := make([]string, 0, 4)
		for _, part := range []string{layer.Observatory, layer.Instrument, layer.Detector, layer.Measurement} {
			if len(part) > 0 && (len(parts) == 0 || parts[len(parts)-1] != part) {
				parts = append(parts, part)
			}
		}
		names = append(names, strings.Join(parts, " "))
	}
	return strings.Join(names, ", ")
}

func humanEta(etaSeconds int) string {
	if etaSeconds <= 0 {
		return "a few seconds"
	}
	return (time.Duration(etaSeconds) * time.Second).String()
}

package services

import (
	"context"
	"fmt"
	"os"

	movies "github.com/Helioviewer-Project/go-movies"
	"github.com/Helioviewer-Project/go-movies/models"
)

// ImportService adds a movie someone else built to the local history from a
// shared id. The verbose status response carries everything needed to fill a
// complete entry.
type ImportService struct {
	apiClient     models.MovieApi
	registry      *RegistryService
	metricService models.MetricService
	logger        models.Logger
	format        string
}

func NewImportService(apiClient models.MovieApi, registry *RegistryService, metricService models.MetricService, logger models.Logger) *ImportService {
	format := models.DefaultMovieFormat
	if configFormat, found := os.LookupEnv(movies.Env_MovieFormat); found {
		format = configFormat
	}
	return &ImportService{apiClient, registry, metricService, logger, format}
}

func (i *ImportService) Import(ctx context.Context, id string) (*models.MovieEntry, error) {
	statusResp, err := i.apiClient.GetMovieStatus(ctx, id, i.format, true, "")
	if err != nil {
		return nil, err
	}
	if statusResp.Failed() {
		return nil, &models.BuildError{Detail: statusResp.Error}
	}
	if !statusResp.Ready() {
		return nil, fmt.Errorf("import: movie %s is not ready yet", id)
	}

	layers, err := models.ParseLayerString(statusResp.Layers)
	if err != nil {
		return nil, err
	}
	entry := &models.MovieEntry{
		Id:           id,
		Status:       models.MovieStatus_Ready,
		Name:         movieName(layers),
		ImageScale:   statusResp.ImageScale,
		Layers:       layers,
		Events:       statusResp.Events,
		EventsLabels: statusResp.EventsLabels,
		X1:           statusResp.X1,
		X2:           statusResp.X2,
		Y1:           statusResp.Y1,
		Y2:           statusResp.Y2,
		Duration:     statusResp.Duration,
		NumFrames:    statusResp.NumFrames,
		Width:        statusResp.Width,
		Height:       statusResp.Height,
		Thumbnail:    statusResp.Thumbnail.Small,
		Url:          statusResp.Url,
	}
	if statusResp.FrameRate > 0 {
		frameRate := int(statusResp.FrameRate)
		entry.FrameRate = &frameRate
	}
	if requestedAt, err := models.ParseUTCDate(statusResp.Timestamp); err == nil {
		entry.DateRequested = requestedAt
	}
	if startDate, err := models.ParseUTCDate(statusResp.StartDate); err == nil {
		entry.StartDate = startDate
	}
	if endDate, err := models.ParseUTCDate(statusResp.EndDate); err == nil {
		entry.EndDate = endDate
	}

	stored := i.registry.Add(ctx, entry)
	i.logger.Infof("import: added shared movie %s", id)
	i.metricService.Count(ctx, models.MetricName_MovieImported, 1)
	return stored, nil
}

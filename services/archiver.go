package services

import (
	"context"
	"time"

	"github.com/Helioviewer-Project/go-movies/models"
)

const archiveTimeout = 10 * time.Second

// ArchiveService is a registry observer that records terminal outcomes into
// the archive database for operator statistics. Non-terminal transitions are
// ignored, and a failed write never disturbs the registry.
type ArchiveService struct {
	archiveDb     models.ArchiveRepository
	metricService models.MetricService
	logger        models.Logger
}

func NewArchiveService(archiveDb models.ArchiveRepository, metricService models.MetricService, logger models.Logger) *ArchiveService {
	return &ArchiveService{archiveDb, metricService, logger}
}

// Record implements models.RegistryObserver.
func (a *ArchiveService) Record(entry *models.MovieEntry) {
	if !entry.Status.Terminal() {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
	defer cancel()

	if err := a.archiveDb.RecordOutcome(ctx, entry); err != nil {
		a.logger.Errorf("archive: error recording movie %s: %v", entry.Id, err)
		return
	}
	a.metricService.Count(ctx, models.MetricName_MovieArchived, 1)
}

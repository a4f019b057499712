package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	movies "github.com/Helioviewer-Project/go-movies"
	"github.com/Helioviewer-Project/go-movies/models"
)

// ArchiveDatabase records terminal movie outcomes in Postgres so operators
// can report on throughput and failure rates across sessions.
type ArchiveDatabase struct {
	opts   ArchiveDbOpts
	logger models.Logger
}

type ArchiveDbOpts struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

var _ models.ArchiveRepository = &ArchiveDatabase{}

func NewArchiveDb(opts ArchiveDbOpts, logger models.Logger) *ArchiveDatabase {
	return &ArchiveDatabase{opts, logger}
}

func (adb *ArchiveDatabase) RecordOutcome(ctx context.Context, entry *models.MovieEntry) error {
	dbCtx, dbCancel := context.WithTimeout(ctx, movies.DefaultHttpWaitTime)
	defer dbCancel()

	conn, err := pgx.Connect(dbCtx, adb.connUrl())
	if err != nil {
		adb.logger.Errorf("archive: error connecting to db: %v", err)
		return err
	}
	defer conn.Close(context.Background())

	_, err = conn.Exec(
		dbCtx,
		`INSERT INTO movie_outcome (id, status, date_requested, duration, num_frames, width, height, url)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (id) DO UPDATE SET
		   status = EXCLUDED.status,
		   date_requested = EXCLUDED.date_requested,
		   duration = EXCLUDED.duration,
		   num_frames = EXCLUDED.num_frames,
		   width = EXCLUDED.width,
		   height = EXCLUDED.height,
		   url = EXCLUDED.url`,
		entry.Id,
		int(entry.Status),
		entry.DateRequested,
		entry.Duration,
		entry.NumFrames,
		entry.Width,
		entry.Height,
		entry.Url,
	)
	if err != nil {
		adb.logger.Errorf("archive: error writing to db: %v", err)
		return err
	}
	return nil
}

func (adb *ArchiveDatabase) connUrl() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s",
		adb.opts.User,
		adb.opts.Password,
		adb.opts.Host,
		adb.opts.Port,
		adb.opts.Name,
	)
}

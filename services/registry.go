package services

import (
	"context"
	"os"
	"strconv"
	"sync"

	"github.com/Helioviewer-Project/go-movies/models"
)

// RegistryService owns the ordered movie history: most-recent-first, unique
// ids, bounded capacity with oldest-first eviction. Every mutation that adds
// an entry or changes a status is written through to the history store and
// fanned out to subscribed observers.
type RegistryService struct {
	historyDb     models.HistoryRepository
	metricService models.MetricService
	logger        models.Logger
	capacity      int
	entries       []*models.MovieEntry
	observers     []models.RegistryObserver
	mux           sync.Mutex
}

func NewRegistryService(historyDb models.HistoryRepository, metricService models.MetricService, logger models.Logger) *RegistryService {
	capacity := models.DefaultHistorySize
	if configCapacity, found := os.LookupEnv(models.Env_HistorySize); found {
		if parsedCapacity, err := strconv.Atoi(configCapacity); err == nil && parsedCapacity > 0 {
			capacity = parsedCapacity
		}
	}
	return &RegistryService{
		historyDb:     historyDb,
		metricService: metricService,
		logger:        logger,
		capacity:      capacity,
	}
}

// Subscribe registers an observer invoked with an entry snapshot after every
// add and every status change. Observers must be registered before the
// registry is shared across goroutines.
func (r *RegistryService) Subscribe(observer models.RegistryObserver) {
	r.observers = append(r.observers, observer)
}

// Load replaces the in-memory history with the persisted one. Called once at
// startup, before any submissions.
func (r *RegistryService) Load(ctx context.Context) error {
	entries, err := r.historyDb.LoadHistory(ctx)
	if err != nil {
		return err
	}
	r.mux.Lock()
	defer r.mux.Unlock()
	if len(entries) > r.capacity {
		entries = entries[:r.capacity]
	}
	r.entries = entries
	r.logger.Infof("registry: loaded %d movies from history", len(entries))
	return nil
}

// Add inserts the entry at the head of the history. Adding an id that is
// already present overwrites the existing entry in place instead of creating
// a second one. Once the history exceeds capacity the oldest entry is
// evicted.
func (r *RegistryService) Add(ctx context.Context, entry *models.MovieEntry) *models.MovieEntry {
	r.mux.Lock()
	stored := r.findLocked(entry.Id)
	if stored != nil {
		*stored = *entry
	} else {
		stored = new(models.MovieEntry)
		*stored = *entry
		r.entries = append([]*models.MovieEntry{stored}, r.entries...)
		if len(r.entries) > r.capacity {
			evicted := r.entries[len(r.entries)-1]
			r.entries = r.entries[:len(r.entries)-1]
			r.logger.Infof("registry: evicted movie %s to stay within %d entries", evicted.Id, r.capacity)
			r.metricService.Count(ctx, models.MetricName_HistoryEvicted, 1)
		}
	}
	snapshot := *stored
	r.mux.Unlock()

	r.persist(ctx)
	r.notify(&snapshot)
	return &snapshot
}

// Update merges the patch into the entry matching id. Updates for ids that
// are not in the history are ignored. The write-through save and the observer
// fan-out only happen when the patch changed the entry's status.
func (r *RegistryService) Update(ctx context.Context, id string, patch *models.MoviePatch) {
	r.mux.Lock()
	entry := r.findLocked(id)
	if entry == nil {
		r.mux.Unlock()
		r.logger.Debugf("registry: ignoring update for unknown movie %s", id)
		return
	}
	statusChanged := applyPatch(entry, patch)
	snapshot := *entry
	r.mux.Unlock()

	if statusChanged {
		r.persist(ctx)
		r.notify(&snapshot)
	}
}

// Get returns a snapshot of the entry matching id.
func (r *RegistryService) Get(id string) (*models.MovieEntry, bool) {
	r.mux.Lock()
	defer r.mux.Unlock()

	if entry := r.findLocked(id); entry != nil {
		snapshot := *entry
		return &snapshot, true
	}
	return nil, false
}

// List returns entry snapshots, most recent first.
func (r *RegistryService) List() []*models.MovieEntry {
	r.mux.Lock()
	defer r.mux.Unlock()

	entries := make([]*models.MovieEntry, len(r.entries))
	for idx, entry := range r.entries {
		snapshot := *entry
		entries[idx] = &snapshot
	}
	return entries
}

func (r *RegistryService) Size() int {
	r.mux.Lock()
	defer r.mux.Unlock()
	return len(r.entries)
}

// Clear empties the history, both in memory and in the store.
func (r *RegistryService) Clear(ctx context.Context) {
	r.mux.Lock()
	r.entries = nil
	r.mux.Unlock()
	r.persist(ctx)
}

func (r *RegistryService) findLocked(id string) *models.MovieEntry {
	for _, entry := range r.entries {
		if entry.Id == id {
			return entry
		}
	}
	return nil
}

// persist overwrites the stored history wholesale, best effort. A failed save
// never fails the mutation that triggered it.
func (r *RegistryService) persist(ctx context.Context) {
	if err := r.historyDb.SaveHistory(ctx, r.List()); err != nil {
		r.logger.Errorf("registry: error saving history: %v", err)
	}
}

func (r *RegistryService) notify(snapshot *models.MovieEntry) {
	for _, observer := range r.observers {
		observer(snapshot)
	}
}

func applyPatch(entry *models.MovieEntry, patch *models.MoviePatch) bool {
	statusChanged := false
	if patch.Status != nil && *patch.Status != entry.Status {
		entry.Status = *patch.Status
		statusChanged = true
	}
	if patch.Progress != nil {
		entry.Progress = *patch.Progress
	}
	if patch.Token != nil {
		entry.Token = *patch.Token
	}
	if patch.DateRequested != nil {
		entry.DateRequested = *patch.DateRequested
	}
	if patch.Duration != nil {
		entry.Duration = *patch.Duration
	}
	if patch.NumFrames != nil {
		entry.NumFrames = *patch.NumFrames
	}
	if patch.FrameRate != nil {
		entry.FrameRate = patch.FrameRate
	}
	if patch.Width != nil {
		entry.Width = *patch.Width
	}
	if patch.Height != nil {
		entry.Height = *patch.Height
	}
	if patch.Thumbnail != nil {
		entry.Thumbnail = *patch.Thumbnail
	}
	if patch.Url != nil {
		entry.Url = *patch.Url
	}
	if patch.StartDate != nil {
		entry.StartDate = *patch.StartDate
	}
	if patch.EndDate != nil {
		entry.EndDate = *patch.EndDate
	}
	return statusChanged
}

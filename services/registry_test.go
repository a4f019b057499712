package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/Helioviewer-Project/go-movies/models"
)

func TestRegistryCapacity(t *testing.T) {
	historyRepo := &FakeHistoryRepository{}
	registry := NewRegistryService(historyRepo, NewFakeMetricService(), &FakeLogger{})

	requestedAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 1; i <= models.DefaultHistorySize+1; i++ {
		registry.Add(context.Background(), testEntry(fmt.Sprintf("movie%d", i), models.MovieStatus_Queued, requestedAt.Add(time.Duration(i)*time.Minute)))
	}

	if size := registry.Size(); size != models.DefaultHistorySize {
		t.Errorf("incorrect history size: expected %d, got %d", models.DefaultHistorySize, size)
	}
	if _, found := registry.Get("movie1"); found {
		t.Errorf("the oldest entry should have been evicted")
	}
	if _, found := registry.Get("movie2"); !found {
		t.Errorf("only the oldest entry should have been evicted")
	}

	entries := registry.List()
	if entries[0].Id != fmt.Sprintf("movie%d", models.DefaultHistorySize+1) {
		t.Errorf("entries should be ordered most recent first, got %s at the head", entries[0].Id)
	}
}

func TestRegistryDuplicateAdd(t *testing.T) {
	historyRepo := &FakeHistoryRepository{}
	registry := NewRegistryService(historyRepo, NewFakeMetricService(), &FakeLogger{})

	requestedAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	registry.Add(context.Background(), testEntry("movie1", models.MovieStatus_Queued, requestedAt))
	updated := testEntry("movie1", models.MovieStatus_Ready, requestedAt)
	updated.Url = "https://example.com/movie1.mp4"
	registry.Add(context.Background(), updated)

	if size := registry.Size(); size != 1 {
		t.Fatalf("a duplicate id should update in place, got %d entries", size)
	}
	entry, _ := registry.Get("movie1")
	if entry.Status != models.MovieStatus_Ready || entry.Url != updated.Url {
		t.Errorf("incorrect entry after duplicate add: %+v", entry)
	}
}

func TestRegistryUpdate(t *testing.T) {
	historyRepo := &FakeHistoryRepository{}
	registry := NewRegistryService(historyRepo, NewFakeMetricService(), &FakeLogger{})

	var observed []*models.MovieEntry
	registry.Subscribe(func(entry *models.MovieEntry) {
		observed = append(observed, entry)
	})

	requestedAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	registry.Add(context.Background(), testEntry("movie1", models.MovieStatus_Queued, requestedAt))
	numSaves := len(historyRepo.saves)

	// A status change is written through and fanned out.
	status := models.MovieStatus_Processing
	progress := 40
	registry.Update(context.Background(), "movie1", &models.MoviePatch{Status: &status, Progress: &progress})
	if len(historyRepo.saves) != numSaves+1 {
		t.Errorf("a status change should be written through")
	}
	if len(observed) != 2 || observed[1].Status != models.MovieStatus_Processing || observed[1].Progress != 40 {
		t.Errorf("incorrect observer fan-out: %+v", observed)
	}

	// A progress-only update mutates the entry without another save.
	progress = 80
	registry.Update(context.Background(), "movie1", &models.MoviePatch{Status: &status, Progress: &progress})
	if len(historyRepo.saves) != numSaves+1 {
		t.Errorf("a progress-only update should not be written through")
	}
	if entry, _ := registry.Get("movie1"); entry.Progress != 80 {
		t.Errorf("incorrect progress: expected 80, got %d", entry.Progress)
	}

	// Updates for unknown ids are ignored.
	registry.Update(context.Background(), "unknown", &models.MoviePatch{Status: &status})
	if len(historyRepo.saves) != numSaves+1 || len(observed) != 2 {
		t.Errorf("an update for an unknown id should be a no-op")
	}
}

func TestRegistryWriteThrough(t *testing.T) {
	historyRepo := &FakeHistoryRepository{}
	registry := NewRegistryService(historyRepo, NewFakeMetricService(), &FakeLogger{})

	requestedAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	registry.Add(context.Background(), testEntry("movie1", models.MovieStatus_Queued, requestedAt))
	registry.Add(context.Background(), testEntry("movie2", models.MovieStatus_Queued, requestedAt))

	if len(historyRepo.saves) != 2 {
		t.Fatalf("every add should overwrite the stored history, got %d saves", len(historyRepo.saves))
	}
	lastSave := historyRepo.saves[len(historyRepo.saves)-1]
	if len(lastSave) != 2 || lastSave[0].Id != "movie2" {
		t.Errorf("incorrect stored history: %+v", lastSave)
	}
}

func TestRegistryLoad(t *testing.T) {
	requestedAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	historyRepo := &FakeHistoryRepository{loaded: []*models.MovieEntry{
		testEntry("movie1", models.MovieStatus_Ready, requestedAt),
		testEntry("movie2", models.MovieStatus_Error, requestedAt),
	}}
	registry := NewRegistryService(historyRepo, NewFakeMetricService(), &FakeLogger{})

	if err := registry.Load(context.Background()); err != nil {
		t.Fatalf("Unexpected error received %v", err)
	}
	if size := registry.Size(); size != 2 {
		t.Errorf("incorrect history size after load: expected 2, got %d", size)
	}
	if entry, found := registry.Get("movie2"); !found || entry.Status != models.MovieStatus_Error {
		t.Errorf("incorrect loaded entry: %+v", entry)
	}
}

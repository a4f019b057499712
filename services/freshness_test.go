package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Helioviewer-Project/go-movies/models"
)

func newFreshnessFixture(apiClient *FakeMovieApi) (*FreshnessService, *RegistryService, *FakeScheduler, *FakeNotifier, *FakeMetricService, *FakeHistoryRepository) {
	historyRepo := &FakeHistoryRepository{}
	scheduler := NewFakeScheduler()
	notifier := &FakeNotifier{}
	metricService := NewFakeMetricService()
	logger := &FakeLogger{}
	registry := NewRegistryService(historyRepo, metricService, logger)
	poller := NewPollingService(apiClient, registry, scheduler, notifier, metricService, logger)
	freshness := NewFreshnessService(apiClient, registry, poller, notifier, metricService, logger)
	return freshness, registry, scheduler, notifier, metricService, historyRepo
}

func TestEnsureFreshReuse(t *testing.T) {
	apiClient := &FakeMovieApi{}
	freshness, registry, scheduler, _, _, historyRepo := newFreshnessFixture(apiClient)

	requestedAt := time.Now().UTC().Add(-10 * 24 * time.Hour)
	ready := testEntry("movie1", models.MovieStatus_Ready, requestedAt)
	ready.Url = "https://example.com/movie1.mp4"
	registry.Add(context.Background(), ready)
	numSaves := len(historyRepo.saves)

	// A fresh Ready entry is reused as-is, no matter how often it is checked.
	for i := 0; i < 2; i++ {
		entry, err := freshness.EnsureFresh(context.Background(), "movie1")
		if err != nil {
			t.Fatalf("Unexpected error received %v", err)
		}
		if entry.Status != models.MovieStatus_Ready || !entry.DateRequested.Equal(requestedAt) {
			t.Errorf("the entry should be unchanged: %+v", entry)
		}
	}
	if len(apiClient.requeuedIds) != 0 {
		t.Errorf("no rebuild should have been requested")
	}
	if len(historyRepo.saves) != numSaves {
		t.Errorf("no state change should have been persisted")
	}
	if len(scheduler.tasks) != 0 {
		t.Errorf("no poll should have been armed")
	}
}

func TestEnsureFreshRebuild(t *testing.T) {
	tests := map[string]struct {
		entry func() *models.MovieEntry
	}{
		"Will rebuild a ready entry past the retention limit": {
			entry: func() *models.MovieEntry {
				stale := testEntry("movie1", models.MovieStatus_Ready, time.Now().UTC().Add(-200*24*time.Hour))
				stale.Url = "https://example.com/movie1.mp4"
				return stale
			},
		},
		"Will rebuild an errored entry": {
			entry: func() *models.MovieEntry {
				return testEntry("movie1", models.MovieStatus_Error, time.Now().UTC().Add(-time.Hour))
			},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			apiClient := &FakeMovieApi{requeueAcks: []*models.ServerAck{
				{Id: "movie1", Eta: 45, Token: "tok2"},
			}}
			freshness, registry, scheduler, _, metricService, _ := newFreshnessFixture(apiClient)

			original := test.entry()
			registry.Add(context.Background(), original)

			rebuilt, err := freshness.EnsureFresh(context.Background(), "movie1")
			if err != nil {
				t.Fatalf("Unexpected error received %v", err)
			}

			if len(apiClient.requeuedIds) != 1 || apiClient.requeuedIds[0] != "movie1" {
				t.Fatalf("incorrect rebuild calls: %v", apiClient.requeuedIds)
			}
			if rebuilt.Id != original.Id {
				t.Errorf("the rebuilt entry must keep its id")
			}
			if rebuilt.Status != models.MovieStatus_Queued || rebuilt.Token != "tok2" {
				t.Errorf("the entry should restart at queued with the fresh token: %+v", rebuilt)
			}
			if !rebuilt.DateRequested.After(original.DateRequested) {
				t.Errorf("the request date should have been reset")
			}
			if rebuilt.X1 != original.X1 || rebuilt.ImageScale != original.ImageScale ||
				!rebuilt.StartDate.Equal(original.StartDate) || rebuilt.Layers.String() != original.Layers.String() {
				t.Errorf("the original request fields must be resubmitted unchanged: %+v", rebuilt)
			}
			if registry.Size() != 1 {
				t.Errorf("a rebuild must not create a second entry")
			}
			if delays := scheduler.delays["movie1"]; len(delays) != 1 || delays[0] != 45*time.Second {
				t.Errorf("a poll should be armed for the acknowledged eta, got %v", delays)
			}
			if metricService.counts[models.MetricName_MovieRebuilt] != 1 {
				t.Errorf("one rebuilt movie should have been counted")
			}
		})
	}
}

func TestEnsureFreshAfterPollFailure(t *testing.T) {
	apiClient := &FakeMovieApi{
		statusResps: []*models.MovieStatusResponse{
			{Status: intPtr(int(models.MovieStatus_Error)), Error: "render failed"},
		},
		requeueAcks: []*models.ServerAck{{Id: "movie1", Eta: 15, Token: "tok2"}},
	}
	historyRepo := &FakeHistoryRepository{}
	scheduler := NewFakeScheduler()
	notifier := &FakeNotifier{}
	metricService := NewFakeMetricService()
	logger := &FakeLogger{}
	registry := NewRegistryService(historyRepo, metricService, logger)
	poller := NewPollingService(apiClient, registry, scheduler, notifier, metricService, logger)
	freshness := NewFreshnessService(apiClient, registry, poller, notifier, metricService, logger)

	original := testEntry("movie1", models.MovieStatus_Queued, time.Now().UTC())
	registry.Add(context.Background(), original)
	poller.Watch(context.Background(), "movie1", "token-movie1", 5)
	scheduler.Fire("movie1")

	entry, _ := registry.Get("movie1")
	if entry.Status != models.MovieStatus_Error {
		t.Fatalf("the poll failure should have errored the entry, got %s", entry.Status)
	}

	rebuilt, err := freshness.EnsureFresh(context.Background(), "movie1")
	if err != nil {
		t.Fatalf("Unexpected error received %v", err)
	}
	if rebuilt.Status != models.MovieStatus_Queued || rebuilt.Id != "movie1" {
		t.Errorf("the errored entry should have been requeued in place: %+v", rebuilt)
	}
	if rebuilt.X1 != original.X1 || !rebuilt.StartDate.Equal(original.StartDate) {
		t.Errorf("the original request fields must be unchanged: %+v", rebuilt)
	}
}

func TestEnsureFreshRejections(t *testing.T) {
	tests := map[string]struct {
		ack       *models.ServerAck
		queueErr  error
		wantErrAs any
	}{
		"Will surface a queue-full rejection": {
			ack:       &models.ServerAck{Error: "Queue is full", ErrNo: models.ErrNo_QueueFull},
			wantErrAs: new(*models.CapacityError),
		},
		"Will surface a generic rejection": {
			ack:       &models.ServerAck{Error: "no longer available"},
			wantErrAs: new(*models.BuildError),
		},
		"Will surface a transport failure": {
			queueErr:  errors.New("connection refused"),
			wantErrAs: new(*models.BuildError),
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			apiClient := &FakeMovieApi{queueErr: test.queueErr}
			if test.ack != nil {
				apiClient.requeueAcks = []*models.ServerAck{test.ack}
			}
			freshness, registry, scheduler, notifier, _, _ := newFreshnessFixture(apiClient)

			registry.Add(context.Background(), testEntry("movie1", models.MovieStatus_Error, time.Now().UTC()))

			if _, err := freshness.EnsureFresh(context.Background(), "movie1"); !errors.As(err, test.wantErrAs) {
				t.Fatalf("incorrect error type: %v", err)
			}
			if entry, _ := registry.Get("movie1"); entry.Status != models.MovieStatus_Error {
				t.Errorf("a failed rebuild must not change the entry: %+v", entry)
			}
			if len(scheduler.tasks) != 0 {
				t.Errorf("no poll should have been armed")
			}
			if len(notifier.warnings) != 1 {
				t.Errorf("the rejection should have been surfaced: %v", notifier.warnings)
			}
		})
	}
}

func TestEnsureFreshUnknownId(t *testing.T) {
	freshness, _, _, _, _, _ := newFreshnessFixture(&FakeMovieApi{})
	if _, err := freshness.EnsureFresh(context.Background(), "unknown"); err == nil {
		t.Errorf("expected an error for an unknown id")
	}
}

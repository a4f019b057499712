package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Helioviewer-Project/go-movies/models"
)

func TestBuild(t *testing.T) {
	apiClient := &FakeMovieApi{
		etaResps:  []*models.MovieETAResponse{{Eta: 10}},
		queueAcks: []*models.ServerAck{{Id: "movie1", Eta: 10, Token: "tok1"}},
		pollResps: []*models.MoviePollResponse{
			{Eta: 5},
			{Url: "https://example.com/movie1.mp4"},
		},
	}
	scheduler := NewFakeScheduler()
	notifier := &FakeNotifier{}
	builder := NewBuildService(apiClient, scheduler, notifier, NewFakeMetricService(), &FakeLogger{})

	var gotUrl string
	var gotErr error
	err := builder.Build(context.Background(), composeTestRequest(t), func(url string, err error) {
		gotUrl, gotErr = url, err
	})
	if err != nil {
		t.Fatalf("Unexpected error received %v", err)
	}
	if len(notifier.infos) != 1 {
		t.Errorf("the eta should have been announced: %v", notifier.infos)
	}

	if delays := scheduler.delays["build:movie1"]; len(delays) != 1 || delays[0] != 10*time.Second {
		t.Fatalf("incorrect initial delay: %v", delays)
	}
	scheduler.Fire("build:movie1")
	if delays := scheduler.delays["build:movie1"]; len(delays) != 2 || delays[1] != 5*time.Second {
		t.Fatalf("a retry should be armed for the fresh eta: %v", delays)
	}
	scheduler.Fire("build:movie1")

	if gotErr != nil || gotUrl != "https://example.com/movie1.mp4" {
		t.Errorf("incorrect build outcome: url %q, err %v", gotUrl, gotErr)
	}
	if len(scheduler.tasks) != 0 {
		t.Errorf("no further poll should be armed once the movie is done")
	}
}

func TestBuildFailure(t *testing.T) {
	tests := map[string]struct {
		etaResp   *models.MovieETAResponse
		queueAck  *models.ServerAck
		wantErrAs any
	}{
		"Will fail when no eta can be computed": {
			etaResp:   &models.MovieETAResponse{Error: "invalid layers"},
			wantErrAs: new(*models.BuildError),
		},
		"Will fail when the queue is full": {
			etaResp:   &models.MovieETAResponse{Eta: 10},
			queueAck:  &models.ServerAck{Error: "Queue is full", ErrNo: models.ErrNo_QueueFull},
			wantErrAs: new(*models.CapacityError),
		},
		"Will fail when the submission is rejected": {
			etaResp:   &models.MovieETAResponse{Eta: 10},
			queueAck:  &models.ServerAck{Error: "bad request"},
			wantErrAs: new(*models.BuildError),
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			apiClient := &FakeMovieApi{etaResps: []*models.MovieETAResponse{test.etaResp}}
			if test.queueAck != nil {
				apiClient.queueAcks = []*models.ServerAck{test.queueAck}
			}
			scheduler := NewFakeScheduler()
			builder := NewBuildService(apiClient, scheduler, &FakeNotifier{}, NewFakeMetricService(), &FakeLogger{})

			err := builder.Build(context.Background(), composeTestRequest(t), func(string, error) {
				t.Errorf("the callback should not run for a rejected submission")
			})
			if !errors.As(err, test.wantErrAs) {
				t.Fatalf("incorrect error type: %v", err)
			}
			if len(scheduler.tasks) != 0 {
				t.Errorf("no poll should have been armed")
			}
		})
	}
}

func TestBuildPollError(t *testing.T) {
	apiClient := &FakeMovieApi{
		etaResps:  []*models.MovieETAResponse{{Eta: 10}},
		queueAcks: []*models.ServerAck{{Id: "movie1", Eta: 10, Token: "tok1"}},
		pollResps: []*models.MoviePollResponse{{Error: "render failed"}},
	}
	scheduler := NewFakeScheduler()
	builder := NewBuildService(apiClient, scheduler, &FakeNotifier{}, NewFakeMetricService(), &FakeLogger{})

	var gotErr error
	if err := builder.Build(context.Background(), composeTestRequest(t), func(_ string, err error) {
		gotErr = err
	}); err != nil {
		t.Fatalf("Unexpected error received %v", err)
	}
	scheduler.Fire("build:movie1")

	buildErr := new(*models.BuildError)
	if !errors.As(gotErr, buildErr) {
		t.Errorf("incorrect error type: %v", gotErr)
	}
}

package services

import (
	"context"
	"errors"
	"time"

	"github.com/Helioviewer-Project/go-movies/models"
)

// FakeMovieApi replays scripted acknowledgments and status responses in
// order, recording every call it receives.
type FakeMovieApi struct {
	queueAcks   []*models.ServerAck
	requeueAcks []*models.ServerAck
	statusResps []*models.MovieStatusResponse
	etaResps    []*models.MovieETAResponse
	pollResps   []*models.MoviePollResponse
	queueErr    error
	statusErr   error

	queuedRequests []*models.MovieRequest
	requeuedIds    []string
	statusIds      []string
	polledIds      []string
}

func (f *FakeMovieApi) QueueMovie(_ context.Context, request *models.MovieRequest, _ string) (*models.ServerAck, error) {
	f.queuedRequests = append(f.queuedRequests, request)
	if f.queueErr != nil {
		return nil, f.queueErr
	}
	if len(f.queueAcks) == 0 {
		return nil, errors.New("no scripted queue ack")
	}
	ack := f.queueAcks[0]
	f.queueAcks = f.queueAcks[1:]
	return ack, nil
}

func (f *FakeMovieApi) ReQueueMovie(_ context.Context, id string) (*models.ServerAck, error) {
	f.requeuedIds = append(f.requeuedIds, id)
	if f.queueErr != nil {
		return nil, f.queueErr
	}
	if len(f.requeueAcks) == 0 {
		return nil, errors.New("no scripted requeue ack")
	}
	ack := f.requeueAcks[0]
	f.requeueAcks = f.requeueAcks[1:]
	return ack, nil
}

func (f *FakeMovieApi) GetMovieStatus(_ context.Context, id, _ string, _ bool, _ string) (*models.MovieStatusResponse, error) {
	f.statusIds = append(f.statusIds, id)
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	if len(f.statusResps) == 0 {
		return nil, errors.New("no scripted status response")
	}
	statusResp := f.statusResps[0]
	f.statusResps = f.statusResps[1:]
	return statusResp, nil
}

func (f *FakeMovieApi) GetETAForMovie(_ context.Context, _ *models.MovieRequest) (*models.MovieETAResponse, error) {
	if len(f.etaResps) == 0 {
		return nil, errors.New("no scripted eta response")
	}
	etaResp := f.etaResps[0]
	f.etaResps = f.etaResps[1:]
	return etaResp, nil
}

func (f *FakeMovieApi) GetMovie(_ context.Context, id string) (*models.MoviePollResponse, error) {
	f.polledIds = append(f.polledIds, id)
	if len(f.pollResps) == 0 {
		return nil, errors.New("no scripted poll response")
	}
	pollResp := f.pollResps[0]
	f.pollResps = f.pollResps[1:]
	return pollResp, nil
}

// FakeHistoryRepository records every wholesale save so tests can assert on
// write-through behavior.
type FakeHistoryRepository struct {
	loaded []*models.MovieEntry
	saves  [][]*models.MovieEntry
	failOn int
}

func (f *FakeHistoryRepository) LoadHistory(_ context.Context) ([]*models.MovieEntry, error) {
	return f.loaded, nil
}

func (f *FakeHistoryRepository) SaveHistory(_ context.Context, entries []*models.MovieEntry) error {
	if f.failOn > 0 && len(f.saves)+1 == f.failOn {
		f.saves = append(f.saves, entries)
		return errors.New("TestError")
	}
	f.saves = append(f.saves, entries)
	return nil
}

type FakeArchiveRepository struct {
	outcomes []*models.MovieEntry
	fail     bool
}

func (f *FakeArchiveRepository) RecordOutcome(_ context.Context, entry *models.MovieEntry) error {
	if f.fail {
		return errors.New("TestError")
	}
	f.outcomes = append(f.outcomes, entry)
	return nil
}

type FakePublisher struct {
	messages    chan any
	numAttempts int
	errorOn     int
}

func (f *FakePublisher) GetUrl() string {
	return "fake-queue-url"
}

func (f *FakePublisher) SendMessage(ctx context.Context, event any) (string, error) {
	select {
	case <-ctx.Done():
		return "", errors.New("context cancelled")
	default:
		f.numAttempts = f.numAttempts + 1
		if f.numAttempts == f.errorOn {
			return "", errors.New("TestError")
		}
		f.messages <- event
		return "msgId", nil
	}
}

func waitForMessages(messageChannel chan any, n int) []any {
	messages := make([]any, n)
	for i := 0; i < n; i++ {
		messages[i] = <-messageChannel
	}
	return messages
}

type FakeNotifier struct {
	infos    []string
	warnings []string
}

func (f *FakeNotifier) SendInfo(content string) error {
	f.infos = append(f.infos, content)
	return nil
}

func (f *FakeNotifier) SendWarning(content string) error {
	f.warnings = append(f.warnings, content)
	return nil
}

type FakeMetricService struct {
	counts        map[models.MetricName]int
	distributions map[models.MetricName][]int
}

func NewFakeMetricService() *FakeMetricService {
	return &FakeMetricService{
		counts:        make(map[models.MetricName]int),
		distributions: make(map[models.MetricName][]int),
	}
}

func (f *FakeMetricService) Count(_ context.Context, name models.MetricName, val int) error {
	f.counts[name] += val
	return nil
}

func (f *FakeMetricService) Distribution(_ context.Context, name models.MetricName, val int) error {
	f.distributions[name] = append(f.distributions[name], val)
	return nil
}

func (f *FakeMetricService) Shutdown(_ context.Context) {}

// FakeScheduler holds scheduled tasks until the test fires them, so elapsed
// time is simulated deterministically.
type FakeScheduler struct {
	tasks  map[string]func()
	delays map[string][]time.Duration
}

func NewFakeScheduler() *FakeScheduler {
	return &FakeScheduler{
		tasks:  make(map[string]func()),
		delays: make(map[string][]time.Duration),
	}
}

func (f *FakeScheduler) Schedule(id string, delay time.Duration, task func()) {
	f.tasks[id] = task
	f.delays[id] = append(f.delays[id], delay)
}

func (f *FakeScheduler) Cancel(id string) bool {
	if _, found := f.tasks[id]; found {
		delete(f.tasks, id)
		return true
	}
	return false
}

// Fire runs and clears the pending task for id, returning false if none was
// armed.
func (f *FakeScheduler) Fire(id string) bool {
	task, found := f.tasks[id]
	if !found {
		return false
	}
	delete(f.tasks, id)
	task()
	return true
}

type FakeLogger struct{}

func (f *FakeLogger) Debugf(string, ...interface{}) {}
func (f *FakeLogger) Debugw(string, ...interface{}) {}
func (f *FakeLogger) Errorf(string, ...interface{}) {}
func (f *FakeLogger) Fatalf(string, ...interface{}) {}
func (f *FakeLogger) Infof(string, ...interface{})  {}
func (f *FakeLogger) Infoln(...interface{})         {}
func (f *FakeLogger) Warnf(string, ...interface{})  {}
func (f *FakeLogger) Sync() error                   { return nil }

func testEntry(id string, status models.MovieStatus, requestedAt time.Time) *models.MovieEntry {
	frameRate := 15
	return &models.MovieEntry{
		Id:            id,
		Status:        status,
		Token:         "token-" + id,
		Name:          "SDO AIA 304",
		DateRequested: requestedAt,
		ImageScale:    2.42,
		Layers: models.LayerList{
			{Observatory: "SDO", Instrument: "AIA", Detector: "AIA", Measurement: "304", Visible: true, Opacity: 100},
		},
		StartDate: requestedAt.Add(-30 * time.Minute),
		EndDate:   requestedAt.Add(30 * time.Minute),
		X1:        -605,
		X2:        605,
		Y1:        -605,
		Y2:        605,
		FrameRate: &frameRate,
	}
}

func testViewport() *models.ViewportState {
	return &models.ViewportState{
		Region:     models.PixelRegion{Top: -250, Left: -250, Bottom: 250, Right: 250},
		ImageScale: 2.42,
		Layers: models.LayerList{
			{Observatory: "SDO", Instrument: "AIA", Detector: "AIA", Measurement: "304", Visible: true, Opacity: 100},
		},
		ObservationTime: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Duration:        time.Hour,
	}
}

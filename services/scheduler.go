package services

import (
	"sync"
	"time"

	"github.com/Helioviewer-Project/go-movies/models"
)

// TimerScheduler arms at most one timer per job id. Scheduling an id that
// already has a pending task replaces the task, and Cancel stops a pending
// task that has not fired yet.
type TimerScheduler struct {
	timers map[string]*time.Timer
	mux    sync.Mutex
}

var _ models.Scheduler = &TimerScheduler{}

// delayFor converts a server-provided eta, in seconds, into a timer delay.
func delayFor(etaSeconds int) time.Duration {
	return time.Duration(etaSeconds) * time.Second
}

func NewTimerScheduler() *TimerScheduler {
	return &TimerScheduler{timers: make(map[string]*time.Timer)}
}

func (s *TimerScheduler) Schedule(id string, delay time.Duration, task func()) {
	s.mux.Lock()
	defer s.mux.Unlock()

	if timer, found := s.timers[id]; found {
		timer.Stop()
	}
	s.timers[id] = time.AfterFunc(delay, func() {
		s.mux.Lock()
		delete(s.timers, id)
		s.mux.Unlock()
		task()
	})
}

func (s *TimerScheduler) Cancel(id string) bool {
	s.mux.Lock()
	defer s.mux.Unlock()

	if timer, found := s.timers[id]; found {
		delete(s.timers, id)
		return timer.Stop()
	}
	return false
}

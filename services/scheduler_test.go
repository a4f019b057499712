package services

import (
	"testing"
	"time"
)

func TestTimerScheduler(t *testing.T) {
	scheduler := NewTimerScheduler()
	fired := make(chan string, 4)

	scheduler.Schedule("a", 10*time.Millisecond, func() { fired <- "a" })
	scheduler.Schedule("b", time.Hour, func() { fired <- "b" })
	if !scheduler.Cancel("b") {
		t.Errorf("a pending task should be cancellable")
	}

	select {
	case id := <-fired:
		if id != "a" {
			t.Fatalf("incorrect task fired: %s", id)
		}
	case <-time.After(time.Second):
		t.Fatalf("the armed task never fired")
	}
	if scheduler.Cancel("a") {
		t.Errorf("a fired task should no longer be cancellable")
	}

	// Re-scheduling an id replaces its pending task.
	scheduler.Schedule("c", time.Hour, func() { fired <- "c-old" })
	scheduler.Schedule("c", 10*time.Millisecond, func() { fired <- "c-new" })
	select {
	case id := <-fired:
		if id != "c-new" {
			t.Fatalf("the replaced task should not fire: %s", id)
		}
	case <-time.After(time.Second):
		t.Fatalf("the replacement task never fired")
	}
}

package backoff

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestIntervalForIsMonotonicAndCapped(t *testing.T) {
	s := NewScheduler(Config{
		InitialInterval: 2 * time.Second,
		MaxInterval:     30 * time.Second,
		GrowthFactor:    2,
		GrowthEveryN:    3,
	})

	prev := time.Duration(0)
	for n := 0; n < 40; n++ {
		d := s.IntervalFor(n)
		if d < prev {
			t.Fatalf("interval decreased at attempt %d: %v < %v", n, d, prev)
		}
		if d > 30*time.Second {
			t.Fatalf("interval exceeds cap at attempt %d: %v", n, d)
		}
		prev = d
	}
	if got := s.IntervalFor(0); got != 2*time.Second {
		t.Fatalf("first interval = %v, want 2s", got)
	}
	if got := s.IntervalFor(3); got != 4*time.Second {
		t.Fatalf("interval after first growth step = %v, want 4s", got)
	}
	if got := s.IntervalFor(39); got != 30*time.Second {
		t.Fatalf("late interval = %v, want cap 30s", got)
	}
}

func TestScheduleRejectsDoubleArm(t *testing.T) {
	s := NewScheduler(Config{})
	h, err := s.Schedule(time.Hour, func() {})
	if err != nil {
		t.Fatalf("first Schedule: %v", err)
	}
	defer s.Cancel(h)

	if _, err := s.Schedule(time.Hour, func() {}); err != ErrAlreadyArmed {
		t.Fatalf("second Schedule err = %v, want ErrAlreadyArmed", err)
	}
}

func TestCancelPreventsCallback(t *testing.T) {
	s := NewScheduler(Config{})
	var fired atomic.Bool
	h, err := s.Schedule(10*time.Millisecond, func() { fired.Store(true) })
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	s.Cancel(h)

	time.Sleep(50 * time.Millisecond)
	if fired.Load() {
		t.Fatal("callback fired after Cancel returned")
	}
	// The slot must be free again.
	h2, err := s.Schedule(time.Hour, func() {})
	if err != nil {
		t.Fatalf("Schedule after Cancel: %v", err)
	}
	s.Cancel(h2)
}

func TestCallbackMayReArm(t *testing.T) {
	s := NewScheduler(Config{})
	done := make(chan struct{})
	var count atomic.Int32

	var tick func()
	tick = func() {
		if count.Add(1) == 3 {
			close(done)
			return
		}
		if _, err := s.Schedule(time.Millisecond, tick); err != nil {
			t.Errorf("re-arm: %v", err)
		}
	}
	if _, err := s.Schedule(time.Millisecond, tick); err != nil {
		t.Fatalf("Schedule: %v", err)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("re-armed callbacks never completed")
	}
}

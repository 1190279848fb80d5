package backoff

import (
	"errors"
	"math"
	"sync"
	"time"
)

// ErrAlreadyArmed is returned by Schedule when a delayed task is already
// outstanding. The caller must not double-arm; it re-arms only after the
// previous callback has run or been cancelled.
var ErrAlreadyArmed = errors.New("backoff: a delayed task is already armed")

type Config struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	GrowthFactor    float64
	GrowthEveryN    int
}

func (c Config) withDefaults() Config {
	if c.InitialInterval <= 0 {
		c.InitialInterval = 2 * time.Second
	}
	if c.MaxInterval < c.InitialInterval {
		c.MaxInterval = 30 * time.Second
	}
	if c.GrowthFactor < 1 {
		c.GrowthFactor = 2
	}
	if c.GrowthEveryN <= 0 {
		c.GrowthEveryN = 3
	}
	return c
}

// Scheduler computes the wait between successive polls and owns exactly one
// outstanding cancellable delayed task at a time. Early polls are frequent
// (generation is often fast), late polls back off toward MaxInterval.
type Scheduler struct {
	cfg Config

	mu    sync.Mutex
	armed *Handle
}

func NewScheduler(cfg Config) *Scheduler {
	return &Scheduler{cfg: cfg.withDefaults()}
}

// IntervalFor returns the wait before poll attempt n (0-based):
// min(initial * factor^floor(n/everyN), max). The sequence is non-decreasing
// and bounded above by MaxInterval.
func (s *Scheduler) IntervalFor(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	steps := attempt / s.cfg.GrowthEveryN
	d := float64(s.cfg.InitialInterval) * math.Pow(s.cfg.GrowthFactor, float64(steps))
	if d > float64(s.cfg.MaxInterval) {
		return s.cfg.MaxInterval
	}
	return time.Duration(d)
}

// Handle is the liveness token for one armed delayed task.
type Handle struct {
	mu        sync.Mutex
	timer     *time.Timer
	cancelled bool
	done      bool
	sched     *Scheduler
}

// Schedule arms exactly one delayed invocation of fn after d. It returns
// ErrAlreadyArmed if a task is still outstanding. fn may call Schedule again
// to re-arm.
func (s *Scheduler) Schedule(d time.Duration, fn func()) (*Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.armed != nil {
		return nil, ErrAlreadyArmed
	}
	h := &Handle{sched: s}
	h.timer = time.AfterFunc(d, func() { h.fire(fn) })
	s.armed = h
	return h, nil
}

// Cancel guarantees the callback will not fire after it returns, even if the
// underlying timer has already gone off: if the callback is mid-flight Cancel
// blocks until it completes, otherwise it is suppressed for good.
func (s *Scheduler) Cancel(h *Handle) {
	if h == nil {
		return
	}
	h.mu.Lock()
	if !h.done {
		h.cancelled = true
		h.timer.Stop()
	}
	h.mu.Unlock()
	s.disarm(h)
}

func (h *Handle) fire(fn func()) {
	h.mu.Lock()
	if h.cancelled || h.done {
		h.mu.Unlock()
		return
	}
	h.done = true
	h.sched.disarm(h)
	// The handle lock is held across fn so a concurrent Cancel cannot return
	// while the callback is still running.
	fn()
	h.mu.Unlock()
}

func (s *Scheduler) disarm(h *Handle) {
	s.mu.Lock()
	if s.armed == h {
		s.armed = nil
	}
	s.mu.Unlock()
}

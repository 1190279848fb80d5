package usecase

import (
	"context"
	"sync"
	"time"

	"fitness-ai-generation/internal/domain/model"
	"fitness-ai-generation/internal/domain/ports/adapter"
)

// ---- Fakes ----

// scriptedService is a small in-memory generation service used by unit tests.
// Submit and Poll are driven by closures so each test scripts its own remote.
type scriptedService struct {
	mu        sync.Mutex
	submitFn  func(req *model.GenerationRequest) (*adapter.SubmitResult, error)
	pollFn    func(jobID string, n int) (*adapter.PollResult, error)
	polls     int
	inFlight  int
	maxSeen   int
	pollGate  chan struct{} // when set, Poll blocks here before answering
	pollEnter chan struct{} // when set, receives one tick as each Poll starts
}

func (s *scriptedService) Submit(ctx context.Context, req *model.GenerationRequest) (*adapter.SubmitResult, error) {
	return s.submitFn(req)
}

func (s *scriptedService) Poll(ctx context.Context, jobID string) (*adapter.PollResult, error) {
	s.mu.Lock()
	s.polls++
	n := s.polls
	s.inFlight++
	if s.inFlight > s.maxSeen {
		s.maxSeen = s.inFlight
	}
	enter := s.pollEnter
	gate := s.pollGate
	s.mu.Unlock()

	if enter != nil {
		enter <- struct{}{}
	}
	if gate != nil {
		<-gate
	}

	res, err := s.pollFn(jobID, n)

	s.mu.Lock()
	s.inFlight--
	s.mu.Unlock()
	return res, err
}

func (s *scriptedService) pollCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.polls
}

func (s *scriptedService) maxInFlight() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.maxSeen
}

// recordingSink counts terminal callbacks and captures their arguments. The
// done channel receives one tick per terminal delivery so tests can wait
// without sleeping.
type recordingSink struct {
	mu        sync.Mutex
	completed []*model.PlanArtifact
	genTimes  []time.Duration
	failed    []model.Failure
	cancelled int
	done      chan struct{}
}

func newRecordingSink() *recordingSink {
	return &recordingSink{done: make(chan struct{}, 8)}
}

func (r *recordingSink) OnCompleted(ctx context.Context, artifact *model.PlanArtifact, generationTime time.Duration) {
	r.mu.Lock()
	r.completed = append(r.completed, artifact)
	r.genTimes = append(r.genTimes, generationTime)
	r.mu.Unlock()
	r.done <- struct{}{}
}

func (r *recordingSink) OnFailed(ctx context.Context, failure model.Failure) {
	r.mu.Lock()
	r.failed = append(r.failed, failure)
	r.mu.Unlock()
	r.done <- struct{}{}
}

func (r *recordingSink) OnCancelled(ctx context.Context) {
	r.mu.Lock()
	r.cancelled++
	r.mu.Unlock()
	r.done <- struct{}{}
}

func (r *recordingSink) cancelledCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cancelled
}

func (r *recordingSink) terminalCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.completed) + len(r.failed) + r.cancelled
}

func (r *recordingSink) waitTerminal(timeout time.Duration) bool {
	select {
	case <-r.done:
		return true
	case <-time.After(timeout):
		return false
	}
}

// recordingListener captures non-terminal status updates.
type recordingListener struct {
	mu       sync.Mutex
	statuses []model.JobStatus
}

func (l *recordingListener) OnStatus(status model.JobStatus, _ time.Duration) {
	l.mu.Lock()
	l.statuses = append(l.statuses, status)
	l.mu.Unlock()
}

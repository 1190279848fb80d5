package generation

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"fitness-ai-generation/internal/domain"
	"fitness-ai-generation/internal/domain/model"
	"fitness-ai-generation/internal/domain/ports/adapter"
)

var _ adapter.GenerationServiceAdapter = (*NoopService)(nil)

// NoopService is an in-memory generation service for dev mode and tests.
// Every submission starts an async job that completes after PollsToComplete
// polls with a canned payload.
type NoopService struct {
	PollsToComplete int

	mu   sync.Mutex
	jobs map[string]int // job id -> polls seen
}

func NewNoopService(pollsToComplete int) *NoopService {
	if pollsToComplete <= 0 {
		pollsToComplete = 2
	}
	return &NoopService{PollsToComplete: pollsToComplete, jobs: make(map[string]int)}
}

func (s *NoopService) Submit(ctx context.Context, req *model.GenerationRequest) (*adapter.SubmitResult, error) {
	if req.UserID == "" {
		return nil, fmt.Errorf("%w: user id empty", domain.ErrValidation)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id := "noop-" + uuid.NewString()
	s.jobs[id] = 0
	return &adapter.SubmitResult{JobID: id, Estimate: time.Minute}, nil
}

func (s *NoopService) Poll(ctx context.Context, jobID string) (*adapter.PollResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.jobs[jobID]
	if !ok {
		return nil, fmt.Errorf("%w: unknown job %s", domain.ErrTransport, jobID)
	}
	n++
	s.jobs[jobID] = n
	if n < s.PollsToComplete {
		return &adapter.PollResult{Status: model.JobStatusProcessing}, nil
	}
	delete(s.jobs, jobID)
	return &adapter.PollResult{
		Status:         model.JobStatusCompleted,
		Payload:        json.RawMessage(`{"plan":"noop"}`),
		GenerationTime: 10 * time.Millisecond,
	}, nil
}

package usecase

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"fitness-ai-generation/internal/domain"
	"fitness-ai-generation/internal/domain/model"
	"fitness-ai-generation/internal/domain/ports/adapter"
	"fitness-ai-generation/internal/domain/ports/sink"
	"fitness-ai-generation/internal/infra/backoff"
)

// Compile-time check
var _ GenerationManager = (*generationManager)(nil)

// GenerationManager keys orchestrators by user, enforcing the one-active-job
// rule per logical generation target.
type GenerationManager interface {
	Start(ctx context.Context, req *model.GenerationRequest) error
	Cancel(userID string) error
	Status(userID string) (*model.GenerationJob, error)
}

type generationManager struct {
	svc         adapter.GenerationServiceAdapter
	backoffCfg  backoff.Config
	sink        sink.ResultSink
	listener    sink.StatusListener
	maxAttempts int
	log         *zerolog.Logger

	mu   sync.Mutex
	byID map[string]*generationUC
}

func NewGenerationManager(
	svc adapter.GenerationServiceAdapter,
	backoffCfg backoff.Config,
	resultSink sink.ResultSink,
	listener sink.StatusListener,
	maxAttempts int,
	logger *zerolog.Logger,
) *generationManager {
	return &generationManager{
		svc:         svc,
		backoffCfg:  backoffCfg,
		sink:        resultSink,
		listener:    listener,
		maxAttempts: maxAttempts,
		log:         logger,
		byID:        make(map[string]*generationUC),
	}
}

func (m *generationManager) Start(ctx context.Context, req *model.GenerationRequest) error {
	if req == nil || req.UserID == "" {
		return domain.ErrInvalidArgument
	}
	uc := m.forUser(req.UserID)
	if err := uc.Start(ctx, req); err != nil {
		return err
	}
	// A terminal outcome for a previous job may have reaped the entry between
	// forUser and Start; re-map while the new job is live. A cache hit is
	// already consumed, so there is nothing to track.
	if _, err := uc.Status(); err == nil {
		m.mu.Lock()
		m.byID[req.UserID] = uc
		m.mu.Unlock()
	}
	return nil
}

func (m *generationManager) Cancel(userID string) error {
	m.mu.Lock()
	uc, ok := m.byID[userID]
	m.mu.Unlock()
	if !ok {
		return domain.ErrNoActiveJob
	}
	return uc.Cancel()
}

func (m *generationManager) Status(userID string) (*model.GenerationJob, error) {
	m.mu.Lock()
	uc, ok := m.byID[userID]
	m.mu.Unlock()
	if !ok {
		return nil, domain.ErrNoActiveJob
	}
	return uc.Status()
}

// forUser returns the user's orchestrator, creating one on first use. Each
// orchestrator owns its own backoff scheduler so poll timers never interleave
// across users. Once a terminal outcome is consumed the entry is reaped, so
// the registry only holds users with a live job.
func (m *generationManager) forUser(userID string) *generationUC {
	m.mu.Lock()
	defer m.mu.Unlock()
	if uc, ok := m.byID[userID]; ok {
		return uc
	}
	uc := NewGenerationUseCase(m.svc, backoff.NewScheduler(m.backoffCfg), m.sink, m.listener, m.maxAttempts, m.log)
	uc.onIdle = func() { m.release(userID, uc) }
	m.byID[userID] = uc
	return uc
}

// release drops the user's registry entry if it still points at uc. Called
// from the orchestrator with its own lock held; the lock order is always
// orchestrator then manager, never the reverse.
func (m *generationManager) release(userID string, uc *generationUC) {
	m.mu.Lock()
	if m.byID[userID] == uc {
		delete(m.byID, userID)
	}
	m.mu.Unlock()
}

package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"fitness-ai-generation/internal/domain"
	"fitness-ai-generation/internal/domain/model"
	"fitness-ai-generation/internal/domain/ports/adapter"
	"fitness-ai-generation/internal/domain/ports/sink"
	"fitness-ai-generation/internal/infra/backoff"
	"fitness-ai-generation/internal/infra/logging"
	"fitness-ai-generation/internal/infra/metrics"
)

// Compile-time check
var _ GenerationUseCase = (*generationUC)(nil)

// GenerationUseCase drives one long-running generation at a time: it submits
// the request, interprets cache-hit vs async-start, runs the poll loop through
// the backoff scheduler and hands the terminal outcome to the sink exactly
// once.
type GenerationUseCase interface {
	// Start submits a generation. A cache hit is delivered to the sink and
	// completes synchronously, before Start returns. While a job is active a
	// second Start returns domain.ErrGenerationInProgress; it never replaces
	// a live job.
	Start(ctx context.Context, req *model.GenerationRequest) error
	// Cancel stops the active job. After it returns no further state changes
	// or sink callbacks occur for that job, even if an in-flight poll
	// response arrives later. Returns domain.ErrNoActiveJob when idle.
	Cancel() error
	// Status returns a snapshot of the active job, or domain.ErrNoActiveJob.
	Status() (*model.GenerationJob, error)
}

type generationUC struct {
	svc         adapter.GenerationServiceAdapter
	sched       *backoff.Scheduler
	sink        sink.ResultSink
	listener    sink.StatusListener // optional
	maxAttempts int
	onIdle      func() // optional; runs after each terminal outcome is consumed
	log         *zerolog.Logger

	mu       sync.Mutex
	sm       *StateMachine
	job      *model.GenerationJob
	req      *model.GenerationRequest
	handle   *backoff.Handle
	epoch    uint64 // liveness token; bumped on cancel so stale ticks discard
	starting bool
	runCtx   context.Context
}

func NewGenerationUseCase(
	svc adapter.GenerationServiceAdapter,
	sched *backoff.Scheduler,
	resultSink sink.ResultSink,
	listener sink.StatusListener,
	maxAttempts int,
	logger *zerolog.Logger,
) *generationUC {
	if maxAttempts <= 0 {
		maxAttempts = 30
	}
	ucLog := logger.With().Str("component", "GenerationUC").Logger()
	return &generationUC{
		svc:         svc,
		sched:       sched,
		sink:        resultSink,
		listener:    listener,
		maxAttempts: maxAttempts,
		log:         &ucLog,
		sm:          NewStateMachine(),
	}
}

func (g *generationUC) Start(ctx context.Context, req *model.GenerationRequest) error {
	defer logging.TraceDuration(g.log, "GenerationUC.Start")()
	if req == nil || req.UserID == "" || req.PlanType == "" {
		return domain.ErrInvalidArgument
	}
	ctx = logging.WithUserID(ctx, req.UserID)
	log := logging.With(ctx, g.log)

	g.mu.Lock()
	if g.starting || g.job != nil {
		g.mu.Unlock()
		return domain.ErrGenerationInProgress
	}
	g.starting = true
	g.mu.Unlock()

	res, err := g.svc.Submit(ctx, req)

	g.mu.Lock()
	defer g.mu.Unlock()
	g.starting = false

	if err != nil {
		// Validation and submit-time transport failures never created a job;
		// they surface to the caller directly, with no sink callback.
		log.Warn().Err(err).Msg("submit failed")
		return err
	}

	if res.CacheHit {
		metrics.IncCacheHit()
		log.Info().Msg("generation satisfied from cache")
		artifact := res.Artifact
		if artifact != nil {
			artifact.UserID = req.UserID
			artifact.PlanType = req.PlanType
			artifact.FromCache = true
		}
		g.job = model.CompletedFromCache(artifact)
		if err := g.sm.Transition(StateCompleted); err != nil {
			return err
		}
		g.deliverCompletedLocked(artifact, 0)
		return nil
	}

	g.job = model.NewGenerationJob(res.JobID, res.Estimate)
	g.req = req
	// The poll loop outlives the caller's request; keep its context values
	// (trace/user ids, plus the job id for the tick logs) but not its
	// cancellation.
	g.runCtx = logging.WithJobID(context.WithoutCancel(ctx), res.JobID)
	if err := g.sm.Transition(StatePending); err != nil {
		g.job = nil
		return err
	}
	log.Info().Str("job_id", res.JobID).Dur("estimate", res.Estimate).Msg("generation job started")
	g.notifyLocked()
	g.armLocked()
	return nil
}

func (g *generationUC) Cancel() error {
	g.mu.Lock()
	if g.job == nil || g.job.Status.IsTerminal() {
		g.mu.Unlock()
		return domain.ErrNoActiveJob
	}
	h := g.handle
	g.handle = nil
	g.epoch++ // any in-flight poll response is now stale and will be discarded
	g.job.Status = model.JobStatusCancelled
	if err := g.sm.Transition(StateCancelled); err != nil {
		g.mu.Unlock()
		return err
	}
	jobID := g.job.ID
	metrics.IncGenerationJob(string(model.JobStatusCancelled))
	g.sink.OnCancelled(context.Background())
	g.resetLocked()
	g.mu.Unlock()

	// Outside the state lock: the armed timer callback takes the same lock.
	g.sched.Cancel(h)
	g.log.Info().Str("job_id", jobID).Msg("generation cancelled")
	return nil
}

func (g *generationUC) Status() (*model.GenerationJob, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.job == nil {
		return nil, domain.ErrNoActiveJob
	}
	cp := *g.job
	return &cp, nil
}

// armLocked schedules the next poll tick. The current epoch is captured into
// the callback; a tick whose epoch no longer matches applies nothing.
func (g *generationUC) armLocked() {
	epoch := g.epoch
	interval := g.sched.IntervalFor(g.job.Attempts)
	h, err := g.sched.Schedule(interval, func() { g.pollTick(epoch) })
	if err != nil {
		// Double-arm means the loop logic is broken; treat as fatal for this job.
		g.log.Error().Err(err).Str("job_id", g.job.ID).Msg("failed to arm poll timer")
		g.finishFailedLocked(model.Failure{Kind: model.FailureTimeout, Message: err.Error()})
		return
	}
	g.handle = h
}

func (g *generationUC) pollTick(epoch uint64) {
	g.mu.Lock()
	if epoch != g.epoch || g.job == nil {
		g.mu.Unlock()
		return
	}
	jobID := g.job.ID
	ctx := g.runCtx
	g.handle = nil
	g.mu.Unlock()

	log := logging.With(ctx, g.log)
	start := time.Now()
	res, err := g.svc.Poll(ctx, jobID)
	metrics.ObservePoll(time.Since(start), err == nil)

	g.mu.Lock()
	defer g.mu.Unlock()
	// Re-check liveness: the job may have been cancelled while the poll was
	// in flight. A stale response is discarded unconditionally.
	if epoch != g.epoch || g.job == nil || g.job.ID != jobID {
		return
	}
	g.job.Attempts++

	if err != nil {
		if !errors.Is(err, domain.ErrTransport) {
			log.Error().Err(err).Msg("unexpected poll error")
		}
		// Transient: keep the backoff sequence where it is, do not reset it,
		// so a degraded service is not hammered by restarted ramps.
		if g.job.Attempts >= g.maxAttempts {
			g.finishTimedOutLocked()
			return
		}
		log.Debug().Err(err).Int("attempt", g.job.Attempts).Msg("poll failed, will retry")
		g.armLocked()
		return
	}

	switch res.Status {
	case model.JobStatusPending, model.JobStatusProcessing:
		if res.Status == model.JobStatusProcessing && g.sm.Current() == StatePending {
			if err := g.sm.Transition(StateProcessing); err != nil {
				log.Error().Err(err).Msg("state machine rejected processing")
				return
			}
		}
		g.job.Status = res.Status
		g.notifyLocked()
		if g.job.Attempts >= g.maxAttempts {
			g.finishTimedOutLocked()
			return
		}
		g.armLocked()

	case model.JobStatusCompleted:
		artifact := &model.PlanArtifact{
			UserID:         g.req.UserID,
			PlanType:       g.req.PlanType,
			Payload:        res.Payload,
			GeneratedAt:    time.Now(),
			GenerationTime: res.GenerationTime,
		}
		g.job.Status = model.JobStatusCompleted
		g.job.Result = artifact
		g.job.GenerationTime = res.GenerationTime
		if err := g.sm.Transition(StateCompleted); err != nil {
			log.Error().Err(err).Msg("state machine rejected completion")
			return
		}
		log.Info().Dur("generation_time", res.GenerationTime).Msg("generation completed")
		g.deliverCompletedLocked(artifact, res.GenerationTime)

	case model.JobStatusFailed:
		g.job.Status = model.JobStatusFailed
		g.job.Error = res.Error
		if err := g.sm.Transition(StateFailed); err != nil {
			log.Error().Err(err).Msg("state machine rejected failure")
			return
		}
		log.Warn().Str("cause", res.Error).Msg("generation failed")
		g.finishFailedLocked(model.Failure{Kind: model.FailureService, Message: res.Error})

	case model.JobStatusCancelled:
		// Cancelled server-side without a caller cancel.
		g.job.Status = model.JobStatusCancelled
		if err := g.sm.Transition(StateCancelled); err != nil {
			log.Error().Err(err).Msg("state machine rejected cancellation")
			return
		}
		metrics.IncGenerationJob(string(model.JobStatusCancelled))
		g.sink.OnCancelled(context.Background())
		g.resetLocked()

	default:
		// Out-of-contract status from the adapter. Treat it like a transient
		// failure rather than dropping the loop: the job never silently loses
		// its terminal outcome.
		log.Error().Str("status", string(res.Status)).Msg("unknown job status from service")
		if g.job.Attempts >= g.maxAttempts {
			g.finishTimedOutLocked()
			return
		}
		g.armLocked()
	}
}

func (g *generationUC) deliverCompletedLocked(artifact *model.PlanArtifact, generationTime time.Duration) {
	metrics.IncGenerationJob(string(model.JobStatusCompleted))
	g.sink.OnCompleted(context.Background(), artifact, generationTime)
	g.resetLocked()
}

func (g *generationUC) finishFailedLocked(f model.Failure) {
	metrics.IncGenerationJob(string(model.JobStatusFailed))
	g.sink.OnFailed(context.Background(), f)
	g.resetLocked()
}

// finishTimedOutLocked ends the client-side loop when the attempt budget is
// exhausted. The server-side job may still complete; the failure kind keeps
// that distinction for presentation ("still processing, check back later").
func (g *generationUC) finishTimedOutLocked() {
	g.log.Warn().Str("job_id", g.job.ID).Int("attempts", g.job.Attempts).Msg("poll budget exhausted")
	g.job.Status = model.JobStatusFailed
	if err := g.sm.Transition(StateFailed); err != nil {
		g.log.Error().Err(err).Msg("state machine rejected timeout")
		return
	}
	g.finishFailedLocked(model.Failure{
		Kind:    model.FailureTimeout,
		Message: "generation is still processing; check back later",
	})
}

// resetLocked consumes the terminal outcome: back to Idle, job and timer
// released, epoch bumped so nothing stale can ever apply.
func (g *generationUC) resetLocked() {
	if err := g.sm.Transition(StateIdle); err != nil {
		g.log.Error().Err(err).Msg("state machine rejected reset")
	}
	g.job = nil
	g.req = nil
	g.handle = nil
	g.runCtx = nil
	g.epoch++
	if g.onIdle != nil {
		g.onIdle()
	}
}

func (g *generationUC) notifyLocked() {
	if g.listener == nil {
		return
	}
	g.listener.OnStatus(g.job.Status, g.job.EstimatedTimeRemaining)
}

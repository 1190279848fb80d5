package plansink

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"fitness-ai-generation/internal/domain/model"
	"fitness-ai-generation/internal/domain/ports/repository"
	"fitness-ai-generation/internal/domain/ports/sink"
	red "fitness-ai-generation/internal/infra/redis"
)

// keepArtifacts bounds the per-user, per-type plan history kept in Postgres.
const keepArtifacts = 5

// Compile-time check
var _ sink.ResultSink = (*PlanSink)(nil)

// PlanSink is the production ResultSink: it persists finished artifacts to
// Postgres and keeps the latest one warm in Redis. Failures and cancellations
// carry nothing to persist; they are recorded for operators and left to the
// caller to present.
type PlanSink struct {
	plans repository.PlanRepository
	txm   repository.TransactionManager
	cache *red.PlanCache
	log   *zerolog.Logger
}

func New(plans repository.PlanRepository, txm repository.TransactionManager, cache *red.PlanCache, logger *zerolog.Logger) *PlanSink {
	sinkLog := logger.With().Str("component", "PlanSink").Logger()
	return &PlanSink{plans: plans, txm: txm, cache: cache, log: &sinkLog}
}

func (s *PlanSink) OnCompleted(ctx context.Context, artifact *model.PlanArtifact, generationTime time.Duration) {
	if artifact == nil {
		s.log.Error().Msg("completed generation delivered without artifact")
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	// Save and prune in one transaction so the history bound holds even if
	// the process dies between the two statements.
	err := s.txm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if err := s.plans.Save(ctx, tx, artifact); err != nil {
			return err
		}
		return s.plans.PruneOlder(ctx, tx, artifact.UserID, artifact.PlanType, keepArtifacts)
	})
	if err != nil {
		s.log.Error().Err(err).Str("user_id", artifact.UserID).Msg("failed to persist plan artifact")
		return
	}
	if s.cache != nil {
		if err := s.cache.Store(ctx, artifact); err != nil {
			// Cache misses fall back to Postgres; not fatal.
			s.log.Warn().Err(err).Str("plan_id", artifact.ID).Msg("failed to cache plan artifact")
		}
	}
	s.log.Info().
		Str("plan_id", artifact.ID).
		Str("user_id", artifact.UserID).
		Str("plan_type", string(artifact.PlanType)).
		Bool("from_cache", artifact.FromCache).
		Dur("generation_time", generationTime).
		Msg("plan artifact stored")
}

// LatestPlan reads through the cache: Redis first, Postgres on a miss, with
// the cache backfilled from the database hit.
func (s *PlanSink) LatestPlan(ctx context.Context, userID string, planType model.PlanType) (*model.PlanArtifact, error) {
	if s.cache != nil {
		if artifact, err := s.cache.Get(ctx, userID, planType); err == nil {
			return artifact, nil
		}
	}
	artifact, err := s.plans.FindLatestByUser(ctx, nil, userID, planType)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		_ = s.cache.Store(ctx, artifact)
	}
	return artifact, nil
}

func (s *PlanSink) OnFailed(ctx context.Context, failure model.Failure) {
	s.log.Warn().
		Str("kind", string(failure.Kind)).
		Str("cause", failure.Message).
		Msg("generation finished without a plan")
}

func (s *PlanSink) OnCancelled(ctx context.Context) {
	s.log.Info().Msg("generation cancelled by caller")
}

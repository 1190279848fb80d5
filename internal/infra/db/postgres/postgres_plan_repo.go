package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fitness-ai-generation/internal/domain"
	"fitness-ai-generation/internal/domain/model"
	"fitness-ai-generation/internal/domain/ports/repository"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/oklog/ulid/v2"
)

// Ensure interface compliance
var _ repository.PlanRepository = (*PostgresPlanRepo)(nil)

type PostgresPlanRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresPlanRepo(pool *pgxpool.Pool) *PostgresPlanRepo {
	return &PostgresPlanRepo{pool: pool}
}

func (r *PostgresPlanRepo) Save(ctx context.Context, tx repository.Tx, artifact *model.PlanArtifact) error {
	if artifact.ID == "" {
		artifact.ID = ulid.Make().String()
	}
	if artifact.GeneratedAt.IsZero() {
		artifact.GeneratedAt = time.Now()
	}

	const q = `
INSERT INTO plan_artifacts (id, user_id, plan_type, payload, generated_at, generation_time_ms, from_cache)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (id) DO UPDATE
  SET payload            = EXCLUDED.payload,
      generated_at       = EXCLUDED.generated_at,
      generation_time_ms = EXCLUDED.generation_time_ms,
      from_cache         = EXCLUDED.from_cache;
`
	_, err := execSQL(ctx, r.pool, tx, q,
		artifact.ID, artifact.UserID, string(artifact.PlanType), []byte(artifact.Payload),
		artifact.GeneratedAt, artifact.GenerationTime.Milliseconds(), artifact.FromCache,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrAlreadyExists
		}
		return fmt.Errorf("save plan artifact: %w", err)
	}
	return nil
}

func (r *PostgresPlanRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.PlanArtifact, error) {
	const q = `
SELECT id, user_id, plan_type, payload, generated_at, generation_time_ms, from_cache
  FROM plan_artifacts
 WHERE id = $1;
`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanArtifact(row)
}

func (r *PostgresPlanRepo) FindLatestByUser(ctx context.Context, tx repository.Tx, userID string, planType model.PlanType) (*model.PlanArtifact, error) {
	const q = `
SELECT id, user_id, plan_type, payload, generated_at, generation_time_ms, from_cache
  FROM plan_artifacts
 WHERE user_id = $1 AND plan_type = $2
 ORDER BY generated_at DESC
 LIMIT 1;
`
	row, err := pickRow(ctx, r.pool, tx, q, userID, string(planType))
	if err != nil {
		return nil, err
	}
	return scanArtifact(row)
}

func (r *PostgresPlanRepo) PruneOlder(ctx context.Context, tx repository.Tx, userID string, planType model.PlanType, keep int) error {
	if keep <= 0 {
		keep = 1
	}
	const q = `
DELETE FROM plan_artifacts
 WHERE user_id = $1 AND plan_type = $2
   AND id NOT IN (
       SELECT id FROM plan_artifacts
        WHERE user_id = $1 AND plan_type = $2
        ORDER BY generated_at DESC
        LIMIT $3
   );
`
	if _, err := execSQL(ctx, r.pool, tx, q, userID, string(planType), keep); err != nil {
		return fmt.Errorf("prune plan artifacts: %w", err)
	}
	return nil
}

func scanArtifact(row pgx.Row) (*model.PlanArtifact, error) {
	var (
		a       model.PlanArtifact
		typeStr string
		payload []byte
		genMs   int64
	)
	if err := row.Scan(&a.ID, &a.UserID, &typeStr, &payload, &a.GeneratedAt, &genMs, &a.FromCache); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	a.PlanType = model.PlanType(typeStr)
	a.Payload = payload
	a.GenerationTime = time.Duration(genMs) * time.Millisecond
	return &a, nil
}

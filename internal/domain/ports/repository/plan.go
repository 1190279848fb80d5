package repository

import (
	"context"

	"fitness-ai-generation/internal/domain/model"
)

// PlanRepository is the port for finished-artifact persistence.
type PlanRepository interface {
	Save(ctx context.Context, tx Tx, artifact *model.PlanArtifact) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.PlanArtifact, error)
	// FindLatestByUser returns the newest artifact of the given type for the
	// user, or domain.ErrNotFound.
	FindLatestByUser(ctx context.Context, tx Tx, userID string, planType model.PlanType) (*model.PlanArtifact, error)
	// PruneOlder deletes the user's artifacts of the given type beyond the
	// keep newest ones.
	PruneOlder(ctx context.Context, tx Tx, userID string, planType model.PlanType, keep int) error
}

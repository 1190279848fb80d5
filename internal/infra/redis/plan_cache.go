package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"

	"fitness-ai-generation/internal/domain"
	"fitness-ai-generation/internal/domain/model"
)

// PlanCache keeps the most recent finished artifact per user and plan type so
// repeat reads skip Postgres.
type PlanCache struct {
	client RedisClient
	ttl    time.Duration
}

func NewPlanCache(client RedisClient, ttl time.Duration) *PlanCache {
	return &PlanCache{client: client, ttl: ttl}
}

func planKey(userID string, planType model.PlanType) string {
	return "plan:" + userID + ":" + string(planType)
}

func (c *PlanCache) Store(ctx context.Context, artifact *model.PlanArtifact) error {
	data, err := json.Marshal(artifact)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, planKey(artifact.UserID, artifact.PlanType), data, c.ttl)
}

func (c *PlanCache) Get(ctx context.Context, userID string, planType model.PlanType) (*model.PlanArtifact, error) {
	data, err := c.client.Get(ctx, planKey(userID, planType))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	var artifact model.PlanArtifact
	if err := json.Unmarshal([]byte(data), &artifact); err != nil {
		return nil, err
	}
	return &artifact, nil
}

func (c *PlanCache) Delete(ctx context.Context, userID string, planType model.PlanType) error {
	return c.client.Del(ctx, planKey(userID, planType))
}

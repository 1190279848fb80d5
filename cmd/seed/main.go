package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"time"

	"fitness-ai-generation/internal/config"
	"fitness-ai-generation/internal/domain/model"
	pg "fitness-ai-generation/internal/infra/db/postgres"
)

const schema = `
CREATE TABLE IF NOT EXISTS plan_artifacts (
    id                 TEXT PRIMARY KEY,
    user_id            TEXT NOT NULL,
    plan_type          TEXT NOT NULL,
    payload            JSONB NOT NULL,
    generated_at       TIMESTAMPTZ NOT NULL,
    generation_time_ms BIGINT NOT NULL DEFAULT 0,
    from_cache         BOOLEAN NOT NULL DEFAULT FALSE
);
CREATE INDEX IF NOT EXISTS idx_plan_artifacts_user_type_time
    ON plan_artifacts (user_id, plan_type, generated_at DESC);
`

// Sets up the plan_artifacts table and inserts a couple of demo artifacts so
// the read endpoints have something to serve during manual testing.
func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, true)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 4)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	if _, err := pool.Exec(ctx, schema); err != nil {
		log.Fatalf("apply schema: %v", err)
	}
	fmt.Println("plan_artifacts schema applied.")

	repo := pg.NewPostgresPlanRepo(pool)

	// If artifacts already exist for the demo user, do nothing.
	if _, err := repo.FindLatestByUser(ctx, nil, "demo-user", model.PlanTypeWorkout); err == nil {
		fmt.Println("Demo artifacts already present. No changes.")
		return
	}

	seed := []struct {
		PlanType model.PlanType
		Payload  map[string]any
	}{
		{model.PlanTypeWorkout, map[string]any{
			"goal":          "strength",
			"days_per_week": 4,
			"sessions":      []string{"upper A", "lower A", "upper B", "lower B"},
		}},
		{model.PlanTypeNutrition, map[string]any{
			"calories": 2400,
			"meals":    5,
			"focus":    "high protein",
		}},
	}

	for _, s := range seed {
		payload, err := json.Marshal(s.Payload)
		if err != nil {
			log.Fatalf("marshal payload: %v", err)
		}
		artifact := &model.PlanArtifact{
			UserID:         "demo-user",
			PlanType:       s.PlanType,
			Payload:        payload,
			GeneratedAt:    time.Now(),
			GenerationTime: 90 * time.Second,
		}
		if err := repo.Save(ctx, nil, artifact); err != nil {
			log.Fatalf("seed %s artifact: %v", s.PlanType, err)
		}
		fmt.Printf("Seeded %s artifact %s for demo-user\n", s.PlanType, artifact.ID)
	}
}

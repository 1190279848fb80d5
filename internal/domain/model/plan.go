package model

import (
	"encoding/json"
	"time"
)

type PlanType string

const (
	PlanTypeWorkout   PlanType = "workout"
	PlanTypeNutrition PlanType = "nutrition"
)

// GenerationRequest is the fitness-profile input shipped to the generation
// service. The service's algorithm is opaque to this client; these fields are
// forwarded verbatim.
type GenerationRequest struct {
	UserID       string   `json:"user_id"`
	PlanType     PlanType `json:"plan_type"`
	Goal         string   `json:"goal"`
	FitnessLevel string   `json:"fitness_level"`
	DaysPerWeek  int      `json:"days_per_week"`
	Equipment    []string `json:"equipment,omitempty"`
	DietaryPrefs []string `json:"dietary_prefs,omitempty"`
}

// PlanArtifact is the finished generation output. The payload is opaque to the
// orchestrator; only the sink interprets it.
type PlanArtifact struct {
	ID             string          `json:"id"`
	UserID         string          `json:"user_id"`
	PlanType       PlanType        `json:"plan_type"`
	Payload        json.RawMessage `json:"payload"`
	GeneratedAt    time.Time       `json:"generated_at"`
	GenerationTime time.Duration   `json:"generation_time"`
	FromCache      bool            `json:"from_cache"`
}

// FailureKind classifies a terminal failure for presentation purposes.
type FailureKind string

const (
	// FailureService means the service itself reported the job as failed.
	FailureService FailureKind = "service"
	// FailureTimeout means the client-side attempt budget ran out while the
	// job was still pending or processing. The server-side job may still
	// finish; callers should surface this as "check back later".
	FailureTimeout FailureKind = "timeout"
	// FailureValidation means the request was rejected before any job existed.
	FailureValidation FailureKind = "validation"
)

// Failure is the terminal failure handed to the sink.
type Failure struct {
	Kind    FailureKind
	Message string
}

func (f Failure) Error() string { return string(f.Kind) + ": " + f.Message }

package adapter

import (
	"context"
	"encoding/json"
	"time"

	"fitness-ai-generation/internal/domain/model"
)

// SubmitResult is the outcome of one submission. Exactly one of the two shapes
// is populated: a cache hit carries the artifact inline and no job id; an
// async start carries the job id and an advisory completion estimate.
type SubmitResult struct {
	CacheHit bool
	Artifact *model.PlanArtifact // cache hit only
	JobID    string              // async start only
	Estimate time.Duration       // async start only, advisory
}

// PollResult is one status snapshot of a remote job. Result, Error and
// GenerationTime are populated only for the matching terminal status.
type PollResult struct {
	Status         model.JobStatus
	Payload        json.RawMessage
	Error          string
	GenerationTime time.Duration
}

// GenerationServiceAdapter is the port to the remote generation service.
// It is a pure request/response boundary: no retry or timing logic lives here,
// and implementations keep at most one call in flight per job from the
// orchestrator's point of view.
//
// Submit fails with a domain.ErrTransport-wrapped error on network failure and
// a domain.ErrValidation-wrapped error when the service rejects the request
// before creating a job. Poll fails only on transport errors; a job the
// service reports as failed is a legitimate PollResult, not an error.
type GenerationServiceAdapter interface {
	Submit(ctx context.Context, req *model.GenerationRequest) (*SubmitResult, error)
	Poll(ctx context.Context, jobID string) (*PollResult, error)
}

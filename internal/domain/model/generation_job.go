package model

import "time"

type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusCancelled  JobStatus = "cancelled"
)

// IsTerminal reports whether no further transition is legal from s.
func (s JobStatus) IsTerminal() bool {
	switch s {
	case JobStatusCompleted, JobStatusFailed, JobStatusCancelled:
		return true
	}
	return false
}

// GenerationJob tracks one server-side generation request from submission to a
// terminal outcome. At most one job is active per logical target; the
// orchestrator owns the value exclusively and discards it once the outcome has
// been handed to the sink.
type GenerationJob struct {
	ID                     string
	Status                 JobStatus
	CreatedAt              time.Time
	EstimatedTimeRemaining time.Duration // advisory hint from the service
	Result                 *PlanArtifact // set only when Status is completed
	Error                  string        // set only when Status is failed
	GenerationTime         time.Duration // service-side, set only when completed
	Attempts               int
}

// NewGenerationJob returns a job in the pending state for a freshly started
// server-side generation.
func NewGenerationJob(id string, estimate time.Duration) *GenerationJob {
	return &GenerationJob{
		ID:                     id,
		Status:                 JobStatusPending,
		CreatedAt:              time.Now(),
		EstimatedTimeRemaining: estimate,
	}
}

// CompletedFromCache synthesizes an already-completed job for a submission the
// service satisfied immediately, so cache hits flow through the same terminal
// handoff as polled completions.
func CompletedFromCache(artifact *PlanArtifact) *GenerationJob {
	return &GenerationJob{
		Status:    JobStatusCompleted,
		CreatedAt: time.Now(),
		Result:    artifact,
	}
}

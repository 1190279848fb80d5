package sink

import (
	"context"
	"time"

	"fitness-ai-generation/internal/domain/model"
)

// ResultSink consumes the terminal outcome of a generation job. The
// orchestrator calls exactly one of the three entry points, exactly once per
// submission; presentation and persistence decisions belong to the
// implementation, never to the orchestrator.
type ResultSink interface {
	OnCompleted(ctx context.Context, artifact *model.PlanArtifact, generationTime time.Duration)
	OnFailed(ctx context.Context, failure model.Failure)
	OnCancelled(ctx context.Context)
}

// StatusListener optionally observes non-terminal progress updates. Terminal
// outcomes are delivered through ResultSink only.
type StatusListener interface {
	OnStatus(status model.JobStatus, estimatedTimeRemaining time.Duration)
}

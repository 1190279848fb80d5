package model

import (
	"testing"
	"time"
)

func TestJobStatusIsTerminal(t *testing.T) {
	terminal := []JobStatus{JobStatusCompleted, JobStatusFailed, JobStatusCancelled}
	for _, s := range terminal {
		if !s.IsTerminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	live := []JobStatus{JobStatusPending, JobStatusProcessing, JobStatus("")}
	for _, s := range live {
		if s.IsTerminal() {
			t.Errorf("%q should not be terminal", s)
		}
	}
}

func TestNewGenerationJob(t *testing.T) {
	job := NewGenerationJob("j1", 2*time.Minute)
	if job.ID != "j1" {
		t.Fatalf("id = %q", job.ID)
	}
	if job.Status != JobStatusPending {
		t.Fatalf("status = %s, want pending", job.Status)
	}
	if job.EstimatedTimeRemaining != 2*time.Minute {
		t.Fatalf("estimate = %v", job.EstimatedTimeRemaining)
	}
	if job.Attempts != 0 {
		t.Fatalf("attempts = %d, want 0", job.Attempts)
	}
}

func TestCompletedFromCache(t *testing.T) {
	artifact := &PlanArtifact{UserID: "u1", PlanType: PlanTypeWorkout, FromCache: true}
	job := CompletedFromCache(artifact)
	if job.Status != JobStatusCompleted {
		t.Fatalf("status = %s, want completed", job.Status)
	}
	if !job.Status.IsTerminal() {
		t.Fatal("cache-hit job must be terminal")
	}
	if job.Result != artifact {
		t.Fatal("result artifact not attached")
	}
	if job.GenerationTime != 0 {
		t.Fatalf("generation time = %v, want 0", job.GenerationTime)
	}
}

func TestFailureError(t *testing.T) {
	f := Failure{Kind: FailureTimeout, Message: "still processing"}
	if got := f.Error(); got != "timeout: still processing" {
		t.Fatalf("Error() = %q", got)
	}
}

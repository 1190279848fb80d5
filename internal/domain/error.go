package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrAlreadyExists      = errors.New("entity already exists")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrOperationFailed    = errors.New("operation failed")
	ErrInvalidExecContext = errors.New("invalid execution context")
	ErrReadDatabaseRow    = errors.New("failed to read database row")

	// Generation boundary errors. ErrTransport wraps a network-level failure
	// during submit or poll; a "failed" job status reported by the service is
	// NOT a transport error. ErrValidation means the service rejected the
	// request before any job was created.
	ErrTransport  = errors.New("generation service unreachable")
	ErrValidation = errors.New("generation request rejected")

	// ErrGenerationInProgress: a second Start was issued while a job is still
	// active for the same target. The orchestrator rejects it; it never
	// silently supersedes a live job.
	ErrGenerationInProgress = errors.New("a generation is already in progress")

	// ErrNoActiveJob is returned by status/cancel operations when nothing is
	// being generated.
	ErrNoActiveJob = errors.New("no active generation job")

	// ErrInvalidTransition signals a job-state transition the state machine
	// forbids. It is a programmer error, never a user-facing outcome.
	ErrInvalidTransition = errors.New("invalid job state transition")
)

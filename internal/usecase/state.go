package usecase

import (
	"fmt"

	"fitness-ai-generation/internal/domain"
)

// JobState is the orchestrator-side view of the active job. Idle means no job
// is tracked; it is both the initial state and the state re-entered once a
// terminal outcome has been consumed by the sink.
type JobState string

const (
	StateIdle       JobState = "idle"
	StatePending    JobState = "pending"
	StateProcessing JobState = "processing"
	StateCompleted  JobState = "completed"
	StateFailed     JobState = "failed"
	StateCancelled  JobState = "cancelled"
)

var legalTransitions = map[JobState][]JobState{
	StateIdle:       {StatePending, StateCompleted},
	StatePending:    {StateProcessing, StateCompleted, StateFailed, StateCancelled},
	StateProcessing: {StateCompleted, StateFailed, StateCancelled},
	StateCompleted:  {StateIdle},
	StateFailed:     {StateIdle},
	StateCancelled:  {StateIdle},
}

// StateMachine enforces the legal, monotonic job lifecycle:
// Idle -> Pending -> Processing -> {Completed|Failed|Cancelled} -> Idle.
// A cache hit jumps Idle -> Completed; a caller cancel short-circuits
// Pending/Processing -> Cancelled. Terminal states never transition anywhere
// but back to Idle. It is not safe for concurrent use; the orchestrator
// serializes access.
type StateMachine struct {
	state JobState
}

func NewStateMachine() *StateMachine {
	return &StateMachine{state: StateIdle}
}

func (m *StateMachine) Current() JobState { return m.state }

// Transition moves to the target state or returns a
// domain.ErrInvalidTransition-wrapped error. An illegal transition is a logic
// bug in the caller, never a runtime outcome.
func (m *StateMachine) Transition(to JobState) error {
	for _, t := range legalTransitions[m.state] {
		if t == to {
			m.state = to
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, m.state, to)
}

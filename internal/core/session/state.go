// Package session contains the pure business logic for the session
// command state machine. Guards are pure functions that evaluate
// preconditions without side effects.
package session

import (
	"fmt"

	"github.com/example/thoughtstream/internal/models"
)

// State is the per-conversation execution state. It mirrors the
// persisted pending-task record 1:1: Idle means no record, Executing a
// record in status loading, Failed a record in status error.
type State int

const (
	StateIdle State = iota
	StateExecuting
	StateFailed
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateExecuting:
		return "executing"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// InterruptedMessage is the error text shown for a loading task found
// at attach time. Its stream died with the previous process and cannot
// be resumed, only retried.
const InterruptedMessage = "command interrupted by restart"

// DeriveState computes the state from a persisted pending task.
// Reattach always re-derives state from the store and never trusts
// stale memory, so a loading task that outlived its process is
// reported as Failed rather than silently resumed.
func DeriveState(task *models.PendingTask, processOwnsTask bool) State {
	if task == nil {
		return StateIdle
	}
	if task.Status == models.TaskStatusLoading {
		if processOwnsTask {
			return StateExecuting
		}
		return StateFailed
	}
	return StateFailed
}

// GuardResult represents the outcome of a guard evaluation.
type GuardResult struct {
	Allowed bool
	Reason  string
}

// Error converts the guard result to an error if not allowed.
func (r GuardResult) Error() error {
	if r.Allowed {
		return nil
	}
	return fmt.Errorf("%s", r.Reason)
}

// CanExecute evaluates whether a new command may start executing.
// Rules:
// - No command may already be in flight (at-most-one-in-flight)
// - The windowed input must be non-empty
func CanExecute(state State, input string) GuardResult {
	if state == StateExecuting {
		return GuardResult{
			Allowed: false,
			Reason:  "a command is already executing for this conversation",
		}
	}
	if input == "" {
		return GuardResult{
			Allowed: false,
			Reason:  "command requires conversation text and none is available",
		}
	}
	return GuardResult{Allowed: true}
}

// CanRetry evaluates whether a failed command may be retried.
// Rules:
// - A pending task must exist (retry re-derives input, never caches it)
// - The task must not still be owned by a live execution
func CanRetry(state State) GuardResult {
	switch state {
	case StateFailed:
		return GuardResult{Allowed: true}
	case StateExecuting:
		return GuardResult{
			Allowed: false,
			Reason:  "a command is already executing for this conversation",
		}
	default:
		return GuardResult{
			Allowed: false,
			Reason:  "nothing to retry",
		}
	}
}

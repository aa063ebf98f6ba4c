package tickloop

import (
	"errors"
	"fmt"
)

// Sentinel errors for the task table.
var (
	// ErrCapacityExceeded indicates Register was called on a full task table.
	ErrCapacityExceeded = errors.New("task table full")

	// ErrInvalidTask indicates Register was called with a nil handler,
	// a zero queue capacity or a negative payload size.
	ErrInvalidTask = errors.New("invalid task definition")

	// ErrStaleTask indicates a TaskRef that no longer resolves, either because
	// the task was removed or because the ref was never issued by this scheduler.
	ErrStaleTask = errors.New("stale task reference")

	// ErrRunning indicates a table mutation or manual pass was attempted while
	// the scheduler is sweeping or Run is active.
	ErrRunning = errors.New("scheduler is running")
)

// Sentinel errors for admission.
var (
	// ErrRejected matches every admission rejection via errors.Is.
	// Use it when the reason does not matter to the caller.
	ErrRejected = errors.New("event rejected")

	// ErrQueueFull indicates no Empty slot was found within capacity probes.
	ErrQueueFull = errors.New("event queue full")

	// ErrSuspended indicates the target task is Suspended.
	ErrSuspended = errors.New("task suspended")

	// ErrPayloadSize indicates the payload exceeds the task's fixed payload size.
	ErrPayloadSize = errors.New("payload exceeds task payload size")

	// ErrInvalidEvent indicates an event of KindEmpty was offered for admission.
	ErrInvalidEvent = errors.New("cannot admit an empty event")

	// ErrNotEmergency indicates AdmitUrgent targeted a task registered
	// without WithEmergency.
	ErrNotEmergency = errors.New("task is not an emergency task")

	// ErrInboxFull indicates Submit found the cross-goroutine inbox full.
	ErrInboxFull = errors.New("submit inbox full")
)

// AdmissionError describes a rejected admission.
// errors.Is(err, ErrRejected) holds for every AdmissionError; errors.Is
// against ErrQueueFull, ErrSuspended, etc. selects the specific reason.
type AdmissionError struct {
	// Task is the name the task was registered with.
	Task string
	// Reason is the sentinel describing why the event was refused.
	Reason error
}

// Error implements the error interface.
func (e *AdmissionError) Error() string {
	return fmt.Sprintf("admit to task %s: %v", e.Task, e.Reason)
}

// Unwrap returns the rejection reason for errors.Is/As support.
func (e *AdmissionError) Unwrap() error {
	return e.Reason
}

// Is reports true for ErrRejected so callers can treat all rejections alike.
func (e *AdmissionError) Is(target error) bool {
	return target == ErrRejected
}

// TaskError wraps table errors with the operation that failed.
type TaskError struct {
	// Task is the task name, empty when the ref could not be resolved.
	Task string
	// Op is the operation that failed ("register", "remove", "status").
	Op string
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *TaskError) Error() string {
	if e.Task == "" {
		return fmt.Sprintf("%s task: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s task %s: %v", e.Op, e.Task, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *TaskError) Unwrap() error {
	return e.Err
}

func rejected(task string, reason error) error {
	return &AdmissionError{Task: task, Reason: reason}
}

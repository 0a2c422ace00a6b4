package pipeline

import (
	"errors"
	"fmt"
)

var (
	// ErrNilTask is returned when a nil task is registered.
	ErrNilTask = errors.New("nil task")
	// ErrUncomparableTask is returned for a task whose dynamic type cannot be
	// used as a graph node, such as a func or slice type.
	ErrUncomparableTask = errors.New("task type is not comparable")
	// ErrTaskPanic wraps the value recovered from a panicking task.
	ErrTaskPanic = errors.New("task panicked")
)

// TaskError reports the failure of a single task during a run.
type TaskError struct {
	Task Task
	Name string
	Err  error
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("task %q failed: %v", e.Name, e.Err)
}

func (e *TaskError) Unwrap() error { return e.Err }

package dispatch

import (
	"context"
	"errors"
	"fmt"
)

// WorkFunc is a unit of GUI-bound work. The context it receives is marked as
// running on the GUI thread.
type WorkFunc func(ctx context.Context) (any, error)

// Task is a queued WorkFunc and the tag its result is posted under.
type Task struct {
	Tag  uint64
	Work WorkFunc

	ctx context.Context
}

// TaskResult is produced exactly once per Task. A non-nil Err means the call
// failed, whether the work returned an error, panicked, timed out or was
// abandoned when the queue closed.
type TaskResult struct {
	Value any
	Err   error
}

// Ok wraps a successful value.
func Ok(v any) TaskResult { return TaskResult{Value: v} }

// Failed wraps an error.
func Failed(err error) TaskResult { return TaskResult{Err: err} }

// IsOk reports whether the result carries a value.
func (r TaskResult) IsOk() bool { return r.Err == nil }

var (
	// ErrTimeout is returned when the GUI thread did not answer in time.
	ErrTimeout = errors.New("timeout waiting for result")
	// ErrClosed is returned for calls queued or waiting when the queue closed.
	ErrClosed = errors.New("dispatch queue closed")
	// ErrReentrantSubmit is the panic value raised when GUI-thread work tries
	// to Submit into the queue that is running it.
	ErrReentrantSubmit = errors.New("dispatch: Submit called from the GUI thread")
)

// PanicError is the Err of a task whose work panicked.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("operation panicked: %v", e.Value)
}

type guiThreadKey struct{}

func withGUIThread(ctx context.Context) context.Context {
	return context.WithValue(ctx, guiThreadKey{}, true)
}

// OnGUIThread reports whether ctx was handed out by Drain.
func OnGUIThread(ctx context.Context) bool {
	if ctx == nil {
		return false
	}
	v, _ := ctx.Value(guiThreadKey{}).(bool)
	return v
}

package errors

import (
	stderrors "errors"
	"fmt"
	"os"

	"github.com/julianstephens/cadence/internal/logger"
)

var (
	// ErrInvalidState is returned when an operation is attempted from a status
	// that does not permit it.
	ErrInvalidState = stderrors.New("invalid state")
	// ErrRecurrenceExhausted signals that a series' end condition has been reached.
	ErrRecurrenceExhausted = stderrors.New("recurrence exhausted")
	// ErrNothingToUndo is returned when undo is requested on a task with no
	// recorded forward transition.
	ErrNothingToUndo = stderrors.New("nothing to undo")
	// ErrMalformedRule is returned when a recurrence rule fails validation.
	ErrMalformedRule = stderrors.New("malformed recurrence rule")
	// ErrTaskNotFound is returned by storage providers for unknown or deleted ids.
	ErrTaskNotFound = stderrors.New("task not found")
)

// TransitionError describes a rejected lifecycle operation on a single task.
type TransitionError struct {
	Op     string
	TaskID string
	Status string
	Err    error
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s task %s (status %s): %v", e.Op, e.TaskID, e.Status, e.Err)
}

func (e *TransitionError) Unwrap() error {
	return e.Err
}

// Format formats an error message with a consistent "Error: " prefix
func Format(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Error: %v", err)
}

// Formatf formats an error message with a consistent "Error: " prefix using a format string
func Formatf(format string, args ...interface{}) string {
	return fmt.Sprintf("Error: "+format, args...)
}

// IsUserFacing reports whether err is one of the lifecycle errors that should be
// shown to the user as a no-op message rather than treated as a failure.
func IsUserFacing(err error) bool {
	return stderrors.Is(err, ErrInvalidState) || stderrors.Is(err, ErrNothingToUndo)
}

// Fatal logs an error and exits the program with exit code 1
func Fatal(err error) {
	if err != nil {
		logger.Error("Command execution failed", "error", err)
		fmt.Fprintf(os.Stderr, "%s\n", Format(err))
		os.Exit(1)
	}
}

// Fatalf logs and formats an error message, then exits the program with exit code 1
func Fatalf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	logger.Error("Command execution failed", "error", msg)
	fmt.Fprintf(os.Stderr, "%s\n", Formatf(format, args...))
	os.Exit(1)
}

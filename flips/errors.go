package flips

import (
	"errors"
	"fmt"
)

var (
	// ErrToolMissing matches any *ToolMissingError.
	ErrToolMissing = errors.New("flips executable missing")
	// ErrOperationFailed matches any *OperationFailedError.
	ErrOperationFailed = errors.New("flips operation failed")
	// ErrInvalidOutput matches any *DecodeError.
	ErrInvalidOutput = errors.New("flips output is not valid UTF-8")
	// ErrInvalidPatchType is returned by CreatePatch for an unknown PatchType.
	ErrInvalidPatchType = errors.New("invalid patch type")
)

// ToolMissingError is returned when the configured FLIPS executable does not
// exist. No process is started in that case.
type ToolMissingError struct {
	Path string
}

func (e *ToolMissingError) Error() string {
	return fmt.Sprintf("flips executable not found at %s", e.Path)
}

func (e *ToolMissingError) Is(target error) bool {
	return target == ErrToolMissing
}

// OperationFailedError is returned when FLIPS exits non-zero or could not be
// run at all. Output is nil when the process never produced any (spawn
// failure). ExitCode is nil when the process did not exit normally.
type OperationFailedError struct {
	Output   *Output
	ExitCode *int
	Err      error
}

func (e *OperationFailedError) Error() string {
	switch {
	case e.ExitCode != nil:
		return fmt.Sprintf("flips exited with code %d", *e.ExitCode)
	case e.Err != nil:
		return fmt.Sprintf("flips did not run to completion: %v", e.Err)
	default:
		return "flips did not run to completion"
	}
}

func (e *OperationFailedError) Unwrap() error {
	return e.Err
}

func (e *OperationFailedError) Is(target error) bool {
	return target == ErrOperationFailed
}

// DecodeError is returned when FLIPS wrote bytes that are not valid UTF-8.
type DecodeError struct {
	Stream   string
	ExitCode *int
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("flips wrote invalid UTF-8 to %s", e.Stream)
}

func (e *DecodeError) Is(target error) bool {
	return target == ErrInvalidOutput
}

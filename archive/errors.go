package archive

import (
	"errors"
	"fmt"
)

// ErrUnsupportedType is returned when no guest utility invocation is known
// for the requested (or extension-derived) archive type.
var ErrUnsupportedType = errors.New("unsupported archive type")

// OperationError wraps a non-zero exit code from a guest archive utility.
type OperationError struct {
	Action   string // "archive" or "extract"
	Path     string
	ExitCode int
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("%s %s: guest utility exited with code %d", e.Action, e.Path, e.ExitCode)
}

// ConsolidationError means extraction reported success but the expected
// intermediate outputs were missing, or combining them into the single
// target file failed.
type ConsolidationError struct {
	ArchivePath string
	TargetPath  string
	Reason      string
}

func (e *ConsolidationError) Error() string {
	return fmt.Sprintf("consolidate %s into %s: %s", e.ArchivePath, e.TargetPath, e.Reason)
}

// EnvironmentError means the guest lacks the archive utility this layer
// drives (e.g. no 7-Zip on a Windows guest).
type EnvironmentError struct {
	Guest   string
	Missing string
}

func (e *EnvironmentError) Error() string {
	return fmt.Sprintf("guest %s is missing %s; install it before archive operations", e.Guest, e.Missing)
}

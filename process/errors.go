package process

import (
	"errors"
	"fmt"
	"time"
)

// ErrOutputNotAvailable is returned by GetProcessOutput when the process
// was not launched with output capture, or its capture files are gone
// (guest cleanup raced ahead, or the process never actually ran).
var ErrOutputNotAvailable = errors.New("process output not available")

// NotFoundError means the guest no longer reports any process — running or
// reaped — with the given PID. This includes the reap race: the guest may
// reap a process record before an exit code was ever observed, and reap
// timing is guest-controlled, not coordinated with this layer.
type NotFoundError struct {
	PID int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no guest process with pid %d", e.PID)
}

// TimeoutError means the process was still running when the exit-code wait
// elapsed. The guest-side process keeps running; there is no kill primitive
// at this layer.
type TimeoutError struct {
	PID     int
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("process %d still running after %s", e.PID, e.Timeout)
}

package types

import "time"

// ProcessStatus is a snapshot of one guest process, produced fresh on every
// poll. ExitCode is populated only once the process has stopped; the guest
// keeps the record for an implementation-defined window after exit, then
// reaps it.
type ProcessStatus struct {
	PID     int    `json:"pid"`
	Name    string `json:"name,omitempty"`
	CmdLine string `json:"cmd_line,omitempty"`
	Owner   string `json:"owner,omitempty"`

	Running  bool `json:"running"`
	ExitCode *int `json:"exit_code,omitempty"`

	// Guest-clock timestamps.
	StartTime *time.Time `json:"start_time,omitempty"`
	EndTime   *time.Time `json:"end_time,omitempty"`
}

// ProcessOutput holds the captured stdout/stderr of a finished process.
// Both are empty unless the process was launched with output capture.
type ProcessOutput struct {
	Stdout []byte `json:"stdout,omitempty"`
	Stderr []byte `json:"stderr,omitempty"`
}

// ExecSpec describes one program launch inside the guest.
type ExecSpec struct {
	// ProgramPath is the absolute path of the executable inside the guest.
	ProgramPath string `json:"program_path"`
	// Arguments is the raw argument string appended after the program.
	Arguments string `json:"arguments,omitempty"`
	// WorkingDirectory is where the program starts; guest default if empty.
	WorkingDirectory string `json:"working_directory,omitempty"`
	// Env holds environment variable overrides, keys unique.
	Env map[string]string `json:"env,omitempty"`
}

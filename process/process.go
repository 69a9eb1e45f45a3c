// Package process launches programs inside a guest and tracks their
// lifecycle over the poll-only guest-tools channel: PID at launch, exit
// code by polling, output via launch-time capture files.
package process

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/projecteru2/core/log"
	"golang.org/x/sync/singleflight"

	"github.com/projecteru2/guestops/agent"
	"github.com/projecteru2/guestops/fileops"
	"github.com/projecteru2/guestops/types"
	"github.com/projecteru2/guestops/utils"
)

// DefaultPollInterval is the delay between process-table polls while
// waiting for an exit code.
const DefaultPollInterval = time.Second

// posixTempPath is the capture staging root on POSIX guests. Windows guests
// report theirs through the TMP environment variable instead.
const posixTempPath = "/tmp"

// ExecOptions tunes one ExecuteCommand launch. CaptureOutput is fixed at
// launch — it cannot be enabled for an already running process.
type ExecOptions struct {
	WorkingDirectory string
	Arguments        string
	Env              map[string]string
	SaveOutput       bool
}

// Manager drives process execution inside one guest.
type Manager struct {
	client agent.Client
	guest  *types.Guest
	auth   *types.Auth
	files  *fileops.FileOps

	clock        utils.Clock
	pollInterval time.Duration

	// tmpGroup dedupes concurrent guest temp-path lookups; tmpPath caches
	// the answer for the lifetime of the manager.
	tmpGroup singleflight.Group
	tmpPath  string
}

// New binds a Manager to a guest handle and credentials.
func New(client agent.Client, guest *types.Guest, auth *types.Auth, files *fileops.FileOps, pollInterval time.Duration) *Manager {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	return &Manager{
		client:       client,
		guest:        guest,
		auth:         auth,
		files:        files,
		clock:        utils.RealClock(),
		pollInterval: pollInterval,
	}
}

// ExecuteCommand runs a command line through the guest-appropriate shell
// and returns the PID reported by the guest as soon as the agent accepts
// the launch — it does not wait for the process to finish. With SaveOutput
// the command line is extended to redirect stdout/stderr into capture files
// under the guest temp path, retrievable later via GetProcessOutput.
func (m *Manager) ExecuteCommand(ctx context.Context, command string, opts ExecOptions) (int, error) {
	commandLine := command
	if opts.Arguments != "" {
		commandLine += " " + opts.Arguments
	}

	if opts.SaveOutput {
		captureDir, err := m.ensureCaptureDir(ctx)
		if err != nil {
			return 0, err
		}
		commandLine = withCapture(m.guest.OSFamily, commandLine, captureDir, uuid.NewString())
		if err := m.launchCaptureCleanup(ctx, captureDir); err != nil {
			return 0, err
		}
	}

	return m.ExecuteProgram(ctx, types.ExecSpec{
		ProgramPath:      interpreter(m.guest.OSFamily),
		Arguments:        shellArguments(m.guest.OSFamily, commandLine),
		WorkingDirectory: opts.WorkingDirectory,
		Env:              opts.Env,
	})
}

// ExecuteProgram issues a single start-program agent call for an explicit
// program path and raw argument string, with no shell wrapping, and
// returns the assigned PID.
func (m *Manager) ExecuteProgram(ctx context.Context, spec types.ExecSpec) (int, error) {
	var result agent.StartProgramResult
	err := m.client.Call(ctx, m.guest, m.auth, agent.OpStartProgram, &agent.StartProgramArgs{ExecSpec: spec}, &result)
	if err != nil {
		return 0, fmt.Errorf("start %s: %w", spec.ProgramPath, err)
	}
	log.WithFunc("process.ExecuteProgram").Infof(ctx, "started %s in guest %s: pid %d", spec.ProgramPath, m.guest.ID, result.PID)
	return result.PID, nil
}

// GetProcessInfo returns a fresh snapshot of one guest process. Fails with
// *NotFoundError once the guest stops reporting the PID entirely.
func (m *Manager) GetProcessInfo(ctx context.Context, pid int) (*types.ProcessStatus, error) {
	var result agent.ListProcessesResult
	err := m.client.Call(ctx, m.guest, m.auth, agent.OpListProcesses, &agent.ListProcessesArgs{PIDs: []int{pid}}, &result)
	if err != nil {
		return nil, fmt.Errorf("query process %d: %w", pid, err)
	}
	for _, p := range result.Processes {
		if p.PID == pid {
			return p, nil
		}
	}
	return nil, &NotFoundError{PID: pid}
}

// GetProcessExitCode blocks the caller polling the guest process table
// until the process has stopped and reported an exit code, or timeout
// elapses. A timeout yields *TimeoutError, never a spurious exit code; a
// PID reaped before any exit code was observed yields *NotFoundError.
func (m *Manager) GetProcessExitCode(ctx context.Context, pid int, timeout time.Duration) (int, error) {
	var exitCode *int
	err := utils.WaitFor(ctx, m.clock, timeout, m.pollInterval, func() (bool, error) {
		status, err := m.GetProcessInfo(ctx, pid)
		if err != nil {
			return false, err
		}
		if status.Running || status.ExitCode == nil {
			return false, nil
		}
		exitCode = status.ExitCode
		return true, nil
	})
	if errors.Is(err, utils.ErrWaitTimeout) {
		return 0, &TimeoutError{PID: pid, Timeout: timeout}
	}
	if err != nil {
		return 0, err
	}
	return *exitCode, nil
}

// GetProcessOutput reads back the capture files of a process launched with
// SaveOutput. The capture paths are recovered from the process record's
// command line; a process launched without capture, or whose capture files
// are already gone, fails with ErrOutputNotAvailable.
func (m *Manager) GetProcessOutput(ctx context.Context, pid int) (*types.ProcessOutput, error) {
	status, err := m.GetProcessInfo(ctx, pid)
	if err != nil {
		return nil, err
	}

	stdoutPath, stderrPath := capturePaths(status.CmdLine)
	if stdoutPath == "" || stderrPath == "" {
		return nil, fmt.Errorf("process %d was not launched with output capture: %w", pid, ErrOutputNotAvailable)
	}
	for _, p := range []string{stdoutPath, stderrPath} {
		exists, err := m.files.FileExists(ctx, p)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, fmt.Errorf("capture file %s missing for process %d: %w", p, pid, ErrOutputNotAvailable)
		}
	}

	stdout, err := m.files.ReadFile(ctx, stdoutPath)
	if err != nil {
		return nil, err
	}
	stderr, err := m.files.ReadFile(ctx, stderrPath)
	if err != nil {
		return nil, err
	}
	return &types.ProcessOutput{Stdout: stdout, Stderr: stderr}, nil
}

// TempPath resolves the guest temp directory: /tmp on POSIX, the TMP
// environment variable on Windows. Concurrent lookups are deduped and the
// result cached.
func (m *Manager) TempPath(ctx context.Context) (string, error) {
	if m.tmpPath != "" {
		return m.tmpPath, nil
	}
	v, err, _ := m.tmpGroup.Do("tmp", func() (any, error) {
		if m.guest.OSFamily != types.OSFamilyWindows {
			return posixTempPath, nil
		}
		var result agent.ReadEnvironmentResult
		err := m.client.Call(ctx, m.guest, m.auth, agent.OpReadEnvironment, &agent.ReadEnvironmentArgs{Names: []string{"TMP"}}, &result)
		if err != nil {
			return "", fmt.Errorf("read guest TMP: %w", err)
		}
		tmp := result.Values["TMP"]
		if tmp == "" {
			return "", fmt.Errorf("guest did not report a TMP directory")
		}
		return tmp, nil
	})
	if err != nil {
		return "", err
	}
	m.tmpPath = v.(string)
	return m.tmpPath, nil
}

// ensureCaptureDir resolves the capture directory and creates it on first
// use.
func (m *Manager) ensureCaptureDir(ctx context.Context) (string, error) {
	tmp, err := m.TempPath(ctx)
	if err != nil {
		return "", err
	}
	dir := utils.JoinGuest(m.guest.OSFamily, tmp, captureDirName)
	exists, err := m.files.FileExists(ctx, dir)
	if err != nil {
		return "", err
	}
	if !exists {
		if err := m.files.CreateDirectory(ctx, dir, true); err != nil {
			return "", err
		}
	}
	return dir, nil
}

// launchCaptureCleanup fires the stale-capture deletion command. The
// cleanup process runs unattended; its PID is dropped.
func (m *Manager) launchCaptureCleanup(ctx context.Context, captureDir string) error {
	_, err := m.ExecuteProgram(ctx, types.ExecSpec{
		ProgramPath: interpreter(m.guest.OSFamily),
		Arguments:   shellArguments(m.guest.OSFamily, cleanupCommandLine(m.guest.OSFamily, captureDir)),
	})
	if err != nil {
		return fmt.Errorf("launch capture cleanup: %w", err)
	}
	return nil
}

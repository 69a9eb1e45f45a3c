package process

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/projecteru2/guestops/agent"
	"github.com/projecteru2/guestops/agent/agenttest"
	"github.com/projecteru2/guestops/fileops"
	"github.com/projecteru2/guestops/types"
)

// fakeClock advances by the interval on every After call and invokes
// afterHook first, letting tests mutate the fake guest between polls.
type fakeClock struct {
	now       time.Time
	afterHook func()
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) After(d time.Duration) <-chan time.Time {
	if c.afterHook != nil {
		c.afterHook()
	}
	c.now = c.now.Add(d)
	ch := make(chan time.Time, 1)
	ch <- c.now
	return ch
}

func newTestManager(t *testing.T) (*agenttest.Fake, *Manager, *fakeClock) {
	t.Helper()
	fake := agenttest.New()
	guest := &types.Guest{ID: "g1", OSFamily: fake.Family}
	auth := &types.Auth{Username: "root", Password: "pw"}
	m := New(fake, guest, auth, fileops.New(fake, guest, auth), time.Second)
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	m.clock = clock
	return fake, m, clock
}

func TestExecuteCommandReturnsBeforeExit(t *testing.T) {
	ctx := context.Background()
	fake, m, _ := newTestManager(t)
	fake.StartHook = func(*agenttest.Fake, types.ExecSpec) agenttest.StartResult {
		return agenttest.StartResult{Running: true}
	}

	pid, err := m.ExecuteCommand(ctx, "sleep 60", ExecOptions{})
	require.NoError(t, err)
	require.Greater(t, pid, 0)

	status, err := m.GetProcessInfo(ctx, pid)
	require.NoError(t, err)
	require.True(t, status.Running)
	require.Nil(t, status.ExitCode)
	require.Equal(t, "/bin/sh -c 'sleep 60'", status.CmdLine)
}

func TestExecuteCommandOptions(t *testing.T) {
	ctx := context.Background()
	fake, m, _ := newTestManager(t)

	var gotSpec types.ExecSpec
	fake.StartHook = func(_ *agenttest.Fake, spec types.ExecSpec) agenttest.StartResult {
		gotSpec = spec
		return agenttest.StartResult{}
	}

	_, err := m.ExecuteCommand(ctx, "make", ExecOptions{
		WorkingDirectory: "/src",
		Arguments:        "-j4 all",
		Env:              map[string]string{"CC": "gcc"},
	})
	require.NoError(t, err)
	require.Equal(t, "/bin/sh", gotSpec.ProgramPath)
	require.Equal(t, "-c 'make -j4 all'", gotSpec.Arguments)
	require.Equal(t, "/src", gotSpec.WorkingDirectory)
	require.Equal(t, "gcc", gotSpec.Env["CC"])
}

func TestExecuteProgramNoShell(t *testing.T) {
	ctx := context.Background()
	fake, m, _ := newTestManager(t)

	pid, err := m.ExecuteProgram(ctx, types.ExecSpec{ProgramPath: "/usr/bin/tar", Arguments: "-cf /tmp/a.tar a"})
	require.NoError(t, err)
	require.Equal(t, "/usr/bin/tar -cf /tmp/a.tar a", fake.Procs[pid].CmdLine)
}

func TestGetProcessInfoNotFound(t *testing.T) {
	_, m, _ := newTestManager(t)
	_, err := m.GetProcessInfo(context.Background(), 9999)
	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
	require.Equal(t, 9999, notFound.PID)
}

func TestGetProcessExitCode(t *testing.T) {
	ctx := context.Background()
	fake, m, clock := newTestManager(t)
	fake.StartHook = func(*agenttest.Fake, types.ExecSpec) agenttest.StartResult {
		return agenttest.StartResult{Running: true}
	}

	pid, err := m.ExecuteCommand(ctx, "true", ExecOptions{})
	require.NoError(t, err)

	// finishes after three poll intervals
	polls := 0
	clock.afterHook = func() {
		polls++
		if polls == 3 {
			fake.Finish(pid, 7)
		}
	}
	code, err := m.GetProcessExitCode(ctx, pid, time.Minute)
	require.NoError(t, err)
	require.Equal(t, 7, code)
}

func TestGetProcessExitCodeTimeout(t *testing.T) {
	ctx := context.Background()
	fake, m, _ := newTestManager(t)
	fake.StartHook = func(*agenttest.Fake, types.ExecSpec) agenttest.StartResult {
		return agenttest.StartResult{Running: true}
	}

	pid, err := m.ExecuteCommand(ctx, "sleep 600", ExecOptions{})
	require.NoError(t, err)

	_, err = m.GetProcessExitCode(ctx, pid, 3*time.Second)
	var timeout *TimeoutError
	require.ErrorAs(t, err, &timeout)
	require.Equal(t, pid, timeout.PID)
	require.Equal(t, 3*time.Second, timeout.Timeout)
}

func TestGetProcessExitCodeReapedProcess(t *testing.T) {
	ctx := context.Background()
	fake, m, clock := newTestManager(t)
	fake.StartHook = func(*agenttest.Fake, types.ExecSpec) agenttest.StartResult {
		return agenttest.StartResult{Running: true}
	}

	pid, err := m.ExecuteCommand(ctx, "true", ExecOptions{})
	require.NoError(t, err)

	// guest reaps the record before an exit code is ever observed
	clock.afterHook = func() { fake.Reap(pid) }
	_, err = m.GetProcessExitCode(ctx, pid, time.Minute)
	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
}

// shellStartHook emulates the guest shell's output redirection: capture
// paths scraped from the launch are written as files in the fake filesystem.
func shellStartHook(stdout, stderr string) func(*agenttest.Fake, types.ExecSpec) agenttest.StartResult {
	return func(f *agenttest.Fake, spec types.ExecSpec) agenttest.StartResult {
		outPath, errPath := capturePaths(spec.ProgramPath + " " + spec.Arguments)
		if outPath != "" && errPath != "" {
			f.WriteFile(outPath, []byte(stdout))
			f.WriteFile(errPath, []byte(stderr))
		}
		return agenttest.StartResult{}
	}
}

func TestGetProcessOutputRoundTrip(t *testing.T) {
	ctx := context.Background()
	fake, m, _ := newTestManager(t)
	fake.StartHook = shellStartHook("hello\n", "warning\n")

	pid, err := m.ExecuteCommand(ctx, "echo hello", ExecOptions{SaveOutput: true})
	require.NoError(t, err)

	code, err := m.GetProcessExitCode(ctx, pid, time.Minute)
	require.NoError(t, err)
	require.Equal(t, 0, code)

	output, err := m.GetProcessOutput(ctx, pid)
	require.NoError(t, err)
	require.Equal(t, "hello\n", string(output.Stdout))
	require.Equal(t, "warning\n", string(output.Stderr))

	// capture directory was created under the guest temp path
	require.NotNil(t, fake.FS["/tmp/guestops-output"])
}

func TestExecuteCommandLaunchesCaptureCleanup(t *testing.T) {
	ctx := context.Background()
	fake, m, _ := newTestManager(t)
	fake.StartHook = shellStartHook("", "")

	pid, err := m.ExecuteCommand(ctx, "true", ExecOptions{SaveOutput: true})
	require.NoError(t, err)

	var cleanups int
	for p, status := range fake.Procs {
		if p != pid && strings.Contains(status.CmdLine, "-mtime +1 -delete") {
			cleanups++
		}
	}
	require.Equal(t, 1, cleanups)
}

func TestGetProcessOutputWithoutCapture(t *testing.T) {
	ctx := context.Background()
	_, m, _ := newTestManager(t)

	pid, err := m.ExecuteCommand(ctx, "echo hi", ExecOptions{})
	require.NoError(t, err)

	_, err = m.GetProcessOutput(ctx, pid)
	require.ErrorIs(t, err, ErrOutputNotAvailable)
}

func TestGetProcessOutputCaptureFilesGone(t *testing.T) {
	ctx := context.Background()
	_, m, _ := newTestManager(t)
	// shell never materializes the capture files

	pid, err := m.ExecuteCommand(ctx, "echo hi", ExecOptions{SaveOutput: true})
	require.NoError(t, err)

	_, err = m.GetProcessOutput(ctx, pid)
	require.ErrorIs(t, err, ErrOutputNotAvailable)
}

func TestTempPathPosix(t *testing.T) {
	_, m, _ := newTestManager(t)
	tmp, err := m.TempPath(context.Background())
	require.NoError(t, err)
	require.Equal(t, "/tmp", tmp)
}

func TestTempPathWindows(t *testing.T) {
	ctx := context.Background()
	fake := agenttest.New()
	fake.Family = types.OSFamilyWindows
	fake.Env["TMP"] = `C:\Users\root\AppData\Local\Temp`
	guest := &types.Guest{ID: "g1", OSFamily: types.OSFamilyWindows}
	m := New(fake, guest, nil, fileops.New(fake, guest, nil), time.Second)

	tmp, err := m.TempPath(ctx)
	require.NoError(t, err)
	require.Equal(t, `C:\Users\root\AppData\Local\Temp`, tmp)

	// second lookup is served from the cache
	calls := len(fake.Ops)
	_, err = m.TempPath(ctx)
	require.NoError(t, err)
	require.Len(t, fake.Ops, calls)
}

func TestTempPathWindowsMissingTMP(t *testing.T) {
	fake := agenttest.New()
	fake.Family = types.OSFamilyWindows
	guest := &types.Guest{ID: "g1", OSFamily: types.OSFamilyWindows}
	m := New(fake, guest, nil, fileops.New(fake, guest, nil), time.Second)

	_, err := m.TempPath(context.Background())
	require.ErrorContains(t, err, "TMP")
}

func TestExecuteProgramCommunicationFailure(t *testing.T) {
	fake, m, _ := newTestManager(t)
	fake.ForcedErr = &agent.CommunicationError{Op: agent.OpStartProgram}

	_, err := m.ExecuteProgram(context.Background(), types.ExecSpec{ProgramPath: "/bin/true"})
	var commErr *agent.CommunicationError
	require.ErrorAs(t, err, &commErr)
}

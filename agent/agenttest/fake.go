// Package agenttest provides an in-memory fake guest — filesystem plus
// process table — implementing agent.Client, so operation packages can be
// tested without a hypervisor or a live guest.
package agenttest

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/projecteru2/guestops/agent"
	"github.com/projecteru2/guestops/types"
	"github.com/projecteru2/guestops/utils"
)

// Entry is one node of the fake guest filesystem.
type Entry struct {
	Dir  bool
	Data []byte
}

// StartResult tells the fake what to do with a launched program.
type StartResult struct {
	// ExitCode recorded for the process once it stops.
	ExitCode int
	// Running leaves the process running; tests stop it later with Finish.
	Running bool
}

// Fake simulates one guest behind the agent call contract. Not safe for
// concurrent use — production serializes agent calls per guest, and tests
// drive the fake from one goroutine.
//
// All mutable state is exported so tests can seed filesystems, script
// launches (StartHook may mutate FS directly), and inspect effects.
type Fake struct {
	Family types.OSFamily
	FS     map[string]*Entry
	Env    map[string]string

	Procs   map[int]*types.ProcessStatus
	nextPID int

	// StartHook observes every program launch and decides its outcome.
	// Nil means: every process finishes immediately with exit code 0.
	StartHook func(f *Fake, spec types.ExecSpec) StartResult

	// ExpectedAuth, when set, fails calls carrying other credentials.
	ExpectedAuth *types.Auth
	// ForcedErr, when set, fails every call with it.
	ForcedErr error

	// Ops records every operation in call order.
	Ops []agent.Op
}

// New creates a fake POSIX guest with an empty filesystem.
func New() *Fake {
	return &Fake{
		Family:  types.OSFamilyPosix,
		FS:      map[string]*Entry{"/": {Dir: true}, "/tmp": {Dir: true}},
		Env:     map[string]string{},
		Procs:   map[int]*types.ProcessStatus{},
		nextPID: 1000,
	}
}

// compile-time interface check.
var _ agent.Client = (*Fake)(nil)

// Call dispatches one fake agent operation.
func (f *Fake) Call(_ context.Context, _ *types.Guest, auth *types.Auth, op agent.Op, args, result any) error {
	f.Ops = append(f.Ops, op)
	if f.ForcedErr != nil {
		return f.ForcedErr
	}
	if f.ExpectedAuth != nil {
		if auth == nil || auth.Username != f.ExpectedAuth.Username || auth.Password != f.ExpectedAuth.Password {
			return &agent.AuthenticationError{Username: username(auth)}
		}
	}

	switch op {
	case agent.OpMakeDirectory:
		return f.mkdir(args.(*agent.MakeDirectoryArgs).Path)
	case agent.OpDeleteDirectory:
		return f.rmdir(args.(*agent.DeleteDirectoryArgs).Path)
	case agent.OpDeleteFile:
		return f.rm(args.(*agent.DeleteFileArgs).Path)
	case agent.OpListFiles:
		return f.list(args.(*agent.ListFilesArgs).Path, result.(*agent.ListFilesResult))
	case agent.OpReadFile:
		return f.read(args.(*agent.ReadFileArgs).Path, result.(*agent.ReadFileResult))
	case agent.OpReadEnvironment:
		return f.readEnv(args.(*agent.ReadEnvironmentArgs).Names, result.(*agent.ReadEnvironmentResult))
	case agent.OpStartProgram:
		return f.start(args.(*agent.StartProgramArgs).ExecSpec, result.(*agent.StartProgramResult))
	case agent.OpListProcesses:
		return f.listProcs(args.(*agent.ListProcessesArgs).PIDs, result.(*agent.ListProcessesResult))
	default:
		return &agent.CommunicationError{Op: op, Err: fmt.Errorf("unknown operation")}
	}
}

// Finish stops a running fake process with the given exit code.
func (f *Fake) Finish(pid, exitCode int) {
	if p, ok := f.Procs[pid]; ok {
		now := time.Now()
		p.Running = false
		p.ExitCode = &exitCode
		p.EndTime = &now
	}
}

// Reap drops a process record entirely, simulating the guest reaping it.
func (f *Fake) Reap(pid int) {
	delete(f.Procs, pid)
}

// WriteFile seeds (or overwrites) a file in the fake filesystem.
func (f *Fake) WriteFile(path string, data []byte) {
	f.FS[path] = &Entry{Data: data}
}

// MkdirAll seeds a directory chain without parent checks.
func (f *Fake) MkdirAll(path string) {
	for _, p := range utils.Ancestors(f.Family, path) {
		if f.FS[p] == nil {
			f.FS[p] = &Entry{Dir: true}
		}
	}
}

func (f *Fake) mkdir(path string) error {
	if f.FS[path] != nil {
		return agent.ErrAlreadyExists
	}
	if parent := utils.ParentDir(path); parent != "" && parent != "/" {
		e := f.FS[parent]
		if e == nil || !e.Dir {
			return agent.ErrPathNotFound
		}
	}
	f.FS[path] = &Entry{Dir: true}
	return nil
}

func (f *Fake) rmdir(path string) error {
	e := f.FS[path]
	if e == nil {
		return agent.ErrPathNotFound
	}
	if !e.Dir {
		return agent.ErrPathNotFound
	}
	if len(f.children(path)) > 0 {
		return agent.ErrDirectoryNotEmpty
	}
	delete(f.FS, path)
	return nil
}

func (f *Fake) rm(path string) error {
	e := f.FS[path]
	if e == nil || e.Dir {
		return agent.ErrPathNotFound
	}
	delete(f.FS, path)
	return nil
}

func (f *Fake) list(path string, result *agent.ListFilesResult) error {
	e := f.FS[path]
	if e == nil {
		return agent.ErrPathNotFound
	}
	if !e.Dir {
		result.Files = []*types.FileAttributes{f.attrs(path, e)}
		return nil
	}
	for _, child := range f.children(path) {
		result.Files = append(result.Files, f.attrs(child, f.FS[child]))
	}
	return nil
}

func (f *Fake) read(path string, result *agent.ReadFileResult) error {
	e := f.FS[path]
	if e == nil || e.Dir {
		return agent.ErrPathNotFound
	}
	result.Data = append([]byte(nil), e.Data...)
	return nil
}

func (f *Fake) readEnv(names []string, result *agent.ReadEnvironmentResult) error {
	result.Values = map[string]string{}
	for _, n := range names {
		if v, ok := f.Env[n]; ok {
			result.Values[n] = v
		}
	}
	return nil
}

func (f *Fake) start(spec types.ExecSpec, result *agent.StartProgramResult) error {
	f.nextPID++
	pid := f.nextPID
	now := time.Now()
	status := &types.ProcessStatus{
		PID:       pid,
		Name:      utils.BaseName(spec.ProgramPath),
		CmdLine:   strings.TrimSpace(spec.ProgramPath + " " + spec.Arguments),
		Running:   true,
		StartTime: &now,
	}
	f.Procs[pid] = status

	outcome := StartResult{}
	if f.StartHook != nil {
		outcome = f.StartHook(f, spec)
	}
	if !outcome.Running {
		end := time.Now()
		code := outcome.ExitCode
		status.Running = false
		status.ExitCode = &code
		status.EndTime = &end
	}
	result.PID = pid
	return nil
}

func (f *Fake) listProcs(pids []int, result *agent.ListProcessesResult) error {
	want := map[int]bool{}
	for _, pid := range pids {
		want[pid] = true
	}
	var matched []int
	for pid := range f.Procs {
		if len(pids) == 0 || want[pid] {
			matched = append(matched, pid)
		}
	}
	sort.Ints(matched)
	for _, pid := range matched {
		copied := *f.Procs[pid]
		result.Processes = append(result.Processes, &copied)
	}
	return nil
}

func (f *Fake) children(dir string) []string {
	var out []string
	for p := range f.FS {
		if p != dir && utils.ParentDir(p) == dir {
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out
}

func (f *Fake) attrs(path string, e *Entry) *types.FileAttributes {
	kind := types.FileKindFile
	if e.Dir {
		kind = types.FileKindDirectory
	}
	now := time.Now()
	return &types.FileAttributes{
		Path:    path,
		Kind:    kind,
		Size:    int64(len(e.Data)),
		ModTime: &now,
	}
}

func username(auth *types.Auth) string {
	if auth == nil {
		return ""
	}
	return auth.Username
}

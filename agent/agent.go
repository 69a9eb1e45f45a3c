// Package agent defines the guest-tools RPC contract: one synchronous call
// primitive, parameterized by operation name, returning a structured payload
// or a typed fault. The hypervisor integration layer provides the transport;
// this package ships the HTTP-over-unix-socket implementation it exposes.
package agent

import (
	"context"

	"github.com/projecteru2/guestops/types"
)

// Op names one guest-agent operation. The set is fixed by the agent
// protocol; higher layers compose everything else out of these.
type Op string

const (
	OpStartProgram    Op = "process.start"
	OpListProcesses   Op = "process.list"
	OpReadEnvironment Op = "env.read"
	OpMakeDirectory   Op = "file.mkdir"
	OpDeleteDirectory Op = "file.rmdir"
	OpDeleteFile      Op = "file.rm"
	OpListFiles       Op = "file.list"
	OpReadFile        Op = "file.read"
)

// Client executes one agent operation against one guest and decodes the
// result into result (which must be a pointer, or nil for ops without a
// payload). Implementations return faults from this package: sentinel
// filesystem faults, *AuthenticationError, or *CommunicationError.
//
// The guest-tools channel is not documented to be safe for concurrent
// calls; wrap a Client with NewSerialized to serialize per guest handle.
type Client interface {
	Call(ctx context.Context, guest *types.Guest, auth *types.Auth, op Op, args, result any) error
}

// StartProgramArgs launches a program inside the guest.
type StartProgramArgs struct {
	types.ExecSpec
}

// StartProgramResult reports the PID assigned by the guest OS.
type StartProgramResult struct {
	PID int `json:"pid"`
}

// ListProcessesArgs filters the guest process table. An empty PIDs slice
// returns every process the agent can see.
type ListProcessesArgs struct {
	PIDs []int `json:"pids,omitempty"`
}

type ListProcessesResult struct {
	Processes []*types.ProcessStatus `json:"processes"`
}

// ReadEnvironmentArgs reads environment variables of the guest session user.
type ReadEnvironmentArgs struct {
	Names []string `json:"names"`
}

type ReadEnvironmentResult struct {
	Values map[string]string `json:"values"`
}

// MakeDirectoryArgs creates a single directory. The agent primitive does not
// create parents; missing intermediate segments fault with ErrPathNotFound.
type MakeDirectoryArgs struct {
	Path string `json:"path"`
}

// DeleteDirectoryArgs removes a single empty directory. A non-empty
// directory faults with ErrDirectoryNotEmpty.
type DeleteDirectoryArgs struct {
	Path string `json:"path"`
}

type DeleteFileArgs struct {
	Path string `json:"path"`
}

// ListFilesArgs lists a directory, or stats a single file when Path names
// one. The full listing is materialized in one response; no paging.
type ListFilesArgs struct {
	Path string `json:"path"`
}

type ListFilesResult struct {
	Files []*types.FileAttributes `json:"files"`
}

// ReadFileArgs reads a whole guest file. Used only for the small capture
// files written by output-saving launches, never for bulk transfer.
type ReadFileArgs struct {
	Path string `json:"path"`
}

type ReadFileResult struct {
	Data []byte `json:"data"`
}

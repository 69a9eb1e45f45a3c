// Package tools aggregates every guest operation behind one facade bound
// to a single guest handle, so callers get one discoverable entry point
// instead of loose methods scattered across sub-components. Pure dispatch:
// no state or failure modes of its own.
package tools

import (
	"context"
	"time"

	"github.com/projecteru2/guestops/agent"
	"github.com/projecteru2/guestops/archive"
	"github.com/projecteru2/guestops/config"
	"github.com/projecteru2/guestops/fileops"
	flocklock "github.com/projecteru2/guestops/lock/flock"
	"github.com/projecteru2/guestops/process"
	"github.com/projecteru2/guestops/types"
)

// Tools is the per-guest operation surface. All operations run against the
// guest and credentials bound at construction.
type Tools struct {
	guest *types.Guest

	files *fileops.FileOps
	proc  *process.Manager
	arch  *archive.Ops

	defaultExitCodeTimeout time.Duration
}

// New builds the facade for one guest. Agent calls are serialized per guest
// handle via a flock under the run dir, since the guest-tools channel does
// not support concurrent in-flight operations.
func New(conf *config.Config, client agent.Client, guest *types.Guest, auth *types.Auth) *Tools {
	serialized := agent.NewSerialized(client, flocklock.New(conf.GuestLockPath(guest.ID)))

	files := fileops.New(serialized, guest, auth)
	proc := process.New(serialized, guest, auth, files, conf.PollInterval())
	arch := archive.New(proc, files, guest, conf.ArchiveTimeout())

	return &Tools{
		guest:                  guest,
		files:                  files,
		proc:                   proc,
		arch:                   arch,
		defaultExitCodeTimeout: conf.ExitCodeTimeout(),
	}
}

// Guest returns the bound guest handle.
func (t *Tools) Guest() *types.Guest { return t.guest }

// File operations.

func (t *Tools) CreateDirectory(ctx context.Context, path string, createParents bool) error {
	return t.files.CreateDirectory(ctx, path, createParents)
}

func (t *Tools) DeleteDirectory(ctx context.Context, path string, recursive bool) error {
	return t.files.DeleteDirectory(ctx, path, recursive)
}

func (t *Tools) DeleteFile(ctx context.Context, path string) error {
	return t.files.DeleteFile(ctx, path)
}

func (t *Tools) FileExists(ctx context.Context, path string) (bool, error) {
	return t.files.FileExists(ctx, path)
}

func (t *Tools) GetFileAttributes(ctx context.Context, path string) (*types.FileAttributes, error) {
	return t.files.GetFileAttributes(ctx, path)
}

func (t *Tools) ListPath(ctx context.Context, path string) ([]*types.FileAttributes, error) {
	return t.files.ListPath(ctx, path)
}

func (t *Tools) ReadFile(ctx context.Context, path string) ([]byte, error) {
	return t.files.ReadFile(ctx, path)
}

// Process operations.

func (t *Tools) ExecuteCommand(ctx context.Context, command string, opts process.ExecOptions) (int, error) {
	return t.proc.ExecuteCommand(ctx, command, opts)
}

func (t *Tools) ExecuteProgram(ctx context.Context, spec types.ExecSpec) (int, error) {
	return t.proc.ExecuteProgram(ctx, spec)
}

func (t *Tools) GetProcessInfo(ctx context.Context, pid int) (*types.ProcessStatus, error) {
	return t.proc.GetProcessInfo(ctx, pid)
}

// GetProcessExitCode waits for a process to stop and returns its exit code.
// A non-positive timeout falls back to the configured default.
func (t *Tools) GetProcessExitCode(ctx context.Context, pid int, timeout time.Duration) (int, error) {
	if timeout <= 0 {
		timeout = t.defaultExitCodeTimeout
	}
	return t.proc.GetProcessExitCode(ctx, pid, timeout)
}

func (t *Tools) GetProcessOutput(ctx context.Context, pid int) (*types.ProcessOutput, error) {
	return t.proc.GetProcessOutput(ctx, pid)
}

// Archive operations.

func (t *Tools) Archive(ctx context.Context, req types.ArchiveRequest) (string, error) {
	return t.arch.Archive(ctx, req)
}

func (t *Tools) ExtractArchive(ctx context.Context, archivePath, extractPath, password string) error {
	return t.arch.ExtractArchive(ctx, archivePath, extractPath, password)
}

func (t *Tools) ExtractArchiveIntoOneFile(ctx context.Context, archivePath, targetPath, password string) error {
	return t.arch.ExtractArchiveIntoOneFile(ctx, archivePath, targetPath, password)
}

// Package fileops implements guest filesystem primitives and the composite
// behaviors layered on them: parent-creating mkdir and recursive delete.
// Composites are not transactional — a mid-walk failure leaves whatever the
// already-issued primitive calls produced.
package fileops

import (
	"context"
	"errors"
	"fmt"

	"github.com/projecteru2/core/log"

	"github.com/projecteru2/guestops/agent"
	"github.com/projecteru2/guestops/types"
	"github.com/projecteru2/guestops/utils"
)

// FileOps executes file and directory operations inside one guest.
type FileOps struct {
	client agent.Client
	guest  *types.Guest
	auth   *types.Auth
}

// New binds FileOps to a guest handle and credentials.
func New(client agent.Client, guest *types.Guest, auth *types.Auth) *FileOps {
	return &FileOps{client: client, guest: guest, auth: auth}
}

// CreateDirectory creates a directory. Without createParents a missing
// intermediate segment surfaces as agent.ErrPathNotFound. With it, every
// missing ancestor is created root-to-leaf; ancestors that already exist
// are tolerated, any other failure aborts immediately (directories already
// created remain).
func (f *FileOps) CreateDirectory(ctx context.Context, path string, createParents bool) error {
	if !createParents {
		return f.mkdir(ctx, path, false)
	}
	for _, ancestor := range utils.Ancestors(f.guest.OSFamily, path) {
		if err := f.mkdir(ctx, ancestor, true); err != nil {
			return err
		}
	}
	return nil
}

func (f *FileOps) mkdir(ctx context.Context, path string, tolerateExists bool) error {
	err := f.client.Call(ctx, f.guest, f.auth, agent.OpMakeDirectory, &agent.MakeDirectoryArgs{Path: path}, nil)
	if err != nil {
		if tolerateExists && errors.Is(err, agent.ErrAlreadyExists) {
			return nil
		}
		return fmt.Errorf("create directory %s: %w", path, err)
	}
	return nil
}

// DeleteDirectory removes a directory. Without recursive the agent call
// fails with agent.ErrDirectoryNotEmpty when contents exist. With it, the
// contents are listed and deleted depth-first before the directory itself.
func (f *FileOps) DeleteDirectory(ctx context.Context, path string, recursive bool) error {
	if recursive {
		entries, err := f.ListPath(ctx, path)
		if err != nil {
			return err
		}
		logger := log.WithFunc("fileops.DeleteDirectory")
		for _, entry := range entries {
			if entry.IsDir() {
				if err := f.DeleteDirectory(ctx, entry.Path, true); err != nil {
					return err
				}
			} else {
				if err := f.DeleteFile(ctx, entry.Path); err != nil {
					return err
				}
			}
			logger.Infof(ctx, "removed: %s", entry.Path)
		}
	}
	err := f.client.Call(ctx, f.guest, f.auth, agent.OpDeleteDirectory, &agent.DeleteDirectoryArgs{Path: path}, nil)
	if err != nil {
		return fmt.Errorf("delete directory %s: %w", path, err)
	}
	return nil
}

// DeleteFile removes a single file.
func (f *FileOps) DeleteFile(ctx context.Context, path string) error {
	err := f.client.Call(ctx, f.guest, f.auth, agent.OpDeleteFile, &agent.DeleteFileArgs{Path: path}, nil)
	if err != nil {
		return fmt.Errorf("delete file %s: %w", path, err)
	}
	return nil
}

// FileExists reports whether path exists in the guest. A not-found fault is
// answered as false, never as an error; genuine communication, permission,
// or authentication failures still surface.
func (f *FileOps) FileExists(ctx context.Context, path string) (bool, error) {
	var result agent.ListFilesResult
	err := f.client.Call(ctx, f.guest, f.auth, agent.OpListFiles, &agent.ListFilesArgs{Path: path}, &result)
	if err != nil {
		if errors.Is(err, agent.ErrPathNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("check %s: %w", path, err)
	}
	return true, nil
}

// GetFileAttributes retrieves the attribute snapshot of one file or
// directory. Listing a file yields the file itself, but listing a directory
// yields its children, so directories are resolved through their parent's
// listing instead.
func (f *FileOps) GetFileAttributes(ctx context.Context, path string) (*types.FileAttributes, error) {
	var result agent.ListFilesResult
	err := f.client.Call(ctx, f.guest, f.auth, agent.OpListFiles, &agent.ListFilesArgs{Path: path}, &result)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if len(result.Files) == 1 && result.Files[0].Path == path {
		return result.Files[0], nil
	}

	parent := utils.ParentDir(path)
	if parent == "" || parent == path {
		// volume root, nothing to cross-check against
		return &types.FileAttributes{Path: path, Kind: types.FileKindDirectory}, nil
	}
	siblings, err := f.ListPath(ctx, parent)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	for _, entry := range siblings {
		if entry.Path == path {
			return entry, nil
		}
	}
	return &types.FileAttributes{Path: path, Kind: types.FileKindDirectory}, nil
}

// ListPath lists the contents of a directory. The listing is materialized
// in one agent response; there is no paging to resume.
func (f *FileOps) ListPath(ctx context.Context, path string) ([]*types.FileAttributes, error) {
	var result agent.ListFilesResult
	err := f.client.Call(ctx, f.guest, f.auth, agent.OpListFiles, &agent.ListFilesArgs{Path: path}, &result)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", path, err)
	}
	return result.Files, nil
}

// ReadFile returns the full contents of a guest file. Used internally for
// the capture files written by output-saving launches.
func (f *FileOps) ReadFile(ctx context.Context, path string) ([]byte, error) {
	var result agent.ReadFileResult
	err := f.client.Call(ctx, f.guest, f.auth, agent.OpReadFile, &agent.ReadFileArgs{Path: path}, &result)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return result.Data, nil
}

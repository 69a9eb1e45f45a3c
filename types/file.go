package types

import "time"

// FileKind discriminates directory entries reported by the guest.
type FileKind string

const (
	FileKindFile      FileKind = "file"
	FileKindDirectory FileKind = "directory"
	FileKindSymlink   FileKind = "symlink"
)

// FileAttributes is a read-only snapshot of one guest filesystem entry as
// reported by the agent. It has no identity beyond the path that produced it.
type FileAttributes struct {
	Path string   `json:"path"`
	Kind FileKind `json:"kind"`
	Size int64    `json:"size"`

	ModTime *time.Time `json:"mod_time,omitempty"`

	// Owner/permission bits, present only when the guest reports them.
	Owner       string `json:"owner,omitempty"`
	Group       string `json:"group,omitempty"`
	Permissions string `json:"permissions,omitempty"`
}

// IsDir reports whether the entry is a directory.
func (a *FileAttributes) IsDir() bool { return a.Kind == FileKindDirectory }

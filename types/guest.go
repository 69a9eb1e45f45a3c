package types

import "time"

// OSFamily identifies the guest operating system family, which selects the
// command interpreter and path conventions for in-guest operations.
type OSFamily string

const (
	OSFamilyPosix   OSFamily = "posix"   // /bin/sh, forward-slash paths
	OSFamilyWindows OSFamily = "windows" // cmd.exe, backslash paths
)

// Valid reports whether f is a known OS family.
func (f OSFamily) Valid() bool {
	return f == OSFamilyPosix || f == OSFamilyWindows
}

// Guest is the handle for a registered VM reachable over the guest-tools
// channel. PIDs and paths obtained through this handle are meaningful only
// in combination with this specific guest instance.
type Guest struct {
	ID   string `json:"id"`
	Name string `json:"name"`

	// SocketPath is the hypervisor-provided guest-channel Unix socket.
	SocketPath string `json:"socket_path"`
	// OSFamily selects shell and path conventions inside the guest.
	OSFamily OSFamily `json:"os_family"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Auth carries guest credentials for agent calls. Credential lifecycle
// (issuing, refreshing) is the caller's responsibility; a stale session
// surfaces as an authentication fault on the next call.
type Auth struct {
	Username string `json:"username"`
	Password string `json:"-"`
}

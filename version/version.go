// Package version carries build metadata injected at link time.
package version

import (
	"fmt"
	"runtime"
)

var (
	// Version is the release tag, set via -ldflags.
	Version = "unknown"
	// Revision is the git commit, set via -ldflags.
	Revision = "unknown"
	// BuiltAt is the build timestamp, set via -ldflags.
	BuiltAt = "unknown"
)

// String renders the full version report.
func String() string {
	return fmt.Sprintf("Guestops %s\nGit revision: %s\nBuilt: %s\nGo version: %s\nOS/Arch: %s/%s\n",
		Version, Revision, BuiltAt, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

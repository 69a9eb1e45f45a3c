package process

import (
	"fmt"
	"regexp"

	"github.com/projecteru2/guestops/types"
	"github.com/projecteru2/guestops/utils"
)

const (
	// captureDirName is the directory under the guest temp path where
	// output-saving launches write their capture files.
	captureDirName = "guestops-output"

	stdoutSuffix = ".out"
	stderrSuffix = ".err"
)

// interpreter returns the guest command interpreter for the OS family.
func interpreter(f types.OSFamily) string {
	if f == types.OSFamilyWindows {
		return `C:\Windows\System32\cmd.exe`
	}
	return "/bin/sh"
}

// shellArguments wraps a composed command line into the interpreter's
// argument string. POSIX shells need the command as a single word; cmd.exe
// takes the rest of the line after /c verbatim.
func shellArguments(f types.OSFamily, commandLine string) string {
	if f == types.OSFamilyWindows {
		return "/c " + commandLine
	}
	return "-c '" + commandLine + "'"
}

// withCapture appends the output redirections for token to a command line.
// Stdout and stderr each get their own file so the two streams can be
// returned separately.
func withCapture(f types.OSFamily, commandLine, captureDir, token string) string {
	base := utils.JoinGuest(f, captureDir, token)
	return fmt.Sprintf("%s > %s%s 2> %s%s", commandLine, base, stdoutSuffix, base, stderrSuffix)
}

// cleanupCommandLine composes the guest command that removes capture files
// older than one day. Launched alongside every output-saving exec so stale
// captures never pile up in the guest temp path.
func cleanupCommandLine(f types.OSFamily, captureDir string) string {
	if f == types.OSFamilyWindows {
		return fmt.Sprintf(`ForFiles /p "%s" /s /d -1 /c "cmd /c del @file"`, captureDir)
	}
	return fmt.Sprintf("find %s -type f -mtime +1 -delete", captureDir)
}

var (
	stdoutPattern = regexp.MustCompile(`>\s?(\S+\` + stdoutSuffix + `)`)
	stderrPattern = regexp.MustCompile(`2>\s?(\S+\` + stderrSuffix + `)`)
)

// capturePaths scrapes the redirection targets back out of a process
// record's command line. The command line is the only place the mapping
// survives — no host-side registry of launched processes is kept.
func capturePaths(cmdLine string) (stdoutPath, stderrPath string) {
	if m := stdoutPattern.FindStringSubmatch(cmdLine); m != nil {
		stdoutPath = m[1]
	}
	if m := stderrPattern.FindStringSubmatch(cmdLine); m != nil {
		stderrPath = m[1]
	}
	return stdoutPath, stderrPath
}

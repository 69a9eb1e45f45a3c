package archive

import (
	"fmt"
	"strings"

	"github.com/projecteru2/guestops/types"
	"github.com/projecteru2/guestops/utils"
)

// Guest-resident utilities. POSIX guests get separate zip/unzip/tar
// binaries; Windows guests get 7-Zip under one of several executable names.
const (
	posixZip   = "/usr/bin/zip"
	posixUnzip = "/usr/bin/unzip"
	posixTar   = "/usr/bin/tar"
)

// sevenZipNames are the 7-Zip executable names probed on Windows guests,
// in preference order.
var sevenZipNames = []string{"7za", "7z", "7zg"}

// typeFromPath derives the archive type from a path's extension.
func typeFromPath(path string) (types.ArchiveType, error) {
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".zip"):
		return types.ArchiveTypeZip, nil
	case strings.HasSuffix(lower, ".tar"):
		return types.ArchiveTypeTar, nil
	default:
		return "", fmt.Errorf("%q: %w", path, ErrUnsupportedType)
	}
}

// archiveSpec composes the guest invocation that adds sourcePath into
// archivePath. On POSIX the utility runs from the source's parent directory
// so archive members carry relative names; cmd.exe has no such convention
// and 7-Zip takes the full source path.
func archiveSpec(guest *types.Guest, sevenZip string, atype types.ArchiveType, sourcePath, archivePath, password string) (types.ExecSpec, error) {
	if guest.OSFamily == types.OSFamilyWindows {
		args := fmt.Sprintf("/c %s a -y -t%s %s %s", sevenZip, atype, archivePath, sourcePath)
		if password != "" {
			if atype != types.ArchiveTypeZip {
				return types.ExecSpec{}, fmt.Errorf("passwords require zip: %w", ErrUnsupportedType)
			}
			args += " -p" + password
		}
		return types.ExecSpec{ProgramPath: `C:\Windows\System32\cmd.exe`, Arguments: args}, nil
	}

	parent := utils.ParentDir(sourcePath)
	member := utils.BaseName(sourcePath)
	switch atype {
	case types.ArchiveTypeZip:
		args := fmt.Sprintf("-r %s %s", archivePath, member)
		if password != "" {
			args += " --password " + password
		}
		return types.ExecSpec{ProgramPath: posixZip, Arguments: args, WorkingDirectory: parent}, nil
	case types.ArchiveTypeTar:
		if password != "" {
			return types.ExecSpec{}, fmt.Errorf("passwords require zip: %w", ErrUnsupportedType)
		}
		args := fmt.Sprintf("-cf %s %s", archivePath, member)
		return types.ExecSpec{ProgramPath: posixTar, Arguments: args, WorkingDirectory: parent}, nil
	default:
		return types.ExecSpec{}, fmt.Errorf("%q: %w", atype, ErrUnsupportedType)
	}
}

// extractSpec composes the guest invocation that extracts archivePath into
// extractPath.
func extractSpec(guest *types.Guest, sevenZip string, atype types.ArchiveType, archivePath, extractPath, password string) (types.ExecSpec, error) {
	if guest.OSFamily == types.OSFamilyWindows {
		args := fmt.Sprintf("/c %s x %s -y -t%s -o%s", sevenZip, archivePath, atype, extractPath)
		if password != "" {
			args += " -p" + password
		}
		return types.ExecSpec{ProgramPath: `C:\Windows\System32\cmd.exe`, Arguments: args}, nil
	}

	switch atype {
	case types.ArchiveTypeZip:
		args := fmt.Sprintf("-o %s -d %s", archivePath, extractPath)
		if password != "" {
			args += " -P " + password
		}
		return types.ExecSpec{ProgramPath: posixUnzip, Arguments: args}, nil
	case types.ArchiveTypeTar:
		if password != "" {
			return types.ExecSpec{}, fmt.Errorf("passwords require zip: %w", ErrUnsupportedType)
		}
		args := fmt.Sprintf("-xf %s -C %s", archivePath, extractPath)
		return types.ExecSpec{ProgramPath: posixTar, Arguments: args}, nil
	default:
		return types.ExecSpec{}, fmt.Errorf("%q: %w", atype, ErrUnsupportedType)
	}
}

// concatCommandLine composes the guest command that concatenates the staged
// files into one target file, in listing order.
func concatCommandLine(f types.OSFamily, paths []string, targetPath string) string {
	if f == types.OSFamilyWindows {
		return fmt.Sprintf("copy /b %s %s", strings.Join(paths, "+"), targetPath)
	}
	return fmt.Sprintf("cat %s > %s", strings.Join(paths, " "), targetPath)
}

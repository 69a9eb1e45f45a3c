// Package archive creates and extracts archives inside a guest by driving
// its resident archiving utilities through the process layer. Every
// operation is launch-and-wait: start the utility, block on its exit code,
// translate non-zero into a typed failure.
package archive

import (
	"context"
	"fmt"
	"time"

	"github.com/projecteru2/core/log"

	"github.com/projecteru2/guestops/fileops"
	"github.com/projecteru2/guestops/process"
	"github.com/projecteru2/guestops/types"
	"github.com/projecteru2/guestops/utils"
)

// DefaultTimeout bounds one guest archive utility run. Archiving large
// trees legitimately takes minutes, so this is far above the exit-code
// default.
const DefaultTimeout = 10 * time.Minute

// Ops executes archive operations inside one guest.
type Ops struct {
	proc    *process.Manager
	files   *fileops.FileOps
	guest   *types.Guest
	timeout time.Duration

	// sevenZip is the probed 7-Zip executable name on Windows guests;
	// empty until the first successful EnsureUtility.
	sevenZip string
	probed   bool
}

// New binds archive operations to a guest handle.
func New(proc *process.Manager, files *fileops.FileOps, guest *types.Guest, timeout time.Duration) *Ops {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Ops{proc: proc, files: files, guest: guest, timeout: timeout}
}

// Archive packs req.SourcePath into an archive and returns the archive
// path. When req.ArchivePath is empty it defaults to the source path plus
// the format extension (zip unless req.Type says otherwise). Blocks until
// the guest utility exits; a non-zero exit fails with *OperationError.
func (o *Ops) Archive(ctx context.Context, req types.ArchiveRequest) (string, error) {
	atype := req.Type
	if atype == "" {
		atype = types.ArchiveTypeZip
	}
	archivePath := req.ArchivePath
	if archivePath == "" {
		archivePath = req.SourcePath + "." + string(atype)
	} else if req.Type == "" {
		derived, err := typeFromPath(archivePath)
		if err != nil {
			return "", err
		}
		atype = derived
	}

	if err := o.EnsureUtility(ctx); err != nil {
		return "", err
	}
	spec, err := archiveSpec(o.guest, o.sevenZip, atype, req.SourcePath, archivePath, req.Password)
	if err != nil {
		return "", err
	}
	if err := o.runAndWait(ctx, "archive", req.SourcePath, spec); err != nil {
		return "", err
	}
	log.WithFunc("archive.Archive").Infof(ctx, "archived %s into %s", req.SourcePath, archivePath)
	return archivePath, nil
}

// ExtractArchive unpacks archivePath into extractPath, defaulting to the
// archive's own directory when extractPath is empty.
func (o *Ops) ExtractArchive(ctx context.Context, archivePath, extractPath, password string) error {
	atype, err := typeFromPath(archivePath)
	if err != nil {
		return err
	}
	if extractPath == "" {
		extractPath = utils.ParentDir(archivePath)
	}

	if err := o.EnsureUtility(ctx); err != nil {
		return err
	}
	spec, err := extractSpec(o.guest, o.sevenZip, atype, archivePath, extractPath, password)
	if err != nil {
		return err
	}
	return o.runAndWait(ctx, "extract", archivePath, spec)
}

// ExtractArchiveIntoOneFile extracts archivePath into a staging directory
// under the guest temp path, then consolidates every staged file into
// targetPath with one concatenation pass. Missing staged outputs after a
// successful extraction, or a missing target afterwards, fail with
// *ConsolidationError. The staging directory is removed on success.
func (o *Ops) ExtractArchiveIntoOneFile(ctx context.Context, archivePath, targetPath, password string) error {
	tmp, err := o.proc.TempPath(ctx)
	if err != nil {
		return err
	}
	staging := utils.JoinGuest(o.guest.OSFamily, tmp, "guestops-extract-"+utils.BaseName(archivePath))
	if err := o.files.CreateDirectory(ctx, staging, true); err != nil {
		return err
	}

	if err := o.ExtractArchive(ctx, archivePath, staging, password); err != nil {
		return err
	}

	entries, err := o.files.ListPath(ctx, staging)
	if err != nil {
		return err
	}
	var staged []string
	for _, entry := range entries {
		if !entry.IsDir() {
			staged = append(staged, entry.Path)
		}
	}
	if len(staged) == 0 {
		return &ConsolidationError{
			ArchivePath: archivePath,
			TargetPath:  targetPath,
			Reason:      "extraction reported success but produced no files",
		}
	}

	pid, err := o.proc.ExecuteCommand(ctx, concatCommandLine(o.guest.OSFamily, staged, targetPath), process.ExecOptions{})
	if err != nil {
		return err
	}
	exitCode, err := o.proc.GetProcessExitCode(ctx, pid, o.timeout)
	if err != nil {
		return err
	}
	if exitCode != 0 {
		return &ConsolidationError{
			ArchivePath: archivePath,
			TargetPath:  targetPath,
			Reason:      fmt.Sprintf("concatenation exited with code %d", exitCode),
		}
	}

	exists, err := o.files.FileExists(ctx, targetPath)
	if err != nil {
		return err
	}
	if !exists {
		return &ConsolidationError{
			ArchivePath: archivePath,
			TargetPath:  targetPath,
			Reason:      "target file missing after consolidation",
		}
	}
	return o.files.DeleteDirectory(ctx, staging, true)
}

// EnsureUtility verifies the guest has the archive utilities this layer
// needs, probing once per Ops. POSIX guests must carry zip, unzip and tar;
// Windows guests must answer to one of the known 7-Zip executable names.
func (o *Ops) EnsureUtility(ctx context.Context) error {
	if o.probed {
		return nil
	}

	if o.guest.OSFamily == types.OSFamilyWindows {
		for _, name := range sevenZipNames {
			pid, err := o.proc.ExecuteCommand(ctx, name, process.ExecOptions{})
			if err != nil {
				return err
			}
			exitCode, err := o.proc.GetProcessExitCode(ctx, pid, o.timeout)
			if err != nil {
				return err
			}
			if exitCode == 0 {
				o.sevenZip = name
				o.probed = true
				return nil
			}
		}
		return &EnvironmentError{Guest: o.guest.ID, Missing: "7-Zip"}
	}

	for _, bin := range []string{posixZip, posixUnzip, posixTar} {
		exists, err := o.files.FileExists(ctx, bin)
		if err != nil {
			return err
		}
		if !exists {
			return &EnvironmentError{Guest: o.guest.ID, Missing: bin}
		}
	}
	o.probed = true
	return nil
}

// runAndWait launches a utility invocation and blocks on its exit code.
func (o *Ops) runAndWait(ctx context.Context, action, path string, spec types.ExecSpec) error {
	pid, err := o.proc.ExecuteProgram(ctx, spec)
	if err != nil {
		return err
	}
	exitCode, err := o.proc.GetProcessExitCode(ctx, pid, o.timeout)
	if err != nil {
		return err
	}
	if exitCode != 0 {
		return &OperationError{Action: action, Path: path, ExitCode: exitCode}
	}
	return nil
}

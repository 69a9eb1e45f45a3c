package archive

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/projecteru2/guestops/agent/agenttest"
	"github.com/projecteru2/guestops/fileops"
	"github.com/projecteru2/guestops/process"
	"github.com/projecteru2/guestops/types"
)

func newTestOps(t *testing.T, family types.OSFamily) (*agenttest.Fake, *Ops) {
	t.Helper()
	fake := agenttest.New()
	fake.Family = family
	guest := &types.Guest{ID: "g1", OSFamily: family}
	auth := &types.Auth{Username: "root", Password: "pw"}
	files := fileops.New(fake, guest, auth)
	proc := process.New(fake, guest, auth, files, time.Second)
	return fake, New(proc, files, guest, time.Minute)
}

func seedPosixUtilities(fake *agenttest.Fake) {
	fake.MkdirAll("/usr/bin")
	for _, bin := range []string{posixZip, posixUnzip, posixTar} {
		fake.WriteFile(bin, nil)
	}
}

// guestShellHook emulates the guest-side effects of the utilities this layer
// drives: zip/tar create the archive file, unzip populates the extraction
// directory, and a shell cat concatenates staged files into the target.
func guestShellHook(extracted map[string]string) func(*agenttest.Fake, types.ExecSpec) agenttest.StartResult {
	return func(f *agenttest.Fake, spec types.ExecSpec) agenttest.StartResult {
		fields := strings.Fields(spec.Arguments)
		switch spec.ProgramPath {
		case posixZip:
			f.WriteFile(fields[1], []byte("zipdata")) // zip -r <archive> <member>
		case posixTar:
			f.WriteFile(fields[1], []byte("tardata")) // tar -cf <archive> <member>
		case posixUnzip:
			dir := fields[len(fields)-1] // unzip -o <archive> -d <dir>
			for name, content := range extracted {
				f.WriteFile(dir+"/"+name, []byte(content))
			}
		case "/bin/sh":
			inner := strings.Trim(strings.TrimPrefix(spec.Arguments, "-c "), "'")
			if sources, target, ok := strings.Cut(inner, " > "); ok && strings.HasPrefix(sources, "cat ") {
				var combined []byte
				for _, p := range strings.Fields(strings.TrimPrefix(sources, "cat ")) {
					combined = append(combined, f.FS[p].Data...)
				}
				f.WriteFile(target, combined)
			}
		}
		return agenttest.StartResult{}
	}
}

func TestTypeFromPath(t *testing.T) {
	atype, err := typeFromPath("/data/a.zip")
	require.NoError(t, err)
	require.Equal(t, types.ArchiveTypeZip, atype)

	atype, err = typeFromPath(`C:\Temp\A.TAR`)
	require.NoError(t, err)
	require.Equal(t, types.ArchiveTypeTar, atype)

	_, err = typeFromPath("/data/a.rar")
	require.ErrorIs(t, err, ErrUnsupportedType)
}

func TestArchiveSpecComposition(t *testing.T) {
	posix := &types.Guest{ID: "g1", OSFamily: types.OSFamilyPosix}
	windows := &types.Guest{ID: "g2", OSFamily: types.OSFamilyWindows}

	spec, err := archiveSpec(posix, "", types.ArchiveTypeZip, "/data/app", "/data/app.zip", "s3cret")
	require.NoError(t, err)
	require.Equal(t, posixZip, spec.ProgramPath)
	require.Equal(t, "-r /data/app.zip app --password s3cret", spec.Arguments)
	require.Equal(t, "/data", spec.WorkingDirectory)

	spec, err = archiveSpec(posix, "", types.ArchiveTypeTar, "/data/app", "/data/app.tar", "")
	require.NoError(t, err)
	require.Equal(t, posixTar, spec.ProgramPath)
	require.Equal(t, "-cf /data/app.tar app", spec.Arguments)

	// passwords are a zip-only feature
	_, err = archiveSpec(posix, "", types.ArchiveTypeTar, "/data/app", "/data/app.tar", "s3cret")
	require.ErrorIs(t, err, ErrUnsupportedType)

	spec, err = archiveSpec(windows, "7z", types.ArchiveTypeZip, `C:\data`, `C:\data.zip`, "")
	require.NoError(t, err)
	require.Equal(t, `C:\Windows\System32\cmd.exe`, spec.ProgramPath)
	require.Equal(t, `/c 7z a -y -tzip C:\data.zip C:\data`, spec.Arguments)
}

func TestExtractSpecComposition(t *testing.T) {
	posix := &types.Guest{ID: "g1", OSFamily: types.OSFamilyPosix}

	spec, err := extractSpec(posix, "", types.ArchiveTypeZip, "/data/a.zip", "/work", "pw")
	require.NoError(t, err)
	require.Equal(t, posixUnzip, spec.ProgramPath)
	require.Equal(t, "-o /data/a.zip -d /work -P pw", spec.Arguments)

	spec, err = extractSpec(posix, "", types.ArchiveTypeTar, "/data/a.tar", "/work", "")
	require.NoError(t, err)
	require.Equal(t, "-xf /data/a.tar -C /work", spec.Arguments)
}

func TestConcatCommandLine(t *testing.T) {
	require.Equal(t, "cat /s/a /s/b > /out",
		concatCommandLine(types.OSFamilyPosix, []string{"/s/a", "/s/b"}, "/out"))
	require.Equal(t, `copy /b C:\s\a+C:\s\b C:\out`,
		concatCommandLine(types.OSFamilyWindows, []string{`C:\s\a`, `C:\s\b`}, `C:\out`))
}

func TestArchiveDefaultsToZipBesideSource(t *testing.T) {
	ctx := context.Background()
	fake, ops := newTestOps(t, types.OSFamilyPosix)
	seedPosixUtilities(fake)
	fake.MkdirAll("/data/app")
	fake.StartHook = guestShellHook(nil)

	archivePath, err := ops.Archive(ctx, types.ArchiveRequest{SourcePath: "/data/app"})
	require.NoError(t, err)
	require.Equal(t, "/data/app.zip", archivePath)
	require.NotNil(t, fake.FS["/data/app.zip"])
}

func TestArchiveTypeFromExplicitPath(t *testing.T) {
	ctx := context.Background()
	fake, ops := newTestOps(t, types.OSFamilyPosix)
	seedPosixUtilities(fake)
	fake.MkdirAll("/data/app")
	fake.StartHook = guestShellHook(nil)

	archivePath, err := ops.Archive(ctx, types.ArchiveRequest{SourcePath: "/data/app", ArchivePath: "/backup/app.tar"})
	require.NoError(t, err)
	require.Equal(t, "/backup/app.tar", archivePath)
	require.Equal(t, []byte("tardata"), fake.FS["/backup/app.tar"].Data)

	_, err = ops.Archive(ctx, types.ArchiveRequest{SourcePath: "/data/app", ArchivePath: "/backup/app.rar"})
	require.ErrorIs(t, err, ErrUnsupportedType)
}

func TestArchiveUtilityFailure(t *testing.T) {
	ctx := context.Background()
	fake, ops := newTestOps(t, types.OSFamilyPosix)
	seedPosixUtilities(fake)
	fake.StartHook = func(*agenttest.Fake, types.ExecSpec) agenttest.StartResult {
		return agenttest.StartResult{ExitCode: 12}
	}

	_, err := ops.Archive(ctx, types.ArchiveRequest{SourcePath: "/data/app"})
	var opErr *OperationError
	require.ErrorAs(t, err, &opErr)
	require.Equal(t, "archive", opErr.Action)
	require.Equal(t, 12, opErr.ExitCode)
}

func TestExtractArchiveDefaultsToArchiveDir(t *testing.T) {
	ctx := context.Background()
	fake, ops := newTestOps(t, types.OSFamilyPosix)
	seedPosixUtilities(fake)
	fake.WriteFile("/data/a.zip", []byte("zipdata"))
	fake.StartHook = guestShellHook(map[string]string{"part": "AAA"})

	require.NoError(t, ops.ExtractArchive(ctx, "/data/a.zip", "", ""))
	require.Equal(t, []byte("AAA"), fake.FS["/data/part"].Data)
}

func TestEnsureUtilityPosixMissing(t *testing.T) {
	ctx := context.Background()
	fake, ops := newTestOps(t, types.OSFamilyPosix)
	fake.MkdirAll("/usr/bin")
	fake.WriteFile(posixZip, nil)
	// unzip missing

	err := ops.EnsureUtility(ctx)
	var envErr *EnvironmentError
	require.ErrorAs(t, err, &envErr)
	require.Equal(t, posixUnzip, envErr.Missing)
}

func TestEnsureUtilityWindowsProbe(t *testing.T) {
	ctx := context.Background()
	fake, ops := newTestOps(t, types.OSFamilyWindows)
	fake.Env["TMP"] = `C:\Temp`
	// only the bare "7z" executable answers
	fake.StartHook = func(_ *agenttest.Fake, spec types.ExecSpec) agenttest.StartResult {
		if strings.TrimPrefix(spec.Arguments, "/c ") == "7z" {
			return agenttest.StartResult{}
		}
		return agenttest.StartResult{ExitCode: 1}
	}

	require.NoError(t, ops.EnsureUtility(ctx))
	require.Equal(t, "7z", ops.sevenZip)

	// probe result is cached
	calls := len(fake.Ops)
	require.NoError(t, ops.EnsureUtility(ctx))
	require.Len(t, fake.Ops, calls)
}

func TestEnsureUtilityWindowsMissing(t *testing.T) {
	ctx := context.Background()
	fake, ops := newTestOps(t, types.OSFamilyWindows)
	fake.StartHook = func(*agenttest.Fake, types.ExecSpec) agenttest.StartResult {
		return agenttest.StartResult{ExitCode: 9009} // command not found
	}

	err := ops.EnsureUtility(ctx)
	var envErr *EnvironmentError
	require.ErrorAs(t, err, &envErr)
	require.Equal(t, "7-Zip", envErr.Missing)
}

func TestExtractArchiveIntoOneFile(t *testing.T) {
	ctx := context.Background()
	fake, ops := newTestOps(t, types.OSFamilyPosix)
	seedPosixUtilities(fake)
	fake.WriteFile("/data/a.zip", []byte("zipdata"))
	fake.StartHook = guestShellHook(map[string]string{"part1": "AAA", "part2": "BBB"})

	require.NoError(t, ops.ExtractArchiveIntoOneFile(ctx, "/data/a.zip", "/data/combined", ""))
	require.Equal(t, []byte("AAABBB"), fake.FS["/data/combined"].Data)
	// staging directory is cleaned up
	require.Nil(t, fake.FS["/tmp/guestops-extract-a.zip"])
}

func TestExtractArchiveIntoOneFileNoOutputs(t *testing.T) {
	ctx := context.Background()
	fake, ops := newTestOps(t, types.OSFamilyPosix)
	seedPosixUtilities(fake)
	fake.WriteFile("/data/a.zip", []byte("zipdata"))
	fake.StartHook = guestShellHook(nil) // extraction succeeds but produces nothing

	err := ops.ExtractArchiveIntoOneFile(ctx, "/data/a.zip", "/data/combined", "")
	var consErr *ConsolidationError
	require.ErrorAs(t, err, &consErr)
	require.Contains(t, consErr.Reason, "no files")
}

func TestExtractArchiveIntoOneFileConcatFailure(t *testing.T) {
	ctx := context.Background()
	fake, ops := newTestOps(t, types.OSFamilyPosix)
	seedPosixUtilities(fake)
	fake.WriteFile("/data/a.zip", []byte("zipdata"))
	inner := guestShellHook(map[string]string{"part1": "AAA"})
	fake.StartHook = func(f *agenttest.Fake, spec types.ExecSpec) agenttest.StartResult {
		if spec.ProgramPath == "/bin/sh" {
			return agenttest.StartResult{ExitCode: 1}
		}
		return inner(f, spec)
	}

	err := ops.ExtractArchiveIntoOneFile(ctx, "/data/a.zip", "/data/combined", "")
	var consErr *ConsolidationError
	require.ErrorAs(t, err, &consErr)
	require.Contains(t, consErr.Reason, "code 1")
}

package utils

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/projecteru2/guestops/types"
)

func TestJoinGuest(t *testing.T) {
	require.Equal(t, "/tmp/guestops-output", JoinGuest(types.OSFamilyPosix, "/tmp", "guestops-output"))
	require.Equal(t, "/tmp/a/b", JoinGuest(types.OSFamilyPosix, "/tmp/", "/a/", "b"))
	require.Equal(t, `C:\Temp\work`, JoinGuest(types.OSFamilyWindows, `C:\Temp`, "work"))
	require.Equal(t, `C:\Temp\a\b`, JoinGuest(types.OSFamilyWindows, `C:\Temp\`, `a\b`))
}

func TestBaseName(t *testing.T) {
	require.Equal(t, "c", BaseName("/a/b/c"))
	require.Equal(t, "b", BaseName("/a/b/"))
	require.Equal(t, "report.zip", BaseName(`C:\Temp\report.zip`))
	require.Equal(t, "plain", BaseName("plain"))
}

func TestParentDir(t *testing.T) {
	require.Equal(t, "/a/b", ParentDir("/a/b/c"))
	require.Equal(t, "/", ParentDir("/a"))
	require.Equal(t, `C:\Temp`, ParentDir(`C:\Temp\report.zip`))
	require.Equal(t, "", ParentDir("plain"))
}

func TestAncestorsPosix(t *testing.T) {
	require.Equal(t, []string{"/a", "/a/b", "/a/b/c"}, Ancestors(types.OSFamilyPosix, "/a/b/c"))
	require.Equal(t, []string{"/a"}, Ancestors(types.OSFamilyPosix, "/a/"))
	require.Nil(t, Ancestors(types.OSFamilyPosix, "/"))
}

func TestAncestorsWindows(t *testing.T) {
	require.Equal(t, []string{`C:\a`, `C:\a\b`}, Ancestors(types.OSFamilyWindows, `C:\a\b`))
	require.Nil(t, Ancestors(types.OSFamilyWindows, `C:\`))
}

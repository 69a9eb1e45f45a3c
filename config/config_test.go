package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFile(t *testing.T) {
	conf, err := LoadConfig(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)
	require.Equal(t, DefaultConfig(), conf)
}

func TestLoadConfigOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"root_dir": "/srv/guestops",
		"poll_interval_seconds": 2,
		"archive_timeout_seconds": -1
	}`), 0o600))

	conf, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "/srv/guestops", conf.RootDir)
	require.Equal(t, 2*time.Second, conf.PollInterval())
	require.Equal(t, 60*time.Second, conf.ExitCodeTimeout())
	// negative values fall back to defaults
	require.Equal(t, 600*time.Second, conf.ArchiveTimeout())
}

func TestLoadConfigBadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o600))
	_, err := LoadConfig(path)
	require.Error(t, err)
}

func TestPaths(t *testing.T) {
	conf := DefaultConfig()
	require.Equal(t, "/var/lib/guestops/db/guests.json", conf.IndexPath())
	require.Equal(t, "/var/lib/guestops/db/guests.lock", conf.IndexLockPath())
	require.Equal(t, "/run/guestops/guest-abc123.lock", conf.GuestLockPath("abc123"))
}

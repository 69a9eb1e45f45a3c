package json

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type testData struct {
	Entries map[string]string `json:"entries"`
}

func (d *testData) Init() {
	if d.Entries == nil {
		d.Entries = make(map[string]string)
	}
}

func newTestStore(t *testing.T) *Store[testData] {
	t.Helper()
	dir := t.TempDir()
	return New[testData](filepath.Join(dir, "data.lock"), filepath.Join(dir, "data.json"))
}

func TestWithMissingFileYieldsInitialized(t *testing.T) {
	s := newTestStore(t)
	err := s.With(context.Background(), func(d *testData) error {
		require.NotNil(t, d.Entries)
		require.Empty(t, d.Entries)
		return nil
	})
	require.NoError(t, err)
}

func TestUpdatePersists(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	err := s.Update(ctx, func(d *testData) error {
		d.Entries["k"] = "v"
		return nil
	})
	require.NoError(t, err)

	err = s.With(ctx, func(d *testData) error {
		require.Equal(t, "v", d.Entries["k"])
		return nil
	})
	require.NoError(t, err)
}

func TestUpdateAbortsOnError(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.Update(ctx, func(d *testData) error {
		d.Entries["k"] = "v"
		return nil
	}))

	boom := fmt.Errorf("boom")
	err := s.Update(ctx, func(d *testData) error {
		d.Entries["k"] = "changed"
		return boom
	})
	require.ErrorIs(t, err, boom)

	err = s.With(ctx, func(d *testData) error {
		require.Equal(t, "v", d.Entries["k"])
		return nil
	})
	require.NoError(t, err)
}

func TestWithCorruptFile(t *testing.T) {
	dir := t.TempDir()
	dataPath := filepath.Join(dir, "data.json")
	require.NoError(t, os.WriteFile(dataPath, []byte("{"), 0o600))

	s := New[testData](filepath.Join(dir, "data.lock"), dataPath)
	err := s.With(context.Background(), func(*testData) error { return nil })
	require.ErrorContains(t, err, "parse")
}

package services

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rejot-dev/thalo/internal/workspace"
)

func TestWatcher_AppliesWrites(t *testing.T) {
	dir := t.TempDir()
	ws := workspace.New()

	w, err := NewWatcher(ws)
	require.NoError(t, err)
	require.NoError(t, w.Add(dir))

	changed := make(chan string, 8)
	w.OnChange = func(filename string) { changed <- filename }
	w.Start()
	defer w.Stop()

	path := filepath.Join(dir, "a.thalo")
	require.NoError(t, os.WriteFile(path, []byte("2026-01-05T18:00Z create lore \"E\"\n  k: \"v\"\n"), 0644))

	select {
	case got := <-changed:
		require.Equal(t, path, got)
	case <-time.After(5 * time.Second):
		t.Fatal("no change event received")
	}
	require.NotNil(t, ws.GetModel(path))
}

func TestWatcher_IgnoresOtherExtensions(t *testing.T) {
	require.False(t, isThaloFile("notes.txt"))
	require.True(t, isThaloFile("notes.thalo"))
	require.True(t, isThaloFile("notes.md"))
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	ws := workspace.New()
	w, err := NewWatcher(ws)
	require.NoError(t, err)
	w.Start()
	w.Stop()
	w.Stop()
}

package tracker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rejot-dev/thalo/internal/query"
	"github.com/rejot-dev/thalo/internal/workspace"
)

func TestParseCheckpoint(t *testing.T) {
	m := ParseCheckpoint("ts:2026-01-05T12:00Z")
	require.NotNil(t, m)
	require.Equal(t, "ts", m.Type)
	require.Equal(t, "2026-01-05T12:00Z", m.Value)
	require.Equal(t, "ts:2026-01-05T12:00Z", m.String())

	m = ParseCheckpoint("git:0123abc")
	require.NotNil(t, m)
	require.Equal(t, "git", m.Type)
	require.Equal(t, "0123abc", m.Value)

	require.Nil(t, ParseCheckpoint("svn:123"))
	require.Nil(t, ParseCheckpoint("ts:"))
	require.Nil(t, ParseCheckpoint(""))
	require.Nil(t, ParseCheckpoint("nonsense"))
}

func TestNew(t *testing.T) {
	tr, err := New("ts", "")
	require.NoError(t, err)
	require.Equal(t, "ts", tr.Type())

	tr, err = New("git", "/repo")
	require.NoError(t, err)
	require.Equal(t, "git", tr.Type())

	_, err = New("svn", "")
	require.Error(t, err)
	var cpErr *CheckpointError
	require.ErrorAs(t, err, &cpErr)
}

func buildTrackerWorkspace(t *testing.T) *workspace.Workspace {
	t.Helper()
	ws := workspace.New()
	require.NoError(t, ws.AddDocument("a.thalo", []byte(
		"2026-01-05T10:00Z create lore \"old\"\n  k: \"v\"\n\n"+
			"2026-01-05T18:00Z create lore \"new\"\n  k: \"v\"\n"), workspace.AddOptions{}))
	return ws
}

func TestTimestampTracker_FirstRun(t *testing.T) {
	ws := buildTrackerWorkspace(t)
	queries, err := query.ParseQueryString("lore")
	require.NoError(t, err)

	fixed := time.Date(2026, 1, 10, 9, 30, 0, 0, time.UTC)
	tr := &TimestampTracker{Now: func() time.Time { return fixed }}

	changes, err := tr.GetChangedEntries(ws, queries, nil)
	require.NoError(t, err)
	require.Len(t, changes.Entries, 2)
	require.Equal(t, Marker{Type: "ts", Value: "2026-01-10T09:30Z"}, changes.CurrentMarker)
}

func TestTimestampTracker_SinceMarker(t *testing.T) {
	ws := buildTrackerWorkspace(t)
	queries, err := query.ParseQueryString("lore")
	require.NoError(t, err)

	tr := &TimestampTracker{Now: func() time.Time { return time.Date(2026, 1, 10, 9, 30, 0, 0, time.UTC) }}
	changes, err := tr.GetChangedEntries(ws, queries, &Marker{Type: "ts", Value: "2026-01-05T12:00Z"})
	require.NoError(t, err)
	require.Len(t, changes.Entries, 1)
	require.Equal(t, "new", changes.Entries[0].Instance.Header.Title)
}

// Checkpoint monotonicity: a nil marker never returns fewer entries
// than any non-nil one.
func TestTimestampTracker_Monotonicity(t *testing.T) {
	ws := buildTrackerWorkspace(t)
	queries, err := query.ParseQueryString("lore")
	require.NoError(t, err)
	tr := &TimestampTracker{Now: func() time.Time { return time.Date(2026, 1, 10, 9, 30, 0, 0, time.UTC) }}

	all, err := tr.GetChangedEntries(ws, queries, nil)
	require.NoError(t, err)
	for _, marker := range []string{"2026-01-01T00:00Z", "2026-01-05T12:00Z", "2026-01-09T00:00Z"} {
		some, err := tr.GetChangedEntries(ws, queries, &Marker{Type: "ts", Value: marker})
		require.NoError(t, err)
		require.LessOrEqual(t, len(some.Entries), len(all.Entries))
	}
}

func TestGitTracker_NotARepo(t *testing.T) {
	ws := buildTrackerWorkspace(t)
	queries, err := query.ParseQueryString("lore")
	require.NoError(t, err)

	tr := &GitTracker{RepoDir: t.TempDir()}
	_, err = tr.GetChangedEntries(ws, queries, nil)
	require.Error(t, err)
	var cpErr *CheckpointError
	require.ErrorAs(t, err, &cpErr)
}

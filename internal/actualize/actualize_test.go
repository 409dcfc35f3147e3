package actualize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rejot-dev/thalo/internal/tracker"
	"github.com/rejot-dev/thalo/internal/workspace"
)

func fixedTracker() *tracker.TimestampTracker {
	return &tracker.TimestampTracker{Now: func() time.Time {
		return time.Date(2026, 1, 10, 9, 30, 0, 0, time.UTC)
	}}
}

func buildActualizeWorkspace(t *testing.T, withMarker bool) *workspace.Workspace {
	t.Helper()
	ws := workspace.New()
	require.NoError(t, ws.AddDocument("lore.thalo", []byte(
		"2026-01-05T10:00Z create lore \"old\"\n  k: \"v\"\n\n"+
			"2026-01-05T18:00Z create lore \"new\" ^fresh #tag\n  k: \"v\"\n"), workspace.AddOptions{}))
	require.NoError(t, ws.AddDocument("synth.thalo", []byte(
		"2026-01-02T00:00Z define-synthesis digest \"Digest\" ^s\n"+
			"  sources: lore\n\n"+
			"  # Prompt\n"+
			"  Summarize recent lore.\n"), workspace.AddOptions{}))
	if withMarker {
		require.NoError(t, ws.AddDocument("marks.thalo", []byte(
			"2026-01-05T12:00Z actualize-synthesis digest \"Run\" ^s\n"+
				"  checkpoint: \"ts:2026-01-05T12:00Z\"\n"), workspace.AddOptions{}))
	}
	return ws
}

func TestRun_FirstActualization(t *testing.T) {
	ws := buildActualizeWorkspace(t, false)
	result, err := Run(ws, fixedTracker(), nil)
	require.NoError(t, err)
	require.NotEmpty(t, result.BatchID)
	require.Equal(t, "ts", result.TrackerType)
	require.Len(t, result.Records, 1)

	r := result.Records[0]
	require.Equal(t, "synth.thalo", r.File)
	require.Equal(t, "Digest", r.Title)
	require.Equal(t, "s", r.LinkID)
	require.Equal(t, []string{"lore"}, r.Sources)
	require.Empty(t, r.LastCheckpoint)
	require.Equal(t, "Summarize recent lore.", r.Prompt)
	require.Equal(t, "ts:2026-01-10T09:30Z", r.CurrentCheckpoint)
	require.False(t, r.IsUpToDate)
	require.Len(t, r.Entries, 2)
	require.Equal(t, "old", r.Entries[0].Title)
	require.Equal(t, "new", r.Entries[1].Title)
	require.Equal(t, "fresh", r.Entries[1].LinkID)
	require.Equal(t, []string{"tag"}, r.Entries[1].Tags)
	require.Contains(t, r.Entries[1].RawText, "create lore \"new\"")
}

func TestRun_WithCheckpointMarker(t *testing.T) {
	ws := buildActualizeWorkspace(t, true)
	result, err := Run(ws, fixedTracker(), nil)
	require.NoError(t, err)
	require.Len(t, result.Records, 1)

	r := result.Records[0]
	require.Equal(t, "ts:2026-01-05T12:00Z", r.LastCheckpoint)
	require.Len(t, r.Entries, 1)
	require.Equal(t, "new", r.Entries[0].Title)
}

func TestRun_UpToDate(t *testing.T) {
	ws := buildActualizeWorkspace(t, false)
	require.NoError(t, ws.AddDocument("marks.thalo", []byte(
		"2026-01-06T00:00Z actualize-synthesis digest \"Run\" ^s\n"+
			"  checkpoint: \"ts:2026-01-06T00:00Z\"\n"), workspace.AddOptions{}))

	result, err := Run(ws, fixedTracker(), nil)
	require.NoError(t, err)
	require.Len(t, result.Records, 1)
	require.True(t, result.Records[0].IsUpToDate)
	require.Empty(t, result.Records[0].Entries)
}

func TestRun_LatestMarkerWins(t *testing.T) {
	ws := buildActualizeWorkspace(t, true)
	// a later actualization supersedes the earlier one
	require.NoError(t, ws.AddDocument("marks2.thalo", []byte(
		"2026-01-07T00:00Z actualize-synthesis digest \"Run\" ^s\n"+
			"  checkpoint: \"ts:2026-01-07T00:00Z\"\n"), workspace.AddOptions{}))

	result, err := Run(ws, fixedTracker(), nil)
	require.NoError(t, err)
	require.Len(t, result.Records, 1)
	require.Equal(t, "ts:2026-01-07T00:00Z", result.Records[0].LastCheckpoint)
	require.True(t, result.Records[0].IsUpToDate)
}

func TestRun_UnknownIDs(t *testing.T) {
	ws := buildActualizeWorkspace(t, false)
	result, err := Run(ws, fixedTracker(), []string{"s", "ghost"})
	require.NoError(t, err)
	require.Len(t, result.Records, 1)
	require.Equal(t, []string{"ghost"}, result.UnknownIDs)
}

func TestRun_RestrictToRequestedIDs(t *testing.T) {
	ws := buildActualizeWorkspace(t, false)
	require.NoError(t, ws.AddDocument("synth2.thalo", []byte(
		"2026-01-03T00:00Z define-synthesis digest \"Other\" ^o\n"+
			"  sources: lore\n\n  # Prompt\n  p.\n"), workspace.AddOptions{}))

	result, err := Run(ws, fixedTracker(), []string{"o"})
	require.NoError(t, err)
	require.Len(t, result.Records, 1)
	require.Equal(t, "o", result.Records[0].LinkID)
}

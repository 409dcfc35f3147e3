// Package tracker decides which entries are "new since checkpoint" for
// the actualize command, under a timestamp strategy or a git strategy.
package tracker

import (
	"strings"
	"time"

	"github.com/rejot-dev/thalo/internal/logging"
	"github.com/rejot-dev/thalo/internal/query"
	"github.com/rejot-dev/thalo/internal/workspace"
)

// Marker is an opaque point in workspace history: a minute-precision
// timestamp or a git commit hash.
type Marker struct {
	Type  string // "ts" or "git"
	Value string
}

// String serializes the marker to its checkpoint form, "ts:..." or
// "git:...".
func (m Marker) String() string {
	return m.Type + ":" + m.Value
}

// ParseCheckpoint parses a checkpoint string. Unknown prefixes and empty
// values return nil, treated as "no checkpoint".
func ParseCheckpoint(s string) *Marker {
	idx := strings.Index(s, ":")
	if idx <= 0 {
		return nil
	}
	typ, value := s[:idx], s[idx+1:]
	if value == "" {
		return nil
	}
	switch typ {
	case "ts", "git":
		return &Marker{Type: typ, Value: value}
	}
	return nil
}

// CheckpointError is the typed failure a tracker strategy returns when a
// checkpoint cannot be honored (not a git repository, missing commit).
// The workspace itself remains usable.
type CheckpointError struct {
	Message string
}

func (e *CheckpointError) Error() string { return e.Message }

// Changes is the result of one tracker run.
type Changes struct {
	Entries       []query.Match
	CurrentMarker Marker
}

// ChangeTracker decides which entries matching queries are new since
// lastMarker. A nil lastMarker means "first run": everything matching
// the queries is new.
type ChangeTracker interface {
	Type() string
	GetChangedEntries(ws *workspace.Workspace, queries []query.Query, lastMarker *Marker) (*Changes, error)
}

// New selects a strategy by type name: "ts" or "git". repoDir is only
// used by the git strategy.
func New(typ, repoDir string) (ChangeTracker, error) {
	switch typ {
	case "ts":
		return &TimestampTracker{}, nil
	case "git", "":
		return &GitTracker{RepoDir: repoDir}, nil
	}
	return nil, &CheckpointError{Message: "unknown tracker type " + typ}
}

// TimestampTracker compares entry timestamps against a minute-precision
// wall-clock marker.
type TimestampTracker struct {
	// Now is injectable for tests; nil uses time.Now.
	Now func() time.Time
}

// Type returns "ts".
func (t *TimestampTracker) Type() string { return "ts" }

// GetChangedEntries returns entries matching queries whose timestamp is
// strictly greater than the last marker, plus a fresh now-marker.
func (t *TimestampTracker) GetChangedEntries(ws *workspace.Workspace, queries []query.Query, lastMarker *Marker) (*Changes, error) {
	now := time.Now
	if t.Now != nil {
		now = t.Now
	}
	current := Marker{Type: "ts", Value: now().UTC().Format("2006-01-02T15:04Z")}

	opts := query.ExecuteOptions{}
	if lastMarker != nil {
		opts.AfterTimestamp = lastMarker.Value
	}
	entries := query.ExecuteQueries(ws, queries, opts)
	logging.Tracker("ts tracker: %d new entries since %v", len(entries), lastMarker)
	return &Changes{Entries: entries, CurrentMarker: current}, nil
}

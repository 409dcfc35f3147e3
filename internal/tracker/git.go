package tracker

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/rejot-dev/thalo/internal/ast"
	"github.com/rejot-dev/thalo/internal/fence"
	"github.com/rejot-dev/thalo/internal/logging"
	"github.com/rejot-dev/thalo/internal/query"
	"github.com/rejot-dev/thalo/internal/semantic"
	"github.com/rejot-dev/thalo/internal/workspace"
)

// GitTracker marks checkpoints with the repository HEAD commit. Entries
// are new when the file containing them changed since the last marker
// and the entry differs in identity or content from its version at that
// commit. Renames are followed with -M detection.
type GitTracker struct {
	// RepoDir is the repository root the workspace's filenames are
	// relative to (or live under).
	RepoDir string
}

// Type returns "git".
func (t *GitTracker) Type() string { return "git" }

// GetChangedEntries implements ChangeTracker under the git strategy.
func (t *GitTracker) GetChangedEntries(ws *workspace.Workspace, queries []query.Query, lastMarker *Marker) (*Changes, error) {
	ctx := context.Background()

	head, err := t.headCommit(ctx)
	if err != nil {
		return nil, &CheckpointError{Message: fmt.Sprintf("not a git repository (or git unavailable): %v", err)}
	}
	current := Marker{Type: "git", Value: head}

	all := query.ExecuteQueries(ws, queries, query.ExecuteOptions{})
	if lastMarker == nil {
		// first run: everything matching the queries is new
		return &Changes{Entries: all, CurrentMarker: current}, nil
	}
	if !t.commitExists(ctx, lastMarker.Value) {
		return nil, &CheckpointError{Message: fmt.Sprintf("checkpoint commit %s not found", lastMarker.Value)}
	}

	changed, err := t.changedFiles(ctx, lastMarker.Value, head)
	if err != nil {
		return nil, &CheckpointError{Message: fmt.Sprintf("git diff failed: %v", err)}
	}

	var entries []query.Match
	for _, m := range all {
		oldPath, wasChanged := changed[t.relPath(m.File)]
		if !wasChanged {
			continue
		}
		if oldPath == "" || t.entryIsNew(ctx, ws, m, lastMarker.Value, oldPath) {
			entries = append(entries, m)
		}
	}
	logging.Tracker("git tracker: %d new entries between %s and %s", len(entries), lastMarker.Value, head)
	return &Changes{Entries: entries, CurrentMarker: current}, nil
}

func (t *GitTracker) headCommit(ctx context.Context) (string, error) {
	out, err := t.git(ctx, "rev-parse", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func (t *GitTracker) commitExists(ctx context.Context, hash string) bool {
	_, err := t.git(ctx, "cat-file", "-e", hash+"^{commit}")
	return err == nil
}

// changedFiles maps each path changed between from and to onto its path
// at the from commit ("" for added files), following renames.
func (t *GitTracker) changedFiles(ctx context.Context, from, to string) (map[string]string, error) {
	out, err := t.git(ctx, "diff", "--name-status", "-M", from, to)
	if err != nil {
		return nil, err
	}
	changed := map[string]string{}
	scanner := bufio.NewScanner(bytes.NewReader([]byte(out)))
	for scanner.Scan() {
		fields := strings.Split(scanner.Text(), "\t")
		if len(fields) < 2 {
			continue
		}
		status := fields[0]
		switch {
		case strings.HasPrefix(status, "R") && len(fields) >= 3:
			changed[fields[2]] = fields[1]
		case status == "A":
			changed[fields[1]] = ""
		default:
			changed[fields[1]] = fields[1]
		}
	}
	return changed, scanner.Err()
}

// entryIsNew reports whether the match's entry differs, in identity or
// raw content, from the corresponding entry of the file's version at
// commit from.
func (t *GitTracker) entryIsNew(ctx context.Context, ws *workspace.Workspace, m query.Match, from, oldPath string) bool {
	out, err := t.git(ctx, "show", from+":"+oldPath)
	if err != nil {
		// file absent at the checkpoint: the entry is new
		return true
	}
	var raw string
	if model := ws.GetModel(m.File); model != nil {
		raw = rawText(m.Entry, model.Source)
	}
	oldModel := semantic.Build(oldPath, []byte(out), fence.DetectFileType(oldPath, []byte(out)))
	key := entryIdentity(m.Entry)
	for i := range oldModel.AST.Entries {
		e := &oldModel.AST.Entries[i]
		if entryIdentity(e) == key {
			return rawText(e, oldModel.Source) != raw
		}
	}
	return true
}

// entryIdentity keys an entry by its explicit link id when declared,
// otherwise by (variant, timestamp, entity).
func entryIdentity(e *ast.Entry) string {
	var h *ast.Header
	switch e.Variant {
	case ast.VariantInstance:
		h = &e.Instance.Header
	case ast.VariantSchema:
		h = &e.Schema.Header
	case ast.VariantSynthesis:
		h = &e.Synthesis.Header
	case ast.VariantActualize:
		h = &e.Actualize.Header
	default:
		return ""
	}
	if e.Variant != ast.VariantActualize && h.HasLink {
		return "^" + h.Link
	}
	return fmt.Sprintf("%d|%s|%s", e.Variant, h.Timestamp.Formatted(), h.Entity)
}

func rawText(e *ast.Entry, source []byte) string {
	if source == nil {
		return ""
	}
	loc := e.Location
	if loc.StartIndex < 0 || loc.EndIndex > len(source) || loc.StartIndex > loc.EndIndex {
		return ""
	}
	return string(source[loc.StartIndex:loc.EndIndex])
}

func (t *GitTracker) relPath(file string) string {
	if t.RepoDir == "" || !filepath.IsAbs(file) {
		return file
	}
	rel, err := filepath.Rel(t.RepoDir, file)
	if err != nil {
		return file
	}
	return rel
}

func (t *GitTracker) git(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	if t.RepoDir != "" {
		cmd.Dir = t.RepoDir
	}
	out, err := cmd.Output()
	return string(out), err
}

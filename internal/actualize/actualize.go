// Package actualize combines synthesis entries, the change tracker, and
// last-actualize markers to emit pending-update descriptors: which
// synthesis entries have new source material since their last
// actualization.
package actualize

import (
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/rejot-dev/thalo/internal/ast"
	"github.com/rejot-dev/thalo/internal/logging"
	"github.com/rejot-dev/thalo/internal/query"
	"github.com/rejot-dev/thalo/internal/tracker"
	"github.com/rejot-dev/thalo/internal/workspace"
)

// EntryRecord is one source entry feeding a pending synthesis update.
type EntryRecord struct {
	File      string   `json:"file"`
	Timestamp string   `json:"timestamp"`
	Entity    string   `json:"entity"`
	Title     string   `json:"title"`
	LinkID    string   `json:"linkId,omitempty"`
	Tags      []string `json:"tags,omitempty"`
	RawText   string   `json:"rawText"`
}

// Record describes one synthesis entry's actualization state.
type Record struct {
	File              string        `json:"file"`
	Title             string        `json:"title"`
	LinkID            string        `json:"linkId"`
	Sources           []string      `json:"sources"`
	LastCheckpoint    string        `json:"lastCheckpoint,omitempty"`
	Prompt            string        `json:"prompt,omitempty"`
	Entries           []EntryRecord `json:"entries"`
	CurrentCheckpoint string        `json:"currentCheckpoint"`
	IsUpToDate        bool          `json:"isUpToDate"`
}

// Result is the actualize command's output.
type Result struct {
	// BatchID correlates one run's records across log lines.
	BatchID     string   `json:"batchId"`
	TrackerType string   `json:"trackerType"`
	Records     []Record `json:"records"`
	// UnknownIDs lists requested link ids that named no synthesis.
	UnknownIDs []string `json:"unknownIds,omitempty"`
}

// Run evaluates every define-synthesis entry in ws (restricted to ids
// when non-empty) against tr.
func Run(ws *workspace.Workspace, tr tracker.ChangeTracker, ids []string) (*Result, error) {
	result := &Result{
		BatchID:     uuid.NewString(),
		TrackerType: tr.Type(),
	}

	syntheses := collectSyntheses(ws)
	requested := toSet(ids)
	for _, id := range ids {
		if _, ok := syntheses[id]; !ok {
			result.UnknownIDs = append(result.UnknownIDs, id)
		}
	}
	sort.Strings(result.UnknownIDs)

	linkIDs := make([]string, 0, len(syntheses))
	for id := range syntheses {
		linkIDs = append(linkIDs, id)
	}
	sort.Strings(linkIDs)

	for _, linkID := range linkIDs {
		if len(requested) > 0 && !requested[linkID] {
			continue
		}
		s := syntheses[linkID]
		record, err := actualizeOne(ws, tr, linkID, s)
		if err != nil {
			return nil, err
		}
		if record != nil {
			result.Records = append(result.Records, *record)
		}
	}
	logging.Actualize("batch %s: %d records, %d unknown ids", result.BatchID, len(result.Records), len(result.UnknownIDs))
	return result, nil
}

type synthesisSite struct {
	file  string
	entry *ast.SynthesisEntry
}

func collectSyntheses(ws *workspace.Workspace) map[string]synthesisSite {
	out := map[string]synthesisSite{}
	for _, m := range ws.AllModels() {
		for i := range m.AST.Entries {
			e := &m.AST.Entries[i]
			if e.Variant != ast.VariantSynthesis || !e.Synthesis.Header.HasLink {
				continue
			}
			id := e.Synthesis.Header.Link
			if _, ok := out[id]; !ok {
				out[id] = synthesisSite{file: m.File, entry: e.Synthesis}
			}
		}
	}
	return out
}

func actualizeOne(ws *workspace.Workspace, tr tracker.ChangeTracker, linkID string, site synthesisSite) (*Record, error) {
	md := findMetadata(site.entry.Metadata, "sources")
	if md == nil {
		return nil, nil
	}
	queries, err := query.ParseSourcesValue(md.Value)
	if err != nil {
		return nil, nil
	}

	lastMarker := latestCheckpoint(ws, linkID)
	changes, err := tr.GetChangedEntries(ws, queries, lastMarker)
	if err != nil {
		return nil, err
	}

	record := &Record{
		File:              site.file,
		Title:             site.entry.Header.Title,
		LinkID:            linkID,
		Prompt:            promptOf(site.entry.Content),
		CurrentCheckpoint: changes.CurrentMarker.String(),
		IsUpToDate:        len(changes.Entries) == 0,
	}
	if lastMarker != nil {
		record.LastCheckpoint = lastMarker.String()
	}
	for _, q := range queries {
		record.Sources = append(record.Sources, query.FormatQuery(q))
	}
	for _, m := range changes.Entries {
		record.Entries = append(record.Entries, toEntryRecord(ws, m))
	}
	return record, nil
}

// latestCheckpoint finds the highest-timestamp actualize-synthesis entry
// targeting linkID and parses its checkpoint metadata.
func latestCheckpoint(ws *workspace.Workspace, linkID string) *tracker.Marker {
	var best *ast.ActualizeEntry
	for _, m := range ws.AllModels() {
		for i := range m.AST.Entries {
			e := &m.AST.Entries[i]
			if e.Variant != ast.VariantActualize {
				continue
			}
			ae := e.Actualize
			if !ae.Header.HasLink || ae.Header.Link != linkID {
				continue
			}
			if best == nil || best.Header.Timestamp.Before(ae.Header.Timestamp) {
				best = ae
			}
		}
	}
	if best == nil {
		return nil
	}
	md := findMetadata(best.Metadata, "checkpoint")
	if md == nil {
		return nil
	}
	return tracker.ParseCheckpoint(trimQuotes(md.Value.Raw))
}

// promptOf returns the body under the "Prompt" markdown header, joined
// line by line.
func promptOf(c *ast.Content) string {
	if c == nil {
		return ""
	}
	var lines []string
	collecting := false
	for _, child := range c.Children {
		if child.Kind == ast.ContentMDHeader {
			collecting = child.Name == "Prompt"
			continue
		}
		if collecting && child.Kind != ast.ContentBlank {
			lines = append(lines, child.Text)
		}
	}
	return strings.Join(lines, "\n")
}

func toEntryRecord(ws *workspace.Workspace, m query.Match) EntryRecord {
	rec := EntryRecord{
		File:      m.File,
		Timestamp: m.Instance.Header.Timestamp.Formatted(),
		Entity:    m.Instance.Header.Entity,
		Title:     m.Instance.Header.Title,
		Tags:      m.Instance.Header.Tags,
	}
	if m.Instance.Header.HasLink {
		rec.LinkID = m.Instance.Header.Link
	}
	if model := ws.GetModel(m.File); model != nil {
		loc := m.Entry.Location
		if loc.StartIndex >= 0 && loc.EndIndex <= len(model.Source) && loc.StartIndex <= loc.EndIndex {
			rec.RawText = string(model.Source[loc.StartIndex:loc.EndIndex])
		}
	}
	return rec
}

func findMetadata(meta []ast.Metadata, key string) *ast.Metadata {
	for i := range meta {
		if meta[i].Key == key {
			return &meta[i]
		}
	}
	return nil
}

func trimQuotes(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

func toSet(ids []string) map[string]bool {
	s := make(map[string]bool, len(ids))
	for _, id := range ids {
		s[id] = true
	}
	return s
}

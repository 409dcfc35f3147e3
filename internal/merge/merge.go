// Package merge implements the three-way structural merge driver:
// entries are identity-matched across base/ours/theirs, merged
// field-wise where both sides changed, and serialized back to source
// with conflict markers where the changes cannot be reconciled.
package merge

import (
	"fmt"
	"sort"

	"github.com/rejot-dev/thalo/internal/ast"
	"github.com/rejot-dev/thalo/internal/cst"
	"github.com/rejot-dev/thalo/internal/diff"
	"github.com/rejot-dev/thalo/internal/format"
	"github.com/rejot-dev/thalo/internal/logging"
)

// ConflictKind tags the closed set of conflict rules, in priority order.
type ConflictKind string

const (
	ConflictDuplicateLinkID ConflictKind = "duplicate-link-id"
	ConflictMetadataUpdate  ConflictKind = "concurrent-metadata-update"
	ConflictContentEdit     ConflictKind = "concurrent-content-edit"
	ConflictSchemaChange    ConflictKind = "incompatible-schema-change"
	ConflictTitleChange     ConflictKind = "concurrent-title-change"
)

// Conflict records one unresolvable triple.
type Conflict struct {
	Kind     ConflictKind
	Identity string
	Base     *ast.Entry
	Ours     *ast.Entry
	Theirs   *ast.Entry
}

// Stats summarizes a merge run.
type Stats struct {
	TotalEntries int
	Common       int
	OursOnly     int
	TheirsOnly   int
	AutoMerged   int
	Conflicts    int
}

// Options configures serialization.
type Options struct {
	// MarkerStyle is "merge" (default) or "diff3" (adds the ||||||| base
	// block inside conflict markers).
	MarkerStyle string
}

// Result is the outcome of one three-way merge.
type Result struct {
	Success   bool
	Output    []byte
	Conflicts []Conflict
	Stats     Stats
}

// triple is one identity's presence across the three versions.
type triple struct {
	identity string
	base     *ast.Entry
	ours     *ast.Entry
	theirs   *ast.Entry
}

// merged is one output slot: either a resolved entry or a conflict.
type merged struct {
	entry    *ast.Entry
	conflict *Conflict
	// sortKey orders output chronologically.
	sortKey string
	order   int
}

// Merge merges ours and theirs against their common ancestor base.
func Merge(base, ours, theirs []byte, opts Options) (*Result, error) {
	baseSF := parse(base)
	oursSF := parse(ours)
	theirsSF := parse(theirs)

	triples := match(baseSF, oursSF, theirsSF)

	result := &Result{}
	var out []merged
	for i, t := range triples {
		m, conflict, stats := mergeTriple(t)
		result.Stats.TotalEntries++
		applyTripleStats(&result.Stats, t, stats)
		slot := merged{order: i}
		if conflict != nil {
			result.Conflicts = append(result.Conflicts, *conflict)
			result.Stats.Conflicts++
			slot.conflict = conflict
			slot.sortKey = conflictSortKey(conflict)
			out = append(out, slot)
			continue
		}
		if m == nil {
			// deletion won
			continue
		}
		slot.entry = m
		slot.sortKey = timestampOf(m)
		out = append(out, slot)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].sortKey != out[j].sortKey {
			return out[i].sortKey < out[j].sortKey
		}
		return out[i].order < out[j].order
	})

	result.Output = serialize(out, opts)
	result.Success = result.Stats.Conflicts == 0
	logging.Merge("merged %d entries: %d auto, %d conflicts", result.Stats.TotalEntries, result.Stats.AutoMerged, result.Stats.Conflicts)
	return result, nil
}

func parse(src []byte) *ast.SourceFile {
	return ast.Project(cst.Parse(src), src)
}

// Identity returns an entry's merge identity: the explicit ^linkId when
// declared, otherwise (variant, timestamp, entity). Actualize entries
// use (actualize, target-id, timestamp) so repeated actualizations of
// one synthesis stay distinct.
func Identity(e *ast.Entry) string {
	h := headerOf(e)
	if h == nil {
		return "error|" + e.Error.Raw
	}
	if e.Variant == ast.VariantActualize {
		return fmt.Sprintf("actualize|%s|%s", h.Link, h.Timestamp.Formatted())
	}
	if h.HasLink {
		return "^" + h.Link
	}
	return fmt.Sprintf("%d|%s|%s", e.Variant, h.Timestamp.Formatted(), h.Entity)
}

func headerOf(e *ast.Entry) *ast.Header {
	switch e.Variant {
	case ast.VariantInstance:
		return &e.Instance.Header
	case ast.VariantSchema:
		return &e.Schema.Header
	case ast.VariantSynthesis:
		return &e.Synthesis.Header
	case ast.VariantActualize:
		return &e.Actualize.Header
	default:
		return nil
	}
}

func timestampOf(e *ast.Entry) string {
	if h := headerOf(e); h != nil {
		return h.Timestamp.Formatted()
	}
	return ""
}

func conflictSortKey(c *Conflict) string {
	for _, e := range []*ast.Entry{c.Ours, c.Theirs, c.Base} {
		if e != nil {
			return timestampOf(e)
		}
	}
	return ""
}

// match produces triples covering the union of identities, in
// first-seen order across base, ours, theirs.
func match(base, ours, theirs *ast.SourceFile) []triple {
	index := map[string]int{}
	var triples []triple
	slot := func(id string) *triple {
		if i, ok := index[id]; ok {
			return &triples[i]
		}
		index[id] = len(triples)
		triples = append(triples, triple{identity: id})
		return &triples[len(triples)-1]
	}
	for i := range base.Entries {
		e := &base.Entries[i]
		slot(Identity(e)).base = e
	}
	for i := range ours.Entries {
		e := &ours.Entries[i]
		slot(Identity(e)).ours = e
	}
	for i := range theirs.Entries {
		e := &theirs.Entries[i]
		slot(Identity(e)).theirs = e
	}
	return triples
}

type tripleStats struct {
	autoMerged bool
}

func applyTripleStats(s *Stats, t triple, ts tripleStats) {
	switch {
	case t.ours != nil && t.theirs != nil:
		s.Common++
	case t.ours != nil && t.base == nil:
		s.OursOnly++
	case t.theirs != nil && t.base == nil:
		s.TheirsOnly++
	}
	if ts.autoMerged {
		s.AutoMerged++
	}
}

// equal is the structural-equality proxy: two entries are equal iff they
// serialize to the same canonical text.
func equal(a, b *ast.Entry) bool {
	if a == nil || b == nil {
		return a == b
	}
	return format.FormatEntry(a) == format.FormatEntry(b)
}

// changed reports whether side differs from base, using the diff engine
// so whitespace-equivalent serializations do not count as edits.
func changed(base, side *ast.Entry) bool {
	fd := diff.ComputeDiff("base", "side", format.FormatEntry(base), format.FormatEntry(side))
	return len(fd.Hunks) > 0
}

// mergeTriple applies the per-entry outcome rules in order. A nil entry
// with a nil conflict means deletion won.
func mergeTriple(t triple) (*ast.Entry, *Conflict, tripleStats) {
	b, o, th := t.base, t.ours, t.theirs

	// added on one side only
	if b == nil {
		if o != nil && th == nil {
			return o, nil, tripleStats{}
		}
		if th != nil && o == nil {
			return th, nil, tripleStats{}
		}
		// both added under the same identity
		if equal(o, th) {
			return o, nil, tripleStats{}
		}
		if ho, ht := headerOf(o), headerOf(th); ho != nil && ht != nil && ho.HasLink && ht.HasLink && ho.Link == ht.Link {
			return nil, &Conflict{Kind: ConflictDuplicateLinkID, Identity: t.identity, Ours: o, Theirs: th}, tripleStats{}
		}
		return fieldMerge(t)
	}

	// deletions
	if o == nil && th == nil {
		return nil, nil, tripleStats{}
	}
	if o == nil {
		if !changed(b, th) {
			return nil, nil, tripleStats{}
		}
		return th, nil, tripleStats{}
	}
	if th == nil {
		if !changed(b, o) {
			return nil, nil, tripleStats{}
		}
		return o, nil, tripleStats{}
	}

	// both present
	if equal(o, th) {
		return o, nil, tripleStats{}
	}
	if !changed(b, o) {
		return th, nil, tripleStats{}
	}
	if !changed(b, th) {
		return o, nil, tripleStats{}
	}
	return fieldMerge(t)
}

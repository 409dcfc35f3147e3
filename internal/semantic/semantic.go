// Package semantic owns the per-document derived state built on top of
// internal/ast: the source, its source map, the fenced blocks it was
// extracted from, the document's link index, and the schema entries it
// contributes, following the ownership shape of a per-file dependency
// scope that holds its own elements, hashes, and dirty flags.
package semantic

import (
	"github.com/rejot-dev/thalo/internal/ast"
	"github.com/rejot-dev/thalo/internal/fence"
)

// LinkDefinition records where a header explicitly defined `^id`.
type LinkDefinition struct {
	ID       string
	File     string
	Location ast.Location
	Entry    *ast.Entry
}

// LinkReference records where a value referenced `^id`. Context is a
// metadata key name, or the literal "target" for actualize targets.
type LinkReference struct {
	ID       string
	File     string
	Location ast.Location
	Entry    *ast.Entry
	Context  string
}

// LinkIndex is a per-document index of link definitions and references.
type LinkIndex struct {
	Definitions map[string]LinkDefinition
	References  map[string][]LinkReference
}

func newLinkIndex() *LinkIndex {
	return &LinkIndex{Definitions: map[string]LinkDefinition{}, References: map[string][]LinkReference{}}
}

// entryKey identifies an entry for incremental set-difference comparisons.
type entryKey struct {
	variant    ast.EntryVariant
	startIndex int
	endIndex   int
}

// Model is the per-document derived state the Workspace owns one of, per
// loaded file.
type Model struct {
	File      string
	Source    []byte
	AST       *ast.SourceFile
	Blocks    []fence.Block
	LineIndex *fence.LineIndex
	LinkIndex *LinkIndex
	// SchemaEntries is every SchemaEntry contributed by this document,
	// in source order.
	SchemaEntries []*ast.Entry

	linkIndexDirty     bool
	schemaEntriesDirty bool
}

// UpdateResult reports what changed between an old and new Model for the
// same file, so the Workspace can invalidate cross-document caches
// selectively instead of rebuilding everything.
type UpdateResult struct {
	AddedLinkDefinitions   []LinkDefinition
	RemovedLinkDefinitions []LinkDefinition
	ChangedLinkReferences  bool
	SchemaEntriesChanged   bool
	ChangedEntityNames     map[string]bool
}

// Build parses source into a fresh Model for file, running the fenced
// block extractor, AST projector, and index builders once each.
func Build(file string, source []byte, fileType fence.FileType) *Model {
	blocks := fence.ExtractBlocks(source, fileType)
	m := &Model{
		File:      file,
		Source:    source,
		LineIndex: fence.NewLineIndex(source),
		Blocks:    blocks,
	}
	entries := make([]ast.Entry, 0)
	for _, b := range blocks {
		root := parseBlock(b.Content)
		sf := ast.Project(root, b.Content)
		for _, e := range sf.Entries {
			entries = append(entries, translateEntry(e, b.SourceMap))
		}
	}
	m.AST = &ast.SourceFile{Entries: entries}
	m.rebuildLinkIndex()
	m.rebuildSchemaEntries()
	return m
}

// Update computes the incremental diff between m's current state and a
// freshly built Model for the same file with new source, mutates m in
// place to hold the new state, and returns what changed.
func (m *Model) Update(source []byte, fileType fence.FileType) UpdateResult {
	fresh := Build(m.File, source, fileType)

	oldByKey := indexEntries(m.AST.Entries)
	newByKey := indexEntries(fresh.AST.Entries)

	result := UpdateResult{ChangedEntityNames: map[string]bool{}}

	for k, e := range oldByKey {
		if _, ok := newByKey[k]; !ok {
			for _, def := range m.LinkIndex.Definitions {
				if def.Entry == e {
					result.RemovedLinkDefinitions = append(result.RemovedLinkDefinitions, def)
				}
			}
		}
	}
	for k, e := range newByKey {
		if _, ok := oldByKey[k]; !ok {
			for _, def := range fresh.LinkIndex.Definitions {
				if def.Entry == e {
					result.AddedLinkDefinitions = append(result.AddedLinkDefinitions, def)
				}
			}
		}
	}
	result.ChangedLinkReferences = len(result.AddedLinkDefinitions) > 0 || len(result.RemovedLinkDefinitions) > 0

	oldSchemaKeys := schemaKeySet(m.SchemaEntries)
	newSchemaKeys := schemaKeySet(fresh.SchemaEntries)
	if !schemaKeysEqual(oldSchemaKeys, newSchemaKeys) {
		result.SchemaEntriesChanged = true
		for name := range oldSchemaKeys {
			result.ChangedEntityNames[name.entity] = true
		}
		for name := range newSchemaKeys {
			result.ChangedEntityNames[name.entity] = true
		}
	}

	*m = *fresh
	return result
}

func (m *Model) rebuildLinkIndex() {
	idx := newLinkIndex()
	for i := range m.AST.Entries {
		e := &m.AST.Entries[i]
		header := headerOf(e)
		// An actualize header's ^id targets a synthesis; it is a
		// reference, never a definition.
		if header != nil && header.HasLink && e.Variant != ast.VariantActualize {
			if _, exists := idx.Definitions[header.Link]; !exists {
				idx.Definitions[header.Link] = LinkDefinition{ID: header.Link, File: m.File, Location: header.Location, Entry: e}
			}
		}
		collectReferences(e, m.File, idx)
	}
	m.LinkIndex = idx
	m.linkIndexDirty = false
}

func (m *Model) rebuildSchemaEntries() {
	var schemas []*ast.Entry
	for i := range m.AST.Entries {
		if m.AST.Entries[i].Variant == ast.VariantSchema {
			schemas = append(schemas, &m.AST.Entries[i])
		}
	}
	m.SchemaEntries = schemas
	m.schemaEntriesDirty = false
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

func collectReferences(e *ast.Entry, file string, idx *LinkIndex) {
	var metadata []ast.Metadata
	switch e.Variant {
	case ast.VariantInstance:
		metadata = e.Instance.Metadata
	case ast.VariantSynthesis:
		metadata = e.Synthesis.Metadata
	case ast.VariantActualize:
		metadata = e.Actualize.Metadata
		if e.Actualize.Header.HasLink {
			idx.References[e.Actualize.Header.Link] = append(idx.References[e.Actualize.Header.Link], LinkReference{
				ID: e.Actualize.Header.Link, File: file, Location: e.Actualize.Header.Location, Entry: e, Context: "target",
			})
		}
	}
	for _, md := range metadata {
		addValueReferences(md.Value, md.Key, file, e, idx)
	}
}

func addValueReferences(v ast.ValueContent, key, file string, e *ast.Entry, idx *LinkIndex) {
	if v.Kind == ast.ValueArray {
		for _, el := range v.Elements {
			addValueReferences(el, key, file, e, idx)
		}
		return
	}
	if v.Kind != ast.ValueLink {
		return
	}
	id := v.Raw
	if len(id) > 0 && id[0] == '^' {
		id = id[1:]
	}
	idx.References[id] = append(idx.References[id], LinkReference{ID: id, File: file, Location: v.Location, Entry: e, Context: key})
}

func indexEntries(entries []ast.Entry) map[entryKey]*ast.Entry {
	m := make(map[entryKey]*ast.Entry, len(entries))
	for i := range entries {
		e := &entries[i]
		m[entryKey{e.Variant, e.Location.StartIndex, e.Location.EndIndex}] = e
	}
	return m
}

type schemaKey struct {
	entity    string
	directive string
	start     int
	end       int
}

func schemaKeySet(entries []*ast.Entry) map[schemaKey]bool {
	s := make(map[schemaKey]bool, len(entries))
	for _, e := range entries {
		s[schemaKey{e.Schema.Header.Entity, e.Schema.Header.Directive, e.Location.StartIndex, e.Location.EndIndex}] = true
	}
	return s
}

func schemaKeysEqual(a, b map[schemaKey]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}

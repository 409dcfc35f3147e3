// Package schema resolves a per-entity schema by replaying define-entity
// and alter-entity entries, across all loaded documents, in
// timestamp-ascending order (ties broken by filename then start offset).
package schema

import (
	"sort"

	"github.com/rejot-dev/thalo/internal/ast"
)

// FieldSchema is a resolved field on an entity schema.
type FieldSchema struct {
	Name        string
	Optional    bool
	Type        ast.TypeExpression
	Default     string
	HasDefault  bool
	Description string
}

// SectionSchema is a resolved section on an entity schema.
type SectionSchema struct {
	Name        string
	Optional    bool
	Description string
}

// ResolvedEntitySchema is the product of replaying every schema entry
// that targets one entity name.
type ResolvedEntitySchema struct {
	Name        string
	Description string
	// Fields and Sections preserve insertion order; later alter-entity
	// applications may append, overwrite, or remove entries.
	FieldOrder   []string
	Fields       map[string]FieldSchema
	SectionOrder []string
	Sections     map[string]SectionSchema
	DefinedAt    ast.Timestamp
	DefinedIn    string
}

func newResolvedSchema(name string) *ResolvedEntitySchema {
	return &ResolvedEntitySchema{
		Name:     name,
		Fields:   map[string]FieldSchema{},
		Sections: map[string]SectionSchema{},
	}
}

func (r *ResolvedEntitySchema) setField(f FieldSchema) {
	if _, exists := r.Fields[f.Name]; !exists {
		r.FieldOrder = append(r.FieldOrder, f.Name)
	}
	r.Fields[f.Name] = f
}

func (r *ResolvedEntitySchema) removeField(name string) {
	delete(r.Fields, name)
	r.FieldOrder = removeString(r.FieldOrder, name)
}

func (r *ResolvedEntitySchema) setSection(s SectionSchema) {
	if _, exists := r.Sections[s.Name]; !exists {
		r.SectionOrder = append(r.SectionOrder, s.Name)
	}
	r.Sections[s.Name] = s
}

func (r *ResolvedEntitySchema) removeSection(name string) {
	delete(r.Sections, name)
	r.SectionOrder = removeString(r.SectionOrder, name)
}

func removeString(list []string, s string) []string {
	out := list[:0]
	for _, v := range list {
		if v != s {
			out = append(out, v)
		}
	}
	return out
}

// schemaSource is one schema entry plus the file it came from, used only
// for the sort in Registry.rebuild.
type schemaSource struct {
	entry *ast.Entry
	file  string
}

// Diagnostic is a plain record describing a registry-level finding
// (duplicate-entity) the rules package turns into a diagnostic.Diagnostic.
type Diagnostic struct {
	Code     string
	Entity   string
	Location ast.Location
	File     string
}

// Registry resolves schemas across the whole workspace.
type Registry struct {
	resolved    map[string]*ResolvedEntitySchema
	diagnostics []Diagnostic
}

// Build replays every schema entry across sources (one slice of schema
// entries per file, keyed by filename) and produces a Registry.
func Build(bySource map[string][]*ast.Entry) *Registry {
	var all []schemaSource
	for file, entries := range bySource {
		for _, e := range entries {
			all = append(all, schemaSource{entry: e, file: file})
		}
	}
	sort.SliceStable(all, func(i, j int) bool {
		return less(all[i], all[j])
	})

	r := &Registry{resolved: map[string]*ResolvedEntitySchema{}}
	seenDefine := map[string]bool{}
	for _, s := range all {
		name := s.entry.Schema.Header.Entity
		target, ok := r.resolved[name]
		if !ok {
			target = newResolvedSchema(name)
			r.resolved[name] = target
		}
		switch s.entry.Schema.Header.Directive {
		case "define-entity":
			if seenDefine[name] {
				r.diagnostics = append(r.diagnostics, Diagnostic{
					Code: "duplicate-entity", Entity: name, Location: s.entry.Schema.Header.Location, File: s.file,
				})
			}
			seenDefine[name] = true
			target.Description = s.entry.Schema.Description
			target.DefinedAt = s.entry.Schema.Header.Timestamp
			target.DefinedIn = s.file
			applyFieldsAndSections(target, s.entry.Schema)
		case "alter-entity":
			applyFieldsAndSections(target, s.entry.Schema)
		}
	}
	return r
}

func applyFieldsAndSections(target *ResolvedEntitySchema, se *ast.SchemaEntry) {
	for _, f := range se.Fields {
		target.setField(FieldSchema{
			Name: f.Name, Optional: f.Optional, Type: f.Type,
			Default: f.Default, HasDefault: f.HasDefault, Description: f.Description,
		})
	}
	for _, sec := range se.Sections {
		target.setSection(SectionSchema{Name: sec.Name, Optional: sec.Optional, Description: sec.Description})
	}
	for _, name := range se.RemoveFields {
		target.removeField(name)
	}
	for _, name := range se.RemoveSections {
		target.removeSection(name)
	}
}

func less(a, b schemaSource) bool {
	ta, tb := a.entry.Schema.Header.Timestamp, b.entry.Schema.Header.Timestamp
	ka := formattedTimestamp(ta)
	kb := formattedTimestamp(tb)
	if ka != kb {
		return ka < kb
	}
	if a.file != b.file {
		return a.file < b.file
	}
	return a.entry.Location.StartIndex < b.entry.Location.StartIndex
}

func formattedTimestamp(t ast.Timestamp) string {
	return t.Raw
}

// Get returns the resolved schema for entityName, or nil if undefined.
func (r *Registry) Get(entityName string) *ResolvedEntitySchema {
	return r.resolved[entityName]
}

// Names returns every entity name with a resolved schema.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.resolved))
	for n := range r.resolved {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Diagnostics returns registry-level findings (e.g. duplicate-entity)
// produced while replaying schema entries.
func (r *Registry) Diagnostics() []Diagnostic {
	return r.diagnostics
}

// Package services provides the read-only language-service queries over
// a workspace snapshot: definition, references, hover-style navigation,
// and semantic tokens. All functions are pure over an immutable
// workspace; none mutates.
package services

import (
	"sort"
	"strings"

	"github.com/rejot-dev/thalo/internal/ast"
	"github.com/rejot-dev/thalo/internal/logging"
	"github.com/rejot-dev/thalo/internal/semantic"
	"github.com/rejot-dev/thalo/internal/workspace"
)

// DefinitionResult is where a link id is defined.
type DefinitionResult struct {
	File       string
	Location   ast.Location
	Definition semantic.LinkDefinition
}

// FindDefinition returns the workspace's deterministic definition of
// linkID, or nil.
func FindDefinition(ws *workspace.Workspace, linkID string) *DefinitionResult {
	def, ok := ws.GetLinkDefinition(linkID)
	if !ok {
		return nil
	}
	return &DefinitionResult{File: def.File, Location: def.Location, Definition: def}
}

// ReferenceLocation is one place a name is mentioned.
type ReferenceLocation struct {
	File         string
	Location     ast.Location
	IsDefinition bool
}

// ReferencesResult collects every location mentioning a name, in stable
// (file, start offset) order.
type ReferencesResult struct {
	Locations []ReferenceLocation
}

func sortLocations(locs []ReferenceLocation) {
	sort.SliceStable(locs, func(i, j int) bool {
		if locs[i].File != locs[j].File {
			return locs[i].File < locs[j].File
		}
		return locs[i].Location.StartIndex < locs[j].Location.StartIndex
	})
}

// FindReferences returns every reference to linkID, prepending the
// definition when includeDeclaration is set.
func FindReferences(ws *workspace.Workspace, linkID string, includeDeclaration bool) *ReferencesResult {
	var locs []ReferenceLocation
	if includeDeclaration {
		if def, ok := ws.GetLinkDefinition(linkID); ok {
			locs = append(locs, ReferenceLocation{File: def.File, Location: def.Location, IsDefinition: true})
		}
	}
	for _, ref := range ws.GetLinkReferences(linkID) {
		locs = append(locs, ReferenceLocation{File: ref.File, Location: ref.Location})
	}
	sortLocations(locs)
	logging.Services("references for ^%s: %d locations", linkID, len(locs))
	return &ReferencesResult{Locations: locs}
}

// FindTagReferences returns the header location of every entry tagged
// with tag.
func FindTagReferences(ws *workspace.Workspace, tag string) *ReferencesResult {
	var locs []ReferenceLocation
	forEachEntry(ws, func(file string, e *ast.Entry) {
		h := headerOf(e)
		if h == nil {
			return
		}
		for _, t := range h.Tags {
			if t == tag {
				locs = append(locs, ReferenceLocation{File: file, Location: h.Location})
				return
			}
		}
	})
	sortLocations(locs)
	return &ReferencesResult{Locations: locs}
}

// FindEntityReferences returns every use of an entity name: schema
// entries defining or altering it (marked as definitions) and instance
// entries using it.
func FindEntityReferences(ws *workspace.Workspace, entity string) *ReferencesResult {
	var locs []ReferenceLocation
	forEachEntry(ws, func(file string, e *ast.Entry) {
		switch e.Variant {
		case ast.VariantSchema:
			if e.Schema.Header.Entity == entity {
				locs = append(locs, ReferenceLocation{File: file, Location: e.Schema.Header.Location, IsDefinition: true})
			}
		case ast.VariantInstance:
			if e.Instance.Header.Entity == entity {
				locs = append(locs, ReferenceLocation{File: file, Location: e.Instance.Header.Location})
			}
		}
	})
	sortLocations(locs)
	return &ReferencesResult{Locations: locs}
}

// FindFieldReferences returns field-definition sites (definitions) and
// metadata uses of a field on instances of entity.
func FindFieldReferences(ws *workspace.Workspace, entity, field string) *ReferencesResult {
	var locs []ReferenceLocation
	forEachEntry(ws, func(file string, e *ast.Entry) {
		switch e.Variant {
		case ast.VariantSchema:
			if e.Schema.Header.Entity != entity {
				return
			}
			for i := range e.Schema.Fields {
				if e.Schema.Fields[i].Name == field {
					locs = append(locs, ReferenceLocation{File: file, Location: e.Schema.Fields[i].Location, IsDefinition: true})
				}
			}
		case ast.VariantInstance:
			if e.Instance.Header.Entity != entity {
				return
			}
			for i := range e.Instance.Metadata {
				if e.Instance.Metadata[i].Key == field {
					locs = append(locs, ReferenceLocation{File: file, Location: e.Instance.Metadata[i].Location})
				}
			}
		}
	})
	sortLocations(locs)
	return &ReferencesResult{Locations: locs}
}

// FindSectionReferences returns section-definition sites (definitions)
// and markdown-header uses of a section on instances of entity.
func FindSectionReferences(ws *workspace.Workspace, entity, section string) *ReferencesResult {
	var locs []ReferenceLocation
	forEachEntry(ws, func(file string, e *ast.Entry) {
		switch e.Variant {
		case ast.VariantSchema:
			if e.Schema.Header.Entity != entity {
				return
			}
			for i := range e.Schema.Sections {
				if e.Schema.Sections[i].Name == section {
					locs = append(locs, ReferenceLocation{File: file, Location: e.Schema.Sections[i].Location, IsDefinition: true})
				}
			}
		case ast.VariantInstance:
			if e.Instance.Header.Entity != entity || e.Instance.Content == nil {
				return
			}
			for _, child := range e.Instance.Content.Children {
				if child.Kind == ast.ContentMDHeader && child.Name == section {
					locs = append(locs, ReferenceLocation{File: file, Location: child.Location})
				}
			}
		}
	})
	sortLocations(locs)
	return &ReferencesResult{Locations: locs}
}

func forEachEntry(ws *workspace.Workspace, fn func(file string, e *ast.Entry)) {
	for _, m := range ws.AllModels() {
		for i := range m.AST.Entries {
			fn(m.File, &m.AST.Entries[i])
		}
	}
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

// Hover produces a short markdown description of whatever sits at the
// given context, or "" when there is nothing useful to say.
func Hover(ws *workspace.Workspace, nodeCtx NodeContext) string {
	switch nodeCtx.Kind {
	case ContextLink:
		def, ok := ws.GetLinkDefinition(nodeCtx.Name)
		if !ok {
			return "Unresolved link `^" + nodeCtx.Name + "`"
		}
		h := headerOf(def.Entry)
		if h == nil {
			return "Link `^" + nodeCtx.Name + "`"
		}
		return "**" + h.Title + "** (" + h.Entity + ", " + def.File + ")"
	case ContextEntity, ContextSchemaEntity:
		resolved := ws.SchemaRegistry().Get(nodeCtx.Name)
		if resolved == nil {
			return "Unknown entity `" + nodeCtx.Name + "`"
		}
		var sb strings.Builder
		sb.WriteString("**" + resolved.Name + "** — " + resolved.Description)
		for _, name := range resolved.FieldOrder {
			f := resolved.Fields[name]
			sb.WriteString("\n- `" + name + "`: " + f.Type.Raw)
		}
		return sb.String()
	case ContextTag:
		return "Tag `#" + nodeCtx.Name + "`"
	default:
		return ""
	}
}

package services

import (
	"strings"

	"github.com/rejot-dev/thalo/internal/ast"
	"github.com/rejot-dev/thalo/internal/fence"
	"github.com/rejot-dev/thalo/internal/semantic"
)

// ContextKind classifies what sits under a cursor position.
type ContextKind int

const (
	ContextUnknown ContextKind = iota
	ContextLink
	ContextTag
	ContextEntity
	ContextSchemaEntity
	ContextMetadataKey
	ContextSectionHeader
	ContextFieldName
	ContextSectionName
	ContextDirective
	ContextTimestamp
	ContextTitle
	ContextType
)

// NodeContext is the classified cursor target handed to definition,
// references, hover, and completion handlers.
type NodeContext struct {
	Kind  ContextKind
	Name  string
	Entry *ast.Entry
	// Entity is the surrounding entry's entity name, for field/section
	// lookups that are scoped per entity.
	Entity string
}

// FindNodeAtPosition classifies the cursor at a file-absolute 0-based
// (line, column) within model.
func FindNodeAtPosition(model *semantic.Model, pos fence.Position) NodeContext {
	offset := model.LineIndex.PositionToOffset(pos)
	entry := entryAt(model, offset)
	if entry == nil {
		return NodeContext{Kind: ContextUnknown}
	}
	h := headerOf(entry)
	if h == nil {
		return NodeContext{Kind: ContextUnknown, Entry: entry}
	}

	ctx := NodeContext{Entry: entry, Entity: h.Entity}

	// header line?
	if pos.Line == h.Location.StartPosition.Line {
		classifyHeaderColumn(&ctx, h, lineText(model, pos.Line), pos.Column, h.Location.StartPosition.Column)
		return ctx
	}

	// metadata line?
	for _, md := range metadataOf(entry) {
		if offset < md.Location.StartIndex || offset > md.Location.EndIndex {
			continue
		}
		if offset <= md.Location.StartIndex+len(md.Key) {
			ctx.Kind = ContextMetadataKey
			ctx.Name = md.Key
			return ctx
		}
		if link := linkAtOffset(md.Value, offset); link != "" {
			ctx.Kind = ContextLink
			ctx.Name = link
			return ctx
		}
		ctx.Kind = ContextUnknown
		return ctx
	}

	// content markdown header?
	if c := contentOf(entry); c != nil {
		for _, child := range c.Children {
			if child.Kind != ast.ContentMDHeader {
				continue
			}
			if offset >= child.Location.StartIndex && offset <= child.Location.EndIndex {
				ctx.Kind = ContextSectionHeader
				ctx.Name = child.Name
				return ctx
			}
		}
	}

	// schema field/section line?
	if entry.Variant == ast.VariantSchema {
		for i := range entry.Schema.Fields {
			f := &entry.Schema.Fields[i]
			if offset < f.Location.StartIndex || offset > f.Location.EndIndex {
				continue
			}
			if offset <= f.Location.StartIndex+len(f.Name) {
				ctx.Kind = ContextFieldName
				ctx.Name = f.Name
			} else {
				ctx.Kind = ContextType
				ctx.Name = f.Type.Raw
			}
			return ctx
		}
		for i := range entry.Schema.Sections {
			s := &entry.Schema.Sections[i]
			if offset >= s.Location.StartIndex && offset <= s.Location.EndIndex {
				ctx.Kind = ContextSectionName
				ctx.Name = s.Name
				return ctx
			}
		}
	}

	ctx.Kind = ContextUnknown
	return ctx
}

// classifyHeaderColumn splits a header line into its token spans and
// classifies col against them. headerStartCol is the header's first
// column (nonzero inside indented markdown fences).
func classifyHeaderColumn(ctx *NodeContext, h *ast.Header, line string, col, headerStartCol int) {
	rel := col - headerStartCol
	text := line
	if headerStartCol > 0 && headerStartCol <= len(line) {
		text = line[headerStartCol:]
	}
	if rel < 0 || rel > len(text) {
		ctx.Kind = ContextUnknown
		return
	}

	type span struct {
		start, end int
		kind       ContextKind
		name       string
	}
	var spans []span
	cursor := 0
	push := func(token string, kind ContextKind, name string) {
		idx := strings.Index(text[cursor:], token)
		if idx < 0 {
			return
		}
		start := cursor + idx
		spans = append(spans, span{start: start, end: start + len(token), kind: kind, name: name})
		cursor = start + len(token)
	}

	push(h.Timestamp.Raw, ContextTimestamp, h.Timestamp.Raw)
	push(h.Directive, ContextDirective, h.Directive)
	entityKind := ContextEntity
	if h.Directive == "define-entity" || h.Directive == "alter-entity" {
		entityKind = ContextSchemaEntity
	}
	push(h.Entity, entityKind, h.Entity)
	push(`"`+h.Title+`"`, ContextTitle, h.Title)
	if h.HasLink {
		push("^"+h.Link, ContextLink, h.Link)
	}
	for _, tag := range h.Tags {
		push("#"+tag, ContextTag, tag)
	}

	for _, s := range spans {
		if rel >= s.start && rel < s.end {
			ctx.Kind = s.kind
			ctx.Name = s.name
			return
		}
	}
	ctx.Kind = ContextUnknown
}

func entryAt(model *semantic.Model, offset int) *ast.Entry {
	for i := range model.AST.Entries {
		e := &model.AST.Entries[i]
		if offset >= e.Location.StartIndex && offset <= e.Location.EndIndex {
			return e
		}
	}
	return nil
}

func lineText(model *semantic.Model, line int) string {
	start := model.LineIndex.PositionToOffset(fence.Position{Line: line})
	end := model.LineIndex.PositionToOffset(fence.Position{Line: line + 1})
	text := string(model.Source[start:end])
	return strings.TrimRight(text, "\n")
}

func metadataOf(e *ast.Entry) []ast.Metadata {
	switch e.Variant {
	case ast.VariantInstance:
		return e.Instance.Metadata
	case ast.VariantSynthesis:
		return e.Synthesis.Metadata
	case ast.VariantActualize:
		return e.Actualize.Metadata
	default:
		return nil
	}
}

func contentOf(e *ast.Entry) *ast.Content {
	switch e.Variant {
	case ast.VariantInstance:
		return e.Instance.Content
	case ast.VariantSynthesis:
		return e.Synthesis.Content
	default:
		return nil
	}
}

func linkAtOffset(v ast.ValueContent, offset int) string {
	if v.Kind == ast.ValueArray {
		for _, el := range v.Elements {
			if link := linkAtOffset(el, offset); link != "" {
				return link
			}
		}
		return ""
	}
	if v.Kind != ast.ValueLink {
		return ""
	}
	if offset >= v.Location.StartIndex && offset <= v.Location.EndIndex {
		return strings.TrimPrefix(v.Raw, "^")
	}
	return ""
}

// Package format re-serializes a projected AST back to canonical thalo
// source: headers, metadata lines, content, and schema blocks, with two
// spaces of indentation and entries separated by one blank line.
// Metadata keys keep source order; the grammar defines no canonical
// ordering beyond "as written".
package format

import (
	"strings"

	"github.com/rejot-dev/thalo/internal/ast"
	"github.com/rejot-dev/thalo/internal/logging"
)

const indent = "  "

// Format prints every entry of sf, separated by blank lines, with a
// trailing newline.
func Format(sf *ast.SourceFile) []byte {
	parts := make([]string, 0, len(sf.Entries))
	for i := range sf.Entries {
		parts = append(parts, FormatEntry(&sf.Entries[i]))
	}
	out := strings.Join(parts, "\n")
	if out != "" && !strings.HasSuffix(out, "\n") {
		out += "\n"
	}
	logging.Format("formatted %d entries (%d bytes)", len(sf.Entries), len(out))
	return []byte(out)
}

// FormatEntry prints one entry in canonical form, ending with a newline.
// Error-variant entries round-trip their raw text unchanged.
func FormatEntry(e *ast.Entry) string {
	switch e.Variant {
	case ast.VariantInstance:
		return formatInstance(e.Instance)
	case ast.VariantSchema:
		return formatSchema(e.Schema)
	case ast.VariantSynthesis:
		return formatSynthesis(e.Synthesis)
	case ast.VariantActualize:
		return formatActualize(e.Actualize)
	default:
		raw := e.Error.Raw
		if !strings.HasSuffix(raw, "\n") {
			raw += "\n"
		}
		return raw
	}
}

// FormatHeader prints a header line without the trailing newline.
func FormatHeader(h *ast.Header) string {
	var sb strings.Builder
	sb.WriteString(h.Timestamp.Formatted())
	sb.WriteString(" ")
	sb.WriteString(h.Directive)
	sb.WriteString(" ")
	sb.WriteString(h.Entity)
	sb.WriteString(" \"")
	sb.WriteString(h.Title)
	sb.WriteString("\"")
	if h.HasLink {
		sb.WriteString(" ^")
		sb.WriteString(h.Link)
	}
	for _, tag := range h.Tags {
		sb.WriteString(" #")
		sb.WriteString(tag)
	}
	return sb.String()
}

func formatMetadata(sb *strings.Builder, meta []ast.Metadata) {
	for _, md := range meta {
		sb.WriteString(indent)
		sb.WriteString(md.Key)
		sb.WriteString(": ")
		sb.WriteString(md.Value.Raw)
		sb.WriteString("\n")
	}
}

func formatContent(sb *strings.Builder, c *ast.Content) {
	if c == nil || len(c.Children) == 0 {
		return
	}
	sb.WriteString("\n")
	for _, child := range c.Children {
		if child.Kind == ast.ContentBlank {
			sb.WriteString("\n")
			continue
		}
		sb.WriteString(indent)
		sb.WriteString(strings.TrimRight(child.Text, " \t"))
		sb.WriteString("\n")
	}
}

func formatInstance(ie *ast.InstanceEntry) string {
	var sb strings.Builder
	sb.WriteString(FormatHeader(&ie.Header))
	sb.WriteString("\n")
	formatMetadata(&sb, ie.Metadata)
	formatContent(&sb, ie.Content)
	return sb.String()
}

func formatSynthesis(se *ast.SynthesisEntry) string {
	var sb strings.Builder
	sb.WriteString(FormatHeader(&se.Header))
	sb.WriteString("\n")
	formatMetadata(&sb, se.Metadata)
	formatContent(&sb, se.Content)
	return sb.String()
}

func formatActualize(ae *ast.ActualizeEntry) string {
	var sb strings.Builder
	sb.WriteString(FormatHeader(&ae.Header))
	sb.WriteString("\n")
	formatMetadata(&sb, ae.Metadata)
	return sb.String()
}

// FormatFieldDefinition prints one schema field line without
// indentation or newline.
func FormatFieldDefinition(f *ast.FieldDefinition) string {
	var sb strings.Builder
	sb.WriteString(f.Name)
	if f.Optional {
		sb.WriteString("?")
	}
	sb.WriteString(": ")
	sb.WriteString(f.Type.Raw)
	if f.HasDefault {
		sb.WriteString(" = ")
		sb.WriteString(f.Default)
	}
	if f.Description != "" {
		sb.WriteString(" ; \"")
		sb.WriteString(f.Description)
		sb.WriteString("\"")
	}
	return sb.String()
}

// FormatSectionDefinition prints one schema section line without
// indentation or newline.
func FormatSectionDefinition(s *ast.SectionDefinition) string {
	var sb strings.Builder
	sb.WriteString(s.Name)
	if s.Optional {
		sb.WriteString("?")
	}
	if s.Description != "" {
		sb.WriteString(" ; \"")
		sb.WriteString(s.Description)
		sb.WriteString("\"")
	}
	return sb.String()
}

func formatSchema(se *ast.SchemaEntry) string {
	var sb strings.Builder
	sb.WriteString(FormatHeader(&se.Header))
	sb.WriteString("\n")
	writeBlock := func(name string, lines []string) {
		if len(lines) == 0 {
			return
		}
		sb.WriteString(indent)
		sb.WriteString("# ")
		sb.WriteString(name)
		sb.WriteString("\n")
		for _, l := range lines {
			sb.WriteString(indent)
			sb.WriteString(indent)
			sb.WriteString(l)
			sb.WriteString("\n")
		}
	}
	var fieldLines []string
	for i := range se.Fields {
		fieldLines = append(fieldLines, FormatFieldDefinition(&se.Fields[i]))
	}
	var sectionLines []string
	for i := range se.Sections {
		sectionLines = append(sectionLines, FormatSectionDefinition(&se.Sections[i]))
	}
	writeBlock("Metadata", fieldLines)
	writeBlock("Sections", sectionLines)
	writeBlock("Remove Metadata", se.RemoveFields)
	writeBlock("Remove Sections", se.RemoveSections)
	return sb.String()
}

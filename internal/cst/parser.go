package cst

import (
	"regexp"
	"strings"
)

// directive identifies which of the four entry grammars a header line
// selects.
const (
	DirectiveCreate           = "create"
	DirectiveUpdate           = "update"
	DirectiveDefineEntity     = "define-entity"
	DirectiveAlterEntity      = "alter-entity"
	DirectiveDefineSynthesis  = "define-synthesis"
	DirectiveActualizeSynth   = "actualize-synthesis"
)

var (
	headerPattern = regexp.MustCompile(`^(\S+)\s+([a-z][a-z-]*)\s+([a-z][a-z0-9-]*)\s+"([^"]*)"(.*)$`)
	linkPattern   = regexp.MustCompile(`\^([A-Za-z0-9_-]+)`)
	tagPattern    = regexp.MustCompile(`#([A-Za-z0-9_-]+)`)
	timestampRe   = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})T(\d{2}):(\d{2})(Z|[+-]\d{2}:\d{2})?$`)
	metadataRe    = regexp.MustCompile(`^([a-z][a-zA-Z0-9_-]*):\s*(.*)$`)
	schemaHeadRe  = regexp.MustCompile(`^#\s+(Metadata|Sections|Remove Metadata|Remove Sections)\s*$`)
	dateOnlyRe    = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// isInstanceDirective reports whether directive selects the
// InstanceEntry grammar.
func isInstanceDirective(d string) bool { return d == DirectiveCreate || d == DirectiveUpdate }

// isSchemaDirective reports whether directive selects the SchemaEntry
// grammar.
func isSchemaDirective(d string) bool { return d == DirectiveDefineEntity || d == DirectiveAlterEntity }

// parser holds the line table and source for one parse; it is discarded
// after Parse returns, so it carries no state across calls, matching the
// scanner it wraps, which is itself stateless.
type parser struct {
	src   []byte
	lines []line
}

// Parse builds a source_file concrete syntax tree from raw thalo source
// (already extracted from any enclosing markdown fence).
func Parse(src []byte) *Node {
	p := &parser{src: src, lines: splitLines(src)}
	root := New("source_file", 0, uint32(len(src)), Point{}, pointAt(p.lines, len(src)))

	i := 0
	for i < len(p.lines) {
		l := p.lines[i]
		if l.isBlank() || l.isIndented() {
			i++
			continue
		}
		entry, next := p.parseEntry(i)
		root.AddChild(entry)
		i = next
	}
	return root
}

// effectiveText returns a line's comment-stripped, right-trimmed text
// (still including leading indentation).
func (p *parser) effectiveText(l line) string {
	end := l.end
	if l.commentStart >= 0 {
		end = l.commentStart
	}
	return strings.TrimRight(string(p.src[l.start:end]), " \t\r")
}

// bodyEnd returns the line index one past the last line belonging to the
// entry whose header is at headerIdx (the next column-0 content line, or
// len(lines)).
func (p *parser) bodyEnd(headerIdx int) int {
	for j := headerIdx + 1; j < len(p.lines); j++ {
		l := p.lines[j]
		if !l.isBlank() && !l.isIndented() {
			return j
		}
	}
	return len(p.lines)
}

func (p *parser) parseEntry(headerIdx int) (*Node, int) {
	l := p.lines[headerIdx]
	end := p.bodyEnd(headerIdx)
	startPoint := Point{Row: uint32(headerIdx), Column: 0}
	endLine := p.lines[end-1]
	endPoint := pointAt(p.lines, endLine.end)

	header, directive := p.parseHeader(l)

	var kind string
	switch {
	case isInstanceDirective(directive):
		kind = "instance_entry"
	case isSchemaDirective(directive):
		kind = "schema_entry"
	case directive == DirectiveDefineSynthesis:
		kind = "synthesis_entry"
	case directive == DirectiveActualizeSynth:
		kind = "actualize_entry"
	default:
		kind = "entry"
	}

	entry := New(kind, uint32(l.start), uint32(endLine.end), startPoint, endPoint)
	entry.AddChild(header)
	entry.SetField("header", header)

	bodyLines := make([]int, 0, end-headerIdx-1)
	for j := headerIdx + 1; j < end; j++ {
		bodyLines = append(bodyLines, j)
	}

	switch kind {
	case "schema_entry":
		for _, block := range p.parseSchemaBlocks(bodyLines) {
			entry.AddChild(block)
		}
	case "instance_entry", "synthesis_entry":
		metaLines, contentLines := p.splitMetadataAndContent(bodyLines)
		for _, m := range p.parseMetadataLines(metaLines) {
			entry.AddChild(m)
		}
		if len(contentLines) > 0 {
			content := p.parseContentBlock(contentLines)
			entry.AddChild(content)
			entry.SetField("content", content)
		}
	case "actualize_entry":
		for _, m := range p.parseMetadataLines(bodyLines) {
			entry.AddChild(m)
		}
	}

	return entry, end
}

// parseHeader parses a header line into a "header" node. On success the
// node's decoded fields are reachable via HeaderValues; on a malformed
// header the node gets a single ERROR child spanning the whole line and
// HeaderValues reports ok=false, per §7's "syntax errors never abort
// analysis" contract (the caller still gets an entry node to attach
// whatever body lines follow).
func (p *parser) parseHeader(l line) (*Node, string) {
	text := p.effectiveText(l)
	trimmed := strings.TrimLeft(text, " \t")
	start := uint32(l.start + (len(text) - len(trimmed)))
	startPoint := pointAt(p.lines, int(start))
	endPoint := pointAt(p.lines, l.end)
	header := New("header", start, uint32(l.end), startPoint, endPoint)

	m := headerPattern.FindStringSubmatch(trimmed)
	if m == nil {
		header.AddChild(NewError(start, uint32(l.end), startPoint, endPoint))
		return header, ""
	}

	tsRaw, directive, entity, title, rest := m[1], m[2], m[3], m[4], m[5]

	ts := New("timestamp", start, start+uint32(len(tsRaw)), startPoint, startPoint)
	if !timestampRe.MatchString(tsRaw) {
		ts = NewError(start, start+uint32(len(tsRaw)), startPoint, startPoint)
	}
	header.AddChild(ts)
	header.SetField("timestamp", ts)

	if link := firstGroup(linkPattern, rest); link != "" {
		linkNode := New("link", start, uint32(l.end), startPoint, endPoint)
		header.AddChild(linkNode)
		header.SetField("link", linkNode)
	}
	for range tagPattern.FindAllStringSubmatch(rest, -1) {
		header.AddChild(New("tag", start, uint32(l.end), startPoint, endPoint))
	}

	// Decoded textual fields, read by internal/ast via HeaderValues rather
	// than by slicing sub-ranges of the header node.
	header.data = &headerValues{
		timestamp: tsRaw,
		directive: directive,
		entity:    entity,
		title:     title,
		link:      firstGroup(linkPattern, rest),
		tags:      allGroups(tagPattern, rest),
	}

	return header, directive
}

// headerValues carries the header's decoded textual fields. The hand-
// written parser does not slice exact byte ranges for every header
// sub-field (timestamp aside); callers needing precise locations for
// title/entity/link/tag use the header's own range.
type headerValues struct {
	timestamp string
	directive string
	entity    string
	title     string
	link      string
	tags      []string
}

func firstGroup(re *regexp.Regexp, s string) string {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	return m[1]
}

func allGroups(re *regexp.Regexp, s string) []string {
	matches := re.FindAllStringSubmatch(s, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m[1])
	}
	return out
}

// HeaderValues exposes the decoded header fields to internal/ast.
func (n *Node) HeaderValues() (timestamp, directive, entity, title, link string, tags []string, ok bool) {
	if n == nil {
		return "", "", "", "", "", nil, false
	}
	v, ok := n.data.(*headerValues)
	if !ok {
		return "", "", "", "", "", nil, false
	}
	return v.timestamp, v.directive, v.entity, v.title, v.link, v.tags, true
}

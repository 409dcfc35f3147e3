package cst

import (
	"regexp"
	"strings"
)

var fieldDefRe = regexp.MustCompile(`^([a-z][a-zA-Z0-9_-]*)(\?)?:\s*(.+)$`)

// splitMetadataAndContent partitions an instance/synthesis entry's body
// lines into metadata lines and content lines. Parsing stays in
// "metadata mode" as long as each non-blank line matches the metadata
// key/value shape; the first line that doesn't switches to "content
// mode" for the remainder of the entry, matching the grammar's
// `metadata* content?` shape without requiring a dedicated blank-line
// separator.
func (p *parser) splitMetadataAndContent(bodyLines []int) (metaLines, contentLines []int) {
	inContent := false
	for _, idx := range bodyLines {
		l := p.lines[idx]
		if l.isBlank() {
			if inContent {
				contentLines = append(contentLines, idx)
			}
			continue
		}
		text := strings.TrimSpace(p.effectiveText(l))
		if !inContent && metadataRe.MatchString(text) {
			metaLines = append(metaLines, idx)
			continue
		}
		inContent = true
		contentLines = append(contentLines, idx)
	}
	// blank lines after the last content line (including the empty line
	// after a final newline) are not content
	for len(contentLines) > 0 && p.lines[contentLines[len(contentLines)-1]].isBlank() {
		contentLines = contentLines[:len(contentLines)-1]
	}
	return metaLines, contentLines
}

func (p *parser) parseMetadataLines(lineIdxs []int) []*Node {
	nodes := make([]*Node, 0, len(lineIdxs))
	for _, idx := range lineIdxs {
		nodes = append(nodes, p.parseMetadataLine(idx))
	}
	return nodes
}

func (p *parser) parseMetadataLine(idx int) *Node {
	l := p.lines[idx]
	text := p.effectiveText(l)
	trimmed := strings.TrimLeft(text, " \t")
	lead := len(text) - len(trimmed)
	startPoint := pointAt(p.lines, l.start+lead)
	endPoint := pointAt(p.lines, l.end)
	node := New("metadata", uint32(l.start+lead), uint32(l.end), startPoint, endPoint)

	m := metadataRe.FindStringSubmatch(strings.TrimSpace(trimmed))
	if m == nil {
		node.AddChild(NewError(uint32(l.start+lead), uint32(l.end), startPoint, endPoint))
		return node
	}
	key, rawValue := m[1], m[2]

	keyStart := l.start + lead
	keyNode := New("key", uint32(keyStart), uint32(keyStart+len(key)), startPoint, startPoint)
	node.AddChild(keyNode)
	node.SetField("key", keyNode)

	valueStart := keyStart + strings.Index(text[lead:], ":") + 1
	for valueStart < l.end && (p.src[valueStart] == ' ' || p.src[valueStart] == '\t') {
		valueStart++
	}
	valueNode := p.parseValue(rawValue, valueStart, l.end)
	node.AddChild(valueNode)
	node.SetField("value", valueNode)
	return node
}

// parseValue parses a metadata value, which may be a value_array (comma-
// separated) or a single value-content node.
func (p *parser) parseValue(raw string, startByte, endByte int) *Node {
	tokens := splitTopLevelCommas(raw)
	startPoint := pointAt(p.lines, startByte)
	endPoint := pointAt(p.lines, endByte)
	if len(tokens) <= 1 {
		return p.parseValueContent(strings.TrimSpace(raw), startByte, endByte)
	}

	arr := New("value_array", uint32(startByte), uint32(endByte), startPoint, endPoint)
	cursor := startByte
	for _, tok := range tokens {
		idx := strings.Index(string(p.src[cursor:endByte]), strings.TrimSpace(tok))
		tokStart := cursor
		if idx >= 0 {
			tokStart = cursor + idx
		}
		tokEnd := tokStart + len(strings.TrimSpace(tok))
		arr.AddChild(p.parseValueContent(strings.TrimSpace(tok), tokStart, tokEnd))
		cursor = tokEnd
	}
	return arr
}

// valueContent records the decoded kind and raw text of a metadata value
// leaf, mirroring the ValueContent tagged union in internal/ast.
type valueContent struct {
	Kind string // "quoted_string", "link", "datetime", "date_range", "query"
	Raw  string
}

// ValueContent exposes the decoded value payload to internal/ast.
func (n *Node) ValueContent() (valueContent, bool) {
	if n == nil {
		return valueContent{}, false
	}
	v, ok := n.data.(*valueContent)
	if !ok {
		return valueContent{}, false
	}
	return *v, true
}

func (p *parser) parseValueContent(raw string, startByte, endByte int) *Node {
	startPoint := pointAt(p.lines, startByte)
	endPoint := pointAt(p.lines, endByte)

	kind := classifyValue(raw)
	node := New(kind, uint32(startByte), uint32(endByte), startPoint, endPoint)
	node.data = &valueContent{Kind: kind, Raw: raw}
	return node
}

func classifyValue(raw string) string {
	switch {
	case strings.HasPrefix(raw, `"`) && strings.HasSuffix(raw, `"`) && len(raw) >= 2:
		return "quoted_string"
	case strings.HasPrefix(raw, "^"):
		return "link"
	case dateOnlyRe.MatchString(raw):
		return "datetime"
	case strings.Contains(raw, "~"):
		return "date_range"
	default:
		return "query"
	}
}

// splitTopLevelCommas splits raw on commas that are not inside a quoted
// string.
func splitTopLevelCommas(raw string) []string {
	var tokens []string
	inQuote := false
	last := 0
	for i := 0; i < len(raw); i++ {
		switch raw[i] {
		case '"':
			inQuote = !inQuote
		case ',':
			if !inQuote {
				tokens = append(tokens, raw[last:i])
				last = i + 1
			}
		}
	}
	tokens = append(tokens, raw[last:])
	return tokens
}

// findTopLevel returns the index of the first occurrence of sep outside
// a double-quoted span, or -1.
func findTopLevel(s string, sep byte) int {
	inQuote := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '"' {
			inQuote = !inQuote
			continue
		}
		if !inQuote && c == sep {
			return i
		}
	}
	return -1
}

// parseFieldRemainder splits a field-definition's remainder (everything
// after "key:" or "key?:") into its type, optional default, and optional
// description, per the `type (= default)? (; description)?` grammar.
func parseFieldRemainder(remainder string) (typeStr, defaultStr, descStr string) {
	eqIdx := findTopLevel(remainder, '=')
	var typePart, tail string
	if eqIdx >= 0 {
		typePart = remainder[:eqIdx]
		tail = remainder[eqIdx+1:]
	} else {
		typePart = remainder
		tail = ""
	}

	target := &typePart
	if eqIdx >= 0 {
		target = &tail
	}
	if semiIdx := findTopLevel(*target, ';'); semiIdx >= 0 {
		desc := strings.TrimSpace((*target)[semiIdx+1:])
		*target = (*target)[:semiIdx]
		descStr = strings.Trim(strings.TrimSpace(desc), `"`)
	}

	typeStr = strings.TrimSpace(typePart)
	if eqIdx >= 0 {
		defaultStr = strings.TrimSpace(tail)
	}
	return typeStr, defaultStr, descStr
}

// fieldValues records a field_definition's decoded parts.
type fieldValues struct {
	Name     string
	Optional bool
	Type     string
	Default  string
	Desc     string
}

// FieldValues exposes the decoded field_definition payload to internal/ast.
func (n *Node) FieldValues() (fieldValues, bool) {
	if n == nil {
		return fieldValues{}, false
	}
	v, ok := n.data.(*fieldValues)
	if !ok {
		return fieldValues{}, false
	}
	return *v, true
}

func (p *parser) parseFieldDefinition(idx int) *Node {
	l := p.lines[idx]
	text := p.effectiveText(l)
	trimmed := strings.TrimLeft(text, " \t")
	lead := len(text) - len(trimmed)
	startPoint := pointAt(p.lines, l.start+lead)
	endPoint := pointAt(p.lines, l.end)
	node := New("field_definition", uint32(l.start+lead), uint32(l.end), startPoint, endPoint)

	m := fieldDefRe.FindStringSubmatch(strings.TrimSpace(trimmed))
	if m == nil {
		node.AddChild(NewError(uint32(l.start+lead), uint32(l.end), startPoint, endPoint))
		return node
	}
	name, optMark, remainder := m[1], m[2], m[3]
	typeStr, defaultStr, descStr := parseFieldRemainder(remainder)
	node.data = &fieldValues{Name: name, Optional: optMark == "?", Type: typeStr, Default: defaultStr, Desc: descStr}
	return node
}

// sectionValues records a section_definition's decoded parts.
type sectionValues struct {
	Name     string
	Optional bool
	Desc     string
}

// SectionValues exposes the decoded section_definition payload to
// internal/ast.
func (n *Node) SectionValues() (sectionValues, bool) {
	if n == nil {
		return sectionValues{}, false
	}
	v, ok := n.data.(*sectionValues)
	if !ok {
		return sectionValues{}, false
	}
	return *v, true
}

func (p *parser) parseSectionDefinition(idx int) *Node {
	l := p.lines[idx]
	text := p.effectiveText(l)
	trimmed := strings.TrimLeft(text, " \t")
	lead := len(text) - len(trimmed)
	startPoint := pointAt(p.lines, l.start+lead)
	endPoint := pointAt(p.lines, l.end)
	node := New("section_definition", uint32(l.start+lead), uint32(l.end), startPoint, endPoint)

	full := strings.TrimSpace(trimmed)
	namePart := full
	descStr := ""
	if semiIdx := findTopLevel(full, ';'); semiIdx >= 0 {
		namePart = full[:semiIdx]
		descStr = strings.Trim(strings.TrimSpace(full[semiIdx+1:]), `"`)
	}
	namePart = strings.TrimSpace(namePart)
	optional := strings.HasSuffix(namePart, "?")
	if optional {
		namePart = strings.TrimSpace(strings.TrimSuffix(namePart, "?"))
	}
	node.data = &sectionValues{Name: namePart, Optional: optional, Desc: descStr}
	return node
}

// removeValues records a remove-metadata/remove-sections item's name.
type removeValues struct {
	Name string
}

// RemoveValues exposes the decoded remove-item payload to internal/ast.
func (n *Node) RemoveValues() (removeValues, bool) {
	if n == nil {
		return removeValues{}, false
	}
	v, ok := n.data.(*removeValues)
	if !ok {
		return removeValues{}, false
	}
	return *v, true
}

func (p *parser) parseRemoveName(idx int) *Node {
	l := p.lines[idx]
	text := p.effectiveText(l)
	trimmed := strings.TrimLeft(text, " \t")
	lead := len(text) - len(trimmed)
	startPoint := pointAt(p.lines, l.start+lead)
	endPoint := pointAt(p.lines, l.end)
	node := New("remove_item", uint32(l.start+lead), uint32(l.end), startPoint, endPoint)
	node.data = &removeValues{Name: strings.TrimSpace(trimmed)}
	return node
}

func schemaBlockNodeKind(name string) string {
	switch name {
	case "Metadata":
		return "metadata_block"
	case "Sections":
		return "sections_block"
	case "Remove Metadata":
		return "remove_metadata_block"
	case "Remove Sections":
		return "remove_sections_block"
	}
	return "schema_block"
}

func (p *parser) parseSchemaBlocks(bodyLines []int) []*Node {
	var blocks []*Node
	i := 0
	for i < len(bodyLines) {
		idx := bodyLines[i]
		l := p.lines[idx]
		if l.isBlank() {
			i++
			continue
		}
		text := strings.TrimSpace(p.effectiveText(l))
		m := schemaHeadRe.FindStringSubmatch(text)
		if m == nil {
			i++
			continue
		}
		blockKind := m[1]
		headerIndent := l.indentWidth

		j := i + 1
		var itemLines []int
		for j < len(bodyLines) {
			idx2 := bodyLines[j]
			l2 := p.lines[idx2]
			if l2.isBlank() {
				j++
				continue
			}
			// items share the block header's indentation (or sit deeper);
			// the next block header or a shallower line ends the block
			if l2.indentWidth < headerIndent || schemaHeadRe.MatchString(strings.TrimSpace(p.effectiveText(l2))) {
				break
			}
			itemLines = append(itemLines, idx2)
			j++
		}

		lastIdx := idx
		if len(itemLines) > 0 {
			lastIdx = itemLines[len(itemLines)-1]
		}
		startPoint := pointAt(p.lines, l.start)
		endPoint := pointAt(p.lines, p.lines[lastIdx].end)
		block := New(schemaBlockNodeKind(blockKind), uint32(l.start), uint32(p.lines[lastIdx].end), startPoint, endPoint)

		switch blockKind {
		case "Metadata":
			for _, fl := range itemLines {
				block.AddChild(p.parseFieldDefinition(fl))
			}
		case "Sections":
			for _, fl := range itemLines {
				block.AddChild(p.parseSectionDefinition(fl))
			}
		case "Remove Metadata", "Remove Sections":
			for _, fl := range itemLines {
				block.AddChild(p.parseRemoveName(fl))
			}
		}
		blocks = append(blocks, block)
		i = j
	}
	return blocks
}

// parseContentBlock builds a "content" node from an entry's trailing
// content lines, classifying each into md_header/bullet_item/plain_text,
// and inserting a content_blank node for blank lines between them (the
// synthesized CONTENT_BLANK token).
func (p *parser) parseContentBlock(lineIdxs []int) *Node {
	first := p.lines[lineIdxs[0]]
	last := p.lines[lineIdxs[len(lineIdxs)-1]]
	startPoint := pointAt(p.lines, first.start)
	endPoint := pointAt(p.lines, last.end)
	content := New("content", uint32(first.start), uint32(last.end), startPoint, endPoint)

	for _, idx := range lineIdxs {
		l := p.lines[idx]
		if l.isBlank() {
			sp := pointAt(p.lines, l.start)
			ep := pointAt(p.lines, l.end)
			content.AddChild(New("content_blank", uint32(l.start), uint32(l.end), sp, ep))
			continue
		}
		text := p.effectiveText(l)
		trimmed := strings.TrimLeft(text, " \t")
		lead := len(text) - len(trimmed)
		sp := pointAt(p.lines, l.start+lead)
		ep := pointAt(p.lines, l.end)

		var kind string
		switch {
		case strings.HasPrefix(trimmed, "# "):
			kind = "md_header"
		case strings.HasPrefix(trimmed, "- "):
			kind = "bullet_item"
		default:
			kind = "plain_text"
		}
		content.AddChild(New(kind, uint32(l.start+lead), uint32(l.end), sp, ep))
	}
	return content
}

package ast

import (
	"strconv"
	"strings"

	"github.com/rejot-dev/thalo/internal/cst"
)

// Project walks a concrete syntax tree once and builds the typed AST.
// source is the block-relative byte slice the tree was parsed from.
func Project(root *cst.Node, source []byte) *SourceFile {
	sf := &SourceFile{Location: locFromNode(root)}
	for _, child := range root.NamedChildren() {
		sf.Entries = append(sf.Entries, projectEntry(child, source))
	}
	return sf
}

func projectEntry(n *cst.Node, source []byte) Entry {
	loc := locFromNode(n)
	headerNode := n.ChildByFieldName("header")

	ts, directive, entity, title, link, tags, ok := headerNode.HeaderValues()
	if !ok {
		raw := ""
		if headerNode != nil {
			raw = headerNode.Content(source)
		}
		return Entry{
			Variant:  VariantError,
			Location: loc,
			Error:    &SyntaxErrorNode{Raw: raw, Location: locFromNode(headerNode)},
		}
	}

	header := Header{
		Timestamp: projectTimestamp(headerNode, ts),
		Directive: directive,
		Entity:    entity,
		Title:     title,
		HasLink:   link != "",
		Link:      link,
		Tags:      tags,
		Location:  loc,
	}

	switch n.Kind() {
	case "instance_entry":
		meta, content := projectMetadataAndContent(n, source)
		return Entry{
			Variant:  VariantInstance,
			Location: loc,
			Instance: &InstanceEntry{Header: header, Metadata: meta, Content: content, Location: loc},
		}
	case "synthesis_entry":
		meta, content := projectMetadataAndContent(n, source)
		return Entry{
			Variant:   VariantSynthesis,
			Location:  loc,
			Synthesis: &SynthesisEntry{Header: header, Metadata: meta, Content: content, Location: loc},
		}
	case "actualize_entry":
		meta, _ := projectMetadataAndContent(n, source)
		return Entry{
			Variant:   VariantActualize,
			Location:  loc,
			Actualize: &ActualizeEntry{Header: header, Metadata: meta, Location: loc},
		}
	case "schema_entry":
		return Entry{
			Variant:  VariantSchema,
			Location: loc,
			Schema:   projectSchema(n, header, loc),
		}
	default:
		return Entry{Variant: VariantError, Location: loc, Error: &SyntaxErrorNode{Raw: headerNode.Content(source), Location: locFromNode(headerNode)}}
	}
}

func projectTimestamp(headerNode *cst.Node, raw string) Timestamp {
	tsNode := headerNode.ChildByFieldName("timestamp")
	if tsNode != nil && tsNode.IsError() {
		return Timestamp{Raw: raw, Valid: false}
	}
	t := Timestamp{Raw: raw, Valid: true}
	// raw is "YYYY-MM-DDTHH:MM" optionally followed by "Z" or "+HH:MM"/"-HH:MM".
	datePart := raw
	timePart := ""
	if idx := strings.IndexByte(raw, 'T'); idx >= 0 {
		datePart = raw[:idx]
		timePart = raw[idx+1:]
	}
	dateFields := strings.Split(datePart, "-")
	if len(dateFields) == 3 {
		t.Year, _ = strconv.Atoi(dateFields[0])
		t.Month, _ = strconv.Atoi(dateFields[1])
		t.Day, _ = strconv.Atoi(dateFields[2])
	}
	if strings.HasSuffix(timePart, "Z") {
		t.Timezone = "Z"
		timePart = strings.TrimSuffix(timePart, "Z")
	} else if len(timePart) > 5 {
		// "HH:MM" is exactly 5 chars; anything after is a +HH:MM/-HH:MM offset.
		t.Timezone = timePart[5:]
		timePart = timePart[:5]
	}
	hm := strings.Split(timePart, ":")
	if len(hm) == 2 {
		t.Hour, _ = strconv.Atoi(hm[0])
		t.Minute, _ = strconv.Atoi(hm[1])
	}
	return t
}

func projectMetadataAndContent(n *cst.Node, source []byte) ([]Metadata, *Content) {
	var meta []Metadata
	var content *Content
	for _, c := range n.NamedChildren() {
		switch c.Kind() {
		case "metadata":
			meta = append(meta, projectMetadata(c, source))
		case "content":
			cc := projectContent(c, source)
			content = &cc
		}
	}
	return meta, content
}

func projectMetadata(n *cst.Node, source []byte) Metadata {
	loc := locFromNode(n)
	keyNode := n.ChildByFieldName("key")
	valueNode := n.ChildByFieldName("value")
	key := ""
	if keyNode != nil {
		key = keyNode.Content(source)
	}
	return Metadata{Key: key, Value: projectValue(valueNode, source), Location: loc}
}

func projectValue(n *cst.Node, source []byte) ValueContent {
	if n == nil {
		return ValueContent{Kind: ValueError}
	}
	loc := locFromNode(n)
	if n.Kind() == "value_array" {
		elems := make([]ValueContent, 0, n.ChildCount())
		for _, c := range n.NamedChildren() {
			elems = append(elems, projectValueLeaf(c, source))
		}
		return ValueContent{Kind: ValueArray, Elements: elems, Raw: n.Content(source), Location: loc}
	}
	return projectValueLeaf(n, source)
}

func projectValueLeaf(n *cst.Node, source []byte) ValueContent {
	loc := locFromNode(n)
	vc, ok := n.ValueContent()
	if !ok {
		return ValueContent{Kind: ValueError, Raw: n.Content(source), Location: loc}
	}
	kind := map[string]ValueKind{
		"quoted_string": ValueQuotedString,
		"link":          ValueLink,
		"datetime":      ValueDatetime,
		"date_range":    ValueDateRange,
		"query":         ValueQuery,
	}[vc.Kind]
	return ValueContent{Kind: kind, Raw: vc.Raw, Location: loc}
}

func projectContent(n *cst.Node, source []byte) Content {
	loc := locFromNode(n)
	children := make([]ContentChild, 0, n.ChildCount())
	for _, c := range n.NamedChildren() {
		cloc := locFromNode(c)
		text := c.Content(source)
		switch c.Kind() {
		case "md_header":
			name := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(text), "#"))
			children = append(children, ContentChild{Kind: ContentMDHeader, Name: name, Text: text, Location: cloc})
		case "bullet_item":
			children = append(children, ContentChild{Kind: ContentBullet, Text: text, Location: cloc})
		case "content_blank":
			children = append(children, ContentChild{Kind: ContentBlank, Text: text, Location: cloc})
		default:
			children = append(children, ContentChild{Kind: ContentPlainText, Text: text, Location: cloc})
		}
	}
	return Content{Children: children, Location: loc}
}

func projectSchema(n *cst.Node, header Header, loc Location) *SchemaEntry {
	se := &SchemaEntry{Header: header, Description: header.Title, Location: loc}
	for _, c := range n.NamedChildren() {
		switch c.Kind() {
		case "metadata_block":
			for _, f := range c.NamedChildren() {
				se.Fields = append(se.Fields, projectFieldDefinition(f))
			}
		case "sections_block":
			for _, s := range c.NamedChildren() {
				se.Sections = append(se.Sections, projectSectionDefinition(s))
			}
		case "remove_metadata_block":
			for _, r := range c.NamedChildren() {
				if rv, ok := r.RemoveValues(); ok {
					se.RemoveFields = append(se.RemoveFields, rv.Name)
				}
			}
		case "remove_sections_block":
			for _, r := range c.NamedChildren() {
				if rv, ok := r.RemoveValues(); ok {
					se.RemoveSections = append(se.RemoveSections, rv.Name)
				}
			}
		}
	}
	return se
}

func projectFieldDefinition(n *cst.Node) FieldDefinition {
	loc := locFromNode(n)
	fv, ok := n.FieldValues()
	if !ok {
		return FieldDefinition{Location: loc}
	}
	return FieldDefinition{
		Name:        fv.Name,
		Optional:    fv.Optional,
		Type:        ParseTypeExpression(fv.Type),
		Default:     fv.Default,
		HasDefault:  fv.Default != "",
		Description: fv.Desc,
		Location:    loc,
	}
}

func projectSectionDefinition(n *cst.Node) SectionDefinition {
	loc := locFromNode(n)
	sv, ok := n.SectionValues()
	if !ok {
		return SectionDefinition{Location: loc}
	}
	return SectionDefinition{Name: sv.Name, Optional: sv.Optional, Description: sv.Desc, Location: loc}
}

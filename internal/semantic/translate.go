package semantic

import (
	"github.com/rejot-dev/thalo/internal/ast"
	"github.com/rejot-dev/thalo/internal/cst"
	"github.com/rejot-dev/thalo/internal/fence"
)

func parseBlock(content []byte) *cst.Node {
	return cst.Parse(content)
}

// translateEntry rewrites every Location embedded in e from block-relative
// to file-absolute coordinates via sm. It is applied once, right after
// projection, so every later consumer of the AST already sees file
// coordinates.
func translateEntry(e ast.Entry, sm fence.SourceMap) ast.Entry {
	e.Location = translateLoc(e.Location, sm)
	switch e.Variant {
	case ast.VariantInstance:
		i := *e.Instance
		i.Location = translateLoc(i.Location, sm)
		i.Header = translateHeader(i.Header, sm)
		for k := range i.Metadata {
			i.Metadata[k] = translateMetadata(i.Metadata[k], sm)
		}
		if i.Content != nil {
			c := translateContent(*i.Content, sm)
			i.Content = &c
		}
		e.Instance = &i
	case ast.VariantSynthesis:
		s := *e.Synthesis
		s.Location = translateLoc(s.Location, sm)
		s.Header = translateHeader(s.Header, sm)
		for k := range s.Metadata {
			s.Metadata[k] = translateMetadata(s.Metadata[k], sm)
		}
		if s.Content != nil {
			c := translateContent(*s.Content, sm)
			s.Content = &c
		}
		e.Synthesis = &s
	case ast.VariantActualize:
		a := *e.Actualize
		a.Location = translateLoc(a.Location, sm)
		a.Header = translateHeader(a.Header, sm)
		for k := range a.Metadata {
			a.Metadata[k] = translateMetadata(a.Metadata[k], sm)
		}
		e.Actualize = &a
	case ast.VariantSchema:
		s := *e.Schema
		s.Location = translateLoc(s.Location, sm)
		s.Header = translateHeader(s.Header, sm)
		for k := range s.Fields {
			s.Fields[k].Location = translateLoc(s.Fields[k].Location, sm)
		}
		for k := range s.Sections {
			s.Sections[k].Location = translateLoc(s.Sections[k].Location, sm)
		}
		e.Schema = &s
	case ast.VariantError:
		errNode := *e.Error
		errNode.Location = translateLoc(errNode.Location, sm)
		e.Error = &errNode
	}
	return e
}

func translateHeader(h ast.Header, sm fence.SourceMap) ast.Header {
	h.Location = translateLoc(h.Location, sm)
	return h
}

func translateMetadata(m ast.Metadata, sm fence.SourceMap) ast.Metadata {
	m.Location = translateLoc(m.Location, sm)
	m.Value = translateValue(m.Value, sm)
	return m
}

func translateValue(v ast.ValueContent, sm fence.SourceMap) ast.ValueContent {
	v.Location = translateLoc(v.Location, sm)
	for i := range v.Elements {
		v.Elements[i] = translateValue(v.Elements[i], sm)
	}
	return v
}

func translateContent(c ast.Content, sm fence.SourceMap) ast.Content {
	c.Location = translateLoc(c.Location, sm)
	for i := range c.Children {
		c.Children[i].Location = translateLoc(c.Children[i].Location, sm)
	}
	return c
}

func translateLoc(loc ast.Location, sm fence.SourceMap) ast.Location {
	loc.StartIndex = sm.ToFileAbsoluteOffset(loc.StartIndex)
	loc.EndIndex = sm.ToFileAbsoluteOffset(loc.EndIndex)
	loc.StartPosition = toFilePos(loc.StartPosition, sm)
	loc.EndPosition = toFilePos(loc.EndPosition, sm)
	return loc
}

func toFilePos(p ast.Position, sm fence.SourceMap) ast.Position {
	fp := sm.ToFileAbsolutePosition(fence.Position{Line: p.Line, Column: p.Column})
	return ast.Position{Line: fp.Line, Column: fp.Column}
}

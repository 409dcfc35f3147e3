package services

import (
	"sort"
	"strings"

	"github.com/rejot-dev/thalo/internal/ast"
	"github.com/rejot-dev/thalo/internal/semantic"
)

// Semantic token type indices, matching the fixed table the editor
// client registers. Encoding into LSP delta format is the transport
// layer's job; this package emits absolute positions.
const (
	TokenKeyword   = 0 // directives
	TokenClass     = 1 // entity names
	TokenDecorator = 2 // tags
	TokenReference = 3 // links
	TokenProperty  = 4 // metadata keys
	TokenString    = 5 // quoted titles and string values
	TokenHeading   = 6 // markdown section headers
	TokenTypeName  = 7 // field type expressions
	TokenComment   = 8 // reserved for boundary comments
	TokenDatetime  = 9 // timestamps and datetime values
)

// Token is one flat semantic token in file-absolute coordinates.
type Token struct {
	Line           int
	StartChar      int
	Length         int
	TokenType      int
	TokenModifiers int
}

// ExtractSemanticTokens yields the flat token array for one model,
// sorted by (line, startChar).
func ExtractSemanticTokens(model *semantic.Model) []Token {
	var tokens []Token
	add := func(loc ast.Location, length, typ int) {
		if length <= 0 {
			return
		}
		tokens = append(tokens, Token{
			Line:      loc.StartPosition.Line,
			StartChar: loc.StartPosition.Column,
			Length:    length,
			TokenType: typ,
		})
	}

	for i := range model.AST.Entries {
		e := &model.AST.Entries[i]
		h := headerOf(e)
		if h != nil {
			emitHeaderTokens(model, h, &tokens)
		}
		for _, md := range metadataOf(e) {
			add(md.Location, len(md.Key), TokenProperty)
			emitValueTokens(md.Value, &tokens)
		}
		if c := contentOf(e); c != nil {
			for _, child := range c.Children {
				if child.Kind == ast.ContentMDHeader {
					add(child.Location, child.Location.EndIndex-child.Location.StartIndex, TokenHeading)
				}
			}
		}
		if e.Variant == ast.VariantSchema {
			for _, f := range e.Schema.Fields {
				add(f.Location, len(f.Name), TokenProperty)
			}
		}
	}

	sort.SliceStable(tokens, func(i, j int) bool {
		if tokens[i].Line != tokens[j].Line {
			return tokens[i].Line < tokens[j].Line
		}
		return tokens[i].StartChar < tokens[j].StartChar
	})
	return tokens
}

// emitHeaderTokens re-derives header token spans from the header line
// text, since the parser records only the line-level span.
func emitHeaderTokens(model *semantic.Model, h *ast.Header, tokens *[]Token) {
	line := h.Location.StartPosition.Line
	text := lineText(model, line)

	cursor := 0
	push := func(token string, typ int) {
		if token == "" {
			return
		}
		idx := strings.Index(text[cursor:], token)
		if idx < 0 {
			return
		}
		start := cursor + idx
		*tokens = append(*tokens, Token{Line: line, StartChar: start, Length: len(token), TokenType: typ})
		cursor = start + len(token)
	}

	push(h.Timestamp.Raw, TokenDatetime)
	push(h.Directive, TokenKeyword)
	push(h.Entity, TokenClass)
	push(`"`+h.Title+`"`, TokenString)
	if h.HasLink {
		push("^"+h.Link, TokenReference)
	}
	for _, tag := range h.Tags {
		push("#"+tag, TokenDecorator)
	}
}

func emitValueTokens(v ast.ValueContent, tokens *[]Token) {
	if v.Kind == ast.ValueArray {
		for _, el := range v.Elements {
			emitValueTokens(el, tokens)
		}
		return
	}
	typ := -1
	switch v.Kind {
	case ast.ValueLink:
		typ = TokenReference
	case ast.ValueQuotedString:
		typ = TokenString
	case ast.ValueDatetime, ast.ValueDateRange:
		typ = TokenDatetime
	}
	if typ < 0 {
		return
	}
	length := v.Location.EndIndex - v.Location.StartIndex
	if length <= 0 {
		length = len(v.Raw)
	}
	*tokens = append(*tokens, Token{
		Line:      v.Location.StartPosition.Line,
		StartChar: v.Location.StartPosition.Column,
		Length:    length,
		TokenType: typ,
	})
}

package rules

import (
	"regexp"
	"strings"

	"github.com/rejot-dev/thalo/internal/ast"
)

var dateOnlyRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// TypeMatches is the structural test of a parsed metadata value against a
// declared field type.
func TypeMatches(v ast.ValueContent, t ast.TypeExpression) bool {
	switch t.Kind {
	case ast.TypeUnion:
		for _, m := range t.Members {
			if TypeMatches(v, m) {
				return true
			}
		}
		return false
	case ast.TypeArray:
		if v.Kind == ast.ValueArray {
			if len(v.Elements) == 0 {
				return false
			}
			for _, el := range v.Elements {
				if !elementMatches(el, *t.Element) {
					return false
				}
			}
			return true
		}
		// a single value matching the element type is a 1-element array
		return elementMatches(v, *t.Element)
	default:
		return leafMatches(v, t)
	}
}

// elementMatches applies element semantics: string elements must be
// quoted, so Primitive(string) narrows to quoted values inside arrays.
func elementMatches(v ast.ValueContent, t ast.TypeExpression) bool {
	if t.Kind == ast.TypePrimitive && t.Primitive == ast.PrimitiveString {
		return v.Kind == ast.ValueQuotedString
	}
	return TypeMatches(v, t)
}

func leafMatches(v ast.ValueContent, t ast.TypeExpression) bool {
	switch t.Kind {
	case ast.TypePrimitive:
		switch t.Primitive {
		case ast.PrimitiveString:
			return v.Kind != ast.ValueError
		case ast.PrimitiveLink:
			return v.Kind == ast.ValueLink
		case ast.PrimitiveDatetime:
			return v.Kind == ast.ValueDatetime && dateOnlyRe.MatchString(v.Raw)
		case ast.PrimitiveDateRange:
			return v.Kind == ast.ValueDateRange
		}
		return false
	case ast.TypeLiteral:
		return v.Kind == ast.ValueQuotedString && strings.Trim(v.Raw, `"`) == t.Literal
	default:
		return false
	}
}

// DefaultMatches tests a field definition's raw default text against the
// field type. Defaults cannot be arrays or date-ranges (grammar
// restriction), so the raw text classifies as a single value leaf.
func DefaultMatches(raw string, t ast.TypeExpression) bool {
	v := classifyDefault(raw)
	switch t.Kind {
	case ast.TypeUnion:
		for _, m := range t.Members {
			if DefaultMatches(raw, m) {
				return true
			}
		}
		return false
	case ast.TypeArray:
		return DefaultMatches(raw, *t.Element)
	default:
		if t.Kind == ast.TypePrimitive && t.Primitive == ast.PrimitiveDateRange {
			return false
		}
		return leafMatches(v, t)
	}
}

func classifyDefault(raw string) ast.ValueContent {
	switch {
	case strings.HasPrefix(raw, `"`) && strings.HasSuffix(raw, `"`) && len(raw) >= 2:
		return ast.ValueContent{Kind: ast.ValueQuotedString, Raw: raw}
	case strings.HasPrefix(raw, "^"):
		return ast.ValueContent{Kind: ast.ValueLink, Raw: raw}
	case dateOnlyRe.MatchString(raw):
		return ast.ValueContent{Kind: ast.ValueDatetime, Raw: raw}
	default:
		return ast.ValueContent{Kind: ast.ValueError, Raw: raw}
	}
}

// Package fragment parses standalone sub-expressions (a query string, a
// metadata value, a field-definition type) without a dedicated grammar, by
// embedding the fragment into a minimal wrapper document guaranteed to
// parse under the main grammar and then navigating to the fragment node.
package fragment

import (
	"fmt"

	"github.com/rejot-dev/thalo/internal/cst"
)

// Kind selects which wrapper shape embeds the fragment.
type Kind int

const (
	KindQuery Kind = iota
	KindValue
	KindType
)

// Result carries the fragment's CST node even when the surrounding wrapper
// tree contains errors, so editor-style callers can work with a partial
// parse.
type Result struct {
	Node  *cst.Node
	Valid bool
	Err   error
}

const wrapperHeader = "2026-01-01T00:00Z create fragment \"w\"\n"

// Parse embeds text in the wrapper selected by kind and returns the node
// holding just that fragment.
func Parse(kind Kind, text string) Result {
	switch kind {
	case KindQuery:
		return parseQueryFragment(text)
	case KindValue:
		return parseValueFragment(text)
	case KindType:
		return parseTypeFragment(text)
	default:
		return Result{Err: fmt.Errorf("fragment: unknown kind %d", kind)}
	}
}

// parseValueFragment wraps text as a single metadata value:
// "  sources: <text>\n".
func parseValueFragment(text string) Result {
	src := wrapperHeader + "  sources: " + text + "\n"
	root := cst.Parse([]byte(src))
	entry := root.Child(0)
	if entry == nil {
		return Result{Valid: false}
	}
	for _, c := range entry.NamedChildren() {
		if c.Kind() == "metadata" {
			value := c.ChildByFieldName("value")
			return Result{Node: value, Valid: value != nil && !value.IsError()}
		}
	}
	return Result{Valid: false}
}

// parseQueryFragment wraps text the same way as a value fragment: queries
// are parsed as the "query" value-content kind, so the wrapper is
// identical; only the caller's interpretation of the resulting node
// differs (internal/query re-parses the raw text itself).
func parseQueryFragment(text string) Result {
	return parseValueFragment(text)
}

// parseTypeFragment wraps text as a field definition's type:
// "  # Metadata\n  f: <text>\n".
func parseTypeFragment(text string) Result {
	src := "2026-01-01T00:00Z define-entity fragment \"w\"\n  # Metadata\n  f: " + text + "\n"
	root := cst.Parse([]byte(src))
	entry := root.Child(0)
	if entry == nil {
		return Result{Valid: false}
	}
	for _, block := range entry.NamedChildren() {
		if block.Kind() != "metadata_block" {
			continue
		}
		field := block.Child(0)
		if field == nil {
			return Result{Valid: false}
		}
		_, ok := field.FieldValues()
		return Result{Node: field, Valid: ok}
	}
	return Result{Valid: false}
}

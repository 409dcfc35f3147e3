// Package ast projects the concrete syntax tree built by internal/cst
// into a strongly typed semantic tree, with explicit syntax-error nodes
// standing in for any region the parser could not make sense of.
package ast

import "github.com/rejot-dev/thalo/internal/cst"

// Position is a 0-based (line, column) pair.
type Position struct {
	Line   int
	Column int
}

// Location is a node's span in block-relative coordinates: a source map
// translates it to file-absolute coordinates.
type Location struct {
	StartIndex    int
	EndIndex      int
	StartPosition Position
	EndPosition   Position
}

func locFromNode(n *cst.Node) Location {
	if n == nil {
		return Location{}
	}
	sp := n.StartPoint()
	ep := n.EndPoint()
	return Location{
		StartIndex:    int(n.StartByte()),
		EndIndex:      int(n.EndByte()),
		StartPosition: Position{Line: int(sp.Row), Column: int(sp.Column)},
		EndPosition:   Position{Line: int(ep.Row), Column: int(ep.Column)},
	}
}

// SyntaxErrorNode stands in for any AST position that could not be
// parsed; it is never a Go error and downstream consumers must tolerate
// it. Every tagged union in this package (Entry, ValueContent,
// TypeExpression) carries its own error variant/flag rather than a
// shared marker interface, so callers switch on the tag instead of
// type-asserting an interface.
type SyntaxErrorNode struct {
	Raw      string
	Location Location
}

// Package cst implements a concrete syntax tree for the thalo grammar.
//
// There is no compiled tree-sitter grammar for thalo, so this package
// hand-rolls a scanner and recursive-descent parser that produce a tree
// shaped like a tree-sitter CST: typed node kinds, byte/point ranges,
// and named-child access. internal/ast projects this tree the same way
// a tree-sitter consumer would project sitter.Node into a typed AST.
package cst

// Point is a (row, column) position, 0-based, matching tree-sitter's
// sitter.Point convention.
type Point struct {
	Row    uint32
	Column uint32
}

// Node is one node of the concrete syntax tree. Unlike a real tree-sitter
// tree, every constructed Node is "named" — this parser never emits
// anonymous punctuation nodes, so NamedChildren and Child/ChildCount
// coincide. That simplification is recorded in DESIGN.md.
type Node struct {
	kind       string
	startByte  uint32
	endByte    uint32
	startPoint Point
	endPoint   Point
	children   []*Node
	fields     map[string]*Node
	isError    bool
	isMissing  bool

	// data holds decoded textual fields for nodes whose sub-structure
	// internal/ast reads by value rather than by walking byte ranges
	// (header, field_definition, section_definition, value content).
	// nil for structural nodes that need no such payload.
	data any
}

// Data returns the node's decoded payload, if any (see the headerValues
// accessor type in parser.go and the fieldValues, sectionValues,
// valueContent accessor types in parser_body.go).
func (n *Node) Data() any { return n.data }

// New constructs a Node spanning [startByte, endByte).
func New(kind string, startByte, endByte uint32, startPoint, endPoint Point) *Node {
	return &Node{kind: kind, startByte: startByte, endByte: endByte, startPoint: startPoint, endPoint: endPoint}
}

// NewError constructs an ERROR node wrapping an unparseable byte range.
func NewError(startByte, endByte uint32, startPoint, endPoint Point) *Node {
	n := New("ERROR", startByte, endByte, startPoint, endPoint)
	n.isError = true
	return n
}

// NewMissing constructs a node standing in for a required child that the
// parser could not find, e.g. a header with no title.
func NewMissing(kind string, atByte uint32, atPoint Point) *Node {
	n := New(kind, atByte, atByte, atPoint, atPoint)
	n.isMissing = true
	return n
}

func (n *Node) Kind() string           { return n.kind }
func (n *Node) StartByte() uint32      { return n.startByte }
func (n *Node) EndByte() uint32        { return n.endByte }
func (n *Node) StartPoint() Point      { return n.startPoint }
func (n *Node) EndPoint() Point        { return n.endPoint }
func (n *Node) IsError() bool          { return n.isError }
func (n *Node) IsMissing() bool        { return n.isMissing }
func (n *Node) ChildCount() int        { return len(n.children) }
func (n *Node) NamedChildren() []*Node { return n.children }

// Child returns the i'th child, or nil if out of range.
func (n *Node) Child(i int) *Node {
	if i < 0 || i >= len(n.children) {
		return nil
	}
	return n.children[i]
}

// ChildByFieldName returns the child registered under the given grammar
// field name (e.g. "title", "entity", "link"), or nil.
func (n *Node) ChildByFieldName(name string) *Node {
	if n.fields == nil {
		return nil
	}
	return n.fields[name]
}

// Content returns the node's source text.
func (n *Node) Content(source []byte) string {
	if int(n.endByte) > len(source) || n.startByte > n.endByte {
		return ""
	}
	return string(source[n.startByte:n.endByte])
}

// AddChild appends a child node. This node's own span is left unchanged;
// Extend grows it when a child reaches past the current end.
func (n *Node) AddChild(child *Node) {
	if child == nil {
		return
	}
	n.children = append(n.children, child)
}

// SetField registers a child under a grammar field name. The child must
// already have been added via AddChild if it should also be reachable
// positionally.
func (n *Node) SetField(name string, child *Node) {
	if n.fields == nil {
		n.fields = make(map[string]*Node)
	}
	n.fields[name] = child
}

// Extend grows the node's end position to cover child, used when a
// node's span is only known after its children are parsed.
func (n *Node) Extend(child *Node) {
	if child == nil {
		return
	}
	if child.endByte > n.endByte {
		n.endByte = child.endByte
		n.endPoint = child.endPoint
	}
}

// Walk visits node and every descendant in document order.
func Walk(n *Node, visit func(*Node)) {
	if n == nil {
		return
	}
	visit(n)
	for _, c := range n.children {
		Walk(c, visit)
	}
}

// FindErrors collects every ERROR node in the subtree.
func FindErrors(n *Node) []*Node {
	var errs []*Node
	Walk(n, func(node *Node) {
		if node.IsError() {
			errs = append(errs, node)
		}
	})
	return errs
}

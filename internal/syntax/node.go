// Package syntax defines the node shape the extractor walks: every node has a
// kind, a source span with 1-based lines and 0-based columns, the comments
// that lead it, and its structural children.
package syntax

// Position is a point in source text. Line is 1-based, Column is 0-based.
type Position struct {
	Line   int
	Column int
}

// Before reports whether p comes strictly before q.
func (p Position) Before(q Position) bool {
	if p.Line != q.Line {
		return p.Line < q.Line
	}
	return p.Column < q.Column
}

// Span is the source range a node or comment covers.
type Span struct {
	Start Position
	End   Position
}

// Comment is a source comment with its markers removed.
type Comment struct {
	Text  string // value without the // or /* */ markers
	Block bool
	Loc   Span
}

// Node is one syntax tree node.
type Node struct {
	Kind Kind
	Type string // grammar node type, e.g. "method_definition"
	Loc  Span

	// LeadingComments are the comments between the previous sibling (or the
	// start of the parent) and this node, in source order.
	LeadingComments []Comment

	// Text holds the source text of identifiers and parameter patterns.
	Text string

	// Static is set on class members declared with the static keyword.
	Static bool
	// Default is set on export statements of the form `export default`.
	Default bool

	Children []*Node
	fields   map[string]*Node
}

// Field returns the child stored under the grammar field name, or nil.
func (n *Node) Field(name string) *Node {
	if n == nil || n.fields == nil {
		return nil
	}
	return n.fields[name]
}

// SetField records child under the grammar field name. The child should also
// be present in Children so generic traversal reaches it.
func (n *Node) SetField(name string, child *Node) {
	if n.fields == nil {
		n.fields = make(map[string]*Node)
	}
	n.fields[name] = child
}

// ChildOfKind returns the first direct child with the given kind.
func (n *Node) ChildOfKind(k Kind) *Node {
	if n == nil {
		return nil
	}
	for _, c := range n.Children {
		if c.Kind == k {
			return c
		}
	}
	return nil
}

// Name returns the identifier text of n, or of its "name" field.
func (n *Node) Name() string {
	if n == nil {
		return ""
	}
	if n.Kind.IsIdentifier() {
		return n.Text
	}
	if name := n.Field("name"); name != nil && name.Kind.IsIdentifier() {
		return name.Text
	}
	return ""
}

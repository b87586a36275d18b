// Package parse turns JavaScript source into syntax trees using tree-sitter.
//
// Tree-sitter keeps comments as ordinary children wherever they occur. The
// lowering in this package attaches each run of comments to the node that
// follows it, which is the shape the extractor expects.
package parse

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/joanna/internal/syntax"
)

// Error reports source that tree-sitter could not parse cleanly.
type Error struct {
	Line    int // 1-based
	Column  int
	Missing bool   // a required token was absent rather than unexpected
	Near    string // grammar type of the offending node
}

func (e *Error) Error() string {
	if e.Missing {
		return fmt.Sprintf("syntax error at %d:%d: missing %s", e.Line, e.Column, e.Near)
	}
	return fmt.Sprintf("syntax error at %d:%d", e.Line, e.Column)
}

// Parser parses JavaScript source. A Parser is not safe for concurrent use;
// give each goroutine its own.
type Parser struct {
	p *sitter.Parser
}

// NewParser creates a Parser configured with the JavaScript grammar.
func NewParser() *Parser {
	p := sitter.NewParser()
	p.SetLanguage(javascriptGrammar())
	return &Parser{p: p}
}

// Close releases the underlying tree-sitter parser.
func (p *Parser) Close() {
	p.p.Close()
}

// Parse parses src and returns the lowered syntax tree. Source containing
// syntax errors yields an *Error.
func (p *Parser) Parse(ctx context.Context, src []byte) (*syntax.Node, error) {
	tree, err := p.p.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("parse: tree-sitter: %w", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, firstError(root)
	}

	c := &converter{src: src}
	node, _ := c.convert(root)
	return node, nil
}

// Parse is a convenience wrapper that parses src with a fresh Parser.
func Parse(ctx context.Context, src []byte) (*syntax.Node, error) {
	p := NewParser()
	defer p.Close()
	return p.Parse(ctx, src)
}

// firstError locates the earliest ERROR or MISSING node under n.
func firstError(n *sitter.Node) *Error {
	if n.IsMissing() || n.Type() == "ERROR" {
		pt := n.StartPoint()
		return &Error{
			Line:    int(pt.Row) + 1,
			Column:  int(pt.Column),
			Missing: n.IsMissing(),
			Near:    n.Type(),
		}
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if child.HasError() || child.IsMissing() {
			if e := firstError(child); e != nil {
				return e
			}
		}
	}
	pt := n.StartPoint()
	return &Error{Line: int(pt.Row) + 1, Column: int(pt.Column), Near: n.Type()}
}

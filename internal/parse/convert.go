package parse

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/joanna/internal/syntax"
)

var typeToKind = map[string]syntax.Kind{
	"program":                        syntax.KindProgram,
	"export_statement":               syntax.KindExportStatement,
	"export_clause":                  syntax.KindExportClause,
	"export_specifier":               syntax.KindExportSpecifier,
	"expression_statement":           syntax.KindExpressionStatement,
	"assignment_expression":          syntax.KindAssignment,
	"member_expression":              syntax.KindMemberExpression,
	"identifier":                     syntax.KindIdentifier,
	"shorthand_property_identifier":  syntax.KindIdentifier,
	"property_identifier":            syntax.KindPropertyIdentifier,
	"private_property_identifier":    syntax.KindPropertyIdentifier,
	"this":                           syntax.KindThis,
	"function_declaration":           syntax.KindFunctionDeclaration,
	"generator_function_declaration": syntax.KindFunctionDeclaration,
	"function":                       syntax.KindFunctionExpression,
	"function_expression":            syntax.KindFunctionExpression,
	"generator_function":             syntax.KindFunctionExpression,
	"arrow_function":                 syntax.KindArrowFunction,
	"class_declaration":              syntax.KindClassDeclaration,
	"class":                          syntax.KindClassExpression,
	"class_heritage":                 syntax.KindClassHeritage,
	"class_body":                     syntax.KindClassBody,
	"method_definition":              syntax.KindMethodDefinition,
	"field_definition":               syntax.KindFieldDefinition,
	"formal_parameters":              syntax.KindFormalParameters,
	"assignment_pattern":             syntax.KindAssignmentPattern,
	"rest_pattern":                   syntax.KindRestPattern,
	"lexical_declaration":            syntax.KindVariableDeclaration,
	"variable_declaration":           syntax.KindVariableDeclaration,
	"variable_declarator":            syntax.KindVariableDeclarator,
	"statement_block":                syntax.KindStatementBlock,
	"parenthesized_expression":       syntax.KindParenthesized,
}

// fieldNames are the grammar fields the extractor reads.
var fieldNames = []string{
	"name", "alias", "body", "parameters", "parameter", "value",
	"left", "right", "object", "property", "declaration", "source",
}

type converter struct {
	src []byte
}

// convert lowers n and its subtree. The second result holds comments that
// ended n without any token after them; the caller hands those to the next
// sibling so a comment is never lost inside the statement it follows.
func (c *converter) convert(n *sitter.Node) (*syntax.Node, []syntax.Comment) {
	out := &syntax.Node{
		Kind: typeToKind[n.Type()],
		Type: n.Type(),
		Loc:  span(n),
	}
	if out.Kind.IsIdentifier() {
		out.Text = n.Content(c.src)
	}

	var pending []syntax.Comment
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if !child.IsNamed() {
			switch child.Type() {
			case "static":
				out.Static = true
			case "default":
				out.Default = true
			}
			// A token after a comment run closes it: the comments sit inside
			// this node and lead nothing.
			pending = nil
			continue
		}
		if child.Type() == "comment" {
			pending = append(pending, c.comment(child))
			continue
		}

		conv, trailing := c.convert(child)
		if out.Kind == syntax.KindFormalParameters && conv.Text == "" {
			conv.Text = child.Content(c.src)
		}
		if len(pending) > 0 {
			conv.LeadingComments = append(pending, conv.LeadingComments...)
		}
		pending = trailing
		out.Children = append(out.Children, conv)
	}

	c.bindFields(n, out)
	return out, pending
}

// bindFields maps grammar fields to the already-lowered children.
func (c *converter) bindFields(n *sitter.Node, out *syntax.Node) {
	for _, name := range fieldNames {
		fc := n.ChildByFieldName(name)
		if fc == nil || !fc.IsNamed() {
			continue
		}
		for _, child := range out.Children {
			if child.Type == fc.Type() && child.Loc == span(fc) {
				out.SetField(name, child)
				break
			}
		}
	}
}

func (c *converter) comment(n *sitter.Node) syntax.Comment {
	text := n.Content(c.src)
	block := strings.HasPrefix(text, "/*")
	switch {
	case block:
		text = strings.TrimSuffix(strings.TrimPrefix(text, "/*"), "*/")
	case strings.HasPrefix(text, "//"):
		text = strings.TrimPrefix(text, "//")
	}
	return syntax.Comment{Text: text, Block: block, Loc: span(n)}
}

func span(n *sitter.Node) syntax.Span {
	start, end := n.StartPoint(), n.EndPoint()
	return syntax.Span{
		Start: syntax.Position{Line: int(start.Row) + 1, Column: int(start.Column)},
		End:   syntax.Position{Line: int(end.Row) + 1, Column: int(end.Column)},
	}
}

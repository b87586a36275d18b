package syntax

// Kind enumerates the node shapes the extractor distinguishes. Everything
// else is KindOther and is only traversed structurally.
type Kind uint8

const (
	KindOther Kind = iota
	KindProgram
	KindExportStatement
	KindExportClause
	KindExportSpecifier
	KindExpressionStatement
	KindAssignment
	KindMemberExpression
	KindIdentifier
	KindPropertyIdentifier
	KindThis
	KindFunctionDeclaration
	KindFunctionExpression
	KindArrowFunction
	KindClassDeclaration
	KindClassExpression
	KindClassHeritage
	KindClassBody
	KindMethodDefinition
	KindFieldDefinition
	KindFormalParameters
	KindAssignmentPattern
	KindRestPattern
	KindVariableDeclaration
	KindVariableDeclarator
	KindStatementBlock
	KindParenthesized
)

var kindNames = [...]string{
	KindOther:               "other",
	KindProgram:             "program",
	KindExportStatement:     "export_statement",
	KindExportClause:        "export_clause",
	KindExportSpecifier:     "export_specifier",
	KindExpressionStatement: "expression_statement",
	KindAssignment:          "assignment",
	KindMemberExpression:    "member_expression",
	KindIdentifier:          "identifier",
	KindPropertyIdentifier:  "property_identifier",
	KindThis:                "this",
	KindFunctionDeclaration: "function_declaration",
	KindFunctionExpression:  "function_expression",
	KindArrowFunction:       "arrow_function",
	KindClassDeclaration:    "class_declaration",
	KindClassExpression:     "class_expression",
	KindClassHeritage:       "class_heritage",
	KindClassBody:           "class_body",
	KindMethodDefinition:    "method_definition",
	KindFieldDefinition:     "field_definition",
	KindFormalParameters:    "formal_parameters",
	KindAssignmentPattern:   "assignment_pattern",
	KindRestPattern:         "rest_pattern",
	KindVariableDeclaration: "variable_declaration",
	KindVariableDeclarator:  "variable_declarator",
	KindStatementBlock:      "statement_block",
	KindParenthesized:       "parenthesized_expression",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// IsIdentifier reports whether nodes of this kind carry a name in Text.
func (k Kind) IsIdentifier() bool {
	return k == KindIdentifier || k == KindPropertyIdentifier
}

// IsFunction reports whether k is any function form.
func (k Kind) IsFunction() bool {
	return k == KindFunctionDeclaration || k == KindFunctionExpression || k == KindArrowFunction
}

// IsClass reports whether k is a class declaration or expression.
func (k Kind) IsClass() bool {
	return k == KindClassDeclaration || k == KindClassExpression
}

package parser

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/panbanda/jsflow/pkg/estree"
)

// converter lowers tree-sitter JavaScript/TypeScript nodes to ESTree.
type converter struct {
	src []byte
}

// typeOnly lists TypeScript nodes that carry no runtime behavior. They are
// dropped wherever they appear as children.
var typeOnly = map[string]bool{
	"type_annotation":           true,
	"type_arguments":            true,
	"type_parameters":           true,
	"asserts_annotation":        true,
	"type_predicate_annotation": true,
	"opting_type_annotation":    true,
	"omitting_type_annotation":  true,
	"accessibility_modifier":    true,
	"override_modifier":         true,
	"decorator":                 true,
	"comment":                   true,
	"hash_bang_line":            true,
	"html_comment":              true,
}

// declarationOnly maps TypeScript declarations without runtime control
// flow to the ESTree type they are reported as.
var declarationOnly = map[string]string{
	"interface_declaration":     "TSInterfaceDeclaration",
	"type_alias_declaration":    "TSTypeAliasDeclaration",
	"enum_declaration":          "TSEnumDeclaration",
	"ambient_declaration":       "TSDeclareStatement",
	"function_signature":        "TSDeclareFunction",
	"abstract_method_signature": "TSAbstractMethodDefinition",
	"method_signature":          "TSMethodSignature",
	"index_signature":           "TSIndexSignature",
	"import_alias":              "TSImportEqualsDeclaration",
}

func (c *converter) text(n *sitter.Node) string {
	return GetNodeText(n, c.src)
}

func (c *converter) newNode(n *sitter.Node, typ string) *estree.Node {
	node := estree.New(typ)
	node.Range = estree.Range{int(n.StartByte()), int(n.EndByte())}
	sp, ep := n.StartPoint(), n.EndPoint()
	node.Loc = estree.SourceLocation{
		Start: estree.Position{Line: int(sp.Row) + 1, Column: int(sp.Column)},
		End:   estree.Position{Line: int(ep.Row) + 1, Column: int(ep.Column)},
	}
	return node
}

// namedChildren returns the named children of n, skipping comments and
// type-only nodes.
func (c *converter) namedChildren(n *sitter.Node) []*sitter.Node {
	if n == nil {
		return nil
	}
	count := int(n.NamedChildCount())
	out := make([]*sitter.Node, 0, count)
	for i := range count {
		child := n.NamedChild(i)
		if child == nil || typeOnly[child.Type()] {
			continue
		}
		out = append(out, child)
	}
	return out
}

func (c *converter) firstNamed(n *sitter.Node) *sitter.Node {
	if kids := c.namedChildren(n); len(kids) > 0 {
		return kids[0]
	}
	return nil
}

// hasToken reports whether n has an anonymous child with the given text.
func (c *converter) hasToken(n *sitter.Node, tok string) bool {
	for i := range int(n.ChildCount()) {
		child := n.Child(i)
		if child != nil && !child.IsNamed() && child.Type() == tok {
			return true
		}
	}
	return false
}

func sameNode(a, b *sitter.Node) bool {
	if a == nil || b == nil {
		return false
	}
	return a.StartByte() == b.StartByte() && a.EndByte() == b.EndByte() && a.Type() == b.Type()
}

func (c *converter) program(root *sitter.Node) *estree.Node {
	prog := c.newNode(root, "Program")
	prog.Set("sourceType", "module")
	body := c.statements(c.namedChildren(root))
	prog.SetList("body", body...)
	return prog
}

func (c *converter) statements(nodes []*sitter.Node) []*estree.Node {
	out := make([]*estree.Node, 0, len(nodes))
	for _, n := range nodes {
		if s := c.convert(n); s != nil {
			out = append(out, s)
		}
	}
	return out
}

// optional converts n, returning nil for absent nodes.
func (c *converter) optional(n *sitter.Node) *estree.Node {
	if n == nil || typeOnly[n.Type()] {
		return nil
	}
	return c.convert(n)
}

// convert lowers any statement, expression or pattern node.
func (c *converter) convert(n *sitter.Node) *estree.Node {
	typ := n.Type()
	if t, ok := declarationOnly[typ]; ok {
		return c.newNode(n, t)
	}

	switch typ {
	// statements
	case "expression_statement":
		return c.newNode(n, "ExpressionStatement").SetChild("expression", c.expressions(n))
	case "variable_declaration":
		return c.variableDeclaration(n, "var")
	case "lexical_declaration":
		kind := "let"
		if k := n.ChildByFieldName("kind"); k != nil {
			kind = c.text(k)
		} else if c.hasToken(n, "const") {
			kind = "const"
		}
		return c.variableDeclaration(n, kind)
	case "variable_declarator":
		return c.newNode(n, "VariableDeclarator").
			SetChild("id", c.optional(n.ChildByFieldName("name"))).
			SetChild("init", c.optional(n.ChildByFieldName("value")))
	case "statement_block":
		return c.newNode(n, "BlockStatement").SetList("body", c.statements(c.namedChildren(n))...)
	case "if_statement":
		var alternate *estree.Node
		if alt := n.ChildByFieldName("alternative"); alt != nil {
			if alt.Type() == "else_clause" {
				alternate = c.optional(c.firstNamed(alt))
			} else {
				alternate = c.convert(alt)
			}
		}
		return c.newNode(n, "IfStatement").
			SetChild("test", c.optional(n.ChildByFieldName("condition"))).
			SetChild("consequent", c.optional(n.ChildByFieldName("consequence"))).
			SetChild("alternate", alternate)
	case "switch_statement":
		var cases []*estree.Node
		for _, sc := range c.namedChildren(n.ChildByFieldName("body")) {
			cases = append(cases, c.convert(sc))
		}
		return c.newNode(n, "SwitchStatement").
			SetChild("discriminant", c.optional(n.ChildByFieldName("value"))).
			SetList("cases", cases...)
	case "switch_case", "switch_default":
		test := n.ChildByFieldName("value")
		var body []*sitter.Node
		for _, child := range c.namedChildren(n) {
			if !sameNode(child, test) {
				body = append(body, child)
			}
		}
		return c.newNode(n, "SwitchCase").
			SetChild("test", c.optional(test)).
			SetList("consequent", c.statements(body)...)
	case "for_statement":
		return c.forStatement(n)
	case "for_in_statement":
		return c.forInStatement(n)
	case "while_statement":
		return c.newNode(n, "WhileStatement").
			SetChild("test", c.optional(n.ChildByFieldName("condition"))).
			SetChild("body", c.optional(n.ChildByFieldName("body")))
	case "do_statement":
		return c.newNode(n, "DoWhileStatement").
			SetChild("body", c.optional(n.ChildByFieldName("body"))).
			SetChild("test", c.optional(n.ChildByFieldName("condition")))
	case "try_statement":
		return c.tryStatement(n)
	case "break_statement", "continue_statement":
		t := "BreakStatement"
		if typ == "continue_statement" {
			t = "ContinueStatement"
		}
		return c.newNode(n, t).SetChild("label", c.optional(n.ChildByFieldName("label")))
	case "return_statement":
		return c.newNode(n, "ReturnStatement").SetChild("argument", c.expressions(n))
	case "throw_statement":
		return c.newNode(n, "ThrowStatement").SetChild("argument", c.expressions(n))
	case "labeled_statement":
		return c.newNode(n, "LabeledStatement").
			SetChild("label", c.optional(n.ChildByFieldName("label"))).
			SetChild("body", c.optional(n.ChildByFieldName("body")))
	case "empty_statement":
		return c.newNode(n, "EmptyStatement")
	case "debugger_statement":
		return c.newNode(n, "DebuggerStatement")
	case "with_statement":
		return c.newNode(n, "WithStatement").
			SetChild("object", c.optional(n.ChildByFieldName("object"))).
			SetChild("body", c.optional(n.ChildByFieldName("body")))
	case "function_declaration", "generator_function_declaration":
		return c.function(n, "FunctionDeclaration")
	case "class_declaration", "abstract_class_declaration":
		return c.class(n, "ClassDeclaration")
	case "import_statement":
		return c.importStatement(n)
	case "export_statement":
		return c.exportStatement(n)
	case "module", "internal_module":
		return c.newNode(n, "TSModuleDeclaration").
			SetChild("body", c.optional(n.ChildByFieldName("body")))

	// expressions
	case "parenthesized_expression":
		return c.expressions(n)
	case "sequence_expression":
		var exprs []*estree.Node
		c.flattenSequence(n, &exprs)
		return c.newNode(n, "SequenceExpression").SetList("expressions", exprs...)
	case "identifier", "property_identifier", "shorthand_property_identifier",
		"shorthand_property_identifier_pattern", "statement_identifier", "type_identifier":
		return c.newNode(n, "Identifier").Set("name", c.text(n))
	case "undefined":
		return c.newNode(n, "Identifier").Set("name", "undefined")
	case "private_property_identifier":
		return c.newNode(n, "PrivateIdentifier").Set("name", strings.TrimPrefix(c.text(n), "#"))
	case "this":
		return c.newNode(n, "ThisExpression")
	case "super":
		return c.newNode(n, "Super")
	case "true", "false":
		return c.newNode(n, "Literal").Set("value", typ == "true").Set("raw", typ)
	case "null":
		return c.newNode(n, "Literal").Set("value", nil).Set("raw", "null")
	case "number":
		return c.number(n)
	case "string":
		raw := c.text(n)
		return c.newNode(n, "Literal").Set("value", unquote(raw)).Set("raw", raw)
	case "regex":
		pattern := c.text(n.ChildByFieldName("pattern"))
		flags := c.text(n.ChildByFieldName("flags"))
		return c.newNode(n, "Literal").
			Set("value", nil).
			Set("raw", c.text(n)).
			Set("regex", "/"+pattern+"/"+flags).
			Set("pattern", pattern).
			Set("flags", flags)
	case "template_string":
		return c.template(n)
	case "binary_expression":
		op := c.text(n.ChildByFieldName("operator"))
		t := "BinaryExpression"
		if op == "&&" || op == "||" || op == "??" {
			t = "LogicalExpression"
		}
		return c.newNode(n, t).
			Set("operator", op).
			SetChild("left", c.optional(n.ChildByFieldName("left"))).
			SetChild("right", c.optional(n.ChildByFieldName("right")))
	case "unary_expression":
		return c.newNode(n, "UnaryExpression").
			Set("operator", c.text(n.ChildByFieldName("operator"))).
			Set("prefix", true).
			SetChild("argument", c.optional(n.ChildByFieldName("argument")))
	case "update_expression":
		op := n.ChildByFieldName("operator")
		arg := n.ChildByFieldName("argument")
		prefix := op != nil && arg != nil && op.StartByte() < arg.StartByte()
		return c.newNode(n, "UpdateExpression").
			Set("operator", c.text(op)).
			Set("prefix", prefix).
			SetChild("argument", c.optional(arg))
	case "assignment_expression":
		return c.newNode(n, "AssignmentExpression").
			Set("operator", "=").
			SetChild("left", c.optional(n.ChildByFieldName("left"))).
			SetChild("right", c.optional(n.ChildByFieldName("right")))
	case "augmented_assignment_expression":
		return c.newNode(n, "AssignmentExpression").
			Set("operator", c.text(n.ChildByFieldName("operator"))).
			SetChild("left", c.optional(n.ChildByFieldName("left"))).
			SetChild("right", c.optional(n.ChildByFieldName("right")))
	case "ternary_expression":
		return c.newNode(n, "ConditionalExpression").
			SetChild("test", c.optional(n.ChildByFieldName("condition"))).
			SetChild("consequent", c.optional(n.ChildByFieldName("consequence"))).
			SetChild("alternate", c.optional(n.ChildByFieldName("alternative")))
	case "call_expression", "member_expression", "subscript_expression":
		node, optional := c.chain(n)
		if optional {
			return c.newNode(n, "ChainExpression").SetChild("expression", node)
		}
		return node
	case "new_expression":
		return c.newNode(n, "NewExpression").
			SetChild("callee", c.optional(n.ChildByFieldName("constructor"))).
			SetList("arguments", c.arguments(n.ChildByFieldName("arguments"))...)
	case "arrow_function":
		return c.arrow(n)
	case "function", "function_expression", "generator_function":
		return c.function(n, "FunctionExpression")
	case "class":
		return c.class(n, "ClassExpression")
	case "object":
		return c.object(n, false)
	case "object_pattern":
		return c.object(n, true)
	case "array":
		return c.newNode(n, "ArrayExpression").SetList("elements", c.statements(c.namedChildren(n))...)
	case "array_pattern":
		return c.newNode(n, "ArrayPattern").SetList("elements", c.statements(c.namedChildren(n))...)
	case "assignment_pattern":
		return c.newNode(n, "AssignmentPattern").
			SetChild("left", c.optional(n.ChildByFieldName("left"))).
			SetChild("right", c.optional(n.ChildByFieldName("right")))
	case "rest_pattern":
		return c.newNode(n, "RestElement").SetChild("argument", c.optional(c.firstNamed(n)))
	case "spread_element":
		return c.newNode(n, "SpreadElement").SetChild("argument", c.optional(c.firstNamed(n)))
	case "await_expression":
		return c.newNode(n, "AwaitExpression").SetChild("argument", c.optional(c.firstNamed(n)))
	case "yield_expression":
		return c.newNode(n, "YieldExpression").
			Set("delegate", c.hasToken(n, "*")).
			SetChild("argument", c.optional(c.firstNamed(n)))
	case "meta_property":
		parts := strings.SplitN(c.text(n), ".", 2)
		meta := c.newNode(n, "Identifier").Set("name", strings.TrimSpace(parts[0]))
		prop := c.newNode(n, "Identifier")
		if len(parts) == 2 {
			prop.Set("name", strings.TrimSpace(parts[1]))
		}
		return c.newNode(n, "MetaProperty").SetChild("meta", meta).SetChild("property", prop)
	case "computed_property_name":
		return c.optional(c.firstNamed(n))
	case "required_parameter", "optional_parameter":
		pattern := c.optional(n.ChildByFieldName("pattern"))
		if value := n.ChildByFieldName("value"); value != nil {
			return c.newNode(n, "AssignmentPattern").
				SetChild("left", pattern).
				SetChild("right", c.convert(value))
		}
		return pattern
	case "as_expression", "satisfies_expression", "non_null_expression":
		t := map[string]string{
			"as_expression":        "TSAsExpression",
			"satisfies_expression": "TSSatisfiesExpression",
			"non_null_expression":  "TSNonNullExpression",
		}[typ]
		return c.newNode(n, t).SetChild("expression", c.optional(c.firstNamed(n)))
	case "type_assertion":
		kids := c.namedChildren(n)
		var expr *estree.Node
		if len(kids) > 0 {
			expr = c.convert(kids[len(kids)-1])
		}
		return c.newNode(n, "TSTypeAssertion").SetChild("expression", expr)
	case "jsx_expression":
		return c.newNode(n, "JSXExpressionContainer").SetChild("expression", c.optional(c.firstNamed(n)))
	case "jsx_element", "jsx_self_closing_element":
		return c.generic(n, "JSXElement")
	case "jsx_fragment":
		return c.generic(n, "JSXFragment")
	}

	return c.generic(n, pascal(typ))
}

// generic keeps an unmodeled node with its named children so that nested
// code is still visited.
func (c *converter) generic(n *sitter.Node, typ string) *estree.Node {
	return c.newNode(n, typ).SetList("children", c.statements(c.namedChildren(n))...)
}

// expressions lowers the expression children of the container n, such as an
// expression statement or parenthesized expression. Several children become
// a SequenceExpression. It returns nil when n has no expression. Nodes that
// are themselves expressions go through convert instead.
func (c *converter) expressions(n *sitter.Node) *estree.Node {
	kids := c.namedChildren(n)
	switch len(kids) {
	case 0:
		return nil
	case 1:
		return c.convert(kids[0])
	}
	seq := c.newNode(n, "SequenceExpression")
	var exprs []*estree.Node
	for _, k := range kids {
		exprs = append(exprs, c.convert(k))
	}
	return seq.SetList("expressions", exprs...)
}

func (c *converter) flattenSequence(n *sitter.Node, out *[]*estree.Node) {
	for _, k := range c.namedChildren(n) {
		if k.Type() == "sequence_expression" {
			c.flattenSequence(k, out)
			continue
		}
		*out = append(*out, c.convert(k))
	}
}

func (c *converter) variableDeclaration(n *sitter.Node, kind string) *estree.Node {
	var decls []*estree.Node
	for _, d := range c.namedChildren(n) {
		if d.Type() == "variable_declarator" {
			decls = append(decls, c.convert(d))
		}
	}
	return c.newNode(n, "VariableDeclaration").
		Set("kind", kind).
		SetList("declarations", decls...)
}

// forClause lowers a for-statement clause, which tree-sitter may wrap in an
// expression or empty statement.
func (c *converter) forClause(n *sitter.Node) *estree.Node {
	if n == nil {
		return nil
	}
	switch n.Type() {
	case "empty_statement", ";":
		return nil
	case "expression_statement":
		return c.expressions(n)
	}
	return c.convert(n)
}

func (c *converter) forStatement(n *sitter.Node) *estree.Node {
	return c.newNode(n, "ForStatement").
		SetChild("init", c.forClause(n.ChildByFieldName("initializer"))).
		SetChild("test", c.forClause(n.ChildByFieldName("condition"))).
		SetChild("update", c.forClause(n.ChildByFieldName("increment"))).
		SetChild("body", c.optional(n.ChildByFieldName("body")))
}

func (c *converter) forInStatement(n *sitter.Node) *estree.Node {
	typ := "ForInStatement"
	if op := n.ChildByFieldName("operator"); op != nil && c.text(op) == "of" {
		typ = "ForOfStatement"
	} else if op == nil && c.hasToken(n, "of") {
		typ = "ForOfStatement"
	}

	leftNode := n.ChildByFieldName("left")
	left := c.optional(leftNode)
	if kind := n.ChildByFieldName("kind"); kind != nil && leftNode != nil {
		decl := c.newNode(leftNode, "VariableDeclarator").SetChild("id", left).SetChild("init", nil)
		left = c.newNode(leftNode, "VariableDeclaration").
			Set("kind", c.text(kind)).
			SetList("declarations", decl)
		ks := kind.StartPoint()
		left.Range[0] = int(kind.StartByte())
		left.Loc.Start = estree.Position{Line: int(ks.Row) + 1, Column: int(ks.Column)}
	}

	node := c.newNode(n, typ).
		SetChild("left", left).
		SetChild("right", c.optional(n.ChildByFieldName("right"))).
		SetChild("body", c.optional(n.ChildByFieldName("body")))
	if typ == "ForOfStatement" {
		node.Set("await", c.hasToken(n, "await"))
	}
	return node
}

func (c *converter) tryStatement(n *sitter.Node) *estree.Node {
	var handler, finalizer *estree.Node
	if h := n.ChildByFieldName("handler"); h != nil {
		handler = c.newNode(h, "CatchClause").
			SetChild("param", c.optional(h.ChildByFieldName("parameter"))).
			SetChild("body", c.optional(h.ChildByFieldName("body")))
	}
	if f := n.ChildByFieldName("finalizer"); f != nil {
		finalizer = c.optional(f.ChildByFieldName("body"))
	}
	return c.newNode(n, "TryStatement").
		SetChild("block", c.optional(n.ChildByFieldName("body"))).
		SetChild("handler", handler).
		SetChild("finalizer", finalizer)
}

// chain lowers a call or member expression and reports whether it or an
// element further down its object/callee chain is optional.
func (c *converter) chain(n *sitter.Node) (*estree.Node, bool) {
	optional := n.ChildByFieldName("optional_chain") != nil || c.hasToken(n, "?.")
	for _, k := range c.namedChildren(n) {
		if k.Type() == "optional_chain" {
			optional = true
		}
	}

	inner := func(child *sitter.Node) (*estree.Node, bool) {
		if child == nil {
			return nil, false
		}
		switch child.Type() {
		case "call_expression", "member_expression", "subscript_expression":
			return c.chain(child)
		}
		return c.convert(child), false
	}

	switch n.Type() {
	case "call_expression":
		fn := n.ChildByFieldName("function")
		args := n.ChildByFieldName("arguments")
		if fn != nil && fn.Type() == "import" {
			var source *estree.Node
			if a := c.arguments(args); len(a) > 0 {
				source = a[0]
			}
			return c.newNode(n, "ImportExpression").SetChild("source", source), false
		}

		callee, innerOpt := inner(fn)
		if args != nil && args.Type() == "template_string" {
			return c.newNode(n, "TaggedTemplateExpression").
				SetChild("tag", callee).
				SetChild("quasi", c.template(args)), innerOpt
		}
		return c.newNode(n, "CallExpression").
			Set("optional", optional).
			SetChild("callee", callee).
			SetList("arguments", c.arguments(args)...), optional || innerOpt

	case "member_expression":
		object, innerOpt := inner(n.ChildByFieldName("object"))
		return c.newNode(n, "MemberExpression").
			Set("computed", false).
			Set("optional", optional).
			SetChild("object", object).
			SetChild("property", c.optional(n.ChildByFieldName("property"))), optional || innerOpt

	default: // subscript_expression
		object, innerOpt := inner(n.ChildByFieldName("object"))
		return c.newNode(n, "MemberExpression").
			Set("computed", true).
			Set("optional", optional).
			SetChild("object", object).
			SetChild("property", c.optional(n.ChildByFieldName("index"))), optional || innerOpt
	}
}

func (c *converter) arguments(n *sitter.Node) []*estree.Node {
	if n == nil {
		return nil
	}
	return c.statements(c.namedChildren(n))
}

func (c *converter) params(n *sitter.Node) []*estree.Node {
	if n == nil {
		return nil
	}
	var out []*estree.Node
	for _, p := range c.namedChildren(n) {
		if p.Type() == "this" {
			continue // TypeScript this parameter
		}
		out = append(out, c.convert(p))
	}
	return out
}

func (c *converter) body(n *sitter.Node) *estree.Node {
	if n == nil {
		return nil
	}
	return c.convert(n)
}

func (c *converter) function(n *sitter.Node, typ string) *estree.Node {
	generator := strings.HasPrefix(n.Type(), "generator_") || c.hasToken(n, "*")
	return c.newNode(n, typ).
		Set("async", c.hasToken(n, "async")).
		Set("generator", generator).
		SetChild("id", c.optional(n.ChildByFieldName("name"))).
		SetList("params", c.params(n.ChildByFieldName("parameters"))...).
		SetChild("body", c.body(n.ChildByFieldName("body")))
}

func (c *converter) arrow(n *sitter.Node) *estree.Node {
	var params []*estree.Node
	if p := n.ChildByFieldName("parameter"); p != nil {
		params = []*estree.Node{c.convert(p)}
	} else {
		params = c.params(n.ChildByFieldName("parameters"))
	}

	body := n.ChildByFieldName("body")
	return c.newNode(n, "ArrowFunctionExpression").
		Set("async", c.hasToken(n, "async")).
		Set("expression", body != nil && body.Type() != "statement_block").
		SetList("params", params...).
		SetChild("body", c.body(body))
}

func (c *converter) class(n *sitter.Node, typ string) *estree.Node {
	var superClass *estree.Node
	for _, k := range c.namedChildren(n) {
		if k.Type() != "class_heritage" {
			continue
		}
		for _, h := range c.namedChildren(k) {
			switch h.Type() {
			case "extends_clause":
				if v := h.ChildByFieldName("value"); v != nil {
					superClass = c.convert(v)
				} else {
					superClass = c.optional(c.firstNamed(h))
				}
			case "implements_clause":
			default:
				if superClass == nil {
					superClass = c.convert(h)
				}
			}
		}
	}

	var members []*estree.Node
	bodyNode := n.ChildByFieldName("body")
	for _, m := range c.namedChildren(bodyNode) {
		if member := c.classMember(m); member != nil {
			members = append(members, member)
		}
	}
	var body *estree.Node
	if bodyNode != nil {
		body = c.newNode(bodyNode, "ClassBody").SetList("body", members...)
	}

	return c.newNode(n, typ).
		SetChild("id", c.optional(n.ChildByFieldName("name"))).
		SetChild("superClass", superClass).
		SetChild("body", body)
}

func (c *converter) classMember(m *sitter.Node) *estree.Node {
	switch m.Type() {
	case "method_definition":
		key := m.ChildByFieldName("name")
		kind := "method"
		switch {
		case c.hasToken(m, "get"):
			kind = "get"
		case c.hasToken(m, "set"):
			kind = "set"
		case c.text(key) == "constructor":
			kind = "constructor"
		}
		value := c.newNode(m, "FunctionExpression").
			Set("async", c.hasToken(m, "async")).
			Set("generator", c.hasToken(m, "*")).
			SetChild("id", nil).
			SetList("params", c.params(m.ChildByFieldName("parameters"))...).
			SetChild("body", c.body(m.ChildByFieldName("body")))
		return c.newNode(m, "MethodDefinition").
			Set("kind", kind).
			Set("static", c.hasToken(m, "static")).
			Set("computed", key != nil && key.Type() == "computed_property_name").
			SetChild("key", c.optional(key)).
			SetChild("value", value)
	case "field_definition", "public_field_definition":
		key := m.ChildByFieldName("property")
		if key == nil {
			key = m.ChildByFieldName("name")
		}
		return c.newNode(m, "PropertyDefinition").
			Set("static", c.hasToken(m, "static")).
			Set("computed", key != nil && key.Type() == "computed_property_name").
			SetChild("key", c.optional(key)).
			SetChild("value", c.optional(m.ChildByFieldName("value")))
	case "class_static_block":
		var stmts []*estree.Node
		if b := m.ChildByFieldName("body"); b != nil {
			stmts = c.statements(c.namedChildren(b))
		} else {
			stmts = c.statements(c.namedChildren(m))
		}
		return c.newNode(m, "StaticBlock").SetList("body", stmts...)
	}
	if _, ok := declarationOnly[m.Type()]; ok {
		return nil
	}
	return c.convert(m)
}

func (c *converter) object(n *sitter.Node, pattern bool) *estree.Node {
	typ := "ObjectExpression"
	if pattern {
		typ = "ObjectPattern"
	}

	var props []*estree.Node
	for _, p := range c.namedChildren(n) {
		props = append(props, c.property(p))
	}
	return c.newNode(n, typ).SetList("properties", props...)
}

func (c *converter) property(p *sitter.Node) *estree.Node {
	prop := func(key, value *estree.Node, computed, shorthand bool) *estree.Node {
		return c.newNode(p, "Property").
			Set("kind", "init").
			Set("method", false).
			Set("computed", computed).
			Set("shorthand", shorthand).
			SetChild("key", key).
			SetChild("value", value)
	}

	switch p.Type() {
	case "pair", "pair_pattern":
		key := p.ChildByFieldName("key")
		return prop(c.optional(key), c.optional(p.ChildByFieldName("value")),
			key != nil && key.Type() == "computed_property_name", false)
	case "shorthand_property_identifier", "shorthand_property_identifier_pattern":
		return prop(c.convert(p), c.convert(p), false, true)
	case "object_assignment_pattern":
		left := p.ChildByFieldName("left")
		value := c.newNode(p, "AssignmentPattern").
			SetChild("left", c.optional(left)).
			SetChild("right", c.optional(p.ChildByFieldName("right")))
		return prop(c.optional(left), value, false, true)
	case "method_definition":
		m := c.classMember(p)
		node := prop(m.Child("key"), m.Child("value"), m.Bool("computed"), false)
		switch kind := m.Str("kind"); kind {
		case "get", "set":
			node.Set("kind", kind)
		default:
			node.Set("method", true)
		}
		return node
	case "rest_pattern":
		return c.convert(p)
	}
	return c.convert(p)
}

func (c *converter) template(n *sitter.Node) *estree.Node {
	var quasis, exprs []*estree.Node
	start := int(n.StartByte()) + 1
	end := int(n.EndByte()) - 1

	addQuasi := func(from, to int, tail bool) {
		if to < from {
			to = from
		}
		raw := string(c.src[from:to])
		q := estree.New("TemplateElement").Set("raw", raw).Set("cooked", unescape(raw)).Set("tail", tail)
		q.Range = estree.Range{from, to}
		quasis = append(quasis, q)
	}

	cursor := start
	for _, k := range c.namedChildren(n) {
		if k.Type() != "template_substitution" {
			continue
		}
		addQuasi(cursor, int(k.StartByte()), false)
		exprs = append(exprs, c.expressions(k))
		cursor = int(k.EndByte())
	}
	addQuasi(cursor, end, true)

	return c.newNode(n, "TemplateLiteral").
		SetList("quasis", quasis...).
		SetList("expressions", exprs...)
}

func (c *converter) importStatement(n *sitter.Node) *estree.Node {
	var specs []*estree.Node
	for _, k := range c.namedChildren(n) {
		if k.Type() != "import_clause" {
			continue
		}
		for _, part := range c.namedChildren(k) {
			switch part.Type() {
			case "identifier":
				specs = append(specs, c.newNode(part, "ImportDefaultSpecifier").SetChild("local", c.convert(part)))
			case "namespace_import":
				specs = append(specs, c.newNode(part, "ImportNamespaceSpecifier").
					SetChild("local", c.optional(c.firstNamed(part))))
			case "named_imports":
				for _, s := range c.namedChildren(part) {
					name := c.optional(s.ChildByFieldName("name"))
					local := c.optional(s.ChildByFieldName("alias"))
					if local == nil {
						local = c.optional(s.ChildByFieldName("name"))
					}
					specs = append(specs, c.newNode(s, "ImportSpecifier").
						SetChild("imported", name).
						SetChild("local", local))
				}
			}
		}
	}
	return c.newNode(n, "ImportDeclaration").
		SetList("specifiers", specs...).
		SetChild("source", c.optional(n.ChildByFieldName("source")))
}

func (c *converter) exportStatement(n *sitter.Node) *estree.Node {
	source := c.optional(n.ChildByFieldName("source"))
	decl := n.ChildByFieldName("declaration")

	if c.hasToken(n, "default") {
		var d *estree.Node
		if decl != nil {
			d = c.convert(decl)
		} else {
			d = c.optional(n.ChildByFieldName("value"))
		}
		return c.newNode(n, "ExportDefaultDeclaration").SetChild("declaration", d)
	}

	if decl == nil && c.hasToken(n, "*") {
		var exported *estree.Node
		for _, k := range c.namedChildren(n) {
			if k.Type() == "namespace_export" {
				exported = c.optional(c.firstNamed(k))
			}
		}
		return c.newNode(n, "ExportAllDeclaration").
			SetChild("exported", exported).
			SetChild("source", source)
	}

	var specs []*estree.Node
	for _, k := range c.namedChildren(n) {
		if k.Type() != "export_clause" {
			continue
		}
		for _, s := range c.namedChildren(k) {
			local := c.optional(s.ChildByFieldName("name"))
			exported := c.optional(s.ChildByFieldName("alias"))
			if exported == nil {
				exported = c.optional(s.ChildByFieldName("name"))
			}
			specs = append(specs, c.newNode(s, "ExportSpecifier").
				SetChild("exported", exported).
				SetChild("local", local))
		}
	}
	return c.newNode(n, "ExportNamedDeclaration").
		SetChild("declaration", c.optional(decl)).
		SetList("specifiers", specs...).
		SetChild("source", source)
}

func (c *converter) number(n *sitter.Node) *estree.Node {
	raw := c.text(n)
	node := c.newNode(n, "Literal").Set("raw", raw)
	if strings.HasSuffix(raw, "n") {
		digits := strings.ReplaceAll(strings.TrimSuffix(raw, "n"), "_", "")
		return node.Set("value", nil).Set("bigint", normalizeBigInt(digits))
	}
	return node.Set("value", parseNumber(raw))
}

// pascal turns a tree-sitter node type into an ESTree-style type name.
func pascal(s string) string {
	parts := strings.Split(s, "_")
	var b strings.Builder
	for _, p := range parts {
		if p == "" {
			continue
		}
		b.WriteString(strings.ToUpper(p[:1]) + p[1:])
	}
	return b.String()
}

package extract

import (
	"strings"

	"github.com/jward/joanna/internal/syntax"
)

// ancestry is the chain of nodes being visited, innermost first.
type ancestry struct {
	node   *syntax.Node
	parent *ancestry
}

func (a *ancestry) push(n *syntax.Node) *ancestry {
	return &ancestry{node: n, parent: a}
}

// classFrame is the chain of enclosing classes, innermost first.
type classFrame struct {
	id     EntityID
	parent *classFrame
}

type walker struct {
	reg      *Registry
	opts     options
	deferred []deferredExport
}

// deferredExport is an export of a name that had no declaration yet when the
// export was seen. Function declarations hoist, so these resolve after the
// walk. An empty name on a named export takes the entity's own name.
type deferredExport struct {
	local     string
	name      string
	isDefault bool
	binding   Binding
	doc       string
	hasDoc    bool
}

// fileScope reports whether the node at the head of anc is declared at the
// top level of the file, where its name is visible to exports.
func fileScope(anc *ancestry, cls *classFrame) bool {
	if cls != nil {
		return false
	}
	for a := anc.parent; a != nil; a = a.parent {
		if a.node.Kind == syntax.KindStatementBlock {
			return false
		}
	}
	return true
}

// visit dispatches on n's kind. Handlers for declarations return the entity
// they produced so an enclosing export can relocate it.
func (w *walker) visit(n *syntax.Node, anc *ancestry, cls *classFrame) (EntityID, bool) {
	if n == nil {
		return 0, false
	}
	anc = anc.push(n)

	switch n.Kind {
	case syntax.KindExportStatement:
		w.visitExport(n, anc, cls)
	case syntax.KindAssignment:
		w.visitAssignment(n, anc, cls)
	case syntax.KindFunctionDeclaration, syntax.KindFunctionExpression, syntax.KindArrowFunction:
		return w.visitFunction(n, anc, cls), true
	case syntax.KindClassDeclaration, syntax.KindClassExpression:
		return w.visitClass(n, anc, cls), true
	case syntax.KindMethodDefinition:
		w.visitMethod(n, anc, cls)
	case syntax.KindFieldDefinition:
		w.visitField(n, anc, cls)
	case syntax.KindVariableDeclaration:
		return w.visitVariables(n, anc, cls)
	default:
		w.visitChildren(n, anc, cls)
	}
	return 0, false
}

func (w *walker) visitChildren(n *syntax.Node, anc *ancestry, cls *classFrame) {
	for _, child := range n.Children {
		w.visit(child, anc, cls)
	}
}

func (w *walker) visitFunction(n *syntax.Node, anc *ancestry, cls *classFrame) EntityID {
	e := Entity{
		Kind:    KindFunction,
		Name:    n.Name(),
		Range:   rangeOf(n.Loc),
		Binding: BindingLocal,
		Params:  paramNames(n),
	}
	if doc, _, ok := w.docAt(anc, n.Loc.Start); ok {
		e.Doc = doc
	}
	id := w.reg.Add(e)
	if n.Kind == syntax.KindFunctionDeclaration && fileScope(anc, cls) {
		w.reg.Bind(e.Name, id)
	}
	return id
}

func (w *walker) visitClass(n *syntax.Node, anc *ancestry, cls *classFrame) EntityID {
	e := Entity{
		Kind:       KindClass,
		Name:       n.Name(),
		Range:      rangeOf(n.Loc),
		SuperClass: superClassName(n),
	}
	if doc, _, ok := w.docAt(anc, n.Loc.Start); ok {
		e.Doc = doc
	}
	id := w.reg.Add(e)
	if n.Kind == syntax.KindClassDeclaration && fileScope(anc, cls) {
		w.reg.Bind(e.Name, id)
	}

	body := n.Field("body")
	if body == nil {
		body = n.ChildOfKind(syntax.KindClassBody)
	}
	w.visit(body, anc, &classFrame{id: id, parent: cls})
	return id
}

// inClassBody reports whether the node at the head of anc sits directly in a
// class body. Method shapes also occur in object literals.
func inClassBody(anc *ancestry, cls *classFrame) bool {
	return cls != nil && anc.parent != nil && anc.parent.node.Kind == syntax.KindClassBody
}

func (w *walker) visitMethod(n *syntax.Node, anc *ancestry, cls *classFrame) {
	if !inClassBody(anc, cls) {
		return
	}
	name := n.Name()
	e := Entity{
		Kind:    KindFunction,
		Name:    name,
		Range:   rangeOf(n.Loc),
		Binding: memberBinding(n.Static),
		Params:  paramNames(n),
	}
	if doc, _, ok := w.docAt(anc, n.Loc.Start); ok {
		e.Doc = doc
	}
	id := w.reg.Add(e)
	w.reg.AddMember(cls.id, id, n.Static)

	if name == "constructor" && !n.Static && w.opts.constructorProperties {
		w.visit(n.Field("body"), anc, cls)
	}
}

func (w *walker) visitField(n *syntax.Node, anc *ancestry, cls *classFrame) {
	if !inClassBody(anc, cls) {
		return
	}
	e := Entity{
		Kind:    KindPrimitive,
		Name:    n.Field("property").Name(),
		Range:   rangeOf(n.Loc),
		Binding: memberBinding(n.Static),
	}
	if v := n.Field("value"); v != nil && v.Kind.IsFunction() {
		e.Kind = KindFunction
		e.Params = paramNames(v)
	}
	if doc, _, ok := w.docAt(anc, n.Loc.Start); ok {
		e.Doc = doc
	}
	id := w.reg.Add(e)
	w.reg.AddMember(cls.id, id, n.Static)
}

func memberBinding(static bool) Binding {
	if static {
		return BindingStaticMember
	}
	return BindingInstance
}

// visitVariables names anonymous function and class values after their
// declarator. A declaration holding exactly one such value returns it.
func (w *walker) visitVariables(n *syntax.Node, anc *ancestry, cls *classFrame) (EntityID, bool) {
	bind := fileScope(anc, cls)
	var found []EntityID
	for _, d := range n.Children {
		if d.Kind != syntax.KindVariableDeclarator {
			w.visit(d, anc, cls)
			continue
		}
		value := d.Field("value")
		id, ok := w.visit(value, anc.push(d), cls)
		if !ok {
			continue
		}
		name := d.Field("name").Name()
		if e := w.reg.Entity(id); e.Name == "" {
			e.Name = name
		}
		if bind {
			w.reg.Bind(name, id)
		}
		found = append(found, id)
	}
	if len(found) == 0 {
		return 0, false
	}

	if doc, _, ok := w.docAt(anc, n.Loc.Start); ok {
		for _, id := range found {
			w.reg.Entity(id).Doc = doc
		}
	}
	if len(found) == 1 {
		return found[0], true
	}
	return 0, false
}

func (w *walker) visitExport(n *syntax.Node, anc *ancestry, cls *classFrame) {
	if clause := n.ChildOfKind(syntax.KindExportClause); clause != nil {
		if n.Field("source") == nil {
			w.exportClause(clause)
		}
		return
	}

	if n.Default {
		target := n.Field("declaration")
		if target == nil {
			target = n.Field("value")
		}
		id, ok := w.resolveValue(target, n, anc, cls)
		if !ok {
			w.deferExport(target, deferredExport{isDefault: true, binding: BindingModuleExport}, anc, n)
			return
		}
		w.markExport(id, BindingModuleExport, anc, n)
		w.reg.SetDefault(id)
		return
	}

	id, ok := w.visit(n.Field("declaration"), anc, cls)
	if !ok {
		return
	}
	w.reg.Relocate(id, rangeOf(n.Loc))
	w.markExport(id, BindingNamedExport, anc, n)
	w.reg.Export(w.reg.Entity(id).Name, id)
}

// exportClause handles `export { a, b as c }` for names declared in this file.
func (w *walker) exportClause(clause *syntax.Node) {
	for _, sp := range clause.Children {
		if sp.Kind != syntax.KindExportSpecifier {
			continue
		}
		local := sp.Field("name").Name()
		exported := sp.Field("alias").Name()
		if exported == "" {
			exported = local
		}
		id, ok := w.reg.Local(local)
		if !ok {
			d := deferredExport{local: local, name: exported, binding: BindingNamedExport}
			if exported == "default" {
				d = deferredExport{local: local, isDefault: true, binding: BindingModuleExport}
			}
			w.deferred = append(w.deferred, d)
			continue
		}
		if exported == "default" {
			w.reg.Entity(id).Binding = BindingModuleExport
			w.reg.SetDefault(id)
			continue
		}
		w.reg.Entity(id).Binding = BindingNamedExport
		w.reg.Export(exported, id)
	}
}

func (w *walker) visitAssignment(n *syntax.Node, anc *ancestry, cls *classFrame) {
	left, right := n.Field("left"), n.Field("right")
	if left == nil || left.Kind != syntax.KindMemberExpression {
		w.visit(right, anc, cls)
		return
	}
	obj := left.Field("object")
	prop := left.Field("property").Name()

	switch {
	case obj != nil && obj.Kind == syntax.KindThis:
		w.thisAssignment(n, anc, cls, prop)

	case isExportsObject(obj):
		id, ok := w.resolveValue(right, n, anc, cls)
		if !ok {
			w.deferExport(right, deferredExport{binding: BindingNamedExport}, anc, n)
			return
		}
		e := w.reg.Entity(id)
		if e.Name == "" {
			e.Name = prop
		}
		name := e.Name
		w.markExport(id, BindingNamedExport, anc, n)
		w.reg.Export(name, id)

	case isIdent(obj, "module") && prop == "exports":
		id, ok := w.resolveValue(right, n, anc, cls)
		if !ok {
			w.deferExport(right, deferredExport{isDefault: true, binding: BindingModuleExport}, anc, n)
			return
		}
		w.markExport(id, BindingModuleExport, anc, n)
		w.reg.SetDefault(id)

	default:
		w.visit(right, anc, cls)
	}
}

// thisAssignment records `this.x = …` as an instance property of the
// enclosing class when it carries explicitly tagged documentation.
func (w *walker) thisAssignment(n *syntax.Node, anc *ancestry, cls *classFrame, prop string) {
	if cls == nil || prop == "" {
		return
	}
	doc, explicit, ok := w.docAt(anc, n.Loc.Start)
	if !ok || !explicit {
		return
	}
	id := w.reg.Add(Entity{
		Kind:    KindPrimitive,
		Name:    prop,
		Range:   rangeOf(n.Loc),
		Binding: BindingInstance,
		Doc:     doc,
	})
	w.reg.AddMember(cls.id, id, false)
}

// resolveValue finds the entity an exported value refers to. An identifier
// bound to an earlier declaration is reused where it stands; anything else
// is visited and, if it produced an entity, relocated to the wrapper.
func (w *walker) resolveValue(value, wrapper *syntax.Node, anc *ancestry, cls *classFrame) (EntityID, bool) {
	for value != nil && value.Kind == syntax.KindParenthesized && len(value.Children) == 1 {
		value = value.Children[0]
	}
	if value == nil {
		return 0, false
	}
	if value.Kind == syntax.KindIdentifier {
		return w.reg.Local(value.Text)
	}
	id, ok := w.visit(value, anc, cls)
	if !ok {
		return 0, false
	}
	w.reg.Relocate(id, rangeOf(wrapper.Loc))
	return id, true
}

// markExport sets the binding and takes documentation from the wrapper.
func (w *walker) markExport(id EntityID, b Binding, anc *ancestry, wrapper *syntax.Node) {
	w.reg.Entity(id).Binding = b
	// docAt may register comments, so the entity is looked up again.
	if doc, _, ok := w.docAt(anc, wrapper.Loc.Start); ok {
		w.reg.Entity(id).Doc = doc
	}
}

// deferExport queues an export of an identifier declared further down. The
// wrapper's documentation is read now, while its ancestry is at hand.
func (w *walker) deferExport(value *syntax.Node, d deferredExport, anc *ancestry, wrapper *syntax.Node) {
	for value != nil && value.Kind == syntax.KindParenthesized && len(value.Children) == 1 {
		value = value.Children[0]
	}
	if value == nil || value.Kind != syntax.KindIdentifier {
		return
	}
	d.local = value.Text
	d.doc, _, d.hasDoc = w.docAt(anc, wrapper.Loc.Start)
	w.deferred = append(w.deferred, d)
}

// resolveDeferred applies queued exports whose names were declared later in
// the file. Names never declared stay unexported.
func (w *walker) resolveDeferred() {
	for _, d := range w.deferred {
		id, ok := w.reg.Local(d.local)
		if !ok {
			continue
		}
		e := w.reg.Entity(id)
		e.Binding = d.binding
		if d.hasDoc {
			e.Doc = d.doc
		}
		switch {
		case d.isDefault:
			w.reg.SetDefault(id)
		case d.name != "":
			w.reg.Export(d.name, id)
		default:
			w.reg.Export(e.Name, id)
		}
	}
	w.deferred = nil
}

// isExportsObject matches `exports` and `module.exports`.
func isExportsObject(n *syntax.Node) bool {
	if isIdent(n, "exports") {
		return true
	}
	return n != nil && n.Kind == syntax.KindMemberExpression &&
		isIdent(n.Field("object"), "module") && n.Field("property").Name() == "exports"
}

func isIdent(n *syntax.Node, name string) bool {
	return n != nil && n.Kind == syntax.KindIdentifier && n.Text == name
}

// superClassName returns the extends target as an identifier or dotted path.
func superClassName(n *syntax.Node) string {
	heritage := n.ChildOfKind(syntax.KindClassHeritage)
	if heritage == nil || len(heritage.Children) == 0 {
		return ""
	}
	return dottedName(heritage.Children[0])
}

func dottedName(n *syntax.Node) string {
	if n == nil {
		return ""
	}
	switch n.Kind {
	case syntax.KindIdentifier, syntax.KindPropertyIdentifier:
		return n.Text
	case syntax.KindMemberExpression:
		obj, prop := dottedName(n.Field("object")), n.Field("property").Name()
		if obj == "" || prop == "" {
			return ""
		}
		return obj + "." + prop
	}
	return ""
}

// paramNames lists a function's parameters in order.
func paramNames(fn *syntax.Node) []string {
	if p := fn.Field("parameter"); p != nil {
		return []string{paramName(p)}
	}
	params := fn.Field("parameters")
	names := make([]string, 0)
	if params == nil {
		return names
	}
	for _, p := range params.Children {
		names = append(names, paramName(p))
	}
	return names
}

func paramName(p *syntax.Node) string {
	switch p.Kind {
	case syntax.KindIdentifier:
		return p.Text
	case syntax.KindAssignmentPattern:
		if left := p.Field("left"); left != nil && left.Kind == syntax.KindIdentifier {
			return left.Text
		}
	case syntax.KindRestPattern:
		if id := p.ChildOfKind(syntax.KindIdentifier); id != nil {
			return id.Text
		}
	}
	return strings.TrimSpace(p.Text)
}

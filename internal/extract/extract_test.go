package extract

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/joanna/internal/parse"
	"github.com/jward/joanna/internal/syntax"
)

func parseSource(t *testing.T, src string) *syntax.Node {
	t.Helper()
	root, err := parse.Parse(context.Background(), []byte(src))
	require.NoError(t, err)
	return root
}

func extractSource(t *testing.T, src string, opts ...Option) *FileMetadata {
	t.Helper()
	return Extract(parseSource(t, src), opts...)
}

func pos(line, col int) Position { return Position{Line: line, Column: col} }

func requireAt(t *testing.T, md *FileMetadata, line, col int) *Entity {
	t.Helper()
	e := md.At(pos(line, col))
	require.NotNil(t, e, "no entity at %d:%d", line, col)
	return e
}

// ===== Classes =====

func TestExtract_PersonClass(t *testing.T) {
	t.Parallel()
	src := "// A person class\n" +
		"class Person extends Animal { constructor(name) {this.name=name} getName(){return this.name} }\n"
	md := extractSource(t, src)

	cls := requireAt(t, md, 1, 0)
	assert.Equal(t, KindClass, cls.Kind)
	assert.Equal(t, "Person", cls.Name)
	assert.Equal(t, "Animal", cls.SuperClass)
	assert.Equal(t, "Private: A person class", cls.Doc)
	assert.Equal(t, BindingUndefined, cls.Binding)
	assert.Empty(t, cls.StaticMembers)
	require.Len(t, cls.InstanceMembers, 2)

	ctor := md.At(cls.InstanceMembers[0])
	require.NotNil(t, ctor)
	assert.Equal(t, "constructor", ctor.Name)
	assert.Equal(t, []string{"name"}, ctor.Params)
	assert.Equal(t, BindingInstance, ctor.Binding)

	getName := md.At(cls.InstanceMembers[1])
	require.NotNil(t, getName)
	assert.Equal(t, "getName", getName.Name)
	assert.Equal(t, KindFunction, getName.Kind)
}

func TestExtract_StaticMembersNeverInstance(t *testing.T) {
	t.Parallel()
	src := `class Util {
  static make() {}
  use() {}
}
`
	md := extractSource(t, src)
	cls := requireAt(t, md, 0, 0)
	assert.Equal(t, []Position{pos(1, 2)}, cls.StaticMembers)
	assert.Equal(t, []Position{pos(2, 2)}, cls.InstanceMembers)

	mk := requireAt(t, md, 1, 2)
	assert.Equal(t, "make", mk.Name)
	assert.Equal(t, BindingStaticMember, mk.Binding)
	assert.NotContains(t, cls.InstanceMembers, pos(1, 2))
}

func TestExtract_ClassFields(t *testing.T) {
	t.Parallel()
	src := `class Store {
  static instances = 0;
  handler = (evt) => {};
}
`
	md := extractSource(t, src)
	cls := requireAt(t, md, 0, 0)
	assert.Equal(t, []Position{pos(1, 2)}, cls.StaticMembers)
	assert.Equal(t, []Position{pos(2, 2)}, cls.InstanceMembers)

	count := requireAt(t, md, 1, 2)
	assert.Equal(t, KindPrimitive, count.Kind)
	assert.Equal(t, "instances", count.Name)
	assert.Equal(t, BindingStaticMember, count.Binding)

	handler := requireAt(t, md, 2, 2)
	assert.Equal(t, KindFunction, handler.Kind)
	assert.Equal(t, []string{"evt"}, handler.Params)
	assert.Equal(t, BindingInstance, handler.Binding)
}

func TestExtract_DottedSuperClass(t *testing.T) {
	t.Parallel()
	md := extractSource(t, "export class Widget extends Base.Component {}\n")
	cls := requireAt(t, md, 0, 0)
	assert.Equal(t, "Base.Component", cls.SuperClass)
	assert.Equal(t, BindingNamedExport, cls.Binding)
	assert.Equal(t, map[string]int{"Widget": 0}, md.Exports.Named)
}

// ===== Constructor properties =====

const pointSource = `class Point {
  constructor(x) {
    // Public: The x coordinate.
    this.x = x;
    // plain note
    this.y = 0;
  }
}
`

func TestExtract_ConstructorProperties(t *testing.T) {
	t.Parallel()
	md := extractSource(t, pointSource)

	cls := requireAt(t, md, 0, 0)
	assert.Equal(t, []Position{pos(1, 2), pos(3, 4)}, cls.InstanceMembers)

	x := requireAt(t, md, 3, 4)
	assert.Equal(t, KindPrimitive, x.Kind)
	assert.Equal(t, "x", x.Name)
	assert.Equal(t, BindingInstance, x.Binding)
	assert.Equal(t, "Public: The x coordinate.", x.Doc)

	assert.Nil(t, md.At(pos(5, 4)), "untagged this-assignment must not register")
}

func TestExtract_ConstructorPropertiesDisabled(t *testing.T) {
	t.Parallel()
	md := extractSource(t, pointSource, WithConstructorProperties(false))

	cls := requireAt(t, md, 0, 0)
	assert.Equal(t, []Position{pos(1, 2)}, cls.InstanceMembers)
	assert.Nil(t, md.At(pos(3, 4)))
}

// ===== CommonJS exports =====

func TestExtract_ExportsProperty(t *testing.T) {
	t.Parallel()
	src := "// greets\nexports.hello = function hello(a,b) { return a + b; };\n"
	md := extractSource(t, src)

	fn := requireAt(t, md, 1, 0)
	assert.Equal(t, KindFunction, fn.Kind)
	assert.Equal(t, "hello", fn.Name)
	assert.Equal(t, BindingNamedExport, fn.Binding)
	assert.Equal(t, []string{"a", "b"}, fn.Params)
	assert.Equal(t, "Private: greets", fn.Doc)
	assert.Equal(t, map[string]int{"hello": 1}, md.Exports.Named)

	assert.Nil(t, md.At(pos(1, 16)), "inner function position must be released")
	assert.Equal(t, 1, md.Len())
}

func TestExtract_ModuleExportsPropertyAnonymous(t *testing.T) {
	t.Parallel()
	md := extractSource(t, "module.exports.run = (task) => task();\n")

	fn := requireAt(t, md, 0, 0)
	assert.Equal(t, "run", fn.Name)
	assert.Equal(t, BindingNamedExport, fn.Binding)
	assert.Equal(t, []string{"task"}, fn.Params)
	assert.Equal(t, map[string]int{"run": 0}, md.Exports.Named)
}

func TestExtract_ModuleExportsReusesLocal(t *testing.T) {
	t.Parallel()
	src := "// Public: Foo does things.\nclass Foo {}\n\nmodule.exports = Foo;\n"
	md := extractSource(t, src)

	assert.Equal(t, 1, md.Len())
	foo := requireAt(t, md, 1, 0)
	assert.Equal(t, BindingModuleExport, foo.Binding)
	assert.Equal(t, "Public: Foo does things.", foo.Doc)
	assert.True(t, md.Exports.HasDefault)
	assert.Equal(t, 1, md.Exports.Default)
}

func TestExtract_ModuleExportsClassExpression(t *testing.T) {
	t.Parallel()
	md := extractSource(t, "// Public: Queue.\nmodule.exports = class Queue extends Base {\n  push(item) {}\n};\n")

	cls := requireAt(t, md, 1, 0)
	assert.Equal(t, "Queue", cls.Name)
	assert.Equal(t, "Base", cls.SuperClass)
	assert.Equal(t, BindingModuleExport, cls.Binding)
	assert.Equal(t, "Public: Queue.", cls.Doc)
	assert.Equal(t, []Position{pos(2, 2)}, cls.InstanceMembers)
	assert.True(t, md.Exports.HasDefault)
	assert.Equal(t, 1, md.Exports.Default)
}

// ===== ES module exports =====

func TestExtract_NamedExportRelocates(t *testing.T) {
	t.Parallel()
	md := extractSource(t, "// Public: Builds things.\nexport function build(x) {}\n")

	fn := requireAt(t, md, 1, 0)
	assert.Equal(t, "build", fn.Name)
	assert.Equal(t, BindingNamedExport, fn.Binding)
	assert.Equal(t, "Public: Builds things.", fn.Doc)
	assert.Equal(t, map[string]int{"build": 1}, md.Exports.Named)
	assert.Nil(t, md.At(pos(1, 7)))
}

func TestExtract_ExportConstArrow(t *testing.T) {
	t.Parallel()
	md := extractSource(t, "// Public: Double it.\nexport const double = (n) => n * 2;\n")

	assert.Equal(t, 1, md.Len())
	fn := requireAt(t, md, 1, 0)
	assert.Equal(t, "double", fn.Name)
	assert.Equal(t, []string{"n"}, fn.Params)
	assert.Equal(t, BindingNamedExport, fn.Binding)
	assert.Equal(t, "Public: Double it.", fn.Doc)
	assert.Equal(t, map[string]int{"double": 1}, md.Exports.Named)
}

func TestExtract_ExportDefaultAnonymous(t *testing.T) {
	t.Parallel()
	md := extractSource(t, "export default function (opts) {}\n")

	fn := requireAt(t, md, 0, 0)
	assert.Equal(t, "", fn.Name)
	assert.Equal(t, BindingModuleExport, fn.Binding)
	assert.Equal(t, []string{"opts"}, fn.Params)
	assert.True(t, md.Exports.HasDefault)
	assert.Equal(t, 0, md.Exports.Default)

	out, err := json.Marshal(md.Exports)
	require.NoError(t, err)
	assert.Equal(t, "0", string(out))
}

func TestExtract_ExportClauseAlias(t *testing.T) {
	t.Parallel()
	md := extractSource(t, "function a() {}\nexport { a as b };\n")

	fn := requireAt(t, md, 0, 0)
	assert.Equal(t, BindingNamedExport, fn.Binding)
	assert.Equal(t, map[string]int{"b": 0}, md.Exports.Named)
}

func TestExtract_ReexportFromIgnored(t *testing.T) {
	t.Parallel()
	md := extractSource(t, "function a() {}\nexport { a } from './other.js';\n")

	fn := requireAt(t, md, 0, 0)
	assert.Equal(t, BindingLocal, fn.Binding)
	assert.Empty(t, md.Exports.Named)
}

func TestExtract_ExportDefaultParenthesized(t *testing.T) {
	t.Parallel()
	md := extractSource(t, "export default (class {\n  run() {}\n})\n")

	cls := requireAt(t, md, 0, 0)
	assert.Equal(t, KindClass, cls.Kind)
	assert.Equal(t, BindingModuleExport, cls.Binding)
	assert.Equal(t, []Position{pos(1, 2)}, cls.InstanceMembers)
	assert.True(t, md.Exports.HasDefault)
	assert.Equal(t, 0, md.Exports.Default)
}

// ===== Hoisted declarations =====

func TestExtract_ModuleExportsBeforeDeclaration(t *testing.T) {
	t.Parallel()
	md := extractSource(t, "module.exports = hello\n\nfunction hello() {}\n")

	fn := requireAt(t, md, 2, 0)
	assert.Equal(t, "hello", fn.Name)
	assert.Equal(t, BindingModuleExport, fn.Binding)
	assert.True(t, md.Exports.HasDefault)
	assert.Equal(t, 2, md.Exports.Default)
}

func TestExtract_ExportsPropertyBeforeDeclaration(t *testing.T) {
	t.Parallel()
	md := extractSource(t, "// Public: Says hello.\nexports.hello = hello\n\nfunction hello(name) {}\n")

	fn := requireAt(t, md, 3, 0)
	assert.Equal(t, BindingNamedExport, fn.Binding)
	assert.Equal(t, "Public: Says hello.", fn.Doc)
	assert.Equal(t, map[string]int{"hello": 3}, md.Exports.Named)
	assert.Equal(t, 1, md.Len())
}

func TestExtract_ExportClauseBeforeDeclaration(t *testing.T) {
	t.Parallel()
	md := extractSource(t, "export { hello as hi }\nfunction hello() {}\n")

	assert.Equal(t, BindingNamedExport, requireAt(t, md, 1, 0).Binding)
	assert.Equal(t, map[string]int{"hi": 1}, md.Exports.Named)
}

func TestExtract_UndeclaredExportIgnored(t *testing.T) {
	t.Parallel()
	md := extractSource(t, "const lib = require('lib')\nmodule.exports = missing\n")

	assert.False(t, md.Exports.HasDefault)
	assert.Empty(t, md.Exports.Named)
}

// ===== Scope =====

func TestExtract_ConstructorLocalsDoNotShadowFileScope(t *testing.T) {
	t.Parallel()
	src := `function helper() {}
class A {
  constructor() { const helper = function () {} }
}
exports.helper = helper
`
	md := extractSource(t, src)

	top := requireAt(t, md, 0, 0)
	assert.Equal(t, "helper", top.Name)
	assert.Equal(t, BindingNamedExport, top.Binding)
	assert.Equal(t, map[string]int{"helper": 0}, md.Exports.Named)

	for _, e := range md.Entities() {
		if e.Range.Start.Line == 2 && e.Kind == KindFunction && e.Name == "helper" {
			assert.NotEqual(t, BindingNamedExport, e.Binding)
		}
	}
}

func TestExtract_BlockLocalsDoNotShadowFileScope(t *testing.T) {
	t.Parallel()
	src := `const run = function () {}
if (debug) {
  const run = function () {}
}
module.exports = run
`
	md := extractSource(t, src)

	fn := requireAt(t, md, 0, 0)
	assert.Equal(t, BindingModuleExport, fn.Binding)
	assert.Equal(t, 0, md.Exports.Default)
}

// ===== Comments =====

func TestExtract_CommentTagging(t *testing.T) {
	t.Parallel()
	md := extractSource(t, "// hello\nfunction f() {}\n")
	assert.Equal(t, "Private: hello", requireAt(t, md, 1, 0).Doc)

	md = extractSource(t, "// Essential: Core entry.\nfunction g() {}\n")
	assert.Equal(t, "Essential: Core entry.", requireAt(t, md, 1, 0).Doc)
}

func TestExtract_AdjacentCommentsMerge(t *testing.T) {
	t.Parallel()
	md := extractSource(t, "// one\n// two\nfunction g() {}\n")
	assert.Equal(t, "Private: one\ntwo", requireAt(t, md, 2, 0).Doc)
	assert.Equal(t, 1, md.Len())
}

func TestExtract_BlankLineSplitsGroups(t *testing.T) {
	t.Parallel()
	md := extractSource(t, "/* far */\n\n/* near */\nfunction f() {}\n")

	fn := requireAt(t, md, 3, 0)
	assert.Equal(t, "Private: near", fn.Doc)

	c := requireAt(t, md, 0, 0)
	assert.Equal(t, KindComment, c.Kind)
	assert.Equal(t, "far", c.Doc)
	assert.Equal(t, Range{Start: pos(0, 0), End: pos(0, 9)}, c.Range)
}

func TestExtract_CommentNotImmediatelyPreceding(t *testing.T) {
	t.Parallel()
	md := extractSource(t, "// stray\n\nfunction h() {}\n")

	fn := requireAt(t, md, 2, 0)
	assert.Empty(t, fn.Doc)
	c := requireAt(t, md, 0, 0)
	assert.Equal(t, KindComment, c.Kind)
	assert.Equal(t, "stray", c.Doc)
}

func TestExtract_JSDocBlock(t *testing.T) {
	t.Parallel()
	src := `/**
 * Public: Adds numbers.
 *
 * a - first
 */
function add(a, b = 0, ...more) {}
`
	md := extractSource(t, src)
	fn := requireAt(t, md, 5, 0)
	assert.Equal(t, "Public: Adds numbers.\n\na - first", fn.Doc)
	assert.Equal(t, []string{"a", "b", "more"}, fn.Params)
}

func TestExtract_DocumentedMethod(t *testing.T) {
	t.Parallel()
	src := `class Cache {
  // Public: Reads a key.
  get(key) {}
}
`
	md := extractSource(t, src)
	m := requireAt(t, md, 2, 2)
	assert.Equal(t, "Public: Reads a key.", m.Doc)
	assert.Empty(t, requireAt(t, md, 0, 0).Doc)
}

// ===== Properties =====

const mixedSource = `// Section: Helpers

// Public: Greets.
exports.greet = function (name) {};

/** Private: internal */
class Impl extends Base {
  static create() {}
  run(a, b) {}
}

export const util = () => {};
module.exports.Impl = Impl;
`

func TestExtract_Idempotent(t *testing.T) {
	t.Parallel()
	root := parseSource(t, mixedSource)

	first := Extract(root)
	second := Extract(root)
	assert.Equal(t, first, second)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.JSONEq(t, string(a), string(b))
}

func TestExtract_PositionsUnique(t *testing.T) {
	t.Parallel()
	md := extractSource(t, mixedSource)

	seen := make(map[Position]bool)
	for _, e := range md.Entities() {
		assert.False(t, seen[e.Range.Start], "duplicate start %v", e.Range.Start)
		seen[e.Range.Start] = true
	}
	assert.Equal(t, md.Len(), len(seen))
}

func TestExtract_MixedFile(t *testing.T) {
	t.Parallel()
	md := extractSource(t, mixedSource)

	section := requireAt(t, md, 0, 0)
	assert.Equal(t, KindComment, section.Kind)
	assert.Equal(t, "Section: Helpers", section.Doc)

	greet := requireAt(t, md, 3, 0)
	assert.Equal(t, "greet", greet.Name)
	assert.Equal(t, "Public: Greets.", greet.Doc)

	impl := requireAt(t, md, 6, 0)
	assert.Equal(t, "Impl", impl.Name)
	assert.Equal(t, "Private: internal", impl.Doc)
	assert.Equal(t, BindingNamedExport, impl.Binding)
	assert.Equal(t, []Position{pos(7, 2)}, impl.StaticMembers)
	assert.Equal(t, []Position{pos(8, 2)}, impl.InstanceMembers)

	util := requireAt(t, md, 11, 0)
	assert.Equal(t, "util", util.Name)

	assert.Equal(t, map[string]int{"greet": 3, "util": 11, "Impl": 6}, md.Exports.Named)
}

// ===== Serialization =====

func TestEntityJSON_FunctionKeySet(t *testing.T) {
	t.Parallel()
	md := extractSource(t, "function f(a) {}\n")
	out, err := json.Marshal(md)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"objects": {"0": {"0": {
			"type": "function", "name": "f", "bindingType": "variable",
			"paramNames": ["a"], "doc": null, "range": [[0,0],[0,16]]
		}}},
		"exports": {}
	}`, string(out))
}

func TestEntityJSON_ClassKeySet(t *testing.T) {
	t.Parallel()
	md := extractSource(t, "class A {}\n")
	out, err := json.Marshal(md.At(pos(0, 0)))
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"type": "class", "name": "A", "superClass": null, "bindingType": null,
		"classProperties": [], "prototypeProperties": [], "doc": null,
		"range": [[0,0],[0,10]]
	}`, string(out))
}

func TestEntityJSON_CommentKeySet(t *testing.T) {
	t.Parallel()
	e := Entity{Kind: KindComment, Doc: "note", Range: Range{End: pos(0, 7)}}
	out, err := json.Marshal(e)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"comment","doc":"note","range":[[0,0],[0,7]]}`, string(out))
}

func TestExportsJSON_RoundTrip(t *testing.T) {
	t.Parallel()
	var x Exports
	require.NoError(t, json.Unmarshal([]byte(`{"a": 3}`), &x))
	assert.False(t, x.HasDefault)
	assert.Equal(t, map[string]int{"a": 3}, x.Named)

	require.NoError(t, json.Unmarshal([]byte(`7`), &x))
	assert.True(t, x.HasDefault)
	assert.Equal(t, 7, x.Default)
}

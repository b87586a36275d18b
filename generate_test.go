package joanna

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/joanna/internal/parse"
)

// writeProject writes files (relative path → content) under a temp root.
func writeProject(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func TestGenerate_SingleFile(t *testing.T) {
	t.Parallel()
	src := []byte("// hello\nfunction hi(a, b) {}\n")
	md, err := Generate(context.Background(), "hi.js", src)
	require.NoError(t, err)

	fn := md.At(Position{Line: 1})
	require.NotNil(t, fn)
	assert.Equal(t, "Private: hello", fn.Doc)
	assert.Equal(t, []string{"a", "b"}, fn.Params)
}

func TestGenerate_UnsupportedFile(t *testing.T) {
	t.Parallel()
	_, err := Generate(context.Background(), "notes.txt", []byte("x"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedFile)
	assert.Contains(t, err.Error(), "notes.txt")
}

func TestGenerate_ParseErrorCarriesPath(t *testing.T) {
	t.Parallel()
	_, err := Generate(context.Background(), "lib/bad.js", []byte("function (\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lib/bad.js")

	var perr *parse.Error
	require.True(t, errors.As(err, &perr))
	assert.Positive(t, perr.Line)
}

func TestGenerate_ConstructorPropertiesOption(t *testing.T) {
	t.Parallel()
	src := []byte(`class Point {
  constructor() {
    // Public: X coordinate.
    this.x = 0
  }
}
`)
	on, err := Generate(context.Background(), "p.js", src)
	require.NoError(t, err)
	assert.NotNil(t, on.At(Position{Line: 3, Column: 4}))

	off, err := Generate(context.Background(), "p.js", src, WithConstructorProperties(false))
	require.NoError(t, err)
	assert.Nil(t, off.At(Position{Line: 3, Column: 4}))
}

func TestGenerate_FilterSource(t *testing.T) {
	t.Parallel()
	src := []byte("// Public: Kept.\nfunction keep() {}\n\nfunction drop() {}\n")
	md, err := Generate(context.Background(), "f.js", src,
		WithFilterSource(`entity["doc"] != nil`))
	require.NoError(t, err)
	assert.Equal(t, 1, md.Len())
	assert.NotNil(t, md.At(Position{Line: 1}))
}

func TestGenerateFiles_KeysByGivenPath(t *testing.T) {
	t.Parallel()
	root := writeProject(t, map[string]string{
		"a.js": "function a() {}\n",
		"b.js": "class B {}\n",
	})
	paths := []string{filepath.Join(root, "a.js"), filepath.Join(root, "b.js")}

	res, err := GenerateFiles(context.Background(), paths, WithWorkers(1))
	require.NoError(t, err)
	require.Len(t, res.Files, 2)
	assert.NotNil(t, res.Files[filepath.ToSlash(paths[0])].At(Position{}))
	assert.Equal(t, KindClass, res.Files[filepath.ToSlash(paths[1])].At(Position{}).Kind)
}

func TestGenerateFiles_FirstErrorFailsBatch(t *testing.T) {
	t.Parallel()
	root := writeProject(t, map[string]string{
		"good.js": "function ok() {}\n",
		"bad.js":  "class {\n",
	})
	_, err := GenerateFiles(context.Background(), []string{
		filepath.Join(root, "good.js"),
		filepath.Join(root, "bad.js"),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.js")
}

func TestGenerateDirectory_UsesDiscovery(t *testing.T) {
	t.Parallel()
	root := writeProject(t, map[string]string{
		"lib/index.js":              "function main() {}\n",
		"lib/util/strings.js":       "function pad() {}\n",
		"scripts/build.js":          "function build() {}\n",
		"node_modules/dep/lib/x.js": "function dep() {}\n",
		"lib/README.md":             "# readme\n",
	})

	res, err := GenerateDirectory(context.Background(), root)
	require.NoError(t, err)
	keys := make([]string, 0, len(res.Files))
	for k := range res.Files {
		keys = append(keys, k)
	}
	assert.ElementsMatch(t, []string{"lib/index.js", "lib/util/strings.js"}, keys)
}

func TestFindSources_ExcludeOption(t *testing.T) {
	t.Parallel()
	root := writeProject(t, map[string]string{
		"src/a.js":      "",
		"src/a.test.js": "",
	})
	got, err := FindSources(root, WithSourceOptions(SourceOptions{Exclude: []string{"**.test.js"}}))
	require.NoError(t, err)
	assert.Equal(t, []string{"src/a.js"}, got)
}

func TestResult_JSONShape(t *testing.T) {
	t.Parallel()
	md, err := Generate(context.Background(), "x.js", []byte("exports.hello = function hello(a, b) {}\n"))
	require.NoError(t, err)

	res := &Result{Files: map[string]*FileMetadata{"x.js": md}}
	res.SetPackage(&PackageInfo{Repository: "https://example.com/x.git", Version: "1.2.3"})
	data, err := json.Marshal(res)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"repository": "https://example.com/x.git",
		"version": "1.2.3",
		"files": {"x.js": {
			"objects": {"0": {"0": {
				"type": "function", "name": "hello", "bindingType": "exportsProperty",
				"paramNames": ["a", "b"], "doc": null, "range": [[0, 0], [0, 39]]
			}}},
			"exports": {"hello": 0}
		}}
	}`, string(data))
}

func TestLoadPackageInfo(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	obj := filepath.Join(dir, "obj.json")
	require.NoError(t, os.WriteFile(obj, []byte(`{"version":"2.0.0","repository":{"type":"git","url":"https://example.com/a.git"}}`), 0o644))
	info, err := LoadPackageInfo(obj)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/a.git", info.Repository)
	assert.Equal(t, "2.0.0", info.Version)

	str := filepath.Join(dir, "str.json")
	require.NoError(t, os.WriteFile(str, []byte(`{"version":"0.1.0","repository":"github:me/b"}`), 0o644))
	info, err = LoadPackageInfo(str)
	require.NoError(t, err)
	assert.Equal(t, "github:me/b", info.Repository)

	_, err = LoadPackageInfo(filepath.Join(dir, "missing.json"))
	require.Error(t, err)
}

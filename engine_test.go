package joanna

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/joanna/internal/store"
)

func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	e, err := New(dbPath, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { e.Close() })
	return e
}

func TestNew_CreatesStore(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)
	require.NotNil(t, e.Store())
	require.NotNil(t, e.Query())

	// Migration ran.
	_, err := e.Store().InsertFile(&store.File{Path: "a.js", Hash: "abc", LastIndexed: time.Now()})
	require.NoError(t, err)
}

func TestNew_InvalidPath(t *testing.T) {
	t.Parallel()
	_, err := New("/nonexistent/dir/db.sqlite")
	require.Error(t, err)
}

func TestNew_MissingFilterFile(t *testing.T) {
	t.Parallel()
	_, err := New(filepath.Join(t.TempDir(), "x.db"), WithFilterFile(filepath.Join(t.TempDir(), "nope.risor")))
	require.Error(t, err)
}

func TestIndexFiles_SkipsUnsupportedExtensions(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)

	tmp := filepath.Join(t.TempDir(), "readme.txt")
	require.NoError(t, os.WriteFile(tmp, []byte("hello"), 0o644))

	require.NoError(t, e.IndexFiles(context.Background(), []string{tmp}))
	f, err := e.Store().FileByPath(filepath.ToSlash(tmp))
	require.NoError(t, err)
	assert.Nil(t, f)
}

func TestIndexFiles_IndexesNewFile(t *testing.T) {
	t.Parallel()
	for _, parallel := range []bool{true, false} {
		e := newTestEngine(t, WithParallel(parallel))
		tmp := filepath.Join(t.TempDir(), "hello.js")
		require.NoError(t, os.WriteFile(tmp, []byte("exports.hello = function hello(a, b) {}\n"), 0o644))

		require.NoError(t, e.IndexFiles(context.Background(), []string{tmp}))

		md, err := e.Query().FileMetadata(filepath.ToSlash(tmp))
		require.NoError(t, err)
		require.NotNil(t, md)
		fn := md.At(Position{})
		require.NotNil(t, fn)
		assert.Equal(t, "hello", fn.Name)
		assert.Equal(t, map[string]int{"hello": 0}, md.Exports.Named)
	}
}

func TestIndexFiles_SkipsUnchangedFiles(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)
	tmp := filepath.Join(t.TempDir(), "a.js")
	require.NoError(t, os.WriteFile(tmp, []byte("function a() {}\n"), 0o644))
	key := filepath.ToSlash(tmp)

	require.NoError(t, e.IndexFiles(context.Background(), []string{tmp}))
	f, err := e.Store().FileByPath(key)
	require.NoError(t, err)

	// Drop the entities but keep the file row and its hash: a skipped file
	// stays empty.
	require.NoError(t, e.Store().DeleteFileData(f.ID))
	require.NoError(t, e.IndexFiles(context.Background(), []string{tmp}))

	md, err := e.Query().FileMetadata(key)
	require.NoError(t, err)
	assert.Equal(t, 0, md.Len())
}

func TestIndexFiles_ReindexesChangedFiles(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)
	tmp := filepath.Join(t.TempDir(), "a.js")
	key := filepath.ToSlash(tmp)
	require.NoError(t, os.WriteFile(tmp, []byte("function a() {}\n"), 0o644))
	require.NoError(t, e.IndexFiles(context.Background(), []string{tmp}))

	require.NoError(t, os.WriteFile(tmp, []byte("function b() {}\n"), 0o644))
	require.NoError(t, e.IndexFiles(context.Background(), []string{tmp}))

	md, err := e.Query().FileMetadata(key)
	require.NoError(t, err)
	require.Equal(t, 1, md.Len())
	assert.Equal(t, "b", md.At(Position{}).Name)

	stale, err := e.Query().EntitiesNamed("a")
	require.NoError(t, err)
	assert.Empty(t, stale)
}

func TestIndexFiles_ForceReextracts(t *testing.T) {
	t.Parallel()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	tmp := filepath.Join(t.TempDir(), "a.js")
	key := filepath.ToSlash(tmp)
	require.NoError(t, os.WriteFile(tmp, []byte("function a() {}\n"), 0o644))

	e, err := New(dbPath)
	require.NoError(t, err)
	require.NoError(t, e.IndexFiles(context.Background(), []string{tmp}))
	f, err := e.Store().FileByPath(key)
	require.NoError(t, err)
	require.NoError(t, e.Store().DeleteFileData(f.ID))
	require.NoError(t, e.Close())

	e, err = New(dbPath, WithForce(true))
	require.NoError(t, err)
	defer e.Close()
	require.NoError(t, e.IndexFiles(context.Background(), []string{tmp}))

	md, err := e.Query().FileMetadata(key)
	require.NoError(t, err)
	assert.Equal(t, 1, md.Len())
}

func TestIndexFiles_ParseErrorIsReportedAndRetried(t *testing.T) {
	t.Parallel()
	logger, hook := logtest.NewNullLogger()
	e := newTestEngine(t, WithLogger(logger))

	dir := t.TempDir()
	good := filepath.Join(dir, "good.js")
	bad := filepath.Join(dir, "bad.js")
	require.NoError(t, os.WriteFile(good, []byte("function ok() {}\n"), 0o644))
	require.NoError(t, os.WriteFile(bad, []byte("class {\n"), 0o644))

	err := e.IndexFiles(context.Background(), []string{good, bad})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 error(s)")
	assert.NotEmpty(t, hook.Entries)

	// The good file still committed; the bad one left no record behind.
	f, err := e.Store().FileByPath(filepath.ToSlash(good))
	require.NoError(t, err)
	assert.NotNil(t, f)
	f, err = e.Store().FileByPath(filepath.ToSlash(bad))
	require.NoError(t, err)
	assert.Nil(t, f)
}

func TestIndexFiles_RemovesDeletedFile(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)
	tmp := filepath.Join(t.TempDir(), "gone.js")
	require.NoError(t, os.WriteFile(tmp, []byte("function g() {}\n"), 0o644))
	require.NoError(t, e.IndexFiles(context.Background(), []string{tmp}))

	require.NoError(t, os.Remove(tmp))
	require.NoError(t, e.IndexFiles(context.Background(), []string{tmp}))

	f, err := e.Store().FileByPath(filepath.ToSlash(tmp))
	require.NoError(t, err)
	assert.Nil(t, f)
}

func TestIndexDirectory_DiscoversAndPrunes(t *testing.T) {
	t.Parallel()
	root := writeProject(t, map[string]string{
		"lib/a.js":              "function a() {}\n",
		"lib/b.js":              "function b() {}\n",
		"node_modules/x/lib.js": "function x() {}\n",
	})
	e := newTestEngine(t)
	require.NoError(t, e.IndexDirectory(context.Background(), root))

	files, err := e.Query().Files()
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "lib/a.js", files[0].Path)

	require.NoError(t, os.Remove(filepath.Join(root, "lib", "b.js")))
	require.NoError(t, e.IndexDirectory(context.Background(), root))
	files, err = e.Query().Files()
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "lib/a.js", files[0].Path)
}

func TestOptionsChanged_RebuildsIndex(t *testing.T) {
	t.Parallel()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	root := writeProject(t, map[string]string{
		"src/point.js": `class Point {
  constructor() {
    // Public: X.
    this.x = 0
  }
}
`,
	})

	e, err := New(dbPath)
	require.NoError(t, err)
	assert.True(t, e.OptionsChanged(), "fresh database")
	require.NoError(t, e.IndexDirectory(context.Background(), root))
	assert.False(t, e.OptionsChanged())
	md, err := e.Query().FileMetadata("src/point.js")
	require.NoError(t, err)
	assert.Len(t, md.At(Position{}).InstanceMembers, 2)
	require.NoError(t, e.Close())

	e, err = New(dbPath, WithConstructorProperties(false))
	require.NoError(t, err)
	defer e.Close()
	assert.True(t, e.OptionsChanged())
	require.NoError(t, e.IndexDirectory(context.Background(), root))

	md, err = e.Query().FileMetadata("src/point.js")
	require.NoError(t, err)
	assert.Len(t, md.At(Position{}).InstanceMembers, 1, "only the constructor remains")
}

func TestIndexFiles_Progress(t *testing.T) {
	t.Parallel()
	var mu sync.Mutex
	var calls [][2]int
	e := newTestEngine(t, WithProgress(func(done, total int) {
		mu.Lock()
		defer mu.Unlock()
		calls = append(calls, [2]int{done, total})
	}))

	root := writeProject(t, map[string]string{
		"lib/a.js": "function a() {}\n",
		"lib/b.js": "function b() {}\n",
	})
	require.NoError(t, e.IndexDirectory(context.Background(), root))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, calls, 2)
	assert.Equal(t, [2]int{2, 2}, calls[1])
}

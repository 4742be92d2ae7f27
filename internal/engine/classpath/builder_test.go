package classpath

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"classfinder/internal/engine/classpath/classpathtest"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, nil, 0o644))
}

func TestBuilder_SystemPrecedence(t *testing.T) {
	home := t.TempDir()
	lib := filepath.Join(home, "jre", "lib")
	touch(t, filepath.Join(lib, "rt.jar"))
	touch(t, filepath.Join(lib, "endorsed", "api.jar"))
	touch(t, filepath.Join(lib, "ext", "ext.jar"))
	touch(t, filepath.Join(lib, "notes.txt"))

	b, err := NewBuilder(nil)
	require.NoError(t, err)
	b.AddDirectory("/user/classes")
	require.NoError(t, b.AddSystem(home))

	assert.Equal(t, []string{
		filepath.Join(lib, "endorsed", "api.jar"),
		filepath.Join(lib, "rt.jar"),
		filepath.Join(lib, "ext", "ext.jar"),
		"/user/classes",
	}, b.Roots())
}

func TestBuilder_AddSystemInvalid(t *testing.T) {
	b, err := NewBuilder(nil)
	require.NoError(t, err)
	assert.Error(t, b.AddSystem(t.TempDir()))
}

func TestBuilder_ArchiveDirectories(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "b.jar"))
	touch(t, filepath.Join(dir, "a.ZIP"))
	touch(t, filepath.Join(dir, "sub", "c.jar"))
	touch(t, filepath.Join(dir, "target", "skip.jar"))
	touch(t, filepath.Join(dir, "readme.md"))

	b, err := NewBuilder([]string{"target"})
	require.NoError(t, err)
	require.NoError(t, b.AddArchiveDirectory(dir, false))
	assert.Equal(t, []string{filepath.Join(dir, "a.ZIP"), filepath.Join(dir, "b.jar")}, b.Roots())

	b, err = NewBuilder([]string{"target"})
	require.NoError(t, err)
	require.NoError(t, b.AddRootDirectory(dir))
	assert.Equal(t, []string{
		dir,
		filepath.Join(dir, "a.ZIP"),
		filepath.Join(dir, "b.jar"),
		filepath.Join(dir, "sub", "c.jar"),
	}, b.Roots())
}

func TestBuilder_DedupAndPathList(t *testing.T) {
	dir := classpathtest.Dir(t, classpathtest.File{"x.txt": nil})
	b, err := NewBuilder(nil)
	require.NoError(t, err)
	b.AddPathList(strings.Join([]string{dir, "", dir, "/other"}, string(os.PathListSeparator)))
	b.AddDirectory(dir + string(os.PathSeparator) + ".")
	assert.Equal(t, []string{dir, "/other"}, b.Roots())
}

func TestReadPathList(t *testing.T) {
	sep := string(os.PathListSeparator)
	input := "/a" + sep + "/b\n\n  /c  \n/d" + sep + sep
	got, err := ReadPathList(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, []string{"/a", "/b", "/c", "/d"}, got)
}

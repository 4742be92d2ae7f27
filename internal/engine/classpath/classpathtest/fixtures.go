// Package classpathtest writes directory and archive roots for tests.
package classpathtest

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/require"

	"classfinder/internal/engine/classfile/classfiletest"
)

// Class returns a class file for the dotted name extending super, which may
// be empty for the default root type.
func Class(name, super string, interfaces ...string) []byte {
	b := classfiletest.New(internal(name))
	if super != "" {
		b.Super(internal(super))
	}
	ifaces := make([]string, len(interfaces))
	for i, n := range interfaces {
		ifaces[i] = internal(n)
	}
	return b.Interfaces(ifaces...).Bytes()
}

func internal(name string) string {
	return strings.ReplaceAll(name, ".", "/")
}

// File maps a resource name such as com/x/Foo.class to its contents.
type File map[string][]byte

// Dir writes files below a fresh directory and returns its path.
func Dir(t testing.TB, files File) string {
	t.Helper()
	dir := t.TempDir()
	WriteDir(t, dir, files)
	return dir
}

// WriteDir writes files below dir.
func WriteDir(t testing.TB, dir string, files File) {
	t.Helper()
	for name, data := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, data, 0o644))
	}
}

// Jar writes an archive at path. A non-empty classPath becomes the
// manifest's Class-Path attribute. Entries are written in name order.
func Jar(t testing.TB, path string, files File, classPath string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	out, err := os.Create(path)
	require.NoError(t, err)
	defer out.Close()

	w := zip.NewWriter(out)
	if classPath != "" {
		mf, err := w.Create("META-INF/MANIFEST.MF")
		require.NoError(t, err)
		_, err = mf.Write([]byte("Manifest-Version: 1.0\r\nClass-Path: " + classPath + "\r\n\r\n"))
		require.NoError(t, err)
	}
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fw, err := w.CreateHeader(&zip.FileHeader{
			Name:     name,
			Method:   zip.Deflate,
			Modified: time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC),
		})
		require.NoError(t, err)
		_, err = fw.Write(files[name])
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return path
}

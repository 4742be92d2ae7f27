// Package classpath resolves named resources against an ordered list of
// directory and archive roots. Roots are realized lazily: archives may
// declare further roots through their manifest, and those are consulted
// immediately after the declaring archive.
package classpath

import (
	"os"
	"path/filepath"
	"strings"
)

// Kind distinguishes the two root variants.
type Kind int

const (
	KindDirectory Kind = iota
	KindArchive
)

func (k Kind) String() string {
	if k == KindArchive {
		return "archive"
	}
	return "directory"
}

// Root is the canonical identity of one path layer.
type Root struct {
	ID   string
	Kind Kind
}

func (r Root) String() string {
	return r.ID
}

// Canonical returns the identity string for path: absolute, cleaned, and
// with symlinks evaluated when the target exists.
func Canonical(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = filepath.Clean(path)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved
	}
	return abs
}

// ModuleFileName converts a qualified module name to its resource name,
// e.g. a.b.C to a/b/C.class.
func ModuleFileName(name string) string {
	return strings.ReplaceAll(name, ".", "/") + ".class"
}

// ModuleName converts a resource name back to a qualified module name. It
// reports false when file does not follow the module file convention.
func ModuleName(file string) (string, bool) {
	file = filepath.ToSlash(file)
	file = strings.TrimPrefix(file, "/")
	if len(file) <= len(".class") || !strings.EqualFold(file[len(file)-len(".class"):], ".class") {
		return "", false
	}
	base := file[:len(file)-len(".class")]
	return strings.ReplaceAll(base, "/", "."), true
}

func isArchiveName(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".jar" || ext == ".zip"
}

func statKind(id string) (Kind, error) {
	info, err := os.Stat(id)
	if err != nil {
		return 0, err
	}
	if info.IsDir() {
		return KindDirectory, nil
	}
	return KindArchive, nil
}

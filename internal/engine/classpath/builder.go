package classpath

import (
	"bufio"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"
)

// Builder assembles an ordered, deduplicated root list. System roots are
// always placed before user roots, in endorsed, boot, extension order.
type Builder struct {
	excludeDirs []glob.Glob
	system      []string
	user        []string
}

// NewBuilder returns a Builder that skips directories whose base name
// matches one of excludeDirs while scanning for archives.
func NewBuilder(excludeDirs []string) (*Builder, error) {
	b := &Builder{}
	for _, pattern := range excludeDirs {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("compile exclude pattern %q: %w", pattern, err)
		}
		b.excludeDirs = append(b.excludeDirs, g)
	}
	return b, nil
}

func (b *Builder) AddDirectory(dir string) *Builder {
	b.user = append(b.user, dir)
	return b
}

func (b *Builder) AddArchive(file string) *Builder {
	b.user = append(b.user, file)
	return b
}

// AddPathList appends every element of an OS path-list string.
func (b *Builder) AddPathList(list string) *Builder {
	for _, p := range filepath.SplitList(list) {
		if p = strings.TrimSpace(p); p != "" {
			b.user = append(b.user, p)
		}
	}
	return b
}

// AddArchiveDirectory appends the *.jar and *.zip files in dir, sorted by
// path, descending into subdirectories when recursive is set.
func (b *Builder) AddArchiveDirectory(dir string, recursive bool) error {
	archives, err := b.listArchives(dir, recursive)
	if err != nil {
		return err
	}
	b.user = append(b.user, archives...)
	return nil
}

// AddRootDirectory appends dir itself as a class directory followed by every
// archive found below it.
func (b *Builder) AddRootDirectory(dir string) error {
	archives, err := b.listArchives(dir, true)
	if err != nil {
		return err
	}
	b.user = append(b.user, dir)
	b.user = append(b.user, archives...)
	return nil
}

// AddSystem prepends the runtime libraries of the installation at javaHome.
// A nested jre directory is preferred when present; lib must exist.
func (b *Builder) AddSystem(javaHome string) error {
	home := javaHome
	if info, err := os.Stat(filepath.Join(javaHome, "jre")); err == nil && info.IsDir() {
		home = filepath.Join(javaHome, "jre")
	}
	lib := filepath.Join(home, "lib")
	if info, err := os.Stat(lib); err != nil || !info.IsDir() {
		return fmt.Errorf("java home %s has no runtime library directory", javaHome)
	}

	var system []string
	for _, dir := range []string{filepath.Join(lib, "endorsed"), lib, filepath.Join(lib, "ext")} {
		archives, err := b.listArchives(dir, false)
		if err != nil && !os.IsNotExist(err) {
			return err
		}
		system = append(system, archives...)
	}
	if len(system) == 0 {
		return fmt.Errorf("java home %s has no runtime archives", javaHome)
	}
	b.system = append(b.system, system...)
	return nil
}

// Roots returns the deduplicated root list, system roots first.
func (b *Builder) Roots() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, list := range [][]string{b.system, b.user} {
		for _, r := range list {
			id := Canonical(r)
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, r)
		}
	}
	return out
}

func (b *Builder) excluded(name string) bool {
	for _, g := range b.excludeDirs {
		if g.Match(name) {
			return true
		}
	}
	return false
}

func (b *Builder) listArchives(dir string, recursive bool) ([]string, error) {
	if !recursive {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, err
		}
		var out []string
		for _, e := range entries {
			if !e.IsDir() && isArchiveName(e.Name()) {
				out = append(out, filepath.Join(dir, e.Name()))
			}
		}
		return out, nil
	}

	var out []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			return nil
		}
		if d.IsDir() {
			if path != dir && b.excluded(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if isArchiveName(d.Name()) {
			out = append(out, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(out)
	return out, nil
}

// ReadPathList reads roots from r. Entries may be separated by newlines or
// by the OS path-list separator; blank entries are dropped.
func ReadPathList(r io.Reader) ([]string, error) {
	var out []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4<<20)
	for scanner.Scan() {
		for _, p := range filepath.SplitList(scanner.Text()) {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read path list: %w", err)
	}
	return out, nil
}

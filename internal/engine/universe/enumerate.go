// Package universe enumerates every module reachable through a class path
// and indexes their locations by qualified name.
package universe

import (
	"context"
	"io/fs"
	"log/slog"
	"path/filepath"
	"runtime"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"classfinder/internal/engine/classpath"
	"classfinder/internal/engine/match"
	"classfinder/internal/shared/observability"
)

// Entry is one location of a module, with version attributes when they
// were requested.
type Entry struct {
	Location classpath.Location
	Version  *VersionAttribute
}

// Index maps qualified module names to their locations in root priority
// order.
type Index struct {
	names   []string
	entries map[string][]Entry
}

// Names returns the indexed names in sorted order.
func (ix *Index) Names() []string {
	return ix.names
}

func (ix *Index) Locations(name string) []Entry {
	return ix.entries[name]
}

func (ix *Index) Len() int {
	return len(ix.names)
}

// Filter returns the sub-index of names accepted by pred.
func (ix *Index) Filter(pred match.Predicate) *Index {
	out := &Index{entries: make(map[string][]Entry)}
	for _, name := range ix.names {
		if pred(name) {
			out.names = append(out.names, name)
			out.entries[name] = ix.entries[name]
		}
	}
	return out
}

type Options struct {
	// Versions attaches version attributes to every entry.
	Versions bool
	// Workers bounds concurrent root scans; zero means GOMAXPROCS.
	Workers int
}

type found struct {
	name  string
	entry Entry
}

// Enumerate visits every root of path exactly once and indexes the modules
// whose names satisfy pred. Roots are scanned concurrently; the index keeps
// root priority order. Roots that cannot be read are skipped.
func Enumerate(ctx context.Context, path *classpath.Path, pred match.Predicate, opts Options) (*Index, error) {
	start := time.Now()
	defer func() { observability.EnumerationDuration.Observe(time.Since(start).Seconds()) }()

	if pred == nil {
		pred = match.All()
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	resolvers := path.Resolvers()
	results := make([][]found, len(resolvers))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, r := range resolvers {
		i, r := i, r
		g.Go(func() error {
			var err error
			switch r := r.(type) {
			case *classpath.DirectoryResolver:
				results[i], err = scanDirectory(gctx, r, pred, opts.Versions)
			case *classpath.ArchiveResolver:
				results[i], err = scanArchive(gctx, r, pred, opts.Versions)
			}
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ix := &Index{entries: make(map[string][]Entry)}
	for _, batch := range results {
		for _, f := range batch {
			if _, ok := ix.entries[f.name]; !ok {
				ix.names = append(ix.names, f.name)
			}
			ix.entries[f.name] = append(ix.entries[f.name], f.entry)
		}
	}
	sort.Strings(ix.names)
	return ix, nil
}

func scanDirectory(ctx context.Context, r *classpath.DirectoryResolver, pred match.Predicate, versions bool) ([]found, error) {
	root := r.Root()
	var out []found
	err := filepath.WalkDir(root.ID, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			slog.Debug("skipping unreadable path", "root", root.ID, "path", p, "error", err)
			if d != nil && d.IsDir() && p != root.ID {
				return filepath.SkipDir
			}
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root.ID, p)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		name, ok := classpath.ModuleName(rel)
		if !ok || !pred(name) {
			return nil
		}
		e := Entry{Location: classpath.Location{Root: root, Name: rel}}
		if versions {
			info, err := d.Info()
			if err != nil {
				return nil
			}
			e.Version = &VersionAttribute{Size: info.Size(), Modified: info.ModTime()}
		}
		out = append(out, found{name: name, entry: e})
		return nil
	})
	if err != nil && ctx.Err() != nil {
		return nil, err
	}
	return out, nil
}

func scanArchive(ctx context.Context, r *classpath.ArchiveResolver, pred match.Predicate, versions bool) ([]found, error) {
	root := r.Root()
	var out []found
	for _, f := range r.Files() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name, ok := classpath.ModuleName(f.Name)
		if !ok || !pred(name) {
			continue
		}
		e := Entry{Location: classpath.Location{Root: root, Name: f.Name}}
		if versions {
			e.Version = versionOf(classpath.EntryInfo(f))
		}
		out = append(out, found{name: name, entry: e})
	}
	return out, nil
}

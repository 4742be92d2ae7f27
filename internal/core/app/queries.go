package app

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"classfinder/internal/engine/classpath"
	"classfinder/internal/engine/graph"
	"classfinder/internal/engine/match"
	"classfinder/internal/shared/util"
)

// LocateResource returns the first location of a resource name.
func (s *Session) LocateResource(name string) (classpath.Location, bool) {
	return s.path.Locate(strings.TrimPrefix(name, "/"))
}

// FindResources returns every location of a resource name in priority order.
func (s *Session) FindResources(name string) []classpath.Location {
	return s.path.FindAll(strings.TrimPrefix(name, "/"))
}

func (s *Session) LocateModule(name string) (classpath.Location, bool) {
	return s.path.Locate(classpath.ModuleFileName(name))
}

func (s *Session) FindModules(name string) []classpath.Location {
	return s.path.FindAll(classpath.ModuleFileName(name))
}

// LookupModules returns the sorted module names matching pattern. A pattern
// without a package part matches simple names.
func (s *Session) LookupModules(ctx context.Context, pattern string) ([]string, error) {
	ctx, done := s.observe(ctx, "LookupModules", attribute.String("pattern", pattern))
	defer done()

	if !match.HasWildcard(pattern) && strings.Contains(pattern, ".") {
		if _, ok := s.LocateModule(pattern); ok {
			return []string{pattern}, nil
		}
		return nil, nil
	}
	ix, err := s.index(ctx)
	if err != nil {
		return nil, err
	}
	return ix.Filter(match.NamePattern(pattern)).Names(), nil
}

// LookupModulesWithLocations is LookupModules with every location of each
// match attached.
func (s *Session) LookupModulesWithLocations(ctx context.Context, pattern string) ([]graph.Group, error) {
	ctx, done := s.observe(ctx, "LookupModulesWithLocations", attribute.String("pattern", pattern))
	defer done()

	if !match.HasWildcard(pattern) && strings.Contains(pattern, ".") {
		locs := s.FindModules(pattern)
		if len(locs) == 0 {
			return nil, nil
		}
		return []graph.Group{{Name: pattern, Locations: locs}}, nil
	}
	ix, err := s.index(ctx)
	if err != nil {
		return nil, err
	}
	sub := ix.Filter(match.NamePattern(pattern))
	out := make([]graph.Group, 0, sub.Len())
	for _, name := range sub.Names() {
		g := graph.Group{Name: name}
		for _, e := range sub.Locations(name) {
			g.Locations = append(g.Locations, e.Location)
		}
		out = append(out, g)
	}
	return out, nil
}

// PackageModules lists the modules in pkg, including sub-packages unless
// direct is set.
func (s *Session) PackageModules(ctx context.Context, pkg string, direct bool) ([]string, error) {
	ctx, done := s.observe(ctx, "PackageModules", attribute.String("package", pkg))
	defer done()

	ix, err := s.index(ctx)
	if err != nil {
		return nil, err
	}
	return ix.Filter(match.InPackage(pkg, direct)).Names(), nil
}

// Supertypes returns the ancestors of name, restricted to pkg when it is
// not empty.
func (s *Session) Supertypes(ctx context.Context, name, pkg string) ([]string, error) {
	_, done := s.observe(ctx, "Supertypes", attribute.String("name", name))
	defer done()

	src := &source{s: s}
	out := graph.SupertypesIn(src, pkg, name)
	if err := src.failure(); err != nil {
		return nil, err
	}
	return out, nil
}

// Subtypes returns the modules assignable to parent whose names start with
// prefix.
func (s *Session) Subtypes(ctx context.Context, parent, prefix string) ([]string, error) {
	ctx, done := s.observe(ctx, "Subtypes", attribute.String("name", parent))
	defer done()

	ix, err := s.index(ctx)
	if err != nil {
		return nil, err
	}
	src := &source{s: s, ix: ix}
	out := graph.SubtypesOf(src, parent, match.HasPrefix(prefix))
	if err := src.failure(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Session) Duplicates(ctx context.Context, pattern string) ([]graph.Group, error) {
	ctx, done := s.observe(ctx, "Duplicates", attribute.String("pattern", pattern))
	defer done()

	ix, err := s.index(ctx)
	if err != nil {
		return nil, err
	}
	return graph.Duplicates(ix.Filter(patternPredicate(pattern))), nil
}

// Conflicts returns duplicated modules whose versions differ, or every
// duplicate when includeAll is set.
func (s *Session) Conflicts(ctx context.Context, pattern string, includeAll bool) ([]graph.VersionedGroup, error) {
	ctx, done := s.observe(ctx, "Conflicts", attribute.String("pattern", pattern))
	defer done()

	ix, err := s.versionedIndex(ctx)
	if err != nil {
		return nil, err
	}
	return graph.Conflicts(ix.Filter(patternPredicate(pattern)), graph.ConflictOptions{
		IncludeAll: includeAll,
		Legacy:     s.opts.LegacyConflicts,
	}), nil
}

// Dependencies computes the dependency closure of name.
func (s *Session) Dependencies(ctx context.Context, name string) (found, unresolved []string, err error) {
	_, done := s.observe(ctx, "Dependencies", attribute.String("name", name))
	defer done()

	src := &source{s: s}
	found, unresolved = graph.Closure(src, name)
	if ferr := src.failure(); ferr != nil {
		return nil, nil, ferr
	}
	return found, unresolved, nil
}

// Cycles returns the dependency cycles among the modules inside pkg.
func (s *Session) Cycles(ctx context.Context, pkg string) ([][]string, error) {
	ctx, done := s.observe(ctx, "Cycles", attribute.String("package", pkg))
	defer done()

	ix, err := s.index(ctx)
	if err != nil {
		return nil, err
	}
	src := &source{s: s, ix: ix}
	out := graph.Cycles(src, pkg)
	if err := src.failure(); err != nil {
		return nil, err
	}
	return out, nil
}

// DependencyPath explains why from depends on to with a shortest chain of
// dependency edges.
func (s *Session) DependencyPath(ctx context.Context, from, to string) ([]string, bool, error) {
	_, done := s.observe(ctx, "DependencyPath", attribute.String("name", from))
	defer done()

	src := &source{s: s}
	path, ok := graph.DependencyPath(src, from, to)
	if err := src.failure(); err != nil {
		return nil, false, err
	}
	return path, ok, nil
}

func (s *Session) ReferencedBy(ctx context.Context, typeName, pkg string) ([]string, error) {
	ctx, done := s.observe(ctx, "ReferencedBy", attribute.String("name", typeName))
	defer done()

	ix, err := s.index(ctx)
	if err != nil {
		return nil, err
	}
	src := &source{s: s, ix: ix}
	out := graph.ReferencedBy(src, typeName, pkg)
	if err := src.failure(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Session) ReferencedByMethod(ctx context.Context, key, pkg string) ([]string, error) {
	ctx, done := s.observe(ctx, "ReferencedByMethod", attribute.String("name", key))
	defer done()

	ix, err := s.index(ctx)
	if err != nil {
		return nil, err
	}
	src := &source{s: s, ix: ix}
	out, err := graph.ReferencedByMethod(src, key, pkg)
	if err != nil {
		return nil, err
	}
	if err := src.failure(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Session) ReferencedByField(ctx context.Context, key, pkg string) ([]string, error) {
	ctx, done := s.observe(ctx, "ReferencedByField", attribute.String("name", key))
	defer done()

	ix, err := s.index(ctx)
	if err != nil {
		return nil, err
	}
	src := &source{s: s, ix: ix}
	out, err := graph.ReferencedByField(src, key, pkg)
	if err != nil {
		return nil, err
	}
	if err := src.failure(); err != nil {
		return nil, err
	}
	return out, nil
}

// ConstantMatch is one module and its matching string constants.
type ConstantMatch struct {
	Name    string
	Strings []string
}

// Constants returns, ordered by module name, the string constants that
// contain text.
func (s *Session) Constants(ctx context.Context, text, pkg string) ([]ConstantMatch, error) {
	ctx, done := s.observe(ctx, "Constants", attribute.String("text", text))
	defer done()

	ix, err := s.index(ctx)
	if err != nil {
		return nil, err
	}
	src := &source{s: s, ix: ix}
	found := graph.Constants(src, pkg, text)
	if err := src.failure(); err != nil {
		return nil, err
	}
	out := make([]ConstantMatch, 0, len(found))
	for _, name := range util.SortedStringKeys(found) {
		out = append(out, ConstantMatch{Name: name, Strings: found[name]})
	}
	return out, nil
}

// OriginStack returns the root chain that provides name, which may be a
// module or resource name.
func (s *Session) OriginStack(ctx context.Context, name string) ([]classpath.Root, error) {
	_, done := s.observe(ctx, "OriginStack", attribute.String("name", name))
	defer done()

	res := resourceName(name)
	stack := s.path.OriginStack(res)
	if len(stack) == 0 {
		return nil, nil
	}
	loc, _ := s.path.Locate(res)
	if _, err := s.path.Stat(loc); err != nil {
		if perr := s.permissionError(name, loc, err); perr != nil {
			return nil, perr
		}
	}
	return stack, nil
}

// Roots forces full expansion and returns every realized root in priority
// order.
func (s *Session) Roots() []classpath.Root {
	resolvers := s.path.Resolvers()
	out := make([]classpath.Root, len(resolvers))
	for i, r := range resolvers {
		out[i] = r.Root()
	}
	return out
}

func patternPredicate(pattern string) match.Predicate {
	if pattern == "" {
		return match.All()
	}
	return match.NamePattern(pattern)
}

package graph

import (
	"math"

	"classfinder/internal/engine/classpath"
	"classfinder/internal/engine/universe"
)

// Group lists every location of one module name.
type Group struct {
	Name      string
	Locations []classpath.Location
}

// VersionedLocation is a location paired with its version value.
type VersionedLocation struct {
	Location classpath.Location
	Version  int64
}

type VersionedGroup struct {
	Name      string
	Locations []VersionedLocation
}

// Duplicates returns the names of ix found in more than one location,
// ordered by name.
func Duplicates(ix *universe.Index) []Group {
	var out []Group
	for _, name := range ix.Names() {
		entries := ix.Locations(name)
		if len(entries) <= 1 {
			continue
		}
		g := Group{Name: name, Locations: make([]classpath.Location, len(entries))}
		for i, e := range entries {
			g.Locations[i] = e.Location
		}
		out = append(out, g)
	}
	return out
}

type ConflictOptions struct {
	// IncludeAll keeps every duplicate, even when all versions agree.
	IncludeAll bool
	// Legacy reproduces the historical behaviour: each location carries its
	// own modification time and the version filter never excludes a group.
	Legacy bool
}

// Conflicts returns the duplicated names of ix, which must carry version
// attributes, with a version value per location. Unless opts.IncludeAll is
// set a group is kept only when its locations fall into at least two
// comparator buckets; the version value is for display.
func Conflicts(ix *universe.Index, opts ConflictOptions) []VersionedGroup {
	var out []VersionedGroup
	for _, name := range ix.Names() {
		entries := ix.Locations(name)
		if len(entries) <= 1 {
			continue
		}
		var values []int64
		if opts.Legacy {
			values = universe.ModifiedValues(entries)
		} else {
			values = universe.RankVersions(entries)
		}
		if !opts.IncludeAll {
			if opts.Legacy && legacySingleVersion(values) {
				continue
			}
			if !opts.Legacy && singleBucket(universe.VersionBuckets(entries)) {
				continue
			}
		}
		g := VersionedGroup{Name: name, Locations: make([]VersionedLocation, len(entries))}
		for i, e := range entries {
			g.Locations[i] = VersionedLocation{Location: e.Location, Version: values[i]}
		}
		out = append(out, g)
	}
	return out
}

// legacySingleVersion uses min for both bounds, so maxVer stays at
// MinInt64 and the comparison only holds when a value equals MinInt64.
func legacySingleVersion(values []int64) bool {
	minVer, maxVer := int64(math.MaxInt64), int64(math.MinInt64)
	for _, v := range values {
		minVer = min(minVer, v)
		maxVer = min(maxVer, v)
	}
	return minVer == maxVer
}

func singleBucket(buckets []int) bool {
	for _, b := range buckets[1:] {
		if b != buckets[0] {
			return false
		}
	}
	return true
}

// SourceModule is one module provided by a root, with its version value
// when known.
type SourceModule struct {
	Name    string
	Version int64
}

// SourceSet lists the modules one root contributes to a duplicate or
// conflict report.
type SourceSet struct {
	Root    classpath.Root
	Modules []SourceModule
}

// DuplicateSets regroups duplicates by providing root, roots in order of
// first appearance.
func DuplicateSets(groups []Group) []SourceSet {
	b := newSetBuilder()
	for _, g := range groups {
		for _, loc := range g.Locations {
			b.add(loc.Root, SourceModule{Name: g.Name})
		}
	}
	return b.sets
}

// ConflictSets regroups conflicts by providing root.
func ConflictSets(groups []VersionedGroup) []SourceSet {
	b := newSetBuilder()
	for _, g := range groups {
		for _, vl := range g.Locations {
			b.add(vl.Location.Root, SourceModule{Name: g.Name, Version: vl.Version})
		}
	}
	return b.sets
}

type setBuilder struct {
	sets  []SourceSet
	index map[string]int
}

func newSetBuilder() *setBuilder {
	return &setBuilder{index: make(map[string]int)}
}

func (b *setBuilder) add(root classpath.Root, m SourceModule) {
	i, ok := b.index[root.ID]
	if !ok {
		i = len(b.sets)
		b.index[root.ID] = i
		b.sets = append(b.sets, SourceSet{Root: root})
	}
	b.sets[i].Modules = append(b.sets[i].Modules, m)
}

package graph

import (
	"sort"

	"classfinder/internal/engine/classfile"
	"classfinder/internal/engine/match"
)

// pushAncestors pushes d's interfaces and then its supertype, so the
// supertype is popped first.
func pushAncestors(stack []string, d *classfile.Descriptor) []string {
	stack = append(stack, d.Interfaces...)
	if d.Super != "" {
		stack = append(stack, d.Super)
	}
	return stack
}

// Supertypes returns every ancestor of name in discovery order, each once.
// Ancestors that cannot be described are listed but not expanded further.
// The result is empty when name itself cannot be described.
func Supertypes(src Source, name string) []string {
	d, ok := src.Describe(name)
	if !ok {
		return nil
	}
	visited := map[string]bool{name: true}
	stack := pushAncestors(nil, d)
	var out []string
	for len(stack) > 0 {
		curr := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[curr] {
			continue
		}
		visited[curr] = true
		out = append(out, curr)
		if cd, ok := src.Describe(curr); ok {
			stack = pushAncestors(stack, cd)
		}
	}
	return out
}

// SupertypesIn is Supertypes restricted to ancestors inside pkg.
func SupertypesIn(src Source, pkg, name string) []string {
	in := match.InPackage(pkg, false)
	var out []string
	for _, s := range Supertypes(src, name) {
		if in(s) {
			out = append(out, s)
		}
	}
	return out
}

// SubtypesOf returns, sorted, every module accepted by pred whose ancestry
// reaches parent. Classification is memoized across the whole scan so
// shared ancestors are walked once. The result is empty when parent cannot
// be described.
func SubtypesOf(src Source, parent string, pred match.Predicate) []string {
	if _, ok := src.Describe(parent); !ok {
		return nil
	}
	s := &subtypeSearch{
		src:        src,
		assignable: map[string]bool{parent: true},
		processed:  map[string]bool{parent: true},
	}
	var out []string
	for _, name := range src.Universe(pred) {
		if name != parent && s.isAssignable(name) {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

type subtypeSearch struct {
	src        Source
	assignable map[string]bool
	processed  map[string]bool
}

func (s *subtypeSearch) isAssignable(name string) bool {
	if name == "" {
		return false
	}
	if s.processed[name] {
		return s.assignable[name]
	}
	s.processed[name] = true

	d, ok := s.src.Describe(name)
	if !ok {
		return false
	}
	if s.isAssignable(d.Super) {
		s.assignable[name] = true
		return true
	}
	for _, iface := range d.Interfaces {
		if s.isAssignable(iface) {
			s.assignable[name] = true
			return true
		}
	}
	return false
}

package graph

import (
	"sort"

	"classfinder/internal/engine/match"
)

// Cycles returns the dependency cycles among the modules inside pkg. Edges
// leaving pkg are ignored. Each cycle lists its members in edge order,
// starting at the member the search reached first.
func Cycles(src Source, pkg string) [][]string {
	names := src.Universe(match.InPackage(pkg, false))
	inScope := make(map[string]bool, len(names))
	for _, n := range names {
		inScope[n] = true
	}
	edges := func(name string) []string {
		var out []string
		for _, dep := range dependencies(src, name) {
			if inScope[dep] {
				out = append(out, dep)
			}
		}
		return out
	}

	type frame struct {
		name string
		next []string
	}
	var cycles [][]string
	visited := make(map[string]bool)
	onStack := make(map[string]bool)

	for _, start := range names {
		if visited[start] {
			continue
		}
		visited[start] = true
		onStack[start] = true
		stack := []frame{{name: start, next: edges(start)}}

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			if len(top.next) == 0 {
				onStack[top.name] = false
				stack = stack[:len(stack)-1]
				continue
			}
			next := top.next[0]
			top.next = top.next[1:]

			if onStack[next] {
				for i := range stack {
					if stack[i].name != next {
						continue
					}
					cycle := make([]string, 0, len(stack)-i)
					for _, f := range stack[i:] {
						cycle = append(cycle, f.name)
					}
					cycles = append(cycles, cycle)
					break
				}
				continue
			}
			if visited[next] {
				continue
			}
			visited[next] = true
			onStack[next] = true
			stack = append(stack, frame{name: next, next: edges(next)})
		}
	}
	return cycles
}

// DependencyPath returns a shortest chain of dependency edges leading from
// one module to another, both ends included. Only modules that can be
// described are traversed.
func DependencyPath(src Source, from, to string) ([]string, bool) {
	if _, ok := src.Describe(from); !ok {
		return nil, false
	}
	if from == to {
		return []string{from}, true
	}

	queue := []string{from}
	visited := map[string]bool{from: true}
	prev := make(map[string]string)

	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]

		for _, next := range dependencies(src, curr) {
			if visited[next] {
				continue
			}
			visited[next] = true
			prev[next] = curr

			if next == to {
				path := []string{to}
				for node := to; node != from; {
					node = prev[node]
					path = append(path, node)
				}
				for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
					path[i], path[j] = path[j], path[i]
				}
				return path, true
			}
			if _, ok := src.Describe(next); ok {
				queue = append(queue, next)
			}
		}
	}
	return nil, false
}

// dependencies lists the sorted types name depends on, itself excluded.
func dependencies(src Source, name string) []string {
	d, ok := src.Describe(name)
	if !ok {
		return nil
	}
	types := d.Facts(nil).Types
	out := make([]string, 0, len(types))
	for dep := range types {
		if dep != name {
			out = append(out, dep)
		}
	}
	sort.Strings(out)
	return out
}

package graph

import "sort"

// Closure follows dependency edges from name. found holds every module that
// could be described, name included; unresolved holds every dependency that
// could not. Both are sorted.
func Closure(src Source, name string) (found, unresolved []string) {
	if _, ok := src.Describe(name); !ok {
		return nil, nil
	}
	seen := map[string]bool{}
	stack := []string{name}
	for len(stack) > 0 {
		curr := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[curr] {
			continue
		}
		seen[curr] = true

		d, ok := src.Describe(curr)
		if !ok {
			unresolved = append(unresolved, curr)
			continue
		}
		found = append(found, curr)
		for dep := range d.Facts(nil).Types {
			if !seen[dep] {
				stack = append(stack, dep)
			}
		}
	}
	sort.Strings(found)
	sort.Strings(unresolved)
	return found, unresolved
}

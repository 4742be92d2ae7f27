// Package match implements the anchored wildcard matcher and the name
// predicates used to narrow universe scans.
package match

import "strings"

// Predicate reports whether a qualified module name is selected.
type Predicate func(name string) bool

// Match reports whether subject matches pattern. '?' consumes exactly one
// character, '*' consumes zero or more, everything else must match literally.
// The match is anchored at both ends and case sensitive.
func Match(subject, pattern string) bool {
	return matchFrom([]rune(subject), []rune(pattern), 0, 0)
}

func matchFrom(s, p []rune, si, pi int) bool {
	for pi < len(p) {
		c := p[pi]
		pi++
		switch c {
		case '?':
			si++
			if si > len(s) {
				return false
			}
		case '*':
			if pi >= len(p) {
				return true
			}
			for ; si <= len(s); si++ {
				if matchFrom(s, p, si, pi) {
					return true
				}
			}
			return false
		default:
			if si >= len(s) || s[si] != c {
				return false
			}
			si++
		}
	}
	return si == len(s)
}

// HasWildcard reports whether pattern contains '*' or '?'.
func HasWildcard(pattern string) bool {
	return strings.ContainsAny(pattern, "*?")
}

// All accepts every name.
func All() Predicate {
	return func(string) bool { return true }
}

// HasPrefix accepts names starting with prefix. An empty prefix accepts all.
func HasPrefix(prefix string) Predicate {
	return func(name string) bool { return strings.HasPrefix(name, prefix) }
}

// NamePattern matches the simple name when pattern has no package part,
// otherwise the fully qualified name.
func NamePattern(pattern string) Predicate {
	qualified := strings.Contains(pattern, ".")
	return func(name string) bool {
		if !qualified {
			if i := strings.LastIndexByte(name, '.'); i > 0 {
				name = name[i+1:]
			}
		}
		return Match(name, pattern)
	}
}

// InPackage accepts names inside pkg. With direct set only names declared
// directly in pkg qualify, sub-packages are excluded. An empty pkg means the
// whole universe, or the default package when direct is set.
func InPackage(pkg string, direct bool) Predicate {
	return func(name string) bool {
		if pkg == "" {
			return !direct || !strings.Contains(name, ".")
		}
		if !strings.HasPrefix(name, pkg+".") {
			return false
		}
		return !direct || !strings.Contains(name[len(pkg)+1:], ".")
	}
}

// And combines predicates; nil entries are ignored.
func And(preds ...Predicate) Predicate {
	return func(name string) bool {
		for _, p := range preds {
			if p != nil && !p(name) {
				return false
			}
		}
		return true
	}
}

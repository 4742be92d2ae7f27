// Package graph answers hierarchy, dependency and reference questions over
// the modules of a class path.
package graph

import (
	"classfinder/internal/engine/classfile"
	"classfinder/internal/engine/match"
)

// Source supplies parsed modules and the names of the module universe.
// Describe reports false for names that cannot be located or parsed.
type Source interface {
	Describe(name string) (*classfile.Descriptor, bool)
	Universe(pred match.Predicate) []string
}

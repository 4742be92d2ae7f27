package app

import (
	"sync"

	"classfinder/internal/engine/classfile"
	"classfinder/internal/engine/graph"
	"classfinder/internal/engine/match"
	"classfinder/internal/engine/universe"
)

// source adapts a Session to graph.Source for the duration of one query.
// The first strict-policy failure is kept and reported after the query.
type source struct {
	s  *Session
	ix *universe.Index

	mu  sync.Mutex
	err error
}

var _ graph.Source = (*source)(nil)

func (src *source) Describe(name string) (*classfile.Descriptor, bool) {
	d, err := src.s.describe(name)
	if err != nil {
		src.mu.Lock()
		if src.err == nil {
			src.err = err
		}
		src.mu.Unlock()
		return nil, false
	}
	return d, d != nil
}

func (src *source) Universe(pred match.Predicate) []string {
	if src.ix == nil {
		return nil
	}
	if pred == nil {
		return src.ix.Names()
	}
	var out []string
	for _, name := range src.ix.Names() {
		if pred(name) {
			out = append(out, name)
		}
	}
	return out
}

func (src *source) failure() error {
	src.mu.Lock()
	defer src.mu.Unlock()
	return src.err
}

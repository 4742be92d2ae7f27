package graph

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"classfinder/internal/engine/classfile"
	"classfinder/internal/engine/classfile/classfiletest"
	"classfinder/internal/engine/match"
)

type fakeSource struct {
	mods      map[string]*classfile.Descriptor
	describes map[string]int
}

func newFakeSource(t *testing.T, classes ...*classfiletest.Builder) *fakeSource {
	t.Helper()
	src := &fakeSource{
		mods:      make(map[string]*classfile.Descriptor),
		describes: make(map[string]int),
	}
	for _, b := range classes {
		d, err := classfile.Parse(b.Bytes())
		require.NoError(t, err)
		src.mods[d.Name] = d
	}
	return src
}

func (f *fakeSource) Describe(name string) (*classfile.Descriptor, bool) {
	f.describes[name]++
	d, ok := f.mods[name]
	return d, ok
}

func (f *fakeSource) Universe(pred match.Predicate) []string {
	var out []string
	for name := range f.mods {
		if pred == nil || pred(name) {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

package graph

import (
	"sort"
	"strings"

	apperrors "classfinder/internal/core/errors"
	"classfinder/internal/engine/classfile"
	"classfinder/internal/engine/match"
)

// ReferencedBy returns, sorted, the modules inside pkg whose dependency facts
// include typeName. A module's own name is among its facts, so a described
// typeName inside pkg lists itself.
func ReferencedBy(src Source, typeName, pkg string) []string {
	return scan(src, pkg, func(f *classfile.Facts) bool { return f.HasType(typeName) })
}

// ReferencedByMethod returns the modules inside pkg that reference or
// declare the qualified method key Owner.method.
func ReferencedByMethod(src Source, key, pkg string) ([]string, error) {
	if err := requireQualified(key, "method"); err != nil {
		return nil, err
	}
	return scan(src, pkg, func(f *classfile.Facts) bool { return f.HasMethod(key) }), nil
}

// ReferencedByField returns the modules inside pkg that reference the
// qualified field key Owner.field.
func ReferencedByField(src Source, key, pkg string) ([]string, error) {
	if err := requireQualified(key, "field"); err != nil {
		return nil, err
	}
	return scan(src, pkg, func(f *classfile.Facts) bool { return f.HasField(key) }), nil
}

func requireQualified(key, kind string) error {
	if strings.LastIndexByte(key, '.') < 0 {
		return apperrors.AddContext(
			apperrors.Newf(apperrors.CodeInvalidQuery, "not a qualified %s name: %s", kind, key),
			apperrors.CtxName, key)
	}
	return nil
}

func scan(src Source, pkg string, hit func(*classfile.Facts) bool) []string {
	var out []string
	for _, name := range src.Universe(match.InPackage(pkg, false)) {
		d, ok := src.Describe(name)
		if !ok {
			continue
		}
		if hit(d.Facts(nil)) {
			out = append(out, d.Name)
		}
	}
	sort.Strings(out)
	return out
}

// Constants maps each module inside pkg to its sorted string constants that
// contain text. Modules without a match are omitted.
func Constants(src Source, pkg, text string) map[string][]string {
	out := make(map[string][]string)
	for _, name := range src.Universe(match.InPackage(pkg, false)) {
		d, ok := src.Describe(name)
		if !ok {
			continue
		}
		if strs := d.Facts(&text).StringList(); len(strs) > 0 {
			out[name] = strs
		}
	}
	return out
}

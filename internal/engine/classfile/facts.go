package classfile

import (
	"strings"

	"classfinder/internal/shared/util"
)

// Facts is everything a class references, as extracted by Extract.
type Facts struct {
	Types   map[string]struct{}
	Methods map[string]struct{}
	Fields  map[string]struct{}
	Strings map[string]struct{}
}

func newFacts() *Facts {
	return &Facts{
		Types:   make(map[string]struct{}),
		Methods: make(map[string]struct{}),
		Fields:  make(map[string]struct{}),
		Strings: make(map[string]struct{}),
	}
}

func (f *Facts) HasType(name string) bool {
	_, ok := f.Types[name]
	return ok
}

func (f *Facts) HasMethod(key string) bool {
	_, ok := f.Methods[key]
	return ok
}

func (f *Facts) HasField(key string) bool {
	_, ok := f.Fields[key]
	return ok
}

func (f *Facts) TypeList() []string   { return util.SortedStringKeys(f.Types) }
func (f *Facts) MethodList() []string { return util.SortedStringKeys(f.Methods) }
func (f *Facts) FieldList() []string  { return util.SortedStringKeys(f.Fields) }
func (f *Facts) StringList() []string { return util.SortedStringKeys(f.Strings) }

// Facts returns the dependency facts of d. A nil filter skips string
// matching; the nil-filter extraction is cached for the descriptor's
// lifetime while filtered extractions are cached only for the most recent
// filter text.
func (d *Descriptor) Facts(filter *string) *Facts {
	d.mu.Lock()
	defer d.mu.Unlock()

	if filter == nil {
		if d.base == nil {
			d.base = Extract(d, nil)
		}
		return d.base
	}
	if d.filtered == nil || d.filterText != *filter {
		d.filtered = Extract(d, filter)
		d.filterText = *filter
	}
	return d.filtered
}

// Extract walks d's declared members and constant pool and collects the
// referenced types, qualified method and field keys, and the string
// constants containing *filter. Extraction never mutates d.
func Extract(d *Descriptor, filter *string) *Facts {
	f := newFacts()
	if d.Super != "" {
		f.Types[d.Super] = struct{}{}
	}
	for _, iface := range d.Interfaces {
		f.Types[iface] = struct{}{}
	}
	for _, field := range d.Fields {
		if name, ok := FieldType(field.Descriptor); ok {
			f.Types[name] = struct{}{}
		}
	}
	for _, method := range d.Methods {
		f.addMethodType("", method.Name, method.Descriptor)
		f.Methods[d.Name+"."+method.Name] = struct{}{}
	}

	p := d.pool
	if p == nil {
		return f
	}
	for i := 1; i < p.Len(); i++ {
		c, ok := p.At(i)
		if !ok {
			continue
		}
		switch c.Tag {
		case TagLong, TagDouble:
			i++
		case TagClass:
			if internal, err := p.UTF8(c.Ref1); err == nil {
				f.addReference(internal)
			}
		case TagMethodHandle:
			if owner, _, _, err := p.MemberRef(c.Ref1); err == nil {
				f.addReference(owner)
			}
		case TagString:
			if filter == nil {
				continue
			}
			if s, err := p.UTF8(c.Ref1); err == nil && strings.Contains(s, *filter) {
				f.Strings[s] = struct{}{}
			}
		case TagFieldref, TagMethodref, TagInterfaceMethodref:
			owner, name, desc, err := p.MemberRef(uint16(i))
			if err != nil {
				continue
			}
			f.addReference(owner)
			ownerName, ok := ReferenceType(owner)
			if !ok {
				continue
			}
			if c.Tag == TagFieldref {
				f.Fields[ownerName+"."+name] = struct{}{}
			} else {
				f.addMethodType(ownerName, name, desc)
			}
		}
	}
	return f
}

func (f *Facts) addReference(internal string) {
	if name, ok := ReferenceType(internal); ok {
		f.Types[name] = struct{}{}
	}
}

func (f *Facts) addMethodType(owner, name, desc string) {
	params, ret, err := MethodTypes(desc)
	if err == nil {
		for _, p := range params {
			f.Types[p] = struct{}{}
		}
		if ret != "" {
			f.Types[ret] = struct{}{}
		}
	}
	if owner != "" {
		f.Types[owner] = struct{}{}
		f.Methods[owner+"."+name] = struct{}{}
	}
}

// Package classfile reads the structural parts of compiled class files: the
// constant pool, the class header, and field and method signatures. No
// bytecode is decoded.
package classfile

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	apperrors "classfinder/internal/core/errors"
	"classfinder/internal/shared/observability"
)

const (
	magic = 0xCAFEBABE

	minMajorVersion = 45
	maxMajorVersion = 70

	// RootType is the universal supertype every class implicitly extends.
	RootType = "java.lang.Object"
)

// Member is a field or method declared directly by a class.
type Member struct {
	Name       string
	Descriptor string
}

// Descriptor is the parsed header of one class file. Dependency facts are
// extracted on demand and cached on the instance.
type Descriptor struct {
	Name         string
	Super        string
	Interfaces   []string
	AccessFlags  uint16
	MajorVersion uint16
	MinorVersion uint16
	Fields       []Member
	Methods      []Member

	pool *Pool

	mu         sync.Mutex
	base       *Facts
	filtered   *Facts
	filterText string
}

// Pool exposes the constant pool for further extraction.
func (d *Descriptor) Pool() *Pool {
	return d.pool
}

// IsInterface reports whether ACC_INTERFACE is set.
func (d *Descriptor) IsInterface() bool {
	return d.AccessFlags&0x0200 != 0
}

// ReadFrom reads r fully and parses it.
func ReadFrom(r io.Reader) (*Descriptor, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeMalformedModule, "read class bytes")
	}
	return Parse(data)
}

// Parse decodes a class file. Any structural problem yields an error with
// code MALFORMED_MODULE.
func Parse(data []byte) (*Descriptor, error) {
	start := time.Now()
	d, err := parse(data)
	observability.ParseDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		observability.ParseFailuresTotal.Inc()
		return nil, apperrors.Wrap(err, apperrors.CodeMalformedModule, "invalid class file")
	}
	observability.ModulesParsedTotal.Inc()
	return d, nil
}

func parse(data []byte) (*Descriptor, error) {
	r := &reader{data: data}
	if m := r.u4(); r.err != nil || m != magic {
		if r.err != nil {
			return nil, r.err
		}
		return nil, fmt.Errorf("bad magic 0x%08x", m)
	}
	d := &Descriptor{}
	d.MinorVersion = r.u2()
	d.MajorVersion = r.u2()
	if r.err != nil {
		return nil, r.err
	}
	if d.MajorVersion < minMajorVersion || d.MajorVersion > maxMajorVersion {
		return nil, fmt.Errorf("unsupported class version %d.%d", d.MajorVersion, d.MinorVersion)
	}

	pool, err := readPool(r)
	if err != nil {
		return nil, err
	}
	d.pool = pool

	d.AccessFlags = r.u2()
	thisIdx := r.u2()
	superIdx := r.u2()
	if r.err != nil {
		return nil, r.err
	}
	name, err := pool.ClassName(thisIdx)
	if err != nil {
		return nil, fmt.Errorf("this_class: %w", err)
	}
	d.Name = DottedName(name)
	if superIdx == 0 {
		if d.Name != RootType {
			d.Super = RootType
		}
	} else {
		super, err := pool.ClassName(superIdx)
		if err != nil {
			return nil, fmt.Errorf("super_class: %w", err)
		}
		d.Super = DottedName(super)
	}

	n := int(r.u2())
	d.Interfaces = make([]string, 0, n)
	for i := 0; i < n && r.err == nil; i++ {
		iface, err := pool.ClassName(r.u2())
		if r.err != nil {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("interface %d: %w", i, err)
		}
		d.Interfaces = append(d.Interfaces, DottedName(iface))
	}
	if r.err != nil {
		return nil, r.err
	}

	if d.Fields, err = readMembers(r, pool); err != nil {
		return nil, fmt.Errorf("fields: %w", err)
	}
	if d.Methods, err = readMembers(r, pool); err != nil {
		return nil, fmt.Errorf("methods: %w", err)
	}
	skipAttributes(r)
	if r.err != nil {
		return nil, r.err
	}
	return d, nil
}

func readMembers(r *reader, pool *Pool) ([]Member, error) {
	n := int(r.u2())
	members := make([]Member, 0, n)
	for i := 0; i < n; i++ {
		r.u2() // access flags
		nameIdx := r.u2()
		descIdx := r.u2()
		skipAttributes(r)
		if r.err != nil {
			return nil, r.err
		}
		name, err := pool.UTF8(nameIdx)
		if err != nil {
			return nil, err
		}
		desc, err := pool.UTF8(descIdx)
		if err != nil {
			return nil, err
		}
		members = append(members, Member{Name: name, Descriptor: desc})
	}
	return members, nil
}

func skipAttributes(r *reader) {
	n := int(r.u2())
	for i := 0; i < n && r.err == nil; i++ {
		r.u2()
		r.skip(int(r.u4()))
	}
}

// DottedName converts an internal name (a/b/C) to its qualified form (a.b.C).
func DottedName(internal string) string {
	return strings.ReplaceAll(internal, "/", ".")
}

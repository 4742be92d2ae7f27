// Package classfiletest builds minimal, structurally valid class files for
// tests. Names are given in internal form (a/b/C).
package classfiletest

import (
	"bytes"
	"encoding/binary"
)

const (
	tagUtf8               = 1
	tagInteger            = 3
	tagLong               = 5
	tagDouble             = 6
	tagClass              = 7
	tagString             = 8
	tagFieldref           = 9
	tagMethodref          = 10
	tagInterfaceMethodref = 11
	tagNameAndType        = 12
	tagMethodHandle       = 15
	tagMethodType         = 16
)

type entry struct {
	tag  byte
	data []byte
	wide bool
}

type member struct {
	name, desc uint16
}

// Builder assembles a class file. Methods return the builder for chaining.
type Builder struct {
	entries    []entry
	utf8       map[string]uint16
	classes    map[string]uint16
	this       uint16
	super      uint16
	interfaces []uint16
	fields     []member
	methods    []member
	access     uint16
	major      uint16
}

// New starts a public class named name extending java/lang/Object.
func New(name string) *Builder {
	b := &Builder{
		utf8:    make(map[string]uint16),
		classes: make(map[string]uint16),
		access:  0x0021,
		major:   52,
	}
	b.this = b.class(name)
	b.super = b.class("java/lang/Object")
	return b
}

// Interface marks the class as an interface.
func (b *Builder) Interface() *Builder {
	b.access = 0x0601
	return b
}

// Major overrides the class file major version.
func (b *Builder) Major(v uint16) *Builder {
	b.major = v
	return b
}

// Super sets the superclass; an empty name writes super_class = 0.
func (b *Builder) Super(name string) *Builder {
	if name == "" {
		b.super = 0
		return b
	}
	b.super = b.class(name)
	return b
}

func (b *Builder) Interfaces(names ...string) *Builder {
	for _, n := range names {
		b.interfaces = append(b.interfaces, b.class(n))
	}
	return b
}

func (b *Builder) Field(name, desc string) *Builder {
	b.fields = append(b.fields, member{b.utf(name), b.utf(desc)})
	return b
}

func (b *Builder) Method(name, desc string) *Builder {
	b.methods = append(b.methods, member{b.utf(name), b.utf(desc)})
	return b
}

// ClassRef adds a Class constant, e.g. "[Lcom/x/Elem;" or "[I".
func (b *Builder) ClassRef(name string) *Builder {
	b.class(name)
	return b
}

func (b *Builder) String(s string) *Builder {
	b.add(tagString, u2(b.utf(s)), false)
	return b
}

func (b *Builder) Integer(v int32) *Builder {
	b.add(tagInteger, u4(uint32(v)), false)
	return b
}

func (b *Builder) Long(v int64) *Builder {
	b.add(tagLong, u8(uint64(v)), true)
	return b
}

func (b *Builder) Double(bits uint64) *Builder {
	b.add(tagDouble, u8(bits), true)
	return b
}

func (b *Builder) FieldRef(owner, name, desc string) *Builder {
	b.memberRef(tagFieldref, owner, name, desc)
	return b
}

func (b *Builder) MethodRef(owner, name, desc string) *Builder {
	b.memberRef(tagMethodref, owner, name, desc)
	return b
}

func (b *Builder) InterfaceMethodRef(owner, name, desc string) *Builder {
	b.memberRef(tagInterfaceMethodref, owner, name, desc)
	return b
}

// MethodHandle adds an invokestatic handle to owner.name.
func (b *Builder) MethodHandle(owner, name, desc string) *Builder {
	ref := b.memberRef(tagMethodref, owner, name, desc)
	data := append([]byte{6}, u2(ref)...)
	b.add(tagMethodHandle, data, false)
	return b
}

func (b *Builder) MethodType(desc string) *Builder {
	b.add(tagMethodType, u2(b.utf(desc)), false)
	return b
}

// Bytes serialises the class file.
func (b *Builder) Bytes() []byte {
	var buf bytes.Buffer
	buf.Write(u4(0xCAFEBABE))
	buf.Write(u2(0))
	buf.Write(u2(b.major))

	count := 1
	for _, e := range b.entries {
		count++
		if e.wide {
			count++
		}
	}
	buf.Write(u2(uint16(count)))
	for _, e := range b.entries {
		buf.WriteByte(e.tag)
		buf.Write(e.data)
	}

	buf.Write(u2(b.access))
	buf.Write(u2(b.this))
	buf.Write(u2(b.super))
	buf.Write(u2(uint16(len(b.interfaces))))
	for _, i := range b.interfaces {
		buf.Write(u2(i))
	}
	writeMembers(&buf, b.fields)
	writeMembers(&buf, b.methods)
	buf.Write(u2(0)) // class attributes
	return buf.Bytes()
}

func writeMembers(buf *bytes.Buffer, members []member) {
	buf.Write(u2(uint16(len(members))))
	for _, m := range members {
		buf.Write(u2(0x0001))
		buf.Write(u2(m.name))
		buf.Write(u2(m.desc))
		buf.Write(u2(0))
	}
}

// add appends an entry and returns its pool index.
func (b *Builder) add(tag byte, data []byte, wide bool) uint16 {
	idx := uint16(1)
	for _, e := range b.entries {
		idx++
		if e.wide {
			idx++
		}
	}
	b.entries = append(b.entries, entry{tag: tag, data: data, wide: wide})
	return idx
}

func (b *Builder) utf(s string) uint16 {
	if idx, ok := b.utf8[s]; ok {
		return idx
	}
	data := append(u2(uint16(len(s))), s...)
	idx := b.add(tagUtf8, data, false)
	b.utf8[s] = idx
	return idx
}

func (b *Builder) class(name string) uint16 {
	if idx, ok := b.classes[name]; ok {
		return idx
	}
	idx := b.add(tagClass, u2(b.utf(name)), false)
	b.classes[name] = idx
	return idx
}

func (b *Builder) memberRef(tag byte, owner, name, desc string) uint16 {
	cls := b.class(owner)
	nat := b.add(tagNameAndType, append(u2(b.utf(name)), u2(b.utf(desc))...), false)
	return b.add(tag, append(u2(cls), u2(nat)...), false)
}

func u2(v uint16) []byte {
	out := make([]byte, 2)
	binary.BigEndian.PutUint16(out, v)
	return out
}

func u4(v uint32) []byte {
	out := make([]byte, 4)
	binary.BigEndian.PutUint32(out, v)
	return out
}

func u8(v uint64) []byte {
	out := make([]byte, 8)
	binary.BigEndian.PutUint64(out, v)
	return out
}

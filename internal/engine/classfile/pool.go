package classfile

import "fmt"

// Constant pool tags.
const (
	TagUtf8               uint8 = 1
	TagInteger            uint8 = 3
	TagFloat              uint8 = 4
	TagLong               uint8 = 5
	TagDouble             uint8 = 6
	TagClass              uint8 = 7
	TagString             uint8 = 8
	TagFieldref           uint8 = 9
	TagMethodref          uint8 = 10
	TagInterfaceMethodref uint8 = 11
	TagNameAndType        uint8 = 12
	TagMethodHandle       uint8 = 15
	TagMethodType         uint8 = 16
	TagDynamic            uint8 = 17
	TagInvokeDynamic      uint8 = 18
	TagModule             uint8 = 19
	TagPackage            uint8 = 20
)

// Constant is one pool entry. Which fields are meaningful depends on Tag:
// Utf8 uses Text; Class, String, MethodType, Module and Package use Ref1;
// member refs, NameAndType, Dynamic and InvokeDynamic use Ref1 and Ref2;
// MethodHandle uses RefKind and Ref1.
type Constant struct {
	Tag     uint8
	Text    string
	Ref1    uint16
	Ref2    uint16
	RefKind uint8
}

// Pool is the parsed constant pool. Slot 0 and the slot following a Long or
// Double are unusable and hold a zero Constant.
type Pool struct {
	entries []Constant
}

// Len returns the constant_pool_count value, one more than the last usable index.
func (p *Pool) Len() int {
	return len(p.entries)
}

// Tag returns the tag at index i, or 0 for unusable or out-of-range slots.
func (p *Pool) Tag(i int) uint8 {
	if i <= 0 || i >= len(p.entries) {
		return 0
	}
	return p.entries[i].Tag
}

// At returns the constant at index i.
func (p *Pool) At(i int) (Constant, bool) {
	if i <= 0 || i >= len(p.entries) || p.entries[i].Tag == 0 {
		return Constant{}, false
	}
	return p.entries[i], true
}

// Wide reports whether tag occupies two pool slots.
func Wide(tag uint8) bool {
	return tag == TagLong || tag == TagDouble
}

func (p *Pool) expect(i uint16, tag uint8) (Constant, error) {
	c, ok := p.At(int(i))
	if !ok {
		return Constant{}, fmt.Errorf("constant #%d is not usable", i)
	}
	if c.Tag != tag {
		return Constant{}, fmt.Errorf("constant #%d has tag %d, want %d", i, c.Tag, tag)
	}
	return c, nil
}

// UTF8 returns the text of the Utf8 constant at i.
func (p *Pool) UTF8(i uint16) (string, error) {
	c, err := p.expect(i, TagUtf8)
	if err != nil {
		return "", err
	}
	return c.Text, nil
}

// ClassName returns the internal (slash separated) name of the Class constant at i.
func (p *Pool) ClassName(i uint16) (string, error) {
	c, err := p.expect(i, TagClass)
	if err != nil {
		return "", err
	}
	return p.UTF8(c.Ref1)
}

// StringValue returns the text of the String constant at i.
func (p *Pool) StringValue(i uint16) (string, error) {
	c, err := p.expect(i, TagString)
	if err != nil {
		return "", err
	}
	return p.UTF8(c.Ref1)
}

// MemberRef resolves a Fieldref, Methodref or InterfaceMethodref at i into
// its owner (internal form), member name and descriptor.
func (p *Pool) MemberRef(i uint16) (owner, name, descriptor string, err error) {
	c, ok := p.At(int(i))
	if !ok {
		return "", "", "", fmt.Errorf("constant #%d is not usable", i)
	}
	switch c.Tag {
	case TagFieldref, TagMethodref, TagInterfaceMethodref:
	default:
		return "", "", "", fmt.Errorf("constant #%d has tag %d, want a member reference", i, c.Tag)
	}
	if owner, err = p.ClassName(c.Ref1); err != nil {
		return "", "", "", err
	}
	nat, err := p.expect(c.Ref2, TagNameAndType)
	if err != nil {
		return "", "", "", err
	}
	if name, err = p.UTF8(nat.Ref1); err != nil {
		return "", "", "", err
	}
	if descriptor, err = p.UTF8(nat.Ref2); err != nil {
		return "", "", "", err
	}
	return owner, name, descriptor, nil
}

func readPool(r *reader) (*Pool, error) {
	count := int(r.u2())
	if r.err != nil {
		return nil, r.err
	}
	if count == 0 {
		return nil, fmt.Errorf("constant_pool_count is zero")
	}
	p := &Pool{entries: make([]Constant, count)}
	for i := 1; i < count; i++ {
		tag := r.u1()
		c := Constant{Tag: tag}
		switch tag {
		case TagUtf8:
			n := int(r.u2())
			raw := r.bytes(n)
			if r.err != nil {
				break
			}
			text, err := decodeModifiedUTF8(raw)
			if err != nil {
				return nil, fmt.Errorf("constant #%d: %w", i, err)
			}
			c.Text = text
		case TagInteger, TagFloat:
			r.skip(4)
		case TagLong, TagDouble:
			r.skip(8)
		case TagClass, TagString, TagMethodType, TagModule, TagPackage:
			c.Ref1 = r.u2()
		case TagFieldref, TagMethodref, TagInterfaceMethodref, TagNameAndType, TagDynamic, TagInvokeDynamic:
			c.Ref1 = r.u2()
			c.Ref2 = r.u2()
		case TagMethodHandle:
			c.RefKind = r.u1()
			c.Ref1 = r.u2()
		default:
			if r.err == nil {
				return nil, fmt.Errorf("constant #%d has unknown tag %d at offset %d", i, tag, r.pos-1)
			}
		}
		if r.err != nil {
			return nil, fmt.Errorf("constant #%d: %w", i, r.err)
		}
		p.entries[i] = c
		if Wide(tag) {
			if i+1 >= count {
				return nil, fmt.Errorf("constant #%d: wide entry overruns pool", i)
			}
			i++
		}
	}
	return p, nil
}

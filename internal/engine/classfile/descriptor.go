package classfile

import (
	"fmt"
	"strings"
)

// ReferenceType maps an internal class reference, as found in a Class
// constant, to a qualified type name. Array references collapse to their
// element type; arrays of primitives report false.
func ReferenceType(internal string) (string, bool) {
	if !strings.HasPrefix(internal, "[") {
		if internal == "" {
			return "", false
		}
		return DottedName(internal), true
	}
	elem := strings.TrimLeft(internal, "[")
	if strings.HasPrefix(elem, "L") && strings.HasSuffix(elem, ";") && len(elem) > 2 {
		return DottedName(elem[1 : len(elem)-1]), true
	}
	return "", false
}

// FieldType returns the class named by a field descriptor, if any.
// Primitive and primitive-array descriptors report false.
func FieldType(desc string) (string, bool) {
	name, rest, err := nextType(desc)
	if err != nil || rest != "" {
		return "", false
	}
	return name, name != ""
}

// MethodTypes splits a method descriptor into the class names of its
// parameters and return type. Primitive positions are omitted from params
// and leave ret empty.
func MethodTypes(desc string) (params []string, ret string, err error) {
	if !strings.HasPrefix(desc, "(") {
		return nil, "", fmt.Errorf("method descriptor %q does not start with '('", desc)
	}
	rest := desc[1:]
	for {
		if rest == "" {
			return nil, "", fmt.Errorf("method descriptor %q has no ')'", desc)
		}
		if rest[0] == ')' {
			rest = rest[1:]
			break
		}
		var name string
		name, rest, err = nextType(rest)
		if err != nil {
			return nil, "", fmt.Errorf("method descriptor %q: %w", desc, err)
		}
		if name != "" {
			params = append(params, name)
		}
	}
	if rest == "V" {
		return params, "", nil
	}
	name, tail, err := nextType(rest)
	if err != nil || tail != "" {
		return nil, "", fmt.Errorf("method descriptor %q has a bad return type", desc)
	}
	return params, name, nil
}

// nextType consumes one field type from s. It returns the class name (empty
// for primitives and primitive arrays) and the remainder.
func nextType(s string) (string, string, error) {
	i := 0
	for i < len(s) && s[i] == '[' {
		i++
	}
	if i >= len(s) {
		return "", "", fmt.Errorf("truncated type in %q", s)
	}
	switch s[i] {
	case 'B', 'C', 'D', 'F', 'I', 'J', 'S', 'Z':
		return "", s[i+1:], nil
	case 'L':
		end := strings.IndexByte(s[i:], ';')
		if end < 0 {
			return "", "", fmt.Errorf("unterminated class type in %q", s)
		}
		return DottedName(s[i+1 : i+end]), s[i+end+1:], nil
	default:
		return "", "", fmt.Errorf("unexpected %q in type %q", s[i], s)
	}
}

package model

import (
	"fmt"
	"strings"

	"ocabuild.dev/oca/internal/ocaerr"
)

// Kind is one of the scalar type tags recognized by the capture base,
// or Array/Reference which wrap or stand in for one.
type Kind string

const (
	KindText      Kind = "Text"
	KindNumeric   Kind = "Numeric"
	KindBoolean   Kind = "Boolean"
	KindDateTime  Kind = "DateTime"
	KindBinary    Kind = "Binary"
	KindReference Kind = "Reference"
	kindArray     Kind = "Array"
)

var scalarKinds = map[Kind]bool{
	KindText:      true,
	KindNumeric:   true,
	KindBoolean:   true,
	KindDateTime:  true,
	KindBinary:    true,
	KindReference: true,
}

// Type is an attribute's type tag: one of the fixed scalar kinds, or an
// Array wrapping another Type (arbitrarily nested, e.g. Array[Array[Text]]).
type Type struct {
	Kind Kind
	Elem *Type // non-nil only when Kind == "Array"
}

// String renders the type the way it appears in the DSL and in a
// capture base's canonical serialization, e.g. "Text" or "Array[Numeric]".
func (t Type) String() string {
	if t.Kind == kindArray {
		return fmt.Sprintf("Array[%s]", t.Elem.String())
	}
	return string(t.Kind)
}

// MarshalJSON renders Type as its DSL string form so it can be used
// directly as the value type in a capture base's attribute map.
func (t Type) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.String() + `"`), nil
}

// UnmarshalJSON parses Type back from its DSL string form.
func (t *Type) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	parsed, err := ParseType(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ParseType parses a type string as it appears in "ADD ATTRIBUTE
// name=Type". Array[T] nests arbitrarily; anything else must match
// one of the fixed scalar kinds exactly (case-sensitive, matching the
// DSL's own keyword casing for type names).
func ParseType(s string) (Type, error) {
	if strings.HasPrefix(s, "Array[") && strings.HasSuffix(s, "]") {
		inner := s[len("Array[") : len(s)-1]
		elem, err := ParseType(inner)
		if err != nil {
			return Type{}, err
		}
		return Type{Kind: kindArray, Elem: &elem}, nil
	}
	k := Kind(s)
	if !scalarKinds[k] {
		return Type{}, fmt.Errorf("%w: %q", ocaerr.ErrUnknownType, s)
	}
	return Type{Kind: k}, nil
}

package dtype

import (
	"strconv"
	"strings"

	"github.com/ajitpratap0/textreader/pkg/errors"
)

// Descriptor is a record type: either a leaf holding a primitive code, or a
// composite holding ordered named members.
type Descriptor struct {
	// Code is the leaf code. It is zero for composites.
	Code Code
	// Length is the number of characters of a string leaf. Zero means the
	// width is not fixed yet and will be taken from the data.
	Length int
	// Members are the children of a composite.
	Members []Member
}

// Member is one named child of a composite, optionally an array of Shape.
type Member struct {
	Name  string
	Type  Descriptor
	Shape []int
}

// Count is the number of elements the shape holds, 1 for a scalar member
func (m Member) Count() int {
	n := 1
	for _, d := range m.Shape {
		n *= d
	}
	return n
}

// Leaf returns a scalar descriptor for a fixed-size code
func Leaf(c Code) Descriptor {
	return Descriptor{Code: c}
}

// String returns a byte-string descriptor of n characters
func String(n int) Descriptor {
	return Descriptor{Code: Bytes, Length: n}
}

// Text returns a Unicode string descriptor of n characters
func Text(n int) Descriptor {
	return Descriptor{Code: Unicode, Length: n}
}

// Struct returns a composite descriptor
func Struct(members ...Member) Descriptor {
	return Descriptor{Members: members}
}

// Of is shorthand for a scalar member
func Of(name string, t Descriptor) Member {
	return Member{Name: name, Type: t}
}

// ArrayOf is shorthand for an array-valued member
func ArrayOf(name string, t Descriptor, shape ...int) Member {
	return Member{Name: name, Type: t, Shape: shape}
}

// IsComposite reports whether d has members
func (d Descriptor) IsComposite() bool {
	return d.Code == 0
}

// Size is the total byte width of one record of d
func (d Descriptor) Size() (int, error) {
	layout, err := Flatten(d)
	if err != nil {
		return 0, err
	}
	return layout.RowSize(), nil
}

// Field is one entry of a flattened layout
type Field struct {
	Code  Code
	Width int // bytes
}

// Layout is the flat, ordered field list of a record
type Layout []Field

// RowSize is the byte width of one row
func (l Layout) RowSize() int {
	n := 0
	for _, f := range l {
		n += f.Width
	}
	return n
}

// Codes returns the codes as a string, e.g. "HHHHHHU"
func (l Layout) Codes() string {
	b := make([]byte, len(l))
	for i, f := range l {
		b[i] = byte(f.Code)
	}
	return string(b)
}

// Offsets returns the byte offset of each field within a row
func (l Layout) Offsets() []int {
	offs := make([]int, len(l))
	n := 0
	for i, f := range l {
		offs[i] = n
		n += f.Width
	}
	return offs
}

// Homogeneous reports whether every field has the same code and width
func (l Layout) Homogeneous() bool {
	if len(l) == 0 {
		return true
	}
	for _, f := range l[1:] {
		if f != l[0] {
			return false
		}
	}
	return true
}

// Flatten expands d depth-first into (code, width) pairs. Array members are
// replicated Count() times and nested composites are expanded before the next
// sibling.
func Flatten(d Descriptor) (Layout, error) {
	var out Layout
	if err := flatten(d, "", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func flatten(d Descriptor, path string, out *Layout) error {
	if !d.IsComposite() {
		f, err := leafField(d, path)
		if err != nil {
			return err
		}
		*out = append(*out, f)
		return nil
	}

	for _, m := range d.Members {
		name := m.Name
		if path != "" {
			name = path + "." + m.Name
		}
		for _, dim := range m.Shape {
			if dim < 0 {
				return errors.Wrap(errors.ErrInvalidOption, errors.ErrorTypeConfiguration,
					"negative array dimension in field "+strconv.Quote(name)).
					WithDetail("field", name).
					WithDetail("shape", m.Shape)
			}
		}
		for i := m.Count(); i > 0; i-- {
			if err := flatten(m.Type, name, out); err != nil {
				return err
			}
		}
	}
	return nil
}

func leafField(d Descriptor, path string) (Field, error) {
	if !d.Code.Valid() {
		return Field{}, errors.Wrap(errors.ErrUnsupportedType, errors.ErrorTypeConfiguration,
			"unsupported type code "+strconv.QuoteRune(rune(d.Code))).
			WithDetail("code", string(rune(d.Code))).
			WithDetail("field", path)
	}
	if d.Code.IsString() {
		if d.Length < 0 {
			return Field{}, errors.Wrap(errors.ErrInvalidOption, errors.ErrorTypeConfiguration,
				"negative string length").WithDetail("field", path)
		}
		return Field{Code: d.Code, Width: d.Length * d.Code.ItemSize()}, nil
	}
	return Field{Code: d.Code, Width: d.Code.ItemSize()}, nil
}

// String renders d in the syntax accepted by Parse
func (d Descriptor) String() string {
	if !d.IsComposite() {
		return leafString(d)
	}
	parts := make([]string, len(d.Members))
	for i, m := range d.Members {
		var b strings.Builder
		if m.Name != "" {
			b.WriteString(m.Name)
			b.WriteByte(':')
		}
		if m.Type.IsComposite() {
			b.WriteByte('{')
			b.WriteString(m.Type.String())
			b.WriteByte('}')
		} else {
			b.WriteString(leafString(m.Type))
		}
		if len(m.Shape) > 0 {
			b.WriteByte('[')
			for k, dim := range m.Shape {
				if k > 0 {
					b.WriteByte(',')
				}
				b.WriteString(strconv.Itoa(dim))
			}
			b.WriteByte(']')
		}
		parts[i] = b.String()
	}
	return strings.Join(parts, ",")
}

func leafString(d Descriptor) string {
	switch {
	case d.Code.IsString():
		if d.Length == 0 {
			return string(rune(d.Code))
		}
		return string(rune(d.Code)) + strconv.Itoa(d.Length)
	case d.Code == Bool:
		return "b1"
	case d.Code.IsInteger():
		kind := "i"
		if d.Code.IsUnsigned() {
			kind = "u"
		}
		return kind + strconv.Itoa(d.Code.ItemSize())
	case d.Code.IsFloat():
		return "f" + strconv.Itoa(d.Code.ItemSize())
	case d.Code.IsComplex():
		return "c" + strconv.Itoa(d.Code.ItemSize())
	}
	return string(rune(d.Code))
}

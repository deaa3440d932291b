package dtype

import (
	"strconv"
	"strings"

	"github.com/ajitpratap0/textreader/pkg/errors"
)

// Parse reads a descriptor string. Accepted forms:
//
//	f8                    a single leaf, applied to every column
//	u2,f8,S7,i1           unnamed members, named f0, f1, ...
//	a:u1[2],b:u1[2]       named array members
//	p:{x:f4,y:f4}[3],id:i8
//
// Leaves are either a numpy character code (b B h H i I q Q f d F D ?) or a
// kind letter followed by a byte size (i1..i8, u1..u8, f4, f8, c8, c16, b1),
// and S<n>/U<n> for strings of n characters.
func Parse(s string) (Descriptor, error) {
	p := &parser{src: s}
	members, err := p.members()
	if err != nil {
		return Descriptor{}, err
	}
	if p.pos != len(p.src) {
		return Descriptor{}, p.fail("unexpected " + strconv.Quote(p.src[p.pos:]))
	}
	if len(members) == 1 && members[0].Name == "" && len(members[0].Shape) == 0 && !members[0].Type.IsComposite() {
		return members[0].Type, nil
	}
	for i := range members {
		if members[i].Name == "" {
			members[i].Name = "f" + strconv.Itoa(i)
		}
	}
	return Struct(members...), nil
}

// MustParse is Parse for literals known to be valid
func MustParse(s string) Descriptor {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

type parser struct {
	src string
	pos int
}

func (p *parser) fail(msg string) error {
	return errors.Wrap(errors.ErrInvalidOption, errors.ErrorTypeConfiguration, "dtype "+strconv.Quote(p.src)+": "+msg).
		WithDetail("position", p.pos)
}

func (p *parser) peek() byte {
	if p.pos < len(p.src) {
		return p.src[p.pos]
	}
	return 0
}

func (p *parser) skipSpaces() {
	for p.pos < len(p.src) && p.src[p.pos] == ' ' {
		p.pos++
	}
}

func (p *parser) members() ([]Member, error) {
	var out []Member
	for {
		p.skipSpaces()
		m, err := p.member()
		if err != nil {
			return nil, err
		}
		out = append(out, m)
		p.skipSpaces()
		if p.peek() != ',' {
			return out, nil
		}
		p.pos++
	}
}

func (p *parser) member() (Member, error) {
	var m Member
	if i := strings.IndexAny(p.src[p.pos:], ":,{}[]"); i > 0 && p.src[p.pos+i] == ':' {
		m.Name = strings.TrimSpace(p.src[p.pos : p.pos+i])
		p.pos += i + 1
		p.skipSpaces()
	}

	if p.peek() == '{' {
		p.pos++
		inner, err := p.members()
		if err != nil {
			return Member{}, err
		}
		if p.peek() != '}' {
			return Member{}, p.fail("missing '}'")
		}
		p.pos++
		for i := range inner {
			if inner[i].Name == "" {
				inner[i].Name = "f" + strconv.Itoa(i)
			}
		}
		m.Type = Struct(inner...)
	} else {
		leaf, err := p.leaf()
		if err != nil {
			return Member{}, err
		}
		m.Type = leaf
	}

	p.skipSpaces()
	if p.peek() == '[' {
		end := strings.IndexByte(p.src[p.pos:], ']')
		if end < 0 {
			return Member{}, p.fail("missing ']'")
		}
		for _, part := range strings.Split(p.src[p.pos+1:p.pos+end], ",") {
			n, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil || n < 0 {
				return Member{}, p.fail("bad array dimension " + strconv.Quote(part))
			}
			m.Shape = append(m.Shape, n)
		}
		p.pos += end + 1
	}
	return m, nil
}

var singleLetter = map[byte]Code{
	'?': Bool, 'b': Int8, 'B': Uint8, 'h': Int16, 'H': Uint16, 'i': Int32, 'I': Uint32,
	'q': Int64, 'Q': Uint64, 'l': Int64, 'L': Uint64, 'f': Float32, 'd': Float64,
	'F': Complex64, 'D': Complex128, 'S': Bytes, 'U': Unicode,
}

func (p *parser) leaf() (Descriptor, error) {
	start := p.pos
	if start >= len(p.src) {
		return Descriptor{}, p.fail("missing type")
	}
	// Byte order markers carry no meaning for native little-endian rows.
	if c := p.src[p.pos]; c == '<' || c == '=' || c == '|' {
		p.pos++
		start++
	}
	if p.pos >= len(p.src) {
		return Descriptor{}, p.fail("missing type")
	}
	letter := p.src[p.pos]
	p.pos++
	digits := p.pos
	for p.pos < len(p.src) && p.src[p.pos] >= '0' && p.src[p.pos] <= '9' {
		p.pos++
	}
	num := -1
	if p.pos > digits {
		num, _ = strconv.Atoi(p.src[digits:p.pos])
	}

	if letter == 'S' || letter == 'U' || letter == 'a' {
		code := Bytes
		if letter == 'U' {
			code = Unicode
		}
		if num < 0 {
			num = 0
		}
		return Descriptor{Code: code, Length: num}, nil
	}

	if num < 0 {
		if c, ok := singleLetter[letter]; ok {
			return Leaf(c), nil
		}
		return Descriptor{}, p.unsupported(start)
	}

	var c Code
	switch letter {
	case 'i':
		c = SignedFor(num)
	case 'u':
		c = UnsignedFor(num)
	case 'f':
		switch num {
		case 4:
			c = Float32
		case 8:
			c = Float64
		}
	case 'c':
		switch num {
		case 8:
			c = Complex64
		case 16:
			c = Complex128
		}
	case 'b':
		if num == 1 {
			c = Bool
		}
	}
	if c == 0 || (c.IsInteger() && c.ItemSize() != num) {
		return Descriptor{}, p.unsupported(start)
	}
	return Leaf(c), nil
}

func (p *parser) unsupported(start int) error {
	return errors.Wrap(errors.ErrUnsupportedType, errors.ErrorTypeConfiguration,
		"dtype "+strconv.Quote(p.src)+": unsupported type "+strconv.Quote(p.src[start:p.pos])).
		WithDetail("position", start)
}

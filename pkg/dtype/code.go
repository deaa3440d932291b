// Package dtype describes record layouts: primitive type codes, structured
// descriptors built from them, and the flat (code, width) layout that drives
// per-column conversion.
package dtype

import "fmt"

// Code is a one-byte primitive type tag. The letters follow the numpy
// character codes so layouts print the way array users expect.
type Code byte

const (
	Bool       Code = '?'
	Int8       Code = 'b'
	Uint8      Code = 'B'
	Int16      Code = 'h'
	Uint16     Code = 'H'
	Int32      Code = 'i'
	Uint32     Code = 'I'
	Int64      Code = 'q'
	Uint64     Code = 'Q'
	Float32    Code = 'f'
	Float64    Code = 'd'
	Complex64  Code = 'F'
	Complex128 Code = 'D'
	// Bytes is a fixed-width byte string, one byte per character
	Bytes Code = 'S'
	// Unicode is a fixed-width string of UTF-32 code units, four bytes per character
	Unicode Code = 'U'
)

type codeInfo struct {
	name string
	size int // bytes per value, or per character for strings
}

var codes = map[Code]codeInfo{
	Bool:       {"bool", 1},
	Int8:       {"int8", 1},
	Uint8:      {"uint8", 1},
	Int16:      {"int16", 2},
	Uint16:     {"uint16", 2},
	Int32:      {"int32", 4},
	Uint32:     {"uint32", 4},
	Int64:      {"int64", 8},
	Uint64:     {"uint64", 8},
	Float32:    {"float32", 4},
	Float64:    {"float64", 8},
	Complex64:  {"complex64", 8},
	Complex128: {"complex128", 16},
	Bytes:      {"bytes", 1},
	Unicode:    {"str", 4},
}

// Valid reports whether c is a supported code
func (c Code) Valid() bool {
	_, ok := codes[c]
	return ok
}

// String returns the type name, e.g. "float64"
func (c Code) String() string {
	if info, ok := codes[c]; ok {
		return info.name
	}
	return fmt.Sprintf("code(%q)", byte(c))
}

// ItemSize is the byte size of one value, or of one character for string codes
func (c Code) ItemSize() int {
	return codes[c].size
}

// IsString reports whether c is a fixed-width string code
func (c Code) IsString() bool {
	return c == Bytes || c == Unicode
}

// IsInteger reports whether c is a signed or unsigned integer code
func (c Code) IsInteger() bool {
	switch c {
	case Int8, Int16, Int32, Int64, Uint8, Uint16, Uint32, Uint64:
		return true
	}
	return false
}

// IsUnsigned reports whether c is an unsigned integer code
func (c Code) IsUnsigned() bool {
	switch c {
	case Uint8, Uint16, Uint32, Uint64:
		return true
	}
	return false
}

// IsFloat reports whether c is float32 or float64
func (c Code) IsFloat() bool {
	return c == Float32 || c == Float64
}

// IsComplex reports whether c is complex64 or complex128
func (c Code) IsComplex() bool {
	return c == Complex64 || c == Complex128
}

// IntRange returns the inclusive bounds of a signed integer code
func (c Code) IntRange() (min, max int64) {
	bits := uint(c.ItemSize() * 8)
	return -1 << (bits - 1), 1<<(bits-1) - 1
}

// UintMax returns the largest value of an unsigned integer code
func (c Code) UintMax() uint64 {
	bits := uint(c.ItemSize() * 8)
	return 1<<bits - 1
}

// SignedFor returns the signed integer code of the given byte size
func SignedFor(size int) Code {
	switch size {
	case 1:
		return Int8
	case 2:
		return Int16
	case 4:
		return Int32
	}
	return Int64
}

// UnsignedFor returns the unsigned integer code of the given byte size
func UnsignedFor(size int) Code {
	switch size {
	case 1:
		return Uint8
	case 2:
		return Uint16
	case 4:
		return Uint32
	}
	return Uint64
}

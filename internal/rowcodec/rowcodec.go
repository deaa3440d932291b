// Package rowcodec reads and writes single values in a packed row. All
// numbers are little-endian; Unicode strings are UTF-32LE code units and
// byte strings are raw bytes, both zero-padded to the field width.
package rowcodec

import (
	"encoding/binary"
	"math"
	"unicode/utf8"

	"github.com/ajitpratap0/textreader/pkg/dtype"
)

var le = binary.LittleEndian

// PutBool writes b as one byte
func PutBool(dst []byte, b bool) {
	if b {
		dst[0] = 1
	} else {
		dst[0] = 0
	}
}

// PutInt writes v truncated to the width of a signed or unsigned integer code
func PutInt(dst []byte, code dtype.Code, v int64) {
	PutUint(dst, code, uint64(v))
}

// PutUint writes v truncated to the width of an integer code
func PutUint(dst []byte, code dtype.Code, v uint64) {
	switch code.ItemSize() {
	case 1:
		dst[0] = byte(v)
	case 2:
		le.PutUint16(dst, uint16(v))
	case 4:
		le.PutUint32(dst, uint32(v))
	default:
		le.PutUint64(dst, v)
	}
}

// PutFloat writes v as float32 or float64
func PutFloat(dst []byte, code dtype.Code, v float64) {
	if code == dtype.Float32 {
		le.PutUint32(dst, math.Float32bits(float32(v)))
		return
	}
	le.PutUint64(dst, math.Float64bits(v))
}

// PutComplex writes the real then the imaginary part
func PutComplex(dst []byte, code dtype.Code, v complex128) {
	if code == dtype.Complex64 {
		le.PutUint32(dst, math.Float32bits(float32(real(v))))
		le.PutUint32(dst[4:], math.Float32bits(float32(imag(v))))
		return
	}
	le.PutUint64(dst, math.Float64bits(real(v)))
	le.PutUint64(dst[8:], math.Float64bits(imag(v)))
}

// PutBytes copies s into dst and zero-fills the rest. It reports whether s
// was cut short.
func PutBytes(dst []byte, s string) bool {
	n := copy(dst, s)
	clear(dst[n:])
	return n < len(s)
}

// PutText writes s as UTF-32LE into dst and zero-fills the rest. It reports
// whether s was cut short.
func PutText(dst []byte, s string) bool {
	i := 0
	for _, r := range s {
		if i+4 > len(dst) {
			return true
		}
		le.PutUint32(dst[i:], uint32(r))
		i += 4
	}
	clear(dst[i:])
	return false
}

// TextLen is the number of UTF-32 code units s needs
func TextLen(s string) int {
	return utf8.RuneCountInString(s)
}

// Bool reads a bool
func Bool(src []byte) bool {
	return src[0] != 0
}

// Int reads a signed integer of the code's width
func Int(src []byte, code dtype.Code) int64 {
	switch code.ItemSize() {
	case 1:
		return int64(int8(src[0]))
	case 2:
		return int64(int16(le.Uint16(src)))
	case 4:
		return int64(int32(le.Uint32(src)))
	}
	return int64(le.Uint64(src))
}

// Uint reads an unsigned integer of the code's width
func Uint(src []byte, code dtype.Code) uint64 {
	switch code.ItemSize() {
	case 1:
		return uint64(src[0])
	case 2:
		return uint64(le.Uint16(src))
	case 4:
		return uint64(le.Uint32(src))
	}
	return le.Uint64(src)
}

// Float reads a float32 or float64
func Float(src []byte, code dtype.Code) float64 {
	if code == dtype.Float32 {
		return float64(math.Float32frombits(le.Uint32(src)))
	}
	return math.Float64frombits(le.Uint64(src))
}

// Complex reads a complex64 or complex128
func Complex(src []byte, code dtype.Code) complex128 {
	if code == dtype.Complex64 {
		re := math.Float32frombits(le.Uint32(src))
		im := math.Float32frombits(le.Uint32(src[4:]))
		return complex(float64(re), float64(im))
	}
	return complex(math.Float64frombits(le.Uint64(src)), math.Float64frombits(le.Uint64(src[8:])))
}

// Bytes returns a byte string without its zero padding
func Bytes(src []byte) []byte {
	n := len(src)
	for n > 0 && src[n-1] == 0 {
		n--
	}
	return src[:n]
}

// Text decodes a UTF-32LE string, stopping at the first zero code unit
func Text(src []byte) string {
	buf := make([]byte, 0, len(src)/4)
	for i := 0; i+4 <= len(src); i += 4 {
		r := rune(le.Uint32(src[i:]))
		if r == 0 {
			break
		}
		buf = utf8.AppendRune(buf, r)
	}
	return string(buf)
}

// Value decodes the field at src into its natural Go type: bool, int8..int64,
// uint8..uint64, float32, float64, complex64, complex128, []byte or string.
func Value(src []byte, f dtype.Field) any {
	switch f.Code {
	case dtype.Bool:
		return Bool(src)
	case dtype.Int8:
		return int8(Int(src, f.Code))
	case dtype.Int16:
		return int16(Int(src, f.Code))
	case dtype.Int32:
		return int32(Int(src, f.Code))
	case dtype.Int64:
		return Int(src, f.Code)
	case dtype.Uint8:
		return uint8(Uint(src, f.Code))
	case dtype.Uint16:
		return uint16(Uint(src, f.Code))
	case dtype.Uint32:
		return uint32(Uint(src, f.Code))
	case dtype.Uint64:
		return Uint(src, f.Code)
	case dtype.Float32:
		return float32(Float(src, f.Code))
	case dtype.Float64:
		return Float(src, f.Code)
	case dtype.Complex64:
		return complex64(Complex(src, f.Code))
	case dtype.Complex128:
		return Complex(src, f.Code)
	case dtype.Bytes:
		return Bytes(src[:f.Width])
	case dtype.Unicode:
		return Text(src[:f.Width])
	}
	return nil
}

// Decode splits a row into values following layout
func Decode(row []byte, layout dtype.Layout) []any {
	out := make([]any, len(layout))
	off := 0
	for i, f := range layout {
		out[i] = Value(row[off:off+f.Width], f)
		off += f.Width
	}
	return out
}

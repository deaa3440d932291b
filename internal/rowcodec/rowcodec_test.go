package rowcodec

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ajitpratap0/textreader/pkg/dtype"
)

func TestIntegers(t *testing.T) {
	buf := make([]byte, 8)
	for _, code := range []dtype.Code{dtype.Int8, dtype.Int16, dtype.Int32, dtype.Int64} {
		lo, hi := code.IntRange()
		for _, v := range []int64{lo, -1, 0, 1, hi} {
			PutInt(buf, code, v)
			assert.Equal(t, v, Int(buf, code), "%s %d", code, v)
		}
	}
	for _, code := range []dtype.Code{dtype.Uint8, dtype.Uint16, dtype.Uint32, dtype.Uint64} {
		for _, v := range []uint64{0, 1, code.UintMax()} {
			PutUint(buf, code, v)
			assert.Equal(t, v, Uint(buf, code), "%s %d", code, v)
		}
	}

	PutInt(buf, dtype.Int16, -2)
	assert.Equal(t, []byte{0xfe, 0xff}, buf[:2])
}

func TestFloats(t *testing.T) {
	buf := make([]byte, 16)
	PutFloat(buf, dtype.Float64, math.Pi)
	assert.Equal(t, math.Pi, Float(buf, dtype.Float64))
	PutFloat(buf, dtype.Float32, 1.5)
	assert.Equal(t, 1.5, Float(buf, dtype.Float32))

	PutComplex(buf, dtype.Complex128, complex(1.25, -3))
	assert.Equal(t, complex(1.25, -3), Complex(buf, dtype.Complex128))
	PutComplex(buf, dtype.Complex64, complex(0.5, 2))
	assert.Equal(t, complex(0.5, 2), Complex(buf, dtype.Complex64))
}

func TestStrings(t *testing.T) {
	buf := []byte{9, 9, 9, 9, 9}
	assert.False(t, PutBytes(buf, "ab"))
	assert.Equal(t, []byte{'a', 'b', 0, 0, 0}, buf)
	assert.Equal(t, []byte("ab"), Bytes(buf))
	assert.True(t, PutBytes(buf, "abcdefg"))
	assert.Equal(t, []byte("abcde"), buf)

	text := make([]byte, 12)
	assert.False(t, PutText(text, "hé"))
	assert.Equal(t, []byte{'h', 0, 0, 0, 0xe9, 0, 0, 0, 0, 0, 0, 0}, text)
	assert.Equal(t, "hé", Text(text))
	assert.True(t, PutText(text, "abcd"))
	assert.Equal(t, "abc", Text(text))
	assert.Equal(t, 2, TextLen("hé"))
}

func TestDecode(t *testing.T) {
	layout := dtype.Layout{{Code: dtype.Bool, Width: 1}, {Code: dtype.Uint16, Width: 2}, {Code: dtype.Bytes, Width: 3}, {Code: dtype.Unicode, Width: 8}}
	row := make([]byte, layout.RowSize())
	offs := layout.Offsets()
	PutBool(row[offs[0]:], true)
	PutUint(row[offs[1]:], dtype.Uint16, 513)
	PutBytes(row[offs[2]:offs[3]], "xy")
	PutText(row[offs[3]:], "ok")

	assert.Equal(t, []any{true, uint16(513), []byte("xy"), "ok"}, Decode(row, layout))
}

package dtype

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/textreader/pkg/errors"
)

func TestFlattenStructuredWithArrays(t *testing.T) {
	d := Struct(
		ArrayOf("a", Leaf(Uint16), 2),
		ArrayOf("b", Leaf(Uint16), 4),
		Of("name", Text(64)),
	)

	layout, err := Flatten(d)
	require.NoError(t, err)
	assert.Equal(t, "HHHHHHU", layout.Codes())

	widths := make([]int, len(layout))
	for i, f := range layout {
		widths[i] = f.Width
	}
	assert.Equal(t, []int{2, 2, 2, 2, 2, 2, 256}, widths)
	assert.Equal(t, 268, layout.RowSize())
}

func TestFlattenLeaves(t *testing.T) {
	tests := []struct {
		d     Descriptor
		codes string
		width int
	}{
		{Leaf(Float64), "d", 8},
		{String(0), "S", 0},
		{Text(1), "U", 4},
		{String(7), "S", 7},
		{Leaf(Complex128), "D", 16},
		{Leaf(Bool), "?", 1},
	}
	for _, tt := range tests {
		layout, err := Flatten(tt.d)
		require.NoError(t, err)
		assert.Equal(t, tt.codes, layout.Codes())
		assert.Equal(t, tt.width, layout.RowSize())
	}
}

func TestFlattenNestedDepthFirst(t *testing.T) {
	point := Struct(Of("x", Leaf(Float32)), Of("y", Leaf(Int16)))
	d := Struct(
		Of("id", Leaf(Int64)),
		ArrayOf("p", point, 2, 2),
		Of("tag", String(3)),
	)

	layout, err := Flatten(d)
	require.NoError(t, err)
	assert.Equal(t, "qfhfhfhfhS", layout.Codes())

	// Width round-trips: 8 + 4*(4+2) + 3
	size, err := d.Size()
	require.NoError(t, err)
	assert.Equal(t, 35, size)
	assert.Equal(t, []int{0, 8, 12, 14, 18, 20, 24, 26, 30, 32}, layout.Offsets())
}

func TestFlattenIsDeterministic(t *testing.T) {
	d := MustParse("a:u1[2],b:{c:f8,d:S4}[3],e:c8")
	first, err := Flatten(d)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := Flatten(d)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestFlattenZeroShape(t *testing.T) {
	layout, err := Flatten(Struct(ArrayOf("empty", Leaf(Int32), 0), Of("x", Leaf(Int8))))
	require.NoError(t, err)
	assert.Equal(t, "b", layout.Codes())
}

func TestFlattenUnsupported(t *testing.T) {
	_, err := Flatten(Struct(Of("x", Descriptor{Code: 'Z'})))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrUnsupportedType))
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfiguration))

	_, err = Flatten(Struct(ArrayOf("x", Leaf(Int8), -1)))
	assert.True(t, errors.Is(err, errors.ErrInvalidOption))
}

func TestParse(t *testing.T) {
	tests := []struct {
		in    string
		codes string
		size  int
	}{
		{"f8", "d", 8},
		{"u2,f8,S7,i1", "HdSb", 18},
		{"a:u1[2],b:u1[2]", "BBBB", 4},
		{"p:{x:f4,y:f4}[3],id:i8", "ffffffq", 32},
		{"U64", "U", 256},
		{"<i4, >f8", "", 0},
		{"?, b1, B", "??B", 3},
		{"c16,F", "DF", 24},
		{"m:i4[2,3]", "iiiiii", 24},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			d, err := Parse(tt.in)
			if tt.codes == "" {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			layout, err := Flatten(d)
			require.NoError(t, err)
			assert.Equal(t, tt.codes, layout.Codes())
			assert.Equal(t, tt.size, layout.RowSize())
		})
	}
}

func TestParseNamesUnnamedMembers(t *testing.T) {
	d := MustParse("u2,f8")
	require.True(t, d.IsComposite())
	assert.Equal(t, "f0", d.Members[0].Name)
	assert.Equal(t, "f1", d.Members[1].Name)
}

func TestParseRejects(t *testing.T) {
	for _, in := range []string{"", "x4", "i3", "f2", "a:{f8", "a:f8[2", "a:f8[-1]", "f8 junk"} {
		_, err := Parse(in)
		assert.Error(t, err, in)
	}
	_, err := Parse("q9")
	assert.True(t, errors.Is(err, errors.ErrUnsupportedType))
}

func TestDescriptorStringRoundTrip(t *testing.T) {
	for _, in := range []string{"f8", "a:u1[2],b:u1[2]", "p:{x:f4,y:f4}[3],id:i8", "name:U64,v:c16,ok:b1"} {
		d := MustParse(in)
		again, err := Parse(d.String())
		require.NoError(t, err)
		assert.Equal(t, d, again, in)
	}
}

func TestCodeHelpers(t *testing.T) {
	min, max := Int8.IntRange()
	assert.Equal(t, int64(-128), min)
	assert.Equal(t, int64(127), max)
	min, max = Int64.IntRange()
	assert.Equal(t, int64(-1<<63), min)
	assert.Equal(t, int64(1<<63-1), max)
	assert.Equal(t, uint64(1<<64-1), Uint64.UintMax())
	assert.Equal(t, uint64(65535), Uint16.UintMax())
	assert.Equal(t, "float64", Float64.String())
	assert.False(t, Code('Z').Valid())
	assert.True(t, Layout{{Float64, 8}, {Float64, 8}}.Homogeneous())
	assert.False(t, Layout{{Float64, 8}, {Int64, 8}}.Homogeneous())
}

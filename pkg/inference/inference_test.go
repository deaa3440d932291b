package inference

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/textreader/pkg/dtype"
	"github.com/ajitpratap0/textreader/pkg/errors"
	"github.com/ajitpratap0/textreader/pkg/numconv"
	"github.com/ajitpratap0/textreader/pkg/tokenizer"
)

func row(texts ...string) []tokenizer.Token {
	out := make([]tokenizer.Token, len(texts))
	for i, s := range texts {
		out[i] = tokenizer.Token{Text: s, Column: i}
	}
	return out
}

func infer(t *testing.T, opts Options, rows ...[]string) *Inferrer {
	t.Helper()
	in := New(opts)
	for _, r := range rows {
		require.NoError(t, in.Observe(row(r...)))
	}
	return in
}

func TestColumnPromotion(t *testing.T) {
	tests := []struct {
		name   string
		values []string
		code   dtype.Code
		width  int
	}{
		{"bool", []string{"true", "FALSE", " True "}, dtype.Bool, 1},
		{"small ints", []string{"1", "-5", "100"}, dtype.Int8, 1},
		{"int16", []string{"0", "-200"}, dtype.Int16, 2},
		{"int32", []string{"70000"}, dtype.Int32, 4},
		{"int64", []string{"-1", "5000000000"}, dtype.Int64, 8},
		{"uint64 only", []string{"18446744073709551615"}, dtype.Uint64, 8},
		{"beyond int range", []string{"-1", "18446744073709551615"}, dtype.Float64, 8},
		{"int then float", []string{"1", "2.5"}, dtype.Float64, 8},
		{"float then int", []string{"2.5", "1"}, dtype.Float64, 8},
		{"nan in ints", []string{"1", "nan"}, dtype.Float64, 8},
		{"complex", []string{"1.5", "2+3j"}, dtype.Complex128, 16},
		{"complex stays", []string{"1j", "4"}, dtype.Complex128, 16},
		{"text", []string{"1", "abc", "2.5"}, dtype.Bytes, 3},
		{"unicode text", []string{"ok", "héllo"}, dtype.Unicode, 20},
		{"bool then number", []string{"true", "5", "false"}, dtype.Int8, 1},
		{"number then bool", []string{"-1", "false"}, dtype.Int8, 1},
		{"bool then float", []string{"false", "2.5", "TRUE"}, dtype.Float64, 8},
		{"bool then complex", []string{"true", "1j"}, dtype.Complex128, 16},
		{"bool then text", []string{"true", "yes"}, dtype.Bytes, 4},
		{"blanks ignored", []string{"", "3", "   "}, dtype.Int8, 1},
		{"only blanks", []string{"", "  "}, dtype.Bytes, 2},
		{"empty only", []string{""}, dtype.Bytes, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := New(Options{})
			for _, v := range tt.values {
				require.NoError(t, in.Observe(row(v)))
			}
			layout := in.Layout()
			require.Len(t, layout, 1)
			assert.Equal(t, tt.code, layout[0].Code)
			assert.Equal(t, tt.width, layout[0].Width)
		})
	}
}

func TestMonotonic(t *testing.T) {
	// Feeding narrower values after a promotion never narrows the column.
	in := infer(t, Options{}, []string{"1.5"}, []string{"2"}, []string{"true"})
	assert.Equal(t, []Kind{KindFloat}, in.Kinds())

	in = infer(t, Options{}, []string{"true"}, []string{"300"}, []string{"false"})
	assert.Equal(t, []Kind{KindInt}, in.Kinds())
	assert.Equal(t, "h", in.Layout().Codes())

	in = infer(t, Options{}, []string{"x"}, []string{"1"})
	assert.Equal(t, []Kind{KindString}, in.Kinds())
}

func TestMultipleColumns(t *testing.T) {
	in := infer(t, Options{},
		[]string{"1", "2.0", "a"},
		[]string{"3", "4.5", "bcd"},
	)
	assert.Equal(t, 2, in.Rows())
	assert.Equal(t, 3, in.Columns())
	assert.Equal(t, "bdS", in.Layout().Codes())

	d := in.Descriptor()
	require.True(t, d.IsComposite())
	assert.Equal(t, "f0:i1,f1:f8,f2:S3", d.String())

	layout, err := dtype.Flatten(d)
	require.NoError(t, err)
	assert.Equal(t, in.Layout(), layout)
}

func TestColumnCountMismatch(t *testing.T) {
	in := New(Options{})
	require.NoError(t, in.Observe(row("1", "2")))
	err := in.Observe(row("1", "2", "3"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrFieldCount))

	var e *errors.Error
	require.True(t, errors.As(err, &e))
	expected, _ := e.Detail("expected")
	assert.Equal(t, 2, expected)
}

func TestPreferUnsigned(t *testing.T) {
	in := infer(t, Options{PreferUnsigned: true}, []string{"200"}, []string{"0"})
	assert.Equal(t, "B", in.Layout().Codes())

	in = infer(t, Options{PreferUnsigned: true}, []string{"200"}, []string{"-1"})
	assert.Equal(t, "h", in.Layout().Codes())
}

func TestStringWidthCap(t *testing.T) {
	in := infer(t, Options{StringWidthCap: 4}, []string{"abcdefgh"})
	layout := in.Layout()
	assert.Equal(t, dtype.Field{Code: dtype.Bytes, Width: 4}, layout[0])
}

func TestCommaDecimal(t *testing.T) {
	opts := Options{Format: numconv.Format{Decimal: ',', Exponent: 'E'}}
	in := infer(t, opts, []string{"1,5"}, []string{"2"})
	assert.Equal(t, "d", in.Layout().Codes())

	in = infer(t, Options{}, []string{"1,5"})
	assert.Equal(t, "S", in.Layout().Codes())
}

func TestIntCode(t *testing.T) {
	tests := []struct {
		min      int64
		max      uint64
		unsigned bool
		want     dtype.Code
	}{
		{0, 0, false, dtype.Int8},
		{-128, 127, false, dtype.Int8},
		{-129, 0, false, dtype.Int16},
		{0, 128, false, dtype.Int16},
		{math.MinInt32, math.MaxInt32, false, dtype.Int32},
		{math.MinInt64, 0, false, dtype.Int64},
		{0, math.MaxUint64, false, dtype.Uint64},
		{-1, math.MaxUint64, false, dtype.Float64},
		{0, 255, true, dtype.Uint8},
		{0, 256, true, dtype.Uint16},
		{0, math.MaxUint32, true, dtype.Uint32},
		{0, math.MaxUint32 + 1, true, dtype.Uint64},
		{-1, 255, true, dtype.Int16},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IntCode(tt.min, tt.max, tt.unsigned), "%d..%d", tt.min, tt.max)
	}
}

func TestWidths(t *testing.T) {
	in := infer(t, Options{}, []string{"héllo", "1", ""}, []string{"ab", "22", ""})
	assert.Equal(t, 6, in.Width(0, dtype.Bytes))
	assert.Equal(t, 5, in.Width(0, dtype.Unicode))
	assert.Equal(t, 2, in.Width(1, dtype.Bytes))
	assert.Equal(t, 1, in.Width(2, dtype.Unicode))
	assert.Equal(t, dtype.Text(5), in.Column(0))
	assert.Equal(t, dtype.Leaf(dtype.Int8), in.Column(1))
}

func TestBoolCountsAsOne(t *testing.T) {
	in := infer(t, Options{PreferUnsigned: true}, []string{"true"}, []string{"0"})
	assert.Equal(t, "B", in.Layout().Codes())
	assert.Equal(t, uint64(1), in.cols[0].max)
}

func TestConvertedColumns(t *testing.T) {
	in := New(Options{})
	in.Convert(1, func(raw string) (any, error) {
		if raw == "XXX" {
			return -999.0, nil
		}
		return numconv.ParseFloat64(raw, numconv.Format{})
	})
	in.Convert(2, func(raw string) (any, error) {
		if raw == "bad" {
			return nil, assert.AnError
		}
		return int64(len(raw)) * 1000, nil
	})
	in.Convert(3, func(raw string) (any, error) { return "<" + raw + ">", nil })
	in.Convert(4, nil)

	require.NoError(t, in.Observe(row("1.5", "2.5", "a", "x", "7")))
	require.NoError(t, in.Observe(row("3.0", "XXX", "bad", "yz", "8")))
	require.NoError(t, in.Observe(row("5.5", "6.0", "abc", "", "9")))

	assert.Equal(t, []Kind{KindFloat, KindFloat, KindInt, KindString, KindInt}, in.Kinds())
	assert.Equal(t, "ddhSb", in.Layout().Codes())
	assert.Equal(t, 4, in.Width(3, dtype.Bytes))
}

func TestConvertedValueKinds(t *testing.T) {
	tests := []struct {
		name string
		v    any
		want Kind
	}{
		{"bool", true, KindBool},
		{"int", int16(-3), KindInt},
		{"uint", uint8(3), KindInt},
		{"float32", float32(1.5), KindFloat},
		{"complex", complex(1, 2), KindComplex},
		{"bytes", []byte("12"), KindInt},
		{"string", "abc", KindString},
		{"other", struct{}{}, KindString},
		{"nil", nil, KindUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := New(Options{})
			in.Convert(0, func(string) (any, error) { return tt.v, nil })
			require.NoError(t, in.Observe(row("raw")))
			assert.Equal(t, []Kind{tt.want}, in.Kinds())
		})
	}
}

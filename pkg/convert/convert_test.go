package convert

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/textreader/internal/rowcodec"
	"github.com/ajitpratap0/textreader/pkg/dtype"
	"github.com/ajitpratap0/textreader/pkg/errors"
	"github.com/ajitpratap0/textreader/pkg/numconv"
	"github.com/ajitpratap0/textreader/pkg/tokenizer"
)

func tokens(texts ...string) []tokenizer.Token {
	out := make([]tokenizer.Token, len(texts))
	for i, s := range texts {
		out[i] = tokenizer.Token{Text: s, Column: i}
	}
	return out
}

func layoutOf(t *testing.T, s string) dtype.Layout {
	t.Helper()
	layout, err := dtype.Flatten(dtype.MustParse(s))
	require.NoError(t, err)
	return layout
}

func encode(t *testing.T, p *Plan, texts ...string) []any {
	t.Helper()
	row := make([]byte, p.RowSize())
	require.NoError(t, p.EncodeRow(tokens(texts...), row, Position{Row: 1, Line: 1}))
	var layout dtype.Layout
	for _, s := range p.Strategies() {
		layout = append(layout, s.Field)
	}
	return rowcodec.Decode(row, layout)
}

func TestBuiltinRow(t *testing.T) {
	p, err := NewPlan(layoutOf(t, "?,i1,u2,f4,f8,c16,S3,U2"), nil, Options{})
	require.NoError(t, err)

	got := encode(t, p, "True", "-128", "65535", "0.5", "1e-310", "1-2j", "ab", "hé")
	assert.Equal(t, []any{true, int8(-128), uint16(65535), float32(0.5), 1e-310, complex(1, -2), []byte("ab"), "hé"}, got)
}

func TestBuiltinErrors(t *testing.T) {
	tests := []struct {
		dtype string
		raw   string
	}{
		{"i1", "128"},
		{"i1", "1 2"},
		{"i4", "1,000"},
		{"i4", "1.5"},
		{"u1", "-1"},
		{"f8", "1..2"},
		{"f8", ""},
		{"?", "yes"},
		{"c16", "1+j2"},
	}
	for _, tt := range tests {
		t.Run(tt.dtype+" "+tt.raw, func(t *testing.T) {
			p, err := NewPlan(layoutOf(t, tt.dtype), nil, Options{})
			require.NoError(t, err)
			err = p.EncodeRow(tokens(tt.raw), make([]byte, p.RowSize()), Position{Row: 3, Line: 7, Offset: 40})
			require.Error(t, err)

			var fe *FieldError
			require.True(t, errors.As(err, &fe))
			assert.Equal(t, 3, fe.Row)
			assert.Equal(t, 0, fe.Column)
			assert.Equal(t, 7, fe.Line)
			assert.Equal(t, int64(40), fe.Offset)
			assert.Equal(t, tt.raw, fe.Raw)
			assert.True(t, errors.Is(err, errors.ErrBadField))
			assert.True(t, errors.IsType(err, errors.ErrorTypeConversion))
		})
	}
}

func TestErrorMessage(t *testing.T) {
	p, err := NewPlan(layoutOf(t, "f8,f8"), nil, Options{})
	require.NoError(t, err)
	err = p.EncodeRow(tokens("3.0", "XXX"), make([]byte, 16), Position{Row: 2, Line: 2})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `bad float64 value "XXX" at row 2, column 1`)

	var e *errors.Error
	require.True(t, errors.As(err, &e))
	raw, _ := e.Detail("raw")
	assert.Equal(t, "XXX", raw)
	code, _ := e.Detail("code")
	assert.Equal(t, "float64", code)
}

func TestUnderlyingCauseIsKept(t *testing.T) {
	p, err := NewPlan(layoutOf(t, "i1"), nil, Options{})
	require.NoError(t, err)
	err = p.EncodeRow(tokens("300"), make([]byte, 1), Position{Row: 1})
	assert.True(t, errors.Is(err, numconv.ErrOverflow))
}

func TestMissingFieldsGetDefaults(t *testing.T) {
	p, err := NewPlan(layoutOf(t, "i4,f8,c8,S2,?"), nil, Options{})
	require.NoError(t, err)
	row := make([]byte, p.RowSize())
	for i := range row {
		row[i] = 0xff
	}
	require.NoError(t, p.EncodeRow(tokens("7"), row, Position{Row: 1}))

	var layout dtype.Layout
	for _, s := range p.Strategies() {
		layout = append(layout, s.Field)
	}
	got := rowcodec.Decode(row, layout)
	assert.Equal(t, int32(7), got[0])
	assert.True(t, math.IsNaN(got[1].(float64)))
	c := got[2].(complex64)
	assert.True(t, math.IsNaN(float64(real(c))))
	assert.True(t, math.IsNaN(float64(imag(c))))
	assert.Equal(t, []byte{}, got[3])
	assert.Equal(t, false, got[4])
}

func TestExtraTokensAreIgnored(t *testing.T) {
	p, err := NewPlan(layoutOf(t, "i2"), nil, Options{})
	require.NoError(t, err)
	assert.Equal(t, []any{int16(5)}, encode(t, p, "5", "junk"))
}

func TestFillBlank(t *testing.T) {
	p, err := NewPlan(layoutOf(t, "i2,f8,S3"), nil, Options{FillBlank: true})
	require.NoError(t, err)
	got := encode(t, p, "", "  ", " ")
	assert.Equal(t, int16(0), got[0])
	assert.True(t, math.IsNaN(got[1].(float64)))
	assert.Equal(t, []byte(" "), got[2])

	p, err = NewPlan(layoutOf(t, "i2"), nil, Options{})
	require.NoError(t, err)
	assert.Error(t, p.EncodeRow(tokens(""), make([]byte, 2), Position{Row: 1}))
}

func TestAllowFloatForInt(t *testing.T) {
	p, err := NewPlan(layoutOf(t, "i2,u1"), nil, Options{AllowFloatForInt: true})
	require.NoError(t, err)
	assert.Equal(t, []any{int16(-2), uint8(3)}, encode(t, p, "-2.9", "3.99"))

	row := make([]byte, p.RowSize())
	assert.Error(t, p.EncodeRow(tokens("40000.5", "1"), row, Position{Row: 1}))
	assert.Error(t, p.EncodeRow(tokens("1", "-1.5"), row, Position{Row: 1}))
	assert.Error(t, p.EncodeRow(tokens("nan", "1"), row, Position{Row: 1}))
	// Plain integer overflow is not retried as a float.
	assert.Error(t, p.EncodeRow(tokens("40000", "1"), row, Position{Row: 1}))
}

func TestFormat(t *testing.T) {
	p, err := NewPlan(layoutOf(t, "f8,c16"), nil, Options{Format: numconv.Format{Decimal: ',', Exponent: 'D'}})
	require.NoError(t, err)
	assert.Equal(t, []any{1500.25, complex(0.5, 1)}, encode(t, p, "1,50025d3", "0,5+1j"))
}

func TestStringWidth(t *testing.T) {
	p, err := NewPlan(layoutOf(t, "S3,U2"), nil, Options{})
	require.NoError(t, err)
	assert.Equal(t, []any{[]byte("abc"), "xy"}, encode(t, p, "abcdef", "xyz"))

	p, err = NewPlan(layoutOf(t, "S3,U2"), nil, Options{StrictStringWidth: true})
	require.NoError(t, err)
	row := make([]byte, p.RowSize())
	assert.Error(t, p.EncodeRow(tokens("abcd", "x"), row, Position{Row: 1}))
	assert.Error(t, p.EncodeRow(tokens("a", "xyz"), row, Position{Row: 1}))
	assert.NoError(t, p.EncodeRow(tokens("abc", "xy"), row, Position{Row: 1}))
}

func TestBoolLiteralsInNumericFields(t *testing.T) {
	p, err := NewPlan(layoutOf(t, "i1,u2,f8,c8,?"), nil, Options{})
	require.NoError(t, err)
	assert.Equal(t, []any{int8(1), uint16(0), 1.0, complex64(0), true}, encode(t, p, "true", "False", " TRUE ", "false", "true"))

	p, err = NewPlan(layoutOf(t, "S5"), nil, Options{})
	require.NoError(t, err)
	assert.Equal(t, []any{[]byte("true")}, encode(t, p, "true"))
}

func TestOverride(t *testing.T) {
	sentinel := func(raw string) (any, error) {
		if raw == "XXX" {
			return -999.0, nil
		}
		return raw, nil
	}
	p, err := NewPlan(layoutOf(t, "f8,f8"), map[int]Func{1: sentinel}, Options{})
	require.NoError(t, err)
	assert.Equal(t, Builtin, p.Strategies()[0].Kind)
	assert.Equal(t, Override, p.Strategies()[1].Kind)

	assert.Equal(t, []any{3.0, -999.0}, encode(t, p, "3.0", "XXX"))
	assert.Equal(t, []any{3.0, 6.0}, encode(t, p, "3.0", "6.0"))
}

func TestOverrideCoercion(t *testing.T) {
	tests := []struct {
		dtype string
		value any
		want  any
	}{
		{"i2", 12, int16(12)},
		{"i2", uint8(12), int16(12)},
		{"i2", 12.7, int16(12)},
		{"i2", true, int16(1)},
		{"u4", int64(7), uint32(7)},
		{"f4", 3, float32(3)},
		{"f8", complex(2, 0), 2.0},
		{"c8", 1.5, complex64(complex(1.5, 0))},
		{"?", 0, false},
		{"?", "true", true},
		{"S4", []byte("ab"), []byte("ab")},
		{"S4", 42, []byte("42")},
		{"U4", "héé", "héé"},
		{"i8", "123", int64(123)},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s %v", tt.dtype, tt.value), func(t *testing.T) {
			fn := func(string) (any, error) { return tt.value, nil }
			p, err := NewPlan(layoutOf(t, tt.dtype), map[int]Func{0: fn}, Options{})
			require.NoError(t, err)
			assert.Equal(t, []any{tt.want}, encode(t, p, "ignored"))
		})
	}
}

func TestOverrideFailures(t *testing.T) {
	tests := []struct {
		name string
		fn   Func
	}{
		{"error", func(string) (any, error) { return nil, fmt.Errorf("boom") }},
		{"nil", func(string) (any, error) { return nil, nil }},
		{"out of range", func(string) (any, error) { return 1000, nil }},
		{"wrong type", func(string) (any, error) { return struct{}{}, nil }},
		{"unparsable string", func(string) (any, error) { return "x", nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewPlan(layoutOf(t, "i1"), map[int]Func{0: tt.fn}, Options{})
			require.NoError(t, err)
			err = p.EncodeRow(tokens("raw"), make([]byte, 1), Position{Row: 4})
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrConverterFailed))
			assert.False(t, errors.Is(err, errors.ErrBadField))

			var fe *FieldError
			require.True(t, errors.As(err, &fe))
			assert.Equal(t, 4, fe.Row)
			assert.Equal(t, "raw", fe.Raw)
		})
	}
}

func TestOverrideNeverTruncates(t *testing.T) {
	values := []any{"-999.0", []byte("abcd"), 12345, 2.25}
	for _, strict := range []bool{false, true} {
		for _, v := range values {
			t.Run(fmt.Sprintf("%v strict=%v", v, strict), func(t *testing.T) {
				fn := func(string) (any, error) { return v, nil }
				p, err := NewPlan(layoutOf(t, "S3"), map[int]Func{0: fn}, Options{StrictStringWidth: strict})
				require.NoError(t, err)
				err = p.EncodeRow(tokens("XXX"), make([]byte, 3), Position{Row: 2})
				require.Error(t, err)
				assert.True(t, errors.Is(err, errors.ErrBadField))
				assert.True(t, errors.Is(err, errors.ErrConverterFailed))
				assert.True(t, errors.IsType(err, errors.ErrorTypeConversion))
			})
		}
	}

	fn := func(string) (any, error) { return "ab", nil }
	p, err := NewPlan(layoutOf(t, "U2"), map[int]Func{0: fn}, Options{})
	require.NoError(t, err)
	assert.Equal(t, []any{"ab"}, encode(t, p, "XXX"))
}

func TestNewPlanValidation(t *testing.T) {
	_, err := NewPlan(dtype.Layout{{Code: 'x', Width: 1}}, nil, Options{})
	assert.True(t, errors.Is(err, errors.ErrUnsupportedType))

	_, err = NewPlan(dtype.Layout{{Code: dtype.Int32, Width: 2}}, nil, Options{})
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfiguration))

	_, err = NewPlan(dtype.Layout{{Code: dtype.Unicode, Width: 6}}, nil, Options{})
	assert.Error(t, err)

	_, err = NewPlan(dtype.Layout{{Code: dtype.Int32, Width: 4}}, map[int]Func{1: func(string) (any, error) { return 0, nil }}, Options{})
	assert.True(t, errors.Is(err, errors.ErrColumnIndex))
}

func TestOffsets(t *testing.T) {
	p, err := NewPlan(layoutOf(t, "i1,f8,S5,i2"), nil, Options{})
	require.NoError(t, err)
	var offs []int
	for _, s := range p.Strategies() {
		offs = append(offs, s.Offset)
	}
	assert.Equal(t, []int{0, 1, 9, 14}, offs)
	assert.Equal(t, 16, p.RowSize())
}

func BenchmarkEncodeRow(b *testing.B) {
	layout, _ := dtype.Flatten(dtype.MustParse("i4,f8,f8,S8"))
	p, _ := NewPlan(layout, nil, Options{})
	toks := tokens("12345", "3.14159", "-2.5e-3", "label")
	row := make([]byte, p.RowSize())
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = p.EncodeRow(toks, row, Position{Row: i + 1})
	}
}

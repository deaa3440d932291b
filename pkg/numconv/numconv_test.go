package numconv

import (
	"math"
	"math/rand"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInt(t *testing.T) {
	tests := []struct {
		in       string
		min, max int64
		want     int64
		err      error
	}{
		{"0", math.MinInt8, math.MaxInt8, 0, nil},
		{"  -34 ", math.MinInt8, math.MaxInt8, -34, nil},
		{"+120", math.MinInt8, math.MaxInt8, 120, nil},
		{"-128", math.MinInt8, math.MaxInt8, -128, nil},
		{"128", math.MinInt8, math.MaxInt8, 0, ErrOverflow},
		{"-129", math.MinInt8, math.MaxInt8, 0, ErrOverflow},
		{"9223372036854775807", math.MinInt64, math.MaxInt64, math.MaxInt64, nil},
		{"-9223372036854775808", math.MinInt64, math.MaxInt64, math.MinInt64, nil},
		{"9223372036854775808", math.MinInt64, math.MaxInt64, 0, ErrOverflow},
		{"-9223372036854775809", math.MinInt64, math.MaxInt64, 0, ErrOverflow},
		{"", math.MinInt64, math.MaxInt64, 0, ErrNoDigits},
		{"   ", math.MinInt64, math.MaxInt64, 0, ErrNoDigits},
		{"-", math.MinInt64, math.MaxInt64, 0, ErrNoDigits},
		{"1,000", math.MinInt64, math.MaxInt64, 0, ErrInvalidChars},
		{"1_000", math.MinInt64, math.MaxInt64, 0, ErrInvalidChars},
		{"12 3", math.MinInt64, math.MaxInt64, 0, ErrInvalidChars},
		{"1.5", math.MinInt64, math.MaxInt64, 0, ErrInvalidChars},
		{"007", math.MinInt64, math.MaxInt64, 7, nil},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseInt(tt.in, tt.min, tt.max)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseUint(t *testing.T) {
	v, err := ParseUint("18446744073709551615", math.MaxUint64)
	require.NoError(t, err)
	assert.Equal(t, uint64(math.MaxUint64), v)

	_, err = ParseUint("18446744073709551616", math.MaxUint64)
	assert.ErrorIs(t, err, ErrOverflow)

	_, err = ParseUint("256", math.MaxUint8)
	assert.ErrorIs(t, err, ErrOverflow)

	v, err = ParseUint(" +255 ", math.MaxUint8)
	require.NoError(t, err)
	assert.Equal(t, uint64(255), v)

	_, err = ParseUint("-1", math.MaxUint64)
	assert.ErrorIs(t, err, ErrMinusSign)

	_, err = ParseUint("7", 5)
	assert.ErrorIs(t, err, ErrOverflow)
}

func TestParseFloatSyntax(t *testing.T) {
	comma := Format{Decimal: ',', Exponent: 'E'}
	fortran := Format{Decimal: '.', Exponent: 'D'}

	tests := []struct {
		name string
		in   string
		f    Format
		want float64
	}{
		{"plain", "1.5", DefaultFormat, 1.5},
		{"spaces", "  2.5  ", DefaultFormat, 2.5},
		{"sign", "-3.25", DefaultFormat, -3.25},
		{"plus", "+4", DefaultFormat, 4},
		{"leading dot", ".5", DefaultFormat, 0.5},
		{"trailing dot", "5.", DefaultFormat, 5},
		{"lower exponent", "1e3", DefaultFormat, 1000},
		{"upper exponent", "1E-3", DefaultFormat, 0.001},
		{"leading zeros", "000123.4500", DefaultFormat, 123.45},
		{"comma decimal", "3,25", comma, 3.25},
		{"fortran exponent", "1.5D3", fortran, 1500},
		{"fortran lower", "1.5d-1", fortran, 0.15},
		{"inf", "inf", DefaultFormat, math.Inf(1)},
		{"neg infinity", "-Infinity", DefaultFormat, math.Inf(-1)},
		{"overflow", "1e400", DefaultFormat, math.Inf(1)},
		{"underflow", "1e-400", DefaultFormat, 0},
		{"many digits", "3.14159265358979323846264338327950288", DefaultFormat, math.Pi},
		{"zero exp", "0e999999999", DefaultFormat, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFloat64(tt.in, tt.f)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseFloatRejects(t *testing.T) {
	for _, in := range []string{"", " ", ".", "-", "e5", "1e", "1.2.3", "1,5", "abc", "1.5x", "0x10", "1 2"} {
		t.Run(in, func(t *testing.T) {
			_, err := ParseFloat64(in, DefaultFormat)
			assert.Error(t, err)
		})
	}
}

func TestParseFloatNaNAndNegativeZero(t *testing.T) {
	v, err := ParseFloat64("NaN", DefaultFormat)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(v))

	v, err = ParseFloat64("-0.0", DefaultFormat)
	require.NoError(t, err)
	assert.True(t, math.Signbit(v))
}

// roundTrip checks that formatting with strconv and parsing back is bit exact.
func roundTrip(t *testing.T, v float64, fmtByte byte) {
	t.Helper()
	s := strconv.FormatFloat(v, fmtByte, -1, 64)
	got, err := ParseFloat64(s, DefaultFormat)
	require.NoError(t, err, s)
	require.Equal(t, math.Float64bits(v), math.Float64bits(got), "input %s", s)
}

func TestParseFloatRoundTripRandom(t *testing.T) {
	rng := rand.New(rand.NewSource(20240601))
	for i := 0; i < 20000; i++ {
		v := math.Float64frombits(rng.Uint64())
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		roundTrip(t, v, 'g')
		roundTrip(t, v, 'e')
	}
}

func TestParseFloatRoundTripUniform(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 20000; i++ {
		v := rng.Float64() * math.Pow(10, float64(rng.Intn(40)-20))
		roundTrip(t, v, 'g')
		roundTrip(t, v, 'f')
	}
}

func TestParseFloatBoundaries(t *testing.T) {
	values := []float64{
		math.MaxFloat64,
		-math.MaxFloat64,
		math.SmallestNonzeroFloat64,
		2 * math.SmallestNonzeroFloat64,
		2.2250738585072014e-308, // smallest normal
		2.2250738585072009e-308, // largest subnormal
		4.9406564584124654e-324,
		1.7976931348623157e308,
		9007199254740993,
		9007199254740992,
		1e23,
		8.98846567431158e307,
		0.1,
		0.3,
		123456789012345678,
	}
	for _, v := range values {
		roundTrip(t, v, 'g')
		roundTrip(t, v, 'e')
	}
	for e := -323; e <= 308; e++ {
		v, err := strconv.ParseFloat("1e"+strconv.Itoa(e), 64)
		require.NoError(t, err)
		roundTrip(t, v, 'e')
	}
}

func TestParseFloatHalfwayCases(t *testing.T) {
	// 2**53 + 1 is exactly halfway between two doubles and must round to even.
	got, err := ParseFloat64("9007199254740993", DefaultFormat)
	require.NoError(t, err)
	assert.Equal(t, float64(9007199254740992), got)

	// Just above halfway needs every digit.
	got, err = ParseFloat64("9007199254740993.0000000000000000001", DefaultFormat)
	require.NoError(t, err)
	assert.Equal(t, float64(9007199254740994), got)
}

func TestParseFloatCustomFormatRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(99))
	f := Format{Decimal: ',', Exponent: 'D'}
	for i := 0; i < 5000; i++ {
		v := math.Float64frombits(rng.Uint64())
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		s := strconv.FormatFloat(v, 'e', -1, 64)
		s = strings.NewReplacer(".", ",", "e", "D").Replace(s)
		got, err := ParseFloat64(s, f)
		require.NoError(t, err, s)
		require.Equal(t, math.Float64bits(v), math.Float64bits(got), s)
	}
}

func TestParseFloat32(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 10000; i++ {
		v := math.Float32frombits(rng.Uint32())
		if v != v || math.IsInf(float64(v), 0) {
			continue
		}
		s := strconv.FormatFloat(float64(v), 'g', -1, 32)
		got, err := ParseFloat32(s, DefaultFormat)
		require.NoError(t, err, s)
		require.Equal(t, math.Float32bits(v), math.Float32bits(got), s)
	}
}

func TestParseComplex(t *testing.T) {
	tests := []struct {
		in   string
		want complex128
	}{
		{"3.5", complex(3.5, 0)},
		{"1.5j", complex(0, 1.5)},
		{"2i", complex(0, 2)},
		{"1+2j", complex(1, 2)},
		{"1-2j", complex(1, -2)},
		{"-1.5e1+2.5e-1j", complex(-15, 0.25)},
		{"1+2j   ", complex(1, 2)},
		{"  4  ", complex(4, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseComplex(tt.in, DefaultFormat, 128)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, bad := range []string{"", "j", "1+2", "1+ 2j", "1+2jx", "1 +2j", "x"} {
		_, err := ParseComplex(bad, DefaultFormat, 128)
		assert.Error(t, err, bad)
	}
}

func TestLooksComplex(t *testing.T) {
	assert.True(t, LooksComplex("1+2j", DefaultFormat))
	assert.True(t, LooksComplex("3j", DefaultFormat))
	assert.False(t, LooksComplex("3", DefaultFormat))
	assert.False(t, LooksComplex("abc", DefaultFormat))
}

func TestParseBool(t *testing.T) {
	for in, want := range map[string]bool{"true": true, " FALSE ": false, "True": true, "1": true, "0": false, "-3": true} {
		got, err := ParseBool(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseBool("yes")
	assert.Error(t, err)

	assert.True(t, IsBoolLiteral(" true"))
	assert.False(t, IsBoolLiteral("1"))
	assert.False(t, IsBoolLiteral("truest"))

	v, ok := BoolLiteral(" TRUE ")
	assert.True(t, ok)
	assert.True(t, v)
	v, ok = BoolLiteral("false")
	assert.True(t, ok)
	assert.False(t, v)
}

func TestPow10(t *testing.T) {
	assert.Equal(t, 1.0, Pow10(0))
	assert.Equal(t, 1e22, Pow10(22))
	assert.Equal(t, 1e308, Pow10(308))
	assert.True(t, math.IsInf(Pow10(309), 1))
	assert.Equal(t, 0.001, Pow10(-3))
	assert.Equal(t, 0.0, Pow10(-400))
}

func BenchmarkParseFloat64(b *testing.B) {
	inputs := []string{"1.5", "-273.15", "6.02214076e23", "0.000123", "3.14159265358979"}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_, _ = ParseFloat64(inputs[i%len(inputs)], DefaultFormat)
	}
}

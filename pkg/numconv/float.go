package numconv

import (
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

const maxMantDigits = 19

// syntax is a Format resolved once per parse
type syntax struct {
	dec     string
	exp     string
	expFold byte // lower-case marker when the marker is an ASCII letter
}

func (f Format) syntax() syntax {
	sx := syntax{
		dec: string(f.decimal()),
		exp: string(f.exponent()),
	}
	if m := f.exponent(); m < utf8.RuneSelf {
		if c := lower(byte(m)); c >= 'a' && c <= 'z' {
			sx.expFold = c
		}
	}
	return sx
}

func (sx syntax) matchExp(s string, i int) (int, bool) {
	if i >= len(s) {
		return i, false
	}
	if sx.expFold != 0 {
		if lower(s[i]) == sx.expFold {
			return i + 1, true
		}
		return i, false
	}
	if strings.HasPrefix(s[i:], sx.exp) {
		return i + len(sx.exp), true
	}
	return i, false
}

type special uint8

const (
	finite special = iota
	infinite
	notANumber
)

// decimalText is a scanned number: value = digits * 10**exp
type decimalText struct {
	neg    bool
	kind   special
	mant   uint64 // first maxMantDigits significant digits
	nd     int    // significant digits seen
	trunc  bool   // nd > maxMantDigits
	exp    int
	digits []byte // every significant digit, for the exact path
}

func (d *decimalText) addDigit(c byte) {
	if c == '0' && d.nd == 0 {
		return
	}
	if d.nd < maxMantDigits {
		d.mant = d.mant*10 + uint64(c-'0')
	} else {
		d.trunc = true
	}
	d.digits = append(d.digits, c)
	d.nd++
}

// scan reads one number starting at s[i] and returns the index after it.
// Leading whitespace is skipped, trailing text is left for the caller.
func (sx syntax) scan(s string, i int, d *decimalText) (int, error) {
	i = skipSpaces(s, i)
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		d.neg = s[i] == '-'
		i++
	}

	switch {
	case hasFoldPrefix(s, i, "infinity"):
		d.kind = infinite
		return i + 8, nil
	case hasFoldPrefix(s, i, "inf"):
		d.kind = infinite
		return i + 3, nil
	case hasFoldPrefix(s, i, "nan"):
		d.kind = notANumber
		return i + 3, nil
	}

	sawDigits := false
	for i < len(s) && isDigit(s[i]) {
		sawDigits = true
		d.addDigit(s[i])
		i++
	}

	fracDigits := 0
	if strings.HasPrefix(s[i:], sx.dec) {
		k := i + len(sx.dec)
		for k < len(s) && isDigit(s[k]) {
			d.addDigit(s[k])
			fracDigits++
			k++
		}
		if sawDigits || fracDigits > 0 {
			sawDigits = true
			i = k
		}
	}
	if !sawDigits {
		return i, ErrNoDigits
	}

	if j, ok := sx.matchExp(s, i); ok {
		eneg := false
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			eneg = s[j] == '-'
			j++
		}
		if j < len(s) && isDigit(s[j]) {
			e := 0
			for j < len(s) && isDigit(s[j]) {
				if e < 100000 {
					e = e*10 + int(s[j]-'0')
				}
				j++
			}
			if eneg {
				e = -e
			}
			d.exp += e
			i = j
		}
	}
	d.exp -= fracDigits
	return i, nil
}

// float returns the nearest float of bitSize bits to d
func (d *decimalText) float(bitSize int) float64 {
	v := d.magnitude(bitSize)
	if d.neg {
		v = -v
	}
	return v
}

func (d *decimalText) magnitude(bitSize int) float64 {
	switch d.kind {
	case infinite:
		return inf
	case notANumber:
		return math.NaN()
	}
	if d.nd == 0 {
		return 0
	}

	// d lies in [10**(nd-1+exp), 10**(nd+exp)).
	if d.nd-1+d.exp >= len(pow10tab) {
		return inf
	}
	if d.nd+d.exp < -(len(pow10tab) + 15) {
		return 0
	}

	if !d.trunc {
		if bitSize == 32 {
			if v, ok := d.exact32(); ok {
				return v
			}
		} else if v, ok := d.exact64(); ok {
			return v
		}
	}
	return d.slow(bitSize)
}

// exact64 handles the cases where mantissa and power of ten are both exact,
// so a single IEEE operation yields the correctly rounded result.
func (d *decimalText) exact64() (float64, bool) {
	if d.mant > 1<<53 {
		return 0, false
	}
	f := float64(d.mant)
	e := d.exp
	switch {
	case e == 0:
		return f, true
	case e < 0 && -e <= maxExactPow10:
		return f / pow10tab[-e], true
	case e > 0 && e <= maxExactPow10+15:
		if e > maxExactPow10 {
			// Move the excess into the mantissa while it stays an exact integer.
			f *= pow10tab[e-maxExactPow10]
			if f >= 1<<53 {
				return 0, false
			}
			e = maxExactPow10
		}
		return f * pow10tab[e], true
	}
	return 0, false
}

func (d *decimalText) exact32() (float64, bool) {
	if d.mant > 1<<24 {
		return 0, false
	}
	f := float32(d.mant)
	e := d.exp
	switch {
	case e == 0:
		return float64(f), true
	case e < 0 && -e <= maxExactPow10f32:
		return float64(f / float32(pow10tab[-e])), true
	case e > 0 && e <= maxExactPow10f32:
		return float64(f * float32(pow10tab[e])), true
	}
	return 0, false
}

// slow rounds the full digit string exactly. The digits are plain ASCII with
// a '.'-free mantissa and an 'e' exponent, so no locale or custom syntax leaks in.
func (d *decimalText) slow(bitSize int) float64 {
	buf := make([]byte, 0, len(d.digits)+8)
	buf = append(buf, d.digits...)
	buf = append(buf, 'e')
	buf = strconv.AppendInt(buf, int64(d.exp), 10)
	// The only possible error is ErrRange, and v is then already ±Inf.
	v, _ := strconv.ParseFloat(string(buf), bitSize)
	return v
}

// ParseFloat parses s into a float of bitSize 32 or 64 using the characters in f.
// The whole of s, apart from surrounding whitespace, must be consumed.
func ParseFloat(s string, f Format, bitSize int) (float64, error) {
	var buf [40]byte
	d := decimalText{digits: buf[:0]}
	end, err := f.syntax().scan(s, 0, &d)
	if err != nil {
		return 0, err
	}
	if skipSpaces(s, end) != len(s) {
		return 0, ErrInvalidChars
	}
	return d.float(bitSize), nil
}

// ParseFloat64 parses s as a float64
func ParseFloat64(s string, f Format) (float64, error) {
	return ParseFloat(s, f, 64)
}

// ParseFloat32 parses s as a float32
func ParseFloat32(s string, f Format) (float32, error) {
	v, err := ParseFloat(s, f, 32)
	return float32(v), err
}

// Package numconv converts text to numbers without consulting the process locale.
//
// The decimal point and the exponent marker are parameters, so "3,25" with
// Decimal ',' and "1.5D3" with Exponent 'D' parse the same way everywhere.
// Leading and trailing whitespace is tolerated by every parser in this package.
package numconv

import (
	"errors"
	"math"
)

var (
	// ErrNoDigits is returned when the text holds no digits at all
	ErrNoDigits = errors.New("no digits")
	// ErrOverflow is returned when an integer does not fit the requested range
	ErrOverflow = errors.New("value out of range")
	// ErrInvalidChars is returned when characters remain after the number
	ErrInvalidChars = errors.New("invalid characters")
	// ErrMinusSign is returned when an unsigned parse sees a minus sign
	ErrMinusSign = errors.New("minus sign in unsigned value")
)

var inf = math.Inf(1)

// Format holds the locale-like characters used by float and complex parsing.
// The zero value means Decimal '.' and Exponent 'E'.
type Format struct {
	Decimal  rune
	Exponent rune
}

// DefaultFormat is '.' for decimals and 'E' (either case) for exponents
var DefaultFormat = Format{Decimal: '.', Exponent: 'E'}

func (f Format) decimal() rune {
	if f.Decimal == 0 {
		return '.'
	}
	return f.Decimal
}

func (f Format) exponent() rune {
	if f.Exponent == 0 {
		return 'E'
	}
	return f.Exponent
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func skipSpaces(s string, i int) int {
	for i < len(s) && isSpace(s[i]) {
		i++
	}
	return i
}

// IsBlank reports whether s is empty or only whitespace
func IsBlank(s string) bool {
	return skipSpaces(s, 0) == len(s)
}

func lower(c byte) byte {
	if c >= 'A' && c <= 'Z' {
		return c + ('a' - 'A')
	}
	return c
}

// hasFoldPrefix reports whether s[i:] starts with the lower-case ASCII word w, ignoring case
func hasFoldPrefix(s string, i int, w string) bool {
	if len(s)-i < len(w) {
		return false
	}
	for k := 0; k < len(w); k++ {
		if lower(s[i+k]) != w[k] {
			return false
		}
	}
	return true
}

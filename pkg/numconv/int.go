package numconv

import "math"

// ParseInt parses a base-10 integer and checks it against [min, max].
// An optional sign may precede the digits; whitespace may surround them.
func ParseInt(s string, min, max int64) (int64, error) {
	i := skipSpaces(s, 0)
	neg := false
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		neg = s[i] == '-'
		i++
	}
	if i >= len(s) || !isDigit(s[i]) {
		return 0, ErrNoDigits
	}

	var n int64
	if neg {
		// Accumulate negatively so that math.MinInt64 is reachable.
		limit := min
		if limit > 0 {
			limit = 0
		}
		for ; i < len(s) && isDigit(s[i]); i++ {
			d := int64(s[i] - '0')
			if n < (limit+d)/10 {
				return 0, ErrOverflow
			}
			n = n*10 - d
		}
	} else {
		if max < 0 {
			return 0, ErrOverflow
		}
		for ; i < len(s) && isDigit(s[i]); i++ {
			d := int64(s[i] - '0')
			if n > (max-d)/10 {
				return 0, ErrOverflow
			}
			n = n*10 + d
		}
	}

	if skipSpaces(s, i) != len(s) {
		return 0, ErrInvalidChars
	}
	if n < min || n > max {
		return 0, ErrOverflow
	}
	return n, nil
}

// ParseUint parses a base-10 unsigned integer no larger than max.
// A leading '+' is accepted, a leading '-' is ErrMinusSign.
func ParseUint(s string, max uint64) (uint64, error) {
	i := skipSpaces(s, 0)
	if i < len(s) {
		switch s[i] {
		case '-':
			return 0, ErrMinusSign
		case '+':
			i++
		}
	}
	if i >= len(s) || !isDigit(s[i]) {
		return 0, ErrNoDigits
	}

	var n uint64
	for ; i < len(s) && isDigit(s[i]); i++ {
		d := uint64(s[i] - '0')
		if max < d || n > (max-d)/10 {
			return 0, ErrOverflow
		}
		n = n*10 + d
	}

	if skipSpaces(s, i) != len(s) {
		return 0, ErrInvalidChars
	}
	return n, nil
}

// Int64 parses s as an int64
func Int64(s string) (int64, error) {
	return ParseInt(s, math.MinInt64, math.MaxInt64)
}

// Uint64 parses s as a uint64
func Uint64(s string) (uint64, error) {
	return ParseUint(s, math.MaxUint64)
}

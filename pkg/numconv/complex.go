package numconv

func isImagMarker(c byte) bool {
	return c == 'j' || c == 'J' || c == 'i' || c == 'I'
}

// ParseComplex parses "re", "imj" or "re+imj" (also with 'i' or a minus sign)
// into a complex of bitSize 64 or 128. Whitespace is allowed around the value.
func ParseComplex(s string, f Format, bitSize int) (complex128, error) {
	part := 64
	if bitSize == 64 {
		part = 32
	}
	sx := f.syntax()

	var buf [40]byte
	re := decimalText{digits: buf[:0]}
	end, err := sx.scan(s, 0, &re)
	if err != nil {
		return 0, err
	}

	var rv, iv float64
	switch {
	case skipSpaces(s, end) == len(s):
		return complex(re.float(part), 0), nil
	case isImagMarker(s[end]):
		iv = re.float(part)
		end++
	case s[end] == '+' || s[end] == '-':
		var ibuf [40]byte
		im := decimalText{digits: ibuf[:0]}
		end, err = sx.scan(s, end, &im)
		if err != nil {
			return 0, err
		}
		if end >= len(s) || !isImagMarker(s[end]) {
			return 0, ErrInvalidChars
		}
		rv = re.float(part)
		iv = im.float(part)
		end++
	default:
		return 0, ErrInvalidChars
	}

	if skipSpaces(s, end) != len(s) {
		return 0, ErrInvalidChars
	}
	return complex(rv, iv), nil
}

// LooksComplex reports whether s carries an imaginary part, i.e. parses as a
// complex but not as a plain real number.
func LooksComplex(s string, f Format) bool {
	if _, err := ParseComplex(s, f, 128); err != nil {
		return false
	}
	_, err := ParseFloat(s, f, 64)
	return err != nil
}

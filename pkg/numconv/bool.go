package numconv

// IsBoolLiteral reports whether s, ignoring surrounding whitespace, is
// "true" or "false" in any letter case.
func IsBoolLiteral(s string) bool {
	_, ok := BoolLiteral(s)
	return ok
}

// BoolLiteral returns the value of a true/false literal and whether s is one
func BoolLiteral(s string) (bool, bool) {
	i := skipSpaces(s, 0)
	j := len(s)
	for j > i && isSpace(s[j-1]) {
		j--
	}
	switch {
	case j-i == 4 && hasFoldPrefix(s[:j], i, "true"):
		return true, true
	case j-i == 5 && hasFoldPrefix(s[:j], i, "false"):
		return false, true
	}
	return false, false
}

// ParseBool accepts the literals true/false (any case) or an integer, where
// any non-zero value is true.
func ParseBool(s string) (bool, error) {
	if v, ok := BoolLiteral(s); ok {
		return v, nil
	}
	n, err := Int64(s)
	if err != nil {
		return false, err
	}
	return n != 0, nil
}

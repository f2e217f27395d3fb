package internal

// ToLower lowercases a single ASCII byte; other bytes pass through.
func ToLower(c byte) byte {
	if c >= 'A' && c <= 'Z' {
		return c | 0x20
	}
	return c
}

// ToUpper uppercases a single ASCII byte; other bytes pass through.
func ToUpper(c byte) byte {
	if c >= 'a' && c <= 'z' {
		return c &^ 0x20
	}
	return c
}

// EqualFold reports whether b matches the lowercase literal lit ignoring
// ASCII case. len-bounded, never reads past either argument.
func EqualFold(b []byte, lit string) bool {
	if len(b) != len(lit) {
		return false
	}
	for i := 0; i < len(lit); i++ {
		if ToLower(b[i]) != lit[i] {
			return false
		}
	}
	return true
}

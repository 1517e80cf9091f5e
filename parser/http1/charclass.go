package http1

// TOKEN and CTL classification per spec §4.1.2: TOKEN is any visible ASCII
// octet minus HTTP's separator set; CTL is 0-31 and 127, forbidden in header
// values except HTAB.

var tokenTable [256]bool

func init() {
	const separators = "()<>@,;:\\\"/[]?={} \t"

	for c := 0x21; c <= 0x7e; c++ {
		tokenTable[c] = true
	}

	for i := 0; i < len(separators); i++ {
		tokenTable[separators[i]] = false
	}
}

func isToken(c byte) bool {
	return tokenTable[c]
}

func isCTL(c byte) bool {
	return c < 0x20 || c == 0x7f
}

// lower folds ASCII 'A'-'Z' to 'a'-'z' and leaves every other octet
// untouched, per spec §4.1.2's case folding rule.
func lower(c byte) byte {
	if c >= 'A' && c <= 'Z' {
		return c + ('a' - 'A')
	}

	return c
}

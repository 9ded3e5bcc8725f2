package sxml

// Character classification per XML 1.0 (Fifth Edition). The parser only
// ever sees scalar values that already passed UTF-8 decoding, so these
// checks operate on runes directly.

func isBlankCh(c rune) bool {
	return c == 0x20 || (0x9 <= c && c <= 0xa) || c == 0xd
}

/*
 * [2] Char ::= #x9 | #xA | #xD | [#x20-#xD7FF] |
 *              [#xE000-#xFFFD] | [#x10000-#x10FFFF]
 */
func isChar(r rune) bool {
	c := uint32(r)
	if c < 0x100 {
		return (0x9 <= c && c <= 0xa) || c == 0xd || 0x20 <= c
	}
	return c <= 0xd7ff || (0xe000 <= c && c <= 0xfffd) || (0x10000 <= c && c <= 0x10ffff)
}

/*
 * [4] NameStartChar ::= ":" | [A-Z] | "_" | [a-z] | [#xC0-#xD6] |
 *                       [#xD8-#xF6] | [#xF8-#x2FF] | [#x370-#x37D] |
 *                       [#x37F-#x1FFF] | [#x200C-#x200D] | [#x2070-#x218F] |
 *                       [#x2C00-#x2FEF] | [#x3001-#xD7FF] | [#xF900-#xFDCF] |
 *                       [#xFDF0-#xFFFD] | [#x10000-#xEFFFF]
 *
 * The colon is a NameStartChar as far as the grammar is concerned; prefix
 * handling happens in splitName.
 */
func isNameStartChar(r rune) bool {
	switch {
	case r == ':' || r == '_':
		return true
	case 'A' <= r && r <= 'Z':
		return true
	case 'a' <= r && r <= 'z':
		return true
	}
	c := uint32(r)
	switch {
	case 0xc0 <= c && c <= 0xd6:
		return true
	case 0xd8 <= c && c <= 0xf6:
		return true
	case 0xf8 <= c && c <= 0x2ff:
		return true
	case 0x370 <= c && c <= 0x37d:
		return true
	case 0x37f <= c && c <= 0x1fff:
		return true
	case 0x200c <= c && c <= 0x200d:
		return true
	case 0x2070 <= c && c <= 0x218f:
		return true
	case 0x2c00 <= c && c <= 0x2fef:
		return true
	case 0x3001 <= c && c <= 0xd7ff:
		return true
	case 0xf900 <= c && c <= 0xfdcf:
		return true
	case 0xfdf0 <= c && c <= 0xfffd:
		return true
	case 0x10000 <= c && c <= 0xeffff:
		return true
	}
	return false
}

/*
 * [4a] NameChar ::= NameStartChar | "-" | "." | [0-9] | #xB7 |
 *                   [#x300-#x36F] | [#x203F-#x2040]
 */
func isNameChar(r rune) bool {
	if isNameStartChar(r) {
		return true
	}
	switch {
	case r == '-' || r == '.':
		return true
	case '0' <= r && r <= '9':
		return true
	case r == 0xb7:
		return true
	}
	c := uint32(r)
	return (0x300 <= c && c <= 0x36f) || (0x203f <= c && c <= 0x2040)
}

func isDecimalDigit(r rune) bool {
	return '0' <= r && r <= '9'
}

func isHexDigit(r rune) bool {
	return isDecimalDigit(r) || ('a' <= r && r <= 'f') || ('A' <= r && r <= 'F')
}

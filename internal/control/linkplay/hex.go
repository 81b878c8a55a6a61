package linkplay

import (
	"encoding/hex"
	"unicode/utf8"
)

// DecodeHexText decodes Linkplay's hex-encoded metadata fields.
//
// The firmware hex-encodes artist/title strings ("50696e6b20466c6f7964" is
// "Pink Floyd") but some sources deliver plain text in the same fields. A
// candidate only decodes when it has even length, is entirely hex digits and
// the decoded bytes are valid UTF-8; everything else passes through
// unchanged. Fallback, not an error.
func DecodeHexText(s string) string {
	if s == "" || len(s)%2 != 0 {
		return s
	}
	for i := 0; i < len(s); i++ {
		if !isHexDigit(s[i]) {
			return s
		}
	}

	decoded, err := hex.DecodeString(s)
	if err != nil {
		return s
	}
	if !utf8.Valid(decoded) {
		return s
	}
	return string(decoded)
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

package tlv

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// German banking cards store names and bank data as ISO-8859-1.

// Latin1 decodes ISO-8859-1 bytes into a string, replacing control
// characters with '.' the same way MakeSafeASCII does.
func Latin1(data []byte) string {
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return MakeSafeASCII(data)
	}
	return strings.Map(func(r rune) rune {
		if r < 32 || (r >= 0x7F && r < 0xA0) {
			return '.'
		}
		return r
	}, string(decoded))
}

// EncodeLatin1 encodes s as ISO-8859-1. Runes outside the charset are an error.
func EncodeLatin1(s string) ([]byte, error) {
	return charmap.ISO8859_1.NewEncoder().Bytes([]byte(s))
}

// BCD renders packed BCD digits. Filler nibbles (0xF) are dropped.
func BCD(data []byte) string {
	var sb strings.Builder
	for _, b := range data {
		for _, n := range []byte{b >> 4, b & 0x0F} {
			switch {
			case n <= 9:
				sb.WriteByte('0' + n)
			case n == 0x0F:
			default:
				sb.WriteByte('?')
			}
		}
	}
	return sb.String()
}

// Date decodes a 3-byte BCD YYMMDD date, as used for card expiry dates,
// into "20YY-MM-DD".
func Date(data []byte) (string, bool) {
	if len(data) != 3 {
		return "", false
	}
	digits := BCD(data)
	if len(digits) != 6 || strings.ContainsRune(digits, '?') {
		return "", false
	}
	month, day := digits[2:4], digits[4:6]
	if month < "01" || month > "12" || day < "01" || day > "31" {
		return "", false
	}
	return fmt.Sprintf("20%s-%s-%s", digits[:2], month, day), true
}

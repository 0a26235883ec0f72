package tlv

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// ParseHex decodes hex written the way card dumps usually are: any
// whitespace between digits, an optional ':' between bytes, e.g.
// "5A 0A 67:28" or a multi-line block from a YAML card image.
func ParseHex(s string) ([]byte, error) {
	clean := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r', ':':
			return -1
		}
		return r
	}, s)

	data, err := hex.DecodeString(clean)
	if err != nil {
		return nil, fmt.Errorf("invalid hex %q: %w", clean, err)
	}
	return data, nil
}

// Hex is ParseHex over the concatenated parts, panicking on bad input. It is
// meant for constants and tests.
func Hex(parts ...string) []byte {
	data, err := ParseHex(strings.Join(parts, ""))
	if err != nil {
		panic(err.Error())
	}
	return data
}

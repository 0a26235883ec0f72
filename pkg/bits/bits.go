// Package bits holds the small bit-level helpers used to pack and unpack
// APDU header fields. Bit positions follow the ISO 7816 convention:
// bit 1 is the least significant bit, bit 8 the most significant.
package bits

// Bit returns a byte with only the n-th bit set (1 to 8).
func Bit(n uint) byte {
	if n < 1 || n > 8 {
		return 0
	}
	return 1 << (n - 1)
}

// IsSet reports whether the n-th bit of b is set (1 to 8).
func IsSet(b byte, n uint) bool {
	return b&Bit(n) != 0
}

// GetRange extracts the value held in bits high..low of b.
// Example: GetRange(0b00001100, 4, 3) returns 3 (0b11).
func GetRange(b byte, high, low uint) byte {
	if high < low || high > 8 || low < 1 {
		return 0
	}

	width := high - low + 1
	mask := byte((1 << width) - 1)

	return (b >> (low - 1)) & mask
}

// Set returns b with the n-th bit set.
func Set(b byte, n uint) byte {
	return b | Bit(n)
}

// Split16 splits v into its big-endian high and low bytes, the layout used
// for P1/P2 offsets and file identifiers.
func Split16(v uint16) (hi, lo byte) {
	return byte(v >> 8), byte(v)
}

// Join16 is the inverse of Split16.
func Join16(hi, lo byte) uint16 {
	return uint16(hi)<<8 | uint16(lo)
}

package iso7816

import (
	"github.com/gregLibert/chipcard/pkg/bits"
)

// READ BINARY COMMAND LOGIC (ISO 7816-4):
// The READ BINARY command (INS 'B0') reads bytes from the currently selected
// transparent Elementary File.
//
// Encoding used here (offset addressing, Case 2 Short):
//
//	CLA B0 P1 P2 Le
//
// - P1-P2: 16-bit offset of the first byte to read, big-endian.
// - Le:    number of bytes wanted. '00' asks for all available bytes (up to 256).
//
// When bit 8 of P1 is set, ISO 7816-4 interprets P1 bits 5-1 as a Short File
// Identifier and P2 as an 8-bit offset. The builder does not mask the offset;
// offsets of 0x8000 and above therefore select SFI addressing on ISO cards.

// ReadBinary creates the 5-byte READ BINARY command for the given offset.
// le == 0 requests the card's default (Le byte '00', Ne = 256).
func ReadBinary(cla Class, offset uint16, le uint8) *CommandAPDU {
	p1, p2 := bits.Split16(offset)
	ins := instruction(INS_READ_BINARY)

	return NewCommandAPDU(cla, ins, p1, p2, nil, expectedLength(le))
}

// GetChallenge creates a GET CHALLENGE command asking for n random bytes.
// n == 0 lets the card choose the length.
func GetChallenge(cla Class, n uint8) *CommandAPDU {
	ins := instruction(INS_GET_CHALLENGE)
	return NewCommandAPDU(cla, ins, 0x00, 0x00, nil, expectedLength(n))
}

// expectedLength maps a 1-byte Le onto Ne so that the encoder always emits
// the Le byte: 0 becomes MaxShortLe, which short encoding writes as '00'.
func expectedLength(le uint8) int {
	if le == 0 {
		return MaxShortLe
	}
	return int(le)
}

// Offset returns the offset carried in P1-P2 of a READ BINARY command.
func (c *CommandAPDU) Offset() uint16 {
	return bits.Join16(c.P1, c.P2)
}

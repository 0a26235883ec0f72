package iso7816

import (
	"bytes"
	"fmt"

	"github.com/gregLibert/chipcard/pkg/bits"
)

// APDU (Application Protocol Data Unit) structures and encodings according to ISO/IEC 7816-3 and 7816-4.
//
// COMMAND APDU (C-APDU):
// A command consists of a mandatory Header (4 bytes) and an optional Body.
//
// 1. Header:
//   - CLA (Class): Security, Chaining, Logical Channel.
//   - INS (Instruction): The specific command to execute.
//   - P1, P2 (Parameters): Command modifiers.
//
// 2. Body:
//   - Lc (Length Command): Number of bytes in the data field.
//   - Data: The command payload.
//   - Le (Length Expected): Maximum number of bytes expected in the response.
//
// ENCODING CASES (ISO 7816-3):
// - Case 1: No Data, No Response (Header only).
// - Case 2: No Data, Response Expected (Header + Le).
// - Case 3: Data Present, No Response (Header + Lc + Data).
// - Case 4: Data Present, Response Expected (Header + Lc + Data + Le).
//
// LENGTH MODES:
//   - Short Length: Lc/Le encoded on 1 byte (Max 255/256).
//   - Extended Length: Lc/Le encoded on multiple bytes (Max 65535/65536).
//     Extended mode is triggered if Lc > 255 or Le > 256.
//
// RESPONSE APDU (R-APDU):
// An optional Body followed by the mandatory 2-byte Trailer (SW1, SW2).

// APDU Limits and Constants according to ISO 7816-3.
const (
	// HeaderSize is the length of the mandatory CLA INS P1 P2 header.
	HeaderSize = 4

	// TrailerSize is the length of the SW1 SW2 trailer closing every response.
	TrailerSize = 2

	// MaxShortLc is the maximum data length (Nc) encodable in Short Length mode (1 byte).
	MaxShortLc = 255

	// MaxShortLe is the maximum expected response length (Ne) encodable in Short Length mode.
	// In Short mode, 0x00 encodes 256.
	MaxShortLe = 256

	// MaxExtendedLc is the limit for Lc in Extended mode (16-bit unsigned).
	MaxExtendedLc = 65535

	// MaxExtendedLe is the maximum Ne encodable in Extended Length mode.
	// In Extended mode, 0x0000 encodes 65536.
	MaxExtendedLe = 65536
)

// CommandAPDU represents a command sent to the card.
type CommandAPDU struct {
	Class       Class
	Instruction Instruction
	P1, P2      byte
	Data        []byte
	Ne          int // Expected response length (0 means none)
}

// NewCommandAPDU creates a basic command.
func NewCommandAPDU(cla Class, ins Instruction, p1, p2 byte, data []byte, ne int) *CommandAPDU {
	return &CommandAPDU{
		Class:       cla,
		Instruction: ins,
		P1:          p1,
		P2:          p2,
		Data:        data,
		Ne:          ne,
	}
}

// Bytes encodes the CommandAPDU into its byte representation (C-APDU).
// It automatically handles the selection between Short and Extended encoding
// based on the length of Data (Nc) and the expected response length (Ne).
func (c *CommandAPDU) Bytes() ([]byte, error) {
	nc := len(c.Data)
	ne := c.Ne

	if nc > MaxExtendedLc {
		return nil, fmt.Errorf("data field too long: %d bytes (max %d)", nc, MaxExtendedLc)
	}
	if ne < 0 || ne > MaxExtendedLe {
		return nil, fmt.Errorf("expected length %d out of range [0, %d]", ne, MaxExtendedLe)
	}

	class, err := c.Class.Encode()
	if err != nil {
		return nil, fmt.Errorf("failed to encode Class: %w", err)
	}

	buf := new(bytes.Buffer)
	buf.Grow(HeaderSize + 3 + nc + 2)

	// 1. Header
	buf.WriteByte(class)
	buf.WriteByte(byte(c.Instruction.Raw))
	buf.WriteByte(c.P1)
	buf.WriteByte(c.P2)

	isExtended := nc > MaxShortLc || ne > MaxShortLe

	// 2. Lc Field & Data Field
	if nc > 0 {
		if !isExtended {
			buf.WriteByte(byte(nc))
		} else {
			// 00 + Lc (2 bytes)
			hi, lo := bits.Split16(uint16(nc))
			buf.WriteByte(0x00)
			buf.WriteByte(hi)
			buf.WriteByte(lo)
		}
		buf.Write(c.Data)
	}

	// 3. Le Field
	if ne > 0 {
		if !isExtended {
			// 0x00 represents 256
			buf.WriteByte(byte(ne % MaxShortLe))
		} else {
			// Case 2 Extended needs a leading 00 to distinguish Le from Lc.
			if nc == 0 {
				buf.WriteByte(0x00)
			}
			// 0x0000 represents 65536
			hi, lo := bits.Split16(uint16(ne % MaxExtendedLe))
			buf.WriteByte(hi)
			buf.WriteByte(lo)
		}
	}

	return buf.Bytes(), nil
}

// ParseCommandAPDU decodes a raw C-APDU. It recognizes the four ISO 7816-3
// cases in both Short and Extended length modes.
func ParseCommandAPDU(raw []byte) (*CommandAPDU, error) {
	if len(raw) < HeaderSize {
		return nil, fmt.Errorf("command too short: length %d", len(raw))
	}

	cla, err := NewClass(raw[0])
	if err != nil {
		return nil, err
	}
	ins, err := NewInstruction(InsCode(raw[1]))
	if err != nil {
		return nil, err
	}

	cmd := NewCommandAPDU(cla, ins, raw[2], raw[3], nil, 0)
	body := raw[HeaderSize:]

	switch {
	case len(body) == 0:
		// Case 1
		return cmd, nil

	case len(body) == 1:
		// Case 2 Short
		cmd.Ne = shortLe(body[0])
		return cmd, nil

	case body[0] != 0x00:
		// Case 3/4 Short
		nc := int(body[0])
		switch len(body) {
		case 1 + nc:
		case 1 + nc + 1:
			cmd.Ne = shortLe(body[len(body)-1])
		default:
			return nil, fmt.Errorf("short body length %d inconsistent with Lc %d", len(body), nc)
		}
		cmd.Data = body[1 : 1+nc]
		return cmd, nil

	case len(body) == 3:
		// Case 2 Extended
		cmd.Ne = extendedLe(body[1], body[2])
		return cmd, nil

	case len(body) > 3:
		// Case 3/4 Extended
		nc := int(bits.Join16(body[1], body[2]))
		if nc == 0 {
			return nil, fmt.Errorf("extended Lc must not be zero")
		}
		switch len(body) {
		case 3 + nc:
		case 3 + nc + 2:
			cmd.Ne = extendedLe(body[len(body)-2], body[len(body)-1])
		default:
			return nil, fmt.Errorf("extended body length %d inconsistent with Lc %d", len(body), nc)
		}
		cmd.Data = body[3 : 3+nc]
		return cmd, nil
	}

	return nil, fmt.Errorf("malformed command body: % X", body)
}

func shortLe(b byte) int {
	if b == 0 {
		return MaxShortLe
	}
	return int(b)
}

func extendedLe(hi, lo byte) int {
	if v := bits.Join16(hi, lo); v != 0 {
		return int(v)
	}
	return MaxExtendedLe
}

// String returns a readable representation of the command meta-data.
func (c *CommandAPDU) String() string {
	return fmt.Sprintf("%s | P1: %02X, P2: %02X | Lc: %d | Le: %d",
		c.Instruction.Verbose(), c.P1, c.P2, len(c.Data), c.Ne)
}

// ResponseAPDU represents the reply from the card (R-APDU).
type ResponseAPDU struct {
	Data   []byte
	Status StatusWord
}

// ParseResponseAPDU parses raw bytes received from the card into a ResponseAPDU.
// The input must contain at least 2 bytes (SW1, SW2).
func ParseResponseAPDU(raw []byte) (*ResponseAPDU, error) {
	if len(raw) < TrailerSize {
		return nil, fmt.Errorf("response too short: length %d", len(raw))
	}

	indexSW1 := len(raw) - TrailerSize
	return &ResponseAPDU{
		Data:   raw[:indexSW1],
		Status: NewStatusWord(raw[indexSW1], raw[indexSW1+1]),
	}, nil
}

// Bytes re-assembles the response as it came off the wire: Data || SW1 SW2.
func (r *ResponseAPDU) Bytes() []byte {
	out := make([]byte, 0, len(r.Data)+TrailerSize)
	out = append(out, r.Data...)
	return append(out, r.Status.SW1(), r.Status.SW2())
}

// String returns a readable representation of the response.
func (r *ResponseAPDU) String() string {
	return fmt.Sprintf("Data (%d bytes) | Status: %s", len(r.Data), r.Status.Verbose())
}

package iso7816

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/gregLibert/chipcard/pkg/bits"
)

// CLASS BYTE:
// SECCOS cards use three class bytes in practice:
//
//	'00' plain interindustry command, basic channel
//	'0C' interindustry command protected by secure messaging (header authenticated)
//	'8X' proprietary SECCOS commands
//
// The decoder covers the full ISO/IEC 7816-4 layout:
//
//	b8     proprietary (1) or interindustry (0)
//	b7     first (0, channels 0-3) or further (1, channels 4-19) interindustry
//	b5     command chaining
//	first:   b4-b3 secure messaging, b2-b1 channel
//	further: b6 secure messaging, b4-b1 channel - 4

// SecureMessaging is the SM indication of an interindustry class byte.
type SecureMessaging int

const (
	SMNone         SecureMessaging = 0
	SMProprietary  SecureMessaging = 1 // first interindustry only
	SMHeaderNoProc SecureMessaging = 2
	SMHeaderAuth   SecureMessaging = 3 // first interindustry only
)

var smNames = map[SecureMessaging]string{
	SMNone:         "None",
	SMProprietary:  "Proprietary",
	SMHeaderNoProc: "ISO (Header not processed)",
	SMHeaderAuth:   "ISO (Header authenticated)",
}

const maxChannel = 19

// Class is a decoded CLA byte.
type Class struct {
	Raw             byte
	IsProprietary   bool
	IsChained       bool
	SecureMessaging SecureMessaging
	Channel         uint8
}

// StandardClass is CLA '00': interindustry, no SM, basic channel.
var StandardClass = Class{}

// NewClass decodes a raw CLA byte. 'FF' is reserved for PPS and rejected.
func NewClass(cla byte) (Class, error) {
	if cla == 0xFF {
		return Class{}, fmt.Errorf("invalid CLA value: 0xFF is reserved")
	}

	c := Class{Raw: cla}
	if bits.IsSet(cla, 8) {
		c.IsProprietary = true
		return c, nil
	}

	c.IsChained = bits.IsSet(cla, 5)

	if bits.IsSet(cla, 7) {
		c.SecureMessaging = SMNone
		if bits.IsSet(cla, 6) {
			c.SecureMessaging = SMHeaderNoProc
		}
		c.Channel = bits.GetRange(cla, 4, 1) + 4
		return c, nil
	}

	c.SecureMessaging = SecureMessaging(bits.GetRange(cla, 4, 3))
	c.Channel = bits.GetRange(cla, 2, 1)
	return c, nil
}

// ParseClassHex decodes a class byte written as two hex digits, e.g. "0C".
func ParseClassHex(s string) (Class, error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "0x"))
	if err != nil || len(raw) != 1 {
		return Class{}, fmt.Errorf("invalid CLA %q: want one hex byte", s)
	}
	return NewClass(raw[0])
}

// NewInterindustryClass builds a class byte for the given channel. Channels
// 0-3 use the first interindustry layout, 4-19 the further one, which only
// knows SMNone and SMHeaderNoProc.
func NewInterindustryClass(isChained bool, sm SecureMessaging, channel uint8) (Class, error) {
	if channel > maxChannel {
		return Class{}, fmt.Errorf("channel %d out of range (max %d)", channel, maxChannel)
	}
	if channel >= 4 && (sm == SMProprietary || sm == SMHeaderAuth) {
		return Class{}, fmt.Errorf("SM indicator %d not supported for further interindustry range (ch 4-19)", sm)
	}

	c := Class{
		IsChained:       isChained,
		SecureMessaging: sm,
		Channel:         channel,
	}

	raw, err := c.Encode()
	if err != nil {
		return Class{}, err
	}
	c.Raw = raw
	return c, nil
}

// Encode returns the CLA byte. Proprietary classes are returned as decoded.
func (c *Class) Encode() (byte, error) {
	if c.IsProprietary {
		return c.Raw, nil
	}
	if c.Channel > maxChannel {
		return 0, fmt.Errorf("channel %d out of range (max %d)", c.Channel, maxChannel)
	}

	var res byte
	if c.IsChained {
		res = bits.Set(res, 5)
	}

	if c.Channel <= 3 {
		res |= byte(c.SecureMessaging) << 2
		res |= c.Channel
		return res, nil
	}

	res = bits.Set(res, 7)
	if c.SecureMessaging != SMNone {
		res = bits.Set(res, 6)
	}
	res |= c.Channel - 4
	return res, nil
}

// Verbose returns a human-readable description of the CLA byte configuration.
func (c Class) Verbose() string {
	if c.IsProprietary {
		return fmt.Sprintf("Class: Proprietary (0x%02X)", c.Raw)
	}

	rangeName := "First Interindustry (Ch 0-3)"
	if c.Channel >= 4 {
		rangeName = "Further Interindustry (Ch 4-19)"
	}

	smDesc, ok := smNames[c.SecureMessaging]
	if !ok {
		smDesc = "Unknown"
	}

	chaining := "Last or only command"
	if c.IsChained {
		chaining = "More commands follow (Chaining)"
	}

	return fmt.Sprintf(
		"Range: %s\nChaining: %s\nSecure Messaging: %s\nLogical Channel: %d",
		rangeName, chaining, smDesc, c.Channel,
	)
}

package iso7816

import (
	"fmt"

	"github.com/gregLibert/chipcard/pkg/bits"
)

// INSTRUCTION BYTE:
// Within the interindustry class an odd INS (bit 1 set) marks the variant
// whose data field is BER-TLV encoded, e.g. READ BINARY B0 / B1.
// INS values '6X' and '9X' collide with SW1 procedure bytes of T=0 and are
// never valid (ISO/IEC 7816-3).

// InsCode is a typed representation of the instruction byte.
type InsCode byte

// File access. These are the commands a SECCOS reader issues.
const (
	INS_SELECT            InsCode = 0xA4
	INS_READ_BINARY       InsCode = 0xB0
	INS_READ_BINARY_BER   InsCode = 0xB1
	INS_READ_RECORD       InsCode = 0xB2
	INS_READ_RECORD_BER   InsCode = 0xB3
	INS_SEARCH_BINARY     InsCode = 0xA0
	INS_SEARCH_BINARY_BER InsCode = 0xA1
	INS_SEARCH_RECORD     InsCode = 0xA2
	INS_GET_DATA          InsCode = 0xCA
	INS_GET_DATA_BER      InsCode = 0xCB
)

// Transport.
const (
	INS_GET_RESPONSE   InsCode = 0xC0
	INS_ENVELOPE       InsCode = 0xC2
	INS_ENVELOPE_BER   InsCode = 0xC3
	INS_MANAGE_CHANNEL InsCode = 0x70
)

// Security: PIN verification, key agreement, authentication.
const (
	INS_VERIFY                       InsCode = 0x20
	INS_VERIFY_BER                   InsCode = 0x21
	INS_MANAGE_SECURITY_ENVIRONMENT  InsCode = 0x22
	INS_CHANGE_REFERENCE_DATA        InsCode = 0x24
	INS_DISABLE_VERIF_REQ            InsCode = 0x26
	INS_ENABLE_VERIF_REQ             InsCode = 0x28
	INS_PERFORM_SECURITY_OPERATION   InsCode = 0x2A
	INS_RESET_RETRY_COUNTER          InsCode = 0x2C
	INS_GENERATE_ASYMMETRIC_KEY_PAIR InsCode = 0x46
	INS_EXTERNAL_AUTHENTICATE        InsCode = 0x82
	INS_GET_CHALLENGE                InsCode = 0x84
	INS_GENERAL_AUTHENTICATE         InsCode = 0x86
	INS_GENERAL_AUTHENTICATE_BER     InsCode = 0x87
	INS_INTERNAL_AUTHENTICATE        InsCode = 0x88
)

// File modification and life cycle. Card personalisation only.
const (
	INS_DEACTIVATE_FILE          InsCode = 0x04
	INS_ERASE_RECORD             InsCode = 0x0C
	INS_ERASE_BINARY             InsCode = 0x0E
	INS_ERASE_BINARY_BER         InsCode = 0x0F
	INS_PERFORM_SCQL_OPERATION   InsCode = 0x10
	INS_PERFORM_TRANSACTION_OPER InsCode = 0x12
	INS_PERFORM_USER_OPERATION   InsCode = 0x14
	INS_ACTIVATE_FILE            InsCode = 0x44
	INS_WRITE_BINARY             InsCode = 0xD0
	INS_WRITE_BINARY_BER         InsCode = 0xD1
	INS_WRITE_RECORD             InsCode = 0xD2
	INS_UPDATE_BINARY            InsCode = 0xD6
	INS_UPDATE_BINARY_BER        InsCode = 0xD7
	INS_PUT_DATA                 InsCode = 0xDA
	INS_PUT_DATA_BER             InsCode = 0xDB
	INS_UPDATE_RECORD            InsCode = 0xDC
	INS_UPDATE_RECORD_BER        InsCode = 0xDD
	INS_CREATE_FILE              InsCode = 0xE0
	INS_APPEND_RECORD            InsCode = 0xE2
	INS_DELETE_FILE              InsCode = 0xE4
	INS_TERMINATE_DF             InsCode = 0xE6
	INS_TERMINATE_EF             InsCode = 0xE8
	INS_TERMINATE_CARD_USAGE     InsCode = 0xFE
)

// Instruction is a decoded INS byte.
type Instruction struct {
	Raw      InsCode
	IsBERTLV bool
}

// IsReservedINS reports whether ins is a '6X' or '9X' value.
func IsReservedINS(ins byte) bool {
	hi := ins & 0xF0
	return hi == 0x60 || hi == 0x90
}

// NewInstruction decodes ins, rejecting the reserved '6X' and '9X' values.
func NewInstruction(ins InsCode) (Instruction, error) {
	if IsReservedINS(byte(ins)) {
		return Instruction{}, fmt.Errorf("invalid INS 0x%02X: 6X and 9X are reserved", byte(ins))
	}

	return Instruction{
		Raw:      ins,
		IsBERTLV: bits.IsSet(byte(ins), 1),
	}, nil
}

// instruction is NewInstruction for the package's own constants, which are
// never reserved.
func instruction(ins InsCode) Instruction {
	i, err := NewInstruction(ins)
	if err != nil {
		panic(err)
	}
	return i
}

// Verbose returns a human-readable description of the instruction.
func (i Instruction) Verbose() string {
	format := "Standard"
	if i.IsBERTLV {
		format = "BER-TLV"
	}
	return fmt.Sprintf("INS: 0x%02X | Command: %s | Format: %s", byte(i.Raw), i.Raw.String(), format)
}

package iso7816

import (
	"fmt"

	"github.com/gregLibert/chipcard/pkg/bits"
)

// READ RECORD (INS 'B2'):
// SECCOS keeps account data (EF.ID, EF.BNR, ...) in linear fixed files that
// are addressed by SFI, so the reader never has to SELECT them first.
//
//	P1  record number, or record identifier when b3 of P2 is 0
//	P2  b8-b4 SFI (0 = current EF), b3-b1 reference mode

// ReadRecordMode is the b3-b1 part of P2.
type ReadRecordMode byte

const (
	RefByID_FirstOccurrence    ReadRecordMode = 0b000
	RefByID_LastOccurrence     ReadRecordMode = 0b001
	RefByID_NextOccurrence     ReadRecordMode = 0b010
	RefByID_PreviousOccurrence ReadRecordMode = 0b011

	RefByNum_ReadP1              ReadRecordMode = 0b100
	RefByNum_ReadAllFromP1       ReadRecordMode = 0b101
	RefByNum_ReadAllFromLastToP1 ReadRecordMode = 0b110
)

var recordModeNames = map[ReadRecordMode]string{
	RefByID_FirstOccurrence:      "Ref ID: First Occurrence",
	RefByID_LastOccurrence:       "Ref ID: Last Occurrence",
	RefByID_NextOccurrence:       "Ref ID: Next Occurrence",
	RefByID_PreviousOccurrence:   "Ref ID: Previous Occurrence",
	RefByNum_ReadP1:              "Ref Num: Read Record P1",
	RefByNum_ReadAllFromP1:       "Ref Num: Read All from P1",
	RefByNum_ReadAllFromLastToP1: "Ref Num: Read All from Last to P1",
}

func (m ReadRecordMode) String() string {
	if name, ok := recordModeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("Unknown Mode (0x%X)", byte(m))
}

// ByNumber reports whether P1 holds a record number rather than an identifier.
func (m ReadRecordMode) ByNumber() bool {
	return bits.IsSet(byte(m), 3)
}

// MaxSFI is the highest short file identifier. 31 is reserved.
const MaxSFI = 30

// RecordReference is the decoded P2 of a record command.
type RecordReference struct {
	SFI  byte
	Mode ReadRecordMode
}

// ParseRecordReference splits a P2 byte.
func ParseRecordReference(p2 byte) RecordReference {
	return RecordReference{
		SFI:  bits.GetRange(p2, 8, 4),
		Mode: ReadRecordMode(bits.GetRange(p2, 3, 1)),
	}
}

// P2 encodes the reference. SFI bits above the 5-bit field are dropped.
func (r RecordReference) P2() byte {
	return (r.SFI&0x1F)<<3 | byte(r.Mode)&0x07
}

// NewReadRecordCommand builds a case 2 READ RECORD. Le '00' asks for the
// whole record.
func NewReadRecordCommand(cla Class, sfi byte, p1 byte, mode ReadRecordMode) *CommandAPDU {
	p2 := RecordReference{SFI: sfi, Mode: mode}.P2()
	return NewCommandAPDU(cla, instruction(INS_READ_RECORD), p1, p2, nil, expectedLength(0))
}

// ReadRecord reads record number n.
func ReadRecord(cla Class, sfi byte, n byte) *CommandAPDU {
	return NewReadRecordCommand(cla, sfi, n, RefByNum_ReadP1)
}

// ReadRecordLength reads record number n and asks for exactly le bytes.
// le == 0 behaves like ReadRecord.
func ReadRecordLength(cla Class, sfi byte, n byte, le uint8) *CommandAPDU {
	cmd := ReadRecord(cla, sfi, n)
	cmd.Ne = expectedLength(le)
	return cmd
}

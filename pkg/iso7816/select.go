package iso7816

import (
	"fmt"

	"github.com/gregLibert/chipcard/pkg/bits"
)

// SELECT (INS 'A4'):
// SECCOS readers select files by identifier or by path from the MF and ask
// for no response data (P2 '0C'). The transparent files of interest, such as
// EF.GDO 2F02, sit directly below the MF.
//
//	P1  selection method
//	P2  b4-b3 response data (FCI, FCP, FMD, none), b2-b1 occurrence

// SelectionMethod is the P1 of SELECT.
type SelectionMethod byte

const (
	SelectByFileID          SelectionMethod = 0x00
	SelectChildDF           SelectionMethod = 0x01
	SelectEFUnderCurrentDF  SelectionMethod = 0x02
	SelectParentDF          SelectionMethod = 0x03
	SelectByDFName          SelectionMethod = 0x04 // application identifier
	SelectPathFromMF        SelectionMethod = 0x08
	SelectPathFromCurrentDF SelectionMethod = 0x09
)

var selectionMethodNames = map[SelectionMethod]string{
	SelectByFileID:          "Select by File ID",
	SelectChildDF:           "Select Child DF",
	SelectEFUnderCurrentDF:  "Select EF under current DF",
	SelectParentDF:          "Select Parent DF",
	SelectByDFName:          "Select by DF Name (AID)",
	SelectPathFromMF:        "Select Path from MF",
	SelectPathFromCurrentDF: "Select Path from Current DF",
}

func (s SelectionMethod) String() string {
	if name, ok := selectionMethodNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Unknown Method (0x%02X)", byte(s))
}

// FileOccurrence is b2-b1 of the SELECT P2.
type FileOccurrence byte

const (
	FirstOrOnlyOccurrence FileOccurrence = 0b00
	LastOccurrence        FileOccurrence = 0b01
	NextOccurrence        FileOccurrence = 0b10
	PreviousOccurrence    FileOccurrence = 0b11
)

var occurrenceNames = [...]string{"First/Only", "Last", "Next", "Previous"}

func (f FileOccurrence) String() string {
	if int(f) < len(occurrenceNames) {
		return occurrenceNames[f]
	}
	return "Unknown Occurrence"
}

// SelectionControl is b4-b3 of the SELECT P2.
type SelectionControl byte

const (
	ReturnFCI    SelectionControl = 0b0000
	ReturnFCP    SelectionControl = 0b0100
	ReturnFMD    SelectionControl = 0b1000
	ReturnNoData SelectionControl = 0b1100
)

var controlNames = [...]string{"Return FCI", "Return FCP", "Return FMD", "No Response Data"}

func (s SelectionControl) String() string {
	if s&^0b1100 == 0 {
		return controlNames[s>>2]
	}
	return "Unknown Control"
}

// NewSelectCommand builds a SELECT. A command carrying data is sent without
// Le so it stays a case 3 command under T=0; the card then announces any
// response with 61XX. A command without data asks for up to 256 bytes unless
// ctrl is ReturnNoData.
func NewSelectCommand(cla Class, method SelectionMethod, occurrence FileOccurrence, ctrl SelectionControl, data []byte) *CommandAPDU {
	p2 := byte(ctrl)&0b1100 | byte(occurrence)&0b11

	ne := 0
	if len(data) == 0 && ctrl != ReturnNoData {
		ne = MaxShortLe
	}
	return NewCommandAPDU(cla, instruction(INS_SELECT), byte(method), p2, data, ne)
}

// SelectMF selects the master file.
func SelectMF(cla Class) *CommandAPDU {
	return SelectByFID(cla, MasterFileID)
}

// SelectByFID selects any file by its identifier.
func SelectByFID(cla Class, fid uint16) *CommandAPDU {
	return NewSelectCommand(cla, SelectByFileID, FirstOrOnlyOccurrence, ReturnNoData, fidBytes(fid))
}

// SelectEF selects an elementary file below the current DF. This is the form
// SECCOS expects before READ BINARY on a transparent EF.
func SelectEF(cla Class, fid uint16) *CommandAPDU {
	return NewSelectCommand(cla, SelectEFUnderCurrentDF, FirstOrOnlyOccurrence, ReturnNoData, fidBytes(fid))
}

// SelectByPath selects a file by its absolute path. The leading MF
// identifier is implicit and dropped if present.
func SelectByPath(cla Class, path ...uint16) *CommandAPDU {
	if len(path) > 0 && path[0] == MasterFileID {
		path = path[1:]
	}

	data := make([]byte, 0, 2*len(path))
	for _, fid := range path {
		data = append(data, fidBytes(fid)...)
	}
	return NewSelectCommand(cla, SelectPathFromMF, FirstOrOnlyOccurrence, ReturnNoData, data)
}

// MasterFileID is the reserved identifier of the MF.
const MasterFileID uint16 = 0x3F00

// ParseFileIDs splits the data field of a SELECT by identifier or by path
// into file identifiers.
func ParseFileIDs(data []byte) ([]uint16, error) {
	if len(data)%2 != 0 {
		return nil, fmt.Errorf("odd file identifier data length %d", len(data))
	}
	fids := make([]uint16, 0, len(data)/2)
	for i := 0; i < len(data); i += 2 {
		fids = append(fids, bits.Join16(data[i], data[i+1]))
	}
	return fids, nil
}

func fidBytes(fid uint16) []byte {
	hi, lo := bits.Split16(fid)
	return []byte{hi, lo}
}

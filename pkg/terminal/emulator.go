package terminal

import (
	"crypto/rand"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/gregLibert/chipcard/pkg/bits"
	"github.com/gregLibert/chipcard/pkg/iso7816"
)

// EMULATED CARD:
// The Emulator answers the subset of SECCOS commands the codec issues:
//
//   - SELECT (A4): by FID (P1 00/02) or by path from the MF (P1 08), no response data.
//   - READ BINARY (B0): offset addressing, or SFI addressing when P1 bit 8 is set.
//   - READ RECORD (B2): by record number, current EF or SFI.
//   - GET CHALLENGE (84): random bytes, 8 when Le is '00'.
//   - GET RESPONSE (C0): drains data announced with 61XX.
//
// In T=0 mode it answers a wrong explicit Le with 6CXX and returns
// GET CHALLENGE data through 61XX/GET RESPONSE, like a T=0 card would.

// DefaultChallengeSize is the number of random bytes returned when GET
// CHALLENGE carries Le '00'.
const DefaultChallengeSize = 8

// File is one elementary file of the emulated card. A file holds either
// transparent Data or Records, never both.
type File struct {
	FID     uint16
	SFI     byte
	Data    []byte
	Records [][]byte
}

func (f *File) transparent() bool {
	return f.Records == nil
}

// Emulator is an in-memory SECCOS card. It implements iso7816.Transmitter.
type Emulator struct {
	mu      sync.Mutex
	files   map[uint16]*File
	bySFI   map[byte]*File
	current *File
	pending []byte

	// T0 enables the 61XX/6CXX procedure bytes.
	T0 bool
	// Rand is the source for GET CHALLENGE. Defaults to crypto/rand.
	Rand io.Reader
}

// NewEmulator creates a card holding files.
func NewEmulator(files ...File) (*Emulator, error) {
	e := &Emulator{
		files: make(map[uint16]*File),
		bySFI: make(map[byte]*File),
		Rand:  rand.Reader,
	}
	for i := range files {
		f := files[i]
		if f.FID == iso7816.MasterFileID {
			return nil, fmt.Errorf("FID %04X is reserved for the MF", f.FID)
		}
		if _, dup := e.files[f.FID]; dup {
			return nil, fmt.Errorf("duplicate FID %04X", f.FID)
		}
		if f.SFI > 30 {
			return nil, fmt.Errorf("file %04X: SFI %d out of range", f.FID, f.SFI)
		}
		if f.SFI != 0 {
			if _, dup := e.bySFI[f.SFI]; dup {
				return nil, fmt.Errorf("file %04X: duplicate SFI %d", f.FID, f.SFI)
			}
			e.bySFI[f.SFI] = &f
		}
		e.files[f.FID] = &f
	}
	return e, nil
}

// FIDs returns the identifiers of all files, sorted.
func (e *Emulator) FIDs() []uint16 {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]uint16, 0, len(e.files))
	for fid := range e.files {
		out = append(out, fid)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Transmit processes one command APDU and returns the response APDU.
func (e *Emulator) Transmit(raw []byte) ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	cmd, err := iso7816.ParseCommandAPDU(raw)
	if err != nil {
		switch {
		case len(raw) >= 1 && raw[0] == 0xFF:
			return status(iso7816.SW_ERR_CLA_NOT_SUPPORTED), nil
		case len(raw) >= 2 && iso7816.IsReservedINS(raw[1]):
			return status(iso7816.SW_ERR_INS_INVALID), nil
		default:
			return status(iso7816.SW_ERR_WRONG_LENGTH), nil
		}
	}

	if cmd.Class.IsProprietary {
		return status(iso7816.SW_ERR_CLA_NOT_SUPPORTED), nil
	}

	// Data announced with 61XX is lost unless fetched right away.
	pending := e.pending
	e.pending = nil

	switch cmd.Instruction.Raw {
	case iso7816.INS_SELECT:
		return e.selectFile(cmd), nil
	case iso7816.INS_READ_BINARY:
		return e.readBinary(cmd), nil
	case iso7816.INS_READ_RECORD:
		return e.readRecord(cmd), nil
	case iso7816.INS_GET_CHALLENGE:
		return e.getChallenge(cmd)
	case iso7816.INS_GET_RESPONSE:
		return e.getResponse(cmd, pending), nil
	default:
		return status(iso7816.SW_ERR_INS_INVALID), nil
	}
}

func (e *Emulator) selectFile(cmd *iso7816.CommandAPDU) []byte {
	fids, err := iso7816.ParseFileIDs(cmd.Data)
	if err != nil {
		return status(iso7816.SW_ERR_NC_INCONSISTENT_P1P2)
	}

	switch iso7816.SelectionMethod(cmd.P1) {
	case iso7816.SelectByFileID, iso7816.SelectEFUnderCurrentDF:
		if len(fids) != 1 {
			return status(iso7816.SW_ERR_NC_INCONSISTENT_P1P2)
		}
	case iso7816.SelectPathFromMF:
		if len(fids) == 0 {
			e.current = nil
			return status(iso7816.SW_NO_ERROR)
		}
	default:
		return status(iso7816.SW_ERR_INCORRECT_PARAMS_P1P2)
	}

	// The file system is flat: a path resolves to its last element.
	fid := fids[len(fids)-1]

	if fid == iso7816.MasterFileID {
		e.current = nil
		return status(iso7816.SW_NO_ERROR)
	}

	f, ok := e.files[fid]
	if !ok {
		return status(iso7816.SW_ERR_FILE_NOT_FOUND)
	}
	e.current = f
	return status(iso7816.SW_NO_ERROR)
}

func (e *Emulator) readBinary(cmd *iso7816.CommandAPDU) []byte {
	f := e.current
	offset := int(cmd.Offset())

	if bits.IsSet(cmd.P1, 8) {
		sfi := bits.GetRange(cmd.P1, 5, 1)
		sf, ok := e.bySFI[sfi]
		if !ok {
			return status(iso7816.SW_ERR_FILE_NOT_FOUND)
		}
		f = sf
		e.current = sf
		offset = int(cmd.P2)
	}

	if f == nil {
		return status(iso7816.SW_ERR_CMD_NOT_ALLOWED_NO_EF)
	}
	if !f.transparent() {
		return status(iso7816.SW_ERR_CMD_INCOMPATIBLE_FILE)
	}
	if offset >= len(f.Data) {
		if offset == 0 {
			return status(iso7816.SW_WARN_EOF_REACHED)
		}
		return status(iso7816.SW_ERR_WRONG_P1P2)
	}

	available := f.Data[offset:]
	return e.answer(cmd.Ne, available, iso7816.SW_WARN_EOF_REACHED)
}

func (e *Emulator) readRecord(cmd *iso7816.CommandAPDU) []byte {
	ref := iso7816.ParseRecordReference(cmd.P2)
	if ref.Mode != iso7816.RefByNum_ReadP1 {
		return status(iso7816.SW_ERR_FUNC_NOT_SUPPORTED)
	}

	f := e.current
	if sfi := ref.SFI; sfi != 0 {
		sf, ok := e.bySFI[sfi]
		if !ok {
			return status(iso7816.SW_ERR_FILE_NOT_FOUND)
		}
		f = sf
		e.current = sf
	}

	if f == nil {
		return status(iso7816.SW_ERR_CMD_NOT_ALLOWED_NO_EF)
	}
	if f.transparent() {
		return status(iso7816.SW_ERR_CMD_INCOMPATIBLE_FILE)
	}

	rec := int(cmd.P1)
	if rec == 0 || rec > len(f.Records) {
		return status(iso7816.SW_ERR_RECORD_NOT_FOUND)
	}

	return e.answer(cmd.Ne, f.Records[rec-1], iso7816.SW_ERR_WRONG_LENGTH)
}

// answer returns data for a Case 2 command expecting ne bytes. Le '00'
// (ne == 256) takes whatever is there. An explicit Le that does not match
// is answered with 6CXX in T=0 mode, and otherwise with the data that
// exists plus short, or with short alone when data is longer than Le.
func (e *Emulator) answer(ne int, data []byte, short iso7816.StatusWord) []byte {
	if ne >= iso7816.MaxShortLe {
		if len(data) > iso7816.MaxShortLe {
			data = data[:iso7816.MaxShortLe]
		}
		return withStatus(data, iso7816.SW_NO_ERROR)
	}

	if ne == len(data) {
		return withStatus(data, iso7816.SW_NO_ERROR)
	}

	if ne > len(data) {
		if e.T0 {
			return status(iso7816.NewStatusWord(0x6C, byte(len(data))))
		}
		return withStatus(data, short)
	}

	// Fewer bytes wanted than available: transparent files return a
	// prefix, records insist on the exact length.
	if short == iso7816.SW_WARN_EOF_REACHED {
		return withStatus(data[:ne], iso7816.SW_NO_ERROR)
	}
	if e.T0 {
		return status(iso7816.NewStatusWord(0x6C, byte(len(data))))
	}
	return status(short)
}

func (e *Emulator) getChallenge(cmd *iso7816.CommandAPDU) ([]byte, error) {
	if cmd.P1 != 0 || cmd.P2 != 0 {
		return status(iso7816.SW_ERR_INCORRECT_PARAMS_P1P2), nil
	}

	n := cmd.Ne
	if n >= iso7816.MaxShortLe || n == 0 {
		n = DefaultChallengeSize
	}

	challenge := make([]byte, n)
	if _, err := io.ReadFull(e.Rand, challenge); err != nil {
		return nil, fmt.Errorf("emulator: reading random source: %w", err)
	}

	if e.T0 {
		e.pending = challenge
		return status(iso7816.NewStatusWord(0x61, byte(n))), nil
	}
	return withStatus(challenge, iso7816.SW_NO_ERROR), nil
}

func (e *Emulator) getResponse(cmd *iso7816.CommandAPDU, pending []byte) []byte {
	if pending == nil {
		return status(iso7816.SW_ERR_COND_OF_USE_NOT_SAT)
	}

	n := cmd.Ne
	if n > len(pending) {
		n = len(pending)
	}
	if rest := pending[n:]; len(rest) > 0 {
		e.pending = rest
		return withStatus(pending[:n], iso7816.NewStatusWord(0x61, byte(len(rest))))
	}
	return withStatus(pending[:n], iso7816.SW_NO_ERROR)
}

func status(sw iso7816.StatusWord) []byte {
	return []byte{sw.SW1(), sw.SW2()}
}

func withStatus(data []byte, sw iso7816.StatusWord) []byte {
	out := make([]byte, 0, len(data)+iso7816.TrailerSize)
	out = append(out, data...)
	return append(out, sw.SW1(), sw.SW2())
}

package seccos

import (
	"fmt"

	"github.com/gregLibert/chipcard/pkg/iso7816"
)

type recordParams struct {
	sfi  byte
	size uint8
}

// RecordOption sets a READ RECORD parameter.
type RecordOption func(*recordParams)

// SFI reads from the EF with the given short identifier (1-30) instead of
// the current EF.
func SFI(sfi byte) RecordOption {
	return func(p *recordParams) {
		p.sfi = sfi
	}
}

// RecordSize sets Le. 0 (the default) asks for the whole record.
func RecordSize(n uint8) RecordOption {
	return func(p *recordParams) {
		p.size = n
	}
}

// ReadRecord reads one record, by number, from a linear record EF.
func (c *Card) ReadRecord(record uint8, opts ...RecordOption) ([]byte, error) {
	var p recordParams
	for _, opt := range opts {
		opt(&p)
	}
	if p.sfi > iso7816.MaxSFI {
		return nil, &CommandError{Op: OpReadRecord, Err: fmt.Errorf("SFI %d out of range (max %d)", p.sfi, iso7816.MaxSFI)}
	}

	return c.Perform(OpReadRecord, iso7816.ReadRecordLength(c.class, p.sfi, record, p.size))
}

// GetChallenge asks the card for n random bytes.
func (c *Card) GetChallenge(n uint8) ([]byte, error) {
	return c.Perform(OpGetChallenge, iso7816.GetChallenge(c.class, n))
}

// SelectFile selects an EF below the current DF by its file identifier.
func (c *Card) SelectFile(fid uint16) error {
	_, err := c.Perform(OpSelectFile, iso7816.SelectEF(c.class, fid))
	return err
}

// SelectPath selects a file by its absolute path from the MF. A path that
// names only the MF selects it by identifier.
func (c *Card) SelectPath(path ...uint16) error {
	if len(path) == 0 {
		return &CommandError{Op: OpSelectFile, Err: fmt.Errorf("empty path")}
	}

	cmd := iso7816.SelectByPath(c.class, path...)
	if len(path) == 1 && path[0] == iso7816.MasterFileID {
		cmd = iso7816.SelectMF(c.class)
	}
	_, err := c.Perform(OpSelectFile, cmd)
	return err
}

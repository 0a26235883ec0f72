package seccos

import (
	"fmt"

	"github.com/gregLibert/chipcard/pkg/iso7816"
)

type readParams struct {
	offset  uint16
	maxSize uint8
}

// ReadOption sets a READ BINARY parameter. Both default to zero.
type ReadOption func(*readParams)

// Offset sets the byte position to start reading from. Offsets of 0x8000 and
// above set bit 8 of P1, which ISO cards read as SFI addressing.
func Offset(off uint16) ReadOption {
	return func(p *readParams) {
		p.offset = off
	}
}

// MaxSize sets the number of bytes requested (Le). 0 lets the card decide.
func MaxSize(n uint8) ReadOption {
	return func(p *readParams) {
		p.maxSize = n
	}
}

func (c *Card) readBinaryCommand(opts []ReadOption) *iso7816.CommandAPDU {
	var p readParams
	for _, opt := range opts {
		opt(&p)
	}
	return iso7816.ReadBinary(c.class, p.offset, p.maxSize)
}

// ReadBinary reads from the currently selected transparent EF and returns
// the payload. Without options it reads from offset 0 and lets the card
// choose the length.
func (c *Card) ReadBinary(opts ...ReadOption) ([]byte, error) {
	return c.Perform(OpReadBinary, c.readBinaryCommand(opts))
}

// ReadBinaryInto is ReadBinary writing into buf. It returns the number of
// bytes written, or ErrBufferTooSmall if the payload does not fit.
func (c *Card) ReadBinaryInto(buf []byte, opts ...ReadOption) (int, error) {
	var size int
	err := c.perform(OpReadBinary, c.readBinaryCommand(opts), func(payload []byte) error {
		if len(payload) > len(buf) {
			return &CommandError{
				Op:  OpReadBinary,
				Err: fmt.Errorf("%w: need %d, have %d", ErrBufferTooSmall, len(payload), len(buf)),
			}
		}
		size = copy(buf, payload)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return size, nil
}

// maxBinaryOffset is the last offset reachable without flipping P1 into SFI mode.
const maxBinaryOffset = 0x7FFF

// ReadAll reads the whole selected transparent EF in chunks of up to 256
// bytes, fewer when the maximum response size leaves less room. It stops on
// a short chunk, on the end-of-file warning (6282), or when the card reports
// the offset as out of range (6B00) after the first chunk.
//
// READ BINARY cannot address offset 0x8000, so a file whose chunks are all
// full up to there gives ErrFileTooLarge. That includes a file of exactly
// 0x8000 bytes, which the card cannot be asked to tell apart from a longer one.
func (c *Card) ReadAll() ([]byte, error) {
	chunkSize := min(iso7816.MaxShortLe, c.maxResponse-iso7816.TrailerSize)
	if chunkSize < 1 {
		return nil, &CommandError{Op: OpReadBinary, Err: fmt.Errorf("maximum response size %d leaves no room for data", c.maxResponse)}
	}
	// Le '00' already means 256.
	le := uint8(chunkSize % iso7816.MaxShortLe)

	lenient := c.with(WithClassifier(func(sw iso7816.StatusWord) bool {
		return c.classify(sw) || sw == iso7816.SW_WARN_EOF_REACHED
	}))

	var out []byte
	offset := 0

	for {
		if offset > maxBinaryOffset {
			return nil, &CommandError{Op: OpReadBinary, Err: fmt.Errorf("%w: offset %d", ErrFileTooLarge, offset)}
		}

		chunk, err := lenient.ReadBinary(Offset(uint16(offset)), MaxSize(le))
		if err != nil {
			if offset > 0 && IsStatus(err, iso7816.SW_ERR_WRONG_P1P2) {
				return out, nil
			}
			return nil, err
		}

		out = append(out, chunk...)
		offset += len(chunk)

		if len(chunk) < chunkSize {
			return out, nil
		}
	}
}

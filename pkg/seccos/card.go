package seccos

import (
	"fmt"

	"github.com/gregLibert/chipcard/pkg/iso7816"
	"github.com/rs/zerolog"
)

// DefaultMaxResponseSize is the capacity of the scratch buffer handed to the
// terminal for one response. It covers the largest short-length answer
// (256 data bytes plus the 2-byte trailer) with room to spare.
const DefaultMaxResponseSize = 300

// SECCOS standard class byte and the READ BINARY operation name used in
// terminal diagnostics.
const (
	ClassStandard  byte = 0x00
	OpReadBinary        = "readBinary"
	OpReadRecord        = "readRecord"
	OpGetChallenge      = "getChallenge"
	OpSelectFile        = "selectFile"
)

// Terminal is the card-terminal transport. Perform submits cmd, writes the
// raw response (data followed by SW1 SW2) into resp and returns the number
// of bytes the card sent together with the status word.
//
// op names the operation for the terminal's logs. A returned error means
// the exchange itself failed; a rejected command is reported via sw. A
// response longer than resp is reported with its full length; the Card
// treats that as ErrResponseTooLarge.
type Terminal interface {
	Perform(op string, cmd []byte, resp []byte) (int, iso7816.StatusWord, error)
}

// TerminalFunc adapts a function to the Terminal interface.
type TerminalFunc func(op string, cmd []byte, resp []byte) (int, iso7816.StatusWord, error)

// Perform calls f.
func (f TerminalFunc) Perform(op string, cmd []byte, resp []byte) (int, iso7816.StatusWord, error) {
	return f(op, cmd, resp)
}

// Classifier decides whether a status word means success.
type Classifier func(iso7816.StatusWord) bool

// DefaultClassifier accepts 9000 and 61XX.
func DefaultClassifier(sw iso7816.StatusWord) bool {
	return sw.IsSuccess()
}

// AllowEndOfFile also accepts 6282, the warning a card sends when a READ
// BINARY hit the end of the file before Le bytes were read.
func AllowEndOfFile(sw iso7816.StatusWord) bool {
	return sw.IsSuccess() || sw == iso7816.SW_WARN_EOF_REACHED
}

// Card encodes commands for a SECCOS card and decodes its answers.
type Card struct {
	term        Terminal
	class       iso7816.Class
	classify    Classifier
	maxResponse int
	log         zerolog.Logger
}

// Option configures a Card.
type Option func(*Card)

// WithClassifier replaces DefaultClassifier.
func WithClassifier(fn Classifier) Option {
	return func(c *Card) {
		if fn != nil {
			c.classify = fn
		}
	}
}

// WithMaxResponseSize sets the scratch buffer capacity. Values below the
// 2-byte trailer are ignored.
func WithMaxResponseSize(n int) Option {
	return func(c *Card) {
		if n >= iso7816.TrailerSize {
			c.maxResponse = n
		}
	}
}

// WithClass sets the CLA byte used for every command.
func WithClass(cls iso7816.Class) Option {
	return func(c *Card) {
		c.class = cls
	}
}

// WithLogger sets the logger. Commands are logged at debug level.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Card) {
		c.log = l
	}
}

// NewCard creates a Card talking through term.
func NewCard(term Terminal, opts ...Option) *Card {
	cls, _ := iso7816.NewClass(ClassStandard)
	c := &Card{
		term:        term,
		class:       cls,
		classify:    DefaultClassifier,
		maxResponse: DefaultMaxResponseSize,
		log:         zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// MaxResponseSize returns the scratch buffer capacity.
func (c *Card) MaxResponseSize() int {
	return c.maxResponse
}

// Perform runs cmd through the encode/submit/decode pipeline and returns a
// copy of the response payload.
func (c *Card) Perform(op string, cmd *iso7816.CommandAPDU) ([]byte, error) {
	var out []byte
	err := c.perform(op, cmd, func(payload []byte) error {
		out = make([]byte, len(payload))
		copy(out, payload)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// perform submits cmd and passes the payload to sink. The payload aliases
// the scratch buffer and must not be retained by sink.
func (c *Card) perform(op string, cmd *iso7816.CommandAPDU, sink func(payload []byte) error) error {
	frame, err := cmd.Bytes()
	if err != nil {
		return &CommandError{Op: op, Err: err}
	}

	scratch := make([]byte, c.maxResponse)

	n, sw, err := c.term.Perform(op, frame, scratch)
	if err != nil {
		c.log.Debug().Str("op", op).Hex("cmd", frame).Err(err).Msg("terminal failure")
		return &CommandError{Op: op, Err: err}
	}

	c.log.Debug().
		Str("op", op).
		Hex("cmd", frame).
		Int("len", n).
		Str("sw", fmt.Sprintf("%04X", uint16(sw))).
		Msg("command performed")

	if n > len(scratch) {
		return &CommandError{Op: op, Err: fmt.Errorf("%w: %d > %d bytes", ErrResponseTooLarge, n, len(scratch))}
	}
	if n < iso7816.TrailerSize {
		return &CommandError{Op: op, Err: fmt.Errorf("%w: got %d bytes", ErrShortResponse, n)}
	}
	if !c.classify(sw) {
		return &StatusError{Op: op, SW: sw}
	}

	return sink(scratch[:n-iso7816.TrailerSize])
}

// with returns a shallow copy of c with opts applied.
func (c *Card) with(opts ...Option) *Card {
	cp := *c
	for _, opt := range opts {
		opt(&cp)
	}
	return &cp
}

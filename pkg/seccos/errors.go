package seccos

import (
	"errors"
	"fmt"

	"github.com/gregLibert/chipcard/pkg/iso7816"
)

var (
	// ErrShortResponse is returned when the terminal reports fewer bytes
	// than the mandatory SW1-SW2 trailer.
	ErrShortResponse = errors.New("response shorter than status trailer")

	// ErrResponseTooLarge is returned when the terminal reports more bytes
	// than the scratch buffer it was given can hold.
	ErrResponseTooLarge = errors.New("response exceeds maximum response size")

	// ErrBufferTooSmall is returned by ReadBinaryInto when the payload does
	// not fit into the caller's buffer. The buffer is left untouched.
	ErrBufferTooSmall = errors.New("destination buffer too small")

	// ErrFileTooLarge is returned by ReadAll when a file extends past the
	// last offset addressable with READ BINARY.
	ErrFileTooLarge = errors.New("file exceeds addressable offset range")
)

// CommandError reports a failure that happened before the card's answer
// could be classified.
type CommandError struct {
	Op  string
	Err error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// StatusError reports a response whose status word was classified as failure.
type StatusError struct {
	Op string
	SW iso7816.StatusWord
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: card returned %s", e.Op, e.SW.Verbose())
}

// IsStatus reports whether err is a *StatusError carrying sw.
func IsStatus(err error, sw iso7816.StatusWord) bool {
	var se *StatusError
	return errors.As(err, &se) && se.SW == sw
}

package iso7816

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// A Transaction is one command and the card's answer to it. A Trace is every
// transaction a single logical command needed: the command itself, then the
// GET RESPONSE after a 61XX or the re-issue after a 6CXX. Only the last
// transaction decides the outcome.

// Transaction is a command-response pair. Response is nil when the
// transmission failed.
type Transaction struct {
	Command  *CommandAPDU
	Response *ResponseAPDU
}

// IsSuccess reports whether the card answered with a success status.
func (t *Transaction) IsSuccess() bool {
	return t.Response != nil && t.Response.Status.IsSuccess()
}

// MarshalZerologObject logs the transaction as raw hex.
func (t Transaction) MarshalZerologObject(e *zerolog.Event) {
	if raw, err := t.Command.Bytes(); err == nil {
		e.Hex("c", raw)
	}
	if t.Response != nil {
		e.Hex("r", t.Response.Bytes())
	}
}

// Trace is the ordered list of transactions of one logical command.
type Trace []Transaction

// Last returns the final transaction, or nil for an empty trace.
func (t Trace) Last() *Transaction {
	if len(t) == 0 {
		return nil
	}
	return &t[len(t)-1]
}

// IsSuccess reports whether the final transaction succeeded. Intermediate
// 61XX and 6CXX answers do not count.
func (t Trace) IsSuccess() bool {
	last := t.Last()
	return last != nil && last.IsSuccess()
}

// MarshalZerologArray logs each transaction in order.
func (t Trace) MarshalZerologArray(a *zerolog.Array) {
	for _, tx := range t {
		a.Object(tx)
	}
}

// String renders one "C>" and one "R<" line per transaction, numbered from 1.
func (t Trace) String() string {
	lines := make([]string, 0, 2*len(t))
	for i, tx := range t {
		n := i + 1
		if raw, err := tx.Command.Bytes(); err != nil {
			lines = append(lines, fmt.Sprintf("#%d C> <%v>", n, err))
		} else {
			lines = append(lines, fmt.Sprintf("#%d C> % X", n, raw))
		}

		if tx.Response == nil {
			lines = append(lines, fmt.Sprintf("#%d R< <none>", n))
			continue
		}
		lines = append(lines, fmt.Sprintf("#%d R< % X (%s)", n, tx.Response.Bytes(), tx.Response.Status.Verbose()))
	}
	return strings.Join(lines, "\n")
}

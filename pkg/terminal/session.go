// Package terminal provides the card-terminal side of the command codec:
// a Session performing raw commands over any iso7816.Transmitter, a PC/SC
// Reader, and an in-memory Emulator of a SECCOS card.
package terminal

import (
	"fmt"
	"sync"

	"github.com/gregLibert/chipcard/pkg/iso7816"
	"github.com/rs/zerolog"
)

// Session performs commands on one card. It implements seccos.Terminal.
//
// A card session is a single-actor resource: Perform calls are serialized.
type Session struct {
	mu     sync.Mutex
	client *iso7816.Client
	log    zerolog.Logger
	last   iso7816.Trace
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithSessionLogger sets the logger. Every exchange is logged at debug level.
func WithSessionLogger(l zerolog.Logger) SessionOption {
	return func(s *Session) {
		s.log = l
	}
}

// NewSession creates a Session over tx.
func NewSession(tx iso7816.Transmitter, opts ...SessionOption) *Session {
	s := &Session{
		client: iso7816.NewClient(tx),
		log:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Perform sends cmd, resolving 61XX/6CXX procedures on the way, and writes
// the final response (data followed by SW1 SW2) into resp.
//
// The returned length is the full response length. When it exceeds
// len(resp) only len(resp) bytes were written; the caller decides whether
// that is fatal.
func (s *Session) Perform(op string, cmd []byte, resp []byte) (int, iso7816.StatusWord, error) {
	apdu, err := iso7816.ParseCommandAPDU(cmd)
	if err != nil {
		return 0, 0, fmt.Errorf("%s: invalid command: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	trace, err := s.client.Send(apdu)
	s.last = trace
	if err != nil {
		s.log.Debug().Str("op", op).Hex("cmd", cmd).Array("trace", trace).Err(err).Msg("exchange failed")
		return 0, 0, fmt.Errorf("%s: %w", op, err)
	}

	final := trace.Last().Response
	raw := final.Bytes()
	copy(resp, raw)

	s.log.Debug().
		Str("op", op).
		Int("steps", len(trace)).
		Array("trace", trace).
		Str("sw", final.Status.Verbose()).
		Msg("exchange")

	return len(raw), final.Status, nil
}

// LastTrace returns the transactions of the most recent Perform.
func (s *Session) LastTrace() iso7816.Trace {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(iso7816.Trace, len(s.last))
	copy(out, s.last)
	return out
}

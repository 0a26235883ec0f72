package iso7816

import (
	"errors"
	"fmt"
)

// CLIENT & PROTOCOL LOGIC:
// The Client acts as a driver over the physical connection.
// It implements the automatic handling of ISO 7816-3 transport behaviors that are
// exposed to the application layer in T=0 protocols:
//
// 1. "61 XX" (Response Available):
//    The card indicates that XX bytes are waiting. The client generates
//    and sends a GET RESPONSE command to retrieve them.
//
// 2. "6C XX" (Wrong Length):
//    The card indicates that the expected length (Le) was incorrect and suggests XX.
//    The client re-sends the original command with Le = XX.
//
// The Send() method returns a Trace, which is a log of all atomic transactions
// that occurred to fulfill the logical request.

// MaxProtocolSteps bounds the number of physical exchanges one Send may issue.
// A card answering 61XX or 6CXX forever would otherwise never return.
const MaxProtocolSteps = 16

// ErrTooManySteps is returned when a card keeps requesting GET RESPONSE or
// Le corrections beyond MaxProtocolSteps.
var ErrTooManySteps = errors.New("too many protocol steps")

// Transmitter abstracts the physical card connection.
// *scard.Card satisfies it.
type Transmitter interface {
	Transmit(cmd []byte) ([]byte, error)
}

// Client manages the communication with the card.
type Client struct {
	Card Transmitter
}

// NewClient creates a new Client instance.
func NewClient(card Transmitter) *Client {
	return &Client{Card: card}
}

// Send transmits a command and handles protocol logic (61xx, 6Cxx).
// On error the returned Trace holds the exchanges completed so far.
func (c *Client) Send(cmd *CommandAPDU) (Trace, error) {
	var trace Trace

	for len(trace) < MaxProtocolSteps {
		tx, err := c.exchange(cmd)
		if err != nil {
			return trace, err
		}
		trace = append(trace, tx)

		ne, retry := tx.Response.Status.Retry()
		if !retry {
			return trace, nil
		}

		if tx.Response.Status.SW1() == 0x61 {
			// ISO 7816-4: GET RESPONSE must use the same logical channel as the original command.
			respCls := cmd.Class
			respCls.IsChained = false

			ins := instruction(INS_GET_RESPONSE)
			cmd = NewCommandAPDU(respCls, ins, 0x00, 0x00, nil, ne)
			continue
		}

		// 6CXX: clone command to update Le without mutating the caller's pointer.
		next := *cmd
		next.Ne = ne
		cmd = &next
	}

	return trace, fmt.Errorf("%w: gave up after %d exchanges", ErrTooManySteps, len(trace))
}

func (c *Client) exchange(cmd *CommandAPDU) (Transaction, error) {
	rawCmd, err := cmd.Bytes()
	if err != nil {
		return Transaction{}, fmt.Errorf("encoding error: %w", err)
	}

	rawResp, err := c.Card.Transmit(rawCmd)
	if err != nil {
		return Transaction{}, fmt.Errorf("transmission error: %w", err)
	}

	resp, err := ParseResponseAPDU(rawResp)
	if err != nil {
		return Transaction{}, err
	}

	return Transaction{Command: cmd, Response: resp}, nil
}

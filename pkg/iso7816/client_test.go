package iso7816

import (
	"encoding/hex"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/gregLibert/chipcard/pkg/tlv"
)

// scriptedCard replays canned responses and records every command it sees.
type scriptedCard struct {
	responses [][]byte
	sent      []string
	err       error
}

func (s *scriptedCard) Transmit(cmd []byte) ([]byte, error) {
	s.sent = append(s.sent, upperHex(cmd))
	if s.err != nil {
		return nil, s.err
	}
	if len(s.responses) == 0 {
		return []byte{0x6F, 0x00}, nil
	}
	resp := s.responses[0]
	s.responses = s.responses[1:]
	return resp, nil
}

func upperHex(b []byte) string {
	return strings.ToUpper(hex.EncodeToString(b))
}

func TestClient_Send(t *testing.T) {
	cls := StandardClass

	tests := []struct {
		name      string
		cmd       *CommandAPDU
		responses [][]byte
		wantSent  []string
		wantSteps int
		wantData  string
		wantSW    StatusWord
	}{
		{
			name:      "Direct success",
			cmd:       ReadBinary(cls, 0, 0),
			responses: [][]byte{tlv.Hex("CAFE 9000")},
			wantSent:  []string{"00B0000000"},
			wantSteps: 1,
			wantData:  "CAFE",
			wantSW:    SW_NO_ERROR,
		},
		{
			name:      "61XX triggers GET RESPONSE",
			cmd:       SelectEF(cls, 0x2F02),
			responses: [][]byte{tlv.Hex("6104"), tlv.Hex("01020304 9000")},
			wantSent:  []string{"00A4020C022F02", "00C0000004"},
			wantSteps: 2,
			wantData:  "01020304",
			wantSW:    SW_NO_ERROR,
		},
		{
			name:      "6CXX re-sends with corrected Le",
			cmd:       ReadBinary(cls, 0x0100, 0x10),
			responses: [][]byte{tlv.Hex("6C08"), tlv.Hex("1122334455667788 9000")},
			wantSent:  []string{"00B0010010", "00B0010008"},
			wantSteps: 2,
			wantData:  "1122334455667788",
			wantSW:    SW_NO_ERROR,
		},
		{
			name:      "Error status is returned as is",
			cmd:       ReadBinary(cls, 0, 0),
			responses: [][]byte{tlv.Hex("6982")},
			wantSent:  []string{"00B0000000"},
			wantSteps: 1,
			wantData:  "",
			wantSW:    SW_ERR_SECURITY_STATUS_NOT_SAT,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			card := &scriptedCard{responses: tt.responses}
			trace, err := NewClient(card).Send(tt.cmd)
			if err != nil {
				t.Fatalf("Send failed: %v", err)
			}

			if diff := cmp.Diff(tt.wantSent, card.sent); diff != "" {
				t.Errorf("Commands mismatch (-want +got):\n%s", diff)
			}
			if len(trace) != tt.wantSteps {
				t.Errorf("Trace length = %d; want %d", len(trace), tt.wantSteps)
			}

			last := trace.Last().Response
			if got := upperHex(last.Data); got != tt.wantData {
				t.Errorf("Final data = %s; want %s", got, tt.wantData)
			}
			if last.Status != tt.wantSW {
				t.Errorf("Final SW = %04X; want %04X", uint16(last.Status), uint16(tt.wantSW))
			}
		})
	}
}

func TestClient_Send_DoesNotMutateCommand(t *testing.T) {
	cls := StandardClass
	cmd := ReadBinary(cls, 0, 0x10)
	card := &scriptedCard{responses: [][]byte{tlv.Hex("6C08"), tlv.Hex("9000")}}

	if _, err := NewClient(card).Send(cmd); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if cmd.Ne != 0x10 {
		t.Errorf("Original command Ne mutated to %d", cmd.Ne)
	}
}

func TestClient_Send_Errors(t *testing.T) {
	cls := StandardClass

	t.Run("Transmission failure", func(t *testing.T) {
		boom := errors.New("reader removed")
		_, err := NewClient(&scriptedCard{err: boom}).Send(ReadBinary(cls, 0, 0))
		if !errors.Is(err, boom) {
			t.Errorf("Expected wrapped transmission error, got %v", err)
		}
	})

	t.Run("Response shorter than trailer", func(t *testing.T) {
		card := &scriptedCard{responses: [][]byte{{0x90}}}
		if _, err := NewClient(card).Send(ReadBinary(cls, 0, 0)); err == nil {
			t.Error("Expected error for 1-byte response")
		}
	})

	t.Run("Endless 61XX", func(t *testing.T) {
		responses := make([][]byte, MaxProtocolSteps+1)
		for i := range responses {
			responses[i] = tlv.Hex("6110")
		}
		trace, err := NewClient(&scriptedCard{responses: responses}).Send(ReadBinary(cls, 0, 0))
		if !errors.Is(err, ErrTooManySteps) {
			t.Fatalf("Expected ErrTooManySteps, got %v", err)
		}
		if len(trace) != MaxProtocolSteps {
			t.Errorf("Trace length = %d; want %d", len(trace), MaxProtocolSteps)
		}
	})
}

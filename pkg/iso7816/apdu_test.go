package iso7816

import (
	"bytes"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/gregLibert/chipcard/pkg/tlv"
)

func TestCommandAPDU_Encoding(t *testing.T) {
	sel := instruction(INS_SELECT)
	read := instruction(INS_READ_BINARY)
	longPath := bytes.Repeat([]byte{0xDF, 0x01}, 130)

	tests := []struct {
		name string
		cmd  *CommandAPDU
		want []byte
	}{
		{"Case 1, SELECT MF by empty path", NewCommandAPDU(StandardClass, sel, 0x08, 0x0C, nil, 0), tlv.Hex("00 A4 08 0C")},
		{"Case 3 short, SELECT EF.GDO", NewCommandAPDU(StandardClass, sel, 0x02, 0x0C, tlv.Hex("2F02"), 0), tlv.Hex("00 A4 02 0C 02 2F02")},
		{"Case 2 short, Le 00 is 256", NewCommandAPDU(StandardClass, read, 0x00, 0x00, nil, MaxShortLe), tlv.Hex("00 B0 00 00 00")},
		{"Case 2 short, offset 0x0110", NewCommandAPDU(StandardClass, read, 0x01, 0x10, nil, 16), tlv.Hex("00 B0 01 10 10")},
		{"Case 4 short", NewCommandAPDU(StandardClass, sel, 0x04, 0x00, tlv.Hex("A000000359"), 10), tlv.Hex("00 A4 04 00 05 A000000359 0A")},
		{"Case 3 extended, 260 bytes of data", NewCommandAPDU(StandardClass, sel, 0x08, 0x0C, longPath, 0), append(tlv.Hex("00 A4 08 0C 00 0104"), longPath...)},
		{"Case 2 extended, Le 0000 is 65536", NewCommandAPDU(StandardClass, read, 0x00, 0x00, nil, MaxExtendedLe), tlv.Hex("00 B0 00 00 00 0000")},
		{"Case 2 extended, Le 300", NewCommandAPDU(StandardClass, read, 0x00, 0x00, nil, 300), tlv.Hex("00 B0 00 00 00 012C")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.cmd.Bytes()
			if err != nil {
				t.Fatalf("Bytes() failed: %v", err)
			}
			if !bytes.Equal(got, tt.want) {
				t.Errorf("APDU mismatch\nwant: % X\ngot:  % X", tt.want, got)
			}
		})
	}
}

func TestParseResponseAPDU(t *testing.T) {
	tests := []struct {
		name    string
		raw     []byte
		want    *ResponseAPDU
		wantErr bool
	}{
		{"Data and 9000", tlv.Hex("5A 02 12 34 90 00"), &ResponseAPDU{Data: tlv.Hex("5A021234"), Status: SW_NO_ERROR}, false},
		{"EOF warning", tlv.Hex("12 31 62 82"), &ResponseAPDU{Data: tlv.Hex("1231"), Status: SW_WARN_EOF_REACHED}, false},
		{"Status only", tlv.Hex("6A 82"), &ResponseAPDU{Data: []byte{}, Status: SW_ERR_FILE_NOT_FOUND}, false},
		{"Single byte", tlv.Hex("90"), nil, true},
		{"Empty", nil, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseResponseAPDU(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseResponseAPDU() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if !bytes.Equal(got.Data, tt.want.Data) || got.Status != tt.want.Status {
				t.Errorf("ParseResponseAPDU() = %X %04X; want %X %04X", got.Data, uint16(got.Status), tt.want.Data, uint16(tt.want.Status))
			}
		})
	}
}

func TestCommandAPDU_EncodingLimits(t *testing.T) {
	cls := StandardClass
	ins := instruction(INS_READ_BINARY)

	if _, err := NewCommandAPDU(cls, ins, 0, 0, nil, MaxExtendedLe+1).Bytes(); err == nil {
		t.Error("Expected error for Ne above MaxExtendedLe")
	}
	if _, err := NewCommandAPDU(cls, ins, 0, 0, make([]byte, MaxExtendedLc+1), 0).Bytes(); err == nil {
		t.Error("Expected error for Nc above MaxExtendedLc")
	}
}

func TestParseCommandAPDU(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		ins      InsCode
		p1, p2   byte
		dataLen  int
		expectNe int
	}{
		{"Case 1", "00A40000", INS_SELECT, 0x00, 0x00, 0, 0},
		{"Case 2 Short (READ BINARY Le=256)", "00B0000000", INS_READ_BINARY, 0x00, 0x00, 0, 256},
		{"Case 2 Short (READ BINARY offset 0x0100, Le=16)", "00B0010010", INS_READ_BINARY, 0x01, 0x00, 0, 16},
		{"Case 3 Short (SELECT EF)", "00A4020C022F02", INS_SELECT, 0x02, 0x0C, 2, 0},
		{"Case 4 Short", "00A4000001010A", INS_SELECT, 0x00, 0x00, 1, 10},
		{"Case 2 Extended (Le=65536)", "00B00000000000", INS_READ_BINARY, 0x00, 0x00, 0, 65536},
		{"Case 2 Extended (Le=300)", "00B0000000012C", INS_READ_BINARY, 0x00, 0x00, 0, 300},
		{"Case 4 Extended", "00A4000000000201020000", INS_SELECT, 0x00, 0x00, 2, 65536},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, _ := hex.DecodeString(tt.raw)
			cmd, err := ParseCommandAPDU(raw)
			if err != nil {
				t.Fatalf("ParseCommandAPDU(%s) failed: %v", tt.raw, err)
			}
			if cmd.Instruction.Raw != tt.ins || cmd.P1 != tt.p1 || cmd.P2 != tt.p2 {
				t.Errorf("Header mismatch: got %s", cmd)
			}
			if len(cmd.Data) != tt.dataLen {
				t.Errorf("Data length = %d; want %d", len(cmd.Data), tt.dataLen)
			}
			if cmd.Ne != tt.expectNe {
				t.Errorf("Ne = %d; want %d", cmd.Ne, tt.expectNe)
			}

			// The parsed command must encode back to the same bytes.
			back, err := cmd.Bytes()
			if err != nil {
				t.Fatalf("Re-encoding failed: %v", err)
			}
			if got := strings.ToUpper(hex.EncodeToString(back)); got != tt.raw {
				t.Errorf("Re-encoding mismatch\nExpected: %s\nGot:      %s", tt.raw, got)
			}
		})
	}
}

func TestParseCommandAPDU_Malformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"Truncated header", "00B000"},
		{"Reserved CLA", "FFB0000000"},
		{"Invalid INS 6X", "0060000000"},
		{"Short Lc longer than body", "00A4000005AABB"},
		{"Lone extended marker", "00B0000000AA"},
		{"Extended Lc zero", "00A40000000000AA"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, _ := hex.DecodeString(tt.raw)
			if _, err := ParseCommandAPDU(raw); err == nil {
				t.Errorf("ParseCommandAPDU(%s) expected error, got nil", tt.raw)
			}
		})
	}
}

func TestResponseAPDU_Bytes(t *testing.T) {
	raw, _ := hex.DecodeString("CAFE6282")
	resp, err := ParseResponseAPDU(raw)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if resp.Status != SW_WARN_EOF_REACHED {
		t.Errorf("Wrong status: got %04X", uint16(resp.Status))
	}
	if got := hex.EncodeToString(resp.Bytes()); got != "cafe6282" {
		t.Errorf("Bytes() = %s; want cafe6282", got)
	}
}

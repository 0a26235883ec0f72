package iso7816

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/gregLibert/chipcard/pkg/tlv"
)

func TestSelectCommands(t *testing.T) {
	sm, err := NewClass(0x0C)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		cmd  *CommandAPDU
		want []byte
	}{
		{"Master file", SelectMF(StandardClass), tlv.Hex("00 A4 00 0C 02 3F 00")},
		{"EF.GDO by FID", SelectByFID(StandardClass, 0x2F02), tlv.Hex("00 A4 00 0C 02 2F 02")},
		{"EF under current DF", SelectEF(StandardClass, 0xA600), tlv.Hex("00 A4 02 0C 02 A6 00")},
		{"EF under current DF, secure messaging class", SelectEF(sm, 0xA600), tlv.Hex("0C A4 02 0C 02 A6 00")},
		{"Path, MF prefix dropped", SelectByPath(StandardClass, 0x3F00, 0xDF01, 0xEF02), tlv.Hex("00 A4 08 0C 04 DF 01 EF 02")},
		{"Path to the MF itself", SelectByPath(StandardClass, 0x3F00), tlv.Hex("00 A4 08 0C")},
		{"Parent DF asking for the FCP", NewSelectCommand(StandardClass, SelectParentDF, FirstOrOnlyOccurrence, ReturnFCP, nil), tlv.Hex("00 A4 03 04 00")},
		{"Next occurrence by name, no Le under T=0", NewSelectCommand(StandardClass, SelectByDFName, NextOccurrence, ReturnFCI, tlv.Hex("A000000359")), tlv.Hex("00 A4 04 02 05 A0 00 00 03 59")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.cmd.Bytes()
			if err != nil {
				t.Fatalf("Bytes() failed: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("APDU mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseFileIDs(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		want    []uint16
		wantErr bool
	}{
		{"Single FID", tlv.Hex("2F02"), []uint16{0x2F02}, false},
		{"Path", tlv.Hex("DF01 EF02"), []uint16{0xDF01, 0xEF02}, false},
		{"Empty", nil, []uint16{}, false},
		{"Odd length", tlv.Hex("2F"), nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFileIDs(tt.data)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFileIDs() error = %v, wantErr %v", err, tt.wantErr)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseFileIDs() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSelectNames(t *testing.T) {
	tests := []struct {
		got, want string
	}{
		{SelectPathFromMF.String(), "Select Path from MF"},
		{SelectionMethod(0x0F).String(), "Unknown Method (0x0F)"},
		{PreviousOccurrence.String(), "Previous"},
		{FileOccurrence(7).String(), "Unknown Occurrence"},
		{ReturnNoData.String(), "No Response Data"},
		{ReturnFMD.String(), "Return FMD"},
		{SelectionControl(0x01).String(), "Unknown Control"},
	}

	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("got %q, want %q", tt.got, tt.want)
		}
	}
}

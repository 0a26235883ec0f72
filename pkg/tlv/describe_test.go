package tlv

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/moov-io/bertlv"
)

// efID mirrors the layout of a SECCOS EF.ID record.
type efID struct {
	Issuer    []byte `tlv:"42" fmt:"ascii"`
	Sequence  []byte `tlv:"5F34" fmt:"int"`
	Signature []byte // no tag
	Empty     []byte `tlv:"9F08"`
	NotBytes  string `tlv:"50"`
	Unknown   []bertlv.TLV
}

func TestWriteStructFields(t *testing.T) {
	rec := efID{
		Issuer:    []byte{'S', 'P', 'K', 0x00},
		Sequence:  []byte{0x01, 0x02},
		Signature: []byte{0xCA, 0xFE},
		NotBytes:  "ignored",
		Unknown: []bertlv.TLV{
			{Tag: "DF20", Value: []byte{0x12, 0x34}},
		},
	}

	want := func(prefix string) []string {
		return []string{
			`    - ` + prefix + `.Issuer (42): 53504B00 ("SPK.")`,
			"    - " + prefix + ".Sequence (5F34): 0102 (Dec: 258)",
			"    - " + prefix + ".Signature: CAFE",
			"    - " + prefix + ".Unknown Tag DF20: 1234",
		}
	}

	tests := []struct {
		name          string
		prefix        string
		input         any
		expectedLines []string
	}{
		{"Pointer", "EF.ID", &rec, want("EF.ID")},
		{"Value", "Rec", rec, want("Rec")},
		{"Nil pointer", "Nil", (*efID)(nil), []string{""}},
		{"Not a struct", "Raw", []byte{0x01}, []string{""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var sb strings.Builder
			WriteStructFields(&sb, tt.prefix, tt.input)

			if diff := cmp.Diff(tt.expectedLines, strings.Split(sb.String(), "\n")); diff != "" {
				t.Errorf("Mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestWriteStructFields_Appends(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("[=] EF.GDO")
	WriteStructFields(&sb, "GDO", struct {
		ICCSN []byte `tlv:"5A"`
	}{ICCSN: Hex("6728")})

	if got, want := sb.String(), "[=] EF.GDO\n    - GDO.ICCSN (5A): 6728"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestMakeSafeASCII(t *testing.T) {
	tests := []struct {
		in   []byte
		want string
	}{
		{[]byte("DE70050000"), "DE70050000"},
		{[]byte{0x41, 0x42, 0x00, 0x1F, 0x7F, 0x43}, "AB...C"},
		{[]byte{'M', 0xFC, 'n'}, "M.n"},
	}

	for _, tt := range tests {
		if got := MakeSafeASCII(tt.in); got != tt.want {
			t.Errorf("MakeSafeASCII(%X) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWriteStructFields_TextFormats(t *testing.T) {
	record := struct {
		Name    []byte `tlv:"5F20" fmt:"latin1"`
		Number  []byte `tlv:"5A" fmt:"bcd"`
		Expiry  []byte `tlv:"5F24" fmt:"date"`
		Garbled []byte `tlv:"5F25" fmt:"date"`
	}{
		Name:    []byte{'J', 0xF6, 'r', 'g'},
		Number:  Hex("67 28 01 23 4F"),
		Expiry:  Hex("28 12 31"),
		Garbled: Hex("28 13 01"),
	}

	var sb strings.Builder
	WriteStructFields(&sb, "GDO", record)

	expected := []string{
		`    - GDO.Name (5F20): 4AF67267 ("Jörg")`,
		"    - GDO.Number (5A): 672801234F (BCD: 672801234)",
		"    - GDO.Expiry (5F24): 281231 (2028-12-31)",
		"    - GDO.Garbled (5F25): 281301 (BCD: 281301)",
	}
	if diff := cmp.Diff(expected, strings.Split(sb.String(), "\n")); diff != "" {
		t.Errorf("Mismatch (-want +got):\n%s", diff)
	}
}

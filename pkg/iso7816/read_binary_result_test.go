package iso7816

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestReadBinaryResult_Describe(t *testing.T) {
	resp := ResponseAPDU{
		Data:   []byte("SECCOS"),
		Status: SW_NO_ERROR,
	}

	trace := Trace{
		{Command: ReadBinary(Class{}, 0x0100, 6), Response: &resp},
	}

	res, err := NewReadBinaryResult(trace)
	if err != nil {
		t.Fatalf("Setup failed: %v", err)
	}

	expectedLines := []string{
		"=== READ BINARY COMMAND REPORT ===",
		"[1] Command: READ BINARY",
		"    + Offset:  0100 (256)",
		"    + Le:      06 -> 6 bytes",
		"    + Result:  [90 00] [OK] SW_NO_ERROR",
		"",
		"[=] DATA OUTCOME:",
		"    + Length: 6 bytes",
		"    + Dump:   534543434F53",
		`    + ASCII:  "SECCOS"`,
	}

	if diff := cmp.Diff(expectedLines, strings.Split(res.Describe(), "\n")); diff != "" {
		t.Errorf("Report mismatch (-want +got):\n%s", diff)
	}
	if string(res.Data()) != "SECCOS" {
		t.Errorf("Data() = %q", res.Data())
	}
}

func TestReadBinaryResult_Describe_WrongLength(t *testing.T) {
	first := ResponseAPDU{Status: NewStatusWord(0x6C, 0x02)}
	second := ResponseAPDU{Data: []byte{0x5A, 0x00}, Status: SW_WARN_EOF_REACHED}

	trace := Trace{
		{Command: ReadBinary(Class{}, 0, 0), Response: &first},
		{Command: ReadBinary(Class{}, 0, 2), Response: &second},
	}

	res, _ := NewReadBinaryResult(trace)

	expectedLines := []string{
		"=== READ BINARY COMMAND REPORT ===",
		"[1] Command: READ BINARY",
		"    + Offset:  0000 (0)",
		"    + Le:      00 -> All available bytes",
		"    + Result:  [6C 02] [!!] Wrong length, correct is 02 (2)",
		"",
		"[2] Protocol: Auto-handling (2 steps)",
		"    + Final SW: [6282]",
		"[=] DATA OUTCOME:",
		"    + Length: 2 bytes",
		"    + Dump:   5A00",
		`    + ASCII:  "Z."`,
	}

	if diff := cmp.Diff(expectedLines, strings.Split(res.Describe(), "\n")); diff != "" {
		t.Errorf("Report mismatch (-want +got):\n%s", diff)
	}
	if len(res.Data()) != 2 {
		t.Errorf("EOF warning should still expose data, got %X", res.Data())
	}
}

func TestNewReadBinaryResult_Errors(t *testing.T) {
	if _, err := NewReadBinaryResult(nil); err == nil {
		t.Error("Expected error for empty trace")
	}

	wrong := Trace{{Command: ReadRecord(Class{}, 1, 1), Response: &ResponseAPDU{Status: SW_NO_ERROR}}}
	if _, err := NewReadBinaryResult(wrong); err == nil {
		t.Error("Expected error for trace starting with READ RECORD")
	}

	failed := Trace{{Command: ReadBinary(Class{}, 0, 0), Response: &ResponseAPDU{Status: SW_ERR_FILE_NOT_FOUND}}}
	res, err := NewReadBinaryResult(failed)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if res.Data() != nil {
		t.Errorf("Failed read should expose no data, got %X", res.Data())
	}
}

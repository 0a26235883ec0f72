package iso7816

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestReadRecordResult_Describe(t *testing.T) {
	// EF.ID (SFI 25) of a SECCOS card: card number, expiry.
	record := []byte{0x67, 0x28, 0x00, 0x12, 0x34, 0x56, 0x78, 0x90, 0x12, 0x3F, 0x28, 0x12, 0x31}
	trace := Trace{
		{Command: ReadRecord(StandardClass, 25, 1), Response: &ResponseAPDU{Data: record, Status: SW_NO_ERROR}},
	}

	res, err := NewReadRecordResult(trace)
	if err != nil {
		t.Fatalf("Setup failed: %v", err)
	}

	expectedLines := []string{
		"=== READ RECORD COMMAND REPORT ===",
		"[1] Command: READ RECORD",
		"    + Target:  SFI 19 (25)",
		"    + P1:      01 -> Record Number 1",
		"    + Mode:    04 -> Ref Num: Read Record P1",
		"    + Le:      00 -> All available bytes",
		"    + Result:  [90 00] [OK] SW_NO_ERROR",
		"",
		"[=] DATA OUTCOME:",
		"    + Length: 13 bytes",
		"    + Dump:   6728001234567890123F281231",
		`    + ASCII:  "g(..4Vx..?(.1"`,
	}

	if diff := cmp.Diff(expectedLines, strings.Split(res.Describe(), "\n")); diff != "" {
		t.Errorf("Report mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(record, res.Data()); diff != "" {
		t.Errorf("Data() mismatch (-want +got):\n%s", diff)
	}
}

func TestReadRecordResult_Describe_WrongLength(t *testing.T) {
	first := ResponseAPDU{Status: NewStatusWord(0x6C, 0x0A)}
	second := ResponseAPDU{Data: []byte("DE70050000"), Status: SW_NO_ERROR}

	trace := Trace{
		{Command: ReadRecordLength(StandardClass, 3, 2, 0x20), Response: &first},
		{Command: ReadRecordLength(StandardClass, 3, 2, 0x0A), Response: &second},
	}

	res, err := NewReadRecordResult(trace)
	if err != nil {
		t.Fatalf("Setup failed: %v", err)
	}

	expectedLines := []string{
		"=== READ RECORD COMMAND REPORT ===",
		"[1] Command: READ RECORD",
		"    + Target:  SFI 03 (3)",
		"    + P1:      02 -> Record Number 2",
		"    + Mode:    04 -> Ref Num: Read Record P1",
		"    + Le:      20 -> 32 bytes",
		"    + Result:  [6C 0A] [!!] Wrong length, correct is 0A (10)",
		"",
		"[2] Protocol: Auto-handling (2 steps)",
		"    + Final SW: [9000]",
		"[=] DATA OUTCOME:",
		"    + Length: 10 bytes",
		"    + Dump:   44453730303530303030",
		`    + ASCII:  "DE70050000"`,
	}

	if diff := cmp.Diff(expectedLines, strings.Split(res.Describe(), "\n")); diff != "" {
		t.Errorf("Report mismatch (-want +got):\n%s", diff)
	}
}

func TestReadRecordResult_NotFound(t *testing.T) {
	cmd := NewReadRecordCommand(StandardClass, 2, 0xFE, RefByID_NextOccurrence)
	trace := Trace{
		{Command: cmd, Response: &ResponseAPDU{Status: SW_ERR_RECORD_NOT_FOUND}},
	}

	res, err := NewReadRecordResult(trace)
	if err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	if res.Data() != nil {
		t.Errorf("Data() = %X, want nil on error", res.Data())
	}

	report := res.Describe()
	for _, want := range []string{
		"    + P1:      FE -> Record Identifier FE",
		"    + Mode:    02 -> Ref ID: Next Occurrence",
		"    + Result:  [6A 83] [!!] [6A83] SW_ERR_RECORD_NOT_FOUND",
		"    - No Data Received.",
	} {
		if !strings.Contains(report, want) {
			t.Errorf("report missing %q:\n%s", want, report)
		}
	}
}

func TestNewReadRecordResult_WrongTrace(t *testing.T) {
	trace := Trace{
		{Command: ReadBinary(StandardClass, 0, 0), Response: &ResponseAPDU{Status: SW_NO_ERROR}},
	}
	if _, err := NewReadRecordResult(trace); err == nil {
		t.Error("expected an error for a READ BINARY trace")
	}
	if _, err := NewReadRecordResult(nil); err == nil {
		t.Error("expected an error for an empty trace")
	}
}

package iso7816

import (
	"fmt"
	"strings"
)

// ReadRecordResult represents the outcome of a READ RECORD command execution.
type ReadRecordResult struct {
	Trace
}

// NewReadRecordResult wraps a trace that starts with a READ RECORD command.
func NewReadRecordResult(t Trace) (*ReadRecordResult, error) {
	if err := checkTrace(t, INS_READ_RECORD); err != nil {
		return nil, err
	}
	return &ReadRecordResult{Trace: t}, nil
}

// Data returns the record, or nil when the final status is not a success.
func (r *ReadRecordResult) Data() []byte {
	last := r.Last()
	if !last.IsSuccess() {
		return nil
	}
	return last.Response.Data
}

// Describe renders the command, its parameters and the outcome as a
// multi-line report.
func (r *ReadRecordResult) Describe() string {
	var sb strings.Builder

	sb.WriteString("=== READ RECORD COMMAND REPORT ===\n")

	tx0 := r.Trace[0]
	cmd := tx0.Command

	ref := ParseRecordReference(cmd.P2)

	sb.WriteString("[1] Command: READ RECORD\n")

	targetStr := "Current EF"
	if ref.SFI > 0 {
		targetStr = fmt.Sprintf("SFI %02X (%d)", ref.SFI, ref.SFI)
	}
	fmt.Fprintf(&sb, "    + Target:  %s\n", targetStr)

	p1Desc := fmt.Sprintf("Record Identifier %02X", cmd.P1)
	switch {
	case !ref.Mode.ByNumber():
	case cmd.P1 == 0:
		p1Desc = "Current Record"
	default:
		p1Desc = fmt.Sprintf("Record Number %d", cmd.P1)
	}

	fmt.Fprintf(&sb, "    + P1:      %02X -> %s\n", cmd.P1, p1Desc)
	fmt.Fprintf(&sb, "    + Mode:    %02X -> %s\n", byte(ref.Mode), ref.Mode)
	writeLeLine(&sb, cmd.Ne)

	writeResultLine(&sb, tx0.Response.Status)
	sb.WriteString("\n")

	writeOutcome(&sb, r.Trace)

	return strings.TrimRight(sb.String(), "\n")
}

package iso7816

import (
	"fmt"
	"strings"
)

// ReadBinaryResult represents the outcome of a READ BINARY command execution.
type ReadBinaryResult struct {
	Trace
}

// NewReadBinaryResult wraps a trace that starts with a READ BINARY command.
func NewReadBinaryResult(t Trace) (*ReadBinaryResult, error) {
	if err := checkTrace(t, INS_READ_BINARY); err != nil {
		return nil, err
	}
	return &ReadBinaryResult{Trace: t}, nil
}

// Data returns the payload of the final transaction. A 6282 (end of file)
// response still carries the bytes that could be read.
func (r *ReadBinaryResult) Data() []byte {
	last := r.Last()
	if !last.IsSuccess() && last.Response.Status != SW_WARN_EOF_REACHED {
		return nil
	}
	return last.Response.Data
}

// Describe generates a detailed, ASCII-formatted report of the read operation.
func (r *ReadBinaryResult) Describe() string {
	var sb strings.Builder

	sb.WriteString("=== READ BINARY COMMAND REPORT ===\n")

	tx0 := r.Trace[0]
	cmd := tx0.Command
	offset := cmd.Offset()

	sb.WriteString("[1] Command: READ BINARY\n")
	fmt.Fprintf(&sb, "    + Offset:  %04X (%d)\n", offset, offset)

	writeLeLine(&sb, cmd.Ne)

	writeResultLine(&sb, tx0.Response.Status)
	sb.WriteString("\n")

	writeOutcome(&sb, r.Trace)

	return strings.TrimRight(sb.String(), "\n")
}

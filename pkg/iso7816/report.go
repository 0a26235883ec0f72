package iso7816

import (
	"fmt"
	"strings"

	"github.com/gregLibert/chipcard/pkg/tlv"
)

// Shared building blocks of the command reports (READ BINARY, READ RECORD).

// writeResultLine appends the "+ Result:" line describing the first response of the trace.
func writeResultLine(sb *strings.Builder, status StatusWord) {
	sw1 := status.SW1()
	sw2 := status.SW2()

	resultMsg := "[OK]"
	resultDesc := "SW_NO_ERROR"

	switch {
	case sw1 == 0x61:
		resultDesc = fmt.Sprintf("%02X (%d) bytes still available", sw2, sw2)
	case sw1 == 0x6C:
		resultMsg = "[!!]"
		resultDesc = fmt.Sprintf("Wrong length, correct is %02X (%d)", sw2, sw2)
	case status == SW_WARN_EOF_REACHED:
		resultMsg = "[~~]"
		resultDesc = "End of file reached before Le bytes"
	case status != SW_NO_ERROR:
		resultMsg = "[!!]"
		resultDesc = status.Verbose()
	}

	fmt.Fprintf(sb, "    + Result:  [%02X %02X] %s %s\n", sw1, sw2, resultMsg, resultDesc)
}

// writeLeLine appends the "+ Le:" line for a command expecting ne bytes.
func writeLeLine(sb *strings.Builder, ne int) {
	if ne >= MaxShortLe {
		sb.WriteString("    + Le:      00 -> All available bytes\n")
		return
	}
	fmt.Fprintf(sb, "    + Le:      %02X -> %d bytes\n", ne, ne)
}

// writeOutcome appends the protocol summary and the data dump of the final transaction.
func writeOutcome(sb *strings.Builder, t Trace) {
	lastTx := t.Last()
	finalPayload := lastTx.Response.Data

	if len(t) > 1 {
		fmt.Fprintf(sb, "[2] Protocol: Auto-handling (%d steps)\n", len(t))
		fmt.Fprintf(sb, "    + Final SW: [%04X]\n", uint16(lastTx.Response.Status))
	}

	sb.WriteString("[=] DATA OUTCOME:\n")
	if len(finalPayload) > 0 {
		fmt.Fprintf(sb, "    + Length: %d bytes\n", len(finalPayload))
		fmt.Fprintf(sb, "    + Dump:   %X\n", finalPayload)
		fmt.Fprintf(sb, "    + ASCII:  %q\n", tlv.MakeSafeASCII(finalPayload))
	} else {
		sb.WriteString("    - No Data Received.\n")
	}
}

// checkTrace validates that t is non-empty and starts with the expected instruction.
func checkTrace(t Trace, ins InsCode) error {
	if len(t) == 0 {
		return fmt.Errorf("cannot create result from empty trace")
	}
	if t[0].Command == nil || t[0].Response == nil {
		return fmt.Errorf("trace starts with an incomplete transaction")
	}
	if t[0].Command.Instruction.Raw != ins {
		return fmt.Errorf("trace must start with %s command (got %02X)", ins, byte(t[0].Command.Instruction.Raw))
	}
	return nil
}

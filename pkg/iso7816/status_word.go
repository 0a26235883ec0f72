package iso7816

import (
	"fmt"

	"github.com/gregLibert/chipcard/pkg/bits"
)

// STATUS WORDS:
// Most status words are fixed values (9000, 6A82...). A few ranges carry a
// value in SW2 and are decoded here:
//
//	61XX  XX more bytes are waiting for GET RESPONSE (T=0)
//	6CXX  wrong Le, XX is the length the card can deliver (T=0)
//	62XX, 64XX with XX in 02..80: triggering by the card, XX bytes to query
//	63CX  counter X, e.g. the PIN retries left after a failed VERIFY
//
// READ BINARY on a SECCOS card typically answers 9000, 6282 when the file
// ends before Le bytes, 6B00 for an offset past the end, 6986 when no EF is
// selected and 6982 when the access condition of the file is not met.

// StatusWord is SW1-SW2.
type StatusWord uint16

// NewStatusWord creates a StatusWord instance from two separate bytes.
func NewStatusWord(sw1, sw2 byte) StatusWord {
	return StatusWord(bits.Join16(sw1, sw2))
}

// SW1 returns the first byte (high byte) of the status word.
func (sw StatusWord) SW1() byte {
	hi, _ := bits.Split16(uint16(sw))
	return hi
}

// SW2 returns the second byte (low byte) of the status word.
func (sw StatusWord) SW2() byte {
	_, lo := bits.Split16(uint16(sw))
	return lo
}

// IsTriggeringByCard reports 62XX/64XX with XX in 02..80.
func (sw StatusWord) IsTriggeringByCard() bool {
	sw1, sw2 := sw.SW1(), sw.SW2()
	return (sw1 == 0x62 || sw1 == 0x64) && sw2 >= 0x02 && sw2 <= 0x80
}

// Counter returns X for a 63CX status.
func (sw StatusWord) Counter() (int, bool) {
	if sw.SW1() != 0x63 || bits.GetRange(sw.SW2(), 8, 5) != 0x0C {
		return 0, false
	}
	return int(bits.GetRange(sw.SW2(), 4, 1)), true
}

// IsCounter reports a 63CX status.
func (sw StatusWord) IsCounter() bool {
	_, ok := sw.Counter()
	return ok
}

// IsSuccess reports 9000 or 61XX.
func (sw StatusWord) IsSuccess() bool {
	return sw == SW_NO_ERROR || sw.SW1() == 0x61
}

// Retry reports whether the status asks the host to repeat or continue the
// exchange (61XX or 6CXX), and the length the card announced in SW2.
func (sw StatusWord) Retry() (int, bool) {
	switch sw.SW1() {
	case 0x61, 0x6C:
		if sw.SW2() == 0 {
			return MaxShortLe, true
		}
		return int(sw.SW2()), true
	}
	return 0, false
}

// IsWarning reports 62XX or 63XX.
func (sw StatusWord) IsWarning() bool {
	sw1 := sw.SW1()
	return sw1 == 0x62 || sw1 == 0x63
}

// IsError reports 64XX to 6FXX.
func (sw StatusWord) IsError() bool {
	sw1 := sw.SW1()
	return sw1 >= 0x64 && sw1 <= 0x6F
}

// Verbose returns a human-readable description of the status word. Ranges
// carrying a value in SW2 are decoded first, then the known codes, then
// the SW1 category.
func (sw StatusWord) Verbose() string {
	sw1, sw2 := sw.SW1(), sw.SW2()

	switch {
	case sw.IsTriggeringByCard():
		action := "Warning (Triggering)"
		if sw1 == 0x64 {
			action = "Error/Abort (Triggering)"
		}
		return fmt.Sprintf("%s: Card expects query of %d bytes", action, sw2)
	case sw.IsCounter():
		n, _ := sw.Counter()
		return fmt.Sprintf("Warning: State changed, counter = %d", n)
	case sw1 == 0x61:
		return fmt.Sprintf("Process completed, %d bytes available", sw2)
	case sw1 == 0x6C:
		return fmt.Sprintf("Wrong length, correct Le is %d", sw2)
	}

	if name, ok := statusWordNames[sw]; ok {
		return fmt.Sprintf("[%04X] %s", uint16(sw), name)
	}
	if category, ok := sw1Categories[sw1]; ok {
		return fmt.Sprintf("[%04X] %s", uint16(sw), category)
	}
	return fmt.Sprintf("[%04X] Unknown Status", uint16(sw))
}

var sw1Categories = map[byte]string{
	0x62: "Warning: NV memory unchanged",
	0x63: "Warning: NV memory changed",
	0x64: "Execution Error: NV memory unchanged",
	0x65: "Execution Error: NV memory changed",
	0x66: "Execution Error: Security issue",
	0x68: "Checking Error: Function not supported",
	0x69: "Checking Error: Command not allowed",
	0x6A: "Checking Error: Wrong parameters",
}

// Standard Status Word codes defined in ISO/IEC 7816-4.
const (
	SW_NO_ERROR StatusWord = 0x9000

	SW_WARN_NO_INFO              StatusWord = 0x6200
	SW_WARN_TRIGGERING_BY_CARD   StatusWord = 0x6202
	SW_WARN_DATA_CORRUPTED       StatusWord = 0x6281
	SW_WARN_EOF_REACHED          StatusWord = 0x6282
	SW_WARN_FILE_DEACTIVATED     StatusWord = 0x6283
	SW_WARN_FCI_BAD_FORMAT       StatusWord = 0x6284
	SW_WARN_TERMINATION_STATE    StatusWord = 0x6285
	SW_WARN_NO_INPUT_FROM_SENSOR StatusWord = 0x6286

	SW_WARN_NV_CHANGED_NO_INFO StatusWord = 0x6300
	SW_WARN_FILE_FILLED        StatusWord = 0x6381
	SW_WARN_COUNTER_0          StatusWord = 0x63C0

	SW_ERR_EXEC_NO_INFO            StatusWord = 0x6400
	SW_ERR_EXEC_IMMEDIATE_RESPONSE StatusWord = 0x6401
	SW_ERR_EXEC_TRIGGERING_BY_CARD StatusWord = 0x6402

	SW_ERR_NV_CHANGED_NO_INFO StatusWord = 0x6500
	SW_ERR_MEMORY_FAILURE     StatusWord = 0x6581
	SW_ERR_SECURITY_ISSUE     StatusWord = 0x6600

	SW_ERR_WRONG_LENGTH              StatusWord = 0x6700
	SW_ERR_CHECKING_NO_INFO          StatusWord = 0x6800
	SW_ERR_LOGICAL_CHANNEL_NOT_SUPP  StatusWord = 0x6881
	SW_ERR_SECURE_MESSAGING_NOT_SUPP StatusWord = 0x6882
	SW_ERR_LAST_COMMAND_EXPECTED     StatusWord = 0x6883
	SW_ERR_CHAINING_NOT_SUPP         StatusWord = 0x6884

	SW_ERR_CMD_NOT_ALLOWED_NO_INFO StatusWord = 0x6900
	SW_ERR_CMD_INCOMPATIBLE_FILE   StatusWord = 0x6981
	SW_ERR_SECURITY_STATUS_NOT_SAT StatusWord = 0x6982
	SW_ERR_AUTH_METHOD_BLOCKED     StatusWord = 0x6983
	SW_ERR_REF_DATA_NOT_USABLE     StatusWord = 0x6984
	SW_ERR_COND_OF_USE_NOT_SAT     StatusWord = 0x6985
	SW_ERR_CMD_NOT_ALLOWED_NO_EF   StatusWord = 0x6986
	SW_ERR_SM_OBJ_MISSING          StatusWord = 0x6987
	SW_ERR_SM_OBJ_INCORRECT        StatusWord = 0x6988

	SW_ERR_WRONG_PARAMS_NO_INFO   StatusWord = 0x6A00
	SW_ERR_INCORRECT_PARAMS_DATA  StatusWord = 0x6A80
	SW_ERR_FUNC_NOT_SUPPORTED     StatusWord = 0x6A81
	SW_ERR_FILE_NOT_FOUND         StatusWord = 0x6A82
	SW_ERR_RECORD_NOT_FOUND       StatusWord = 0x6A83
	SW_ERR_NOT_ENOUGH_MEMORY      StatusWord = 0x6A84
	SW_ERR_NC_INCONSISTENT_TLV    StatusWord = 0x6A85
	SW_ERR_INCORRECT_PARAMS_P1P2  StatusWord = 0x6A86
	SW_ERR_NC_INCONSISTENT_P1P2   StatusWord = 0x6A87
	SW_ERR_REF_DATA_NOT_FOUND     StatusWord = 0x6A88
	SW_ERR_FILE_ALREADY_EXISTS    StatusWord = 0x6A89
	SW_ERR_DF_NAME_ALREADY_EXISTS StatusWord = 0x6A8A

	SW_ERR_WRONG_P1P2        StatusWord = 0x6B00
	SW_ERR_INS_INVALID       StatusWord = 0x6D00
	SW_ERR_CLA_NOT_SUPPORTED StatusWord = 0x6E00
	SW_ERR_UNKNOWN           StatusWord = 0x6F00
)

package iso7816

import "fmt"

// Names of the standard codes, used by String and Verbose.

var statusWordNames = map[StatusWord]string{
	SW_NO_ERROR:                      "SW_NO_ERROR",
	SW_WARN_NO_INFO:                  "SW_WARN_NO_INFO",
	SW_WARN_TRIGGERING_BY_CARD:       "SW_WARN_TRIGGERING_BY_CARD",
	SW_WARN_DATA_CORRUPTED:           "SW_WARN_DATA_CORRUPTED",
	SW_WARN_EOF_REACHED:              "SW_WARN_EOF_REACHED",
	SW_WARN_FILE_DEACTIVATED:         "SW_WARN_FILE_DEACTIVATED",
	SW_WARN_FCI_BAD_FORMAT:           "SW_WARN_FCI_BAD_FORMAT",
	SW_WARN_TERMINATION_STATE:        "SW_WARN_TERMINATION_STATE",
	SW_WARN_NO_INPUT_FROM_SENSOR:     "SW_WARN_NO_INPUT_FROM_SENSOR",
	SW_WARN_NV_CHANGED_NO_INFO:       "SW_WARN_NV_CHANGED_NO_INFO",
	SW_WARN_FILE_FILLED:              "SW_WARN_FILE_FILLED",
	SW_WARN_COUNTER_0:                "SW_WARN_COUNTER_0",
	SW_ERR_EXEC_NO_INFO:              "SW_ERR_EXEC_NO_INFO",
	SW_ERR_EXEC_IMMEDIATE_RESPONSE:   "SW_ERR_EXEC_IMMEDIATE_RESPONSE",
	SW_ERR_EXEC_TRIGGERING_BY_CARD:   "SW_ERR_EXEC_TRIGGERING_BY_CARD",
	SW_ERR_NV_CHANGED_NO_INFO:        "SW_ERR_NV_CHANGED_NO_INFO",
	SW_ERR_MEMORY_FAILURE:            "SW_ERR_MEMORY_FAILURE",
	SW_ERR_SECURITY_ISSUE:            "SW_ERR_SECURITY_ISSUE",
	SW_ERR_WRONG_LENGTH:              "SW_ERR_WRONG_LENGTH",
	SW_ERR_CHECKING_NO_INFO:          "SW_ERR_CHECKING_NO_INFO",
	SW_ERR_LOGICAL_CHANNEL_NOT_SUPP:  "SW_ERR_LOGICAL_CHANNEL_NOT_SUPP",
	SW_ERR_SECURE_MESSAGING_NOT_SUPP: "SW_ERR_SECURE_MESSAGING_NOT_SUPP",
	SW_ERR_LAST_COMMAND_EXPECTED:     "SW_ERR_LAST_COMMAND_EXPECTED",
	SW_ERR_CHAINING_NOT_SUPP:         "SW_ERR_CHAINING_NOT_SUPP",
	SW_ERR_CMD_NOT_ALLOWED_NO_INFO:   "SW_ERR_CMD_NOT_ALLOWED_NO_INFO",
	SW_ERR_CMD_INCOMPATIBLE_FILE:     "SW_ERR_CMD_INCOMPATIBLE_FILE",
	SW_ERR_SECURITY_STATUS_NOT_SAT:   "SW_ERR_SECURITY_STATUS_NOT_SAT",
	SW_ERR_AUTH_METHOD_BLOCKED:       "SW_ERR_AUTH_METHOD_BLOCKED",
	SW_ERR_REF_DATA_NOT_USABLE:       "SW_ERR_REF_DATA_NOT_USABLE",
	SW_ERR_COND_OF_USE_NOT_SAT:       "SW_ERR_COND_OF_USE_NOT_SAT",
	SW_ERR_CMD_NOT_ALLOWED_NO_EF:     "SW_ERR_CMD_NOT_ALLOWED_NO_EF",
	SW_ERR_SM_OBJ_MISSING:            "SW_ERR_SM_OBJ_MISSING",
	SW_ERR_SM_OBJ_INCORRECT:          "SW_ERR_SM_OBJ_INCORRECT",
	SW_ERR_WRONG_PARAMS_NO_INFO:      "SW_ERR_WRONG_PARAMS_NO_INFO",
	SW_ERR_INCORRECT_PARAMS_DATA:     "SW_ERR_INCORRECT_PARAMS_DATA",
	SW_ERR_FUNC_NOT_SUPPORTED:        "SW_ERR_FUNC_NOT_SUPPORTED",
	SW_ERR_FILE_NOT_FOUND:            "SW_ERR_FILE_NOT_FOUND",
	SW_ERR_RECORD_NOT_FOUND:          "SW_ERR_RECORD_NOT_FOUND",
	SW_ERR_NOT_ENOUGH_MEMORY:         "SW_ERR_NOT_ENOUGH_MEMORY",
	SW_ERR_NC_INCONSISTENT_TLV:       "SW_ERR_NC_INCONSISTENT_TLV",
	SW_ERR_INCORRECT_PARAMS_P1P2:     "SW_ERR_INCORRECT_PARAMS_P1P2",
	SW_ERR_NC_INCONSISTENT_P1P2:      "SW_ERR_NC_INCONSISTENT_P1P2",
	SW_ERR_REF_DATA_NOT_FOUND:        "SW_ERR_REF_DATA_NOT_FOUND",
	SW_ERR_FILE_ALREADY_EXISTS:       "SW_ERR_FILE_ALREADY_EXISTS",
	SW_ERR_DF_NAME_ALREADY_EXISTS:    "SW_ERR_DF_NAME_ALREADY_EXISTS",
	SW_ERR_WRONG_P1P2:                "SW_ERR_WRONG_P1P2",
	SW_ERR_INS_INVALID:               "SW_ERR_INS_INVALID",
	SW_ERR_CLA_NOT_SUPPORTED:         "SW_ERR_CLA_NOT_SUPPORTED",
	SW_ERR_UNKNOWN:                   "SW_ERR_UNKNOWN",
}

var insCodeNames = map[InsCode]string{
	INS_DEACTIVATE_FILE:              "INS_DEACTIVATE_FILE",
	INS_ERASE_RECORD:                 "INS_ERASE_RECORD",
	INS_ERASE_BINARY:                 "INS_ERASE_BINARY",
	INS_ERASE_BINARY_BER:             "INS_ERASE_BINARY_BER",
	INS_PERFORM_SCQL_OPERATION:       "INS_PERFORM_SCQL_OPERATION",
	INS_PERFORM_TRANSACTION_OPER:     "INS_PERFORM_TRANSACTION_OPER",
	INS_PERFORM_USER_OPERATION:       "INS_PERFORM_USER_OPERATION",
	INS_VERIFY:                       "INS_VERIFY",
	INS_VERIFY_BER:                   "INS_VERIFY_BER",
	INS_MANAGE_SECURITY_ENVIRONMENT:  "INS_MANAGE_SECURITY_ENVIRONMENT",
	INS_CHANGE_REFERENCE_DATA:        "INS_CHANGE_REFERENCE_DATA",
	INS_DISABLE_VERIF_REQ:            "INS_DISABLE_VERIF_REQ",
	INS_ENABLE_VERIF_REQ:             "INS_ENABLE_VERIF_REQ",
	INS_PERFORM_SECURITY_OPERATION:   "INS_PERFORM_SECURITY_OPERATION",
	INS_RESET_RETRY_COUNTER:          "INS_RESET_RETRY_COUNTER",
	INS_ACTIVATE_FILE:                "INS_ACTIVATE_FILE",
	INS_GENERATE_ASYMMETRIC_KEY_PAIR: "INS_GENERATE_ASYMMETRIC_KEY_PAIR",
	INS_MANAGE_CHANNEL:               "INS_MANAGE_CHANNEL",
	INS_EXTERNAL_AUTHENTICATE:        "INS_EXTERNAL_AUTHENTICATE",
	INS_GET_CHALLENGE:                "INS_GET_CHALLENGE",
	INS_GENERAL_AUTHENTICATE:         "INS_GENERAL_AUTHENTICATE",
	INS_GENERAL_AUTHENTICATE_BER:     "INS_GENERAL_AUTHENTICATE_BER",
	INS_INTERNAL_AUTHENTICATE:        "INS_INTERNAL_AUTHENTICATE",
	INS_SEARCH_BINARY:                "INS_SEARCH_BINARY",
	INS_SEARCH_BINARY_BER:            "INS_SEARCH_BINARY_BER",
	INS_SEARCH_RECORD:                "INS_SEARCH_RECORD",
	INS_SELECT:                       "INS_SELECT",
	INS_READ_BINARY:                  "INS_READ_BINARY",
	INS_READ_BINARY_BER:              "INS_READ_BINARY_BER",
	INS_READ_RECORD:                  "INS_READ_RECORD",
	INS_READ_RECORD_BER:              "INS_READ_RECORD_BER",
	INS_GET_RESPONSE:                 "INS_GET_RESPONSE",
	INS_ENVELOPE:                     "INS_ENVELOPE",
	INS_ENVELOPE_BER:                 "INS_ENVELOPE_BER",
	INS_GET_DATA:                     "INS_GET_DATA",
	INS_GET_DATA_BER:                 "INS_GET_DATA_BER",
	INS_WRITE_BINARY:                 "INS_WRITE_BINARY",
	INS_WRITE_BINARY_BER:             "INS_WRITE_BINARY_BER",
	INS_WRITE_RECORD:                 "INS_WRITE_RECORD",
	INS_UPDATE_BINARY:                "INS_UPDATE_BINARY",
	INS_UPDATE_BINARY_BER:            "INS_UPDATE_BINARY_BER",
	INS_PUT_DATA:                     "INS_PUT_DATA",
	INS_PUT_DATA_BER:                 "INS_PUT_DATA_BER",
	INS_UPDATE_RECORD:                "INS_UPDATE_RECORD",
	INS_UPDATE_RECORD_BER:            "INS_UPDATE_RECORD_BER",
	INS_CREATE_FILE:                  "INS_CREATE_FILE",
	INS_APPEND_RECORD:                "INS_APPEND_RECORD",
	INS_DELETE_FILE:                  "INS_DELETE_FILE",
	INS_TERMINATE_DF:                 "INS_TERMINATE_DF",
	INS_TERMINATE_EF:                 "INS_TERMINATE_EF",
	INS_TERMINATE_CARD_USAGE:         "INS_TERMINATE_CARD_USAGE",
}

func (sw StatusWord) String() string {
	if name, ok := statusWordNames[sw]; ok {
		return name
	}
	return fmt.Sprintf("StatusWord(%d)", uint16(sw))
}

func (i InsCode) String() string {
	if name, ok := insCodeNames[i]; ok {
		return name
	}
	return fmt.Sprintf("InsCode(%d)", byte(i))
}

package ctap2

import "fmt"

// Status is a CTAP2 status code as returned in the first byte of every
// authenticator response.
type Status byte

const (
	StatusSuccess            Status = 0x00
	StatusInvalidCommand     Status = 0x01
	StatusInvalidParameter   Status = 0x02
	StatusInvalidLength      Status = 0x03
	StatusInvalidSeq         Status = 0x04
	StatusTimeout            Status = 0x05
	StatusCBORUnexpectedType Status = 0x11
	StatusInvalidCBOR        Status = 0x12
	StatusMissingParameter   Status = 0x14
	StatusLimitExceeded      Status = 0x15
	StatusCredentialExcluded Status = 0x19
	StatusProcessing         Status = 0x21
	StatusInvalidCredential  Status = 0x22
	StatusUserActionPending  Status = 0x23
	StatusOperationPending   Status = 0x24
	StatusOperationDenied    Status = 0x27
	StatusKeepaliveCancel    Status = 0x2d
	StatusNoCredentials      Status = 0x2e
	StatusUserActionTimeout  Status = 0x2f
	StatusNotAllowed         Status = 0x30
	StatusPINInvalid         Status = 0x31
	StatusPINBlocked         Status = 0x32
	StatusPINAuthInvalid     Status = 0x33
	StatusPINAuthBlocked     Status = 0x34
	StatusPINNotSet          Status = 0x35
	StatusPINRequired        Status = 0x36
	StatusPINPolicyViolation Status = 0x37
	StatusPINTokenExpired    Status = 0x38
	StatusRequestTooLarge    Status = 0x39
	StatusActionTimeout      Status = 0x3a
	StatusUpRequired         Status = 0x3b
	StatusUvBlocked          Status = 0x3c
	StatusUvInvalid          Status = 0x3f
	StatusOther              Status = 0x7f
)

var statusStringMap = map[Status]string{
	StatusSuccess:            "CTAP2_OK",
	StatusInvalidCommand:     "CTAP1_ERR_INVALID_COMMAND",
	StatusInvalidParameter:   "CTAP1_ERR_INVALID_PARAMETER",
	StatusInvalidLength:      "CTAP1_ERR_INVALID_LENGTH",
	StatusInvalidSeq:         "CTAP1_ERR_INVALID_SEQ",
	StatusTimeout:            "CTAP1_ERR_TIMEOUT",
	StatusCBORUnexpectedType: "CTAP2_ERR_CBOR_UNEXPECTED_TYPE",
	StatusInvalidCBOR:        "CTAP2_ERR_INVALID_CBOR",
	StatusMissingParameter:   "CTAP2_ERR_MISSING_PARAMETER",
	StatusLimitExceeded:      "CTAP2_ERR_LIMIT_EXCEEDED",
	StatusCredentialExcluded: "CTAP2_ERR_CREDENTIAL_EXCLUDED",
	StatusProcessing:         "CTAP2_ERR_PROCESSING",
	StatusInvalidCredential:  "CTAP2_ERR_INVALID_CREDENTIAL",
	StatusUserActionPending:  "CTAP2_ERR_USER_ACTION_PENDING",
	StatusOperationPending:   "CTAP2_ERR_OPERATION_PENDING",
	StatusOperationDenied:    "CTAP2_ERR_OPERATION_DENIED",
	StatusKeepaliveCancel:    "CTAP2_ERR_KEEPALIVE_CANCEL",
	StatusNoCredentials:      "CTAP2_ERR_NO_CREDENTIALS",
	StatusUserActionTimeout:  "CTAP2_ERR_USER_ACTION_TIMEOUT",
	StatusNotAllowed:         "CTAP2_ERR_NOT_ALLOWED",
	StatusPINInvalid:         "CTAP2_ERR_PIN_INVALID",
	StatusPINBlocked:         "CTAP2_ERR_PIN_BLOCKED",
	StatusPINAuthInvalid:     "CTAP2_ERR_PIN_AUTH_INVALID",
	StatusPINAuthBlocked:     "CTAP2_ERR_PIN_AUTH_BLOCKED",
	StatusPINNotSet:          "CTAP2_ERR_PIN_NOT_SET",
	StatusPINRequired:        "CTAP2_ERR_PIN_REQUIRED",
	StatusPINPolicyViolation: "CTAP2_ERR_PIN_POLICY_VIOLATION",
	StatusPINTokenExpired:    "CTAP2_ERR_PIN_TOKEN_EXPIRED",
	StatusRequestTooLarge:    "CTAP2_ERR_REQUEST_TOO_LARGE",
	StatusActionTimeout:      "CTAP2_ERR_ACTION_TIMEOUT",
	StatusUpRequired:         "CTAP2_ERR_UP_REQUIRED",
	StatusUvBlocked:          "CTAP2_ERR_UV_BLOCKED",
	StatusUvInvalid:          "CTAP2_ERR_UV_INVALID",
	StatusOther:              "CTAP1_ERR_OTHER",
}

func (s Status) String() string {
	if name, ok := statusStringMap[s]; ok {
		return name
	}
	return fmt.Sprintf("0x%02x", byte(s))
}

// CTAPError is returned for every non-success status the authenticator
// reports. The raw status code is kept for diagnostics; callers match known
// codes with errors.As and StatusCode comparison.
type CTAPError struct {
	StatusCode Status
}

func (e *CTAPError) Error() string {
	return fmt.Sprintf("ctap2: authenticator returned %s (0x%02x)", e.StatusCode, byte(e.StatusCode))
}

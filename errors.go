package seckey

import (
	"errors"
	"fmt"
)

// Common errors returned by the seckey package.
var (
	// ErrSessionClosed is returned when an operation is attempted on a closed session.
	ErrSessionClosed = errors.New("seckey: session closed")
	// ErrNotSupported is returned when an operation or extension is not supported by the authenticator.
	ErrNotSupported = errors.New("seckey: not supported")
	// ErrLockedOut is returned when the authenticator has exhausted PIN/UV retries and refuses further attempts.
	ErrLockedOut = errors.New("seckey: authenticator locked out")
	// ErrUserCancelled is returned when the key collector declines to provide a secret.
	ErrUserCancelled = errors.New("seckey: cancelled by user")
	// ErrPinNotSet is returned when an operation requires a PIN to be set but it is not.
	ErrPinNotSet = errors.New("seckey: pin not set")
	// ErrPinAlreadySet is returned when trying to set a PIN that is already set.
	ErrPinAlreadySet = errors.New("seckey: pin already set")
	// ErrUvNotConfigured is returned when user verification is not configured on the authenticator.
	ErrUvNotConfigured = errors.New("seckey: UV not configured")
	// ErrLargeBlobsIntegrityCheck is returned when the integrity check for the large-blob array fails.
	ErrLargeBlobsIntegrityCheck = errors.New("seckey: large blobs integrity check failed")
	// ErrLargeBlobsTooBig is returned when the serialized large-blob array exceeds the authenticator's limit.
	ErrLargeBlobsTooBig = errors.New("seckey: serialized large blobs too big for this authenticator")
	// ErrEnumerationAborted is returned when a get-next step of an enumeration fails mid-sequence.
	ErrEnumerationAborted = errors.New("seckey: enumeration aborted")
)

// PinInvalidError is returned when the authenticator rejects a PIN or UV
// attempt but retries remain. Callers may re-prompt and try again.
type PinInvalidError struct {
	RetriesRemaining uint
}

func (e *PinInvalidError) Error() string {
	return fmt.Sprintf("seckey: invalid PIN (%d retries remaining)", e.RetriesRemaining)
}

// ErrorWithMessage represents an error with an additional descriptive message.
type ErrorWithMessage struct {
	Message string
	Err     error
}

// newErrorMessage creates a new ErrorWithMessage.
func newErrorMessage(err error, msg string) *ErrorWithMessage {
	return &ErrorWithMessage{
		Message: msg,
		Err:     err,
	}
}

// Error returns the string representation of the error.
func (m *ErrorWithMessage) Error() string {
	if m.Message != "" {
		return m.Err.Error() + " (" + m.Message + ")"
	}
	return m.Err.Error()
}

// Unwrap returns the underlying error.
func (m *ErrorWithMessage) Unwrap() error {
	return m.Err
}

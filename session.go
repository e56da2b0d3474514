// Package seckey provides a high-level session against a FIDO2/CTAP2
// authenticator reached through a transport. A session owns PIN/UV
// verification state, negotiates shared secrets, and exposes credential,
// credential-management and large-blob operations over one exclusive
// conversation with one authenticator.
package seckey

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/fxamacker/cbor/v2"

	"github.com/seckeylab/go-seckey/protocol/ctap2"
	"github.com/seckeylab/go-seckey/protocol/webauthn"
	"github.com/seckeylab/go-seckey/transport"
)

// Session represents one logical connection to an authenticator. All
// operations on a Session execute in caller order; a Session is one
// exclusive conversation, callers needing concurrency must serialize
// access themselves.
type Session struct {
	client      ctap2.Client
	cborEncMode cbor.EncMode
	collector   KeyCollector
	info        *ctap2.AuthenticatorGetInfoResponse

	mu        sync.Mutex
	closed    bool
	lockedOut bool

	token            []byte
	tokenPermissions ctap2.Permission
	tokenRPID        string
}

// Open establishes a session over the given transport. The authenticator's
// capability descriptor is fetched immediately; every later operation is
// gated against it.
func Open(t transport.Transport, collector KeyCollector) (*Session, error) {
	encMode, err := cbor.CTAP2EncOptions().EncMode()
	if err != nil {
		return nil, fmt.Errorf("failed to create CBOR encoding mode: %w", err)
	}

	client := ctap2.NewChannelClient(t, encMode)

	info, err := client.GetInfo()
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to get authenticator info: %w", err)
	}

	return &Session{
		client:      client,
		cborEncMode: encMode,
		collector:   collector,
		info:        info,
	}, nil
}

// Info returns the authenticator capability descriptor fetched at open.
func (s *Session) Info() *ctap2.AuthenticatorGetInfoResponse {
	return s.info
}

// RefreshInfo re-fetches the capability descriptor from the authenticator.
func (s *Session) RefreshInfo() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}

	info, err := s.client.GetInfo()
	if err != nil {
		return err
	}
	s.info = info

	return nil
}

// Close releases the session. Secret material is zeroized unconditionally;
// Close is idempotent.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.dropToken()

	return s.client.Close()
}

// dropToken zeroizes and forgets the held pinUvAuthToken. Callers must hold
// the session mutex.
func (s *Session) dropToken() {
	ctap2.Zeroize(s.token)
	s.token = nil
	s.tokenPermissions = ctap2.PermissionNone
	s.tokenRPID = ""
}

// pinUvAuthProtocol picks the first advertised protocol this package
// implements. Unknown protocol numbers are skipped rather than echoed back.
func (s *Session) pinUvAuthProtocol() ctap2.PinUvAuthProtocolType {
	for _, protocol := range s.info.PinUvAuthProtocols {
		switch protocol {
		case ctap2.PinUvAuthProtocolTypeOne, ctap2.PinUvAuthProtocolTypeTwo:
			return protocol
		}
	}
	return ctap2.PinUvAuthProtocolTypeOne
}

// VerifyPIN drives the key-collector prompt loop until the authenticator
// issues a pinUvAuthToken scoped to the requested permissions, the user
// declines (ErrUserCancelled), or the authenticator locks out
// (ErrLockedOut). A wrong PIN with retries remaining re-prompts.
// Success replaces (and zeroizes) any previously held token.
func (s *Session) VerifyPIN(permissions ctap2.Permission, rpID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.verifyPINLocked(permissions, rpID)
}

func (s *Session) verifyPINLocked(permissions ctap2.Permission, rpID string) error {
	if s.closed {
		return ErrSessionClosed
	}
	if s.lockedOut {
		return ErrLockedOut
	}

	clientPin, ok := s.info.Options[ctap2.OptionClientPIN]
	if !ok {
		return newErrorMessage(ErrNotSupported, "authenticator doesn't support clientPin option")
	}
	if !clientPin {
		return newErrorMessage(ErrPinNotSet, "please set PIN first")
	}

	prompt := PINPrompt{RPID: rpID}

	retries, _, err := s.client.GetPINRetries(s.pinUvAuthProtocol())
	if err != nil {
		return err
	}
	prompt.RetriesRemaining = retries

	for {
		pin, ok := s.collector.CollectPIN(prompt)
		if !ok {
			return ErrUserCancelled
		}

		token, err := s.requestPinToken(pin, permissions, rpID)
		if err == nil {
			s.dropToken()
			s.token = token
			s.tokenPermissions = permissions
			s.tokenRPID = rpID
			return nil
		}

		var ctapError *ctap2.CTAPError
		if !errors.As(err, &ctapError) {
			return err
		}

		switch ctapError.StatusCode {
		case ctap2.StatusPINInvalid:
			retries, _, retriesErr := s.client.GetPINRetries(s.pinUvAuthProtocol())
			if retriesErr != nil {
				return retriesErr
			}
			if retries == 0 {
				s.lockedOut = true
				return ErrLockedOut
			}
			prompt.RetriesRemaining = retries
			prompt.LastAttemptInvalid = true
		case ctap2.StatusPINBlocked, ctap2.StatusPINAuthBlocked:
			s.lockedOut = true
			return ErrLockedOut
		case ctap2.StatusPINNotSet:
			return newErrorMessage(ErrPinNotSet, "please set PIN first")
		default:
			return err
		}
	}
}

func (s *Session) requestPinToken(pin string, permissions ctap2.Permission, rpID string) ([]byte, error) {
	keyAgreement, err := s.client.GetKeyAgreement(s.pinUvAuthProtocol())
	if err != nil {
		return nil, err
	}

	if token, ok := s.info.Options[ctap2.OptionPinUvAuthToken]; !ok || !token {
		return s.client.GetPinToken(s.pinUvAuthProtocol(), keyAgreement, pin)
	}

	return s.client.GetPinUvAuthTokenUsingPinWithPermissions(
		s.pinUvAuthProtocol(),
		keyAgreement,
		pin,
		permissions,
		rpID,
	)
}

// VerifyUV obtains a pinUvAuthToken through the authenticator's built-in
// user verification. A failed verification with retries remaining is
// reported as *PinInvalidError; an exhausted or blocked modality as
// ErrLockedOut.
func (s *Session) VerifyUV(permissions ctap2.Permission, rpID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.verifyUVLocked(permissions, rpID)
}

func (s *Session) verifyUVLocked(permissions ctap2.Permission, rpID string) error {
	if s.closed {
		return ErrSessionClosed
	}
	if s.lockedOut {
		return ErrLockedOut
	}

	if token, ok := s.info.Options[ctap2.OptionPinUvAuthToken]; !ok || !token {
		return newErrorMessage(ErrNotSupported, "authenticator doesn't support pinUvAuthToken")
	}

	uv, ok := s.info.Options[ctap2.OptionUserVerification]
	if !ok {
		return newErrorMessage(ErrNotSupported, "authenticator doesn't support user verification")
	}
	if !uv {
		return newErrorMessage(ErrUvNotConfigured, "please configure UV first (e.g. enroll biometry)")
	}

	keyAgreement, err := s.client.GetKeyAgreement(s.pinUvAuthProtocol())
	if err != nil {
		return err
	}

	token, err := s.client.GetPinUvAuthTokenUsingUvWithPermissions(
		s.pinUvAuthProtocol(),
		keyAgreement,
		permissions,
		rpID,
	)
	if err != nil {
		var ctapError *ctap2.CTAPError
		if errors.As(err, &ctapError) {
			switch ctapError.StatusCode {
			case ctap2.StatusUvInvalid:
				retries, retriesErr := s.client.GetUVRetries()
				if retriesErr != nil {
					return retriesErr
				}
				if retries == 0 {
					s.lockedOut = true
					return ErrLockedOut
				}
				return &PinInvalidError{RetriesRemaining: retries}
			case ctap2.StatusUvBlocked, ctap2.StatusPINAuthBlocked:
				s.lockedOut = true
				return ErrLockedOut
			}
		}
		return err
	}

	s.dropToken()
	s.token = token
	s.tokenPermissions = permissions
	s.tokenRPID = rpID

	return nil
}

// ensureScope guarantees the held token covers the requested permissions
// and relying-party binding. A token with a narrower scope triggers a fresh
// verification pass with the union scope; the session never silently
// escalates a held token.
func (s *Session) ensureScope(permissions ctap2.Permission, rpID string) error {
	if s.closed {
		return ErrSessionClosed
	}

	if s.token != nil &&
		s.tokenPermissions&permissions == permissions &&
		(s.tokenRPID == "" || s.tokenRPID == rpID) {
		return nil
	}

	union := s.tokenPermissions | permissions

	if uv, ok := s.info.Options[ctap2.OptionUserVerification]; ok && uv {
		return s.verifyUVLocked(union, rpID)
	}

	return s.verifyPINLocked(union, rpID)
}

// MakeCredentialParams are the caller-supplied inputs for credential
// creation.
type MakeCredentialParams struct {
	ClientDataHash []byte
	RP             webauthn.PublicKeyCredentialRpEntity
	User           webauthn.PublicKeyCredentialUserEntity
	Algorithms     []webauthn.PublicKeyCredentialParameters
	ExcludeList    []webauthn.PublicKeyCredentialDescriptor

	// ResidentKey requests a discoverable credential.
	ResidentKey bool
	// CredBlob is stored on the credential via the credBlob extension.
	CredBlob []byte
	// LargeBlobKey requests a per-credential large-blob key.
	LargeBlobKey bool
}

// MakeCredential creates a new credential on the authenticator. The
// attestation statement is returned raw; verifying its signature is the
// caller's explicit step.
func (s *Session) MakeCredential(params MakeCredentialParams) (*ctap2.AuthenticatorMakeCredentialResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureScope(ctap2.PermissionMakeCredential, params.RP.ID); err != nil {
		return nil, err
	}

	var extensions *ctap2.MakeCredentialExtensionInputs

	if params.CredBlob != nil {
		if !slices.Contains(s.info.Extensions, webauthn.ExtensionIdentifierCredentialBlob) {
			return nil, newErrorMessage(ErrNotSupported, "authenticator doesn't support credBlob extension")
		}
		if uint(len(params.CredBlob)) > s.info.MaxCredBlobLength {
			return nil, newErrorMessage(
				ErrNotSupported,
				fmt.Sprintf("credBlob length must be at most %d bytes", s.info.MaxCredBlobLength),
			)
		}
		extensions = &ctap2.MakeCredentialExtensionInputs{CredBlob: params.CredBlob}
	}

	if params.LargeBlobKey {
		if largeBlobs, ok := s.info.Options[ctap2.OptionLargeBlobs]; !ok || !largeBlobs {
			return nil, newErrorMessage(ErrNotSupported, "authenticator doesn't support largeBlobs")
		}
		if extensions == nil {
			extensions = new(ctap2.MakeCredentialExtensionInputs)
		}
		extensions.LargeBlobKey = true
	}

	var options map[ctap2.Option]bool
	if params.ResidentKey {
		if rk, ok := s.info.Options[ctap2.OptionResidentKeys]; !ok || !rk {
			return nil, newErrorMessage(ErrNotSupported, "authenticator doesn't support discoverable credentials")
		}
		options = map[ctap2.Option]bool{ctap2.OptionResidentKeys: true}
	}

	return s.client.MakeCredential(
		s.pinUvAuthProtocol(),
		s.token,
		params.ClientDataHash,
		params.RP,
		params.User,
		params.Algorithms,
		params.ExcludeList,
		extensions,
		options,
	)
}

// AssertionParams are the caller-supplied inputs for assertion requests.
type AssertionParams struct {
	RPID           string
	ClientDataHash []byte
	AllowList      []webauthn.PublicKeyCredentialDescriptor

	// GetCredBlob requests the credBlob stored on the credential.
	GetCredBlob bool
	// LargeBlobKey requests the credential's large-blob key alongside the
	// assertion.
	LargeBlobKey bool
}

// GetAssertions returns zero or more assertions in authenticator order.
// Zero assertions means "no matching credential" and is not an error.
func (s *Session) GetAssertions(params AssertionParams) ([]*ctap2.AuthenticatorGetAssertionResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureScope(ctap2.PermissionGetAssertion, params.RPID); err != nil {
		return nil, err
	}

	var extensions *ctap2.GetAssertionExtensionInputs
	if params.GetCredBlob {
		if !slices.Contains(s.info.Extensions, webauthn.ExtensionIdentifierCredentialBlob) {
			return nil, newErrorMessage(ErrNotSupported, "authenticator doesn't support credBlob extension")
		}
		extensions = &ctap2.GetAssertionExtensionInputs{CredBlob: true}
	}
	if params.LargeBlobKey {
		if largeBlobs, ok := s.info.Options[ctap2.OptionLargeBlobs]; !ok || !largeBlobs {
			return nil, newErrorMessage(ErrNotSupported, "authenticator doesn't support largeBlobs")
		}
		if extensions == nil {
			extensions = new(ctap2.GetAssertionExtensionInputs)
		}
		extensions.LargeBlobKey = true
	}

	var assertions []*ctap2.AuthenticatorGetAssertionResponse
	for assertion, err := range s.client.GetAssertion(
		s.pinUvAuthProtocol(),
		s.token,
		params.RPID,
		params.ClientDataHash,
		params.AllowList,
		extensions,
		nil,
	) {
		if err != nil {
			// "No matching credential" only on the opening round trip; a
			// failed follow-up must not masquerade as an empty result.
			var ctapError *ctap2.CTAPError
			if len(assertions) == 0 &&
				errors.As(err, &ctapError) && ctapError.StatusCode == ctap2.StatusNoCredentials {
				return nil, nil
			}
			return nil, err
		}
		assertions = append(assertions, assertion)
	}

	return assertions, nil
}

// PINRetries reports the number of remaining PIN attempts and whether a
// power cycle is required first.
func (s *Session) PINRetries() (uint, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, false, ErrSessionClosed
	}

	clientPin, ok := s.info.Options[ctap2.OptionClientPIN]
	if !ok {
		return 0, false, newErrorMessage(ErrNotSupported, "authenticator doesn't support clientPin option")
	}
	if !clientPin {
		return 0, false, newErrorMessage(ErrPinNotSet, "please set PIN first")
	}

	return s.client.GetPINRetries(s.pinUvAuthProtocol())
}

// UVRetries reports the number of remaining built-in user verification
// attempts.
func (s *Session) UVRetries() (uint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrSessionClosed
	}

	uv, ok := s.info.Options[ctap2.OptionUserVerification]
	if !ok {
		return 0, newErrorMessage(ErrNotSupported, "authenticator doesn't support user verification")
	}
	if !uv {
		return 0, newErrorMessage(ErrUvNotConfigured, "please configure UV first (e.g. enroll biometry)")
	}

	return s.client.GetUVRetries()
}

// SetPIN sets the initial PIN on the authenticator.
func (s *Session) SetPIN(pin string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}

	clientPin, ok := s.info.Options[ctap2.OptionClientPIN]
	if !ok {
		return newErrorMessage(ErrNotSupported, "authenticator doesn't support clientPin option")
	}
	if clientPin {
		return newErrorMessage(ErrPinAlreadySet, "pin already set, use ChangePIN instead")
	}

	keyAgreement, err := s.client.GetKeyAgreement(s.pinUvAuthProtocol())
	if err != nil {
		return err
	}

	return s.client.SetPIN(s.pinUvAuthProtocol(), keyAgreement, pin)
}

// ChangePIN replaces the authenticator's PIN.
func (s *Session) ChangePIN(currentPin string, newPin string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	if s.lockedOut {
		return ErrLockedOut
	}

	clientPin, ok := s.info.Options[ctap2.OptionClientPIN]
	if !ok {
		return newErrorMessage(ErrNotSupported, "authenticator doesn't support clientPin option")
	}
	if !clientPin {
		return newErrorMessage(ErrPinNotSet, "please set PIN first")
	}

	keyAgreement, err := s.client.GetKeyAgreement(s.pinUvAuthProtocol())
	if err != nil {
		return err
	}

	return s.client.ChangePIN(s.pinUvAuthProtocol(), keyAgreement, currentPin, newPin)
}

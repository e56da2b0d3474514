package ctap2

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"iter"
	"slices"

	"github.com/fxamacker/cbor/v2"
	"github.com/ldclabs/cose/key"

	"github.com/seckeylab/go-seckey/protocol/webauthn"
	"github.com/seckeylab/go-seckey/transport"
)

// ChannelClient implements the Client interface over a transport.Transport.
// Each operation is one blocking round trip: the full request is encoded
// before dispatch, the full response is received before decode.
type ChannelClient struct {
	transport   transport.Transport
	cborEncMode cbor.EncMode
}

// NewChannelClient creates a new CTAP2 client over the given transport.
func NewChannelClient(t transport.Transport, cborEncMode cbor.EncMode) *ChannelClient {
	return &ChannelClient{
		transport:   t,
		cborEncMode: cborEncMode,
	}
}

// Close closes the underlying transport.
func (c *ChannelClient) Close() error {
	return c.transport.Close()
}

// roundTrip encodes one command, sends it and returns the response payload.
// A non-success status byte fails with *CTAPError; the channel never
// retries.
func (c *ChannelClient) roundTrip(command Command, request any) ([]byte, error) {
	frame := []byte{byte(command)}
	if request != nil {
		b, err := c.cborEncMode.Marshal(request)
		if err != nil {
			return nil, fmt.Errorf("cannot marshal %s CBOR request: %w", command, err)
		}
		frame = slices.Concat(frame, b)
	}

	respRaw, err := c.transport.SendReceive(frame)
	if err != nil {
		return nil, fmt.Errorf("%s transport round trip failed: %w", command, err)
	}
	if len(respRaw) == 0 {
		return nil, fmt.Errorf("%s: empty response", command)
	}
	if status := Status(respRaw[0]); status != StatusSuccess {
		return nil, &CTAPError{StatusCode: status}
	}

	return respRaw[1:], nil
}

// MakeCredential performs the AuthenticatorMakeCredential operation.
func (c *ChannelClient) MakeCredential(
	pinUvAuthProtocolType PinUvAuthProtocolType,
	pinUvAuthToken []byte,
	clientDataHash []byte,
	rp webauthn.PublicKeyCredentialRpEntity,
	user webauthn.PublicKeyCredentialUserEntity,
	pubKeyCredParams []webauthn.PublicKeyCredentialParameters,
	excludeList []webauthn.PublicKeyCredentialDescriptor,
	extensions *MakeCredentialExtensionInputs,
	options map[Option]bool,
) (*AuthenticatorMakeCredentialResponse, error) {
	req := &AuthenticatorMakeCredentialRequest{
		ClientDataHash:   clientDataHash,
		RP:               rp,
		User:             user,
		PubKeyCredParams: pubKeyCredParams,
		ExcludeList:      excludeList,
		Extensions:       extensions,
		Options:          options,
	}

	if pinUvAuthToken != nil {
		req.PinUvAuthParam = Authenticate(
			pinUvAuthProtocolType,
			pinUvAuthToken,
			clientDataHash,
		)
		req.PinUvAuthProtocol = pinUvAuthProtocolType
	}

	payload, err := c.roundTrip(CMDAuthenticatorMakeCredential, req)
	if err != nil {
		return nil, err
	}

	var resp *AuthenticatorMakeCredentialResponse
	if err := cbor.Unmarshal(payload, &resp); err != nil {
		return nil, err
	}
	resp.AuthData, err = ParseAuthData(resp.AuthDataRaw)
	if err != nil {
		return nil, err
	}

	return resp, nil
}

func (c *ChannelClient) GetAssertion(
	pinUvAuthProtocolType PinUvAuthProtocolType,
	pinUvAuthToken []byte,
	rpID string,
	clientDataHash []byte,
	allowList []webauthn.PublicKeyCredentialDescriptor,
	extensions *GetAssertionExtensionInputs,
	options map[Option]bool,
) iter.Seq2[*AuthenticatorGetAssertionResponse, error] {
	return func(yield func(*AuthenticatorGetAssertionResponse, error) bool) {
		req := &AuthenticatorGetAssertionRequest{
			RPID:           rpID,
			ClientDataHash: clientDataHash,
			AllowList:      allowList,
			Extensions:     extensions,
			Options:        options,
		}

		if pinUvAuthToken != nil {
			req.PinUvAuthParam = Authenticate(
				pinUvAuthProtocolType,
				pinUvAuthToken,
				clientDataHash,
			)
			req.PinUvAuthProtocol = pinUvAuthProtocolType
		}

		payloadBegin, err := c.roundTrip(CMDAuthenticatorGetAssertion, req)
		if err != nil {
			yield(nil, err)
			return
		}

		var respBegin *AuthenticatorGetAssertionResponse
		if err := cbor.Unmarshal(payloadBegin, &respBegin); err != nil {
			yield(nil, err)
			return
		}
		respBegin.AuthData, err = ParseAuthData(respBegin.AuthDataRaw)
		if err != nil {
			yield(nil, err)
			return
		}

		if !yield(respBegin, nil) {
			return
		}

		for i := uint(1); i < respBegin.NumberOfCredentials; i++ {
			payload, err := c.roundTrip(CMDAuthenticatorGetNextAssertion, nil)
			if err != nil {
				yield(nil, err)
				return
			}

			var resp *AuthenticatorGetAssertionResponse
			if err := cbor.Unmarshal(payload, &resp); err != nil {
				yield(nil, err)
				return
			}
			resp.AuthData, err = ParseAuthData(resp.AuthDataRaw)
			if err != nil {
				yield(nil, err)
				return
			}

			if !yield(resp, nil) {
				return
			}
		}
	}
}

func (c *ChannelClient) GetInfo() (*AuthenticatorGetInfoResponse, error) {
	payload, err := c.roundTrip(CMDAuthenticatorGetInfo, nil)
	if err != nil {
		return nil, err
	}

	var resp *AuthenticatorGetInfoResponse
	if err := cbor.Unmarshal(payload, &resp); err != nil {
		return nil, err
	}

	return resp, nil
}

func (c *ChannelClient) GetPINRetries(
	pinUvAuthProtocolType PinUvAuthProtocolType,
) (uint, bool, error) {
	req := &AuthenticatorClientPINRequest{
		// While this parameter is unnecessary, some authenticators require
		// it for this sub-command.
		PinUvAuthProtocol: pinUvAuthProtocolType,
		SubCommand:        ClientPINSubCommandGetPINRetries,
	}

	payload, err := c.roundTrip(CMDAuthenticatorClientPIN, req)
	if err != nil {
		return 0, false, err
	}

	var resp *AuthenticatorClientPINResponse
	if err := cbor.Unmarshal(payload, &resp); err != nil {
		return 0, false, err
	}

	return resp.PinRetries, resp.PowerCycleState, nil
}

func (c *ChannelClient) GetKeyAgreement(
	pinUvAuthProtocolType PinUvAuthProtocolType,
) (key.Key, error) {
	req := &AuthenticatorClientPINRequest{
		PinUvAuthProtocol: pinUvAuthProtocolType,
		SubCommand:        ClientPINSubCommandGetKeyAgreement,
	}

	payload, err := c.roundTrip(CMDAuthenticatorClientPIN, req)
	if err != nil {
		return nil, fmt.Errorf("keyAgreement request failed: %w", err)
	}

	var resp *AuthenticatorClientPINResponse
	if err := cbor.Unmarshal(payload, &resp); err != nil {
		return nil, fmt.Errorf("cannot unmarshal keyAgreement CBOR response: %w", err)
	}

	return resp.KeyAgreement, nil
}

func (c *ChannelClient) SetPIN(
	pinUvAuthProtocolType PinUvAuthProtocolType,
	keyAgreement key.Key,
	pin string,
) error {
	protocol, err := NewPinUvAuthProtocol(pinUvAuthProtocolType)
	if err != nil {
		return err
	}

	platformCoseKey, sharedSecret, err := protocol.Encapsulate(keyAgreement)
	if err != nil {
		return err
	}
	defer Zeroize(sharedSecret)

	// Pad PIN with zero bytes to 64.
	pinBytes := make([]byte, 64)
	copy(pinBytes, pin)
	defer Zeroize(pinBytes)

	ciphertext, err := protocol.Encrypt(sharedSecret, pinBytes)
	if err != nil {
		return err
	}

	req := &AuthenticatorClientPINRequest{
		PinUvAuthProtocol: protocol.Type,
		SubCommand:        ClientPINSubCommandSetPIN,
		KeyAgreement:      platformCoseKey,
		NewPinEnc:         ciphertext,
		PinUvAuthParam: Authenticate(
			pinUvAuthProtocolType,
			sharedSecret,
			ciphertext,
		),
	}

	if _, err := c.roundTrip(CMDAuthenticatorClientPIN, req); err != nil {
		return err
	}

	return nil
}

func (c *ChannelClient) ChangePIN(
	pinUvAuthProtocolType PinUvAuthProtocolType,
	keyAgreement key.Key,
	currentPin string,
	newPin string,
) error {
	protocol, err := NewPinUvAuthProtocol(pinUvAuthProtocolType)
	if err != nil {
		return err
	}

	platformCoseKey, sharedSecret, err := protocol.Encapsulate(keyAgreement)
	if err != nil {
		return err
	}
	defer Zeroize(sharedSecret)

	pinHash := hashPIN(currentPin)
	defer Zeroize(pinHash)

	pinHashEnc, err := protocol.Encrypt(sharedSecret, pinHash)
	if err != nil {
		return err
	}

	newPinBytes := make([]byte, 64)
	copy(newPinBytes, newPin)
	defer Zeroize(newPinBytes)

	newPinEnc, err := protocol.Encrypt(sharedSecret, newPinBytes)
	if err != nil {
		return err
	}

	req := &AuthenticatorClientPINRequest{
		PinUvAuthProtocol: protocol.Type,
		SubCommand:        ClientPINSubCommandChangePIN,
		KeyAgreement:      platformCoseKey,
		PinHashEnc:        pinHashEnc,
		NewPinEnc:         newPinEnc,
		PinUvAuthParam: Authenticate(
			pinUvAuthProtocolType,
			sharedSecret,
			slices.Concat(newPinEnc, pinHashEnc),
		),
	}

	if _, err := c.roundTrip(CMDAuthenticatorClientPIN, req); err != nil {
		return err
	}

	return nil
}

// GetPinToken allows getting a PinUvAuthToken (superseded by GetPinUvAuthTokenUsingUvWithPermissions or
// GetPinUvAuthTokenUsingPinWithPermissions, thus for backwards compatibility only).
func (c *ChannelClient) GetPinToken(
	pinUvAuthProtocolType PinUvAuthProtocolType,
	keyAgreement key.Key,
	pin string,
) ([]byte, error) {
	protocol, err := NewPinUvAuthProtocol(pinUvAuthProtocolType)
	if err != nil {
		return nil, err
	}

	platformCoseKey, sharedSecret, err := protocol.Encapsulate(keyAgreement)
	if err != nil {
		return nil, err
	}
	defer Zeroize(sharedSecret)

	pinHash := hashPIN(pin)
	defer Zeroize(pinHash)

	pinHashEnc, err := protocol.Encrypt(sharedSecret, pinHash)
	if err != nil {
		return nil, err
	}

	req := &AuthenticatorClientPINRequest{
		PinUvAuthProtocol: protocol.Type,
		SubCommand:        ClientPINSubCommandGetPinToken,
		KeyAgreement:      platformCoseKey,
		PinHashEnc:        pinHashEnc,
	}

	payload, err := c.roundTrip(CMDAuthenticatorClientPIN, req)
	if err != nil {
		return nil, err
	}

	var resp *AuthenticatorClientPINResponse
	if err := cbor.Unmarshal(payload, &resp); err != nil {
		return nil, err
	}

	return protocol.Decrypt(sharedSecret, resp.PinUvAuthToken)
}

// GetPinUvAuthTokenUsingUvWithPermissions allows getting a PinUvAuthToken with specific permissions using User Verification.
func (c *ChannelClient) GetPinUvAuthTokenUsingUvWithPermissions(
	pinUvAuthProtocolType PinUvAuthProtocolType,
	keyAgreement key.Key,
	permissions Permission,
	rpID string,
) ([]byte, error) {
	protocol, err := NewPinUvAuthProtocol(pinUvAuthProtocolType)
	if err != nil {
		return nil, err
	}

	platformCoseKey, sharedSecret, err := protocol.Encapsulate(keyAgreement)
	if err != nil {
		return nil, err
	}
	defer Zeroize(sharedSecret)

	req := &AuthenticatorClientPINRequest{
		PinUvAuthProtocol: protocol.Type,
		SubCommand:        ClientPINSubCommandGetPinUvAuthTokenUsingUvWithPermissions,
		KeyAgreement:      platformCoseKey,
		Permissions:       permissions,
		RPID:              rpID,
	}

	payload, err := c.roundTrip(CMDAuthenticatorClientPIN, req)
	if err != nil {
		return nil, err
	}

	var resp *AuthenticatorClientPINResponse
	if err := cbor.Unmarshal(payload, &resp); err != nil {
		return nil, err
	}

	return protocol.Decrypt(sharedSecret, resp.PinUvAuthToken)
}

func (c *ChannelClient) GetUVRetries() (uint, error) {
	req := &AuthenticatorClientPINRequest{
		SubCommand: ClientPINSubCommandGetUVRetries,
	}

	payload, err := c.roundTrip(CMDAuthenticatorClientPIN, req)
	if err != nil {
		return 0, err
	}

	var resp *AuthenticatorClientPINResponse
	if err := cbor.Unmarshal(payload, &resp); err != nil {
		return 0, err
	}

	return resp.UvRetries, nil
}

// GetPinUvAuthTokenUsingPinWithPermissions allows getting a PinUvAuthToken with specific permissions using PIN.
func (c *ChannelClient) GetPinUvAuthTokenUsingPinWithPermissions(
	pinUvAuthProtocolType PinUvAuthProtocolType,
	keyAgreement key.Key,
	pin string,
	permissions Permission,
	rpID string,
) ([]byte, error) {
	protocol, err := NewPinUvAuthProtocol(pinUvAuthProtocolType)
	if err != nil {
		return nil, err
	}

	platformCoseKey, sharedSecret, err := protocol.Encapsulate(keyAgreement)
	if err != nil {
		return nil, err
	}
	defer Zeroize(sharedSecret)

	pinHash := hashPIN(pin)
	defer Zeroize(pinHash)

	pinHashEnc, err := protocol.Encrypt(sharedSecret, pinHash)
	if err != nil {
		return nil, err
	}

	req := &AuthenticatorClientPINRequest{
		PinUvAuthProtocol: protocol.Type,
		SubCommand:        ClientPINSubCommandGetPinUvAuthTokenUsingPinWithPermissions,
		KeyAgreement:      platformCoseKey,
		PinHashEnc:        pinHashEnc,
		Permissions:       permissions,
		RPID:              rpID,
	}

	payload, err := c.roundTrip(CMDAuthenticatorClientPIN, req)
	if err != nil {
		return nil, err
	}

	var resp *AuthenticatorClientPINResponse
	if err := cbor.Unmarshal(payload, &resp); err != nil {
		return nil, err
	}

	return protocol.Decrypt(sharedSecret, resp.PinUvAuthToken)
}

func (c *ChannelClient) GetCredsMetadata(
	preview bool,
	pinUvAuthProtocolType PinUvAuthProtocolType,
	pinUvAuthToken []byte,
) (*AuthenticatorCredentialManagementResponse, error) {
	pinUvAuthParam := Authenticate(
		pinUvAuthProtocolType,
		pinUvAuthToken,
		[]byte{byte(CredentialManagementSubCommandGetCredsMetadata)},
	)

	req := &AuthenticatorCredentialManagementRequest{
		SubCommand:        CredentialManagementSubCommandGetCredsMetadata,
		PinUvAuthProtocol: pinUvAuthProtocolType,
		PinUvAuthParam:    pinUvAuthParam,
	}

	payload, err := c.roundTrip(credentialManagementCommand(preview), req)
	if err != nil {
		return nil, err
	}

	var resp *AuthenticatorCredentialManagementResponse
	if err := cbor.Unmarshal(payload, &resp); err != nil {
		return nil, err
	}

	return resp, nil
}

func (c *ChannelClient) EnumerateRPs(
	preview bool,
	pinUvAuthProtocolType PinUvAuthProtocolType,
	pinUvAuthToken []byte,
) iter.Seq2[*AuthenticatorCredentialManagementResponse, error] {
	return func(yield func(*AuthenticatorCredentialManagementResponse, error) bool) {
		pinUvAuthParamBegin := Authenticate(
			pinUvAuthProtocolType,
			pinUvAuthToken,
			[]byte{byte(CredentialManagementSubCommandEnumerateRPsBegin)},
		)

		reqBegin := &AuthenticatorCredentialManagementRequest{
			SubCommand:        CredentialManagementSubCommandEnumerateRPsBegin,
			PinUvAuthProtocol: pinUvAuthProtocolType,
			PinUvAuthParam:    pinUvAuthParamBegin,
		}

		payloadBegin, err := c.roundTrip(credentialManagementCommand(preview), reqBegin)
		if err != nil {
			// No relying parties at all is reported as no credentials.
			var ctapError *CTAPError
			if errors.As(err, &ctapError) && ctapError.StatusCode == StatusNoCredentials {
				return
			}
			yield(nil, err)
			return
		}

		var respBegin *AuthenticatorCredentialManagementResponse
		if err := cbor.Unmarshal(payloadBegin, &respBegin); err != nil {
			yield(nil, err)
			return
		}

		if respBegin.TotalRPs == 0 {
			return
		}

		if !yield(respBegin, nil) {
			return
		}

		for i := uint(1); i < respBegin.TotalRPs; i++ {
			reqNext := &AuthenticatorCredentialManagementRequest{
				SubCommand: CredentialManagementSubCommandEnumerateRPsGetNextRP,
			}

			payloadNext, err := c.roundTrip(credentialManagementCommand(preview), reqNext)
			if err != nil {
				yield(nil, err)
				return
			}

			var respNext *AuthenticatorCredentialManagementResponse
			if err := cbor.Unmarshal(payloadNext, &respNext); err != nil {
				yield(nil, err)
				return
			}

			if !yield(respNext, nil) {
				return
			}
		}
	}
}

func (c *ChannelClient) EnumerateCredentials(
	preview bool,
	pinUvAuthProtocolType PinUvAuthProtocolType,
	pinUvAuthToken []byte,
	rpIDHash []byte,
) iter.Seq2[*AuthenticatorCredentialManagementResponse, error] {
	return func(yield func(*AuthenticatorCredentialManagementResponse, error) bool) {
		bSubCommandParams, err := c.cborEncMode.Marshal(CredentialManagementSubCommandParams{RPIDHash: rpIDHash})
		if err != nil {
			yield(nil, err)
			return
		}

		pinUvAuthParamBegin := Authenticate(
			pinUvAuthProtocolType,
			pinUvAuthToken,
			slices.Concat(
				[]byte{byte(CredentialManagementSubCommandEnumerateCredentialsBegin)},
				bSubCommandParams,
			),
		)

		reqBegin := &AuthenticatorCredentialManagementRequest{
			SubCommand:        CredentialManagementSubCommandEnumerateCredentialsBegin,
			SubCommandParams:  CredentialManagementSubCommandParams{RPIDHash: rpIDHash},
			PinUvAuthProtocol: pinUvAuthProtocolType,
			PinUvAuthParam:    pinUvAuthParamBegin,
		}

		payloadBegin, err := c.roundTrip(credentialManagementCommand(preview), reqBegin)
		if err != nil {
			var ctapError *CTAPError
			if errors.As(err, &ctapError) && ctapError.StatusCode == StatusNoCredentials {
				return
			}
			yield(nil, err)
			return
		}

		var respBegin *AuthenticatorCredentialManagementResponse
		if err := cbor.Unmarshal(payloadBegin, &respBegin); err != nil {
			yield(nil, err)
			return
		}

		if respBegin.TotalCredentials == 0 {
			return
		}

		if !yield(respBegin, nil) {
			return
		}

		for i := uint(1); i < respBegin.TotalCredentials; i++ {
			reqNext := &AuthenticatorCredentialManagementRequest{
				SubCommand: CredentialManagementSubCommandEnumerateCredentialsGetNextCredential,
			}

			payloadNext, err := c.roundTrip(credentialManagementCommand(preview), reqNext)
			if err != nil {
				yield(nil, err)
				return
			}

			var respNext *AuthenticatorCredentialManagementResponse
			if err := cbor.Unmarshal(payloadNext, &respNext); err != nil {
				yield(nil, err)
				return
			}

			if !yield(respNext, nil) {
				return
			}
		}
	}
}

func (c *ChannelClient) DeleteCredential(
	preview bool,
	pinUvAuthProtocolType PinUvAuthProtocolType,
	pinUvAuthToken []byte,
	credentialID webauthn.PublicKeyCredentialDescriptor,
) error {
	bSubCommandParams, err := c.cborEncMode.Marshal(CredentialManagementSubCommandParams{
		CredentialID: credentialID,
	})
	if err != nil {
		return err
	}

	pinUvAuthParam := Authenticate(
		pinUvAuthProtocolType,
		pinUvAuthToken,
		slices.Concat(
			[]byte{byte(CredentialManagementSubCommandDeleteCredential)},
			bSubCommandParams,
		),
	)

	req := &AuthenticatorCredentialManagementRequest{
		SubCommand:        CredentialManagementSubCommandDeleteCredential,
		SubCommandParams:  CredentialManagementSubCommandParams{CredentialID: credentialID},
		PinUvAuthProtocol: pinUvAuthProtocolType,
		PinUvAuthParam:    pinUvAuthParam,
	}

	if _, err := c.roundTrip(credentialManagementCommand(preview), req); err != nil {
		return err
	}

	return nil
}

func (c *ChannelClient) UpdateUserInformation(
	preview bool,
	pinUvAuthProtocolType PinUvAuthProtocolType,
	pinUvAuthToken []byte,
	credentialID webauthn.PublicKeyCredentialDescriptor,
	user webauthn.PublicKeyCredentialUserEntity,
) error {
	bSubCommandParams, err := c.cborEncMode.Marshal(CredentialManagementSubCommandParams{
		CredentialID: credentialID,
		User:         user,
	})
	if err != nil {
		return err
	}

	pinUvAuthParam := Authenticate(
		pinUvAuthProtocolType,
		pinUvAuthToken,
		slices.Concat(
			[]byte{byte(CredentialManagementSubCommandUpdateUserInformation)},
			bSubCommandParams,
		),
	)

	req := &AuthenticatorCredentialManagementRequest{
		SubCommand: CredentialManagementSubCommandUpdateUserInformation,
		SubCommandParams: CredentialManagementSubCommandParams{
			CredentialID: credentialID,
			User:         user,
		},
		PinUvAuthProtocol: pinUvAuthProtocolType,
		PinUvAuthParam:    pinUvAuthParam,
	}

	if _, err := c.roundTrip(credentialManagementCommand(preview), req); err != nil {
		return err
	}

	return nil
}

func (c *ChannelClient) LargeBlobs(
	pinUvAuthProtocolType PinUvAuthProtocolType,
	pinUvAuthToken []byte,
	get uint,
	set []byte,
	offset uint,
	length uint,
) (*AuthenticatorLargeBlobsResponse, error) {
	req := &AuthenticatorLargeBlobsRequest{
		Get:    get,
		Set:    set,
		Offset: offset,
		Length: length,
	}

	if pinUvAuthToken != nil {
		padding := make([]byte, 32)
		for i := range padding {
			padding[i] = 0xff
		}

		offsetBin := make([]byte, 4)
		binary.LittleEndian.PutUint32(offsetBin, uint32(offset))

		hash := sha256.Sum256(set)

		req.PinUvAuthParam = Authenticate(
			pinUvAuthProtocolType,
			pinUvAuthToken,
			slices.Concat(
				padding,
				[]byte{byte(CMDAuthenticatorLargeBlobs), 0x00},
				offsetBin,
				hash[:],
			),
		)
		req.PinUvAuthProtocol = pinUvAuthProtocolType
	}

	payload, err := c.roundTrip(CMDAuthenticatorLargeBlobs, req)
	if err != nil {
		return nil, err
	}

	if get > 0 {
		var resp *AuthenticatorLargeBlobsResponse
		if err := cbor.Unmarshal(payload, &resp); err != nil {
			return nil, err
		}

		return resp, nil
	}

	return nil, nil
}

// credentialManagementCommand picks the prototype command byte for
// authenticators that only implement the preview command set.
func credentialManagementCommand(preview bool) Command {
	if preview {
		return CMDPrototypeAuthenticatorCredentialManagement
	}
	return CMDAuthenticatorCredentialManagement
}

// hashPIN returns the left 16 bytes of SHA-256 over the PIN, the form the
// clientPIN sub-commands expect.
func hashPIN(pin string) []byte {
	hash := sha256.Sum256([]byte(pin))
	return slices.Clone(hash[:16])
}

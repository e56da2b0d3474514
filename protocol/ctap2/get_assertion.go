package ctap2

import (
	"github.com/ldclabs/cose/key"

	"github.com/seckeylab/go-seckey/protocol/webauthn"
)

// AuthenticatorGetAssertionRequest represents the request for AuthenticatorGetAssertion command.
type AuthenticatorGetAssertionRequest struct {
	RPID              string                                   `cbor:"1,keyasint"`
	ClientDataHash    []byte                                   `cbor:"2,keyasint"`
	AllowList         []webauthn.PublicKeyCredentialDescriptor `cbor:"3,keyasint,omitempty"`
	Extensions        *GetAssertionExtensionInputs             `cbor:"4,keyasint,omitempty"`
	Options           map[Option]bool                          `cbor:"5,keyasint,omitempty"`
	PinUvAuthParam    []byte                                   `cbor:"6,keyasint,omitempty"`
	PinUvAuthProtocol PinUvAuthProtocolType                    `cbor:"7,keyasint,omitempty"`
}

// HMACSecretInput is the encrypted salt exchange for the hmac-secret
// extension. Salts travel under the session shared secret, never in the
// clear.
type HMACSecretInput struct {
	KeyAgreement      key.Key               `cbor:"1,keyasint"`
	SaltEnc           []byte                `cbor:"2,keyasint"`
	SaltAuth          []byte                `cbor:"3,keyasint"`
	PinUvAuthProtocol PinUvAuthProtocolType `cbor:"4,keyasint,omitempty"`
}

// GetAssertionExtensionInputs carries the extension inputs the session
// supports at assertion time.
type GetAssertionExtensionInputs struct {
	CredBlob     bool             `cbor:"credBlob,omitempty"`
	HMACSecret   *HMACSecretInput `cbor:"hmac-secret,omitempty"`
	LargeBlobKey bool             `cbor:"largeBlobKey,omitempty"`
}

// AuthenticatorGetAssertionResponse represents the response for
// AuthenticatorGetAssertion and AuthenticatorGetNextAssertion commands.
type AuthenticatorGetAssertionResponse struct {
	Credential          webauthn.PublicKeyCredentialDescriptor `cbor:"1,keyasint"`
	AuthDataRaw         []byte                                 `cbor:"2,keyasint"`
	Signature           []byte                                 `cbor:"3,keyasint"`
	User                webauthn.PublicKeyCredentialUserEntity `cbor:"4,keyasint"`
	NumberOfCredentials uint                                   `cbor:"5,keyasint"`
	UserSelected        bool                                   `cbor:"6,keyasint"`
	LargeBlobKey        []byte                                 `cbor:"7,keyasint"`

	// AuthData is the parsed form of AuthDataRaw, populated by the client
	// after decode.
	AuthData *AuthData `cbor:"-"`
}

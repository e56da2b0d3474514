package ctap2

import (
	"github.com/fxamacker/cbor/v2"

	"github.com/seckeylab/go-seckey/protocol/webauthn"
)

// AuthenticatorMakeCredentialRequest represents the request for AuthenticatorMakeCredential command.
type AuthenticatorMakeCredentialRequest struct {
	ClientDataHash        []byte                                   `cbor:"1,keyasint"`
	RP                    webauthn.PublicKeyCredentialRpEntity     `cbor:"2,keyasint"`
	User                  webauthn.PublicKeyCredentialUserEntity   `cbor:"3,keyasint"`
	PubKeyCredParams      []webauthn.PublicKeyCredentialParameters `cbor:"4,keyasint"`
	ExcludeList           []webauthn.PublicKeyCredentialDescriptor `cbor:"5,keyasint,omitempty"`
	Extensions            *MakeCredentialExtensionInputs           `cbor:"6,keyasint,omitempty"`
	Options               map[Option]bool                          `cbor:"7,keyasint,omitempty"`
	PinUvAuthParam        []byte                                   `cbor:"8,keyasint,omitempty"`
	PinUvAuthProtocol     PinUvAuthProtocolType                    `cbor:"9,keyasint,omitempty"`
	EnterpriseAttestation uint                                     `cbor:"10,keyasint,omitempty"`
}

// MakeCredentialExtensionInputs carries the extension inputs the session
// supports at credential creation time.
type MakeCredentialExtensionInputs struct {
	CredBlob     []byte `cbor:"credBlob,omitempty"`
	CredProtect  uint   `cbor:"credProtect,omitempty"`
	HMACSecret   bool   `cbor:"hmac-secret,omitempty"`
	LargeBlobKey bool   `cbor:"largeBlobKey,omitempty"`
	MinPinLength bool   `cbor:"minPinLength,omitempty"`
}

// AuthenticatorMakeCredentialResponse represents the response for AuthenticatorMakeCredential command.
// The attestation statement is kept raw so the caller can verify the
// signature against the format identifier as a separate step.
type AuthenticatorMakeCredentialResponse struct {
	Format                   webauthn.AttestationStatementFormatIdentifier `cbor:"1,keyasint"`
	AuthDataRaw              []byte                                        `cbor:"2,keyasint"`
	AttestationStatement     cbor.RawMessage                               `cbor:"3,keyasint"`
	EnterpriseAttestation    bool                                          `cbor:"4,keyasint"`
	LargeBlobKey             []byte                                        `cbor:"5,keyasint"`
	UnsignedExtensionOutputs map[string]any                                `cbor:"6,keyasint"`

	// AuthData is the parsed form of AuthDataRaw, populated by the client
	// after decode.
	AuthData *AuthData `cbor:"-"`
}

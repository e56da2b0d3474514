package ctap2

import (
	"slices"

	"github.com/google/uuid"

	"github.com/seckeylab/go-seckey/protocol/webauthn"
)

// AuthenticatorGetInfoResponse is the capability descriptor the authenticator
// reports for AuthenticatorGetInfo. Unknown optional keys in the response are
// ignored by the CBOR decoder, never rejected.
type AuthenticatorGetInfoResponse struct {
	Versions                         []Version                                      `cbor:"1,keyasint"`
	Extensions                       []webauthn.ExtensionIdentifier                 `cbor:"2,keyasint"`
	AAGUID                           uuid.UUID                                      `cbor:"3,keyasint"`
	Options                          map[Option]bool                                `cbor:"4,keyasint"`
	MaxMsgSize                       uint                                           `cbor:"5,keyasint"`
	PinUvAuthProtocols               []PinUvAuthProtocolType                        `cbor:"6,keyasint"`
	MaxCredentialCountInList         uint                                           `cbor:"7,keyasint"`
	MaxCredentialLength              uint                                           `cbor:"8,keyasint"`
	Transports                       []webauthn.AuthenticatorTransport              `cbor:"9,keyasint"`
	Algorithms                       []webauthn.PublicKeyCredentialParameters       `cbor:"10,keyasint"`
	MaxSerializedLargeBlobArray      uint                                           `cbor:"11,keyasint"`
	ForcePinChange                   bool                                           `cbor:"12,keyasint"`
	MinPinLength                     uint                                           `cbor:"13,keyasint"`
	FirmwareVersion                  uint                                           `cbor:"14,keyasint"`
	MaxCredBlobLength                uint                                           `cbor:"15,keyasint"`
	MaxRPIDsForSetMinPINLength       uint                                           `cbor:"16,keyasint"`
	PreferredPlatformUvAttempts      uint                                           `cbor:"17,keyasint"`
	UvModality                       uint                                           `cbor:"18,keyasint"`
	Certifications                   map[string]uint64                              `cbor:"19,keyasint"`
	RemainingDiscoverableCredentials uint                                           `cbor:"20,keyasint"`
	AttestationFormats               []webauthn.AttestationStatementFormatIdentifier `cbor:"22,keyasint"`
}

// IsPreviewOnly reports whether the authenticator only implements the
// FIDO_2_1_PRE command set, which requires the prototype command bytes for
// credential management.
func (r *AuthenticatorGetInfoResponse) IsPreviewOnly() bool {
	return slices.Contains(r.Versions, VersionFIDO21Pre) &&
		!slices.Contains(r.Versions, VersionFIDO21) &&
		!slices.Contains(r.Versions, VersionFIDO22)
}

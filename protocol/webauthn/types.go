// Package webauthn defines the W3C WebAuthn dictionary types exchanged with
// the authenticator inside CTAP2 commands.
package webauthn

import "github.com/ldclabs/cose/key"

type (
	// PublicKeyCredentialType defines the valid credential types.
	// https://www.w3.org/TR/webauthn-3/#enumdef-publickeycredentialtype
	PublicKeyCredentialType string
	// AuthenticatorTransport defines hints as to how clients might communicate
	// with a particular authenticator in order to obtain an assertion for a specific credential.
	// https://www.w3.org/TR/webauthn-3/#enumdef-authenticatortransport
	AuthenticatorTransport string
	// AttestationStatementFormatIdentifier is an enum consisting of IANA registered Attestation Statement Format Identifiers.
	// https://www.iana.org/assignments/webauthn/webauthn.xhtml
	AttestationStatementFormatIdentifier string
	// ExtensionIdentifier is an enum consisting of IANA registered Extension Identifiers.
	// https://www.iana.org/assignments/webauthn/webauthn.xhtml
	ExtensionIdentifier string
)

const (
	// PublicKeyCredentialTypePublicKey is the only credential type defined so far.
	PublicKeyCredentialTypePublicKey PublicKeyCredentialType = "public-key"
)

const (
	AuthenticatorTransportUSB       AuthenticatorTransport = "usb"
	AuthenticatorTransportNFC       AuthenticatorTransport = "nfc"
	AuthenticatorTransportBLE       AuthenticatorTransport = "ble"
	AuthenticatorTransportSmartCard AuthenticatorTransport = "smart-card"
	AuthenticatorTransportHybrid    AuthenticatorTransport = "hybrid"
	AuthenticatorTransportInternal  AuthenticatorTransport = "internal"
)

const (
	AttestationStatementFormatIdentifierPacked  AttestationStatementFormatIdentifier = "packed"
	AttestationStatementFormatIdentifierTPM     AttestationStatementFormatIdentifier = "tpm"
	AttestationStatementFormatIdentifierFIDOU2F AttestationStatementFormatIdentifier = "fido-u2f"
	AttestationStatementFormatIdentifierNone    AttestationStatementFormatIdentifier = "none"
)

const (
	ExtensionIdentifierCredentialProtection ExtensionIdentifier = "credProtect"
	ExtensionIdentifierCredentialBlob       ExtensionIdentifier = "credBlob"
	ExtensionIdentifierLargeBlobKey         ExtensionIdentifier = "largeBlobKey"
	ExtensionIdentifierMinPinLength         ExtensionIdentifier = "minPinLength"
	ExtensionIdentifierHMACSecret           ExtensionIdentifier = "hmac-secret"
)

// PublicKeyCredentialRpEntity is used to supply additional Relying Party attributes
// when creating a new credential. Equality between RP entities is by ID.
// https://www.w3.org/TR/webauthn-3/#dictdef-publickeycredentialrpentity
type PublicKeyCredentialRpEntity struct {
	ID   string `cbor:"id"`
	Name string `cbor:"name,omitempty"`
}

// PublicKeyCredentialUserEntity is used to supply additional user account attributes
// when creating a new credential.
// https://www.w3.org/TR/webauthn-3/#dictdef-publickeycredentialuserentity
type PublicKeyCredentialUserEntity struct {
	ID          []byte `cbor:"id"`
	DisplayName string `cbor:"displayName,omitempty"`
	Name        string `cbor:"name,omitempty"`
}

// PublicKeyCredentialDescriptor identifies a specific public key credential.
// The ID is an opaque, authenticator-issued byte string and is never mutated
// by the client.
// https://www.w3.org/TR/webauthn-3/#dictdef-publickeycredentialdescriptor
type PublicKeyCredentialDescriptor struct {
	Type       PublicKeyCredentialType  `cbor:"type"`
	ID         []byte                   `cbor:"id"`
	Transports []AuthenticatorTransport `cbor:"transports,omitempty"`
}

// PublicKeyCredentialParameters is used to supply additional parameters when
// creating a new credential.
// https://www.w3.org/TR/webauthn-3/#dictdef-publickeycredentialparameters
type PublicKeyCredentialParameters struct {
	Type      PublicKeyCredentialType `cbor:"type"`
	Algorithm key.Alg                 `cbor:"alg"`
}

package ctap2

import "github.com/ldclabs/cose/key"

// AuthenticatorClientPINRequest represents the request for AuthenticatorClientPIN command.
type AuthenticatorClientPINRequest struct {
	PinUvAuthProtocol PinUvAuthProtocolType `cbor:"1,keyasint,omitempty"`
	SubCommand        ClientPINSubCommand   `cbor:"2,keyasint"`
	KeyAgreement      key.Key               `cbor:"3,keyasint,omitzero"`
	PinUvAuthParam    []byte                `cbor:"4,keyasint,omitempty"`
	NewPinEnc         []byte                `cbor:"5,keyasint,omitempty"`
	PinHashEnc        []byte                `cbor:"6,keyasint,omitempty"`
	Permissions       Permission            `cbor:"9,keyasint,omitempty"`
	RPID              string                `cbor:"10,keyasint,omitempty"`
}

// AuthenticatorClientPINResponse represents the response for AuthenticatorClientPIN command.
type AuthenticatorClientPINResponse struct {
	KeyAgreement    key.Key `cbor:"1,keyasint"`
	PinUvAuthToken  []byte  `cbor:"2,keyasint"`
	PinRetries      uint    `cbor:"3,keyasint"`
	PowerCycleState bool    `cbor:"4,keyasint"`
	UvRetries       uint    `cbor:"5,keyasint"`
}

// ClientPINSubCommand represents sub-commands for ClientPIN.
type ClientPINSubCommand byte

func (cmd ClientPINSubCommand) String() string {
	return clientPINSubCommandStringMap[cmd]
}

const (
	// ClientPINSubCommandGetPINRetries retrieves the number of PIN attempts remaining.
	ClientPINSubCommandGetPINRetries ClientPINSubCommand = iota + 1
	// ClientPINSubCommandGetKeyAgreement retrieves the authenticator's key agreement key.
	ClientPINSubCommandGetKeyAgreement
	// ClientPINSubCommandSetPIN sets the initial PIN.
	ClientPINSubCommandSetPIN
	// ClientPINSubCommandChangePIN replaces the current PIN.
	ClientPINSubCommandChangePIN
	// ClientPINSubCommandGetPinToken obtains a legacy pinToken without permissions.
	ClientPINSubCommandGetPinToken
	// ClientPINSubCommandGetPinUvAuthTokenUsingUvWithPermissions obtains a scoped token via built-in UV.
	ClientPINSubCommandGetPinUvAuthTokenUsingUvWithPermissions
	// ClientPINSubCommandGetUVRetries retrieves the number of UV attempts remaining.
	ClientPINSubCommandGetUVRetries
	_
	// ClientPINSubCommandGetPinUvAuthTokenUsingPinWithPermissions obtains a scoped token via PIN.
	ClientPINSubCommandGetPinUvAuthTokenUsingPinWithPermissions
)

var clientPINSubCommandStringMap = map[ClientPINSubCommand]string{
	ClientPINSubCommandGetPINRetries:                            "GetPINRetries",
	ClientPINSubCommandGetKeyAgreement:                          "GetKeyAgreement",
	ClientPINSubCommandSetPIN:                                   "SetPIN",
	ClientPINSubCommandChangePIN:                                "ChangePIN",
	ClientPINSubCommandGetPinToken:                              "GetPinToken",
	ClientPINSubCommandGetPinUvAuthTokenUsingUvWithPermissions:  "GetPinUvAuthTokenUsingUvWithPermissions",
	ClientPINSubCommandGetUVRetries:                             "GetUVRetries",
	ClientPINSubCommandGetPinUvAuthTokenUsingPinWithPermissions: "GetPinUvAuthTokenUsingPinWithPermissions",
}

package ctap2

// Command identifies a CTAP2 authenticator command.
type Command byte

func (c Command) String() string {
	return commandStringMap[c]
}

const (
	// CMDAuthenticatorMakeCredential creates a new credential on the authenticator.
	CMDAuthenticatorMakeCredential Command = 0x01
	// CMDAuthenticatorGetAssertion requests cryptographic proof of user authentication.
	CMDAuthenticatorGetAssertion Command = 0x02
	// CMDAuthenticatorGetInfo reports the authenticator's capabilities.
	CMDAuthenticatorGetInfo Command = 0x04
	// CMDAuthenticatorClientPIN carries the PIN/UV auth protocol sub-commands.
	CMDAuthenticatorClientPIN Command = 0x06
	// CMDAuthenticatorGetNextAssertion retrieves the next assertion of an in-flight sequence.
	CMDAuthenticatorGetNextAssertion Command = 0x08
	// CMDAuthenticatorCredentialManagement manages discoverable credentials.
	CMDAuthenticatorCredentialManagement Command = 0x0a
	// CMDAuthenticatorLargeBlobs reads and writes the serialized large-blob array.
	CMDAuthenticatorLargeBlobs Command = 0x0c
	// CMDPrototypeAuthenticatorCredentialManagement is the preview variant of
	// credential management used by FIDO_2_1_PRE authenticators.
	CMDPrototypeAuthenticatorCredentialManagement Command = 0x41
)

var commandStringMap = map[Command]string{
	CMDAuthenticatorMakeCredential:                "AuthenticatorMakeCredential",
	CMDAuthenticatorGetAssertion:                  "AuthenticatorGetAssertion",
	CMDAuthenticatorGetInfo:                       "AuthenticatorGetInfo",
	CMDAuthenticatorClientPIN:                     "AuthenticatorClientPIN",
	CMDAuthenticatorGetNextAssertion:              "AuthenticatorGetNextAssertion",
	CMDAuthenticatorCredentialManagement:          "AuthenticatorCredentialManagement",
	CMDAuthenticatorLargeBlobs:                    "AuthenticatorLargeBlobs",
	CMDPrototypeAuthenticatorCredentialManagement: "PrototypeAuthenticatorCredentialManagement",
}

// Option is an authenticator option key as advertised by authenticatorGetInfo.
type Option string

const (
	OptionPlatformDevice                 Option = "plat"
	OptionResidentKeys                   Option = "rk"
	OptionClientPIN                      Option = "clientPin"
	OptionUserPresence                   Option = "up"
	OptionUserVerification               Option = "uv"
	OptionPinUvAuthToken                 Option = "pinUvAuthToken"
	OptionNoMcGaPermissionsWithClientPin Option = "noMcGaPermissionsWithClientPin"
	OptionLargeBlobs                     Option = "largeBlobs"
	OptionCredentialManagement           Option = "credMgmt"
	OptionCredentialManagementPreview    Option = "credentialMgmtPreview"
	OptionMakeCredentialUvNotRequired    Option = "makeCredUvNotRqd"
	OptionAlwaysUv                       Option = "alwaysUv"
)

// Permission is a pinUvAuthToken permission bit set.
type Permission byte

const (
	PermissionNone                 Permission = 0x00
	PermissionMakeCredential       Permission = 0x01
	PermissionGetAssertion         Permission = 0x02
	PermissionCredentialManagement Permission = 0x04
	PermissionBioEnrollment        Permission = 0x08
	PermissionLargeBlobWrite       Permission = 0x10
	PermissionAuthenticatorConfig  Permission = 0x20
)

// Version is a CTAP protocol version string reported by authenticatorGetInfo.
type Version string

const (
	VersionFIDO20    Version = "FIDO_2_0"
	VersionFIDO21Pre Version = "FIDO_2_1_PRE"
	VersionFIDO21    Version = "FIDO_2_1"
	VersionFIDO22    Version = "FIDO_2_2"
	VersionU2FV2     Version = "U2F_V2"
)

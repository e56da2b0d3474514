package ctap2

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
	"github.com/ldclabs/cose/key"
)

// ErrInvalidAuthData is returned when an authenticator-data blob is shorter
// than its declared structure.
var ErrInvalidAuthData = errors.New("ctap2: invalid authenticator data")

// AuthDataFlag is the bit field at offset 32 of authenticator data.
type AuthDataFlag byte

const (
	AuthDataFlagUserPresent AuthDataFlag = 1 << iota
	_
	AuthDataFlagUserVerified
	AuthDataFlagBackupEligible
	AuthDataFlagBackedUp
	_
	AuthDataFlagAttestedCredentialDataIncluded
	AuthDataFlagExtensionDataIncluded
)

// UserPresent reports whether the user-presence bit is set.
func (f AuthDataFlag) UserPresent() bool {
	return f&AuthDataFlagUserPresent != 0
}

// UserVerified reports whether the user-verification bit is set.
func (f AuthDataFlag) UserVerified() bool {
	return f&AuthDataFlagUserVerified != 0
}

// AttestedCredentialData is the credential block an authenticator embeds in
// authenticator data when it mints a new credential.
type AttestedCredentialData struct {
	AAGUID              uuid.UUID
	CredentialID        []byte
	CredentialPublicKey key.Key
}

// AuthData is the parsed form of the raw authenticator-data blob carried in
// make-credential and get-assertion responses.
type AuthData struct {
	RPIDHash               []byte
	Flags                  AuthDataFlag
	SignCount              uint32
	AttestedCredentialData *AttestedCredentialData
	Extensions             map[string]cbor.RawMessage
}

// ParseAuthData decodes the fixed header, the optional attested credential
// data block and the optional extension map from raw authenticator data.
func ParseAuthData(raw []byte) (*AuthData, error) {
	if len(raw) < 37 {
		return nil, fmt.Errorf("%w: %d bytes", ErrInvalidAuthData, len(raw))
	}

	authData := &AuthData{
		RPIDHash:  raw[:32],
		Flags:     AuthDataFlag(raw[32]),
		SignCount: binary.BigEndian.Uint32(raw[33:37]),
	}
	rest := raw[37:]

	if authData.Flags&AuthDataFlagAttestedCredentialDataIncluded != 0 {
		if len(rest) < 18 {
			return nil, fmt.Errorf("%w: truncated attested credential data", ErrInvalidAuthData)
		}
		credIDLen := int(binary.BigEndian.Uint16(rest[16:18]))
		if len(rest) < 18+credIDLen {
			return nil, fmt.Errorf("%w: truncated credential id", ErrInvalidAuthData)
		}

		attested := &AttestedCredentialData{
			AAGUID:       uuid.UUID(rest[:16]),
			CredentialID: rest[18 : 18+credIDLen],
		}
		// The COSE key is self-delimiting CBOR; anything after it belongs
		// to the extension map.
		var coseKey key.Key
		decoder := cbor.NewDecoder(bytes.NewReader(rest[18+credIDLen:]))
		if err := decoder.Decode(&coseKey); err != nil {
			return nil, fmt.Errorf("%w: credential public key: %w", ErrInvalidAuthData, err)
		}
		attested.CredentialPublicKey = coseKey
		authData.AttestedCredentialData = attested
		rest = rest[18+credIDLen+decoder.NumBytesRead():]
	}

	if authData.Flags&AuthDataFlagExtensionDataIncluded != 0 {
		if err := cbor.Unmarshal(rest, &authData.Extensions); err != nil {
			return nil, fmt.Errorf("%w: extension data: %w", ErrInvalidAuthData, err)
		}
	}

	return authData, nil
}

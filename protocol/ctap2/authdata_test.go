package ctap2

import (
	"bytes"
	"crypto/ecdh"
	"crypto/rand"
	"encoding/binary"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
	ecdh2 "github.com/ldclabs/cose/key/ecdh"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildAuthData(t *testing.T, flags AuthDataFlag, attested bool, extensions map[string]any) []byte {
	t.Helper()

	var buf bytes.Buffer
	rpIDHash := bytes.Repeat([]byte{0xab}, 32)
	buf.Write(rpIDHash)
	buf.WriteByte(byte(flags))
	buf.Write([]byte{0x00, 0x00, 0x00, 0x2a})

	if attested {
		aaguid := uuid.MustParse("01020304-0506-0708-090a-0b0c0d0e0f10")
		buf.Write(aaguid[:])

		credentialID := []byte{0x11, 0x22, 0x33}
		credIDLen := make([]byte, 2)
		binary.BigEndian.PutUint16(credIDLen, uint16(len(credentialID)))
		buf.Write(credIDLen)
		buf.Write(credentialID)

		privateKey, err := ecdh.P256().GenerateKey(rand.Reader)
		require.NoError(t, err)
		coseKey, err := ecdh2.KeyFromPublic(privateKey.PublicKey())
		require.NoError(t, err)
		coseKeyBytes, err := cbor.Marshal(coseKey)
		require.NoError(t, err)
		buf.Write(coseKeyBytes)
	}

	if extensions != nil {
		extBytes, err := cbor.Marshal(extensions)
		require.NoError(t, err)
		buf.Write(extBytes)
	}

	return buf.Bytes()
}

func TestParseAuthDataMinimal(t *testing.T) {
	raw := buildAuthData(t, AuthDataFlagUserPresent, false, nil)

	authData, err := ParseAuthData(raw)
	require.NoError(t, err)

	assert.Equal(t, bytes.Repeat([]byte{0xab}, 32), authData.RPIDHash)
	assert.True(t, authData.Flags.UserPresent())
	assert.False(t, authData.Flags.UserVerified())
	assert.Equal(t, uint32(0x2a), authData.SignCount)
	assert.Nil(t, authData.AttestedCredentialData)
	assert.Nil(t, authData.Extensions)
}

func TestParseAuthDataAttestedCredential(t *testing.T) {
	flags := AuthDataFlagUserPresent | AuthDataFlagUserVerified | AuthDataFlagAttestedCredentialDataIncluded
	raw := buildAuthData(t, flags, true, nil)

	authData, err := ParseAuthData(raw)
	require.NoError(t, err)

	require.NotNil(t, authData.AttestedCredentialData)
	assert.Equal(t, uuid.MustParse("01020304-0506-0708-090a-0b0c0d0e0f10"), authData.AttestedCredentialData.AAGUID)
	assert.Equal(t, []byte{0x11, 0x22, 0x33}, authData.AttestedCredentialData.CredentialID)
	assert.NotNil(t, authData.AttestedCredentialData.CredentialPublicKey)
}

func TestParseAuthDataExtensionsAfterCredential(t *testing.T) {
	flags := AuthDataFlagUserPresent | AuthDataFlagAttestedCredentialDataIncluded | AuthDataFlagExtensionDataIncluded
	raw := buildAuthData(t, flags, true, map[string]any{"credBlob": true})

	authData, err := ParseAuthData(raw)
	require.NoError(t, err)

	require.NotNil(t, authData.AttestedCredentialData)
	require.Contains(t, authData.Extensions, "credBlob")
}

func TestParseAuthDataTruncated(t *testing.T) {
	raw := buildAuthData(t, AuthDataFlagUserPresent, false, nil)

	_, err := ParseAuthData(raw[:36])
	assert.ErrorIs(t, err, ErrInvalidAuthData)

	flags := AuthDataFlagUserPresent | AuthDataFlagAttestedCredentialDataIncluded
	attested := buildAuthData(t, flags, true, nil)

	_, err = ParseAuthData(attested[:40])
	assert.ErrorIs(t, err, ErrInvalidAuthData)
}

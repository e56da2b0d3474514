package seckey

import (
	"bytes"
	"crypto/ecdh"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"slices"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
	"github.com/ldclabs/cose/iana"
	coseecdh "github.com/ldclabs/cose/key/ecdh"

	"github.com/seckeylab/go-seckey/protocol/ctap2"
	"github.com/seckeylab/go-seckey/protocol/ctap2/pin/protocolone"
	"github.com/seckeylab/go-seckey/protocol/webauthn"
)

// fakeCredential is one discoverable credential held by the fake
// authenticator.
type fakeCredential struct {
	rp   webauthn.PublicKeyCredentialRpEntity
	user webauthn.PublicKeyCredentialUserEntity
	id   []byte
}

// fakeAuthenticator implements transport.Transport and emulates enough of a
// CTAP2 authenticator (PIN/UV auth protocol one) to exercise the session
// end to end: PIN verification with retry accounting, pinUvAuthParam
// validation, credential enumeration cursors, assertions and the
// large-blob array.
type fakeAuthenticator struct {
	encMode cbor.EncMode

	pinHash    []byte
	pinRetries uint
	maxRetries uint
	token      []byte

	// Built-in user verification, modeled only when supportsUV is set.
	supportsUV   bool
	uvRetries    uint
	maxUvRetries uint
	// uvFailures makes that many UV attempts fail before one succeeds.
	uvFailures uint

	privateKey *ecdh.PrivateKey
	maxMsgSize uint

	credentials []fakeCredential

	assertions []*ctap2.AuthenticatorGetAssertionResponse
	nextCursor int

	rpCursor   []webauthn.PublicKeyCredentialRpEntity
	credCursor []fakeCredential

	largeBlobArray []byte
	pendingSet     []byte
	pendingLength  uint

	// failNextCredentialStep makes the next enumerate get-next fail, for
	// aborted-enumeration tests.
	failNextCredentialStep bool
	// failNextAssertionStep makes the next getNextAssertion fail.
	failNextAssertionStep bool
}

func newFakeAuthenticator(pin string) *fakeAuthenticator {
	encMode, err := cbor.CTAP2EncOptions().EncMode()
	if err != nil {
		panic(err)
	}

	privateKey, err := ecdh.P256().GenerateKey(rand.Reader)
	if err != nil {
		panic(err)
	}

	token := make([]byte, 32)
	if _, err := rand.Read(token); err != nil {
		panic(err)
	}

	pinHash := sha256.Sum256([]byte(pin))

	f := &fakeAuthenticator{
		encMode:    encMode,
		pinHash:    pinHash[:16],
		pinRetries: 8,
		maxRetries: 8,
		token:      token,
		privateKey: privateKey,
		maxMsgSize: 1200,
	}
	f.largeBlobArray = f.emptyLargeBlobArray()

	return f
}

func (f *fakeAuthenticator) emptyLargeBlobArray() []byte {
	serialized, err := f.encMode.Marshal([]*ctap2.LargeBlob{})
	if err != nil {
		panic(err)
	}
	hash := sha256.Sum256(serialized)
	return slices.Concat(serialized, hash[:16])
}

func (f *fakeAuthenticator) Close() error { return nil }

func (f *fakeAuthenticator) SendReceive(request []byte) ([]byte, error) {
	command := ctap2.Command(request[0])
	payload := request[1:]

	switch command {
	case ctap2.CMDAuthenticatorGetInfo:
		return f.handleGetInfo()
	case ctap2.CMDAuthenticatorClientPIN:
		return f.handleClientPIN(payload)
	case ctap2.CMDAuthenticatorMakeCredential:
		return f.handleMakeCredential(payload)
	case ctap2.CMDAuthenticatorGetAssertion:
		return f.handleGetAssertion(payload)
	case ctap2.CMDAuthenticatorGetNextAssertion:
		return f.handleGetNextAssertion()
	case ctap2.CMDAuthenticatorCredentialManagement:
		return f.handleCredentialManagement(payload)
	case ctap2.CMDAuthenticatorLargeBlobs:
		return f.handleLargeBlobs(payload)
	default:
		return []byte{byte(ctap2.StatusInvalidCommand)}, nil
	}
}

func (f *fakeAuthenticator) respond(status ctap2.Status, body any) ([]byte, error) {
	if body == nil {
		return []byte{byte(status)}, nil
	}
	b, err := f.encMode.Marshal(body)
	if err != nil {
		return nil, err
	}
	return slices.Concat([]byte{byte(status)}, b), nil
}

func (f *fakeAuthenticator) handleGetInfo() ([]byte, error) {
	options := map[ctap2.Option]bool{
		ctap2.OptionClientPIN:            true,
		ctap2.OptionPinUvAuthToken:       true,
		ctap2.OptionResidentKeys:         true,
		ctap2.OptionCredentialManagement: true,
		ctap2.OptionLargeBlobs:           true,
	}
	if f.supportsUV {
		options[ctap2.OptionUserVerification] = true
	}

	return f.respond(ctap2.StatusSuccess, &ctap2.AuthenticatorGetInfoResponse{
		Versions: []ctap2.Version{ctap2.VersionFIDO21},
		Extensions: []webauthn.ExtensionIdentifier{
			webauthn.ExtensionIdentifierCredentialBlob,
			webauthn.ExtensionIdentifierLargeBlobKey,
		},
		AAGUID: uuid.MustParse("a1a2a3a4-b1b2-c1c2-d1d2-e1e2e3e4e5e6"),
		Options:                     options,
		MaxMsgSize:                  f.maxMsgSize,
		PinUvAuthProtocols:          []ctap2.PinUvAuthProtocolType{ctap2.PinUvAuthProtocolTypeOne},
		MaxSerializedLargeBlobArray: 2048,
		MaxCredBlobLength:           32,
	})
}

func (f *fakeAuthenticator) handleClientPIN(payload []byte) ([]byte, error) {
	var req ctap2.AuthenticatorClientPINRequest
	if err := cbor.Unmarshal(payload, &req); err != nil {
		return []byte{byte(ctap2.StatusInvalidCBOR)}, nil
	}

	switch req.SubCommand {
	case ctap2.ClientPINSubCommandGetPINRetries:
		return f.respond(ctap2.StatusSuccess, &ctap2.AuthenticatorClientPINResponse{
			PinRetries: f.pinRetries,
		})

	case ctap2.ClientPINSubCommandGetKeyAgreement:
		coseKey, err := coseecdh.KeyFromPublic(f.privateKey.PublicKey())
		if err != nil {
			return nil, err
		}
		if err := coseKey.Set(iana.KeyParameterAlg, -25); err != nil {
			return nil, err
		}
		delete(coseKey, iana.KeyParameterKid)

		return f.respond(ctap2.StatusSuccess, &ctap2.AuthenticatorClientPINResponse{
			KeyAgreement: coseKey,
		})

	case ctap2.ClientPINSubCommandGetUVRetries:
		return f.respond(ctap2.StatusSuccess, &ctap2.AuthenticatorClientPINResponse{
			UvRetries: f.uvRetries,
		})

	case ctap2.ClientPINSubCommandGetPinUvAuthTokenUsingUvWithPermissions:
		if !f.supportsUV || f.uvRetries == 0 {
			return []byte{byte(ctap2.StatusUvBlocked)}, nil
		}

		platformPub, err := coseecdh.KeyToPublic(req.KeyAgreement)
		if err != nil {
			return []byte{byte(ctap2.StatusInvalidParameter)}, nil
		}
		z, err := f.privateKey.ECDH(platformPub)
		if err != nil {
			return nil, err
		}
		sharedSecret := protocolone.KDF(z)

		if f.uvFailures > 0 {
			f.uvFailures--
			f.uvRetries--
			if f.uvRetries == 0 {
				return []byte{byte(ctap2.StatusUvBlocked)}, nil
			}
			return []byte{byte(ctap2.StatusUvInvalid)}, nil
		}

		f.uvRetries = f.maxUvRetries

		tokenEnc, err := protocolone.Encrypt(sharedSecret, f.token)
		if err != nil {
			return nil, err
		}
		return f.respond(ctap2.StatusSuccess, &ctap2.AuthenticatorClientPINResponse{
			PinUvAuthToken: tokenEnc,
		})

	case ctap2.ClientPINSubCommandChangePIN:
		if f.pinRetries == 0 {
			return []byte{byte(ctap2.StatusPINBlocked)}, nil
		}

		platformPub, err := coseecdh.KeyToPublic(req.KeyAgreement)
		if err != nil {
			return []byte{byte(ctap2.StatusInvalidParameter)}, nil
		}
		z, err := f.privateKey.ECDH(platformPub)
		if err != nil {
			return nil, err
		}
		sharedSecret := protocolone.KDF(z)

		expected := protocolone.Authenticate(sharedSecret, slices.Concat(req.NewPinEnc, req.PinHashEnc))
		if !bytes.Equal(req.PinUvAuthParam, expected) {
			return []byte{byte(ctap2.StatusPINAuthInvalid)}, nil
		}

		pinHash, err := protocolone.Decrypt(sharedSecret, req.PinHashEnc)
		if err != nil {
			return []byte{byte(ctap2.StatusInvalidParameter)}, nil
		}
		if !bytes.Equal(pinHash, f.pinHash) {
			f.pinRetries--
			if f.pinRetries == 0 {
				return []byte{byte(ctap2.StatusPINBlocked)}, nil
			}
			return []byte{byte(ctap2.StatusPINInvalid)}, nil
		}

		newPinPadded, err := protocolone.Decrypt(sharedSecret, req.NewPinEnc)
		if err != nil {
			return []byte{byte(ctap2.StatusInvalidParameter)}, nil
		}
		newPin := bytes.TrimRight(newPinPadded, "\x00")
		newHash := sha256.Sum256(newPin)
		f.pinHash = newHash[:16]
		f.pinRetries = f.maxRetries

		return []byte{byte(ctap2.StatusSuccess)}, nil

	case ctap2.ClientPINSubCommandGetPinUvAuthTokenUsingPinWithPermissions:
		if f.pinRetries == 0 {
			return []byte{byte(ctap2.StatusPINBlocked)}, nil
		}

		platformPub, err := coseecdh.KeyToPublic(req.KeyAgreement)
		if err != nil {
			return []byte{byte(ctap2.StatusInvalidParameter)}, nil
		}
		z, err := f.privateKey.ECDH(platformPub)
		if err != nil {
			return nil, err
		}
		sharedSecret := protocolone.KDF(z)

		pinHash, err := protocolone.Decrypt(sharedSecret, req.PinHashEnc)
		if err != nil {
			return []byte{byte(ctap2.StatusInvalidParameter)}, nil
		}

		if !bytes.Equal(pinHash, f.pinHash) {
			f.pinRetries--
			if f.pinRetries == 0 {
				return []byte{byte(ctap2.StatusPINBlocked)}, nil
			}
			return []byte{byte(ctap2.StatusPINInvalid)}, nil
		}

		f.pinRetries = f.maxRetries

		tokenEnc, err := protocolone.Encrypt(sharedSecret, f.token)
		if err != nil {
			return nil, err
		}
		return f.respond(ctap2.StatusSuccess, &ctap2.AuthenticatorClientPINResponse{
			PinUvAuthToken: tokenEnc,
		})

	default:
		return []byte{byte(ctap2.StatusInvalidParameter)}, nil
	}
}

// checkAuthParam verifies a pinUvAuthParam computed under protocol one with
// the issued token.
func (f *fakeAuthenticator) checkAuthParam(param []byte, message []byte) bool {
	return bytes.Equal(param, protocolone.Authenticate(f.token, message))
}

func (f *fakeAuthenticator) handleMakeCredential(payload []byte) ([]byte, error) {
	var req ctap2.AuthenticatorMakeCredentialRequest
	if err := cbor.Unmarshal(payload, &req); err != nil {
		return []byte{byte(ctap2.StatusInvalidCBOR)}, nil
	}

	if !f.checkAuthParam(req.PinUvAuthParam, req.ClientDataHash) {
		return []byte{byte(ctap2.StatusPINAuthInvalid)}, nil
	}

	credentialID := make([]byte, 16)
	if _, err := rand.Read(credentialID); err != nil {
		return nil, err
	}

	f.credentials = append(f.credentials, fakeCredential{
		rp:   req.RP,
		user: req.User,
		id:   credentialID,
	})

	authData, err := f.makeAuthData(req.RP.ID, credentialID)
	if err != nil {
		return nil, err
	}

	return f.respond(ctap2.StatusSuccess, &ctap2.AuthenticatorMakeCredentialResponse{
		Format:               webauthn.AttestationStatementFormatIdentifierPacked,
		AuthDataRaw:          authData,
		AttestationStatement: cbor.RawMessage{0xa0}, // empty map
	})
}

// makeAuthData builds raw authenticator data with an attested credential
// data block holding a fresh P-256 COSE key.
func (f *fakeAuthenticator) makeAuthData(rpID string, credentialID []byte) ([]byte, error) {
	credKey, err := ecdh.P256().GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}
	coseKey, err := coseecdh.KeyFromPublic(credKey.PublicKey())
	if err != nil {
		return nil, err
	}
	coseKeyBytes, err := f.encMode.Marshal(coseKey)
	if err != nil {
		return nil, err
	}

	rpIDHash := sha256.Sum256([]byte(rpID))

	var buf bytes.Buffer
	buf.Write(rpIDHash[:])
	buf.WriteByte(byte(ctap2.AuthDataFlagUserPresent | ctap2.AuthDataFlagUserVerified | ctap2.AuthDataFlagAttestedCredentialDataIncluded))
	buf.Write([]byte{0x00, 0x00, 0x00, 0x01}) // sign count

	aaguid := uuid.MustParse("a1a2a3a4-b1b2-c1c2-d1d2-e1e2e3e4e5e6")
	buf.Write(aaguid[:])
	credIDLen := make([]byte, 2)
	binary.BigEndian.PutUint16(credIDLen, uint16(len(credentialID)))
	buf.Write(credIDLen)
	buf.Write(credentialID)
	buf.Write(coseKeyBytes)

	return buf.Bytes(), nil
}

// plainAuthData builds minimal raw authenticator data without attested
// credential data, as carried in assertions.
func plainAuthData(rpID string) []byte {
	rpIDHash := sha256.Sum256([]byte(rpID))

	var buf bytes.Buffer
	buf.Write(rpIDHash[:])
	buf.WriteByte(byte(ctap2.AuthDataFlagUserPresent | ctap2.AuthDataFlagUserVerified))
	buf.Write([]byte{0x00, 0x00, 0x00, 0x02})

	return buf.Bytes()
}

func (f *fakeAuthenticator) handleGetAssertion(payload []byte) ([]byte, error) {
	var req ctap2.AuthenticatorGetAssertionRequest
	if err := cbor.Unmarshal(payload, &req); err != nil {
		return []byte{byte(ctap2.StatusInvalidCBOR)}, nil
	}

	if !f.checkAuthParam(req.PinUvAuthParam, req.ClientDataHash) {
		return []byte{byte(ctap2.StatusPINAuthInvalid)}, nil
	}

	f.assertions = nil
	for _, cred := range f.credentials {
		if cred.rp.ID != req.RPID {
			continue
		}
		f.assertions = append(f.assertions, &ctap2.AuthenticatorGetAssertionResponse{
			Credential: webauthn.PublicKeyCredentialDescriptor{
				Type: webauthn.PublicKeyCredentialTypePublicKey,
				ID:   cred.id,
			},
			AuthDataRaw: plainAuthData(req.RPID),
			Signature:   []byte{0x30, 0x00},
			User:        cred.user,
		})
	}

	if len(f.assertions) == 0 {
		return []byte{byte(ctap2.StatusNoCredentials)}, nil
	}

	first := *f.assertions[0]
	first.NumberOfCredentials = uint(len(f.assertions))
	f.nextCursor = 1

	return f.respond(ctap2.StatusSuccess, &first)
}

func (f *fakeAuthenticator) handleGetNextAssertion() ([]byte, error) {
	if f.failNextAssertionStep {
		f.failNextAssertionStep = false
		return []byte{byte(ctap2.StatusNoCredentials)}, nil
	}
	if f.nextCursor >= len(f.assertions) {
		return []byte{byte(ctap2.StatusNotAllowed)}, nil
	}
	resp := f.assertions[f.nextCursor]
	f.nextCursor++
	return f.respond(ctap2.StatusSuccess, resp)
}

func (f *fakeAuthenticator) handleCredentialManagement(payload []byte) ([]byte, error) {
	var req ctap2.AuthenticatorCredentialManagementRequest
	if err := cbor.Unmarshal(payload, &req); err != nil {
		return []byte{byte(ctap2.StatusInvalidCBOR)}, nil
	}

	switch req.SubCommand {
	case ctap2.CredentialManagementSubCommandGetCredsMetadata:
		if !f.checkAuthParam(req.PinUvAuthParam, []byte{byte(req.SubCommand)}) {
			return []byte{byte(ctap2.StatusPINAuthInvalid)}, nil
		}
		return f.respond(ctap2.StatusSuccess, &ctap2.AuthenticatorCredentialManagementResponse{
			ExistingResidentCredentialsCount:             uint(len(f.credentials)),
			MaxPossibleRemainingResidentCredentialsCount: 25 - uint(len(f.credentials)),
		})

	case ctap2.CredentialManagementSubCommandEnumerateRPsBegin:
		if !f.checkAuthParam(req.PinUvAuthParam, []byte{byte(req.SubCommand)}) {
			return []byte{byte(ctap2.StatusPINAuthInvalid)}, nil
		}

		f.rpCursor = nil
		seen := map[string]bool{}
		for _, cred := range f.credentials {
			if !seen[cred.rp.ID] {
				seen[cred.rp.ID] = true
				f.rpCursor = append(f.rpCursor, cred.rp)
			}
		}
		if len(f.rpCursor) == 0 {
			return []byte{byte(ctap2.StatusNoCredentials)}, nil
		}

		rp := f.rpCursor[0]
		f.rpCursor = f.rpCursor[1:]
		rpIDHash := sha256.Sum256([]byte(rp.ID))
		return f.respond(ctap2.StatusSuccess, &ctap2.AuthenticatorCredentialManagementResponse{
			RP:       rp,
			RPIDHash: rpIDHash[:],
			TotalRPs: uint(len(f.rpCursor)) + 1,
		})

	case ctap2.CredentialManagementSubCommandEnumerateRPsGetNextRP:
		if len(f.rpCursor) == 0 {
			return []byte{byte(ctap2.StatusNotAllowed)}, nil
		}
		rp := f.rpCursor[0]
		f.rpCursor = f.rpCursor[1:]
		rpIDHash := sha256.Sum256([]byte(rp.ID))
		return f.respond(ctap2.StatusSuccess, &ctap2.AuthenticatorCredentialManagementResponse{
			RP:       rp,
			RPIDHash: rpIDHash[:],
		})

	case ctap2.CredentialManagementSubCommandEnumerateCredentialsBegin:
		params, err := f.encMode.Marshal(req.SubCommandParams)
		if err != nil {
			return nil, err
		}
		if !f.checkAuthParam(req.PinUvAuthParam, slices.Concat([]byte{byte(req.SubCommand)}, params)) {
			return []byte{byte(ctap2.StatusPINAuthInvalid)}, nil
		}

		f.credCursor = nil
		for _, cred := range f.credentials {
			rpIDHash := sha256.Sum256([]byte(cred.rp.ID))
			if bytes.Equal(rpIDHash[:], req.SubCommandParams.RPIDHash) {
				f.credCursor = append(f.credCursor, cred)
			}
		}
		if len(f.credCursor) == 0 {
			return []byte{byte(ctap2.StatusNoCredentials)}, nil
		}

		return f.nextCredentialResponse(uint(len(f.credCursor)))

	case ctap2.CredentialManagementSubCommandEnumerateCredentialsGetNextCredential:
		if f.failNextCredentialStep {
			f.failNextCredentialStep = false
			f.credCursor = nil
			return []byte{byte(ctap2.StatusOther)}, nil
		}
		if len(f.credCursor) == 0 {
			return []byte{byte(ctap2.StatusNotAllowed)}, nil
		}
		return f.nextCredentialResponse(0)

	case ctap2.CredentialManagementSubCommandDeleteCredential:
		params, err := f.encMode.Marshal(req.SubCommandParams)
		if err != nil {
			return nil, err
		}
		if !f.checkAuthParam(req.PinUvAuthParam, slices.Concat([]byte{byte(req.SubCommand)}, params)) {
			return []byte{byte(ctap2.StatusPINAuthInvalid)}, nil
		}

		for i, cred := range f.credentials {
			if bytes.Equal(cred.id, req.SubCommandParams.CredentialID.ID) {
				f.credentials = slices.Delete(f.credentials, i, i+1)
				return []byte{byte(ctap2.StatusSuccess)}, nil
			}
		}
		return []byte{byte(ctap2.StatusNoCredentials)}, nil

	case ctap2.CredentialManagementSubCommandUpdateUserInformation:
		params, err := f.encMode.Marshal(req.SubCommandParams)
		if err != nil {
			return nil, err
		}
		if !f.checkAuthParam(req.PinUvAuthParam, slices.Concat([]byte{byte(req.SubCommand)}, params)) {
			return []byte{byte(ctap2.StatusPINAuthInvalid)}, nil
		}

		for i, cred := range f.credentials {
			if bytes.Equal(cred.id, req.SubCommandParams.CredentialID.ID) {
				f.credentials[i].user = req.SubCommandParams.User
				return []byte{byte(ctap2.StatusSuccess)}, nil
			}
		}
		return []byte{byte(ctap2.StatusNoCredentials)}, nil

	default:
		return []byte{byte(ctap2.StatusInvalidParameter)}, nil
	}
}

func (f *fakeAuthenticator) nextCredentialResponse(total uint) ([]byte, error) {
	cred := f.credCursor[0]
	f.credCursor = f.credCursor[1:]

	return f.respond(ctap2.StatusSuccess, &ctap2.AuthenticatorCredentialManagementResponse{
		User: cred.user,
		CredentialID: webauthn.PublicKeyCredentialDescriptor{
			Type: webauthn.PublicKeyCredentialTypePublicKey,
			ID:   cred.id,
		},
		TotalCredentials: total,
	})
}

func (f *fakeAuthenticator) handleLargeBlobs(payload []byte) ([]byte, error) {
	var req ctap2.AuthenticatorLargeBlobsRequest
	if err := cbor.Unmarshal(payload, &req); err != nil {
		return []byte{byte(ctap2.StatusInvalidCBOR)}, nil
	}

	if req.Get > 0 {
		start := min(req.Offset, uint(len(f.largeBlobArray)))
		end := min(start+req.Get, uint(len(f.largeBlobArray)))
		return f.respond(ctap2.StatusSuccess, &ctap2.AuthenticatorLargeBlobsResponse{
			Config: f.largeBlobArray[start:end],
		})
	}

	offsetBin := make([]byte, 4)
	binary.LittleEndian.PutUint32(offsetBin, uint32(req.Offset))
	hash := sha256.Sum256(req.Set)
	message := slices.Concat(
		bytes.Repeat([]byte{0xff}, 32),
		[]byte{byte(ctap2.CMDAuthenticatorLargeBlobs), 0x00},
		offsetBin,
		hash[:],
	)
	if !f.checkAuthParam(req.PinUvAuthParam, message) {
		return []byte{byte(ctap2.StatusPINAuthInvalid)}, nil
	}

	if req.Offset == 0 {
		f.pendingSet = nil
		f.pendingLength = req.Length
	}
	f.pendingSet = append(f.pendingSet, req.Set...)

	if uint(len(f.pendingSet)) >= f.pendingLength {
		f.largeBlobArray = f.pendingSet
		f.pendingSet = nil
	}

	return []byte{byte(ctap2.StatusSuccess)}, nil
}

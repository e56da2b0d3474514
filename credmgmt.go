package seckey

import (
	"github.com/ldclabs/cose/key"

	"github.com/seckeylab/go-seckey/protocol/ctap2"
	"github.com/seckeylab/go-seckey/protocol/webauthn"
)

// CredentialMetadata summarizes the authenticator's discoverable-credential
// storage.
type CredentialMetadata struct {
	ExistingCredentials uint
	RemainingSlots      uint
}

// RelyingParty is one relying party holding discoverable credentials, as
// reported by enumeration.
type RelyingParty struct {
	RP       webauthn.PublicKeyCredentialRpEntity
	RPIDHash []byte
}

// Credential is one discoverable credential record reported by enumeration.
type Credential struct {
	User         webauthn.PublicKeyCredentialUserEntity
	CredentialID webauthn.PublicKeyCredentialDescriptor
	PublicKey    *key.Key
	CredProtect  uint
	LargeBlobKey []byte
}

// credMgmtPreconditions gates credential management against the capability
// descriptor and ensures the token scope. Callers must hold the session
// mutex.
func (s *Session) credMgmtPreconditions() (preview bool, err error) {
	credMgmt, ok := s.info.Options[ctap2.OptionCredentialManagement]
	credMgmtPreview, okPreview := s.info.Options[ctap2.OptionCredentialManagementPreview]
	if (!ok || !credMgmt) && (!okPreview || !credMgmtPreview) {
		return false, newErrorMessage(ErrNotSupported, "authenticator doesn't support credential management")
	}

	preview = (!ok || !credMgmt) || s.info.IsPreviewOnly()

	if err := s.ensureScope(ctap2.PermissionCredentialManagement, ""); err != nil {
		return false, err
	}

	return preview, nil
}

// GetCredentialMetadata reports how many discoverable credentials exist and
// how many more the authenticator can hold.
func (s *Session) GetCredentialMetadata() (*CredentialMetadata, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	preview, err := s.credMgmtPreconditions()
	if err != nil {
		return nil, err
	}

	resp, err := s.client.GetCredsMetadata(preview, s.pinUvAuthProtocol(), s.token)
	if err != nil {
		return nil, err
	}

	return &CredentialMetadata{
		ExistingCredentials: resp.ExistingResidentCredentialsCount,
		RemainingSlots:      resp.MaxPossibleRemainingResidentCredentialsCount,
	}, nil
}

// EnumerateRelyingParties lists the relying parties with discoverable
// credentials, in authenticator-reported order. A failed get-next step
// discards any partial result.
func (s *Session) EnumerateRelyingParties() ([]RelyingParty, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	preview, err := s.credMgmtPreconditions()
	if err != nil {
		return nil, err
	}

	var rps []RelyingParty
	for resp, err := range s.client.EnumerateRPs(preview, s.pinUvAuthProtocol(), s.token) {
		if err != nil {
			return nil, newErrorMessage(ErrEnumerationAborted, err.Error())
		}
		rps = append(rps, RelyingParty{
			RP:       resp.RP,
			RPIDHash: resp.RPIDHash,
		})
	}

	return rps, nil
}

// EnumerateCredentials lists the discoverable credentials of one relying
// party, in authenticator-reported order. A failed get-next step discards
// any partial result.
func (s *Session) EnumerateCredentials(rpIDHash []byte) ([]Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	preview, err := s.credMgmtPreconditions()
	if err != nil {
		return nil, err
	}

	var creds []Credential
	for resp, err := range s.client.EnumerateCredentials(preview, s.pinUvAuthProtocol(), s.token, rpIDHash) {
		if err != nil {
			return nil, newErrorMessage(ErrEnumerationAborted, err.Error())
		}
		creds = append(creds, Credential{
			User:         resp.User,
			CredentialID: resp.CredentialID,
			PublicKey:    resp.PublicKey,
			CredProtect:  resp.CredProtect,
			LargeBlobKey: resp.LargeBlobKey,
		})
	}

	return creds, nil
}

// UpdateUserInfo replaces the user entity stored with a credential.
func (s *Session) UpdateUserInfo(credentialID webauthn.PublicKeyCredentialDescriptor, user webauthn.PublicKeyCredentialUserEntity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	preview, err := s.credMgmtPreconditions()
	if err != nil {
		return err
	}

	return s.client.UpdateUserInformation(preview, s.pinUvAuthProtocol(), s.token, credentialID, user)
}

// DeleteCredential removes a discoverable credential from the
// authenticator.
func (s *Session) DeleteCredential(credentialID webauthn.PublicKeyCredentialDescriptor) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	preview, err := s.credMgmtPreconditions()
	if err != nil {
		return err
	}

	return s.client.DeleteCredential(preview, s.pinUvAuthProtocol(), s.token, credentialID)
}

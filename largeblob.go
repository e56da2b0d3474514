package seckey

import (
	"crypto/sha256"
	"fmt"
	"slices"

	"github.com/fxamacker/cbor/v2"

	"github.com/seckeylab/go-seckey/protocol/ctap2"
)

// largeBlobFragmentMargin is the per-message overhead reserved when
// fragmenting large-blob reads and writes.
const largeBlobFragmentMargin = 64

// GetLargeBlobArray reads the full serialized large-blob array in fragments
// and verifies the trailing truncated SHA-256 over it before decoding.
func (s *Session) GetLargeBlobArray() ([]*ctap2.LargeBlob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrSessionClosed
	}

	if largeBlobs, ok := s.info.Options[ctap2.OptionLargeBlobs]; !ok || !largeBlobs {
		return nil, newErrorMessage(ErrNotSupported, "authenticator doesn't support largeBlobs")
	}

	maxFragmentLength := s.maxFragmentLength()

	resp, err := s.client.LargeBlobs(s.pinUvAuthProtocol(), nil, maxFragmentLength, nil, 0, 0)
	if err != nil {
		return nil, err
	}

	config := resp.Config
	offset := uint(len(config))

	for uint(len(resp.Config)) == maxFragmentLength {
		resp, err = s.client.LargeBlobs(s.pinUvAuthProtocol(), nil, maxFragmentLength, nil, offset, 0)
		if err != nil {
			return nil, err
		}

		config = slices.Concat(config, resp.Config)
		offset += uint(len(resp.Config))
	}

	if len(config) < 16 {
		return nil, newErrorMessage(ErrLargeBlobsIntegrityCheck, "serialized array shorter than its hash")
	}

	serialized := config[:len(config)-16]
	tag := config[len(config)-16:]

	hash := sha256.Sum256(serialized)
	if !slices.Equal(tag, hash[:16]) {
		return nil, newErrorMessage(ErrLargeBlobsIntegrityCheck, "calculated and stored hashes mismatch")
	}

	var blobs []*ctap2.LargeBlob
	if err := cbor.Unmarshal(serialized, &blobs); err != nil {
		return nil, err
	}

	return blobs, nil
}

// SetLargeBlobArray serializes the array, appends the truncated SHA-256 tag
// and writes it in authenticated fragments. Read-modify-write of the array
// is the caller's discretion; no merging happens here.
func (s *Session) SetLargeBlobArray(blobs []*ctap2.LargeBlob) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if largeBlobs, ok := s.info.Options[ctap2.OptionLargeBlobs]; !ok || !largeBlobs {
		return newErrorMessage(ErrNotSupported, "authenticator doesn't support largeBlobs")
	}

	if err := s.ensureScope(ctap2.PermissionLargeBlobWrite, ""); err != nil {
		return err
	}

	if blobs == nil {
		blobs = []*ctap2.LargeBlob{}
	}

	set, err := s.cborEncMode.Marshal(blobs)
	if err != nil {
		return err
	}

	hash := sha256.Sum256(set)
	set = slices.Concat(set, hash[:16])

	if s.info.MaxSerializedLargeBlobArray > 0 && uint(len(set)) > s.info.MaxSerializedLargeBlobArray {
		return newErrorMessage(
			ErrLargeBlobsTooBig,
			fmt.Sprintf(
				"authenticator holds at most %d bytes, tried to store %d",
				s.info.MaxSerializedLargeBlobArray,
				len(set),
			),
		)
	}

	maxFragmentLength := s.maxFragmentLength()
	offset := uint(0)
	length := uint(len(set))

	first := true
	for chunk := range slices.Chunk(set, int(maxFragmentLength)) {
		if !first {
			length = 0
		}

		if _, err := s.client.LargeBlobs(
			s.pinUvAuthProtocol(),
			s.token,
			0,
			chunk,
			offset,
			length,
		); err != nil {
			return err
		}

		offset += uint(len(chunk))
		first = false
	}

	return nil
}

// ReadLargeBlob tries the key against every entry of the array in order and
// returns the first plaintext that authenticates. No entry decrypting is
// "not found" (found == false), not an error. The returned plaintext is
// owned by the caller, who must zeroize it after use.
func (s *Session) ReadLargeBlob(largeBlobKey []byte) (plaintext []byte, found bool, err error) {
	blobs, err := s.GetLargeBlobArray()
	if err != nil {
		return nil, false, err
	}

	for _, blob := range blobs {
		data, err := ctap2.DecryptLargeBlob(largeBlobKey, blob)
		if err == nil {
			return data, true, nil
		}
	}

	return nil, false, nil
}

// WriteLargeBlob appends (or replaces) the entry readable under the given
// per-credential key, using read-modify-write over the whole array.
func (s *Session) WriteLargeBlob(largeBlobKey []byte, data []byte) error {
	blobs, err := s.GetLargeBlobArray()
	if err != nil {
		return err
	}

	entry, err := ctap2.EncryptLargeBlob(largeBlobKey, data)
	if err != nil {
		return err
	}

	// Replace an existing entry for this key, if any.
	replaced := false
	for i, blob := range blobs {
		plaintext, err := ctap2.DecryptLargeBlob(largeBlobKey, blob)
		if err != nil {
			continue
		}
		ctap2.Zeroize(plaintext)
		blobs[i] = entry
		replaced = true
		break
	}
	if !replaced {
		blobs = append(blobs, entry)
	}

	return s.SetLargeBlobArray(blobs)
}

func (s *Session) maxFragmentLength() uint {
	if s.info.MaxMsgSize > largeBlobFragmentMargin {
		return s.info.MaxMsgSize - largeBlobFragmentMargin
	}
	return 1024 - largeBlobFragmentMargin
}

// Package protocoltwo implements the primitives of PIN/UV auth protocol two
// as defined by CTAP 2.1 §6.5.7.
package protocoltwo

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"io"
	"slices"

	"golang.org/x/crypto/hkdf"
)

var (
	// ErrInvalidKeyLength is returned when the shared secret is not 64 bytes.
	ErrInvalidKeyLength = errors.New("protocoltwo: shared secret must be 64 bytes")
	// ErrInvalidCiphertext is returned when the ciphertext is too short or misaligned.
	ErrInvalidCiphertext = errors.New("protocoltwo: invalid ciphertext length")
	// ErrInvalidPlaintext is returned when the plaintext is not block aligned.
	ErrInvalidPlaintext = errors.New("protocoltwo: plaintext length is not a multiple of the AES block size")
)

// KDF derives the 64-byte shared secret from the raw ECDH output:
// HKDF-SHA-256 with a zero salt, run once with info "CTAP2 HMAC key" and once
// with info "CTAP2 AES key", concatenated.
func KDF(z []byte) ([]byte, error) {
	salt := make([]byte, 32)

	hmacKey := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, z, salt, []byte("CTAP2 HMAC key")), hmacKey); err != nil {
		return nil, err
	}

	aesKey := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, z, salt, []byte("CTAP2 AES key")), aesKey); err != nil {
		return nil, err
	}

	return slices.Concat(hmacKey, aesKey), nil
}

// Encrypt performs AES-256-CBC with a fresh random IV under the AES half of
// the shared secret. The IV is prepended to the ciphertext.
func Encrypt(key []byte, plaintext []byte) ([]byte, error) {
	if len(key) != 64 {
		return nil, ErrInvalidKeyLength
	}
	if len(plaintext)%aes.BlockSize != 0 {
		return nil, ErrInvalidPlaintext
	}

	block, err := aes.NewCipher(key[32:])
	if err != nil {
		return nil, err
	}

	iv := make([]byte, aes.BlockSize)
	if _, err := rand.Read(iv); err != nil {
		return nil, err
	}

	ciphertext := make([]byte, len(plaintext))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, plaintext)

	return slices.Concat(iv, ciphertext), nil
}

// Decrypt reverses Encrypt, reading the IV from the first block.
func Decrypt(key []byte, ciphertext []byte) ([]byte, error) {
	if len(key) != 64 {
		return nil, ErrInvalidKeyLength
	}
	if len(ciphertext) < aes.BlockSize || len(ciphertext)%aes.BlockSize != 0 {
		return nil, ErrInvalidCiphertext
	}

	block, err := aes.NewCipher(key[32:])
	if err != nil {
		return nil, err
	}

	iv, ciphertext := ciphertext[:aes.BlockSize], ciphertext[aes.BlockSize:]
	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plaintext, ciphertext)

	return plaintext, nil
}

// Authenticate computes the full HMAC-SHA-256 over the message under the
// HMAC half of the shared secret.
func Authenticate(key []byte, message []byte) []byte {
	if len(key) == 64 {
		key = key[:32]
	}
	mac := hmac.New(sha256.New, key)
	mac.Write(message)
	return mac.Sum(nil)
}

// Package protocolone implements the primitives of PIN/UV auth protocol one
// as defined by CTAP 2.1 §6.5.6.
package protocolone

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/sha256"
	"errors"
)

var (
	// ErrInvalidCiphertext is returned when the ciphertext is not block aligned.
	ErrInvalidCiphertext = errors.New("protocolone: ciphertext length is not a multiple of the AES block size")
	// ErrInvalidPlaintext is returned when the plaintext is not block aligned.
	ErrInvalidPlaintext = errors.New("protocolone: plaintext length is not a multiple of the AES block size")
)

// KDF derives the shared secret from the raw ECDH output: SHA-256(Z).
func KDF(z []byte) []byte {
	sum := sha256.Sum256(z)
	return sum[:]
}

// Encrypt performs AES-256-CBC with an all-zero IV. The IV is not included
// in the output; both sides derive it implicitly.
func Encrypt(key []byte, plaintext []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	if len(plaintext)%aes.BlockSize != 0 {
		return nil, ErrInvalidPlaintext
	}

	iv := make([]byte, aes.BlockSize)
	ciphertext := make([]byte, len(plaintext))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, plaintext)

	return ciphertext, nil
}

// Decrypt reverses Encrypt.
func Decrypt(key []byte, ciphertext []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	if len(ciphertext)%aes.BlockSize != 0 {
		return nil, ErrInvalidCiphertext
	}

	iv := make([]byte, aes.BlockSize)
	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plaintext, ciphertext)

	return plaintext, nil
}

// Authenticate computes HMAC-SHA-256 over the message and returns the first
// 16 bytes, as protocol one requires.
func Authenticate(key []byte, message []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(message)
	return mac.Sum(nil)[:16]
}

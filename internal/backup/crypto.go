package backup

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

// Encrypted blob layout: salt (16) || nonce (16) || AES-256-GCM ciphertext+tag.
const (
	saltSize  = 16
	nonceSize = 16
	keySize   = 32
	tagSize   = 16

	// PBKDF2-HMAC-SHA256 iterations. Deliberately slow to resist brute
	// forcing of backup passwords.
	kdfIterations = 150_000
)

func deriveKey(password string, salt []byte) ([]byte, error) {
	if password == "" {
		return nil, ErrKeyDerivationFailed
	}
	return pbkdf2.Key([]byte(password), salt, kdfIterations, keySize, sha256.New), nil
}

// Encrypt seals plaintext with a key derived from password. A fresh salt and
// nonce are generated per call, so encrypting the same payload twice yields
// different blobs.
func Encrypt(plaintext []byte, password string) ([]byte, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncryptionFailed, err)
	}
	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncryptionFailed, err)
	}

	key, err := deriveKey(password, salt)
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncryptionFailed, err)
	}
	gcm, err := cipher.NewGCMWithNonceSize(block, nonceSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncryptionFailed, err)
	}

	out := make([]byte, 0, saltSize+nonceSize+len(plaintext)+tagSize)
	out = append(out, salt...)
	out = append(out, nonce...)
	out = gcm.Seal(out, nonce, plaintext, nil)
	return out, nil
}

// Decrypt opens a blob produced by Encrypt. Every malformed-input and
// authentication failure surfaces as the same ErrDecryptionFailed so callers
// cannot tell which part of the blob was wrong (no decryption oracle).
func Decrypt(blob []byte, password string) ([]byte, error) {
	if len(blob) < saltSize+nonceSize+tagSize {
		return nil, ErrDecryptionFailed
	}
	salt := blob[:saltSize]
	nonce := blob[saltSize : saltSize+nonceSize]
	ciphertext := blob[saltSize+nonceSize:]

	key, err := deriveKey(password, salt)
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	gcm, err := cipher.NewGCMWithNonceSize(block, nonceSize)
	if err != nil {
		return nil, ErrDecryptionFailed
	}

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	return plaintext, nil
}

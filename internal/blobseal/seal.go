// Package blobseal seals op payloads into the opaque blobs the wire
// contract carries. The key comes from the platform secure store; key
// management itself is outside this module.
package blobseal

import (
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// Sealer turns plaintext op payloads into opaque blobs and back.
type Sealer interface {
	Seal(plain []byte) ([]byte, error)
	Open(sealed []byte) ([]byte, error)
}

// XChaCha implements Sealer with XChaCha20-Poly1305, nonce prepended to
// the ciphertext.
type XChaCha struct {
	key []byte
}

// NewXChaCha creates a sealer from a 32-byte key.
func NewXChaCha(key []byte) (*XChaCha, error) {
	if len(key) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("sealing key must be %d bytes, got %d", chacha20poly1305.KeySize, len(key))
	}
	return &XChaCha{key: key}, nil
}

// Seal encrypts the payload with a fresh random nonce.
func (x *XChaCha) Seal(plain []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(x.key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	return aead.Seal(nonce, nonce, plain, nil), nil
}

// Open decrypts a blob produced by Seal.
func (x *XChaCha) Open(sealed []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(x.key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	if len(sealed) < aead.NonceSize() {
		return nil, fmt.Errorf("sealed blob too short")
	}
	nonce, ciphertext := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]

	plain, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open sealed blob: %w", err)
	}
	return plain, nil
}

// Passthrough is a no-op Sealer for tests and unencrypted deployments.
type Passthrough struct{}

func (Passthrough) Seal(plain []byte) ([]byte, error)  { return plain, nil }
func (Passthrough) Open(sealed []byte) ([]byte, error) { return sealed, nil }

package utils

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

const sealingSalt = "credguard-totp-sealing"

var ErrSealingNotConfigured = errors.New("secret sealing not configured")

// Sealer encrypts small secrets (TOTP seeds) for storage with AES-256-GCM.
// The key is derived from an operator-supplied secret with HKDF-SHA256.
type Sealer struct {
	key []byte
}

// NewSealer returns nil when secret is empty; a nil *Sealer stores values as
// plaintext.
func NewSealer(secret string) (*Sealer, error) {
	if secret == "" {
		return nil, nil
	}
	hkdfReader := hkdf.New(
		sha256.New,
		[]byte(secret),
		[]byte(sealingSalt),
		[]byte("totp-secret-key"),
	)
	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdfReader, key); err != nil {
		return nil, fmt.Errorf("derive sealing key: %w", err)
	}
	return &Sealer{key: key}, nil
}

func (s *Sealer) Enabled() bool {
	return s != nil && s.key != nil
}

func (s *Sealer) aead() (cipher.AEAD, error) {
	if !s.Enabled() {
		return nil, ErrSealingNotConfigured
	}
	block, err := aes.NewCipher(s.key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// Seal returns base64(nonce || ciphertext).
func (s *Sealer) Seal(plaintext string) (string, error) {
	gcm, err := s.aead()
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	sealed := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func (s *Sealer) Open(sealed string) (string, error) {
	gcm, err := s.aead()
	if err != nil {
		return "", err
	}

	raw, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return "", err
	}

	nonceSize := gcm.NonceSize()
	if len(raw) < nonceSize {
		return "", errors.New("sealed value too short")
	}

	nonce, ciphertext := raw[:nonceSize], raw[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", err
	}

	return string(plaintext), nil
}

// SealOrPlaintext seals value when sealing is configured and passes it
// through otherwise. Empty values are never sealed.
func (s *Sealer) SealOrPlaintext(value string) (string, error) {
	if value == "" || !s.Enabled() {
		return value, nil
	}
	return s.Seal(value)
}

// OpenOrPlaintext accepts rows written before sealing was switched on.
func (s *Sealer) OpenOrPlaintext(value string) string {
	if value == "" || !s.Enabled() {
		return value
	}
	plaintext, err := s.Open(value)
	if err != nil {
		return value
	}
	return plaintext
}

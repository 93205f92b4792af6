package store

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"strings"

	"dose-go/internal/dose"
)

// EncryptedStore encrypts every value before handing it to the inner store.
// Values are stored as base64 of the ciphertext.
type EncryptedStore struct {
	inner dose.Store
	enc   dose.Encryptor
	dec   dose.DecryptionContext
}

var _ dose.Store = (*EncryptedStore)(nil)

// NewEncryptedStore wraps inner. dec must be unlocked from the same key pair as enc.
func NewEncryptedStore(inner dose.Store, enc dose.Encryptor, dec dose.DecryptionContext) *EncryptedStore {
	return &EncryptedStore{inner: inner, enc: enc, dec: dec}
}

func (s *EncryptedStore) Get(key string) (string, bool, error) {
	raw, ok, err := s.inner.Get(key)
	if err != nil || !ok {
		return "", ok, err
	}
	ciphertext, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return "", false, fmt.Errorf("decoding %s: %w", key, err)
	}
	var plain bytes.Buffer
	if err := s.dec.Decrypt(bytes.NewReader(ciphertext), &plain); err != nil {
		return "", false, fmt.Errorf("decrypting %s: %w", key, err)
	}
	return plain.String(), true, nil
}

func (s *EncryptedStore) Set(key, value string) error {
	var ciphertext bytes.Buffer
	if err := s.enc.Encrypt(strings.NewReader(value), &ciphertext); err != nil {
		return fmt.Errorf("encrypting %s: %w", key, err)
	}
	return s.inner.Set(key, base64.StdEncoding.EncodeToString(ciphertext.Bytes()))
}

func (s *EncryptedStore) Close() error {
	return s.inner.Close()
}

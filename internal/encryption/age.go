package encryption

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"filippo.io/age"

	"dose-go/internal/config"
	"dose-go/internal/dose"
)

// ErrEmptyPassphrase is returned by Setup when no passphrase is given.
var ErrEmptyPassphrase = errors.New("passphrase must not be empty")

// AgeEncryptor protects record collections with an X25519 age key pair.
// The recipient file is plaintext. The identity file is itself an age file
// sealed with the passphrase (scrypt).
type AgeEncryptor struct {
	recipientPath string
	identityPath  string
}

var _ dose.Encryptor = (*AgeEncryptor)(nil)

func NewAgeEncryptor(cfg config.EncryptionConfig) *AgeEncryptor {
	return &AgeEncryptor{
		recipientPath: cfg.PublicKeyPath,
		identityPath:  cfg.PrivateKeyPath,
	}
}

// Setup generates a fresh key pair and writes both key files, replacing any
// existing ones.
func (e *AgeEncryptor) Setup(passphrase string) error {
	if passphrase == "" {
		return ErrEmptyPassphrase
	}
	identity, err := age.GenerateX25519Identity()
	if err != nil {
		return fmt.Errorf("generating identity: %w", err)
	}

	sealer, err := age.NewScryptRecipient(passphrase)
	if err != nil {
		return fmt.Errorf("preparing passphrase: %w", err)
	}
	var sealed bytes.Buffer
	if err := seal(&sealed, sealer, strings.NewReader(identity.String()+"\n")); err != nil {
		return fmt.Errorf("sealing identity: %w", err)
	}

	if err := writeKeyFile(e.recipientPath, []byte(identity.Recipient().String()+"\n"), 0644); err != nil {
		return fmt.Errorf("writing recipient: %w", err)
	}
	if err := writeKeyFile(e.identityPath, sealed.Bytes(), 0600); err != nil {
		return fmt.Errorf("writing identity: %w", err)
	}
	return nil
}

func (e *AgeEncryptor) Encrypt(r io.Reader, w io.Writer) error {
	recipient, err := e.recipient()
	if err != nil {
		return err
	}
	return seal(w, recipient, r)
}

// Unlock opens the identity file with the passphrase. A wrong passphrase
// fails here rather than on the first Decrypt.
func (e *AgeEncryptor) Unlock(passphrase string) (dose.DecryptionContext, error) {
	sealed, err := os.ReadFile(e.identityPath)
	if err != nil {
		return nil, fmt.Errorf("reading identity: %w", err)
	}
	opener, err := age.NewScryptIdentity(passphrase)
	if err != nil {
		return nil, fmt.Errorf("preparing passphrase: %w", err)
	}

	var plain bytes.Buffer
	if err := open(&plain, opener, bytes.NewReader(sealed)); err != nil {
		return nil, fmt.Errorf("unlocking identity: %w", err)
	}
	identities, err := age.ParseIdentities(&plain)
	if err != nil {
		return nil, fmt.Errorf("parsing identity: %w", err)
	}
	if len(identities) == 0 {
		return nil, fmt.Errorf("identity file holds no keys")
	}
	return &AgeDecryptionContext{identity: identities[0]}, nil
}

func (e *AgeEncryptor) IsConfigured() bool {
	for _, p := range []string{e.recipientPath, e.identityPath} {
		if _, err := os.Stat(p); err != nil {
			return false
		}
	}
	return true
}

func (e *AgeEncryptor) recipient() (age.Recipient, error) {
	data, err := os.ReadFile(e.recipientPath)
	if err != nil {
		return nil, fmt.Errorf("reading recipient: %w", err)
	}
	recipients, err := age.ParseRecipients(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parsing recipient: %w", err)
	}
	if len(recipients) == 0 {
		return nil, fmt.Errorf("recipient file holds no keys")
	}
	return recipients[0], nil
}

// AgeDecryptionContext holds an unlocked identity for the session.
type AgeDecryptionContext struct {
	identity age.Identity
}

var _ dose.DecryptionContext = (*AgeDecryptionContext)(nil)

func (c *AgeDecryptionContext) Decrypt(r io.Reader, w io.Writer) error {
	return open(w, c.identity, r)
}

func seal(dst io.Writer, recipient age.Recipient, src io.Reader) error {
	w, err := age.Encrypt(dst, recipient)
	if err != nil {
		return fmt.Errorf("starting encryption: %w", err)
	}
	if _, err := io.Copy(w, src); err != nil {
		return fmt.Errorf("encrypting: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finishing encryption: %w", err)
	}
	return nil
}

func open(dst io.Writer, identity age.Identity, src io.Reader) error {
	r, err := age.Decrypt(src, identity)
	if err != nil {
		return fmt.Errorf("starting decryption: %w", err)
	}
	if _, err := io.Copy(dst, r); err != nil {
		return fmt.Errorf("decrypting: %w", err)
	}
	return nil
}

func writeKeyFile(path string, data []byte, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	return os.WriteFile(path, data, mode)
}

package dose

import "io"

// Encryptor protects record collections at rest. Encrypting needs only the
// public key, so writes work without a passphrase once a session is unlocked.
type Encryptor interface {
	// Setup creates the key pair. The private key is sealed with passphrase.
	Setup(passphrase string) error

	// Encrypt reads plaintext from r and writes ciphertext to w.
	Encrypt(r io.Reader, w io.Writer) error

	// Unlock opens the sealed private key. A wrong passphrase is an error.
	Unlock(passphrase string) (DecryptionContext, error)

	// IsConfigured reports whether both key files are present.
	IsConfigured() bool
}

// DecryptionContext is an unlocked private key held for the life of the process.
type DecryptionContext interface {
	Decrypt(r io.Reader, w io.Writer) error
}

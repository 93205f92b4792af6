package encryption

import (
	"bufio"
	"bytes"
	"fmt"
	"io"

	"dose-go/internal/dose"
)

var testMagic = []byte("DOSETEST")

const testMask = 0x5a

// TestEncryptor is a deterministic, key-free stand-in for AgeEncryptor.
// Output is the magic header followed by every input byte XORed with a
// fixed mask, so ciphertext never equals plaintext.
type TestEncryptor struct {
	setups int
}

var _ dose.Encryptor = (*TestEncryptor)(nil)

func NewTestEncryptor() *TestEncryptor {
	return &TestEncryptor{}
}

func (e *TestEncryptor) Setup(string) error {
	e.setups++
	return nil
}

func (e *TestEncryptor) Encrypt(r io.Reader, w io.Writer) error {
	if _, err := w.Write(testMagic); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	return mask(w, r)
}

func (e *TestEncryptor) Unlock(string) (dose.DecryptionContext, error) {
	return TestDecryptionContext{}, nil
}

func (e *TestEncryptor) IsConfigured() bool {
	return true
}

// TestDecryptionContext reverses TestEncryptor.
type TestDecryptionContext struct{}

var _ dose.DecryptionContext = TestDecryptionContext{}

func (TestDecryptionContext) Decrypt(r io.Reader, w io.Writer) error {
	header := make([]byte, len(testMagic))
	if _, err := io.ReadFull(r, header); err != nil {
		return fmt.Errorf("reading header: %w", err)
	}
	if !bytes.Equal(header, testMagic) {
		return fmt.Errorf("not test ciphertext")
	}
	return mask(w, r)
}

func mask(w io.Writer, r io.Reader) error {
	br := bufio.NewReader(r)
	bw := bufio.NewWriter(w)
	for {
		b, err := br.ReadByte()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("reading: %w", err)
		}
		if err := bw.WriteByte(b ^ testMask); err != nil {
			return fmt.Errorf("writing: %w", err)
		}
	}
	return bw.Flush()
}

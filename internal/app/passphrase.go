package app

import (
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// PassphraseSource returns a function that yields the store passphrase. A
// non-empty fromEnv wins; otherwise the user is prompted on the terminal.
func PassphraseSource(fromEnv string, in *os.File, out io.Writer) func() (string, error) {
	return func() (string, error) {
		if fromEnv != "" {
			return fromEnv, nil
		}
		return readPassphrase(in, out, "Passphrase: ")
	}
}

// ReadNewPassphrase prompts twice and requires both entries to match.
func ReadNewPassphrase(in *os.File, out io.Writer) (string, error) {
	first, err := readPassphrase(in, out, "New passphrase: ")
	if err != nil {
		return "", err
	}
	second, err := readPassphrase(in, out, "Confirm passphrase: ")
	if err != nil {
		return "", err
	}
	if first != second {
		return "", errors.New("passphrases do not match")
	}
	return first, nil
}

func readPassphrase(in *os.File, out io.Writer, prompt string) (string, error) {
	fd := int(in.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("no terminal to read a passphrase from: set DOSE_PASSPHRASE")
	}
	fmt.Fprint(out, prompt)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(out)
	if err != nil {
		return "", fmt.Errorf("reading passphrase: %w", err)
	}
	return string(b), nil
}

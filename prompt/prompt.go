// Package prompt reads secrets from the terminal without echoing them.
package prompt

import (
	"fmt"
	"os"

	"golang.org/x/term"

	"github.com/ethvault/ethvault/config"
	"github.com/ethvault/ethvault/errs"
	"github.com/ethvault/ethvault/keystore"
)

// Secret reads one hidden line from the terminal.
func Secret(label string) (string, error) {
	fmt.Fprint(os.Stderr, label+": ")
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", errs.UserCanceled()
	}
	return string(raw), nil
}

// Password prompts for an existing keystore password.
func Password() (string, error) {
	return Secret("Enter wallet password")
}

// NewPassword prompts for a fresh password with confirmation and enforces
// the password policy before accepting it.
func NewPassword(params config.Params) (string, error) {
	password, err := Secret("Enter password to encrypt wallet")
	if err != nil {
		return "", err
	}
	if err := keystore.ValidatePassword(params, password); err != nil {
		return "", err
	}
	confirm, err := Secret("Confirm password")
	if err != nil {
		return "", err
	}
	if password != confirm {
		return "", errs.PasswordMismatch()
	}
	return password, nil
}

// Mnemonic prompts for a mnemonic phrase, hidden like a password since the
// phrase is equivalent to the private key.
func Mnemonic() (string, error) {
	return Secret("Enter mnemonic phrase")
}

package wallet

import (
	"errors"
	"testing"

	"github.com/ethvault/ethvault/config"
	"github.com/ethvault/ethvault/errs"
)

const (
	testPhrase = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"
	// address of testPhrase at m/44'/60'/0'/0/0
	testAddress = "0x9858effd232b4033e47d90003d41ec34ecaeda94"
)

func TestFromMnemonicKnownVector(t *testing.T) {
	params := config.Default()
	w, err := FromMnemonic(params, testPhrase, "mainnet", "")
	if err != nil {
		t.Fatal(err)
	}
	if w.Address != testAddress {
		t.Errorf("address = %s, want %s", w.Address, testAddress)
	}
	if w.DerivationPath != "m/44'/60'/0'/0" {
		t.Errorf("derivation path = %s", w.DerivationPath)
	}
	if !w.HasMnemonic() {
		t.Error("HasMnemonic() = false")
	}
	if w.Mnemonic() != testPhrase {
		t.Error("stored mnemonic does not match input")
	}
}

func TestFromMnemonicErrors(t *testing.T) {
	params := config.Default()

	if _, err := FromMnemonic(params, "not a valid phrase", "mainnet", ""); err == nil {
		t.Error("invalid phrase accepted")
	}
	_, err := FromMnemonic(params, testPhrase, "dogecoin", "")
	var e *errs.Error
	if !errors.As(err, &e) || e.Code != errs.CodeInvalidNetwork {
		t.Errorf("unsupported network: got %v, want %s", err, errs.CodeInvalidNetwork)
	}
}

func TestDeriveAddress(t *testing.T) {
	params := config.Default()
	w, err := FromMnemonic(params, testPhrase, "mainnet", "")
	if err != nil {
		t.Fatal(err)
	}

	d0, err := w.DeriveAddress(0)
	if err != nil {
		t.Fatal(err)
	}
	if d0.Address != testAddress {
		t.Errorf("index 0 = %s, want %s", d0.Address, testAddress)
	}
	if d0.Path != "m/44'/60'/0'/0/0" {
		t.Errorf("index 0 path = %s", d0.Path)
	}

	d1, err := w.DeriveAddress(1)
	if err != nil {
		t.Fatal(err)
	}
	if d1.Address == d0.Address {
		t.Error("index 1 equals index 0")
	}

	// derivation is deterministic
	again, err := w.DeriveAddress(1)
	if err != nil {
		t.Fatal(err)
	}
	if again.Address != d1.Address {
		t.Error("repeated derivation differs")
	}
}

func TestFromPrivateKey(t *testing.T) {
	params := config.Default()
	const key = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"

	tests := []struct {
		name    string
		key     string
		wantErr bool
	}{
		{"plain hex", key, false},
		{"with 0x prefix", "0x" + key, false},
		{"too short", key[:63], true},
		{"too long", key + "ab", true},
		{"non-hex", "zz0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318", true},
		{"zero scalar", "0000000000000000000000000000000000000000000000000000000000000000", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := FromPrivateKey(params, tt.key, "mainnet", "")
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				var e *errs.Error
				if !errors.As(err, &e) || e.Code != errs.CodeInvalidPrivateKey {
					t.Errorf("got %v, want %s", err, errs.CodeInvalidPrivateKey)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if w.HasMnemonic() {
				t.Error("private-key import reports a mnemonic")
			}
			if w.PrivateKeyHex() != key {
				t.Errorf("stored key = %s", w.PrivateKeyHex())
			}
			if err := ValidateAddress(w.Address); err != nil {
				t.Errorf("derived address invalid: %v", err)
			}
		})
	}
}

func TestDeriveAddressWithoutMnemonic(t *testing.T) {
	params := config.Default()
	w, err := FromPrivateKey(params,
		"4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318", "mainnet", "")
	if err != nil {
		t.Fatal(err)
	}
	_, err = w.DeriveAddress(0)
	var e *errs.Error
	if !errors.As(err, &e) || e.Code != errs.CodeKDFFailed {
		t.Errorf("got %v, want %s", err, errs.CodeKDFFailed)
	}
}

func TestGenerate(t *testing.T) {
	params := config.Default()
	w, err := Generate(params, 24, "sepolia", "hot")
	if err != nil {
		t.Fatal(err)
	}
	if w.Network != "sepolia" || w.Alias != "hot" {
		t.Errorf("metadata not carried: %s %s", w.Network, w.Alias)
	}
	if err := w.Validate(params); err != nil {
		t.Errorf("generated wallet fails validation: %v", err)
	}
}

func TestValidateAddress(t *testing.T) {
	valid := []string{
		testAddress,
		"9858effd232b4033e47d90003d41ec34ecaeda94",
		"0x9858EFFD232B4033E47d90003D41EC34EcaEda94",
	}
	for _, a := range valid {
		if err := ValidateAddress(a); err != nil {
			t.Errorf("ValidateAddress(%q): %v", a, err)
		}
	}
	invalid := []string{
		"",
		"0x9858effd",
		"0x9858effd232b4033e47d90003d41ec34ecaeda9",
		"0xg858effd232b4033e47d90003d41ec34ecaeda94",
	}
	for _, a := range invalid {
		if err := ValidateAddress(a); err == nil {
			t.Errorf("ValidateAddress(%q) should fail", a)
		}
	}
}

func TestWipe(t *testing.T) {
	params := config.Default()
	w, err := FromMnemonic(params, testPhrase, "mainnet", "")
	if err != nil {
		t.Fatal(err)
	}
	w.Wipe()
	if w.HasMnemonic() || w.Mnemonic() != "" {
		t.Error("mnemonic survives Wipe")
	}
	// address metadata is not secret and stays readable
	if w.Address != testAddress {
		t.Error("address cleared by Wipe")
	}
}

func TestWalletJSONRoundTrip(t *testing.T) {
	params := config.Default()
	w, err := FromMnemonic(params, testPhrase, "mainnet", "primary")
	if err != nil {
		t.Fatal(err)
	}

	data, err := w.MarshalJSON()
	if err != nil {
		t.Fatal(err)
	}
	var back Wallet
	if err := back.UnmarshalJSON(data); err != nil {
		t.Fatal(err)
	}
	if back.Mnemonic() != testPhrase || back.Address != w.Address ||
		back.Network != w.Network || back.Alias != w.Alias {
		t.Error("round trip lost fields")
	}
}

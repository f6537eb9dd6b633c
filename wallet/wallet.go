// Package wallet implements hierarchical deterministic key derivation for
// Ethereum and the in-memory wallet model built on top of it.
package wallet

import (
	"crypto/ecdsa"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/tyler-smith/go-bip32"

	"github.com/ethvault/ethvault/config"
	"github.com/ethvault/ethvault/errs"
	"github.com/ethvault/ethvault/mnemonic"
	"github.com/ethvault/ethvault/secret"
)

// Wallet is the primary in-memory entity. A wallet created from a mnemonic
// can re-derive any child address; a wallet imported from a raw private key
// holds only that key and refuses HD derivation.
type Wallet struct {
	// secret material, held as byte slices so Wipe can zero them
	mnemonic   []byte
	privateKey []byte // hex-encoded scalar, private-key imports only

	Address        string
	DerivationPath string
	Network        string
	CreatedAt      time.Time
	Alias          string
}

// DerivedAddress pairs an address with the index and full path used to
// reach it. Immutable; produced on demand.
type DerivedAddress struct {
	Address string `json:"address"`
	Index   uint32 `json:"index"`
	Path    string `json:"derivation_path"`
}

// FromMnemonic validates the phrase, derives the primary address at child
// index 0 of the base path, and returns the assembled wallet.
func FromMnemonic(params config.Params, phrase, network, alias string) (*Wallet, error) {
	normalized, err := mnemonic.Validate(phrase)
	if err != nil {
		return nil, err
	}
	if !params.SupportsNetwork(network) {
		return nil, errs.InvalidNetwork(network, params.Networks)
	}

	basePath, err := ParsePath(params.DerivationPath)
	if err != nil {
		return nil, err
	}

	key, err := deriveKey(normalized, basePath.Child(0))
	if err != nil {
		return nil, err
	}

	return &Wallet{
		mnemonic:       []byte(normalized),
		Address:        addressOf(key),
		DerivationPath: basePath.String(),
		Network:        network,
		CreatedAt:      time.Now().UTC(),
		Alias:          alias,
	}, nil
}

// FromPrivateKey imports a raw secp256k1 private key given as 64 hex
// characters, with or without the 0x prefix. The resulting wallet has no
// mnemonic and cannot derive child addresses.
func FromPrivateKey(params config.Params, privateKey, network, alias string) (*Wallet, error) {
	keyStr := strings.TrimPrefix(privateKey, "0x")
	if len(keyStr) != 64 {
		return nil, errs.InvalidPrivateKey(
			fmt.Sprintf("expected 64 hex characters, got %d", len(keyStr)),
			"64 hex characters (with or without 0x prefix)")
	}
	if _, err := hex.DecodeString(keyStr); err != nil {
		return nil, errs.InvalidPrivateKey("non-hexadecimal characters", "hexadecimal characters only")
	}

	key, err := crypto.HexToECDSA(keyStr)
	if err != nil {
		return nil, errs.InvalidPrivateKey(err.Error(), "valid secp256k1 private key")
	}

	if !params.SupportsNetwork(network) {
		return nil, errs.InvalidNetwork(network, params.Networks)
	}

	return &Wallet{
		privateKey:     []byte(keyStr),
		Address:        addressOf(key),
		DerivationPath: params.DerivationPath,
		Network:        network,
		CreatedAt:      time.Now().UTC(),
		Alias:          alias,
	}, nil
}

// Generate creates a brand new wallet from fresh entropy.
func Generate(params config.Params, wordCount int, network, alias string) (*Wallet, error) {
	phrase, err := mnemonic.Generate(params, wordCount)
	if err != nil {
		return nil, err
	}
	return FromMnemonic(params, phrase, network, alias)
}

// HasMnemonic reports whether HD derivation is available.
func (w *Wallet) HasMnemonic() bool {
	return len(w.mnemonic) > 0
}

// Mnemonic returns the phrase, or the empty string for private-key imports.
func (w *Wallet) Mnemonic() string {
	return string(w.mnemonic)
}

// PrivateKeyHex returns the imported raw key, or the empty string for HD
// wallets, which re-derive keys from the mnemonic instead.
func (w *Wallet) PrivateKeyHex() string {
	return string(w.privateKey)
}

// DeriveAddress re-derives base_path/index from the stored mnemonic. The
// same index on the same wallet always yields the same output.
func (w *Wallet) DeriveAddress(index uint32) (DerivedAddress, error) {
	if !w.HasMnemonic() {
		return DerivedAddress{}, errs.KDFFailed("cannot derive addresses from a private-key-only wallet")
	}

	basePath, err := ParsePath(w.DerivationPath)
	if err != nil {
		return DerivedAddress{}, err
	}
	child := basePath.Child(index)

	key, err := deriveKey(string(w.mnemonic), child)
	if err != nil {
		return DerivedAddress{}, err
	}

	return DerivedAddress{
		Address: addressOf(key),
		Index:   index,
		Path:    child.String(),
	}, nil
}

// Validate re-checks address format, network support and path syntax. Used
// defensively after deserializing a decrypted payload.
func (w *Wallet) Validate(params config.Params) error {
	if err := ValidateAddress(w.Address); err != nil {
		return err
	}
	if !params.SupportsNetwork(w.Network) {
		return errs.InvalidNetwork(w.Network, params.Networks)
	}
	return ValidatePath(w.DerivationPath)
}

// Wipe zeroes the wallet's secret byte buffers.
func (w *Wallet) Wipe() {
	secret.WipeAll(w.mnemonic, w.privateKey)
	w.mnemonic = nil
	w.privateKey = nil
}

// ValidateAddress checks the Ethereum address format: 40 hex characters,
// with or without the 0x prefix.
func ValidateAddress(address string) error {
	addr := strings.TrimPrefix(address, "0x")
	if len(addr) != 40 {
		return errs.InvalidAddressFormat(address, "40 hex characters (with or without 0x prefix)")
	}
	if _, err := hex.DecodeString(addr); err != nil {
		return errs.InvalidAddressFormat(address, "hexadecimal characters only")
	}
	return nil
}

// deriveKey stretches the phrase into a seed, builds the master key, and
// walks the path. The seed and the final extended key bytes are wiped
// before returning.
func deriveKey(phrase string, path Path) (*ecdsa.PrivateKey, error) {
	seed, err := mnemonic.Seed(phrase, "")
	if err != nil {
		return nil, err
	}
	defer secret.Wipe(seed)

	key, err := bip32.NewMasterKey(seed)
	if err != nil {
		return nil, errs.AddressGenerationFailed("creating master key: " + err.Error())
	}

	for _, c := range path {
		index := c.Index
		if c.Hardened {
			index += bip32.FirstHardenedChild
		}
		key, err = key.NewChildKey(index)
		if err != nil {
			return nil, errs.AddressGenerationFailed(
				fmt.Sprintf("deriving child %d: %v", c.Index, err))
		}
	}
	defer secret.Wipe(key.Key)

	privateKey, err := crypto.ToECDSA(key.Key)
	if err != nil {
		return nil, errs.AddressGenerationFailed("converting to ECDSA: " + err.Error())
	}
	return privateKey, nil
}

// addressOf renders the lowercase-canonical 0x address for a key.
func addressOf(key *ecdsa.PrivateKey) string {
	return strings.ToLower(crypto.PubkeyToAddress(key.PublicKey).Hex())
}

// walletJSON is the encrypted-payload wire form of a Wallet.
type walletJSON struct {
	Mnemonic       string    `json:"mnemonic"`
	PrivateKey     string    `json:"private_key,omitempty"`
	Address        string    `json:"address"`
	DerivationPath string    `json:"derivation_path"`
	Network        string    `json:"network"`
	CreatedAt      time.Time `json:"created_at"`
	Alias          string    `json:"alias,omitempty"`
}

func (w *Wallet) MarshalJSON() ([]byte, error) {
	return json.Marshal(walletJSON{
		Mnemonic:       string(w.mnemonic),
		PrivateKey:     string(w.privateKey),
		Address:        w.Address,
		DerivationPath: w.DerivationPath,
		Network:        w.Network,
		CreatedAt:      w.CreatedAt,
		Alias:          w.Alias,
	})
}

func (w *Wallet) UnmarshalJSON(data []byte) error {
	var wj walletJSON
	if err := json.Unmarshal(data, &wj); err != nil {
		return err
	}
	w.mnemonic = nil
	w.privateKey = nil
	if wj.Mnemonic != "" {
		w.mnemonic = []byte(wj.Mnemonic)
	}
	if wj.PrivateKey != "" {
		w.privateKey = []byte(wj.PrivateKey)
	}
	w.Address = wj.Address
	w.DerivationPath = wj.DerivationPath
	w.Network = wj.Network
	w.CreatedAt = wj.CreatedAt
	w.Alias = wj.Alias
	return nil
}

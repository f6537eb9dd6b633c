package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// KDF identifies a supported key derivation function.
type KDF string

const (
	KDFArgon2id KDF = "argon2id"
	KDFPbkdf2   KDF = "pbkdf2"
)

// Keystore format literals.
const (
	KeystoreVersion = "1.0.0"
	KeystoreType    = "ethvault"
	CipherAES256GCM = "aes-256-gcm"
	PRFHmacSha256   = "hmac-sha256"
)

// DefaultDerivationPath is the BIP44 account-level path for Ethereum.
const DefaultDerivationPath = "m/44'/60'/0'/0"

// Argon2Profile holds the tunable Argon2id cost parameters.
type Argon2Profile struct {
	// Memory cost in KiB
	Memory uint32 `json:"memory"`
	// Time cost (iterations)
	Time uint32 `json:"time"`
	// Parallelism degree
	Parallelism uint32 `json:"parallelism"`
}

// Params is the immutable configuration value constructed once at startup
// and passed explicitly to every component that needs it.
type Params struct {
	// Default target network for new wallets
	Network string `json:"network"`

	// Supported network identifiers
	Networks []string `json:"networks"`

	// Directory where keystore files are written
	WalletDir string `json:"wallet_dir"`

	// Path to the sqlite keystore registry
	RegistryPath string `json:"registry_path"`

	// Base HD derivation path for new wallets
	DerivationPath string `json:"derivation_path"`

	// Argon2id cost profile used on encryption
	Argon2 Argon2Profile `json:"argon2"`

	// PBKDF2 iteration count used on encryption with the legacy KDF
	Pbkdf2Iterations uint32 `json:"pbkdf2_iterations"`

	SaltLength  int `json:"salt_length"`
	NonceLength int `json:"nonce_length"`
	KeyLength   int `json:"key_length"`

	// Entropy request ceiling, a sanity guard for mnemonic generation
	MaxEntropyBits int `json:"max_entropy_bits"`

	// Keystore files above this size are rejected before parsing
	MaxKeystoreBytes int64 `json:"max_keystore_bytes"`

	MinPasswordLength int `json:"min_password_length"`
	MaxPasswordLength int `json:"max_password_length"`

	// Consecutive wrong passwords tolerated before a keystore locks out
	MaxUnlockAttempts int `json:"max_unlock_attempts"`

	FilePerm os.FileMode `json:"-"`
	DirPerm  os.FileMode `json:"-"`
}

// Default returns the standard parameter set. The Argon2 profile follows the
// OWASP 2024 recommendation of 46 MiB memory at a single iteration.
func Default() Params {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	walletDir := filepath.Join(home, ".ethvault")
	return Params{
		Network:           "mainnet",
		Networks:          []string{"mainnet", "sepolia", "goerli", "holesky"},
		WalletDir:         walletDir,
		RegistryPath:      filepath.Join(walletDir, "registry.db"),
		DerivationPath:    DefaultDerivationPath,
		Argon2:            Argon2Profile{Memory: 47104, Time: 1, Parallelism: 1},
		Pbkdf2Iterations:  100000,
		SaltLength:        32,
		NonceLength:       12,
		KeyLength:         32,
		MaxEntropyBits:    512,
		MaxKeystoreBytes:  1024 * 1024,
		MinPasswordLength: 8,
		MaxPasswordLength: 1024,
		MaxUnlockAttempts: 5,
		FilePerm:          0o600,
		DirPerm:           0o700,
	}
}

// LowMemoryArgon2 is the reduced profile for constrained environments,
// trading memory for an extra iteration.
func LowMemoryArgon2() Argon2Profile {
	return Argon2Profile{Memory: 19456, Time: 2, Parallelism: 1}
}

// TestArgon2 is a deliberately cheap profile so test suites do not pay the
// full memory-hard cost. Never used outside tests.
func TestArgon2() Argon2Profile {
	return Argon2Profile{Memory: 64, Time: 1, Parallelism: 1}
}

// Load reads overrides from a JSON file on top of the defaults.
func Load(path string) (Params, error) {
	p := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Params{}, fmt.Errorf("reading config: %w", err)
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return Params{}, fmt.Errorf("parsing config: %w", err)
	}
	if err := p.validate(); err != nil {
		return Params{}, fmt.Errorf("validating config: %w", err)
	}
	return p, nil
}

func (p Params) validate() error {
	if !p.SupportsNetwork(p.Network) {
		return fmt.Errorf("network %q is not in the supported set %v", p.Network, p.Networks)
	}
	if p.WalletDir == "" {
		return fmt.Errorf("wallet_dir is required")
	}
	if p.Argon2.Memory == 0 || p.Argon2.Time == 0 || p.Argon2.Parallelism == 0 {
		return fmt.Errorf("argon2 parameters must be nonzero")
	}
	if p.Pbkdf2Iterations == 0 {
		return fmt.Errorf("pbkdf2_iterations must be nonzero")
	}
	if p.KeyLength != 32 {
		return fmt.Errorf("key_length must be 32 for aes-256-gcm")
	}
	if p.NonceLength != 12 {
		return fmt.Errorf("nonce_length must be 12 for aes-256-gcm")
	}
	if p.SaltLength <= 0 {
		return fmt.Errorf("salt_length must be positive")
	}
	if p.MaxKeystoreBytes <= 0 {
		return fmt.Errorf("max_keystore_bytes must be positive")
	}
	return nil
}

// SupportsNetwork reports whether network is in the supported set.
func (p Params) SupportsNetwork(network string) bool {
	for _, n := range p.Networks {
		if n == network {
			return true
		}
	}
	return false
}

// SupportsWordCount reports whether count is a valid mnemonic length.
func SupportsWordCount(count int) bool {
	return count == 12 || count == 24
}

// EntropyBits returns the entropy size backing a mnemonic of the given word
// count, or false for unsupported counts.
func EntropyBits(wordCount int) (int, bool) {
	switch wordCount {
	case 12:
		return 128, true
	case 24:
		return 256, true
	default:
		return 0, false
	}
}

// Package keystore implements the encrypted-at-rest wallet record: the
// versioned JSON format, the Argon2id/PBKDF2 key derivation, AES-256-GCM
// encryption with an independent HMAC, and the file persistence rules.
package keystore

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/ethvault/ethvault/config"
	"github.com/ethvault/ethvault/errs"
	"github.com/ethvault/ethvault/wallet"
)

// Keystore is the persisted record: clear metadata plus the crypto block.
type Keystore struct {
	Version  string   `json:"version"`
	Metadata Metadata `json:"metadata"`
	Crypto   Crypto   `json:"crypto"`
}

// Metadata holds the non-sensitive fields stored in clear.
type Metadata struct {
	Alias        *string `json:"alias"`
	Address      string  `json:"address"`
	CreatedAt    string  `json:"created_at"`
	Network      string  `json:"network"`
	KeystoreType string  `json:"keystore_type"`
}

// Crypto holds the ciphertext and every parameter needed to decrypt it.
type Crypto struct {
	Cipher       string       `json:"cipher"`
	Ciphertext   string       `json:"ciphertext"`
	CipherParams CipherParams `json:"cipherparams"`
	KDF          string       `json:"kdf"`
	KDFParams    KDFParams    `json:"kdfparams"`
	MAC          string       `json:"mac"`
}

// CipherParams carries the AES-GCM nonce.
type CipherParams struct {
	IV string `json:"iv"`
}

// KDFParams is a tagged variant: exactly one of the two pointers is set,
// selected by the sibling "kdf" field. JSON dispatch is explicit on that
// tag, never inferred from structure.
type KDFParams struct {
	Argon2 *Argon2Params
	Pbkdf2 *Pbkdf2Params
}

// Argon2Params are the memory-hard KDF parameters.
type Argon2Params struct {
	DKLen       uint32 `json:"dklen"`
	Memory      uint32 `json:"memory"`
	Time        uint32 `json:"time"`
	Parallelism uint32 `json:"parallelism"`
	Salt        string `json:"salt"`
}

// Pbkdf2Params are the legacy iterated-HMAC KDF parameters.
type Pbkdf2Params struct {
	DKLen uint32 `json:"dklen"`
	C     uint32 `json:"c"`
	PRF   string `json:"prf"`
	Salt  string `json:"salt"`
}

func (c Crypto) MarshalJSON() ([]byte, error) {
	var kdfparams any
	switch {
	case c.KDFParams.Argon2 != nil:
		kdfparams = c.KDFParams.Argon2
	case c.KDFParams.Pbkdf2 != nil:
		kdfparams = c.KDFParams.Pbkdf2
	default:
		return nil, fmt.Errorf("keystore crypto block has no kdf parameters")
	}
	return json.Marshal(struct {
		Cipher       string       `json:"cipher"`
		Ciphertext   string       `json:"ciphertext"`
		CipherParams CipherParams `json:"cipherparams"`
		KDF          string       `json:"kdf"`
		KDFParams    any          `json:"kdfparams"`
		MAC          string       `json:"mac"`
	}{c.Cipher, c.Ciphertext, c.CipherParams, c.KDF, kdfparams, c.MAC})
}

func (c *Crypto) UnmarshalJSON(data []byte) error {
	var raw struct {
		Cipher       string          `json:"cipher"`
		Ciphertext   string          `json:"ciphertext"`
		CipherParams CipherParams    `json:"cipherparams"`
		KDF          string          `json:"kdf"`
		KDFParams    json.RawMessage `json:"kdfparams"`
		MAC          string          `json:"mac"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	c.Cipher = raw.Cipher
	c.Ciphertext = raw.Ciphertext
	c.CipherParams = raw.CipherParams
	c.KDF = raw.KDF
	c.MAC = raw.MAC
	c.KDFParams = KDFParams{}

	switch config.KDF(raw.KDF) {
	case config.KDFArgon2id:
		var p Argon2Params
		if err := json.Unmarshal(raw.KDFParams, &p); err != nil {
			return fmt.Errorf("parsing argon2id kdfparams: %w", err)
		}
		c.KDFParams.Argon2 = &p
	case config.KDFPbkdf2:
		var p Pbkdf2Params
		if err := json.Unmarshal(raw.KDFParams, &p); err != nil {
			return fmt.Errorf("parsing pbkdf2 kdfparams: %w", err)
		}
		c.KDFParams.Pbkdf2 = &p
	default:
		return fmt.Errorf("unsupported kdf: %q", raw.KDF)
	}
	return nil
}

// CiphertextBytes decodes the hex ciphertext.
func (k *Keystore) CiphertextBytes() ([]byte, error) {
	b, err := hex.DecodeString(k.Crypto.Ciphertext)
	if err != nil {
		return nil, errs.DataCorruption("invalid ciphertext hex: " + err.Error())
	}
	return b, nil
}

// Salt decodes the hex salt from whichever KDF variant is present.
func (k *Keystore) Salt() ([]byte, error) {
	var saltHex string
	switch {
	case k.Crypto.KDFParams.Argon2 != nil:
		saltHex = k.Crypto.KDFParams.Argon2.Salt
	case k.Crypto.KDFParams.Pbkdf2 != nil:
		saltHex = k.Crypto.KDFParams.Pbkdf2.Salt
	default:
		return nil, errs.DataCorruption("missing kdf parameters")
	}
	b, err := hex.DecodeString(saltHex)
	if err != nil {
		return nil, errs.DataCorruption("invalid salt hex: " + err.Error())
	}
	return b, nil
}

// Nonce decodes the hex AES-GCM nonce.
func (k *Keystore) Nonce() ([]byte, error) {
	b, err := hex.DecodeString(k.Crypto.CipherParams.IV)
	if err != nil {
		return nil, errs.DataCorruption("invalid nonce hex: " + err.Error())
	}
	return b, nil
}

// MACBytes decodes the hex authentication code.
func (k *Keystore) MACBytes() ([]byte, error) {
	b, err := hex.DecodeString(k.Crypto.MAC)
	if err != nil {
		return nil, errs.DataCorruption("invalid mac hex: " + err.Error())
	}
	return b, nil
}

// AliasString returns the alias or "" when absent.
func (k *Keystore) AliasString() string {
	if k.Metadata.Alias == nil {
		return ""
	}
	return *k.Metadata.Alias
}

// Validate runs the full structural check. Every rule must hold before any
// cryptographic operation is attempted on the record.
func (k *Keystore) Validate(params config.Params) error {
	fail := func(details string) error {
		return errs.InvalidKeystoreSchema(details, "")
	}

	if k.Version == "" {
		return fail("missing version")
	}
	if err := wallet.ValidateAddress(k.Metadata.Address); err != nil {
		return err
	}
	if !params.SupportsNetwork(k.Metadata.Network) {
		return fail("unsupported network: " + k.Metadata.Network)
	}
	if k.Crypto.Cipher != config.CipherAES256GCM {
		return fail("unsupported cipher: " + k.Crypto.Cipher)
	}

	switch config.KDF(k.Crypto.KDF) {
	case config.KDFArgon2id:
		p := k.Crypto.KDFParams.Argon2
		if p == nil {
			return fail("kdf is argon2id but argon2 parameters are missing")
		}
		if p.DKLen != uint32(params.KeyLength) {
			return fail(fmt.Sprintf("invalid derived key length: %d", p.DKLen))
		}
		if p.Memory == 0 || p.Time == 0 || p.Parallelism == 0 {
			return fail("argon2 parameters must be nonzero")
		}
	case config.KDFPbkdf2:
		p := k.Crypto.KDFParams.Pbkdf2
		if p == nil {
			return fail("kdf is pbkdf2 but pbkdf2 parameters are missing")
		}
		if p.DKLen != uint32(params.KeyLength) {
			return fail(fmt.Sprintf("invalid derived key length: %d", p.DKLen))
		}
		if p.C == 0 {
			return fail("pbkdf2 iteration count must be nonzero")
		}
		if p.PRF != config.PRFHmacSha256 {
			return fail("unsupported prf: " + p.PRF)
		}
	default:
		return fail("unsupported kdf: " + k.Crypto.KDF)
	}

	// every hex field must decode cleanly, and fixed-size fields must
	// decode to their exact sizes
	if _, err := k.CiphertextBytes(); err != nil {
		return fail("ciphertext is not valid hex")
	}
	salt, err := k.Salt()
	if err != nil {
		return fail("salt is not valid hex")
	}
	if len(salt) != params.SaltLength {
		return fail(fmt.Sprintf("salt must be %d bytes, got %d", params.SaltLength, len(salt)))
	}
	nonce, err := k.Nonce()
	if err != nil {
		return fail("iv is not valid hex")
	}
	if len(nonce) != params.NonceLength {
		return fail(fmt.Sprintf("iv must be %d bytes, got %d", params.NonceLength, len(nonce)))
	}
	mac, err := k.MACBytes()
	if err != nil {
		return fail("mac is not valid hex")
	}
	if len(mac) != sha256.Size {
		return fail(fmt.Sprintf("mac must be %d bytes, got %d", sha256.Size, len(mac)))
	}

	return nil
}

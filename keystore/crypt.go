package keystore

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethvault/ethvault/config"
	"github.com/ethvault/ethvault/errs"
	"github.com/ethvault/ethvault/secret"
	"github.com/ethvault/ethvault/wallet"
)

// Options selects the KDF used when encrypting. Decryption always follows
// the parameters stored in the keystore itself.
type Options struct {
	KDF    config.KDF
	Argon2 config.Argon2Profile
	// Pbkdf2Iterations applies when KDF is pbkdf2.
	Pbkdf2Iterations uint32
}

// DefaultOptions encrypts with Argon2id at the configured profile.
func DefaultOptions(params config.Params) Options {
	return Options{
		KDF:              config.KDFArgon2id,
		Argon2:           params.Argon2,
		Pbkdf2Iterations: params.Pbkdf2Iterations,
	}
}

// Encrypt serializes the wallet, encrypts it under a key derived from the
// password, and assembles the keystore record. The derived key and the
// plaintext buffer are wiped on every exit path.
func Encrypt(params config.Params, w *wallet.Wallet, password string, opts Options) (*Keystore, error) {
	plaintext, err := json.Marshal(w)
	if err != nil {
		return nil, errs.KDFFailed("wallet serialization failed: " + err.Error())
	}
	defer secret.Wipe(plaintext)

	salt := make([]byte, params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return nil, errs.KDFFailed("generating salt: " + err.Error())
	}
	nonce := make([]byte, params.NonceLength)
	if _, err := rand.Read(nonce); err != nil {
		return nil, errs.KDFFailed("generating nonce: " + err.Error())
	}

	kdfParams, err := kdfParamsFor(params, opts, salt)
	if err != nil {
		return nil, err
	}

	key, err := deriveKey([]byte(password), salt, kdfParams)
	if err != nil {
		return nil, err
	}
	defer secret.Wipe(key)

	ciphertext, err := sealGCM(key, nonce, plaintext)
	if err != nil {
		return nil, err
	}

	mac := computeMAC(key, ciphertext, nonce)

	var alias *string
	if w.Alias != "" {
		a := w.Alias
		alias = &a
	}

	kdfName := config.KDFArgon2id
	if kdfParams.Pbkdf2 != nil {
		kdfName = config.KDFPbkdf2
	}

	return &Keystore{
		Version: config.KeystoreVersion,
		Metadata: Metadata{
			Alias:        alias,
			Address:      w.Address,
			CreatedAt:    time.Now().UTC().Format(time.RFC3339),
			Network:      w.Network,
			KeystoreType: config.KeystoreType,
		},
		Crypto: Crypto{
			Cipher:       config.CipherAES256GCM,
			Ciphertext:   hex.EncodeToString(ciphertext),
			CipherParams: CipherParams{IV: hex.EncodeToString(nonce)},
			KDF:          string(kdfName),
			KDFParams:    kdfParams,
			MAC:          hex.EncodeToString(mac),
		},
	}, nil
}

// Decrypt re-derives the key from the keystore's own stored parameters,
// verifies the independent MAC before any AEAD work, then decrypts and
// re-validates the wallet. A wrong password and tampered data are reported
// through the same DecryptionFailed error.
func Decrypt(params config.Params, k *Keystore, password string) (*wallet.Wallet, error) {
	if err := k.Validate(params); err != nil {
		return nil, err
	}

	ciphertext, err := k.CiphertextBytes()
	if err != nil {
		return nil, err
	}
	salt, err := k.Salt()
	if err != nil {
		return nil, err
	}
	nonce, err := k.Nonce()
	if err != nil {
		return nil, err
	}
	storedMAC, err := k.MACBytes()
	if err != nil {
		return nil, err
	}

	key, err := deriveKey([]byte(password), salt, k.Crypto.KDFParams)
	if err != nil {
		return nil, err
	}
	defer secret.Wipe(key)

	if !hmac.Equal(computeMAC(key, ciphertext, nonce), storedMAC) {
		return nil, errs.DecryptionFailed("MAC verification failed - wrong password or corrupted data")
	}

	plaintext, err := openGCM(key, nonce, ciphertext)
	if err != nil {
		return nil, errs.DecryptionFailed("cipher rejected ciphertext: " + err.Error())
	}
	defer secret.Wipe(plaintext)

	var w wallet.Wallet
	if err := json.Unmarshal(plaintext, &w); err != nil {
		return nil, errs.DataCorruption("wallet deserialization failed: " + err.Error())
	}
	if err := w.Validate(params); err != nil {
		return nil, errs.DataCorruption("decrypted wallet is invalid: " + err.Error())
	}
	if !strings.EqualFold(w.Address, k.Metadata.Address) {
		return nil, errs.DataCorruption("keystore metadata address does not match decrypted wallet")
	}

	return &w, nil
}

func kdfParamsFor(params config.Params, opts Options, salt []byte) (KDFParams, error) {
	saltHex := hex.EncodeToString(salt)
	switch opts.KDF {
	case config.KDFArgon2id:
		return KDFParams{Argon2: &Argon2Params{
			DKLen:       uint32(params.KeyLength),
			Memory:      opts.Argon2.Memory,
			Time:        opts.Argon2.Time,
			Parallelism: opts.Argon2.Parallelism,
			Salt:        saltHex,
		}}, nil
	case config.KDFPbkdf2:
		iterations := opts.Pbkdf2Iterations
		if iterations == 0 {
			iterations = params.Pbkdf2Iterations
		}
		return KDFParams{Pbkdf2: &Pbkdf2Params{
			DKLen: uint32(params.KeyLength),
			C:     iterations,
			PRF:   config.PRFHmacSha256,
			Salt:  saltHex,
		}}, nil
	default:
		return KDFParams{}, errs.KDFFailed("unsupported kdf: " + string(opts.KDF))
	}
}

func sealGCM(key, nonce, plaintext []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errs.KDFFailed("creating cipher: " + err.Error())
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errs.KDFFailed("creating gcm: " + err.Error())
	}
	if len(nonce) != gcm.NonceSize() {
		return nil, errs.KDFFailed(fmt.Sprintf("nonce must be %d bytes, got %d", gcm.NonceSize(), len(nonce)))
	}
	return gcm.Seal(nil, nonce, plaintext, nil), nil
}

func openGCM(key, nonce, ciphertext []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	// gcm.Open panics on a wrong-size nonce
	if len(nonce) != gcm.NonceSize() {
		return nil, fmt.Errorf("nonce must be %d bytes, got %d", gcm.NonceSize(), len(nonce))
	}
	return gcm.Open(nil, nonce, ciphertext, nil)
}

// computeMAC is the independent password check layered on top of the AEAD:
// HMAC-SHA256(key, ciphertext || nonce).
func computeMAC(key, ciphertext, nonce []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(ciphertext)
	mac.Write(nonce)
	return mac.Sum(nil)
}

// ValidatePassword enforces the minimum password policy used when creating
// keystores. Existing keystores decrypt with whatever password they were
// written with.
func ValidatePassword(params config.Params, password string) error {
	var missing []string

	if len(password) < params.MinPasswordLength {
		missing = append(missing, fmt.Sprintf("at least %d characters", params.MinPasswordLength))
	}
	if len(password) > params.MaxPasswordLength {
		missing = append(missing, fmt.Sprintf("at most %d characters", params.MaxPasswordLength))
	}
	if !strings.ContainsFunc(password, func(r rune) bool { return r >= 'a' && r <= 'z' }) {
		missing = append(missing, "a lowercase letter")
	}
	if !strings.ContainsFunc(password, func(r rune) bool { return r >= 'A' && r <= 'Z' }) {
		missing = append(missing, "an uppercase letter")
	}
	if !strings.ContainsFunc(password, func(r rune) bool { return r >= '0' && r <= '9' }) {
		missing = append(missing, "a digit")
	}
	if !strings.ContainsAny(password, "!@#$%^&*()_+-=[]{}|;:,.<>?") {
		missing = append(missing, "a special character")
	}

	if len(missing) > 0 {
		return errs.WeakPassword(missing)
	}
	return nil
}

// GeneratePassword returns a random password of the given length that
// satisfies the default policy.
func GeneratePassword(length int) (string, error) {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789!@#$%^&*"
	if length < 4 {
		return "", errs.InvalidParameters("length", fmt.Sprint(length), "at least 4")
	}
	for {
		out := make([]byte, length)
		for i := range out {
			n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
			if err != nil {
				return "", fmt.Errorf("reading randomness: %w", err)
			}
			out[i] = charset[n.Int64()]
		}
		// rejection-sample until all character classes are present
		candidate := string(out)
		if strings.ContainsFunc(candidate, func(r rune) bool { return r >= 'a' && r <= 'z' }) &&
			strings.ContainsFunc(candidate, func(r rune) bool { return r >= 'A' && r <= 'Z' }) &&
			strings.ContainsFunc(candidate, func(r rune) bool { return r >= '0' && r <= '9' }) &&
			strings.ContainsAny(candidate, "!@#$%^&*") {
			return candidate, nil
		}
	}
}

package keystore

import (
	"crypto/sha256"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/pbkdf2"

	"github.com/ethvault/ethvault/errs"
)

// argon2Key derives a symmetric key with the memory-hard KDF. Deterministic
// for fixed password, salt and parameters.
func argon2Key(password, salt []byte, p *Argon2Params) ([]byte, error) {
	if p.Memory == 0 || p.Time == 0 || p.Parallelism == 0 {
		return nil, errs.KDFFailed("argon2 parameters must be nonzero")
	}
	if p.Parallelism > 255 {
		return nil, errs.KDFFailed("argon2 parallelism out of range")
	}
	return argon2.IDKey(password, salt, p.Time, p.Memory, uint8(p.Parallelism), p.DKLen), nil
}

// pbkdf2Key derives a symmetric key with the legacy iterated-HMAC KDF.
func pbkdf2Key(password, salt []byte, p *Pbkdf2Params) ([]byte, error) {
	if p.C == 0 {
		return nil, errs.KDFFailed("pbkdf2 iteration count must be nonzero")
	}
	return pbkdf2.Key(password, salt, int(p.C), int(p.DKLen), sha256.New), nil
}

// deriveKey dispatches on whichever variant the keystore carries. The
// caller owns the returned key and must wipe it after use.
func deriveKey(password, salt []byte, params KDFParams) ([]byte, error) {
	switch {
	case params.Argon2 != nil:
		return argon2Key(password, salt, params.Argon2)
	case params.Pbkdf2 != nil:
		return pbkdf2Key(password, salt, params.Pbkdf2)
	default:
		return nil, errs.KDFFailed("no kdf parameters present")
	}
}

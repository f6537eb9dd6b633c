package keystore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveKeyDeterministic(t *testing.T) {
	password := []byte("correct horse")
	salt := []byte("0123456789abcdef0123456789abcdef")

	argon2 := KDFParams{Argon2: &Argon2Params{DKLen: 32, Memory: 64, Time: 1, Parallelism: 1}}
	a, err := deriveKey(password, salt, argon2)
	require.NoError(t, err)
	b, err := deriveKey(password, salt, argon2)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Len(t, a, 32)

	other, err := deriveKey([]byte("wrong horse"), salt, argon2)
	require.NoError(t, err)
	assert.NotEqual(t, a, other)

	pbkdf2 := KDFParams{Pbkdf2: &Pbkdf2Params{DKLen: 32, C: 10, PRF: "hmac-sha256"}}
	p, err := deriveKey(password, salt, pbkdf2)
	require.NoError(t, err)
	assert.Len(t, p, 32)
	assert.NotEqual(t, a, p)
}

func TestDeriveKeyRejectsBadParams(t *testing.T) {
	password := []byte("pw")
	salt := []byte("salt")

	tests := []struct {
		name   string
		params KDFParams
	}{
		{"no variant", KDFParams{}},
		{"zero memory", KDFParams{Argon2: &Argon2Params{DKLen: 32, Memory: 0, Time: 1, Parallelism: 1}}},
		{"zero time", KDFParams{Argon2: &Argon2Params{DKLen: 32, Memory: 64, Time: 0, Parallelism: 1}}},
		{"parallelism overflow", KDFParams{Argon2: &Argon2Params{DKLen: 32, Memory: 64, Time: 1, Parallelism: 256}}},
		{"zero iterations", KDFParams{Pbkdf2: &Pbkdf2Params{DKLen: 32, C: 0}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := deriveKey(password, salt, tt.params)
			require.Error(t, err)
		})
	}
}

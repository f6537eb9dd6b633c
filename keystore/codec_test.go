package keystore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethvault/ethvault/errs"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	params := testParams(t)
	k, err := Encrypt(params, testWallet(t, params), testPassword, DefaultOptions(params))
	require.NoError(t, err)

	path := filepath.Join(params.WalletDir, "primary.json")
	require.NoError(t, Save(params, k, path, false))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	got, err := Load(params, path)
	require.NoError(t, err)
	assert.Equal(t, k.Metadata.Address, got.Metadata.Address)
	assert.Equal(t, k.Crypto.MAC, got.Crypto.MAC)

	w, err := Decrypt(params, got, testPassword)
	require.NoError(t, err)
	assert.Equal(t, testPhrase, w.Mnemonic())
}

func TestSaveRefusesOverwrite(t *testing.T) {
	params := testParams(t)
	k, err := Encrypt(params, testWallet(t, params), testPassword, DefaultOptions(params))
	require.NoError(t, err)

	path := filepath.Join(params.WalletDir, "primary.json")
	require.NoError(t, Save(params, k, path, false))

	err = Save(params, k, path, false)
	require.Error(t, err)
	var e *errs.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, errs.CodeFileExists, e.Code)

	// force overwrites
	require.NoError(t, Save(params, k, path, true))
}

func TestSaveRejectsTraversal(t *testing.T) {
	params := testParams(t)
	k, err := Encrypt(params, testWallet(t, params), testPassword, DefaultOptions(params))
	require.NoError(t, err)

	for _, path := range []string{
		"../escape.json",
		filepath.Join(params.WalletDir, "..", "escape.json"),
	} {
		err := Save(params, k, path, false)
		require.Error(t, err)
		var e *errs.Error
		require.ErrorAs(t, err, &e)
		assert.Equal(t, errs.CodePathTraversal, e.Code)
	}
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	params := testParams(t)
	k, err := Encrypt(params, testWallet(t, params), testPassword, DefaultOptions(params))
	require.NoError(t, err)

	dir := filepath.Join(params.WalletDir, "sub")
	require.NoError(t, Save(params, k, filepath.Join(dir, "w.json"), false))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "w.json", entries[0].Name())
}

func TestLoadMissingFile(t *testing.T) {
	params := testParams(t)
	_, err := Load(params, filepath.Join(params.WalletDir, "nope.json"))
	require.Error(t, err)
	var e *errs.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, errs.CodeFileNotFound, e.Code)
}

func TestLoadEnforcesSizeCeiling(t *testing.T) {
	params := testParams(t)
	params.MaxKeystoreBytes = 64

	path := filepath.Join(params.WalletDir, "big.json")
	require.NoError(t, os.WriteFile(path, make([]byte, 128), 0o600))

	_, err := Load(params, path)
	require.Error(t, err)
	var e *errs.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, errs.CodeInvalidFormat, e.Code)
}

func TestLoadRejectsMalformedJSON(t *testing.T) {
	params := testParams(t)
	path := filepath.Join(params.WalletDir, "garbage.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := Load(params, path)
	require.Error(t, err)
	var e *errs.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, errs.CodeInvalidKeystoreSchema, e.Code)
}

func TestScanDir(t *testing.T) {
	params := testParams(t)
	k, err := Encrypt(params, testWallet(t, params), testPassword, DefaultOptions(params))
	require.NoError(t, err)

	require.NoError(t, Save(params, k, filepath.Join(params.WalletDir, "a.json"), false))
	require.NoError(t, Save(params, k, filepath.Join(params.WalletDir, "b.json"), false))

	// corrupt and foreign files must not break the scan
	require.NoError(t, os.WriteFile(filepath.Join(params.WalletDir, "corrupt.json"), []byte("{"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(params.WalletDir, "notes.txt"), []byte("hi"), 0o600))
	require.NoError(t, os.Mkdir(filepath.Join(params.WalletDir, "nested.json"), 0o700))

	entries, err := ScanDir(params, params.WalletDir)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.Equal(t, k.Metadata.Address, e.Keystore.Metadata.Address)
	}
}

func TestScanDirMissing(t *testing.T) {
	params := testParams(t)
	entries, err := ScanDir(params, filepath.Join(params.WalletDir, "does-not-exist"))
	require.NoError(t, err)
	assert.Nil(t, entries)
}

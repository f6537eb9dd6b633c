package keystore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/ethvault/ethvault/config"
	"github.com/ethvault/ethvault/errs"
)

// Marshal renders the keystore as indented JSON.
func (k *Keystore) Marshal() ([]byte, error) {
	data, err := json.MarshalIndent(k, "", "  ")
	if err != nil {
		return nil, errs.InvalidKeystoreSchema("serialization failed: "+err.Error(), "")
	}
	return data, nil
}

// Parse deserializes and fully validates a keystore. Any failure, including
// raw JSON errors, is reported as a schema error carrying the file path.
func Parse(params config.Params, data []byte, path string) (*Keystore, error) {
	var k Keystore
	if err := json.Unmarshal(data, &k); err != nil {
		return nil, errs.InvalidKeystoreSchema(err.Error(), path)
	}
	if err := k.Validate(params); err != nil {
		return nil, errs.InvalidKeystoreSchema(err.Error(), path)
	}
	return &k, nil
}

// Save persists the keystore with owner-only permissions. The write is
// all-or-nothing: the record is written to a temp file in the destination
// directory and renamed into place, so a partial file is never visible at
// the final path. An existing file is never silently overwritten.
func Save(params config.Params, k *Keystore, path string, force bool) error {
	if err := RejectTraversal(path); err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, params.DirPerm); err != nil {
		return errs.DirectoryNotAccessible(dir, err)
	}

	if !force {
		if _, err := os.Stat(path); err == nil {
			return errs.FileExists(path)
		}
	}

	data, err := k.Marshal()
	if err != nil {
		return err
	}

	tmp := filepath.Join(dir, fmt.Sprintf(".%s.%s.tmp", filepath.Base(path), uuid.NewString()))
	if err := os.WriteFile(tmp, data, params.FilePerm); err != nil {
		return errs.PermissionDenied(path, "write", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return errs.PermissionDenied(path, "rename", err)
	}
	return nil
}

// Load reads and parses a keystore file. The size ceiling is enforced from
// file metadata before any bytes are parsed, bounding memory use against
// hostile input.
func Load(params config.Params, path string) (*Keystore, error) {
	if err := RejectTraversal(path); err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, errs.FileNotFound(path)
	}
	if err != nil {
		return nil, errs.PermissionDenied(path, "stat", err)
	}
	if info.Size() > params.MaxKeystoreBytes {
		return nil, errs.InvalidFileFormat(path,
			fmt.Sprintf("file too large: %d bytes (max %d)", info.Size(), params.MaxKeystoreBytes))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.PermissionDenied(path, "read", err)
	}

	return Parse(params, data, path)
}

// DirEntry pairs a scanned file with its parsed keystore.
type DirEntry struct {
	Path     string
	Keystore *Keystore
}

// ScanDir lists every parseable keystore under dir. Files that fail to
// parse are skipped: a corrupt or foreign JSON file must not prevent
// listing the rest.
func ScanDir(params config.Params, dir string) ([]DirEntry, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errs.DirectoryNotAccessible(dir, err)
	}

	var out []DirEntry
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		k, err := Load(params, path)
		if err != nil {
			continue
		}
		out = append(out, DirEntry{Path: path, Keystore: k})
	}
	return out, nil
}

// RejectTraversal refuses any path containing a parent-directory segment,
// before any file operation happens.
func RejectTraversal(path string) error {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == ".." {
			return errs.PathTraversal(path)
		}
	}
	return nil
}

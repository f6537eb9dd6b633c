// Package errs defines the typed errors shared by every wallet operation.
// Each error carries a stable machine-readable code and, where it helps the
// user, a remediation suggestion. The CLI boundary surfaces both as-is.
package errs

import (
	"fmt"
	"strings"
)

// Kind groups error codes into the broad failure categories callers
// dispatch on.
type Kind string

const (
	KindCryptographic  Kind = "cryptographic"
	KindFileSystem     Kind = "filesystem"
	KindUserInput      Kind = "user_input"
	KindAuthentication Kind = "authentication"
	KindValidation     Kind = "validation"
)

// Error is the single error type returned by the wallet core.
type Error struct {
	Kind       Kind
	Code       string
	Message    string
	Suggestion string
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches two errors by code so callers can use errors.Is with the
// sentinel-free constructors below.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

func newError(kind Kind, code, message string) *Error {
	return &Error{
		Kind:       kind,
		Code:       code,
		Message:    message,
		Suggestion: suggestions[code],
	}
}

// Cryptographic error codes.
const (
	CodeInsufficientEntropy     = "CRYPTO_001"
	CodeInvalidMnemonic         = "CRYPTO_002"
	CodeInvalidPrivateKey       = "CRYPTO_003"
	CodeDecryptionFailed        = "CRYPTO_004"
	CodeDataCorruption          = "CRYPTO_005"
	CodeInvalidDerivationPath   = "CRYPTO_006"
	CodeIndexOutOfRange         = "CRYPTO_007"
	CodeKDFFailed               = "CRYPTO_008"
	CodeSignatureFailed         = "CRYPTO_009"
	CodeAddressGenerationFailed = "CRYPTO_010"
)

// File system error codes.
const (
	CodePermissionDenied        = "FS_001"
	CodeFileNotFound            = "FS_002"
	CodeDirectoryNotAccessible  = "FS_003"
	CodeInsufficientSpace       = "FS_004"
	CodeFileExists              = "FS_005"
	CodeInvalidFormat           = "FS_006"
	CodePathTraversal           = "FS_007"
	CodeLockFailed              = "FS_008"
)

// User input error codes.
const (
	CodeInvalidParameters  = "INPUT_001"
	CodeConflictingOptions = "INPUT_002"
	CodeMissingParameter   = "INPUT_003"
	CodeValueOutOfRange    = "INPUT_004"
	CodeUnsupportedFormat  = "INPUT_005"
	CodeInvalidNetwork     = "INPUT_006"
	CodePasswordMismatch   = "INPUT_007"
	CodeTimeout            = "INPUT_008"
)

// Authentication error codes.
const (
	CodeWrongPassword       = "AUTH_001"
	CodeWeakPassword        = "AUTH_002"
	CodeMaxAttemptsExceeded = "AUTH_003"
	CodeSessionTimeout      = "AUTH_004"
	CodeUserCanceled        = "AUTH_005"
)

// Validation error codes.
const (
	CodeInvalidAddressFormat  = "VALIDATION_001"
	CodeInvalidKeystoreSchema = "VALIDATION_002"
	CodeInvalidCommandSyntax  = "VALIDATION_003"
	CodeIntegrityCheckFailed  = "VALIDATION_004"
	CodeVersionIncompatible   = "VALIDATION_005"
)

// suggestions maps codes to static remediation hints. Constructors that
// carry context-specific hints override the entry on the built value.
var suggestions = map[string]string{
	CodeInsufficientEntropy:   "Ensure the system has adequate entropy sources. On Linux, consider installing rng-tools.",
	CodeInvalidMnemonic:       "Verify the phrase has 12 or 24 words and every word is from the BIP39 wordlist.",
	CodeInvalidPrivateKey:     "Provide 64 hex characters, with or without the 0x prefix.",
	CodeDecryptionFailed:      "Check the password and verify the keystore file has not been modified.",
	CodeFileExists:            "Use --force to overwrite or choose a different filename.",
	CodeFileNotFound:          "Run 'ethvault list' to see available keystore files.",
	CodePasswordMismatch:      "Enter the same password twice.",
	CodeWeakPassword:          "Use at least 8 characters mixing upper/lower case, digits and symbols.",
	CodeMaxAttemptsExceeded:   "Too many wrong passwords for this keystore. Reset its attempt counter only if you are sure the file is yours.",
	CodeInvalidNetwork:        "Supported networks: mainnet, sepolia, goerli, holesky.",
	CodeInvalidKeystoreSchema: "The file is not a valid keystore. Verify it was produced by a compatible wallet.",
}

// InsufficientEntropy reports an entropy request above the configured ceiling.
func InsufficientEntropy(requiredBits, ceilingBits int) *Error {
	return newError(KindCryptographic, CodeInsufficientEntropy,
		fmt.Sprintf("requested %d entropy bits exceeds ceiling of %d", requiredBits, ceilingBits))
}

// InvalidMnemonic reports a phrase that failed BIP39 validation.
func InvalidMnemonic(details, suggestion string) *Error {
	e := newError(KindCryptographic, CodeInvalidMnemonic, "invalid mnemonic phrase: "+details)
	if suggestion != "" {
		e.Suggestion = suggestion
	}
	return e
}

// InvalidPrivateKey reports an unusable private key string.
func InvalidPrivateKey(details, expected string) *Error {
	e := newError(KindCryptographic, CodeInvalidPrivateKey, "invalid private key: "+details)
	if expected != "" {
		e.Suggestion = "Expected format: " + expected
	}
	return e
}

// DecryptionFailed covers wrong passwords and tampered ciphertext alike,
// so the failing cryptographic step is not leaked to the caller.
func DecryptionFailed(context string) *Error {
	return newError(KindCryptographic, CodeDecryptionFailed, "keystore decryption failed: "+context)
}

// DataCorruption reports authenticated data that still failed to deserialize
// or validate, which points at a logic bug or format mismatch.
func DataCorruption(details string) *Error {
	return newError(KindCryptographic, CodeDataCorruption, "data corruption detected: "+details)
}

// InvalidDerivationPath reports a malformed HD path.
func InvalidDerivationPath(path, details string) *Error {
	return newError(KindCryptographic, CodeInvalidDerivationPath,
		fmt.Sprintf("invalid derivation path %q: %s", path, details))
}

// KDFFailed reports a key derivation failure, including HD derivation
// attempted on a wallet without a mnemonic.
func KDFFailed(details string) *Error {
	return newError(KindCryptographic, CodeKDFFailed, "key derivation failed: "+details)
}

// AddressGenerationFailed reports a failure turning key material into an
// Ethereum address.
func AddressGenerationFailed(details string) *Error {
	return newError(KindCryptographic, CodeAddressGenerationFailed, "address generation failed: "+details)
}

// PermissionDenied reports a file operation blocked by permissions.
func PermissionDenied(path, operation string, err error) *Error {
	e := newError(KindFileSystem, CodePermissionDenied,
		fmt.Sprintf("permission denied for %s on %s", operation, path))
	e.Err = err
	return e
}

// FileNotFound reports a missing keystore file.
func FileNotFound(path string) *Error {
	return newError(KindFileSystem, CodeFileNotFound, "wallet file not found: "+path)
}

// DirectoryNotAccessible reports a directory that cannot be created or read.
func DirectoryNotAccessible(path string, err error) *Error {
	e := newError(KindFileSystem, CodeDirectoryNotAccessible, "directory not accessible: "+path)
	e.Err = err
	return e
}

// FileExists reports a refused overwrite.
func FileExists(path string) *Error {
	return newError(KindFileSystem, CodeFileExists, "file already exists: "+path)
}

// InvalidFileFormat reports a file rejected before parsing, such as one over
// the keystore size ceiling.
func InvalidFileFormat(path, details string) *Error {
	return newError(KindFileSystem, CodeInvalidFormat,
		fmt.Sprintf("invalid file %s: %s", path, details))
}

// PathTraversal reports a destination path containing a parent-directory
// segment.
func PathTraversal(path string) *Error {
	return newError(KindFileSystem, CodePathTraversal, "path traversal rejected: "+path)
}

// InvalidParameters reports a bad command parameter value.
func InvalidParameters(parameter, value, expected string) *Error {
	e := newError(KindUserInput, CodeInvalidParameters,
		fmt.Sprintf("invalid value %q for parameter %q", value, parameter))
	e.Suggestion = "Expected: " + expected
	return e
}

// ConflictingOptions reports mutually exclusive flags supplied together.
func ConflictingOptions(option1, option2 string) *Error {
	e := newError(KindUserInput, CodeConflictingOptions,
		fmt.Sprintf("options %q and %q conflict", option1, option2))
	e.Suggestion = "Provide only one of the two options."
	return e
}

// MissingParameter reports a required parameter that was not supplied.
func MissingParameter(parameter, hint string) *Error {
	e := newError(KindUserInput, CodeMissingParameter, "missing required parameter: "+parameter)
	e.Suggestion = hint
	return e
}

// UnsupportedFormat reports an unknown output format.
func UnsupportedFormat(format string, supported []string) *Error {
	e := newError(KindUserInput, CodeUnsupportedFormat, "unsupported output format: "+format)
	e.Suggestion = fmt.Sprintf("Supported formats: %v", supported)
	return e
}

// InvalidNetwork reports a network outside the supported set.
func InvalidNetwork(network string, supported []string) *Error {
	e := newError(KindUserInput, CodeInvalidNetwork, "unsupported network: "+network)
	e.Suggestion = fmt.Sprintf("Supported networks: %v", supported)
	return e
}

// PasswordMismatch reports a failed password confirmation.
func PasswordMismatch() *Error {
	return newError(KindUserInput, CodePasswordMismatch, "password confirmation does not match")
}

// WrongPassword reports a failed unlock with the remaining attempt budget.
func WrongPassword(walletFile string, attemptsRemaining int) *Error {
	return newError(KindAuthentication, CodeWrongPassword,
		fmt.Sprintf("incorrect password for %s (%d attempts remaining)", walletFile, attemptsRemaining))
}

// WeakPassword reports requirements the password did not meet.
func WeakPassword(requirements []string) *Error {
	e := newError(KindAuthentication, CodeWeakPassword, "password does not meet minimum requirements")
	if len(requirements) > 0 {
		e.Suggestion = "Missing: " + strings.Join(requirements, "; ")
	}
	return e
}

// MaxAttemptsExceeded reports a locked-out keystore.
func MaxAttemptsExceeded(walletFile string) *Error {
	return newError(KindAuthentication, CodeMaxAttemptsExceeded,
		"maximum unlock attempts exceeded for "+walletFile)
}

// UserCanceled reports an aborted interactive prompt.
func UserCanceled() *Error {
	return newError(KindAuthentication, CodeUserCanceled, "user canceled authentication")
}

// InvalidAddressFormat reports an address failing the Ethereum format check.
func InvalidAddressFormat(address, expected string) *Error {
	e := newError(KindValidation, CodeInvalidAddressFormat,
		fmt.Sprintf("invalid address %q", address))
	e.Suggestion = "Expected: " + expected
	return e
}

// InvalidKeystoreSchema reports a keystore that failed structural validation.
func InvalidKeystoreSchema(details, filePath string) *Error {
	return newError(KindValidation, CodeInvalidKeystoreSchema,
		fmt.Sprintf("keystore schema validation failed for %s: %s", filePath, details))
}

// IntegrityCheckFailed reports inconsistent data discovered after a
// successful cryptographic operation.
func IntegrityCheckFailed(dataType, details string) *Error {
	return newError(KindValidation, CodeIntegrityCheckFailed,
		fmt.Sprintf("%s integrity check failed: %s", dataType, details))
}

// Package mnemonic converts between random entropy and BIP39 phrases, and
// stretches phrases into the 64-byte seeds that root HD key derivation.
package mnemonic

import (
	"fmt"
	"strings"
	"sync"

	"github.com/tyler-smith/go-bip39"

	"github.com/ethvault/ethvault/config"
	"github.com/ethvault/ethvault/errs"
	"github.com/ethvault/ethvault/secret"
)

// SeedLength is the size of a BIP39 seed in bytes.
const SeedLength = 64

var (
	wordSetOnce sync.Once
	wordSet     map[string]struct{}
)

func words() map[string]struct{} {
	wordSetOnce.Do(func() {
		list := bip39.GetWordList()
		wordSet = make(map[string]struct{}, len(list))
		for _, w := range list {
			wordSet[w] = struct{}{}
		}
	})
	return wordSet
}

// Generate draws fresh entropy and encodes it as a phrase of wordCount
// words. The entropy buffer is wiped once the phrase is built.
func Generate(params config.Params, wordCount int) (string, error) {
	bits, ok := config.EntropyBits(wordCount)
	if !ok {
		return "", errs.InvalidMnemonic(
			fmt.Sprintf("unsupported word count: %d", wordCount), "Use 12 or 24 words.")
	}
	if bits > params.MaxEntropyBits {
		return "", errs.InsufficientEntropy(bits, params.MaxEntropyBits)
	}

	entropy, err := bip39.NewEntropy(bits)
	if err != nil {
		return "", errs.InvalidMnemonic(err.Error(), "")
	}

	var phrase string
	err = secret.Do(entropy, func(b []byte) error {
		p, err := bip39.NewMnemonic(b)
		if err != nil {
			return errs.InvalidMnemonic(err.Error(), "")
		}
		phrase = p
		return nil
	})
	if err != nil {
		return "", err
	}
	return phrase, nil
}

// Validate checks word count, wordlist membership of every word, and the
// entropy checksum. It returns the whitespace-normalized phrase.
func Validate(phrase string) (string, error) {
	fields := strings.Fields(phrase)
	if !config.SupportsWordCount(len(fields)) {
		return "", errs.InvalidMnemonic(
			fmt.Sprintf("unsupported word count: %d", len(fields)), "Use 12 or 24 words.")
	}

	for i, w := range fields {
		if _, ok := words()[w]; !ok {
			suggestion := ""
			if near := SuggestWords(w, 3); len(near) > 0 {
				suggestion = fmt.Sprintf("Word %d %q is not in the BIP39 wordlist. Did you mean one of %v?", i+1, w, near)
			}
			return "", errs.InvalidMnemonic(
				fmt.Sprintf("word %d (%q) is not in the wordlist", i+1, w), suggestion)
		}
	}

	normalized := strings.Join(fields, " ")
	if !bip39.IsMnemonicValid(normalized) {
		return "", errs.InvalidMnemonic("checksum mismatch", "")
	}
	return normalized, nil
}

// Seed stretches a validated phrase and optional passphrase into a 64-byte
// seed. Deterministic: identical inputs always produce identical seeds.
// Callers own the returned buffer and must wipe it after use.
func Seed(phrase, passphrase string) ([]byte, error) {
	seed, err := bip39.NewSeedWithErrorChecking(phrase, passphrase)
	if err != nil {
		return nil, errs.InvalidMnemonic(err.Error(), "")
	}
	return seed, nil
}

// SuggestWords returns up to max wordlist entries sharing the longest prefix
// of partial. Used to build remediation hints for near-miss words.
func SuggestWords(partial string, max int) []string {
	if partial == "" || max <= 0 {
		return nil
	}
	for prefix := partial; prefix != ""; prefix = prefix[:len(prefix)-1] {
		var out []string
		for _, w := range bip39.GetWordList() {
			if strings.HasPrefix(w, prefix) {
				out = append(out, w)
				if len(out) == max {
					return out
				}
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return nil
}

// Strength classifies a phrase by its backing entropy.
type Strength int

const (
	StrengthUnknown Strength = iota
	// StrengthStandard is a 12-word phrase backed by 128 bits of entropy.
	StrengthStandard
	// StrengthHigh is a 24-word phrase backed by 256 bits of entropy.
	StrengthHigh
)

// Classify reports the strength tier of a phrase by word count.
func Classify(phrase string) Strength {
	switch len(strings.Fields(phrase)) {
	case 12:
		return StrengthStandard
	case 24:
		return StrengthHigh
	default:
		return StrengthUnknown
	}
}

func (s Strength) String() string {
	switch s {
	case StrengthStandard:
		return "standard (128-bit)"
	case StrengthHigh:
		return "high (256-bit)"
	default:
		return "unknown"
	}
}

package mnemonic

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/ethvault/ethvault/config"
	"github.com/ethvault/ethvault/errs"
)

const testPhrase = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

func TestGenerate(t *testing.T) {
	params := config.Default()

	for _, words := range []int{12, 24} {
		phrase, err := Generate(params, words)
		if err != nil {
			t.Fatalf("Generate(%d): %v", words, err)
		}
		if got := len(strings.Fields(phrase)); got != words {
			t.Errorf("Generate(%d) produced %d words", words, got)
		}
		if _, err := Validate(phrase); err != nil {
			t.Errorf("generated %d-word phrase fails validation: %v", words, err)
		}
	}
}

func TestGenerateUnsupportedWordCount(t *testing.T) {
	params := config.Default()
	for _, words := range []int{0, 11, 15, 18, 21, 25} {
		if _, err := Generate(params, words); err == nil {
			t.Errorf("Generate(%d) should fail", words)
		}
	}
}

func TestGenerateEntropyCeiling(t *testing.T) {
	params := config.Default()
	params.MaxEntropyBits = 128

	if _, err := Generate(params, 12); err != nil {
		t.Fatalf("Generate(12) at the ceiling: %v", err)
	}

	_, err := Generate(params, 24)
	var e *errs.Error
	if !errors.As(err, &e) || e.Code != errs.CodeInsufficientEntropy {
		t.Errorf("Generate(24) above ceiling: got %v, want %s", err, errs.CodeInsufficientEntropy)
	}
}

func TestGenerateUnique(t *testing.T) {
	params := config.Default()
	a, err := Generate(params, 12)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Generate(params, 12)
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Error("two generated phrases are identical")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		phrase  string
		wantErr bool
	}{
		{"known valid phrase", testPhrase, false},
		{"extra whitespace normalized", "  abandon  abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about ", false},
		{"bad checksum", "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon", true},
		{"word not in list", "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon zzzzz", true},
		{"too few words", "abandon abandon abandon", true},
		{"empty", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			normalized, err := Validate(tt.phrase)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate(%q) error = %v, wantErr %v", tt.phrase, err, tt.wantErr)
			}
			if err == nil && normalized != testPhrase {
				t.Errorf("normalized = %q, want %q", normalized, testPhrase)
			}
		})
	}
}

func TestSeedDeterministic(t *testing.T) {
	a, err := Seed(testPhrase, "")
	if err != nil {
		t.Fatal(err)
	}
	b, err := Seed(testPhrase, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(a) != SeedLength {
		t.Fatalf("seed length = %d, want %d", len(a), SeedLength)
	}
	if !bytes.Equal(a, b) {
		t.Error("same phrase produced different seeds")
	}

	c, err := Seed(testPhrase, "passphrase")
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Equal(a, c) {
		t.Error("passphrase did not change the seed")
	}
}

func TestSeedRejectsInvalidPhrase(t *testing.T) {
	if _, err := Seed("not a mnemonic", ""); err == nil {
		t.Error("Seed accepted an invalid phrase")
	}
}

func TestSuggestWords(t *testing.T) {
	got := SuggestWords("aband", 3)
	if len(got) == 0 || got[0] != "abandon" {
		t.Errorf("SuggestWords(aband) = %v, want abandon first", got)
	}

	// no exact prefix match, falls back to a shorter prefix
	got = SuggestWords("abandX", 3)
	if len(got) == 0 || got[0] != "abandon" {
		t.Errorf("SuggestWords(abandX) = %v, want abandon first", got)
	}

	if got := SuggestWords("", 3); got != nil {
		t.Errorf("SuggestWords(empty) = %v, want nil", got)
	}
}

func TestClassify(t *testing.T) {
	if got := Classify(testPhrase); got != StrengthStandard {
		t.Errorf("Classify(12 words) = %v, want StrengthStandard", got)
	}
	if got := Classify(strings.Repeat("abandon ", 23) + "art"); got != StrengthHigh {
		t.Errorf("Classify(24 words) = %v, want StrengthHigh", got)
	}
	if got := Classify("abandon"); got != StrengthUnknown {
		t.Errorf("Classify(1 word) = %v, want StrengthUnknown", got)
	}
}

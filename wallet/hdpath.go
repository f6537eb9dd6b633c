package wallet

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ethvault/ethvault/errs"
)

// PathComponent is a single derivation step: an index, optionally hardened.
type PathComponent struct {
	Index    uint32
	Hardened bool
}

// Path is an ordered sequence of derivation steps below the master key.
// Its textual form is "m/" followed by '/'-separated decimal indices, each
// optionally suffixed with ' for hardened derivation. Parsing and formatting
// round-trip losslessly.
type Path []PathComponent

// ParsePath parses the textual derivation path grammar.
func ParsePath(s string) (Path, error) {
	if !strings.HasPrefix(s, "m/") {
		return nil, errs.InvalidDerivationPath(s, "must start with \"m/\"")
	}

	parts := strings.Split(s[2:], "/")
	path := make(Path, 0, len(parts))
	for _, part := range parts {
		if part == "" {
			return nil, errs.InvalidDerivationPath(s, "empty path segment")
		}
		hardened := strings.HasSuffix(part, "'")
		numStr := strings.TrimSuffix(part, "'")
		index, err := strconv.ParseUint(numStr, 10, 32)
		if err != nil {
			return nil, errs.InvalidDerivationPath(s, fmt.Sprintf("segment %q is not an unsigned integer", part))
		}
		path = append(path, PathComponent{Index: uint32(index), Hardened: hardened})
	}
	return path, nil
}

// String renders the path back to its textual form.
func (p Path) String() string {
	var b strings.Builder
	b.WriteString("m")
	for _, c := range p {
		b.WriteString("/")
		b.WriteString(strconv.FormatUint(uint64(c.Index), 10))
		if c.Hardened {
			b.WriteString("'")
		}
	}
	return b.String()
}

// Child returns a copy of p extended by one non-hardened index.
func (p Path) Child(index uint32) Path {
	child := make(Path, len(p), len(p)+1)
	copy(child, p)
	return append(child, PathComponent{Index: index})
}

// ValidatePath reports whether s parses under the path grammar.
func ValidatePath(s string) error {
	_, err := ParsePath(s)
	return err
}

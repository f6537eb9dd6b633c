// Package render turns wallet and keystore view models into table or JSON
// output. Addresses are stored lowercase; the EIP-55 mixed-case form is a
// presentation concern handled here.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/ethvault/ethvault/errs"
	"github.com/ethvault/ethvault/keystore"
	"github.com/ethvault/ethvault/mnemonic"
	"github.com/ethvault/ethvault/wallet"
)

// Format selects the output encoding.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
)

// ParseFormat validates a --output flag value.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatTable, FormatJSON:
		return Format(s), nil
	default:
		return "", errs.UnsupportedFormat(s, []string{string(FormatTable), string(FormatJSON)})
	}
}

// Renderer writes view models in the selected format. Errors go to Err so
// table output stays pipeable; JSON errors stay on Out for machine consumers.
type Renderer struct {
	Out    io.Writer
	Err    io.Writer
	Format Format
}

func New(out io.Writer, format Format) *Renderer {
	return &Renderer{Out: out, Err: os.Stderr, Format: format}
}

// ChecksumAddress renders the EIP-55 mixed-case form of an address.
func ChecksumAddress(address string) string {
	return common.HexToAddress(address).Hex()
}

// Wallet prints a created, imported or decrypted wallet. The mnemonic is
// included only when showSecrets is set.
func (r *Renderer) Wallet(w *wallet.Wallet, showSecrets bool) error {
	if r.Format == FormatJSON {
		view := map[string]any{
			"address":         w.Address,
			"checksum":        ChecksumAddress(w.Address),
			"network":         w.Network,
			"derivation_path": w.DerivationPath,
			"has_mnemonic":    w.HasMnemonic(),
			"created_at":      w.CreatedAt.Format(time.RFC3339),
		}
		if w.Alias != "" {
			view["alias"] = w.Alias
		}
		if showSecrets && w.HasMnemonic() {
			view["mnemonic"] = w.Mnemonic()
			view["strength"] = mnemonic.Classify(w.Mnemonic()).String()
		}
		return r.writeJSON(view)
	}

	fmt.Fprintf(r.Out, "Address:  %s\n", ChecksumAddress(w.Address))
	fmt.Fprintf(r.Out, "Network:  %s\n", w.Network)
	if w.HasMnemonic() {
		fmt.Fprintf(r.Out, "Type:     HD wallet (BIP44)\n")
		fmt.Fprintf(r.Out, "Path:     %s\n", w.DerivationPath)
	} else {
		fmt.Fprintf(r.Out, "Type:     private key only\n")
	}
	if w.Alias != "" {
		fmt.Fprintf(r.Out, "Alias:    %s\n", w.Alias)
	}
	fmt.Fprintf(r.Out, "Created:  %s\n", w.CreatedAt.Format("2006-01-02 15:04:05 UTC"))
	if showSecrets && w.HasMnemonic() {
		fmt.Fprintf(r.Out, "Mnemonic: %s\n", w.Mnemonic())
		fmt.Fprintf(r.Out, "Strength: %s\n", mnemonic.Classify(w.Mnemonic()))
		fmt.Fprintln(r.Out, "\nStore the mnemonic phrase safely: anyone holding it controls the wallet.")
	}
	return nil
}

// KeystoreSummary prints a keystore's clear metadata without decrypting.
func (r *Renderer) KeystoreSummary(path string, k *keystore.Keystore) error {
	if r.Format == FormatJSON {
		return r.writeJSON(map[string]any{
			"file":       path,
			"address":    k.Metadata.Address,
			"network":    k.Metadata.Network,
			"created_at": k.Metadata.CreatedAt,
			"alias":      k.Metadata.Alias,
		})
	}

	fmt.Fprintf(r.Out, "File:     %s\n", path)
	fmt.Fprintf(r.Out, "Address:  %s\n", ChecksumAddress(k.Metadata.Address))
	fmt.Fprintf(r.Out, "Network:  %s\n", k.Metadata.Network)
	fmt.Fprintf(r.Out, "Created:  %s\n", k.Metadata.CreatedAt)
	if alias := k.AliasString(); alias != "" {
		fmt.Fprintf(r.Out, "Alias:    %s\n", alias)
	}
	return nil
}

// Derived prints a batch of derived addresses.
func (r *Renderer) Derived(baseAddress, basePath string, addrs []wallet.DerivedAddress) error {
	if r.Format == FormatJSON {
		return r.writeJSON(map[string]any{
			"base_address": baseAddress,
			"base_path":    basePath,
			"count":        len(addrs),
			"addresses":    addrs,
		})
	}

	fmt.Fprintf(r.Out, "Base address: %s\n", ChecksumAddress(baseAddress))
	fmt.Fprintf(r.Out, "Base path:    %s\n\n", basePath)
	tw := tabwriter.NewWriter(r.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "INDEX\tADDRESS\tPATH")
	for _, d := range addrs {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", d.Index, ChecksumAddress(d.Address), d.Path)
	}
	return tw.Flush()
}

// ListEntry is one row of the list command output.
type ListEntry struct {
	Filename  string `json:"filename"`
	Path      string `json:"path"`
	Address   string `json:"address"`
	Network   string `json:"network"`
	CreatedAt string `json:"created_at"`
	Alias     string `json:"alias,omitempty"`
}

// KeystoreList prints the scanned wallet directory.
func (r *Renderer) KeystoreList(dir string, entries []ListEntry) error {
	if r.Format == FormatJSON {
		return r.writeJSON(map[string]any{
			"directory": dir,
			"count":     len(entries),
			"wallets":   entries,
		})
	}

	fmt.Fprintf(r.Out, "Wallet directory: %s\n", dir)
	if len(entries) == 0 {
		fmt.Fprintln(r.Out, "No wallets found.")
		return nil
	}
	fmt.Fprintf(r.Out, "Found %d wallet(s):\n\n", len(entries))

	tw := tabwriter.NewWriter(r.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FILENAME\tADDRESS\tNETWORK\tALIAS\tCREATED")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			e.Filename, shortAddress(e.Address), e.Network, e.Alias, e.CreatedAt)
	}
	return tw.Flush()
}

// Error prints a typed error with its code and suggestion.
func (r *Renderer) Error(err error) {
	if e, ok := err.(*errs.Error); ok {
		if r.Format == FormatJSON {
			r.writeJSON(map[string]any{
				"error":      e.Message,
				"code":       e.Code,
				"suggestion": e.Suggestion,
			})
			return
		}
		fmt.Fprintf(r.Err, "Error [%s]: %s\n", e.Code, e.Message)
		if e.Suggestion != "" {
			fmt.Fprintf(r.Err, "Hint: %s\n", e.Suggestion)
		}
		return
	}
	fmt.Fprintf(r.Err, "Error: %v\n", err)
}

func (r *Renderer) writeJSON(v any) error {
	enc := json.NewEncoder(r.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func shortAddress(addr string) string {
	if len(addr) >= 42 {
		return addr[:6] + "..." + addr[38:]
	}
	return addr
}

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ethvault/ethvault/config"
	"github.com/ethvault/ethvault/errs"
	"github.com/ethvault/ethvault/keystore"
	"github.com/ethvault/ethvault/prompt"
	"github.com/ethvault/ethvault/registry"
	"github.com/ethvault/ethvault/render"
	"github.com/ethvault/ethvault/wallet"
)

func createCmd(a *app) *cobra.Command {
	var (
		words       int
		network     string
		alias       string
		save        string
		kdf         string
		lowMemory   bool
		genPassword bool
		force       bool
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new HD wallet",
		RunE: func(cmd *cobra.Command, args []string) error {
			if network == "" {
				network = a.params.Network
			}
			a.log.Debug("generating wallet", zap.Int("words", words), zap.String("network", network))

			w, err := wallet.Generate(a.params, words, network, alias)
			if err != nil {
				return err
			}
			defer w.Wipe()

			if err := a.renderer.Wallet(w, true); err != nil {
				return err
			}

			if save != "" {
				return saveWallet(cmd.Context(), a, w, save, kdf, lowMemory, genPassword, force)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&words, "words", "w", 12, "mnemonic word count (12 or 24)")
	cmd.Flags().StringVarP(&network, "network", "n", "", "target network")
	cmd.Flags().StringVarP(&alias, "alias", "a", "", "wallet alias")
	cmd.Flags().StringVarP(&save, "save", "s", "", "encrypt and save to this filename")
	cmd.Flags().StringVar(&kdf, "kdf", string(config.KDFArgon2id), "key derivation function: argon2id or pbkdf2")
	cmd.Flags().BoolVar(&lowMemory, "low-memory", false, "use the reduced-memory argon2id profile")
	cmd.Flags().BoolVar(&genPassword, "gen-password", false, "generate a random keystore password instead of prompting")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing keystore file")
	return cmd
}

func importCmd(a *app) *cobra.Command {
	var (
		mnemonicFlag string
		privateKey   string
		network      string
		alias        string
		save         string
		kdf          string
		lowMemory    bool
		genPassword  bool
		force        bool
	)

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import a wallet from a mnemonic or private key",
		RunE: func(cmd *cobra.Command, args []string) error {
			if mnemonicFlag != "" && privateKey != "" {
				return errs.ConflictingOptions("--mnemonic", "--private-key")
			}
			if network == "" {
				network = a.params.Network
			}

			var w *wallet.Wallet
			var err error
			switch {
			case privateKey != "":
				a.log.Debug("importing from private key")
				w, err = wallet.FromPrivateKey(a.params, privateKey, network, alias)
			case mnemonicFlag != "":
				a.log.Debug("importing from mnemonic")
				w, err = wallet.FromMnemonic(a.params, mnemonicFlag, network, alias)
			default:
				var phrase string
				phrase, err = prompt.Mnemonic()
				if err != nil {
					return err
				}
				w, err = wallet.FromMnemonic(a.params, phrase, network, alias)
			}
			if err != nil {
				return err
			}
			defer w.Wipe()

			if err := a.renderer.Wallet(w, false); err != nil {
				return err
			}

			if save != "" {
				return saveWallet(cmd.Context(), a, w, save, kdf, lowMemory, genPassword, force)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&mnemonicFlag, "mnemonic", "m", "", "BIP39 mnemonic phrase")
	cmd.Flags().StringVarP(&privateKey, "private-key", "p", "", "private key (64 hex characters)")
	cmd.Flags().StringVarP(&network, "network", "n", "", "target network")
	cmd.Flags().StringVarP(&alias, "alias", "a", "", "wallet alias")
	cmd.Flags().StringVarP(&save, "save", "s", "", "encrypt and save to this filename")
	cmd.Flags().StringVar(&kdf, "kdf", string(config.KDFArgon2id), "key derivation function: argon2id or pbkdf2")
	cmd.Flags().BoolVar(&lowMemory, "low-memory", false, "use the reduced-memory argon2id profile")
	cmd.Flags().BoolVar(&genPassword, "gen-password", false, "generate a random keystore password instead of prompting")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing keystore file")
	return cmd
}

func loadCmd(a *app) *cobra.Command {
	var (
		addressOnly bool
		deriveIndex int64
	)

	cmd := &cobra.Command{
		Use:   "load FILE",
		Short: "Load and decrypt a keystore file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := resolvePath(a.params, args[0])
			a.log.Debug("loading keystore", zap.String("path", path))

			if addressOnly {
				k, err := keystore.Load(a.params, path)
				if err != nil {
					return err
				}
				return a.renderer.KeystoreSummary(path, k)
			}

			w, err := unlockWallet(cmd.Context(), a, path)
			if err != nil {
				return err
			}
			defer w.Wipe()

			if err := a.renderer.Wallet(w, false); err != nil {
				return err
			}

			if deriveIndex >= 0 {
				d, err := w.DeriveAddress(uint32(deriveIndex))
				if err != nil {
					return err
				}
				return a.renderer.Derived(w.Address, w.DerivationPath, []wallet.DerivedAddress{d})
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&addressOnly, "address-only", false, "show metadata without decrypting")
	cmd.Flags().Int64VarP(&deriveIndex, "derive", "d", -1, "also derive the address at this index")
	return cmd
}

func listCmd(a *app) *cobra.Command {
	var (
		dir          string
		fromRegistry bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List keystore files in the wallet directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			if fromRegistry {
				reg, err := registry.Open(a.params.RegistryPath)
				if err != nil {
					return err
				}
				defer reg.Close()

				entries, err := reg.List(cmd.Context())
				if err != nil {
					return err
				}
				rows := make([]render.ListEntry, 0, len(entries))
				for _, e := range entries {
					rows = append(rows, render.ListEntry{
						Filename:  filepath.Base(e.Path),
						Path:      e.Path,
						Address:   e.Address,
						Network:   e.Network,
						CreatedAt: e.CreatedAt.Format(time.RFC3339),
						Alias:     e.Alias,
					})
				}
				return a.renderer.KeystoreList(a.params.RegistryPath, rows)
			}

			if dir == "" {
				dir = a.params.WalletDir
			}
			a.log.Debug("scanning wallet directory", zap.String("dir", dir))

			entries, err := keystore.ScanDir(a.params, dir)
			if err != nil {
				return err
			}

			rows := make([]render.ListEntry, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, render.ListEntry{
					Filename:  filepath.Base(e.Path),
					Path:      e.Path,
					Address:   e.Keystore.Metadata.Address,
					Network:   e.Keystore.Metadata.Network,
					CreatedAt: e.Keystore.Metadata.CreatedAt,
					Alias:     e.Keystore.AliasString(),
				})
			}
			return a.renderer.KeystoreList(dir, rows)
		},
	}

	cmd.Flags().StringVarP(&dir, "path", "p", "", "wallet directory to scan")
	cmd.Flags().BoolVar(&fromRegistry, "registry", false, "list from the saved-wallet index instead of scanning")
	return cmd
}

func deriveCmd(a *app) *cobra.Command {
	var (
		fromFile   string
		count      uint32
		startIndex uint32
	)

	cmd := &cobra.Command{
		Use:   "derive",
		Short: "Derive addresses from an HD wallet",
		RunE: func(cmd *cobra.Command, args []string) error {
			var w *wallet.Wallet
			var err error
			if fromFile != "" {
				w, err = unlockWallet(cmd.Context(), a, resolvePath(a.params, fromFile))
			} else {
				var phrase string
				phrase, err = prompt.Mnemonic()
				if err != nil {
					return err
				}
				w, err = wallet.FromMnemonic(a.params, phrase, a.params.Network, "")
			}
			if err != nil {
				return err
			}
			defer w.Wipe()

			if !w.HasMnemonic() {
				return errs.InvalidParameters("wallet", "private key only", "HD wallet with mnemonic")
			}
			if count == 0 {
				count = 1
			}

			addrs := make([]wallet.DerivedAddress, 0, count)
			for i := uint32(0); i < count; i++ {
				d, err := w.DeriveAddress(startIndex + i)
				if err != nil {
					return err
				}
				addrs = append(addrs, d)
			}
			return a.renderer.Derived(w.Address, w.DerivationPath, addrs)
		},
	}

	cmd.Flags().StringVarP(&fromFile, "from-file", "f", "", "derive from an encrypted keystore file")
	cmd.Flags().Uint32VarP(&count, "count", "n", 1, "number of addresses to derive")
	cmd.Flags().Uint32VarP(&startIndex, "start-index", "i", 0, "first derivation index")
	return cmd
}

// saveWallet encrypts w and writes it under the wallet directory, recording
// the file in the registry.
func saveWallet(ctx context.Context, a *app, w *wallet.Wallet, filename, kdf string, lowMemory, genPassword, force bool) error {
	var password string
	var err error
	if genPassword {
		password, err = keystore.GeneratePassword(20)
		if err != nil {
			return err
		}
		// shown once, never stored
		fmt.Fprintf(os.Stderr, "Generated password: %s\n", password)
	} else {
		password, err = prompt.NewPassword(a.params)
		if err != nil {
			return err
		}
	}

	opts := keystore.DefaultOptions(a.params)
	switch config.KDF(kdf) {
	case config.KDFArgon2id:
		if lowMemory {
			opts.Argon2 = config.LowMemoryArgon2()
		}
	case config.KDFPbkdf2:
		opts.KDF = config.KDFPbkdf2
	default:
		return errs.InvalidParameters("kdf", kdf, "argon2id or pbkdf2")
	}

	k, err := keystore.Encrypt(a.params, w, password, opts)
	if err != nil {
		return err
	}

	path := resolvePath(a.params, filename)
	if !strings.HasSuffix(path, ".json") {
		path += ".json"
	}
	if err := keystore.Save(a.params, k, path, force); err != nil {
		return err
	}
	a.log.Info("keystore saved", zap.String("path", path))

	reg, err := registry.Open(a.params.RegistryPath)
	if err != nil {
		return err
	}
	defer reg.Close()
	if _, err := reg.Record(ctx, path, w.Alias, w.Address, w.Network); err != nil {
		return err
	}
	return nil
}

// unlockWallet loads, lockout-checks and decrypts a keystore file. Failed
// attempts are counted in the registry; a correct password resets them.
func unlockWallet(ctx context.Context, a *app, path string) (*wallet.Wallet, error) {
	k, err := keystore.Load(a.params, path)
	if err != nil {
		return nil, err
	}

	reg, err := registry.Open(a.params.RegistryPath)
	if err != nil {
		return nil, err
	}
	defer reg.Close()

	if entry, ok, err := reg.Get(ctx, path); err != nil {
		return nil, err
	} else if ok && entry.FailedAttempts >= a.params.MaxUnlockAttempts {
		return nil, errs.MaxAttemptsExceeded(path)
	}

	password, err := prompt.Password()
	if err != nil {
		return nil, err
	}

	w, err := keystore.Decrypt(a.params, k, password)
	if err != nil {
		var e *errs.Error
		if errors.As(err, &e) && e.Code == errs.CodeDecryptionFailed {
			attempts, regErr := reg.RecordFailedUnlock(ctx, path)
			if regErr != nil {
				return nil, regErr
			}
			remaining := a.params.MaxUnlockAttempts - attempts
			if remaining <= 0 {
				return nil, errs.MaxAttemptsExceeded(path)
			}
			return nil, errs.WrongPassword(path, remaining)
		}
		return nil, err
	}

	if err := reg.ResetUnlockAttempts(ctx, path); err != nil {
		return nil, err
	}
	return w, nil
}

// resolvePath treats bare names as files inside the wallet directory and
// anything containing a separator as an explicit path.
func resolvePath(params config.Params, name string) string {
	if strings.ContainsAny(name, "/\\") {
		return name
	}
	return filepath.Join(params.WalletDir, name)
}

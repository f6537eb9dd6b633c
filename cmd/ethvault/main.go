package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ethvault/ethvault/config"
	"github.com/ethvault/ethvault/logger"
	"github.com/ethvault/ethvault/render"
)

// app carries the process-wide state constructed once in main and passed
// explicitly to every command.
type app struct {
	params   config.Params
	log      *zap.Logger
	renderer *render.Renderer
}

func main() {
	var (
		verbose    bool
		output     string
		configPath string
	)

	a := &app{}

	rootCmd := &cobra.Command{
		Use:           "ethvault",
		Short:         "Ethereum HD wallet keystore manager",
		Long:          "Generate, import and manage Ethereum wallets with BIP39/BIP44 derivation and encrypted keystore files.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			format, err := render.ParseFormat(output)
			if err != nil {
				return err
			}
			params := config.Default()
			if configPath != "" {
				params, err = config.Load(configPath)
				if err != nil {
					return err
				}
			}
			a.params = params
			a.log = logger.New(verbose)
			a.renderer = render.New(os.Stdout, format)
			return nil
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "table", "output format: table or json")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file")

	rootCmd.AddCommand(createCmd(a))
	rootCmd.AddCommand(importCmd(a))
	rootCmd.AddCommand(loadCmd(a))
	rootCmd.AddCommand(listCmd(a))
	rootCmd.AddCommand(deriveCmd(a))

	if err := rootCmd.Execute(); err != nil {
		if a.renderer != nil {
			a.renderer.Error(err)
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

// Package commands wires the finmind CLI: the API server, the export worker
// and two offline helpers for the assistant and the sentiment catalog.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"finmind/internal/cli"
	"finmind/internal/config"
	flog "finmind/internal/log"
)

// Version is overridden at build time with -ldflags.
var Version = "dev"

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "finmind",
		Short:   "Personal finance dashboard, assistant and market sentiment",
		Version: Version,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cli.LoadEnvFile()
		},
	}

	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newWorkerCommand())
	rootCmd.AddCommand(newAskCommand())
	rootCmd.AddCommand(newQuoteCommand())

	return rootCmd
}

// bootstrap loads the configuration and a logger writing to the command's
// error stream.
func bootstrap(cmd *cobra.Command, component string) (*config.Config, *flog.Logger, error) {
	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		return nil, nil, err
	}
	logger, err := cli.SetupLogger(cfg, component, cmd.ErrOrStderr())
	if err != nil {
		return nil, nil, fmt.Errorf("logger: %w", err)
	}
	return cfg, logger, nil
}

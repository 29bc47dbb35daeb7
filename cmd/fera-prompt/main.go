package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/joestump/fera-prompt/internal/config"
	"github.com/joestump/fera-prompt/internal/logging"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "fera-prompt",
		Short:         "Prompt template API with workflow execution history",
		Long:          "Fera Prompt stores prompt templates, runs them through a workflow webhook, records every execution and converts HTML to PDF.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newMigrateCmd())
	rootCmd.AddCommand(newBrowserCmd())
	rootCmd.AddCommand(newVersionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadRuntime reads configuration and builds the logger every command uses.
func loadRuntime() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.New(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

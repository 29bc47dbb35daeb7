package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/joestump/fera-prompt/internal/pdf"
)

func newBrowserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "browser",
		Short: "Manage the headless browser used for PDF conversion",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "install",
		Short: "Download Chromium into the browser directory ahead of the first PDF request",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadRuntime()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			gate := pdf.NewGate(&pdf.RodInstaller{Dir: cfg.Browser.Dir, Path: cfg.Browser.Path, Logger: logger}, logger)
			path, err := gate.EnsureExecutable(cmd.Context())
			if err != nil {
				return err
			}
			logger.Info("browser ready", zap.String("path", path))
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	})
	return cmd
}

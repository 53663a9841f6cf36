package main

import (
	"github.com/spf13/cobra"

	"biosync/internal/app"
)

func newValidateCmd(opts *cliOptions) *cobra.Command {
	var files []string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Dry-run registry validation for tool files without uploading",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			client, err := newRegistryClient(cfg, opts, nil)
			if err != nil {
				return err
			}

			report, err := app.New(opts.logger).Validate(cmd.Context(), client, files)
			if err != nil {
				return err
			}
			if err := printRunReport(report, opts.jsonOutput); err != nil {
				return err
			}
			if report.HasFailures() {
				return exitSilent(1)
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&files, "files", nil, "tool description files to validate")
	_ = cmd.MarkFlagRequired("files")

	return cmd
}

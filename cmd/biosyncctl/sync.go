package main

import (
	"github.com/spf13/cobra"

	"biosync/internal/app"
	"biosync/internal/infra/content"
)

func newSyncCmd(opts *cliOptions) *cobra.Command {
	var (
		files      []string
		deleted    []string
		reportPath string
	)

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Reconcile changed and deleted tool files with the registry",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			if reportPath == "" {
				reportPath = cfg.Content.ReportPath
			}
			// With no explicit file lists, reconcile the whole tree.
			if len(files) == 0 && len(deleted) == 0 {
				files, err = content.ToolFiles(cfg.Content.DataDir)
				if err != nil {
					return err
				}
			}

			client, err := newRegistryClient(cfg, opts, nil)
			if err != nil {
				return err
			}

			report, err := app.New(opts.logger).Sync(cmd.Context(), client, app.SyncOptions{
				Files:      files,
				Deleted:    deleted,
				ReportPath: reportPath,
			})
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

	cmd.Flags().StringSliceVar(&files, "files", nil, "changed or created tool description files (default: the whole tree)")
	cmd.Flags().StringSliceVar(&deleted, "deleted", nil, "deleted tool description files")
	cmd.Flags().StringVar(&reportPath, "report", "", "failure report path (overrides config)")

	return cmd
}

package main

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"biosync/internal/app"
)

func newImportCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import external metadata sources into the content tree",
	}
	cmd.AddCommand(
		newImportAnnotationsCmd(opts),
		newImportBioconductorCmd(opts),
		newImportGalaxyCmd(opts),
		newImportOpenEBenchCmd(opts),
	)
	return cmd
}

func newImportAnnotationsCmd(opts *cliOptions) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "annotations [url]",
		Short: "Split a biocontainers annotation dump into per-tool YAML files",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			url := cfg.Imports.AnnotationsURL
			if len(args) == 1 {
				url = args[0]
			}
			if url == "" {
				return exitError{code: 2, message: "annotations URL required (argument or imports.annotationsURL)"}
			}
			if dir == "" {
				dir = cfg.Content.DataDir
			}

			written, err := app.New(opts.logger).ImportAnnotations(cmd.Context(), url, dir)
			if err != nil {
				return err
			}
			return printImportCount("files", written, opts.jsonOutput)
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "output data directory (overrides config)")
	return cmd
}

func newImportBioconductorCmd(opts *cliOptions) *cobra.Command {
	var root string

	cmd := &cobra.Command{
		Use:   "bioconductor",
		Short: "Import the Bioconductor package index",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			if root == "" {
				// imports/ lives next to data/ under the content root.
				root = filepath.Dir(cfg.Content.DataDir)
			}

			written, err := app.New(opts.logger).ImportBioconductor(cmd.Context(), cfg.Imports.BioconductorEndpoint, root)
			if err != nil {
				return err
			}
			return printImportCount("packages", written, opts.jsonOutput)
		},
	}

	cmd.Flags().StringVar(&root, "root", "", "content root directory (overrides config)")
	return cmd
}

func newImportGalaxyCmd(opts *cliOptions) *cobra.Command {
	var root string

	cmd := &cobra.Command{
		Use:   "galaxy",
		Short: "Import galaxy codex tool metadata and link it to known tools",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			if root == "" {
				root = filepath.Dir(cfg.Content.DataDir)
			}

			stats, err := app.New(opts.logger).ImportGalaxy(cmd.Context(), cfg.Imports.GalaxyMetadataURL, root, cfg.Content.DataDir)
			if err != nil {
				return err
			}
			return printGalaxyStats(stats, opts.jsonOutput)
		},
	}

	cmd.Flags().StringVar(&root, "root", "", "content root directory (overrides config)")
	return cmd
}

func newImportOpenEBenchCmd(opts *cliOptions) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "openebench",
		Short: "Import OpenEBench monitoring metrics for known tools",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			if dir == "" {
				dir = cfg.Content.DataDir
			}

			stats, err := app.New(opts.logger).ImportOpenEBench(cmd.Context(), cfg.Imports.OpenEBenchEndpoint, dir)
			if err != nil {
				return err
			}
			return printOpenEBenchStats(stats, opts.jsonOutput)
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "content data directory (overrides config)")
	return cmd
}

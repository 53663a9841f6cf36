// Package app wires the reconciler, importers, and watch mode behind the CLI.
package app

import (
	"context"

	"go.uber.org/zap"

	"biosync/internal/infra/annotations"
	"biosync/internal/infra/imports"
)

type App struct {
	logger *zap.Logger
}

func New(logger *zap.Logger) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &App{logger: logger.Named("app")}
}

// ImportAnnotations runs the biocontainers annotation importer.
func (a *App) ImportAnnotations(ctx context.Context, url, dir string) (int, error) {
	return annotations.NewImporter(a.logger).Run(ctx, url, dir)
}

// ImportBioconductor runs the Bioconductor package index importer.
func (a *App) ImportBioconductor(ctx context.Context, endpoint, contentRoot string) (int, error) {
	return imports.NewBioconductor(endpoint, a.logger).Run(ctx, contentRoot)
}

// ImportOpenEBench runs the OpenEBench monitoring metrics importer.
func (a *App) ImportOpenEBench(ctx context.Context, endpoint, dataDir string) (imports.OpenEBenchStats, error) {
	return imports.NewOpenEBench(endpoint, a.logger).Run(ctx, dataDir)
}

// ImportGalaxy runs the galaxy codex metadata importer.
func (a *App) ImportGalaxy(ctx context.Context, endpoint, contentRoot, dataDir string) (imports.GalaxyStats, error) {
	return imports.NewGalaxy(endpoint, a.logger).Run(ctx, contentRoot, dataDir)
}

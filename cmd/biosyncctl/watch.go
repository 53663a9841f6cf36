package main

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"biosync/internal/app"
	"biosync/internal/infra/telemetry"
)

func newWatchCmd(opts *cliOptions) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch the content tree and reconcile files as they change",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			if dir == "" {
				dir = cfg.Content.DataDir
			}

			registerer := prometheus.NewRegistry()
			metrics := telemetry.NewMetrics(registerer)
			health := telemetry.NewHealthTracker(dir)

			client, err := newRegistryClient(cfg, opts, metrics)
			if err != nil {
				return err
			}

			ctx, cancel := signalAwareContext(cmd.Context())
			defer cancel()

			group, ctx := errgroup.WithContext(ctx)
			group.Go(func() error {
				return telemetry.StartHTTPServer(ctx, telemetry.HTTPServerOptions{
					Addr:          cfg.Observability.ListenAddress,
					EnableMetrics: cfg.Observability.EnableMetrics,
					Health:        health,
					Registry:      registerer,
				}, opts.logger)
			})
			group.Go(func() error {
				return app.New(opts.logger).Watch(ctx, client, app.WatchOptions{
					DataDir:  dir,
					Debounce: time.Duration(cfg.Watch.DebounceMillis) * time.Millisecond,
					Metrics:  metrics,
					Health:   health,
				})
			})

			if err := group.Wait(); err != nil {
				opts.logger.Error("watch mode failed", zap.Error(err))
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "content data directory to watch (overrides config)")
	return cmd
}

package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"biosync/internal/buildinfo"
	"biosync/internal/infra/config"
	"biosync/internal/infra/registry"
	"biosync/internal/infra/telemetry"
)

const defaultTokenEnv = "BIOTOOLS_TOKEN"

type cliOptions struct {
	configPath     string
	host           string
	token          string
	tokenEnv       string
	timeoutSeconds int
	verbose        bool
	jsonOutput     bool
	logger         *zap.Logger
}

func newRootCommand() *cobra.Command {
	opts := cliOptions{
		tokenEnv: defaultTokenEnv,
		logger:   zap.NewNop(),
	}

	root := &cobra.Command{
		Use:     "biosyncctl",
		Short:   "Synchronize the bio.tools content tree with the registry",
		Version: buildinfo.Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := validateTokenFlags(cmd); err != nil {
				return err
			}
			cfg := zap.NewProductionConfig()
			if opts.verbose {
				cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
			}
			logger, err := cfg.Build()
			if err != nil {
				return err
			}
			opts.logger = logger
			return nil
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			_ = opts.logger.Sync()
		},
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to biosync.yaml (optional)")
	root.PersistentFlags().StringVar(&opts.host, "host", "", "registry base URL (overrides config)")
	root.PersistentFlags().StringVar(&opts.token, "token", "", "registry API token")
	root.PersistentFlags().StringVar(&opts.tokenEnv, "token-env", opts.tokenEnv, "environment variable holding the API token")
	root.PersistentFlags().IntVar(&opts.timeoutSeconds, "timeout", 0, "registry request timeout in seconds (overrides config)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().BoolVar(&opts.jsonOutput, "json", false, "output JSON")

	root.AddCommand(
		newSyncCmd(&opts),
		newValidateCmd(&opts),
		newImportCmd(&opts),
		newWatchCmd(&opts),
	)

	return root
}

func validateTokenFlags(cmd *cobra.Command) error {
	var tokenSet, tokenEnvSet bool
	cmd.Flags().Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "token":
			tokenSet = true
		case "token-env":
			tokenEnvSet = true
		}
	})
	if tokenSet && tokenEnvSet {
		return errors.New("--token and --token-env are mutually exclusive")
	}
	return nil
}

func loadConfig(cmd *cobra.Command, opts *cliOptions) (config.Config, error) {
	cfg, err := config.NewLoader(opts.logger).Load(cmd.Context(), opts.configPath)
	if err != nil {
		return config.Config{}, err
	}
	if opts.host != "" {
		cfg.Registry.Host = opts.host
	}
	if opts.timeoutSeconds > 0 {
		cfg.Registry.TimeoutSeconds = opts.timeoutSeconds
	}
	return cfg, nil
}

func resolveToken(opts *cliOptions) string {
	if opts.token != "" {
		return opts.token
	}
	if opts.tokenEnv != "" {
		return os.Getenv(opts.tokenEnv)
	}
	return ""
}

func newRegistryClient(cfg config.Config, opts *cliOptions, metrics *telemetry.Metrics) (*registry.Client, error) {
	clientCfg := registry.Config{
		BaseURL: cfg.Registry.Host,
		Token:   resolveToken(opts),
		Timeout: time.Duration(cfg.Registry.TimeoutSeconds) * time.Second,
	}
	if metrics != nil {
		clientCfg.Observer = metrics
	}
	return registry.NewClient(clientCfg, opts.logger)
}

func signalAwareContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(signals)
		select {
		case <-signals:
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

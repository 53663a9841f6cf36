// Package config loads the optional biosync.yaml configuration file.
package config

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"biosync/internal/domain"
)

type Config struct {
	Registry      RegistryConfig
	Content       ContentConfig
	Watch         WatchConfig
	Observability ObservabilityConfig
	Imports       ImportsConfig
}

type RegistryConfig struct {
	Host           string
	TimeoutSeconds int
}

type ContentConfig struct {
	DataDir    string
	ReportPath string
}

type WatchConfig struct {
	DebounceMillis int
}

type ObservabilityConfig struct {
	ListenAddress string
	EnableMetrics bool
}

type ImportsConfig struct {
	AnnotationsURL       string
	BioconductorEndpoint string
	OpenEBenchEndpoint   string
	GalaxyMetadataURL    string
}

type rawConfig struct {
	Registry      rawRegistryConfig      `mapstructure:"registry"`
	Content       rawContentConfig       `mapstructure:"content"`
	Watch         rawWatchConfig         `mapstructure:"watch"`
	Observability rawObservabilityConfig `mapstructure:"observability"`
	Imports       rawImportsConfig       `mapstructure:"imports"`
}

type rawRegistryConfig struct {
	Host           string `mapstructure:"host"`
	TimeoutSeconds int    `mapstructure:"timeoutSeconds"`
}

type rawContentConfig struct {
	DataDir    string `mapstructure:"dataDir"`
	ReportPath string `mapstructure:"reportPath"`
}

type rawWatchConfig struct {
	DebounceMillis int `mapstructure:"debounceMillis"`
}

type rawObservabilityConfig struct {
	ListenAddress string `mapstructure:"listenAddress"`
	EnableMetrics bool   `mapstructure:"enableMetrics"`
}

type rawImportsConfig struct {
	AnnotationsURL       string `mapstructure:"annotationsURL"`
	BioconductorEndpoint string `mapstructure:"bioconductorEndpoint"`
	OpenEBenchEndpoint   string `mapstructure:"openebenchEndpoint"`
	GalaxyMetadataURL    string `mapstructure:"galaxyMetadataURL"`
}

type Loader struct {
	logger *zap.Logger
}

func NewLoader(logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{logger: logger.Named("config")}
}

func newConfigViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("registry.host", domain.DefaultRegistryHost)
	v.SetDefault("registry.timeoutSeconds", domain.DefaultRequestTimeoutSeconds)
	v.SetDefault("content.dataDir", domain.DefaultContentDir)
	v.SetDefault("content.reportPath", domain.DefaultReportPath)
	v.SetDefault("watch.debounceMillis", domain.DefaultWatchDebounceMillis)
	v.SetDefault("observability.listenAddress", domain.DefaultObservabilityListenAddress)
	v.SetDefault("observability.enableMetrics", true)
	v.SetDefault("imports.bioconductorEndpoint", domain.DefaultBioconductorEndpoint)
	v.SetDefault("imports.openebenchEndpoint", domain.DefaultOpenEBenchEndpoint)
	v.SetDefault("imports.galaxyMetadataURL", domain.DefaultGalaxyMetadataURL)
}

// Load reads the config file at path, expanding ${VAR} references against the
// environment before decoding. An empty path yields the defaults.
func (l *Loader) Load(ctx context.Context, path string) (Config, error) {
	const op = "config.Load"
	if ctx != nil {
		if err := ctx.Err(); err != nil {
			return Config{}, err
		}
	}

	v := newConfigViper()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, domain.E(domain.CodeInvalidArgument, op, fmt.Sprintf("read %s", path), err)
		}
		expanded, missing, err := expandConfigEnv(data)
		if err != nil {
			return Config{}, domain.E(domain.CodeInvalidArgument, op, path, err)
		}
		for _, name := range missing {
			l.logger.Warn("config references unset environment variable", zap.String("var", name))
		}
		if err := v.ReadConfig(strings.NewReader(expanded)); err != nil {
			return Config{}, domain.E(domain.CodeInvalidArgument, op, fmt.Sprintf("parse %s", path), err)
		}
	}

	var raw rawConfig
	if err := v.Unmarshal(&raw); err != nil {
		return Config{}, domain.E(domain.CodeInvalidArgument, op, "decode config", err)
	}

	cfg := Config{
		Registry: RegistryConfig{
			Host:           strings.TrimRight(raw.Registry.Host, "/"),
			TimeoutSeconds: raw.Registry.TimeoutSeconds,
		},
		Content: ContentConfig{
			DataDir:    raw.Content.DataDir,
			ReportPath: raw.Content.ReportPath,
		},
		Watch: WatchConfig{
			DebounceMillis: raw.Watch.DebounceMillis,
		},
		Observability: ObservabilityConfig{
			ListenAddress: raw.Observability.ListenAddress,
			EnableMetrics: raw.Observability.EnableMetrics,
		},
		Imports: ImportsConfig{
			AnnotationsURL:       raw.Imports.AnnotationsURL,
			BioconductorEndpoint: raw.Imports.BioconductorEndpoint,
			OpenEBenchEndpoint:   raw.Imports.OpenEBenchEndpoint,
			GalaxyMetadataURL:    raw.Imports.GalaxyMetadataURL,
		},
	}
	if err := validate(cfg); err != nil {
		return Config{}, domain.E(domain.CodeInvalidArgument, op, "", err)
	}
	return cfg, nil
}

func validate(cfg Config) error {
	if cfg.Registry.Host == "" {
		return fmt.Errorf("registry.host must not be empty")
	}
	parsed, err := url.Parse(cfg.Registry.Host)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("registry.host %q is not a valid URL", cfg.Registry.Host)
	}
	if cfg.Registry.TimeoutSeconds <= 0 {
		return fmt.Errorf("registry.timeoutSeconds must be positive")
	}
	if cfg.Watch.DebounceMillis < 0 {
		return fmt.Errorf("watch.debounceMillis must not be negative")
	}
	return nil
}

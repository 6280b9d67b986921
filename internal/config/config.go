// Package config loads run settings from flags, environment and an optional
// config file through viper, and builds the logger from them.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"go.ngs.io/oraip-profiles/internal/adapter/store/bathymetry"
	"go.ngs.io/oraip-profiles/internal/adapter/store/nc"
	"go.ngs.io/oraip-profiles/internal/domain"
)

// EnvPrefix prefixes every environment override, e.g. ORAIP_DATA_DIR.
const EnvPrefix = "ORAIP"

// Config is the resolved run configuration.
type Config struct {
	Data struct {
		Dir    []string `mapstructure:"dir"`
		Reader string   `mapstructure:"reader"`
	} `mapstructure:"data"`
	Bathymetry struct {
		Path   string `mapstructure:"path"`
		Format string `mapstructure:"format"`
	} `mapstructure:"bathymetry"`
	Cache struct {
		Dir     string `mapstructure:"dir"`
		Enabled bool   `mapstructure:"enabled"`
	} `mapstructure:"cache"`
	Basin string `mapstructure:"basin"`
	Years struct {
		Start int `mapstructure:"start"`
		End   int `mapstructure:"end"`
	} `mapstructure:"years"`
	Products []string `mapstructure:"products"`
	Workers  int      `mapstructure:"workers"`
	Server   struct {
		Port        string   `mapstructure:"port"`
		CORSOrigins []string `mapstructure:"cors_origins"`
	} `mapstructure:"server"`
	Log struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	} `mapstructure:"log"`
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("data.dir", []string{"./data", "."})
	v.SetDefault("data.reader", nc.BackendNetCDF)
	v.SetDefault("bathymetry.path", "")
	v.SetDefault("bathymetry.format", bathymetry.FormatWOA13)
	v.SetDefault("cache.dir", "./cache")
	v.SetDefault("cache.enabled", false)
	v.SetDefault("basin", string(domain.Arctic))
	v.SetDefault("years.start", 1993)
	v.SetDefault("years.end", 2010)
	v.SetDefault("products", []string{})
	v.SetDefault("workers", 1)
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.cors_origins", []string{})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// New returns a viper instance with defaults and ORAIP_ environment overrides.
// A non-empty file is read as the config file; otherwise an oraip.{yaml,toml,json}
// in the working directory or $HOME is used when present.
func New(file string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("oraip")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}
	return v, nil
}

// Load decodes v into a Config and checks it.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	// List entries may carry blanks or trailing commas from the environment.
	cfg.Data.Dir = splitList(cfg.Data.Dir)
	cfg.Products = splitList(cfg.Products)
	cfg.Server.CORSOrigins = splitList(cfg.Server.CORSOrigins)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the enumerated keys.
func (c *Config) Validate() error {
	if _, err := domain.ParseBasin(c.Basin); err != nil {
		return err
	}
	if c.Years.End < c.Years.Start {
		return &domain.ConfigError{Kind: domain.KindYears, Value: fmt.Sprintf("%d-%d", c.Years.Start, c.Years.End), Msg: "end year before start year"}
	}
	switch c.Data.Reader {
	case nc.BackendNetCDF, nc.BackendCDF:
	default:
		return fmt.Errorf("invalid data.reader %q (expected %s|%s)", c.Data.Reader, nc.BackendNetCDF, nc.BackendCDF)
	}
	switch c.Bathymetry.Format {
	case bathymetry.FormatWOA13, bathymetry.FormatNetCDF:
	default:
		return fmt.Errorf("invalid bathymetry.format %q (expected %s|%s)", c.Bathymetry.Format, bathymetry.FormatWOA13, bathymetry.FormatNetCDF)
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("invalid log.level: %w", err)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log.format %q (expected text|json)", c.Log.Format)
	}
	return nil
}

func splitList(in []string) []string {
	var out []string
	for _, s := range in {
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// ResolveDataDir returns the first candidate that is an existing directory,
// or "." when none is.
func ResolveDataDir(candidates []string) string {
	for _, dir := range candidates {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir
		}
	}
	return "."
}

// NewLogger builds a logger with the configured level and formatter.
func NewLogger(level, format string) (*logrus.Logger, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	logger := logrus.New()
	logger.SetLevel(lvl)
	logger.SetOutput(os.Stderr)
	if format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger, nil
}

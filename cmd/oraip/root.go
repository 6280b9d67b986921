package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"go.ngs.io/oraip-profiles/internal/adapter/store/bathymetry"
	"go.ngs.io/oraip-profiles/internal/adapter/store/cache"
	"go.ngs.io/oraip-profiles/internal/adapter/store/nc"
	"go.ngs.io/oraip-profiles/internal/config"
	"go.ngs.io/oraip-profiles/internal/metrics"
	"go.ngs.io/oraip-profiles/internal/usecase"
)

// app is the state shared by subcommands after configuration is loaded.
type app struct {
	cfgFile string
	v       *viper.Viper
	cfg     *config.Config
	logger  *logrus.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:          "oraip",
		Short:        "Basin-averaged T/S profiles from ocean reanalyses",
		Long:         longDescription,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default is ./oraip.yaml or $HOME/oraip.yaml)")
	flags.StringSlice("data-dir", nil, "candidate data directories, first existing wins")
	flags.String("reader", "", "NetCDF reader backend (netcdf|cdf)")
	flags.String("bathymetry", "", "bathymetry file used to drop shallow cells")
	flags.String("bathymetry-format", "", "bathymetry file format (woa13|netcdf)")
	flags.String("log-level", "", "log level (debug|info|warn|error)")
	flags.String("log-format", "", "log format (text|json)")

	root.AddCommand(newProfilesCmd(a), newServeCmd(a), newBasinsCmd(), newProductsCmd())
	return root
}

// flagKeys maps persistent flag names to config keys.
var flagKeys = map[string]string{
	"data-dir":          "data.dir",
	"reader":            "data.reader",
	"bathymetry":        "bathymetry.path",
	"bathymetry-format": "bathymetry.format",
	"log-level":         "log.level",
	"log-format":        "log.format",
	"basin":             "basin",
	"start":             "years.start",
	"end":               "years.end",
	"products":          "products",
	"workers":           "workers",
	"cache":             "cache.enabled",
	"cache-dir":         "cache.dir",
	"port":              "server.port",
	"cors-origins":      "server.cors_origins",
}

// init loads the configuration with flags taking precedence over the
// environment and the config file.
func (a *app) init(cmd *cobra.Command) error {
	v, err := config.New(a.cfgFile)
	if err != nil {
		return err
	}
	var bindErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if key, ok := flagKeys[f.Name]; ok && bindErr == nil {
			bindErr = v.BindPFlag(key, f)
		}
	})
	if bindErr != nil {
		return fmt.Errorf("failed to bind flags: %w", bindErr)
	}

	cfg, err := config.Load(v)
	if err != nil {
		return err
	}
	logger, err := config.NewLogger(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	if used := v.ConfigFileUsed(); used != "" {
		logger.WithField("file", used).Debug("Using config file")
	}
	a.v, a.cfg, a.logger = v, cfg, logger
	return nil
}

// builder wires the reader, bathymetry, cache and metrics into a collection builder.
// The returned cleanup closes the bathymetry store.
func (a *app) builder(m *metrics.Collector) (*usecase.CollectionBuilder, func(), error) {
	cfg := a.cfg
	opener, err := nc.NewOpener(cfg.Data.Reader)
	if err != nil {
		return nil, nil, err
	}
	dataDir := config.ResolveDataDir(cfg.Data.Dir)
	log := a.logger.WithFields(logrus.Fields{"data_dir": dataDir, "reader": cfg.Data.Reader})

	var bathy bathymetry.Store
	if cfg.Bathymetry.Path != "" {
		bathy, err = bathymetry.Open(cfg.Bathymetry.Format, cfg.Bathymetry.Path, opener)
		if err != nil {
			return nil, nil, err
		}
		log = log.WithField("bathymetry", cfg.Bathymetry.Path)
	} else {
		log.Warn("Bathymetry filter disabled (no bathymetry path configured)")
	}

	var store *cache.Store
	if cfg.Cache.Enabled {
		store = cache.New(cfg.Cache.Dir)
		log = log.WithField("cache_dir", cfg.Cache.Dir)
	}
	log.Info("Configured data sources")

	reducer := usecase.NewReducer(opener, dataDir, bathy, a.logger, m)
	cleanup := func() {
		if bathy != nil {
			_ = bathy.Close()
		}
	}
	return usecase.NewCollectionBuilder(reducer, store, cfg.Workers, a.logger, m), cleanup, nil
}

const longDescription = `oraip reduces ocean reanalysis and observational products to basin-averaged,
depth-layered temperature and salinity profiles, and compares the products
against each other and their multi-model mean.

Configuration is read from flags, ORAIP_* environment variables (e.g.
ORAIP_DATA_DIR, ORAIP_YEARS_START) and an optional oraip.yaml file.`

// Package main is the entry point for the benchhost plugin host.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/dshills/benchhost/internal/config"
	"github.com/dshills/benchhost/internal/host"
	"github.com/dshills/benchhost/internal/plugin"
	"github.com/dshills/benchhost/internal/plugin/lua"
	"github.com/dshills/benchhost/internal/plugins/connectiontable"
	"github.com/dshills/benchhost/internal/plugins/general"
	"github.com/dshills/benchhost/internal/plugins/theme"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
)

type options struct {
	ConfigPath   string
	PluginsDir   string
	SaveDataPath string
	LogLevel     string
	Debug        bool
	ShowVersion  bool
}

func main() {
	os.Exit(run())
}

func run() int {
	opts := parseFlags()

	if opts.ShowVersion {
		fmt.Printf("benchhost %s (%s)\n", version, commit)
		return 0
	}

	logger, err := newLogger(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize logging: %v\n", err)
		return 1
	}
	defer logger.Sync() //nolint:errcheck // best effort on exit

	for _, dir := range []string{filepath.Dir(opts.ConfigPath), filepath.Dir(opts.SaveDataPath), opts.PluginsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logger.Error("failed to create directory", zap.String("path", dir), zap.Error(err))
			return 1
		}
	}

	store, err := config.OpenFileStore(opts.ConfigPath)
	if err != nil {
		logger.Error("failed to open config", zap.String("path", opts.ConfigPath), zap.Error(err))
		return 1
	}
	saves, err := config.OpenSaveStore(opts.SaveDataPath)
	if err != nil {
		logger.Error("failed to open save data", zap.String("path", opts.SaveDataPath), zap.Error(err))
		return 1
	}

	registry := plugin.NewRegistry(store,
		plugin.WithLoader(plugin.NewLoader(opts.PluginsDir)),
		plugin.WithLogger(logger),
		plugin.WithDirModules(lua.Resolver(logger)),
	)
	registry.RegisterBuiltin(connectiontable.ModuleName, connectiontable.Factory(logger))
	registry.RegisterBuiltin(general.ModuleName, general.Factory(opts.PluginsDir, logger))
	registry.RegisterBuiltin(theme.ModuleName, theme.Factory(logger))

	appOpts := []host.Option{host.WithLogger(logger)}
	if watcher, err := plugin.NewWatcher(opts.PluginsDir, logger); err == nil {
		appOpts = append(appOpts, host.WithWatcher(watcher))
	} else {
		logger.Warn("plugins directory not watched", zap.Error(err))
	}

	app := host.NewApp(store, saves, registry, appOpts...)
	if err := app.Startup(); err != nil {
		logger.Error("startup failed", zap.Error(err))
		return 1
	}
	// Ensure cleanup on all exit paths
	defer app.Shutdown()

	logger.Info("benchhost running",
		zap.String("version", version),
		zap.Strings("plugins", app.PluginNames()))

	// Wait for a termination signal, then let the deferred Shutdown
	// persist save data and close the plugins.
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	sig := <-signals

	app.Broadcast("shutdown_requested", sig.String())
	logger.Info("shutting down", zap.String("signal", sig.String()))
	return 0
}

func parseFlags() options {
	var opts options

	home, _ := os.UserHomeDir()
	base := filepath.Join(home, ".benchhost")

	flag.StringVar(&opts.ConfigPath, "config", filepath.Join(base, "benchhost.toml"), "Path to configuration file")
	flag.StringVar(&opts.PluginsDir, "plugins", filepath.Join(base, "plugins"), "Plugins directory")
	flag.StringVar(&opts.SaveDataPath, "savedata", filepath.Join(base, "save_data.json"), "Plugin save data file")
	flag.StringVar(&opts.LogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.BoolVar(&opts.Debug, "debug", false, "Use the development logger")
	flag.BoolVar(&opts.ShowVersion, "version", false, "Show version information")
	flag.Parse()

	return opts
}

func newLogger(opts options) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.Set(opts.LogLevel); err != nil {
		return nil, fmt.Errorf("bad log level %q: %w", opts.LogLevel, err)
	}

	cfg := zap.NewProductionConfig()
	if opts.Debug {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(level)
	return cfg.Build()
}

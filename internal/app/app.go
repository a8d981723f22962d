package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/vk/gridrun/internal/config"
	"github.com/vk/gridrun/internal/ctxlog"
	"github.com/vk/gridrun/internal/envfile"
	"github.com/vk/gridrun/internal/executor"
	"github.com/vk/gridrun/internal/history"
	"github.com/vk/gridrun/internal/localexecutor"
	"github.com/vk/gridrun/internal/metrics"
	"github.com/vk/gridrun/internal/trigger"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW      io.Writer
	logger    *slog.Logger
	appConfig *Config
	config    *config.Model
	converter config.Converter
	baseEnv   map[string]string
	exec      executor.Executor
	metrics   *metrics.Collector
	history   *history.Store
	server    *trigger.Server
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance, including its own isolated logger. exec may be
// nil, which installs the local shell executor.
func NewApp(outW io.Writer, appConfig *Config, loader config.Loader, exec executor.Executor) *App {
	logger := newLogger(appConfig.LogLevel, appConfig.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	// Load all configuration into the format-agnostic model first.
	cfgModel, converter, err := loader.Load(ctx, appConfig.GridPath)
	if err != nil {
		// A failure to load config is a fatal startup error.
		panic(fmt.Errorf("failed to load configuration: %w", err))
	}
	logger.Debug("Configuration loaded and translated into unified model.")

	if err := config.Validate(cfgModel); err != nil {
		panic(fmt.Errorf("invalid grid: %w", err))
	}
	logger.Debug("Grid validation passed.",
		"axes", len(cfgModel.Axes), "steps", len(cfgModel.Steps))

	baseEnv := processEnv()
	if cfgModel.Settings != nil && len(cfgModel.Settings.EnvFiles) > 0 {
		fileEnv, err := envfile.Load(resolveEnvFiles(appConfig.GridPath, cfgModel.Settings.EnvFiles)...)
		if err != nil {
			panic(fmt.Errorf("failed to load env files: %w", err))
		}
		for k, v := range fileEnv {
			baseEnv[k] = v
		}
		logger.Debug("Env files merged.", "files", len(cfgModel.Settings.EnvFiles))
	}

	if exec == nil {
		exec = localexecutor.New()
	}

	var store *history.Store
	if appConfig.HistoryPath != "" {
		store, err = history.Open(appConfig.HistoryPath)
		if err != nil {
			panic(fmt.Errorf("failed to open run history: %w", err))
		}
		logger.Debug("Run history opened.", "path", appConfig.HistoryPath)
	}

	a := &App{
		outW:      outW,
		logger:    logger,
		appConfig: appConfig,
		config:    cfgModel,
		converter: converter,
		baseEnv:   baseEnv,
		exec:      exec,
		metrics:   metrics.NewCollector(),
		history:   store,
	}

	if appConfig.ServeAddr != "" {
		// The typed nil must not reach the interface, or the disabled-history
		// check inside the server would pass vacuously.
		var reader trigger.HistoryReader
		if store != nil {
			reader = store
		}
		a.server = trigger.NewServer(appConfig.ServeAddr, logger, a.ExecuteRun, reader, a.metrics.Handler())
	}

	return a
}

// Logger returns the application's isolated logger. Primarily for embedding
// and tests.
func (a *App) Logger() *slog.Logger {
	return a.logger
}

// TriggerServer returns the server-mode HTTP surface, or nil outside server
// mode. This is primarily for testing.
func (a *App) TriggerServer() *trigger.Server {
	return a.server
}

// Close releases resources held by the app.
func (a *App) Close() error {
	if a.history != nil {
		return a.history.Close()
	}
	return nil
}

// processEnv snapshots the process environment as a map.
func processEnv() map[string]string {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		if i := strings.IndexByte(kv, '='); i > 0 {
			env[kv[:i]] = kv[i+1:]
		}
	}
	return env
}

// resolveEnvFiles anchors relative env file paths at the grid's location,
// so a grid names its env files independently of the process working
// directory.
func resolveEnvFiles(gridPath string, paths []string) []string {
	base := gridPath
	if info, err := os.Stat(gridPath); err == nil && !info.IsDir() {
		base = filepath.Dir(gridPath)
	}
	out := make([]string, len(paths))
	for i, p := range paths {
		if filepath.IsAbs(p) {
			out[i] = p
		} else {
			out[i] = filepath.Join(base, p)
		}
	}
	return out
}

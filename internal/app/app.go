package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/vk/gridci/internal/config"
	"github.com/vk/gridci/internal/ctxlog"
	"github.com/vk/gridci/internal/registry"
)

// App encapsulates the engine's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	registry *registry.Registry
	model    *config.Model
	config   *Config
}

// NewApp is the constructor for the engine. It loads and validates the
// matrix declaration and registers all capability modules. A declaration
// that cannot be loaded, or a step naming an unregistered capability, is
// a fatal startup error and panics; the entrypoint recovers it into a
// clean exit message.
func NewApp(outW io.Writer, cfg *Config, loader config.Loader, modules ...registry.Module) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	model, err := loader.Load(ctx, cfg.MatrixPath)
	if err != nil {
		panic(fmt.Errorf("failed to load matrix declaration: %w", err))
	}
	logger.Debug("Matrix declaration loaded.",
		"axes", len(model.Axes), "steps", len(model.Steps), "excludes", len(model.Excludes))

	reg := registry.New()
	if len(modules) == 0 {
		modules = coreModules
	}
	for _, mod := range modules {
		mod.Register(reg)
	}
	logger.Debug("Capability modules registered.", "capabilities", reg.Capabilities())

	if err := reg.Validate(model.Steps); err != nil {
		// A mismatch between declaration and registered code is fatal.
		panic(err)
	}
	logger.Debug("Registry validation passed.")

	return &App{
		outW:     outW,
		logger:   logger,
		registry: reg,
		model:    model,
		config:   cfg,
	}
}

// Model returns the loaded matrix declaration. Primarily for testing.
func (a *App) Model() *config.Model {
	return a.model
}

// Registry returns the engine's capability registry. Primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

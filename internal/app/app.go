package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/vk/breastfem/internal/compiler"
	"github.com/vk/breastfem/internal/ctxlog"
	"github.com/vk/breastfem/internal/mesh"
	"github.com/vk/breastfem/internal/scheduler"
	"github.com/vk/breastfem/internal/solver"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW   io.Writer
	logger *slog.Logger
	ctx    context.Context
	config *Config

	compiler *compiler.Compiler
	solver   scheduler.Runner
	status   *statusBoard

	httpServer *http.Server
}

// Option customizes an App, mostly for tests.
type Option func(*App)

// WithSolver replaces the solver process runner.
func WithSolver(r scheduler.Runner) Option {
	return func(a *App) { a.solver = r }
}

// WithMeshSource replaces the mesh source used by the compiler.
func WithMeshSource(src mesh.Source) Option {
	return func(a *App) { a.compiler.Source = src }
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance with its own isolated logger.
func NewApp(outW io.Writer, cfg *Config, opts ...Option) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	a := &App{
		outW:     outW,
		logger:   logger,
		ctx:      ctxlog.WithLogger(context.Background(), logger),
		config:   cfg,
		compiler: compiler.New(mesh.FileSource{}, cfg.StrictZoning),
		solver:   &solver.Exec{Executable: cfg.Febio},
		status:   newStatusBoard(),
	}
	for _, opt := range opts {
		opt(a)
	}
	logger.Debug("Logger configured successfully.", "command", cfg.Command)
	return a
}

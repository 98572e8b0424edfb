// Package compiler turns one settings file into a solver input. It chains
// the settings loader, the mesh source, canonicalization, zoning, the
// simulation descriptor and the serializer. A failure at any stage marks
// the job as a compilation failure; it never stops the rest of a batch.
package compiler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vk/breastfem/internal/canon"
	"github.com/vk/breastfem/internal/ctxlog"
	"github.com/vk/breastfem/internal/descriptor"
	"github.com/vk/breastfem/internal/fault"
	"github.com/vk/breastfem/internal/feb"
	"github.com/vk/breastfem/internal/geometry"
	"github.com/vk/breastfem/internal/mesh"
	"github.com/vk/breastfem/internal/reducer"
	"github.com/vk/breastfem/internal/scheduler"
	"github.com/vk/breastfem/internal/settings"
	"github.com/vk/breastfem/internal/zoning"
	"golang.org/x/sync/errgroup"
)

// Compiler compiles settings files into solver inputs.
type Compiler struct {
	Source mesh.Source
	// StrictZoning fails a job when a solid element lies outside every
	// region instead of falling back to adipose.
	StrictZoning bool
}

// New returns a Compiler reading meshes with src.
func New(src mesh.Source, strict bool) *Compiler {
	return &Compiler{Source: src, StrictZoning: strict}
}

// JobFor is the job a settings file compiles into: <dir>/<base>.feb.
func JobFor(settingsPath string) scheduler.Job {
	abs, err := filepath.Abs(settingsPath)
	if err != nil {
		abs = filepath.Clean(settingsPath)
	}
	base := strings.TrimSuffix(filepath.Base(abs), filepath.Ext(abs))
	return scheduler.NewJob(filepath.Join(filepath.Dir(abs), base+feb.Extension))
}

// Compile writes the solver input and the settings snapshot for one
// settings file. Errors are carried in Job.Err as fault.CompilationError.
func (c *Compiler) Compile(ctx context.Context, settingsPath string) scheduler.Job {
	job := JobFor(settingsPath)
	ctx = ctxlog.With(ctx, "job", job.Name)
	logger := ctxlog.FromContext(ctx)

	if err := c.safeCompile(ctx, settingsPath, job); err != nil {
		job.Err = fault.Compilation(job.Name, err)
		logger.Error("Compilation failed.", "error", err)
		return job
	}
	logger.Info("🧩 Compiled solver input.", "input", job.Input)
	return job
}

// safeCompile turns a panic in any stage into an error of this job only.
func (c *Compiler) safeCompile(ctx context.Context, settingsPath string, job scheduler.Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("compilation panicked: %v", r)
		}
	}()
	return c.compile(ctx, settingsPath, job)
}

func (c *Compiler) compile(ctx context.Context, settingsPath string, job scheduler.Job) error {
	logger := ctxlog.FromContext(ctx)

	s, err := settings.LoadFile(ctx, settingsPath)
	if err != nil {
		return err
	}
	if err := s.Validate(); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}

	snapshot := filepath.Join(job.Dir, reducer.OutputDir, job.Name+settings.SnapshotSuffix)
	if err := os.MkdirAll(filepath.Dir(snapshot), 0o755); err != nil {
		return err
	}
	if err := settings.WriteSnapshot(snapshot, s); err != nil {
		return fmt.Errorf("failed to write settings snapshot: %w", err)
	}

	raw, err := c.Source.Load(ctx, mesh.Request{
		SettingsPath: settingsPath,
		Mesh:         s.Model.Mesh,
		Geometry:     s.Model.Geometry,
	})
	if err != nil {
		return err
	}
	if got := raw.Order(); got != s.Model.Mesh.Order {
		return fmt.Errorf("%w: settings ask for order %d, mesh has order %d", fault.ErrMeshOrder, s.Model.Mesh.Order, got)
	}

	cm, err := canon.Canonicalize(raw)
	if err != nil {
		return err
	}

	zones, rep := zoning.Assign(cm, geometry.NewProfile(s.Model.Geometry), s.Material)
	if len(rep.Fallbacks) > 0 {
		if c.StrictZoning {
			return fmt.Errorf("%w: %d solid elements lie outside the body, first is %d", fault.ErrUnclassifiable, len(rep.Fallbacks), rep.Fallbacks[0])
		}
		logger.Warn("Solid elements outside the body were assigned to adipose.", "count", len(rep.Fallbacks), "elements", rep.Fallbacks)
	}
	if len(rep.InteriorFacets) > 0 {
		logger.Debug("Interior surface elements were left out.", "count", len(rep.InteriorFacets))
	}

	d, err := descriptor.Build(s.Simulation)
	if err != nil {
		return err
	}
	logger.Debug("Frame schedule derived.", "frames", len(d.Output.Steps), "steps", d.Output.Steps)

	root, err := feb.Build(feb.Input{
		Name:       job.Name,
		Mesh:       cm,
		Zones:      zones,
		Descriptor: d,
		Settings:   s,
	})
	if err != nil {
		return err
	}
	if err := feb.WriteFile(job.Input, root); err != nil {
		return err
	}
	logger.Debug("Solver input written.",
		"nodes", len(cm.Nodes), "elements", len(cm.Elements),
		"frames", len(d.Output.Times), "path", job.Input)
	return nil
}

// CompileAll compiles paths concurrently, at most limit at a time, and
// returns their jobs in input order. limit < 1 means no limit.
func (c *Compiler) CompileAll(ctx context.Context, paths []string, limit int) []scheduler.Job {
	jobs := make([]scheduler.Job, len(paths))
	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, p := range paths {
		g.Go(func() error {
			jobs[i] = c.Compile(ctx, p)
			return nil
		})
	}
	_ = g.Wait()
	return jobs
}

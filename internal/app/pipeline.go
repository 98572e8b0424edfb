package app

import (
	"context"
	"sync"

	"github.com/vk/breastfem/internal/ctxlog"
	"github.com/vk/breastfem/internal/reducer"
	"github.com/vk/breastfem/internal/scheduler"
)

// pipeline is the scheduler.Runner behind fem, convert and run. It solves
// the job when a solver is set and then, when reduce is set, reduces the
// output inside the same worker.
type pipeline struct {
	solve  scheduler.Runner
	reduce bool

	mu     sync.Mutex
	assets map[string]*reducer.Asset
}

func newPipeline(solve scheduler.Runner, reduce bool) *pipeline {
	return &pipeline{solve: solve, reduce: reduce, assets: make(map[string]*reducer.Asset)}
}

func (p *pipeline) Run(ctx context.Context, job scheduler.Job, threads int) error {
	if p.solve != nil {
		if err := p.solve.Run(ctx, job, threads); err != nil {
			return err
		}
	}
	if !p.reduce {
		return nil
	}
	ctxlog.FromContext(ctx).Debug("Reducing solver output.")
	a, err := reducer.Reduce(ctx, job.Dir, job.Name)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.assets[job.Input] = a
	return nil
}

// asset returns what was reduced for job, or nil.
func (p *pipeline) asset(job scheduler.Job) *reducer.Asset {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.assets[job.Input]
}

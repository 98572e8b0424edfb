package app

import (
	"context"
	"fmt"
	"time"

	"github.com/vk/breastfem/internal/ctxlog"
	"github.com/vk/breastfem/internal/events"
	"github.com/vk/breastfem/internal/fault"
	"github.com/vk/breastfem/internal/feb"
	"github.com/vk/breastfem/internal/fsutil"
	"github.com/vk/breastfem/internal/report"
	"github.com/vk/breastfem/internal/scheduler"
	"github.com/vk/breastfem/internal/settings"
)

// Run executes the configured command. Job failures are reported in the
// returned report, not as an error; the error means the batch as a whole
// could not run.
func (a *App) Run(ctx context.Context) (*report.Report, error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.ctx = ctx
	a.logger.Debug("App.Run method started.")

	if a.config.Command == WriteDefaultSettings {
		path := a.config.Inputs[0]
		if err := settings.WriteDefault(path); err != nil {
			return nil, err
		}
		a.logger.Info("Default settings written.", "path", path)
		return nil, nil
	}

	a.healthCheckServer()
	defer a.closeHealthCheckServer()

	policy := a.config.Policy()
	rep := report.New(string(a.config.Command), policy.String())
	pub := a.publisher(ctx, rep.RunID)
	defer pub.Close()

	var err error
	switch a.config.Command {
	case Generate:
		err = a.generate(ctx, rep, pub)
	case Fem:
		err = a.solveInputs(ctx, rep, pub, newPipeline(a.solver, false))
	case Convert:
		err = a.solveInputs(ctx, rep, pub, newPipeline(nil, true))
	case Pipeline:
		err = a.compileSolveReduce(ctx, rep, pub)
	default:
		err = fmt.Errorf("unknown command %q", a.config.Command)
	}
	if err != nil {
		return nil, err
	}
	rep.Finish()

	if err := rep.Render(a.outW); err != nil {
		return nil, fmt.Errorf("failed to render summary: %w", err)
	}
	if a.config.ReportPath != "" {
		if err := rep.WriteYAML(a.config.ReportPath); err != nil {
			return nil, err
		}
		a.logger.Info("Run report written.", "path", a.config.ReportPath)
	}
	a.logger.Debug("App.Run method finished.")
	return rep, nil
}

// publisher connects to the events server when one is configured. The
// dashboard is optional: a failed connection only disables it.
func (a *App) publisher(ctx context.Context, runID string) events.Publisher {
	if a.config.EventsURL == "" {
		return events.Nop{}
	}
	p, err := events.Dial(ctx, a.config.EventsURL, runID, events.Options{Timeout: 10 * time.Second})
	if err != nil {
		a.logger.Warn("Event publisher disabled.", "error", err)
		return events.Nop{}
	}
	return p
}

func (a *App) settingsFiles() ([]string, error) {
	return fsutil.ExpandInputs(a.config.Inputs, ".hcl", settings.SnapshotSuffix)
}

func (a *App) compileAll(ctx context.Context) ([]scheduler.Job, error) {
	paths, err := a.settingsFiles()
	if err != nil {
		return nil, err
	}
	a.logger.Info("🧩 Compiling models.", "count", len(paths))
	return a.compiler.CompileAll(ctx, paths, a.config.Policy().Workers(len(paths))), nil
}

// generate compiles without solving. Each compiled job is reported on its
// own since nothing is scheduled.
func (a *App) generate(ctx context.Context, rep *report.Report, pub events.Publisher) error {
	jobs, err := a.compileAll(ctx)
	if err != nil {
		return err
	}
	progress := report.NewProgress(a.outW, len(jobs))
	for i, j := range jobs {
		res := scheduler.Result{Job: j, State: scheduler.Succeeded}
		if j.Err != nil {
			res.State = scheduler.Failed
			res.Err = j.Err
			res.Category = fault.CategoryOf(j.Err)
		}
		e := scheduler.Event{Index: i, Job: j, State: res.State, Err: res.Err, Time: time.Now()}
		for _, o := range []scheduler.Observer{a.status, pub, progress} {
			o.Observe(e)
		}
		rep.Add(res, nil)
	}
	return nil
}

func (a *App) compileSolveReduce(ctx context.Context, rep *report.Report, pub events.Publisher) error {
	jobs, err := a.compileAll(ctx)
	if err != nil {
		return err
	}
	return a.submit(ctx, rep, pub, newPipeline(a.solver, true), jobs)
}

// solveInputs schedules one job per solver input found in the inputs.
func (a *App) solveInputs(ctx context.Context, rep *report.Report, pub events.Publisher, p *pipeline) error {
	inputs, err := fsutil.ExpandInputs(a.config.Inputs, feb.Extension, "")
	if err != nil {
		return err
	}
	jobs := make([]scheduler.Job, 0, len(inputs))
	for _, in := range inputs {
		jobs = append(jobs, scheduler.NewJob(in))
	}
	return a.submit(ctx, rep, pub, p, jobs)
}

func (a *App) submit(ctx context.Context, rep *report.Report, pub events.Publisher, p *pipeline, jobs []scheduler.Job) error {
	s := scheduler.New(p, a.config.Policy(),
		scheduler.WithObserver(a.status),
		scheduler.WithObserver(pub),
		scheduler.WithObserver(report.NewProgress(a.outW, len(jobs))),
	)
	results, err := s.Submit(ctx, jobs)
	if err != nil {
		return err
	}
	for _, r := range results {
		rep.Add(r, p.asset(r.Job))
	}
	return nil
}

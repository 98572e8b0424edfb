package scheduler

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/vk/breastfem/internal/ctxlog"
	"github.com/vk/breastfem/internal/fault"
)

// Scheduler fans jobs out to a Runner. It holds no state between Submit
// calls and may be reused.
type Scheduler struct {
	runner    Runner
	policy    Policy
	observers []Observer
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithObserver registers o for every state transition.
func WithObserver(o Observer) Option {
	return func(s *Scheduler) { s.observers = append(s.observers, o) }
}

func New(r Runner, p Policy, opts ...Option) *Scheduler {
	s := &Scheduler{runner: r, policy: p}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Policy returns the configured policy.
func (s *Scheduler) Policy() Policy { return s.policy }

// Submit runs every job and returns their results in input order. The
// returned error is always a fault.SchedulerError and means nothing ran.
// Job failures are reported in the results only.
func (s *Scheduler) Submit(ctx context.Context, jobs []Job) ([]Result, error) {
	logger := ctxlog.FromContext(ctx)
	if err := s.policy.validate(); err != nil {
		return nil, err
	}
	if err := checkUnique(jobs); err != nil {
		return nil, err
	}

	results := make([]Result, len(jobs))
	for i, j := range jobs {
		results[i] = Result{Job: j, State: Queued}
		s.notify(Event{Index: i, Job: j, State: Queued, Time: time.Now()})
	}
	if len(jobs) == 0 {
		return results, nil
	}

	workers := s.policy.Workers(len(jobs))
	threads := s.policy.Threads()
	logger.Info("🚀 Starting batch.", "jobs", len(jobs), "policy", s.policy.String(), "workers", workers, "threads", threads)

	queue := make(chan int)
	var wg sync.WaitGroup
	for w := 1; w <= workers; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			s.worker(ctx, queue, results, threads, workerID)
		}(w)
	}
	for i := range jobs {
		queue <- i
	}
	close(queue)
	wg.Wait()

	failed := 0
	for _, r := range results {
		if r.State == Failed {
			failed++
		}
	}
	logger.Info("🏁 Batch finished.", "jobs", len(jobs), "succeeded", len(jobs)-failed, "failed", failed)
	return results, nil
}

// worker runs jobs until the queue is closed. Each index is received by
// exactly one worker, so results[i] has a single writer.
func (s *Scheduler) worker(ctx context.Context, queue <-chan int, results []Result, threads, workerID int) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Worker started.", "workerID", workerID)

	for i := range queue {
		job := results[i].Job
		workerLogger := logger.With("workerID", workerID, "job", job.Name)
		res := &results[i]

		if job.Err != nil {
			s.finish(i, res, fault.Compilation(job.Name, job.Err))
			workerLogger.Warn("Job skipped, it did not compile.", "error", res.Err)
			continue
		}
		// A cancelled batch is not a scheduler fault. The job carries the
		// context error and no category.
		if err := ctx.Err(); err != nil {
			s.finish(i, res, fmt.Errorf("job %s not started: %w", job.Name, err))
			continue
		}

		res.State = Running
		res.Started = time.Now()
		s.notify(Event{Index: i, Job: job, State: Running, Time: res.Started})
		workerLogger.Info("▶️ Running solver.", "input", job.Input)

		err := s.run(ctxlog.WithLogger(ctx, workerLogger), job, threads)
		res.Duration = time.Since(res.Started)
		if err != nil {
			if fault.CategoryOf(err) == fault.CategoryNone {
				err = fault.Solve(job.Name, err)
			}
			s.finish(i, res, err)
			workerLogger.Error("Job failed.", "error", res.Err, "duration", res.Duration)
			continue
		}
		s.finish(i, res, nil)
		workerLogger.Info("✅ Job succeeded.", "duration", res.Duration)
	}
	logger.Debug("Worker finished.", "workerID", workerID)
}

// run shields the batch from a panicking runner.
func (s *Scheduler) run(ctx context.Context, job Job, threads int) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("runner panicked: %v", r)
		}
	}()
	return s.runner.Run(ctx, job, threads)
}

func (s *Scheduler) finish(i int, res *Result, err error) {
	res.State = Succeeded
	if err != nil {
		res.State = Failed
		res.Err = err
		res.Category = fault.CategoryOf(err)
	}
	s.notify(Event{Index: i, Job: res.Job, State: res.State, Err: err, Time: time.Now()})
}

func (s *Scheduler) notify(e Event) {
	for _, o := range s.observers {
		o.Observe(e)
	}
}

func checkUnique(jobs []Job) error {
	seen := make(map[string]int, len(jobs))
	for i, j := range jobs {
		if j.Input == "" {
			continue
		}
		key, err := filepath.Abs(j.Input)
		if err != nil {
			key = filepath.Clean(j.Input)
		}
		if prev, ok := seen[key]; ok {
			return fault.Scheduler(fmt.Errorf("%w: jobs %d and %d both use %s", fault.ErrDuplicateJob, prev, i, j.Input))
		}
		seen[key] = i
	}
	return nil
}

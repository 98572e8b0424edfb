package scheduler

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/vk/breastfem/internal/fault"
)

// Job is one compiled solver input.
type Job struct {
	// Name identifies the job in logs and reports. It is the input's base
	// name.
	Name string
	// Input is the solver input file.
	Input string
	// Dir is the job's working directory. No two jobs share one.
	Dir string
	// Err is set when the job could not be compiled. Such a job fails
	// without running.
	Err error
}

// NewJob derives a job from its solver input path.
func NewJob(input string) Job {
	base := filepath.Base(input)
	return Job{
		Name:  strings.TrimSuffix(base, filepath.Ext(base)),
		Input: input,
		Dir:   filepath.Dir(input),
	}
}

// State is a job's position in its lifecycle.
type State int32

const (
	Queued State = iota
	Running
	Succeeded
	Failed
)

func (s State) String() string {
	switch s {
	case Queued:
		return "queued"
	case Running:
		return "running"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Done reports whether s is terminal.
func (s State) Done() bool { return s == Succeeded || s == Failed }

// Result is the outcome of one job.
type Result struct {
	Job      Job
	State    State
	Err      error
	Category fault.Category
	Started  time.Time
	Duration time.Duration
}

// Reason is the failure message, or "" on success.
func (r Result) Reason() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// Runner executes one job. It blocks until the solver process exits. threads
// is the number of solver threads the process may use.
type Runner interface {
	Run(ctx context.Context, job Job, threads int) error
}

// RunnerFunc adapts a function to Runner.
type RunnerFunc func(ctx context.Context, job Job, threads int) error

func (f RunnerFunc) Run(ctx context.Context, job Job, threads int) error {
	return f(ctx, job, threads)
}

// Event is a state transition of the job at Index in the submitted batch.
type Event struct {
	Index int
	Job   Job
	State State
	Err   error
	Time  time.Time
}

// Observer receives every state transition. It is called from worker
// goroutines and must be safe for concurrent use.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) Observe(e Event) { f(e) }

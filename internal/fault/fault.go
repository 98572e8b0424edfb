// Package fault defines the failure taxonomy shared by the compiler, the
// scheduler and the output reducer.
//
// Every per-job failure is an *Error carrying a Category. Callers branch on
// the category with errors.Is against the category sentinels
// (CompilationError, SolveFailure, PostProcessFailure, SchedulerError) and on
// the concrete cause with errors.Is against the Err* sentinels below.
package fault

import (
	"errors"
	"fmt"
)

// Category is the coarse failure class reported per job.
type Category string

const (
	CategoryNone        Category = ""
	CategoryCompilation Category = "compilation"
	CategorySolve       Category = "solve"
	CategoryPostProcess Category = "postprocess"
	CategoryScheduler   Category = "scheduler"
)

// Causes.
var (
	ErrDuplicateNode       = errors.New("duplicate node id")
	ErrDuplicateElement    = errors.New("duplicate element id")
	ErrUnknownNode         = errors.New("element references unknown node")
	ErrElementShape        = errors.New("element node count does not match its shape")
	ErrUnclassifiable      = errors.New("element could not be placed in any region")
	ErrMeshOrder           = errors.New("mesh order does not match settings")
	ErrMalformedDescriptor = errors.New("malformed simulation descriptor")
	ErrEmptyPart           = errors.New("required mesh part is empty")
	ErrInvalidPolicy       = errors.New("invalid parallelism policy")
	ErrDuplicateJob        = errors.New("jobs share an input path")
	ErrSolverNotFound      = errors.New("solver executable not found")
	ErrErrorTermination    = errors.New("solver reported error termination")
	ErrNoTermination       = errors.New("solver log has no termination marker")
	ErrMissingFrame        = errors.New("missing output frame")
	ErrMalformedFrame      = errors.New("malformed output frame")
)

// Category sentinels for errors.Is.
var (
	CompilationError   = &Error{Category: CategoryCompilation}
	SolveFailure       = &Error{Category: CategorySolve}
	PostProcessFailure = &Error{Category: CategoryPostProcess}
	SchedulerError     = &Error{Category: CategoryScheduler}
)

// Error is a categorized failure bound to a job.
type Error struct {
	Category Category
	Job      string
	Err      error
}

func (e *Error) Error() string {
	switch {
	case e.Err == nil:
		return string(e.Category) + " failure"
	case e.Job == "":
		return fmt.Sprintf("%s failure: %v", e.Category, e.Err)
	default:
		return fmt.Sprintf("%s failure in job %q: %v", e.Category, e.Job, e.Err)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches category sentinels: any *Error with the same category and no
// cause of its own.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || t.Err != nil || t.Job != "" {
		return false
	}
	return t.Category == e.Category
}

func wrap(c Category, job string, err error) error {
	if err == nil {
		return nil
	}
	var fe *Error
	if errors.As(err, &fe) && fe.Category == c {
		if fe.Job == "" && job != "" {
			return &Error{Category: c, Job: job, Err: fe.Err}
		}
		return err
	}
	return &Error{Category: c, Job: job, Err: err}
}

// Compilation marks err as a CompilationError of job. A nil err stays nil.
func Compilation(job string, err error) error { return wrap(CategoryCompilation, job, err) }

// Solve marks err as a SolveFailure of job.
func Solve(job string, err error) error { return wrap(CategorySolve, job, err) }

// PostProcess marks err as a PostProcessFailure of job.
func PostProcess(job string, err error) error { return wrap(CategoryPostProcess, job, err) }

// Scheduler marks err as a SchedulerError.
func Scheduler(err error) error { return wrap(CategoryScheduler, "", err) }

// CategoryOf returns the category of the outermost *Error in err's chain,
// or CategoryNone.
func CategoryOf(err error) Category {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Category
	}
	return CategoryNone
}

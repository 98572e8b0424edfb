package scheduler

import (
	"fmt"
	"runtime"

	"github.com/vk/breastfem/internal/fault"
)

// AutoCap bounds AutoFanOut.
const AutoCap = 4

type mode int

const (
	modeAuto mode = iota
	modeExternal
	modeInternal
)

// Policy selects how a batch is spread over processes. The zero value is
// AutoFanOut.
type Policy struct {
	mode mode
	cap  int
}

// ExternalFanOut runs up to n solver processes at once, each single-threaded.
func ExternalFanOut(n int) Policy { return Policy{mode: modeExternal, cap: n} }

// InternalThreads runs one solver process at a time and lets it use every
// CPU.
func InternalThreads() Policy { return Policy{mode: modeInternal, cap: 1} }

// AutoFanOut is ExternalFanOut(min(jobs, AutoCap)).
func AutoFanOut() Policy { return Policy{mode: modeAuto} }

// PolicyFromInt maps the command line -j value: n > 1 is ExternalFanOut(n),
// 1 is InternalThreads and 0 is AutoFanOut.
func PolicyFromInt(n int) (Policy, error) {
	switch {
	case n < 0:
		return Policy{}, fault.Scheduler(fmt.Errorf("%w: -j must not be negative, got %d", fault.ErrInvalidPolicy, n))
	case n == 0:
		return AutoFanOut(), nil
	case n == 1:
		return InternalThreads(), nil
	default:
		return ExternalFanOut(n), nil
	}
}

func (p Policy) validate() error {
	if p.mode == modeExternal && p.cap < 1 {
		return fault.Scheduler(fmt.Errorf("%w: fan-out cap must be positive, got %d", fault.ErrInvalidPolicy, p.cap))
	}
	return nil
}

// Workers is the number of concurrent solver processes for a batch of k jobs.
func (p Policy) Workers(k int) int {
	n := p.cap
	if p.mode == modeAuto {
		n = AutoCap
	}
	return max(1, min(n, k))
}

// Threads is the thread count each solver process is given.
func (p Policy) Threads() int {
	if p.mode == modeInternal {
		return runtime.NumCPU()
	}
	return 1
}

func (p Policy) String() string {
	switch p.mode {
	case modeExternal:
		return fmt.Sprintf("external(%d)", p.cap)
	case modeInternal:
		return "internal"
	default:
		return "auto"
	}
}

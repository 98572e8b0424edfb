package testutil

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vk/breastfem/internal/scheduler"
)

// SleeperRunner is a scheduler.Runner for concurrency tests. Each job sleeps
// for a fixed duration; the runner records when it ran, how many threads it
// was given and the peak number of jobs running at once.
type SleeperRunner struct {
	ExecutionTimes map[string]*ExecutionRecord
	Threads        map[string]int
	// Errors maps job names to the error their run returns.
	Errors map[string]error

	mu            sync.Mutex
	sleepDuration time.Duration
	active        atomic.Int32
	peak          atomic.Int32
}

// NewSleeperRunner creates a runner whose jobs each take sleep.
func NewSleeperRunner(sleep time.Duration) *SleeperRunner {
	return &SleeperRunner{
		ExecutionTimes: make(map[string]*ExecutionRecord),
		Threads:        make(map[string]int),
		Errors:         make(map[string]error),
		sleepDuration:  sleep,
	}
}

func (m *SleeperRunner) Run(_ context.Context, job scheduler.Job, threads int) error {
	n := m.active.Add(1)
	for {
		p := m.peak.Load()
		if n <= p || m.peak.CompareAndSwap(p, n) {
			break
		}
	}

	startTime := time.Now()
	time.Sleep(m.sleepDuration)
	endTime := time.Now()
	m.active.Add(-1)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.ExecutionTimes[job.Name] = &ExecutionRecord{Start: startTime, End: endTime}
	m.Threads[job.Name] = threads
	return m.Errors[job.Name]
}

// Peak is the highest number of jobs that ran at the same time.
func (m *SleeperRunner) Peak() int { return int(m.peak.Load()) }

// Calls is the number of jobs that ran.
func (m *SleeperRunner) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.ExecutionTimes)
}

// Ran reports whether the named job ran.
func (m *SleeperRunner) Ran(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.ExecutionTimes[name]
	return ok
}

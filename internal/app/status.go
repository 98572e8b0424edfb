package app

import (
	"sync"
	"time"

	"github.com/vk/breastfem/internal/fault"
	"github.com/vk/breastfem/internal/scheduler"
)

// jobStatus is the latest known state of one job.
type jobStatus struct {
	Name     string    `json:"name"`
	Input    string    `json:"input"`
	State    string    `json:"state"`
	Category string    `json:"category,omitempty"`
	Error    string    `json:"error,omitempty"`
	Updated  time.Time `json:"updated"`
}

// statusBoard keeps the latest state of every job seen in this process. It
// backs the /jobs endpoint.
type statusBoard struct {
	mu    sync.Mutex
	order []string
	jobs  map[string]jobStatus
}

func newStatusBoard() *statusBoard {
	return &statusBoard{jobs: make(map[string]jobStatus)}
}

func (b *statusBoard) Observe(e scheduler.Event) {
	st := jobStatus{
		Name:    e.Job.Name,
		Input:   e.Job.Input,
		State:   e.State.String(),
		Updated: e.Time,
	}
	if e.Err != nil {
		st.Error = e.Err.Error()
		st.Category = string(fault.CategoryOf(e.Err))
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.jobs[e.Job.Input]; !ok {
		b.order = append(b.order, e.Job.Input)
	}
	b.jobs[e.Job.Input] = st
}

// snapshot returns the jobs in the order they were first seen.
func (b *statusBoard) snapshot() []jobStatus {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]jobStatus, 0, len(b.order))
	for _, k := range b.order {
		out = append(out, b.jobs[k])
	}
	return out
}

// Package report collects the per-job outcome of a batch into a run report
// that can be written as YAML and rendered for a terminal.
package report

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vk/breastfem/internal/fsutil"
	"github.com/vk/breastfem/internal/reducer"
	"github.com/vk/breastfem/internal/scheduler"
	"gopkg.in/yaml.v3"
)

// Job is the outcome of one job.
type Job struct {
	Name     string  `yaml:"name"`
	Input    string  `yaml:"input"`
	State    string  `yaml:"state"`
	Category string  `yaml:"category,omitempty"`
	Reason   string  `yaml:"reason,omitempty"`
	Seconds  float64 `yaml:"duration_seconds"`
	Assets   *Assets `yaml:"assets,omitempty"`
}

// Assets lists what the reducer wrote for a job.
type Assets struct {
	Topology     string `yaml:"topology"`
	Series       string `yaml:"series"`
	Frames       int    `yaml:"frames"`
	SurfaceNodes int    `yaml:"surface_nodes"`
}

// Report is the record of one batch.
type Report struct {
	RunID     string    `yaml:"run_id"`
	Command   string    `yaml:"command"`
	Policy    string    `yaml:"policy,omitempty"`
	Started   time.Time `yaml:"started"`
	Finished  time.Time `yaml:"finished"`
	Succeeded int       `yaml:"succeeded"`
	Failed    int       `yaml:"failed"`
	Jobs      []Job     `yaml:"jobs"`

	mu sync.Mutex
}

// New starts a report with a fresh run id.
func New(command, policy string) *Report {
	return &Report{
		RunID:   uuid.NewString(),
		Command: command,
		Policy:  policy,
		Started: time.Now().UTC(),
	}
}

// Add records a result. a may be nil when nothing was reduced.
func (r *Report) Add(res scheduler.Result, a *reducer.Asset) {
	j := Job{
		Name:     res.Job.Name,
		Input:    res.Job.Input,
		State:    res.State.String(),
		Category: string(res.Category),
		Reason:   res.Reason(),
		Seconds:  res.Duration.Seconds(),
	}
	if a != nil {
		j.Assets = &Assets{Topology: a.Topology, Series: a.Series, Frames: a.Frames, SurfaceNodes: a.SurfaceNodes}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.Jobs = append(r.Jobs, j)
	if res.State == scheduler.Succeeded {
		r.Succeeded++
	} else {
		r.Failed++
	}
}

// Finish stamps the end time.
func (r *Report) Finish() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Finished = time.Now().UTC()
}

// OK reports whether every job succeeded.
func (r *Report) OK() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Failed == 0
}

// WriteYAML writes the report to path atomically.
func (r *Report) WriteYAML(path string) error {
	r.mu.Lock()
	data, err := yaml.Marshal(r)
	r.mu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	if err := fsutil.WriteFileAtomic(path, data); err != nil {
		return fmt.Errorf("failed to write report %s: %w", path, err)
	}
	return nil
}

// ReadYAML loads a report written by WriteYAML.
func ReadYAML(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var r Report
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to decode report %s: %w", path, err)
	}
	return &r, nil
}

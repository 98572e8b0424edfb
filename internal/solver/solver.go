// Package solver runs the external FEBio process for one job and decides,
// from its log, whether the job succeeded.
package solver

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/vk/breastfem/internal/ctxlog"
	"github.com/vk/breastfem/internal/fault"
	"github.com/vk/breastfem/internal/scheduler"
)

// PathEnv names the environment variable that points at the solver binary or
// the directory holding it.
const PathEnv = "FEBIO_PATH"

// DefaultExecutable is looked up on PATH when PathEnv is unset.
const DefaultExecutable = "febio4"

// Exec is a scheduler.Runner that starts one solver process per job.
type Exec struct {
	// Executable is the solver binary. Empty means Resolve.
	Executable string
	// Env is added to the process environment.
	Env []string
}

// Resolve finds the solver binary. An explicit path wins over PathEnv, which
// wins over PATH. PathEnv may name a directory.
func Resolve(explicit string) (string, error) {
	candidate := explicit
	if candidate == "" {
		candidate = os.Getenv(PathEnv)
	}
	if candidate != "" {
		if fi, err := os.Stat(candidate); err == nil && fi.IsDir() {
			candidate = filepath.Join(candidate, DefaultExecutable)
		}
		if _, err := os.Stat(candidate); err != nil {
			return "", fmt.Errorf("%w: %s", fault.ErrSolverNotFound, candidate)
		}
		return candidate, nil
	}
	path, err := exec.LookPath(DefaultExecutable)
	if err != nil {
		return "", fmt.Errorf("%w: %s is not on PATH and %s is unset", fault.ErrSolverNotFound, DefaultExecutable, PathEnv)
	}
	return path, nil
}

// Run starts the solver on job.Input inside job.Dir and waits for it. The
// solver decides success itself; its log is the authority, the exit status
// only adds detail.
func (e *Exec) Run(ctx context.Context, job scheduler.Job, threads int) error {
	logger := ctxlog.FromContext(ctx)
	exe, err := Resolve(e.Executable)
	if err != nil {
		return fault.Solve(job.Name, err)
	}

	input, err := filepath.Abs(job.Input)
	if err != nil {
		return fault.Solve(job.Name, err)
	}
	// The solver writes its own log next to the input. Drop a stale one so a
	// crash cannot be mistaken for the previous run's termination.
	logPath := LogPath(input)
	if err := os.Remove(logPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fault.Solve(job.Name, err)
	}

	cmd := exec.Command(exe, input)
	cmd.Dir = job.Dir
	cmd.Env = append(os.Environ(), e.Env...)
	cmd.Env = append(cmd.Env, "OMP_NUM_THREADS="+strconv.Itoa(threads))
	logger.Debug("Starting solver process.", "exe", exe, "threads", threads)

	start := time.Now()
	runErr := cmd.Run()
	logger.Debug("Solver process exited.", "duration", time.Since(start), "error", runErr)

	term, err := ReadTermination(logPath)
	if err != nil {
		if runErr != nil {
			return fault.Solve(job.Name, fmt.Errorf("%w: %w", runErr, err))
		}
		return fault.Solve(job.Name, err)
	}
	if !term.Normal {
		return fault.Solve(job.Name, fmt.Errorf("%w after %s", fault.ErrErrorTermination, term.elapsed()))
	}
	if runErr != nil {
		return fault.Solve(job.Name, fmt.Errorf("solver exited abnormally after normal termination: %w", runErr))
	}
	logger.Info("Solver terminated normally.", "elapsed", term.elapsed())
	return nil
}

// LogPath is the log file the solver writes for input.
func LogPath(input string) string {
	return strings.TrimSuffix(input, filepath.Ext(input)) + ".log"
}

package app

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/breastfem/internal/ctxlog"
	"github.com/vk/breastfem/internal/fault"
	"github.com/vk/breastfem/internal/scheduler"
)

func TestPipeline_SolveFailureSkipsReduction(t *testing.T) {
	t.Parallel()

	solve := scheduler.RunnerFunc(func(context.Context, scheduler.Job, int) error {
		return errors.New("exit status 1")
	})
	p := newPipeline(solve, true)
	job := scheduler.NewJob(t.TempDir() + "/case.feb")

	err := p.Run(ctxlog.Discard(context.Background()), job, 1)

	require.Error(t, err)
	assert.Equal(t, fault.CategoryNone, fault.CategoryOf(err), "the scheduler categorizes solver errors")
	assert.Nil(t, p.asset(job))
}

func TestPipeline_ReduceWithoutFrames(t *testing.T) {
	t.Parallel()

	p := newPipeline(nil, true)
	job := scheduler.NewJob(t.TempDir() + "/case.feb")

	err := p.Run(ctxlog.Discard(context.Background()), job, 1)

	require.Error(t, err)
	assert.ErrorIs(t, err, fault.PostProcessFailure)
	assert.ErrorIs(t, err, fault.ErrMissingFrame)
}

func TestPipeline_SolveOnly(t *testing.T) {
	t.Parallel()

	calls := 0
	p := newPipeline(scheduler.RunnerFunc(func(_ context.Context, _ scheduler.Job, threads int) error {
		calls++
		assert.Equal(t, 3, threads)
		return nil
	}), false)
	job := scheduler.NewJob(t.TempDir() + "/case.feb")

	require.NoError(t, p.Run(ctxlog.Discard(context.Background()), job, 3))
	assert.Equal(t, 1, calls)
	assert.Nil(t, p.asset(job))
}

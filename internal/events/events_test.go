package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/breastfem/internal/ctxlog"
	"github.com/vk/breastfem/internal/fault"
	"github.com/vk/breastfem/internal/scheduler"
)

func testContext() context.Context { return ctxlog.Discard(context.Background()) }

func TestPayload(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	job := scheduler.NewJob("/runs/case_1/case_1.feb")

	// --- Act ---
	ok := Payload("run-1", scheduler.Event{Index: 2, Job: job, State: scheduler.Running, Time: at})
	failed := Payload("run-1", scheduler.Event{
		Index: 2,
		Job:   job,
		State: scheduler.Failed,
		Err:   fault.Solve(job.Name, errors.New("exit status 1")),
		Time:  at,
	})
	cancelled := Payload("run-1", scheduler.Event{
		Index: 2,
		Job:   job,
		State: scheduler.Failed,
		Err:   context.Canceled,
		Time:  at,
	})

	// --- Assert ---
	assert.Equal(t, "run-1", ok["run_id"])
	assert.Equal(t, 2, ok["index"])
	assert.Equal(t, "case_1", ok["job"])
	assert.Equal(t, "running", ok["state"])
	assert.Equal(t, "2024-03-01T12:00:00Z", ok["time"])
	assert.NotContains(t, ok, "error")

	assert.Equal(t, "failed", failed["state"])
	assert.Equal(t, string(fault.CategorySolve), failed["category"])
	assert.Contains(t, failed["error"], "exit status 1")

	assert.Equal(t, "context canceled", cancelled["error"])
	assert.NotContains(t, cancelled, "category")
}

func TestNop(t *testing.T) {
	t.Parallel()

	var p Publisher = Nop{}
	p.Observe(scheduler.Event{State: scheduler.Queued})
	assert.NoError(t, p.Close())
}

func TestDial_RejectsBadURL(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"localhost:3000", "://nope", "http://"} {
		t.Run(raw, func(t *testing.T) {
			t.Parallel()
			p, err := Dial(testContext(), raw, "run", Options{Timeout: time.Second})
			require.Error(t, err)
			assert.Nil(t, p)
		})
	}
}

func TestDial_FailsWhenNothingListens(t *testing.T) {
	t.Parallel()

	start := time.Now()
	p, err := Dial(testContext(), "http://127.0.0.1:1", "run", Options{Timeout: 500 * time.Millisecond})

	require.Error(t, err)
	assert.Nil(t, p)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestDial_HonoursCancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(testContext())
	cancel()

	_, err := Dial(ctx, "http://127.0.0.1:1", "run", Options{Timeout: time.Minute})

	require.Error(t, err)
}

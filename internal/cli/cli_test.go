package cli

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/breastfem/internal/app"
	"github.com/vk/breastfem/internal/report"
	"github.com/vk/breastfem/internal/scheduler"
)

func TestParse(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	args := []string{"run", "-j", "3", "--febio", "/opt/febio4", "--strict-zoning", "--report", "r.yaml",
		"--events-url", "http://dash:3000", "--healthcheck-port", "8081", "--log-level", "DEBUG", "--log-format", "json", "a", "b"}

	// --- Act ---
	cfg, exit, err := Parse(args, &bytes.Buffer{})

	// --- Assert ---
	require.NoError(t, err)
	assert.False(t, exit)
	assert.Equal(t, &app.Config{
		Command:         app.Pipeline,
		Inputs:          []string{"a", "b"},
		Parallelism:     3,
		Febio:           "/opt/febio4",
		StrictZoning:    true,
		ReportPath:      "r.yaml",
		EventsURL:       "http://dash:3000",
		LogFormat:       "json",
		LogLevel:        "debug",
		HealthcheckPort: 8081,
	}, cfg)
}

func TestParse_Defaults(t *testing.T) {
	t.Parallel()

	cfg, _, err := Parse([]string{"generate", "cases"}, &bytes.Buffer{})

	require.NoError(t, err)
	assert.Equal(t, app.Generate, cfg.Command)
	assert.Equal(t, 0, cfg.Parallelism)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "auto", cfg.Policy().String())
}

func TestParse_Help(t *testing.T) {
	t.Parallel()

	for _, args := range [][]string{nil, {"-h"}, {"help"}, {"fem", "-h"}} {
		out := &bytes.Buffer{}

		cfg, exit, err := Parse(args, out)

		require.NoError(t, err)
		assert.True(t, exit)
		assert.Nil(t, cfg)
		assert.Contains(t, out.String(), "Usage:")
	}
}

func TestParse_UsageErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "unknown command", args: []string{"solve", "a"}, want: `unknown command "solve"`},
		{name: "unknown flag", args: []string{"fem", "--nope", "a"}, want: "flag provided but not defined"},
		{name: "flag of another command", args: []string{"convert", "--febio", "x", "a"}, want: "flag provided but not defined"},
		{name: "no inputs", args: []string{"run"}, want: "no input paths"},
		{name: "negative parallelism", args: []string{"run", "-j", "-1", "a"}, want: "invalid parallelism policy"},
		{name: "bad log format", args: []string{"fem", "--log-format", "xml", "a"}, want: "invalid log-format"},
		{name: "bad log level", args: []string{"fem", "--log-level", "loud", "a"}, want: "invalid log-level"},
		{name: "two default paths", args: []string{"write-default-settings", "a", "b"}, want: "exactly one path"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, exit, err := Parse(tc.args, &bytes.Buffer{})

			require.Error(t, err)
			assert.False(t, exit)
			var exitErr *ExitError
			require.True(t, errors.As(err, &exitErr))
			assert.Equal(t, ExitUsage, exitErr.Code)
			assert.Contains(t, exitErr.Message, tc.want)
		})
	}
}

func TestOutcome(t *testing.T) {
	t.Parallel()

	assert.NoError(t, Outcome(nil))

	ok := report.New("run", "auto")
	ok.Add(scheduler.Result{Job: scheduler.NewJob("a/a.feb"), State: scheduler.Succeeded}, nil)
	assert.NoError(t, Outcome(ok))

	bad := report.New("run", "auto")
	bad.Add(scheduler.Result{Job: scheduler.NewJob("a/a.feb"), State: scheduler.Succeeded}, nil)
	bad.Add(scheduler.Result{Job: scheduler.NewJob("b/b.feb"), State: scheduler.Failed, Err: errors.New("x")}, nil)
	err := Outcome(bad)
	var exitErr *ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, ExitJobsFailed, exitErr.Code)
	assert.Equal(t, "1 of 2 jobs failed", exitErr.Message)
}

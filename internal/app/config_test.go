package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/breastfem/internal/fault"
)

func TestNewConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{name: "valid", cfg: Config{Command: Pipeline, Inputs: []string{"runs"}, Parallelism: 4}},
		{name: "unknown command", cfg: Config{Command: "solve", Inputs: []string{"a"}}, wantErr: "unknown command"},
		{name: "no inputs", cfg: Config{Command: Generate}, wantErr: "at least one input"},
		{name: "two default paths", cfg: Config{Command: WriteDefaultSettings, Inputs: []string{"a", "b"}}, wantErr: "exactly one path"},
		{name: "negative parallelism", cfg: Config{Command: Fem, Inputs: []string{"a"}, Parallelism: -2}, wantErr: fault.ErrInvalidPolicy.Error()},
		{name: "negative port", cfg: Config{Command: Fem, Inputs: []string{"a"}, HealthcheckPort: -1}, wantErr: "healthcheck port"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			cfg, err := NewConfig(tc.cfg)

			if tc.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.wantErr)
				assert.Nil(t, cfg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "external(4)", cfg.Policy().String())
		})
	}
}

package settings

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/breastfem/internal/ctxlog"
)

func TestParse_OverlaysDefaults(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	src := `
model {
  mesh {
    order = 1
  }
}
material {
  tumor {
    enabled  = false
    position = [0.01, 0.02, 0.03]
  }
}
simulation {
  control_step2 {
    time_steps = 60
  }
  parabolic_jump {
    max_height = 0.02
  }
}
`
	// --- Act ---
	s, err := Parse([]byte(src), "case.hcl")

	// --- Assert ---
	require.NoError(t, err)
	want := Default()
	want.Model.Mesh.Order = 1
	want.Material.Tumor.Enabled = false
	want.Material.Tumor.Position = []float64{0.01, 0.02, 0.03}
	want.Simulation.ControlStep2.TimeSteps = 60
	want.Simulation.ParabolicJump.MaxHeight = 0.02
	if diff := cmp.Diff(want, *s); diff != "" {
		t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_EmptyFileIsDefault(t *testing.T) {
	t.Parallel()
	s, err := Parse(nil, "empty.hcl")
	require.NoError(t, err)
	assert.Equal(t, Default(), *s)
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		src     string
		wantErr string
	}{
		{
			name:    "unknown attribute",
			src:     "model {\n mesh {\n  colour = 1\n }\n}\n",
			wantErr: "Unsupported argument",
		},
		{
			name:    "unknown block",
			src:     "physics {}\n",
			wantErr: "Unsupported block type",
		},
		{
			name:    "animation dtmax is not a setting",
			src:     "simulation {\n animation {\n  dtmax = 0.02\n }\n}\n",
			wantErr: "Unsupported argument",
		},
		{
			name:    "wrong type",
			src:     "model {\n mesh {\n  order = \"two\"\n }\n}\n",
			wantErr: "Incorrect attribute value type",
		},
		{
			name:    "fractional integer",
			src:     "model {\n mesh {\n  order = 1.5\n }\n}\n",
			wantErr: "Incorrect attribute value type",
		},
		{
			name:    "duplicate block",
			src:     "model {}\nmodel {}\n",
			wantErr: "Duplicate block",
		},
		{
			name:    "syntax",
			src:     "model {",
			wantErr: "failed to parse HCL file",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := Parse([]byte(tc.src), "bad.hcl")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestSnapshot_RoundTrip(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	s := Default()
	s.Model.Mesh.File = "meshes/coarse.msh"
	s.Simulation.SolverStep2.Beta = 0.3
	s.Material.Tumor.Position = []float64{0.01, 0.05, -0.002}

	// --- Act ---
	path := filepath.Join(t.TempDir(), "case"+SnapshotSuffix)
	require.NoError(t, WriteSnapshot(path, &s))
	ctx := ctxlog.Discard(context.Background())
	got, err := LoadFile(ctx, path)

	// --- Assert ---
	require.NoError(t, err)
	if diff := cmp.Diff(s, *got); diff != "" {
		t.Errorf("snapshot round trip mismatch (-want +got):\n%s", diff)
	}
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "timestepper_step2 {")
	assert.NotContains(t, string(raw), "animation {\n  dtmax")
}

func TestWriteDefault(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "default.hcl")
	require.NoError(t, WriteDefault(path))

	got, err := LoadFile(ctxlog.Discard(context.Background()), path)
	require.NoError(t, err)
	assert.Equal(t, Default(), *got)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	t.Run("defaults are valid", func(t *testing.T) {
		t.Parallel()
		s := Default()
		assert.NoError(t, s.Validate())
	})

	t.Run("reports every problem", func(t *testing.T) {
		t.Parallel()
		s := Default()
		s.Model.Geometry.Radius = 0
		s.Model.Mesh.Order = 3
		s.Material.Tumor.Position = []float64{1, 2}

		err := s.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "radius must be positive")
		assert.Contains(t, err.Error(), "order must be 1 or 2")
		assert.Contains(t, err.Error(), "position must have 3 components")
	})

	t.Run("disabled tumor is not checked", func(t *testing.T) {
		t.Parallel()
		s := Default()
		s.Material.Tumor.Enabled = false
		s.Material.Tumor.Position = nil
		assert.NoError(t, s.Validate())
	})
}

func TestGeometryDerivedPositions(t *testing.T) {
	t.Parallel()
	g := Default().Model.Geometry
	assert.InDelta(t, 0.028, g.LeftPositionEllipse(), 1e-12)
	assert.InDelta(t, 0.0035, g.PositionNipple(), 1e-12)
	assert.InDelta(t, 0.021, g.PositionCenterEllipse(), 1e-12)
}

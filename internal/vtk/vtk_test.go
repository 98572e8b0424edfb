package vtk

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/breastfem/internal/fault"
	"github.com/vk/breastfem/internal/testutil"
	"gonum.org/v1/gonum/spatial/r3"
)

func sample(field bool) testutil.VTKFrame {
	return testutil.VTKFrame{
		Points: [][3]float64{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {0, 0, 1}},
		Cells: []testutil.VTKCell{
			{Type: Tetra, Nodes: []int{0, 1, 2, 3}},
			{Type: Triangle, Nodes: []int{0, 1, 2}},
		},
		Displacement: [][3]float64{{0, 0, 0}, {0, 0, 0.5}, {0, 0, -0.25}, {1e-3, 0, 0}},
		Field:        field,
	}
}

func TestRead(t *testing.T) {
	t.Parallel()

	for _, field := range []bool{false, true} {
		name := "vectors"
		if field {
			name = "field"
		}
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			// --- Act ---
			f, err := Read(strings.NewReader(sample(field).Render()), Options{})

			// --- Assert ---
			require.NoError(t, err)
			assert.Equal(t, []r3.Vec{{}, {X: 1}, {Y: 1}, {Z: 1}}, f.Points)
			assert.Equal(t, []Cell{
				{Type: Tetra, Nodes: []int{0, 1, 2, 3}},
				{Type: Triangle, Nodes: []int{0, 1, 2}},
			}, f.Cells)
			assert.Equal(t, []r3.Vec{{}, {Z: 0.5}, {Z: -0.25}, {X: 1e-3}}, f.Displacement)
		})
	}
}

func TestRead_SkipCells(t *testing.T) {
	t.Parallel()

	f, err := Read(strings.NewReader(sample(false).Render()), Options{SkipCells: true})

	require.NoError(t, err)
	assert.Nil(t, f.Cells)
	assert.Len(t, f.Displacement, 4)
}

func TestReadFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "case.3.vtk")
	testutil.WriteVTK(t, path, sample(false))

	f, err := ReadFile(path, Options{})

	require.NoError(t, err)
	assert.Len(t, f.Points, 4)
}

func TestRead_Malformed(t *testing.T) {
	t.Parallel()

	valid := sample(false).Render()
	noDisp := sample(false)
	noDisp.Displacement = nil
	hdr := "# vtk DataFile Version 3.0\nframe\nASCII\nDATASET UNSTRUCTURED_GRID\n"

	tests := []struct {
		name  string
		input string
	}{
		{name: "empty", input: ""},
		{name: "not vtk", input: "hello\nworld\nASCII\nDATASET UNSTRUCTURED_GRID\n"},
		{name: "binary", input: strings.Replace(valid, "ASCII", "BINARY", 1)},
		{name: "structured grid", input: strings.Replace(valid, "UNSTRUCTURED_GRID", "STRUCTURED_POINTS", 1)},
		{name: "truncated", input: valid[:len(valid)/3]},
		{name: "bad number", input: strings.Replace(valid, "0 1 0\n", "0 x 0\n", 1)},
		{name: "no displacement", input: strings.Replace(noDisp.Render(), "VECTORS displacement float\n", "", 1)},
		{name: "unknown keyword", input: valid + "BOGUS 1\n"},
		{name: "negative point count", input: hdr + "POINTS -3 float\n"},
		{name: "negative cell count", input: hdr + "POINTS 0 float\nCELLS -1 0\n"},
		{name: "negative cell size", input: hdr + "POINTS 0 float\nCELLS 1 1\n-4\n"},
		{name: "negative cell type count", input: hdr + "POINTS 0 float\nCELL_TYPES -2\n"},
		{name: "negative data size", input: hdr + "POINTS 0 float\nPOINT_DATA -1\n"},
		{name: "negative field tuples", input: hdr + "POINTS 0 float\nPOINT_DATA 0\nFIELD f 1\ndisplacement 3 -2 float\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := Read(strings.NewReader(tc.input), Options{})
			require.Error(t, err)
			assert.ErrorIs(t, err, fault.ErrMalformedFrame)
			if strings.HasPrefix(tc.name, "negative") {
				assert.ErrorContains(t, err, "negative")
			}
		})
	}
}

func TestIsShell(t *testing.T) {
	t.Parallel()
	assert.True(t, IsShell(Triangle))
	assert.True(t, IsShell(QuadraticTriangle))
	assert.False(t, IsShell(Tetra))
	assert.False(t, IsShell(QuadraticTetra))
}

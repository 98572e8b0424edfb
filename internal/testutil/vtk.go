package testutil

import (
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// VTKCell is one cell of a frame written by WriteVTK.
type VTKCell struct {
	Type  int
	Nodes []int
}

// VTKFrame describes a solver output frame for tests.
type VTKFrame struct {
	Points       [][3]float64
	Cells        []VTKCell
	Displacement [][3]float64
	// Field writes the displacement as a FIELD array instead of VECTORS.
	Field bool
}

// Render returns the frame as legacy ASCII VTK, with the extra point and
// cell arrays the solver writes alongside the displacement.
func (f VTKFrame) Render() string {
	var b strings.Builder
	b.WriteString("# vtk DataFile Version 3.0\nbreastfem test frame\nASCII\nDATASET UNSTRUCTURED_GRID\n")
	fmt.Fprintf(&b, "POINTS %d float\n", len(f.Points))
	for _, p := range f.Points {
		fmt.Fprintf(&b, "%g %g %g\n", p[0], p[1], p[2])
	}
	size := 0
	for _, c := range f.Cells {
		size += len(c.Nodes) + 1
	}
	fmt.Fprintf(&b, "\nCELLS %d %d\n", len(f.Cells), size)
	for _, c := range f.Cells {
		fmt.Fprintf(&b, "%d", len(c.Nodes))
		for _, n := range c.Nodes {
			fmt.Fprintf(&b, " %d", n)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "\nCELL_TYPES %d\n", len(f.Cells))
	for _, c := range f.Cells {
		fmt.Fprintf(&b, "%d\n", c.Type)
	}

	fmt.Fprintf(&b, "\nPOINT_DATA %d\n", len(f.Points))
	b.WriteString("SCALARS shell_thickness float 1\nLOOKUP_TABLE default\n")
	for range f.Points {
		b.WriteString("0.0001\n")
	}
	if f.Field {
		fmt.Fprintf(&b, "FIELD FieldData 1\ndisplacement 3 %d float\n", len(f.Displacement))
	} else {
		b.WriteString("VECTORS displacement float\n")
	}
	for _, d := range f.Displacement {
		fmt.Fprintf(&b, "%g %g %g\n", d[0], d[1], d[2])
	}

	fmt.Fprintf(&b, "\nCELL_DATA %d\n", len(f.Cells))
	b.WriteString("TENSORS stress float\n")
	for range f.Cells {
		b.WriteString("0 0 0\n0 0 0\n0 0 0\n")
	}
	return b.String()
}

// WriteVTK writes f to path.
func WriteVTK(t *testing.T, path string, f VTKFrame) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(f.Render()), 0o644))
}

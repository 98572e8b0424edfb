package reducer

import (
	"fmt"
	"slices"

	"github.com/vk/breastfem/internal/asset"
	"github.com/vk/breastfem/internal/vtk"
	"gonum.org/v1/gonum/spatial/r3"
)

// tri6Split divides a quadratic triangle into four linear ones. Nodes 3, 4
// and 5 are the midpoints of edges 0-1, 1-2 and 2-0.
var tri6Split = [4][3]int{{0, 3, 5}, {3, 1, 4}, {5, 4, 2}, {3, 4, 5}}

// Surface extracts the shell cells of a frame. Solid cells are dropped.
// Vertices are the points the shells use, in ascending point order, which
// is ascending solver node id.
func Surface(f *vtk.Frame) (*asset.Topology, error) {
	used := make(map[int]struct{})
	var shells []vtk.Cell
	for i, c := range f.Cells {
		if !vtk.IsShell(c.Type) {
			continue
		}
		want := 3
		if c.Type == vtk.QuadraticTriangle {
			want = 6
		}
		if len(c.Nodes) != want {
			return nil, fmt.Errorf("cell %d of type %d has %d nodes", i, c.Type, len(c.Nodes))
		}
		for _, n := range c.Nodes {
			if n >= len(f.Points) {
				return nil, fmt.Errorf("cell %d references point %d of %d", i, n, len(f.Points))
			}
			used[n] = struct{}{}
		}
		shells = append(shells, c)
	}
	if len(shells) == 0 {
		return nil, fmt.Errorf("no surface cells")
	}

	index := make([]int, 0, len(used))
	for n := range used {
		index = append(index, n)
	}
	slices.Sort(index)
	vertex := make(map[int]int, len(index))
	t := &asset.Topology{PointIndex: index, Vertices: make([]r3.Vec, len(index))}
	for i, n := range index {
		vertex[n] = i
		t.Vertices[i] = f.Points[n]
	}

	for _, c := range shells {
		if c.Type == vtk.Triangle {
			t.Faces = append(t.Faces, [3]int{vertex[c.Nodes[0]], vertex[c.Nodes[1]], vertex[c.Nodes[2]]})
			continue
		}
		for _, tri := range tri6Split {
			t.Faces = append(t.Faces, [3]int{vertex[c.Nodes[tri[0]]], vertex[c.Nodes[tri[1]]], vertex[c.Nodes[tri[2]]]})
		}
	}
	return t, nil
}

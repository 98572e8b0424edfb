package canon

import (
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/breastfem/internal/fault"
	"github.com/vk/breastfem/internal/mesh"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestCanonicalize_FourNodeTet(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	raw := &mesh.RawMesh{
		Nodes: []mesh.Node{
			{ID: 10, Pos: r3.Vec{X: 10}},
			{ID: 3, Pos: r3.Vec{X: 3}},
			{ID: 7, Pos: r3.Vec{X: 7}},
			{ID: 1, Pos: r3.Vec{X: 1}},
		},
		Elements: []mesh.Element{{ID: 1, Nodes: []int{1, 10, 3, 7}, Kind: mesh.Solid, Order: 1}},
	}

	// --- Act ---
	m, err := Canonicalize(raw)

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, map[int]int{1: 1, 3: 2, 7: 3, 10: 4}, m.NodeMap)
	assert.Equal(t, []r3.Vec{{X: 1}, {X: 3}, {X: 7}, {X: 10}}, m.Nodes)
	assert.Equal(t, []int{1, 4, 2, 3}, m.Elements[0].Nodes)
	assert.Equal(t, []int{1, 10, 3, 7}, raw.Elements[0].Nodes, "input must not be modified")
}

func TestCanonicalize_IdsAreGapFreeAndOrderPreserving(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewPCG(1, 2))
	ids := rng.Perm(500)
	raw := &mesh.RawMesh{}
	for _, id := range ids {
		// Spread ids out so there are gaps to close.
		raw.Nodes = append(raw.Nodes, mesh.Node{ID: 3*id + 17, Pos: r3.Vec{X: float64(id)}})
	}

	m, err := Canonicalize(raw)
	require.NoError(t, err)

	require.Len(t, m.Nodes, 500)
	newIDs := make([]int, 0, len(m.NodeMap))
	for old, id := range m.NodeMap {
		newIDs = append(newIDs, id)
		assert.Equal(t, float64((old-17)/3), m.Node(id).X)
	}
	slices.Sort(newIDs)
	for i, id := range newIDs {
		require.Equal(t, i+1, id)
	}
	for i := 1; i < len(m.Nodes); i++ {
		assert.Less(t, m.Nodes[i-1].X, m.Nodes[i].X, "relative order by original id must hold")
	}
}

func TestCanonicalize_QuadraticElements(t *testing.T) {
	t.Parallel()

	raw := &mesh.RawMesh{}
	for id := 1; id <= 10; id++ {
		raw.Nodes = append(raw.Nodes, mesh.Node{ID: id * 10})
	}
	raw.Elements = []mesh.Element{
		{ID: 2, Nodes: []int{10, 20, 30, 40, 50, 60, 70, 80, 90, 100}, Kind: mesh.Solid, Order: 2},
		{ID: 1, Nodes: []int{10, 20, 30, 40, 50, 60}, Kind: mesh.Surface, Order: 2},
	}

	m, err := Canonicalize(raw)
	require.NoError(t, err)

	require.Len(t, m.Elements, 2)
	assert.Equal(t, 1, m.Elements[0].ID, "elements are sorted by id")
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6}, m.Elements[0].Nodes, "tri6 uses the same order in both conventions")
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8, 10, 9}, m.Elements[1].Nodes)
}

func TestCanonicalize_Errors(t *testing.T) {
	t.Parallel()

	tet := func(id int, nodes ...int) mesh.Element {
		return mesh.Element{ID: id, Nodes: nodes, Kind: mesh.Solid, Order: 1}
	}
	nodes := func(ids ...int) []mesh.Node {
		out := make([]mesh.Node, len(ids))
		for i, id := range ids {
			out[i] = mesh.Node{ID: id}
		}
		return out
	}

	tests := []struct {
		name string
		raw  *mesh.RawMesh
		want error
	}{
		{"duplicate node", &mesh.RawMesh{Nodes: nodes(1, 2, 2, 3)}, fault.ErrDuplicateNode},
		{"duplicate element", &mesh.RawMesh{Nodes: nodes(1, 2, 3, 4), Elements: []mesh.Element{tet(5, 1, 2, 3, 4), tet(5, 1, 2, 3, 4)}}, fault.ErrDuplicateElement},
		{"unknown node", &mesh.RawMesh{Nodes: nodes(1, 2, 3), Elements: []mesh.Element{tet(1, 1, 2, 3, 9)}}, fault.ErrUnknownNode},
		{"short element", &mesh.RawMesh{Nodes: nodes(1, 2, 3), Elements: []mesh.Element{tet(1, 1, 2, 3)}}, fault.ErrElementShape},
		{"bad order", &mesh.RawMesh{Nodes: nodes(1, 2, 3), Elements: []mesh.Element{{ID: 1, Nodes: []int{1, 2, 3}, Kind: mesh.Surface, Order: 3}}}, fault.ErrElementShape},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := Canonicalize(tc.raw)
			require.ErrorIs(t, err, tc.want)
		})
	}
}

func TestPermutation(t *testing.T) {
	t.Parallel()

	for shape := range permutations {
		t.Run(string(shape), func(t *testing.T) {
			t.Parallel()
			orig := make([]int, shape.NodeCount())
			for i := range orig {
				orig[i] = 100 + i
			}
			assert.Equal(t, orig, Unpermute(shape, Permute(shape, orig)))
			assert.Equal(t, orig, Permute(shape, Unpermute(shape, orig)))
		})
	}

	t.Run("tet10 swap is an involution", func(t *testing.T) {
		t.Parallel()
		orig := []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
		assert.Equal(t, orig, Permute(mesh.Tet10, Permute(mesh.Tet10, orig)))
	})

	t.Run("linear shapes pass through", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, []int{4, 3, 2, 1}, Permute(mesh.Tet4, []int{4, 3, 2, 1}))
	})
}

func TestCentroid(t *testing.T) {
	t.Parallel()
	m := &Mesh{Nodes: []r3.Vec{{X: 0}, {X: 2}, {Y: 2}, {Z: 4}}}
	c := m.Centroid(mesh.Element{Nodes: []int{1, 2, 3, 4}})
	assert.Equal(t, r3.Vec{X: 0.5, Y: 0.5, Z: 1}, c)
}

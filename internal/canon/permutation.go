package canon

import (
	"fmt"

	"github.com/vk/breastfem/internal/mesh"
)

// permutations maps each quadratic shape to the reordering from gmsh node
// order to FEBio node order: position i of the FEBio element takes gmsh node
// permutations[shape][i]. gmsh and FEBio agree on tri6; for tet10 they
// disagree on the last two mid-edge nodes.
var permutations = map[mesh.Shape][]int{
	mesh.Tri6:  {0, 1, 2, 3, 4, 5},
	mesh.Tet10: {0, 1, 2, 3, 4, 5, 6, 7, 9, 8},
}

// inverses is derived from permutations in init.
var inverses = map[mesh.Shape][]int{}

func init() {
	for _, shape := range []mesh.Shape{mesh.Tri6, mesh.Tet10} {
		p, ok := permutations[shape]
		if !ok {
			panic(fmt.Sprintf("canon: no node permutation for %s", shape))
		}
		if len(p) != shape.NodeCount() {
			panic(fmt.Sprintf("canon: permutation for %s has %d entries, want %d", shape, len(p), shape.NodeCount()))
		}
		inv := make([]int, len(p))
		seen := make([]bool, len(p))
		for i, j := range p {
			if j < 0 || j >= len(p) || seen[j] {
				panic(fmt.Sprintf("canon: permutation for %s is not a bijection", shape))
			}
			seen[j] = true
			inv[j] = i
		}
		inverses[shape] = inv
	}
}

// Permute reorders nodes from gmsh order to FEBio order. Shapes without a
// permutation (linear elements) are returned unchanged.
func Permute(shape mesh.Shape, nodes []int) []int {
	return apply(permutations[shape], nodes)
}

// Unpermute undoes Permute.
func Unpermute(shape mesh.Shape, nodes []int) []int {
	return apply(inverses[shape], nodes)
}

func apply(p, nodes []int) []int {
	out := make([]int, len(nodes))
	if p == nil {
		copy(out, nodes)
		return out
	}
	for i, j := range p {
		out[i] = nodes[j]
	}
	return out
}

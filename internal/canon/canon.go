// Package canon turns a raw mesh into the form FEBio requires: node ids
// 1..N in ascending order of the original ids, element connectivity
// rewritten to match, and quadratic elements in FEBio node order.
package canon

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/vk/breastfem/internal/fault"
	"github.com/vk/breastfem/internal/mesh"
	"gonum.org/v1/gonum/spatial/r3"
)

// Mesh is a canonical mesh. Nodes[i] has id i+1. Elements keep their
// original ids and are sorted by them.
type Mesh struct {
	Nodes    []r3.Vec
	Elements []mesh.Element
	// NodeMap maps original node ids to canonical ids.
	NodeMap map[int]int
}

// Node returns the position of the node with canonical id id.
func (m *Mesh) Node(id int) r3.Vec { return m.Nodes[id-1] }

// Centroid is the mean position of e's nodes.
func (m *Mesh) Centroid(e mesh.Element) r3.Vec {
	var c r3.Vec
	for _, id := range e.Nodes {
		c = r3.Add(c, m.Node(id))
	}
	return r3.Scale(1/float64(len(e.Nodes)), c)
}

// Canonicalize renumbers raw. It fails with fault.ErrDuplicateNode,
// fault.ErrDuplicateElement, fault.ErrUnknownNode or fault.ErrElementShape;
// all of them mean the mesh cannot be given to the solver.
func Canonicalize(raw *mesh.RawMesh) (*Mesh, error) {
	nodes := slices.Clone(raw.Nodes)
	slices.SortFunc(nodes, func(a, b mesh.Node) int { return cmp.Compare(a.ID, b.ID) })

	out := &Mesh{
		Nodes:   make([]r3.Vec, len(nodes)),
		NodeMap: make(map[int]int, len(nodes)),
	}
	for i, n := range nodes {
		if i > 0 && nodes[i-1].ID == n.ID {
			return nil, fmt.Errorf("%w: %d", fault.ErrDuplicateNode, n.ID)
		}
		out.Nodes[i] = n.Pos
		out.NodeMap[n.ID] = i + 1
	}

	elems := slices.Clone(raw.Elements)
	slices.SortFunc(elems, func(a, b mesh.Element) int { return cmp.Compare(a.ID, b.ID) })
	out.Elements = make([]mesh.Element, len(elems))
	for i, e := range elems {
		if i > 0 && elems[i-1].ID == e.ID {
			return nil, fmt.Errorf("%w: %d", fault.ErrDuplicateElement, e.ID)
		}
		shape := e.Shape()
		if shape == "" || len(e.Nodes) != shape.NodeCount() {
			return nil, fmt.Errorf("%w: element %d (%s, order %d) has %d nodes", fault.ErrElementShape, e.ID, e.Kind, e.Order, len(e.Nodes))
		}

		conn := make([]int, len(e.Nodes))
		for j, old := range e.Nodes {
			id, ok := out.NodeMap[old]
			if !ok {
				return nil, fmt.Errorf("%w: element %d references node %d", fault.ErrUnknownNode, e.ID, old)
			}
			conn[j] = id
		}
		if e.Order == 2 {
			conn = Permute(shape, conn)
		}
		e.Nodes = conn
		out.Elements[i] = e
	}
	return out, nil
}

// Package mesh holds the raw mesh produced by the external mesher and the
// readers that load it.
package mesh

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// Kind separates shell facets from volume cells.
type Kind int

const (
	Surface Kind = iota + 1
	Solid
)

func (k Kind) String() string {
	switch k {
	case Surface:
		return "surface"
	case Solid:
		return "solid"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Shape names an element by its kind and order, using FEBio element names.
type Shape string

const (
	Tri3  Shape = "tri3"
	Tri6  Shape = "tri6"
	Tet4  Shape = "tet4"
	Tet10 Shape = "tet10"
)

// NodeCount is the number of nodes an element of this shape references.
func (s Shape) NodeCount() int {
	switch s {
	case Tri3:
		return 3
	case Tri6:
		return 6
	case Tet4:
		return 4
	case Tet10:
		return 10
	default:
		return 0
	}
}

// ShapeOf returns the shape for a kind and order, or "" if there is none.
func ShapeOf(k Kind, order int) Shape {
	switch {
	case k == Surface && order == 1:
		return Tri3
	case k == Surface && order == 2:
		return Tri6
	case k == Solid && order == 1:
		return Tet4
	case k == Solid && order == 2:
		return Tet10
	default:
		return ""
	}
}

type Node struct {
	ID  int
	Pos r3.Vec
}

// Element is a surface triangle or a solid tetrahedron. Nodes are node ids in
// the mesher's local ordering.
type Element struct {
	ID    int
	Nodes []int
	Kind  Kind
	Order int
}

func (e Element) Shape() Shape { return ShapeOf(e.Kind, e.Order) }

// RawMesh is the mesher's output as read: ids are whatever the mesher chose
// and nothing is sorted. Nodes and elements are kept as lists so that a
// repeated id survives until the canonicalizer can reject it.
type RawMesh struct {
	Nodes    []Node
	Elements []Element
}

// Order returns the common order of all elements, or 0 when the mesh is
// empty or mixes orders.
func (m *RawMesh) Order() int {
	order := 0
	for _, e := range m.Elements {
		switch {
		case order == 0:
			order = e.Order
		case order != e.Order:
			return 0
		}
	}
	return order
}

package testutil

import (
	"math"

	"github.com/vk/breastfem/internal/settings"
)

// MeshBuilder places tiny elements centred on chosen points. Node tags count
// down from a large number so canonicalization has work to do.
type MeshBuilder struct {
	MSH MSH
	tag int
}

func NewMeshBuilder() *MeshBuilder { return &MeshBuilder{tag: 10000} }

func (b *MeshBuilder) node(c, off [3]float64) int {
	b.tag -= 3
	b.MSH.Nodes = append(b.MSH.Nodes, MSHNode{Tag: b.tag, Pos: [3]float64{c[0] + off[0], c[1] + off[1], c[2] + off[2]}})
	return b.tag
}

// Tet adds a linear tetrahedron with element tag tag around c.
func (b *MeshBuilder) Tet(tag int, c [3]float64) *MeshBuilder {
	const d = 1e-4
	nodes := []int{
		b.node(c, [3]float64{d, d, d}),
		b.node(c, [3]float64{d, -d, -d}),
		b.node(c, [3]float64{-d, d, -d}),
		b.node(c, [3]float64{-d, -d, d}),
	}
	b.MSH.Elements = append(b.MSH.Elements, MSHElement{Tag: tag, Type: 4, Nodes: nodes})
	return b
}

// Tri adds a linear triangle in the y = c[1] plane around c.
func (b *MeshBuilder) Tri(tag int, c [3]float64) *MeshBuilder {
	const d = 1e-4
	nodes := []int{
		b.node(c, [3]float64{d, 0, 0}),
		b.node(c, [3]float64{-d / 2, 0, d}),
		b.node(c, [3]float64{-d / 2, 0, -d}),
	}
	b.MSH.Elements = append(b.MSH.Elements, MSHElement{Tag: tag, Type: 2, Nodes: nodes})
	return b
}

// Breast is a minimal first order model under the default geometry with
// glandular, adipose and tumor elements, one skin facet and one chest facet.
func Breast() *MeshBuilder {
	g := settings.Default().Model.Geometry
	r, th := g.Radius, g.ThicknessChestWall
	s45 := math.Sqrt2 / 2
	return NewMeshBuilder().
		Tet(40, [3]float64{0, 0.3 * r, 0.1 * r}).
		Tet(12, [3]float64{0.8 * r * s45, 0.8 * r * s45, 0}).
		Tet(33, [3]float64{0.035, 0.040, 0}).
		Tri(7, [3]float64{0, r * s45, r * s45}).
		Tri(90, [3]float64{0.3 * r, -th, 0})
}

// FirstOrder is a settings file selecting the linear mesh Breast builds.
const FirstOrder = `
model {
  mesh {
    order = 1
  }
}
`

package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// MSHNode is a node of a test mesh.
type MSHNode struct {
	Tag int
	Pos [3]float64
}

// MSHElement is an element of a test mesh. Type is the gmsh element type
// code: 2 tri3, 9 tri6, 4 tet4, 11 tet10.
type MSHElement struct {
	Tag   int
	Type  int
	Nodes []int
}

// MSH is a test mesh rendered in gmsh 4.1 ASCII format.
type MSH struct {
	Nodes    []MSHNode
	Elements []MSHElement
}

// Render writes all nodes in one block and one element block per type, in
// the order types first appear.
func (m MSH) Render() string {
	var b strings.Builder
	b.WriteString("$MeshFormat\n4.1 0 8\n$EndMeshFormat\n")

	minTag, maxTag := 0, 0
	for i, n := range m.Nodes {
		if i == 0 || n.Tag < minTag {
			minTag = n.Tag
		}
		maxTag = max(maxTag, n.Tag)
	}
	fmt.Fprintf(&b, "$Nodes\n1 %d %d %d\n3 1 0 %d\n", len(m.Nodes), minTag, maxTag, len(m.Nodes))
	for _, n := range m.Nodes {
		fmt.Fprintf(&b, "%d\n", n.Tag)
	}
	for _, n := range m.Nodes {
		fmt.Fprintf(&b, "%g %g %g\n", n.Pos[0], n.Pos[1], n.Pos[2])
	}
	b.WriteString("$EndNodes\n")

	var types []int
	byType := make(map[int][]MSHElement)
	minTag, maxTag = 0, 0
	for i, e := range m.Elements {
		if _, ok := byType[e.Type]; !ok {
			types = append(types, e.Type)
		}
		byType[e.Type] = append(byType[e.Type], e)
		if i == 0 || e.Tag < minTag {
			minTag = e.Tag
		}
		maxTag = max(maxTag, e.Tag)
	}
	fmt.Fprintf(&b, "$Elements\n%d %d %d %d\n", len(types), len(m.Elements), minTag, maxTag)
	for _, typ := range types {
		dim := 2
		if typ == 4 || typ == 11 {
			dim = 3
		}
		fmt.Fprintf(&b, "%d 1 %d %d\n", dim, typ, len(byType[typ]))
		for _, e := range byType[typ] {
			fmt.Fprintf(&b, "%d", e.Tag)
			for _, n := range e.Nodes {
				fmt.Fprintf(&b, " %d", n)
			}
			b.WriteString("\n")
		}
	}
	b.WriteString("$EndElements\n")
	return b.String()
}

// WriteFile writes a file under dir, creating parents, and returns its path.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

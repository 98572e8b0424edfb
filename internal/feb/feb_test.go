package feb

import (
	"bytes"
	"encoding/xml"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/breastfem/internal/canon"
	"github.com/vk/breastfem/internal/descriptor"
	"github.com/vk/breastfem/internal/fault"
	"github.com/vk/breastfem/internal/mesh"
	"github.com/vk/breastfem/internal/settings"
	"github.com/vk/breastfem/internal/zoning"
	"gonum.org/v1/gonum/spatial/r3"
)

var (
	skin    = zoning.Params{Density: 1100, BulkModulus: 480000, Coef1: 1200, Coef2: 1200}
	fat     = zoning.Params{Density: 911, BulkModulus: 425000, Coef1: 109, Coef2: 106}
	gland   = zoning.Params{Density: 1041, BulkModulus: 425000, Coef1: 230, Coef2: 195}
	tumored = zoning.Params{Density: 1079, BulkModulus: 425000, Coef1: 971, Coef2: 939}
)

// fixture has one element per part. Element ids are deliberately out of part
// order so the renumbering is visible.
func fixture(t *testing.T) Input {
	t.Helper()
	s := settings.Default()
	d, err := descriptor.Build(s.Simulation)
	require.NoError(t, err)

	m := &canon.Mesh{
		Nodes: []r3.Vec{{X: 0}, {X: 1}, {Y: 1}, {Z: 1}, {X: 0.5, Y: 0.25, Z: -1}},
		Elements: []mesh.Element{
			{ID: 3, Nodes: []int{1, 2, 3}, Kind: mesh.Surface, Order: 1},
			{ID: 5, Nodes: []int{1, 2, 4}, Kind: mesh.Surface, Order: 1},
			{ID: 7, Nodes: []int{1, 2, 3, 4}, Kind: mesh.Solid, Order: 1},
			{ID: 10, Nodes: []int{2, 3, 4, 5}, Kind: mesh.Solid, Order: 1},
		},
	}
	zones := zoning.Map{
		3:  {Region: zoning.Skin, Params: skin},
		5:  {Region: zoning.Chest},
		7:  {Region: zoning.Glandular, Params: gland},
		10: {Region: zoning.Adipose, Params: fat},
	}
	return Input{Name: "case", Mesh: m, Zones: zones, Descriptor: d, Settings: &s}
}

func encode(t *testing.T, root *Element) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, root))
	return buf.String()
}

func TestBuild_SectionOrder(t *testing.T) {
	t.Parallel()

	root, err := Build(fixture(t))
	require.NoError(t, err)

	var names []string
	for _, c := range root.Children {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{
		"Module", "Globals", "Material", "Mesh", "MeshDomains", "MeshData",
		"Boundary", "Loads", "Step", "LoadData", "Output",
	}, names)
	assert.Equal(t, Version, root.Attr("version"))
}

func TestBuild_SequentialElementIDsInPartOrder(t *testing.T) {
	t.Parallel()

	// --- Act ---
	root, err := Build(fixture(t))
	require.NoError(t, err)

	// --- Assert ---
	sets := root.Find("Mesh").All("Elements")
	require.Len(t, sets, 3)

	type row struct{ part, shape, id, conn string }
	var got []row
	for _, s := range sets {
		for _, e := range s.Children {
			got = append(got, row{s.Attr("name"), s.Attr("type"), e.Attr("id"), e.Text})
		}
	}
	assert.Equal(t, []row{
		{"skin_part", "tri3", "1", "1,2,3"},
		{"glandular_part", "tet4", "2", "1,2,3,4"},
		{"adipose_part", "tet4", "3", "2,3,4,5"},
	}, got)

	chest := root.Find("Mesh", "Surface")
	require.NotNil(t, chest)
	assert.Equal(t, "chest_part", chest.Attr("name"))
	require.Len(t, chest.Children, 1)
	assert.Equal(t, "tri3", chest.Children[0].Name)
	assert.Equal(t, "1", chest.Children[0].Attr("id"))
	assert.Equal(t, "1,2,4", chest.Children[0].Text)

	for _, pl := range root.Find("Mesh").All("PartList") {
		assert.Equal(t, "skin_part,glandular_part,adipose_part", pl.Text)
	}
}

func TestBuild_NodesAreWrittenInCanonicalOrder(t *testing.T) {
	t.Parallel()

	root, err := Build(fixture(t))
	require.NoError(t, err)

	nodes := root.Find("Mesh", "Nodes").Children
	require.Len(t, nodes, 5)
	assert.Equal(t, "1", nodes[0].Attr("id"))
	assert.Equal(t, "0,0,0", nodes[0].Text)
	assert.Equal(t, "5", nodes[4].Attr("id"))
	assert.Equal(t, "0.5,0.25,-1", nodes[4].Text)
}

func TestBuild_EmptySolidPartIsSkipped(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	in := fixture(t)
	in.Zones[7] = zoning.Assignment{Region: zoning.Adipose, Params: fat}

	// --- Act ---
	root, err := Build(in)
	require.NoError(t, err)

	// --- Assert ---
	var parts []string
	for _, s := range root.Find("Mesh").All("Elements") {
		parts = append(parts, s.Attr("name"))
	}
	assert.Equal(t, []string{"skin_part", "adipose_part"}, parts)
	assert.Len(t, root.Find("MeshDomains").Children, 2)
	assert.Equal(t, "skin_part,adipose_part", root.Find("Mesh", "PartList").Text)
}

func TestBuild_RequiredPartsMissing(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		drop []int
	}{
		{name: "no skin", drop: []int{3}},
		{name: "no chest", drop: []int{5}},
		{name: "no solids", drop: []int{7, 10}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			in := fixture(t)
			for _, id := range tc.drop {
				delete(in.Zones, id)
			}

			_, err := Build(in)

			require.Error(t, err)
			assert.ErrorIs(t, err, fault.ErrEmptyPart)
		})
	}
}

func TestBuild_MaterialsWithoutTumor(t *testing.T) {
	t.Parallel()

	root, err := Build(fixture(t))
	require.NoError(t, err)

	mats := root.Find("Material").Children
	require.Len(t, mats, 3)
	assert.Equal(t, "skin", mats[0].Attr("name"))
	assert.Equal(t, "adipose", mats[1].Attr("name"))
	assert.Equal(t, "glandular", mats[2].Attr("name"))

	fatMat := mats[1]
	assert.Equal(t, "Mooney-Rivlin", fatMat.Attr("type"))
	assert.Equal(t, "911", fatMat.Find("density").Text)
	assert.Equal(t, "425000", fatMat.Find("k").Text)
	assert.Equal(t, "109", fatMat.Find("c1").Text)
	assert.Equal(t, "106", fatMat.Find("c2").Text)
	assert.Empty(t, fatMat.Find("c1").Attr("type"))
	assert.Empty(t, root.Find("MeshData").Children)
}

func TestBuild_TumorElementsUseMappedParameters(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	in := fixture(t)
	in.Zones[10] = zoning.Assignment{Region: zoning.Adipose, Params: tumored, Tumor: true}

	// --- Act ---
	root, err := Build(in)
	require.NoError(t, err)

	// --- Assert ---
	fatMat := root.Find("Material").Children[1]
	for _, p := range []string{"density", "c1", "c2"} {
		e := fatMat.Find(p)
		require.NotNil(t, e, p)
		assert.Equal(t, "map", e.Attr("type"))
		assert.Equal(t, "adipose_"+p, e.Text)
	}
	assert.Equal(t, "425000", fatMat.Find("k").Text, "bulk modulus is never mapped")
	assert.Empty(t, root.Find("Material").Children[2].Find("c1").Attr("type"), "glandular has no tumor elements")

	data := root.Find("MeshData").All("ElementData")
	require.Len(t, data, 3)
	want := map[string]string{"adipose_density": "1079", "adipose_c1": "971", "adipose_c2": "939"}
	for _, d := range data {
		assert.Equal(t, "adipose_part", d.Attr("elem_set"))
		require.Len(t, d.Children, 1)
		assert.Equal(t, "1", d.Children[0].Attr("lid"))
		assert.Equal(t, want[d.Attr("name")], d.Children[0].Text)
	}
}

func TestBuild_Steps(t *testing.T) {
	t.Parallel()

	in := fixture(t)
	root, err := Build(in)
	require.NoError(t, err)

	steps := root.Find("Step").All("step")
	require.Len(t, steps, 2)

	t.Run("gravity step", func(t *testing.T) {
		s := steps[0]
		assert.Equal(t, "Step1", s.Attr("name"))
		assert.Equal(t, "STATIC", s.Find("Control", "analysis").Text)
		assert.Empty(t, s.Find("Control", "time_stepper", "dtmax").Attr("lc"))
		assert.NotNil(t, s.Find("Control", "solver", "qn_method"))

		bcs := s.Find("Boundary").All("bc")
		require.Len(t, bcs, 1)
		assert.Equal(t, "zero displacement", bcs[0].Attr("type"))
		assert.Equal(t, "@surface:chest_part", bcs[0].Attr("node_set"))
		assert.Equal(t, "1", bcs[0].Find("z_dof").Text)
		assert.Nil(t, s.Find("Loads"))
	})

	t.Run("jump step", func(t *testing.T) {
		s := steps[1]
		assert.Equal(t, "Step2", s.Attr("name"))
		assert.Equal(t, "DYNAMIC", s.Find("Control", "analysis").Text)

		dtmax := s.Find("Control", "time_stepper", "dtmax")
		require.NotNil(t, dtmax)
		assert.Equal(t, "3", dtmax.Attr("lc"))
		assert.Equal(t, formatFloat(in.Settings.Simulation.TimestepperStep2.Dtmax), dtmax.Text)

		bcs := s.Find("Boundary").All("bc")
		require.Len(t, bcs, 2)
		assert.Equal(t, "prescribed displacement", bcs[0].Attr("type"))
		assert.Equal(t, "z", bcs[0].Find("dof").Text)
		assert.Equal(t, "2", bcs[0].Find("value").Attr("lc"))
		assert.Equal(t, "0", bcs[1].Find("z_dof").Text)
		assert.Equal(t, "1", bcs[1].Find("x_dof").Text)

		damping := s.Find("Loads", "body_load")
		require.NotNil(t, damping)
		assert.Equal(t, "mass damping", damping.Attr("type"))
		assert.Equal(t, "20", damping.Find("C").Text)
	})

	assert.Nil(t, root.Find("Initial"), "step 2 continues from step 1")
}

func TestBuild_LoadCurves(t *testing.T) {
	t.Parallel()

	in := fixture(t)
	root, err := Build(in)
	require.NoError(t, err)

	lcs := root.Find("LoadData").All("load_controller")
	require.Len(t, lcs, 3)
	for i, want := range []descriptor.LoadCurve{in.Descriptor.GravityCurve, in.Descriptor.JumpCurve, in.Descriptor.MustPoints} {
		lc := lcs[i]
		assert.Equal(t, "LC"+lc.Attr("id"), lc.Attr("name"))
		assert.Equal(t, "LINEAR", lc.Find("interpolate").Text)
		pts := lc.Find("points").Children
		require.Len(t, pts, len(want.Points))
		last := want.Points[len(want.Points)-1]
		assert.Equal(t, formatFloat(last.T)+","+formatFloat(last.V), pts[len(pts)-1].Text)
	}

	force := root.Find("Loads", "body_load", "force")
	require.NotNil(t, force)
	assert.Equal(t, "1", force.Attr("lc"))
	assert.Equal(t, "0,0,9.81", force.Text)
}

func TestBuild_Output(t *testing.T) {
	t.Parallel()

	in := fixture(t)
	in.Settings.Simulation.Output.Stress = true
	root, err := Build(in)
	require.NoError(t, err)

	plot := root.Find("Output", "plotfile")
	require.NotNil(t, plot)
	assert.Equal(t, "vtk", plot.Attr("type"))
	assert.Equal(t, "output/case.vtk", plot.Attr("file"))
	var vars []string
	for _, v := range plot.All("var") {
		vars = append(vars, v.Attr("type"))
	}
	assert.Equal(t, []string{"displacement", "stress"}, vars)
}

func TestEncode_DeterministicAndWellFormed(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	a, err := Build(fixture(t))
	require.NoError(t, err)
	b, err := Build(fixture(t))
	require.NoError(t, err)

	// --- Act ---
	first := encode(t, a)
	second := encode(t, b)

	// --- Assert ---
	assert.Equal(t, first, second)
	assert.True(t, strings.HasPrefix(first, xml.Header+`<febio_spec version="4.0">`))
	assert.Contains(t, first, "\n\t<Module type=\"solid\"></Module>")

	dec := xml.NewDecoder(strings.NewReader(first))
	for {
		_, err := dec.Token()
		if err != nil {
			require.ErrorIs(t, err, io.EOF)
			break
		}
	}
}

func TestWriteFile(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	root, err := Build(fixture(t))
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "case.feb")
	require.NoError(t, os.WriteFile(path, []byte("stale"), 0o644))

	// --- Act ---
	require.NoError(t, WriteFile(path, root))

	// --- Assert ---
	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, encode(t, root), string(got))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary files are left behind")
}

package feb

import (
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/vk/breastfem/internal/canon"
	"github.com/vk/breastfem/internal/descriptor"
	"github.com/vk/breastfem/internal/fault"
	"github.com/vk/breastfem/internal/mesh"
	"github.com/vk/breastfem/internal/settings"
	"github.com/vk/breastfem/internal/zoning"
)

// Version is the FEBio input format written.
const Version = "4.0"

// Extension of solver input files.
const Extension = ".feb"

const (
	shellThickness = "0.0001"
	massDamping    = "20"
	gravityForce   = "0,0,9.81"

	partListGravity = "gravitational_acceleration"
	partListDamping = "Mass_damping"
	chestPart       = "chest_part"
)

// Input is everything one document is assembled from.
type Input struct {
	// Name is the job base name. The plotfile is output/<Name>.vtk.
	Name       string
	Mesh       *canon.Mesh
	Zones      zoning.Map
	Descriptor *descriptor.Descriptor
	Settings   *settings.Settings
}

type material struct {
	id     int
	region zoning.Region
	tissue settings.Tissue
}

// materials in FEBio material id order.
func materials(m settings.Material) []material {
	return []material{
		{id: 1, region: zoning.Skin, tissue: m.Skin},
		{id: 2, region: zoning.Adipose, tissue: m.Adipose},
		{id: 3, region: zoning.Glandular, tissue: m.Glandular},
	}
}

// part is the set of elements of one region, in canonical order.
type part struct {
	region zoning.Region
	elems  []mesh.Element
	params []zoning.Params
	mapped bool
}

func (p part) name() string { return p.region.String() + "_part" }

// Build assembles the solver input document. It has no side effects and the
// same input always yields the same tree.
func Build(in Input) (*Element, error) {
	parts, chest, err := split(in.Mesh, in.Zones)
	if err != nil {
		return nil, err
	}

	root := NewElement("febio_spec", "version", Version)
	root.Add("Module", "type", "solid")
	globals(root)
	materialSection(root, in.Settings.Material, parts)
	meshSection(root, in.Mesh, parts, chest)
	domainSection(root, parts)
	meshDataSection(root, parts)
	root.Add("Boundary")
	loads := root.Add("Loads")
	bodyLoad(loads, "body force", partListGravity).
		AddText("force", gravityForce, "lc", strconv.Itoa(descriptor.GravityCurveID))
	stepSection(root, in.Descriptor)
	loadData(root, in.Descriptor)
	output(root, in.Name, in.Settings.Simulation.Output)
	return root, nil
}

// split groups zoned elements into parts. The chest surface is returned
// separately because it is written as a Surface, not as elements.
func split(m *canon.Mesh, zones zoning.Map) (map[zoning.Region]*part, []mesh.Element, error) {
	parts := make(map[zoning.Region]*part, len(zoning.Regions))
	for _, r := range zoning.Regions {
		parts[r] = &part{region: r}
	}
	var chest []mesh.Element
	for _, e := range m.Elements {
		a, ok := zones[e.ID]
		if !ok {
			continue
		}
		if a.Region == zoning.Chest {
			chest = append(chest, e)
			continue
		}
		p, ok := parts[a.Region]
		if !ok {
			return nil, nil, fmt.Errorf("element %d has unknown region %v", e.ID, a.Region)
		}
		p.elems = append(p.elems, e)
		p.params = append(p.params, a.Params)
		p.mapped = p.mapped || a.Tumor
	}
	if len(parts[zoning.Skin].elems) == 0 {
		return nil, nil, fmt.Errorf("%w: skin", fault.ErrEmptyPart)
	}
	if len(parts[zoning.Glandular].elems)+len(parts[zoning.Adipose].elems) == 0 {
		return nil, nil, fmt.Errorf("%w: no solid elements", fault.ErrEmptyPart)
	}
	if len(chest) == 0 {
		return nil, nil, fmt.Errorf("%w: chest", fault.ErrEmptyPart)
	}
	return parts, chest, nil
}

// written returns the non-empty parts in the order elements are numbered.
func written(parts map[zoning.Region]*part) []*part {
	var out []*part
	for _, r := range zoning.Regions {
		if p := parts[r]; len(p.elems) > 0 {
			out = append(out, p)
		}
	}
	return out
}

func partList(parts map[zoning.Region]*part) string {
	var names []string
	for _, p := range written(parts) {
		names = append(names, p.name())
	}
	return strings.Join(names, ",")
}

func globals(root *Element) {
	c := root.Add("Globals").Add("Constants")
	c.AddText("T", "0")
	c.AddText("P", "0")
	c.AddText("R", "8.31446")
	c.AddText("Fc", "96485.3")
}

func materialSection(root *Element, mat settings.Material, parts map[zoning.Region]*part) {
	sec := root.Add("Material")
	for _, m := range materials(mat) {
		e := sec.Add("material", "id", strconv.Itoa(m.id), "name", m.region.String(), "type", "Mooney-Rivlin")
		var override map[string]*Element
		if parts[m.region].mapped {
			override = make(map[string]*Element, 3)
			for _, name := range []string{"density", "c1", "c2"} {
				override[name] = NewElement(name, "type", "map")
				override[name].Text = dataName(m.region, name)
			}
		}
		addParams(e, m.tissue, override)
	}
}

func dataName(r zoning.Region, param string) string { return r.String() + "_" + param }

func meshSection(root *Element, m *canon.Mesh, parts map[zoning.Region]*part, chest []mesh.Element) {
	sec := root.Add("Mesh")
	nodes := sec.Add("Nodes", "name", "Object01")
	for i, p := range m.Nodes {
		nodes.AddText("node", formatFloat(p.X)+","+formatFloat(p.Y)+","+formatFloat(p.Z), "id", strconv.Itoa(i+1))
	}

	id := 0
	for _, p := range written(parts) {
		set := sec.Add("Elements", "type", string(p.elems[0].Shape()), "name", p.name())
		for _, e := range p.elems {
			id++
			set.AddText("elem", joinInts(e.Nodes), "id", strconv.Itoa(id))
		}
	}

	surf := sec.Add("Surface", "name", chestPart)
	for i, e := range chest {
		surf.AddText(string(e.Shape()), joinInts(e.Nodes), "id", strconv.Itoa(i+1))
	}

	list := partList(parts)
	sec.AddText("PartList", list, "name", partListDamping)
	sec.AddText("PartList", list, "name", partListGravity)
}

func domainSection(root *Element, parts map[zoning.Region]*part) {
	sec := root.Add("MeshDomains")
	for _, p := range written(parts) {
		if p.region == zoning.Skin {
			d := sec.Add("ShellDomain", "name", p.name(), "mat", p.region.String())
			d.AddText("shell_thickness", shellThickness)
			continue
		}
		sec.Add("SolidDomain", "name", p.name(), "mat", p.region.String())
	}
}

// meshDataSection writes per-element values for every part that has tumor
// elements. Values are indexed by the element's position within its part.
func meshDataSection(root *Element, parts map[zoning.Region]*part) {
	sec := root.Add("MeshData")
	for _, p := range written(parts) {
		if !p.mapped {
			continue
		}
		for _, param := range []string{"density", "c1", "c2"} {
			d := sec.Add("ElementData", "type", "scalar", "name", dataName(p.region, param), "elem_set", p.name())
			for i, v := range p.params {
				d.AddText("e", formatFloat(pick(v, param)), "lid", strconv.Itoa(i+1))
			}
		}
	}
}

func pick(p zoning.Params, param string) float64 {
	switch param {
	case "density":
		return p.Density
	case "c1":
		return p.Coef1
	default:
		return p.Coef2
	}
}

func bodyLoad(parent *Element, typ, list string) *Element {
	return parent.Add("body_load", "type", typ, "elem_set", "@part_list:"+list)
}

func stepSection(root *Element, d *descriptor.Descriptor) {
	sec := root.Add("Step")

	s1 := step(sec, d.Gravity, nil)
	zeroDisplacement(s1.Add("Boundary"), "chest", true, true, true)

	dtmax := NewElement("dtmax", "lc", strconv.Itoa(descriptor.MustPointsCurveID))
	dtmax.Text = formatFloat(d.Jump.Timestepper.Dtmax)
	s2 := step(sec, d.Jump, map[string]*Element{"dtmax": dtmax})

	bc := s2.Add("Boundary")
	jump := bc.Add("bc", "name", "parabolic_trajectory", "node_set", "@surface:"+chestPart, "type", "prescribed displacement")
	jump.AddText("dof", "z")
	jump.AddText("value", "1", "lc", strconv.Itoa(descriptor.JumpCurveID))
	jump.AddText("relative", "0")
	zeroDisplacement(bc, "only_z_displacement", true, true, false)

	bodyLoad(s2.Add("Loads"), "mass damping", partListDamping).AddText("C", massDamping)
}

// step writes a step with its control block. Phase 2 continues from the
// state phase 1 leaves behind, so no initial condition is ever written.
func step(parent *Element, p descriptor.Phase, stepperOverride map[string]*Element) *Element {
	s := parent.Add("step", "id", strconv.Itoa(p.ID), "name", p.Name)
	ctl := s.Add("Control")
	addParams(ctl, p.Control, nil)
	addParams(ctl.Add("time_stepper", "type", "default"), p.Timestepper, stepperOverride)
	solver := ctl.Add("solver", "type", "solid")
	addParams(solver, p.Solver, nil)
	addParams(solver.Add("qn_method", "type", "BFGS"), p.QNMethod, nil)
	return s
}

func zeroDisplacement(parent *Element, name string, x, y, z bool) {
	bc := parent.Add("bc", "name", name, "node_set", "@surface:"+chestPart, "type", "zero displacement")
	for _, dof := range []struct {
		name  string
		fixed bool
	}{{"x_dof", x}, {"y_dof", y}, {"z_dof", z}} {
		v := "0"
		if dof.fixed {
			v = "1"
		}
		bc.AddText(dof.name, v)
	}
}

func loadData(root *Element, d *descriptor.Descriptor) {
	sec := root.Add("LoadData")
	for _, c := range []descriptor.LoadCurve{d.GravityCurve, d.JumpCurve, d.MustPoints} {
		lc := sec.Add("load_controller", "id", strconv.Itoa(c.ID), "name", "LC"+strconv.Itoa(c.ID), "type", "loadcurve")
		lc.AddText("interpolate", "LINEAR")
		lc.AddText("extend", "CONSTANT")
		pts := lc.Add("points")
		for _, p := range c.Points {
			pts.AddText("pt", formatFloat(p.T)+","+formatFloat(p.V))
		}
	}
}

func output(root *Element, name string, o settings.Output) {
	plot := root.Add("Output").Add("plotfile", "type", "vtk", "file", PlotfilePath(name))
	if o.Displacement {
		plot.Add("var", "type", "displacement")
	}
	if o.Stress {
		plot.Add("var", "type", "stress")
	}
	if o.RelativeVolume {
		plot.Add("var", "type", "relative volume")
	}
}

// PlotfilePath is the plotfile location relative to the job directory.
// FEBio writes frame k of it as output/<name>.<k>.vtk.
func PlotfilePath(name string) string { return path.Join("output", name+".vtk") }

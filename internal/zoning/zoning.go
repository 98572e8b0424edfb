// Package zoning assigns tissue regions and material parameters to the
// elements of a canonical mesh.
//
// Assignment depends only on an element's centroid, its kind and the
// settings, so the same mesh and settings always produce the same map.
package zoning

import (
	"fmt"

	"github.com/vk/breastfem/internal/canon"
	"github.com/vk/breastfem/internal/geometry"
	"github.com/vk/breastfem/internal/mesh"
	"github.com/vk/breastfem/internal/settings"
	"gonum.org/v1/gonum/spatial/r3"
)

// Region is the part of the model an element belongs to.
type Region int

const (
	Skin Region = iota + 1
	Glandular
	Adipose
	// Chest is the surface the boundary conditions act on. It carries no
	// material.
	Chest
)

// Regions lists the tissue regions in the order FEBio parts are written.
var Regions = []Region{Skin, Glandular, Adipose}

func (r Region) String() string {
	switch r {
	case Skin:
		return "skin"
	case Glandular:
		return "glandular"
	case Adipose:
		return "adipose"
	case Chest:
		return "chest"
	default:
		return fmt.Sprintf("Region(%d)", int(r))
	}
}

// Params is a resolved Mooney-Rivlin parameter set.
type Params struct {
	Density     float64
	BulkModulus float64
	Coef1       float64
	Coef2       float64
}

// Assignment is the outcome for one element.
type Assignment struct {
	Region Region
	Params Params
	// Tumor is set when Params come from the tumor inclusion.
	Tumor bool
}

// Map is keyed by element id.
type Map map[int]Assignment

// Report lists elements that did not fit the geometry.
type Report struct {
	// Fallbacks are solid elements outside every region. They were assigned
	// to adipose.
	Fallbacks []int
	// InteriorFacets are surface elements that lie neither on the skin nor on
	// the chest wall. They are left out of the map.
	InteriorFacets []int
}

// Assign zones every element of m. Elements are visited in canonical order,
// so both report lists are sorted by element id.
func Assign(m *canon.Mesh, profile geometry.Profile, mat settings.Material) (Map, Report) {
	out := make(Map, len(m.Elements))
	var rep Report
	tumor := newInclusion(mat.Tumor)

	for _, e := range m.Elements {
		c := m.Centroid(e)

		if e.Kind == mesh.Surface {
			switch {
			case profile.OnChestWall(c):
				out[e.ID] = Assignment{Region: Chest}
			case profile.OnSkin(c):
				// Skin has no tumor variant.
				out[e.ID] = Assignment{Region: Skin, Params: paramsOf(mat.Skin)}
			default:
				rep.InteriorFacets = append(rep.InteriorFacets, e.ID)
			}
			continue
		}

		region := Adipose
		switch {
		case !profile.Contains(c):
			rep.Fallbacks = append(rep.Fallbacks, e.ID)
		case profile.InGland(c):
			region = Glandular
		}

		a := Assignment{Region: region, Params: paramsOf(tissueOf(mat, region))}
		if tumor.contains(c) {
			a.Params = tumor.override(region, a.Params)
			a.Tumor = true
		}
		out[e.ID] = a
	}
	return out, rep
}

func tissueOf(mat settings.Material, r Region) settings.Tissue {
	if r == Glandular {
		return mat.Glandular
	}
	return mat.Adipose
}

func paramsOf(t settings.Tissue) Params {
	return Params{Density: t.Density, BulkModulus: t.BulkModulus, Coef1: t.Coef1, Coef2: t.Coef2}
}

type inclusion struct {
	enabled bool
	center  r3.Vec
	settings.Tumor
}

func newInclusion(t settings.Tumor) inclusion {
	in := inclusion{Tumor: t, enabled: t.Enabled && len(t.Position) == 3}
	if in.enabled {
		in.center = r3.Vec{X: t.Position[0], Y: t.Position[1], Z: t.Position[2]}
	}
	return in
}

func (in inclusion) contains(c r3.Vec) bool {
	return in.enabled && r3.Norm(r3.Sub(c, in.center)) <= in.Radius
}

// override keeps the bulk modulus of the host tissue and takes density and
// coefficients from the tumor.
func (in inclusion) override(host Region, p Params) Params {
	p.Density = in.Density
	if host == Glandular {
		p.Coef1, p.Coef2 = in.Coef1Glandular, in.Coef2Glandular
	} else {
		p.Coef1, p.Coef2 = in.Coef1Adipose, in.Coef2Adipose
	}
	return p
}

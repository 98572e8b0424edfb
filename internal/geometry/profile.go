// Package geometry describes the revolved breast model in its meridional
// half-plane and answers the point-membership questions material zoning
// needs.
//
// The model is revolved around the y axis. A 3D point maps onto the profile
// plane as (axial, radial) = (y, sqrt(x²+z²)), stored in r2.Vec as X and Y.
// The body is the union of the chest wall slab (-t ≤ axial ≤ 0, radial ≤ R),
// the hemisphere (axial ≥ 0, |p| ≤ R) and the glandular ellipse cap, which
// reaches past the hemisphere at the nipple.
package geometry

import (
	"math"

	"github.com/vk/breastfem/internal/settings"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// arcSamples is the number of segments used for each curved boundary.
const arcSamples = 256

// Ellipse is a general ellipse in the profile plane. Axis is the unit
// direction of the A semi-axis.
type Ellipse struct {
	Center r2.Vec
	Axis   r2.Vec
	A, B   float64
}

// Contains reports whether p lies inside or on the ellipse.
func (e Ellipse) Contains(p r2.Vec) bool {
	d := r2.Sub(p, e.Center)
	s := r2.Dot(d, e.Axis) / e.A
	t := r2.Dot(d, perp(e.Axis)) / e.B
	return s*s+t*t <= 1
}

// At returns the point at parameter phi, with phi = 0 on the A axis.
func (e Ellipse) At(phi float64) r2.Vec {
	return r2.Add(e.Center, r2.Add(
		r2.Scale(e.A*math.Cos(phi), e.Axis),
		r2.Scale(e.B*math.Sin(phi), perp(e.Axis)),
	))
}

// Profile is the analytic region boundary of one geometry.
type Profile struct {
	// Outline is the body boundary as an open polyline from the axis behind
	// the chest wall, up the chest wall, over the skin and back to the axis at
	// the nipple. The closing segment runs along the axis and is not a surface.
	Outline []r2.Vec
	// Gland is the glandular ellipse. Only its part with radial ≥ 0 and
	// axial ≥ ChestAxial belongs to the body.
	Gland Ellipse
	// ChestAxial is the axial coordinate of the chest plane.
	ChestAxial float64
	Radius     float64
	// Tolerance is the distance within which a point counts as lying on a
	// boundary.
	Tolerance float64
}

// Project maps a 3D point onto the profile plane.
func Project(p r3.Vec) r2.Vec {
	return r2.Vec{X: p.Y, Y: math.Hypot(p.X, p.Z)}
}

// NewProfile builds the profile for g. g must have passed
// settings.Validate.
func NewProfile(g settings.Geometry) Profile {
	r := g.Radius
	t := g.ThicknessChestWall
	gland := glandEllipse(g)

	outline := []r2.Vec{{X: -t, Y: 0}, {X: -t, Y: r}, {X: 0, Y: r}}

	// Hemisphere from the rim to the axis, skipping what the gland covers.
	for i := 1; i <= arcSamples; i++ {
		theta := float64(i) / arcSamples * math.Pi / 2
		p := r2.Vec{X: r * math.Sin(theta), Y: r * math.Cos(theta)}
		if i == arcSamples {
			p = r2.Vec{X: r, Y: 0}
		}
		if !gland.Contains(p) {
			outline = append(outline, p)
		}
	}

	// Gland cap beyond the hemisphere, walking towards the nipple.
	start := glandStartAngle(g, gland)
	for i := 0; i <= arcSamples; i++ {
		p := gland.At(start * (1 - float64(i)/arcSamples))
		if i == arcSamples {
			p = r2.Vec{X: r + g.PositionNipple(), Y: 0}
		}
		if p.X >= 0 && p.Y >= 0 && r2.Norm(p) > r {
			outline = append(outline, p)
		}
	}
	if last := outline[len(outline)-1]; last.Y != 0 {
		outline = append(outline, r2.Vec{X: last.X, Y: 0})
	}

	return Profile{
		Outline:    outline,
		Gland:      gland,
		ChestAxial: -t,
		Radius:     r,
		Tolerance:  math.Min(0.02*r, t/2),
	}
}

// glandEllipse reconstructs the ellipse through the point behind the chest
// wall (-l, 0) and the nipple point (R+n, 0) with its centre at
// ((R+n-l)/2, -c). The nipple point fixes the major axis; the minor
// semi-axis follows from requiring the other point on the curve.
func glandEllipse(g settings.Geometry) Ellipse {
	r := g.Radius
	l := g.LeftPositionEllipse()
	n := g.PositionNipple()
	c := g.PositionCenterEllipse()

	center := r2.Vec{X: (r + n - l) / 2, Y: -c}
	nipple := r2.Vec{X: r + n, Y: 0}
	left := r2.Vec{X: -l, Y: 0}

	major := r2.Sub(nipple, center)
	a := r2.Norm(major)
	axis := r2.Scale(1/a, major)

	d := r2.Sub(left, center)
	s := r2.Dot(d, axis)
	tt := r2.Dot(d, perp(axis))
	b := a
	if q := 1 - s*s/(a*a); q > 1e-12 {
		b = math.Abs(tt) / math.Sqrt(q)
	}
	return Ellipse{Center: center, Axis: axis, A: a, B: b}
}

// glandStartAngle is the ellipse parameter of the point behind the chest
// wall; the cap above the axis spans [0, start].
func glandStartAngle(g settings.Geometry, e Ellipse) float64 {
	d := r2.Sub(r2.Vec{X: -g.LeftPositionEllipse(), Y: 0}, e.Center)
	return math.Atan2(r2.Dot(d, perp(e.Axis))/e.B, r2.Dot(d, e.Axis)/e.A)
}

func perp(v r2.Vec) r2.Vec { return r2.Vec{X: -v.Y, Y: v.X} }

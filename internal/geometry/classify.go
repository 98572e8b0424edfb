package geometry

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// Contains reports whether x lies inside the body or within Tolerance of its
// surface.
func (p Profile) Contains(x r3.Vec) bool {
	q := Project(x)
	if q.X < p.ChestAxial-p.Tolerance {
		return false
	}
	return p.insideOutline(q) || p.distanceToSurface(q, 0) <= p.Tolerance
}

// InGland reports whether x lies in the glandular part of the body.
func (p Profile) InGland(x r3.Vec) bool {
	q := Project(x)
	return q.X >= p.ChestAxial-p.Tolerance && p.Gland.Contains(q)
}

// OnChestWall reports whether x lies on the chest plane, within the rim.
func (p Profile) OnChestWall(x r3.Vec) bool {
	q := Project(x)
	return math.Abs(q.X-p.ChestAxial) <= p.Tolerance && q.Y <= p.Radius+p.Tolerance
}

// OnSkin reports whether x lies on the outer surface other than the chest
// wall.
func (p Profile) OnSkin(x r3.Vec) bool {
	return p.distanceToSurface(Project(x), 1) <= p.Tolerance
}

// insideOutline is an even-odd ray cast against the outline closed along
// the axis.
func (p Profile) insideOutline(q r2.Vec) bool {
	in := false
	n := len(p.Outline)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		a, b := p.Outline[i], p.Outline[j]
		if (a.Y > q.Y) != (b.Y > q.Y) {
			x := (b.X-a.X)*(q.Y-a.Y)/(b.Y-a.Y) + a.X
			if q.X < x {
				in = !in
			}
		}
	}
	return in
}

// distanceToSurface measures the distance from q to the outline segments,
// starting at segment first. Segment 0 is the chest wall.
func (p Profile) distanceToSurface(q r2.Vec, first int) float64 {
	best := math.Inf(1)
	for i := first; i+1 < len(p.Outline); i++ {
		best = math.Min(best, segmentDistance(q, p.Outline[i], p.Outline[i+1]))
	}
	return best
}

func segmentDistance(q, a, b r2.Vec) float64 {
	ab := r2.Sub(b, a)
	l2 := r2.Dot(ab, ab)
	if l2 == 0 {
		return r2.Norm(r2.Sub(q, a))
	}
	t := math.Max(0, math.Min(1, r2.Dot(r2.Sub(q, a), ab)/l2))
	return r2.Norm(r2.Sub(q, r2.Add(a, r2.Scale(t, ab))))
}

package geom

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// CylinderIntersectsBox is a composite test. The cylinder's bounding box
// gives a fast SAT rejection; past that, the box's edges are tested as
// segments against the capped cylinder, and the cylinder axis is tested as
// a capsule against the box faces. The capsule step over-reports slightly
// beyond the true flat end caps in some orientations; destruction visuals
// rely on that slack, keep it.
func CylinderIntersectsBox(cyl, box Shape) bool {
	if cyl.Kind != KindCylinder {
		panic("geom: CylinderIntersectsBox needs a cylinder")
	}
	if !SAT(HullOf(cyl), HullOf(box)) {
		return false
	}

	r := cyl.Radius()
	hy := 0.5 * cyl.Extent.Y
	a0 := cyl.Transform.Apply(r3.Vec{Y: -hy})
	a1 := cyl.Transform.Apply(r3.Vec{Y: hy})

	// Box center or axis endpoints inside the other shape settles it.
	if ContainsPoint(cyl, box.Transform.Pos) ||
		ContainsPoint(box, a0) || ContainsPoint(box, a1) ||
		ContainsPoint(box, cyl.Transform.Pos) {
		return true
	}

	// Box edges vs capped cylinder.
	verts := Vertices(box)
	for _, e := range boxEdgeIndices {
		p0, p1 := verts[e[0]], verts[e[1]]
		d, axT := segSegDistance(p0, p1, a0, a1)
		if d <= r-Epsilon && axT >= -r && axT <= r3.Norm(r3.Sub(a1, a0))+r {
			return true
		}
	}

	// Capsule around the axis vs the box.
	d := segBoxDistance(a0, a1, box)
	return d <= r-Epsilon
}

// boxEdgeIndices pairs indices into the Vertices(box) order.
var boxEdgeIndices = [12][2]int{
	{0, 1}, {2, 3}, {4, 5}, {6, 7}, // X edges
	{0, 2}, {1, 3}, {4, 6}, {5, 7}, // Y edges
	{0, 4}, {1, 5}, {2, 6}, {3, 7}, // Z edges
}

// segSegDistance returns the minimum distance between segments p0-p1 and
// q0-q1, plus the position of the closest point along q (world units from
// q0, may be clamped to the segment).
func segSegDistance(p0, p1, q0, q1 r3.Vec) (float64, float64) {
	u := r3.Sub(p1, p0)
	v := r3.Sub(q1, q0)
	w := r3.Sub(p0, q0)
	a := r3.Dot(u, u)
	b := r3.Dot(u, v)
	c := r3.Dot(v, v)
	d := r3.Dot(u, w)
	e := r3.Dot(v, w)
	den := a*c - b*b

	var s, t float64
	if den > 1e-12 {
		s = clamp((b*e-c*d)/den, 0, 1)
	}
	if c > 1e-12 {
		t = clamp((b*s+e)/c, 0, 1)
	}
	// Re-clamp s against the chosen t.
	if a > 1e-12 {
		s = clamp((b*t-d)/a, 0, 1)
	}
	cp := r3.Add(p0, r3.Scale(s, u))
	cq := r3.Add(q0, r3.Scale(t, v))
	return r3.Norm(r3.Sub(cp, cq)), t * math.Sqrt(c)
}

// segBoxDistance returns the minimum distance from segment a0-a1 to the
// oriented box, sampled at the endpoints and midpoint. Zero when any sample
// is inside. Sampling keeps the test cheap; the capsule radius absorbs the
// resolution loss.
func segBoxDistance(a0, a1 r3.Vec, box Shape) float64 {
	min := math.Inf(1)
	const steps = 8
	for i := 0; i <= steps; i++ {
		t := float64(i) / steps
		p := r3.Add(a0, r3.Scale(t, r3.Sub(a1, a0)))
		if d := pointBoxDistance(p, box); d < min {
			min = d
		}
	}
	return min
}

func pointBoxDistance(p r3.Vec, box Shape) float64 {
	lp := box.Transform.ToLocal(p)
	h := box.half()
	nearest := r3.Vec{
		X: clamp(lp.X, -h.X, h.X),
		Y: clamp(lp.Y, -h.Y, h.Y),
		Z: clamp(lp.Z, -h.Z, h.Z),
	}
	return r3.Norm(r3.Sub(lp, nearest))
}

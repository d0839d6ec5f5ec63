package geom

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// SAT runs the separating-axis test over two convex hulls. Candidate axes
// are every face normal of both hulls plus the pairwise cross products of
// their edge directions (near-zero crosses from parallel edges dropped).
// Returns true only when no candidate axis separates the projections.
func SAT(a, b Hull) bool {
	for _, axis := range a.Normals {
		if separates(axis, a.Verts, b.Verts) {
			return false
		}
	}
	for _, axis := range b.Normals {
		if separates(axis, a.Verts, b.Verts) {
			return false
		}
	}
	for _, ea := range a.Edges {
		for _, eb := range b.Edges {
			axis := r3.Cross(ea, eb)
			if r3.Norm2(axis) < Epsilon*Epsilon {
				continue // parallel edges, axis already covered
			}
			if separates(axis, a.Verts, b.Verts) {
				return false
			}
		}
	}
	return true
}

// separates projects both vertex sets onto axis and reports whether the
// projection intervals are disjoint. Touching intervals (within Epsilon)
// count as separated.
func separates(axis r3.Vec, va, vb []r3.Vec) bool {
	minA, maxA := project(axis, va)
	minB, maxB := project(axis, vb)
	return maxA <= minB+Epsilon || maxB <= minA+Epsilon
}

func project(axis r3.Vec, verts []r3.Vec) (min, max float64) {
	min = math.Inf(1)
	max = math.Inf(-1)
	for _, v := range verts {
		d := r3.Dot(axis, v)
		if d < min {
			min = d
		}
		if d > max {
			max = d
		}
	}
	return min, max
}

// Intersects dispatches the exact pairwise test for two shapes: analytic
// for ball/box and cylinder/box pairs, SAT over hulls (bounding boxes for
// the round kinds) otherwise.
func Intersects(a, b Shape) bool {
	switch {
	case a.Kind == KindBall && b.Kind != KindBall && b.Kind != KindCylinder:
		return BallIntersectsBox(a, b.BoundingBox()) && SAT(HullOf(a), HullOf(b))
	case b.Kind == KindBall && a.Kind != KindBall && a.Kind != KindCylinder:
		return BallIntersectsBox(b, a.BoundingBox()) && SAT(HullOf(a), HullOf(b))
	case a.Kind == KindCylinder && b.Kind == KindBox:
		return CylinderIntersectsBox(a, b)
	case b.Kind == KindCylinder && a.Kind == KindBox:
		return CylinderIntersectsBox(b, a)
	default:
		return SAT(HullOf(a), HullOf(b))
	}
}

// BallIntersectsBox clamps the sphere center into the box's local frame to
// the nearest point on or in the box, then compares squared distance with
// squared radius. Exact, O(1).
func BallIntersectsBox(ball, box Shape) bool {
	c := box.Transform.ToLocal(ball.Transform.Pos)
	h := box.half()
	nearest := r3.Vec{
		X: clamp(c.X, -h.X, h.X),
		Y: clamp(c.Y, -h.Y, h.Y),
		Z: clamp(c.Z, -h.Z, h.Z),
	}
	r := ball.Radius() - Epsilon
	return r3.Norm2(r3.Sub(c, nearest)) <= r*r
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

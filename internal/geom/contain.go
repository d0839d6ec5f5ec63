package geom

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// ContainsPoint reports whether a world-space point lies inside the shape,
// with Epsilon slack toward containment on exact boundaries.
func ContainsPoint(s Shape, p r3.Vec) bool {
	lp := s.Transform.ToLocal(p)
	h := s.half()
	switch s.Kind {
	case KindBox:
		return math.Abs(lp.X) <= h.X+Epsilon &&
			math.Abs(lp.Y) <= h.Y+Epsilon &&
			math.Abs(lp.Z) <= h.Z+Epsilon
	case KindBall:
		r := s.Radius() + Epsilon
		return r3.Norm2(lp) <= r*r
	case KindCylinder:
		// Axis along local Y.
		r := s.Radius() + Epsilon
		return lp.X*lp.X+lp.Z*lp.Z <= r*r && math.Abs(lp.Y) <= h.Y+Epsilon
	case KindWedge, KindCornerWedge:
		for _, f := range halfSpaces(s) {
			if r3.Dot(f.normal, r3.Sub(lp, f.point)) > Epsilon {
				return false
			}
		}
		return true
	}
	return false
}

// halfSpace is one bounding plane of a polyhedral shape, in local space.
type halfSpace struct {
	normal r3.Vec // outward
	point  r3.Vec // any point on the plane
}

func halfSpaces(s Shape) []halfSpace {
	h := s.half()
	switch s.Kind {
	case KindWedge:
		return []halfSpace{
			{r3.Vec{Y: -1}, r3.Vec{Y: -h.Y}},
			{r3.Vec{Z: 1}, r3.Vec{Z: h.Z}},
			{r3.Vec{X: -1}, r3.Vec{X: -h.X}},
			{r3.Vec{X: 1}, r3.Vec{X: h.X}},
			{r3.Unit(r3.Vec{Y: h.Z, Z: -h.Y}), r3.Vec{Y: -h.Y, Z: -h.Z}},
		}
	case KindCornerWedge:
		return []halfSpace{
			{r3.Vec{Y: -1}, r3.Vec{Y: -h.Y}},
			{r3.Vec{X: 1}, r3.Vec{X: h.X}},
			{r3.Vec{Z: 1}, r3.Vec{Z: h.Z}},
			{r3.Unit(r3.Vec{Y: h.Z, Z: -h.Y}), r3.Vec{Y: -h.Y, Z: -h.Z}},
			{r3.Unit(r3.Vec{X: -h.Y, Y: h.X}), r3.Vec{X: -h.X, Y: -h.Y}},
		}
	default:
		// Box half spaces; Ball/Cylinder never reach here.
		return []halfSpace{
			{r3.Vec{X: 1}, r3.Vec{X: h.X}},
			{r3.Vec{X: -1}, r3.Vec{X: -h.X}},
			{r3.Vec{Y: 1}, r3.Vec{Y: h.Y}},
			{r3.Vec{Y: -1}, r3.Vec{Y: -h.Y}},
			{r3.Vec{Z: 1}, r3.Vec{Z: h.Z}},
			{r3.Vec{Z: -1}, r3.Vec{Z: -h.Z}},
		}
	}
}

// ContainsAllVerts reports whether every point is inside the container.
func ContainsAllVerts(container Shape, points []r3.Vec) bool {
	for _, p := range points {
		if !ContainsPoint(container, p) {
			return false
		}
	}
	return true
}

// ContainsAVert returns the index of the first contained point, or -1.
func ContainsAVert(container Shape, points []r3.Vec) int {
	for i, p := range points {
		if ContainsPoint(container, p) {
			return i
		}
	}
	return -1
}

// EncapsulatesBox reports whether the container fully contains the oriented
// box described by transform and extent.
func EncapsulatesBox(container Shape, t Transform, extent r3.Vec) bool {
	box := Shape{Kind: KindBox, Transform: t, Extent: extent}
	return ContainsAllVerts(container, Vertices(box))
}

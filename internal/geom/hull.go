package geom

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// Hull is the SAT-ready view of a convex primitive: world-space corner
// points, outward face normals, and edge directions. Ball and Cylinder are
// represented by their bounding boxes; their exact tests are analytic.
type Hull struct {
	Verts   []r3.Vec
	Normals []r3.Vec
	Edges   []r3.Vec
}

// Vertices returns the world-space convex-hull corner points:
// 8 for a box, 6 for a wedge, 5 for a corner wedge. Ball and Cylinder
// fall back to their bounding-box corners.
func Vertices(s Shape) []r3.Vec {
	h := s.half()
	var local []r3.Vec
	switch s.Kind {
	case KindWedge:
		// Slope rises from the front bottom edge (-Z) to the top back edge (+Z).
		local = []r3.Vec{
			{X: -h.X, Y: -h.Y, Z: -h.Z},
			{X: h.X, Y: -h.Y, Z: -h.Z},
			{X: -h.X, Y: -h.Y, Z: h.Z},
			{X: h.X, Y: -h.Y, Z: h.Z},
			{X: -h.X, Y: h.Y, Z: h.Z},
			{X: h.X, Y: h.Y, Z: h.Z},
		}
	case KindCornerWedge:
		// Square base plus one apex above the (+X, +Z) base corner.
		local = []r3.Vec{
			{X: -h.X, Y: -h.Y, Z: -h.Z},
			{X: h.X, Y: -h.Y, Z: -h.Z},
			{X: -h.X, Y: -h.Y, Z: h.Z},
			{X: h.X, Y: -h.Y, Z: h.Z},
			{X: h.X, Y: h.Y, Z: h.Z},
		}
	default:
		local = []r3.Vec{
			{X: -h.X, Y: -h.Y, Z: -h.Z},
			{X: h.X, Y: -h.Y, Z: -h.Z},
			{X: -h.X, Y: h.Y, Z: -h.Z},
			{X: h.X, Y: h.Y, Z: -h.Z},
			{X: -h.X, Y: -h.Y, Z: h.Z},
			{X: h.X, Y: -h.Y, Z: h.Z},
			{X: -h.X, Y: h.Y, Z: h.Z},
			{X: h.X, Y: h.Y, Z: h.Z},
		}
	}
	out := make([]r3.Vec, len(local))
	for i, p := range local {
		out[i] = s.Transform.Apply(p)
	}
	return out
}

// FaceNormals returns the world-space outward unit normals, one per face.
func FaceNormals(s Shape) []r3.Vec {
	out := make([]r3.Vec, 0, 6)
	for _, n := range localFaceNormals(s) {
		out = append(out, s.Transform.RotateDir(n))
	}
	return out
}

func localFaceNormals(s Shape) []r3.Vec {
	h := s.half()
	switch s.Kind {
	case KindWedge:
		return []r3.Vec{
			{Y: -1},
			{Z: 1},
			{X: -1},
			{X: 1},
			r3.Unit(r3.Vec{Y: h.Z, Z: -h.Y}), // slope
		}
	case KindCornerWedge:
		return []r3.Vec{
			{Y: -1},
			{X: 1},
			{Z: 1},
			r3.Unit(r3.Vec{Y: h.Z, Z: -h.Y}), // slant over the -Z base edge
			r3.Unit(r3.Vec{X: -h.Y, Y: h.X}), // slant over the -X base edge
		}
	default:
		return []r3.Vec{
			{X: 1}, {X: -1},
			{Y: 1}, {Y: -1},
			{Z: 1}, {Z: -1},
		}
	}
}

// EdgeDirs returns the world-space edge directions used for SAT cross-axis
// candidates. Directions are unit length; duplicates within one shape are
// already collapsed.
func EdgeDirs(s Shape) []r3.Vec {
	h := s.half()
	var local []r3.Vec
	switch s.Kind {
	case KindWedge:
		local = []r3.Vec{
			{X: 1}, {Y: 1}, {Z: 1},
			r3.Unit(r3.Vec{Y: h.Y, Z: h.Z}), // slope edge
		}
	case KindCornerWedge:
		local = []r3.Vec{
			{X: 1}, {Y: 1}, {Z: 1},
			r3.Unit(r3.Vec{Y: h.Y, Z: h.Z}),
			r3.Unit(r3.Vec{X: h.X, Y: h.Y}),
			r3.Unit(r3.Vec{X: h.X, Y: h.Y, Z: h.Z}),
		}
	default:
		local = []r3.Vec{{X: 1}, {Y: 1}, {Z: 1}}
	}
	out := make([]r3.Vec, len(local))
	for i, d := range local {
		out[i] = s.Transform.RotateDir(d)
	}
	return out
}

// HullOf builds the full SAT view of a shape. Ball and Cylinder use their
// bounding boxes here; callers dispatching intersection tests special-case
// them before reaching SAT.
func HullOf(s Shape) Hull {
	proxy := s
	if s.Kind == KindBall || s.Kind == KindCylinder {
		proxy = s.BoundingBox()
	}
	return Hull{
		Verts:   Vertices(proxy),
		Normals: FaceNormals(proxy),
		Edges:   EdgeDirs(proxy),
	}
}

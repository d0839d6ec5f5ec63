package geom

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Epsilon is the tolerance applied by every intersection and containment
// test, in world units. Near-tangent configurations count as non-intersecting
// so voxel classification does not flicker on float noise at cell boundaries.
const Epsilon = 1e-4

// Kind identifies a convex primitive. The set is closed; every dispatch
// over Kind must handle all five values.
type Kind int

const (
	KindBox Kind = iota
	KindBall
	KindCylinder
	KindWedge
	KindCornerWedge
)

func (k Kind) String() string {
	switch k {
	case KindBox:
		return "box"
	case KindBall:
		return "ball"
	case KindCylinder:
		return "cylinder"
	case KindWedge:
		return "wedge"
	case KindCornerWedge:
		return "corner_wedge"
	}
	return "unknown"
}

// Transform is a rigid placement: position plus unit-quaternion rotation.
type Transform struct {
	Pos r3.Vec
	Rot r3.Rotation
}

// RotIdentity returns the identity rotation. The zero value of r3.Rotation
// is the zero quaternion, not identity, so every Transform must be built
// through NewTransform or assign Rot explicitly.
func RotIdentity() r3.Rotation {
	return r3.Rotation(quat.Number{Real: 1})
}

func NewTransform(pos r3.Vec) Transform {
	return Transform{Pos: pos, Rot: RotIdentity()}
}

// RotFromEuler builds a rotation from intrinsic X, Y, Z axis angles
// in radians, applied in Z·Y·X order.
func RotFromEuler(x, y, z float64) r3.Rotation {
	qx := quat.Number(r3.NewRotation(x, r3.Vec{X: 1}))
	qy := quat.Number(r3.NewRotation(y, r3.Vec{Y: 1}))
	qz := quat.Number(r3.NewRotation(z, r3.Vec{Z: 1}))
	return r3.Rotation(quat.Mul(qz, quat.Mul(qy, qx)))
}

// Apply maps a local-space point to world space.
func (t Transform) Apply(p r3.Vec) r3.Vec {
	return r3.Add(t.Pos, t.Rot.Rotate(p))
}

// ToLocal maps a world-space point into the transform's local frame.
func (t Transform) ToLocal(p r3.Vec) r3.Vec {
	inv := r3.Rotation(quat.Conj(quat.Number(t.Rot)))
	return inv.Rotate(r3.Sub(p, t.Pos))
}

// RotateDir rotates a local direction into world space.
func (t Transform) RotateDir(d r3.Vec) r3.Vec {
	return t.Rot.Rotate(d)
}

// Shape is one oriented convex primitive: a cutting volume or the solid
// envelope of a scene object. Extent is the full size along each local axis.
type Shape struct {
	Kind      Kind
	Transform Transform
	Extent    r3.Vec
}

// Valid reports whether the shape can enter a destruction job: extents
// strictly positive and the rotation a usable unit quaternion.
func (s Shape) Valid() bool {
	if s.Extent.X <= 0 || s.Extent.Y <= 0 || s.Extent.Z <= 0 {
		return false
	}
	q := quat.Number(s.Transform.Rot)
	n := math.Sqrt(q.Real*q.Real + q.Imag*q.Imag + q.Jmag*q.Jmag + q.Kmag*q.Kmag)
	return math.Abs(n-1) < 1e-3
}

// Radius returns the analytic radius used for Ball and Cylinder tests:
// half the minimum extent component for a ball, half the minimum of the
// two cross-axis components for a cylinder (axis is local Y).
func (s Shape) Radius() float64 {
	switch s.Kind {
	case KindBall:
		return 0.5 * math.Min(s.Extent.X, math.Min(s.Extent.Y, s.Extent.Z))
	case KindCylinder:
		return 0.5 * math.Min(s.Extent.X, s.Extent.Z)
	}
	return 0
}

// half returns the half extents.
func (s Shape) half() r3.Vec {
	return r3.Scale(0.5, s.Extent)
}

// BoundingBox returns the shape reinterpreted as a box of the same
// transform and extent. Exact for boxes, conservative for everything else.
func (s Shape) BoundingBox() Shape {
	return Shape{Kind: KindBox, Transform: s.Transform, Extent: s.Extent}
}

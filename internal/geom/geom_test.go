package geom

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func box(pos r3.Vec, extent r3.Vec) Shape {
	return Shape{Kind: KindBox, Transform: NewTransform(pos), Extent: extent}
}

func ball(pos r3.Vec, diameter float64) Shape {
	return Shape{
		Kind:      KindBall,
		Transform: NewTransform(pos),
		Extent:    r3.Vec{X: diameter, Y: diameter, Z: diameter},
	}
}

func cube(pos r3.Vec, side float64) Shape {
	return box(pos, r3.Vec{X: side, Y: side, Z: side})
}

func TestShapeValid(t *testing.T) {
	assert.True(t, cube(r3.Vec{}, 2).Valid())
	assert.False(t, box(r3.Vec{}, r3.Vec{X: 1, Y: 0, Z: 1}).Valid())
	assert.False(t, box(r3.Vec{}, r3.Vec{X: -1, Y: 1, Z: 1}).Valid())

	// Zero-value rotation is the zero quaternion, not identity.
	s := Shape{Kind: KindBox, Extent: r3.Vec{X: 1, Y: 1, Z: 1}}
	assert.False(t, s.Valid())
}

func TestTransformRoundTrip(t *testing.T) {
	tr := Transform{
		Pos: r3.Vec{X: 3, Y: -2, Z: 7},
		Rot: RotFromEuler(0.3, 1.1, -0.7),
	}
	p := r3.Vec{X: 1.5, Y: 0.25, Z: -4}
	back := tr.ToLocal(tr.Apply(p))
	assert.InDelta(t, p.X, back.X, 1e-9)
	assert.InDelta(t, p.Y, back.Y, 1e-9)
	assert.InDelta(t, p.Z, back.Z, 1e-9)
}

func TestSATBoxes(t *testing.T) {
	a := cube(r3.Vec{}, 2)

	t.Run("overlap", func(t *testing.T) {
		b := cube(r3.Vec{X: 1.9}, 2)
		assert.True(t, Intersects(a, b))
	})
	t.Run("separated", func(t *testing.T) {
		b := cube(r3.Vec{X: 2.9}, 2)
		assert.False(t, Intersects(a, b))
	})
	t.Run("touching is not intersecting", func(t *testing.T) {
		b := cube(r3.Vec{X: 2}, 2)
		assert.False(t, Intersects(a, b))
	})
	t.Run("rotated corner reach", func(t *testing.T) {
		// A 45-degree yaw extends the reach along X from 1 to sqrt(2).
		b := cube(r3.Vec{X: 2.3}, 2)
		b.Transform.Rot = RotFromEuler(0, 0, math.Pi/4)
		assert.True(t, Intersects(a, b))

		c := cube(r3.Vec{X: 2.5}, 2)
		c.Transform.Rot = RotFromEuler(0, 0, math.Pi/4)
		assert.False(t, Intersects(a, c))
	})
}

func TestIntersectsSymmetry(t *testing.T) {
	shapes := []Shape{
		cube(r3.Vec{}, 2),
		cube(r3.Vec{X: 1.5, Y: 0.5}, 3),
		ball(r3.Vec{X: 2}, 4),
		{Kind: KindCylinder, Transform: NewTransform(r3.Vec{Y: 1}), Extent: r3.Vec{X: 2, Y: 4, Z: 2}},
		{Kind: KindWedge, Transform: NewTransform(r3.Vec{X: -1}), Extent: r3.Vec{X: 2, Y: 2, Z: 2}},
		{Kind: KindCornerWedge, Transform: NewTransform(r3.Vec{Z: 3}), Extent: r3.Vec{X: 2, Y: 2, Z: 2}},
	}
	for i, a := range shapes {
		for j, b := range shapes {
			assert.Equal(t, Intersects(a, b), Intersects(b, a), "pair %d,%d", i, j)
		}
	}
}

func TestBallIntersectsBox(t *testing.T) {
	b := cube(r3.Vec{}, 2) // half extent 1

	t.Run("overlapping", func(t *testing.T) {
		assert.True(t, BallIntersectsBox(ball(r3.Vec{X: 2.5}, 4), b))
	})
	t.Run("separated", func(t *testing.T) {
		assert.False(t, BallIntersectsBox(ball(r3.Vec{X: 3.5}, 4), b))
	})
	t.Run("tangent counts as separated", func(t *testing.T) {
		assert.False(t, BallIntersectsBox(ball(r3.Vec{X: 3}, 4), b))
	})
	t.Run("center inside", func(t *testing.T) {
		assert.True(t, BallIntersectsBox(ball(r3.Vec{X: 0.5}, 1), b))
	})
}

func TestContainsPointBox(t *testing.T) {
	s := cube(r3.Vec{}, 2)
	assert.True(t, ContainsPoint(s, r3.Vec{}))
	assert.True(t, ContainsPoint(s, r3.Vec{X: 1, Y: 1, Z: 1})) // boundary leans inside
	assert.False(t, ContainsPoint(s, r3.Vec{X: 1.01}))

	rot := cube(r3.Vec{}, 2)
	rot.Transform.Rot = RotFromEuler(0, 0, math.Pi/4)
	assert.True(t, ContainsPoint(rot, r3.Vec{X: 1.3})) // inside the rotated reach
	assert.False(t, ContainsPoint(rot, r3.Vec{X: 1.3, Y: 1.3}))
}

func TestContainsPointBall(t *testing.T) {
	s := ball(r3.Vec{}, 4)
	assert.True(t, ContainsPoint(s, r3.Vec{X: 1.9}))
	assert.False(t, ContainsPoint(s, r3.Vec{X: 2.1}))
}

func TestContainsPointCylinder(t *testing.T) {
	s := Shape{Kind: KindCylinder, Transform: NewTransform(r3.Vec{}), Extent: r3.Vec{X: 4, Y: 6, Z: 4}}
	assert.True(t, ContainsPoint(s, r3.Vec{X: 1.9}))
	assert.False(t, ContainsPoint(s, r3.Vec{X: 1.5, Z: 1.5})) // radial corner cut off
	assert.True(t, ContainsPoint(s, r3.Vec{Y: 2.9}))
	assert.False(t, ContainsPoint(s, r3.Vec{Y: 3.1}))
}

func TestContainsPointWedge(t *testing.T) {
	s := Shape{Kind: KindWedge, Transform: NewTransform(r3.Vec{}), Extent: r3.Vec{X: 2, Y: 2, Z: 2}}
	assert.True(t, ContainsPoint(s, r3.Vec{Y: -0.5}))        // below the slope
	assert.False(t, ContainsPoint(s, r3.Vec{Y: 0.5}))        // above the slope
	assert.True(t, ContainsPoint(s, r3.Vec{Y: 0.5, Z: 0.9})) // slope rises toward +Z
	assert.False(t, ContainsPoint(s, r3.Vec{Y: -0.5, Z: -1.5}))
}

func TestContainsPointCornerWedge(t *testing.T) {
	s := Shape{Kind: KindCornerWedge, Transform: NewTransform(r3.Vec{}), Extent: r3.Vec{X: 2, Y: 2, Z: 2}}
	assert.True(t, ContainsPoint(s, r3.Vec{X: 0.5, Y: -0.9, Z: 0.5}))
	assert.True(t, ContainsPoint(s, r3.Vec{X: 0.99, Y: 0.98, Z: 0.99})) // near the apex
	assert.False(t, ContainsPoint(s, r3.Vec{X: -0.5, Y: 0.5, Z: -0.5}))
	assert.False(t, ContainsPoint(s, r3.Vec{X: -0.9, Y: 0.9, Z: 0.9}))
}

func TestVerticesCounts(t *testing.T) {
	assert.Len(t, Vertices(cube(r3.Vec{}, 2)), 8)
	assert.Len(t, Vertices(Shape{Kind: KindWedge, Transform: NewTransform(r3.Vec{}), Extent: r3.Vec{X: 2, Y: 2, Z: 2}}), 6)
	assert.Len(t, Vertices(Shape{Kind: KindCornerWedge, Transform: NewTransform(r3.Vec{}), Extent: r3.Vec{X: 2, Y: 2, Z: 2}}), 5)
}

func TestWedgeVerticesInsideOwnHalfSpaces(t *testing.T) {
	for _, kind := range []Kind{KindWedge, KindCornerWedge} {
		s := Shape{Kind: kind, Transform: NewTransform(r3.Vec{X: 1, Y: 2}), Extent: r3.Vec{X: 3, Y: 2, Z: 5}}
		s.Transform.Rot = RotFromEuler(0.2, -0.4, 0.9)
		for i, v := range Vertices(s) {
			assert.True(t, ContainsPoint(s, v), "%s vertex %d", kind, i)
		}
	}
}

func TestEncapsulatesBox(t *testing.T) {
	container := ball(r3.Vec{}, 4) // radius 2

	inner := cube(r3.Vec{}, 2) // corner distance sqrt(3)
	assert.True(t, EncapsulatesBox(container, inner.Transform, inner.Extent))

	outer := cube(r3.Vec{}, 3) // corner distance ~2.6
	assert.False(t, EncapsulatesBox(container, outer.Transform, outer.Extent))
}

func TestCylinderIntersectsBox(t *testing.T) {
	cyl := Shape{Kind: KindCylinder, Transform: NewTransform(r3.Vec{}), Extent: r3.Vec{X: 4, Y: 4, Z: 4}}

	t.Run("overlapping", func(t *testing.T) {
		assert.True(t, CylinderIntersectsBox(cyl, cube(r3.Vec{X: 2.5}, 2)))
	})
	t.Run("separated radially", func(t *testing.T) {
		assert.False(t, CylinderIntersectsBox(cyl, cube(r3.Vec{X: 3.5}, 2)))
	})
	t.Run("separated axially", func(t *testing.T) {
		assert.False(t, CylinderIntersectsBox(cyl, cube(r3.Vec{Y: 3.5}, 2)))
	})
	t.Run("box swallows cylinder", func(t *testing.T) {
		assert.True(t, CylinderIntersectsBox(cyl, cube(r3.Vec{}, 10)))
	})
	t.Run("diagonal corner outside radius", func(t *testing.T) {
		// Box corner nearest the axis sits beyond the radius.
		assert.False(t, CylinderIntersectsBox(cyl, cube(r3.Vec{X: 2.8, Z: 2.8}, 2)))
	})
}

func TestRadius(t *testing.T) {
	require.Equal(t, 2.0, ball(r3.Vec{}, 4).Radius())
	b := Shape{Kind: KindBall, Transform: NewTransform(r3.Vec{}), Extent: r3.Vec{X: 4, Y: 6, Z: 8}}
	assert.Equal(t, 2.0, b.Radius()) // min component governs

	c := Shape{Kind: KindCylinder, Transform: NewTransform(r3.Vec{}), Extent: r3.Vec{X: 4, Y: 10, Z: 6}}
	assert.Equal(t, 2.0, c.Radius()) // axis is Y, radius from X/Z
}

// Package voxel decomposes solid shapes into grid-aligned cells and
// classifies each cell against a cutting volume.
package voxel

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/voxfall/server/internal/geom"
)

// Class is the outcome of classifying one voxel against a cutting shape.
type Class int

const (
	ClassExterior Class = iota // untouched by the cut, survives
	ClassEdge                  // partially inside the cut, destroyed
	ClassInterior              // fully inside the cut, destroyed
	ClassSkip                  // excluded by a skip flag, survives
)

func (c Class) String() string {
	switch c {
	case ClassExterior:
		return "exterior"
	case ClassEdge:
		return "edge"
	case ClassInterior:
		return "interior"
	case ClassSkip:
		return "skip"
	}
	return "unknown"
}

// Voxel is one unit of decomposition. Cell holds the integer grid
// coordinates inside the source object's local frame; the mesh merger
// keys its traversal on them.
type Voxel struct {
	ID            int64
	Transform     geom.Transform
	Extent        r3.Vec
	Group         int64
	Class         Class
	AlreadyDebris bool
	Cell          [3]int
	GridSize      float64
}

// Shape returns the voxel's box envelope for geometric tests.
func (v *Voxel) Shape() geom.Shape {
	return geom.Shape{Kind: geom.KindBox, Transform: v.Transform, Extent: v.Extent}
}

// Corners returns the eight world-space corner points.
func (v *Voxel) Corners() []r3.Vec {
	return geom.Vertices(v.Shape())
}

// MinGridDefault bounds how fine a voxel grid can get; Voxelize clamps
// requested sizes below it so a large object cannot explode the cell count.
const MinGridDefault = 0.5

// Voxelize partitions a solid shape's local extent into cells of side
// gridSize (clamped to at least minGrid). Remainder cells at the far edge
// of each axis are sized to fit instead of overflowing the extent.
// Non-box shapes are decomposed over their bounding-box grid and filtered
// by containment against the source shape.
func Voxelize(src geom.Shape, gridSize, minGrid float64) []Voxel {
	if minGrid <= 0 {
		minGrid = MinGridDefault
	}
	if gridSize < minGrid {
		gridSize = minGrid
	}
	counts := CountVector(src.Extent, gridSize)
	half := r3.Scale(0.5, src.Extent)

	out := make([]Voxel, 0, counts[0]*counts[1]*counts[2])
	for ix := 0; ix < counts[0]; ix++ {
		sx, ex := span(-half.X, src.Extent.X, gridSize, ix)
		for iy := 0; iy < counts[1]; iy++ {
			sy, ey := span(-half.Y, src.Extent.Y, gridSize, iy)
			for iz := 0; iz < counts[2]; iz++ {
				sz, ez := span(-half.Z, src.Extent.Z, gridSize, iz)
				center := r3.Vec{X: sx + ex/2, Y: sy + ey/2, Z: sz + ez/2}
				v := Voxel{
					Transform: geom.Transform{
						Pos: src.Transform.Apply(center),
						Rot: src.Transform.Rot,
					},
					Extent:   r3.Vec{X: ex, Y: ey, Z: ez},
					Cell:     [3]int{ix, iy, iz},
					GridSize: gridSize,
				}
				if src.Kind != geom.KindBox && !cellTouchesShape(&v, src) {
					continue
				}
				out = append(out, v)
			}
		}
	}
	return out
}

// span returns the start offset and size of cell i along one axis.
// The last cell shrinks to fit the remaining extent.
func span(min, extent, grid float64, i int) (float64, float64) {
	start := min + float64(i)*grid
	size := grid
	if rest := min + extent - start; rest < size {
		size = rest
	}
	return start, size
}

// cellTouchesShape keeps bounding-box cells that actually overlap a
// non-box source: any corner or the center inside, or a positive
// intersection for cells straddling the surface.
func cellTouchesShape(v *Voxel, src geom.Shape) bool {
	if geom.ContainsPoint(src, v.Transform.Pos) {
		return true
	}
	if geom.ContainsAVert(src, v.Corners()) >= 0 {
		return true
	}
	return geom.Intersects(src, v.Shape())
}

// CountVector returns the number of grid cells per axis for an extent,
// never below 1 on any component.
func CountVector(extent r3.Vec, gridSize float64) [3]int {
	return [3]int{
		countAxis(extent.X, gridSize),
		countAxis(extent.Y, gridSize),
		countAxis(extent.Z, gridSize),
	}
}

func countAxis(extent, grid float64) int {
	if extent <= 0 || grid <= 0 {
		return 1
	}
	n := int(math.Ceil(extent/grid - 1e-9))
	if n < 1 {
		return 1
	}
	return n
}

// DistanceVector returns the component-wise offset from the voxel center
// to a world point, in the voxel's local frame. Exposed for effect
// callbacks; classification never uses it.
func DistanceVector(v *Voxel, p r3.Vec) r3.Vec {
	return v.Transform.ToLocal(p)
}

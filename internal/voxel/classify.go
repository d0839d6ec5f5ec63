package voxel

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/voxfall/server/internal/geom"
)

// Flags adjust classification behaviour for one destruction job.
type Flags struct {
	// SkipEncapsulated short-circuits fine voxelization when the cutting
	// shape swallows the whole object; the caller destroys it in one piece.
	SkipEncapsulated bool
	// SkipFloors reclassifies voxels of horizontal plates to ClassSkip.
	SkipFloors bool
	// SkipWalls reclassifies voxels of vertical plates to ClassSkip.
	SkipWalls bool
}

// floorWallTolerance is the angular tolerance (radians) for the floor and
// wall skip tests against the world up axis.
const floorWallTolerance = math.Pi / 12 // 15 degrees

// Classify tests one voxel against the cutting shape. Interior needs all
// eight corners contained; a single contained corner, or a corner-free
// intersection (thin cut passing through the cell), is Edge; otherwise
// Exterior. Skip flags win over everything. src is the object the voxel
// was cut from; its plate orientation drives the floor/wall tests.
func Classify(v *Voxel, cut, src geom.Shape, flags Flags) Class {
	if flags.SkipFloors && isFloorPlate(src) {
		return ClassSkip
	}
	if flags.SkipWalls && isWallPlate(src) {
		return ClassSkip
	}
	corners := v.Corners()
	inside := 0
	for _, c := range corners {
		if geom.ContainsPoint(cut, c) {
			inside++
		}
	}
	switch {
	case inside == len(corners):
		return ClassInterior
	case inside > 0:
		return ClassEdge
	case geom.Intersects(cut, v.Shape()):
		return ClassEdge
	default:
		return ClassExterior
	}
}

// isFloorPlate reports whether the source object's dominant face normal
// (the local axis of smallest extent) points within tolerance of world up.
func isFloorPlate(src geom.Shape) bool {
	n := dominantNormal(src)
	return math.Abs(n.Y) >= math.Cos(floorWallTolerance)
}

// isWallPlate reports whether the dominant face normal lies within
// tolerance of the horizontal plane.
func isWallPlate(src geom.Shape) bool {
	n := dominantNormal(src)
	return math.Abs(n.Y) <= math.Sin(floorWallTolerance)
}

func dominantNormal(src geom.Shape) r3.Vec {
	local := r3.Vec{X: 1}
	if src.Extent.Y <= src.Extent.X && src.Extent.Y <= src.Extent.Z {
		local = r3.Vec{Y: 1}
	} else if src.Extent.Z <= src.Extent.X && src.Extent.Z <= src.Extent.Y {
		local = r3.Vec{Z: 1}
	}
	return src.Transform.RotateDir(local)
}

// Encapsulated reports whether the cutting shape fully contains the
// object's oriented bounding box, the fast path behind SkipEncapsulated.
func Encapsulated(cut, object geom.Shape) bool {
	return geom.EncapsulatesBox(cut, object.Transform, object.Extent)
}

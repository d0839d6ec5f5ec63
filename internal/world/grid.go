package world

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/voxfall/server/internal/geom"
)

// VoxelGrid is a cell-based spatial index over live voxel blocks.
// Cell size is chosen so a region query touches a handful of cells for
// typical cutting-shape extents. Accessed only from the loop goroutine —
// no locks.

const cellSize = 16.0

type cellKey struct {
	cx, cy, cz int32
}

func toCell(v float64) int32 {
	if v < 0 {
		return int32((v - cellSize + 1) / cellSize)
	}
	return int32(v / cellSize)
}

// VoxelGrid tracks which voxel ids occupy which cells.
type VoxelGrid struct {
	cells map[cellKey]map[int64]struct{}
}

func NewVoxelGrid() *VoxelGrid {
	return &VoxelGrid{cells: make(map[cellKey]map[int64]struct{})}
}

// eachCell visits every cell a bounding box overlaps. Merged blocks span
// many cells; occupancy must cover all of them or region queries near a
// long block's far end miss it.
func (g *VoxelGrid) eachCell(min, max r3.Vec, fn func(cellKey)) {
	for cx := toCell(min.X); cx <= toCell(max.X); cx++ {
		for cy := toCell(min.Y); cy <= toCell(max.Y); cy++ {
			for cz := toCell(min.Z); cz <= toCell(max.Z); cz++ {
				fn(cellKey{cx, cy, cz})
			}
		}
	}
}

// Add places a voxel id into every cell its bounding box overlaps.
func (g *VoxelGrid) Add(id int64, min, max r3.Vec) {
	g.eachCell(min, max, func(k cellKey) {
		cell := g.cells[k]
		if cell == nil {
			cell = make(map[int64]struct{})
			g.cells[k] = cell
		}
		cell[id] = struct{}{}
	})
}

// Remove takes a voxel id out of the grid. Must be called with the same
// bounding box it was added under; voxel blocks never move while live.
func (g *VoxelGrid) Remove(id int64, min, max r3.Vec) {
	g.eachCell(min, max, func(k cellKey) {
		if cell := g.cells[k]; cell != nil {
			delete(cell, id)
			if len(cell) == 0 {
				delete(g.cells, k)
			}
		}
	})
}

// Nearby returns the distinct voxel ids in cells overlapped by the
// region's world-space bounding box, padded one cell on every side.
// Caller does the fine-grained geometric filtering.
func (g *VoxelGrid) Nearby(region geom.Shape) []int64 {
	min, max := aabb(region)
	pad := r3.Vec{X: cellSize, Y: cellSize, Z: cellSize}
	seen := make(map[int64]struct{})
	var out []int64
	g.eachCell(r3.Sub(min, pad), r3.Add(max, pad), func(k cellKey) {
		for id := range g.cells[k] {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	})
	return out
}

func aabb(s geom.Shape) (r3.Vec, r3.Vec) {
	verts := geom.Vertices(s.BoundingBox())
	min, max := verts[0], verts[0]
	for _, p := range verts[1:] {
		min = r3.Vec{X: minf(min.X, p.X), Y: minf(min.Y, p.Y), Z: minf(min.Z, p.Z)}
		max = r3.Vec{X: maxf(max.X, p.X), Y: maxf(max.Y, p.Y), Z: maxf(max.Z, p.Z)}
	}
	return min, max
}

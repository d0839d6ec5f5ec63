// Package mesher coalesces adjacent surviving voxels back into fewer,
// larger blocks with standard greedy meshing. Workers are cooperative
// units of interleaved work on the loop goroutine, not OS threads;
// per-tick budgets bound both CPU and object-creation cost regardless of
// destruction size.
package mesher

import (
	"sort"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/voxfall/server/internal/config"
	"github.com/voxfall/server/internal/geom"
	"github.com/voxfall/server/internal/registry"
	"github.com/voxfall/server/internal/voxel"
)

// Merger owns merge regions transiently: one region per enqueued group,
// discarded once its merged blocks are committed.
type Merger struct {
	cfg config.MesherConfig
	reg *registry.Registry
	log *zap.Logger

	queue   []*region
	workers []*region // at most cfg.WorkerCount regions in flight
}

func New(cfg config.MesherConfig, reg *registry.Registry, log *zap.Logger) *Merger {
	if cfg.WorkerCount < 1 {
		cfg.WorkerCount = 1
	}
	return &Merger{cfg: cfg, reg: reg, log: log}
}

// region is the intermediate grouping of one dirty group's surviving
// voxels laid back on their integer grid coordinates.
type region struct {
	groupID int64
	cells   map[[3]int]*voxel.Voxel
	order   [][3]int
	visited map[[3]int]bool
	cursor  int

	removed []int64
	added   []*voxel.Voxel
}

// Enqueue schedules a group's surviving voxels for coalescing. Voxels are
// snapshot by reference; a group that loses voxels while its region is in
// flight fails the commit-time check in ReplaceVoxels and stays unmerged.
func (m *Merger) Enqueue(groupID int64, voxels []*voxel.Voxel) {
	if len(voxels) < 2 {
		return
	}
	r := &region{
		groupID: groupID,
		cells:   make(map[[3]int]*voxel.Voxel, len(voxels)),
		visited: make(map[[3]int]bool, len(voxels)),
	}
	for _, v := range voxels {
		r.cells[v.Cell] = v
	}
	r.order = make([][3]int, 0, len(r.cells))
	for c := range r.cells {
		r.order = append(r.order, c)
	}
	// Fixed scan order: Z outer, Y middle, X inner.
	sort.Slice(r.order, func(i, j int) bool {
		a, b := r.order[i], r.order[j]
		if a[2] != b[2] {
			return a[2] < b[2]
		}
		if a[1] != b[1] {
			return a[1] < b[1]
		}
		return a[0] < b[0]
	})
	m.queue = append(m.queue, r)
}

// Done reports whether every enqueued region has been merged and committed.
func (m *Merger) Done() bool {
	return len(m.queue) == 0 && len(m.workers) == 0
}

// Tick runs one frame of cooperative merging: each worker consumes up to
// TraversalsPerFrame grid steps and PartCreationsPerFrame block emissions,
// round-robin. Completed regions commit atomically through the registry.
func (m *Merger) Tick() {
	for len(m.workers) < m.cfg.WorkerCount && len(m.queue) > 0 {
		m.workers = append(m.workers, m.queue[0])
		m.queue = m.queue[1:]
	}

	remaining := m.workers[:0]
	for _, r := range m.workers {
		traversals := m.cfg.TraversalsPerFrame
		creations := m.cfg.PartCreationsPerFrame
		done := r.step(&traversals, &creations)
		if done {
			if !m.reg.ReplaceVoxels(r.groupID, r.removed, r.added) {
				// The group changed while the region was in flight; the
				// survivors stay unmerged rather than resurrect a cut cell.
				m.log.Warn("merge commit aborted, group changed mid-merge",
					zap.Int64("group", r.groupID))
				continue
			}
			m.log.Debug("merged group",
				zap.Int64("group", r.groupID),
				zap.Int("removed", len(r.removed)),
				zap.Int("blocks", len(r.added)))
			continue
		}
		remaining = append(remaining, r)
	}
	m.workers = remaining
}

// step advances greedy meshing until a budget runs out or the region is
// fully visited. Returns true when finished.
func (r *region) step(traversals, creations *int) bool {
	for r.cursor < len(r.order) {
		if *traversals <= 0 || *creations <= 0 {
			return false
		}
		start := r.order[r.cursor]
		if r.visited[start] {
			r.cursor++
			continue
		}
		*traversals = *traversals - 1
		x1, y1, z1 := r.grow(start, traversals)
		r.emit(start, [3]int{x1, y1, z1}, creations)
	}
	return true
}

// grow extends a run from start along X, then the resulting row along Y,
// then the rectangle along Z, only over unvisited cells with identical
// classification that do not cross a previously merged boundary.
func (r *region) grow(start [3]int, traversals *int) (int, int, int) {
	ref := r.cells[start]
	x1 := start[0]
	for r.compatible([3]int{x1 + 1, start[1], start[2]}, ref, traversals) {
		x1++
	}
	y1 := start[1]
	for r.rowCompatible(start[0], x1, y1+1, start[2], ref, traversals) {
		y1++
	}
	z1 := start[2]
	for r.rectCompatible(start[0], x1, start[1], y1, z1+1, ref, traversals) {
		z1++
	}
	return x1, y1, z1
}

func (r *region) compatible(c [3]int, ref *voxel.Voxel, traversals *int) bool {
	if *traversals <= 0 {
		return false
	}
	*traversals = *traversals - 1
	v, ok := r.cells[c]
	return ok && !r.visited[c] &&
		v.Class == ref.Class && v.AlreadyDebris == ref.AlreadyDebris
}

func (r *region) rowCompatible(x0, x1, y, z int, ref *voxel.Voxel, traversals *int) bool {
	for x := x0; x <= x1; x++ {
		if !r.compatible([3]int{x, y, z}, ref, traversals) {
			return false
		}
	}
	return true
}

func (r *region) rectCompatible(x0, x1, y0, y1, z int, ref *voxel.Voxel, traversals *int) bool {
	for y := y0; y <= y1; y++ {
		if !r.rowCompatible(x0, x1, y, z, ref, traversals) {
			return false
		}
	}
	return true
}

// emit marks the box of cells visited and records one merged block.
// Single-cell runs are left untouched: replacing a block with itself is
// pure churn.
func (r *region) emit(min, max [3]int, creations *int) {
	if min == max {
		r.visited[min] = true
		return
	}
	vmin := r.cells[min]
	vmax := r.cells[max]
	for x := min[0]; x <= max[0]; x++ {
		for y := min[1]; y <= max[1]; y++ {
			for z := min[2]; z <= max[2]; z++ {
				c := [3]int{x, y, z}
				r.visited[c] = true
				r.removed = append(r.removed, r.cells[c].ID)
			}
		}
	}

	// All cells share one rotation; the merged block spans from the min
	// cell's low corner to the max cell's high corner.
	lo := vmin.Transform.Apply(r3.Scale(-0.5, vmin.Extent))
	hi := vmax.Transform.Apply(r3.Scale(0.5, vmax.Extent))
	center := r3.Scale(0.5, r3.Add(lo, hi))
	span := vmin.Transform.ToLocal(hi) // hi relative to vmin center, local frame
	span = r3.Sub(span, r3.Scale(-0.5, vmin.Extent))

	merged := &voxel.Voxel{
		Transform:     geom.Transform{Pos: center, Rot: vmin.Transform.Rot},
		Extent:        r3.Vec{X: abs(span.X), Y: abs(span.Y), Z: abs(span.Z)},
		Group:         vmin.Group,
		Class:         vmin.Class,
		AlreadyDebris: vmin.AlreadyDebris,
		Cell:          min,
		GridSize:      vmin.GridSize,
	}
	r.added = append(r.added, merged)
	*creations = *creations - 1
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

package world

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/voxfall/server/internal/geom"
	"github.com/voxfall/server/internal/voxel"
)

// SolidObject is a scene object eligible for destruction. The core never
// mutates a captured object; it only decides its fate and produces
// replacement voxels.
type SolidObject struct {
	ID           int64
	Name         string
	Shape        geom.Shape
	Tags         []string
	NonDivisible bool
}

// HasTag reports whether the object carries the given tag.
func (o *SolidObject) HasTag(tag string) bool {
	for _, t := range o.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// State is the in-memory scene: attached solid objects, live voxel blocks,
// and the spatial grid over them. Accessed only from the loop goroutine —
// no locks. The dirty-group registry funnels all provenance mutation;
// nothing else detaches objects or edits group voxel sets.
type State struct {
	objects  map[int64]*SolidObject
	attached map[int64]struct{}
	voxels   map[int64]*voxel.Voxel
	grid     *VoxelGrid

	nextObjectID int64
	nextVoxelID  int64
}

func NewState() *State {
	return &State{
		objects:  make(map[int64]*SolidObject),
		attached: make(map[int64]struct{}),
		voxels:   make(map[int64]*voxel.Voxel),
		grid:     NewVoxelGrid(),
	}
}

// AddObject registers a solid object and attaches it to the scene,
// assigning an id when the object has none.
func (s *State) AddObject(o *SolidObject) int64 {
	if o.ID == 0 {
		s.nextObjectID++
		o.ID = s.nextObjectID
	} else if o.ID > s.nextObjectID {
		s.nextObjectID = o.ID
	}
	s.objects[o.ID] = o
	s.attached[o.ID] = struct{}{}
	return o.ID
}

// Object returns a known object whether attached or not.
func (s *State) Object(id int64) *SolidObject {
	return s.objects[id]
}

// Attached reports whether the object is currently part of the live scene.
func (s *State) Attached(id int64) bool {
	_, ok := s.attached[id]
	return ok
}

// Detach removes an object from the live scene but keeps it registered.
// This is the "hide original" primitive behind group capture.
func (s *State) Detach(id int64) {
	delete(s.attached, id)
}

// Attach restores a detached object to the live scene.
func (s *State) Attach(id int64) {
	if _, ok := s.objects[id]; ok {
		s.attached[id] = struct{}{}
	}
}

// Remove deletes an object entirely (non-divisible policy "remove").
func (s *State) Remove(id int64) {
	delete(s.attached, id)
	delete(s.objects, id)
}

// AllAttached visits every attached object in unspecified order.
func (s *State) AllAttached(fn func(*SolidObject)) {
	for id := range s.attached {
		if o := s.objects[id]; o != nil {
			fn(o)
		}
	}
}

// AttachedCount returns the number of live scene objects.
func (s *State) AttachedCount() int {
	return len(s.attached)
}

// AddVoxel instantiates a voxel block in the scene, assigning its id.
func (s *State) AddVoxel(v *voxel.Voxel) int64 {
	if v.ID == 0 {
		s.nextVoxelID++
		v.ID = s.nextVoxelID
	}
	s.voxels[v.ID] = v
	min, max := aabb(v.Shape())
	s.grid.Add(v.ID, min, max)
	return v.ID
}

// RemoveVoxel deletes a voxel block from the scene.
func (s *State) RemoveVoxel(id int64) {
	if v, ok := s.voxels[id]; ok {
		min, max := aabb(v.Shape())
		s.grid.Remove(id, min, max)
		delete(s.voxels, id)
	}
}

// Voxel returns a live voxel block by id.
func (s *State) Voxel(id int64) *voxel.Voxel {
	return s.voxels[id]
}

// VoxelCount returns the number of live voxel blocks.
func (s *State) VoxelCount() int {
	return len(s.voxels)
}

// VoxelsInRegion returns ids of live voxels whose blocks intersect the
// region. The grid gives the candidate set; each candidate is then
// fine-tested geometrically.
func (s *State) VoxelsInRegion(region geom.Shape) []int64 {
	var out []int64
	for _, id := range s.grid.Nearby(region) {
		v := s.voxels[id]
		if v == nil {
			continue
		}
		if geom.Intersects(region, v.Shape()) {
			out = append(out, id)
		}
	}
	return out
}

// ObjectsIntersecting returns attached objects whose envelopes intersect
// the cutting shape. Broad phase for job submission.
func (s *State) ObjectsIntersecting(cut geom.Shape) []*SolidObject {
	var out []*SolidObject
	s.AllAttached(func(o *SolidObject) {
		if geom.Intersects(cut, o.Shape) {
			out = append(out, o)
		}
	})
	return out
}

// BoundingRegion returns a box shape covering the whole registered scene
// with the given slack on every side.
func (s *State) BoundingRegion(slack float64) geom.Shape {
	min := r3.Vec{X: -slack, Y: -slack, Z: -slack}
	max := r3.Vec{X: slack, Y: slack, Z: slack}
	first := true
	for _, o := range s.objects {
		for _, p := range geom.Vertices(o.Shape) {
			if first {
				min, max = p, p
				first = false
				continue
			}
			min = r3.Vec{X: minf(min.X, p.X), Y: minf(min.Y, p.Y), Z: minf(min.Z, p.Z)}
			max = r3.Vec{X: maxf(max.X, p.X), Y: maxf(max.Y, p.Y), Z: maxf(max.Z, p.Z)}
		}
	}
	center := r3.Scale(0.5, r3.Add(min, max))
	extent := r3.Add(r3.Sub(max, min), r3.Vec{X: 2 * slack, Y: 2 * slack, Z: 2 * slack})
	return geom.Shape{Kind: geom.KindBox, Transform: geom.NewTransform(center), Extent: extent}
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

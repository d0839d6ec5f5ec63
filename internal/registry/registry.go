// Package registry tracks provenance of every destructive modification.
// A DirtyGroup links the live voxels representing a damaged object back to
// the untouched original, which is detached from the scene but never
// destroyed — that is what makes exact restoration possible.
package registry

import (
	"errors"

	"go.uber.org/zap"

	"github.com/voxfall/server/internal/core/event"
	"github.com/voxfall/server/internal/geom"
	"github.com/voxfall/server/internal/voxel"
	"github.com/voxfall/server/internal/world"
)

// ErrCaptureConflict means the object is detached from the scene but not
// owned by any group here — some other party holds it. The division is
// skipped this tick and retried later.
var ErrCaptureConflict = errors.New("registry: object in conflicting state")

// DirtyGroup is the provenance record for one voxelized object.
// Exactly one group exists per original object, keyed by the object id,
// and lives for as long as the object has been modified.
type DirtyGroup struct {
	ID       int64
	Original *world.SolidObject
	Voxels   map[int64]struct{}
}

// OwnershipReverter is the replication-side hook invoked by Reset when the
// caller wants client/server ownership bookkeeping cleared too.
type OwnershipReverter interface {
	RevertOwnership()
}

// Registry owns all dirty groups and the hidden originals. All mutation of
// group voxel sets funnels through it; loop-goroutine access only.
type Registry struct {
	scene  *world.State
	bus    *event.Bus
	log    *zap.Logger
	groups map[int64]*DirtyGroup

	Ownership OwnershipReverter // optional, wired by the replication layer
}

func New(scene *world.State, bus *event.Bus, log *zap.Logger) *Registry {
	return &Registry{
		scene:  scene,
		bus:    bus,
		log:    log,
		groups: make(map[int64]*DirtyGroup),
	}
}

// Capture detaches an object from the scene on first voxelization and
// creates its dirty group. Idempotent: capturing a captured object returns
// the existing group.
func (r *Registry) Capture(obj *world.SolidObject) (*DirtyGroup, error) {
	if g, ok := r.groups[obj.ID]; ok {
		return g, nil
	}
	if !r.scene.Attached(obj.ID) {
		return nil, ErrCaptureConflict
	}
	r.scene.Detach(obj.ID)
	g := &DirtyGroup{
		ID:       obj.ID, // stable: derived from the object identity
		Original: obj,
		Voxels:   make(map[int64]struct{}),
	}
	r.groups[g.ID] = g
	event.Emit(r.bus, event.GroupCaptured{GroupID: g.ID, ObjectID: obj.ID})
	r.log.Debug("captured object",
		zap.Int64("group", g.ID),
		zap.String("name", obj.Name))
	return g, nil
}

// Group returns a live dirty group, or nil.
func (r *Registry) Group(id int64) *DirtyGroup {
	return r.groups[id]
}

// GroupCount returns the number of live dirty groups.
func (r *Registry) GroupCount() int {
	return len(r.groups)
}

// GetOriginalPart returns the untouched original behind a group, or nil.
func (r *Registry) GetOriginalPart(groupID int64) *world.SolidObject {
	if g, ok := r.groups[groupID]; ok {
		return g.Original
	}
	return nil
}

// AddVoxel instantiates a surviving voxel in the scene under a group.
func (r *Registry) AddVoxel(groupID int64, v *voxel.Voxel) int64 {
	g, ok := r.groups[groupID]
	if !ok {
		return 0
	}
	v.Group = groupID
	id := r.scene.AddVoxel(v)
	g.Voxels[id] = struct{}{}
	event.Emit(r.bus, event.VoxelCreated{VoxelID: id, GroupID: groupID})
	return id
}

// RemoveVoxel drops one live voxel from its group and the scene.
func (r *Registry) RemoveVoxel(groupID, voxelID int64) {
	g, ok := r.groups[groupID]
	if !ok {
		return
	}
	delete(g.Voxels, voxelID)
	r.scene.RemoveVoxel(voxelID)
}

// ReplaceVoxels atomically swaps merged-away constituents for their merged
// blocks. Readers between ticks never see the group half-swapped: the
// mutation happens in one call on the loop goroutine, removals and
// additions together. Returns false without touching anything when any
// removed id has already left the group (a cut landed mid-merge).
func (r *Registry) ReplaceVoxels(groupID int64, removed []int64, added []*voxel.Voxel) bool {
	g, ok := r.groups[groupID]
	if !ok {
		return false
	}
	// A removed id no longer in the group means the set changed after the
	// swap was prepared; committing would resurrect destroyed cells.
	for _, id := range removed {
		if _, live := g.Voxels[id]; !live {
			return false
		}
	}
	for _, id := range removed {
		delete(g.Voxels, id)
		r.scene.RemoveVoxel(id)
	}
	for _, v := range added {
		v.Group = groupID
		id := r.scene.AddVoxel(v)
		g.Voxels[id] = struct{}{}
	}
	return true
}

// ResetArea removes every live voxel intersecting the region. Groups whose
// remaining voxel set becomes empty are fully restorable: the original is
// reattached and the group dissolved. Groups with voxels left elsewhere
// stay split. Never fails; unknown state is a no-op.
func (r *Registry) ResetArea(region geom.Shape) {
	touched := make(map[int64]struct{})
	for _, id := range r.scene.VoxelsInRegion(region) {
		v := r.scene.Voxel(id)
		if v == nil {
			continue
		}
		if g, ok := r.groups[v.Group]; ok {
			delete(g.Voxels, id)
			touched[g.ID] = struct{}{}
		}
		r.scene.RemoveVoxel(id)
	}
	for gid := range touched {
		g := r.groups[gid]
		if len(g.Voxels) == 0 {
			r.restore(g)
		}
	}
}

// Reset restores every dirty group to its original object and clears all
// groups. With revertOwnership, replication ownership assignments are
// cleared too; without it they are left untouched so client and server
// group bookkeeping stay aligned across a soft reset.
func (r *Registry) Reset(revertOwnership bool) {
	for _, g := range r.groups {
		for id := range g.Voxels {
			r.scene.RemoveVoxel(id)
		}
		g.Voxels = make(map[int64]struct{})
		r.restore(g)
	}
	if revertOwnership && r.Ownership != nil {
		r.Ownership.RevertOwnership()
	}
}

func (r *Registry) restore(g *DirtyGroup) {
	r.scene.Attach(g.Original.ID)
	delete(r.groups, g.ID)
	event.Emit(r.bus, event.GroupRestored{GroupID: g.ID, ObjectID: g.Original.ID})
}

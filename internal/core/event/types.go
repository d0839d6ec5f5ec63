package event

import "gonum.org/v1/gonum/spatial/r3"

// Domain events crossing component boundaries. Emitted in tick N,
// delivered in tick N+1 by the bus's buffer swap.

// GroupCaptured fires when an object is voxelized for the first time and
// its dirty group is created.
type GroupCaptured struct {
	GroupID  int64
	ObjectID int64
}

// VoxelCreated fires for every surviving voxel instantiated in the scene.
type VoxelCreated struct {
	VoxelID int64
	GroupID int64
}

// VoxelDestroyed fires for every voxel removed by a cut. Debris voxels
// carry their last transform and a velocity hint for the puppet tracker.
type VoxelDestroyed struct {
	VoxelID int64
	GroupID int64
	IsEdge  bool
	Debris  bool
	Pos     r3.Vec
	Vel     r3.Vec
}

// JobCompleted fires when a destruction job has resolved all of its
// affected objects.
type JobCompleted struct {
	JobID     string
	Destroyed int
	Groups    []int64
}

// PuppetAnchored fires when settled debris is converted to static state
// and leaves the active replication set.
type PuppetAnchored struct {
	PuppetID int64
}

// GroupRestored fires when a reset reattaches an original object.
type GroupRestored struct {
	GroupID  int64
	ObjectID int64
}

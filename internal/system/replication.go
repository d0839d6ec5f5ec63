package system

import (
	"time"

	"github.com/voxfall/server/internal/core/event"
	coresys "github.com/voxfall/server/internal/core/system"
	"github.com/voxfall/server/internal/geom"
	"github.com/voxfall/server/internal/replicate"
)

// ReplicationSystem feeds freshly destroyed debris voxels into the
// compressor and advances puppet replication.
type ReplicationSystem struct {
	comp *replicate.Compressor
}

func NewReplicationSystem(comp *replicate.Compressor, bus *event.Bus) *ReplicationSystem {
	s := &ReplicationSystem{comp: comp}
	event.Subscribe(bus, func(ev event.VoxelDestroyed) {
		if !ev.Debris {
			return
		}
		s.comp.Track(ev.VoxelID, ev.GroupID, geom.Transform{Pos: ev.Pos, Rot: geom.RotIdentity()}, ev.Vel)
	})
	return s
}

func (s *ReplicationSystem) Phase() coresys.Phase { return coresys.PhaseReplicate }

func (s *ReplicationSystem) Update(dt time.Duration) {
	s.comp.Tick(dt.Seconds())
}

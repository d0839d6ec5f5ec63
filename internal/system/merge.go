package system

import (
	"time"

	coresys "github.com/voxfall/server/internal/core/system"
	"github.com/voxfall/server/internal/mesher"
)

// MergeSystem advances the greedy mesher after destruction has settled
// the tick's voxel inserts.
type MergeSystem struct {
	merger *mesher.Merger
}

func NewMergeSystem(m *mesher.Merger) *MergeSystem {
	return &MergeSystem{merger: m}
}

func (s *MergeSystem) Phase() coresys.Phase { return coresys.PhaseMerge }

func (s *MergeSystem) Update(_ time.Duration) {
	s.merger.Tick()
}

package system

import (
	"time"

	"go.uber.org/zap"

	coresys "github.com/voxfall/server/internal/core/system"
	"github.com/voxfall/server/internal/destruct"
	"github.com/voxfall/server/internal/registry"
	"github.com/voxfall/server/internal/replicate"
	"github.com/voxfall/server/internal/world"
)

const statsInterval = 10 * time.Second

// StatsSystem periodically logs scene and pipeline counters.
type StatsSystem struct {
	scene *world.State
	reg   *registry.Registry
	sched *destruct.Scheduler
	comp  *replicate.Compressor
	log   *zap.Logger

	since time.Duration
}

func NewStatsSystem(scene *world.State, reg *registry.Registry, sched *destruct.Scheduler, comp *replicate.Compressor, log *zap.Logger) *StatsSystem {
	return &StatsSystem{scene: scene, reg: reg, sched: sched, comp: comp, log: log}
}

func (s *StatsSystem) Phase() coresys.Phase { return coresys.PhaseCleanup }

func (s *StatsSystem) Update(dt time.Duration) {
	s.since += dt
	if s.since < statsInterval {
		return
	}
	s.since = 0
	s.log.Info("tick stats",
		zap.Int("objects", s.scene.AttachedCount()),
		zap.Int("voxels", s.scene.VoxelCount()),
		zap.Int("groups", s.reg.GroupCount()),
		zap.Int("queued_jobs", s.sched.QueueLen()),
		zap.Int("puppets", s.comp.ActiveCount()),
	)
}

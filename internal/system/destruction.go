package system

import (
	"time"

	coresys "github.com/voxfall/server/internal/core/system"
	"github.com/voxfall/server/internal/destruct"
)

// DestructionSystem drives the scheduler's budgeted work each tick.
type DestructionSystem struct {
	sched *destruct.Scheduler
}

func NewDestructionSystem(sched *destruct.Scheduler) *DestructionSystem {
	return &DestructionSystem{sched: sched}
}

func (s *DestructionSystem) Phase() coresys.Phase { return coresys.PhaseDestruct }

func (s *DestructionSystem) Update(_ time.Duration) {
	s.sched.Tick()
}

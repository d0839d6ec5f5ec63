package system

import (
	"time"

	"github.com/voxfall/server/internal/core/event"
	coresys "github.com/voxfall/server/internal/core/system"
)

// EventDispatchSystem rotates the bus buffers at tick start and delivers
// last tick's events to subscribers. Phase 0 so every later phase sees a
// stable front buffer.
type EventDispatchSystem struct {
	bus *event.Bus
}

func NewEventDispatchSystem(bus *event.Bus) *EventDispatchSystem {
	return &EventDispatchSystem{bus: bus}
}

func (s *EventDispatchSystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (s *EventDispatchSystem) Update(_ time.Duration) {
	s.bus.SwapBuffers()
	s.bus.DispatchAll()
}

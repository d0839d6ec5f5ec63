package system

import "time"

// Phase defines execution ordering within a single tick.
type Phase int

const (
	PhaseInput     Phase = iota // 0: dispatch last tick's events
	PhaseDestruct               // 1: budgeted destruction job processing
	PhaseMerge                  // 2: greedy-mesh worker steps
	PhaseReplicate              // 3: puppet sampling + snapshot emission
	PhaseCleanup                // 4: resolve instant jobs, drop finished state
)

// System is the interface every per-tick pipeline stage implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}

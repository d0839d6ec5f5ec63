package system

import "time"

// Runner drives the tick pipeline. Systems run in ascending phase order,
// stable within a phase by registration order.
type Runner struct {
	systems []System
}

func NewRunner() *Runner {
	return &Runner{}
}

// Register inserts a system at its phase position, keeping the slice
// ordered so Tick is a plain walk.
func (r *Runner) Register(s System) {
	i := len(r.systems)
	for i > 0 && r.systems[i-1].Phase() > s.Phase() {
		i--
	}
	r.systems = append(r.systems, nil)
	copy(r.systems[i+1:], r.systems[i:])
	r.systems[i] = s
}

// Len returns the number of registered systems.
func (r *Runner) Len() int {
	return len(r.systems)
}

// Tick runs one full pipeline pass.
func (r *Runner) Tick(dt time.Duration) {
	for _, s := range r.systems {
		s.Update(dt)
	}
}

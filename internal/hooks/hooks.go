// Package hooks is the named effect-callback registry. The destruction
// core invokes one hook per finalized voxel outcome and assumes nothing
// about the callback beyond synchronous execution.
package hooks

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/voxfall/server/internal/geom"
	"github.com/voxfall/server/internal/voxel"
)

// Info accompanies every hook invocation.
type Info struct {
	GroupID       int64
	CuttingShape  geom.Shape
	IsEdge        bool
	AlreadyDebris bool
	UserData      any
}

// Hook runs synchronously and may read or write the voxel it is given.
type Hook func(v *voxel.Voxel, info Info)

// Registry maps hook names to callbacks. Registration happens at
// configuration time, from Go or from Lua scripts; invocation happens on
// the loop goroutine only.
type Registry struct {
	log   *zap.Logger
	named map[string]Hook
}

func NewRegistry(log *zap.Logger) *Registry {
	return &Registry{
		log:   log,
		named: make(map[string]Hook),
	}
}

// Register adds a hook under a unique name. Duplicate names are rejected
// and leave the existing registration, and any running jobs, untouched.
func (r *Registry) Register(name string, fn Hook) error {
	if _, ok := r.named[name]; ok {
		return fmt.Errorf("hooks: %q already registered", name)
	}
	r.named[name] = fn
	return nil
}

// Invoke dispatches the named hook for one voxel outcome. An unknown name
// fails only this dispatch: the voxel is treated as if no effect were
// registered, and the miss is logged as a warning.
func (r *Registry) Invoke(name string, v *voxel.Voxel, info Info) bool {
	fn, ok := r.named[name]
	if !ok {
		r.log.Warn("unknown effect hook", zap.String("name", name))
		return false
	}
	fn(v, info)
	return true
}

// Has reports whether a hook is registered under the name.
func (r *Registry) Has(name string) bool {
	_, ok := r.named[name]
	return ok
}

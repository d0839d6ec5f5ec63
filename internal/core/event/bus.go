// Package event carries the destruction pipeline's cross-phase signals:
// group captures, voxel creation and destruction, job completion, puppet
// anchoring. Delivery is double-buffered so a phase never observes events
// emitted earlier in the same tick.
package event

import (
	"reflect"
	"sync"
)

// queue is the per-type event pair: emits land in pending, dispatch reads
// from ready.
type queue struct {
	ready   []any
	pending []any
}

// Bus routes typed events to typed handlers. Emit and dispatch run on the
// loop goroutine; only handler registration is guarded, since Lua and
// setup code may subscribe before the loop starts.
type Bus struct {
	mu       sync.Mutex
	queues   map[reflect.Type]*queue
	handlers map[reflect.Type][]any
}

func NewBus() *Bus {
	return &Bus{
		queues:   make(map[reflect.Type]*queue),
		handlers: make(map[reflect.Type][]any),
	}
}

func (b *Bus) queueFor(t reflect.Type) *queue {
	q, ok := b.queues[t]
	if !ok {
		q = &queue{}
		b.queues[t] = q
	}
	return q
}

// Emit records an event for delivery on the next tick. Emitting from
// inside a handler is fine: the pending side is never the one being read.
func Emit[T any](b *Bus, ev T) {
	t := reflect.TypeOf((*T)(nil)).Elem()
	q := b.queueFor(t)
	q.pending = append(q.pending, ev)
}

// Subscribe registers a handler for events of type T.
func Subscribe[T any](b *Bus, fn func(T)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	t := reflect.TypeOf((*T)(nil)).Elem()
	b.handlers[t] = append(b.handlers[t], fn)
}

// SwapBuffers promotes pending events to ready and clears the old ready
// side. Called once at tick start, before any phase runs.
func (b *Bus) SwapBuffers() {
	for _, q := range b.queues {
		q.ready, q.pending = q.pending, q.ready[:0]
	}
}

// DispatchAll delivers every ready event to its handlers in emission order.
func (b *Bus) DispatchAll() {
	for t, q := range b.queues {
		if len(q.ready) == 0 {
			continue
		}
		for _, h := range b.handlers[t] {
			hv := reflect.ValueOf(h)
			for _, ev := range q.ready {
				hv.Call([]reflect.Value{reflect.ValueOf(ev)})
			}
		}
	}
}

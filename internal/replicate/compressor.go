// Package replicate keeps remote viewers synchronized with free-falling
// debris at bounded bandwidth. Physics integration belongs to the host;
// this layer samples puppet state, compresses it into periodic snapshots,
// and retires settled debris from the active set.
package replicate

import (
	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/voxfall/server/internal/config"
	"github.com/voxfall/server/internal/core/event"
	"github.com/voxfall/server/internal/geom"
)

// Snapshot is one compressed puppet record handed to the transport.
type Snapshot struct {
	PuppetID  int64
	Transform geom.Transform
	Velocity  r3.Vec
	Timestamp float64 // seconds of simulation time
}

// Transport is the replication boundary. Framing, delivery, and observer
// exclusion are its problem; a failed ownership assignment is recoverable
// (the puppet keeps simulating locally, unreplicated).
type Transport interface {
	Broadcast(snaps []Snapshot) error
	AssignOwnership(puppetID int64) error
}

// Puppet is one debris object under active replication. The VoxelID is a
// non-owning reference to the backing block; zero when the block was
// destroyed rather than instantiated.
type Puppet struct {
	ID        int64
	VoxelID   int64
	GroupID   int64
	Transform geom.Transform
	Velocity  r3.Vec
	AngVel    r3.Vec

	seq        int64   // creation order, eviction priority
	sleepFor   float64 // seconds below the sleep velocity
	Sleeping   bool
	replicated bool // false after an ownership failure
}

// Compressor owns all puppet records. Loop-goroutine access only.
type Compressor struct {
	cfg       config.ReplicationConfig
	transport Transport
	bus       *event.Bus
	log       *zap.Logger

	puppets map[int64]*Puppet
	nextID  int64
	nextSeq int64

	clock    float64 // simulation seconds
	lastEmit float64
}

func New(cfg config.ReplicationConfig, transport Transport, bus *event.Bus, log *zap.Logger) *Compressor {
	return &Compressor{
		cfg:       cfg,
		transport: transport,
		bus:       bus,
		log:       log,
		puppets:   make(map[int64]*Puppet),
	}
}

// Track promotes a debris voxel to an active puppet. When the bounded set
// is full, the oldest puppet is anchored to make room.
func (c *Compressor) Track(voxelID, groupID int64, t geom.Transform, vel r3.Vec) *Puppet {
	for len(c.puppets) >= c.cfg.PuppetMaxCount {
		c.anchor(c.oldest())
	}
	c.nextID++
	c.nextSeq++
	p := &Puppet{
		ID:        c.nextID,
		VoxelID:   voxelID,
		GroupID:   groupID,
		Transform: t,
		Velocity:  vel,
		seq:       c.nextSeq,
	}
	c.puppets[p.ID] = p
	if c.transport != nil {
		if err := c.transport.AssignOwnership(p.ID); err != nil {
			// Recoverable: keep simulating locally without remote sync.
			p.replicated = false
			c.log.Warn("puppet ownership assignment failed",
				zap.Int64("puppet", p.ID), zap.Error(err))
		} else {
			p.replicated = true
		}
	}
	return p
}

// SetState is the physics collaborator's feed: latest transform and
// velocity for one puppet.
func (c *Compressor) SetState(id int64, t geom.Transform, vel r3.Vec) {
	if p, ok := c.puppets[id]; ok {
		p.Transform = t
		p.Velocity = vel
	}
}

// Puppet returns an active puppet, or nil.
func (c *Compressor) Puppet(id int64) *Puppet {
	return c.puppets[id]
}

// ActiveCount returns the number of puppets under replication.
func (c *Compressor) ActiveCount() int {
	return len(c.puppets)
}

// Tick advances sleep tracking and, at the replication frequency, emits a
// compressed snapshot per active replicated puppet.
func (c *Compressor) Tick(dt float64) {
	c.clock += dt

	var anchored []int64
	for _, p := range c.puppets {
		if r3.Norm(p.Velocity) < c.cfg.PuppetSleepVelocity {
			p.sleepFor += dt
			p.Sleeping = true
		} else {
			p.sleepFor = 0
			p.Sleeping = false
		}
		if p.sleepFor >= c.cfg.PuppetAnchorTimeout {
			anchored = append(anchored, p.ID)
		}
	}
	for _, id := range anchored {
		c.anchor(c.puppets[id])
	}

	if c.cfg.PuppetReplicationFrequency <= 0 {
		return
	}
	interval := 1.0 / c.cfg.PuppetReplicationFrequency
	if c.clock-c.lastEmit < interval {
		return
	}
	c.lastEmit = c.clock

	snaps := make([]Snapshot, 0, len(c.puppets))
	for _, p := range c.puppets {
		if !p.replicated {
			continue
		}
		snaps = append(snaps, Snapshot{
			PuppetID:  p.ID,
			Transform: p.Transform,
			Velocity:  p.Velocity,
			Timestamp: c.clock,
		})
	}
	if len(snaps) == 0 || c.transport == nil {
		return
	}
	if err := c.transport.Broadcast(snaps); err != nil {
		c.log.Warn("snapshot broadcast failed",
			zap.Int("puppets", len(snaps)), zap.Error(err))
	}
}

// anchor converts a puppet to static state and drops it from the active
// set, bounding long-tail replication cost from settled debris.
func (c *Compressor) anchor(p *Puppet) {
	if p == nil {
		return
	}
	delete(c.puppets, p.ID)
	event.Emit(c.bus, event.PuppetAnchored{PuppetID: p.ID})
}

// RevertOwnership clears all puppet records; used by the registry's hard
// reset to align client and server bookkeeping.
func (c *Compressor) RevertOwnership() {
	c.puppets = make(map[int64]*Puppet)
}

func (c *Compressor) oldest() *Puppet {
	var best *Puppet
	for _, p := range c.puppets {
		if best == nil || p.seq < best.seq {
			best = p
		}
	}
	return best
}

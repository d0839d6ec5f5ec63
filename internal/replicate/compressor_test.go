package replicate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/voxfall/server/internal/config"
	"github.com/voxfall/server/internal/core/event"
	"github.com/voxfall/server/internal/geom"
)

type fakeTransport struct {
	broadcasts   [][]Snapshot
	assigned     []int64
	assignErr    error
	broadcastErr error
}

func (f *fakeTransport) Broadcast(snaps []Snapshot) error {
	cp := append([]Snapshot(nil), snaps...)
	f.broadcasts = append(f.broadcasts, cp)
	return f.broadcastErr
}

func (f *fakeTransport) AssignOwnership(id int64) error {
	f.assigned = append(f.assigned, id)
	return f.assignErr
}

func testCfg() config.ReplicationConfig {
	return config.Defaults().Replication
}

func at(x float64) geom.Transform {
	return geom.NewTransform(r3.Vec{X: x})
}

func TestTrackAssignsOwnership(t *testing.T) {
	tr := &fakeTransport{}
	c := New(testCfg(), tr, event.NewBus(), zap.NewNop())

	p := c.Track(7, 3, at(0), r3.Vec{Y: -9})
	require.NotNil(t, p)
	assert.Equal(t, int64(7), p.VoxelID)
	assert.Equal(t, int64(3), p.GroupID)
	assert.Equal(t, 1, c.ActiveCount())
	assert.Equal(t, []int64{p.ID}, tr.assigned)
	assert.Same(t, p, c.Puppet(p.ID))
}

func TestTrackEvictsOldestAtCapacity(t *testing.T) {
	cfg := testCfg()
	cfg.PuppetMaxCount = 3
	bus := event.NewBus()
	c := New(cfg, &fakeTransport{}, bus, zap.NewNop())

	var anchored []int64
	event.Subscribe(bus, func(ev event.PuppetAnchored) {
		anchored = append(anchored, ev.PuppetID)
	})

	first := c.Track(1, 1, at(0), r3.Vec{})
	c.Track(2, 1, at(1), r3.Vec{})
	c.Track(3, 1, at(2), r3.Vec{})
	assert.Equal(t, 3, c.ActiveCount())

	fourth := c.Track(4, 1, at(3), r3.Vec{})
	assert.Equal(t, 3, c.ActiveCount())
	assert.Nil(t, c.Puppet(first.ID), "oldest evicted to make room")
	assert.NotNil(t, c.Puppet(fourth.ID))

	bus.SwapBuffers()
	bus.DispatchAll()
	assert.Equal(t, []int64{first.ID}, anchored)
}

func TestSleepingPuppetAnchorsAfterTimeout(t *testing.T) {
	cfg := testCfg()
	cfg.PuppetSleepVelocity = 0.5
	cfg.PuppetAnchorTimeout = 1.0
	c := New(cfg, &fakeTransport{}, event.NewBus(), zap.NewNop())

	slow := c.Track(1, 1, at(0), r3.Vec{X: 0.1})
	fast := c.Track(2, 1, at(1), r3.Vec{X: 5})

	c.Tick(0.5)
	require.NotNil(t, c.Puppet(slow.ID))
	assert.True(t, c.Puppet(slow.ID).Sleeping)
	assert.False(t, c.Puppet(fast.ID).Sleeping)

	c.Tick(0.5)
	assert.Nil(t, c.Puppet(slow.ID), "anchored at the timeout")
	assert.NotNil(t, c.Puppet(fast.ID))
}

func TestMovementResetsSleepAccumulation(t *testing.T) {
	cfg := testCfg()
	cfg.PuppetSleepVelocity = 0.5
	cfg.PuppetAnchorTimeout = 1.0
	c := New(cfg, &fakeTransport{}, event.NewBus(), zap.NewNop())

	p := c.Track(1, 1, at(0), r3.Vec{X: 0.1})
	c.Tick(0.9)
	require.NotNil(t, c.Puppet(p.ID))

	// A nudge above the sleep velocity restarts the clock.
	c.SetState(p.ID, at(1), r3.Vec{X: 2})
	c.Tick(0.5)
	require.NotNil(t, c.Puppet(p.ID))
	assert.False(t, c.Puppet(p.ID).Sleeping)

	c.SetState(p.ID, at(1), r3.Vec{X: 0.1})
	c.Tick(0.9)
	assert.NotNil(t, c.Puppet(p.ID), "fresh accumulation below the timeout")
	c.Tick(0.2)
	assert.Nil(t, c.Puppet(p.ID))
}

func TestSnapshotFrequencyGating(t *testing.T) {
	cfg := testCfg()
	cfg.PuppetReplicationFrequency = 10 // 100ms interval
	cfg.PuppetSleepVelocity = 0         // keep puppets awake
	tr := &fakeTransport{}
	c := New(cfg, tr, event.NewBus(), zap.NewNop())
	c.Track(1, 1, at(0), r3.Vec{X: 3})

	// 60ms ticks: every second tick crosses the emit interval.
	for i := 0; i < 10; i++ {
		c.Tick(0.06)
	}
	assert.Len(t, tr.broadcasts, 5)
	for _, snaps := range tr.broadcasts {
		require.Len(t, snaps, 1)
		assert.Equal(t, r3.Vec{X: 3}, snaps[0].Velocity)
	}
}

func TestOwnershipFailureExcludesFromSnapshots(t *testing.T) {
	cfg := testCfg()
	cfg.PuppetSleepVelocity = 0
	tr := &fakeTransport{assignErr: errors.New("no owner available")}
	c := New(cfg, tr, event.NewBus(), zap.NewNop())

	p := c.Track(1, 1, at(0), r3.Vec{X: 3})
	require.NotNil(t, c.Puppet(p.ID), "still simulated locally")

	c.Tick(0.2)
	assert.Empty(t, tr.broadcasts, "unreplicated puppets never broadcast")
}

func TestBroadcastErrorIsNonFatal(t *testing.T) {
	cfg := testCfg()
	cfg.PuppetSleepVelocity = 0
	tr := &fakeTransport{broadcastErr: errors.New("link down")}
	c := New(cfg, tr, event.NewBus(), zap.NewNop())
	p := c.Track(1, 1, at(0), r3.Vec{X: 3})

	c.Tick(0.2)
	c.Tick(0.2)
	assert.NotNil(t, c.Puppet(p.ID))
	assert.Len(t, tr.broadcasts, 2, "keeps trying on later intervals")
}

func TestRevertOwnershipClearsPuppets(t *testing.T) {
	c := New(testCfg(), &fakeTransport{}, event.NewBus(), zap.NewNop())
	c.Track(1, 1, at(0), r3.Vec{})
	c.Track(2, 1, at(1), r3.Vec{})
	require.Equal(t, 2, c.ActiveCount())

	c.RevertOwnership()
	assert.Equal(t, 0, c.ActiveCount())
}

func TestTweenerLerpsWithinLimit(t *testing.T) {
	cfg := testCfg()
	cfg.ClientTweenPuppets = true
	cfg.ClientTweenDistanceLimit = 40
	tw := NewTweener(cfg)

	current := at(0)
	snap := Snapshot{Transform: at(10)}

	got := tw.Apply(current, snap, 0.25)
	assert.InDelta(t, 2.5, got.Pos.X, 1e-9)
	assert.Equal(t, snap.Transform.Rot, got.Rot, "rotation always snaps")

	got = tw.Apply(current, snap, 2.0) // alpha clamped to 1
	assert.InDelta(t, 10, got.Pos.X, 1e-9)
	got = tw.Apply(current, snap, -1) // alpha clamped to 0
	assert.InDelta(t, 0, got.Pos.X, 1e-9)
}

func TestTweenerSnapsPastDistanceLimit(t *testing.T) {
	cfg := testCfg()
	cfg.ClientTweenPuppets = true
	cfg.ClientTweenDistanceLimit = 40
	tw := NewTweener(cfg)

	snap := Snapshot{Transform: at(100)}
	got := tw.Apply(at(0), snap, 0.1)
	assert.Equal(t, snap.Transform, got, "long jumps apply directly")
}

func TestTweenerDisabledAlwaysSnaps(t *testing.T) {
	cfg := testCfg()
	cfg.ClientTweenPuppets = false
	tw := NewTweener(cfg)

	snap := Snapshot{Transform: at(5)}
	got := tw.Apply(at(0), snap, 0.1)
	assert.Equal(t, snap.Transform, got)
}

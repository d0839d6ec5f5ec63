package replicate

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/voxfall/server/internal/config"
	"github.com/voxfall/server/internal/geom"
)

// Tweener is the receiver-side smoother: between snapshots a viewer
// interpolates puppet transforms locally, but only within the configured
// distance limit. Past it the snapshot applies directly so long jumps
// never lag or overshoot visibly.
type Tweener struct {
	cfg config.ReplicationConfig
}

func NewTweener(cfg config.ReplicationConfig) *Tweener {
	return &Tweener{cfg: cfg}
}

// Apply blends the current local transform toward a snapshot. alpha is the
// interpolation fraction for this frame in [0,1].
func (t *Tweener) Apply(current geom.Transform, snap Snapshot, alpha float64) geom.Transform {
	if !t.cfg.ClientTweenPuppets {
		return snap.Transform
	}
	dist := r3.Norm(r3.Sub(snap.Transform.Pos, current.Pos))
	if dist > t.cfg.ClientTweenDistanceLimit {
		return snap.Transform
	}
	if alpha < 0 {
		alpha = 0
	} else if alpha > 1 {
		alpha = 1
	}
	return geom.Transform{
		Pos: r3.Add(current.Pos, r3.Scale(alpha, r3.Sub(snap.Transform.Pos, current.Pos))),
		// Rotation snaps: debris orientation error is visually negligible
		// next to position error at these update rates.
		Rot: snap.Transform.Rot,
	}
}

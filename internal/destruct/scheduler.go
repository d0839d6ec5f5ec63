// Package destruct schedules destruction jobs across simulation ticks.
// Heavy work is amortized under two per-frame caps: how many objects may
// be voxelized (divisions) and how many classification plus registry
// operations may run (ops). One tick never blocks on destruction size.
package destruct

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/voxfall/server/internal/config"
	"github.com/voxfall/server/internal/core/event"
	"github.com/voxfall/server/internal/hooks"
	"github.com/voxfall/server/internal/mesher"
	"github.com/voxfall/server/internal/registry"
	"github.com/voxfall/server/internal/voxel"
	"github.com/voxfall/server/internal/world"
)

var ErrInvalidShape = errors.New("destruct: invalid cutting shape")

// SkipPredicate lets configuration exclude objects per job; returning true
// skips the object.
type SkipPredicate func(*world.SolidObject) bool

// Scheduler owns every destruction job for its lifetime. Mutation of the
// queue happens only through submission, per-tick dequeue, and cancellation;
// loop-goroutine access only.
type Scheduler struct {
	cfg    func() config.DestructionConfig // current settings, snapshot per job
	scene  *world.State
	reg    *registry.Registry
	merger *mesher.Merger
	fx     *hooks.Registry
	bus    *event.Bus
	log    *zap.Logger

	Skip SkipPredicate // optional per-object skip predicate

	queue []*Job
	seq   int64
}

func NewScheduler(
	cfg func() config.DestructionConfig,
	scene *world.State,
	reg *registry.Registry,
	merger *mesher.Merger,
	fx *hooks.Registry,
	bus *event.Bus,
	log *zap.Logger,
) *Scheduler {
	return &Scheduler{
		cfg:    cfg,
		scene:  scene,
		reg:    reg,
		merger: merger,
		fx:     fx,
		bus:    bus,
		log:    log,
	}
}

// Destroy submits an incremental destruction job. Invalid shapes are
// rejected synchronously and never enter the queue.
func (s *Scheduler) Destroy(opts Options) (*Job, error) {
	j, err := s.submit(opts)
	if err != nil {
		return nil, err
	}
	return j, nil
}

// DestroyNow submits a job that bypasses the per-frame caps and resolves
// at the end of the next tick. The caller awaits the returned channel;
// one frame of latency buys a complete-in-one-call result without
// blocking the loop.
func (s *Scheduler) DestroyNow(opts Options) (<-chan Result, error) {
	j, err := s.submit(opts)
	if err != nil {
		return nil, err
	}
	j.instant = true
	j.done = make(chan Result, 1)
	return j.done, nil
}

// ImaginaryVoxels submits a dry run: voxels are classified and returned
// but no group is captured and the scene is untouched.
func (s *Scheduler) ImaginaryVoxels(opts Options) (<-chan Result, error) {
	j, err := s.submit(opts)
	if err != nil {
		return nil, err
	}
	j.dryRun = true
	j.instant = true
	j.done = make(chan Result, 1)
	return j.done, nil
}

func (s *Scheduler) submit(opts Options) (*Job, error) {
	if !opts.Shape.Valid() {
		return nil, fmt.Errorf("%w: kind=%s extent=%v",
			ErrInvalidShape, opts.Shape.Kind, opts.Shape.Extent)
	}
	s.seq++
	j := newJob(opts, s.cfg(), s.seq)

	// Broad phase at submission pins the affected object set.
	seen := make(map[int64]struct{})
	for _, o := range s.scene.ObjectsIntersecting(opts.Shape) {
		if !j.matchesTags(o.Tags) {
			continue
		}
		if s.Skip != nil && s.Skip(o) {
			continue
		}
		seen[o.ID] = struct{}{}
		j.pending = append(j.pending, o.ID)
	}
	// Captured objects are detached and invisible to the object broad
	// phase; their live voxels stand in for them.
	for _, id := range s.scene.VoxelsInRegion(opts.Shape) {
		v := s.scene.Voxel(id)
		if v == nil || v.Group == 0 {
			continue
		}
		if _, ok := seen[v.Group]; ok {
			continue
		}
		o := s.scene.Object(v.Group)
		if o != nil {
			if !j.matchesTags(o.Tags) {
				continue
			}
			if s.Skip != nil && s.Skip(o) {
				continue
			}
		}
		seen[v.Group] = struct{}{}
		j.pending = append(j.pending, v.Group)
	}
	s.queue = append(s.queue, j)
	s.log.Debug("job submitted",
		zap.String("job", j.ID),
		zap.String("shape", j.opts.Shape.Kind.String()),
		zap.Int("objects", len(j.pending)))
	return j, nil
}

// ClearQueue transitions every queued and processing job to cancelled.
// Cancellation is forward-only: voxel state already committed stands.
func (s *Scheduler) ClearQueue() {
	for _, j := range s.queue {
		j.State = JobCancelled
		if j.done != nil {
			j.done <- j.result()
		}
	}
	s.queue = s.queue[:0]
}

// QueueLen returns the number of jobs still queued or processing.
func (s *Scheduler) QueueLen() int {
	return len(s.queue)
}

// Tick runs one scheduling frame. Instant jobs are drained completely
// first; then queued work consumes the division and op budgets in
// priority order.
func (s *Scheduler) Tick() {
	divisions := s.cfg().MaxDivisionsPerFrame
	ops := s.cfg().MaxOpsPerFrame

	for {
		j := s.next()
		if j == nil {
			return
		}
		// State re-checked before each unit of work: a cancellation
		// between ticks must win over an in-flight cursor.
		if j.State == JobCancelled {
			s.drop(j)
			continue
		}
		j.State = JobProcessing

		if j.instant {
			// Instant jobs resolve this tick: effectively unlimited
			// budgets, and objects still conflicting get dropped instead
			// of deferred.
			big, huge := 1<<30, 1<<30
			s.processSome(j, &big, &huge)
			if !s.jobDone(j) {
				s.log.Warn("instant job dropped conflicting objects",
					zap.String("job", j.ID),
					zap.Int("dropped", len(j.pending)))
				j.pending = nil
				j.cursor = nil
			}
			s.complete(j)
			continue
		}

		if divisions <= 0 || ops <= 0 {
			return
		}
		s.processSome(j, &divisions, &ops)
		if s.jobDone(j) {
			s.complete(j)
			continue
		}
		// Budget exhausted, or only capture-conflicted objects left for
		// this tick: resume on the next frame.
		return
	}
}

// next picks the job to serve: with the priority queue enabled, the most
// recent N submissions go first (older jobs may starve; accepted, bounded
// by N); within a tier, FIFO by submission order.
func (s *Scheduler) next() *Job {
	if len(s.queue) == 0 {
		return nil
	}
	// Instant jobs always lead.
	for _, j := range s.queue {
		if j.instant {
			return j
		}
	}
	cfg := s.cfg()
	if cfg.UsePriorityQueue && cfg.PriorityRecentN > 0 {
		recent := len(s.queue) - cfg.PriorityRecentN
		if recent < 0 {
			recent = 0
		}
		return s.queue[recent]
	}
	return s.queue[0]
}

// processSome advances a job until the division or op budget runs out.
// Divisions cap object voxelizations; an already-open cursor keeps
// classifying on the op budget alone.
func (s *Scheduler) processSome(j *Job, divisions, ops *int) {
	deferred := 0
	for *ops > 0 {
		if j.cursor == nil {
			if len(j.pending) == 0 || deferred >= len(j.pending) {
				return
			}
			if *divisions <= 0 {
				return
			}
			objID := j.pending[0]
			j.pending = j.pending[1:]
			switch s.beginObject(j, objID) {
			case beginStarted:
				*divisions = *divisions - 1
			case beginRetry:
				// Conflicting capture state: retry on a later tick
				// rather than failing the job.
				j.pending = append(j.pending, objID)
				deferred++
				continue
			case beginSkipped:
				continue
			}
		}
		s.classifySome(j, ops)
		if j.cursor != nil && j.cursor.next >= len(j.cursor.voxels) {
			s.finishObject(j)
		}
	}
}

type beginOutcome int

const (
	beginStarted beginOutcome = iota
	beginSkipped
	beginRetry
)

// beginObject voxelizes one affected object and opens its cursor.
func (s *Scheduler) beginObject(j *Job, objID int64) beginOutcome {
	obj := s.scene.Object(objID)
	if obj == nil || !s.scene.Attached(objID) && !j.dryRun {
		// Already captured by an earlier job: cut its live voxels instead.
		if g := s.reg.Group(objID); g != nil && !j.dryRun {
			s.cutExistingGroup(j, g)
			return beginSkipped
		}
		if obj == nil {
			return beginSkipped
		}
		if obj.NonDivisible {
			// Detached with no group: an earlier job's fall policy already
			// resolved this object. Nothing left to cut.
			return beginSkipped
		}
		return beginRetry
	}

	if obj.NonDivisible && !j.dryRun {
		s.applyNonDivisible(j, obj)
		return beginSkipped
	}

	// Whole-object fast path: a fully swallowed object needs no fine grid.
	if j.opts.SkipEncapsulated && voxel.Encapsulated(j.opts.Shape, obj.Shape) {
		if j.dryRun {
			v := wholeObjectVoxel(obj)
			v.Class = voxel.ClassInterior
			j.voxels = append(j.voxels, v)
			return beginSkipped
		}
		g, err := s.reg.Capture(obj)
		if err != nil {
			return beginRetry
		}
		v := wholeObjectVoxel(obj)
		v.Class = voxel.ClassInterior
		s.destroyVoxel(j, g.ID, &v)
		s.trackGroup(j, g.ID)
		return beginSkipped
	}

	vs := voxel.Voxelize(obj.Shape, j.gridSize(), j.settings.MinGridSize)
	cur := &objectCursor{objectID: objID, src: obj.Shape, voxels: vs}

	if !j.dryRun {
		g, err := s.reg.Capture(obj)
		if err != nil {
			return beginRetry
		}
		cur.groupID = g.ID
		s.trackGroup(j, g.ID)
	}
	j.cursor = cur
	return beginStarted
}

// classifySome classifies voxels from the open cursor until the op budget
// runs out. Each classification plus its registry insert counts as one op.
func (s *Scheduler) classifySome(j *Job, ops *int) {
	cur := j.cursor
	flags := voxel.Flags{
		SkipEncapsulated: j.opts.SkipEncapsulated,
		SkipFloors:       j.opts.SkipFloors,
		SkipWalls:        j.opts.SkipWalls,
	}
	for cur.next < len(cur.voxels) && *ops > 0 {
		v := &cur.voxels[cur.next]
		cur.next++
		*ops = *ops - 1
		v.Class = voxel.Classify(v, j.opts.Shape, cur.src, flags)
		if j.dryRun {
			j.voxels = append(j.voxels, *v)
			continue
		}
		switch v.Class {
		case voxel.ClassInterior, voxel.ClassEdge:
			s.destroyVoxel(j, cur.groupID, v)
		default:
			s.reg.AddVoxel(cur.groupID, v)
		}
	}
}

// finishObject closes the cursor and hands the object's survivors to the
// mesh merger.
func (s *Scheduler) finishObject(j *Job) {
	cur := j.cursor
	j.cursor = nil
	if j.dryRun || s.merger == nil {
		return
	}
	g := s.reg.Group(cur.groupID)
	if g == nil {
		return
	}
	survivors := make([]*voxel.Voxel, 0, len(g.Voxels))
	for id := range g.Voxels {
		if v := s.scene.Voxel(id); v != nil {
			survivors = append(survivors, v)
		}
	}
	s.merger.Enqueue(cur.groupID, survivors)
}

// cutExistingGroup classifies a captured object's live voxels against the
// new cutting shape and destroys the ones it reaches.
func (s *Scheduler) cutExistingGroup(j *Job, g *registry.DirtyGroup) {
	ids := make([]int64, 0, len(g.Voxels))
	for id := range g.Voxels {
		ids = append(ids, id)
	}
	for _, id := range ids {
		v := s.scene.Voxel(id)
		if v == nil {
			continue
		}
		flags := voxel.Flags{SkipFloors: j.opts.SkipFloors, SkipWalls: j.opts.SkipWalls}
		c := voxel.Classify(v, j.opts.Shape, g.Original.Shape, flags)
		if c == voxel.ClassInterior || c == voxel.ClassEdge {
			v.Class = c
			s.reg.RemoveVoxel(g.ID, id)
			s.emitDestroyed(j, g.ID, v)
			j.destroyed++
		}
	}
	s.trackGroup(j, g.ID)
}

// applyNonDivisible resolves an object excluded from voxelization.
func (s *Scheduler) applyNonDivisible(j *Job, obj *world.SolidObject) {
	switch j.settings.NonDivisiblePolicy {
	case config.NonDivisibleFall:
		v := wholeObjectVoxel(obj)
		v.AlreadyDebris = true
		s.scene.Detach(obj.ID)
		s.emitDestroyed(j, 0, &v)
		j.destroyed++
	case config.NonDivisibleRemove:
		s.scene.Remove(obj.ID)
		j.destroyed++
	default:
		// NonDivisibleNone: leave intact.
	}
}

// destroyVoxel finalizes one destroyed voxel: effect hook, debris marking,
// destruction event, count.
func (s *Scheduler) destroyVoxel(j *Job, groupID int64, v *voxel.Voxel) {
	if j.opts.MarkDebris {
		v.AlreadyDebris = true
	}
	if j.opts.EffectHook != "" {
		s.fx.Invoke(j.opts.EffectHook, v, hooks.Info{
			GroupID:       groupID,
			CuttingShape:  j.opts.Shape,
			IsEdge:        v.Class == voxel.ClassEdge,
			AlreadyDebris: v.AlreadyDebris,
			UserData:      j.opts.UserData,
		})
	}
	s.emitDestroyed(j, groupID, v)
	j.destroyed++
}

func (s *Scheduler) emitDestroyed(j *Job, groupID int64, v *voxel.Voxel) {
	event.Emit(s.bus, event.VoxelDestroyed{
		VoxelID: v.ID,
		GroupID: groupID,
		IsEdge:  v.Class == voxel.ClassEdge,
		Debris:  v.AlreadyDebris,
		Pos:     v.Transform.Pos,
		Vel:     r3.Vec{},
	})
}

func (s *Scheduler) trackGroup(j *Job, groupID int64) {
	for _, g := range j.groups {
		if g == groupID {
			return
		}
	}
	j.groups = append(j.groups, groupID)
}

func (s *Scheduler) jobDone(j *Job) bool {
	return len(j.pending) == 0 && j.cursor == nil
}

func (s *Scheduler) complete(j *Job) {
	j.State = JobCompleted
	res := j.result()
	if j.opts.OnComplete != nil {
		j.opts.OnComplete(res)
	}
	if j.done != nil {
		j.done <- res
	}
	event.Emit(s.bus, event.JobCompleted{
		JobID:     j.ID,
		Destroyed: res.Destroyed,
		Groups:    res.Groups,
	})
	s.drop(j)
}

func (s *Scheduler) drop(j *Job) {
	for i, q := range s.queue {
		if q == j {
			s.queue = append(s.queue[:i], s.queue[i+1:]...)
			return
		}
	}
}

// wholeObjectVoxel wraps an entire object as a single voxel-sized unit.
func wholeObjectVoxel(obj *world.SolidObject) voxel.Voxel {
	return voxel.Voxel{
		Transform: obj.Shape.Transform,
		Extent:    obj.Shape.Extent,
		GridSize:  maxComponent(obj.Shape.Extent),
	}
}

func maxComponent(v r3.Vec) float64 {
	m := v.X
	if v.Y > m {
		m = v.Y
	}
	if v.Z > m {
		m = v.Z
	}
	return m
}

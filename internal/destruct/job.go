package destruct

import (
	"github.com/google/uuid"

	"github.com/voxfall/server/internal/config"
	"github.com/voxfall/server/internal/geom"
	"github.com/voxfall/server/internal/voxel"
)

// JobState is the lifecycle of one destruction job.
type JobState int

const (
	JobQueued JobState = iota
	JobProcessing
	JobCompleted
	JobCancelled
)

func (s JobState) String() string {
	switch s {
	case JobQueued:
		return "queued"
	case JobProcessing:
		return "processing"
	case JobCompleted:
		return "completed"
	case JobCancelled:
		return "cancelled"
	}
	return "unknown"
}

// Options describe one Destroy or ImaginaryVoxels invocation.
type Options struct {
	Shape geom.Shape

	// TagFilter restricts the job to objects carrying at least one of the
	// tags; empty means every attached object is eligible.
	TagFilter []string

	// GridSize overrides the configured grid size when positive.
	GridSize float64

	SkipEncapsulated bool
	SkipFloors       bool
	SkipWalls        bool

	// MarkDebris flags destroyed voxels as free-falling debris for the
	// replication tracker.
	MarkDebris bool

	// EffectHook names the effect invoked once per destroyed voxel;
	// empty means no effect.
	EffectHook string

	UserData   any
	OnComplete func(Result)
}

// Result is delivered on completion: the destroyed-voxel count and the
// affected dirty groups. Dry-run jobs carry the classified voxels instead.
type Result struct {
	Destroyed int
	Groups    []int64
	Voxels    []voxel.Voxel // ImaginaryVoxels only
}

// Job is one queued destruction request. The scheduler owns it for its
// whole lifetime; callers observe it through State and the completion
// callback or channel.
type Job struct {
	ID    string
	State JobState

	opts     Options
	settings config.DestructionConfig // snapshot taken at submission
	seq      int64                    // FIFO tie-break within a priority tier
	dryRun   bool
	instant  bool // bypasses per-frame caps, resolved next tick

	// pending objects not yet voxelized; cursor holds the partially
	// classified voxel list of the object currently in flight.
	pending []int64
	cursor  *objectCursor

	destroyed int
	groups    []int64
	voxels    []voxel.Voxel // dry-run accumulation

	done chan Result // nil unless the caller awaits
}

type objectCursor struct {
	objectID int64
	groupID  int64
	src      geom.Shape
	voxels   []voxel.Voxel
	next     int
}

func newJob(opts Options, settings config.DestructionConfig, seq int64) *Job {
	if opts.GridSize > 0 {
		settings.GridSize = opts.GridSize
	}
	return &Job{
		ID:       uuid.NewString(),
		State:    JobQueued,
		opts:     opts,
		settings: settings,
		seq:      seq,
	}
}

// Done returns the completion channel for awaited jobs, nil otherwise.
func (j *Job) Done() <-chan Result {
	return j.done
}

// gridSize returns the effective grid size from the settings snapshot.
func (j *Job) gridSize() float64 {
	return j.settings.GridSize
}

func (j *Job) matchesTags(tags []string) bool {
	if len(j.opts.TagFilter) == 0 {
		return true
	}
	for _, want := range j.opts.TagFilter {
		for _, have := range tags {
			if want == have {
				return true
			}
		}
	}
	return false
}

func (j *Job) result() Result {
	return Result{
		Destroyed: j.destroyed,
		Groups:    append([]int64(nil), j.groups...),
		Voxels:    j.voxels,
	}
}

// Package evaluate orchestrates the full grading pipeline for a
// (reference, submission) mesh pair: validation, sampling, distance
// computation, grading and feedback synthesis. One call is one
// deterministic function from two meshes and a configuration to one
// immutable outcome; nothing is persisted and nothing is retried.
package evaluate

import (
	"fmt"

	"github.com/chazu/calipers/pkg/distance"
	"github.com/chazu/calipers/pkg/feedback"
	"github.com/chazu/calipers/pkg/grade"
	"github.com/chazu/calipers/pkg/mesh"
	"github.com/chazu/calipers/pkg/sample"
)

// Stage identifies a pipeline stage. The pipeline is linear:
// Idle -> Loading -> Sampling -> Comparing -> Grading -> Done, with any
// failure jumping straight to Failed.
type Stage int

const (
	StageIdle Stage = iota
	StageLoading
	StageSampling
	StageComparing
	StageGrading
	StageDone
	StageFailed
)

var stageNames = map[Stage]string{
	StageIdle:      "idle",
	StageLoading:   "loading",
	StageSampling:  "sampling",
	StageComparing: "comparing",
	StageGrading:   "grading",
	StageDone:      "done",
	StageFailed:    "failed",
}

func (s Stage) String() string {
	if n, ok := stageNames[s]; ok {
		return n
	}
	return fmt.Sprintf("Stage(%d)", int(s))
}

// Error tags a stage failure with the stage that produced it and which
// input was involved, so callers can log and report precisely. It wraps
// the underlying typed error for errors.As/Is matching.
type Error struct {
	Stage Stage
	Input string // "reference", "submission" or "" when not input-specific
	Err   error
}

func (e *Error) Error() string {
	if e.Input != "" {
		return fmt.Sprintf("evaluate: %s stage, %s input: %v", e.Stage, e.Input, e.Err)
	}
	return fmt.Sprintf("evaluate: %s stage: %v", e.Stage, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// DefaultTargetCount is the point cloud size used when Options leaves
// TargetCount zero.
const DefaultTargetCount = 2048

// Options configures one evaluation. Start from DefaultOptions; a zero
// TargetCount is an infeasible sampling request and fails the pipeline.
type Options struct {
	// TargetCount is the number of points sampled from each mesh.
	TargetCount int

	// Policy is the grading policy; zero value means DefaultPolicy.
	Policy grade.Policy

	// Seed drives point sampling. Identical meshes, options and seed
	// yield an identical outcome; pass a fresh seed per call when
	// reproducibility is not needed.
	Seed int64

	// Repairer, when set, is applied to both meshes before validation.
	// The engine itself never repairs geometry.
	Repairer mesh.Repairer
}

// DefaultOptions returns the standard configuration: 2048 points per
// cloud, the default grading policy, seed zero.
func DefaultOptions() Options {
	return Options{
		TargetCount: DefaultTargetCount,
		Policy:      grade.DefaultPolicy(),
	}
}

func (o Options) withDefaults() Options {
	if o.Policy.Table == nil {
		o.Policy = grade.DefaultPolicy()
	}
	return o
}

// Outcome is the success payload of an evaluation. Failures are returned
// as a *Error instead; the two are never mixed and no partial results
// exist.
type Outcome struct {
	Grade    grade.Result
	Report   *distance.Report
	Feedback string

	// The normalized clouds the comparison ran on, kept for optional
	// consumers such as heatmap rendering.
	ReferenceCloud  sample.Cloud
	SubmissionCloud sample.Cloud
}

// Run executes the pipeline for one mesh pair. Both clouds are sampled
// with the same seed so that evaluating a mesh against an identical copy
// of itself yields exactly zero deviation for any seed.
func Run(ref, sub *mesh.Mesh, opts Options) (*Outcome, error) {
	opts = opts.withDefaults()

	// Loading: repair hook, then structural validation.
	if opts.Repairer != nil {
		var err error
		if ref, err = opts.Repairer.Repair(ref); err != nil {
			return nil, &Error{Stage: StageLoading, Input: "reference", Err: err}
		}
		if sub, err = opts.Repairer.Repair(sub); err != nil {
			return nil, &Error{Stage: StageLoading, Input: "submission", Err: err}
		}
	}
	if err := ref.Validate(); err != nil {
		return nil, &Error{Stage: StageLoading, Input: "reference", Err: err}
	}
	if err := sub.Validate(); err != nil {
		return nil, &Error{Stage: StageLoading, Input: "submission", Err: err}
	}

	// Sampling.
	refCloud, err := sample.Sample(ref, opts.TargetCount, opts.Seed)
	if err != nil {
		return nil, &Error{Stage: StageSampling, Input: "reference", Err: err}
	}
	subCloud, err := sample.Sample(sub, opts.TargetCount, opts.Seed)
	if err != nil {
		return nil, &Error{Stage: StageSampling, Input: "submission", Err: err}
	}

	// Comparing.
	rep, err := distance.Compare(refCloud, subCloud)
	if err != nil {
		return nil, &Error{Stage: StageComparing, Err: err}
	}

	// Grading and feedback.
	res, err := grade.Calculate(rep, opts.Policy)
	if err != nil {
		return nil, &Error{Stage: StageGrading, Err: err}
	}
	text := feedback.Generate(res, rep, opts.Policy)

	return &Outcome{
		Grade:           res,
		Report:          rep,
		Feedback:        text,
		ReferenceCloud:  refCloud,
		SubmissionCloud: subCloud,
	}, nil
}

// Package registration drives one release: take the artifact URI out of the
// model info, register it as a new model version, and move that version to
// the target stage.
package registration

import (
	"context"
	"fmt"

	"github.com/capstone-project/mlreg/internal/ctxlog"
	"github.com/capstone-project/mlreg/internal/modelinfo"
	"github.com/capstone-project/mlreg/internal/registry"
)

// Phase records how far a registration got.
type Phase int

const (
	// PhaseFailed means no version was created.
	PhaseFailed Phase = iota
	// PhaseRegistered means a version exists but did not reach the target stage.
	PhaseRegistered
	// PhaseStaged means the version reached the target stage.
	PhaseStaged
)

func (p Phase) String() string {
	switch p {
	case PhaseFailed:
		return "failed"
	case PhaseRegistered:
		return "registered"
	case PhaseStaged:
		return "staged"
	default:
		return "unknown"
	}
}

// Options controls the stage transition.
type Options struct {
	Stage           registry.Stage
	ArchiveExisting bool
}

// DefaultOptions moves new versions to Staging and leaves other versions alone.
func DefaultOptions() Options {
	return Options{Stage: registry.StageStaging}
}

// Result describes the outcome. It is returned even on failure.
type Result struct {
	ModelName string
	URI       string
	Version   string
	Stage     registry.Stage
	Target    registry.Stage
	Phase     Phase
	Err       error
}

// OK reports whether the version reached the target stage.
func (r *Result) OK() bool {
	return r.Phase == PhaseStaged && r.Err == nil
}

// Register registers info's artifact under name and transitions the new
// version to opts.Stage. Failures are logged and returned; nothing is rolled
// back, so a failed transition leaves a registered, unstaged version.
func Register(ctx context.Context, reg registry.Registry, name string, info modelinfo.ModelInfo, opts Options) (*Result, error) {
	log := ctxlog.FromContext(ctx)
	if opts.Stage == "" {
		opts.Stage = registry.StageStaging
	}
	res := &Result{ModelName: name, Stage: registry.StageNone, Target: opts.Stage}

	fail := func(err error) (*Result, error) {
		log.Error("error during model registration", "model", name, "phase", res.Phase.String(), "error", err)
		res.Err = err
		return res, err
	}

	uri, err := info.ModelPath()
	if err != nil {
		return fail(err)
	}
	res.URI = uri
	log.Info("registering model", "model", name, "uri", uri)

	mv, err := reg.Register(ctx, uri, name)
	if mv != nil {
		res.Version = mv.Version
		res.Stage = mv.Stage
		res.Phase = PhaseRegistered
	}
	if err != nil {
		return fail(fmt.Errorf("registering %s: %w", name, err))
	}

	staged, err := reg.Transition(ctx, name, mv.Version, opts.Stage, opts.ArchiveExisting)
	if err != nil {
		return fail(fmt.Errorf("moving %s version %s to %s: %w", name, mv.Version, opts.Stage, err))
	}
	res.Stage = staged.Stage
	res.Phase = PhaseStaged

	log.Info("model registered", "model", name, "version", res.Version, "stage", string(res.Stage))
	return res, nil
}

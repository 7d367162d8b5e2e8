// Package pipeline chains named two-phase stages.
//
// Every stage is fit against the same original input, while Apply threads
// each stage's output into the next one:
//
//	Fit:   s1.Fit(in), s2.Fit(in), ..., sN.Fit(in)
//	Apply: sN.Apply(...s2.Apply(s1.Apply(in)))
//
// Stages that need whole-document statistics therefore see the untouched
// document at fit time even though they sit late in the apply chain.
package pipeline

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cognicore/posttags/pkg/posttags/internalerr"
)

// Stage is one unit of the transformation chain.
//
// Fit may capture state from its input and returns the stage that should be
// used from then on (usually the receiver). Apply transforms its input, or
// ignores it and returns state captured during Fit.
type Stage interface {
	Fit(input any) (Stage, error)
	Apply(input any) (any, error)
}

// Step registers a stage under a name
type Step struct {
	Name  string
	Stage Stage
}

// Phase identifies which half of a run failed
type Phase string

const (
	PhaseFit   Phase = "fit"
	PhaseApply Phase = "apply"
)

// Observer receives per-stage timings. Implementations must be cheap; they
// run inline with the pipeline.
type Observer interface {
	ObserveStage(stage string, phase Phase, elapsed time.Duration, err error)
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithLogger sets the logger used for stage-level debug output
func WithLogger(l *zap.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithObserver attaches an observer for stage timings
func WithObserver(o Observer) Option {
	return func(p *Pipeline) {
		p.observer = o
	}
}

// Pipeline holds an ordered list of named stages
type Pipeline struct {
	steps    []Step
	logger   *zap.Logger
	observer Observer
}

// New creates a pipeline from the given steps. Names must be non-empty and
// unique, and every step needs a stage.
func New(steps []Step, opts ...Option) (*Pipeline, error) {
	seen := make(map[string]struct{}, len(steps))
	for i, s := range steps {
		name := strings.TrimSpace(s.Name)
		if name == "" {
			return nil, fmt.Errorf("step %d: empty name: %w", i, internalerr.ErrInvalidInput)
		}
		if s.Stage == nil {
			return nil, fmt.Errorf("step %q: nil stage: %w", name, internalerr.ErrInvalidInput)
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("step %q: %w", name, internalerr.ErrDuplicateStage)
		}
		seen[name] = struct{}{}
	}

	p := &Pipeline{
		steps:  append([]Step(nil), steps...),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Names returns the stage names in execution order
func (p *Pipeline) Names() []string {
	names := make([]string, len(p.steps))
	for i, s := range p.steps {
		names[i] = s.Name
	}
	return names
}

// Stage returns the current stage registered under name
func (p *Pipeline) Stage(name string) (Stage, bool) {
	for _, s := range p.steps {
		if s.Name == name {
			return s.Stage, true
		}
	}
	return nil, false
}

// Fit fits every stage against the same original input. Each step's stage is
// replaced by the stage returned from its Fit.
func (p *Pipeline) Fit(input any) error {
	for i := range p.steps {
		step := &p.steps[i]
		start := time.Now()
		fitted, err := step.Stage.Fit(input)
		p.observe(step.Name, PhaseFit, time.Since(start), err)
		if err != nil {
			return &StageError{Stage: step.Name, Phase: PhaseFit, Input: input, Err: err}
		}
		if fitted == nil {
			return &StageError{
				Stage: step.Name,
				Phase: PhaseFit,
				Input: input,
				Err:   fmt.Errorf("fit returned nil stage: %w", internalerr.ErrInvalidInput),
			}
		}
		step.Stage = fitted
	}
	return nil
}

// Apply threads input through the chain: the first stage receives the
// original input, every later stage the previous stage's output. It returns
// the last stage's output; an empty pipeline returns input unchanged.
func (p *Pipeline) Apply(input any) (any, error) {
	var (
		current any
		have    bool
	)
	for _, step := range p.steps {
		in := input
		if have {
			in = current
		}

		start := time.Now()
		out, err := step.Stage.Apply(in)
		p.observe(step.Name, PhaseApply, time.Since(start), err)
		if err != nil {
			return nil, &StageError{Stage: step.Name, Phase: PhaseApply, Input: in, Err: err}
		}
		current, have = out, true
	}
	if !have {
		return input, nil
	}
	return current, nil
}

// Run fits the pipeline on input and then applies it to the same input
func (p *Pipeline) Run(input any) (any, error) {
	if err := p.Fit(input); err != nil {
		return nil, err
	}
	return p.Apply(input)
}

func (p *Pipeline) observe(name string, phase Phase, elapsed time.Duration, err error) {
	if err != nil {
		p.logger.Debug("stage failed",
			zap.String("stage", name),
			zap.String("phase", string(phase)),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
	} else {
		p.logger.Debug("stage done",
			zap.String("stage", name),
			zap.String("phase", string(phase)),
			zap.Duration("elapsed", elapsed),
		)
	}
	if p.observer != nil {
		p.observer.ObserveStage(name, phase, elapsed, err)
	}
}

package pipeline

import (
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cognicore/posttags/pkg/posttags/internalerr"
)

// multiplier multiplies an int input and records what it was fit on
type multiplier struct {
	factor  int
	fitOn   []any
	applied []any
}

func (m *multiplier) Fit(input any) (Stage, error) {
	m.fitOn = append(m.fitOn, input)
	return m, nil
}

func (m *multiplier) Apply(input any) (any, error) {
	m.applied = append(m.applied, input)
	n, ok := input.(int)
	if !ok {
		return nil, internalerr.ErrUnexpectedInput
	}
	return n * m.factor, nil
}

// remember captures its fit input and ignores the apply argument
type remember struct {
	seen any
}

func (r *remember) Fit(input any) (Stage, error) {
	r.seen = input
	return r, nil
}

func (r *remember) Apply(any) (any, error) {
	return r.seen, nil
}

type failing struct{ err error }

func (f failing) Fit(any) (Stage, error) { return f, nil }
func (f failing) Apply(any) (any, error) { return nil, f.err }

func TestPipelineChainedApply(t *testing.T) {
	double := &multiplier{factor: 2}
	triple := &multiplier{factor: 3}

	p, err := New([]Step{
		{Name: "double", Stage: double},
		{Name: "triple", Stage: triple},
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	out, err := p.Run(1)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if out != 6 {
		t.Errorf("Expected 6, got %v", out)
	}

	// Both stages are fit on the original input, not on intermediate outputs
	if len(triple.fitOn) != 1 || triple.fitOn[0] != 1 {
		t.Errorf("triple should be fit on original input 1, got %v", triple.fitOn)
	}
	// Apply is chained: triple sees double's output
	if len(triple.applied) != 1 || triple.applied[0] != 2 {
		t.Errorf("triple should be applied to 2, got %v", triple.applied)
	}
}

func TestPipelineApplyIgnoringInput(t *testing.T) {
	mem := &remember{}
	p, err := New([]Step{
		{Name: "double", Stage: &multiplier{factor: 2}},
		{Name: "remember", Stage: mem},
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	out, err := p.Run(5)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if out != 5 {
		t.Errorf("Stage reusing fit state should return 5, got %v", out)
	}
}

func TestPipelineFitStateSurvivesRefit(t *testing.T) {
	m := &multiplier{factor: 1}
	p, _ := New([]Step{{Name: "m", Stage: m}})

	if err := p.Fit(1); err != nil {
		t.Fatal(err)
	}
	if err := p.Fit(2); err != nil {
		t.Fatal(err)
	}
	if len(m.fitOn) != 2 {
		t.Errorf("Expected state from both fits to be kept, got %v", m.fitOn)
	}
}

func TestPipelineEmpty(t *testing.T) {
	p, err := New(nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	out, err := p.Run("text")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if out != "text" {
		t.Errorf("Empty pipeline should return its input, got %v", out)
	}
}

func TestPipelineStageError(t *testing.T) {
	boom := errors.New("boom")
	p, _ := New([]Step{
		{Name: "double", Stage: &multiplier{factor: 2}},
		{Name: "explode", Stage: failing{err: boom}},
		{Name: "never", Stage: &multiplier{factor: 10}},
	})

	_, err := p.Run(3)
	if err == nil {
		t.Fatal("Expected error")
	}

	var se *StageError
	if !errors.As(err, &se) {
		t.Fatalf("Expected *StageError, got %T", err)
	}
	if se.Stage != "explode" || se.Phase != PhaseApply {
		t.Errorf("Unexpected stage/phase: %s/%s", se.Stage, se.Phase)
	}
	if se.Input != 6 {
		t.Errorf("Expected offending input 6, got %v", se.Input)
	}
	if !errors.Is(err, boom) {
		t.Error("StageError should unwrap to the stage error")
	}
	if !strings.Contains(err.Error(), `"explode"`) {
		t.Errorf("Error should name the stage: %v", err)
	}
}

func TestPipelineUnexpectedInput(t *testing.T) {
	p, _ := New([]Step{{Name: "double", Stage: &multiplier{factor: 2}}})

	_, err := p.Run("not a number")
	if !errors.Is(err, internalerr.ErrUnexpectedInput) {
		t.Errorf("Expected ErrUnexpectedInput, got %v", err)
	}
}

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name  string
		steps []Step
		want  error
	}{
		{"empty name", []Step{{Name: " ", Stage: &multiplier{}}}, internalerr.ErrInvalidInput},
		{"nil stage", []Step{{Name: "a"}}, internalerr.ErrInvalidInput},
		{"duplicate", []Step{{Name: "a", Stage: &multiplier{}}, {Name: "a", Stage: &multiplier{}}}, internalerr.ErrDuplicateStage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.steps)
			if !errors.Is(err, tt.want) {
				t.Errorf("New() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestNamesAndStage(t *testing.T) {
	a := &multiplier{factor: 2}
	p, _ := New([]Step{{Name: "a", Stage: a}, {Name: "b", Stage: &multiplier{}}})

	names := p.Names()
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Errorf("Unexpected names: %v", names)
	}
	if s, ok := p.Stage("a"); !ok || s != a {
		t.Error("Stage(a) should return the registered stage")
	}
	if _, ok := p.Stage("missing"); ok {
		t.Error("Stage(missing) should not be found")
	}
}

type recordingObserver struct {
	calls []string
}

func (r *recordingObserver) ObserveStage(stage string, phase Phase, _ time.Duration, _ error) {
	r.calls = append(r.calls, stage+":"+string(phase))
}

func TestObserverAndLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	obs := &recordingObserver{}

	p, _ := New(
		[]Step{{Name: "double", Stage: &multiplier{factor: 2}}},
		WithLogger(zap.New(core)),
		WithObserver(obs),
	)
	if _, err := p.Run(1); err != nil {
		t.Fatal(err)
	}

	want := []string{"double:fit", "double:apply"}
	if len(obs.calls) != len(want) {
		t.Fatalf("Expected %v, got %v", want, obs.calls)
	}
	for i := range want {
		if obs.calls[i] != want[i] {
			t.Errorf("call %d = %s, want %s", i, obs.calls[i], want[i])
		}
	}

	if n := logs.FilterMessage("stage done").Len(); n != 2 {
		t.Errorf("Expected 2 stage log lines, got %d", n)
	}
}

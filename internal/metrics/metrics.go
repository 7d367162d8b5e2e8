package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/cognicore/posttags/pkg/posttags/pipeline"
)

const namespace = "posttags"

// Metrics records pipeline activity. It implements pipeline.Observer.
type Metrics struct {
	StageDuration *prometheus.HistogramVec
	StageErrors   *prometheus.CounterVec
	TagsSelected  prometheus.Counter
	Runs          *prometheus.CounterVec
}

// New creates the collectors and registers them on reg
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		StageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "stage_duration_seconds",
				Help:      "Pipeline stage duration in seconds",
				Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
			[]string{"stage", "phase"},
		),
		StageErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "stage_errors_total",
				Help:      "Total pipeline stage failures",
			},
			[]string{"stage", "phase"},
		),
		TagsSelected: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tags_selected_total",
				Help:      "Total tags selected across runs",
			},
		),
		Runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_total",
				Help:      "Total extraction runs",
			},
			[]string{"status"},
		),
	}

	var err error
	if m.StageDuration, err = register(reg, m.StageDuration); err != nil {
		return nil, err
	}
	if m.StageErrors, err = register(reg, m.StageErrors); err != nil {
		return nil, err
	}
	if m.TagsSelected, err = register(reg, m.TagsSelected); err != nil {
		return nil, err
	}
	if m.Runs, err = register(reg, m.Runs); err != nil {
		return nil, err
	}
	return m, nil
}

// register adds c to reg, reusing an identical collector that is already there
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// ObserveStage records one stage invocation
func (m *Metrics) ObserveStage(stage string, phase pipeline.Phase, elapsed time.Duration, err error) {
	m.StageDuration.WithLabelValues(stage, string(phase)).Observe(elapsed.Seconds())
	if err != nil {
		m.StageErrors.WithLabelValues(stage, string(phase)).Inc()
	}
}

// ObserveRun records a finished extraction
func (m *Metrics) ObserveRun(tags int, err error) {
	if err != nil {
		m.Runs.WithLabelValues("error").Inc()
		return
	}
	m.Runs.WithLabelValues("ok").Inc()
	m.TagsSelected.Add(float64(tags))
}

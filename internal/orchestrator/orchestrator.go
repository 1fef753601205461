// Package orchestrator drives the four generation phases over a checkpoint.
package orchestrator

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/lamim/finetuneforge/internal/checkpoint"
	"github.com/lamim/finetuneforge/internal/config"
	"github.com/lamim/finetuneforge/internal/metrics"
	"github.com/lamim/finetuneforge/pkg/models"
)

// Generator turns a prompt into raw model output
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// CheckpointStore persists progress between runs
type CheckpointStore interface {
	Load() *models.Checkpoint
	Save(cp *models.Checkpoint) error
}

// Phase names a stage of the pipeline
type Phase string

const (
	PhaseDocumentation  Phase = "documentation"
	PhaseCode           Phase = "code"
	PhaseIntegration    Phase = "integration"
	PhaseCodeGeneration Phase = "code_generation"
)

// Phases lists the pipeline stages in execution order
var Phases = []Phase{PhaseDocumentation, PhaseCode, PhaseIntegration, PhaseCodeGeneration}

// PhaseStats counts what happened in one phase during this run
type PhaseStats struct {
	Skipped  int // units already in the checkpoint
	Calls    int
	Failures int // generator errors
	Invalid  int // responses that were not a JSON list
	Accepted int // pairs kept
	Dropped  int // list elements rejected
}

// Stats summarizes one Run
type Stats struct {
	RunID        string
	StartTime    time.Time
	EndTime      time.Time
	TotalRecords int
	Phases       map[Phase]PhaseStats
}

// Orchestrator manages the generation pipeline
type Orchestrator struct {
	cfg      *config.Config
	gen      Generator
	store    CheckpointStore
	logger   *slog.Logger
	metrics  *metrics.Collector
	progress io.Writer
	now      func() time.Time
	stats    Stats
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithMetrics records phase metrics on c
func WithMetrics(c *metrics.Collector) Option {
	return func(o *Orchestrator) {
		o.metrics = c
	}
}

// WithProgressWriter renders per-unit progress bars to w
func WithProgressWriter(w io.Writer) Option {
	return func(o *Orchestrator) {
		o.progress = w
	}
}

// WithClock overrides the time source used for checkpoint timestamps
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		o.now = now
	}
}

// New creates a new orchestrator
func New(cfg *config.Config, gen Generator, store CheckpointStore, logger *slog.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		cfg:    cfg,
		gen:    gen,
		store:  store,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run generates training data for every example not yet covered by the
// checkpoint and returns the accumulated records. Per-unit failures are
// logged and skipped. The only error paths are a broken prompt template and
// context cancellation; on cancellation the in-flight unit stays pending so
// the next run retries it.
func (o *Orchestrator) Run(ctx context.Context, examples []models.Example) ([]models.TrainingRecord, error) {
	o.stats = Stats{StartTime: o.now(), Phases: make(map[Phase]PhaseStats, len(Phases))}
	defer func() { o.stats.EndTime = o.now() }()

	cp := o.store.Load()
	if cp.RunID == "" {
		cp.RunID = uuid.NewString()
	}
	o.stats.RunID = cp.RunID
	logger := o.logger.With("run_id", cp.RunID)

	var docs, code []models.Example
	for _, ex := range examples {
		switch ex.Type {
		case models.ExampleTypeDocumentation:
			docs = append(docs, ex)
		case models.ExampleTypeCode:
			code = append(code, ex)
		}
	}
	cp.TotalDocChunks = len(docs)
	cp.TotalCodeExamples = len(code)

	summary := checkpoint.Summarize(cp)
	logger.Info("Starting generation pipeline",
		"examples", len(examples),
		"doc_chunks", len(docs),
		"code_examples", len(code),
		"existing_records", summary.TrainingRecords,
		"progress", fmt.Sprintf("%.1f%%", summary.ProgressPercentage()))

	r := &run{o: o, cp: cp, logger: logger}

	steps := []func(context.Context) error{
		func(ctx context.Context) error { return r.documentationPhase(ctx, docs) },
		func(ctx context.Context) error { return r.codePhase(ctx, code) },
		func(ctx context.Context) error { return r.integrationPhase(ctx, examples) },
		func(ctx context.Context) error { return r.codeGenerationPhase(ctx, docs, code) },
	}
	for _, step := range steps {
		if err := step(ctx); err != nil {
			o.stats.TotalRecords = len(cp.TrainingData)
			return cp.TrainingData, err
		}
	}

	o.stats.TotalRecords = len(cp.TrainingData)
	o.metrics.SetTrainingRecords(len(cp.TrainingData))

	logger.Info("Generation pipeline completed",
		"training_records", len(cp.TrainingData),
		"duration", o.now().Sub(o.stats.StartTime))
	for _, phase := range Phases {
		ps := o.stats.Phases[phase]
		logger.Info("Phase summary",
			"phase", phase,
			"skipped", ps.Skipped,
			"calls", ps.Calls,
			"failures", ps.Failures,
			"invalid", ps.Invalid,
			"accepted", ps.Accepted,
			"dropped", ps.Dropped)
	}

	return cp.TrainingData, nil
}

// Stats returns the statistics of the last Run
func (o *Orchestrator) Stats() Stats {
	s := o.stats
	s.Phases = make(map[Phase]PhaseStats, len(o.stats.Phases))
	for k, v := range o.stats.Phases {
		s.Phases[k] = v
	}
	return s
}

func (o *Orchestrator) updateStats(phase Phase, fn func(*PhaseStats)) {
	ps := o.stats.Phases[phase]
	fn(&ps)
	o.stats.Phases[phase] = ps
}

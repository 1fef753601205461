package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lamim/finetuneforge/internal/pairs"
	"github.com/lamim/finetuneforge/internal/util"
	"github.com/lamim/finetuneforge/pkg/models"
)

// Metric outcomes for a unit
const (
	outcomeSuccess = "success"
	outcomeError   = "error"
	outcomeInvalid = "invalid"
)

// run carries the state of a single Run call
type run struct {
	o      *Orchestrator
	cp     *models.Checkpoint
	logger *slog.Logger
}

// generate sends one prompt and parses the response. Generator errors and
// malformed responses yield no pairs and a nil error; only cancellation of
// ctx is returned.
func (r *run) generate(ctx context.Context, logger *slog.Logger, phase Phase, prompt string, shape *pairs.Shape) ([]models.Pair, error) {
	o := r.o
	start := time.Now()
	o.updateStats(phase, func(ps *PhaseStats) { ps.Calls++ })

	raw, err := o.gen.Generate(ctx, prompt)
	duration := time.Since(start)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		logger.Error("Generation failed", "error", err, "duration", duration)
		o.updateStats(phase, func(ps *PhaseStats) { ps.Failures++ })
		o.metrics.RecordUnit(string(phase), outcomeError, duration)
		return nil, nil
	}

	result := pairs.Parse(raw, shape)
	if !result.Valid() {
		logger.Warn("Discarding malformed response",
			"reason", result.Reason,
			"response", util.TruncateString(raw, 200))
		o.updateStats(phase, func(ps *PhaseStats) { ps.Invalid++ })
		o.metrics.RecordUnit(string(phase), outcomeInvalid, duration)
		return nil, nil
	}

	for _, d := range result.Dropped {
		logger.Warn("Dropped invalid pair", "pair", d.Index+1, "reason", d.Reason)
	}

	o.updateStats(phase, func(ps *PhaseStats) {
		ps.Accepted += len(result.Pairs)
		ps.Dropped += len(result.Dropped)
	})
	o.metrics.RecordPairs(string(phase), len(result.Pairs), len(result.Dropped))
	o.metrics.RecordUnit(string(phase), outcomeSuccess, duration)

	logger.Info("Generated pairs",
		"valid", len(result.Pairs),
		"returned", result.Elements,
		"duration", duration)
	return result.Pairs, nil
}

// commit appends the pairs, applies mark and persists the checkpoint
func (r *run) commit(newPairs []models.Pair, mark func(*models.Checkpoint)) {
	r.cp.AppendPairs(newPairs)
	mark(r.cp)
	r.cp.Touch(r.o.now())
	r.save()
}

// save persists the checkpoint. A failed save is logged and the run goes on:
// the work is still held in memory and lands in the final dataset.
func (r *run) save() {
	err := r.o.store.Save(r.cp)
	r.o.metrics.RecordCheckpointSave(err == nil)
	r.o.metrics.SetTrainingRecords(len(r.cp.TrainingData))
	if err != nil {
		r.logger.Error("Failed to save checkpoint", "error", err)
	}
}

func (r *run) render(phase Phase, tmpl string, data map[string]interface{}) (string, error) {
	data["Subject"] = r.o.cfg.Generation.Subject
	data["Language"] = r.o.cfg.Generation.Language
	prompt, err := util.RenderTemplate(tmpl, data)
	if err != nil {
		return "", fmt.Errorf("failed to render %s prompt: %w", phase, err)
	}
	return prompt, nil
}

package orchestrator

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/schollz/progressbar/v3"

	"github.com/lamim/finetuneforge/internal/pairs"
	"github.com/lamim/finetuneforge/internal/util"
	"github.com/lamim/finetuneforge/pkg/models"
)

// Excerpt labels used in aggregate prompts
const (
	labelDocumentation = "Documentation: "
	labelCode          = "Code Example: "
)

func (r *run) newBar(total int, description string) *progressbar.ProgressBar {
	if r.o.progress == nil {
		return progressbar.DefaultSilent(int64(total), description)
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(r.o.progress),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
		progressbar.OptionOnCompletion(func() { _, _ = r.o.progress.Write([]byte("\n")) }),
	)
}

func (r *run) documentationPhase(ctx context.Context, docs []models.Example) error {
	var pending []models.Example
	for _, ex := range docs {
		if r.cp.HasChunk(ex.Index) {
			r.logger.Debug("Skipping already processed documentation chunk", "chunk", ex.Index+1)
			continue
		}
		pending = append(pending, ex)
	}
	r.o.updateStats(PhaseDocumentation, func(ps *PhaseStats) { ps.Skipped += len(docs) - len(pending) })

	r.logger.Info("Processing documentation chunks", "total", len(docs), "pending", len(pending))
	if len(pending) == 0 {
		return nil
	}

	bar := r.newBar(len(pending), "Documentation")
	defer func() { _ = bar.Finish() }()

	for _, ex := range pending {
		if err := ctx.Err(); err != nil {
			return err
		}

		prompt, err := r.render(PhaseDocumentation, r.o.cfg.PromptTemplates.DocumentationQA, map[string]interface{}{
			"Content":  ex.Content,
			"NumPairs": r.o.cfg.Generation.DocPairs,
		})
		if err != nil {
			return err
		}

		logger := r.logger.With("phase", PhaseDocumentation, "chunk", ex.Index+1, "of", len(docs))
		logger.Info("Processing documentation chunk")

		got, err := r.generate(ctx, logger, PhaseDocumentation, prompt, pairs.QAShape)
		if err != nil {
			return err
		}

		index := ex.Index
		r.commit(got, func(cp *models.Checkpoint) { cp.MarkChunk(index) })
		_ = bar.Add(1)
	}
	return nil
}

func (r *run) codePhase(ctx context.Context, code []models.Example) error {
	var pending []models.Example
	for _, ex := range code {
		if r.cp.HasCodeExample(ex.SourceFile) {
			r.logger.Debug("Skipping already processed code example", "file", ex.SourceFile)
			continue
		}
		pending = append(pending, ex)
	}
	r.o.updateStats(PhaseCode, func(ps *PhaseStats) { ps.Skipped += len(code) - len(pending) })

	r.logger.Info("Processing code examples", "total", len(code), "pending", len(pending))
	if len(pending) == 0 {
		return nil
	}

	bar := r.newBar(len(pending), "Code examples")
	defer func() { _ = bar.Finish() }()

	for _, ex := range pending {
		if err := ctx.Err(); err != nil {
			return err
		}

		prompt, err := r.render(PhaseCode, r.o.cfg.PromptTemplates.CodeQA, map[string]interface{}{
			"Content":  ex.Content,
			"NumPairs": r.o.cfg.Generation.CodePairs,
			"FileName": filepath.Base(ex.SourceFile),
			"Symbols":  strings.Join(ex.Symbols, ", "),
		})
		if err != nil {
			return err
		}

		logger := r.logger.With("phase", PhaseCode, "file", filepath.Base(ex.SourceFile), "example", ex.Index+1, "of", len(code))
		logger.Info("Processing code example")

		got, err := r.generate(ctx, logger, PhaseCode, prompt, pairs.QAShape)
		if err != nil {
			return err
		}

		path := ex.SourceFile
		r.commit(got, func(cp *models.Checkpoint) { cp.MarkCodeExample(path) })
		_ = bar.Add(1)
	}
	return nil
}

func (r *run) integrationPhase(ctx context.Context, examples []models.Example) error {
	if r.cp.IntegrationGenerated == models.PhaseDone {
		r.logger.Info("Integration examples already generated, skipping")
		r.o.updateStats(PhaseIntegration, func(ps *PhaseStats) { ps.Skipped++ })
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	gen := r.o.cfg.Generation
	sample := examples[:min(gen.IntegrationSampleSize, len(examples))]
	prompt, err := r.render(PhaseIntegration, r.o.cfg.PromptTemplates.Integration, map[string]interface{}{
		"Context":  excerpts(sample, gen.IntegrationExcerptChars),
		"NumPairs": gen.IntegrationPairs,
	})
	if err != nil {
		return err
	}

	logger := r.logger.With("phase", PhaseIntegration)
	logger.Info("Generating integration examples", "context_examples", len(sample))

	got, err := r.generate(ctx, logger, PhaseIntegration, prompt, pairs.QAShape)
	if err != nil {
		return err
	}

	r.commit(got, func(cp *models.Checkpoint) { cp.IntegrationGenerated = models.PhaseDone })
	return nil
}

func (r *run) codeGenerationPhase(ctx context.Context, docs, code []models.Example) error {
	if r.cp.CodeGenerationGenerated == models.PhaseDone {
		r.logger.Info("Code generation examples already generated, skipping")
		r.o.updateStats(PhaseCodeGeneration, func(ps *PhaseStats) { ps.Skipped++ })
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	gen := r.o.cfg.Generation
	var sample []models.Example
	sample = append(sample, docs[:min(gen.CodeGenerationDocSamples, len(docs))]...)
	sample = append(sample, code[:min(gen.CodeGenerationCodeSamples, len(code))]...)

	prompt, err := r.render(PhaseCodeGeneration, r.o.cfg.PromptTemplates.CodeGeneration, map[string]interface{}{
		"Context":    excerpts(sample, gen.CodeGenerationExcerptChars),
		"NumPairs":   gen.CodeGenerationPairs,
		"ImportHint": gen.ImportHint,
	})
	if err != nil {
		return err
	}

	logger := r.logger.With("phase", PhaseCodeGeneration)
	logger.Info("Generating code generation examples", "context_examples", len(sample))

	got, err := r.generate(ctx, logger, PhaseCodeGeneration, prompt, pairs.InstructionShape)
	if err != nil {
		return err
	}

	r.commit(got, func(cp *models.Checkpoint) { cp.CodeGenerationGenerated = models.PhaseDone })
	return nil
}

// excerpts renders labelled, truncated examples separated by blank lines
func excerpts(examples []models.Example, maxChars int) string {
	parts := make([]string, 0, len(examples))
	for _, ex := range examples {
		label := labelDocumentation
		if ex.Type == models.ExampleTypeCode {
			label = labelCode
		}
		parts = append(parts, label+util.TruncateString(ex.Content, maxChars))
	}
	return strings.Join(parts, "\n\n")
}

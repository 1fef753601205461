package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/lamim/finetuneforge/internal/checkpoint"
	"github.com/lamim/finetuneforge/internal/config"
	"github.com/lamim/finetuneforge/internal/ingest"
	"github.com/lamim/finetuneforge/internal/llm"
	"github.com/lamim/finetuneforge/internal/metrics"
	"github.com/lamim/finetuneforge/internal/orchestrator"
	"github.com/lamim/finetuneforge/internal/writer"
)

// loadEnv loads the env file when present. Existing variables win.
func loadEnv(path string) {
	if path == "" {
		return
	}
	if err := godotenv.Load(path); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "Warning: failed to load env file: %v\n", err)
		}
		return
	}
	if verbose {
		fmt.Fprintf(os.Stderr, "Loaded env file: %s\n", path)
	}
}

// loadConfig reads the config file and applies command line overrides
func loadConfig() (*config.Config, *config.Secrets, error) {
	cfg, secrets, err := config.LoadOptional(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if applyOverrides(cfg) {
		if err := cfg.Validate(); err != nil {
			return nil, nil, fmt.Errorf("invalid configuration: %w", err)
		}
		if err := cfg.ValidateInputs(); err != nil {
			return nil, nil, fmt.Errorf("input validation failed: %w", err)
		}
	}
	return cfg, secrets, nil
}

// applyOverrides copies set flags into cfg and reports whether anything changed
func applyOverrides(cfg *config.Config) bool {
	changed := false
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
			changed = true
		}
	}
	set(&cfg.Input.DocumentationPath, docPath)
	set(&cfg.Input.ExamplesDir, examplesDir)
	set(&cfg.Output.DatasetPath, outputPath)
	set(&cfg.Output.CheckpointPath, checkpointPath)
	set(&cfg.Metrics.ListenAddr, metricsAddr)
	return changed
}

func logLevel() slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

func runGeneration(cmd *cobra.Command, args []string) error {
	loadEnv(envFile)

	cfg, secrets, err := loadConfig()
	if err != nil {
		return err
	}

	logger, logCloser, err := writer.SetupLogger(cfg.Output.LogPath, logLevel())
	if err != nil {
		return fmt.Errorf("failed to setup logger: %w", err)
	}
	defer logCloser.Close()

	logger.Info("FinetuneForge starting",
		"version", Version,
		"config", configPath,
		"provider", cfg.Generation.Provider,
		"model", cfg.Model.ModelName)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	collector := metrics.NewCollector(logger)
	if cfg.Metrics.ListenAddr != "" {
		srv := collector.Serve(cfg.Metrics.ListenAddr)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("Metrics server shutdown failed", "error", err)
			}
		}()
	}

	src := ingest.Sources{
		DocumentationPath: cfg.Input.DocumentationPath,
		ChunkSize:         cfg.Input.ChunkSize,
		ChunkOverlap:      cfg.Input.ChunkOverlap,
		ExamplesDir:       cfg.Input.ExamplesDir,
		Scan: ingest.ScanOptions{
			Extensions: cfg.Input.Extensions,
			IgnoreDirs: cfg.Input.IgnoreDirs,
		},
	}
	if cfg.Input.ExtractSymbols {
		src.Scan.Outliner = ingest.NewOutliner()
	}
	examples, err := ingest.Load(ctx, logger, src)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return interrupted(logger, cfg, err)
		}
		return err
	}

	gen, err := llm.New(ctx, cfg, secrets, logger, collector)
	if err != nil {
		return fmt.Errorf("failed to create generator: %w", err)
	}
	defer func() {
		if err := gen.Close(); err != nil {
			logger.Warn("Failed to close generator", "error", err)
		}
	}()

	store := checkpoint.NewStore(cfg.Output.CheckpointPath, logger)

	opts := []orchestrator.Option{orchestrator.WithMetrics(collector)}
	if cfg.Generation.ShowProgress {
		opts = append(opts, orchestrator.WithProgressWriter(os.Stderr))
	}
	orch := orchestrator.New(cfg, gen, store, logger, opts...)

	records, err := orch.Run(ctx, examples)
	if err != nil {
		return interrupted(logger, cfg, err)
	}

	if len(records) == 0 {
		logger.Error("No training data generated")
		return fmt.Errorf("no training data generated")
	}

	logger.Info("Saving training data", "records", len(records), "path", cfg.Output.DatasetPath)
	if err := writer.WriteJSONL(cfg.Output.DatasetPath, records); err != nil {
		return fmt.Errorf("failed to save training data: %w", err)
	}
	writer.ComputeStats(records).Log(logger)

	if err := store.Clear(); err != nil {
		logger.Warn("Failed to clear checkpoint", "path", store.Path(), "error", err)
	}

	stats := orch.Stats()
	logger.Info("Generation complete",
		"run_id", stats.RunID,
		"records", stats.TotalRecords,
		"duration", stats.EndTime.Sub(stats.StartTime),
		"dataset", cfg.Output.DatasetPath)
	return nil
}

// interrupted turns a cancelled run into a resume hint
func interrupted(logger *slog.Logger, cfg *config.Config, err error) error {
	if !errors.Is(err, context.Canceled) {
		return fmt.Errorf("generation failed: %w", err)
	}
	logger.Warn("Generation interrupted, progress saved",
		"checkpoint", cfg.Output.CheckpointPath,
		"resume_command", resumeCommand())
	return fmt.Errorf("generation interrupted (rerun the same command to resume)")
}

func resumeCommand() string {
	cmd := "finetuneforge run --config " + configPath
	if checkpointPath != "" {
		cmd += " --checkpoint " + checkpointPath
	}
	return cmd
}

// newStore builds a checkpoint store for the inspect and clear commands
func newStore(w io.Writer) (*checkpoint.Store, error) {
	cfg, _, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: logLevel()}))
	return checkpoint.NewStore(cfg.Output.CheckpointPath, logger), nil
}

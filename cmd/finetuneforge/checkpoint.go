package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/lamim/finetuneforge/internal/checkpoint"
)

// inspectCheckpoint displays detailed information about the checkpoint
func inspectCheckpoint(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	store, err := newStore(cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	cp, err := store.Read()
	if errors.Is(err, checkpoint.ErrNoCheckpoint) {
		fmt.Fprintf(out, "No checkpoint found at %s\n", store.Path())
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read checkpoint: %w", err)
	}

	summary := checkpoint.Summarize(cp)
	fmt.Fprintf(out, "Checkpoint: %s\n", store.Path())
	if err := renderSummary(out, summary); err != nil {
		return err
	}

	if summary.Complete() {
		fmt.Fprintln(out, "\nAll units are done. The next run only writes the dataset.")
	} else {
		fmt.Fprintf(out, "\nTo resume, run:\n  %s\n", resumeCommand())
	}
	return nil
}

func renderSummary(w io.Writer, s checkpoint.Summary) error {
	table := tablewriter.NewWriter(w)
	table.Header("Property", "Value")

	rows := [][]string{
		{"Run ID", s.RunID},
		{"Last saved", s.Timestamp},
		{"Documentation chunks", fmt.Sprintf("%d / %d", s.ProcessedChunks, s.TotalDocChunks)},
		{"Code examples", fmt.Sprintf("%d / %d", s.ProcessedCodeExamples, s.TotalCodeExamples)},
		{"Integration", s.Integration.String()},
		{"Code generation", s.CodeGeneration.String()},
		{"Training records", fmt.Sprintf("%d", s.TrainingRecords)},
		{"Progress", fmt.Sprintf("%.1f%%", s.ProgressPercentage())},
	}
	for _, row := range rows {
		if err := table.Append(row); err != nil {
			return fmt.Errorf("failed to render table: %w", err)
		}
	}
	return table.Render()
}

// clearCheckpoint deletes the checkpoint file
func clearCheckpoint(cmd *cobra.Command, args []string) error {
	store, err := newStore(cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	if _, err := os.Stat(store.Path()); errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(cmd.OutOrStdout(), "No checkpoint found at %s\n", store.Path())
		return nil
	}

	if err := store.Clear(); err != nil {
		return fmt.Errorf("failed to clear checkpoint: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed checkpoint %s\n", store.Path())
	return nil
}

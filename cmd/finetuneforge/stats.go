package main

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/lamim/finetuneforge/internal/writer"
)

// datasetStats prints the keyword summary of a dataset file
func datasetStats(cmd *cobra.Command, args []string) error {
	records, err := writer.ReadJSONL(args[0])
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Dataset: %s\n", args[0])
	return renderStats(cmd.OutOrStdout(), writer.ComputeStats(records))
}

func renderStats(w io.Writer, s writer.Stats) error {
	table := tablewriter.NewWriter(w)
	table.Header("Category", "Count")

	rows := [][]string{
		{"total", fmt.Sprintf("%d", s.Total)},
		{"code generation", fmt.Sprintf("%d", s.CodeGeneration)},
	}
	for _, category := range writer.Categories {
		if n := s.Questions[category]; n > 0 {
			rows = append(rows, []string{category, fmt.Sprintf("%d", n)})
		}
	}
	rows = append(rows, []string{"code related", fmt.Sprintf("%d", s.CodeRelated)})

	for _, row := range rows {
		if err := table.Append(row); err != nil {
			return fmt.Errorf("failed to render table: %w", err)
		}
	}
	return table.Render()
}

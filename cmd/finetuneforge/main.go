package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

var (
	configPath     string
	envFile        string
	verbose        bool
	docPath        string
	examplesDir    string
	outputPath     string
	checkpointPath string
	metricsAddr    string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "finetuneforge",
		Short: "FinetuneForge - SFT dataset generator for library documentation",
		Long: `FinetuneForge turns a library's documentation and code examples into a
supervised fine-tuning dataset of chat conversations using an LLM.
Progress is checkpointed after every unit so interrupted runs resume.`,
		Version:      fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildTime),
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.toml", "Path to configuration file (built-in defaults if missing)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Path to environment file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&checkpointPath, "checkpoint", "", "Checkpoint file (overrides output.checkpoint_path)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the dataset generation pipeline",
		Long: `Run the complete dataset generation pipeline:
1. Generate Q&A pairs for every documentation chunk
2. Generate Q&A pairs for every code example file
3. Generate integration and troubleshooting Q&A pairs (once)
4. Generate instruction/implementation pairs (once)

Rerun the same command after an interruption to resume from the checkpoint.`,
		Args: cobra.NoArgs,
		RunE: runGeneration,
	}
	runCmd.Flags().StringVar(&docPath, "doc", "", "Documentation file (overrides input.documentation_path)")
	runCmd.Flags().StringVar(&examplesDir, "examples", "", "Code examples directory (overrides input.examples_dir)")
	runCmd.Flags().StringVar(&outputPath, "output", "", "Output JSONL file (overrides output.dataset_path)")
	runCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :2112")

	checkpointCmd := &cobra.Command{
		Use:   "checkpoint",
		Short: "Manage checkpoints",
		Long:  "Inspect or discard the checkpoint of an interrupted run",
	}

	inspectCmd := &cobra.Command{
		Use:   "inspect",
		Short: "Inspect the checkpoint",
		Args:  cobra.NoArgs,
		RunE:  inspectCheckpoint,
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete the checkpoint so the next run starts fresh",
		Args:  cobra.NoArgs,
		RunE:  clearCheckpoint,
	}

	checkpointCmd.AddCommand(inspectCmd)
	checkpointCmd.AddCommand(clearCmd)

	statsCmd := &cobra.Command{
		Use:   "stats <dataset.jsonl>",
		Short: "Summarize a generated dataset",
		Args:  cobra.ExactArgs(1),
		RunE:  datasetStats,
	}

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(checkpointCmd)
	rootCmd.AddCommand(statsCmd)

	return rootCmd
}

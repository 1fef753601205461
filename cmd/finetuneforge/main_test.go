package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lamim/finetuneforge/internal/api"
	"github.com/lamim/finetuneforge/internal/checkpoint"
	"github.com/lamim/finetuneforge/internal/config"
	"github.com/lamim/finetuneforge/internal/writer"
	"github.com/lamim/finetuneforge/pkg/models"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

// fakeOpenAI answers every chat completion with one pair of the shape the
// prompt asks for.
func fakeOpenAI(t *testing.T, calls *atomic.Int32) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req api.ChatCompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad request body: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		n := calls.Add(1)
		prompt := req.Messages[len(req.Messages)-1].Content

		content := fmt.Sprintf(`[{"question":"How does call %d work?","answer":"Like this."}]`, n)
		if strings.Contains(prompt, "instruction-following") {
			content = "```json\n" + `[{"instruction":"Create a mic button component","implementation":"` +
				"```tsx\\nexport const Mic = () => null;\\n```" + `"}]` + "\n```"
		}

		resp := api.ChatCompletionResponse{
			Choices: []api.Choice{{Message: api.Message{Role: "assistant", Content: content}, FinishReason: "stop"}},
			Usage:   api.Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func TestRunCommand_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	docFile := filepath.Join(dir, "llm-full.txt")
	examples := filepath.Join(dir, "examples")
	output := filepath.Join(dir, "out", "training.jsonl")
	cpFile := filepath.Join(dir, "checkpoint.json")

	if err := os.WriteFile(docFile, []byte("# Voice UI Kit\n\nRender <ConsoleTemplate /> to get started.\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(examples, "basic"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(examples, "basic", "App.tsx"), []byte("export function App() { return null; }\n"), 0644); err != nil {
		t.Fatal(err)
	}

	var calls atomic.Int32
	server := fakeOpenAI(t, &calls)
	defer server.Close()

	cfgFile := filepath.Join(dir, "config.toml")
	cfgBody := fmt.Sprintf(`
[input]
extract_symbols = true

[model]
base_url = %q
model_name = "test-model"
`, server.URL)
	if err := os.WriteFile(cfgFile, []byte(cfgBody), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := execute(t, "run",
		"--config", cfgFile,
		"--env-file", "",
		"--doc", docFile,
		"--examples", examples,
		"--output", output,
		"--checkpoint", cpFile)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if got := calls.Load(); got != 4 {
		t.Errorf("expected 4 model calls, got %d", got)
	}

	records, err := writer.ReadJSONL(output)
	if err != nil {
		t.Fatalf("failed to read output: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("expected 4 records, got %d", len(records))
	}
	if got := records[3].UserContent(); got != "Create a mic button component" {
		t.Errorf("last record should come from code generation, got %q", got)
	}
	if !strings.Contains(records[3].Messages[1].Content, "```tsx") {
		t.Errorf("implementation should keep its code fence: %q", records[3].Messages[1].Content)
	}

	if _, err := os.Stat(cpFile); !os.IsNotExist(err) {
		t.Error("checkpoint should be cleared after a successful run")
	}
}

func TestRunCommand_MissingDocumentation(t *testing.T) {
	dir := t.TempDir()
	_, err := execute(t, "run",
		"--config", filepath.Join(dir, "none.toml"),
		"--env-file", "",
		"--doc", filepath.Join(dir, "missing.txt"),
		"--examples", dir,
		"--output", filepath.Join(dir, "out.jsonl"),
		"--checkpoint", filepath.Join(dir, "cp.json"))
	if err == nil {
		t.Fatal("expected error for missing documentation")
	}
	if !strings.Contains(err.Error(), "failed to read documentation") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestCheckpointInspect(t *testing.T) {
	dir := t.TempDir()
	cpFile := filepath.Join(dir, "cp.json")

	cp := models.NewCheckpoint(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	cp.RunID = "run-abc"
	cp.ProcessedChunks = []int{0, 1}
	cp.TotalDocChunks = 4
	cp.TotalCodeExamples = 2
	cp.IntegrationGenerated = models.PhaseDone
	cp.TrainingData = []models.TrainingRecord{models.NewTrainingRecord("q", "a")}

	store := checkpoint.NewStore(cpFile, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err := store.Save(cp); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "checkpoint", "inspect", "--config", filepath.Join(dir, "none.toml"), "--checkpoint", cpFile)
	if err != nil {
		t.Fatalf("inspect failed: %v", err)
	}
	for _, want := range []string{"run-abc", "2 / 4", "0 / 2", "done", "not_started", "To resume"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestCheckpointInspect_Missing(t *testing.T) {
	dir := t.TempDir()
	out, err := execute(t, "checkpoint", "inspect", "--config", filepath.Join(dir, "none.toml"), "--checkpoint", filepath.Join(dir, "cp.json"))
	if err != nil {
		t.Fatalf("inspect failed: %v", err)
	}
	if !strings.Contains(out, "No checkpoint found") {
		t.Errorf("unexpected output: %s", out)
	}
}

func TestCheckpointClear(t *testing.T) {
	dir := t.TempDir()
	cpFile := filepath.Join(dir, "cp.json")
	if err := os.WriteFile(cpFile, []byte("{}"), 0644); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "checkpoint", "clear", "--config", filepath.Join(dir, "none.toml"), "--checkpoint", cpFile)
	if err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	if !strings.Contains(out, "Removed checkpoint") {
		t.Errorf("unexpected output: %s", out)
	}
	if _, err := os.Stat(cpFile); !os.IsNotExist(err) {
		t.Error("checkpoint file should be removed")
	}
}

func TestStatsCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.jsonl")
	records := []models.TrainingRecord{
		models.NewTrainingRecord("How do I theme it?", "a"),
		models.NewTrainingRecord("How do I install it?", "a"),
		models.NewTrainingRecord("Create a component for push-to-talk", "a"),
	}
	if err := writer.WriteJSONL(path, records); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "stats", path)
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	for _, want := range []string{"code generation", "how", "code related"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestApplyOverrides(t *testing.T) {
	newRootCmd() // resets flag variables to their defaults

	cfg := config.Default()
	if applyOverrides(cfg) {
		t.Error("no flags set, nothing should change")
	}

	docPath = "docs/all.txt"
	metricsAddr = ":2112"
	defer newRootCmd()

	if !applyOverrides(cfg) {
		t.Fatal("expected overrides to apply")
	}
	if cfg.Input.DocumentationPath != "docs/all.txt" {
		t.Errorf("DocumentationPath = %q", cfg.Input.DocumentationPath)
	}
	if cfg.Metrics.ListenAddr != ":2112" {
		t.Errorf("ListenAddr = %q", cfg.Metrics.ListenAddr)
	}
	if cfg.Output.DatasetPath != "comprehensive_training.jsonl" {
		t.Errorf("DatasetPath should keep its default, got %q", cfg.Output.DatasetPath)
	}
}

func TestLoadConfig_ValidatesOverriddenPaths(t *testing.T) {
	newRootCmd()
	defer newRootCmd()

	configPath = filepath.Join(t.TempDir(), "config.toml")
	outputPath = "dataset\x1b.jsonl"

	_, _, err := loadConfig()
	if err == nil || !strings.Contains(err.Error(), "output.dataset_path") {
		t.Fatalf("loadConfig() error = %v, want dataset path rejection", err)
	}

	outputPath = filepath.Join(t.TempDir(), "dataset.jsonl")
	cfg, _, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if cfg.Output.DatasetPath != outputPath {
		t.Errorf("DatasetPath = %q, want %q", cfg.Output.DatasetPath, outputPath)
	}
}

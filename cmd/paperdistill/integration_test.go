package main

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/csheth/paperdistill/internal/tuitest"
)

func TestPaperDistillShowsSearchScreen(t *testing.T) {
	if testing.Short() {
		t.Skip("builds and runs the binary")
	}
	t.Parallel()

	cmdDir := moduleDir(t)
	binary := buildBinary(t, cmdDir)
	rec, err := tuitest.Run(context.Background(), tuitest.Config{
		Command: []string{binary, "-no-alt-screen", "-config", filepath.Join(t.TempDir(), "missing.yaml")},
		Dir:     cmdDir,
		Env: []string{
			"PAPERDISTILL_CACHE_DIR=" + t.TempDir(),
			"OPENAI_API_KEY=",
		},
		Width:  100,
		Height: 32,
		Steps: []tuitest.Step{
			tuitest.Wait(time.Second),
			tuitest.Press(tuitest.KeyCtrlC, 0),
		},
		Timeout:        10 * time.Second,
		AllowInterrupt: true,
	})
	if err != nil {
		t.Fatalf("run CLI: %v", err)
	}

	frame, ok := rec.FinalFrame()
	if !ok {
		t.Fatalf("no frames captured")
	}
	for _, want := range []string{"Paper Distill", "arXiv for use of its open access interoperability"} {
		if !rec.Contains(want) {
			t.Fatalf("output missing %q; final frame:\n%s", want, frame.Plain)
		}
	}
}

func TestLoadConfigFlagOverrides(t *testing.T) {
	t.Setenv("OLLAMA_HOST", "")
	t.Setenv("OLLAMA_MODEL", "")
	cfg, err := loadConfig(flags{
		configPath: filepath.Join(t.TempDir(), "missing.yaml"),
		port:       9191,
		generator:  "ollama",
		model:      "llama3",
	})
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Server.Port != 9191 {
		t.Fatalf("port = %d", cfg.Server.Port)
	}
	if cfg.Generator.Provider != "ollama" || cfg.Generator.Model != "llama3" {
		t.Fatalf("generator = %+v", cfg.Generator)
	}
	if !strings.HasPrefix(cfg.Generator.Endpoint, "http://localhost") {
		t.Fatalf("endpoint = %q", cfg.Generator.Endpoint)
	}
}

func TestLoadConfigRejectsUnknownProvider(t *testing.T) {
	_, err := loadConfig(flags{
		configPath: filepath.Join(t.TempDir(), "missing.yaml"),
		summarizer: "bert",
	})
	if err == nil || !strings.Contains(err.Error(), "bert") {
		t.Fatalf("expected provider error, got %v", err)
	}
}

func moduleDir(t *testing.T) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatalf("runtime caller unavailable")
	}
	return filepath.Dir(file)
}

func buildBinary(t *testing.T, cmdDir string) string {
	t.Helper()
	name := "paperdistill-integration"
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	binPath := filepath.Join(t.TempDir(), name)
	cmd := exec.Command("go", "build", "-o", binPath, ".")
	cmd.Dir = cmdDir
	if output, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("build CLI: %v\n%s", err, output)
	}
	return binPath
}

func TestLoadConfigKeepsSectionForSameProvider(t *testing.T) {
	t.Setenv("OLLAMA_HOST", "")
	t.Setenv("OLLAMA_MODEL", "")
	t.Setenv("OPENAI_API_KEY", "")
	path := filepath.Join(t.TempDir(), "paperdistill.yaml")
	yaml := `summarizer:
  provider: ollama
  endpoint: http://gpu-box:11434
  model: distil
generator:
  provider: openai
  api_key: sk-from-file
  endpoint: https://llm.internal/v1
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := loadConfig(flags{configPath: path, summarizer: "ollama", generator: "OpenAI"})
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Summarizer.Endpoint != "http://gpu-box:11434" || cfg.Summarizer.Model != "distil" {
		t.Fatalf("summarizer section reset: %+v", cfg.Summarizer)
	}
	if cfg.Generator.APIKey != "sk-from-file" || cfg.Generator.Endpoint != "https://llm.internal/v1" {
		t.Fatalf("generator section reset: %+v", cfg.Generator)
	}

	cfg, err = loadConfig(flags{configPath: path, generator: "ollama"})
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Generator.APIKey != "" || cfg.Generator.Endpoint != "http://localhost:11434" {
		t.Fatalf("switching provider kept old settings: %+v", cfg.Generator)
	}
}

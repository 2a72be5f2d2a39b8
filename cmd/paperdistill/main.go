package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/csheth/paperdistill/internal/arxiv"
	"github.com/csheth/paperdistill/internal/config"
	"github.com/csheth/paperdistill/internal/llm"
	"github.com/csheth/paperdistill/internal/logging"
	"github.com/csheth/paperdistill/internal/metrics"
	"github.com/csheth/paperdistill/internal/server"
	"github.com/csheth/paperdistill/internal/session"
	"github.com/csheth/paperdistill/internal/textprep"
	"github.com/csheth/paperdistill/internal/tui"
)

var version = "dev"

const usage = `usage: paperdistill [tui|serve|version] [flags]

  tui      interactive terminal interface (default)
  serve    HTTP API
  version  print the version
`

type flags struct {
	configPath  string
	debug       bool
	noAltScreen bool
	host        string
	port        int
	summarizer  string
	generator   string
	model       string
}

func main() {
	command := "tui"
	args := os.Args[1:]
	if len(args) > 0 && args[0] != "" && args[0][0] != '-' {
		command, args = args[0], args[1:]
	}

	var err error
	switch command {
	case "tui":
		err = runTUI(args)
	case "serve":
		err = runServe(args)
	case "version":
		fmt.Println("paperdistill", version)
	case "help":
		fmt.Print(usage)
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		fmt.Println("program error:", err)
		os.Exit(1)
	}
}

func parseFlags(name string, args []string) (flags, error) {
	var f flags
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.StringVar(&f.configPath, "config", "paperdistill.yaml", "path to the YAML config file")
	fs.BoolVar(&f.debug, "debug", false, "enable debug logging")
	fs.BoolVar(&f.noAltScreen, "no-alt-screen", false, "disable the alternate screen buffer")
	fs.StringVar(&f.host, "host", "", "override the HTTP listen host")
	fs.IntVar(&f.port, "port", 0, "override the HTTP listen port")
	fs.StringVar(&f.summarizer, "summarizer", "", "abstract summarizer provider (huggingface, ollama)")
	fs.StringVar(&f.generator, "generator", "", "generation provider (openai, anthropic, ollama)")
	fs.StringVar(&f.model, "model", "", "override the generation model")
	if err := fs.Parse(args); err != nil {
		return flags{}, err
	}
	return f, nil
}

// loadConfig applies command-line overrides on top of the file and environment.
func loadConfig(f flags) (*config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, err
	}
	if f.debug {
		cfg.Debug = true
	}
	if f.host != "" {
		cfg.Server.Host = f.host
	}
	if f.port != 0 {
		cfg.Server.Port = f.port
	}
	if f.summarizer != "" || f.generator != "" || f.model != "" {
		// Switching provider drops settings that belonged to the old one.
		if f.summarizer != "" && !sameProvider(f.summarizer, cfg.Summarizer.Provider) {
			cfg.Summarizer = config.SummarizerConfig{Provider: f.summarizer, Timeout: cfg.Summarizer.Timeout}
		}
		if f.generator != "" && !sameProvider(f.generator, cfg.Generator.Provider) {
			cfg.Generator = config.GeneratorConfig{Provider: f.generator, MaxTokens: cfg.Generator.MaxTokens, Timeout: cfg.Generator.Timeout}
		}
		if f.model != "" {
			cfg.Generator.Model = f.model
		}
		config.ApplyEnv(cfg)
		config.ApplyDefaults(cfg)
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func sameProvider(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// buildOptions wires the collaborators shared by every session.
func buildOptions(cfg *config.Config, logger *zap.Logger, recorder metrics.Recorder) (session.Options, error) {
	client, err := arxiv.NewClient(cfg.Arxiv, arxiv.Options{Logger: logger.Named("arxiv")})
	if err != nil {
		return session.Options{}, err
	}

	llmOpts := llm.Options{Logger: logger.Named("llm"), Recorder: recorder}
	summarizer, err := llm.NewSummarizer(cfg.Summarizer, llmOpts)
	if err != nil {
		return session.Options{}, err
	}
	generator, err := llm.NewGenerator(cfg.Generator, llmOpts)
	if err != nil {
		logger.Warn("generator disabled", zap.String("provider", cfg.Generator.Provider), zap.Error(err))
		generator = llm.Unavailable(cfg.Generator.Provider, err)
	}

	return session.Options{
		Searcher:          client,
		TextSource:        client,
		Summarizer:        summarizer,
		Generator:         generator,
		Splitter:          textprep.DefaultSplitter(),
		Logger:            logger,
		Recorder:          recorder,
		QuestionCharLimit: cfg.Session.MaxQuestionChars,
	}, nil
}

func runTUI(args []string) error {
	f, err := parseFlags("tui", args)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(f)
	if err != nil {
		return err
	}
	logger, err := logging.NewForTUI(cfg.Debug, cfg.LogFile)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	opts, err := buildOptions(cfg, logger, metrics.Nop{})
	if err != nil {
		return err
	}

	programOpts := []tea.ProgramOption{tea.WithMouseCellMotion()}
	if !f.noAltScreen {
		programOpts = append(programOpts, tea.WithAltScreen())
	}
	program := tea.NewProgram(
		tui.New(tui.Config{
			Session:        session.New(opts),
			Logger:         logger.Named("tui"),
			DefaultPercent: cfg.Session.DefaultPercent,
			MaxResults:     cfg.Arxiv.MaxResults,
		}),
		programOpts...,
	)
	_, err = program.Run()
	return err
}

func runServe(args []string) error {
	f, err := parseFlags("serve", args)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(f)
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Debug, cfg.LogFile)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder, err := metrics.NewPrometheus(reg)
	if err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}

	opts, err := buildOptions(cfg, logger, recorder)
	if err != nil {
		return err
	}
	srv := server.NewServer(session.NewManager(opts), reg, cfg.Server, logger.Named("server"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go srv.SweepIdle(ctx, time.Minute, cfg.Session.IdleTimeout)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Stop(shutdownCtx)
}

// Agorad is the discussion dialogue server.
//
// It runs AI-guided classroom discussions: each student converses with a
// mode-configured AI tutor (Socratic questioner, balanced debater,
// devil's advocate, or quiet mirror), with responses streamed over SSE
// or WebSocket and every turn persisted. Configuration is loaded from a
// single YAML file discovered automatically (see
// [config.DefaultSearchPaths]).
//
// Usage:
//
//	agorad serve              Start the API server
//	agorad init [dir]         Initialize a working directory with defaults
//	agorad ask <message>      Run a single exchange against a demo discussion
//	agorad version            Print version and build information
//	agorad -o json version    Output version information as JSON
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/agora-edu/agora-dialogue/internal/api"
	"github.com/agora-edu/agora-dialogue/internal/buildinfo"
	"github.com/agora-edu/agora-dialogue/internal/config"
	"github.com/agora-edu/agora-dialogue/internal/dialogue"
	"github.com/agora-edu/agora-dialogue/internal/llm"
	"github.com/agora-edu/agora-dialogue/internal/store"
)

// main is intentionally minimal. It constructs the OS-level environment
// (context, stdio, argv) and delegates immediately to [run]. This keeps
// os.Exit, os.Stdout, and os.Args out of the application logic so that
// the full startup-to-shutdown lifecycle can be driven from tests.
func main() {
	ctx := context.Background()

	if err := run(ctx, os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}

// run is the real entry point for the agorad command. All OS-level
// dependencies are injected as parameters. Arguments are parsed by hand:
// the flag package relies on package-level globals, which makes it
// impossible to call run() concurrently from tests, and the argument
// surface here is small.
func run(ctx context.Context, stdout io.Writer, stderr io.Writer, args []string) error {
	var configPath string
	var outputFmt string // "text" (default) or "json"
	var command string
	var cmdArgs []string

	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == "-config" && i+1 < len(args):
			configPath = args[i+1]
			i++
		case strings.HasPrefix(args[i], "-config="):
			configPath = strings.TrimPrefix(args[i], "-config=")
		case (args[i] == "-o" || args[i] == "--output") && i+1 < len(args):
			outputFmt = args[i+1]
			i++
		case strings.HasPrefix(args[i], "-o="):
			outputFmt = strings.TrimPrefix(args[i], "-o=")
		case strings.HasPrefix(args[i], "--output="):
			outputFmt = strings.TrimPrefix(args[i], "--output=")
		case args[i] == "-h" || args[i] == "-help" || args[i] == "--help":
			return printUsage(stdout)
		case !strings.HasPrefix(args[i], "-") && command == "":
			command = args[i]
		default:
			if command != "" {
				cmdArgs = append(cmdArgs, args[i])
			} else {
				return fmt.Errorf("unknown flag: %s", args[i])
			}
		}
	}

	if outputFmt == "" {
		outputFmt = "text"
	}
	if outputFmt != "text" && outputFmt != "json" {
		return fmt.Errorf("unknown output format: %q (expected text or json)", outputFmt)
	}

	switch command {
	case "serve":
		return runServe(ctx, stdout, stderr, configPath)
	case "init":
		dir := "."
		if len(cmdArgs) > 0 {
			dir = cmdArgs[0]
		}
		return runInit(stdout, dir)
	case "ask":
		if len(cmdArgs) == 0 {
			return fmt.Errorf("usage: agorad ask <message>")
		}
		return runAsk(ctx, stdout, configPath, cmdArgs)
	case "version":
		return runVersion(stdout, outputFmt)
	case "":
		return printUsage(stdout)
	default:
		return fmt.Errorf("unknown command: %s", command)
	}
}

// runVersion prints build metadata in the requested output format.
func runVersion(w io.Writer, outputFmt string) error {
	info := buildinfo.Info()
	if outputFmt == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	}
	fmt.Fprintln(w, buildinfo.String())
	for _, k := range []string{"version", "git_commit", "build_time", "go_version", "os", "arch"} {
		if v, ok := info[k]; ok {
			fmt.Fprintf(w, "  %-12s %s\n", k+":", v)
		}
	}
	return nil
}

// printUsage writes the top-level help text to w.
func printUsage(w io.Writer) error {
	fmt.Fprintln(w, "Agorad - Discussion Dialogue Server")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage: agorad [flags] <command> [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  serve        Start the API server")
	fmt.Fprintln(w, "  init [dir]   Initialize working directory with defaults (default: .)")
	fmt.Fprintln(w, "  ask          Run a single exchange against a demo discussion")
	fmt.Fprintln(w, "  version      Show version information")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -config <path>    Path to config file (default: auto-discover)")
	fmt.Fprintln(w, "  -o, --output fmt  Output format: text (default) or json")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Config search order:")
	fmt.Fprintln(w, "  ./agora.yaml, ~/.config/agora/config.yaml, /etc/agora/config.yaml")
	return nil
}

// defaultConfigYAML is written by the init subcommand as a starting point.
const defaultConfigYAML = `# agorad configuration
listen:
  address: ""
  port: 8080

model:
  provider: openai      # openai or ollama
  name: gpt-5-mini
  openai:
    api_key: ${OPENAI_API_KEY}
    base_url: ""
  ollama:
    url: http://localhost:11434

store:
  path: agora.db        # empty = in-memory (demo only)
  max_history: 20

discourse:
  max_turns: 15
  locale: ko

log_level: info
`

// runInit writes a starter config file and opens the database once so the
// schema exists before the first serve.
func runInit(stdout io.Writer, dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}

	cfgPath := filepath.Join(dir, "agora.yaml")
	if _, err := os.Stat(cfgPath); err == nil {
		return fmt.Errorf("config already exists: %s", cfgPath)
	}
	if err := os.WriteFile(cfgPath, []byte(defaultConfigYAML), 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	fmt.Fprintf(stdout, "Wrote %s\n", cfgPath)

	dbPath := filepath.Join(dir, "agora.db")
	st, err := store.NewSQLiteStore(dbPath, 0)
	if err != nil {
		return fmt.Errorf("initialize database %s: %w", dbPath, err)
	}
	defer st.Close()
	fmt.Fprintf(stdout, "Initialized %s\n", dbPath)

	fmt.Fprintln(stdout, "Set OPENAI_API_KEY (or switch the provider to ollama) and run: agorad serve")
	return nil
}

// runAsk handles the "agorad ask <message>" subcommand. It seeds an
// in-memory store with a demo discussion and runs a single exchange,
// printing the response to stdout. Useful for smoke tests without a
// server or database. Without credentials the reply comes from the
// degraded pool.
func runAsk(ctx context.Context, stdout io.Writer, configPath string, args []string) error {
	logger := newLogger(stdout, slog.LevelWarn, "text")

	message := strings.Join(args, " ")

	// A missing config is fine for ask; defaults plus env credentials work.
	cfg := config.Default()
	if cfgPath, err := config.FindConfig(configPath); err == nil {
		loaded, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config %s: %w", cfgPath, err)
		}
		cfg = loaded
	} else if cfg.Model.OpenAI.APIKey == "" {
		cfg.Model.OpenAI.APIKey = os.Getenv("OPENAI_API_KEY")
	}

	mem := store.NewMemStore()
	discussion := &store.Discussion{
		Title:       "인공지능이 인간의 창의성을 대체할 수 있는가?",
		Description: "AI 예술, 음악, 글쓰기의 발전과 한계에 대해 토론합니다.",
		Settings:    store.Settings{AIMode: "socratic"},
	}
	if err := mem.CreateDiscussion(ctx, discussion); err != nil {
		return fmt.Errorf("seed discussion: %w", err)
	}
	participant := &store.Participant{
		SessionID:   discussion.ID,
		DisplayName: "cli",
		Stance:      "pro",
	}
	if err := mem.CreateParticipant(ctx, participant); err != nil {
		return fmt.Errorf("seed participant: %w", err)
	}

	client := createLLMClient(cfg, logger)
	engine := dialogue.NewEngine(mem, client, cfg.Model.Name, cfg.Discourse.MaxTurns, logger)

	resp, err := engine.RespondStream(ctx, dialogue.Request{
		DiscussionID:  discussion.ID,
		ParticipantID: participant.ID,
		Message:       message,
		Locale:        cfg.Discourse.Locale,
	}, func(chunk string) error {
		_, err := fmt.Fprint(stdout, chunk)
		return err
	})
	if err != nil {
		return fmt.Errorf("ask: %w", err)
	}

	fmt.Fprintln(stdout)
	if resp.Degraded {
		fmt.Fprintln(stdout, "(degraded response: no model backend available)")
	}
	return nil
}

// runServe handles the "agorad serve" subcommand: load config, open the
// store, build the LLM client and engine, start the API server, and block
// until a shutdown signal arrives.
func runServe(ctx context.Context, stdout io.Writer, stderr io.Writer, configPath string) error {
	logger := newLogger(stdout, slog.LevelInfo, "text")
	logger.Info("starting agorad", "version", buildinfo.Version, "commit", buildinfo.GitCommit, "built", buildinfo.BuildTime)

	cfgPath, err := config.FindConfig(configPath)
	if err != nil {
		return err
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config %s: %w", cfgPath, err)
	}

	// Reconfigure logger now that we know the desired level. The initial
	// Info-level logger covers only the startup banner.
	if cfg.LogLevel != "" {
		level, err := config.ParseLogLevel(cfg.LogLevel)
		if err != nil {
			return err
		}
		logger = newLogger(stdout, level, "text")
	}

	logger.Info("config loaded",
		"path", cfgPath,
		"port", cfg.Listen.Port,
		"provider", cfg.Model.Provider,
		"model", cfg.Model.Name,
	)

	// --- Message store ---
	var gateway store.Gateway
	if cfg.Store.Path == "" {
		logger.Warn("no store path configured, using in-memory store (conversations lost on restart)")
		gateway = store.NewMemStore()
	} else {
		st, err := store.NewSQLiteStore(cfg.Store.Path, cfg.Store.MaxHistory)
		if err != nil {
			return fmt.Errorf("open message database %s: %w", cfg.Store.Path, err)
		}
		defer st.Close()
		logger.Info("message database opened", "path", cfg.Store.Path)
		gateway = st
	}

	// --- LLM client ---
	// A nil client puts the engine in degraded mode: the server stays up
	// and serves canned responses rather than refusing to start.
	client := createLLMClient(cfg, logger)
	if client == nil {
		logger.Warn("no model backend configured, running in degraded mode")
	} else {
		pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		if err := client.Ping(pingCtx); err != nil {
			logger.Warn("model backend not reachable at startup", "error", err)
		}
		cancel()
	}

	engine := dialogue.NewEngine(gateway, client, cfg.Model.Name, cfg.Discourse.MaxTurns, logger)
	server := api.NewServer(cfg.Listen.Address, cfg.Listen.Port, engine, gateway, logger)

	// --- Signal handling and graceful shutdown ---
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go func() {
		<-ctx.Done()
		logger.Info("shutdown signal received")
		_ = server.Shutdown(context.Background())
	}()

	if err := server.Start(ctx); err != nil {
		if ctx.Err() == nil {
			return fmt.Errorf("server failed: %w", err)
		}
	}

	logger.Info("agorad stopped")
	return nil
}

// createLLMClient builds the configured provider client. It returns nil
// when the provider's credentials are missing, which the engine treats as
// permanent degraded mode.
func createLLMClient(cfg *config.Config, logger *slog.Logger) llm.Client {
	switch cfg.Model.Provider {
	case "ollama":
		return llm.NewOllamaClient(cfg.Model.Ollama.URL, cfg.Model.Name)
	case "openai", "":
		if cfg.Model.OpenAI.APIKey == "" {
			return nil
		}
		client, err := llm.NewOpenAIClient(cfg.Model.OpenAI.APIKey, cfg.Model.OpenAI.BaseURL, cfg.Model.Name)
		if err != nil {
			logger.Warn("openai client unavailable", "error", err)
			return nil
		}
		return client
	default:
		logger.Warn("unknown model provider", "provider", cfg.Model.Provider)
		return nil
	}
}

// newLogger creates a structured logger that writes to w at the given
// level. Format must be "text" or "json"; any other value defaults to
// text.
func newLogger(w io.Writer, level slog.Level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: config.ReplaceLogLevelNames,
	}
	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/charmbracelet/log"

	"github.com/hpungsan/flowfocus/internal/ai"
	"github.com/hpungsan/flowfocus/internal/config"
	"github.com/hpungsan/flowfocus/internal/logging"
	"github.com/hpungsan/flowfocus/internal/mcp"
	"github.com/hpungsan/flowfocus/internal/ops"
	"github.com/hpungsan/flowfocus/internal/persist"
	"github.com/hpungsan/flowfocus/internal/transcript"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// cliCommands contains known CLI subcommands.
var cliCommands = map[string]bool{
	"serve": true, "note": true, "task": true, "habit": true,
	"deck": true, "plan": true, "pomodoro": true,
	"transcript": true, "summarize": true, "flashcards": true,
	"help": true,
}

// isCLIMode determines if we should run CLI vs MCP server.
func isCLIMode() bool {
	if len(os.Args) < 2 {
		return false // No args → MCP server
	}
	arg := os.Args[1]
	if cliCommands[arg] {
		return true
	}
	if arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" {
		return true
	}
	return false
}

// isHelpOrVersion returns true if the user is requesting help or version info.
func isHelpOrVersion() bool {
	if len(os.Args) < 2 {
		return false
	}
	arg := os.Args[1]
	return arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" || arg == "help"
}

// isTerminal returns true if stdin is a terminal (not piped).
func isTerminal() bool {
	stat, _ := os.Stdin.Stat()
	return (stat.Mode() & os.ModeCharDevice) != 0
}

// printBanner displays a friendly banner when run interactively without args.
func printBanner() {
	fmt.Println(`
  flowfocus

  Notes, tasks, habits and study tools

  Usage: flowfocus <command> [options]
         flowfocus serve
         flowfocus --help

  MCP server mode requires piped input.`)
}

// env is everything a command needs once storage is open.
type env struct {
	cfg         *config.Config
	logger      *log.Logger
	backend     *persist.Backend
	ws          *ops.Workspace
	ai          *ai.Service
	transcripts ai.TranscriptSource
}

// openEnv opens storage under baseDir and builds the workspace and AI
// service. AI flows stay disabled when no API key is configured.
func openEnv(ctx context.Context, baseDir string, cfg *config.Config, logger *log.Logger) (*env, error) {
	backend, err := persist.Open(baseDir, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	var opts []ops.Option
	if cfg.ExportsDir == "" {
		opts = append(opts, ops.WithExportsDir(filepath.Join(baseDir, "exports")))
	}
	adapter := persist.NewAdapter(backend.KV, cfg.DebounceInterval(), logger)
	ws := ops.NewWorkspace(ctx, adapter, cfg, logger, opts...)

	fetcher := transcript.NewFetcher(cfg, logger)
	var gen ai.Generator
	if g, err := ai.NewGeminiGenerator(ctx, cfg, logger); err == nil {
		gen = g
	} else {
		logger.Debug("AI flows disabled", "err", err)
	}

	return &env{
		cfg:         cfg,
		logger:      logger,
		backend:     backend,
		ws:          ws,
		ai:          ai.NewService(gen, fetcher, logger),
		transcripts: fetcher,
	}, nil
}

// close flushes pending writes and releases storage.
func (e *env) close(ctx context.Context) error {
	err := e.ws.Close(ctx)
	if e.backend != nil {
		if cerr := e.backend.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

func main() {
	// No args + interactive terminal → show banner and exit
	if len(os.Args) < 2 && isTerminal() {
		printBanner()
		return
	}

	// Handle --help/--version before opening storage
	if isHelpOrVersion() {
		app := newCLIApp(nil)
		if err := app.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	os.Exit(run())
}

func run() int {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: could not determine home directory: %v\n", err)
		return 1
	}
	baseDir := filepath.Join(homeDir, ".flowfocus")

	cfg, err := config.Load(baseDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to load config: %v\n", err)
		return 1
	}
	logger := logging.New(os.Stderr, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	e, err := openEnv(ctx, baseDir, cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	defer func() {
		// ctx may already be cancelled by a signal; the final flush still runs.
		if err := e.close(context.WithoutCancel(ctx)); err != nil {
			logger.Error("final flush failed", "err", err)
		}
	}()

	// CLI mode: known subcommand
	if isCLIMode() {
		app := newCLIApp(e)
		if err := app.RunContext(ctx, os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			return 1
		}
		return 0
	}

	// Unknown argument + terminal → show error (don't start MCP server)
	if len(os.Args) >= 2 && isTerminal() {
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n", os.Args[1])
		fmt.Fprintf(os.Stderr, "Run 'flowfocus --help' for usage.\n")
		return 1
	}

	// MCP server mode (default)
	h := mcp.NewHandlers(e.ws, e.ai, e.transcripts, logger)
	if err := mcp.Run(ctx, h, Version); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

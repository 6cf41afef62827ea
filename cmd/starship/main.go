package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/hpungsan/starship/internal/config"
	"github.com/hpungsan/starship/internal/mcp"
	"github.com/hpungsan/starship/internal/ops"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// cliCommands contains known CLI subcommands.
var cliCommands = map[string]bool{
	"launch": true, "land": true,
	"plot": true, "state": true, "continue": true, "orient": true, "compacted": true,
	"session": true, "capture": true, "review": true,
	"fly": true, "populate-defaults": true, "manual": true,
	"help": true,
}

// isCLIMode determines if we should run CLI vs MCP server.
func isCLIMode() bool {
	if len(os.Args) < 2 {
		return false
	}
	arg := os.Args[1]
	if cliCommands[arg] {
		return true
	}
	return arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v"
}

// isTerminal returns true if stdin is a terminal (not piped).
func isTerminal() bool {
	stat, _ := os.Stdin.Stat()
	return (stat.Mode() & os.ModeCharDevice) != 0
}

// printBanner displays a friendly banner when run interactively without args.
func printBanner() {
	fmt.Println(`
   ___ _____ _   ___  ___ _  _ ___ ___
  / __|_   _/_\ | _ \/ __| || |_ _| _ \
  \__ \ | |/ _ \|   /\__ \ __ || ||  _/
  |___/ |_/_/ \_\_|_\|___/_||_|___|_|

  Mission course tracking and session knowledge capture

  Usage: starship <command> [options]
         starship --help

  MCP server mode requires piped input.`)
}

// newLogger writes structured logs to stderr; stdout carries MCP traffic.
func newLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func main() {
	if len(os.Args) < 2 && isTerminal() {
		printBanner()
		return
	}

	// A missing or invalid config is reported per call, not at startup.
	cfg, cfgErr := config.Load()
	if cfgErr != nil {
		cfg = config.DefaultConfig()
	}
	logger := newLogger(cfg.SlogLevel())
	if cfgErr != nil {
		logger.Warn("configuration unavailable", "err", cfgErr)
	}

	if isCLIMode() {
		app := newCLIApp(func() (*ops.Env, error) { return ops.Load(logger) })
		if err := app.Run(os.Args); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	if len(os.Args) >= 2 && isTerminal() {
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n", os.Args[1])
		fmt.Fprintf(os.Stderr, "Run 'starship --help' for usage.\n")
		os.Exit(1)
	}

	logger.Info("starting MCP server", "version", Version, "root", cfg.Root, "backend", cfg.RegistryBackend)
	if err := mcp.Run(cfg, logger, Version); err != nil {
		logger.Error("MCP server stopped", "err", err)
		os.Exit(1)
	}
}

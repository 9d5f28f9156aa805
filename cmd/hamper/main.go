package main

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hpungsan/hamper/internal/api"
	"github.com/hpungsan/hamper/internal/config"
	"github.com/hpungsan/hamper/internal/db"
	"github.com/hpungsan/hamper/internal/errors"
	"github.com/hpungsan/hamper/internal/logger"
	"github.com/hpungsan/hamper/internal/mcp"
	"github.com/hpungsan/hamper/internal/metrics"
	"github.com/hpungsan/hamper/internal/ops"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// cliCommands contains known CLI subcommands.
var cliCommands = map[string]bool{
	"capture": true,
	"basket": true, "solve": true, "hamper": true, "symbols": true,
	"chat": true, "login": true, "logout": true, "me": true,
	"serve": true, "mcp": true,
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
	return arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v"
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
   _
  | |__   __ _ _ __ ___  _ __   ___ _ __
  | '_ \ / _' | '_ ' _ \| '_ \ / _ \ '__|
  | | | | (_| | | | | | | |_) |  __/ |
  |_| |_|\__,_|_| |_| |_| .__/ \___|_|
                        |_|
  Care-label reader and laundry basket

  Usage: hamper <command> [options]
         hamper --help

  MCP server mode requires piped input.`)
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
	os.Exit(1)
}

// openDatabase opens the on-disk basket, falling back to a session-only
// in-memory store when local storage is unusable.
func openDatabase(baseDir string, cfg *config.Config, log *logger.Logger) (*sql.DB, error) {
	database, err := db.Init(baseDir)
	if err == nil {
		db.ConfigurePool(database, cfg)
		return database, nil
	}
	if !errors.Is(err, errors.ErrStorageUnavailable) {
		return nil, err
	}
	log.Warn("local storage unavailable; basket will not survive this session", "error", err)
	return db.InitMemory()
}

func main() {
	// No args + interactive terminal → show banner and exit
	if len(os.Args) < 2 && isTerminal() {
		printBanner()
		return
	}

	// Handle --help/--version before DB init (no DB needed)
	if isHelpOrVersion() {
		app := newCLIApp(nil, nil)
		if err := app.Run(os.Args); err != nil {
			fatal("%v", err)
		}
		return
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		fatal("could not determine home directory: %v", err)
	}
	baseDir := filepath.Join(homeDir, ".hamper")

	cwd, _ := os.Getwd()
	cfg, err := config.LoadWithRepo(baseDir, cwd)
	if err != nil {
		fatal("failed to load config: %v", err)
	}

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		fatal("failed to build logger: %v", err)
	}
	defer log.Sync()

	if unknown := mcp.ValidateDisabledTools(cfg.DisabledTools); len(unknown) > 0 {
		log.Warn("ignoring unknown disabled_tools", "tools", strings.Join(unknown, ","))
	}
	if unknown := mcp.ValidateDisabledTypes(cfg.DisabledTypes); len(unknown) > 0 {
		log.Warn("ignoring unknown disabled_types", "types", strings.Join(unknown, ","))
	}

	database, err := openDatabase(baseDir, cfg, log)
	if err != nil {
		fatal("failed to initialize database: %v", err)
	}
	defer database.Close()

	m := metrics.New()

	opts := api.OptionsFromConfig(cfg)
	opts.Logger = log
	opts.Metrics = m
	opts.SessionPath = filepath.Join(baseDir, api.SessionFileName)
	client, err := api.New(opts)
	if err != nil {
		fatal("failed to create API client: %v", err)
	}

	env := ops.NewEnv(database, cfg, client, log, m)

	if isCLIMode() {
		app := newCLIApp(env, client)
		if err := app.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			log.Sync()
			os.Exit(1)
		}
		return
	}

	// Unknown argument + terminal → show error (don't start MCP server)
	if len(os.Args) >= 2 && isTerminal() {
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n", os.Args[1])
		fmt.Fprintf(os.Stderr, "Run 'hamper --help' for usage.\n")
		os.Exit(1)
	}

	// MCP server mode (default)
	if err := mcp.Run(env, Version); err != nil {
		fatal("%v", err)
	}
}

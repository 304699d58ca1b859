package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hpungsan/notegate/internal/bridge"
	"github.com/hpungsan/notegate/internal/config"
	"github.com/hpungsan/notegate/internal/db"
	"github.com/hpungsan/notegate/internal/errors"
	"github.com/hpungsan/notegate/internal/ledger"
	"github.com/hpungsan/notegate/internal/mcp"
	"github.com/hpungsan/notegate/internal/oracle"
	"github.com/hpungsan/notegate/internal/ops"
	"github.com/hpungsan/notegate/internal/settle"
	"github.com/hpungsan/notegate/internal/swap"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// cliCommands contains known CLI subcommands.
var cliCommands = map[string]bool{
	"add": true, "update": true, "delete": true,
	"get": true, "list": true, "export": true,
	"balance": true, "settlements": true, "serve": true,
	"help": true,
}

// isCLIMode determines if we should run CLI vs MCP server.
func isCLIMode() bool {
	if len(os.Args) < 2 {
		return false // No args → MCP server
	}
	arg := os.Args[1]
	// Known subcommand → CLI
	if cliCommands[arg] {
		return true
	}
	// --help or --version → CLI
	if arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" {
		return true
	}
	return false // Default → MCP server
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
   _  _     _                  _
  | \| |___| |_ ___ __ _ __ _| |_ ___
  | .' / _ \  _/ -_) _' / _' |  _/ -_)
  |_|\_\___/\__\___\__, \__,_|\__\___|
                   |___/

  Paid note store with on-ledger settlement

  Usage: notegate <command> [options]
         notegate --help

  MCP server mode requires piped input.`)
}

// env bundles everything a surface needs once the store is open.
type env struct {
	store      *db.NoteStore
	journal    *db.SettlementJournal
	settler    ops.Settler
	cfg        *config.Config
	gateway    *ledger.Gateway
	exportsDir string
}

// buildEnv wires the HTTP clients and the settlement pipeline from config.
// The pipeline is only usable when the endpoint URLs are configured; a paid
// operation against an unconfigured pipeline fails with INVALID_REQUEST.
func buildEnv(database *sql.DB, cfg *config.Config, baseDir string) (*env, error) {
	e := &env{
		store:      db.NewNoteStore(database),
		journal:    db.NewSettlementJournal(database),
		cfg:        cfg,
		exportsDir: filepath.Join(baseDir, "exports"),
	}

	if cfg.LedgerURL == "" || cfg.SwapURL == "" || cfg.BridgeURL == "" || cfg.OracleURL == "" {
		e.settler = &unconfiguredSettler{}
		return e, nil
	}
	if cfg.ServiceAccount == "" {
		return nil, fmt.Errorf("service_account is required when endpoint URLs are configured")
	}
	dest, err := bridge.ParseAddress(cfg.DestinationAddress)
	if err != nil {
		return nil, fmt.Errorf("destination_address: %w", err)
	}

	e.gateway = ledger.NewGateway(ledger.NewHTTPClient(cfg.LedgerURL), cfg.ServiceAccount, cfg.LedgerFee)
	e.settler = settle.New(settle.Config{
		Gateway:     e.gateway,
		Swap:        swap.NewHTTPClient(cfg.SwapURL),
		Bridge:      bridge.NewHTTPClient(cfg.BridgeURL),
		Oracle:      oracle.NewHTTPClient(cfg.OracleURL),
		Journal:     e.journal,
		Destination: dest,
		Pair:        cfg.OraclePair,
		SlippageBps: cfg.SlippageBps,
	})
	return e, nil
}

// unconfiguredSettler rejects paid operations until endpoints are set up.
type unconfiguredSettler struct{}

func (u *unconfiguredSettler) Run(ctx context.Context, caller string, amount uint64) (*settle.Receipt, error) {
	return nil, errors.NewInvalidRequest("settlement endpoints are not configured; set ledger_url, swap_url, bridge_url and oracle_url in config.json")
}

func main() {
	// No args + interactive terminal → show banner and exit
	if len(os.Args) < 2 && isTerminal() {
		printBanner()
		return
	}

	// Handle --help/--version before DB init (no DB needed)
	if isHelpOrVersion() {
		app := newCLIApp(nil)
		if err := app.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: could not determine home directory: %v\n", err)
		os.Exit(1)
	}

	baseDir := filepath.Join(homeDir, ".notegate")

	database, err := db.Init(baseDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to initialize database: %v\n", err)
		os.Exit(1)
	}
	defer database.Close()

	cwd, _ := os.Getwd()
	cfg, err := config.LoadWithRepo(baseDir, cwd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to load config: %v\n", err)
		os.Exit(1)
	}

	db.ConfigurePool(database, cfg)

	if unknown := mcp.ValidateDisabledTools(cfg.DisabledTools); len(unknown) > 0 {
		fmt.Fprintf(os.Stderr, "warning: unknown disabled tools: %v\n", unknown)
	}

	environment, err := buildEnv(database, cfg, baseDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// CLI mode: known subcommand
	if isCLIMode() {
		app := newCLIApp(environment)
		if err := app.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// Unknown argument + terminal → show error (don't start MCP server)
	if len(os.Args) >= 2 && isTerminal() {
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n", os.Args[1])
		fmt.Fprintf(os.Stderr, "Run 'notegate --help' for usage.\n")
		os.Exit(1)
	}

	// MCP server mode (default)
	if err := mcp.Run(environment.store, environment.journal, environment.settler, cfg, environment.exportsDir, Version); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

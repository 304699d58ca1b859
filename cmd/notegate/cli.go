package main

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/hpungsan/notegate/internal/errors"
	"github.com/hpungsan/notegate/internal/note"
	"github.com/hpungsan/notegate/internal/ops"
	"github.com/hpungsan/notegate/internal/settle"
	"github.com/hpungsan/notegate/internal/web"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp(e *env) *cli.App {
	app := &cli.App{
		Name:    "notegate",
		Usage:   "Paid note store with on-ledger settlement",
		Version: Version,
		Commands: []*cli.Command{
			addCmd(e),
			updateCmd(e),
			deleteCmd(e),
			getCmd(e),
			listCmd(e),
			exportCmd(e),
			balanceCmd(e),
			settlementsCmd(e),
			serveCmd(e),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

func callerFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "caller",
		Aliases:  []string{"c"},
		Usage:    "Caller principal that owns (and pays for) the note",
		Required: true,
	}
}

// addCmd creates the add command.
func addCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:      "add",
		Usage:     "Create a note (paid; content from --content or stdin)",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			callerFlag(),
			&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "Note title"},
			&cli.StringFlag{Name: "content", Usage: "Note content (markdown)"},
		},
		Action: func(c *cli.Context) error {
			id, err := parseID(c)
			if err != nil {
				return outputError(err)
			}
			content, err := contentArg(c)
			if err != nil {
				return outputError(err)
			}

			output, err := ops.Add(c.Context, e.store, e.cfg, e.settler, ops.AddInput{
				Caller: c.String("caller"),
				ID:     id,
				Note:   note.Note{Title: c.String("title"), Content: content},
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// updateCmd creates the update command.
func updateCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:      "update",
		Usage:     "Overwrite an existing note (paid; content from --content or stdin)",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			callerFlag(),
			&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "New title"},
			&cli.StringFlag{Name: "content", Usage: "New content (markdown)"},
		},
		Action: func(c *cli.Context) error {
			id, err := parseID(c)
			if err != nil {
				return outputError(err)
			}
			content, err := contentArg(c)
			if err != nil {
				return outputError(err)
			}

			output, err := ops.Update(c.Context, e.store, e.cfg, e.settler, ops.UpdateInput{
				Caller: c.String("caller"),
				ID:     id,
				Note:   note.Note{Title: c.String("title"), Content: content},
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// deleteCmd creates the delete command.
func deleteCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete a note (paid)",
		ArgsUsage: "<id>",
		Flags:     []cli.Flag{callerFlag()},
		Action: func(c *cli.Context) error {
			id, err := parseID(c)
			if err != nil {
				return outputError(err)
			}

			output, err := ops.Delete(c.Context, e.store, e.cfg, e.settler, ops.DeleteInput{
				Caller: c.String("caller"),
				ID:     id,
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// getCmd creates the get command.
func getCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "Read one of the caller's notes (free)",
		ArgsUsage: "<id>",
		Flags:     []cli.Flag{callerFlag()},
		Action: func(c *cli.Context) error {
			id, err := parseID(c)
			if err != nil {
				return outputError(err)
			}

			output, err := ops.Get(c.Context, e.store, ops.GetInput{
				Caller: c.String("caller"),
				ID:     id,
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// listCmd creates the list command.
func listCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List every note owned by the caller (free)",
		Flags: []cli.Flag{callerFlag()},
		Action: func(c *cli.Context) error {
			output, err := ops.List(c.Context, e.store, ops.ListInput{
				Caller: c.String("caller"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// exportCmd creates the export command.
func exportCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:      "export",
		Usage:     "Write a note to the exports directory (free)",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			callerFlag(),
			&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Value: "markdown", Usage: "Export format: markdown|html"},
		},
		Action: func(c *cli.Context) error {
			id, err := parseID(c)
			if err != nil {
				return outputError(err)
			}

			output, err := ops.Export(c.Context, e.store, ops.ExportInput{
				Caller: c.String("caller"),
				ID:     id,
				Dir:    e.exportsDir,
				Format: ops.ExportFormat(c.String("format")),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// balanceCmd creates the balance command.
func balanceCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "balance",
		Usage: "Query the caller's ledger balance",
		Flags: []cli.Flag{callerFlag()},
		Action: func(c *cli.Context) error {
			if e.gateway == nil {
				return outputError(errors.NewInvalidRequest("ledger_url is not configured"))
			}
			balance, err := e.gateway.CheckBalance(c.Context, c.String("caller"))
			if err != nil {
				return outputError(err)
			}
			return outputJSON(map[string]any{
				"owner":   c.String("caller"),
				"balance": balance,
			})
		},
	}
}

// settlementsCmd creates the settlements command.
func settlementsCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "settlements",
		Usage: "List settlement runs that are pending or failed",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "owner", Aliases: []string{"o"}, Usage: "Narrow to one caller's runs"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Settlements(c.Context, e.journal, ops.SettlementsInput{
				Owner: c.String("owner"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// serveCmd creates the serve command.
func serveCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the JSON API server",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Value: "127.0.0.1", Usage: "Bind address"},
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Value: 8475, Usage: "Listen port"},
		},
		Action: func(c *cli.Context) error {
			srv := web.NewServer(e.store, e.journal, e.settler, e.cfg, c.String("bind"), c.Int("port"))
			return web.Run(srv)
		},
	}
}

// Helper functions

// parseID reads the positional note id argument.
func parseID(c *cli.Context) (uint64, error) {
	if c.NArg() < 1 {
		return 0, errors.NewInvalidRequest("note id argument is required")
	}
	id, err := strconv.ParseUint(c.Args().First(), 10, 64)
	if err != nil {
		return 0, errors.NewInvalidRequest("note id must be a positive integer")
	}
	return id, nil
}

// contentArg resolves note content from the --content flag or piped stdin.
func contentArg(c *cli.Context) (string, error) {
	if c.IsSet("content") {
		return c.String("content"), nil
	}
	if stdinHasData() {
		return readStdin()
	}
	return "", errors.NewInvalidRequest("content must be given via --content or piped via stdin")
}

// outputJSON marshals result to stdout as JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI. Settlement failures with funds moved
// get a visible warning; those runs need operator reconciliation.
func outputError(err error) error {
	var stageErr *settle.StageError
	if stderrors.As(err, &stageErr) && stageErr.FundsMoved {
		fmt.Fprintf(os.Stderr, "warning: settlement %s failed at stage %s after funds moved; see 'notegate settlements'\n",
			stageErr.RunID, stageErr.Stage)
	}
	var gateErr *errors.GateError
	if stderrors.As(err, &gateErr) {
		return cli.Exit(fmt.Sprintf("[%s] %s", gateErr.Code, gateErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

// stdinHasData returns true if stdin has piped data (not a terminal).
func stdinHasData() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// readStdin reads all content from stdin.
func readStdin() (string, error) {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

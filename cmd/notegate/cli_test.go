package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hpungsan/notegate/internal/config"
	"github.com/hpungsan/notegate/internal/db"
	"github.com/hpungsan/notegate/internal/ops"
	"github.com/hpungsan/notegate/internal/settle"
)

// fakeSettler succeeds unless Err is set.
type fakeSettler struct {
	Err   error
	Calls int
}

func (f *fakeSettler) Run(ctx context.Context, caller string, amount uint64) (*settle.Receipt, error) {
	f.Calls++
	if f.Err != nil {
		return nil, f.Err
	}
	return &settle.Receipt{RunID: "01TESTRUN", LedgerTx: 1, SwapOutput: 1490, Ticket: "0xticket"}, nil
}

// setupTestEnv creates an env backed by a temporary database and a fake
// settlement pipeline.
func setupTestEnv(t *testing.T) (*env, *fakeSettler) {
	t.Helper()
	tmpDir := t.TempDir()
	database, err := db.Init(tmpDir)
	if err != nil {
		t.Fatalf("failed to init test db: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	settler := &fakeSettler{}
	return &env{
		store:      db.NewNoteStore(database),
		journal:    db.NewSettlementJournal(database),
		settler:    settler,
		cfg:        config.DefaultConfig(),
		exportsDir: filepath.Join(tmpDir, "exports"),
	}, settler
}

// runApp runs the CLI with args, capturing stdout.
func runApp(t *testing.T, e *env, args ...string) (string, error) {
	t.Helper()
	app := newCLIApp(e)

	oldStdout := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	err := app.Run(append([]string{"notegate"}, args...))

	w.Close()
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(r)
	os.Stdout = oldStdout

	return buf.String(), err
}

func TestCLIAddAndGet(t *testing.T) {
	e, settler := setupTestEnv(t)

	out, err := runApp(t, e, "add", "--caller=alice", "--title=groceries", "--content=milk", "1")
	if err != nil {
		t.Fatalf("add command failed: %v", err)
	}

	var added ops.AddOutput
	if err := json.Unmarshal([]byte(out), &added); err != nil {
		t.Fatalf("failed to parse output: %v\nOutput: %s", err, out)
	}
	if added.Receipt == nil || added.Receipt.Ticket != "0xticket" {
		t.Errorf("receipt = %+v, want bridge ticket", added.Receipt)
	}
	if settler.Calls != 1 {
		t.Errorf("settler calls = %d, want 1", settler.Calls)
	}

	out, err = runApp(t, e, "get", "--caller=alice", "1")
	if err != nil {
		t.Fatalf("get command failed: %v", err)
	}
	var got ops.GetOutput
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("failed to parse output: %v", err)
	}
	if !got.Found || got.Note.Title != "groceries" {
		t.Errorf("got = %+v, want found note titled groceries", got)
	}
}

func TestCLIAdd_MissingID(t *testing.T) {
	e, settler := setupTestEnv(t)

	_, err := runApp(t, e, "add", "--caller=alice", "--title=t", "--content=c")
	if err == nil {
		t.Fatal("add without id should fail")
	}
	if !strings.Contains(err.Error(), "INVALID_REQUEST") {
		t.Errorf("error = %v, want INVALID_REQUEST", err)
	}
	if settler.Calls != 0 {
		t.Errorf("settler calls = %d, want 0", settler.Calls)
	}
}

func TestCLIDelete(t *testing.T) {
	e, settler := setupTestEnv(t)

	if _, err := runApp(t, e, "add", "--caller=alice", "--title=t", "--content=c", "1"); err != nil {
		t.Fatalf("add command failed: %v", err)
	}

	out, err := runApp(t, e, "delete", "--caller=alice", "1")
	if err != nil {
		t.Fatalf("delete command failed: %v", err)
	}
	var deleted ops.DeleteOutput
	if err := json.Unmarshal([]byte(out), &deleted); err != nil {
		t.Fatalf("failed to parse output: %v", err)
	}
	if !deleted.Deleted {
		t.Error("Deleted = false, want true")
	}
	if settler.Calls != 2 {
		t.Errorf("settler calls = %d, want 2", settler.Calls)
	}

	// Deleting again finds nothing and does not pay
	_, err = runApp(t, e, "delete", "--caller=alice", "1")
	if err == nil {
		t.Fatal("second delete should fail")
	}
	if !strings.Contains(err.Error(), "NOT_FOUND") {
		t.Errorf("error = %v, want NOT_FOUND", err)
	}
	if settler.Calls != 2 {
		t.Errorf("settler calls = %d, want 2 after failed delete", settler.Calls)
	}
}

func TestCLIList(t *testing.T) {
	e, _ := setupTestEnv(t)

	for _, id := range []string{"2", "1"} {
		if _, err := runApp(t, e, "add", "--caller=alice", "--title=t", "--content=c", id); err != nil {
			t.Fatalf("add %s failed: %v", id, err)
		}
	}
	if _, err := runApp(t, e, "add", "--caller=bob", "--title=t", "--content=c", "1"); err != nil {
		t.Fatalf("add for bob failed: %v", err)
	}

	out, err := runApp(t, e, "list", "--caller=alice")
	if err != nil {
		t.Fatalf("list command failed: %v", err)
	}
	var listed ops.ListOutput
	if err := json.Unmarshal([]byte(out), &listed); err != nil {
		t.Fatalf("failed to parse output: %v", err)
	}
	if listed.Count != 2 {
		t.Errorf("count = %d, want 2", listed.Count)
	}
	if listed.Items[0].ID != 1 || listed.Items[1].ID != 2 {
		t.Errorf("items out of order: %+v", listed.Items)
	}
}

func TestCLIExport(t *testing.T) {
	e, _ := setupTestEnv(t)

	if _, err := runApp(t, e, "add", "--caller=alice", "--title=t", "--content=some **bold** text", "1"); err != nil {
		t.Fatalf("add command failed: %v", err)
	}

	out, err := runApp(t, e, "export", "--caller=alice", "--format=html", "1")
	if err != nil {
		t.Fatalf("export command failed: %v", err)
	}
	var exported ops.ExportOutput
	if err := json.Unmarshal([]byte(out), &exported); err != nil {
		t.Fatalf("failed to parse output: %v", err)
	}

	data, err := os.ReadFile(exported.Path)
	if err != nil {
		t.Fatalf("reading export: %v", err)
	}
	if !strings.Contains(string(data), "<strong>bold</strong>") {
		t.Errorf("export not rendered: %q", data)
	}
}

func TestCLISettlements(t *testing.T) {
	e, _ := setupTestEnv(t)

	out, err := runApp(t, e, "settlements")
	if err != nil {
		t.Fatalf("settlements command failed: %v", err)
	}
	var listed ops.SettlementsOutput
	if err := json.Unmarshal([]byte(out), &listed); err != nil {
		t.Fatalf("failed to parse output: %v", err)
	}
	if listed.Count != 0 {
		t.Errorf("count = %d, want 0", listed.Count)
	}
}

func TestCLIBalance_Unconfigured(t *testing.T) {
	e, _ := setupTestEnv(t)

	_, err := runApp(t, e, "balance", "--caller=alice")
	if err == nil {
		t.Fatal("balance without ledger_url should fail")
	}
	if !strings.Contains(err.Error(), "INVALID_REQUEST") {
		t.Errorf("error = %v, want INVALID_REQUEST", err)
	}
}

func TestIsCLIMode(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want bool
	}{
		{"no args", []string{"notegate"}, false},
		{"known subcommand", []string{"notegate", "add"}, true},
		{"serve", []string{"notegate", "serve"}, true},
		{"help flag", []string{"notegate", "--help"}, true},
		{"version flag", []string{"notegate", "-v"}, true},
		{"unknown arg", []string{"notegate", "bogus"}, false},
	}

	oldArgs := os.Args
	defer func() { os.Args = oldArgs }()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Args = tt.args
			if got := isCLIMode(); got != tt.want {
				t.Errorf("isCLIMode() = %t, want %t", got, tt.want)
			}
		})
	}
}

package ops

import (
	"context"
	"testing"

	"github.com/hpungsan/notegate/internal/config"
	"github.com/hpungsan/notegate/internal/db"
	"github.com/hpungsan/notegate/internal/settle"
)

// newTestStore creates a real SQLite-backed note store in a temp dir.
func newTestStore(t *testing.T) *db.NoteStore {
	t.Helper()
	database, err := db.Init(t.TempDir())
	if err != nil {
		t.Fatalf("db.Init failed: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return db.NewNoteStore(database)
}

func testCfg() *config.Config {
	return config.DefaultConfig()
}

// fakeSettler records pipeline invocations and returns a canned outcome.
type fakeSettler struct {
	Err     error
	Calls   int
	Callers []string
	Amounts []uint64
}

func (f *fakeSettler) Run(ctx context.Context, caller string, amount uint64) (*settle.Receipt, error) {
	f.Calls++
	f.Callers = append(f.Callers, caller)
	f.Amounts = append(f.Amounts, amount)
	if f.Err != nil {
		return nil, f.Err
	}
	return &settle.Receipt{
		RunID:      "01TESTRUN",
		LedgerTx:   1,
		SwapOutput: 1490,
		Ticket:     "0xticket",
	}, nil
}

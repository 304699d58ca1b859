package ops

import (
	"context"
	"testing"

	"github.com/hpungsan/notegate/internal/db"
	"github.com/hpungsan/notegate/internal/settle"
)

func newTestJournal(t *testing.T) *db.SettlementJournal {
	t.Helper()
	database, err := db.Init(t.TempDir())
	if err != nil {
		t.Fatalf("db.Init failed: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return db.NewSettlementJournal(database)
}

func TestSettlements_ListsUnfinishedRuns(t *testing.T) {
	journal := newTestJournal(t)
	ctx := context.Background()

	// One completed run, one stuck at swap, one still pending
	if err := journal.Begin(ctx, "01DONE", "alice", 15000, string(settle.StageFundsVerified)); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := journal.Complete(ctx, "01DONE", "0xticket"); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if err := journal.Begin(ctx, "01STUCK", "alice", 15000, string(settle.StageFundsVerified)); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := journal.Fail(ctx, "01STUCK", string(settle.StageSwapped), "venue down"); err != nil {
		t.Fatalf("Fail: %v", err)
	}
	if err := journal.Begin(ctx, "01LIVE", "bob", 15000, string(settle.StageFundsVerified)); err != nil {
		t.Fatalf("Begin: %v", err)
	}

	output, err := Settlements(ctx, journal, SettlementsInput{})
	if err != nil {
		t.Fatalf("Settlements failed: %v", err)
	}
	if output.Count != 2 {
		t.Fatalf("Count = %d, want 2 (completed run excluded)", output.Count)
	}
	for _, run := range output.Runs {
		if run.RunID == "01DONE" {
			t.Error("completed run must not be listed")
		}
	}
}

func TestSettlements_OwnerFilter(t *testing.T) {
	journal := newTestJournal(t)
	ctx := context.Background()

	if err := journal.Begin(ctx, "01A", "alice", 15000, string(settle.StageFundsVerified)); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := journal.Begin(ctx, "01B", "bob", 15000, string(settle.StageFundsVerified)); err != nil {
		t.Fatalf("Begin: %v", err)
	}

	output, err := Settlements(ctx, journal, SettlementsInput{Owner: "alice"})
	if err != nil {
		t.Fatalf("Settlements failed: %v", err)
	}
	if output.Count != 1 || output.Runs[0].Owner != "alice" {
		t.Fatalf("runs = %+v, want only alice's", output.Runs)
	}
}

package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/hpungsan/notegate/internal/errors"
)

// Settlement statuses as journaled.
const (
	SettlementPending  = "pending"
	SettlementComplete = "complete"
	SettlementFailed   = "failed"
)

// Settlement is one journaled pipeline run.
type Settlement struct {
	RunID      string
	Owner      string
	Amount     uint64
	Stage      string
	Status     string
	LedgerTx   *uint64
	SwapOutput *uint64
	Ticket     *string
	Detail     *string
	CreatedAt  int64
	UpdatedAt  int64
}

// SettlementJournal records every stage transition of a pipeline run, so a
// crash mid-pipeline leaves a diagnosable row rather than nothing.
type SettlementJournal struct {
	db *sql.DB
}

// NewSettlementJournal wraps an initialized database handle.
func NewSettlementJournal(db *sql.DB) *SettlementJournal {
	return &SettlementJournal{db: db}
}

// Begin inserts a pending run at its first stage.
func (j *SettlementJournal) Begin(ctx context.Context, runID, owner string, amount uint64, stage string) error {
	now := time.Now().Unix()
	query := `
		INSERT INTO settlements (run_id, owner, amount, stage, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := j.db.ExecContext(ctx, query, runID, owner, int64(amount), stage, SettlementPending, now, now)
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// Advance moves a pending run to the given stage.
func (j *SettlementJournal) Advance(ctx context.Context, runID, stage string) error {
	query := `UPDATE settlements SET stage = ?, updated_at = ? WHERE run_id = ?`
	_, err := j.db.ExecContext(ctx, query, stage, time.Now().Unix(), runID)
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// RecordCharge stores the ledger transaction id once the charge lands.
func (j *SettlementJournal) RecordCharge(ctx context.Context, runID string, ledgerTx uint64) error {
	query := `UPDATE settlements SET ledger_tx = ?, updated_at = ? WHERE run_id = ?`
	_, err := j.db.ExecContext(ctx, query, int64(ledgerTx), time.Now().Unix(), runID)
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// RecordSwap stores the swap output amount once the swap executes.
func (j *SettlementJournal) RecordSwap(ctx context.Context, runID string, output uint64) error {
	query := `UPDATE settlements SET swap_output = ?, updated_at = ? WHERE run_id = ?`
	_, err := j.db.ExecContext(ctx, query, int64(output), time.Now().Unix(), runID)
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// Complete marks the run settled and stores the bridge ticket.
func (j *SettlementJournal) Complete(ctx context.Context, runID, ticket string) error {
	query := `UPDATE settlements SET status = ?, ticket = ?, updated_at = ? WHERE run_id = ?`
	_, err := j.db.ExecContext(ctx, query, SettlementComplete, ticket, time.Now().Unix(), runID)
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// Fail marks the run failed at the given stage with a human-readable detail.
func (j *SettlementJournal) Fail(ctx context.Context, runID, stage, detail string) error {
	query := `UPDATE settlements SET status = ?, stage = ?, detail = ?, updated_at = ? WHERE run_id = ?`
	_, err := j.db.ExecContext(ctx, query, SettlementFailed, stage, detail, time.Now().Unix(), runID)
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// GetSettlement returns one journaled run by id.
func (j *SettlementJournal) GetSettlement(ctx context.Context, runID string) (*Settlement, error) {
	query := `
		SELECT run_id, owner, amount, stage, status, ledger_tx, swap_output, ticket, detail, created_at, updated_at
		FROM settlements WHERE run_id = ?
	`

	var s Settlement
	var amount int64
	var ledgerTx, swapOutput sql.NullInt64
	var ticket, detail sql.NullString

	err := j.db.QueryRowContext(ctx, query, runID).Scan(
		&s.RunID, &s.Owner, &amount, &s.Stage, &s.Status,
		&ledgerTx, &swapOutput, &ticket, &detail, &s.CreatedAt, &s.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	s.Amount = uint64(amount)
	if ledgerTx.Valid {
		v := uint64(ledgerTx.Int64)
		s.LedgerTx = &v
	}
	if swapOutput.Valid {
		v := uint64(swapOutput.Int64)
		s.SwapOutput = &v
	}
	if ticket.Valid {
		s.Ticket = &ticket.String
	}
	if detail.Valid {
		s.Detail = &detail.String
	}
	return &s, nil
}

// ListUnsettled returns runs that are pending or failed, oldest first.
// These are the runs an operator may need to reconcile by hand.
func (j *SettlementJournal) ListUnsettled(ctx context.Context, owner string) ([]Settlement, error) {
	query := `
		SELECT run_id, owner, amount, stage, status, ledger_tx, swap_output, ticket, detail, created_at, updated_at
		FROM settlements
		WHERE status != ? AND (? = '' OR owner = ?)
		ORDER BY created_at
	`

	rows, err := j.db.QueryContext(ctx, query, SettlementComplete, owner, owner)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	out := make([]Settlement, 0)
	for rows.Next() {
		var s Settlement
		var amount int64
		var ledgerTx, swapOutput sql.NullInt64
		var ticket, detail sql.NullString
		if err := rows.Scan(
			&s.RunID, &s.Owner, &amount, &s.Stage, &s.Status,
			&ledgerTx, &swapOutput, &ticket, &detail, &s.CreatedAt, &s.UpdatedAt,
		); err != nil {
			return nil, errors.NewInternal(err)
		}
		s.Amount = uint64(amount)
		if ledgerTx.Valid {
			v := uint64(ledgerTx.Int64)
			s.LedgerTx = &v
		}
		if swapOutput.Valid {
			v := uint64(swapOutput.Int64)
			s.SwapOutput = &v
		}
		if ticket.Valid {
			s.Ticket = &ticket.String
		}
		if detail.Valid {
			s.Detail = &detail.String
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return out, nil
}

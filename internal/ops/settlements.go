package ops

import (
	"context"
	"strings"

	"github.com/hpungsan/notegate/internal/db"
	"github.com/hpungsan/notegate/internal/errors"
)

// SettlementsInput contains parameters for the Settlements operation.
type SettlementsInput struct {
	Owner string // optional; empty lists every owner's runs
}

// SettlementsOutput contains the result of the Settlements operation.
type SettlementsOutput struct {
	Runs  []db.Settlement `json:"runs"`
	Count int             `json:"count"`
}

// Settlements lists pipeline runs that did not complete: still pending
// (in flight or interrupted by a crash) or failed. Failed runs at the
// swapped/redeemed stages are the ones holding stuck funds.
func Settlements(ctx context.Context, journal *db.SettlementJournal, input SettlementsInput) (*SettlementsOutput, error) {
	runs, err := journal.ListUnsettled(ctx, strings.TrimSpace(input.Owner))
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	return &SettlementsOutput{
		Runs:  runs,
		Count: len(runs),
	}, nil
}

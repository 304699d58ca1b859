package settle

import "fmt"

// Stage is one step of the settlement state machine. The machine is linear:
//
//	Idle → FundsVerified → Charged → Swapped → Redeemed → Complete
//
// with a stage-tagged failure terminal reachable from any state.
type Stage string

const (
	StageFundsVerified Stage = "funds_verified"
	StageCharged       Stage = "charged"
	StageSwapped       Stage = "swapped"
	StageRedeemed      Stage = "redeemed"
	StageComplete      Stage = "complete"
)

// StageError tags a settlement failure with the stage it occurred in and
// whether the caller's funds had already left the ledger by then.
//
// FundsMoved distinguishes "nothing happened" (verify or charge failed, abort
// is clean) from "funds are stuck mid-pipeline" (charge landed but the swap or
// redemption did not): the latter needs operator reconciliation, keyed by
// RunID in the settlement journal. No compensating refund is issued here.
type StageError struct {
	Stage      Stage
	RunID      string
	FundsMoved bool
	Err        error
}

// Error implements the error interface.
func (e *StageError) Error() string {
	return fmt.Sprintf("settlement run %s failed at stage %s (funds_moved=%t): %v",
		e.RunID, e.Stage, e.FundsMoved, e.Err)
}

// Unwrap exposes the underlying cause so errors.Is sees through the tag.
func (e *StageError) Unwrap() error {
	return e.Err
}

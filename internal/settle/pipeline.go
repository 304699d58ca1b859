// Package settle runs the settlement pipeline behind every paid note
// mutation: verify funds, charge the ledger, swap the source asset for the
// bridge asset, redeem it to the external chain.
//
// The pipeline is all-or-nothing in intent but not in mechanism: the three
// external services offer no combined transaction, so a failure after the
// charge leaves system-held funds mid-journey. Such outcomes are surfaced as
// stage-tagged errors and journaled for reconciliation; no stage is retried
// and no refund is issued here.
package settle

import (
	"context"
	"crypto/rand"
	"log"
	"math"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/hpungsan/notegate/internal/bridge"
	"github.com/hpungsan/notegate/internal/errors"
	"github.com/hpungsan/notegate/internal/ledger"
	"github.com/hpungsan/notegate/internal/oracle"
	"github.com/hpungsan/notegate/internal/swap"
)

// Journal records stage transitions of in-flight runs. Implemented by
// db.SettlementJournal; a nil Journal disables journaling (tests).
type Journal interface {
	Begin(ctx context.Context, runID, owner string, amount uint64, stage string) error
	Advance(ctx context.Context, runID, stage string) error
	RecordCharge(ctx context.Context, runID string, ledgerTx uint64) error
	RecordSwap(ctx context.Context, runID string, output uint64) error
	Complete(ctx context.Context, runID, ticket string) error
	Fail(ctx context.Context, runID, stage, detail string) error
}

// Receipt is the evidence of a completed run.
type Receipt struct {
	RunID      string `json:"run_id"`
	LedgerTx   uint64 `json:"ledger_tx"`
	SwapOutput uint64 `json:"swap_output"`
	Ticket     string `json:"ticket"`
}

// Config wires a Pipeline.
type Config struct {
	Gateway *ledger.Gateway
	Swap    swap.Client
	Bridge  bridge.Client
	Oracle  oracle.Client
	Journal Journal

	// Destination is the fixed external-chain payout address.
	Destination bridge.Address

	// Pair is the oracle pair pricing the source asset in the bridge asset.
	Pair string

	// SlippageBps sets the minimum-output floor below the oracle estimate,
	// in basis points. 100 bps = a 99% floor.
	SlippageBps uint64
}

// Pipeline sequences one settlement run per call, serialized per caller.
type Pipeline struct {
	gateway     *ledger.Gateway
	swap        swap.Client
	bridge      bridge.Client
	oracle      oracle.Client
	journal     Journal
	destination bridge.Address
	pair        string
	slippageBps uint64
	locks       lockTable
}

// New creates a Pipeline from its wiring.
func New(cfg Config) *Pipeline {
	return &Pipeline{
		gateway:     cfg.Gateway,
		swap:        cfg.Swap,
		bridge:      cfg.Bridge,
		oracle:      cfg.Oracle,
		journal:     cfg.Journal,
		destination: cfg.Destination,
		pair:        cfg.Pair,
		slippageBps: cfg.SlippageBps,
	}
}

// Run executes the full pipeline for caller, moving amount of the source
// asset. The caller's settlement lock is held from before the balance check
// until the terminal state, closing the verify-then-charge race window for
// requests from the same caller.
func (p *Pipeline) Run(ctx context.Context, caller string, amount uint64) (*Receipt, error) {
	runID, err := newRunID()
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	release := p.locks.acquire(caller)
	defer release()

	p.jBegin(ctx, runID, caller, amount)
	log.Printf("settlement %s: caller=%s amount=%d stage=%s", runID, caller, amount, StageFundsVerified)

	// FundsVerified
	balance, err := p.gateway.CheckBalance(ctx, caller)
	if err != nil {
		return nil, p.fail(ctx, runID, StageFundsVerified, false, err)
	}
	if balance < amount {
		return nil, p.fail(ctx, runID, StageFundsVerified, false, errors.NewInsufficientFunds(balance, amount))
	}

	// The floor is priced before charging so a dead oracle aborts cleanly.
	price, err := p.oracle.Quote(ctx, p.pair)
	if err != nil {
		return nil, p.fail(ctx, runID, StageFundsVerified, false, err)
	}
	if price <= 0 {
		return nil, p.fail(ctx, runID, StageFundsVerified, false, errors.NewOraclePriceZero(p.pair))
	}
	minOut, err := floorOutput(amount, price, p.slippageBps)
	if err != nil {
		return nil, p.fail(ctx, runID, StageFundsVerified, false, err)
	}

	// Charged
	p.jAdvance(ctx, runID, StageCharged)
	log.Printf("settlement %s: stage=%s min_out=%d", runID, StageCharged, minOut)
	txID, err := p.gateway.Charge(ctx, caller, amount, runID)
	if err != nil {
		// The charge did not land; nothing has moved.
		return nil, p.fail(ctx, runID, StageCharged, false, err)
	}
	p.jCharge(ctx, runID, txID)

	// Swapped
	p.jAdvance(ctx, runID, StageSwapped)
	log.Printf("settlement %s: stage=%s ledger_tx=%d", runID, StageSwapped, txID)
	out, err := p.swap.Swap(ctx, amount, minOut, p.gateway.ServiceAccount())
	if err != nil {
		// Charged funds are held with no swap output. Journaled for
		// reconciliation; not refunded.
		return nil, p.fail(ctx, runID, StageSwapped, true, err)
	}
	p.jSwap(ctx, runID, out)

	// Redeemed
	p.jAdvance(ctx, runID, StageRedeemed)
	log.Printf("settlement %s: stage=%s swap_output=%d", runID, StageRedeemed, out)
	ticket, err := p.bridge.Withdraw(ctx, p.destination, out)
	if err != nil {
		// Swap output is held, unredeemed.
		return nil, p.fail(ctx, runID, StageRedeemed, true, err)
	}

	p.jComplete(ctx, runID, ticket)
	log.Printf("settlement %s: stage=%s ticket=%s", runID, StageComplete, ticket)

	return &Receipt{
		RunID:      runID,
		LedgerTx:   txID,
		SwapOutput: out,
		Ticket:     ticket,
	}, nil
}

// fail journals the terminal state and wraps err with its stage tag.
func (p *Pipeline) fail(ctx context.Context, runID string, stage Stage, fundsMoved bool, err error) error {
	sErr := &StageError{Stage: stage, RunID: runID, FundsMoved: fundsMoved, Err: err}
	if p.journal != nil {
		if jErr := p.journal.Fail(ctx, runID, string(stage), err.Error()); jErr != nil {
			log.Printf("settlement %s: journal fail error: %v", runID, jErr)
		}
	}
	log.Printf("settlement %s: %v", runID, sErr)
	return sErr
}

// floorOutput computes the swap's minimum-output floor: the oracle-estimated
// output less the slippage tolerance, truncated toward zero.
func floorOutput(amount uint64, price float64, slippageBps uint64) (uint64, error) {
	expected := float64(amount) * price
	floor := expected * (1 - float64(slippageBps)/10000)
	if floor >= math.MaxUint64 || floor < 0 || math.IsNaN(floor) {
		return 0, errors.NewAmountOverflow("swap floor out of range")
	}
	return uint64(floor), nil
}

// newRunID generates a ULID for the run; it doubles as the charge memo.
func newRunID() (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// Journaling helpers tolerate a nil journal and log journal failures rather
// than failing the run over them.

func (p *Pipeline) jBegin(ctx context.Context, runID, owner string, amount uint64) {
	if p.journal == nil {
		return
	}
	if err := p.journal.Begin(ctx, runID, owner, amount, string(StageFundsVerified)); err != nil {
		log.Printf("settlement %s: journal begin error: %v", runID, err)
	}
}

func (p *Pipeline) jAdvance(ctx context.Context, runID string, stage Stage) {
	if p.journal == nil {
		return
	}
	if err := p.journal.Advance(ctx, runID, string(stage)); err != nil {
		log.Printf("settlement %s: journal advance error: %v", runID, err)
	}
}

func (p *Pipeline) jCharge(ctx context.Context, runID string, txID uint64) {
	if p.journal == nil {
		return
	}
	if err := p.journal.RecordCharge(ctx, runID, txID); err != nil {
		log.Printf("settlement %s: journal charge error: %v", runID, err)
	}
}

func (p *Pipeline) jSwap(ctx context.Context, runID string, out uint64) {
	if p.journal == nil {
		return
	}
	if err := p.journal.RecordSwap(ctx, runID, out); err != nil {
		log.Printf("settlement %s: journal swap error: %v", runID, err)
	}
}

func (p *Pipeline) jComplete(ctx context.Context, runID, ticket string) {
	if p.journal == nil {
		return
	}
	if err := p.journal.Complete(ctx, runID, ticket); err != nil {
		log.Printf("settlement %s: journal complete error: %v", runID, err)
	}
}

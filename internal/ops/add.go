package ops

import (
	"context"

	"github.com/hpungsan/notegate/internal/config"
	"github.com/hpungsan/notegate/internal/errors"
	"github.com/hpungsan/notegate/internal/note"
	"github.com/hpungsan/notegate/internal/settle"
)

// AddInput contains parameters for the Add operation.
type AddInput struct {
	Caller string    // principal the note will belong to
	ID     uint64    // caller-chosen id, must be non-zero
	Note   note.Note // required, both fields non-empty
}

// AddOutput contains the result of the Add operation.
type AddOutput struct {
	ID      uint64          `json:"id"`
	Note    note.Note       `json:"note"`
	Receipt *settle.Receipt `json:"receipt"`
}

// Add creates a new note after a completed settlement run.
func Add(ctx context.Context, store note.Store, cfg *config.Config, settler Settler, input AddInput) (*AddOutput, error) {
	key := note.Key{Owner: input.Caller, ID: input.ID}
	if err := note.ValidateKey(key); err != nil {
		return nil, err
	}
	if err := note.ValidateNote(input.Note); err != nil {
		return nil, err
	}

	exists, err := store.Exists(ctx, key)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, errors.NewDuplicateKey(input.ID)
	}

	receipt, err := settler.Run(ctx, input.Caller, cfg.Cost())
	if err != nil {
		return nil, err
	}

	if err := store.Put(ctx, key, input.Note); err != nil {
		return nil, err
	}

	return &AddOutput{
		ID:      input.ID,
		Note:    input.Note,
		Receipt: receipt,
	}, nil
}

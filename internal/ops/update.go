package ops

import (
	"context"

	"github.com/hpungsan/notegate/internal/config"
	"github.com/hpungsan/notegate/internal/errors"
	"github.com/hpungsan/notegate/internal/note"
	"github.com/hpungsan/notegate/internal/settle"
)

// UpdateInput contains parameters for the Update operation.
type UpdateInput struct {
	Caller string
	ID     uint64
	Note   note.Note
}

// UpdateOutput contains the result of the Update operation.
type UpdateOutput struct {
	ID      uint64          `json:"id"`
	Note    note.Note       `json:"note"`
	Receipt *settle.Receipt `json:"receipt"`
}

// Update overwrites an existing note after a completed settlement run.
func Update(ctx context.Context, store note.Store, cfg *config.Config, settler Settler, input UpdateInput) (*UpdateOutput, error) {
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
	if !exists {
		return nil, errors.NewNotFound(input.ID)
	}

	receipt, err := settler.Run(ctx, input.Caller, cfg.Cost())
	if err != nil {
		return nil, err
	}

	if err := store.Put(ctx, key, input.Note); err != nil {
		return nil, err
	}

	return &UpdateOutput{
		ID:      input.ID,
		Note:    input.Note,
		Receipt: receipt,
	}, nil
}

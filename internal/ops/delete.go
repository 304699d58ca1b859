package ops

import (
	"context"
	"fmt"

	"github.com/hpungsan/notegate/internal/config"
	"github.com/hpungsan/notegate/internal/errors"
	"github.com/hpungsan/notegate/internal/note"
)

// DeleteInput contains parameters for the Delete operation.
type DeleteInput struct {
	Caller string
	ID     uint64
}

// DeleteOutput contains the result of the Delete operation.
type DeleteOutput struct {
	Deleted bool   `json:"deleted"`
	Message string `json:"message"`
}

// Delete removes a note. Settlement runs before the removal, the same
// settle-before-mutate order as Add and Update, so a missing key is reported
// without any external call and a failed settlement leaves the note in place.
func Delete(ctx context.Context, store note.Store, cfg *config.Config, settler Settler, input DeleteInput) (*DeleteOutput, error) {
	key := note.Key{Owner: input.Caller, ID: input.ID}
	if err := note.ValidateKey(key); err != nil {
		return nil, err
	}

	exists, err := store.Exists(ctx, key)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, errors.NewNotFound(input.ID)
	}

	if _, err := settler.Run(ctx, input.Caller, cfg.Cost()); err != nil {
		return nil, err
	}

	if _, err := store.Remove(ctx, key); err != nil {
		return nil, err
	}

	return &DeleteOutput{
		Deleted: true,
		Message: fmt.Sprintf("Note %d deleted.", input.ID),
	}, nil
}

package ops

import (
	"context"
	"strings"

	"github.com/hpungsan/notegate/internal/errors"
	"github.com/hpungsan/notegate/internal/note"
)

// GetInput contains parameters for the Get operation.
type GetInput struct {
	Caller string
	ID     uint64
}

// GetOutput contains the result of the Get operation.
type GetOutput struct {
	ID    uint64     `json:"id"`
	Note  *note.Note `json:"note"` // nil when absent
	Found bool       `json:"found"`
}

// Get returns the caller's note at id, unpaid and read-only. An id with no
// note is not an error: the output reports absence.
func Get(ctx context.Context, store note.Store, input GetInput) (*GetOutput, error) {
	if strings.TrimSpace(input.Caller) == "" {
		return nil, errors.NewInvalidRequest("caller principal is required")
	}

	n, err := store.Get(ctx, note.Key{Owner: input.Caller, ID: input.ID})
	if err != nil {
		return nil, err
	}

	return &GetOutput{
		ID:    input.ID,
		Note:  n,
		Found: n != nil,
	}, nil
}

package ops

import (
	"context"
	"strings"

	"github.com/hpungsan/notegate/internal/errors"
	"github.com/hpungsan/notegate/internal/note"
)

// ListInput contains parameters for the List operation.
type ListInput struct {
	Caller string
}

// ListOutput contains the result of the List operation.
type ListOutput struct {
	Items []note.Entry `json:"items"`
	Count int          `json:"count"`
}

// List returns every note owned by the caller and nothing else; entries of
// other owners are never visible. Unpaid and read-only.
func List(ctx context.Context, store note.Store, input ListInput) (*ListOutput, error) {
	if strings.TrimSpace(input.Caller) == "" {
		return nil, errors.NewInvalidRequest("caller principal is required")
	}

	entries, err := store.ListFor(ctx, input.Caller)
	if err != nil {
		return nil, err
	}

	// Ensure we return an empty array rather than nil
	if entries == nil {
		entries = []note.Entry{}
	}

	return &ListOutput{
		Items: entries,
		Count: len(entries),
	}, nil
}

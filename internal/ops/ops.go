// Package ops implements the note service operations. Each operation
// validates locally first, settles second, and mutates the store last: a
// validation failure never reaches an external service, and a write never
// happens unless its settlement run completed.
package ops

import (
	"context"

	"github.com/hpungsan/notegate/internal/settle"
)

// Settler runs one settlement pipeline for a caller. Satisfied by
// *settle.Pipeline.
type Settler interface {
	Run(ctx context.Context, caller string, amount uint64) (*settle.Receipt, error)
}

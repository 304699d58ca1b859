package note

import "context"

// Store is the owner-scoped note map. Implementations persist the contents;
// no validation happens here — that is the caller's responsibility.
//
// List order is implementation-defined.
type Store interface {
	// Put inserts or overwrites the note at key.
	Put(ctx context.Context, key Key, n Note) error

	// Get returns the note at key, or (nil, nil) if absent.
	Get(ctx context.Context, key Key) (*Note, error)

	// Exists reports whether a note is stored at key.
	Exists(ctx context.Context, key Key) (bool, error)

	// Remove deletes the note at key, reporting whether one existed.
	Remove(ctx context.Context, key Key) (bool, error)

	// ListFor returns all entries belonging to owner.
	ListFor(ctx context.Context, owner string) ([]Entry, error)
}

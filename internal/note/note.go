package note

import (
	"strings"

	"github.com/hpungsan/notegate/internal/errors"
)

// Note is the unit of storage: a titled piece of text owned by one principal.
type Note struct {
	// Title is the human-readable note title (non-empty at creation)
	Title string `json:"title"`

	// Content is the note body (non-empty at creation)
	Content string `json:"content"`
}

// Key addresses exactly one note per owner.
type Key struct {
	// Owner is the principal the note belongs to; fixed at creation
	Owner string

	// ID is the caller-chosen identifier, must be non-zero
	ID uint64
}

// Entry pairs an id with its note, as returned by list operations.
type Entry struct {
	ID   uint64 `json:"id"`
	Note Note   `json:"note"`
}

// ValidateKey rejects the zero id and an empty owner principal.
func ValidateKey(k Key) error {
	if strings.TrimSpace(k.Owner) == "" {
		return errors.NewInvalidRequest("caller principal is required")
	}
	if k.ID == 0 {
		return errors.NewInvalidRequest("id must be a non-zero value")
	}
	return nil
}

// ValidateNote rejects empty or whitespace-only title and content.
func ValidateNote(n Note) error {
	if strings.TrimSpace(n.Title) == "" || strings.TrimSpace(n.Content) == "" {
		return errors.NewInvalidRequest("title and content cannot be empty")
	}
	return nil
}

package ops

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"

	"github.com/hpungsan/notegate/internal/errors"
	"github.com/hpungsan/notegate/internal/note"
)

// ExportFormat selects the export file format.
type ExportFormat string

const (
	ExportMarkdown ExportFormat = "markdown"
	ExportHTML     ExportFormat = "html"
)

// ExportInput contains parameters for the Export operation.
type ExportInput struct {
	Caller string
	ID     uint64
	Dir    string       // exports directory, typically <base>/exports
	Format ExportFormat // default: markdown
}

// ExportOutput contains the result of the Export operation.
type ExportOutput struct {
	Path string `json:"path"`
}

// Export writes one of the caller's notes to a file. Read-only and unpaid.
// Files go only into the given exports directory; arbitrary paths are not
// accepted.
func Export(ctx context.Context, store note.Store, input ExportInput) (*ExportOutput, error) {
	if strings.TrimSpace(input.Caller) == "" {
		return nil, errors.NewInvalidRequest("caller principal is required")
	}
	if strings.TrimSpace(input.Dir) == "" {
		return nil, errors.NewInvalidRequest("exports directory is required")
	}

	format := input.Format
	if format == "" {
		format = ExportMarkdown
	}
	if format != ExportMarkdown && format != ExportHTML {
		return nil, errors.NewInvalidRequest("format must be one of: markdown, html")
	}

	n, err := store.Get(ctx, note.Key{Owner: input.Caller, ID: input.ID})
	if err != nil {
		return nil, err
	}
	if n == nil {
		return nil, errors.NewNotFound(input.ID)
	}

	var content []byte
	ext := ".md"
	switch format {
	case ExportMarkdown:
		content = []byte(fmt.Sprintf("# %s\n\n%s\n", n.Title, n.Content))
	case ExportHTML:
		ext = ".html"
		var buf bytes.Buffer
		if err := goldmark.Convert([]byte(n.Content), &buf); err != nil {
			return nil, errors.NewInternal(err)
		}
		content = []byte(fmt.Sprintf("<h1>%s</h1>\n%s", html.EscapeString(n.Title), buf.String()))
	}

	if err := os.MkdirAll(input.Dir, 0700); err != nil {
		return nil, errors.NewInternal(err)
	}

	path := filepath.Join(input.Dir, fmt.Sprintf("note-%d%s", input.ID, ext))
	if err := os.WriteFile(path, content, 0600); err != nil {
		return nil, errors.NewInternal(err)
	}

	return &ExportOutput{Path: path}, nil
}

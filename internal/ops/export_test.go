package ops

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hpungsan/notegate/internal/errors"
	"github.com/hpungsan/notegate/internal/note"
)

func TestExport_Markdown(t *testing.T) {
	store := newTestStore(t)
	settler := &fakeSettler{}
	ctx := context.Background()
	dir := t.TempDir()

	if _, err := Add(ctx, store, testCfg(), settler, AddInput{
		Caller: "alice",
		ID:     5,
		Note:   note.Note{Title: "Groceries", Content: "- milk\n- eggs"},
	}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	output, err := Export(ctx, store, ExportInput{Caller: "alice", ID: 5, Dir: dir})
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if output.Path != filepath.Join(dir, "note-5.md") {
		t.Errorf("Path = %q", output.Path)
	}

	data, err := os.ReadFile(output.Path)
	if err != nil {
		t.Fatalf("reading export: %v", err)
	}
	content := string(data)
	if !strings.HasPrefix(content, "# Groceries\n") {
		t.Errorf("export should start with the title heading, got %q", content)
	}
	if !strings.Contains(content, "- milk") {
		t.Errorf("export missing body, got %q", content)
	}
}

func TestExport_HTML(t *testing.T) {
	store := newTestStore(t)
	settler := &fakeSettler{}
	ctx := context.Background()
	dir := t.TempDir()

	if _, err := Add(ctx, store, testCfg(), settler, AddInput{
		Caller: "alice",
		ID:     7,
		Note:   note.Note{Title: "Tags <&>", Content: "some **bold** text"},
	}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	output, err := Export(ctx, store, ExportInput{Caller: "alice", ID: 7, Dir: dir, Format: ExportHTML})
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if filepath.Ext(output.Path) != ".html" {
		t.Errorf("Path = %q, want .html extension", output.Path)
	}

	data, err := os.ReadFile(output.Path)
	if err != nil {
		t.Fatalf("reading export: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, "<h1>Tags &lt;&amp;&gt;</h1>") {
		t.Errorf("title not escaped, got %q", content)
	}
	if !strings.Contains(content, "<strong>bold</strong>") {
		t.Errorf("markdown not rendered, got %q", content)
	}
}

func TestExport_MissingNote(t *testing.T) {
	store := newTestStore(t)

	_, err := Export(context.Background(), store, ExportInput{Caller: "alice", ID: 1, Dir: t.TempDir()})
	if !errors.Is(err, errors.ErrNotFound) {
		t.Fatalf("error = %v, want NOT_FOUND", err)
	}
}

func TestExport_BadFormat(t *testing.T) {
	store := newTestStore(t)

	_, err := Export(context.Background(), store, ExportInput{
		Caller: "alice",
		ID:     1,
		Dir:    t.TempDir(),
		Format: ExportFormat("pdf"),
	})
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Fatalf("error = %v, want INVALID_REQUEST", err)
	}
}

package ops

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/hpungsan/notegate/internal/errors"
	"github.com/hpungsan/notegate/internal/note"
)

func TestList_OwnerScopedAndOrdered(t *testing.T) {
	store := newTestStore(t)
	settler := &fakeSettler{}
	ctx := context.Background()

	for _, e := range []struct {
		caller string
		id     uint64
	}{
		{"alice", 3},
		{"alice", 1},
		{"bob", 2},
		{"alice", 2},
	} {
		if _, err := Add(ctx, store, testCfg(), settler, AddInput{
			Caller: e.caller,
			ID:     e.id,
			Note:   note.Note{Title: "t", Content: "c"},
		}); err != nil {
			t.Fatalf("Add(%s, %d) failed: %v", e.caller, e.id, err)
		}
	}

	output, err := List(ctx, store, ListInput{Caller: "alice"})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if output.Count != 3 {
		t.Fatalf("Count = %d, want 3", output.Count)
	}
	for i, want := range []uint64{1, 2, 3} {
		if output.Items[i].ID != want {
			t.Errorf("Items[%d].ID = %d, want %d", i, output.Items[i].ID, want)
		}
	}
}

func TestList_EmptyIsArrayNotNil(t *testing.T) {
	store := newTestStore(t)

	output, err := List(context.Background(), store, ListInput{Caller: "nobody"})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if output.Count != 0 {
		t.Errorf("Count = %d, want 0", output.Count)
	}

	data, err := json.Marshal(output)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if !strings.Contains(string(data), `"items":[]`) {
		t.Errorf("empty list should serialize as [], got %s", data)
	}
}

func TestList_EmptyCaller(t *testing.T) {
	store := newTestStore(t)

	_, err := List(context.Background(), store, ListInput{Caller: ""})
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Fatalf("error = %v, want INVALID_REQUEST", err)
	}
}

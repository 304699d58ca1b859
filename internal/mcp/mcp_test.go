package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/notegate/internal/config"
	"github.com/hpungsan/notegate/internal/db"
	"github.com/hpungsan/notegate/internal/errors"
	"github.com/hpungsan/notegate/internal/settle"
)

// fakeSettler succeeds unless Err is set.
type fakeSettler struct {
	Err   error
	Calls int
}

func (f *fakeSettler) Run(ctx context.Context, caller string, amount uint64) (*settle.Receipt, error) {
	f.Calls++
	if f.Err != nil {
		return nil, f.Err
	}
	return &settle.Receipt{RunID: "01TESTRUN", LedgerTx: 1, SwapOutput: 1490, Ticket: "0xticket"}, nil
}

// testSetup creates handlers backed by a temporary database and a fake
// settlement pipeline.
func testSetup(t *testing.T) (*Handlers, *fakeSettler) {
	t.Helper()

	tmpDir := t.TempDir()
	database, err := db.Init(tmpDir)
	if err != nil {
		t.Fatalf("failed to init db: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	settler := &fakeSettler{}
	h := NewHandlers(
		db.NewNoteStore(database),
		db.NewSettlementJournal(database),
		settler,
		config.DefaultConfig(),
		t.TempDir(),
	)
	return h, settler
}

// makeRequest creates a CallToolRequest with the given arguments.
func makeRequest(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: args,
		},
	}
}

func seedNote(t *testing.T, h *Handlers, caller string, id uint64) {
	t.Helper()
	result, err := h.HandleAdd(context.Background(), makeRequest(map[string]any{
		"caller":  caller,
		"id":      id,
		"title":   "seed",
		"content": "seed content",
	}))
	if err != nil {
		t.Fatalf("seed add: %v", err)
	}
	if result.IsError {
		t.Fatalf("seed add failed: %v", result.Content)
	}
}

func decodePayload(t *testing.T, result *mcp.CallToolResult) map[string]any {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("no content in result")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatal("content is not TextContent")
	}
	var payload map[string]any
	if err := json.Unmarshal([]byte(text.Text), &payload); err != nil {
		t.Fatalf("failed to unmarshal payload: %v", err)
	}
	return payload
}

func assertErrorCode(t *testing.T, result *mcp.CallToolResult, expectedCode string) {
	t.Helper()
	if !result.IsError {
		t.Fatalf("result is not an error: %v", result.Content)
	}
	payload := decodePayload(t, result)
	errorObj, ok := payload["error"].(map[string]any)
	if !ok {
		t.Fatalf("no error object in payload: %v", payload)
	}
	if code, _ := errorObj["code"].(string); code != expectedCode {
		t.Errorf("got error code %q, want %q", errorObj["code"], expectedCode)
	}
}

func TestHandleAdd(t *testing.T) {
	h, settler := testSetup(t)
	ctx := context.Background()

	tests := []struct {
		name      string
		args      map[string]any
		wantError bool
		errorCode string
	}{
		{
			name: "add valid note",
			args: map[string]any{
				"caller":  "alice",
				"id":      1,
				"title":   "groceries",
				"content": "milk",
			},
		},
		{
			name: "missing caller",
			args: map[string]any{
				"id":      2,
				"title":   "t",
				"content": "c",
			},
			wantError: true,
			errorCode: "INVALID_REQUEST",
		},
		{
			name: "zero id",
			args: map[string]any{
				"caller":  "alice",
				"id":      0,
				"title":   "t",
				"content": "c",
			},
			wantError: true,
			errorCode: "INVALID_REQUEST",
		},
		{
			name: "blank title",
			args: map[string]any{
				"caller":  "alice",
				"id":      3,
				"title":   "   ",
				"content": "c",
			},
			wantError: true,
			errorCode: "INVALID_REQUEST",
		},
		{
			name: "duplicate id",
			args: map[string]any{
				"caller":  "alice",
				"id":      1,
				"title":   "again",
				"content": "again",
			},
			wantError: true,
			errorCode: "DUPLICATE_KEY",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := h.HandleAdd(ctx, makeRequest(tt.args))
			if err != nil {
				t.Fatalf("handler error: %v", err)
			}
			if tt.wantError {
				assertErrorCode(t, result, tt.errorCode)
				return
			}
			if result.IsError {
				t.Fatalf("unexpected error result: %v", result.Content)
			}
		})
	}

	// Only the one valid add paid
	if settler.Calls != 1 {
		t.Errorf("settler calls = %d, want 1", settler.Calls)
	}
}

func TestHandleAdd_SettlementFailureCarriesStage(t *testing.T) {
	h, settler := testSetup(t)
	settler.Err = &settle.StageError{
		Stage:      settle.StageSwapped,
		RunID:      "01RUN",
		FundsMoved: true,
		Err:        errors.NewSwapFailed("venue down"),
	}

	result, err := h.HandleAdd(context.Background(), makeRequest(map[string]any{
		"caller":  "alice",
		"id":      1,
		"title":   "t",
		"content": "c",
	}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	assertErrorCode(t, result, "SWAP_FAILED")

	payload := decodePayload(t, result)
	errorObj := payload["error"].(map[string]any)
	if errorObj["stage"] != "swapped" {
		t.Errorf("stage = %v, want swapped", errorObj["stage"])
	}
	if errorObj["funds_moved"] != true {
		t.Errorf("funds_moved = %v, want true", errorObj["funds_moved"])
	}
}

func TestHandleUpdateAndDelete(t *testing.T) {
	h, settler := testSetup(t)
	ctx := context.Background()
	seedNote(t, h, "alice", 1)

	result, err := h.HandleUpdate(ctx, makeRequest(map[string]any{
		"caller":  "alice",
		"id":      1,
		"title":   "new",
		"content": "new content",
	}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if result.IsError {
		t.Fatalf("update failed: %v", result.Content)
	}

	result, err = h.HandleDelete(ctx, makeRequest(map[string]any{
		"caller": "alice",
		"id":     1,
	}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if result.IsError {
		t.Fatalf("delete failed: %v", result.Content)
	}
	payload := decodePayload(t, result)
	if payload["deleted"] != true {
		t.Errorf("deleted = %v, want true", payload["deleted"])
	}

	// seed + update + delete each paid
	if settler.Calls != 3 {
		t.Errorf("settler calls = %d, want 3", settler.Calls)
	}
}

func TestHandleUpdate_Missing(t *testing.T) {
	h, _ := testSetup(t)
	result, err := h.HandleUpdate(context.Background(), makeRequest(map[string]any{
		"caller":  "alice",
		"id":      9,
		"title":   "t",
		"content": "c",
	}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	assertErrorCode(t, result, "NOT_FOUND")
}

func TestHandleDelete_MissingNeverPays(t *testing.T) {
	h, settler := testSetup(t)
	result, err := h.HandleDelete(context.Background(), makeRequest(map[string]any{
		"caller": "alice",
		"id":     9,
	}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	assertErrorCode(t, result, "NOT_FOUND")
	if settler.Calls != 0 {
		t.Errorf("settler calls = %d, want 0", settler.Calls)
	}
}

func TestHandleGet(t *testing.T) {
	h, _ := testSetup(t)
	ctx := context.Background()
	seedNote(t, h, "alice", 1)

	result, err := h.HandleGet(ctx, makeRequest(map[string]any{
		"caller": "alice",
		"id":     1,
	}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	payload := decodePayload(t, result)
	if payload["found"] != true {
		t.Errorf("found = %v, want true", payload["found"])
	}

	// Reads are free and absence is not an error
	result, err = h.HandleGet(ctx, makeRequest(map[string]any{
		"caller": "bob",
		"id":     1,
	}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if result.IsError {
		t.Fatalf("get for other caller should not error: %v", result.Content)
	}
	payload = decodePayload(t, result)
	if payload["found"] != false {
		t.Errorf("found = %v, want false for other caller", payload["found"])
	}
}

func TestHandleList(t *testing.T) {
	h, _ := testSetup(t)
	ctx := context.Background()
	seedNote(t, h, "alice", 2)
	seedNote(t, h, "alice", 1)
	seedNote(t, h, "bob", 3)

	result, err := h.HandleList(ctx, makeRequest(map[string]any{"caller": "alice"}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	payload := decodePayload(t, result)
	if payload["count"] != float64(2) {
		t.Errorf("count = %v, want 2", payload["count"])
	}
}

func TestHandleExport(t *testing.T) {
	h, _ := testSetup(t)
	ctx := context.Background()
	seedNote(t, h, "alice", 1)

	result, err := h.HandleExport(ctx, makeRequest(map[string]any{
		"caller": "alice",
		"id":     1,
		"format": "html",
	}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if result.IsError {
		t.Fatalf("export failed: %v", result.Content)
	}
	payload := decodePayload(t, result)
	if payload["path"] == "" {
		t.Error("export path should be set")
	}
}

func TestHandleSettlements(t *testing.T) {
	h, _ := testSetup(t)
	result, err := h.HandleSettlements(context.Background(), makeRequest(map[string]any{}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	payload := decodePayload(t, result)
	if payload["count"] != float64(0) {
		t.Errorf("count = %v, want 0", payload["count"])
	}
}

func TestValidateDisabledTools(t *testing.T) {
	unknown := ValidateDisabledTools([]string{"note_add", "bogus_tool"})
	if len(unknown) != 1 || unknown[0] != "bogus_tool" {
		t.Errorf("unknown = %v, want [bogus_tool]", unknown)
	}
}

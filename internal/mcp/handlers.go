package mcp

import (
	"context"
	"encoding/json"
	stderrors "errors"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/notegate/internal/config"
	"github.com/hpungsan/notegate/internal/db"
	"github.com/hpungsan/notegate/internal/errors"
	"github.com/hpungsan/notegate/internal/note"
	"github.com/hpungsan/notegate/internal/ops"
	"github.com/hpungsan/notegate/internal/settle"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	store      note.Store
	journal    *db.SettlementJournal
	settler    ops.Settler
	cfg        *config.Config
	exportsDir string
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(store note.Store, journal *db.SettlementJournal, settler ops.Settler, cfg *config.Config, exportsDir string) *Handlers {
	return &Handlers{
		store:      store,
		journal:    journal,
		settler:    settler,
		cfg:        cfg,
		exportsDir: exportsDir,
	}
}

// Request types for each tool

// AddRequest represents the arguments for note_add.
type AddRequest struct {
	Caller  string `json:"caller"`
	ID      uint64 `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// UpdateRequest represents the arguments for note_update.
type UpdateRequest struct {
	Caller  string `json:"caller"`
	ID      uint64 `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// DeleteRequest represents the arguments for note_delete.
type DeleteRequest struct {
	Caller string `json:"caller"`
	ID     uint64 `json:"id"`
}

// GetRequest represents the arguments for note_get.
type GetRequest struct {
	Caller string `json:"caller"`
	ID     uint64 `json:"id"`
}

// ListRequest represents the arguments for note_list.
type ListRequest struct {
	Caller string `json:"caller"`
}

// ExportRequest represents the arguments for note_export.
type ExportRequest struct {
	Caller string `json:"caller"`
	ID     uint64 `json:"id"`
	Format string `json:"format,omitempty"`
}

// SettlementsRequest represents the arguments for settlement_list.
type SettlementsRequest struct {
	Owner string `json:"owner,omitempty"`
}

// HandleAdd handles the note_add tool call.
func (h *Handlers) HandleAdd(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[AddRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Add(ctx, h.store, h.cfg, h.settler, ops.AddInput{
		Caller: input.Caller,
		ID:     input.ID,
		Note:   note.Note{Title: input.Title, Content: input.Content},
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleUpdate handles the note_update tool call.
func (h *Handlers) HandleUpdate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[UpdateRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Update(ctx, h.store, h.cfg, h.settler, ops.UpdateInput{
		Caller: input.Caller,
		ID:     input.ID,
		Note:   note.Note{Title: input.Title, Content: input.Content},
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleDelete handles the note_delete tool call.
func (h *Handlers) HandleDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[DeleteRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Delete(ctx, h.store, h.cfg, h.settler, ops.DeleteInput{
		Caller: input.Caller,
		ID:     input.ID,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleGet handles the note_get tool call.
func (h *Handlers) HandleGet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[GetRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Get(ctx, h.store, ops.GetInput{
		Caller: input.Caller,
		ID:     input.ID,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleList handles the note_list tool call.
func (h *Handlers) HandleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ListRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.List(ctx, h.store, ops.ListInput{Caller: input.Caller})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleExport handles the note_export tool call.
func (h *Handlers) HandleExport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ExportRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Export(ctx, h.store, ops.ExportInput{
		Caller: input.Caller,
		ID:     input.ID,
		Dir:    h.exportsDir,
		Format: ops.ExportFormat(input.Format),
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleSettlements handles the settlement_list tool call.
func (h *Handlers) HandleSettlements(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SettlementsRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Settlements(ctx, h.journal, ops.SettlementsInput{Owner: input.Owner})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// errorResult converts an error into an MCP error result. Settlement
// failures additionally carry the failed stage and whether funds moved.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	var gateErr *errors.GateError
	if stderrors.As(err, &gateErr) {
		errorObj := map[string]any{
			"code":    gateErr.Code,
			"message": gateErr.Message,
			"status":  gateErr.Status,
		}
		// Only include details for non-internal errors to avoid leaking
		// sensitive info like file paths or SQL errors
		if gateErr.Code != errors.ErrInternal && gateErr.Details != nil {
			errorObj["details"] = gateErr.Details
		}
		var stageErr *settle.StageError
		if stderrors.As(err, &stageErr) {
			errorObj["stage"] = string(stageErr.Stage)
			errorObj["run_id"] = stageErr.RunID
			errorObj["funds_moved"] = stageErr.FundsMoved
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult serializes data as a JSON tool result.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}

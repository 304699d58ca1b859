// Package mcp exposes the note store and settlement journal as MCP tools
// over stdio.
package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hpungsan/notegate/internal/config"
	"github.com/hpungsan/notegate/internal/db"
	"github.com/hpungsan/notegate/internal/note"
	"github.com/hpungsan/notegate/internal/ops"
)

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

// toolRegistry maps tool names to their definitions and handler factories.
var toolRegistry = map[string]toolEntry{
	"note_add": {
		def:     addToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleAdd },
	},
	"note_update": {
		def:     updateToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleUpdate },
	},
	"note_delete": {
		def:     deleteToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleDelete },
	},
	"note_get": {
		def:     getToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleGet },
	},
	"note_list": {
		def:     listToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleList },
	},
	"note_export": {
		def:     exportToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleExport },
	},
	"settlement_list": {
		def:     settlementListToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSettlements },
	},
}

// AllToolNames returns a list of all valid tool names.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	return names
}

// ValidateDisabledTools returns a list of unknown tool names from the given list.
func ValidateDisabledTools(names []string) []string {
	unknown := make([]string, 0)
	for _, name := range names {
		if _, ok := toolRegistry[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// NewServer creates a new MCP server with Notegate tools registered.
// Tools listed in cfg.DisabledTools are excluded from registration.
func NewServer(store note.Store, journal *db.SettlementJournal, settler ops.Settler, cfg *config.Config, exportsDir, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"notegate",
		version,
		server.WithToolCapabilities(true),
	)

	h := NewHandlers(store, journal, settler, cfg, exportsDir)

	disabled := make(map[string]bool)
	for _, name := range cfg.DisabledTools {
		disabled[name] = true
	}

	for name, entry := range toolRegistry {
		if disabled[name] {
			continue
		}
		s.AddTool(entry.def, entry.handler(h))
	}

	return s
}

// Run starts the MCP server using stdio transport.
func Run(store note.Store, journal *db.SettlementJournal, settler ops.Settler, cfg *config.Config, exportsDir, version string) error {
	s := NewServer(store, journal, settler, cfg, exportsDir, version)
	return server.ServeStdio(s)
}

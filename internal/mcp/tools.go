package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

var addToolDef = mcp.NewTool("note_add",
	mcp.WithDescription("Create a note at an id you do not already use. A settlement run is charged to the caller before the note is stored; the result carries the settlement receipt."),
	mcp.WithString("caller",
		mcp.Required(),
		mcp.Description("Caller principal that owns and pays for the note"),
	),
	mcp.WithNumber("id",
		mcp.Required(),
		mcp.Description("Note id, a positive integer unique per caller"),
	),
	mcp.WithString("title",
		mcp.Required(),
		mcp.Description("Note title, must not be blank"),
	),
	mcp.WithString("content",
		mcp.Required(),
		mcp.Description("Note content, markdown, must not be blank"),
	),
)

var updateToolDef = mcp.NewTool("note_update",
	mcp.WithDescription("Overwrite an existing note. A settlement run is charged to the caller before the overwrite."),
	mcp.WithString("caller",
		mcp.Required(),
		mcp.Description("Caller principal that owns and pays for the note"),
	),
	mcp.WithNumber("id",
		mcp.Required(),
		mcp.Description("Id of an existing note owned by the caller"),
	),
	mcp.WithString("title",
		mcp.Required(),
		mcp.Description("New title, must not be blank"),
	),
	mcp.WithString("content",
		mcp.Required(),
		mcp.Description("New content, must not be blank"),
	),
)

var deleteToolDef = mcp.NewTool("note_delete",
	mcp.WithDescription("Delete an existing note. A settlement run is charged to the caller before the removal; deleting an id with no note fails without charging."),
	mcp.WithString("caller",
		mcp.Required(),
		mcp.Description("Caller principal that owns and pays for the note"),
	),
	mcp.WithNumber("id",
		mcp.Required(),
		mcp.Description("Id of an existing note owned by the caller"),
	),
)

var getToolDef = mcp.NewTool("note_get",
	mcp.WithDescription("Read one of the caller's notes. Free; an id with no note reports found=false."),
	mcp.WithString("caller",
		mcp.Required(),
		mcp.Description("Caller principal"),
	),
	mcp.WithNumber("id",
		mcp.Required(),
		mcp.Description("Note id"),
	),
)

var listToolDef = mcp.NewTool("note_list",
	mcp.WithDescription("List every note owned by the caller, ordered by id. Free."),
	mcp.WithString("caller",
		mcp.Required(),
		mcp.Description("Caller principal"),
	),
)

var exportToolDef = mcp.NewTool("note_export",
	mcp.WithDescription("Write one of the caller's notes to a file in the exports directory, as markdown or rendered HTML. Free."),
	mcp.WithString("caller",
		mcp.Required(),
		mcp.Description("Caller principal"),
	),
	mcp.WithNumber("id",
		mcp.Required(),
		mcp.Description("Note id"),
	),
	mcp.WithString("format",
		mcp.Description("Export format: markdown (default) or html"),
		mcp.Enum("markdown", "html"),
	),
)

var settlementListToolDef = mcp.NewTool("settlement_list",
	mcp.WithDescription("List settlement runs that did not complete: pending runs and failed runs. Failed runs at the swapped or redeemed stages hold funds that moved but never arrived."),
	mcp.WithString("owner",
		mcp.Description("Narrow to one caller's runs; omit for all owners"),
	),
)

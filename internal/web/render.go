package web

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"html"
	"net/http"

	"github.com/yuin/goldmark"

	"github.com/hpungsan/notegate/internal/errors"
	"github.com/hpungsan/notegate/internal/note"
)

// renderJSON writes data as a JSON response with the given status code.
func renderJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// renderError writes a structured error response. Unknown errors are wrapped
// as INTERNAL so the wire shape is uniform.
func renderError(w http.ResponseWriter, err error) {
	var gErr *errors.GateError
	if !stderrors.As(err, &gErr) {
		gErr = errors.NewInternal(err)
	}

	payload := map[string]any{
		"code":    string(gErr.Code),
		"message": gErr.Message,
		"status":  gErr.Status,
	}
	// Internal details stay out of responses
	if len(gErr.Details) > 0 && gErr.Code != errors.ErrInternal {
		payload["details"] = gErr.Details
	}

	renderJSON(w, gErr.Status, map[string]any{"error": payload})
}

// renderHTML writes the note as a standalone HTML page, the markdown body
// converted with goldmark.
func renderHTML(w http.ResponseWriter, n *note.Note) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(n.Content), &buf); err != nil {
		renderError(w, errors.NewInternal(err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, "<!DOCTYPE html>\n<html>\n<head><title>%s</title></head>\n<body>\n<h1>%s</h1>\n%s</body>\n</html>\n",
		html.EscapeString(n.Title), html.EscapeString(n.Title), buf.String())
}

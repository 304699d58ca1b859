package web

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/hpungsan/notegate/internal/config"
	"github.com/hpungsan/notegate/internal/db"
	"github.com/hpungsan/notegate/internal/errors"
	"github.com/hpungsan/notegate/internal/note"
	"github.com/hpungsan/notegate/internal/ops"
)

// callerHeader carries the caller principal. There is no authentication
// behind it; the API trusts its front proxy for identity.
const callerHeader = "X-Notegate-Caller"

const maxBodyBytes = 1 << 20

// Handlers contains HTTP route handlers for the JSON API.
type Handlers struct {
	store   note.Store
	journal *db.SettlementJournal
	settler ops.Settler
	cfg     *config.Config
}

// HandleHealth handles GET /healthz.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	renderJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleList handles GET /notes — every note owned by the caller.
func (h *Handlers) HandleList(w http.ResponseWriter, r *http.Request) {
	caller, err := requireCaller(r)
	if err != nil {
		renderError(w, err)
		return
	}

	result, err := ops.List(r.Context(), h.store, ops.ListInput{Caller: caller})
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// HandleGet handles GET /notes/{id}. An absent note is 404 here even though
// the ops layer reports absence without an error; a REST surface has a
// status code for it.
func (h *Handlers) HandleGet(w http.ResponseWriter, r *http.Request) {
	caller, id, err := callerAndID(r)
	if err != nil {
		renderError(w, err)
		return
	}

	result, err := ops.Get(r.Context(), h.store, ops.GetInput{Caller: caller, ID: id})
	if err != nil {
		renderError(w, err)
		return
	}
	if !result.Found {
		renderError(w, errors.NewNotFound(id))
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// HandleHTML handles GET /notes/{id}/html — the note rendered to HTML.
func (h *Handlers) HandleHTML(w http.ResponseWriter, r *http.Request) {
	caller, id, err := callerAndID(r)
	if err != nil {
		renderError(w, err)
		return
	}

	result, err := ops.Get(r.Context(), h.store, ops.GetInput{Caller: caller, ID: id})
	if err != nil {
		renderError(w, err)
		return
	}
	if !result.Found {
		renderError(w, errors.NewNotFound(id))
		return
	}
	renderHTML(w, result.Note)
}

// HandleAdd handles POST /notes/{id} — create a note behind a settlement run.
func (h *Handlers) HandleAdd(w http.ResponseWriter, r *http.Request) {
	caller, id, err := callerAndID(r)
	if err != nil {
		renderError(w, err)
		return
	}
	n, err := decodeNote(r)
	if err != nil {
		renderError(w, err)
		return
	}

	result, err := ops.Add(r.Context(), h.store, h.cfg, h.settler, ops.AddInput{
		Caller: caller,
		ID:     id,
		Note:   *n,
	})
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusCreated, result)
}

// HandleUpdate handles PUT /notes/{id} — overwrite behind a settlement run.
func (h *Handlers) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	caller, id, err := callerAndID(r)
	if err != nil {
		renderError(w, err)
		return
	}
	n, err := decodeNote(r)
	if err != nil {
		renderError(w, err)
		return
	}

	result, err := ops.Update(r.Context(), h.store, h.cfg, h.settler, ops.UpdateInput{
		Caller: caller,
		ID:     id,
		Note:   *n,
	})
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// HandleDelete handles DELETE /notes/{id} — remove behind a settlement run.
func (h *Handlers) HandleDelete(w http.ResponseWriter, r *http.Request) {
	caller, id, err := callerAndID(r)
	if err != nil {
		renderError(w, err)
		return
	}

	result, err := ops.Delete(r.Context(), h.store, h.cfg, h.settler, ops.DeleteInput{
		Caller: caller,
		ID:     id,
	})
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// HandleSettlements handles GET /settlements — pending and failed runs.
// The owner query parameter narrows to one caller; without it the full
// reconciliation view is returned.
func (h *Handlers) HandleSettlements(w http.ResponseWriter, r *http.Request) {
	result, err := ops.Settlements(r.Context(), h.journal, ops.SettlementsInput{
		Owner: r.URL.Query().Get("owner"),
	})
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

func requireCaller(r *http.Request) (string, error) {
	caller := strings.TrimSpace(r.Header.Get(callerHeader))
	if caller == "" {
		return "", errors.NewInvalidRequest(callerHeader + " header is required")
	}
	return caller, nil
}

func callerAndID(r *http.Request) (string, uint64, error) {
	caller, err := requireCaller(r)
	if err != nil {
		return "", 0, err
	}
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil {
		return "", 0, errors.NewInvalidRequest("note id must be a positive integer")
	}
	return caller, id, nil
}

func decodeNote(r *http.Request) (*note.Note, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return nil, errors.NewInvalidRequest("failed to read request body")
	}
	var n note.Note
	if err := json.Unmarshal(body, &n); err != nil {
		return nil, errors.NewInvalidRequest("request body must be a JSON note with title and content")
	}
	return &n, nil
}

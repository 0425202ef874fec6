package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"imagestudio/internal/middleware"
)

type generateRequest struct {
	// Prompt, when present, replaces the session prompt before submitting.
	// The page sends the textarea content along with the submit.
	Prompt *string `json:"prompt"`
}

// Generate submits the session. The call returns as soon as the session
// enters loading; progress arrives over the event stream. A second submit
// while one runs is a conflict, and an empty prompt is rejected inline with
// the fixed message also recorded on the session.
func (a *App) Generate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req generateRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
			return
		}
	}
	if req.Prompt != nil {
		if _, err := a.Studio.SetPrompt(id, *req.Prompt); err != nil {
			a.studioError(w, err)
			return
		}
	}

	locale := middleware.LocaleFromContext(r.Context())
	requestID := middleware.RequestIDFromContext(r.Context())
	snap, err := a.Studio.Generate(r.Context(), id, locale, requestID)
	if err != nil {
		a.studioError(w, err)
		return
	}
	a.json(w, http.StatusAccepted, snap)
}

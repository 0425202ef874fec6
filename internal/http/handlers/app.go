package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"imagestudio/internal/domain"
	"imagestudio/internal/history"
	"imagestudio/internal/infra"
	"imagestudio/internal/providers/prompt"
	"imagestudio/internal/studio"
)

// App bundles the dependencies the HTTP handlers need. History is nil when no
// database is configured; the history endpoints then answer 503.
type App struct {
	Config    *infra.Config
	Logger    infra.Logger
	Studio    *studio.Service
	Suggester prompt.Suggester
	History   *history.Queries
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, status int, code, message string) {
	a.json(w, status, map[string]any{"error": errorBody{Code: code, Message: message}})
}

// studioError maps the studio sentinels onto HTTP statuses. The empty-prompt
// rejection keeps the fixed message the session records.
func (a *App) studioError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		a.error(w, http.StatusNotFound, "not_found", "session not found")
	case errors.Is(err, domain.ErrGenerationBusy):
		a.error(w, http.StatusConflict, "generation_in_flight", "a generation is already running for this session")
	case errors.Is(err, domain.ErrEmptyPrompt):
		a.error(w, http.StatusUnprocessableEntity, "empty_prompt", studio.EmptyPromptMessage)
	case errors.Is(err, domain.ErrEditorClosed):
		a.error(w, http.StatusConflict, "editor_closed", "the editor is not open")
	case errors.Is(err, domain.ErrNoInputImage):
		a.error(w, http.StatusConflict, "no_input_image", "no input image to edit")
	case errors.Is(err, domain.ErrInvalidImage):
		a.error(w, http.StatusBadRequest, "invalid_image", "invalid image data")
	default:
		a.error(w, http.StatusInternalServerError, "internal", "internal error")
	}
}

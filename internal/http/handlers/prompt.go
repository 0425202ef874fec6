package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

type setPromptRequest struct {
	Prompt string `json:"prompt"`
}

func (a *App) SetPrompt(w http.ResponseWriter, r *http.Request) {
	var req setPromptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	snap, err := a.Studio.SetPrompt(chi.URLParam(r, "id"), req.Prompt)
	if err != nil {
		a.studioError(w, err)
		return
	}
	a.json(w, http.StatusOK, snap)
}

package handlers

import (
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
)

type generationDTO struct {
	ID        uuid.UUID `json:"id"`
	SessionID string    `json:"session_id"`
	RequestID string    `json:"request_id"`
	Prompt    string    `json:"prompt"`
	Mode      string    `json:"mode"`
	Provider  *string   `json:"provider,omitempty"`
	Model     *string   `json:"model,omitempty"`
	Status    string    `json:"status"`
	Message   *string   `json:"message,omitempty"`
	ElapsedMS int64     `json:"elapsed_ms"`
	SizeBytes int64     `json:"size_bytes"`
	CreatedAt time.Time `json:"created_at"`
}

// HistoryRecent lists the newest generation records, newest first.
func (a *App) HistoryRecent(w http.ResponseWriter, r *http.Request) {
	if a.History == nil {
		a.error(w, http.StatusServiceUnavailable, "history_disabled", "history storage is not configured")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	rows, err := a.History.ListRecent(r.Context(), int32(limit))
	if err != nil {
		a.error(w, http.StatusInternalServerError, "internal", "failed to load history")
		return
	}
	items := make([]generationDTO, 0, len(rows))
	for _, g := range rows {
		items = append(items, generationDTO{
			ID:        g.ID,
			SessionID: g.SessionID,
			RequestID: g.RequestID,
			Prompt:    g.Prompt,
			Mode:      g.Mode,
			Provider:  nullableString(g.Provider),
			Model:     nullableString(g.Model),
			Status:    g.Status,
			Message:   nullableString(g.Message),
			ElapsedMS: g.ElapsedMS,
			SizeBytes: g.SizeBytes,
			CreatedAt: g.CreatedAt,
		})
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

func nullableString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}

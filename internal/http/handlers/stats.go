package handlers

import (
	"net/http"
)

// StatsSummary aggregates the generation history. Without a database the
// endpoint reports that history is disabled.
func (a *App) StatsSummary(w http.ResponseWriter, r *http.Request) {
	if a.History == nil {
		a.error(w, http.StatusServiceUnavailable, "history_disabled", "history storage is not configured")
		return
	}
	row, err := a.History.Summary(r.Context())
	if err != nil {
		a.error(w, http.StatusInternalServerError, "internal", "failed to load stats")
		return
	}
	out := map[string]any{
		"total":     row.Total,
		"succeeded": row.Succeeded,
		"failed":    row.Failed,
	}
	if row.SuccessRate.Valid {
		out["success_rate"] = row.SuccessRate.Float64
	}
	if row.AvgElapsedMS.Valid {
		out["avg_elapsed_ms"] = row.AvgElapsedMS.Float64
	}
	a.json(w, http.StatusOK, out)
}

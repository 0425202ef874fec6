package handlers

import (
	"net/http"
	"strconv"
	"time"

	"imagestudio/internal/middleware"
	"imagestudio/internal/providers/prompt"
)

const maxSuggestionCount = 8

// PromptSuggestions returns starter prompts for the studio page, in the
// request's locale. The count query parameter is clamped to a small range.
func (a *App) PromptSuggestions(w http.ResponseWriter, r *http.Request) {
	locale := middleware.LocaleFromContext(r.Context())
	count, _ := strconv.Atoi(r.URL.Query().Get("count"))
	if count <= 0 {
		count = prompt.DefaultSuggestionCount
	}
	if count > maxSuggestionCount {
		count = maxSuggestionCount
	}

	items, err := a.Suggester.Suggest(r.Context(), locale, count)
	if err != nil {
		a.error(w, http.StatusInternalServerError, "internal", "failed to load suggestions")
		return
	}
	provider := ""
	if len(items) > 0 {
		provider = items[0].Provider
	}
	a.json(w, http.StatusOK, map[string]any{
		"items":        items,
		"locale":       locale,
		"provider":     provider,
		"generated_at": time.Now().UTC(),
	})
}

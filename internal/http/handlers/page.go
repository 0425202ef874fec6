package handlers

import (
	_ "embed"
	"net/http"
)

//go:embed studio.html
var studioPage []byte

// StudioPage serves the single-page studio client.
func (a *App) StudioPage(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(studioPage)
}

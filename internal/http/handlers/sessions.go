package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// sseHeartbeat keeps intermediaries from timing out an otherwise quiet
// event stream.
const sseHeartbeat = 25 * time.Second

func (a *App) CreateSession(w http.ResponseWriter, r *http.Request) {
	snap := a.Studio.Create()
	a.json(w, http.StatusCreated, snap)
}

func (a *App) GetSession(w http.ResponseWriter, r *http.Request) {
	snap, err := a.Studio.Get(chi.URLParam(r, "id"))
	if err != nil {
		a.studioError(w, err)
		return
	}
	a.json(w, http.StatusOK, snap)
}

// SessionEvents streams session snapshots as server-sent events. The first
// event is the current state; every store revision after that produces one
// more. The stream ends when the client disconnects or the session expires.
func (a *App) SessionEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		a.error(w, http.StatusInternalServerError, "internal", "streaming unsupported")
		return
	}

	id := chi.URLParam(r, "id")
	updates, cancel, err := a.Studio.Watch(id)
	if err != nil {
		a.studioError(w, err)
		return
	}
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	heartbeat := time.NewTicker(sseHeartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case snap, open := <-updates:
			if !open {
				return
			}
			payload, err := json.Marshal(snap)
			if err != nil {
				a.Logger.Error().Err(err).Str("session_id", id).Msg("encode snapshot event")
				return
			}
			if _, err := fmt.Fprintf(w, "id: %d\nevent: snapshot\ndata: %s\n\n", snap.Revision, payload); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

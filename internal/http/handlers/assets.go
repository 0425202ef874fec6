package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"imagestudio/pkg/zip"
)

// Result serves the raw bytes of the last generated image.
func (a *App) Result(w http.ResponseWriter, r *http.Request) {
	img, err := a.Studio.Result(chi.URLParam(r, "id"))
	if err != nil {
		a.studioError(w, err)
		return
	}
	w.Header().Set("Content-Type", img.MIME)
	w.Header().Set("Content-Length", strconv.Itoa(len(img.Data)))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(img.Data)
}

// Archive bundles the session's prompt, input image, and generated image
// into one zip download.
func (a *App) Archive(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	bundle, err := a.Studio.Archive(id)
	if err != nil {
		a.studioError(w, err)
		return
	}

	var assets []zip.Asset
	if bundle.Prompt != "" {
		assets = append(assets, zip.Asset{Filename: "prompt", MIME: "text/plain", Data: []byte(bundle.Prompt)})
	}
	if bundle.Input != nil {
		assets = append(assets, zip.Asset{Filename: "input", MIME: bundle.Input.MIME, Data: bundle.Input.Data})
	}
	if bundle.Generated != nil {
		assets = append(assets, zip.Asset{Filename: "generated", MIME: bundle.Generated.MIME, Data: bundle.Generated.Data})
	}
	if len(assets) == 0 {
		a.error(w, http.StatusNotFound, "not_found", "session has nothing to archive")
		return
	}

	archive := zip.ArchiveAssets(assets)
	if archive == nil {
		a.error(w, http.StatusInternalServerError, "internal", "failed to build archive")
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=session-%s.zip", id))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(archive)
}

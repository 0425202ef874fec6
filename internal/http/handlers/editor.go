package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"imagestudio/internal/domain/editcfg"
	"imagestudio/internal/imaging"
	"imagestudio/internal/studio"
)

type openEditorRequest struct {
	// SourceDataURL seeds the editor with a fresh image instead of the
	// session's current input.
	SourceDataURL string `json:"source_data_url"`
}

type editRequest struct {
	Edit editcfg.EditJSON `json:"edit"`
}

type previewResponse struct {
	Preview studio.SnapshotImage `json:"preview"`
}

func (a *App) OpenEditor(w http.ResponseWriter, r *http.Request) {
	var req openEditorRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
			return
		}
	}

	var source *imaging.Image
	if req.SourceDataURL != "" {
		img, err := imaging.ParseDataURL(req.SourceDataURL)
		if err != nil {
			a.error(w, http.StatusBadRequest, "invalid_image", err.Error())
			return
		}
		if !imaging.IsSupportedMIME(img.MIME) {
			a.error(w, http.StatusUnsupportedMediaType, "unsupported_media_type", "unsupported image format")
			return
		}
		source = &img
	}

	snap, err := a.Studio.OpenEditor(chi.URLParam(r, "id"), source)
	if err != nil {
		a.studioError(w, err)
		return
	}
	a.json(w, http.StatusOK, snap)
}

func (a *App) PreviewEdit(w http.ResponseWriter, r *http.Request) {
	edit, ok := a.decodeEdit(w, r)
	if !ok {
		return
	}
	preview, err := a.Studio.PreviewEdit(chi.URLParam(r, "id"), edit)
	if err != nil {
		a.studioError(w, err)
		return
	}
	a.json(w, http.StatusOK, previewResponse{Preview: studio.SnapshotImage{
		MIME:      preview.MIME,
		SizeBytes: len(preview.Data),
		DataURL:   preview.DataURL(),
	}})
}

func (a *App) SaveEditor(w http.ResponseWriter, r *http.Request) {
	edit, ok := a.decodeEdit(w, r)
	if !ok {
		return
	}
	snap, err := a.Studio.SaveEditor(chi.URLParam(r, "id"), edit)
	if err != nil {
		a.studioError(w, err)
		return
	}
	a.json(w, http.StatusOK, snap)
}

func (a *App) CancelEditor(w http.ResponseWriter, r *http.Request) {
	snap, err := a.Studio.CancelEditor(chi.URLParam(r, "id"))
	if err != nil {
		a.studioError(w, err)
		return
	}
	a.json(w, http.StatusOK, snap)
}

// decodeEdit parses and validates the edit contract up front so contract
// mistakes come back as a 422 with the validation text.
func (a *App) decodeEdit(w http.ResponseWriter, r *http.Request) (editcfg.EditJSON, bool) {
	var req editRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return editcfg.EditJSON{}, false
	}
	req.Edit.Normalize()
	if err := req.Edit.Validate(); err != nil {
		a.error(w, http.StatusUnprocessableEntity, "invalid_edit", err.Error())
		return editcfg.EditJSON{}, false
	}
	return req.Edit, true
}

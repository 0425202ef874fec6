package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"imagestudio/internal/imaging"
)

type attachInputRequest struct {
	DataURL string `json:"data_url"`
}

// AttachInput accepts the input image either as a multipart upload under the
// "image" field or as a JSON body carrying a data URL. Unreadable or
// unsupported payloads abort the attachment and leave the session untouched.
func (a *App) AttachInput(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, a.Config.MaxUploadBytes)

	img, ok := a.readInputImage(w, r)
	if !ok {
		return
	}

	snap, err := a.Studio.AttachInput(chi.URLParam(r, "id"), img)
	if err != nil {
		a.studioError(w, err)
		return
	}
	a.json(w, http.StatusOK, snap)
}

func (a *App) RemoveInput(w http.ResponseWriter, r *http.Request) {
	snap, err := a.Studio.RemoveInput(chi.URLParam(r, "id"))
	if err != nil {
		a.studioError(w, err)
		return
	}
	a.json(w, http.StatusOK, snap)
}

func (a *App) readInputImage(w http.ResponseWriter, r *http.Request) (imaging.Image, bool) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		file, header, err := r.FormFile("image")
		if err != nil {
			a.uploadError(w, err, "image file field required")
			return imaging.Image{}, false
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			a.uploadError(w, err, "could not read upload")
			return imaging.Image{}, false
		}
		mime := imaging.SniffMIME(data, header.Filename)
		if !imaging.IsSupportedMIME(mime) {
			a.error(w, http.StatusUnsupportedMediaType, "unsupported_media_type", "unsupported image format")
			return imaging.Image{}, false
		}
		return imaging.Image{MIME: mime, Data: data}, true
	}

	var req attachInputRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.uploadError(w, err, "invalid payload")
		return imaging.Image{}, false
	}
	img, err := imaging.ParseDataURL(req.DataURL)
	if err != nil {
		a.error(w, http.StatusBadRequest, "invalid_image", err.Error())
		return imaging.Image{}, false
	}
	if !imaging.IsSupportedMIME(img.MIME) {
		a.error(w, http.StatusUnsupportedMediaType, "unsupported_media_type", "unsupported image format")
		return imaging.Image{}, false
	}
	return img, true
}

func (a *App) uploadError(w http.ResponseWriter, err error, fallback string) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		a.error(w, http.StatusRequestEntityTooLarge, "too_large", "upload exceeds the size limit")
		return
	}
	a.error(w, http.StatusBadRequest, "bad_request", fallback)
}

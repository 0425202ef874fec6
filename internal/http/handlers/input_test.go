package handlers_test

import (
	"bytes"
	"encoding/base64"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"imagestudio/internal/imaging"
)

func multipartUpload(t *testing.T, path, field, filename string, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write(data); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestAttachInputMultipart(t *testing.T) {
	_, router := newTestApp(t, okGenerator(imaging.Image{MIME: "image/png", Data: testPNG(t, 2, 2)}))
	sess := createSession(t, router)

	req := multipartUpload(t, "/v1/sessions/"+sess.ID+"/input", "image", "photo.png", testPNG(t, 4, 3))
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("attach status = %d (body %s)", res.Code, res.Body.String())
	}
	snap := decodeSnapshot(t, res)
	if snap.Input == nil {
		t.Fatalf("snapshot has no input image")
	}
	if snap.Input.MIME != "image/png" {
		t.Fatalf("input mime = %q, want image/png", snap.Input.MIME)
	}
}

func TestAttachInputDataURL(t *testing.T) {
	_, router := newTestApp(t, okGenerator(imaging.Image{MIME: "image/png", Data: testPNG(t, 2, 2)}))
	sess := createSession(t, router)

	payload := testPNG(t, 3, 3)
	dataURL := "data:image/png;base64," + base64.StdEncoding.EncodeToString(payload)
	res := doJSON(t, router, http.MethodPost, "/v1/sessions/"+sess.ID+"/input", map[string]string{"data_url": dataURL})

	if res.Code != http.StatusOK {
		t.Fatalf("attach status = %d (body %s)", res.Code, res.Body.String())
	}
	snap := decodeSnapshot(t, res)
	if snap.Input == nil || snap.Input.SizeBytes != len(payload) {
		t.Fatalf("input not attached as sent: %+v", snap.Input)
	}
}

func TestAttachInputRejectsUnsupportedFormat(t *testing.T) {
	_, router := newTestApp(t, okGenerator(imaging.Image{MIME: "image/png", Data: testPNG(t, 2, 2)}))
	sess := createSession(t, router)

	req := multipartUpload(t, "/v1/sessions/"+sess.ID+"/input", "image", "raw.tiff", []byte("II*\x00 not a raster we accept"))
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	if res.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("status = %d, want %d", res.Code, http.StatusUnsupportedMediaType)
	}
	code, _ := decodeError(t, res)
	if code != "unsupported_media_type" {
		t.Fatalf("error code = %q", code)
	}
}

func TestAttachInputRejectsOversizedUpload(t *testing.T) {
	app, router := newTestApp(t, okGenerator(imaging.Image{MIME: "image/png", Data: testPNG(t, 2, 2)}))
	app.Config.MaxUploadBytes = 64
	sess := createSession(t, router)

	req := multipartUpload(t, "/v1/sessions/"+sess.ID+"/input", "image", "big.png", testPNG(t, 64, 64))
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	if res.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want %d", res.Code, http.StatusRequestEntityTooLarge)
	}
	code, _ := decodeError(t, res)
	if code != "too_large" {
		t.Fatalf("error code = %q", code)
	}
}

func TestAttachInputBadDataURL(t *testing.T) {
	_, router := newTestApp(t, okGenerator(imaging.Image{MIME: "image/png", Data: testPNG(t, 2, 2)}))
	sess := createSession(t, router)

	res := doJSON(t, router, http.MethodPost, "/v1/sessions/"+sess.ID+"/input", map[string]string{"data_url": "http://example.com/cat.png"})
	if res.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", res.Code, http.StatusBadRequest)
	}
	code, _ := decodeError(t, res)
	if code != "invalid_image" {
		t.Fatalf("error code = %q", code)
	}
}

func TestRemoveInputKeepsResult(t *testing.T) {
	_, router := newTestApp(t, okGenerator(imaging.Image{MIME: "image/png", Data: testPNG(t, 2, 2)}))
	sess := createSession(t, router)

	attach := doJSON(t, router, http.MethodPost, "/v1/sessions/"+sess.ID+"/input", map[string]string{
		"data_url": imaging.Image{MIME: "image/png", Data: testPNG(t, 3, 3)}.DataURL(),
	})
	if attach.Code != http.StatusOK {
		t.Fatalf("attach status = %d", attach.Code)
	}

	res := doJSON(t, router, http.MethodDelete, "/v1/sessions/"+sess.ID+"/input", nil)
	if res.Code != http.StatusOK {
		t.Fatalf("remove status = %d", res.Code)
	}
	snap := decodeSnapshot(t, res)
	if snap.Input != nil {
		t.Fatalf("input still present after remove")
	}
}

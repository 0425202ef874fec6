package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	handlers "imagestudio/internal/http/handlers"
	"imagestudio/internal/http/httpapi"
	"imagestudio/internal/imaging"
	"imagestudio/internal/infra"
	provider "imagestudio/internal/providers/image"
	"imagestudio/internal/providers/prompt"
	"imagestudio/internal/studio"
)

type stubGenerator struct {
	name string
	fn   func(ctx context.Context, req provider.Request) (*provider.Result, error)
}

func (g *stubGenerator) Name() string {
	if g.name == "" {
		return "stub"
	}
	return g.name
}

func (g *stubGenerator) Generate(ctx context.Context, req provider.Request) (*provider.Result, error) {
	return g.fn(ctx, req)
}

var _ provider.Generator = (*stubGenerator)(nil)

func okGenerator(result imaging.Image) *stubGenerator {
	return &stubGenerator{fn: func(ctx context.Context, req provider.Request) (*provider.Result, error) {
		return &provider.Result{Image: result, Provider: "stub", Model: "stub-1"}, nil
	}}
}

type fakeSuggester struct {
	items []prompt.Suggestion
	err   error
	calls []int
}

func (f *fakeSuggester) Suggest(ctx context.Context, locale string, n int) ([]prompt.Suggestion, error) {
	f.calls = append(f.calls, n)
	if f.err != nil {
		return nil, f.err
	}
	if n > len(f.items) {
		n = len(f.items)
	}
	return f.items[:n], nil
}

func newTestApp(t *testing.T, gen provider.Generator) (*handlers.App, http.Handler) {
	t.Helper()
	logger := zerolog.New(io.Discard)
	svc, err := studio.NewService(studio.Options{
		Store:     studio.NewStore(time.Hour, logger),
		Generator: gen,
		Logger:    logger,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	app := &handlers.App{
		Config: &infra.Config{
			AppEnv:         "test",
			CORSOrigins:    []string{"*"},
			MaxUploadBytes: 4 << 20,
		},
		Logger:    logger,
		Studio:    svc,
		Suggester: prompt.NewStaticSuggester(),
	}
	return app, httpapi.NewRouter(app, nil)
}

func testPNG(t *testing.T, width, height int) []byte {
	t.Helper()
	m := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			m.Set(x, y, color.RGBA{R: uint8(40 * x), G: uint8(40 * y), B: 160, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, m); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func doJSONRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	res := httptest.NewRecorder()
	h.ServeHTTP(res, req)
	return res
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	return serve(h, doJSONRequest(t, method, path, body))
}

func decodeSnapshot(t *testing.T, res *httptest.ResponseRecorder) studio.Snapshot {
	t.Helper()
	var snap studio.Snapshot
	if err := json.Unmarshal(res.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode snapshot: %v (body %s)", err, res.Body.String())
	}
	return snap
}

func decodeError(t *testing.T, res *httptest.ResponseRecorder) (code, message string) {
	t.Helper()
	var body struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(res.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body: %v (body %s)", err, res.Body.String())
	}
	return body.Error.Code, body.Error.Message
}

func createSession(t *testing.T, h http.Handler) studio.Snapshot {
	t.Helper()
	res := doJSON(t, h, http.MethodPost, "/v1/sessions", nil)
	if res.Code != http.StatusCreated {
		t.Fatalf("create session status = %d, want %d", res.Code, http.StatusCreated)
	}
	return decodeSnapshot(t, res)
}

// waitSnapshot polls the session until cond holds or the deadline passes.
func waitSnapshot(t *testing.T, h http.Handler, id string, cond func(studio.Snapshot) bool) studio.Snapshot {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		res := doJSON(t, h, http.MethodGet, "/v1/sessions/"+id, nil)
		if res.Code != http.StatusOK {
			t.Fatalf("get session status = %d", res.Code)
		}
		snap := decodeSnapshot(t, res)
		if cond(snap) {
			return snap
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("session %s never reached the expected state", id)
	return studio.Snapshot{}
}

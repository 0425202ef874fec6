package handlers_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"imagestudio/internal/imaging"
	"imagestudio/internal/providers/prompt"
)

type suggestionsBody struct {
	Items []struct {
		Title  string `json:"title"`
		Prompt string `json:"prompt"`
	} `json:"items"`
	Locale   string `json:"locale"`
	Provider string `json:"provider"`
}

func TestPromptSuggestionsDefaults(t *testing.T) {
	app, router := newTestApp(t, okGenerator(imaging.Image{MIME: "image/png", Data: testPNG(t, 2, 2)}))
	fake := &fakeSuggester{items: []prompt.Suggestion{
		{Title: "Harbor Dawn", Prompt: "a quiet harbor at dawn", Provider: "static"},
		{Title: "Neon Alley", Prompt: "a rain-soaked neon alley", Provider: "static"},
		{Title: "Alpine Cabin", Prompt: "a cabin above the treeline", Provider: "static"},
	}}
	app.Suggester = fake

	res := doJSON(t, router, http.MethodGet, "/v1/prompts/suggestions", nil)
	if res.Code != http.StatusOK {
		t.Fatalf("status = %d", res.Code)
	}
	var body suggestionsBody
	if err := json.Unmarshal(res.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(body.Items) != prompt.DefaultSuggestionCount {
		t.Fatalf("items = %d, want the default %d", len(body.Items), prompt.DefaultSuggestionCount)
	}
	if body.Provider != "static" {
		t.Fatalf("provider = %q, want static", body.Provider)
	}
	if body.Locale != "en" {
		t.Fatalf("locale = %q, want en", body.Locale)
	}
	if len(fake.calls) != 1 || fake.calls[0] != prompt.DefaultSuggestionCount {
		t.Fatalf("suggester calls = %v", fake.calls)
	}
}

func TestPromptSuggestionsClampsCount(t *testing.T) {
	app, router := newTestApp(t, okGenerator(imaging.Image{MIME: "image/png", Data: testPNG(t, 2, 2)}))
	fake := &fakeSuggester{}
	app.Suggester = fake

	res := doJSON(t, router, http.MethodGet, "/v1/prompts/suggestions?count=99", nil)
	if res.Code != http.StatusOK {
		t.Fatalf("status = %d", res.Code)
	}
	if len(fake.calls) != 1 || fake.calls[0] != 8 {
		t.Fatalf("suggester calls = %v, want a single clamped call of 8", fake.calls)
	}
}

func TestPromptSuggestionsHonorsLocaleHeader(t *testing.T) {
	_, router := newTestApp(t, okGenerator(imaging.Image{MIME: "image/png", Data: testPNG(t, 2, 2)}))

	req := doJSONRequest(t, http.MethodGet, "/v1/prompts/suggestions", nil)
	req.Header.Set("X-Locale", "id-ID")
	res := serve(router, req)

	if res.Code != http.StatusOK {
		t.Fatalf("status = %d", res.Code)
	}
	var body suggestionsBody
	if err := json.Unmarshal(res.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Locale != "id" {
		t.Fatalf("locale = %q, want id", body.Locale)
	}
	if len(body.Items) == 0 {
		t.Fatalf("expected built-in suggestions for the locale")
	}
}

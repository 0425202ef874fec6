package prompt

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const geminiDefaultTimeout = 15 * time.Second

// GeminiOptions configures the Gemini-backed suggester.
type GeminiOptions struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
	Fallback   Suggester
	OnFallback func(reason string, err error)
}

// GeminiSuggester asks a Gemini text model for starter prompts and falls back
// to the configured standby on every failure, so the endpoint never errors
// because of the remote model.
type GeminiSuggester struct {
	apiKey     string
	model      string
	baseURL    string
	client     *http.Client
	fallback   Suggester
	onFallback func(reason string, err error)
}

type geminiRequest struct {
	Contents         []geminiContent         `json:"contents"`
	GenerationConfig *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text,omitempty"`
}

type geminiGenerationConfig struct {
	Temperature      float64 `json:"temperature,omitempty"`
	CandidateCount   int     `json:"candidateCount,omitempty"`
	ResponseMimeType string  `json:"responseMimeType,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

type modelSuggestionPayload struct {
	Items  []modelSuggestionItem `json:"items"`
	Locale string                `json:"locale"`
}

type modelSuggestionItem struct {
	Title  string `json:"title"`
	Prompt string `json:"prompt"`
}

// NewGeminiSuggester builds a suggester backed by the Gemini API.
func NewGeminiSuggester(opts GeminiOptions) (*GeminiSuggester, error) {
	if opts.APIKey == "" {
		return nil, errors.New("gemini api key is required")
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = "gemini-1.5-flash"
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: geminiDefaultTimeout}
	}
	return &GeminiSuggester{
		apiKey:     opts.APIKey,
		model:      model,
		baseURL:    baseURL,
		client:     client,
		fallback:   opts.Fallback,
		onFallback: opts.OnFallback,
	}, nil
}

// Suggest fulfils the Suggester interface.
func (g *GeminiSuggester) Suggest(ctx context.Context, locale string, n int) ([]Suggestion, error) {
	if n <= 0 {
		n = DefaultSuggestionCount
	}
	payload := geminiRequest{
		Contents: []geminiContent{{
			Role: "user",
			Parts: []geminiPart{{
				Text: buildSuggestionPrompt(locale, n),
			}},
		}},
		GenerationConfig: &geminiGenerationConfig{
			Temperature:      0.7,
			CandidateCount:   1,
			ResponseMimeType: "application/json",
		},
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return g.useFallback(ctx, locale, n, "encode", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint(), &buf)
	if err != nil {
		return g.useFallback(ctx, locale, n, "build_request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", g.apiKey)
	resp, err := g.client.Do(httpReq)
	if err != nil {
		return g.useFallback(ctx, locale, n, "http_request", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 300 {
		return g.useFallback(ctx, locale, n, "status", fmt.Errorf("status %d", resp.StatusCode))
	}
	var out geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return g.useFallback(ctx, locale, n, "decode", err)
	}
	text := extractText(out)
	if text == "" {
		return g.useFallback(ctx, locale, n, "empty_payload", errors.New("no text candidates"))
	}
	parsed, err := parseModelPayload[modelSuggestionPayload](text)
	if err != nil {
		return g.useFallback(ctx, locale, n, "parse", err)
	}
	if len(parsed.Items) == 0 {
		return g.useFallback(ctx, locale, n, "empty_items", errors.New("no items in payload"))
	}

	results := make([]Suggestion, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		text := strings.TrimSpace(item.Prompt)
		if text == "" {
			continue
		}
		results = append(results, Suggestion{
			Title:    coalesce(item.Title, firstWords(text, 4)),
			Prompt:   text,
			Provider: geminiProviderName,
		})
		if len(results) == n {
			break
		}
	}
	if len(results) == 0 {
		return g.useFallback(ctx, locale, n, "empty_items", errors.New("all items blank"))
	}
	return results, nil
}

func (g *GeminiSuggester) endpoint() string {
	base := strings.TrimRight(g.baseURL, "/")
	model := url.PathEscape(g.model)
	return fmt.Sprintf("%s/models/%s:generateContent?key=%s", base, model, url.QueryEscape(g.apiKey))
}

func (g *GeminiSuggester) useFallback(ctx context.Context, locale string, n int, reason string, cause error) ([]Suggestion, error) {
	if g.onFallback != nil {
		g.onFallback(reason, cause)
	}
	fallback := g.fallback
	if fallback == nil {
		fallback = NewStaticSuggester()
	}
	return fallback.Suggest(ctx, locale, n)
}

func extractText(resp geminiResponse) string {
	for _, cand := range resp.Candidates {
		for _, part := range cand.Content.Parts {
			if strings.TrimSpace(part.Text) != "" {
				return part.Text
			}
		}
	}
	return ""
}

func buildSuggestionPrompt(locale string, n int) string {
	if locale == "" {
		locale = "en"
	}
	sb := &strings.Builder{}
	fmt.Fprintf(sb, "You are a creative director for an image generation studio. Respond strictly as JSON: ")
	sb.WriteString(`{"items":[{"title":string,"prompt":string}],"locale":string}`)
	fmt.Fprintf(sb, ". Produce %d distinct starter prompts a user could type into a text-to-image tool, each with a strong visual subject, a setting, and a lighting or mood cue. Use locale '%s' for the language. Keep titles under five words. randomness_token=%d.", n, locale, time.Now().UnixNano())
	return sb.String()
}

var _ Suggester = (*GeminiSuggester)(nil)

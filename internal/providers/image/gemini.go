package image

import (
	"context"
	"fmt"

	"imagestudio/internal/imaging"
	"imagestudio/internal/providers/genai"
)

// GeminiGenerator adapts the Gemini client to the Generator contract. The
// underlying client renders deterministic synthetic images when it has no
// credentials, so this generator never needs a standby.
type GeminiGenerator struct {
	client *genai.Client
}

// NewGeminiGenerator wraps an initialized Gemini client.
func NewGeminiGenerator(client *genai.Client) *GeminiGenerator {
	return &GeminiGenerator{client: client}
}

// Name identifies the provider in results and logs.
func (g *GeminiGenerator) Name() string {
	return "gemini"
}

// Generate fulfils the Generator interface.
func (g *GeminiGenerator) Generate(ctx context.Context, req Request) (*Result, error) {
	if g == nil || g.client == nil {
		return nil, fmt.Errorf("gemini generator not configured")
	}
	imageReq := genai.ImageRequest{
		Prompt:    req.Prompt,
		Locale:    req.Locale,
		RequestID: req.RequestID,
	}
	if req.Source != nil && !req.Source.IsZero() {
		imageReq.Source = &genai.SourceImage{
			MimeType: req.Source.MIME,
			Data:     req.Source.Data,
		}
	}
	asset, err := g.client.GenerateImage(ctx, imageReq)
	if err != nil {
		return nil, err
	}
	return &Result{
		Image:    imaging.Image{MIME: normalizeFormat(asset.Format), Data: asset.Data},
		Provider: g.Name(),
		Model:    g.client.Model(),
		Width:    asset.Width,
		Height:   asset.Height,
	}, nil
}

var _ Generator = (*GeminiGenerator)(nil)

package image

import (
	"context"
	"errors"
	"fmt"

	"imagestudio/internal/imaging"
	"imagestudio/internal/providers/qwen"
)

// qwenImageClient is the seam between the generator and the DashScope client,
// kept narrow so tests can stub the remote call.
type qwenImageClient interface {
	GenerateImage(context.Context, qwen.ImageRequest) (*qwen.ImageAsset, error)
	HasCredentials() bool
	Model() string
}

// QwenGenerator adapts the DashScope Qwen client to the Generator contract.
type QwenGenerator struct {
	client qwenImageClient
}

// NewQwenGenerator wraps an initialized Qwen client.
func NewQwenGenerator(client qwenImageClient) *QwenGenerator {
	return &QwenGenerator{client: client}
}

// Name identifies the provider in results and logs.
func (g *QwenGenerator) Name() string {
	return "qwen"
}

// Generate fulfils the Generator interface. Missing credentials map onto
// ErrNoCredentials so a standby generator can take over; every other failure
// surfaces unchanged.
func (g *QwenGenerator) Generate(ctx context.Context, req Request) (*Result, error) {
	if g == nil || g.client == nil {
		return nil, fmt.Errorf("qwen generator not configured")
	}
	if !g.client.HasCredentials() {
		return nil, ErrNoCredentials
	}
	imageReq := qwen.ImageRequest{
		Prompt:    req.Prompt,
		RequestID: req.RequestID,
	}
	if req.Source != nil && !req.Source.IsZero() {
		imageReq.Source = &qwen.SourceImage{
			MimeType: req.Source.MIME,
			Data:     req.Source.Data,
		}
	}
	asset, err := g.client.GenerateImage(ctx, imageReq)
	if err != nil {
		if errors.Is(err, qwen.ErrMissingAPIKey) {
			return nil, ErrNoCredentials
		}
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

var _ Generator = (*QwenGenerator)(nil)

package image

import (
	"context"
	"errors"
	"strings"

	"imagestudio/internal/imaging"
)

// ErrNoCredentials reports that a provider cannot reach its remote API because
// no credentials were configured. Callers may substitute another generator;
// every other provider error must surface unchanged.
var ErrNoCredentials = errors.New("image: provider credentials missing")

// Request describes a normalized generate-or-enhance request passed to any
// image provider. Source is nil for pure text-to-image generation.
type Request struct {
	Prompt    string
	Locale    string
	RequestID string
	Source    *imaging.Image
}

// Result is the single image produced by a provider.
type Result struct {
	Image    imaging.Image
	Provider string
	Model    string
	Width    int
	Height   int
}

// Generator is the contract implemented by all image providers.
type Generator interface {
	Name() string
	Generate(ctx context.Context, req Request) (*Result, error)
}

func normalizeFormat(mime string) string {
	mime = strings.ToLower(strings.TrimSpace(mime))
	switch mime {
	case "image/jpeg", "image/jpg":
		return "image/jpeg"
	case "image/png":
		return "image/png"
	default:
		if strings.HasPrefix(mime, "image/") {
			return mime
		}
		return "image/png"
	}
}

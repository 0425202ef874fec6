package image

import (
	"context"
	"errors"
)

// WithStandby returns a generator that delegates to primary and switches to
// standby only when the primary has no credentials. Remote failures from a
// configured primary are never masked.
func WithStandby(primary, standby Generator) Generator {
	if standby == nil {
		return primary
	}
	return &standbyGenerator{primary: primary, standby: standby}
}

type standbyGenerator struct {
	primary Generator
	standby Generator
}

func (g *standbyGenerator) Name() string {
	return g.primary.Name()
}

func (g *standbyGenerator) Generate(ctx context.Context, req Request) (*Result, error) {
	result, err := g.primary.Generate(ctx, req)
	if err == nil {
		return result, nil
	}
	if errors.Is(err, ErrNoCredentials) {
		return g.standby.Generate(ctx, req)
	}
	return nil, err
}

var _ Generator = (*standbyGenerator)(nil)

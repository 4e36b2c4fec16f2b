// Package mock provides test doubles for genchat interfaces using function fields.
package mock

import (
	"context"

	"github.com/fwojciec/genchat"
)

// Interface compliance check.
var _ genchat.Provider = (*Provider)(nil)

// Provider is a test double for genchat.Provider.
// Set StreamFn before calling Stream.
type Provider struct {
	StreamFn func(ctx context.Context, req genchat.Request) (genchat.Stream, error)
}

// Stream delegates to StreamFn.
func (p *Provider) Stream(ctx context.Context, req genchat.Request) (genchat.Stream, error) {
	return p.StreamFn(ctx, req)
}

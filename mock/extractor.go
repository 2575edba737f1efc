package mock

import (
	"context"

	"github.com/fwojciec/readable"
)

var _ readable.Extractor = (*Extractor)(nil)

// Extractor is a mock implementation of readable.Extractor.
type Extractor struct {
	ExtractFn func(ctx context.Context, uri string, rawHTML string) (*readable.Article, error)
}

func (e *Extractor) Extract(ctx context.Context, uri string, rawHTML string) (*readable.Article, error) {
	return e.ExtractFn(ctx, uri, rawHTML)
}

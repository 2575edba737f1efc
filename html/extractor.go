package html

import (
	"context"
	"strings"

	"github.com/fwojciec/readable"
)

// Ensure Extractor implements readable.Extractor.
var _ readable.Extractor = (*Extractor)(nil)

// Extractor adapts a Parser to readable.Extractor.
type Extractor struct {
	parser *Parser
}

// NewExtractor creates an Extractor backed by a Parser built from opts.
func NewExtractor(opts ...ParserOption) *Extractor {
	return &Extractor{parser: NewParser(opts...)}
}

// Extract implements readable.Extractor.
func (e *Extractor) Extract(ctx context.Context, uri string, rawHTML string) (*readable.Article, error) {
	return e.parser.ParseHTML(ctx, uri, strings.NewReader(rawHTML))
}

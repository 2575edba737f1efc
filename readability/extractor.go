// Package readability adapts github.com/go-shiori/go-readability to
// readable.Extractor so its output can be compared with the html engine.
package readability

import (
	"context"
	"net/url"
	"strings"

	"github.com/fwojciec/readable"
	"github.com/go-shiori/go-readability"
)

// Ensure Extractor implements readable.Extractor at compile time.
var _ readable.Extractor = (*Extractor)(nil)

// Extractor wraps go-readability to extract the main article from HTML.
type Extractor struct{}

// NewExtractor creates a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract implements readable.Extractor.
func (e *Extractor) Extract(ctx context.Context, uri string, rawHTML string) (*readable.Article, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if rawHTML == "" {
		return nil, readable.Errorf(readable.EINVALID, "empty HTML input")
	}

	pageURL, err := url.Parse(uri)
	if err != nil {
		return nil, readable.Errorf(readable.EINVALID, "invalid URL %q", uri)
	}

	article, err := readability.FromReader(strings.NewReader(rawHTML), pageURL)
	if err != nil {
		return nil, err
	}

	result := &readable.Article{
		URI: uri,
		Metadata: readable.Metadata{
			Title:    article.Title,
			Byline:   article.Byline,
			Excerpt:  article.Excerpt,
			SiteName: article.SiteName,
		},
		Length: -1,
	}
	if article.Node != nil && strings.TrimSpace(article.TextContent) != "" {
		result.Node = article.Node
		result.Content = article.Content
		result.TextContent = article.TextContent
		result.Length = article.Length
	}
	return result, nil
}

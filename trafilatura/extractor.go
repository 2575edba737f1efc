package trafilatura

import (
	"bytes"
	"context"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/fwojciec/readable"
	"github.com/markusmobius/go-trafilatura"
	"golang.org/x/net/html"
)

// Ensure Extractor implements readable.Extractor at compile time.
var _ readable.Extractor = (*Extractor)(nil)

// Extractor wraps go-trafilatura as an alternative extraction engine. It
// fills the same Article fields as the readability engine so the two can
// be swapped or compared.
type Extractor struct {
	// EnableFallback lets trafilatura fall back to its readability and
	// dom-distiller ports when its own heuristics find too little.
	EnableFallback bool
}

// NewExtractor creates a new Extractor with fallback enabled.
func NewExtractor() *Extractor {
	return &Extractor{EnableFallback: true}
}

// Extract processes raw HTML and returns the main content.
func (e *Extractor) Extract(ctx context.Context, uri string, rawHTML string) (*readable.Article, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(rawHTML) == "" {
		return nil, readable.Errorf(readable.EINVALID, "empty HTML input")
	}

	opts := trafilatura.Options{
		EnableFallback: e.EnableFallback,
	}
	if u, err := url.Parse(uri); err == nil && u.Host != "" {
		opts.OriginalURL = u
	}

	result, err := trafilatura.Extract(strings.NewReader(rawHTML), opts)
	if err != nil {
		return nil, err
	}

	article := &readable.Article{
		URI: uri,
		Metadata: readable.Metadata{
			Title:    result.Metadata.Title,
			Byline:   result.Metadata.Author,
			Excerpt:  result.Metadata.Description,
			SiteName: result.Metadata.Sitename,
			Lang:     result.Metadata.Language,
		},
		Length: -1,
	}
	if !result.Metadata.Date.IsZero() {
		article.PublishedTime = result.Metadata.Date.Format(time.RFC3339)
	}

	if result.ContentNode != nil {
		content, err := renderNode(result.ContentNode)
		if err != nil {
			return nil, err
		}
		article.Node = result.ContentNode
		article.Content = content
		article.TextContent = result.ContentText
		article.Length = utf8.RuneCountInString(result.ContentText)
	}
	return article, nil
}

// renderNode converts an html.Node to a string.
func renderNode(n *html.Node) (string, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return "", err
	}
	return buf.String(), nil
}

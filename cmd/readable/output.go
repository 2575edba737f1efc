package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/fwojciec/readable"
)

// Ensure Printer implements readable.ArticleWriter.
var _ readable.ArticleWriter = (*Printer)(nil)

// Printer writes articles to W in the selected format.
type Printer struct {
	W         io.Writer
	Format    string
	Converter readable.Converter

	mu    sync.Mutex
	count int
}

// WriteArticle prints article. JSON output is one object per line; the
// other formats separate articles with a blank line.
func (p *Printer) WriteArticle(ctx context.Context, article *readable.Article) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var out string
	switch p.Format {
	case FormatJSON:
		b, err := json.Marshal(article)
		if err != nil {
			return fmt.Errorf("encode %s: %w", article.URI, err)
		}
		out = string(b)
	case FormatHTML:
		out = article.Content
	case FormatText:
		out = strings.TrimSpace(article.TextContent)
	default:
		md, err := p.Converter.Convert(article.Content)
		if err != nil {
			return fmt.Errorf("convert %s: %w", article.URI, err)
		}
		if article.Title != "" {
			md = "# " + article.Title + "\n\n" + md
		}
		out = md
	}

	if p.count > 0 && p.Format != FormatJSON {
		if _, err := io.WriteString(p.W, "\n"); err != nil {
			return err
		}
	}
	p.count++

	_, err := fmt.Fprintln(p.W, out)
	return err
}

// Ensure SanitizingExtractor implements readable.Extractor.
var _ readable.Extractor = (*SanitizingExtractor)(nil)

// SanitizingExtractor passes the content of every extracted article
// through a Sanitizer.
type SanitizingExtractor struct {
	Extractor readable.Extractor
	Sanitizer readable.Sanitizer
}

// Extract implements readable.Extractor.
func (e *SanitizingExtractor) Extract(ctx context.Context, uri string, rawHTML string) (*readable.Article, error) {
	article, err := e.Extractor.Extract(ctx, uri, rawHTML)
	if err != nil {
		return nil, err
	}
	if article.HasContent() {
		article.Content = e.Sanitizer.Sanitize(article.Content)
	}
	return article, nil
}

// Ensure StaticFetcher implements readable.Fetcher.
var _ readable.Fetcher = (*StaticFetcher)(nil)

// StaticFetcher serves the same HTML for every URL.
type StaticFetcher struct {
	html string
}

// NewStaticFetcher reads HTML from path, or from stdin when path is "-".
func NewStaticFetcher(path string, stdin io.Reader) (*StaticFetcher, error) {
	var b []byte
	var err error
	if path == "-" {
		b, err = io.ReadAll(stdin)
	} else {
		b, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, readable.Errorf(readable.EINVALID, "read %s: %v", path, err)
	}
	return &StaticFetcher{html: string(b)}, nil
}

// Fetch implements readable.Fetcher.
func (f *StaticFetcher) Fetch(ctx context.Context, url string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return f.html, nil
}

// Close implements readable.Fetcher.
func (f *StaticFetcher) Close() error {
	return nil
}

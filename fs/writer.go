// Package fs stores extracted articles as Markdown files with YAML front
// matter.
package fs

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/fwojciec/readable"
	"gopkg.in/yaml.v3"
)

// URLToPath converts an article URL to a relative file path rooted at the
// URL host.
// Example: https://example.com/news/2024/story → example.com/news/2024/story.md
func URLToPath(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", readable.Errorf(readable.EINVALID, "invalid URL %q", rawURL)
	}
	if u.Host == "" {
		return "", readable.Errorf(readable.EINVALID, "URL %q has no host", rawURL)
	}

	path := strings.TrimPrefix(u.Path, "/")
	switch {
	case path == "":
		path = "index.md"
	case strings.HasSuffix(path, "/"):
		path += "index.md"
	default:
		path = strings.TrimSuffix(path, filepath.Ext(path)) + ".md"
	}

	return filepath.Join(u.Host, filepath.FromSlash(path)), nil
}

// FrontMatter is the YAML header written before the article body.
type FrontMatter struct {
	Source    string `yaml:"source"`
	Title     string `yaml:"title,omitempty"`
	Byline    string `yaml:"byline,omitempty"`
	SiteName  string `yaml:"site_name,omitempty"`
	Excerpt   string `yaml:"excerpt,omitempty"`
	Lang      string `yaml:"lang,omitempty"`
	Dir       string `yaml:"dir,omitempty"`
	Published string `yaml:"published,omitempty"`
	Length    int    `yaml:"length"`
	Extracted string `yaml:"extracted"`
}

// NewFrontMatter builds the front matter for article.
func NewFrontMatter(article *readable.Article, extracted time.Time) FrontMatter {
	return FrontMatter{
		Source:    article.URI,
		Title:     article.Title,
		Byline:    article.Byline,
		SiteName:  article.SiteName,
		Excerpt:   article.Excerpt,
		Lang:      article.Lang,
		Dir:       article.Dir,
		Published: NormalizeDate(article.PublishedTime),
		Length:    article.Length,
		Extracted: extracted.UTC().Format("2006-01-02"),
	}
}

// NormalizeDate reformats a loosely formatted date as RFC 3339. Values
// that cannot be parsed are returned trimmed but otherwise unchanged.
func NormalizeDate(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	t, err := dateparse.ParseAny(s)
	if err != nil {
		return s
	}
	return t.Format(time.RFC3339)
}

// FormatArticle renders the front matter followed by body.
func FormatArticle(fm FrontMatter, body string) (string, error) {
	var b bytes.Buffer
	b.WriteString("---\n")
	enc := yaml.NewEncoder(&b)
	enc.SetIndent(2)
	if err := enc.Encode(fm); err != nil {
		return "", fmt.Errorf("encode front matter: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("encode front matter: %w", err)
	}
	b.WriteString("---\n\n")
	b.WriteString(body)
	if !strings.HasSuffix(body, "\n") {
		b.WriteString("\n")
	}
	return b.String(), nil
}

// Ensure Writer implements readable.ArticleWriter at compile time.
var _ readable.ArticleWriter = (*Writer)(nil)

// Writer writes articles as Markdown files under a base directory.
type Writer struct {
	baseDir string

	// Converter turns article HTML into Markdown. When nil the HTML
	// content is written as is.
	Converter readable.Converter

	// Now returns the extraction time recorded in the front matter.
	Now func() time.Time
}

// NewWriter creates a new Writer that writes to the given base directory.
func NewWriter(baseDir string, converter readable.Converter) *Writer {
	return &Writer{baseDir: baseDir, Converter: converter, Now: time.Now}
}

// WriteArticle writes article to disk. Articles without content are
// rejected with ENOTFOUND.
func (w *Writer) WriteArticle(ctx context.Context, article *readable.Article) error {
	if err := article.Validate(); err != nil {
		return err
	}
	if !article.HasContent() {
		return readable.Errorf(readable.ENOTFOUND, "no article content for %s", article.URI)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	relPath, err := URLToPath(article.URI)
	if err != nil {
		return err
	}

	body := article.Content
	if w.Converter != nil {
		if body, err = w.Converter.Convert(article.Content); err != nil {
			return fmt.Errorf("convert %s: %w", article.URI, err)
		}
	}

	now := time.Now
	if w.Now != nil {
		now = w.Now
	}
	content, err := FormatArticle(NewFrontMatter(article, now()), body)
	if err != nil {
		return err
	}

	fullPath := filepath.Join(w.baseDir, relPath)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return err
	}
	return os.WriteFile(fullPath, []byte(content), 0644)
}

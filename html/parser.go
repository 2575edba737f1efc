// Package html extracts readable article content from golang.org/x/net/html
// trees using the Mozilla Readability scoring approach.
package html

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/fwojciec/readable"
	"github.com/go-shiori/dom"
	"golang.org/x/net/html"
)

// GrabberFactory creates the article grabber for one Parse call.
type GrabberFactory func(opts readable.Options, logger *slog.Logger, filters []readable.CandidateFilter) readable.ArticleGrabber

// ParserOption configures a Parser.
type ParserOption func(*Parser)

// WithOptions sets the extraction options. Zero NbTopCandidates and
// CharThreshold fall back to their defaults.
func WithOptions(opts readable.Options) ParserOption {
	return func(p *Parser) {
		p.opts = opts
	}
}

// WithLogger sets the logger used by the parser and its default processors.
func WithLogger(logger *slog.Logger) ParserOption {
	return func(p *Parser) {
		p.logger = logger
	}
}

// WithPreprocessor replaces the default Preprocessor.
func WithPreprocessor(pre readable.Preprocessor) ParserOption {
	return func(p *Parser) {
		p.preprocessor = pre
	}
}

// WithMetadataParser replaces the default MetadataParser.
func WithMetadataParser(mp readable.MetadataParser) ParserOption {
	return func(p *Parser) {
		p.metadata = mp
	}
}

// WithGrabberFactory replaces the default ArticleGrabber constructor.
func WithGrabberFactory(f GrabberFactory) ParserOption {
	return func(p *Parser) {
		p.newGrabber = f
	}
}

// WithPostprocessor replaces the default Postprocessor.
func WithPostprocessor(post readable.Postprocessor) ParserOption {
	return func(p *Parser) {
		p.postprocessor = post
	}
}

// WithCandidateFilters replaces the default blockquote filter.
func WithCandidateFilters(filters ...readable.CandidateFilter) ParserOption {
	return func(p *Parser) {
		p.filters = filters
	}
}

// WithNoscriptHandler sets the handler the default Preprocessor uses for
// <noscript> elements.
func WithNoscriptHandler(h readable.NoscriptHandler) ParserOption {
	return func(p *Parser) {
		p.noscript = h
	}
}

// Parser runs the extraction pipeline: metadata, preprocessing, grabbing
// and postprocessing. A Parser holds no per-document state and is safe for
// concurrent use on distinct documents.
type Parser struct {
	opts          readable.Options
	logger        *slog.Logger
	preprocessor  readable.Preprocessor
	metadata      readable.MetadataParser
	newGrabber    GrabberFactory
	postprocessor readable.Postprocessor
	filters       []readable.CandidateFilter
	noscript      readable.NoscriptHandler
}

// NewParser creates a Parser with default processors.
func NewParser(opts ...ParserOption) *Parser {
	p := &Parser{opts: readable.DefaultOptions()}
	for _, opt := range opts {
		opt(p)
	}
	if p.opts.NbTopCandidates <= 0 {
		p.opts.NbTopCandidates = readable.DefaultNbTopCandidates
	}
	if p.opts.CharThreshold <= 0 {
		p.opts.CharThreshold = readable.DefaultCharThreshold
	}
	if p.logger == nil {
		p.logger = discardLogger()
	}
	if p.preprocessor == nil {
		p.preprocessor = NewPreprocessor(p.logger, p.noscript)
	}
	if p.metadata == nil {
		p.metadata = NewMetadataParser(p.logger)
	}
	if p.newGrabber == nil {
		p.newGrabber = func(opts readable.Options, logger *slog.Logger, filters []readable.CandidateFilter) readable.ArticleGrabber {
			return NewArticleGrabber(opts, logger, filters...)
		}
	}
	if p.postprocessor == nil {
		p.postprocessor = NewPostprocessor(p.logger)
	}
	return p
}

// Options returns the effective extraction options.
func (p *Parser) Options() readable.Options {
	return p.opts
}

// ParseHTML decodes and parses r, then extracts the article. The charset
// detected while decoding is reported when the document declares none.
func (p *Parser) ParseHTML(ctx context.Context, uri string, r io.Reader) (*readable.Article, error) {
	doc, charset, err := ParseDocument(r)
	if err != nil {
		return nil, err
	}
	return p.parse(ctx, uri, doc, charset)
}

// Parse extracts the article from doc, mutating it in place. It fails only
// when the document exceeds Options.MaxElemsToParse, with a
// *readable.ElementLimitError returned before any mutation, or when ctx is
// done. A document without an article yields an Article with a nil Node.
func (p *Parser) Parse(ctx context.Context, uri string, doc *html.Node) (*readable.Article, error) {
	return p.parse(ctx, uri, doc, "")
}

func (p *Parser) parse(ctx context.Context, uri string, doc *html.Node, detectedCharset string) (*readable.Article, error) {
	begin := time.Now()
	if doc == nil {
		return nil, readable.Errorf(readable.EINVALID, "nil document")
	}
	uri = readable.TransformURL(uri, p.opts.URLTransformers)

	if limit := p.opts.MaxElemsToParse; limit > 0 {
		if count := countElements(doc); count > limit {
			return nil, &readable.ElementLimitError{Count: count, Limit: limit}
		}
	}

	metadata := p.metadata.ParseMetadata(doc, p.opts.DisableJSONLD)
	if metadata == nil {
		metadata = &readable.Metadata{}
	}
	if metadata.Charset == "" {
		metadata.Charset = detectedCharset
	}

	p.preprocessor.Prepare(doc)

	grabber := p.newGrabber(p.opts, p.logger, p.filters)
	content, err := grabber.Grab(ctx, doc, metadata, p.grabOptions(), nil)
	if err != nil {
		return nil, err
	}
	if content != nil {
		p.postprocessor.Postprocess(doc, content, uri, p.opts.ClassesToPreserve, p.opts.KeepClasses)
	}

	article := &readable.Article{URI: uri, Metadata: *metadata, Node: content, Length: -1}
	article.Dir = grabber.Dir()
	article.Lang = grabber.Lang()
	if strings.TrimSpace(article.Byline) == "" {
		article.Byline = grabber.Byline()
	}
	if content != nil {
		if strings.TrimSpace(article.Excerpt) == "" {
			if para := firstTag(content, "p"); para != nil {
				article.Excerpt = InnerText(para)
			}
		}
		if p.opts.Serializer != nil {
			article.Content = p.opts.Serializer(content)
		} else {
			article.Content = dom.InnerHTML(content)
		}
		article.TextContent = InnerText(content)
		article.Length = textLen(article.TextContent)
	}

	p.logger.Debug("parsed document",
		"uri", uri,
		"title", article.Title,
		"length", article.Length,
		"duration", time.Since(begin))
	return article, nil
}

func (p *Parser) grabOptions() readable.GrabOptions {
	opts := readable.DefaultGrabOptions()
	opts.PreserveImages = !p.opts.DiscardImages
	opts.PreserveVideos = !p.opts.DiscardVideos
	return opts
}

// Result carries the outcome of ParseAsync.
type Result struct {
	Article *readable.Article
	Err     error
}

// ParseAsync runs Parse on a new goroutine. The returned channel receives
// exactly one Result and is then closed. The caller must not touch doc
// until the result arrives.
func (p *Parser) ParseAsync(ctx context.Context, uri string, doc *html.Node) <-chan Result {
	ch := make(chan Result, 1)
	go func() {
		defer close(ch)
		article, err := p.Parse(ctx, uri, doc)
		ch <- Result{Article: article, Err: err}
	}()
	return ch
}

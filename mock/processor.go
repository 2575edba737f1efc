package mock

import (
	"context"

	"github.com/fwojciec/readable"
	"golang.org/x/net/html"
)

var _ readable.Preprocessor = (*Preprocessor)(nil)

// Preprocessor is a mock implementation of readable.Preprocessor.
type Preprocessor struct {
	PrepareFn func(doc *html.Node)
}

func (p *Preprocessor) Prepare(doc *html.Node) {
	p.PrepareFn(doc)
}

var _ readable.MetadataParser = (*MetadataParser)(nil)

// MetadataParser is a mock implementation of readable.MetadataParser.
type MetadataParser struct {
	ParseMetadataFn func(doc *html.Node, disableJSONLD bool) *readable.Metadata
}

func (p *MetadataParser) ParseMetadata(doc *html.Node, disableJSONLD bool) *readable.Metadata {
	return p.ParseMetadataFn(doc, disableJSONLD)
}

var _ readable.ArticleGrabber = (*ArticleGrabber)(nil)

// ArticleGrabber is a mock implementation of readable.ArticleGrabber.
type ArticleGrabber struct {
	GrabFn   func(ctx context.Context, doc *html.Node, metadata *readable.Metadata, opts readable.GrabOptions, page *html.Node) (*html.Node, error)
	BylineFn func() string
	DirFn    func() string
	LangFn   func() string
}

func (g *ArticleGrabber) Grab(ctx context.Context, doc *html.Node, metadata *readable.Metadata, opts readable.GrabOptions, page *html.Node) (*html.Node, error) {
	return g.GrabFn(ctx, doc, metadata, opts, page)
}

func (g *ArticleGrabber) Byline() string { return g.BylineFn() }

func (g *ArticleGrabber) Dir() string { return g.DirFn() }

func (g *ArticleGrabber) Lang() string { return g.LangFn() }

var _ readable.Postprocessor = (*Postprocessor)(nil)

// Postprocessor is a mock implementation of readable.Postprocessor.
type Postprocessor struct {
	PostprocessFn func(doc, content *html.Node, uri string, classesToPreserve []string, keepClasses bool)
}

func (p *Postprocessor) Postprocess(doc, content *html.Node, uri string, classesToPreserve []string, keepClasses bool) {
	p.PostprocessFn(doc, content, uri, classesToPreserve, keepClasses)
}

var _ readable.URLTransformer = (*URLTransformer)(nil)

// URLTransformer is a mock implementation of readable.URLTransformer.
type URLTransformer struct {
	TransformFn func(url string) string
	PriorityFn  func() int
}

func (t *URLTransformer) Transform(url string) string { return t.TransformFn(url) }

func (t *URLTransformer) Priority() int { return t.PriorityFn() }

var _ readable.ReaderableDetector = (*ReaderableDetector)(nil)

// ReaderableDetector is a mock implementation of readable.ReaderableDetector.
type ReaderableDetector struct {
	IsProbablyReaderableFn func(doc *html.Node) bool
}

func (d *ReaderableDetector) IsProbablyReaderable(doc *html.Node) bool {
	return d.IsProbablyReaderableFn(doc)
}

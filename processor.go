package readable

import (
	"context"

	"golang.org/x/net/html"
)

// Preprocessor normalizes a raw document in place before scoring.
type Preprocessor interface {
	// Prepare strips scripts, styles and forms, collapses <br> runs and
	// repairs lazily loaded images. It never fails.
	Prepare(doc *html.Node)
}

// MetadataParser reads article metadata from the original document.
type MetadataParser interface {
	// ParseMetadata must be called before the document is preprocessed.
	ParseMetadata(doc *html.Node, disableJSONLD bool) *Metadata
}

// ArticleGrabber finds and assembles the main content of a prepared document.
type ArticleGrabber interface {
	// Grab runs the extraction attempts and returns the content node, or nil
	// when no attempt produced any text. page defaults to <body>. The only
	// error returned is the context error, checked between attempts.
	Grab(ctx context.Context, doc *html.Node, metadata *Metadata, opts GrabOptions, page *html.Node) (*html.Node, error)

	// Byline returns the byline found in the content during the last Grab.
	Byline() string

	// Dir returns the text direction of the winning candidate.
	Dir() string

	// Lang returns the lang attribute of the <html> element.
	Lang() string
}

// Postprocessor cleans the extracted content for output.
type Postprocessor interface {
	Postprocess(doc, content *html.Node, uri string, classesToPreserve []string, keepClasses bool)
}

// NoscriptHandler decides whether a <noscript> element is unwrapped (kept)
// or removed during preprocessing.
type NoscriptHandler interface {
	KeepNoscript(doc, noscript *html.Node) bool
}

// NoscriptHandlerFunc adapts a function to NoscriptHandler.
type NoscriptHandlerFunc func(doc, noscript *html.Node) bool

// KeepNoscript calls f(doc, noscript).
func (f NoscriptHandlerFunc) KeepNoscript(doc, noscript *html.Node) bool {
	return f(doc, noscript)
}

// CandidateFilter excludes nodes from top-candidate ranking.
type CandidateFilter interface {
	IncludeCandidate(candidate *html.Node) bool
}

// CandidateFilterFunc adapts a function to CandidateFilter.
type CandidateFilterFunc func(candidate *html.Node) bool

// IncludeCandidate calls f(candidate).
func (f CandidateFilterFunc) IncludeCandidate(candidate *html.Node) bool {
	return f(candidate)
}

// ReaderableDetector performs a cheap check of whether a document is likely
// to contain an article before running the full extraction.
type ReaderableDetector interface {
	IsProbablyReaderable(doc *html.Node) bool
}

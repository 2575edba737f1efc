package goquery

import (
	"context"
	"math"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/readable"
	"golang.org/x/net/html"
)

var (
	rxUnlikely    = regexp.MustCompile(`(?i)-ad-|banner|combx|comment|community|cover-wrap|disqus|extra|footer|gdpr|header|legends|menu|related|remark|replies|rss|shoutbox|sidebar|skyscraper|social|sponsor|supplemental|ad-break|agegate|pagination|pager|popup|yom-remote`)
	rxMaybe       = regexp.MustCompile(`(?i)article|body|content|entry|hentry|h-entry|main|page|pagination|post|text|blog|story`)
	rxSpaceRuns   = regexp.MustCompile(`\s{2,}`)
	rxDisplayNone = regexp.MustCompile(`(?i)display\s*:\s*none`)
	rxHiddenStyle = regexp.MustCompile(`(?i)visibility\s*:\s*hidden`)
)

// Default ReaderableOptions values.
const (
	DefaultMinScore         = 20
	DefaultMinContentLength = 140
)

// ReaderableOptions tunes IsProbablyReaderable.
type ReaderableOptions struct {
	// MinScore is the cumulative score above which a document is readerable.
	MinScore float64

	// MinContentLength is the shortest node text that adds to the score.
	MinContentLength int

	// VisibilityChecker reports whether a node counts at all. Defaults to
	// IsNodeVisible.
	VisibilityChecker func(*goquery.Selection) bool
}

// DefaultReaderableOptions returns the options used by NewDetector.
func DefaultReaderableOptions() ReaderableOptions {
	return ReaderableOptions{
		MinScore:          DefaultMinScore,
		MinContentLength:  DefaultMinContentLength,
		VisibilityChecker: IsNodeVisible,
	}
}

// Ensure Detector implements readable.ReaderableDetector.
var _ readable.ReaderableDetector = (*Detector)(nil)

// Detector is a cheap pre-check that tells whether a document likely holds
// an article, without mutating it.
type Detector struct {
	opts ReaderableOptions
}

// NewDetector creates a Detector. Zero option fields take their defaults.
func NewDetector(opts ReaderableOptions) *Detector {
	def := DefaultReaderableOptions()
	if opts.MinScore <= 0 {
		opts.MinScore = def.MinScore
	}
	if opts.MinContentLength <= 0 {
		opts.MinContentLength = def.MinContentLength
	}
	if opts.VisibilityChecker == nil {
		opts.VisibilityChecker = def.VisibilityChecker
	}
	return &Detector{opts: opts}
}

// IsProbablyReaderable implements readable.ReaderableDetector.
func (d *Detector) IsProbablyReaderable(doc *html.Node) bool {
	return IsProbablyReaderable(doc, d.opts)
}

// IsProbablyReaderable scores every visible, likely <p>, <pre>, <article>
// and <div> holding a <br> by the square root of its text length beyond
// opts.MinContentLength, and reports whether the running score passes
// opts.MinScore. Paragraphs inside list items are ignored.
func IsProbablyReaderable(doc *html.Node, opts ReaderableOptions) bool {
	if doc == nil {
		return false
	}
	visible := opts.VisibilityChecker
	if visible == nil {
		visible = IsNodeVisible
	}

	root := goquery.NewDocumentFromNode(doc)
	nodes := root.Find("p, pre, article")
	nodes = nodes.AddSelection(root.Find("div > br").Parent())

	score := 0.0
	found := false
	nodes.EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if !visible(s) {
			return true
		}
		class, _ := s.Attr("class")
		id, _ := s.Attr("id")
		match := class + " " + id
		if rxUnlikely.MatchString(match) && !rxMaybe.MatchString(match) {
			return true
		}
		if goquery.NodeName(s) == "p" && goquery.NodeName(s.Parent()) == "li" {
			return true
		}

		text := rxSpaceRuns.ReplaceAllString(strings.TrimSpace(s.Text()), " ")
		length := utf8.RuneCountInString(text)
		if length < opts.MinContentLength {
			return true
		}
		score += math.Sqrt(float64(length - opts.MinContentLength))
		if score > opts.MinScore {
			found = true
			return false
		}
		return true
	})
	return found
}

// IsNodeVisible reports whether the first node of s is rendered: it is not
// styled display:none or visibility:hidden, has no hidden attribute, and is
// not aria-hidden unless it is a fallback image.
func IsNodeVisible(s *goquery.Selection) bool {
	style, _ := s.Attr("style")
	if rxDisplayNone.MatchString(style) || rxHiddenStyle.MatchString(style) {
		return false
	}
	if _, ok := s.Attr("hidden"); ok {
		return false
	}
	if aria, _ := s.Attr("aria-hidden"); aria == "true" {
		return s.HasClass("fallback-image")
	}
	return true
}

// Ensure ReaderableExtractor implements readable.Extractor.
var _ readable.Extractor = (*ReaderableExtractor)(nil)

// ReaderableExtractor runs the wrapped Extractor only for documents that
// pass the Detector, failing the rest with readable.ENOTFOUND.
type ReaderableExtractor struct {
	Extractor readable.Extractor
	Detector  readable.ReaderableDetector
}

// NewReaderableExtractor wraps ext with a default Detector.
func NewReaderableExtractor(ext readable.Extractor) *ReaderableExtractor {
	return &ReaderableExtractor{
		Extractor: ext,
		Detector:  NewDetector(ReaderableOptions{}),
	}
}

// Extract implements readable.Extractor.
func (e *ReaderableExtractor) Extract(ctx context.Context, uri string, rawHTML string) (*readable.Article, error) {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return nil, readable.Errorf(readable.EINVALID, "failed to parse HTML: %v", err)
	}
	if !e.Detector.IsProbablyReaderable(doc) {
		return nil, readable.Errorf(readable.ENOTFOUND, "no readable content at %s", uri)
	}
	return e.Extractor.Extract(ctx, uri, rawHTML)
}

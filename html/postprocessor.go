package html

import (
	"log/slog"
	"net/url"
	"regexp"
	"strings"

	"github.com/fwojciec/readable"
	"github.com/go-shiori/dom"
	"golang.org/x/net/html"
)

var rxAbsoluteURI = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+\-.]*:`)

// preservedClasses survive class stripping regardless of caller options.
var preservedClasses = []string{"readability-styled", "page"}

// Ensure Postprocessor implements readable.Postprocessor.
var _ readable.Postprocessor = (*Postprocessor)(nil)

// Postprocessor makes extracted content usable outside its page: relative
// links and images become absolute, script links become text, breadcrumb
// navigation is dropped and classes are stripped.
type Postprocessor struct {
	logger *slog.Logger
}

// NewPostprocessor creates a Postprocessor. A nil logger discards output.
func NewPostprocessor(logger *slog.Logger) *Postprocessor {
	if logger == nil {
		logger = discardLogger()
	}
	return &Postprocessor{logger: logger}
}

// Postprocess implements readable.Postprocessor.
func (p *Postprocessor) Postprocess(doc, content *html.Node, uri string, classesToPreserve []string, keepClasses bool) {
	if base, ok := parseBaseURI(uri); ok {
		p.fixRelativeURIs(content, base)
	} else {
		p.logger.Debug("skipped URI resolution", "uri", uri)
	}

	removeTags(content, "nav", func(nav *html.Node) bool {
		match := strings.ToLower(matchString(nav))
		return strings.Contains(match, "breadcrumb") || strings.Contains(match, "ui-bc")
	})

	if !keepClasses {
		keep := make(map[string]bool, len(preservedClasses)+len(classesToPreserve))
		for _, class := range preservedClasses {
			keep[class] = true
		}
		for _, class := range classesToPreserve {
			keep[class] = true
		}
		cleanClasses(content, keep)
	}
}

// baseURI holds the parts of the article URI that relative references
// resolve against.
type baseURI struct {
	scheme   string
	prePath  string // scheme://host
	pathBase string // prePath plus the path up to and including its last "/"
}

// parseBaseURI parses uri and keeps the parts relative references resolve
// against. Query and fragment never contribute to the path base.
func parseBaseURI(uri string) (baseURI, bool) {
	u, err := url.Parse(strings.TrimSpace(uri))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return baseURI{}, false
	}
	prePath := u.Scheme + "://" + u.Host
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	return baseURI{
		scheme:   u.Scheme,
		prePath:  prePath,
		pathBase: prePath + path[:strings.LastIndex(path, "/")+1],
	}, true
}

// resolve makes uri absolute. Fragment-only references are left as they
// are. Dot segments are not collapsed.
func (b baseURI) resolve(uri string) string {
	switch {
	case rxAbsoluteURI.MatchString(uri), textLen(uri) <= 2:
		return uri
	case strings.HasPrefix(uri, "//"):
		return b.scheme + "://" + uri[2:]
	case strings.HasPrefix(uri, "/"):
		return b.prePath + uri
	case strings.HasPrefix(uri, "./"):
		return b.pathBase + uri[2:]
	case strings.HasPrefix(uri, "#"):
		return uri
	}
	return b.pathBase + uri
}

func (p *Postprocessor) fixRelativeURIs(content *html.Node, base baseURI) {
	for _, link := range dom.GetElementsByTagName(content, "a") {
		href := dom.GetAttribute(link, "href")
		if strings.TrimSpace(href) == "" {
			continue
		}
		if strings.HasPrefix(href, "javascript:") {
			replaceNode(link, dom.CreateTextNode(dom.TextContent(link)))
			continue
		}
		dom.SetAttribute(link, "href", base.resolve(href))
	}
	for _, img := range dom.GetElementsByTagName(content, "img") {
		if src := dom.GetAttribute(img, "src"); strings.TrimSpace(src) != "" {
			dom.SetAttribute(img, "src", base.resolve(src))
		}
	}
}

// cleanClasses drops every class not in keep from n and its descendants,
// removing the attribute when nothing is left.
func cleanClasses(n *html.Node, keep map[string]bool) {
	var kept []string
	for _, class := range classList(n) {
		if keep[class] {
			kept = append(kept, class)
		}
	}
	if len(kept) > 0 {
		dom.SetAttribute(n, "class", strings.Join(kept, " "))
	} else {
		dom.RemoveAttribute(n, "class")
	}
	for _, child := range dom.Children(n) {
		cleanClasses(child, keep)
	}
}

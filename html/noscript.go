package html

import (
	"strings"

	"github.com/fwojciec/readable"
	"github.com/go-shiori/dom"
	"golang.org/x/net/html"
)

// MinNoscriptTextLength is the text length at which a <noscript> is kept
// for its text alone.
const MinNoscriptTextLength = 100

// Ensure ContentAwareNoscriptHandler implements readable.NoscriptHandler.
var _ readable.NoscriptHandler = (*ContentAwareNoscriptHandler)(nil)

// ContentAwareNoscriptHandler keeps <noscript> elements that carry real
// content: either substantial text or images that appear nowhere else in
// the document. Sites that render articles client-side often ship the
// full text as a noscript fallback.
type ContentAwareNoscriptHandler struct{}

// KeepNoscript implements readable.NoscriptHandler.
func (h *ContentAwareNoscriptHandler) KeepNoscript(doc, noscript *html.Node) bool {
	content := noscriptContent(noscript)
	if textLen(strings.TrimSpace(InnerText(content))) >= MinNoscriptTextLength {
		return true
	}

	images := dom.GetElementsByTagName(content, "img")
	if len(images) == 0 {
		return false
	}
	for _, img := range images {
		src := strings.TrimSpace(dom.GetAttribute(img, "src"))
		if src == "" || !imageElsewhere(doc, noscript, src) {
			return true
		}
	}
	return false
}

// imageElsewhere reports whether an <img> outside of noscript has src.
func imageElsewhere(doc, noscript *html.Node, src string) bool {
	for _, img := range dom.GetElementsByTagName(doc, "img") {
		if dom.GetAttribute(img, "src") != src {
			continue
		}
		if isDescendant(img, noscript) {
			continue
		}
		return true
	}
	return false
}

func isDescendant(n, ancestor *html.Node) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		if p == ancestor {
			return true
		}
	}
	return false
}

// noscriptContent returns a detached <div> holding a copy of what the
// noscript renders. Documents parsed with scripting enabled keep noscript
// content as raw text, which is parsed here as a fragment.
func noscriptContent(noscript *html.Node) *html.Node {
	div := newElement("div")
	if c := noscript.FirstChild; c != nil && c == noscript.LastChild && c.Type == html.TextNode {
		nodes, err := html.ParseFragment(strings.NewReader(c.Data), div)
		if err == nil {
			for _, n := range nodes {
				div.AppendChild(n)
			}
			return div
		}
	}
	for c := noscript.FirstChild; c != nil; c = c.NextSibling {
		div.AppendChild(dom.Clone(c, true))
	}
	return div
}

// isSingleImage reports whether n is an <img>, or wraps exactly one
// element that is a single image with no text around it.
func isSingleImage(n *html.Node) bool {
	if n.Data == "img" {
		return true
	}
	children := dom.Children(n)
	if len(children) != 1 || strings.TrimSpace(dom.TextContent(n)) != "" {
		return false
	}
	return isSingleImage(children[0])
}

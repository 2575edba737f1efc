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

var (
	rxImageSrc    = regexp.MustCompile(`(?i)^\s*\S+\.(jpg|jpeg|png|webp)\S*\s*$`)
	rxImageSrcset = regexp.MustCompile(`(?i)\.(jpg|jpeg|png|webp)\s+\d`)
	rxImageExt    = regexp.MustCompile(`(?i)\.(jpg|jpeg|png|webp)`)
	rxNextImage   = regexp.MustCompile(`/_next/image\?url=([^&]+)`)
)

// Ensure Preprocessor implements readable.Preprocessor.
var _ readable.Preprocessor = (*Preprocessor)(nil)

// Preprocessor strips markup that never belongs to an article and repairs
// image markup before scoring.
type Preprocessor struct {
	logger   *slog.Logger
	noscript readable.NoscriptHandler
}

// NewPreprocessor creates a Preprocessor. A nil logger discards output and
// a nil handler defaults to ContentAwareNoscriptHandler.
func NewPreprocessor(logger *slog.Logger, noscript readable.NoscriptHandler) *Preprocessor {
	if logger == nil {
		logger = discardLogger()
	}
	if noscript == nil {
		noscript = &ContentAwareNoscriptHandler{}
	}
	return &Preprocessor{logger: logger, noscript: noscript}
}

// Prepare implements readable.Preprocessor.
func (p *Preprocessor) Prepare(doc *html.Node) {
	p.unwrapNoscriptImages(doc)
	p.removeScripts(doc)
	p.removeNoscripts(doc)
	p.remove(doc, "style")
	p.remove(doc, "form")
	removeComments(doc)
	p.replaceBrs(doc)
	for _, font := range dom.GetElementsByTagName(doc, "font") {
		setTag(font, "span")
	}
	fixLazyImages(doc)
	p.fixNextJSImages(doc)
}

func (p *Preprocessor) remove(doc *html.Node, tag string) {
	if n := removeTags(doc, tag, nil); n > 0 {
		p.logger.Debug("removed elements", "tag", tag, "count", n)
	}
}

func (p *Preprocessor) removeScripts(doc *html.Node) {
	n := removeTags(doc, "script", func(script *html.Node) bool {
		dom.RemoveAttribute(script, "src")
		return true
	})
	if n > 0 {
		p.logger.Debug("removed elements", "tag", "script", "count", n)
	}
}

func (p *Preprocessor) removeNoscripts(doc *html.Node) {
	for _, noscript := range dom.GetElementsByTagName(doc, "noscript") {
		if noscript.Parent == nil {
			continue
		}
		if !p.noscript.KeepNoscript(doc, noscript) {
			p.logger.Debug("removed noscript")
			removeNode(noscript)
			continue
		}
		content := noscriptContent(noscript)
		for c := noscript.FirstChild; c != nil; {
			next := c.NextSibling
			noscript.RemoveChild(c)
			c = next
		}
		moveChildren(content, noscript)
		unwrap(noscript)
	}
}

// unwrapNoscriptImages drops images without any source and replaces a lazy
// placeholder image with the real one from the <noscript> that follows it.
func (p *Preprocessor) unwrapNoscriptImages(doc *html.Node) {
	removeTags(doc, "img", func(img *html.Node) bool {
		for _, attr := range []string{"src", "srcset", "data-src", "data-srcset"} {
			if dom.GetAttribute(img, attr) != "" {
				return false
			}
		}
		return true
	})

	for _, noscript := range dom.GetElementsByTagName(doc, "noscript") {
		content := noscriptContent(noscript)
		if !isSingleImage(content) {
			continue
		}
		prev := dom.PreviousElementSibling(noscript)
		if prev == nil || !isSingleImage(prev) {
			continue
		}
		prevImg := prev
		if prev.Data != "img" {
			prevImg = firstTag(prev, "img")
		}
		newImg := firstTag(content, "img")
		if prevImg == nil || newImg == nil {
			continue
		}
		for _, attr := range prevImg.Attr {
			if attr.Val == "" {
				continue
			}
			if attr.Key != "src" && attr.Key != "srcset" && !rxImageExt.MatchString(attr.Val) {
				continue
			}
			if dom.GetAttribute(newImg, attr.Key) == attr.Val {
				continue
			}
			key := attr.Key
			if dom.HasAttribute(newImg, key) {
				key = "data-old-" + key
			}
			dom.SetAttribute(newImg, key, attr.Val)
		}
		replaceNode(prev, dom.Clone(newImg, true))
		p.logger.Debug("replaced placeholder image", "src", dom.GetAttribute(newImg, "src"))
	}
}

// replaceBrs turns runs of two or more <br> into paragraph breaks:
//
//	<div>foo<br>bar<br> <br><br>abc</div>
//
// becomes
//
//	<div>foo<br>bar<p>abc</p></div>
func (p *Preprocessor) replaceBrs(doc *html.Node) {
	root := findBody(doc)
	if root == nil {
		root = doc
	}
	for _, br := range dom.GetElementsByTagName(root, "br") {
		replaced := false
		next := nextElement(br.NextSibling)
		for next != nil && next.Data == "br" {
			replaced = true
			sibling := next.NextSibling
			removeNode(next)
			next = nextElement(sibling)
		}
		if !replaced || br.Parent == nil {
			continue
		}

		para := newElement("p")
		replaceNode(br, para)
		for n := para.NextSibling; n != nil; {
			if n.Type == html.ElementNode && n.Data == "br" {
				if e := nextElement(n.NextSibling); e != nil && e.Data == "br" {
					break
				}
			}
			sibling := n.NextSibling
			para.Parent.RemoveChild(n)
			para.AppendChild(n)
			n = sibling
		}
	}
}

// fixLazyImages copies image URLs that lazy-loading scripts keep in custom
// attributes into src or srcset.
func fixLazyImages(doc *html.Node) {
	var elems []*html.Node
	for _, n := range dom.GetElementsByTagName(doc, "*") {
		switch n.Data {
		case "img", "picture", "figure":
			elems = append(elems, n)
		}
	}

	for _, elem := range elems {
		switch elem.Data {
		case "img", "picture":
			src := dom.GetAttribute(elem, "src")
			srcset := dom.GetAttribute(elem, "srcset")
			if !lazySource(src) || !lazySource(srcset) {
				continue
			}
			for _, attr := range append([]html.Attribute(nil), elem.Attr...) {
				if attr.Key == "src" || attr.Key == "srcset" {
					continue
				}
				copyTo := lazyTarget(attr.Val)
				if copyTo == "" {
					continue
				}
				if elem.Data == "img" {
					dom.SetAttribute(elem, copyTo, attr.Val)
					continue
				}
				img := firstTag(elem, "img")
				if img == nil {
					img = newElement("img")
					elem.AppendChild(img)
				}
				dom.SetAttribute(img, copyTo, attr.Val)
			}
		case "figure":
			if isSingleImage(elem) {
				continue
			}
			for _, attr := range elem.Attr {
				copyTo := lazyTarget(attr.Val)
				if copyTo == "" {
					continue
				}
				img := newElement("img")
				dom.SetAttribute(img, copyTo, attr.Val)
				elem.AppendChild(img)
				break
			}
		}
	}
}

func lazySource(v string) bool {
	return v == "" || strings.HasPrefix(v, "data:")
}

func lazyTarget(v string) string {
	switch {
	case rxImageSrc.MatchString(v):
		return "src"
	case rxImageSrcset.MatchString(v):
		return "srcset"
	}
	return ""
}

// fixNextJSImages replaces Next.js image optimizer URLs with the URL of
// the original image.
func (p *Preprocessor) fixNextJSImages(doc *html.Node) {
	for _, img := range dom.GetElementsByTagName(doc, "img") {
		if src := dom.GetAttribute(img, "src"); strings.TrimSpace(src) != "" {
			if original, ok := nextJSImageURL(src); ok {
				p.logger.Debug("rewrote next.js image", "src", original)
				dom.SetAttribute(img, "src", original)
			}
		}
		if srcset := dom.GetAttribute(img, "srcset"); strings.TrimSpace(srcset) != "" {
			if fixed := fixNextJSSrcset(srcset); fixed != srcset {
				dom.SetAttribute(img, "srcset", fixed)
			}
		}
	}
}

func nextJSImageURL(u string) (string, bool) {
	m := rxNextImage.FindStringSubmatch(u)
	if m == nil {
		return "", false
	}
	decoded, err := url.PathUnescape(m[1])
	if err != nil {
		return "", false
	}
	return decoded, true
}

func fixNextJSSrcset(srcset string) string {
	entries := strings.Split(srcset, ",")
	for i, entry := range entries {
		entry = strings.TrimSpace(entry)
		entries[i] = entry
		parts := strings.Fields(entry)
		if len(parts) == 0 {
			continue
		}
		original, ok := nextJSImageURL(parts[0])
		if !ok {
			continue
		}
		if len(parts) > 1 {
			entries[i] = original + " " + strings.Join(parts[1:], " ")
		} else {
			entries[i] = original
		}
	}
	return strings.Join(entries, ", ")
}

func removeComments(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if c.Type == html.CommentNode {
			n.RemoveChild(c)
		} else {
			removeComments(c)
		}
		c = next
	}
}

// firstTag returns the first descendant of n with the given tag.
func firstTag(n *html.Node, tag string) *html.Node {
	nodes := dom.GetElementsByTagName(n, tag)
	if len(nodes) == 0 {
		return nil
	}
	return nodes[0]
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

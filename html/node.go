package html

import (
	"strings"
	"unicode/utf8"

	"github.com/go-shiori/dom"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// blockTags get a separating space in InnerText so adjacent blocks do not
// run their words together.
var blockTags = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true,
	"dd": true, "div": true, "dl": true, "dt": true, "fieldset": true,
	"figcaption": true, "figure": true, "footer": true, "form": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"header": true, "hr": true, "li": true, "main": true, "nav": true,
	"ol": true, "p": true, "pre": true, "section": true, "table": true,
	"tbody": true, "td": true, "tfoot": true, "th": true, "thead": true,
	"tr": true, "ul": true,
}

// InnerText returns the whitespace-normalized text of n: runs of ASCII
// whitespace collapse to one space, <br> and block boundaries count as
// whitespace, and the result is trimmed.
func InnerText(n *html.Node) string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			b.WriteString(n.Data)
			return
		case html.ElementNode:
			if n.Data == "br" {
				b.WriteByte(' ')
				return
			}
		}
		block := n.Type == html.ElementNode && blockTags[n.Data]
		if block {
			b.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if block {
			b.WriteByte(' ')
		}
	}
	walk(n)
	return collapseSpace(b.String())
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\f'
}

func collapseSpace(s string) string {
	return strings.Join(strings.FieldsFunc(s, isSpace), " ")
}

// textLen is the character count used by every length threshold.
func textLen(s string) int {
	return utf8.RuneCountInString(s)
}

// matchString is the class and id of n joined by a space, the input of
// every class/id pattern check.
func matchString(n *html.Node) string {
	return dom.GetAttribute(n, "class") + " " + dom.GetAttribute(n, "id")
}

func className(n *html.Node) string {
	return dom.GetAttribute(n, "class")
}

func classList(n *html.Node) []string {
	return strings.Fields(dom.GetAttribute(n, "class"))
}

func addClass(n *html.Node, class string) {
	classes := classList(n)
	for _, c := range classes {
		if c == class {
			return
		}
	}
	dom.SetAttribute(n, "class", strings.Join(append(classes, class), " "))
}

// parentElement returns the parent of n when it is an element. The
// document node is not an element, so walks stop at <html>.
func parentElement(n *html.Node) *html.Node {
	if n == nil || n.Parent == nil || n.Parent.Type != html.ElementNode {
		return nil
	}
	return n.Parent
}

// ancestors returns up to maxDepth element ancestors of n, nearest first.
// A maxDepth of zero returns all of them.
func ancestors(n *html.Node, maxDepth int) []*html.Node {
	var result []*html.Node
	for p := parentElement(n); p != nil; p = parentElement(p) {
		result = append(result, p)
		if maxDepth > 0 && len(result) == maxDepth {
			break
		}
	}
	return result
}

// hasAncestorTag reports whether an ancestor of n has the given tag and
// passes filter. maxDepth <= 0 means unlimited; otherwise ancestors more
// than maxDepth+1 levels up are not considered.
func hasAncestorTag(n *html.Node, tag string, maxDepth int, filter func(*html.Node) bool) bool {
	depth := 0
	for p := parentElement(n); p != nil; p = parentElement(p) {
		if maxDepth > 0 && depth > maxDepth {
			return false
		}
		if p.Data == tag && (filter == nil || filter(p)) {
			return true
		}
		depth++
	}
	return false
}

// nextNode walks elements depth-first. With skipChildren set the subtree of
// n is skipped, which is what callers need when n is about to be removed.
func nextNode(n *html.Node, skipChildren bool) *html.Node {
	if !skipChildren {
		if child := dom.FirstElementChild(n); child != nil {
			return child
		}
	}
	if sibling := dom.NextElementSibling(n); sibling != nil {
		return sibling
	}
	for p := n.Parent; p != nil; p = p.Parent {
		if sibling := dom.NextElementSibling(p); sibling != nil {
			return sibling
		}
	}
	return nil
}

// removeAndGetNext detaches n and returns the next node of the walk.
func removeAndGetNext(n *html.Node) *html.Node {
	next := nextNode(n, true)
	removeNode(n)
	return next
}

func removeNode(n *html.Node) {
	if n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}

// nextElement skips whitespace-only text siblings starting at n and
// returns the first element found, or nil.
func nextElement(n *html.Node) *html.Node {
	for n != nil && n.Type == html.TextNode && rxWhitespace.MatchString(n.Data) {
		n = n.NextSibling
	}
	if n == nil || n.Type != html.ElementNode {
		return nil
	}
	return n
}

// newElement creates a detached element with its atom set, which
// html.ParseFragment requires of a context node.
func newElement(tag string) *html.Node {
	return &html.Node{Type: html.ElementNode, Data: tag, DataAtom: atom.Lookup([]byte(tag))}
}

// setTag renames an element in place, keeping attributes and children.
func setTag(n *html.Node, tag string) {
	n.Data = tag
	n.DataAtom = atom.Lookup([]byte(tag))
}

// replaceNode puts replacement where old is. replacement is detached from
// its current position first.
func replaceNode(old, replacement *html.Node) {
	if old.Parent == nil {
		return
	}
	dom.ReplaceChild(old.Parent, replacement, old)
}

// unwrap replaces n with its children.
func unwrap(n *html.Node) {
	parent := n.Parent
	if parent == nil {
		return
	}
	for child := n.FirstChild; child != nil; {
		next := child.NextSibling
		n.RemoveChild(child)
		parent.InsertBefore(child, n)
		child = next
	}
	parent.RemoveChild(n)
}

// moveChildren appends all child nodes of src to dst.
func moveChildren(src, dst *html.Node) {
	for child := src.FirstChild; child != nil; {
		next := child.NextSibling
		src.RemoveChild(child)
		dst.AppendChild(child)
		child = next
	}
}

// removeTags removes every descendant of root with the given tag for which
// remove returns true, or all of them when remove is nil. Nodes are visited in reverse document order so
// removals do not disturb the traversal.
func removeTags(root *html.Node, tag string, remove func(*html.Node) bool) int {
	nodes := dom.GetElementsByTagName(root, tag)
	removed := 0
	for i := len(nodes) - 1; i >= 0; i-- {
		n := nodes[i]
		if n.Parent == nil {
			continue
		}
		if remove == nil || remove(n) {
			n.Parent.RemoveChild(n)
			removed++
		}
	}
	return removed
}

// countTag counts descendants of n with the given tag.
func countTag(n *html.Node, tag string) int {
	return len(dom.GetElementsByTagName(n, tag))
}

// countElements counts every element in the tree rooted at n.
func countElements(n *html.Node) int {
	count := 0
	if n.Type == html.ElementNode {
		count++
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		count += countElements(c)
	}
	return count
}

// siblingIndex is the position of n among all child nodes of its parent.
func siblingIndex(n *html.Node) int {
	i := 0
	for s := n.PrevSibling; s != nil; s = s.PrevSibling {
		i++
	}
	return i
}

// findBody returns the <body> element of doc, or nil.
func findBody(doc *html.Node) *html.Node {
	if doc.Type == html.ElementNode && doc.Data == "body" {
		return doc
	}
	nodes := dom.GetElementsByTagName(doc, "body")
	if len(nodes) == 0 {
		return nil
	}
	return nodes[0]
}

// documentElement returns the <html> element of doc, or nil.
func documentElement(doc *html.Node) *html.Node {
	if doc.Type == html.ElementNode && doc.Data == "html" {
		return doc
	}
	return dom.DocumentElement(doc)
}

package html

import (
	"context"
	"log/slog"
	"math"
	"regexp"
	"slices"
	"strings"

	"github.com/fwojciec/readable"
	"github.com/go-shiori/dom"
	"golang.org/x/net/html"
)

// Tag scores applied when a node is first initialized as a candidate.
const (
	tagScoreDiv           = 5
	tagScoreContent       = 3
	tagScoreListPenalty   = -3
	tagScoreHeaderPenalty = -5
)

var (
	tagsToScore = map[string]bool{
		"section": true, "h2": true, "h3": true, "h4": true, "h5": true,
		"h6": true, "p": true, "td": true, "pre": true,
	}
	divToPElems = map[string]bool{
		"a": true, "blockquote": true, "dl": true, "div": true, "img": true,
		"ol": true, "p": true, "pre": true, "table": true, "ul": true,
		"select": true,
	}
	alterToDivExceptions = map[string]bool{
		"div": true, "article": true, "section": true, "p": true,
	}
	utilityClassPrefixes = []string{
		"flex", "grid", "text", "bg", "p-", "m-", "w-", "h-", "max", "min",
		"rounded", "border", "shadow", "prose",
	}
	rxSentenceEnd = regexp.MustCompile(`\.( |$)`)
)

// Ensure ArticleGrabber implements readable.ArticleGrabber.
var _ readable.ArticleGrabber = (*ArticleGrabber)(nil)

// ArticleGrabber scores the nodes of a prepared document and assembles the
// best-scoring subtree and its related siblings into the article content.
//
// An ArticleGrabber records the byline, direction and language it found,
// so a new one is needed for every document.
type ArticleGrabber struct {
	logger     *slog.Logger
	classifier *RegexClassifier
	filters    []readable.CandidateFilter

	nbTopCandidates     int
	charThreshold       int
	linkDensityModifier float64

	byline      string
	bylineFound bool
	dir         string
	lang        string
}

// NewArticleGrabber returns a grabber configured from opts. Candidates are
// ranked only if every filter includes them; with no filters, candidates
// inside a <blockquote> are excluded.
func NewArticleGrabber(opts readable.Options, logger *slog.Logger, filters ...readable.CandidateFilter) *ArticleGrabber {
	if logger == nil {
		logger = discardLogger()
	}
	if len(filters) == 0 {
		filters = []readable.CandidateFilter{BlockquoteDescendantFilter()}
	}
	nbTop := opts.NbTopCandidates
	if nbTop <= 0 {
		nbTop = readable.DefaultNbTopCandidates
	}
	threshold := opts.CharThreshold
	if threshold <= 0 {
		threshold = readable.DefaultCharThreshold
	}
	return &ArticleGrabber{
		logger:              logger,
		classifier:          NewRegexClassifier(opts.AllowedVideoRegex),
		filters:             filters,
		nbTopCandidates:     nbTop,
		charThreshold:       threshold,
		linkDensityModifier: opts.LinkDensityModifier,
	}
}

// Byline implements readable.ArticleGrabber.
func (g *ArticleGrabber) Byline() string { return g.byline }

// Dir implements readable.ArticleGrabber.
func (g *ArticleGrabber) Dir() string { return g.dir }

// Lang implements readable.ArticleGrabber.
func (g *ArticleGrabber) Lang() string { return g.lang }

type attemptResult struct {
	content      *html.Node
	topCandidate *html.Node
	textLength   int
}

// Grab implements readable.ArticleGrabber. Each attempt starts from a
// fresh copy of the page, so relaxed attempts see the same input as the
// strict one.
func (g *ArticleGrabber) Grab(ctx context.Context, doc *html.Node, metadata *readable.Metadata, opts readable.GrabOptions, page *html.Node) (*html.Node, error) {
	isPaging := page != nil
	if page == nil {
		page = findBody(doc)
	}
	if page == nil {
		return nil, nil
	}
	if metadata == nil {
		metadata = &readable.Metadata{}
	}

	var snapshot []*html.Node
	for c := page.FirstChild; c != nil; c = c.NextSibling {
		snapshot = append(snapshot, dom.Clone(c, true))
	}

	var attempts []attemptResult
	for i, attemptOpts := range opts.Ladder() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if i > 0 {
			restorePage(page, snapshot)
		}

		a := &attempt{
			grabber:    g,
			opts:       attemptOpts,
			scores:     make(map[*html.Node]float64),
			dataTables: make(map[*html.Node]bool),
		}
		content, topCandidate := a.run(doc, metadata, page, isPaging)
		length := textLen(InnerText(content))
		g.logger.Debug("extraction attempt",
			"attempt", i+1,
			"strip_unlikely", attemptOpts.StripUnlikelyCandidates,
			"weight_classes", attemptOpts.WeightClasses,
			"clean_conditionally", attemptOpts.CleanConditionally,
			"length", length)
		attempts = append(attempts, attemptResult{content: content, topCandidate: topCandidate, textLength: length})

		if length >= g.charThreshold {
			g.detectDirection(doc, topCandidate)
			g.detectLanguage(doc)
			return content, nil
		}
	}

	slices.SortStableFunc(attempts, func(a, b attemptResult) int {
		return b.textLength - a.textLength
	})
	if len(attempts) == 0 || attempts[0].textLength == 0 {
		return nil, nil
	}
	g.detectDirection(doc, attempts[0].topCandidate)
	g.detectLanguage(doc)
	return attempts[0].content, nil
}

// restorePage replaces the children of page with fresh clones of snapshot.
func restorePage(page *html.Node, snapshot []*html.Node) {
	for c := page.FirstChild; c != nil; {
		next := c.NextSibling
		page.RemoveChild(c)
		c = next
	}
	for _, n := range snapshot {
		page.AppendChild(dom.Clone(n, true))
	}
}

func (g *ArticleGrabber) detectDirection(doc, topCandidate *html.Node) {
	var candidates []*html.Node
	if parent := parentElement(topCandidate); parent != nil {
		candidates = append(candidates, parent, topCandidate)
		candidates = append(candidates, ancestors(parent, 0)...)
	} else {
		candidates = append(candidates, topCandidate)
	}
	candidates = append(candidates, findBody(doc), documentElement(doc))
	for _, n := range candidates {
		if n == nil {
			continue
		}
		if dir := dom.GetAttribute(n, "dir"); strings.TrimSpace(dir) != "" {
			g.dir = dir
			return
		}
	}
}

func (g *ArticleGrabber) detectLanguage(doc *html.Node) {
	if root := documentElement(doc); root != nil {
		if lang := dom.GetAttribute(root, "lang"); strings.TrimSpace(lang) != "" {
			g.lang = lang
		}
	}
}

func (g *ArticleGrabber) includeCandidate(n *html.Node) bool {
	for _, f := range g.filters {
		if !f.IncludeCandidate(n) {
			return false
		}
	}
	return true
}

// attempt holds the state of one extraction attempt. Scores and data table
// flags are keyed by node and never outlive the attempt.
type attempt struct {
	grabber    *ArticleGrabber
	opts       readable.GrabOptions
	scores     map[*html.Node]float64
	dataTables map[*html.Node]bool
}

func (a *attempt) run(doc *html.Node, metadata *readable.Metadata, page *html.Node, isPaging bool) (*html.Node, *html.Node) {
	elementsToScore := a.prepareNodes(doc)
	candidates := a.scoreElements(elementsToScore)
	topCandidate, created := a.topCandidate(page, candidates)

	content := a.createArticleContent(topCandidate, isPaging)
	a.prepArticle(content, metadata)

	if created {
		dom.SetAttribute(topCandidate, "id", "readability-page-1")
		addClass(topCandidate, "page")
	} else {
		div := newElement("div")
		dom.SetAttribute(div, "id", "readability-page-1")
		addClass(div, "page")
		moveChildren(content, div)
		content.AppendChild(div)
	}
	return content, topCandidate
}

// prepareNodes removes bylines, unlikely candidates and empty containers,
// turns paragraph-like divs into paragraphs and collects the nodes that
// will be scored.
func (a *attempt) prepareNodes(doc *html.Node) []*html.Node {
	c := a.grabber.classifier
	var elementsToScore []*html.Node

	node := documentElement(doc)
	for node != nil {
		match := matchString(node)

		if a.checkByline(node, match) {
			a.grabber.logger.Debug("removed byline", "byline", a.grabber.byline)
			node = removeAndGetNext(node)
			continue
		}

		if a.opts.StripUnlikelyCandidates && c.IsUnlikely(match) && node.Data != "body" && node.Data != "a" {
			a.grabber.logger.Debug("removed unlikely candidate", "tag", node.Data, "match", match)
			node = removeAndGetNext(node)
			continue
		}

		switch node.Data {
		case "div", "section", "header", "h1", "h2", "h3", "h4", "h5", "h6":
			if isElementWithoutContent(node) {
				node = removeAndGetNext(node)
				continue
			}
		}

		if tagsToScore[node.Data] {
			elementsToScore = append(elementsToScore, node)
		}

		if node.Data == "div" {
			switch {
			case a.hasSinglePInsideElement(node):
				p := dom.FirstElementChild(node)
				replaceNode(node, p)
				node = p
				elementsToScore = append(elementsToScore, node)
			case !hasChildBlockElement(node):
				setTag(node, "p")
				elementsToScore = append(elementsToScore, node)
			default:
				wrapTextNodes(node)
			}
		}

		node = nextNode(node, false)
	}
	return elementsToScore
}

func (a *attempt) checkByline(n *html.Node, match string) bool {
	g := a.grabber
	if g.bylineFound {
		return false
	}
	if dom.GetAttribute(n, "rel") != "author" && !g.classifier.IsByline(match) {
		return false
	}
	text := strings.TrimSpace(dom.TextContent(n))
	if text == "" || textLen(text) >= 100 {
		return false
	}
	g.byline = InnerText(n)
	g.bylineFound = true
	return true
}

func isElementWithoutContent(n *html.Node) bool {
	if strings.TrimSpace(InnerText(n)) != "" {
		return false
	}
	children := len(dom.Children(n))
	return children == 0 || children == countTag(n, "br")+countTag(n, "hr")
}

// hasSinglePInsideElement reports whether n has exactly one element child,
// a <p>, and no text of its own.
func (a *attempt) hasSinglePInsideElement(n *html.Node) bool {
	children := dom.Children(n)
	if len(children) != 1 || children[0].Data != "p" {
		return false
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode && a.grabber.classifier.HasContent(c.Data) {
			return false
		}
	}
	return true
}

func hasChildBlockElement(n *html.Node) bool {
	for _, child := range dom.Children(n) {
		if divToPElems[child.Data] || hasChildBlockElement(child) {
			return true
		}
	}
	return false
}

// wrapTextNodes puts each non-blank text child of n in an inline <p> so
// it can be scored alongside its block siblings.
func wrapTextNodes(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if c.Type == html.TextNode && strings.TrimSpace(c.Data) != "" {
			p := newElement("p")
			p.AppendChild(dom.CreateTextNode(rxWords.ReplaceAllString(c.Data, " ")))
			dom.SetAttribute(p, "style", "display: inline;")
			addClass(p, "readability-styled")
			replaceNode(c, p)
		}
		c = next
	}
}

// scoreElements credits each paragraph-like node's score to its parent,
// grandparent and great-grandparent, initializing them as candidates on
// first sight.
func (a *attempt) scoreElements(elementsToScore []*html.Node) []*html.Node {
	var candidates []*html.Node
	for _, n := range elementsToScore {
		if n.Parent == nil {
			continue
		}
		text := InnerText(n)
		length := textLen(text)
		if length < 25 {
			continue
		}
		nodeAncestors := ancestors(n, 3)
		if len(nodeAncestors) == 0 {
			continue
		}

		score := 1.0
		score += float64(strings.Count(text, ",") + 1)
		score += math.Min(math.Floor(float64(length)/100), 3)

		for level, ancestor := range nodeAncestors {
			if _, ok := a.scores[ancestor]; !ok {
				candidates = append(candidates, ancestor)
				a.initializeNode(ancestor)
			}
			divider := 1.0
			switch {
			case level == 1:
				divider = 2
			case level > 1:
				divider = float64(level * 3)
			}
			a.scores[ancestor] += score / divider
		}
	}
	return candidates
}

func (a *attempt) initializeNode(n *html.Node) {
	score := float64(tagScore(n.Data))
	score += float64(a.classWeight(n))
	score += float64(a.mediaBonus(n))
	a.scores[n] = score
}

func tagScore(tag string) int {
	switch tag {
	case "div":
		return tagScoreDiv
	case "pre", "td", "blockquote":
		return tagScoreContent
	case "address", "ol", "ul", "dl", "dd", "dt", "li", "form":
		return tagScoreListPenalty
	case "h1", "h2", "h3", "h4", "h5", "h6", "th":
		return tagScoreHeaderPenalty
	}
	return 0
}

// classWeight scores the class and id of n: -25 for each negative match
// and +25 for each positive one.
func (a *attempt) classWeight(n *html.Node) int {
	if !a.opts.WeightClasses {
		return 0
	}
	c := a.grabber.classifier
	weight := 0
	for _, s := range []string{className(n), dom.GetAttribute(n, "id")} {
		if strings.TrimSpace(s) == "" {
			continue
		}
		if c.IsNegative(s) {
			weight -= 25
		}
		if c.IsPositive(s) {
			weight += 25
		}
	}
	return weight
}

// mediaBonus rewards containers holding images and videos, unless they
// look like sidebars or the images outweigh the text.
func (a *attempt) mediaBonus(n *html.Node) int {
	if !a.opts.PreserveImages && !a.opts.PreserveVideos {
		return 0
	}
	match := matchString(n)
	lower := strings.ToLower(match)
	if a.grabber.classifier.IsNegative(match) {
		return 0
	}
	for _, marker := range []string{"sidebar", "related", "recommend", "widget", "promo"} {
		if strings.Contains(lower, marker) {
			return 0
		}
	}

	images, videos := 0, 0
	if a.opts.PreserveImages {
		images = countTag(n, "img")
	}
	if a.opts.PreserveVideos {
		videos = countTag(n, "iframe") + countTag(n, "video") + countTag(n, "embed")
	}
	if images > 0 && float64(textLen(InnerText(n)))/float64(images) <= 50 {
		return 0
	}
	return images*3 + videos*5
}

// topCandidate ranks the candidates and picks the node to build the
// article around. The second result is true when no usable candidate was
// found and the whole page was wrapped in a new <div>.
func (a *attempt) topCandidate(page *html.Node, candidates []*html.Node) (*html.Node, bool) {
	g := a.grabber
	var top []*html.Node
	for _, candidate := range candidates {
		if !g.includeCandidate(candidate) {
			continue
		}
		score := a.scores[candidate] * (1 - LinkDensity(candidate))
		a.scores[candidate] = score

		for t := 0; t < g.nbTopCandidates; t++ {
			if t >= len(top) || score > a.scores[top[t]] {
				top = slices.Insert(top, t, candidate)
				if len(top) > g.nbTopCandidates {
					top = top[:g.nbTopCandidates]
				}
				break
			}
		}
	}

	if len(top) == 0 || top[0].Data == "body" {
		div := newElement("div")
		moveChildren(page, div)
		page.AppendChild(div)
		a.initializeNode(div)
		return div, true
	}

	candidate := top[0]
	const minimumTopCandidates = 3
	var alternatives [][]*html.Node
	for _, other := range top[1:] {
		if a.scores[candidate] != 0 && a.scores[other]/a.scores[candidate] >= 0.75 {
			alternatives = append(alternatives, ancestors(other, 0))
		}
	}
	if len(alternatives) >= minimumTopCandidates {
		for parent := parentElement(candidate); parent != nil && parent.Data != "body"; parent = parentElement(parent) {
			lists := 0
			for _, list := range alternatives {
				if slices.Contains(list, parent) {
					lists++
				}
			}
			if lists >= minimumTopCandidates {
				candidate = parent
				break
			}
		}
	}
	if _, ok := a.scores[candidate]; !ok {
		a.initializeNode(candidate)
	}

	lastScore := a.scores[candidate]
	threshold := lastScore / 3
	for parent := parentElement(candidate); parent != nil && parent.Data != "body"; parent = parentElement(parent) {
		score, ok := a.scores[parent]
		if !ok {
			continue
		}
		if score < threshold {
			break
		}
		if score > lastScore {
			candidate = parent
			break
		}
		lastScore = score
	}

	for parent := parentElement(candidate); parent != nil && parent.Data != "body" && len(dom.Children(parent)) == 1; parent = parentElement(candidate) {
		candidate = parent
	}
	if _, ok := a.scores[candidate]; !ok {
		a.initializeNode(candidate)
	}
	return candidate, false
}

// createArticleContent collects the top candidate and those of its
// siblings, and of cousins under semantically matching uncles, that look
// like part of the same article.
func (a *attempt) createArticleContent(topCandidate *html.Node, isPaging bool) *html.Node {
	content := newElement("div")
	if isPaging {
		dom.SetAttribute(content, "id", "readability-content")
	}
	topScore, ok := a.scores[topCandidate]
	if !ok {
		return content
	}
	threshold := math.Max(10, topScore*0.2)

	parent := topCandidate.Parent
	var siblings []*html.Node
	if parent != nil {
		siblings = append(siblings, dom.Children(parent)...)
		siblings = append(siblings, a.cousins(parent)...)
	} else {
		siblings = []*html.Node{topCandidate}
	}

	var toAppend []*html.Node
	for _, sibling := range siblings {
		if a.shouldAppendSibling(sibling, topCandidate, topScore, threshold) {
			toAppend = append(toAppend, sibling)
		}
	}

	slices.SortStableFunc(toAppend, compareDocumentOrder)
	for _, n := range toAppend {
		if !alterToDivExceptions[n.Data] {
			setTag(n, "div")
		}
		removeNode(n)
		content.AppendChild(n)
	}
	return content
}

// cousins returns the children of the uncles of the top candidate that
// share a semantic class with its parent.
func (a *attempt) cousins(parent *html.Node) []*html.Node {
	grandparent := parentElement(parent)
	if grandparent == nil || grandparent.Data == "body" {
		return nil
	}
	var semantic []string
	for _, class := range classList(parent) {
		if len(class) <= 3 || hasUtilityPrefix(class) {
			continue
		}
		semantic = append(semantic, class)
	}
	if len(semantic) == 0 {
		return nil
	}

	c := a.grabber.classifier
	var cousins []*html.Node
	for _, uncle := range dom.Children(grandparent) {
		if uncle == parent {
			continue
		}
		uncleClasses := classList(uncle)
		shared := slices.ContainsFunc(semantic, func(class string) bool {
			return slices.Contains(uncleClasses, class)
		})
		if !shared {
			continue
		}
		for _, cousin := range dom.Children(uncle) {
			match := matchString(cousin)
			if !c.IsUnlikelyCandidate(match) || c.OkMaybeItsACandidate(match) {
				cousins = append(cousins, cousin)
			}
		}
	}
	return cousins
}

func hasUtilityPrefix(class string) bool {
	for _, prefix := range utilityClassPrefixes {
		if strings.HasPrefix(class, prefix) {
			return true
		}
	}
	return false
}

func (a *attempt) shouldAppendSibling(sibling, topCandidate *html.Node, topScore, threshold float64) bool {
	if sibling == topCandidate {
		return true
	}

	if strings.Contains(className(sibling), "intro") || sibling.Data == "header" {
		if textLen(InnerText(sibling)) > 50 {
			return true
		}
	}

	bonus := 0.0
	if class := className(topCandidate); class != "" && className(sibling) == class {
		bonus = topScore * 0.2
	}
	if score, ok := a.scores[sibling]; ok && score+bonus >= threshold {
		return true
	}

	if sibling.Data != "p" {
		return false
	}
	text := InnerText(sibling)
	length := textLen(text)
	density := LinkDensity(sibling)
	switch {
	case length > 80 && density < 0.25+a.grabber.linkDensityModifier:
		return true
	case length > 0 && length < 80 && density == 0 && rxSentenceEnd.MatchString(text):
		return true
	}
	return false
}

// compareDocumentOrder orders nodes by their path of sibling indexes from
// the root.
func compareDocumentOrder(a, b *html.Node) int {
	return slices.Compare(documentPath(a), documentPath(b))
}

func documentPath(n *html.Node) []int {
	var path []int
	for ; n != nil; n = n.Parent {
		path = append(path, siblingIndex(n))
	}
	slices.Reverse(path)
	return path
}

// BlockquoteDescendantFilter excludes candidates nested in a <blockquote>,
// which usually quote other content rather than carry the article.
func BlockquoteDescendantFilter() readable.CandidateFilter {
	return readable.CandidateFilterFunc(func(candidate *html.Node) bool {
		return !hasAncestorTag(candidate, "blockquote", 0, nil)
	})
}

// LinkDensity is the share of the text of n that sits inside links.
// Links to fragments on the same page count at 30%.
func LinkDensity(n *html.Node) float64 {
	length := textLen(InnerText(n))
	if length == 0 {
		return 0
	}
	var linkLength float64
	for _, link := range dom.GetElementsByTagName(n, "a") {
		coefficient := 1.0
		if href := dom.GetAttribute(link, "href"); href != "" && rxHashURL.MatchString(href) {
			coefficient = 0.3
		}
		linkLength += float64(textLen(InnerText(link))) * coefficient
	}
	return linkLength / float64(length)
}

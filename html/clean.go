package html

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/fwojciec/readable"
	"github.com/go-shiori/dom"
	"golang.org/x/net/html"
)

var (
	presentationalAttributes = []string{
		"align", "background", "bgcolor", "border", "cellpadding",
		"cellspacing", "frame", "hspace", "rules", "style", "valign", "vspace",
	}
	deprecatedSizeAttributeElems = map[string]bool{
		"table": true, "th": true, "td": true, "hr": true, "pre": true,
	}
	embeddedNodes = map[string]bool{
		"object": true, "embed": true, "iframe": true,
	}
	dataTableDescendants = []string{"col", "colgroup", "tfoot", "thead", "th"}

	rxShare = regexp.MustCompile(`share`)
)

// prepArticle strips presentational markup and junk from the assembled
// content. Order matters: data tables are marked before conditional
// cleaning so they survive it.
func (a *attempt) prepArticle(content *html.Node, metadata *readable.Metadata) {
	cleanStyles(content)
	a.markDataTables(content)

	a.cleanConditionally(content, "form")
	a.cleanConditionally(content, "fieldset")
	a.clean(content, "object")
	a.clean(content, "embed")
	a.clean(content, "footer")
	a.clean(content, "link")

	for _, child := range dom.Children(content) {
		a.cleanMatchedNodes(child, rxShare)
	}

	for _, tag := range []string{"h1", "h2"} {
		removeTags(content, tag, func(h *html.Node) bool {
			return headerDuplicatesTitle(h, metadata)
		})
	}

	if !a.opts.PreserveVideos {
		a.clean(content, "iframe")
	}
	a.clean(content, "input")

	removeTags(content, "figure", func(figure *html.Node) bool {
		return countTag(figure, "img") == 0
	})
	removeTags(content, "div", func(div *html.Node) bool {
		return InnerText(div) == "" && len(dom.Children(div)) == 0
	})

	a.clean(content, "textarea")
	a.clean(content, "select")
	a.clean(content, "button")
	a.cleanHeaders(content)

	a.cleanConditionally(content, "table")
	a.cleanConditionally(content, "ul")
	a.cleanConditionally(content, "div")

	removeTags(content, "p", func(p *html.Node) bool {
		media := countTag(p, "img") + countTag(p, "embed") + countTag(p, "object") + countTag(p, "iframe")
		return media == 0 && InnerText(p) == ""
	})

	for _, br := range dom.GetElementsByTagName(content, "br") {
		if next := nextElement(br.NextSibling); next != nil && next.Data == "p" {
			removeNode(br)
		}
	}
}

// cleanStyles removes inline styles and deprecated presentational
// attributes from n and its descendants. SVG subtrees are left alone.
func cleanStyles(n *html.Node) {
	if n.Data == "svg" {
		return
	}
	if className(n) != "readability-styled" {
		for _, attr := range presentationalAttributes {
			dom.RemoveAttribute(n, attr)
		}
		if deprecatedSizeAttributeElems[n.Data] {
			dom.RemoveAttribute(n, "width")
			dom.RemoveAttribute(n, "height")
		}
	}
	for _, child := range dom.Children(n) {
		cleanStyles(child)
	}
}

// markDataTables flags each table under root as a data table or a layout
// table.
func (a *attempt) markDataTables(root *html.Node) {
	for _, table := range dom.GetElementsByTagName(root, "table") {
		a.dataTables[table] = isDataTable(table)
	}
}

func isDataTable(table *html.Node) bool {
	if dom.GetAttribute(table, "role") == "presentation" {
		return false
	}
	if dom.GetAttribute(table, "datatable") == "0" {
		return false
	}
	if strings.TrimSpace(dom.GetAttribute(table, "summary")) != "" {
		return true
	}
	if caption := firstTag(table, "caption"); caption != nil && caption.FirstChild != nil {
		return true
	}
	for _, tag := range dataTableDescendants {
		if countTag(table, tag) > 0 {
			return true
		}
	}
	if countTag(table, "table") > 0 {
		return false
	}
	rows, columns := rowAndColumnCount(table)
	if rows >= 10 || columns > 4 {
		return true
	}
	return rows*columns > 10
}

func rowAndColumnCount(table *html.Node) (int, int) {
	rows, columns := 0, 0
	for _, tr := range dom.GetElementsByTagName(table, "tr") {
		rows += spanAttr(tr, "rowspan")
		inRow := 0
		for _, td := range dom.GetElementsByTagName(tr, "td") {
			inRow += spanAttr(td, "colspan")
		}
		columns = max(columns, inRow)
	}
	return rows, columns
}

func spanAttr(n *html.Node, attr string) int {
	v, err := strconv.Atoi(dom.GetAttribute(n, attr))
	if err != nil {
		return 1
	}
	return v
}

// cleanConditionally removes elements with the given tag that look like
// junk: negative class weight, few commas combined with link-heavy text,
// more list items than paragraphs, stray inputs or embeds.
func (a *attempt) cleanConditionally(root *html.Node, tag string) {
	if !a.opts.CleanConditionally {
		return
	}
	isList := tag == "ul" || tag == "ol"
	isData := func(n *html.Node) bool { return a.dataTables[n] }
	modifier := a.grabber.linkDensityModifier

	removed := removeTags(root, tag, func(n *html.Node) bool {
		if tag == "table" && isData(n) {
			return false
		}
		if hasAncestorTag(n, "table", -1, isData) {
			return false
		}

		weight := a.classWeight(n)
		if weight < 0 {
			return true
		}

		text := InnerText(n)
		if strings.Count(text, ",") >= 10 {
			return false
		}

		p := countTag(n, "p")
		img := countTag(n, "img")
		li := countTag(n, "li") - 100
		input := countTag(n, "input")
		embeds := 0
		for _, embed := range dom.GetElementsByTagName(n, "embed") {
			if !a.grabber.classifier.IsVideo(dom.GetAttribute(embed, "src")) {
				embeds++
			}
		}
		density := LinkDensity(n)
		length := textLen(text)
		inFigure := hasAncestorTag(n, "figure", 3, nil)

		switch {
		case !a.opts.PreserveImages && img > 1 && float64(p)/float64(img) < 0.5 && !inFigure:
			return true
		case !isList && li > p:
			return true
		case float64(input) > math.Floor(float64(p)/3):
			return true
		case !isList && length < 25 && img == 0 && !inFigure:
			return true
		case !isList && weight < 25 && density > 0.2+modifier:
			return true
		case weight >= 25 && density > 0.5+modifier:
			return true
		case !a.opts.PreserveVideos && ((embeds == 1 && length < 75) || embeds > 1):
			return true
		}
		return false
	})
	if removed > 0 {
		a.grabber.logger.Debug("cleaned conditionally", "tag", tag, "count", removed)
	}
}

// clean removes every element with the given tag. Embeds pointing at an
// allowed video host are kept.
func (a *attempt) clean(root *html.Node, tag string) {
	isEmbed := embeddedNodes[tag]
	removeTags(root, tag, func(n *html.Node) bool {
		if !isEmbed {
			return true
		}
		values := make([]string, 0, len(n.Attr))
		for _, attr := range n.Attr {
			values = append(values, attr.Val)
		}
		if a.grabber.classifier.IsVideo(strings.Join(values, "|")) {
			return false
		}
		return !a.grabber.classifier.IsVideo(dom.InnerHTML(n))
	})
}

// cleanMatchedNodes removes descendants of n whose class or id matches rx.
func (a *attempt) cleanMatchedNodes(n *html.Node, rx *regexp.Regexp) {
	end := nextNode(n, true)
	next := nextNode(n, false)
	for next != nil && next != end {
		if rx.MatchString(matchString(next)) {
			next = removeAndGetNext(next)
		} else {
			next = nextNode(next, false)
		}
	}
}

func (a *attempt) cleanHeaders(root *html.Node) {
	for _, tag := range []string{"h1", "h2"} {
		removeTags(root, tag, func(h *html.Node) bool {
			return a.classWeight(h) < 0
		})
	}
}

// headerDuplicatesTitle reports whether heading h repeats the article
// title closely enough to be dropped from the content.
func headerDuplicatesTitle(h *html.Node, metadata *readable.Metadata) bool {
	if h.Data != "h1" && h.Data != "h2" {
		return false
	}
	if strings.TrimSpace(metadata.Title) == "" {
		return false
	}
	return readable.TextSimilarity(InnerText(h), metadata.Title) > 0.75
}

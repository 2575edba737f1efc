package html

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/fwojciec/readable"
	"github.com/go-shiori/dom"
	"golang.org/x/net/html"
)

var (
	rxMetaName     = regexp.MustCompile(`(?i)^\s*((twitter)\s*:\s*)?(description|title)\s*$`)
	rxMetaProperty = regexp.MustCompile(`(?i)^\s*og\s*:\s*(description|title|site_name)\s*$`)
	rxSpace        = regexp.MustCompile(`\s`)
	rxWords        = regexp.MustCompile(`\s+`)
	rxCharset      = regexp.MustCompile(`(?i)charset\s*=\s*["']?([\w-]+)`)

	rxTitleSeparator     = regexp.MustCompile(` [|\-/>»] `)
	rxTitleHierarchical  = regexp.MustCompile(` [/>»] `)
	rxTitleBeforeLast    = regexp.MustCompile(`(?i)(.*)[|\-/>»] .*`)
	rxTitleAfterFirst    = regexp.MustCompile(`(?i)[^|\-/>»]*[|\-/>»](.*)`)
	rxTitleSeparatorRuns = regexp.MustCompile(`[|\-/>»]+`)

	rxJSONLDArticle   = regexp.MustCompile(`Article|NewsArticle|BlogPosting|ReportageNewsArticle`)
	rxJSONLDName      = regexp.MustCompile(`"name"\s*:\s*"([^"]+)"`)
	rxJSONLDHeadline  = regexp.MustCompile(`"headline"\s*:\s*"([^"]+)"`)
	rxJSONLDAuthorObj = regexp.MustCompile(`"author"\s*:\s*\{[^}]*"name"\s*:\s*"([^"]+)"`)
	rxJSONLDAuthor    = regexp.MustCompile(`"author"\s*:\s*"([^"]+)"`)
	rxJSONLDDesc      = regexp.MustCompile(`"description"\s*:\s*"([^"]+)"`)
	rxJSONLDPublisher = regexp.MustCompile(`"publisher"\s*:\s*\{[^}]*"name"\s*:\s*"([^"]+)"`)
	rxJSONLDPublished = regexp.MustCompile(`"datePublished"\s*:\s*"([^"]+)"`)
)

// Ensure MetadataParser implements readable.MetadataParser.
var _ readable.MetadataParser = (*MetadataParser)(nil)

// MetadataParser reads title, byline, excerpt, site name and publish date
// from <meta> tags, JSON-LD and the document title.
type MetadataParser struct {
	logger *slog.Logger
}

// NewMetadataParser creates a MetadataParser. A nil logger discards output.
func NewMetadataParser(logger *slog.Logger) *MetadataParser {
	if logger == nil {
		logger = discardLogger()
	}
	return &MetadataParser{logger: logger}
}

// ParseMetadata implements readable.MetadataParser.
func (p *MetadataParser) ParseMetadata(doc *html.Node, disableJSONLD bool) *readable.Metadata {
	var byline, publishedTime string
	values := make(map[string]string)

	for _, meta := range dom.GetElementsByTagName(doc, "meta") {
		name := dom.GetAttribute(meta, "name")
		property := dom.GetAttribute(meta, "property")
		content := dom.GetAttribute(meta, "content")

		if name == "author" || property == "author" {
			byline = content
			continue
		}
		if property == "article:published_time" || name == "parsely-pub-date" {
			publishedTime = content
			continue
		}

		var key string
		switch {
		case rxMetaName.MatchString(name):
			key = name
		case rxMetaProperty.MatchString(property):
			key = property
		default:
			continue
		}
		if strings.TrimSpace(content) == "" {
			continue
		}
		key = rxSpace.ReplaceAllString(strings.ToLower(key), "")
		values[key] = strings.ReplaceAll(strings.TrimSpace(content), "  ", " ")
	}

	var title, excerpt, siteName string
	if !disableJSONLD {
		if ld := p.jsonLD(doc); ld != nil {
			title = ld.Title
			excerpt = ld.Excerpt
			siteName = ld.SiteName
			if strings.TrimSpace(byline) == "" {
				byline = ld.Byline
			}
			if strings.TrimSpace(publishedTime) == "" {
				publishedTime = ld.PublishedTime
			}
		}
	}

	if strings.TrimSpace(excerpt) == "" {
		excerpt = firstValue(values, "description", "og:description", "twitter:description")
	}
	if strings.TrimSpace(siteName) == "" {
		siteName = values["og:site_name"]
	}
	if strings.TrimSpace(title) == "" {
		title = articleTitle(doc)
	}
	if strings.TrimSpace(title) == "" {
		title = firstValue(values, "og:title", "twitter:title")
	}

	return &readable.Metadata{
		Title:         readable.UnescapeHTMLEntities(title),
		Byline:        readable.UnescapeHTMLEntities(byline),
		Excerpt:       readable.UnescapeHTMLEntities(excerpt),
		SiteName:      readable.UnescapeHTMLEntities(siteName),
		PublishedTime: readable.UnescapeHTMLEntities(publishedTime),
		Charset:       declaredCharset(doc),
	}
}

func firstValue(values map[string]string, keys ...string) string {
	for _, key := range keys {
		if v, ok := values[key]; ok {
			return v
		}
	}
	return ""
}

// jsonLD returns the fields of the first JSON-LD block that describes an
// article. Fields are pulled out by pattern, so malformed JSON still
// yields whatever matches.
func (p *MetadataParser) jsonLD(doc *html.Node) *readable.Metadata {
	for _, script := range dom.GetElementsByTagName(doc, "script") {
		if dom.GetAttribute(script, "type") != "application/ld+json" {
			continue
		}
		content := dom.TextContent(script)
		if strings.TrimSpace(content) == "" || !rxJSONLDArticle.MatchString(content) {
			continue
		}

		name := submatch(rxJSONLDName, content)
		headline := submatch(rxJSONLDHeadline, content)
		title := headline
		if title == "" {
			title = name
		}
		if strings.TrimSpace(name) != "" && strings.TrimSpace(headline) != "" && name != headline {
			docTitle := documentTitle(doc)
			if readable.TextSimilarity(name, docTitle) > readable.TextSimilarity(headline, docTitle) {
				title = name
			}
		}

		byline := submatch(rxJSONLDAuthorObj, content)
		if byline == "" {
			byline = submatch(rxJSONLDAuthor, content)
		}

		p.logger.Debug("found json-ld article", "title", title)
		return &readable.Metadata{
			Title:         title,
			Byline:        byline,
			Excerpt:       submatch(rxJSONLDDesc, content),
			SiteName:      submatch(rxJSONLDPublisher, content),
			PublishedTime: submatch(rxJSONLDPublished, content),
		}
	}
	return nil
}

func submatch(rx *regexp.Regexp, s string) string {
	m := rx.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	return m[1]
}

// documentTitle returns the normalized text of the first <title>.
func documentTitle(doc *html.Node) string {
	if title := firstTag(doc, "title"); title != nil {
		return InnerText(title)
	}
	return ""
}

// articleTitle derives the article title from <title>, stripping site
// names separated by "|", "-", "/", ">" or "»" and prefixes ending in a
// colon, and falling back to the only <h1> when the title is implausibly
// short or long.
func articleTitle(doc *html.Node) string {
	origTitle := documentTitle(doc)
	if strings.TrimSpace(origTitle) == "" {
		if n := dom.GetElementByID(doc, "title"); n != nil {
			origTitle = InnerText(n)
		}
	}
	curTitle := origTitle
	hadHierarchical := false

	switch {
	case rxTitleSeparator.MatchString(curTitle):
		hadHierarchical = rxTitleHierarchical.MatchString(curTitle)
		curTitle = rxTitleBeforeLast.ReplaceAllString(origTitle, "${1}")
		if wordCount(curTitle) < 3 {
			curTitle = rxTitleAfterFirst.ReplaceAllString(origTitle, "${1}")
		}
	case strings.Contains(curTitle, ": "):
		if headingMatches(doc, curTitle) {
			break
		}
		curTitle = origTitle[strings.LastIndex(origTitle, ":")+1:]
		if wordCount(curTitle) < 3 {
			curTitle = origTitle[strings.Index(origTitle, ":")+1:]
		} else if wordCount(origTitle[:strings.Index(origTitle, ":")]) > 5 {
			curTitle = origTitle
		}
	case textLen(curTitle) > 150 || textLen(curTitle) < 15:
		if h1s := dom.GetElementsByTagName(doc, "h1"); len(h1s) == 1 {
			curTitle = InnerText(h1s[0])
		}
	}

	curTitle = strings.TrimSpace(curTitle)
	n := wordCount(curTitle)
	if n <= 4 && (!hadHierarchical || n != wordCount(rxTitleSeparatorRuns.ReplaceAllString(origTitle, ""))-1) {
		curTitle = origTitle
	}
	return curTitle
}

func headingMatches(doc *html.Node, title string) bool {
	for _, tag := range []string{"h1", "h2"} {
		for _, h := range dom.GetElementsByTagName(doc, tag) {
			if dom.TextContent(h) == title {
				return true
			}
		}
	}
	return false
}

// wordCount splits on whitespace runs without dropping empty leading or
// trailing fields, so " a b" counts three.
func wordCount(s string) int {
	return len(rxWords.Split(s, -1))
}

// declaredCharset returns the charset declared by <meta charset> or a
// Content-Type http-equiv, upper-cased, or "".
func declaredCharset(doc *html.Node) string {
	for _, meta := range dom.GetElementsByTagName(doc, "meta") {
		if cs := strings.TrimSpace(dom.GetAttribute(meta, "charset")); cs != "" {
			return strings.ToUpper(cs)
		}
		if strings.EqualFold(dom.GetAttribute(meta, "http-equiv"), "content-type") {
			if cs := submatch(rxCharset, dom.GetAttribute(meta, "content")); cs != "" {
				return strings.ToUpper(cs)
			}
		}
	}
	return ""
}

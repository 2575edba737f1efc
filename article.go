package readable

import (
	"context"
	"fmt"

	"golang.org/x/net/html"
)

// Metadata holds document-level information discovered from <meta> tags,
// JSON-LD blocks and the document title. All fields are optional.
type Metadata struct {
	Title         string `json:"title,omitempty"`
	Byline        string `json:"byline,omitempty"`
	Excerpt       string `json:"excerpt,omitempty"`
	Dir           string `json:"dir,omitempty"`
	Charset       string `json:"charset,omitempty"`
	Lang          string `json:"lang,omitempty"`
	SiteName      string `json:"siteName,omitempty"`
	PublishedTime string `json:"publishedTime,omitempty"`
}

// Article is the result of extracting readable content from a document.
//
// Node references the extracted subtree inside the (now mutated) source
// document. A nil Node means no article was found; in that case Content and
// TextContent are empty and Length is -1.
type Article struct {
	URI string `json:"uri"`
	Metadata

	Node        *html.Node `json:"-"`
	Content     string     `json:"content,omitempty"`
	TextContent string     `json:"textContent,omitempty"`
	Length      int        `json:"length"`
}

// HasContent reports whether extraction produced an article body.
func (a *Article) HasContent() bool {
	return a.Node != nil
}

// Validate returns an error if the article contains invalid fields.
func (a *Article) Validate() error {
	if a.URI == "" {
		return Errorf(EINVALID, "article URI required")
	}
	return nil
}

const encodedDocumentFormat = "<html>\n  <head>\n    <meta charset=\"%s\"/>\n  </head>\n  <body>\n    %s\n  </body>\n</html>"

// ContentWithEncoding wraps Content in a minimal HTML document declaring
// the given charset. Returns an empty string when there is no content.
func (a *Article) ContentWithEncoding(charset string) string {
	if !a.HasContent() {
		return ""
	}
	return fmt.Sprintf(encodedDocumentFormat, charset, a.Content)
}

// ContentWithUTF8Encoding is ContentWithEncoding("utf-8").
func (a *Article) ContentWithUTF8Encoding() string {
	return a.ContentWithEncoding("utf-8")
}

// ContentWithDocumentCharsetOrUTF8 wraps Content using the document's own
// charset, falling back to utf-8.
func (a *Article) ContentWithDocumentCharsetOrUTF8() string {
	if a.Charset == "" {
		return a.ContentWithUTF8Encoding()
	}
	return a.ContentWithEncoding(a.Charset)
}

// ArticleWriter persists extracted articles.
type ArticleWriter interface {
	WriteArticle(ctx context.Context, article *Article) error
}

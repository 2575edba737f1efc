package readable

import "context"

// Extractor turns raw HTML into an Article.
type Extractor interface {
	// Extract parses rawHTML fetched from uri and returns the extracted
	// article. A page without an article is not an error: the returned
	// Article has no content and Length -1.
	Extract(ctx context.Context, uri string, rawHTML string) (*Article, error)
}

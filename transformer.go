package readable

import (
	"sort"
	"strings"
)

// URLTransformer rewrites a document URI before extraction, for example to
// a variant of the page with richer server-rendered markup.
type URLTransformer interface {
	Transform(url string) string
	Priority() int
}

// TransformURL applies transformers to url in descending priority order.
// Transformers with equal priority keep their relative order.
func TransformURL(url string, transformers []URLTransformer) string {
	if len(transformers) == 0 {
		return url
	}
	sorted := make([]URLTransformer, len(transformers))
	copy(sorted, transformers)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority() > sorted[j].Priority()
	})
	for _, t := range sorted {
		url = t.Transform(url)
	}
	return url
}

var _ URLTransformer = RedditURLTransformer{}

// RedditURLTransformer rewrites reddit.com URLs to old.reddit.com, which
// serves the full thread without JavaScript.
type RedditURLTransformer struct{}

// Transform rewrites the reddit host.
func (RedditURLTransformer) Transform(url string) string {
	switch {
	case strings.Contains(url, "old.reddit.com"):
		return url
	case strings.Contains(url, "www.reddit.com"):
		return strings.Replace(url, "www.reddit.com", "old.reddit.com", 1)
	case strings.Contains(url, "reddit.com"):
		return strings.Replace(url, "reddit.com", "old.reddit.com", 1)
	}
	return url
}

// Priority returns 100.
func (RedditURLTransformer) Priority() int { return 100 }

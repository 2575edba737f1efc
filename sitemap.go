package readable

import (
	"context"
	"regexp"
	"time"
)

// SitemapEntry is a page listed in a sitemap.
type SitemapEntry struct {
	URL string

	// Modified is the news publication date, or lastmod when absent.
	// Zero when the sitemap gives neither.
	Modified time.Time

	// Title is the news:title of the entry, if any.
	Title string
}

// SitemapService discovers article URLs from website sitemaps.
type SitemapService interface {
	// DiscoverArticles lists the pages of the site at siteURL, newest first.
	// Sitemap locations come from robots.txt with /sitemap.xml as the
	// fallback; sitemap indexes are resolved recursively. When siteURL has
	// a path, only pages below it are returned. A nil filter passes every
	// page.
	DiscoverArticles(ctx context.Context, siteURL string, filter *URLFilter) ([]SitemapEntry, error)
}

// URLFilter specifies patterns for including and excluding URLs.
type URLFilter struct {
	// Include patterns: if set, only URLs matching at least one pattern pass.
	Include []*regexp.Regexp

	// Exclude patterns: URLs matching any pattern are dropped.
	// Exclude is applied after Include.
	Exclude []*regexp.Regexp

	// Since drops entries modified before it. Entries without a date pass.
	Since time.Time
}

// Match reports whether the entry passes the filter.
// If the filter is nil, all entries pass.
func (f *URLFilter) Match(e SitemapEntry) bool {
	if f == nil {
		return true
	}

	if len(f.Include) > 0 {
		matched := false
		for _, re := range f.Include {
			if re.MatchString(e.URL) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	for _, re := range f.Exclude {
		if re.MatchString(e.URL) {
			return false
		}
	}

	if !f.Since.IsZero() && !e.Modified.IsZero() && e.Modified.Before(f.Since) {
		return false
	}

	return true
}

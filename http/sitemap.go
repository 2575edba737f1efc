package http

import (
	"bufio"
	"cmp"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/beevik/etree"
	"github.com/fwojciec/readable"
)

// Ensure SitemapService implements readable.SitemapService.
var _ readable.SitemapService = (*SitemapService)(nil)

// SitemapService discovers article URLs from website sitemaps via HTTP.
// It understands plain sitemaps, sitemap indexes and Google News sitemaps.
type SitemapService struct {
	client    *http.Client
	userAgent string
}

// NewSitemapService creates a new SitemapService with the given HTTP client.
// If client is nil, http.DefaultClient is used.
func NewSitemapService(client *http.Client) *SitemapService {
	if client == nil {
		client = http.DefaultClient
	}
	return &SitemapService{client: client, userAgent: DefaultUserAgent}
}

// DiscoverArticles implements readable.SitemapService.
func (s *SitemapService) DiscoverArticles(ctx context.Context, siteURL string, filter *readable.URLFilter) ([]readable.SitemapEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	base, err := url.Parse(siteURL)
	if err != nil || base.Host == "" {
		return nil, readable.Errorf(readable.EINVALID, "invalid site URL %q", siteURL)
	}

	pathPrefix := base.Path
	if pathPrefix == "/" {
		pathPrefix = ""
	}

	root := *base
	root.Path = ""
	root.RawQuery = ""
	root.Fragment = ""

	sitemapURLs, err := s.findSitemapURLs(ctx, &root)
	if err != nil {
		return nil, err
	}

	var entries []readable.SitemapEntry
	seenSitemaps := make(map[string]bool)
	seenURLs := make(map[string]bool)
	for _, sitemapURL := range sitemapURLs {
		found, err := s.processSitemap(ctx, sitemapURL, seenSitemaps)
		if err != nil {
			return nil, err
		}
		for _, e := range found {
			if seenURLs[e.URL] {
				continue
			}
			seenURLs[e.URL] = true
			if pathPrefix != "" && !matchesPathPrefix(e.URL, pathPrefix) {
				continue
			}
			if !filter.Match(e) {
				continue
			}
			entries = append(entries, e)
		}
	}

	slices.SortStableFunc(entries, func(a, b readable.SitemapEntry) int {
		return cmp.Compare(b.Modified.Unix(), a.Modified.Unix())
	})

	if entries == nil {
		entries = []readable.SitemapEntry{}
	}
	return entries, nil
}

// matchesPathPrefix checks if a URL's path starts with prefix on a path
// boundary: /news matches /news/ and /news/world but not /newsletter.
func matchesPathPrefix(rawURL, prefix string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return strings.HasPrefix(parsed.Path, prefix)
}

// findSitemapURLs reads Sitemap directives from robots.txt and falls back
// to /sitemap.xml.
func (s *SitemapService) findSitemapURLs(ctx context.Context, base *url.URL) ([]string, error) {
	robotsURL := base.ResolveReference(&url.URL{Path: "/robots.txt"})
	sitemaps, err := s.parseSitemapsFromRobots(ctx, robotsURL.String())
	if err == nil && len(sitemaps) > 0 {
		return sitemaps, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return []string{base.ResolveReference(&url.URL{Path: "/sitemap.xml"}).String()}, nil
}

// parseSitemapsFromRobots extracts Sitemap: directives from robots.txt.
func (s *SitemapService) parseSitemapsFromRobots(ctx context.Context, robotsURL string) ([]string, error) {
	body, err := s.fetchURL(ctx, robotsURL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	var sitemaps []string
	scanner := bufio.NewScanner(body)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if len(line) > len("sitemap:") && strings.EqualFold(line[:len("sitemap:")], "sitemap:") {
			if u := strings.TrimSpace(line[len("sitemap:"):]); u != "" {
				sitemaps = append(sitemaps, u)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading robots.txt: %w", err)
	}

	return sitemaps, nil
}

// processSitemap fetches and parses a sitemap, handling both urlset and
// sitemapindex roots.
func (s *SitemapService) processSitemap(ctx context.Context, sitemapURL string, seen map[string]bool) ([]readable.SitemapEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if seen[sitemapURL] {
		return nil, nil
	}
	seen[sitemapURL] = true

	body, err := s.fetchURL(ctx, sitemapURL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(body); err != nil {
		return nil, readable.Errorf(readable.EINVALID, "parsing sitemap %s: %v", sitemapURL, err)
	}

	root := doc.Root()
	if root == nil {
		return nil, readable.Errorf(readable.EINVALID, "empty sitemap %s", sitemapURL)
	}

	if root.Tag == "sitemapindex" {
		return s.processSitemapIndex(ctx, root, seen)
	}
	return parseURLSet(root), nil
}

// processSitemapIndex follows every <sitemap><loc> of an index.
func (s *SitemapService) processSitemapIndex(ctx context.Context, root *etree.Element, seen map[string]bool) ([]readable.SitemapEntry, error) {
	var entries []readable.SitemapEntry
	for _, sitemap := range root.SelectElements("sitemap") {
		loc := childText(sitemap, "loc")
		if loc == "" {
			continue
		}
		found, err := s.processSitemap(ctx, loc, seen)
		if err != nil {
			return nil, err
		}
		entries = append(entries, found...)
	}
	return entries, nil
}

// parseURLSet reads the entries of a <urlset>, including the news
// extension fields.
func parseURLSet(root *etree.Element) []readable.SitemapEntry {
	var entries []readable.SitemapEntry
	for _, el := range root.SelectElements("url") {
		loc := childText(el, "loc")
		if loc == "" {
			continue
		}
		e := readable.SitemapEntry{URL: loc, Modified: parseDate(childText(el, "lastmod"))}
		if news := el.SelectElement("news"); news != nil {
			e.Title = childText(news, "title")
			if t := parseDate(childText(news, "publication_date")); !t.IsZero() {
				e.Modified = t
			}
		}
		entries = append(entries, e)
	}
	return entries
}

func childText(el *etree.Element, tag string) string {
	child := el.SelectElement(tag)
	if child == nil {
		return ""
	}
	return strings.TrimSpace(child.Text())
}

func parseDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := dateparse.ParseAny(s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// fetchURL fetches a URL and returns the response body.
func (s *SitemapService) fetchURL(ctx context.Context, targetURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, readable.Errorf(readable.EINVALID, "invalid URL %q", targetURL)
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		resp.Body.Close()
		return nil, readable.Errorf(readable.ENOTFOUND, "sitemap not found: %s", targetURL)
	case resp.StatusCode != http.StatusOK:
		resp.Body.Close()
		return nil, &readable.StatusError{URL: targetURL, StatusCode: resp.StatusCode}
	}

	return resp.Body, nil
}

package http_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/fwojciec/readable"
	readablehttp "github.com/fwojciec/readable/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func urlsOf(entries []readable.SitemapEntry) []string {
	urls := make([]string, 0, len(entries))
	for _, e := range entries {
		urls = append(urls, e.URL)
	}
	return urls
}

func TestSitemapService_DiscoverArticles(t *testing.T) {
	t.Parallel()

	t.Run("reads sitemaps listed in robots.txt", func(t *testing.T) {
		t.Parallel()

		srv := newTestServer(t, map[string]string{
			"/robots.txt": "User-agent: *\nDisallow: /private/\nsitemap: {{BASE}}/sitemap-a.xml\nSitemap: {{BASE}}/sitemap-b.xml\n",
			"/sitemap-a.xml": `<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url><loc>{{BASE}}/news/one</loc></url>
</urlset>`,
			"/sitemap-b.xml": `<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url><loc>{{BASE}}/news/two</loc></url>
  <url><loc>{{BASE}}/news/one</loc></url>
</urlset>`,
		})

		svc := readablehttp.NewSitemapService(srv.Client())
		entries, err := svc.DiscoverArticles(context.Background(), srv.URL, nil)

		require.NoError(t, err)
		assert.ElementsMatch(t, []string{srv.URL + "/news/one", srv.URL + "/news/two"}, urlsOf(entries))
	})

	t.Run("falls back to sitemap.xml and follows indexes", func(t *testing.T) {
		t.Parallel()

		srv := newTestServer(t, map[string]string{
			"/sitemap.xml": `<?xml version="1.0" encoding="UTF-8"?>
<sitemapindex xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <sitemap><loc>{{BASE}}/sitemap-world.xml</loc></sitemap>
  <sitemap><loc>{{BASE}}/sitemap-world.xml</loc></sitemap>
  <sitemap><loc>{{BASE}}/sitemap-sport.xml</loc></sitemap>
</sitemapindex>`,
			"/sitemap-world.xml": `<urlset><url><loc>{{BASE}}/world/story</loc></url></urlset>`,
			"/sitemap-sport.xml": `<urlset><url><loc>{{BASE}}/sport/story</loc></url></urlset>`,
		})

		svc := readablehttp.NewSitemapService(srv.Client())
		entries, err := svc.DiscoverArticles(context.Background(), srv.URL, nil)

		require.NoError(t, err)
		assert.ElementsMatch(t, []string{srv.URL + "/world/story", srv.URL + "/sport/story"}, urlsOf(entries))
	})

	t.Run("reads news dates and titles newest first", func(t *testing.T) {
		t.Parallel()

		srv := newTestServer(t, map[string]string{
			"/sitemap.xml": `<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9"
        xmlns:news="http://www.google.com/schemas/sitemap-news/0.9">
  <url><loc>{{BASE}}/news/undated</loc></url>
  <url>
    <loc>{{BASE}}/news/older</loc>
    <lastmod>2024-03-01T08:00:00Z</lastmod>
  </url>
  <url>
    <loc>{{BASE}}/news/newer</loc>
    <lastmod>2024-01-01T00:00:00Z</lastmod>
    <news:news>
      <news:publication>
        <news:name>Example News</news:name>
        <news:language>en</news:language>
      </news:publication>
      <news:publication_date>2024-03-05T10:00:00Z</news:publication_date>
      <news:title>Committee Agrees To Publish Its Findings</news:title>
    </news:news>
  </url>
</urlset>`,
		})

		svc := readablehttp.NewSitemapService(srv.Client())
		entries, err := svc.DiscoverArticles(context.Background(), srv.URL, nil)

		require.NoError(t, err)
		require.Len(t, entries, 3)
		assert.Equal(t, srv.URL+"/news/newer", entries[0].URL)
		assert.Equal(t, "Committee Agrees To Publish Its Findings", entries[0].Title)
		assert.True(t, entries[0].Modified.Equal(time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)))
		assert.Equal(t, srv.URL+"/news/older", entries[1].URL)
		assert.Equal(t, srv.URL+"/news/undated", entries[2].URL)
		assert.True(t, entries[2].Modified.IsZero())
	})

	t.Run("limits results to the site path", func(t *testing.T) {
		t.Parallel()

		srv := newTestServer(t, map[string]string{
			"/sitemap.xml": `<urlset>
  <url><loc>{{BASE}}/news/story</loc></url>
  <url><loc>{{BASE}}/newsletter/signup</loc></url>
  <url><loc>{{BASE}}/about</loc></url>
</urlset>`,
		})

		svc := readablehttp.NewSitemapService(srv.Client())
		entries, err := svc.DiscoverArticles(context.Background(), srv.URL+"/news", nil)

		require.NoError(t, err)
		assert.Equal(t, []string{srv.URL + "/news/story"}, urlsOf(entries))
	})

	t.Run("applies the filter", func(t *testing.T) {
		t.Parallel()

		srv := newTestServer(t, map[string]string{
			"/sitemap.xml": `<urlset>
  <url><loc>{{BASE}}/news/2024/story</loc><lastmod>2024-03-05</lastmod></url>
  <url><loc>{{BASE}}/news/2023/story</loc><lastmod>2023-03-05</lastmod></url>
  <url><loc>{{BASE}}/news/2024/gallery</loc><lastmod>2024-03-05</lastmod></url>
  <url><loc>{{BASE}}/video/2024/clip</loc><lastmod>2024-03-05</lastmod></url>
</urlset>`,
		})

		filter := &readable.URLFilter{
			Include: []*regexp.Regexp{regexp.MustCompile(`/news/`)},
			Exclude: []*regexp.Regexp{regexp.MustCompile(`gallery`)},
			Since:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		}
		svc := readablehttp.NewSitemapService(srv.Client())
		entries, err := svc.DiscoverArticles(context.Background(), srv.URL, filter)

		require.NoError(t, err)
		assert.Equal(t, []string{srv.URL + "/news/2024/story"}, urlsOf(entries))
	})

	t.Run("returns not found without a sitemap", func(t *testing.T) {
		t.Parallel()

		srv := newTestServer(t, map[string]string{})

		svc := readablehttp.NewSitemapService(srv.Client())
		_, err := svc.DiscoverArticles(context.Background(), srv.URL, nil)

		assert.Equal(t, readable.ENOTFOUND, readable.ErrorCode(err))
	})

	t.Run("rejects malformed XML", func(t *testing.T) {
		t.Parallel()

		srv := newTestServer(t, map[string]string{"/sitemap.xml": "<urlset><<"})

		svc := readablehttp.NewSitemapService(srv.Client())
		_, err := svc.DiscoverArticles(context.Background(), srv.URL, nil)

		assert.Equal(t, readable.EINVALID, readable.ErrorCode(err))
	})

	t.Run("rejects an invalid site URL", func(t *testing.T) {
		t.Parallel()

		_, err := readablehttp.NewSitemapService(nil).DiscoverArticles(context.Background(), "not a url", nil)

		assert.Equal(t, readable.EINVALID, readable.ErrorCode(err))
	})

	t.Run("returns the context error", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := readablehttp.NewSitemapService(nil).DiscoverArticles(ctx, "https://example.com", nil)

		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestURLFilter_Match(t *testing.T) {
	t.Parallel()

	var nilFilter *readable.URLFilter
	assert.True(t, nilFilter.Match(readable.SitemapEntry{URL: "https://example.com/a"}))

	f := &readable.URLFilter{Since: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	assert.True(t, f.Match(readable.SitemapEntry{URL: "https://example.com/undated"}))
	assert.False(t, f.Match(readable.SitemapEntry{URL: "https://example.com/old", Modified: time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)}))
}

// newTestServer creates a test HTTP server with the given path->content mapping.
// Content strings may contain {{BASE}} which is replaced with the server URL.
func newTestServer(t *testing.T, content map[string]string) *httptest.Server {
	t.Helper()

	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := content[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		if r.URL.Path == "/robots.txt" {
			w.Header().Set("Content-Type", "text/plain")
		} else {
			w.Header().Set("Content-Type", "application/xml")
		}
		_, _ = w.Write([]byte(strings.ReplaceAll(body, "{{BASE}}", srv.URL)))
	}))
	t.Cleanup(srv.Close)

	return srv
}

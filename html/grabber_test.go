package html_test

import (
	"bytes"
	"context"
	"log/slog"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/fwojciec/readable"
	readablehtml "github.com/fwojciec/readable/html"
	"github.com/go-shiori/dom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

const sentence = "The committee met on Tuesday to review the proposal, and after a long discussion the members agreed to publish the findings next week."

// paragraphs returns n copies of sentence wrapped in <p> tags.
func paragraphs(n int) string {
	return strings.Repeat("<p>"+sentence+"</p>\n", n)
}

func TestArticleGrabber_Grab(t *testing.T) {
	t.Parallel()

	t.Run("extracts the main content and drops page chrome", func(t *testing.T) {
		t.Parallel()

		doc := mustParse(t, `<html lang="fr" dir="rtl"><head><title>Report</title></head><body>
<header class="site-header"><a href="/">Home</a> and some navigation links</header>
<div id="main" class="article-body">
<p class="byline">By Jane Smith</p>
`+paragraphs(5)+`</div>
<div class="sidebar"><p>Other stories you might enjoy reading today, from around the site.</p></div>
<footer class="footer">Copyright 2024</footer>
</body></html>`)

		g := readablehtml.NewArticleGrabber(readable.DefaultOptions(), nil)
		content, err := g.Grab(context.Background(), doc, &readable.Metadata{Title: "Report"}, readable.DefaultGrabOptions(), nil)

		require.NoError(t, err)
		require.NotNil(t, content)
		out := render(t, content)
		assert.Contains(t, out, `id="readability-page-1"`)
		assert.Contains(t, out, `class="page"`)
		assert.Contains(t, out, "publish the findings next week")
		assert.NotContains(t, out, "navigation links")
		assert.NotContains(t, out, "Other stories")
		assert.NotContains(t, out, "Copyright")
		assert.NotContains(t, out, "By Jane Smith")
		assert.Equal(t, "By Jane Smith", g.Byline())
		assert.Equal(t, "rtl", g.Dir())
		assert.Equal(t, "fr", g.Lang())
	})

	t.Run("relaxes the rules when the strict attempt is too short", func(t *testing.T) {
		t.Parallel()

		doc := mustParse(t, `<html><body><div class="sidebar">`+paragraphs(5)+`</div></body></html>`)

		g := readablehtml.NewArticleGrabber(readable.DefaultOptions(), nil)
		content, err := g.Grab(context.Background(), doc, nil, readable.DefaultGrabOptions(), nil)

		require.NoError(t, err)
		require.NotNil(t, content)
		assert.Equal(t, 5, strings.Count(readablehtml.InnerText(content), "publish the findings"))
	})

	t.Run("returns the longest attempt below the threshold", func(t *testing.T) {
		t.Parallel()

		doc := mustParse(t, `<html><body><div id="main" class="article-body">`+paragraphs(2)+`</div></body></html>`)

		g := readablehtml.NewArticleGrabber(readable.DefaultOptions(), nil)
		content, err := g.Grab(context.Background(), doc, nil, readable.DefaultGrabOptions(), nil)

		require.NoError(t, err)
		require.NotNil(t, content)
		assert.Equal(t, 2, strings.Count(readablehtml.InnerText(content), "publish the findings"))
	})

	t.Run("returns nil when no attempt finds text", func(t *testing.T) {
		t.Parallel()

		doc := mustParse(t, `<html><body><img src="photo.jpg"></body></html>`)

		g := readablehtml.NewArticleGrabber(readable.DefaultOptions(), nil)
		content, err := g.Grab(context.Background(), doc, nil, readable.DefaultGrabOptions(), nil)

		require.NoError(t, err)
		assert.Nil(t, content)
	})

	t.Run("appends related sibling paragraphs", func(t *testing.T) {
		t.Parallel()

		doc := mustParse(t, `<html><body>
<div id="main" class="article-body">`+paragraphs(5)+`</div>
<p>A closing paragraph outside the main container that still reads like part of the same story.</p>
<p><a href="/elsewhere">A paragraph made entirely of a link to some other page on this website</a></p>
</body></html>`)

		g := readablehtml.NewArticleGrabber(readable.DefaultOptions(), nil)
		content, err := g.Grab(context.Background(), doc, nil, readable.DefaultGrabOptions(), nil)

		require.NoError(t, err)
		require.NotNil(t, content)
		text := readablehtml.InnerText(content)
		assert.Contains(t, text, "A closing paragraph outside the main container")
		assert.NotContains(t, text, "made entirely of a link")
	})

	t.Run("marks paged content", func(t *testing.T) {
		t.Parallel()

		doc := mustParse(t, `<html><body><div id="wrapper"><div id="main" class="article-body">`+paragraphs(5)+`</div></div></body></html>`)
		page := dom.GetElementByID(doc, "wrapper")

		g := readablehtml.NewArticleGrabber(readable.DefaultOptions(), nil)
		content, err := g.Grab(context.Background(), doc, nil, readable.DefaultGrabOptions(), page)

		require.NoError(t, err)
		require.NotNil(t, content)
		assert.Equal(t, "readability-content", dom.GetAttribute(content, "id"))
	})

	t.Run("stops when the context is canceled", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		doc := mustParse(t, `<html><body>`+paragraphs(5)+`</body></html>`)

		g := readablehtml.NewArticleGrabber(readable.DefaultOptions(), nil)
		content, err := g.Grab(ctx, doc, nil, readable.DefaultGrabOptions(), nil)

		require.ErrorIs(t, err, context.Canceled)
		assert.Nil(t, content)
	})

	t.Run("skips candidates rejected by filters", func(t *testing.T) {
		t.Parallel()

		doc := mustParse(t, `<html><body>
<div id="main" class="article-body">`+paragraphs(5)+`</div>
<div id="aside-story" class="story">`+paragraphs(3)+`<p>Only the second story mentions the harbour.</p></div>
</body></html>`)
		rejectMain := readable.CandidateFilterFunc(func(n *html.Node) bool {
			return dom.GetAttribute(n, "id") != "main"
		})

		g := readablehtml.NewArticleGrabber(readable.DefaultOptions(), nil, rejectMain)
		content, err := g.Grab(context.Background(), doc, nil, readable.DefaultGrabOptions(), nil)

		require.NoError(t, err)
		require.NotNil(t, content)
		assert.Contains(t, readablehtml.InnerText(content), "harbour")
	})
}

func TestBlockquoteDescendantFilter(t *testing.T) {
	t.Parallel()

	doc := mustParse(t, `<html><body><blockquote><div id="quoted"><p>quoted</p></div></blockquote><div id="plain"></div></body></html>`)
	filter := readablehtml.BlockquoteDescendantFilter()

	assert.False(t, filter.IncludeCandidate(dom.GetElementByID(doc, "quoted")))
	assert.True(t, filter.IncludeCandidate(dom.GetElementByID(doc, "plain")))
}

// attemptLengths returns the text length logged for each extraction attempt.
func attemptLengths(t *testing.T, log string) []int {
	t.Helper()
	var lengths []int
	for _, m := range regexp.MustCompile(`msg="extraction attempt" attempt=\d+ .*length=(\d+)`).FindAllStringSubmatch(log, -1) {
		n, err := strconv.Atoi(m[1])
		require.NoError(t, err)
		lengths = append(lengths, n)
	}
	return lengths
}

func grabLogged(t *testing.T, page string, threshold int) (*html.Node, []int) {
	t.Helper()
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	opts := readable.DefaultOptions()
	opts.CharThreshold = threshold

	g := readablehtml.NewArticleGrabber(opts, logger)
	content, err := g.Grab(context.Background(), mustParse(t, page), nil, readable.DefaultGrabOptions(), nil)
	require.NoError(t, err)
	return content, attemptLengths(t, buf.String())
}

func TestArticleGrabber_Grab_Threshold(t *testing.T) {
	t.Parallel()

	page := `<html><body><div id="main" class="article-body">` + paragraphs(3) + `</div></body></html>`
	content, _ := grabLogged(t, page, 1)
	require.NotNil(t, content)
	length := utf8.RuneCountInString(readablehtml.InnerText(content))

	t.Run("accepts the first attempt at exactly the threshold", func(t *testing.T) {
		t.Parallel()

		content, lengths := grabLogged(t, page, length)

		require.NotNil(t, content)
		assert.Equal(t, []int{length}, lengths)
	})

	t.Run("walks the whole ladder one character below it", func(t *testing.T) {
		t.Parallel()

		content, lengths := grabLogged(t, page, length+1)

		require.NotNil(t, content)
		assert.Len(t, lengths, len(readable.DefaultGrabOptions().Ladder()))
		assert.Equal(t, slices.Max(lengths), utf8.RuneCountInString(readablehtml.InnerText(content)))
	})
}

func TestArticleGrabber_Grab_RelaxationKeepsMoreText(t *testing.T) {
	t.Parallel()

	page := `<html><body>
<div id="main" class="article">` + paragraphs(3) + `</div>
<div class="sidebar">` + paragraphs(2) + `</div>
</body></html>`

	content, lengths := grabLogged(t, page, 100000)

	require.NotNil(t, content)
	require.Len(t, lengths, 4)
	for i := 1; i < len(lengths); i++ {
		assert.GreaterOrEqual(t, lengths[i], lengths[i-1], "attempt %d", i+1)
	}
	assert.Greater(t, lengths[len(lengths)-1], lengths[0])
	assert.Equal(t, 5, strings.Count(readablehtml.InnerText(content), "publish the findings"))
}

package trafilatura_test

import (
	"context"
	"strings"
	"testing"

	"github.com/fwojciec/readable"
	"github.com/fwojciec/readable/trafilatura"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Ensure Extractor implements readable.Extractor at compile time.
var _ readable.Extractor = (*trafilatura.Extractor)(nil)

const storyParagraph = "The harbour lights came back on after a winter of repairs, and the fishing crews who depend on them were there to watch the first beam sweep across the water."

// newsPage wraps body in a news site chrome with the usual metadata.
func newsPage(body string) string {
	return `<!DOCTYPE html>
<html lang="en">
<head>
<title>Harbour lights return | Coast Gazette</title>
<meta name="author" content="Mara Quinn">
<meta name="description" content="Crews watch the first beam after repairs.">
<meta property="og:title" content="Harbour lights return">
<meta property="og:site_name" content="Coast Gazette">
<meta property="article:published_time" content="2024-03-05T08:30:00Z">
</head>
<body>
<nav class="site-nav"><ul><li><a href="/">Home</a></li><li><a href="/local">Local</a></li><li><a href="/sport">Sport</a></li></ul></nav>
` + body + `
<footer><p>Copyright 2024 Coast Gazette Ltd</p><nav>Privacy | Terms | Contact</nav></footer>
</body>
</html>`
}

func TestExtractor_Extract(t *testing.T) {
	t.Parallel()

	story := newsPage(`<article>
<h1>Harbour lights return</h1>
<p>` + strings.Repeat(storyParagraph+" ", 2) + `</p>
<p>` + strings.Repeat(storyParagraph+" ", 2) + `</p>
<pre><code>beam.interval = 4 * time.Second</code></pre>
</article>`)

	t.Run("maps metadata onto the article", func(t *testing.T) {
		t.Parallel()

		article, err := trafilatura.NewExtractor().Extract(context.Background(), "https://gazette.example/local/harbour-lights", story)

		require.NoError(t, err)
		assert.Equal(t, "https://gazette.example/local/harbour-lights", article.URI)
		assert.Contains(t, article.Title, "Harbour lights return")
		assert.Contains(t, article.Byline, "Mara Quinn")
		assert.Contains(t, article.SiteName, "Coast Gazette")
		assert.NotEmpty(t, article.Excerpt)
	})

	t.Run("keeps the story and drops site chrome", func(t *testing.T) {
		t.Parallel()

		article, err := trafilatura.NewExtractor().Extract(context.Background(), "https://gazette.example/local/harbour-lights", story)

		require.NoError(t, err)
		assert.True(t, article.HasContent())
		assert.Contains(t, article.TextContent, "first beam sweep across the water")
		assert.Contains(t, article.Content, "beam.interval")
		assert.NotContains(t, article.Content, "site-nav")
		assert.NotContains(t, article.TextContent, "Copyright 2024 Coast Gazette Ltd")
	})

	t.Run("counts characters of the text content", func(t *testing.T) {
		t.Parallel()

		article, err := trafilatura.NewExtractor().Extract(context.Background(), "https://gazette.example/", `<html><body><p>Ferry times changed – check the board.</p></body></html>`)

		require.NoError(t, err)
		assert.Contains(t, article.TextContent, "Ferry times changed")
		assert.Equal(t, len([]rune(article.TextContent)), article.Length)
		assert.NotNil(t, article.Node)
	})

	t.Run("accepts a URI that is not absolute", func(t *testing.T) {
		t.Parallel()

		article, err := trafilatura.NewExtractor().Extract(context.Background(), "local/harbour-lights", story)

		require.NoError(t, err)
		assert.Equal(t, "local/harbour-lights", article.URI)
	})

	t.Run("rejects empty input", func(t *testing.T) {
		t.Parallel()

		_, err := trafilatura.NewExtractor().Extract(context.Background(), "https://gazette.example/", " \n")

		assert.Equal(t, readable.EINVALID, readable.ErrorCode(err))
	})

	t.Run("returns the context error", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := trafilatura.NewExtractor().Extract(ctx, "https://gazette.example/", story)

		require.ErrorIs(t, err, context.Canceled)
	})
}

package readable_test

import (
	"testing"

	"github.com/fwojciec/readable"
	"github.com/stretchr/testify/assert"
	"golang.org/x/net/html"
)

func TestArticle_ContentWithEncoding(t *testing.T) {
	t.Parallel()

	t.Run("wraps content in document with charset", func(t *testing.T) {
		t.Parallel()

		a := &readable.Article{
			Node:    &html.Node{Type: html.ElementNode, Data: "div"},
			Content: "<p>Hi</p>",
		}

		want := "<html>\n  <head>\n    <meta charset=\"iso-8859-1\"/>\n  </head>\n  <body>\n    <p>Hi</p>\n  </body>\n</html>"
		assert.Equal(t, want, a.ContentWithEncoding("iso-8859-1"))
		assert.Contains(t, a.ContentWithUTF8Encoding(), `<meta charset="utf-8"/>`)
	})

	t.Run("uses document charset when known", func(t *testing.T) {
		t.Parallel()

		a := &readable.Article{
			Metadata: readable.Metadata{Charset: "windows-1251"},
			Node:     &html.Node{Type: html.ElementNode, Data: "div"},
			Content:  "x",
		}

		assert.Contains(t, a.ContentWithDocumentCharsetOrUTF8(), `<meta charset="windows-1251"/>`)
	})

	t.Run("empty without content", func(t *testing.T) {
		t.Parallel()

		a := &readable.Article{Length: -1}

		assert.False(t, a.HasContent())
		assert.Empty(t, a.ContentWithUTF8Encoding())
	})
}

func TestArticle_Validate(t *testing.T) {
	t.Parallel()

	assert.Equal(t, readable.EINVALID, readable.ErrorCode((&readable.Article{}).Validate()))
	assert.NoError(t, (&readable.Article{URI: "https://example.com"}).Validate())
}

func TestGrabOptions_Ladder(t *testing.T) {
	t.Parallel()

	t.Run("default options relax one flag per step", func(t *testing.T) {
		t.Parallel()

		ladder := readable.DefaultGrabOptions().Ladder()

		assert.Len(t, ladder, 4)
		assert.True(t, ladder[0].StripUnlikelyCandidates)
		assert.True(t, ladder[0].WeightClasses)
		assert.True(t, ladder[0].CleanConditionally)

		assert.False(t, ladder[1].StripUnlikelyCandidates)
		assert.True(t, ladder[1].WeightClasses)

		assert.False(t, ladder[2].WeightClasses)
		assert.True(t, ladder[2].CleanConditionally)

		assert.False(t, ladder[3].CleanConditionally)
		for _, o := range ladder {
			assert.True(t, o.PreserveImages)
			assert.True(t, o.PreserveVideos)
		}
	})

	t.Run("disabled flags add no step", func(t *testing.T) {
		t.Parallel()

		opts := readable.GrabOptions{WeightClasses: true}

		ladder := opts.Ladder()

		assert.Len(t, ladder, 2)
		assert.False(t, ladder[1].WeightClasses)
	})
}

func TestDefaultOptions(t *testing.T) {
	t.Parallel()

	opts := readable.DefaultOptions()

	assert.Equal(t, 5, opts.NbTopCandidates)
	assert.Equal(t, 500, opts.CharThreshold)
	assert.Zero(t, opts.MaxElemsToParse)
	assert.False(t, opts.DiscardImages)
	assert.False(t, opts.DiscardVideos)
	assert.False(t, opts.KeepClasses)
}

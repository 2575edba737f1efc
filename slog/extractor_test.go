package slog_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/fwojciec/readable"
	"github.com/fwojciec/readable/mock"
	readableslog "github.com/fwojciec/readable/slog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggingExtractor_Extract(t *testing.T) {
	t.Parallel()

	t.Run("logs title, length and duration", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		want := &readable.Article{
			URI:      "https://example.com/news/story",
			Metadata: readable.Metadata{Title: "Story"},
			Length:   1234,
		}
		inner := &mock.Extractor{
			ExtractFn: func(ctx context.Context, uri string, rawHTML string) (*readable.Article, error) {
				return want, nil
			},
		}

		ext := readableslog.NewLoggingExtractor(inner, logger)
		got, err := ext.Extract(context.Background(), "https://example.com/news/story", "<html></html>")

		require.NoError(t, err)
		assert.Same(t, want, got)
		output := buf.String()
		assert.Contains(t, output, "msg=extract")
		assert.Contains(t, output, "uri=https://example.com/news/story")
		assert.Contains(t, output, "bytes=13")
		assert.Contains(t, output, "title=Story")
		assert.Contains(t, output, "length=1234")
		assert.Contains(t, output, "duration=")
	})

	t.Run("logs error on failure", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		inner := &mock.Extractor{
			ExtractFn: func(ctx context.Context, uri string, rawHTML string) (*readable.Article, error) {
				return nil, errors.New("too many elements")
			},
		}

		ext := readableslog.NewLoggingExtractor(inner, logger)
		_, err := ext.Extract(context.Background(), "https://example.com/huge", "<html></html>")

		require.Error(t, err)
		output := buf.String()
		assert.Contains(t, output, "length=-1")
		assert.Contains(t, output, "err=\"too many elements\"")
	})
}

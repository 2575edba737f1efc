package slog

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/fwojciec/readable"
	"github.com/gogs/chardet"
	"golang.org/x/net/html/charset"
)

// Ensure LoggingFetcher implements readable.Fetcher.
var _ readable.Fetcher = (*LoggingFetcher)(nil)

// LoggingFetcher logs every page fetch with its HTTP status, size and
// detected charset.
type LoggingFetcher struct {
	next   readable.Fetcher
	logger *slog.Logger
}

// NewLoggingFetcher wraps next.
func NewLoggingFetcher(next readable.Fetcher, logger *slog.Logger) *LoggingFetcher {
	return &LoggingFetcher{next: next, logger: logger}
}

// Fetch implements readable.Fetcher. A returned page is logged with status
// 200; failures log the status of a *readable.StatusError, or 0.
func (f *LoggingFetcher) Fetch(ctx context.Context, url string) (page string, err error) {
	begin := time.Now()
	page, err = f.next.Fetch(ctx, url)

	attrs := []any{
		"url", url,
		"status", readable.HTTPStatus(err),
		"bytes", len(page),
		"duration", time.Since(begin),
	}
	if err != nil {
		f.logger.Warn("fetch", append(attrs, "err", err)...)
		return page, err
	}
	f.logger.Info("fetch", append(attrs, "charset", detectCharset(page))...)
	return page, nil
}

// Close implements readable.Fetcher.
func (f *LoggingFetcher) Close() error {
	return f.next.Close()
}

// detectCharset names the encoding the page will be decoded with, or ""
// when it cannot be told.
func detectCharset(page string) string {
	if page == "" {
		return ""
	}
	res, err := chardet.NewHtmlDetector().DetectBest([]byte(page))
	if err != nil || res == nil {
		return ""
	}
	if _, name := charset.Lookup(res.Charset); name != "" {
		return strings.ToUpper(name)
	}
	return res.Charset
}

// Package batch extracts articles from many URLs concurrently.
// It coordinates rate limited fetching, retries, extraction, deduplication
// and writing of the resulting articles.
package batch

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/fwojciec/readable"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is the number of URLs processed at once when
// Processor.Concurrency is not set.
const DefaultConcurrency = 4

// Processor fetches and extracts articles for a list of URLs.
// Each document is extracted on a single goroutine; concurrency applies
// across documents only.
type Processor struct {
	Fetcher     readable.Fetcher
	Extractor   readable.Extractor
	Writer      readable.ArticleWriter
	RateLimiter readable.DomainLimiter
	Logger      *slog.Logger
	Concurrency int
	RetryDelays []time.Duration
}

// Result holds the outcome of processing one URL.
type Result struct {
	URL       string
	Article   *readable.Article
	Hash      string
	Duplicate bool
	Err       error
}

// Summary aggregates the outcome of a run.
type Summary struct {
	Results    []Result
	Saved      int
	Failed     int
	Duplicates int
	Bytes      int
}

// ProgressEvent reports progress during a run.
type ProgressEvent struct {
	Type      ProgressType
	Completed int
	Total     int
	URL       string
	Error     error
}

// ProgressType indicates the type of progress event.
type ProgressType int

const (
	ProgressStarted ProgressType = iota
	ProgressCompleted
	ProgressFailed
	ProgressFinished
)

// ProgressFunc is a callback for reporting progress.
type ProgressFunc func(event ProgressEvent)

// Run processes urls and returns results in input order. Repeated URLs are
// processed once. Articles whose content hashes to a value already seen
// are marked Duplicate and not written. Per-URL failures are reported in
// the results; Run only returns an error when ctx is done.
func (p *Processor) Run(ctx context.Context, urls []string, progress ProgressFunc) (*Summary, error) {
	if p.Fetcher == nil || p.Extractor == nil {
		return nil, readable.Errorf(readable.EINVALID, "batch requires a fetcher and an extractor")
	}
	logger := p.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	seen := NewSeen(max(uint(len(urls)), seenExpectedURLs), seenFalsePositiveRate)
	var unique []string
	for _, u := range urls {
		if seen.Add(u) {
			unique = append(unique, u)
		}
	}

	concurrency := p.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	total := len(unique)
	if progress != nil {
		progress(ProgressEvent{Type: ProgressStarted, Total: total})
	}

	results := make([]Result, total)
	var completed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, u := range unique {
		g.Go(func() error {
			results[i] = p.process(gctx, u, logger)
			n := int(completed.Add(1))
			if progress == nil {
				return nil
			}
			if err := results[i].Err; err != nil {
				progress(ProgressEvent{Type: ProgressFailed, Completed: n, Total: total, URL: u, Error: err})
			} else {
				progress(ProgressEvent{Type: ProgressCompleted, Completed: n, Total: total, URL: u})
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	summary := &Summary{Results: results}
	hashes := make(map[string]struct{}, total)
	for i := range results {
		r := &results[i]
		if r.Err != nil {
			summary.Failed++
			continue
		}
		if _, ok := hashes[r.Hash]; ok {
			r.Duplicate = true
			summary.Duplicates++
			continue
		}
		hashes[r.Hash] = struct{}{}

		if p.Writer != nil {
			if err := p.Writer.WriteArticle(ctx, r.Article); err != nil {
				r.Err = fmt.Errorf("write %s: %w", r.URL, err)
				summary.Failed++
				continue
			}
		}
		summary.Saved++
		summary.Bytes += len(r.Article.Content)
	}

	if progress != nil {
		progress(ProgressEvent{Type: ProgressFinished, Completed: total, Total: total})
	}

	return summary, nil
}

func (p *Processor) process(ctx context.Context, rawURL string, logger *slog.Logger) Result {
	result := Result{URL: rawURL}

	if p.RateLimiter != nil {
		u, err := url.Parse(rawURL)
		if err != nil {
			result.Err = readable.Errorf(readable.EINVALID, "invalid URL %q", rawURL)
			return result
		}
		if err := p.RateLimiter.Wait(ctx, u.Host); err != nil {
			result.Err = err
			return result
		}
	}

	delays := p.RetryDelays
	if delays == nil {
		delays = DefaultRetryDelays()
	}
	html, err := FetchWithRetry(ctx, rawURL, p.Fetcher.Fetch, delays, logger)
	if err != nil {
		result.Err = fmt.Errorf("fetch %s: %w", rawURL, err)
		return result
	}

	article, err := p.Extractor.Extract(ctx, rawURL, html)
	if err != nil {
		result.Err = fmt.Errorf("extract %s: %w", rawURL, err)
		return result
	}

	if !article.HasContent() {
		result.Err = readable.Errorf(readable.ENOTFOUND, "no article content at %s", rawURL)
		return result
	}

	result.Article = article
	result.Hash = ContentHash(article.Content)
	return result
}

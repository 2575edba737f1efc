package rod

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/fwojciec/readable"
	"github.com/go-rod/rod/lib/proto"
)

// DefaultFetchTimeout bounds a single page load, including script
// execution. Kept consistent with http.DefaultFetchTimeout (10s).
const DefaultFetchTimeout = 10 * time.Second

// serializeJS returns the rendered document with open shadow roots inlined
// as declarative <template shadowrootmode> elements, so content built by
// web components reaches the extractor. The <html> attributes are kept
// because lang and dir feed the article metadata.
const serializeJS = `() => {
  const root = document.documentElement;
  if (typeof root.getHTML !== 'function') {
    return root.outerHTML;
  }
  const shadowRoots = [];
  const walk = (node) => {
    if (node.shadowRoot) {
      shadowRoots.push(node.shadowRoot);
      walk(node.shadowRoot);
    }
    for (const child of node.children) {
      walk(child);
    }
  };
  walk(root);
  const shell = root.cloneNode(false).outerHTML;
  const end = shell.lastIndexOf('</html>');
  return '<!DOCTYPE html>' + shell.slice(0, end) + root.getHTML({shadowRoots}) + shell.slice(end);
}`

// Ensure Fetcher implements readable.Fetcher at compile time.
var _ readable.Fetcher = (*Fetcher)(nil)

// Fetcher retrieves rendered HTML from URLs using Chrome browser automation,
// for article pages that only assemble their content in JavaScript.
// Fetcher is safe for concurrent use by multiple goroutines.
type Fetcher struct {
	browser     *Browser
	timeout     time.Duration
	browserOpts []BrowserOption
	closed      atomic.Bool
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithFetchTimeout sets the per-page timeout.
// Defaults to DefaultFetchTimeout (10s) if not specified.
func WithFetchTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithBrowserOptions configures the Browser the Fetcher launches.
func WithBrowserOptions(opts ...BrowserOption) Option {
	return func(f *Fetcher) {
		f.browserOpts = append(f.browserOpts, opts...)
	}
}

// NewFetcher creates a new Fetcher that launches a headless Chrome browser.
// Close must be called when the Fetcher is no longer needed.
//
// Returns an error if Chrome/Chromium cannot be found or launched.
func NewFetcher(opts ...Option) (*Fetcher, error) {
	f := &Fetcher{timeout: DefaultFetchTimeout}
	for _, opt := range opts {
		opt(f)
	}

	browser, err := NewBrowser(f.browserOpts...)
	if err != nil {
		return nil, err
	}
	f.browser = browser
	return f, nil
}

// Fetch renders the article page at url and returns its DOM. A document
// answered with status 400 or above fails with a *readable.StatusError.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	if f.closed.Load() {
		return "", readable.Errorf(readable.EINVALID, "fetcher is closed")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	page, release, err := f.browser.OpenPage(ctx)
	if err != nil {
		return "", err
	}
	defer release()

	statusc := make(chan int, 1)
	wait := page.EachEvent(func(e *proto.NetworkResponseReceived) bool {
		if e.Type != proto.NetworkResourceTypeDocument {
			return false
		}
		statusc <- int(e.Response.Status)
		return true
	})
	go wait()

	if err := page.Navigate(url); err != nil {
		return "", fmt.Errorf("navigating to %s: %w", url, contextErr(ctx, err))
	}
	if err := page.WaitLoad(); err != nil {
		return "", fmt.Errorf("waiting for %s: %w", url, contextErr(ctx, err))
	}

	select {
	case status := <-statusc:
		if status >= 400 {
			return "", &readable.StatusError{URL: url, StatusCode: status}
		}
	default:
	}

	result, err := page.Eval(serializeJS)
	if err != nil {
		return "", fmt.Errorf("serializing %s: %w", url, contextErr(ctx, err))
	}
	return result.Value.Str(), nil
}

// contextErr prefers the context error once ctx is done.
func contextErr(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return err
}

// Close releases browser resources. Close is safe to call multiple times.
func (f *Fetcher) Close() error {
	if !f.closed.CompareAndSwap(false, true) {
		return nil
	}
	return f.browser.Close()
}

// LauncherPID returns the process ID of the browser launcher.
func (f *Fetcher) LauncherPID() int {
	return f.browser.LauncherPID()
}

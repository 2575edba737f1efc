package rod

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/fwojciec/readable"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// DefaultRestartAfter is the number of article pages a Chrome process
// renders before it is replaced.
const DefaultRestartAfter = 75

// DefaultBlockedResources are never downloaded while rendering an article.
// Blocking them leaves the <img>, <video> and <audio> elements in the DOM.
var DefaultBlockedResources = []proto.NetworkResourceType{
	proto.NetworkResourceTypeImage,
	proto.NetworkResourceTypeMedia,
	proto.NetworkResourceTypeFont,
}

// chrome is one Chrome process and the tabs opened on it.
type chrome struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	router   *rod.HijackRouter
	opened   int
	inFlight int
	retired  bool
	stopped  bool
}

// Browser runs the headless Chrome that renders article pages. Tabs are
// handed out by OpenPage. After a number of articles a fresh Chrome takes
// over; the old one keeps running until its last open tab is released.
//
// Browser is safe for concurrent use.
type Browser struct {
	restartAfter int
	bin          string
	blocked      []proto.NetworkResourceType
	logger       *slog.Logger

	mu      sync.Mutex
	current *chrome
	retired []*chrome
	closed  bool
}

// BrowserOption configures a Browser.
type BrowserOption func(*Browser)

// WithRestartAfter replaces Chrome after n article pages.
func WithRestartAfter(n int) BrowserOption {
	return func(b *Browser) {
		b.restartAfter = n
	}
}

// WithBrowserBin launches the browser binary at path instead of letting
// rod find or download one.
func WithBrowserBin(path string) BrowserOption {
	return func(b *Browser) {
		b.bin = path
	}
}

// WithBlockedResources replaces DefaultBlockedResources. With no types,
// every resource is loaded.
func WithBlockedResources(types ...proto.NetworkResourceType) BrowserOption {
	return func(b *Browser) {
		b.blocked = types
	}
}

// WithBrowserLogger logs Chrome launches, restarts and shutdowns.
func WithBrowserLogger(logger *slog.Logger) BrowserOption {
	return func(b *Browser) {
		b.logger = logger
	}
}

// NewBrowser launches a headless Chrome. Close must be called when the
// Browser is no longer needed.
func NewBrowser(opts ...BrowserOption) (*Browser, error) {
	b := &Browser{
		restartAfter: DefaultRestartAfter,
		blocked:      DefaultBlockedResources,
		logger:       slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.restartAfter <= 0 {
		b.restartAfter = DefaultRestartAfter
	}

	c, err := b.launch()
	if err != nil {
		return nil, err
	}
	b.current = c
	return b, nil
}

// OpenPage opens a blank tab bound to ctx. The caller must call release
// when done with the page; it closes the tab.
func (b *Browser) OpenPage(ctx context.Context) (page *rod.Page, release func(), err error) {
	c, err := b.acquire()
	if err != nil {
		return nil, nil, err
	}
	release = func() {
		if page != nil {
			_ = page.Close()
		}
		b.release(c)
	}

	page, err = c.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		release()
		return nil, nil, fmt.Errorf("opening tab: %w", err)
	}
	return page.Context(ctx), release, nil
}

// acquire returns the Chrome the next tab opens on, restarting it when it
// has rendered enough articles.
func (b *Browser) acquire() (*chrome, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, readable.Errorf(readable.EINVALID, "browser is closed")
	}
	if b.current.opened >= b.restartAfter {
		b.restart()
	}
	b.current.opened++
	b.current.inFlight++
	return b.current, nil
}

func (b *Browser) release(c *chrome) {
	b.mu.Lock()
	defer b.mu.Unlock()

	c.inFlight--
	if c.retired && c.inFlight == 0 {
		b.stop(c)
		b.retired = slices.DeleteFunc(b.retired, func(r *chrome) bool { return r == c })
	}
}

// restart swaps in a fresh Chrome. If the launch fails the current one
// stays in service. Must be called with mu held.
func (b *Browser) restart() {
	next, err := b.launch()
	if err != nil {
		b.logger.Warn("browser restart failed", "err", err)
		return
	}

	old := b.current
	b.current = next
	b.logger.Info("browser restarted", "articles", old.opened, "pid", next.launcher.PID())

	old.retired = true
	if old.inFlight == 0 {
		b.stop(old)
		return
	}
	b.retired = append(b.retired, old)
}

// launch starts Chrome with background throttling disabled, so a tab
// keeps running scripts while its fetch waits on it.
func (b *Browser) launch() (*chrome, error) {
	l := launcher.New().
		Set("disable-background-timer-throttling").
		Set("disable-backgrounding-occluded-windows").
		Set("disable-renderer-backgrounding").
		Set("disable-dev-shm-usage").
		Leakless(true).
		Headless(true)
	if b.bin != "" {
		l = l.Bin(b.bin)
	}

	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launching browser: %w", err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("connecting to browser: %w", err)
	}

	c := &chrome{browser: browser, launcher: l}
	if len(b.blocked) > 0 {
		c.router = browser.HijackRequests()
		for _, typ := range b.blocked {
			if err := c.router.Add("*", typ, func(h *rod.Hijack) {
				h.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
			}); err != nil {
				b.stop(c)
				return nil, fmt.Errorf("blocking %s requests: %w", typ, err)
			}
		}
		go c.router.Run()
	}

	b.logger.Debug("browser launched", "pid", l.PID())
	return c, nil
}

// stop shuts a Chrome down once. Must be called with mu held, except
// during launch.
func (b *Browser) stop(c *chrome) {
	if c.stopped {
		return
	}
	c.stopped = true
	if c.router != nil {
		_ = c.router.Stop()
	}
	_ = c.browser.Close()
	c.launcher.Kill()
	b.logger.Debug("browser stopped", "pid", c.launcher.PID(), "articles", c.opened)
}

// Close stops every Chrome, including ones still finishing tabs. Close is
// safe to call multiple times.
func (b *Browser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	for _, c := range b.retired {
		b.stop(c)
	}
	b.retired = nil
	b.stop(b.current)
	return nil
}

// LauncherPID returns the process ID of the current Chrome launcher.
func (b *Browser) LauncherPID() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current.launcher.PID()
}

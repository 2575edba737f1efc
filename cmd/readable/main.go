package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/readable"
	"github.com/fwojciec/readable/batch"
	"github.com/fwojciec/readable/bluemonday"
	"github.com/fwojciec/readable/fs"
	"github.com/fwojciec/readable/goquery"
	readablehtml "github.com/fwojciec/readable/html"
	"github.com/fwojciec/readable/htmltomarkdown"
	readablehttp "github.com/fwojciec/readable/http"
	"github.com/fwojciec/readable/readability"
	"github.com/fwojciec/readable/rod"
	readableslog "github.com/fwojciec/readable/slog"
	"github.com/fwojciec/readable/trafilatura"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Fetcher overrides the fetcher selected by the flags. Set before
	// calling Run().
	Fetcher readable.Fetcher

	// Sitemaps overrides the sitemap service used by --sitemap.
	Sitemaps readable.SitemapService
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{}
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("readable"),
		kong.Description("Extract the readable article from web pages"),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no arguments provided")
	}

	if len(args) == 1 && (args[0] == "--help" || args[0] == "-h" || args[0] == "help") {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	if _, err = parser.Parse(args); err != nil {
		return err
	}
	if err := cli.Validate(); err != nil {
		return err
	}

	logger := slog.New(slog.DiscardHandler)
	if cli.Verbose {
		logger = slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	fetcher, err := m.fetcher(cli, stdin, logger)
	if err != nil {
		fmt.Fprintf(stderr, "error: %s\n", readable.ErrorMessage(err))
		return err
	}
	defer fetcher.Close()

	extractor, err := newExtractor(cli, logger)
	if err != nil {
		return err
	}

	converter := htmltomarkdown.NewConverter()

	var writer readable.ArticleWriter
	var store *fs.Store
	if cli.Out != "" {
		out := filepath.Clean(cli.Out)
		store = fs.NewStore(filepath.Dir(out), filepath.Base(out), converter)
		writer = store
	} else {
		writer = &Printer{W: stdout, Format: cli.Format, Converter: converter}
	}
	if cli.Verbose {
		writer = readableslog.NewLoggingArticleWriter(writer, logger)
	}

	p := &batch.Processor{
		Fetcher:     fetcher,
		Extractor:   extractor,
		Writer:      writer,
		RateLimiter: batch.NewDomainLimiter(cli.RPS),
		Logger:      logger,
		Concurrency: cli.Concurrency,
	}
	if cli.Input != "" {
		p.RetryDelays = []time.Duration{}
	}

	var progress batch.ProgressFunc
	if store != nil {
		progress = func(e batch.ProgressEvent) {
			switch e.Type {
			case batch.ProgressCompleted, batch.ProgressFailed:
				fmt.Fprintf(stderr, "[%d/%d] %s\n", e.Completed, e.Total, batch.TruncateURL(e.URL, 60))
			}
		}
	}

	urls := cli.URLs
	if cli.Sitemap {
		if urls, err = m.discover(ctx, cli); err != nil {
			fmt.Fprintf(stderr, "error: %s\n", readable.ErrorMessage(err))
			return err
		}
		fmt.Fprintf(stderr, "Found %d articles\n", len(urls))
	}

	summary, err := p.Run(ctx, urls, progress)
	if err != nil {
		if store != nil {
			_ = store.Abort()
		}
		return err
	}

	for _, r := range summary.Results {
		switch {
		case r.Err != nil:
			fmt.Fprintf(stderr, "skip %s: %s\n", r.URL, readable.ErrorMessage(r.Err))
		case r.Duplicate:
			fmt.Fprintf(stderr, "duplicate %s\n", r.URL)
		}
	}

	if summary.Saved == 0 {
		if store != nil {
			_ = store.Abort()
		}
		return readable.Errorf(readable.ENOTFOUND, "no articles extracted")
	}

	if store != nil {
		if err := store.Commit(); err != nil {
			return fmt.Errorf("commit %s: %w", cli.Out, err)
		}
		fmt.Fprintf(stderr, "Saved %d articles (%s) to %s\n", summary.Saved, batch.FormatBytes(summary.Bytes), cli.Out)
	}

	return nil
}

// discover lists article URLs from the sitemaps of the sites in cli.URLs.
func (m *Main) discover(ctx context.Context, cli *CLI) ([]string, error) {
	filter, err := cli.URLFilter()
	if err != nil {
		return nil, err
	}

	sitemaps := m.Sitemaps
	if sitemaps == nil {
		sitemaps = readablehttp.NewSitemapService(&http.Client{Timeout: cli.Timeout})
	}

	var urls []string
	for _, site := range cli.URLs {
		entries, err := sitemaps.DiscoverArticles(ctx, site, filter)
		if err != nil {
			return nil, fmt.Errorf("sitemap %s: %w", site, err)
		}
		if cli.Limit > 0 && len(entries) > cli.Limit {
			entries = entries[:cli.Limit]
		}
		for _, e := range entries {
			urls = append(urls, e.URL)
		}
	}
	if len(urls) == 0 {
		return nil, readable.Errorf(readable.ENOTFOUND, "no articles found in sitemaps")
	}
	return urls, nil
}

// fetcher builds the fetcher selected by the flags.
func (m *Main) fetcher(cli *CLI, stdin io.Reader, logger *slog.Logger) (readable.Fetcher, error) {
	var f readable.Fetcher
	switch {
	case m.Fetcher != nil:
		f = m.Fetcher
	case cli.Input != "":
		sf, err := NewStaticFetcher(cli.Input, stdin)
		if err != nil {
			return nil, err
		}
		f = sf
	case cli.Render:
		opts := []rod.Option{
			rod.WithFetchTimeout(cli.Timeout),
			rod.WithBrowserOptions(rod.WithBrowserLogger(logger)),
		}
		if cli.Browser != "" {
			opts = append(opts, rod.WithBrowserOptions(rod.WithBrowserBin(cli.Browser)))
		}
		rf, err := rod.NewFetcher(opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to start browser (Chrome or Chromium must be installed): %w", err)
		}
		f = rf
	default:
		f = readablehttp.NewFetcher(readablehttp.WithTimeout(cli.Timeout))
	}

	if cli.Verbose {
		f = readableslog.NewLoggingFetcher(f, logger)
	}
	return f, nil
}

// newExtractor builds the extraction engine selected by the flags.
func newExtractor(cli *CLI, logger *slog.Logger) (readable.Extractor, error) {
	var ext readable.Extractor
	switch cli.Engine {
	case EngineTrafilatura:
		ext = trafilatura.NewExtractor()
	case EngineGoReadability:
		ext = readability.NewExtractor()
	default:
		parserOpts := []readablehtml.ParserOption{
			readablehtml.WithOptions(cli.Options()),
			readablehtml.WithLogger(logger),
		}
		if len(cli.Exclude) > 0 {
			filter, err := goquery.NewSelectorFilter(cli.Exclude...)
			if err != nil {
				return nil, err
			}
			parserOpts = append(parserOpts, readablehtml.WithCandidateFilters(filter))
		}
		ext = readablehtml.NewExtractor(parserOpts...)
	}

	if cli.CheckReaderable {
		var detector readable.ReaderableDetector = goquery.NewDetector(goquery.ReaderableOptions{})
		if cli.Verbose {
			detector = readableslog.NewLoggingDetector(detector, logger)
		}
		ext = &goquery.ReaderableExtractor{Extractor: ext, Detector: detector}
	}

	if cli.Sanitize {
		ext = &SanitizingExtractor{Extractor: ext, Sanitizer: bluemonday.NewSanitizer()}
	}

	if cli.Verbose {
		ext = readableslog.NewLoggingExtractor(ext, logger)
	}
	return ext, nil
}

package main

import (
	"regexp"
	"time"

	"github.com/araddon/dateparse"
	"github.com/fwojciec/readable"
)

// Output formats.
const (
	FormatJSON     = "json"
	FormatHTML     = "html"
	FormatMarkdown = "markdown"
	FormatText     = "text"
)

// Extraction engines.
const (
	EngineReadability   = "readability"
	EngineTrafilatura   = "trafilatura"
	EngineGoReadability = "go-readability"
)

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Format          string        `short:"f" enum:"json,html,markdown,text" default:"markdown" help:"Output format (json, html, markdown, text)"`
	Engine          string        `short:"e" enum:"readability,trafilatura,go-readability" default:"readability" help:"Extraction engine (readability, trafilatura, go-readability)"`
	CharThreshold   int           `default:"500" help:"Minimum article length before extraction rules are relaxed"`
	TopCandidates   int           `default:"5" help:"Number of top candidates compared for a common ancestor"`
	MaxElems        int           `default:"0" help:"Abort documents with more elements (0 disables the limit)"`
	KeepClasses     bool          `help:"Keep all class attributes in the output"`
	PreserveClass   []string      `help:"Class names kept on content elements"`
	NoJSONLD        bool          `name:"no-json-ld" help:"Skip JSON-LD metadata"`
	LinkDensity     float64       `name:"link-density-modifier" help:"Loosen (positive) or tighten (negative) the link density limits"`
	PreserveImages  bool          `default:"true" negatable:"" help:"Keep image-heavy blocks during cleanup"`
	PreserveVideos  bool          `default:"true" negatable:"" help:"Keep video embeds during cleanup"`
	Exclude         []string      `short:"x" help:"CSS selectors whose matches never become the article"`
	CheckReaderable bool          `help:"Skip pages that do not look like articles"`
	Sanitize        bool          `help:"Sanitize article HTML"`
	Render          bool          `short:"r" help:"Render pages in headless Chrome before extraction"`
	Browser         string        `help:"Path to the Chrome or Chromium binary used by --render"`
	Input           string        `short:"i" help:"Read HTML from a file instead of fetching (- for stdin)"`
	Timeout         time.Duration `short:"t" default:"10s" help:"Fetch timeout per page"`
	Concurrency     int           `short:"c" default:"4" help:"Concurrent page limit"`
	RPS             float64       `name:"rps" default:"1" help:"Requests per second per host (0 disables rate limiting)"`
	Sitemap         bool          `short:"s" help:"Treat URLs as sites and extract the articles listed in their sitemaps"`
	Match           []string      `help:"Regular expressions sitemap URLs must match"`
	Skip            []string      `help:"Regular expressions excluding sitemap URLs"`
	Since           string        `help:"Skip sitemap entries published before this date"`
	Limit           int           `default:"20" help:"Maximum articles taken from sitemaps (0 for all)"`
	Out             string        `short:"o" help:"Write articles as markdown files under this directory"`
	Verbose         bool          `short:"v" help:"Log fetches and extractions to stderr"`
	URLs            []string      `arg:"" name:"url" help:"Article URLs"`
}

// Validate checks flag combinations kong cannot express.
func (c *CLI) Validate() error {
	if c.Input != "" && len(c.URLs) != 1 {
		return readable.Errorf(readable.EINVALID, "--input requires exactly one URL")
	}
	if c.Input != "" && c.Render {
		return readable.Errorf(readable.EINVALID, "--input and --render cannot be combined")
	}
	if c.Input != "" && c.Sitemap {
		return readable.Errorf(readable.EINVALID, "--input and --sitemap cannot be combined")
	}
	if !c.Sitemap && (len(c.Match) > 0 || len(c.Skip) > 0 || c.Since != "") {
		return readable.Errorf(readable.EINVALID, "--match, --skip and --since require --sitemap")
	}
	if c.Timeout <= 0 {
		return readable.Errorf(readable.EINVALID, "--timeout must be positive")
	}
	if c.CharThreshold < 0 || c.TopCandidates < 0 || c.MaxElems < 0 || c.Limit < 0 {
		return readable.Errorf(readable.EINVALID, "numeric options must not be negative")
	}
	return nil
}

// Options converts the flags to extraction options.
func (c *CLI) Options() readable.Options {
	opts := readable.DefaultOptions()
	opts.CharThreshold = c.CharThreshold
	opts.NbTopCandidates = c.TopCandidates
	opts.MaxElemsToParse = c.MaxElems
	opts.KeepClasses = c.KeepClasses
	opts.ClassesToPreserve = c.PreserveClass
	opts.DisableJSONLD = c.NoJSONLD
	opts.LinkDensityModifier = c.LinkDensity
	opts.DiscardImages = !c.PreserveImages
	opts.DiscardVideos = !c.PreserveVideos
	opts.URLTransformers = []readable.URLTransformer{readable.RedditURLTransformer{}}
	return opts
}

// URLFilter converts the sitemap flags to a filter.
func (c *CLI) URLFilter() (*readable.URLFilter, error) {
	f := &readable.URLFilter{}
	for _, pattern := range c.Match {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, readable.Errorf(readable.EINVALID, "invalid --match pattern %q: %v", pattern, err)
		}
		f.Include = append(f.Include, re)
	}
	for _, pattern := range c.Skip {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, readable.Errorf(readable.EINVALID, "invalid --skip pattern %q: %v", pattern, err)
		}
		f.Exclude = append(f.Exclude, re)
	}
	if c.Since != "" {
		t, err := dateparse.ParseAny(c.Since)
		if err != nil {
			return nil, readable.Errorf(readable.EINVALID, "invalid --since date %q", c.Since)
		}
		f.Since = t
	}
	return f, nil
}

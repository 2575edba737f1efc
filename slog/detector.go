package slog

import (
	"log/slog"
	"time"

	"github.com/fwojciec/readable"
	"golang.org/x/net/html"
)

// Ensure LoggingDetector implements readable.ReaderableDetector.
var _ readable.ReaderableDetector = (*LoggingDetector)(nil)

// LoggingDetector wraps a ReaderableDetector with debug logging.
type LoggingDetector struct {
	next   readable.ReaderableDetector
	logger *slog.Logger
}

// NewLoggingDetector creates a new LoggingDetector.
func NewLoggingDetector(next readable.ReaderableDetector, logger *slog.Logger) *LoggingDetector {
	return &LoggingDetector{next: next, logger: logger}
}

// IsProbablyReaderable delegates to the wrapped detector and logs the verdict.
func (d *LoggingDetector) IsProbablyReaderable(doc *html.Node) (ok bool) {
	defer func(begin time.Time) {
		d.logger.Debug("readerable check",
			"readerable", ok,
			"duration", time.Since(begin),
		)
	}(time.Now())
	return d.next.IsProbablyReaderable(doc)
}

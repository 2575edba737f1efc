package readable

// Converter converts HTML to Markdown.
type Converter interface {
	// Convert transforms extracted article HTML into Markdown.
	Convert(html string) (string, error)
}

// Sanitizer strips unsafe markup from extracted article HTML.
type Sanitizer interface {
	Sanitize(html string) string
}

package mock

import "github.com/fwojciec/readable"

var _ readable.Converter = (*Converter)(nil)

// Converter is a mock implementation of readable.Converter.
type Converter struct {
	ConvertFn func(html string) (string, error)
}

func (c *Converter) Convert(html string) (string, error) {
	return c.ConvertFn(html)
}

var _ readable.Sanitizer = (*Sanitizer)(nil)

// Sanitizer is a mock implementation of readable.Sanitizer.
type Sanitizer struct {
	SanitizeFn func(html string) string
}

func (s *Sanitizer) Sanitize(html string) string {
	return s.SanitizeFn(html)
}

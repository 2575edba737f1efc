package htmltomarkdown

import (
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/fwojciec/readable"
	"golang.org/x/net/html"
)

// Ensure Converter implements readable.Converter at compile time.
var _ readable.Converter = (*Converter)(nil)

// Converter renders article HTML as Markdown.
type Converter struct {
	conv *converter.Converter
}

// NewConverter creates a new Converter.
func NewConverter() *Converter {
	conv := converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(),
		),
	)
	return &Converter{conv: conv}
}

// Convert transforms HTML content into Markdown.
func (c *Converter) Convert(html string) (string, error) {
	if strings.TrimSpace(html) == "" {
		return "", readable.Errorf(readable.EINVALID, "empty HTML input")
	}

	result, err := c.conv.ConvertString(html)
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(result), nil
}

// ConvertNode renders the subtree rooted at n as Markdown.
func (c *Converter) ConvertNode(n *html.Node) (string, error) {
	if n == nil {
		return "", readable.Errorf(readable.EINVALID, "nil node")
	}
	result, err := c.conv.ConvertNode(n)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(result)), nil
}

// Serializer returns a function for readable.Options.Serializer that
// renders article content as Markdown. If conversion fails the content is
// rendered as HTML instead.
func (c *Converter) Serializer() func(*html.Node) string {
	return func(n *html.Node) string {
		md, err := c.ConvertNode(n)
		if err == nil {
			return md
		}
		var b strings.Builder
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			_ = html.Render(&b, child)
		}
		return b.String()
	}
}

package html

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/fwojciec/readable"
	"github.com/gogs/chardet"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ParseDocument decodes r to UTF-8 and parses it. The detected charset is
// returned alongside the tree so metadata can report it when the document
// does not declare one. Scripting is disabled while parsing so the content
// of <noscript> elements becomes ordinary nodes.
func ParseDocument(r io.Reader) (*html.Node, string, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, "", fmt.Errorf("read document: %w", err)
	}
	if len(bytes.TrimSpace(content)) == 0 {
		return nil, "", readable.Errorf(readable.EINVALID, "empty HTML input")
	}

	name := "UTF-8"
	decoder := unicode.UTF8.NewDecoder()
	if res, err := chardet.NewHtmlDetector().DetectBest(content); err == nil && res != nil {
		if enc, canonical := charset.Lookup(res.Charset); enc != nil {
			decoder = enc.NewDecoder()
			name = canonical
		}
	}

	var in io.Reader = bytes.NewReader(content)
	in = transform.NewReader(in, decoder)
	in = transform.NewReader(in, transform.Chain(norm.NFD, runes.Remove(runes.Predicate(isSoftHyphen)), norm.NFC))

	doc, err := html.ParseWithOptions(in, html.ParseOptionEnableScripting(false))
	if err != nil {
		return nil, "", fmt.Errorf("parse document: %w", err)
	}
	return doc, strings.ToUpper(name), nil
}

func isSoftHyphen(r rune) bool { return r == '\u00ad' }

// ParseString parses UTF-8 HTML without charset detection.
func ParseString(s string) (*html.Node, error) {
	doc, err := html.ParseWithOptions(strings.NewReader(s), html.ParseOptionEnableScripting(false))
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return doc, nil
}

package goquery

import (
	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/fwojciec/readable"
	"golang.org/x/net/html"
)

// SelectorFilter excludes article candidates that match, or sit inside an
// element matching, any of a set of CSS selectors. Use it to keep known
// comment sections or widgets from winning the content ranking.
type SelectorFilter struct {
	matchers []goquery.Matcher
}

// Ensure SelectorFilter implements readable.CandidateFilter.
var _ readable.CandidateFilter = (*SelectorFilter)(nil)

// NewSelectorFilter compiles selectors. An invalid selector fails with
// readable.EINVALID.
func NewSelectorFilter(selectors ...string) (*SelectorFilter, error) {
	f := &SelectorFilter{}
	for _, sel := range selectors {
		m, err := cascadia.Compile(sel)
		if err != nil {
			return nil, readable.Errorf(readable.EINVALID, "invalid selector %q: %v", sel, err)
		}
		f.matchers = append(f.matchers, m)
	}
	return f, nil
}

// IncludeCandidate implements readable.CandidateFilter.
func (f *SelectorFilter) IncludeCandidate(candidate *html.Node) bool {
	s := goquery.NewDocumentFromNode(candidate).Selection
	for _, m := range f.matchers {
		if s.ClosestMatcher(m).Length() > 0 {
			return false
		}
	}
	return true
}

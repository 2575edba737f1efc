package mock

import (
	"context"

	"github.com/fwojciec/readable"
)

var _ readable.SitemapService = (*SitemapService)(nil)

// SitemapService is a mock implementation of readable.SitemapService.
type SitemapService struct {
	DiscoverArticlesFn func(ctx context.Context, siteURL string, filter *readable.URLFilter) ([]readable.SitemapEntry, error)
}

func (s *SitemapService) DiscoverArticles(ctx context.Context, siteURL string, filter *readable.URLFilter) ([]readable.SitemapEntry, error) {
	return s.DiscoverArticlesFn(ctx, siteURL, filter)
}

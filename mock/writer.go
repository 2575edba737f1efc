package mock

import (
	"context"

	"github.com/fwojciec/readable"
)

var _ readable.ArticleWriter = (*ArticleWriter)(nil)

// ArticleWriter is a mock implementation of readable.ArticleWriter.
type ArticleWriter struct {
	WriteArticleFn func(ctx context.Context, article *readable.Article) error
}

func (w *ArticleWriter) WriteArticle(ctx context.Context, article *readable.Article) error {
	return w.WriteArticleFn(ctx, article)
}

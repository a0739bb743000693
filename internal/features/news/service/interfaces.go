package service

import (
	"context"

	"golang.org/x/text/language"

	"news-miniapp-gateway/internal/features/news/models"
	"news-miniapp-gateway/internal/platform/newsapi"
)

type Backend interface {
	News(ctx context.Context, category string) (*newsapi.NewsFeed, error)
}

type NewsService interface {
	// Feed returns the category feed with shortened previews.
	Feed(ctx context.Context, category string, tag language.Tag) (*models.FeedView, error)
	// Article returns one item of the category feed in full.
	Article(ctx context.Context, category string, id int64, tag language.Tag) (*models.ArticleView, error)
}

package service

import (
	"context"
	"errors"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"golang.org/x/text/language"

	"news-miniapp-gateway/internal/common/cache"
	apperrors "news-miniapp-gateway/internal/common/errors"
	"news-miniapp-gateway/internal/features/catalog"
	"news-miniapp-gateway/internal/features/news/models"
	"news-miniapp-gateway/internal/platform/newsapi"
)

type newsService struct {
	backend Backend
	cache   *cache.CacheService
	ttl     time.Duration
	catalog *catalog.Catalog
	logger  zerolog.Logger
}

func NewNewsService(backend Backend, cacheService *cache.CacheService, ttl time.Duration, cat *catalog.Catalog, logger zerolog.Logger) NewsService {
	return &newsService{
		backend: backend,
		cache:   cacheService,
		ttl:     ttl,
		catalog: cat,
		logger:  logger,
	}
}

func (s *newsService) Feed(ctx context.Context, category string, tag language.Tag) (*models.FeedView, error) {
	feed, err := s.feed(ctx, category)
	if err != nil {
		return nil, err
	}

	items := make([]models.ItemPreview, 0, len(feed.Items))
	for _, item := range feed.Items {
		preview, truncated := Truncate(item.Text, models.PreviewLength)
		items = append(items, models.ItemPreview{
			ID:        item.ID,
			Type:      item.Type,
			Preview:   preview,
			Truncated: truncated,
			Link:      item.Link,
			Date:      item.Date,
			CreatedAt: item.CreatedAt,
		})
	}

	return &models.FeedView{
		Category: catalog.Category{Type: category, Label: s.catalog.Label(category, tag)},
		Count:    len(items),
		Items:    items,
	}, nil
}

func (s *newsService) Article(ctx context.Context, category string, id int64, tag language.Tag) (*models.ArticleView, error) {
	feed, err := s.feed(ctx, category)
	if err != nil {
		return nil, err
	}

	for _, item := range feed.Items {
		if item.ID == id {
			return &models.ArticleView{
				Category: catalog.Category{Type: category, Label: s.catalog.Label(category, tag)},
				Item:     item,
			}, nil
		}
	}

	return nil, apperrors.New(apperrors.ErrCodeNewsNotFound, "News item not found").
		WithDetail("category", category).
		WithDetail("id", id)
}

// feed reads the category feed through the cache. Cache outages fall through to the backend.
func (s *newsService) feed(ctx context.Context, category string) (*newsapi.NewsFeed, error) {
	if err := s.catalog.Require(category); err != nil {
		return nil, err
	}

	var feed newsapi.NewsFeed
	err := s.cache.GetOrSet(ctx, cache.NewsFeedKey(category), &feed, s.ttl, func() (interface{}, error) {
		s.logger.Debug().Str("category", category).Msg("News feed cache miss")
		return s.backend.News(ctx, category)
	})
	if errors.Is(err, cache.ErrCacheWrite) {
		s.logger.Warn().
			Err(err).
			Str("category", category).
			Msg("News feed not cached")
		err = nil
	}
	if err != nil {
		return nil, err
	}
	return &feed, nil
}

// Truncate keeps the first limit runes of text and appends "..." when it cut anything.
func Truncate(text string, limit int) (string, bool) {
	if utf8.RuneCountInString(text) <= limit {
		return text, false
	}
	runes := []rune(text)
	return string(runes[:limit]) + "...", true
}

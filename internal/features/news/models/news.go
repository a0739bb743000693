package models

import (
	"news-miniapp-gateway/internal/features/catalog"
	"news-miniapp-gateway/internal/platform/newsapi"
)

// PreviewLength is the number of runes kept in a feed preview.
const PreviewLength = 120

type ItemPreview struct {
	ID        int64  `json:"id"`
	Type      string `json:"type"`
	Preview   string `json:"preview"`
	Truncated bool   `json:"truncated"`
	Link      string `json:"link"`
	Date      string `json:"date"`
	CreatedAt string `json:"created_at"`
}

type FeedView struct {
	Category catalog.Category `json:"category"`
	Count    int              `json:"count"`
	Items    []ItemPreview    `json:"items"`
}

type ArticleView struct {
	Category catalog.Category `json:"category"`
	Item     newsapi.NewsItem `json:"item"`
}

package service

import (
	"context"

	"news-miniapp-gateway/internal/features/identity"
	"news-miniapp-gateway/internal/features/support/models"
	"news-miniapp-gateway/internal/platform/newsapi"
)

type Backend interface {
	UserInfo(ctx context.Context, tgID int64) (*newsapi.UserInfo, error)
	SendSupport(ctx context.Context, req newsapi.SupportRequest) (*newsapi.SupportResponse, error)
}

type SupportService interface {
	Send(ctx context.Context, claim *identity.Claim, req models.SupportRequest) (*models.SupportResponse, error)
}

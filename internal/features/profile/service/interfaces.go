package service

import (
	"context"
	"time"

	"golang.org/x/text/language"

	"news-miniapp-gateway/internal/features/identity"
	"news-miniapp-gateway/internal/features/profile/models"
	"news-miniapp-gateway/internal/platform/newsapi"
)

// Backend is the part of the news backend the profile views call.
type Backend interface {
	UserInfo(ctx context.Context, tgID int64) (*newsapi.UserInfo, error)
	SaveUser(ctx context.Context, req newsapi.SaveUserRequest) (*newsapi.SaveUserResponse, error)
	UpdateUser(ctx context.Context, tgID int64, req newsapi.UpdateUserRequest) (*newsapi.UpdateUserResponse, error)
}

// Locker is a short-lived distributed lock.
type Locker interface {
	Lock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, key string) error
}

type ProfileService interface {
	// Register saves the onboarding pick unless the user already exists.
	Register(ctx context.Context, claim *identity.Claim, req models.OnboardingRequest, tag language.Tag) (*models.OnboardingResponse, error)
	Home(claim *identity.Claim, profile *newsapi.UserProfile, tag language.Tag) *models.HomeView
	Settings(profile *newsapi.UserProfile, tag language.Tag) *models.SettingsView
	UpdateSettings(ctx context.Context, claim *identity.Claim, req models.SettingsUpdate, tag language.Tag) (*models.SettingsUpdateResponse, error)
}

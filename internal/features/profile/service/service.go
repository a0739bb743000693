package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
	"golang.org/x/text/language"

	"news-miniapp-gateway/internal/common/cache"
	apperrors "news-miniapp-gateway/internal/common/errors"
	"news-miniapp-gateway/internal/common/validation"
	"news-miniapp-gateway/internal/features/catalog"
	"news-miniapp-gateway/internal/features/identity"
	"news-miniapp-gateway/internal/features/profile/models"
	sessionmodels "news-miniapp-gateway/internal/features/session/models"
	"news-miniapp-gateway/internal/platform/newsapi"
)

const (
	// RegistrationLockTTL bounds how long a crashed registration can block a retry.
	RegistrationLockTTL = 30 * time.Second
	// RegistrationTimeout caps one shared registration run.
	RegistrationTimeout = 15 * time.Second
)

type profileService struct {
	backend Backend
	locker  Locker
	catalog *catalog.Catalog
	logger  zerolog.Logger

	registrations singleflight.Group
}

func NewProfileService(backend Backend, locker Locker, cat *catalog.Catalog, logger zerolog.Logger) ProfileService {
	return &profileService{
		backend: backend,
		locker:  locker,
		catalog: cat,
		logger:  logger,
	}
}

func (s *profileService) Register(ctx context.Context, claim *identity.Claim, req models.OnboardingRequest, tag language.Tag) (*models.OnboardingResponse, error) {
	if claim == nil {
		return nil, apperrors.NewIdentityUnavailableError()
	}
	if err := validation.ValidatePositiveInt(claim.ID, "tg_id"); err != nil {
		return nil, apperrors.NewValidationError("tg_id", err.Error())
	}

	save, err := s.saveRequest(claim, req)
	if err != nil {
		return nil, err
	}

	// repeated taps on the submit button share one registration; it must outlive
	// the request that happened to start it
	out, err, _ := s.registrations.Do(strconv.FormatInt(claim.ID, 10), func() (interface{}, error) {
		shared, cancel := context.WithTimeout(context.WithoutCancel(ctx), RegistrationTimeout)
		defer cancel()
		return s.register(shared, save)
	})
	if err != nil {
		return nil, err
	}

	profile := out.(registration)
	return &models.OnboardingResponse{
		Created: profile.created,
		Route:   sessionmodels.RouteHome,
		Profile: s.view(profile.profile, tag),
	}, nil
}

type registration struct {
	created bool
	profile *newsapi.UserProfile
}

func (s *profileService) register(ctx context.Context, save newsapi.SaveUserRequest) (registration, error) {
	lockKey := cache.RegistrationLockKey(save.TgID)
	locked, err := s.locker.Lock(ctx, lockKey, RegistrationLockTTL)
	switch {
	case err != nil:
		// the existence check below still prevents most duplicates
		s.logger.Warn().
			Err(err).
			Int64("tg_id", save.TgID).
			Msg("Registration lock unavailable, continuing without it")
	case !locked:
		return registration{}, apperrors.NewConflictError("registration", "already in progress").
			WithUserID(save.TgID)
	default:
		defer func() {
			if err := s.locker.Unlock(context.WithoutCancel(ctx), lockKey); err != nil {
				s.logger.Warn().Err(err).Int64("tg_id", save.TgID).Msg("Failed to release registration lock")
			}
		}()
	}

	info, err := s.backend.UserInfo(ctx, save.TgID)
	if err != nil {
		return registration{}, err
	}
	if info != nil && info.Exists {
		s.logger.Info().
			Int64("tg_id", save.TgID).
			Msg("User already registered, skipping save")
		profile := info.User
		if profile == nil {
			profile = &newsapi.UserProfile{TgID: save.TgID}
		}
		return registration{profile: profile}, nil
	}

	resp, err := s.backend.SaveUser(ctx, save)
	if err != nil {
		return registration{}, err
	}
	if !resp.Success {
		return registration{}, apperrors.New(apperrors.ErrCodeExternalAPI, "Backend rejected registration").
			WithUserID(save.TgID)
	}

	s.logger.Info().
		Int64("tg_id", save.TgID).
		Strs("categories", resp.Categories).
		Msg("User registered")

	categories := resp.Categories
	if categories == nil {
		categories = save.Categories
	}
	return registration{
		created: true,
		profile: &newsapi.UserProfile{
			TgID:       save.TgID,
			Categories: categories,
			FullName:   resp.FullName,
			Email:      resp.Email,
		},
	}, nil
}

// saveRequest validates the onboarding pick. The full name defaults to the Telegram
// first name and the email stays null.
func (s *profileService) saveRequest(claim *identity.Claim, req models.OnboardingRequest) (newsapi.SaveUserRequest, error) {
	categories, err := s.catalog.Normalize(req.Categories)
	if err != nil {
		return newsapi.SaveUserRequest{}, err
	}

	fullName := claim.FirstName
	if req.FullName != nil {
		fullName = strings.TrimSpace(*req.FullName)
		if err := validation.ValidateFullName(fullName); err != nil {
			return newsapi.SaveUserRequest{}, apperrors.NewValidationError("full_name", err.Error())
		}
	}

	email, err := normalizeEmail(req.Email)
	if err != nil {
		return newsapi.SaveUserRequest{}, err
	}

	return newsapi.SaveUserRequest{
		TgID:       claim.ID,
		Categories: categories,
		FullName:   fullName,
		Email:      email,
	}, nil
}

func (s *profileService) Home(claim *identity.Claim, profile *newsapi.UserProfile, tag language.Tag) *models.HomeView {
	home := &models.HomeView{
		Language: tag.String(),
		Profile:  s.view(profile, tag),
	}
	if claim != nil {
		home.FirstName = claim.FirstName
	}
	return home
}

func (s *profileService) Settings(profile *newsapi.UserProfile, tag language.Tag) *models.SettingsView {
	return &models.SettingsView{
		Language:  tag.String(),
		Profile:   s.view(profile, tag),
		Available: s.catalog.List(tag),
	}
}

func (s *profileService) UpdateSettings(ctx context.Context, claim *identity.Claim, req models.SettingsUpdate, tag language.Tag) (*models.SettingsUpdateResponse, error) {
	if claim == nil {
		return nil, apperrors.NewIdentityUnavailableError()
	}

	var update newsapi.UpdateUserRequest
	if req.Categories != nil {
		categories, err := s.catalog.Normalize(req.Categories)
		if err != nil {
			return nil, err
		}
		update.Categories = categories
	}
	if req.FullName != nil {
		fullName := strings.TrimSpace(*req.FullName)
		if err := validation.ValidateFullName(fullName); err != nil {
			return nil, apperrors.NewValidationError("full_name", err.Error())
		}
		update.FullName = &fullName
	}
	if req.Email != nil {
		email, err := normalizeEmail(req.Email)
		if err != nil {
			return nil, err
		}
		if email == nil {
			// an empty string clears the address on the backend
			empty := ""
			email = &empty
		}
		update.Email = email
	}
	if update.Categories == nil && update.FullName == nil && update.Email == nil {
		return nil, apperrors.New(apperrors.ErrCodeValidation, "Nothing to update")
	}

	resp, err := s.backend.UpdateUser(ctx, claim.ID, update)
	if err != nil {
		return nil, err
	}

	profile := resp.User
	if profile == nil {
		profile = &newsapi.UserProfile{}
	}
	profile.TgID = claim.ID

	s.logger.Info().
		Int64("tg_id", claim.ID).
		Bool("categories_updated", resp.UpdatedFields.CategoriesUpdated).
		Bool("full_name_updated", resp.UpdatedFields.FullNameUpdated).
		Bool("email_updated", resp.UpdatedFields.EmailUpdated).
		Msg("Settings updated")

	return &models.SettingsUpdateResponse{
		Updated:  resp.UpdatedFields,
		Settings: s.Settings(profile, tag),
	}, nil
}

func (s *profileService) view(profile *newsapi.UserProfile, tag language.Tag) *models.ProfileView {
	if profile == nil {
		return nil
	}
	return &models.ProfileView{
		TgID:       profile.TgID,
		FullName:   profile.FullName,
		Email:      profile.Email,
		Categories: s.catalog.Labelled(profile.Categories, tag),
		CreatedAt:  profile.CreatedAt,
	}
}

// normalizeEmail trims the address; blank means no address.
func normalizeEmail(email *string) (*string, error) {
	if email == nil {
		return nil, nil
	}
	trimmed := strings.TrimSpace(*email)
	if trimmed == "" {
		return nil, nil
	}
	if err := validation.ValidateEmail(trimmed); err != nil {
		return nil, apperrors.NewValidationError("email", err.Error())
	}
	return &trimmed, nil
}

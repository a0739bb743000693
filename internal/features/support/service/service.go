package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	apperrors "news-miniapp-gateway/internal/common/errors"
	"news-miniapp-gateway/internal/common/validation"
	"news-miniapp-gateway/internal/features/identity"
	"news-miniapp-gateway/internal/features/support/models"
	"news-miniapp-gateway/internal/platform/newsapi"
)

type supportService struct {
	backend Backend
	logger  zerolog.Logger
}

func NewSupportService(backend Backend, logger zerolog.Logger) SupportService {
	return &supportService{
		backend: backend,
		logger:  logger,
	}
}

func (s *supportService) Send(ctx context.Context, claim *identity.Claim, req models.SupportRequest) (*models.SupportResponse, error) {
	if claim == nil {
		return nil, apperrors.NewIdentityUnavailableError()
	}

	message := strings.TrimSpace(req.Message)
	if err := validation.ValidateSupportMessage(message); err != nil {
		return nil, apperrors.NewValidationError("message", err.Error())
	}

	out := newsapi.SupportRequest{Message: message}
	if req.UserName != nil {
		out.UserName = strings.TrimSpace(*req.UserName)
	}
	if req.UserEmail != nil {
		out.UserEmail = strings.TrimSpace(*req.UserEmail)
		if out.UserEmail != "" {
			if err := validation.ValidateEmail(out.UserEmail); err != nil {
				return nil, apperrors.NewValidationError("user_email", err.Error())
			}
		}
	}

	if out.UserName == "" || out.UserEmail == "" {
		s.fillFromProfile(ctx, claim, &out)
	}

	resp, err := s.backend.SendSupport(ctx, out)
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, apperrors.New(apperrors.ErrCodeExternalAPI, "Backend rejected support request").
			WithUserID(claim.ID)
	}

	s.logger.Info().
		Int64("tg_id", claim.ID).
		Int64("support_request_id", resp.RequestID).
		Msg("Support request sent")

	return &models.SupportResponse{
		Success:   true,
		RequestID: resp.RequestID,
		Message:   resp.Message,
	}, nil
}

// fillFromProfile completes the sender from the registered profile, then from the
// Telegram name. A profile lookup failure only costs the defaults.
func (s *supportService) fillFromProfile(ctx context.Context, claim *identity.Claim, out *newsapi.SupportRequest) {
	info, err := s.backend.UserInfo(ctx, claim.ID)
	if err != nil {
		s.logger.Warn().
			Err(err).
			Int64("tg_id", claim.ID).
			Msg("Profile lookup failed, sending support request without profile defaults")
	} else if info != nil && info.Exists && info.User != nil {
		if out.UserName == "" {
			out.UserName = info.User.FullName
		}
		if out.UserEmail == "" && info.User.Email != nil {
			out.UserEmail = *info.User.Email
		}
	}

	if out.UserName == "" {
		out.UserName = claim.FirstName
	}
}

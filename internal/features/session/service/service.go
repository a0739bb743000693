package service

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	apperrors "news-miniapp-gateway/internal/common/errors"
	"news-miniapp-gateway/internal/features/identity"
	"news-miniapp-gateway/internal/features/session/models"
	"news-miniapp-gateway/internal/features/session/repository"
)

// Fallback is the development identity used when the host carries no user.
// It must only be enabled outside production; config validation enforces that.
type Fallback struct {
	Enabled bool
	Claim   identity.Claim
}

type sessionService struct {
	checker  ExistenceChecker
	store    repository.ClaimStore
	ttl      time.Duration
	fallback Fallback
	verifier Verifier
	logger   zerolog.Logger
	newID    func() string
}

// NewSessionService builds the bootstrap service. With a non-nil verifier a session is
// only opened for a claim backed by signed init data; nil trusts whatever the host
// reported and is meant for local development.
func NewSessionService(checker ExistenceChecker, store repository.ClaimStore, ttl time.Duration, fallback Fallback, verifier Verifier, logger zerolog.Logger) SessionService {
	return &sessionService{
		checker:  checker,
		store:    store,
		ttl:      ttl,
		fallback: fallback,
		verifier: verifier,
		logger:   logger,
		newID:    uuid.NewString,
	}
}

func (s *sessionService) Bootstrap(ctx context.Context, host identity.Host, page *url.URL) (*models.BootstrapResponse, error) {
	res, err := NewResolver(host, page, s.checker, s.logger).Resolve(ctx)
	if err != nil {
		return nil, err
	}

	usedFallback := false
	if res.Claim == nil && s.fallback.Enabled {
		claim := s.fallback.Claim
		s.logger.Warn().
			Int64("tg_id", claim.ID).
			Msg("Using development fallback identity")
		fallbackRes, err := CheckExistence(ctx, s.checker, &claim, "", s.logger)
		if err != nil {
			return nil, err
		}
		fallbackRes.Problems = append(res.Problems, fallbackRes.Problems...)
		res = fallbackRes
		usedFallback = true
	}

	out := toResponse(res)
	out.Fallback = usedFallback

	sessionClaim := res.Claim
	if sessionClaim != nil && !usedFallback {
		sessionClaim = s.verify(host, page, res.Claim, out)
	}
	out.Verified = s.verifier != nil && sessionClaim != nil && !usedFallback

	if sessionClaim != nil {
		sessionID := s.newID()
		if err := s.store.Save(ctx, sessionID, sessionClaim, s.ttl); err != nil {
			// the decision stands without a session; views fall back to init data
			s.logger.Error().
				Err(err).
				Int64("tg_id", sessionClaim.ID).
				Msg("Failed to store session claim")
		} else {
			out.SessionID = sessionID
		}
	}

	s.logger.Info().
		Str("decision", string(res.Decision)).
		Str("channel", res.Channel).
		Bool("uncertain", res.Uncertain).
		Bool("fallback", usedFallback).
		Bool("verified", out.Verified).
		Msg("Session bootstrapped")

	return out, nil
}

// verify returns the claim a session may be opened for, or nil. An unverified claim
// still routes the shell, but the response loses the backend profile.
func (s *sessionService) verify(host identity.Host, page *url.URL, resolved *identity.Claim, out *models.BootstrapResponse) *identity.Claim {
	if s.verifier == nil {
		return resolved
	}

	verified, err := s.verifier.Verified(host, page)
	if err == nil && verified.ID != resolved.ID {
		err = apperrors.New(apperrors.ErrCodeUnauthorized, "Signed init data belongs to another user").
			WithDetail("tg_id", verified.ID)
	}
	if err != nil {
		code := apperrors.ErrCodeUnauthorized
		if appErr, ok := apperrors.AsAppError(err); ok {
			code = appErr.Code
		}
		s.logger.Warn().
			Err(err).
			Int64("tg_id", resolved.ID).
			Str("channel", out.Channel).
			Msg("Claim is not backed by signed init data, no session opened")
		out.Profile = nil
		out.Problems = append(out.Problems, models.Problem{
			Code:    code,
			Channel: out.Channel,
			Message: "identity is not signed; session not opened",
		})
		return nil
	}
	return verified
}

func (s *sessionService) Recheck(ctx context.Context, sessionID string) (*models.BootstrapResponse, error) {
	claim, err := s.Claim(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	res, err := CheckExistence(ctx, s.checker, claim, "", s.logger)
	if err != nil {
		return nil, err
	}
	out := toResponse(res)
	out.SessionID = sessionID
	out.Verified = s.verifier != nil
	return out, nil
}

func (s *sessionService) Claim(ctx context.Context, sessionID string) (*identity.Claim, error) {
	if sessionID == "" {
		return nil, apperrors.New(apperrors.ErrCodeSessionNotFound, "Session id is required")
	}
	claim, err := s.store.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, apperrors.New(apperrors.ErrCodeSessionNotFound, "Session not found or expired").
				WithDetail("session_id", sessionID)
		}
		return nil, apperrors.NewCacheError("get session claim", err)
	}
	return claim, nil
}

func toResponse(res models.Resolution) *models.BootstrapResponse {
	return &models.BootstrapResponse{
		Claim:     res.Claim,
		Decision:  res.Decision,
		Route:     res.Decision.Route(),
		Uncertain: res.Uncertain,
		Channel:   res.Channel,
		Profile:   res.Profile,
		Problems:  res.Problems,
	}
}

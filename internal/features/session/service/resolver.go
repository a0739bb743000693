package service

import (
	"context"
	"errors"
	"net/url"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	apperrors "news-miniapp-gateway/internal/common/errors"
	"news-miniapp-gateway/internal/features/identity"
	"news-miniapp-gateway/internal/features/session/models"
	"news-miniapp-gateway/internal/platform/newsapi"
)

// ErrNotResolved is returned by Resolver.Recheck before a successful Resolve.
var ErrNotResolved = errors.New("session is not resolved yet")

// ExistenceChecker answers whether a registered profile exists for a Telegram id.
type ExistenceChecker interface {
	UserInfo(ctx context.Context, tgID int64) (*newsapi.UserInfo, error)
}

// Resolver resolves the identity and session decision of a single Mini App load.
// The first completed Resolve is memoized; a Resolver is not meant to be reused
// across loads.
type Resolver struct {
	host    identity.Host
	page    *url.URL
	parsers []identity.Parser
	checker ExistenceChecker
	logger  zerolog.Logger

	flight singleflight.Group
	mu     sync.Mutex
	result *models.Resolution
}

type ResolverOption func(*Resolver)

// WithParsers replaces the default channel order.
func WithParsers(parsers ...identity.Parser) ResolverOption {
	return func(r *Resolver) {
		r.parsers = parsers
	}
}

func NewResolver(host identity.Host, page *url.URL, checker ExistenceChecker, logger zerolog.Logger, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		host:    host,
		page:    page,
		parsers: identity.DefaultParsers(),
		checker: checker,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the claim and decision for this load. Identity or backend failures
// never surface as errors; only cancellation of ctx does, and a cancelled run leaves
// nothing memoized.
func (r *Resolver) Resolve(ctx context.Context) (models.Resolution, error) {
	for {
		if res, ok := r.memoized(); ok {
			return res, nil
		}

		ch := r.flight.DoChan("resolve", func() (interface{}, error) {
			if res, ok := r.memoized(); ok {
				return res, nil
			}
			res, err := r.resolve(ctx)
			if err != nil {
				return nil, err
			}
			r.mu.Lock()
			r.result = &res
			r.mu.Unlock()
			return res, nil
		})

		select {
		case <-ctx.Done():
			return models.Resolution{Decision: models.DecisionUnresolved}, ctx.Err()
		case out := <-ch:
			if out.Err == nil {
				return out.Val.(models.Resolution), nil
			}
			// the shared run belonged to a caller that went away; run again for ours
			if ctx.Err() == nil && isContextErr(out.Err) {
				continue
			}
			return models.Resolution{Decision: models.DecisionUnresolved}, out.Err
		}
	}
}

// Recheck re-queries the backend for the claim found by Resolve, without reading the
// host again. The memoized resolution is left untouched.
func (r *Resolver) Recheck(ctx context.Context) (models.Resolution, error) {
	res, ok := r.memoized()
	if !ok {
		return models.Resolution{Decision: models.DecisionUnresolved}, ErrNotResolved
	}
	if res.Claim == nil {
		return res, nil
	}
	return CheckExistence(ctx, r.checker, res.Claim, res.Channel, r.logger)
}

func (r *Resolver) memoized() (models.Resolution, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.result == nil {
		return models.Resolution{}, false
	}
	return *r.result, true
}

func (r *Resolver) resolve(ctx context.Context) (models.Resolution, error) {
	claim, channel, problems := r.extract()
	if claim == nil {
		problem := models.Problem{
			Code:    apperrors.ErrCodeIdentityUnavailable,
			Message: "no Telegram user found in any channel",
		}
		r.logger.Warn().
			Str("error_code", string(problem.Code)).
			Int("problems", len(problems)).
			Msg("Identity unavailable, routing to onboarding")
		return models.Resolution{
			Decision: models.DecisionOnboarding,
			Problems: append(problems, problem),
		}, nil
	}

	res, err := CheckExistence(ctx, r.checker, claim, channel, r.logger)
	if err != nil {
		return models.Resolution{}, err
	}
	res.Problems = append(problems, res.Problems...)
	return res, nil
}

// extract walks the parser chain; the first channel yielding a claim wins.
func (r *Resolver) extract() (*identity.Claim, string, []models.Problem) {
	var problems []models.Problem
	for _, p := range r.parsers {
		claim, err := p.Parse(r.host, r.page)
		if err != nil {
			problems = append(problems, models.Problem{
				Code:    apperrors.ErrCodeMalformedPayload,
				Channel: p.Channel,
				Message: err.Error(),
			})
			r.logger.Warn().
				Err(err).
				Str("error_code", string(apperrors.ErrCodeMalformedPayload)).
				Str("channel", p.Channel).
				Msg("Malformed identity payload, trying next channel")
			continue
		}
		if claim != nil {
			r.logger.Debug().
				Int64("tg_id", claim.ID).
				Str("channel", p.Channel).
				Msg("Identity resolved")
			return claim, p.Channel, problems
		}
	}
	return nil, "", problems
}

// CheckExistence asks the backend whether claim is registered. Backend failures degrade
// to an uncertain Onboarding decision; only a cancelled ctx is returned as an error.
func CheckExistence(ctx context.Context, checker ExistenceChecker, claim *identity.Claim, channel string, logger zerolog.Logger) (models.Resolution, error) {
	res := models.Resolution{
		Claim:    claim,
		Channel:  channel,
		Decision: models.DecisionOnboarding,
	}

	info, err := checker.UserInfo(ctx, claim.ID)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return models.Resolution{}, ctxErr
		}
		res.Uncertain = true
		res.Problems = append(res.Problems, models.Problem{
			Code:    apperrors.ErrCodeBackendUnreachable,
			Message: err.Error(),
		})
		logger.Error().
			Err(err).
			Str("error_code", string(apperrors.ErrCodeBackendUnreachable)).
			Int64("tg_id", claim.ID).
			Msg("Existence check failed, routing to onboarding")
		return res, nil
	}

	if info != nil && info.Exists {
		res.Decision = models.DecisionHome
		res.Profile = info.User
	}
	return res, nil
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

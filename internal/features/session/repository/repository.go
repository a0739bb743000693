package repository

import (
	"context"
	"errors"
	"time"

	"news-miniapp-gateway/internal/features/identity"
)

var ErrSessionNotFound = errors.New("session not found")

// ClaimStore keeps the raw identity claim of a session so views can read it without
// re-parsing the host payload. It is never consulted for the session decision.
type ClaimStore interface {
	Save(ctx context.Context, sessionID string, claim *identity.Claim, ttl time.Duration) error
	Get(ctx context.Context, sessionID string) (*identity.Claim, error)
	Delete(ctx context.Context, sessionID string) error
}

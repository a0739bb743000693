package service

import (
	"context"
	"net/url"

	"news-miniapp-gateway/internal/features/identity"
	"news-miniapp-gateway/internal/features/session/models"
)

// Verifier returns the claim carried by signed init data on a load.
type Verifier interface {
	Verified(host identity.Host, page *url.URL) (*identity.Claim, error)
}

type SessionService interface {
	// Bootstrap resolves one Mini App load and opens a session for the claim.
	Bootstrap(ctx context.Context, host identity.Host, page *url.URL) (*models.BootstrapResponse, error)
	// Recheck re-queries existence for the claim of an open session.
	Recheck(ctx context.Context, sessionID string) (*models.BootstrapResponse, error)
	// Claim returns the identity cached for the session.
	Claim(ctx context.Context, sessionID string) (*identity.Claim, error)
}

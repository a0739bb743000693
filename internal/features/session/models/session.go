package models

import (
	apperrors "news-miniapp-gateway/internal/common/errors"
	"news-miniapp-gateway/internal/features/identity"
	"news-miniapp-gateway/internal/platform/newsapi"
)

// Decision is the initial navigation outcome of a Mini App load.
type Decision string

const (
	DecisionUnresolved Decision = "unresolved"
	DecisionOnboarding Decision = "onboarding"
	DecisionHome       Decision = "home"
)

const (
	RouteHome       = "/home"
	RouteOnboarding = "/onboarding"
)

// Route maps the decision to the view the shell should open.
func (d Decision) Route() string {
	if d == DecisionHome {
		return RouteHome
	}
	return RouteOnboarding
}

// Problem records a recoverable failure met during resolution.
type Problem struct {
	Code    apperrors.ErrorCode `json:"code"`
	Channel string              `json:"channel,omitempty"`
	Message string              `json:"message"`
}

// Resolution is the result of resolving one Mini App load.
type Resolution struct {
	Claim    *identity.Claim
	Decision Decision
	// Uncertain is set when the existence check failed and Onboarding is a guess.
	Uncertain bool
	Channel   string
	Profile   *newsapi.UserProfile
	Problems  []Problem
}

// HostUser mirrors initDataUnsafe.user as posted by the shell.
type HostUser struct {
	ID           int64  `json:"id"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Username     string `json:"username"`
	LanguageCode string `json:"language_code"`
	IsPremium    bool   `json:"is_premium"`
	PhotoURL     string `json:"photo_url"`
}

// BootstrapRequest is the host bridge snapshot the Mini App shell posts on load.
type BootstrapRequest struct {
	InitDataUnsafe struct {
		User *HostUser `json:"user"`
	} `json:"init_data_unsafe"`
	InitData string `json:"init_data" binding:"max=8192"`
	URL      string `json:"url" binding:"max=8192"`
}

// BootstrapResponse is what the shell routes on.
type BootstrapResponse struct {
	SessionID string               `json:"session_id,omitempty"`
	Claim     *identity.Claim      `json:"claim"`
	Decision  Decision             `json:"decision"`
	Route     string               `json:"route"`
	Uncertain bool                 `json:"uncertain"`
	Fallback  bool                 `json:"fallback"`
	Verified  bool                 `json:"verified"`
	Channel   string               `json:"channel,omitempty"`
	Profile   *newsapi.UserProfile `json:"profile,omitempty"`
	Problems  []Problem            `json:"problems,omitempty"`
}

// RecheckRequest identifies the session whose existence should be checked again.
type RecheckRequest struct {
	SessionID string `json:"session_id" binding:"max=64"`
}

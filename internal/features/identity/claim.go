// Package identity extracts the launching Telegram user from the Mini App host bridge.
//
// Nothing here authenticates the user: a Claim is whatever the host reported. Signature
// checks live in Verify and are applied by the HTTP layer when a bot token is configured.
package identity

import (
	initdata "github.com/telegram-mini-apps/init-data-golang"
)

// Claim is the identity reported by the host bridge.
type Claim struct {
	ID           int64  `json:"id"`
	FirstName    string `json:"first_name,omitempty"`
	Username     string `json:"username,omitempty"`
	LanguageCode string `json:"language_code,omitempty"`
}

// Host exposes the Telegram WebApp bridge state the resolver reads.
type Host interface {
	// ParsedUser returns initDataUnsafe.user, or nil when the bridge has none.
	ParsedUser() *initdata.User
	// RawInitPayload returns the signed initData query string, possibly empty.
	RawInitPayload() string
}

// Snapshot is a captured copy of the bridge state, posted by the Mini App shell.
type Snapshot struct {
	User     *initdata.User
	InitData string
}

func (s Snapshot) ParsedUser() *initdata.User { return s.User }
func (s Snapshot) RawInitPayload() string     { return s.InitData }

func claimFromUser(u *initdata.User) *Claim {
	if u == nil || u.ID == 0 {
		return nil
	}
	return &Claim{
		ID:           u.ID,
		FirstName:    u.FirstName,
		Username:     u.Username,
		LanguageCode: u.LanguageCode,
	}
}

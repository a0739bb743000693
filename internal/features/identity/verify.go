package identity

import (
	"net/url"
	"strings"
	"time"

	initdata "github.com/telegram-mini-apps/init-data-golang"

	apperrors "news-miniapp-gateway/internal/common/errors"
)

// Verify checks the init data signature against the bot token and returns the claim it
// carries. expIn == 0 disables the expiration check.
func Verify(raw, botToken string, expIn time.Duration) (*Claim, error) {
	if err := initdata.Validate(raw, botToken, expIn); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeUnauthorized, "Invalid init data")
	}
	claim, err := ParseInitData(ChannelRawInitData, raw)
	if err != nil {
		return nil, err
	}
	if claim == nil {
		return nil, apperrors.NewIdentityUnavailableError()
	}
	return claim, nil
}

// SignatureVerifier finds signed init data on a Mini App load. initDataUnsafe is never
// consulted: the host bridge does not sign it.
type SignatureVerifier struct {
	BotToken string
	TTL      time.Duration
}

// Verified returns the claim of the first signed init string that passes Verify,
// looking at the raw payload, the URL query and the URL fragment in that order.
func (v SignatureVerifier) Verified(host Host, page *url.URL) (*Claim, error) {
	var lastErr error
	for _, raw := range signedPayloads(host, page) {
		claim, err := Verify(raw, v.BotToken, v.TTL)
		if err == nil {
			return claim, nil
		}
		lastErr = err
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, apperrors.New(apperrors.ErrCodeUnauthorized, "No signed init data on the load")
}

func signedPayloads(host Host, page *url.URL) []string {
	var out []string
	add := func(raw string) {
		if raw = strings.TrimSpace(raw); raw != "" {
			out = append(out, raw)
		}
	}
	if host != nil {
		add(host.RawInitPayload())
	}
	if page != nil {
		add(page.Query().Get(WebAppDataParam))
		if raw, err := fragmentInitData(page); err == nil {
			add(raw)
		}
	}
	return out
}

package identity

import (
	"net/url"
	"strings"

	initdata "github.com/telegram-mini-apps/init-data-golang"

	apperrors "news-miniapp-gateway/internal/common/errors"
)

// Channel names, in resolution order.
const (
	ChannelParsedUser  = "init_data_unsafe"
	ChannelRawInitData = "init_data"
	ChannelURLQuery    = "url_query"
	ChannelURLFragment = "url_fragment"
)

// WebAppDataParam is the launch parameter Telegram appends to the Mini App URL.
const WebAppDataParam = "tgWebAppData"

// Parser extracts a claim from one channel. A nil claim with a nil error means the
// channel carries nothing; an error means the channel carried an unreadable payload.
type Parser struct {
	Channel string
	Parse   func(host Host, page *url.URL) (*Claim, error)
}

// DefaultParsers returns the resolution order used by the Mini App.
func DefaultParsers() []Parser {
	return []Parser{
		{Channel: ChannelParsedUser, Parse: fromParsedUser},
		{Channel: ChannelRawInitData, Parse: fromRawInitData},
		{Channel: ChannelURLQuery, Parse: fromURLQuery},
		{Channel: ChannelURLFragment, Parse: fromURLFragment},
	}
}

func fromParsedUser(host Host, _ *url.URL) (*Claim, error) {
	if host == nil {
		return nil, nil
	}
	return claimFromUser(host.ParsedUser()), nil
}

func fromRawInitData(host Host, _ *url.URL) (*Claim, error) {
	if host == nil {
		return nil, nil
	}
	return ParseInitData(ChannelRawInitData, host.RawInitPayload())
}

func fromURLQuery(_ Host, page *url.URL) (*Claim, error) {
	if page == nil {
		return nil, nil
	}
	return ParseInitData(ChannelURLQuery, page.Query().Get(WebAppDataParam))
}

func fromURLFragment(_ Host, page *url.URL) (*Claim, error) {
	raw, err := fragmentInitData(page)
	if err != nil {
		return nil, err
	}
	return ParseInitData(ChannelURLFragment, raw)
}

// fragmentInitData returns the tgWebAppData launch parameter from the URL fragment.
func fragmentInitData(page *url.URL) (string, error) {
	if page == nil {
		return "", nil
	}
	frag := page.EscapedFragment()
	if frag == "" {
		return "", nil
	}
	// hash routers put their own path in front: #/home?tgWebAppData=...
	if i := strings.IndexByte(frag, '?'); i >= 0 {
		frag = frag[i+1:]
	}
	params, err := url.ParseQuery(frag)
	if err != nil {
		return "", apperrors.NewMalformedPayloadError(ChannelURLFragment, err)
	}
	return params.Get(WebAppDataParam), nil
}

// ParseInitData reads the user out of a Telegram init data query string.
func ParseInitData(channel, raw string) (*Claim, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	data, err := initdata.Parse(raw)
	if err != nil {
		return nil, apperrors.NewMalformedPayloadError(channel, err)
	}
	return claimFromUser(&data.User), nil
}

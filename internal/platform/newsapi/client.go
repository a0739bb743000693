// Package newsapi is the REST client for the external news backend (/api/user/*, /api/news).
package newsapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	apperrors "news-miniapp-gateway/internal/common/errors"
)

// maxErrorBody bounds how much of a failed response is kept for diagnostics.
const maxErrorBody = 512

type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

func NewClient(baseURL string, timeout time.Duration, logger zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// UserInfo reports whether a profile exists for the Telegram user id.
func (c *Client) UserInfo(ctx context.Context, tgID int64) (*UserInfo, error) {
	var out UserInfo
	q := url.Values{"tg_id": {strconv.FormatInt(tgID, 10)}}
	if err := c.do(ctx, http.MethodGet, "/api/user/info", q, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SaveUser(ctx context.Context, req SaveUserRequest) (*SaveUserResponse, error) {
	var out SaveUserResponse
	if err := c.do(ctx, http.MethodPost, "/api/user/save", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateUser(ctx context.Context, tgID int64, req UpdateUserRequest) (*UpdateUserResponse, error) {
	var out UpdateUserResponse
	q := url.Values{"tg_id": {strconv.FormatInt(tgID, 10)}}
	if err := c.do(ctx, http.MethodPut, "/api/user/update", q, req, &out); err != nil {
		return nil, err
	}
	// the backend answers 200 with success=false for unknown users
	if !out.Success {
		return nil, apperrors.New(apperrors.ErrCodeUserNotFound, "User not found").
			WithDetail("tg_id", tgID).
			WithDetail("backend_error", out.Error)
	}
	return &out, nil
}

func (c *Client) SendSupport(ctx context.Context, req SupportRequest) (*SupportResponse, error) {
	var out SupportResponse
	if err := c.do(ctx, http.MethodPost, "/api/user/support", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// News returns the feed for one category.
func (c *Client) News(ctx context.Context, category string) (*NewsFeed, error) {
	var out NewsFeed
	q := url.Values{"type": {category}}
	if err := c.do(ctx, http.MethodGet, "/api/news", q, nil, &out); err != nil {
		return nil, err
	}
	for i := range out.Items {
		if out.Items[i].Type == "" {
			out.Items[i].Type = category
		}
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, result interface{}) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint = fmt.Sprintf("%s?%s", endpoint, query.Encode())
	}
	op := method + " " + path

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to encode request")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to create request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		// a cancelled caller is not a backend outage
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return apperrors.NewBackendUnreachableError(op, err)
	}
	defer resp.Body.Close()

	c.logger.Debug().
		Str("op", op).
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).
		Msg("Backend call")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return apperrors.New(apperrors.ErrCodeExternalAPI, fmt.Sprintf("Backend returned %d for %s", resp.StatusCode, op)).
			WithDetail("operation", op).
			WithDetail("status", resp.StatusCode).
			WithDetail("body", string(snippet))
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return apperrors.NewBackendUnreachableError(op, fmt.Errorf("failed to parse response: %w", err))
	}
	return nil
}

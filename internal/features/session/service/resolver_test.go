package service

import (
	"bytes"
	"context"
	"errors"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	initdata "github.com/telegram-mini-apps/init-data-golang"

	apperrors "news-miniapp-gateway/internal/common/errors"
	"news-miniapp-gateway/internal/features/identity"
	"news-miniapp-gateway/internal/features/session/models"
	"news-miniapp-gateway/internal/platform/newsapi"
)

type fakeChecker struct {
	mu       sync.Mutex
	info     *newsapi.UserInfo
	err      error
	calls    atomic.Int32
	returned atomic.Int32
	ids      []int64
	// block, when set, holds every call until closed or ctx is done
	block chan struct{}
}

func (f *fakeChecker) UserInfo(ctx context.Context, tgID int64) (*newsapi.UserInfo, error) {
	f.calls.Add(1)
	defer f.returned.Add(1)
	f.mu.Lock()
	f.ids = append(f.ids, tgID)
	f.mu.Unlock()
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.info, nil
}

func annHost() identity.Host {
	return identity.Snapshot{User: &initdata.User{ID: 42, FirstName: "Ann"}}
}

func annRaw() string {
	return url.Values{
		"user":      {`{"id":42,"first_name":"Ann"}`},
		"auth_date": {"1700000000"},
		"hash":      {"f00dfeedbeef"},
	}.Encode()
}

func capture() (*bytes.Buffer, zerolog.Logger) {
	buf := &bytes.Buffer{}
	return buf, zerolog.New(buf)
}

func TestResolveParsedUserNotRegistered(t *testing.T) {
	checker := &fakeChecker{info: &newsapi.UserInfo{Exists: false}}
	r := NewResolver(annHost(), nil, checker, zerolog.Nop())

	res, err := r.Resolve(context.Background())
	require.NoError(t, err)

	assert.Equal(t, &identity.Claim{ID: 42, FirstName: "Ann"}, res.Claim)
	assert.Equal(t, models.DecisionOnboarding, res.Decision)
	assert.False(t, res.Uncertain)
	assert.Equal(t, identity.ChannelParsedUser, res.Channel)
	assert.Equal(t, []int64{42}, checker.ids)
}

func TestResolveRegisteredUserGoesHome(t *testing.T) {
	profile := &newsapi.UserProfile{TgID: 42, Categories: []string{"sport"}, FullName: "Ann"}
	checker := &fakeChecker{info: &newsapi.UserInfo{Exists: true, User: profile}}
	r := NewResolver(annHost(), nil, checker, zerolog.Nop())

	res, err := r.Resolve(context.Background())
	require.NoError(t, err)

	assert.Equal(t, models.DecisionHome, res.Decision)
	assert.Equal(t, profile, res.Profile)
	assert.Equal(t, models.RouteHome, res.Decision.Route())
}

func TestResolveSameClaimForEveryChannel(t *testing.T) {
	raw := annRaw()
	query, _ := url.Parse("https://news.example/?" + url.Values{identity.WebAppDataParam: {raw}}.Encode())
	fragment, _ := url.Parse("https://news.example/#" + url.Values{identity.WebAppDataParam: {raw}}.Encode())

	cases := []struct {
		name string
		host identity.Host
		page *url.URL
	}{
		{"parsed user", annHost(), nil},
		{"raw init data", identity.Snapshot{InitData: raw}, nil},
		{"url query", identity.Snapshot{}, query},
		{"url fragment", identity.Snapshot{}, fragment},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			checker := &fakeChecker{info: &newsapi.UserInfo{Exists: true}}
			res, err := NewResolver(tc.host, tc.page, checker, zerolog.Nop()).Resolve(context.Background())
			require.NoError(t, err)
			assert.Equal(t, &identity.Claim{ID: 42, FirstName: "Ann"}, res.Claim)
			assert.Equal(t, models.DecisionHome, res.Decision)
		})
	}
}

func TestResolveWithoutIdentitySkipsBackend(t *testing.T) {
	buf, logger := capture()
	checker := &fakeChecker{info: &newsapi.UserInfo{Exists: true}}
	page, _ := url.Parse("https://news.example/")

	res, err := NewResolver(identity.Snapshot{}, page, checker, logger).Resolve(context.Background())
	require.NoError(t, err)

	assert.Nil(t, res.Claim)
	assert.Equal(t, models.DecisionOnboarding, res.Decision)
	assert.Equal(t, int32(0), checker.calls.Load())
	require.Len(t, res.Problems, 1)
	assert.Equal(t, apperrors.ErrCodeIdentityUnavailable, res.Problems[0].Code)
	assert.Contains(t, buf.String(), string(apperrors.ErrCodeIdentityUnavailable))
}

func TestResolveNilHost(t *testing.T) {
	checker := &fakeChecker{}
	res, err := NewResolver(nil, nil, checker, zerolog.Nop()).Resolve(context.Background())
	require.NoError(t, err)
	assert.Nil(t, res.Claim)
	assert.Equal(t, models.DecisionOnboarding, res.Decision)
	assert.Equal(t, int32(0), checker.calls.Load())
}

func TestResolveBackendFailureDegrades(t *testing.T) {
	buf, logger := capture()
	checker := &fakeChecker{err: apperrors.NewBackendUnreachableError("GET /api/user/info", errors.New("i/o timeout"))}

	res, err := NewResolver(annHost(), nil, checker, logger).Resolve(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(42), res.Claim.ID)
	assert.Equal(t, models.DecisionOnboarding, res.Decision)
	assert.True(t, res.Uncertain)
	require.Len(t, res.Problems, 1)
	assert.Equal(t, apperrors.ErrCodeBackendUnreachable, res.Problems[0].Code)
	assert.Contains(t, buf.String(), "Existence check failed")
	assert.Contains(t, buf.String(), `"level":"error"`)
}

func TestResolveMalformedChannelFallsThrough(t *testing.T) {
	buf, logger := capture()
	checker := &fakeChecker{info: &newsapi.UserInfo{Exists: false}}
	bad := url.Values{"user": {`{"id":42,`}}.Encode()
	page, _ := url.Parse("https://news.example/?" + url.Values{identity.WebAppDataParam: {annRaw()}}.Encode())

	res, err := NewResolver(identity.Snapshot{InitData: bad}, page, checker, logger).Resolve(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(42), res.Claim.ID)
	assert.Equal(t, identity.ChannelURLQuery, res.Channel)
	require.Len(t, res.Problems, 1)
	assert.Equal(t, apperrors.ErrCodeMalformedPayload, res.Problems[0].Code)
	assert.Equal(t, identity.ChannelRawInitData, res.Problems[0].Channel)
	assert.Contains(t, buf.String(), string(apperrors.ErrCodeMalformedPayload))
}

func TestResolveIsMemoized(t *testing.T) {
	checker := &fakeChecker{info: &newsapi.UserInfo{Exists: true}}
	r := NewResolver(annHost(), nil, checker, zerolog.Nop())

	first, err := r.Resolve(context.Background())
	require.NoError(t, err)
	second, err := r.Resolve(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), checker.calls.Load())
}

func TestResolveConcurrentTriggersShareOneCall(t *testing.T) {
	checker := &fakeChecker{info: &newsapi.UserInfo{Exists: false}, block: make(chan struct{})}
	r := NewResolver(annHost(), nil, checker, zerolog.Nop())

	const n = 8
	var wg sync.WaitGroup
	results := make([]models.Resolution, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := r.Resolve(context.Background())
			assert.NoError(t, err)
			results[i] = res
		}(i)
	}

	require.Eventually(t, func() bool { return checker.calls.Load() == 1 }, time.Second, time.Millisecond)
	close(checker.block)
	wg.Wait()

	assert.Equal(t, int32(1), checker.calls.Load())
	for _, res := range results {
		assert.Equal(t, results[0], res)
	}
}

func TestResolveCancelledLeavesNothingMemoized(t *testing.T) {
	checker := &fakeChecker{info: &newsapi.UserInfo{Exists: true}, block: make(chan struct{})}
	r := NewResolver(annHost(), nil, checker, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := r.Resolve(ctx)
		done <- err
	}()

	require.Eventually(t, func() bool { return checker.calls.Load() == 1 }, time.Second, time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	require.Eventually(t, func() bool { return checker.returned.Load() == 1 }, time.Second, time.Millisecond)
	_, ok := r.memoized()
	assert.False(t, ok)

	close(checker.block)
	res, err := r.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.DecisionHome, res.Decision)
	assert.Equal(t, int32(2), checker.calls.Load())
}

func TestRecheckUsesResolvedClaim(t *testing.T) {
	checker := &fakeChecker{info: &newsapi.UserInfo{Exists: false}}
	r := NewResolver(annHost(), nil, checker, zerolog.Nop())

	_, err := r.Recheck(context.Background())
	assert.ErrorIs(t, err, ErrNotResolved)

	first, err := r.Resolve(context.Background())
	require.NoError(t, err)
	require.Equal(t, models.DecisionOnboarding, first.Decision)

	checker.info = &newsapi.UserInfo{Exists: true}
	again, err := r.Recheck(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.DecisionHome, again.Decision)
	assert.Equal(t, first.Claim, again.Claim)

	// the load's own decision is not rewritten
	memo, err := r.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.DecisionOnboarding, memo.Decision)
	assert.Equal(t, int32(2), checker.calls.Load())
}

func TestRecheckWithoutClaimDoesNotCallBackend(t *testing.T) {
	checker := &fakeChecker{}
	r := NewResolver(identity.Snapshot{}, nil, checker, zerolog.Nop())
	_, err := r.Resolve(context.Background())
	require.NoError(t, err)

	res, err := r.Recheck(context.Background())
	require.NoError(t, err)
	assert.Nil(t, res.Claim)
	assert.Equal(t, int32(0), checker.calls.Load())
}

func TestWithParsersOverridesOrder(t *testing.T) {
	checker := &fakeChecker{info: &newsapi.UserInfo{}}
	only := identity.Parser{
		Channel: "fixed",
		Parse: func(identity.Host, *url.URL) (*identity.Claim, error) {
			return &identity.Claim{ID: 9}, nil
		},
	}
	res, err := NewResolver(annHost(), nil, checker, zerolog.Nop(), WithParsers(only)).Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(9), res.Claim.ID)
	assert.Equal(t, "fixed", res.Channel)
}

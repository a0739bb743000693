package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"news-miniapp-gateway/internal/common/cache"
	"news-miniapp-gateway/internal/common/cache/cachetest"
	apperrors "news-miniapp-gateway/internal/common/errors"
	"news-miniapp-gateway/internal/features/catalog"
	"news-miniapp-gateway/internal/features/identity"
	"news-miniapp-gateway/internal/features/profile/models"
	"news-miniapp-gateway/internal/platform/newsapi"
)

type fakeBackend struct {
	mu      sync.Mutex
	users   map[int64]*newsapi.UserProfile
	infoErr error
	saves   atomic.Int32
	// saveGate, when set, holds SaveUser until closed
	saveGate chan struct{}
	updates  []newsapi.UpdateUserRequest
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{users: map[int64]*newsapi.UserProfile{}}
}

func (f *fakeBackend) UserInfo(_ context.Context, tgID int64) (*newsapi.UserInfo, error) {
	if f.infoErr != nil {
		return nil, f.infoErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[tgID]; ok {
		return &newsapi.UserInfo{Exists: true, User: u}, nil
	}
	return &newsapi.UserInfo{Exists: false}, nil
}

func (f *fakeBackend) SaveUser(ctx context.Context, req newsapi.SaveUserRequest) (*newsapi.SaveUserResponse, error) {
	f.saves.Add(1)
	if f.saveGate != nil {
		select {
		case <-f.saveGate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[req.TgID] = &newsapi.UserProfile{TgID: req.TgID, Categories: req.Categories, FullName: req.FullName, Email: req.Email}
	return &newsapi.SaveUserResponse{
		Success:         true,
		CategoriesCount: len(req.Categories),
		Categories:      req.Categories,
		FullName:        req.FullName,
		Email:           req.Email,
	}, nil
}

func (f *fakeBackend) UpdateUser(_ context.Context, tgID int64, req newsapi.UpdateUserRequest) (*newsapi.UpdateUserResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, req)
	u, ok := f.users[tgID]
	if !ok {
		return nil, apperrors.New(apperrors.ErrCodeUserNotFound, "User not found")
	}
	resp := &newsapi.UpdateUserResponse{Success: true}
	if req.Categories != nil {
		u.Categories = req.Categories
		resp.UpdatedFields.CategoriesUpdated = true
	}
	if req.FullName != nil {
		u.FullName = *req.FullName
		resp.UpdatedFields.FullNameUpdated = true
	}
	if req.Email != nil {
		u.Email = req.Email
		resp.UpdatedFields.EmailUpdated = true
	}
	resp.User = &newsapi.UserProfile{Categories: u.Categories, FullName: u.FullName, Email: u.Email}
	return resp, nil
}

func newTestService(backend *fakeBackend, mem *cachetest.Memory) ProfileService {
	return NewProfileService(backend, cache.NewCacheService(mem), catalog.New(), zerolog.Nop())
}

var ann = &identity.Claim{ID: 42, FirstName: "Ann"}

func strPtr(s string) *string { return &s }

func TestRegisterCreatesProfile(t *testing.T) {
	backend := newFakeBackend()
	mem := cachetest.NewMemory()
	svc := newTestService(backend, mem)

	out, err := svc.Register(context.Background(), ann, models.OnboardingRequest{Categories: []string{"sport", "tver"}}, language.Russian)
	require.NoError(t, err)

	assert.True(t, out.Created)
	assert.Equal(t, "/home", out.Route)
	assert.Equal(t, "Ann", out.Profile.FullName)
	assert.Nil(t, out.Profile.Email)
	assert.Equal(t, []catalog.Category{{Type: "sport", Label: "Спорт"}, {Type: "tver", Label: "Тверь"}}, out.Profile.Categories)
	assert.Equal(t, int32(1), backend.saves.Load())
	// the lock is released once the registration finishes
	assert.Equal(t, 0, mem.Len())
}

func TestRegisterExistingUserWritesNothing(t *testing.T) {
	backend := newFakeBackend()
	backend.users[42] = &newsapi.UserProfile{TgID: 42, Categories: []string{"history"}, FullName: "Ann K"}
	svc := newTestService(backend, cachetest.NewMemory())

	out, err := svc.Register(context.Background(), ann, models.OnboardingRequest{Categories: []string{"sport"}}, language.English)
	require.NoError(t, err)

	assert.False(t, out.Created)
	assert.Equal(t, "/home", out.Route)
	assert.Equal(t, "Ann K", out.Profile.FullName)
	assert.Equal(t, []catalog.Category{{Type: "history", Label: "My History"}}, out.Profile.Categories)
	assert.Equal(t, int32(0), backend.saves.Load())
}

func TestRegisterRepeatedTriggerSavesOnce(t *testing.T) {
	backend := newFakeBackend()
	backend.saveGate = make(chan struct{})
	svc := newTestService(backend, cachetest.NewMemory())

	const n = 5
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Register(context.Background(), ann, models.OnboardingRequest{Categories: []string{"sport"}}, language.Russian)
		}(i)
	}

	require.Eventually(t, func() bool { return backend.saves.Load() == 1 }, time.Second, time.Millisecond)
	close(backend.saveGate)
	wg.Wait()

	assert.Equal(t, int32(1), backend.saves.Load())

	// a later trigger finds the profile and does not save again
	out, err := svc.Register(context.Background(), ann, models.OnboardingRequest{Categories: []string{"sport"}}, language.Russian)
	require.NoError(t, err)
	assert.False(t, out.Created)
	assert.Equal(t, int32(1), backend.saves.Load())
	for _, err := range errs {
		if err != nil {
			assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeConflict), err.Error())
		}
	}
}

func TestRegisterOutlivesCancelledCaller(t *testing.T) {
	backend := newFakeBackend()
	backend.saveGate = make(chan struct{})
	svc := newTestService(backend, cachetest.NewMemory())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := svc.Register(ctx, ann, models.OnboardingRequest{Categories: []string{"sport"}}, language.Russian)
		done <- err
	}()

	require.Eventually(t, func() bool { return backend.saves.Load() == 1 }, time.Second, time.Millisecond)
	// the client gave up while the backend was still saving
	cancel()
	close(backend.saveGate)

	require.NoError(t, <-done)
	backend.mu.Lock()
	saved, ok := backend.users[42]
	backend.mu.Unlock()
	require.True(t, ok)
	assert.Equal(t, []string{"sport"}, saved.Categories)
}

func TestRegisterRejectsHeldLock(t *testing.T) {
	backend := newFakeBackend()
	mem := cachetest.NewMemory()
	_, err := cache.NewCacheService(mem).Lock(context.Background(), cache.RegistrationLockKey(42), time.Minute)
	require.NoError(t, err)

	_, err = newTestService(backend, mem).Register(context.Background(), ann, models.OnboardingRequest{Categories: []string{"sport"}}, language.Russian)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeConflict))
	assert.Equal(t, int32(0), backend.saves.Load())
}

func TestRegisterWithoutLockStore(t *testing.T) {
	backend := newFakeBackend()
	mem := cachetest.NewMemory()
	mem.Err = errors.New("redis down")

	out, err := newTestService(backend, mem).Register(context.Background(), ann, models.OnboardingRequest{Categories: []string{"first"}}, language.Russian)
	require.NoError(t, err)
	assert.True(t, out.Created)
}

func TestRegisterValidation(t *testing.T) {
	backend := newFakeBackend()
	svc := newTestService(backend, cachetest.NewMemory())
	ctx := context.Background()

	_, err := svc.Register(ctx, ann, models.OnboardingRequest{}, language.Russian)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeValidation))

	_, err = svc.Register(ctx, ann, models.OnboardingRequest{Categories: []string{"weather"}}, language.Russian)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeValidation))

	_, err = svc.Register(ctx, ann, models.OnboardingRequest{Categories: []string{"sport"}, Email: strPtr("nope")}, language.Russian)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeValidation))

	_, err = svc.Register(ctx, nil, models.OnboardingRequest{Categories: []string{"sport"}}, language.Russian)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeIdentityUnavailable))

	assert.Equal(t, int32(0), backend.saves.Load())
}

func TestRegisterBackendDown(t *testing.T) {
	backend := newFakeBackend()
	backend.infoErr = apperrors.NewBackendUnreachableError("GET /api/user/info", errors.New("refused"))

	_, err := newTestService(backend, cachetest.NewMemory()).Register(context.Background(), ann, models.OnboardingRequest{Categories: []string{"sport"}}, language.Russian)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeBackendUnreachable))
	assert.Equal(t, int32(0), backend.saves.Load())
}

func TestHomeAndSettingsViews(t *testing.T) {
	svc := newTestService(newFakeBackend(), cachetest.NewMemory())
	profile := &newsapi.UserProfile{TgID: 42, Categories: []string{"first"}, FullName: "Ann"}

	home := svc.Home(ann, profile, language.English)
	assert.Equal(t, "Ann", home.FirstName)
	assert.Equal(t, "en", home.Language)
	assert.Equal(t, []catalog.Category{{Type: "first", Label: "Movement of the First"}}, home.Profile.Categories)

	settings := svc.Settings(profile, language.Russian)
	assert.Len(t, settings.Available, 4)
	assert.Equal(t, int64(42), settings.Profile.TgID)
}

func TestUpdateSettings(t *testing.T) {
	backend := newFakeBackend()
	backend.users[42] = &newsapi.UserProfile{TgID: 42, Categories: []string{"sport"}, FullName: "Ann"}
	svc := newTestService(backend, cachetest.NewMemory())

	out, err := svc.UpdateSettings(context.Background(), ann, models.SettingsUpdate{
		Categories: []string{"tver", "history"},
		Email:      strPtr(" ann@example.com "),
	}, language.Russian)
	require.NoError(t, err)

	assert.True(t, out.Updated.CategoriesUpdated)
	assert.True(t, out.Updated.EmailUpdated)
	assert.False(t, out.Updated.FullNameUpdated)
	assert.Equal(t, int64(42), out.Settings.Profile.TgID)
	require.NotNil(t, out.Settings.Profile.Email)
	assert.Equal(t, "ann@example.com", *out.Settings.Profile.Email)
	assert.Equal(t, []catalog.Category{{Type: "tver", Label: "Тверь"}, {Type: "history", Label: "Моя история"}}, out.Settings.Profile.Categories)

	require.Len(t, backend.updates, 1)
	assert.Nil(t, backend.updates[0].FullName)
}

func TestUpdateSettingsValidation(t *testing.T) {
	backend := newFakeBackend()
	backend.users[42] = &newsapi.UserProfile{TgID: 42}
	svc := newTestService(backend, cachetest.NewMemory())
	ctx := context.Background()

	_, err := svc.UpdateSettings(ctx, ann, models.SettingsUpdate{}, language.Russian)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeValidation))

	_, err = svc.UpdateSettings(ctx, ann, models.SettingsUpdate{Categories: []string{}}, language.Russian)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeValidation))

	_, err = svc.UpdateSettings(ctx, ann, models.SettingsUpdate{FullName: strPtr("  ")}, language.Russian)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeValidation))

	_, err = svc.UpdateSettings(ctx, ann, models.SettingsUpdate{Email: strPtr("ann@")}, language.Russian)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeValidation))

	assert.Empty(t, backend.updates)

	_, err = svc.UpdateSettings(ctx, &identity.Claim{ID: 7}, models.SettingsUpdate{FullName: strPtr("Bob")}, language.Russian)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeUserNotFound))
}

func TestUpdateSettingsClearsEmail(t *testing.T) {
	backend := newFakeBackend()
	backend.users[42] = &newsapi.UserProfile{TgID: 42, Email: strPtr("old@example.com")}
	svc := newTestService(backend, cachetest.NewMemory())

	_, err := svc.UpdateSettings(context.Background(), ann, models.SettingsUpdate{Email: strPtr("")}, language.Russian)
	require.NoError(t, err)
	require.Len(t, backend.updates, 1)
	require.NotNil(t, backend.updates[0].Email)
	assert.Equal(t, "", *backend.updates[0].Email)
}

package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"news-miniapp-gateway/internal/common/cache"
	"news-miniapp-gateway/internal/common/cache/cachetest"
	"news-miniapp-gateway/internal/common/middleware"
	"news-miniapp-gateway/internal/features/catalog"
	"news-miniapp-gateway/internal/features/identity"
	"news-miniapp-gateway/internal/features/news/models"
	"news-miniapp-gateway/internal/features/news/service"
	"news-miniapp-gateway/internal/platform/newsapi"
	"news-miniapp-gateway/internal/platform/newsapi/newsapitest"
)

func newRouter(t *testing.T, withClaim bool) (*gin.Engine, *newsapitest.Server) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	backend := newsapitest.NewServer()
	t.Cleanup(backend.Close)
	backend.SetNews("tver",
		newsapi.NewsItem{ID: 11, Text: "Открылся новый сквер на набережной", Link: "https://t.me/tver/11", Date: "2025-06-01"},
	)

	cat := catalog.New()
	client := newsapi.NewClient(backend.URL, time.Second, zerolog.Nop())
	svc := service.NewNewsService(client, cache.NewCacheService(cachetest.NewMemory()), time.Minute, cat, zerolog.Nop())

	r := gin.New()
	if withClaim {
		r.Use(func(c *gin.Context) { middleware.SetClaim(c, &identity.Claim{ID: 42, LanguageCode: "ru"}) })
	}
	NewNewsHandler(svc, cat, zerolog.Nop()).RegisterRoutes(r.Group("/api/v1"))
	return r, backend
}

func get(r *gin.Engine, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestFeedEndpoint(t *testing.T) {
	r, backend := newRouter(t, true)

	rec := get(r, "/api/v1/categories/tver/news")
	require.Equal(t, http.StatusOK, rec.Code)

	var feed models.FeedView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &feed))
	assert.Equal(t, "Тверь", feed.Category.Label)
	require.Len(t, feed.Items, 1)
	assert.Equal(t, "tver", feed.Items[0].Type)

	rec = get(r, "/api/v1/categories/tver/news/11")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, backend.Calls("GET /api/news"))
}

func TestArticleErrors(t *testing.T) {
	r, _ := newRouter(t, true)

	assert.Equal(t, http.StatusNotFound, get(r, "/api/v1/categories/tver/news/404").Code)
	assert.Equal(t, http.StatusBadRequest, get(r, "/api/v1/categories/tver/news/abc").Code)
	assert.Equal(t, http.StatusNotFound, get(r, "/api/v1/categories/weather/news").Code)
}

func TestFeedRequiresIdentity(t *testing.T) {
	r, backend := newRouter(t, false)
	assert.Equal(t, http.StatusUnauthorized, get(r, "/api/v1/categories/tver/news").Code)
	assert.Equal(t, 0, backend.Calls("GET /api/news"))
}

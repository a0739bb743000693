package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	apperrors "news-miniapp-gateway/internal/common/errors"
	"news-miniapp-gateway/internal/common/middleware"
	"news-miniapp-gateway/internal/features/catalog"
	catalogHTTP "news-miniapp-gateway/internal/features/catalog/delivery/http"
	"news-miniapp-gateway/internal/features/news/service"
)

type NewsHandler struct {
	service service.NewsService
	catalog *catalog.Catalog
	logger  zerolog.Logger
}

func NewNewsHandler(service service.NewsService, cat *catalog.Catalog, logger zerolog.Logger) *NewsHandler {
	return &NewsHandler{
		service: service,
		catalog: cat,
		logger:  logger,
	}
}

// RegisterRoutes expects TelegramIdentity to run before the group.
func (h *NewsHandler) RegisterRoutes(router *gin.RouterGroup) {
	wrap := middleware.HandleErrorWrapper(h.logger)
	news := router.Group("/categories/:category/news")
	news.Use(middleware.RequireClaim(h.logger))
	{
		news.GET("", wrap(h.feed))
		news.GET("/:id", wrap(h.article))
	}
}

// @Summary Category feed
// @Tags news
// @Produce json
// @Security SessionID
// @Security TelegramInitData
// @Param category path string true "Category type"
// @Success 200 {object} models.FeedView "News previews"
// @Failure 401 {object} middleware.ErrorResponse "Unauthorized"
// @Failure 404 {object} middleware.ErrorResponse "Unknown category"
// @Failure 502 {object} middleware.ErrorResponse "News backend unavailable"
// @Router /categories/{category}/news [get]
func (h *NewsHandler) feed(c *gin.Context) {
	feed, err := h.service.Feed(c.Request.Context(), c.Param("category"), catalogHTTP.ResolveLanguage(c, h.catalog))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, feed)
}

// @Summary News article
// @Tags news
// @Produce json
// @Security SessionID
// @Security TelegramInitData
// @Param category path string true "Category type"
// @Param id path int true "News ID"
// @Success 200 {object} models.ArticleView "Article"
// @Failure 400 {object} middleware.ErrorResponse "Invalid id"
// @Failure 401 {object} middleware.ErrorResponse "Unauthorized"
// @Failure 404 {object} middleware.ErrorResponse "Article not found"
// @Router /categories/{category}/news/{id} [get]
func (h *NewsHandler) article(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		_ = c.Error(apperrors.NewValidationError("id", "must be an integer"))
		return
	}

	article, err := h.service.Article(c.Request.Context(), c.Param("category"), id, catalogHTTP.ResolveLanguage(c, h.catalog))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, article)
}

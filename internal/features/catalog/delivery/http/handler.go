package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/text/language"

	"news-miniapp-gateway/internal/common/middleware"
	"news-miniapp-gateway/internal/features/catalog"
)

// LangParam overrides the language picked from the user and headers.
const LangParam = "lang"

type CatalogHandler struct {
	catalog *catalog.Catalog
}

func NewCatalogHandler(c *catalog.Catalog) *CatalogHandler {
	return &CatalogHandler{catalog: c}
}

func (h *CatalogHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/categories", h.list)
}

// @Summary List categories
// @Description Category types with labels in the resolved language
// @Tags categories
// @Produce json
// @Param lang query string false "Language override (ru, en)"
// @Success 200 {object} map[string]interface{} "language and categories"
// @Router /categories [get]
func (h *CatalogHandler) list(c *gin.Context) {
	tag := ResolveLanguage(c, h.catalog)
	c.JSON(http.StatusOK, gin.H{
		"language":   tag.String(),
		"categories": h.catalog.List(tag),
	})
}

// ResolveLanguage prefers the lang query parameter, then the caller's Telegram
// language, then Accept-Language.
func ResolveLanguage(c *gin.Context, cat *catalog.Catalog) language.Tag {
	var fromClaim string
	if claim, ok := middleware.GetClaim(c); ok {
		fromClaim = claim.LanguageCode
	}
	return cat.Match(c.Query(LangParam), fromClaim, c.GetHeader("Accept-Language"))
}

package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/multilingual-news-api/internal/i18n"
	"github.com/multilingual-news-api/internal/models"
	"github.com/multilingual-news-api/internal/service"
	"github.com/rs/zerolog"
)

// ArticleHandler handles article endpoints
type ArticleHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewArticleHandler creates a new ArticleHandler
func NewArticleHandler(services *service.Services, log zerolog.Logger) *ArticleHandler {
	return &ArticleHandler{
		services: services,
		log:      log.With().Str("handler", "article").Logger(),
	}
}

// List handles GET /v1/articles
// Query: status (admin), category, year, search|q, tag, offset, limit, lang (public)
func (h *ArticleHandler) List(c *gin.Context) {
	p := principal(c)

	search := c.Query("search")
	if search == "" {
		search = c.Query("q")
	}
	params := service.ListParams{
		Status:   c.Query("status"),
		Category: c.Query("category"),
		Year:     c.Query("year"),
		Search:   search,
		Tag:      c.Query("tag"),
		Offset:   queryInt(c, "offset"),
		Limit:    queryInt(c, "limit"),
	}

	result, err := h.services.Article.List(c.Request.Context(), params, p)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	setReadCaching(c, p.Admin)
	c.JSON(http.StatusOK, gin.H{
		"items": service.PresentList(result.Items, p.Admin, requestLang(c)),
		"total": result.Total,
	})
}

// Get handles GET /v1/articles/:id where the parameter is an id or a slug
func (h *ArticleHandler) Get(c *gin.Context) {
	p := principal(c)

	article, err := h.services.Article.Get(c.Request.Context(), c.Param("id"), p)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	if p.Admin {
		c.Header("ETag", article.ETag)
	}
	setReadCaching(c, p.Admin)
	c.JSON(http.StatusOK, service.Present(article, p.Admin, requestLang(c)))
}

// Create handles POST /v1/articles
func (h *ArticleHandler) Create(c *gin.Context) {
	if !requireAdmin(c) {
		return
	}

	in, ok := h.bindInput(c)
	if !ok {
		return
	}

	ref, err := h.services.Article.Create(c.Request.Context(), in, principal(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.Header("ETag", ref.ETag)
	c.JSON(http.StatusCreated, ref)
}

// Update handles PUT /v1/articles/:id with an If-Match precondition
func (h *ArticleHandler) Update(c *gin.Context) {
	if !requireAdmin(c) {
		return
	}

	in, ok := h.bindInput(c)
	if !ok {
		return
	}

	ref, err := h.services.Article.Update(c.Request.Context(), pathID(c), ifMatch(c), in, principal(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.Header("ETag", ref.ETag)
	c.JSON(http.StatusOK, gin.H{"ok": true, "etag": ref.ETag})
}

// Delete handles DELETE /v1/articles/:id with an If-Match precondition
func (h *ArticleHandler) Delete(c *gin.Context) {
	if !requireAdmin(c) {
		return
	}

	if err := h.services.Article.Delete(c.Request.Context(), pathID(c), ifMatch(c), principal(c)); err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *ArticleHandler) bindInput(c *gin.Context) (*models.ArticleInput, bool) {
	var in models.ArticleInput
	if err := json.NewDecoder(c.Request.Body).Decode(&in); err != nil {
		h.log.Debug().Err(err).Msg("Invalid article payload")
		abortWith(c, http.StatusBadRequest, "invalid JSON body", codeBadRequest)
		return nil, false
	}
	return &in, true
}

// pathID parses the :id segment. Anything that is not a positive integer
// maps to 0, which never exists, so the caller still sees validation
// errors before the not-found.
func pathID(c *gin.Context) int64 {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 0 {
		return 0
	}
	return id
}

// ifMatch returns the If-Match token without quotes or weak prefix.
// A missing header is the empty token, which matches no article.
func ifMatch(c *gin.Context) string {
	v := strings.TrimSpace(c.GetHeader("If-Match"))
	v = strings.TrimPrefix(v, "W/")
	if len(v) >= 2 && strings.HasPrefix(v, `"`) && strings.HasSuffix(v, `"`) {
		v = v[1 : len(v)-1]
	}
	return v
}

func queryInt(c *gin.Context, name string) int {
	n, err := strconv.Atoi(strings.TrimSpace(c.Query(name)))
	if err != nil {
		return 0
	}
	return n
}

// requestLang returns the requested display language, if supported
func requestLang(c *gin.Context) i18n.Lang {
	lang, ok := i18n.ParseLang(c.Query("lang"))
	if !ok {
		return ""
	}
	return lang
}

func setReadCaching(c *gin.Context, admin bool) {
	if admin {
		c.Header("Cache-Control", "no-store")
		return
	}
	c.Header("Cache-Control", publicCacheControl)
}

package api

import (
	"bytes"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/multilingual-news-api/internal/auth"
	"github.com/multilingual-news-api/internal/cache"
	"github.com/multilingual-news-api/internal/service"
	"github.com/rs/zerolog"
)

const (
	principalKey = "principal"

	publicCacheControl = "public, max-age=30"
	defaultCacheTTL    = 30 * time.Second
)

// principalMiddleware resolves the caller once per request
func principalMiddleware(authn *auth.Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := auth.Anonymous
		if authn != nil {
			p = authn.Resolve(c.Request)
		}
		c.Set(principalKey, p)
		c.Next()
	}
}

// principal returns the caller resolved by principalMiddleware
func principal(c *gin.Context) auth.Principal {
	if v, ok := c.Get(principalKey); ok {
		if p, ok := v.(auth.Principal); ok {
			return p
		}
	}
	return auth.Anonymous
}

// bodyRecorder copies everything written to the client
type bodyRecorder struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *bodyRecorder) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bodyRecorder) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// publicCacheMiddleware serves anonymous GETs from the response cache and
// stores successful ones. Administrators always bypass it. Cache errors
// only cost a trip to the store.
func publicCacheMiddleware(responses cache.Cache, ttl time.Duration, log zerolog.Logger) gin.HandlerFunc {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	log = log.With().Str("component", "response_cache").Logger()

	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet || principal(c).Admin {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		key := service.PublicCachePrefix + c.Request.URL.RequestURI()

		body, ok, err := responses.Get(ctx, key)
		if err != nil {
			log.Debug().Err(err).Str("key", key).Msg("Cache read failed")
		}
		if ok {
			c.Header("Cache-Control", publicCacheControl)
			c.Header("X-Cache", "HIT")
			c.Data(http.StatusOK, "application/json; charset=utf-8", body)
			c.Abort()
			return
		}

		rec := &bodyRecorder{ResponseWriter: c.Writer}
		c.Writer = rec
		c.Header("X-Cache", "MISS")

		c.Next()

		if c.Writer.Status() != http.StatusOK || rec.body.Len() == 0 {
			return
		}
		if err := responses.Set(ctx, key, rec.body.Bytes(), ttl); err != nil {
			log.Debug().Err(err).Str("key", key).Msg("Cache write failed")
		}
	}
}

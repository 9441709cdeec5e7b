package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/multilingual-news-api/internal/api"
	"github.com/multilingual-news-api/internal/auth"
	"github.com/multilingual-news-api/internal/config"
	"github.com/multilingual-news-api/internal/i18n"
	"github.com/multilingual-news-api/internal/mocks"
	"github.com/multilingual-news-api/internal/models"
	"github.com/multilingual-news-api/internal/repository"
	"github.com/multilingual-news-api/internal/service"
	"github.com/multilingual-news-api/pkg/logger"
	"github.com/rs/zerolog"
)

const adminEmail = "admin@example.org"

type testEnv struct {
	router   *gin.Engine
	authn    *auth.Authenticator
	articles *mocks.MockArticleRepository
	cache    *mocks.MockCache
	images   *mocks.MockImageStore
}

func setupTestRouter(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	env := &testEnv{
		articles: mocks.NewMockArticleRepository(),
		cache:    mocks.NewMockCache(),
		images:   mocks.NewMockImageStore(),
	}

	cfg := &config.Config{
		Server:  config.ServerConfig{Port: "8080"},
		Auth:    config.AuthConfig{AdminEmail: adminEmail, JWTSecret: "test-secret"},
		Cache:   config.CacheConfig{TTL: time.Minute},
		Storage: config.StorageConfig{MaxImageSize: 1024},
		Import:  config.ImportConfig{MaxUploadSize: 1 << 20},
	}

	log := zerolog.Nop()
	repos := &repository.Repositories{Article: env.articles}
	services := service.NewServices(repos, env.images, env.cache, cfg, log)
	env.authn = auth.New(cfg.Auth)
	env.router = api.NewRouter(services, env.authn, env.cache, nil, cfg, log)
	return env
}

type request struct {
	method  string
	path    string
	body    io.Reader
	admin   bool
	headers map[string]string
}

func (e *testEnv) do(r request) *httptest.ResponseRecorder {
	req := httptest.NewRequest(r.method, r.path, r.body)
	if r.body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.admin {
		req.Header.Set(auth.AccessEmailHeader, adminEmail)
	}
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("invalid JSON response %q: %v", w.Body.String(), err)
	}
	return out
}

func articleJSON(slug, status string) string {
	return fmt.Sprintf(`{"slug":%q,"title":{"en":"Hello"},"body":{"en":"<p>Hi</p><script>alert(1)</script>"},"author":"A","publish_date":"2024-01-01","status":%q}`, slug, status)
}

func (e *testEnv) create(t *testing.T, slug, status string) (int64, string) {
	t.Helper()
	w := e.do(request{method: "POST", path: "/v1/articles", body: strings.NewReader(articleJSON(slug, status)), admin: true})
	if w.Code != http.StatusCreated {
		t.Fatalf("create %s: expected 201, got %d: %s", slug, w.Code, w.Body.String())
	}
	resp := decode(t, w)
	return int64(resp["id"].(float64)), resp["etag"].(string)
}

func TestHealthEndpoint(t *testing.T) {
	env := setupTestRouter(t)

	w := env.do(request{method: "GET", path: "/health"})
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	response := decode(t, w)
	if response["status"] != "healthy" {
		t.Errorf("Expected status 'healthy', got %v", response["status"])
	}
	if response["service"] != logger.ServiceName {
		t.Errorf("Expected service name, got %v", response["service"])
	}
}

func TestMetricsEndpoint(t *testing.T) {
	env := setupTestRouter(t)
	env.create(t, "one", "draft")
	env.create(t, "two", "published")
	env.create(t, "three", "published")

	w := env.do(request{method: "GET", path: "/metrics"})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	articles := decode(t, w)["articles"].(map[string]interface{})
	if articles["total"] != float64(3) {
		t.Errorf("Expected 3 articles, got %v", articles["total"])
	}
	byStatus := articles["by_status"].(map[string]interface{})
	if byStatus["published"] != float64(2) || byStatus["draft"] != float64(1) {
		t.Errorf("Unexpected status counts: %v", byStatus)
	}
}

func TestCORSHeaders(t *testing.T) {
	env := setupTestRouter(t)

	w := env.do(request{method: "OPTIONS", path: "/v1/articles"})
	if w.Code != http.StatusNoContent {
		t.Errorf("Expected status 204, got %d", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("Expected CORS origin header")
	}
	if !strings.Contains(w.Header().Get("Access-Control-Allow-Headers"), "If-Match") {
		t.Errorf("Expected If-Match to be allowed, got %q", w.Header().Get("Access-Control-Allow-Headers"))
	}
	if w.Header().Get("Access-Control-Expose-Headers") != "ETag" {
		t.Error("Expected ETag to be exposed")
	}
}

func TestEndToEndScenario(t *testing.T) {
	env := setupTestRouter(t)

	payload := `{"slug":"test-1","title":{"en":"Hello"},"body":{"en":"<p>Hi</p>"},"author":"A","publish_date":"2024-01-01","status":"draft"}`
	w := env.do(request{method: "POST", path: "/v1/articles", body: strings.NewReader(payload), admin: true})
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	created := decode(t, w)
	id, ok := created["id"].(float64)
	if !ok || id != float64(int64(id)) {
		t.Fatalf("Expected integer id, got %v", created["id"])
	}
	etag, _ := created["etag"].(string)
	if etag == "" || w.Header().Get("ETag") != etag {
		t.Fatalf("Expected etag in body and header, got %q / %q", etag, w.Header().Get("ETag"))
	}
	path := fmt.Sprintf("/v1/articles/%d", int64(id))

	w = env.do(request{method: "GET", path: path, admin: true})
	if w.Code != http.StatusOK {
		t.Fatalf("admin get: expected 200, got %d", w.Code)
	}
	if got := decode(t, w)["status"]; got != "draft" {
		t.Errorf("Expected status draft, got %v", got)
	}
	if w.Header().Get("ETag") != etag {
		t.Errorf("Expected ETag header %q, got %q", etag, w.Header().Get("ETag"))
	}

	w = env.do(request{method: "GET", path: path})
	if w.Code != http.StatusNotFound {
		t.Fatalf("public get of draft: expected 404, got %d", w.Code)
	}
	if decode(t, w)["code"] != "not_found" {
		t.Errorf("Expected not_found code")
	}

	update := `{"slug":"test-1","title":{"en":"Hello"},"body":{"en":"<p onclick=\"x()\">Hi</p><script>bad()</script>"},"author":"A","publish_date":"2024-01-01","status":"published"}`
	w = env.do(request{method: "PUT", path: path, body: strings.NewReader(update), admin: true, headers: map[string]string{"If-Match": etag}})
	if w.Code != http.StatusOK {
		t.Fatalf("update: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	newETag := decode(t, w)["etag"].(string)
	if newETag == "" || newETag == etag {
		t.Errorf("Expected rotated etag, got %q", newETag)
	}

	w = env.do(request{method: "GET", path: path})
	if w.Code != http.StatusOK {
		t.Fatalf("public get after publish: expected 200, got %d", w.Code)
	}
	public := decode(t, w)
	body := public["body"].(map[string]interface{})["en"].(string)
	if body != "<p>Hi</p>" {
		t.Errorf("Expected sanitized body, got %q", body)
	}
	if _, leaked := public["etag"]; leaked {
		t.Error("Public view must not expose the etag")
	}
	if w.Header().Get("Cache-Control") != "public, max-age=30" {
		t.Errorf("Expected public caching, got %q", w.Header().Get("Cache-Control"))
	}
}

func TestUpdatePreconditions(t *testing.T) {
	env := setupTestRouter(t)
	id, etag := env.create(t, "guarded", "draft")
	path := fmt.Sprintf("/v1/articles/%d", id)
	update := articleJSON("guarded", "published")

	for _, token := range []string{"", "stale", `"also-stale"`} {
		headers := map[string]string{}
		if token != "" {
			headers["If-Match"] = token
		}
		w := env.do(request{method: "PUT", path: path, body: strings.NewReader(update), admin: true, headers: headers})
		if w.Code != http.StatusConflict {
			t.Errorf("If-Match %q: expected 409, got %d", token, w.Code)
			continue
		}
		if decode(t, w)["code"] != "etag_mismatch" {
			t.Errorf("If-Match %q: expected etag_mismatch code", token)
		}
	}
	if got := env.articles.Articles[id]; got.Status != models.StatusDraft || got.ETag != etag {
		t.Errorf("Rejected updates must not change the row, got status=%s etag=%s", got.Status, got.ETag)
	}

	// Quoted tokens are accepted.
	w := env.do(request{method: "PUT", path: path, body: strings.NewReader(update), admin: true, headers: map[string]string{"If-Match": `"` + etag + `"`}})
	if w.Code != http.StatusOK {
		t.Fatalf("quoted If-Match: expected 200, got %d", w.Code)
	}

	w = env.do(request{method: "PUT", path: "/v1/articles/9999", body: strings.NewReader(update), admin: true, headers: map[string]string{"If-Match": etag}})
	if w.Code != http.StatusNotFound {
		t.Errorf("missing article: expected 404, got %d", w.Code)
	}

	w = env.do(request{method: "PUT", path: "/v1/articles/9999", body: strings.NewReader(`{"slug":"BAD"}`), admin: true})
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("invalid payload on missing article: expected 422, got %d", w.Code)
	}
}

func TestDeleteArticle(t *testing.T) {
	env := setupTestRouter(t)
	id, etag := env.create(t, "doomed", "published")
	path := fmt.Sprintf("/v1/articles/%d", id)

	w := env.do(request{method: "DELETE", path: path, admin: true})
	if w.Code != http.StatusConflict {
		t.Errorf("missing If-Match: expected 409, got %d", w.Code)
	}

	w = env.do(request{method: "DELETE", path: path, admin: true, headers: map[string]string{"If-Match": etag}})
	if w.Code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", w.Code)
	}
	if decode(t, w)["ok"] != true {
		t.Error("Expected ok: true")
	}

	w = env.do(request{method: "DELETE", path: path, admin: true, headers: map[string]string{"If-Match": etag}})
	if w.Code != http.StatusNotFound {
		t.Errorf("second delete: expected 404, got %d", w.Code)
	}
}

func TestCreateErrors(t *testing.T) {
	env := setupTestRouter(t)
	env.create(t, "taken", "draft")

	tests := []struct {
		name     string
		body     string
		admin    bool
		wantCode int
		check    func(t *testing.T, resp map[string]interface{})
	}{
		{
			name:     "not admin",
			body:     articleJSON("fresh", "draft"),
			wantCode: http.StatusForbidden,
			check: func(t *testing.T, resp map[string]interface{}) {
				if resp["code"] != "unauthorized" {
					t.Errorf("Expected unauthorized code, got %v", resp["code"])
				}
			},
		},
		{
			name:     "invalid JSON",
			body:     `{"slug":`,
			admin:    true,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "validation errors",
			body:     `{"slug":"Bad Slug","title":{"my":"x"},"body":{"en":"x"},"author":"","publish_date":"2024-02-30","status":"live","tags":"x"}`,
			admin:    true,
			wantCode: http.StatusUnprocessableEntity,
			check: func(t *testing.T, resp map[string]interface{}) {
				errs := resp["errors"].(map[string]interface{})
				for _, field := range []string{"slug", "title", "author", "publish_date", "status", "tags"} {
					if _, ok := errs[field]; !ok {
						t.Errorf("Expected error for %s, got %v", field, errs)
					}
				}
				if errs["title"] != "Title required in English" {
					t.Errorf("Unexpected title message %v", errs["title"])
				}
			},
		},
		{
			name:     "slug conflict",
			body:     articleJSON("taken", "published"),
			admin:    true,
			wantCode: http.StatusConflict,
			check: func(t *testing.T, resp map[string]interface{}) {
				if resp["code"] != "slug_conflict" {
					t.Errorf("Expected slug_conflict code, got %v", resp["code"])
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(request{method: "POST", path: "/v1/articles", body: strings.NewReader(tt.body), admin: tt.admin})
			if w.Code != tt.wantCode {
				t.Fatalf("Expected %d, got %d: %s", tt.wantCode, w.Code, w.Body.String())
			}
			if tt.check != nil {
				tt.check(t, decode(t, w))
			}
		})
	}

	if len(env.articles.Articles) != 1 {
		t.Errorf("Expected only the original article, got %d", len(env.articles.Articles))
	}
}

func TestBearerTokenAdmin(t *testing.T) {
	env := setupTestRouter(t)

	token, err := env.authn.IssueToken(adminEmail, time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	w := env.do(request{
		method:  "POST",
		path:    "/v1/articles",
		body:    strings.NewReader(articleJSON("via-token", "draft")),
		headers: map[string]string{"Authorization": "Bearer " + token},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}

	w = env.do(request{
		method:  "POST",
		path:    "/v1/articles",
		body:    strings.NewReader(articleJSON("via-bad-token", "draft")),
		headers: map[string]string{"Authorization": "Bearer not-a-token"},
	})
	if w.Code != http.StatusForbidden {
		t.Errorf("Expected 403 for bad token, got %d", w.Code)
	}
}

func TestListVisibilityAndTotals(t *testing.T) {
	env := setupTestRouter(t)
	env.create(t, "draft-a", "draft")
	env.create(t, "published-a", "published")
	env.create(t, "archived-a", "archived")

	w := env.do(request{method: "GET", path: "/v1/articles"})
	resp := decode(t, w)
	items := resp["items"].([]interface{})
	if len(items) != 1 || items[0].(map[string]interface{})["slug"] != "published-a" {
		t.Errorf("Public list should only contain the published article, got %v", items)
	}

	w = env.do(request{method: "GET", path: "/v1/articles", admin: true})
	resp = decode(t, w)
	if resp["total"] != float64(3) {
		t.Errorf("Admin list should see all three, got total %v", resp["total"])
	}
	if w.Header().Get("Cache-Control") != "no-store" {
		t.Errorf("Admin responses must not be cached, got %q", w.Header().Get("Cache-Control"))
	}

	w = env.do(request{method: "GET", path: "/v1/articles?limit=1&offset=0", admin: true})
	resp = decode(t, w)
	if len(resp["items"].([]interface{})) != 1 || resp["total"] != float64(3) {
		t.Errorf("Expected 1 item with total 3, got %v", resp)
	}

	w = env.do(request{method: "GET", path: "/v1/articles?status=draft", admin: true})
	if decode(t, w)["total"] != float64(1) {
		t.Error("Admin status filter should narrow to drafts")
	}

	w = env.do(request{method: "GET", path: "/v1/articles?status=draft"})
	items = decode(t, w)["items"].([]interface{})
	if len(items) != 1 || items[0].(map[string]interface{})["slug"] != "published-a" {
		t.Errorf("Public status filter must be ignored, got %v", items)
	}
}

func TestLanguageResolution(t *testing.T) {
	env := setupTestRouter(t)
	env.articles.Seed(&models.Article{
		Slug:        "mara-only",
		Title:       i18n.Localize(map[string]string{"mara": "Hello"}),
		Body:        i18n.Localize(map[string]string{"en": "<p>Body</p>"}),
		Author:      "A",
		PublishDate: "2024-01-01",
		Status:      models.StatusPublished,
		ETag:        "e1",
	})

	w := env.do(request{method: "GET", path: "/v1/articles/mara-only?lang=my"})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	resp := decode(t, w)
	if resp["title"] != "Hello" {
		t.Errorf("Expected fallback to mrh, got %v", resp["title"])
	}
	if resp["body"] != "<p>Body</p>" {
		t.Errorf("Expected resolved body, got %v", resp["body"])
	}

	w = env.do(request{method: "GET", path: "/v1/articles/mara-only"})
	title := decode(t, w)["title"].(map[string]interface{})
	if title["mrh"] != "Hello" {
		t.Errorf("Expected normalized mrh key, got %v", title)
	}
}

func TestIdempotentReadAndCache(t *testing.T) {
	env := setupTestRouter(t)
	env.create(t, "cached", "published")

	first := env.do(request{method: "GET", path: "/v1/articles/cached"})
	second := env.do(request{method: "GET", path: "/v1/articles/cached"})
	if first.Code != http.StatusOK || !bytes.Equal(first.Body.Bytes(), second.Body.Bytes()) {
		t.Fatalf("Repeated reads differ:\n%s\n%s", first.Body.String(), second.Body.String())
	}
	if first.Header().Get("X-Cache") != "MISS" || second.Header().Get("X-Cache") != "HIT" {
		t.Errorf("Expected MISS then HIT, got %q then %q", first.Header().Get("X-Cache"), second.Header().Get("X-Cache"))
	}

	// Any write clears cached public responses.
	env.create(t, "another", "published")
	if env.cache.Len() != 0 {
		t.Errorf("Expected cache to be cleared, %d entries left", env.cache.Len())
	}
	third := env.do(request{method: "GET", path: "/v1/articles/cached"})
	if third.Header().Get("X-Cache") != "MISS" {
		t.Errorf("Expected MISS after write, got %q", third.Header().Get("X-Cache"))
	}

	// Not-found responses are never cached.
	env.do(request{method: "GET", path: "/v1/articles/missing"})
	if w := env.do(request{method: "GET", path: "/v1/articles/missing"}); w.Header().Get("X-Cache") != "MISS" {
		t.Error("404 responses must not be cached")
	}

	// Administrators bypass the cache.
	if w := env.do(request{method: "GET", path: "/v1/articles/cached", admin: true}); w.Header().Get("X-Cache") != "" {
		t.Errorf("Admin reads must bypass the cache, got %q", w.Header().Get("X-Cache"))
	}
}

func multipartFile(t *testing.T, filename, contentType string, data []byte) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := textproto.MIMEHeader{}
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	if err != nil {
		t.Fatal(err)
	}
	part.Write(data)
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func TestImageUploadAndServe(t *testing.T) {
	env := setupTestRouter(t)

	body, contentType := multipartFile(t, "logo.png", "image/png", []byte("\x89PNG data"))
	w := env.do(request{method: "POST", path: "/v1/images", body: body, admin: true, headers: map[string]string{"Content-Type": contentType}})
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	url := decode(t, w)["url"].(string)
	if !strings.HasPrefix(url, "/v1/images/") || !strings.HasSuffix(url, ".png") {
		t.Fatalf("Unexpected url %q", url)
	}

	w = env.do(request{method: "GET", path: url})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if w.Body.String() != "\x89PNG data" {
		t.Errorf("Unexpected image body %q", w.Body.String())
	}
	if w.Header().Get("Content-Type") != "image/png" {
		t.Errorf("Expected image/png, got %q", w.Header().Get("Content-Type"))
	}
	if w.Header().Get("Cache-Control") != "public, max-age=31536000, immutable" {
		t.Errorf("Unexpected Cache-Control %q", w.Header().Get("Cache-Control"))
	}
	if w.Header().Get("Content-Security-Policy") != "" {
		t.Errorf("Raster images should not carry a CSP, got %q", w.Header().Get("Content-Security-Policy"))
	}
}

func TestImageDelete(t *testing.T) {
	env := setupTestRouter(t)

	body, contentType := multipartFile(t, "logo.png", "image/png", []byte("\x89PNG"))
	w := env.do(request{method: "POST", path: "/v1/images", body: body, admin: true, headers: map[string]string{"Content-Type": contentType}})
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	url := decode(t, w)["url"].(string)

	if w := env.do(request{method: "DELETE", path: url}); w.Code != http.StatusForbidden {
		t.Errorf("Expected 403 for anonymous delete, got %d", w.Code)
	}
	if w := env.do(request{method: "DELETE", path: url, admin: true}); w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if w := env.do(request{method: "GET", path: url}); w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 after delete, got %d", w.Code)
	}

	for _, path := range []string{url, "/v1/images/never-stored.png", "/v1/images/..bad"} {
		if w := env.do(request{method: "DELETE", path: path, admin: true}); w.Code != http.StatusNotFound {
			t.Errorf("DELETE %s: expected 404, got %d", path, w.Code)
		}
	}
}

func TestSVGServedSandboxed(t *testing.T) {
	env := setupTestRouter(t)

	svg := []byte(`<svg xmlns="http://www.w3.org/2000/svg"><script>alert(1)</script></svg>`)
	body, contentType := multipartFile(t, "icon.svg", "image/svg+xml", svg)
	w := env.do(request{method: "POST", path: "/v1/images", body: body, admin: true, headers: map[string]string{"Content-Type": contentType}})
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}

	w = env.do(request{method: "GET", path: decode(t, w)["url"].(string)})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if csp := w.Header().Get("Content-Security-Policy"); !strings.Contains(csp, "sandbox") || !strings.Contains(csp, "script-src 'none'") {
		t.Errorf("Expected sandboxing CSP for SVG, got %q", csp)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.HasPrefix(cd, "attachment") {
		t.Errorf("Expected attachment disposition for SVG, got %q", cd)
	}
}

func TestImageUploadRejections(t *testing.T) {
	env := setupTestRouter(t)

	tests := []struct {
		name        string
		contentType string
		size        int
		admin       bool
		wantCode    int
	}{
		{"anonymous", "image/png", 10, false, http.StatusForbidden},
		{"wrong type", "application/pdf", 10, true, http.StatusUnsupportedMediaType},
		{"too large", "image/jpeg", 4096, true, http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, contentType := multipartFile(t, "f.bin", tt.contentType, bytes.Repeat([]byte("x"), tt.size))
			w := env.do(request{method: "POST", path: "/v1/images", body: body, admin: tt.admin, headers: map[string]string{"Content-Type": contentType}})
			if w.Code != tt.wantCode {
				t.Errorf("Expected %d, got %d: %s", tt.wantCode, w.Code, w.Body.String())
			}
		})
	}

	if w := env.do(request{method: "GET", path: "/v1/images/nothing.png"}); w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown image, got %d", w.Code)
	}
}

func TestImportAndExport(t *testing.T) {
	env := setupTestRouter(t)

	ndjson := strings.Join([]string{
		articleJSON("first", "published"),
		articleJSON("Bad Slug", "published"),
		articleJSON("second", "draft"),
	}, "\n")

	body, contentType := multipartFile(t, "articles.ndjson", "application/x-ndjson", []byte(ndjson))
	w := env.do(request{method: "POST", path: "/v1/imports/articles", body: body, admin: true, headers: map[string]string{"Content-Type": contentType}})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	result := decode(t, w)
	if result["total"] != float64(3) || result["created"] != float64(2) || result["failed"] != float64(1) {
		t.Errorf("Unexpected import summary %v", result)
	}

	w = env.do(request{method: "GET", path: "/v1/exports/articles?format=ndjson", admin: true})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	if len(lines) != 2 {
		t.Errorf("Expected 2 exported lines, got %d", len(lines))
	}

	w = env.do(request{method: "GET", path: "/v1/exports/articles?format=json", admin: true})
	var items []map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &items); err != nil || len(items) != 2 {
		t.Errorf("Expected JSON array of 2, got %q (%v)", w.Body.String(), err)
	}

	if w := env.do(request{method: "GET", path: "/v1/exports/articles?format=csv", admin: true}); w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for csv export, got %d", w.Code)
	}
	if w := env.do(request{method: "GET", path: "/v1/exports/articles"}); w.Code != http.StatusForbidden {
		t.Errorf("Expected 403 for anonymous export, got %d", w.Code)
	}
}

func TestImportErrorsCSV(t *testing.T) {
	env := setupTestRouter(t)

	body, contentType := multipartFile(t, "articles.ndjson", "application/x-ndjson", []byte("{broken\n"))
	w := env.do(request{method: "POST", path: "/v1/imports/articles?format=csv", body: body, admin: true, headers: map[string]string{"Content-Type": contentType}})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if w.Header().Get("Content-Type") != "text/csv" {
		t.Errorf("Expected text/csv, got %s", w.Header().Get("Content-Type"))
	}
	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	if len(lines) != 2 || lines[0] != "line,field,message,value" || !strings.HasPrefix(lines[1], "1,json,") {
		t.Errorf("Unexpected CSV %q", w.Body.String())
	}
}

func TestImportWithWrongFileExtension(t *testing.T) {
	env := setupTestRouter(t)

	body, contentType := multipartFile(t, "articles.csv", "text/csv", []byte("a,b\n"))
	w := env.do(request{method: "POST", path: "/v1/imports/articles", body: body, admin: true, headers: map[string]string{"Content-Type": contentType}})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", w.Code)
	}
}

package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/umanagarjuna/linkshort/internal/url/cache"
	"github.com/umanagarjuna/linkshort/internal/url/domain"
	"github.com/umanagarjuna/linkshort/internal/url/metrics"
	"github.com/umanagarjuna/linkshort/internal/url/repository"
	"github.com/umanagarjuna/linkshort/internal/url/service"
	"github.com/umanagarjuna/linkshort/pkg/shortcode"
	"github.com/umanagarjuna/linkshort/pkg/validator"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// newTestService wires a real service over in-memory SQLite. Seeds start at
// 1000, so the first generated code is "g8".
func newTestService(t *testing.T) *service.URLService {
	t.Helper()

	db, err := sqlx.Connect("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	repo := repository.NewSQLiteRepository(db)
	if err := repo.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	seeds := shortcode.SeedFunc(func(context.Context) (uint64, error) { return 1000, nil })

	return service.NewURLService(repo, cache.NewMemoryCache(time.Hour, time.Minute), seeds,
		shortcode.NewRandomGenerator(), validator.NewDefaultValidator(), nil, zap.NewNop(),
		metrics.NoopMetrics{}, service.Config{BaseURL: "http://sho.rt/", CodeLength: 6})
}

func newTestRouter(t *testing.T, svc URLService) (*gin.Engine, *HTTPHandler) {
	t.Helper()
	h := NewHTTPHandler(svc, zap.NewNop(), metrics.NewInMemoryMetrics())
	return NewRouter(h), h
}

func do(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) APIError {
	t.Helper()
	var body struct {
		Error APIError `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body %q: %v", w.Body.String(), err)
	}
	return body.Error
}

func TestHTTP_ShortenAndRedirect(t *testing.T) {
	router, _ := newTestRouter(t, newTestService(t))

	w := do(router, http.MethodPost, "/shorten", `{"longUrl":"https://example.com/docs"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("POST /shorten status = %d, body %s", w.Code, w.Body.String())
	}
	if got := w.Body.String(); got != "http://sho.rt/g8" {
		t.Fatalf("POST /shorten body = %q, want http://sho.rt/g8", got)
	}

	w = do(router, http.MethodGet, "/g8", "")
	if w.Code != http.StatusFound {
		t.Fatalf("GET /g8 status = %d, want 302", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "https://example.com/docs" {
		t.Errorf("Location = %q", loc)
	}
}

func TestHTTP_ShortenErrors(t *testing.T) {
	router, _ := newTestRouter(t, newTestService(t))

	if w := do(router, http.MethodPost, "/shorten", `{"longUrl":"https://example.com","customShortCode":"mine"}`); w.Code != http.StatusCreated {
		t.Fatalf("setup status = %d", w.Code)
	}

	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"malformed json", `{"longUrl":`, http.StatusBadRequest, "invalid_request"},
		{"missing url", `{}`, http.StatusBadRequest, "invalid_request"},
		{"bad scheme", `{"longUrl":"ftp://example.com"}`, http.StatusBadRequest, "invalid_url"},
		{"bad custom code", `{"longUrl":"https://example.com/x","customShortCode":"no way"}`, http.StatusBadRequest, "invalid_short_code"},
		{"taken custom code", `{"longUrl":"https://example.com/y","customShortCode":"mine"}`, http.StatusConflict, "short_code_taken"},
		{"expiration overflow", `{"longUrl":"https://example.com/z","expirationMinutes":307445735}`, http.StatusBadRequest, "invalid_expiration"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(router, http.MethodPost, "/shorten", tt.body)
			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d (body %s)", w.Code, tt.status, w.Body.String())
			}
			if got := decodeError(t, w); got.Code != tt.code {
				t.Errorf("error code = %q, want %q", got.Code, tt.code)
			}
		})
	}
}

func TestHTTP_RedirectUnknown(t *testing.T) {
	router, _ := newTestRouter(t, newTestService(t))

	w := do(router, http.MethodGet, "/doesnotexist", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	if got := decodeError(t, w); got.Code != "not_found" {
		t.Errorf("error code = %q", got.Code)
	}
}

func TestHTTP_JSONAPI(t *testing.T) {
	router, _ := newTestRouter(t, newTestService(t))

	w := do(router, http.MethodPost, "/api/v1/urls", `{"longUrl":"https://example.com/a","expirationMinutes":60}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("POST /api/v1/urls status = %d, body %s", w.Code, w.Body.String())
	}

	var created domain.URLResponse
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.ShortCode != "g8" || created.ShortURL != "http://sho.rt/g8" || created.ExpiresAt == nil {
		t.Fatalf("created = %+v", created)
	}

	for i := 0; i < 2; i++ {
		do(router, http.MethodGet, "/g8", "")
	}

	w = do(router, http.MethodGet, "/api/v1/urls/g8", "")
	if w.Code != http.StatusOK {
		t.Fatalf("GET stats status = %d", w.Code)
	}
	var stats domain.URLResponse
	if err := json.Unmarshal(w.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if stats.Clicks != 2 || stats.LongURL != "https://example.com/a" {
		t.Errorf("stats = %+v", stats)
	}

	if w := do(router, http.MethodGet, "/api/v1/urls/zzz", ""); w.Code != http.StatusNotFound {
		t.Errorf("GET unknown stats status = %d", w.Code)
	}
}

func TestHTTP_RequestID(t *testing.T) {
	router, _ := newTestRouter(t, newTestService(t))

	w := do(router, http.MethodGet, "/health", "")
	if id := w.Header().Get(RequestIDHeader); len(id) != 36 {
		t.Errorf("generated request id = %q", id)
	}

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if id := w.Header().Get(RequestIDHeader); id != "abc-123" {
		t.Errorf("propagated request id = %q", id)
	}
}

func TestHTTP_HealthAndMetrics(t *testing.T) {
	router, h := newTestRouter(t, newTestService(t))
	h.AddHealthCheck("database", func(context.Context) error { return nil })

	if w := do(router, http.MethodGet, "/health", ""); w.Code != http.StatusOK {
		t.Fatalf("healthy status = %d", w.Code)
	}

	h.AddHealthCheck("cache", func(context.Context) error { return errors.New("refused") })
	w := do(router, http.MethodGet, "/health", "")
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("degraded status = %d", w.Code)
	}
	var health struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &health)
	if health.Status != "degraded" || health.Checks["cache"] != "down" || health.Checks["database"] != "up" {
		t.Errorf("health = %+v", health)
	}

	w = do(router, http.MethodGet, "/debug/metrics", "")
	var snapshot struct {
		Counters map[string]int64 `json:"counters"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &snapshot); err != nil {
		t.Fatalf("decode metrics: %v", err)
	}
	if snapshot.Counters["http_requests{method=GET,status=200}"] != 1 {
		t.Errorf("counters = %v", snapshot.Counters)
	}
}

// brokenService fails every call with an internal error.
type brokenService struct{}

var errDatabase = errors.New("pq: connection refused to 10.0.0.5")

func (brokenService) Shorten(context.Context, *domain.ShortenRequest) (*domain.URL, error) {
	return nil, errDatabase
}
func (brokenService) Resolve(context.Context, string, *domain.ClickEvent) (string, error) {
	return "", errDatabase
}
func (brokenService) GetURL(context.Context, string) (*domain.URL, error) { return nil, errDatabase }
func (brokenService) ShortURL(code string) string                         { return code }

func TestHTTP_InternalErrorsAreOpaque(t *testing.T) {
	router, _ := newTestRouter(t, brokenService{})

	for _, path := range []string{"/abc", "/api/v1/urls/abc"} {
		w := do(router, http.MethodGet, path, "")
		if w.Code != http.StatusInternalServerError {
			t.Fatalf("GET %s status = %d", path, w.Code)
		}
		if strings.Contains(w.Body.String(), "10.0.0.5") {
			t.Errorf("GET %s leaked internals: %s", path, w.Body.String())
		}
	}
}

func TestHTTP_RecoversFromPanic(t *testing.T) {
	router, _ := newTestRouter(t, brokenService{})
	router.GET("/debug/panic", func(*gin.Context) { panic("boom") })

	w := do(router, http.MethodGet, "/debug/panic", "")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	if got := decodeError(t, w); got.Code != "internal_error" {
		t.Errorf("error code = %q", got.Code)
	}
}

func TestHTTP_NilMetricsDefaults(t *testing.T) {
	h := NewHTTPHandler(newTestService(t), nil, nil)
	router := NewRouter(h)

	if w := do(router, http.MethodGet, "/health", ""); w.Code != http.StatusOK {
		t.Fatalf("GET /health status = %d", w.Code)
	}
	w := do(router, http.MethodGet, "/debug/metrics", "")
	if w.Code != http.StatusOK {
		t.Fatalf("GET /debug/metrics status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "http_requests{method=GET,status=200}") {
		t.Errorf("metrics body = %s", w.Body.String())
	}
}

package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/umanagarjuna/linkshort/internal/url/domain"
	"github.com/umanagarjuna/linkshort/internal/url/metrics"
)

// URLService is the subset of service.URLService the transports need.
type URLService interface {
	Shorten(ctx context.Context, req *domain.ShortenRequest) (*domain.URL, error)
	Resolve(ctx context.Context, shortCode string, click *domain.ClickEvent) (string, error)
	GetURL(ctx context.Context, shortCode string) (*domain.URL, error)
	ShortURL(shortCode string) string
}

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

type HTTPHandler struct {
	service URLService
	logger  *zap.Logger
	metrics *metrics.InMemoryMetrics
	checks  map[string]HealthCheck
}

func NewHTTPHandler(service URLService, logger *zap.Logger, m *metrics.InMemoryMetrics) *HTTPHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if m == nil {
		m = metrics.NewInMemoryMetrics()
	}

	return &HTTPHandler{
		service: service,
		logger:  logger,
		metrics: m,
		checks:  make(map[string]HealthCheck),
	}
}

func (h *HTTPHandler) AddHealthCheck(name string, check HealthCheck) {
	h.checks[name] = check
}

// NewRouter builds the gin engine with middleware and all routes.
func NewRouter(h *HTTPHandler) *gin.Engine {
	router := gin.New()
	router.Use(RequestID(), AccessLog(h.logger, h.metrics), Recovery(h.logger))
	h.RegisterRoutes(router)
	return router
}

func (h *HTTPHandler) RegisterRoutes(router *gin.Engine) {
	router.POST("/shorten", h.Shorten)
	router.GET("/health", h.Health)
	router.GET("/debug/metrics", h.Metrics)

	api := router.Group("/api/v1")
	{
		api.POST("/urls", h.CreateURL)
		api.GET("/urls/:code", h.GetURL)
	}

	// Redirect endpoint
	router.GET("/:code", h.Redirect)
}

// Shorten answers with the bare short URL as text.
func (h *HTTPHandler) Shorten(c *gin.Context) {
	url, ok := h.shorten(c)
	if !ok {
		return
	}

	c.String(http.StatusCreated, h.service.ShortURL(url.ShortCode))
}

func (h *HTTPHandler) CreateURL(c *gin.Context) {
	url, ok := h.shorten(c)
	if !ok {
		return
	}

	c.JSON(http.StatusCreated, h.toResponse(url))
}

func (h *HTTPHandler) shorten(c *gin.Context) (*domain.URL, bool) {
	var req domain.ShortenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, APIError{Code: "invalid_request", Message: err.Error()})
		return nil, false
	}

	url, err := h.service.Shorten(c.Request.Context(), &req)
	if err != nil {
		h.fail(c, err, zap.String("long_url", req.LongURL))
		return nil, false
	}

	return url, true
}

func (h *HTTPHandler) GetURL(c *gin.Context) {
	code := c.Param("code")

	url, err := h.service.GetURL(c.Request.Context(), code)
	if err != nil {
		h.fail(c, err, zap.String("short_code", code))
		return
	}

	c.JSON(http.StatusOK, h.toResponse(url))
}

func (h *HTTPHandler) Redirect(c *gin.Context) {
	code := c.Param("code")

	click := &domain.ClickEvent{
		IP:        c.ClientIP(),
		UserAgent: c.GetHeader("User-Agent"),
		Referrer:  c.GetHeader("Referer"),
	}

	longURL, err := h.service.Resolve(c.Request.Context(), code, click)
	if err != nil {
		h.fail(c, err, zap.String("short_code", code))
		return
	}

	c.Redirect(http.StatusFound, longURL)
}

func (h *HTTPHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	results := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			h.logger.Warn("Health check failed", zap.String("check", name), zap.Error(err))
			results[name] = "down"
			status = http.StatusServiceUnavailable
			continue
		}
		results[name] = "up"
	}

	state := "ok"
	if status != http.StatusOK {
		state = "degraded"
	}
	c.JSON(status, gin.H{"status": state, "checks": results})
}

func (h *HTTPHandler) Metrics(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"counters": h.metrics.GetCounters(),
		"gauges":   h.metrics.GetGauges(),
	})
}

func (h *HTTPHandler) fail(c *gin.Context, err error, fields ...zap.Field) {
	status, _, apiErr := classify(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("Request failed", append(fields, zap.Error(err))...)
	}
	_ = c.Error(err)
	writeError(c, status, apiErr)
}

func (h *HTTPHandler) toResponse(url *domain.URL) domain.URLResponse {
	return domain.URLResponse{
		ShortCode: url.ShortCode,
		ShortURL:  h.service.ShortURL(url.ShortCode),
		LongURL:   url.LongURL,
		CreatedAt: url.CreatedAt,
		ExpiresAt: url.ExpiresAt,
		Clicks:    url.Clicks,
	}
}

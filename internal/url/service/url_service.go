package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/umanagarjuna/linkshort/internal/url/cache"
	"github.com/umanagarjuna/linkshort/internal/url/domain"
	"github.com/umanagarjuna/linkshort/internal/url/events"
	"github.com/umanagarjuna/linkshort/internal/url/metrics"
	"github.com/umanagarjuna/linkshort/internal/url/repository"
	"github.com/umanagarjuna/linkshort/pkg/shortcode"
	"github.com/umanagarjuna/linkshort/pkg/validator"
)

const (
	CacheWritePopulate = "populate"
	CacheWriteEvict    = "evict"

	ClickModeAtomic     = "atomic"
	ClickModeSerialized = "serialized"

	DefaultMaxRandomAttempts = 1000

	sequentialAttempts = 10
	maxInsertRounds    = 10
)

type Config struct {
	BaseURL           string
	CodeLength        int
	MaxRandomAttempts int
	CacheWritePolicy  string
	ClickMode         string
	// CacheTTL caps cache entry lifetime; zero defers to the cache default.
	CacheTTL time.Duration
	// Clock defaults to time.Now in UTC.
	Clock func() time.Time
}

func (c Config) withDefaults() Config {
	if c.CodeLength <= 0 {
		c.CodeLength = shortcode.DefaultLength
	}
	if c.MaxRandomAttempts <= 0 {
		c.MaxRandomAttempts = DefaultMaxRandomAttempts
	}
	if c.CacheWritePolicy == "" {
		c.CacheWritePolicy = CacheWritePopulate
	}
	if c.ClickMode == "" {
		c.ClickMode = ClickModeAtomic
	}
	if c.Clock == nil {
		c.Clock = func() time.Time { return time.Now().UTC() }
	}
	return c
}

type URLService struct {
	repo      repository.Repository
	cache     cache.Cache
	seeds     shortcode.SeedSource
	generator shortcode.Generator
	validator validator.URLValidator
	publisher domain.EventPublisher
	logger    *zap.Logger
	metrics   metrics.Metrics
	config    Config
	locks     *keyLock
}

func NewURLService(
	repo repository.Repository,
	urlCache cache.Cache,
	seeds shortcode.SeedSource,
	generator shortcode.Generator,
	validator validator.URLValidator,
	publisher domain.EventPublisher,
	logger *zap.Logger,
	m metrics.Metrics,
	config Config,
) *URLService {
	if urlCache == nil {
		urlCache = cache.NewNoopCache()
	}
	if seeds == nil {
		seeds = shortcode.NewCountSeedSource(repo)
	}
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if m == nil {
		m = metrics.NoopMetrics{}
	}

	return &URLService{
		repo:      repo,
		cache:     urlCache,
		seeds:     seeds,
		generator: generator,
		validator: validator,
		publisher: publisher,
		logger:    logger,
		metrics:   m,
		config:    config.withDefaults(),
		locks:     newKeyLock(),
	}
}

// ShortURL joins the configured base URL and code.
func (s *URLService) ShortURL(shortCode string) string {
	return strings.TrimRight(s.config.BaseURL, "/") + "/" + shortCode
}

// Shorten returns the mapping for req.LongURL, creating one when the long
// URL has never been shortened.
func (s *URLService) Shorten(ctx context.Context, req *domain.ShortenRequest) (*domain.URL, error) {
	start := time.Now()
	defer func() { s.metrics.RecordDuration("shorten", time.Since(start)) }()

	longURL := strings.TrimSpace(req.LongURL)
	if err := s.validator.Validate(longURL); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidURL, err)
	}

	if m := req.ExpirationMinutes; m != nil && int64(*m) > domain.MaxExpirationMinutes {
		return nil, fmt.Errorf("%w: %d minutes exceeds the maximum of %d",
			domain.ErrInvalidExpiration, *m, domain.MaxExpirationMinutes)
	}

	now := s.config.Clock()

	existing, err := s.repo.FindByLongURL(ctx, longURL)
	if err != nil {
		return nil, fmt.Errorf("failed to look up long URL: %w", err)
	}
	if existing != nil {
		s.metrics.IncrementCounter(metrics.URLsDeduplicated)
		return existing, nil
	}

	customCode := req.CustomShortCode
	if customCode != "" {
		if err := s.validator.ValidateShortCode(customCode); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidCode, err)
		}

		taken, err := s.repo.ExistsByCode(ctx, customCode)
		if err != nil {
			return nil, fmt.Errorf("failed to check short code: %w", err)
		}
		if taken {
			return nil, fmt.Errorf("%w: %q", domain.ErrCodeAlreadyExists, customCode)
		}
	}

	url := &domain.URL{
		LongURL:   longURL,
		CreatedAt: now,
	}
	if req.ExpirationMinutes != nil && *req.ExpirationMinutes > 0 {
		expiresAt := now.Add(time.Duration(int64(*req.ExpirationMinutes)) * time.Minute)
		url.ExpiresAt = &expiresAt
	}

	if err := s.insert(ctx, url, customCode); err != nil {
		return nil, err
	}

	switch s.config.CacheWritePolicy {
	case CacheWriteEvict:
		s.evict(ctx, url.ShortCode)
	default:
		s.populate(ctx, url, now)
	}

	if err := s.publisher.PublishURLCreated(ctx, url); err != nil {
		s.metrics.IncrementCounter(metrics.PublishErrors)
		s.logger.Error("Failed to publish URL created event",
			zap.Error(err), zap.String("short_code", url.ShortCode))
	}

	s.metrics.IncrementCounter(metrics.URLsCreated)
	s.logger.Info("URL shortened",
		zap.String("short_code", url.ShortCode),
		zap.Bool("custom", customCode != ""))

	return url, nil
}

// Resolve returns the long URL for shortCode and counts one click.
func (s *URLService) Resolve(ctx context.Context, shortCode string,
	click *domain.ClickEvent) (string, error) {

	now := s.config.Clock()

	longURL, err := s.cache.Get(ctx, shortCode)
	if err != nil {
		s.metrics.IncrementCounter(metrics.CacheErrors)
		s.logger.Warn("Cache get failed",
			zap.Error(err), zap.String("short_code", shortCode))
		longURL = ""
	}

	if longURL != "" {
		s.metrics.IncrementCounter(metrics.CacheHits)
		if err := s.recordClick(ctx, shortCode, now); err != nil {
			return "", s.resolveFailed(ctx, shortCode, err)
		}
		s.metrics.IncrementCounter(metrics.Redirects)
		s.publishClick(ctx, shortCode, click, now)
		return longURL, nil
	}

	s.metrics.IncrementCounter(metrics.CacheMisses)

	url, err := s.repo.FindByCode(ctx, shortCode)
	if err != nil {
		return "", fmt.Errorf("failed to get URL: %w", err)
	}
	if url == nil {
		return "", s.resolveFailed(ctx, shortCode, domain.ErrNotFound)
	}
	if url.IsExpired(now) {
		return "", s.resolveFailed(ctx, shortCode, domain.ErrNotFound)
	}

	if err := s.recordClick(ctx, shortCode, now); err != nil {
		return "", s.resolveFailed(ctx, shortCode, err)
	}

	s.metrics.IncrementCounter(metrics.Redirects)
	s.populate(ctx, url, now)
	s.publishClick(ctx, shortCode, click, now)

	return url.LongURL, nil
}

// GetURL returns the stored mapping without counting a click.
func (s *URLService) GetURL(ctx context.Context, shortCode string) (*domain.URL, error) {
	url, err := s.repo.FindByCode(ctx, shortCode)
	if err != nil {
		return nil, fmt.Errorf("failed to get URL: %w", err)
	}
	if url == nil || url.IsExpired(s.config.Clock()) {
		return nil, fmt.Errorf("%w: %q", domain.ErrNotFound, shortCode)
	}
	return url, nil
}

func (s *URLService) resolveFailed(ctx context.Context, shortCode string, err error) error {
	if !errors.Is(err, domain.ErrNotFound) {
		return err
	}

	s.evict(ctx, shortCode)
	s.metrics.IncrementCounter(metrics.RedirectsMissed)

	return fmt.Errorf("%w: %q", domain.ErrNotFound, shortCode)
}

func (s *URLService) recordClick(ctx context.Context, shortCode string, now time.Time) error {
	if s.config.ClickMode != ClickModeSerialized {
		return s.repo.IncrementClicks(ctx, shortCode, now)
	}

	unlock := s.locks.Lock(shortCode)
	defer unlock()

	url, err := s.repo.FindByCode(ctx, shortCode)
	if err != nil {
		return fmt.Errorf("failed to get URL: %w", err)
	}
	if url == nil || url.IsExpired(now) {
		return domain.ErrNotFound
	}

	url.Clicks++
	return s.repo.Update(ctx, url)
}

func (s *URLService) insert(ctx context.Context, url *domain.URL, customCode string) error {
	if customCode != "" {
		url.ShortCode = customCode
		err := s.repo.Insert(ctx, url)
		if errors.Is(err, domain.ErrConflict) {
			return fmt.Errorf("%w: %q", domain.ErrCodeAlreadyExists, customCode)
		}
		if err != nil {
			return fmt.Errorf("failed to save URL: %w", err)
		}
		return nil
	}

	for round := 0; round < maxInsertRounds; round++ {
		code, err := s.generateShortCode(ctx)
		if err != nil {
			return err
		}

		url.ShortCode = code
		err = s.repo.Insert(ctx, url)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrConflict) {
			return fmt.Errorf("failed to save URL: %w", err)
		}

		s.metrics.IncrementCounter(metrics.CodeCollisions)
		s.logger.Warn("Short code taken at insert, regenerating",
			zap.String("short_code", code), zap.Int("round", round+1))
	}

	url.ShortCode = ""
	return fmt.Errorf("%w: insert conflicted %d times", domain.ErrCodeSpaceExhausted, maxInsertRounds)
}

// generateShortCode tries encoded seeds first, then random codes.
func (s *URLService) generateShortCode(ctx context.Context) (string, error) {
	seed, err := s.seeds.Seed(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to obtain seed: %w", err)
	}

	for attempt := uint64(0); attempt < sequentialAttempts; attempt++ {
		code := shortcode.Encode(seed + attempt)
		if len(code) > s.config.CodeLength {
			if code, err = s.generator.GenerateWithLength(s.config.CodeLength); err != nil {
				return "", fmt.Errorf("failed to generate short code: %w", err)
			}
		}

		free, err := s.isFree(ctx, code)
		if err != nil {
			return "", err
		}
		if free {
			return code, nil
		}
	}

	for attempt := 0; attempt < s.config.MaxRandomAttempts; attempt++ {
		code, err := s.generator.GenerateWithLength(s.config.CodeLength)
		if err != nil {
			return "", fmt.Errorf("failed to generate short code: %w", err)
		}

		free, err := s.isFree(ctx, code)
		if err != nil {
			return "", err
		}
		if free {
			return code, nil
		}
	}

	return "", fmt.Errorf("%w: %d sequential and %d random candidates taken",
		domain.ErrCodeSpaceExhausted, sequentialAttempts, s.config.MaxRandomAttempts)
}

func (s *URLService) isFree(ctx context.Context, code string) (bool, error) {
	if s.validator.IsReserved(code) {
		return false, nil
	}

	taken, err := s.repo.ExistsByCode(ctx, code)
	if err != nil {
		return false, fmt.Errorf("failed to check short code: %w", err)
	}
	return !taken, nil
}

// populate caches url with a TTL that never outlives its expiration.
func (s *URLService) populate(ctx context.Context, url *domain.URL, now time.Time) {
	ttl := s.config.CacheTTL
	if url.ExpiresAt != nil {
		remaining := url.ExpiresAt.Sub(now)
		if remaining <= 0 {
			s.evict(ctx, url.ShortCode)
			return
		}
		if ttl <= 0 || remaining < ttl {
			ttl = remaining
		}
	}

	if err := s.cache.Set(ctx, url.ShortCode, url.LongURL, ttl); err != nil {
		s.metrics.IncrementCounter(metrics.CacheErrors)
		s.logger.Warn("Failed to cache URL",
			zap.Error(err), zap.String("short_code", url.ShortCode))
	}
}

func (s *URLService) evict(ctx context.Context, shortCode string) {
	if err := s.cache.Delete(ctx, shortCode); err != nil {
		s.metrics.IncrementCounter(metrics.CacheErrors)
		s.logger.Warn("Failed to delete from cache",
			zap.Error(err), zap.String("short_code", shortCode))
	}
}

func (s *URLService) publishClick(ctx context.Context, shortCode string,
	click *domain.ClickEvent, now time.Time) {

	event := domain.ClickEvent{}
	if click != nil {
		event = *click
	}
	event.ShortCode = shortCode
	event.Timestamp = now

	if err := s.publisher.PublishURLClicked(ctx, &event); err != nil {
		s.metrics.IncrementCounter(metrics.PublishErrors)
		s.logger.Error("Failed to publish click event",
			zap.Error(err), zap.String("short_code", shortCode))
	}
}

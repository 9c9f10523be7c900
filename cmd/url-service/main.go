package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/umanagarjuna/linkshort/internal/url/cache"
	"github.com/umanagarjuna/linkshort/internal/url/config"
	"github.com/umanagarjuna/linkshort/internal/url/domain"
	"github.com/umanagarjuna/linkshort/internal/url/events"
	"github.com/umanagarjuna/linkshort/internal/url/metrics"
	"github.com/umanagarjuna/linkshort/internal/url/repository"
	"github.com/umanagarjuna/linkshort/internal/url/service"
	"github.com/umanagarjuna/linkshort/pkg/shortcode"
	"github.com/umanagarjuna/linkshort/pkg/validator"
)

var (
	configPath string
	cfg        *config.Config
	logger     *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:           "url-service",
	Short:         "Short link allocation and redirect service",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			return err
		}
		if logger, err = newLogger(cfg.Log); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"config file (default ./configs/config.yaml)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newLogger(cfg config.LogConfig) (*zap.Logger, error) {
	zapCfg := zap.NewProductionConfig()
	if cfg.Development {
		zapCfg = zap.NewDevelopmentConfig()
	}

	level, err := zap.ParseAtomicLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	zapCfg.Level = level

	return zapCfg.Build()
}

// app holds the wired dependencies shared by every subcommand.
type app struct {
	db        *sqlx.DB
	repo      *repository.SQLRepository
	redis     *redis.Client
	cache     cache.Cache
	publisher domain.EventPublisher
	metrics   *metrics.InMemoryMetrics
	service   *service.URLService
}

func newApp(ctx context.Context) (*app, error) {
	a := &app{metrics: metrics.NewInMemoryMetrics()}

	db, repo, err := initDB(cfg.Database)
	if err != nil {
		return nil, err
	}
	a.db, a.repo = db, repo

	if err := repo.Migrate(ctx); err != nil {
		a.Close()
		return nil, err
	}

	a.cache = initCache(a, cfg)

	if len(cfg.Kafka.Brokers) == 0 {
		logger.Info("No Kafka brokers configured, events disabled")
		a.publisher = events.NoopPublisher{}
	} else {
		publisher, err := events.NewEventPublisher(cfg.Kafka.Brokers)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to initialize event publisher: %w", err)
		}
		a.publisher = publisher
	}

	urlValidator := validator.NewDefaultValidator().
		WithMaxCodeLength(cfg.Service.CustomCodeMaxLength)

	a.service = service.NewURLService(
		repo,
		a.cache,
		shortcode.NewCountSeedSource(repo),
		shortcode.NewRandomGeneratorWithLength(cfg.Service.ShortCodeLength),
		urlValidator,
		a.publisher,
		logger,
		a.metrics,
		service.Config{
			BaseURL:           cfg.Service.BaseURL,
			CodeLength:        cfg.Service.ShortCodeLength,
			MaxRandomAttempts: cfg.Service.MaxRandomAttempts,
			CacheWritePolicy:  cfg.Cache.WritePolicy,
			ClickMode:         cfg.Service.ClickMode,
			CacheTTL:          cfg.Cache.DefaultTTL,
		},
	)

	return a, nil
}

func (a *app) Close() {
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			logger.Warn("Failed to close event publisher", zap.Error(err))
		}
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.db != nil {
		_ = a.db.Close()
	}
}

func initDB(cfg config.DatabaseConfig) (*sqlx.DB, *repository.SQLRepository, error) {
	db, err := sqlx.Connect(cfg.DriverName(), cfg.DSN())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if cfg.Driver == "sqlite" {
		return db, repository.NewSQLiteRepository(db), nil
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return db, repository.NewPostgresRepository(db), nil
}

func initCache(a *app, cfg *config.Config) cache.Cache {
	switch cfg.Cache.Driver {
	case "redis":
		a.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		return cache.NewRedisCache(a.redis, cfg.Cache.DefaultTTL)
	case "memory":
		return cache.NewMemoryCache(cfg.Cache.DefaultTTL, 10*time.Minute)
	default:
		return cache.NewNoopCache()
	}
}

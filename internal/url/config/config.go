package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// MaxShortCodeColumn is the width of url_mappings.short_code.
const MaxShortCodeColumn = 32

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Service  ServiceConfig  `mapstructure:"service"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	HTTPPort        string        `mapstructure:"http_port"`
	GRPCPort        string        `mapstructure:"grpc_port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	// Driver is "postgres" or "sqlite".
	Driver   string `mapstructure:"driver"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
	// Path is the SQLite file, ":memory:" for a throwaway store.
	Path string `mapstructure:"path"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type CacheConfig struct {
	// Driver is "redis", "memory" or "none".
	Driver      string        `mapstructure:"driver"`
	WritePolicy string        `mapstructure:"write_policy"`
	DefaultTTL  time.Duration `mapstructure:"default_ttl"`
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
}

type ServiceConfig struct {
	BaseURL             string `mapstructure:"base_url"`
	ShortCodeLength     int    `mapstructure:"short_code_length"`
	CustomCodeMaxLength int    `mapstructure:"custom_code_max_length"`
	MaxRandomAttempts   int    `mapstructure:"max_random_attempts"`
	ClickMode           string `mapstructure:"click_mode"`
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.http_port", ":8080")
	v.SetDefault("server.grpc_port", ":9090")
	v.SetDefault("server.read_timeout", 5*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.shutdown_timeout", 15*time.Second)

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "urlshortener")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.path", "linkshort.db")

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("cache.driver", "redis")
	v.SetDefault("cache.write_policy", "populate")
	v.SetDefault("cache.default_ttl", 24*time.Hour)

	v.SetDefault("kafka.brokers", []string{})

	v.SetDefault("service.base_url", "http://localhost:8080")
	v.SetDefault("service.short_code_length", 7)
	v.SetDefault("service.custom_code_max_length", 16)
	v.SetDefault("service.max_random_attempts", 1000)
	v.SetDefault("service.click_mode", "atomic")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
}

// Load reads configs/config.yaml (or path, when set) and URL_SERVICE_*
// environment variables on top of the defaults. A missing default config
// file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("URL_SERVICE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("invalid config: database.driver %q must be postgres or sqlite", c.Database.Driver)
	}

	switch c.Cache.Driver {
	case "redis", "memory", "none":
	default:
		return fmt.Errorf("invalid config: cache.driver %q must be redis, memory or none", c.Cache.Driver)
	}

	switch c.Cache.WritePolicy {
	case "populate", "evict":
	default:
		return fmt.Errorf("invalid config: cache.write_policy %q must be populate or evict", c.Cache.WritePolicy)
	}

	switch c.Service.ClickMode {
	case "atomic", "serialized":
	default:
		return fmt.Errorf("invalid config: service.click_mode %q must be atomic or serialized", c.Service.ClickMode)
	}

	if c.Service.BaseURL == "" {
		return fmt.Errorf("invalid config: service.base_url is required")
	}
	if c.Service.ShortCodeLength < 1 || c.Service.ShortCodeLength > 10 {
		return fmt.Errorf("invalid config: service.short_code_length %d must be between 1 and 10",
			c.Service.ShortCodeLength)
	}
	if c.Service.CustomCodeMaxLength < 1 || c.Service.CustomCodeMaxLength > MaxShortCodeColumn {
		return fmt.Errorf("invalid config: service.custom_code_max_length %d must be between 1 and %d",
			c.Service.CustomCodeMaxLength, MaxShortCodeColumn)
	}
	if c.Service.MaxRandomAttempts < 1 {
		return fmt.Errorf("invalid config: service.max_random_attempts must be positive")
	}

	return nil
}

func (c *DatabaseConfig) DSN() string {
	if c.Driver == "sqlite" {
		return c.Path
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// DriverName is the database/sql driver registered for Driver.
func (c *DatabaseConfig) DriverName() string {
	if c.Driver == "sqlite" {
		return "sqlite3"
	}
	return "postgres"
}

func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

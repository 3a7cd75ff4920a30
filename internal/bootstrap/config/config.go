package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"

	"applytrack/internal/bootstrap/logging"
	"applytrack/internal/errs"
)

const EnvPrefix = "AT"

type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Log       LogConfig       `mapstructure:"log"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Listings  ListingsConfig  `mapstructure:"listings"`
	Resume    ResumeConfig    `mapstructure:"resume"`
	Embedding EmbeddingConfig `mapstructure:"embedding"`
	Events    EventsConfig    `mapstructure:"events"`
	Server    ServerConfig    `mapstructure:"server"`
}

type AppConfig struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

// ListingsConfig drives duplicate detection.
type ListingsConfig struct {
	SearchK           int     `mapstructure:"search_k"`
	SemanticThreshold float64 `mapstructure:"semantic_threshold"`
	TitleThreshold    float64 `mapstructure:"title_threshold"`
	CompanyThreshold  float64 `mapstructure:"company_threshold"`
	ScanLimit         int     `mapstructure:"scan_limit"`
	Collection        string  `mapstructure:"collection"`
}

type ResumeConfig struct {
	DefaultTemplate string `mapstructure:"default_template"`
}

type EmbeddingConfig struct {
	Provider   string        `mapstructure:"provider"`
	Model      string        `mapstructure:"model"`
	APIKey     string        `mapstructure:"api_key"`
	BaseURL    string        `mapstructure:"base_url"`
	Dimensions int           `mapstructure:"dimensions"`
	CacheTTL   time.Duration `mapstructure:"cache_ttl"`
}

type EventsConfig struct {
	NATSURL string `mapstructure:"nats_url"`
	Subject string `mapstructure:"subject"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

func Load(ctx context.Context, configFile string) (Config, error) {
	if ctx == nil {
		return Config{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return Config{}, errs.Wrap(err, "check context")
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.config"))

	v, err := read(logCtx, configFile)
	if err != nil {
		return Config{}, err
	}

	cfg, err := decode(v)
	if err != nil {
		return Config{}, err
	}

	logging.Info(
		logCtx,
		"config loaded",
		slog.String("app", cfg.App.Name),
		slog.String("env", cfg.App.Env),
		slog.String("database_driver", cfg.Database.Driver),
		slog.String("embedding_provider", cfg.Embedding.Provider),
	)

	return cfg, nil
}

func read(ctx context.Context, configFile string) (*viper.Viper, error) {
	v := viper.New()
	setDefaults(ctx, v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile == "" && errors.As(err, &notFound) {
			// Keep default and env-backed config when no file is provided.
			logging.Warn(ctx, "config file not found, fallback to defaults and env")
		} else {
			return nil, errs.Wrap(err, "read config")
		}
	} else {
		logging.Info(ctx, "using config file", slog.String("path", v.ConfigFileUsed()))
	}

	return v, nil
}

func decode(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errs.Wrap(err, "unmarshal config")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Database.DSN) == "" {
		return errors.New("database.dsn is required")
	}
	if c.Listings.SearchK < 1 {
		return fmt.Errorf("listings.search_k must be >= 1, got %d", c.Listings.SearchK)
	}
	if c.Listings.ScanLimit < 1 {
		return fmt.Errorf("listings.scan_limit must be >= 1, got %d", c.Listings.ScanLimit)
	}
	thresholds := map[string]float64{
		"listings.semantic_threshold": c.Listings.SemanticThreshold,
		"listings.title_threshold":    c.Listings.TitleThreshold,
		"listings.company_threshold":  c.Listings.CompanyThreshold,
	}
	for key, value := range thresholds {
		if value < 0 || value > 1 {
			return fmt.Errorf("%s must be within [0,1], got %v", key, value)
		}
	}
	switch strings.ToLower(c.Embedding.Provider) {
	case "hash", "openai":
	default:
		return fmt.Errorf("unsupported embedding.provider %q", c.Embedding.Provider)
	}
	return nil
}

func setDefaults(ctx context.Context, v *viper.Viper) {
	if ctx == nil {
		return
	}

	v.SetDefault("app.name", "applytrack")
	v.SetDefault("app.env", "local")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", ".applytrack/state/tracker.sqlite")
	v.SetDefault("listings.search_k", 5)
	v.SetDefault("listings.semantic_threshold", 0.85)
	v.SetDefault("listings.title_threshold", 0.80)
	v.SetDefault("listings.company_threshold", 0.90)
	v.SetDefault("listings.scan_limit", 1000)
	v.SetDefault("listings.collection", "listings")
	v.SetDefault("resume.default_template", "classic")
	v.SetDefault("embedding.provider", "hash")
	v.SetDefault("embedding.model", "text-embedding-3-small")
	v.SetDefault("embedding.api_key", "")
	v.SetDefault("embedding.base_url", "")
	v.SetDefault("embedding.dimensions", 256)
	v.SetDefault("embedding.cache_ttl", "168h")
	v.SetDefault("events.nats_url", "")
	v.SetDefault("events.subject", "applytrack.applications.status")
	v.SetDefault("server.addr", "127.0.0.1:8080")
}

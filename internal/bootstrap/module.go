package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.uber.org/fx"
	"gorm.io/gorm"

	"applytrack/internal/bootstrap/config"
	"applytrack/internal/bootstrap/database"
	"applytrack/internal/bootstrap/logging"
	cacheinfra "applytrack/internal/infrastructure/cache"
	"applytrack/internal/infrastructure/embedding"
	"applytrack/internal/infrastructure/events"
	sqliterepo "applytrack/internal/infrastructure/persistence/sqlite/repository"
	sqliteuow "applytrack/internal/infrastructure/persistence/sqlite/uow"
	"applytrack/internal/infrastructure/vectorindex"
	"applytrack/internal/ports"
	"applytrack/internal/usecase/dedup"
	trackerusecase "applytrack/internal/usecase/tracker"
)

var Module = fx.Options(
	fx.Provide(provideConfig),
	fx.Provide(provideDatabase),
	fx.Provide(provideApp),
	fx.Provide(
		fx.Annotate(
			sqliterepo.NewStore,
			fx.As(new(ports.RowStore)),
		),
	),
	fx.Provide(
		fx.Annotate(
			sqliterepo.NewListingRepository,
			fx.As(new(ports.ListingRepository)),
		),
	),
	fx.Provide(
		fx.Annotate(
			sqliterepo.NewApplicationRepository,
			fx.As(new(ports.ApplicationRepository)),
		),
	),
	fx.Provide(
		fx.Annotate(
			sqliterepo.NewResumeRepository,
			fx.As(new(ports.ResumeRepository)),
		),
	),
	fx.Provide(
		fx.Annotate(
			sqliteuow.NewUnitOfWork,
			fx.As(new(ports.UnitOfWork)),
		),
	),
	fx.Provide(
		fx.Annotate(
			cacheinfra.NewSQLiteCache,
			fx.As(new(ports.Cache)),
		),
	),
	fx.Provide(provideEmbedder),
	fx.Provide(
		fx.Annotate(
			vectorindex.New,
			fx.As(new(ports.VectorIndex)),
		),
	),
	fx.Provide(providePublisher),
	fx.Provide(provideDedupEngine),
	fx.Provide(provideTrackerService),
)

type configParams struct {
	fx.In

	Ctx        context.Context
	ConfigFile string `name:"configFile"`
}

func provideConfig(p configParams) (config.Config, error) {
	ctx := logging.WithAttrs(p.Ctx, slog.String("component", "bootstrap.fx"))
	return config.Load(ctx, p.ConfigFile)
}

func provideDatabase(lc fx.Lifecycle, ctx context.Context, cfg config.Config) (*gorm.DB, error) {
	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.fx"))

	db, err := database.Open(logCtx, cfg.Database)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	})

	return db, nil
}

func provideApp(cfg config.Config, db *gorm.DB) *App {
	return &App{
		Config: cfg,
		DB:     db,
	}
}

// provideEmbedder picks the embedding backend and puts the vector cache in
// front of it.
func provideEmbedder(ctx context.Context, cfg config.Config, cache ports.Cache) (ports.Embedder, error) {
	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.fx"))

	var (
		base ports.Embedder
		err  error
	)
	switch provider := strings.ToLower(strings.TrimSpace(cfg.Embedding.Provider)); provider {
	case "", "hash":
		base, err = embedding.NewHashEmbedder(cfg.Embedding.Dimensions)
	case "openai":
		base, err = embedding.NewOpenAIEmbedder(embedding.OpenAIConfig{
			APIKey:     cfg.Embedding.APIKey,
			BaseURL:    cfg.Embedding.BaseURL,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
		})
	default:
		return nil, fmt.Errorf("unsupported embedding provider %q", provider)
	}
	if err != nil {
		return nil, err
	}

	logging.Info(logCtx, "embedder ready", slog.String("model", base.Name()), slog.Duration("cache_ttl", cfg.Embedding.CacheTTL))
	return embedding.NewCachedEmbedder(base, cache, cfg.Embedding.CacheTTL), nil
}

func providePublisher(lc fx.Lifecycle, ctx context.Context, cfg config.Config) (ports.StatusPublisher, error) {
	if strings.TrimSpace(cfg.Events.NATSURL) == "" {
		return events.NopPublisher{}, nil
	}

	publisher, err := events.NewNATSPublisher(ctx, cfg.Events.NATSURL, cfg.Events.Subject)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return publisher.Close()
		},
	})
	return publisher, nil
}

func provideDedupEngine(listings ports.ListingRepository, index ports.VectorIndex, cfg config.Config) *dedup.Engine {
	return dedup.NewEngine(listings, index, dedup.SettingsFrom(cfg.Listings))
}

type trackerParams struct {
	fx.In

	Config       config.Config
	Listings     ports.ListingRepository
	Applications ports.ApplicationRepository
	Resumes      ports.ResumeRepository
	UnitOfWork   ports.UnitOfWork
	Index        ports.VectorIndex
	Engine       *dedup.Engine
	Publisher    ports.StatusPublisher
}

func provideTrackerService(p trackerParams) (*trackerusecase.Service, error) {
	return trackerusecase.NewService(trackerusecase.Deps{
		Listings:     p.Listings,
		Applications: p.Applications,
		Resumes:      p.Resumes,
		UnitOfWork:   p.UnitOfWork,
		Index:        p.Index,
		Duplicates:   p.Engine,
		Publisher:    p.Publisher,
	}, trackerusecase.Options{
		Collection:      p.Config.Listings.Collection,
		DefaultTemplate: p.Config.Resume.DefaultTemplate,
		Now:             time.Now,
	})
}

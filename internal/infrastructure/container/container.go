// Package container provides dependency injection using Uber FX
package container

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/gourmetguru/api/internal/application/auth"
	"github.com/gourmetguru/api/internal/application/discovery"
	"github.com/gourmetguru/api/internal/application/presentation"
	"github.com/gourmetguru/api/internal/application/saved"
	"github.com/gourmetguru/api/internal/domain/user"
	"github.com/gourmetguru/api/internal/infrastructure/cache"
	"github.com/gourmetguru/api/internal/infrastructure/config"
	"github.com/gourmetguru/api/internal/infrastructure/http/apiserver"
	"github.com/gourmetguru/api/internal/infrastructure/http/handlers"
	"github.com/gourmetguru/api/internal/infrastructure/http/middleware"
	"github.com/gourmetguru/api/internal/infrastructure/http/webserver"
	"github.com/gourmetguru/api/internal/infrastructure/monitoring"
	gormRepo "github.com/gourmetguru/api/internal/infrastructure/persistence/gorm"
	"github.com/gourmetguru/api/internal/infrastructure/persistence/memory"
	"github.com/gourmetguru/api/internal/infrastructure/persistence/migrations"
	mongoRepo "github.com/gourmetguru/api/internal/infrastructure/persistence/mongo"
	"github.com/gourmetguru/api/internal/infrastructure/persistence/postgres"
	redisRepo "github.com/gourmetguru/api/internal/infrastructure/persistence/redis"
	"github.com/gourmetguru/api/internal/infrastructure/persistence/sqlite"
	"github.com/gourmetguru/api/internal/infrastructure/security"
	"github.com/gourmetguru/api/internal/infrastructure/spoonacular"
	"github.com/gourmetguru/api/internal/ports/inbound"
	"github.com/gourmetguru/api/internal/ports/outbound"
	"github.com/gourmetguru/api/pkg/healthcheck"
	"github.com/gourmetguru/api/pkg/logger"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ConfigPath is the optional config file handed to config.Load
type ConfigPath string

// Module provides all dependency injection modules
var Module = fx.Options(
	// Infrastructure modules
	ConfigModule,
	LoggerModule,
	TelemetryModule,
	DatabaseModule,
	CacheModule,

	// Repository modules
	RepositoryModule,
	ProviderModule,

	// Service modules
	ServiceModule,

	// HTTP modules
	HTTPModule,

	// Lifecycle hooks
	LifecycleModule,
)

// ConfigModule provides configuration
var ConfigModule = fx.Provide(
	func(path ConfigPath) (*config.Config, error) {
		return config.Load(string(path))
	},
)

// LoggerModule provides logging and routes fx's own events through it
var LoggerModule = fx.Options(
	fx.Provide(func(cfg *config.Config) (*zap.Logger, zap.AtomicLevel, error) {
		return logger.New(logger.Config{
			Level:       cfg.App.LogLevel,
			Format:      cfg.App.LogFormat,
			Development: cfg.App.Debug,
		})
	}),
	fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
		return &fxevent.ZapLogger{Logger: log.Named("fx")}
	}),
)

// TelemetryModule provides OpenTelemetry providers and HTTP metrics
var TelemetryModule = fx.Provide(
	monitoring.NewTelemetry,
	func(tel *monitoring.Telemetry) *monitoring.HTTPMetrics {
		return monitoring.NewHTTPMetrics(tel.Registry)
	},
	func(tel *monitoring.Telemetry, keys *spoonacular.KeyRotator) *monitoring.BusinessMetrics {
		return monitoring.NewBusinessMetrics(tel.Registry, keys.Len)
	},
)

// DatabaseModule provides the SQL database and, when configured, MongoDB
var DatabaseModule = fx.Provide(
	newDatabase,
	newMongoClient,
)

func newDatabase(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger, tel *monitoring.Telemetry) (*gorm.DB, error) {
	var db *gorm.DB

	switch cfg.Database.Driver {
	case "postgres":
		cm, err := postgres.NewConnectionManager(cfg, log)
		if err != nil {
			return nil, err
		}
		if cfg.Database.AutoMigrate {
			if err := migrate(cm.SQLDB(), cfg.Database.Database, log); err != nil {
				_ = cm.Close()
				return nil, err
			}
		}
		db = cm.DB()
	default:
		var err error
		db, err = sqlite.SetupDatabase(cfg.Database, log)
		if err != nil {
			return nil, fmt.Errorf("failed to setup SQLite database: %w", err)
		}
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	if err := monitoring.RegisterDBStats(tel.Registry, sqlDB, cfg.Database.Database); err != nil {
		log.Warn("Failed to register database metrics", zap.Error(err))
	}

	lc.Append(fx.StopHook(func() error {
		return sqlDB.Close()
	}))
	return db, nil
}

func migrate(db *sql.DB, name string, log *zap.Logger) error {
	m, err := migrations.New(db, name, log)
	if err != nil {
		return err
	}
	defer func() { _ = m.Close() }()
	return m.Up()
}

// newMongoClient connects only when saved recipes live in MongoDB
func newMongoClient(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (*mongo.Client, error) {
	if cfg.Persistence.SavedStore != "mongo" {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Mongo.Timeout)
	defer cancel()

	client, err := mongoRepo.Connect(ctx, cfg.Mongo, log)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.StopHook(client.Disconnect))
	return client, nil
}

// CacheModule provides caching. Redis is used when enabled, an in-process
// cache otherwise.
var CacheModule = fx.Provide(
	newRedisClient,
	newCacheRepository,
)

func newRedisClient(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (redis.UniversalClient, error) {
	if !cfg.Redis.Enabled {
		return nil, nil
	}

	client, err := cache.NewRedisClient(cfg.Redis, log.Named("redis"))
	if err != nil {
		return nil, err
	}
	lc.Append(fx.StopHook(client.Close))
	return client, nil
}

func newCacheRepository(lc fx.Lifecycle, client redis.UniversalClient, log *zap.Logger) outbound.CacheRepository {
	if client != nil {
		return redisRepo.NewCacheRepository(client, log)
	}

	log.Info("Redis disabled, using in-memory cache")
	repo := memory.NewCacheRepository(time.Minute)
	lc.Append(fx.StopHook(repo.Close))
	return repo
}

// RepositoryModule provides repository implementations
var RepositoryModule = fx.Provide(
	fx.Annotate(
		gormRepo.NewAccountRepository,
		fx.As(new(outbound.AccountRepository)),
	),
	newSavedRecipeRepository,
)

func newSavedRecipeRepository(cfg *config.Config, db *gorm.DB, client *mongo.Client) (outbound.SavedRecipeRepository, error) {
	if client == nil {
		return gormRepo.NewSavedRecipeRepository(db), nil
	}

	repo := mongoRepo.NewSavedRecipeRepository(client.Database(cfg.Mongo.Database))

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Mongo.Timeout)
	defer cancel()
	if err := repo.EnsureIndexes(ctx); err != nil {
		return nil, fmt.Errorf("failed to create saved recipe indexes: %w", err)
	}
	return repo, nil
}

// ProviderModule provides the recipe provider client
var ProviderModule = fx.Provide(
	spoonacularKeys,
	newRecipeProvider,
)

func spoonacularKeys(cfg *config.Config, log *zap.Logger) *spoonacular.KeyRotator {
	keys := spoonacular.NewKeyRotator(cfg.Recipes.Keys())
	if keys.Len() == 0 {
		log.Warn("No recipe provider API keys configured")
	}
	return keys
}

func newRecipeProvider(
	cfg *config.Config,
	keys *spoonacular.KeyRotator,
	cacheRepo outbound.CacheRepository,
	metrics *monitoring.BusinessMetrics,
	log *zap.Logger,
) outbound.RecipeProvider {
	client := metrics.InstrumentProvider(spoonacular.NewClient(spoonacular.Config{
		BaseURL:           cfg.Recipes.BaseURL,
		ResultLimit:       cfg.Recipes.ResultLimit,
		AutocompleteLimit: cfg.Recipes.AutocompleteLimit,
		Timeout:           cfg.Recipes.Timeout,
	}, keys, log))

	if !cfg.Recipes.EnableCache {
		return client
	}
	return cache.NewRecipeProviderCache(client, cacheRepo, cfg.Recipes.CacheTTL, log)
}

// ServiceModule provides application services
var ServiceModule = fx.Provide(
	func(cfg *config.Config, cacheRepo outbound.CacheRepository, log *zap.Logger) outbound.SessionTokens {
		return security.NewTokenService(security.TokenConfig{
			Secret:     cfg.Auth.JWTSecret,
			Expiration: cfg.Auth.JWTExpiration,
			Issuer:     cfg.Auth.Issuer,
		}, cacheRepo, log)
	},
	func(cfg *config.Config, accounts outbound.AccountRepository, tokens outbound.SessionTokens, log *zap.Logger) inbound.AuthService {
		return auth.NewService(accounts, tokens, user.PasswordPolicy{
			MinLength:  cfg.Auth.MinPasswordLength,
			BCryptCost: cfg.Auth.BCryptCost,
		}, log)
	},
	fx.Annotate(
		discovery.NewService,
		fx.As(new(inbound.DiscoveryService)),
	),
	func(repo outbound.SavedRecipeRepository, metrics *monitoring.BusinessMetrics, log *zap.Logger) inbound.SavedRecipeService {
		return metrics.InstrumentSaved(saved.NewService(repo, log))
	},
	presentation.NewCardPresenter,
	security.NewValidator,
)

// HTTPModule provides HTTP server and handlers
var HTTPModule = fx.Provide(
	middleware.New,
	middleware.NewAuthenticator,
	handlers.NewRecipeHandlers,
	handlers.NewAuthHandlers,
	handlers.NewSavedHandlers,
	newLiveSearchHandler,
	newSessionStore,
	webserver.NewPages,
	newHealthCheck,
	newRoutes,
	apiserver.NewServer,
)

func newLiveSearchHandler(
	cfg *config.Config,
	discovery inbound.DiscoveryService,
	presenter *presentation.CardPresenter,
	log *zap.Logger,
) *handlers.LiveSearchHandler {
	// Production checks the upgrade Origin against the CORS allow list
	var checkOrigin func(r *http.Request) bool
	if cfg.IsProduction() {
		checkOrigin = middleware.OriginAllowed(cfg.Server.AllowedOrigins)
	}
	return handlers.NewLiveSearchHandler(discovery, presenter, cfg.Composer.Debounce, checkOrigin, log)
}

func newSessionStore(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) *webserver.SessionStore {
	store := webserver.NewSessionStore(cfg.IsProduction(), log)
	lc.Append(fx.StopHook(store.Close))
	return store
}

func newHealthCheck(
	cfg *config.Config,
	db *gorm.DB,
	redisClient redis.UniversalClient,
	mongoClient *mongo.Client,
	keys *spoonacular.KeyRotator,
	log *zap.Logger,
) (*healthcheck.HealthCheck, error) {
	hc := healthcheck.New(cfg.App.Version, log.Named("health"))

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	hc.Register("database", healthcheck.NewDatabaseChecker(sqlDB))

	if redisClient != nil {
		hc.Register("redis", healthcheck.NewRedisChecker(redisClient))
	}
	if mongoClient != nil {
		hc.Register("mongo", healthcheck.NewMongoChecker(mongoClient))
	}

	hc.Register("recipe_provider", healthcheck.NewCustomChecker("recipe_provider",
		func(context.Context) (healthcheck.Status, string, interface{}) {
			n := keys.Len()
			if n == 0 {
				return healthcheck.StatusDegraded, "No API keys configured", nil
			}
			return healthcheck.StatusHealthy, "API keys configured", map[string]int{"keys": n}
		}))

	return hc, nil
}

func newRoutes(
	recipes *handlers.RecipeHandlers,
	authHandlers *handlers.AuthHandlers,
	savedHandlers *handlers.SavedHandlers,
	live *handlers.LiveSearchHandler,
	health *healthcheck.HealthCheck,
	metrics *monitoring.HTTPMetrics,
	pages *webserver.Pages,
) apiserver.Routes {
	return apiserver.Routes{
		Recipes:    recipes,
		Auth:       authHandlers,
		Saved:      savedHandlers,
		LiveSearch: live,
		Health:     health,
		Metrics:    metrics,
		Pages:      pages,
	}
}

// LifecycleModule provides lifecycle hooks
var LifecycleModule = fx.Invoke(
	RegisterLifecycleHooks,
)

// RegisterLifecycleHooks starts the HTTP server, hot-reloads the log level
// on config edits and flushes telemetry on shutdown
func RegisterLifecycleHooks(
	lc fx.Lifecycle,
	shutdowner fx.Shutdowner,
	cfg *config.Config,
	log *zap.Logger,
	level zap.AtomicLevel,
	tel *monitoring.Telemetry,
	server *apiserver.Server,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("Starting Gourmet Guru",
				zap.String("version", cfg.App.Version),
				zap.String("environment", cfg.App.Environment),
			)

			watching := cfg.OnChange(func(next *config.Config) {
				if err := level.UnmarshalText([]byte(next.App.LogLevel)); err != nil {
					log.Warn("Ignoring invalid log level", zap.String("level", next.App.LogLevel))
					return
				}
				log.Info("Configuration reloaded", zap.Stringer("log_level", level.Level()))
			}, func(err error) {
				log.Warn("Ignoring invalid configuration change", zap.Error(err))
			})
			if watching {
				log.Info("Watching configuration file for changes")
			}

			go func() {
				if err := server.Start(); err != nil {
					log.Error("HTTP server failed", zap.Error(err))
					_ = shutdowner.Shutdown(fx.ExitCode(1))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down Gourmet Guru")

			if err := server.Shutdown(ctx); err != nil {
				log.Error("Failed to shutdown HTTP server", zap.Error(err))
			}
			if err := tel.Shutdown(ctx); err != nil {
				log.Warn("Failed to flush telemetry", zap.Error(err))
			}

			_ = log.Sync()
			return nil
		},
	})
}

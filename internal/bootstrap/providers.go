package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/google/wire"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ddlabs/dd-mcp-service/internal/adapters/config"
	apphttp "github.com/ddlabs/dd-mcp-service/internal/adapters/http"
	"github.com/ddlabs/dd-mcp-service/internal/adapters/logger"
	"github.com/ddlabs/dd-mcp-service/internal/adapters/middleware"
	appredis "github.com/ddlabs/dd-mcp-service/internal/adapters/redis"
	"github.com/ddlabs/dd-mcp-service/internal/adapters/upstream"
	"github.com/ddlabs/dd-mcp-service/internal/application"
	"github.com/ddlabs/dd-mcp-service/internal/domain"
)

// InitialZapLoggerProvider provides a basic *zap.Logger instance, primarily for config initialization.
// It returns the logger, a cleanup function (for syncing), and an error if creation fails.
func InitialZapLoggerProvider() (*zap.Logger, func(), error) {
	logger, err := zap.NewProduction()
	if err != nil {
		// Try NewDevelopment if NewProduction fails
		logger, err = zap.NewDevelopment()
		if err != nil {
			// As a last resort, use NewExample, which does not return an error.
			logger = zap.NewExample()
			fmt.Fprintf(os.Stderr, "Failed to create initial zap logger (production and development failed, falling back to example): %v\n", err)
		}
	}

	cleanup := func() {
		// Syncing flushes any buffered log entries before application exit.
		if syncErr := logger.Sync(); syncErr != nil {
			fmt.Fprintf(os.Stderr, "Failed to sync initial zap logger: %v\n", syncErr)
		}
	}
	return logger, cleanup, nil
}

// App struct is defined here for Wire to use.
// It should be the single definition of App in the bootstrap package.
type App struct {
	configProvider config.Provider
	logger         domain.Logger
	httpServeMux   *http.ServeMux
	httpServer     *http.Server
	redisClient    *redis.Client
	cacheStore     domain.CacheStore
	restRouter     *apphttp.Router
}

// NewApp is the constructor for App, also for Wire.
func NewApp(
	cfgProvider config.Provider,
	appLogger domain.Logger,
	mux *http.ServeMux,
	server *http.Server,
	redisClient *redis.Client,
	cacheStore domain.CacheStore,
	restRouter *apphttp.Router,
) (*App, func(), error) {
	app := &App{
		configProvider: cfgProvider,
		logger:         appLogger,
		httpServeMux:   mux,
		httpServer:     server,
		redisClient:    redisClient,
		cacheStore:     cacheStore,
		restRouter:     restRouter,
	}

	cleanup := func() {
		app.logger.Info(context.Background(), "Running app cleanup...")
	}
	return app, cleanup, nil
}

// ConfigProvider provides the application configuration.
// It accepts appCtx to be passed to NewViperProvider for graceful goroutine shutdown.
func ConfigProvider(appCtx context.Context, logger *zap.Logger) (config.Provider, error) {
	return config.NewViperProvider(appCtx, logger)
}

// LoggerProvider provides the application logger.
func LoggerProvider(cfgProvider config.Provider) (domain.Logger, error) {
	appCfg := cfgProvider.Get()
	return logger.NewZapAdapter(cfgProvider, appCfg.App.ServiceName)
}

// HTTPServeMuxProvider provides the main HTTP multiplexer.
func HTTPServeMuxProvider() *http.ServeMux {
	return http.NewServeMux()
}

// HTTPGracefulServerProvider provides a new HTTP server configured for graceful shutdown.
// CORS is applied outside the mux so preflight requests are answered before routing.
func HTTPGracefulServerProvider(cfgProvider config.Provider, mux *http.ServeMux) *http.Server {
	appCfg := cfgProvider.Get()

	corsWrapped := middleware.CORSMiddleware(cfgProvider)(mux)

	return &http.Server{
		Addr:         fmt.Sprintf(":%d", appCfg.Server.HTTPPort),
		Handler:      corsWrapped,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// RedisClientProvider provides a Redis client and a cleanup function.
func RedisClientProvider(cfgProvider config.Provider, appLogger domain.Logger) (*redis.Client, func(), error) {
	appCfg := cfgProvider.Get()
	client := redis.NewClient(&redis.Options{
		Addr:     appCfg.Redis.Address,
		Password: appCfg.Redis.Password,
		DB:       appCfg.Redis.DB,
	})
	_, err := client.Ping(context.Background()).Result()
	if err != nil {
		appLogger.Error(context.Background(), "Failed to connect to Redis", "error", err.Error(), "address", appCfg.Redis.Address)
		return nil, nil, fmt.Errorf("failed to connect to Redis at %s: %w", appCfg.Redis.Address, err)
	}
	cleanup := func() {
		client.Close()
		appLogger.Info(context.Background(), "Redis connection closed")
	}
	appLogger.Info(context.Background(), "Successfully connected to Redis", "address", appCfg.Redis.Address)
	return client, cleanup, nil
}

// CacheStoreProvider provides the Redis-backed cache store.
func CacheStoreProvider(redisClient *redis.Client, logger domain.Logger) domain.CacheStore {
	return appredis.NewCacheStoreAdapter(redisClient, logger)
}

// UpstreamClientProvider provides the upstream API client.
func UpstreamClientProvider(cfgProvider config.Provider, logger domain.Logger) domain.UpstreamClient {
	return upstream.NewClient(cfgProvider, logger)
}

// IdentityServiceProvider provides the IdentityService.
func IdentityServiceProvider(logger domain.Logger, cfgProvider config.Provider, cache domain.CacheStore, upstreamClient domain.UpstreamClient) *application.IdentityService {
	return application.NewIdentityService(logger, cfgProvider, cache, upstreamClient)
}

// CategoryServiceProvider provides the CategoryService.
func CategoryServiceProvider(logger domain.Logger, cfgProvider config.Provider, cache domain.CacheStore, upstreamClient domain.UpstreamClient) *application.CategoryService {
	return application.NewCategoryService(logger, cfgProvider, cache, upstreamClient)
}

// ScoreServiceProvider provides the ScoreService.
func ScoreServiceProvider(logger domain.Logger, identity *application.IdentityService, upstreamClient domain.UpstreamClient) *application.ScoreService {
	return application.NewScoreService(logger, identity, upstreamClient)
}

// BiomarkerServiceProvider provides the BiomarkerService.
func BiomarkerServiceProvider(logger domain.Logger, categories *application.CategoryService, upstreamClient domain.UpstreamClient) *application.BiomarkerService {
	return application.NewBiomarkerService(logger, categories, upstreamClient)
}

// ProtocolServiceProvider provides the ProtocolService.
func ProtocolServiceProvider(logger domain.Logger, identity *application.IdentityService, upstreamClient domain.UpstreamClient) *application.ProtocolService {
	return application.NewProtocolService(logger, identity, upstreamClient)
}

// RestRouterProvider provides the REST endpoint router.
func RestRouterProvider(
	logger domain.Logger,
	cfgProvider config.Provider,
	cache domain.CacheStore,
	scores *application.ScoreService,
	biomarkers *application.BiomarkerService,
	protocols *application.ProtocolService,
) *apphttp.Router {
	return apphttp.NewRouter(logger, cfgProvider, cache, scores, biomarkers, protocols)
}

// ProviderSet is the Wire provider set for the entire application.
var ProviderSet = wire.NewSet(
	ConfigProvider,
	LoggerProvider,
	HTTPServeMuxProvider,
	HTTPGracefulServerProvider,
	InitialZapLoggerProvider,

	// Infrastructure Adapters
	RedisClientProvider,
	CacheStoreProvider,
	UpstreamClientProvider,

	// Application Services
	IdentityServiceProvider,
	CategoryServiceProvider,
	ScoreServiceProvider,
	BiomarkerServiceProvider,
	ProtocolServiceProvider,

	// HTTP Surface
	RestRouterProvider,
	NewApp,
)

package config

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const envPrefix = "DD_MCP"

// ServerConfig holds server-related configurations.
// Note: Fields should be exported (start with uppercase) to be unmarshalled by Viper.
type ServerConfig struct {
	HTTPPort int `mapstructure:"http_port"`
}

// RedisConfig holds Redis-related configurations.
type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"` // Optional
	DB       int    `mapstructure:"db"`       // Optional
}

// UpstreamConfig holds configuration for the upstream health-tracking API.
type UpstreamConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// LogConfig holds logging-related configurations.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// AuthConfig holds authentication-related configurations.
// FallbackToken and FallbackClientID should primarily come from ENV; they are
// used when a request carries no authorization / x-dd-client-id header (local
// dev and MCP proxy use). Request headers always take precedence.
type AuthConfig struct {
	FallbackToken           string `mapstructure:"fallback_token"`
	FallbackClientID        string `mapstructure:"fallback_client_id"`
	IdentityCacheTTLSeconds int    `mapstructure:"identity_cache_ttl_seconds"`
	CategoryCacheTTLSeconds int    `mapstructure:"category_cache_ttl_seconds"`
}

// AppConfig holds application-specific configurations.
type AppConfig struct {
	ServiceName            string   `mapstructure:"service_name"`
	Version                string   `mapstructure:"version"`
	ShutdownTimeoutSeconds int      `mapstructure:"shutdown_timeout_seconds"`
	CORSAllowedOrigins     []string `mapstructure:"cors_allowed_origins"`
}

// Config holds all configuration for the application.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Upstream UpstreamConfig `mapstructure:"upstream"`
	Log      LogConfig      `mapstructure:"log"`
	Auth     AuthConfig     `mapstructure:"auth"`
	App      AppConfig      `mapstructure:"app"`
}

// Provider defines an interface for accessing application configuration.
// This allows for easy mocking in tests and decouples the app from Viper.
type Provider interface {
	Get() *Config
}

// viperProvider implements the Provider interface using Viper.
type viperProvider struct {
	config *Config
	logger *zap.Logger // Using zap.Logger directly for config internal logging, not domain.Logger to avoid circular deps
}

// NewViperProvider creates and initializes a new configuration provider using Viper.
// It loads configuration from file and environment variables, and sets up hot-reloading.
// A basic logger (e.g., zap.NewExample()) should be passed for internal logging during setup.
// appCtx is the application lifecycle context used for graceful shutdown of background tasks.
func NewViperProvider(appCtx context.Context, logger *zap.Logger) (Provider, error) {
	cfg := &Config{}
	v := viper.New()

	setDefaults(v)

	// Configure Viper to read from YAML file
	v.SetConfigName(getEnv("VIPER_CONFIG_NAME", "config"))
	v.SetConfigType("yaml")
	v.AddConfigPath(getEnv("VIPER_CONFIG_PATH", "/app/config"))
	v.AddConfigPath(".") // Also look in current directory for local dev

	// Configure Viper to read from environment variables
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_")) // e.g., server.http_port becomes SERVER_HTTP_PORT

	// Attempt to read the configuration file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			logger.Warn("Config file not found; relying on defaults and environment variables", zap.Error(err))
		} else {
			logger.Error("Failed to read config file", zap.Error(err))
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Unmarshal the configuration into the struct
	if err := v.Unmarshal(cfg); err != nil {
		logger.Error("Failed to unmarshal config", zap.Error(err))
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	p := &viperProvider{
		config: cfg,
		logger: logger,
	}

	// Set up SIGHUP for hot-reloading configuration
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGHUP)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				p.logger.Error("Panic recovered in SIGHUP handler goroutine",
					zap.String("goroutine_name", "SIGHUPConfigReloader"),
					zap.Any("panic_info", r),
					zap.String("stacktrace", string(debug.Stack())),
				)
			}
		}()
		for {
			select {
			case sig := <-sigChan:
				p.logger.Info("SIGHUP received, attempting to reload configuration...", zap.String("signal", sig.String()))
				if err := v.ReadInConfig(); err != nil {
					p.logger.Error("Failed to re-read config file on SIGHUP", zap.Error(err))
				} else {
					newCfg := &Config{}
					if err := v.Unmarshal(newCfg); err != nil {
						p.logger.Error("Failed to unmarshal re-read config on SIGHUP", zap.Error(err))
					} else {
						p.config = newCfg
						p.logger.Info("Configuration reloaded successfully via SIGHUP")
					}
				}
			case <-appCtx.Done():
				p.logger.Info("SIGHUPConfigReloader goroutine shutting down due to context cancellation.")
				return
			}
		}
	}()

	// Optional: Watch for config file changes (useful for local dev, less so in containers usually)
	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		defer func() {
			if r := recover(); r != nil {
				p.logger.Error("Panic recovered in OnConfigChange callback",
					zap.String("event_name", e.Name),
					zap.String("event_op", e.Op.String()),
					zap.Any("panic_info", r),
					zap.String("stacktrace", string(debug.Stack())),
				)
			}
		}()
		p.logger.Info("Config file changed", zap.String("name", e.Name), zap.String("op", e.Op.String()))
		newCfg := &Config{}
		if err := v.Unmarshal(newCfg); err != nil {
			p.logger.Error("Failed to unmarshal config on file change event", zap.Error(err))
		} else {
			p.config = newCfg
			p.logger.Info("Configuration reloaded successfully via file change event")
		}
	})

	p.logger.Info("Configuration loaded successfully", zap.String("config_file_used", v.ConfigFileUsed()))

	return p, nil
}

// setDefaults registers the defaults the service runs with when neither the
// config file nor the environment overrides them.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.http_port", 8080)
	v.SetDefault("redis.address", "redis:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("upstream.base_url", "https://api.dontdie.com")
	v.SetDefault("upstream.timeout_seconds", 30)
	v.SetDefault("log.level", "info")
	// Empty defaults so AutomaticEnv can bind these env-first keys.
	v.SetDefault("auth.fallback_token", "")
	v.SetDefault("auth.fallback_client_id", "")
	v.SetDefault("auth.identity_cache_ttl_seconds", 86400)
	v.SetDefault("auth.category_cache_ttl_seconds", 86400)
	v.SetDefault("app.service_name", "dd-mcp")
	v.SetDefault("app.version", "dev")
	v.SetDefault("app.shutdown_timeout_seconds", 30)
	v.SetDefault("app.cors_allowed_origins", []string{"http://localhost:3000", "http://127.0.0.1:3000"})
}

// Get returns the current configuration.
func (p *viperProvider) Get() *Config {
	return p.config
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

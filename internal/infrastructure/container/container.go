// Package container provides dependency injection using Uber FX.
// Services are constructed once per session and passed explicitly;
// there are no package-level singletons.
package container

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/fx"
	"go.uber.org/zap"

	pantrysvc "github.com/spicesync/spicesync/internal/application/pantry"
	profilesvc "github.com/spicesync/spicesync/internal/application/profile"
	"github.com/spicesync/spicesync/internal/application/recipes"
	"github.com/spicesync/spicesync/internal/application/scan"
	"github.com/spicesync/spicesync/internal/infrastructure/ai/gemini"
	"github.com/spicesync/spicesync/internal/infrastructure/capture"
	"github.com/spicesync/spicesync/internal/infrastructure/config"
	"github.com/spicesync/spicesync/internal/infrastructure/http/handlers"
	"github.com/spicesync/spicesync/internal/infrastructure/http/server"
	"github.com/spicesync/spicesync/internal/infrastructure/monitoring"
	"github.com/spicesync/spicesync/internal/infrastructure/persistence/file"
	"github.com/spicesync/spicesync/internal/infrastructure/persistence/memory"
	redisstore "github.com/spicesync/spicesync/internal/infrastructure/persistence/redis"
	"github.com/spicesync/spicesync/internal/ports/inbound"
	"github.com/spicesync/spicesync/internal/ports/outbound"
	"github.com/spicesync/spicesync/pkg/healthcheck"
	"github.com/spicesync/spicesync/pkg/logger"
)

// Module provides all dependency injection modules
var Module = fx.Options(
	ConfigModule,
	LoggerModule,
	MetricsModule,
	StorageModule,
	ServiceModule,
	HTTPModule,
	LifecycleModule,
)

// ConfigModule provides configuration
var ConfigModule = fx.Provide(
	func() (*config.Config, error) {
		return config.Load("")
	},
)

// LoggerModule provides logging
var LoggerModule = fx.Provide(
	func(cfg *config.Config) (*zap.Logger, error) {
		return logger.New(logger.Config{
			Level:       cfg.App.LogLevel,
			Format:      cfg.App.LogFormat,
			Development: cfg.App.Debug,
		})
	},
)

// MetricsModule provides Prometheus collectors
var MetricsModule = fx.Provide(monitoring.NewMetrics)

// StorageModule provides the key-value blob store selected by config
var StorageModule = fx.Provide(
	func(cfg *config.Config, log *zap.Logger) (outbound.KeyValueStore, error) {
		switch cfg.Storage.Provider {
		case "redis":
			return redisstore.NewStore(context.Background(), cfg, log)
		case "memory":
			log.Info("Using in-memory storage; pantry will not survive restarts")
			return memory.NewStore(), nil
		case "file":
			store, err := file.NewStore(cfg.Storage.Path)
			if err != nil {
				return nil, err
			}
			log.Info("Using file storage", zap.String("path", cfg.Storage.Path))
			return store, nil
		default:
			return nil, fmt.Errorf("unknown storage provider %q", cfg.Storage.Provider)
		}
	},
)

// ServiceModule provides application services
var ServiceModule = fx.Provide(
	// AI gateway
	fx.Annotate(
		gemini.NewClient,
		fx.As(new(outbound.VisionService)),
	),

	// Capture device: server deployments have none attached
	fx.Annotate(
		func() *capture.Unavailable { return capture.NewUnavailable() },
		fx.As(new(outbound.FrameSource)),
	),

	// Pantry store
	fx.Annotate(
		pantrysvc.NewService,
		fx.As(new(inbound.PantryService)),
	),

	// Profile store
	fx.Annotate(
		profilesvc.NewService,
		fx.As(new(inbound.ProfileService)),
	),

	// Recipe query engine
	fx.Annotate(
		recipes.NewEngine,
		fx.As(new(inbound.RecipeFinder)),
	),

	// Scan workflow
	fx.Annotate(
		scan.NewWorkflow,
		fx.As(new(inbound.ScanService)),
	),

	// Health checks
	func(cfg *config.Config, log *zap.Logger, store outbound.KeyValueStore) *healthcheck.HealthCheck {
		h := healthcheck.New(cfg.App.Version, log)
		h.Register("storage", storageChecker(store))
		h.Register("ai_gateway", healthcheck.CheckerFunc(func(ctx context.Context) healthcheck.Check {
			if cfg.AI.GeminiKey == "" {
				return healthcheck.Check{Status: healthcheck.StatusDegraded, Message: "no API key configured"}
			}
			return healthcheck.Check{Status: healthcheck.StatusHealthy}
		}))
		return h
	},
)

// storageChecker verifies the blob store answers reads.
func storageChecker(store outbound.KeyValueStore) healthcheck.Checker {
	return healthcheck.CheckerFunc(func(ctx context.Context) healthcheck.Check {
		_, err := store.Get(ctx, "spicesync:healthcheck")
		if err != nil && err != outbound.ErrKeyNotFound {
			return healthcheck.Check{Status: healthcheck.StatusUnhealthy, Message: err.Error()}
		}
		return healthcheck.Check{Status: healthcheck.StatusHealthy}
	})
}

// HTTPModule provides HTTP server and handlers
var HTTPModule = fx.Provide(
	handlers.NewAPIHandlers,
	server.NewServer,
)

// LifecycleModule provides lifecycle hooks
var LifecycleModule = fx.Invoke(RegisterLifecycleHooks)

// RegisterLifecycleHooks registers application lifecycle hooks
func RegisterLifecycleHooks(
	lc fx.Lifecycle,
	cfg *config.Config,
	log *zap.Logger,
	pantry inbound.PantryService,
	store outbound.KeyValueStore,
	srv *server.Server,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("Starting SpiceSync",
				zap.String("version", cfg.App.Version),
				zap.String("environment", cfg.App.Environment),
			)

			if err := pantry.Load(ctx); err != nil {
				return err
			}

			go func() {
				if err := srv.Start(); err != nil {
					log.Fatal("Failed to start HTTP server", zap.Error(err))
				}
			}()

			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down SpiceSync")
			if err := srv.Shutdown(ctx); err != nil {
				log.Error("Failed to shutdown HTTP server", zap.Error(err))
			}
			if closer, ok := store.(io.Closer); ok {
				if err := closer.Close(); err != nil {
					log.Error("Failed to close storage", zap.Error(err))
				}
			}
			_ = log.Sync()
			return nil
		},
	})
}

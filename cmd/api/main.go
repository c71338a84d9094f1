package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/unit-selector/app/config"
	"github.com/unit-selector/app/controllers"
	"github.com/unit-selector/app/models"
	"github.com/unit-selector/app/services"
	"github.com/unit-selector/internal/layout"
	"github.com/unit-selector/internal/normalizer"
	"github.com/unit-selector/internal/profile"
	"github.com/unit-selector/internal/search"
	"github.com/unit-selector/routes"
)

func main() {
	// 1. Load configuration
	loadConfig()

	// 2. Initialize logger
	logger := initLogger()
	defer logger.Sync()

	logger.Info("Starting Unit Selector Service")

	// 3. Engine tunables (candidate caps, suggestion floor, history keys)
	if engineCfg := viper.GetString("engine.config"); engineCfg != "" {
		if err := config.Load(engineCfg); err != nil {
			logger.Warn("Engine config not loaded, using defaults",
				zap.String("path", engineCfg),
				zap.Error(err))
		}
	}

	// 4. Key-value store for selection history
	kv, kvCleanup := initKVStore(logger)
	defer kvCleanup()

	// 5. Site profiles: source, cache, layout resolver
	resolver, err := layout.NewResolver()
	if err != nil {
		logger.Fatal("Failed to build layout resolver", zap.Error(err))
	}

	profileSource := initProfileSource(logger)
	profileService := services.NewProfileService(profileSource, profile.NewCache(config.ProfileTTL()), resolver, logger)

	// 6. Selection engine components
	unitNormalizer := normalizer.NewUnitNormalizer()
	searchEngine := search.NewEngine(unitNormalizer, logger)

	// 7. Services
	historyService := services.NewHistoryService(kv, logger)
	selectorService := services.NewSelectorService(profileService, historyService, unitNormalizer, searchEngine, logger)

	selectorService.OnChange(func(change services.ValueChange) {
		logger.Info("Selector value changed",
			zap.String("site", change.Site),
			zap.String("value", change.Value),
			zap.Bool("complete", change.Complete))
	})

	// 8. Controllers
	selectorController := controllers.NewSelectorController(selectorService, historyService, logger)
	adminController := controllers.NewAdminController(selectorService, profileService, kv, logger)

	// 9. Gin router
	if getEnv("APP_ENV", viper.GetString("app.env")) == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	routes.SetupAllRoutes(router, selectorController, adminController)

	// 10. Start server
	port := getEnv("APP_PORT", viper.GetString("app.port"))
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	go func() {
		logger.Info("HTTP server listening", zap.String("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// 11. Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Forced shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}

// loadConfig loads configuration from file and env vars
func loadConfig() {
	viper.SetConfigName("app")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	viper.AddConfigPath(".")

	// Set defaults
	viper.SetDefault("app.port", "8080")
	viper.SetDefault("app.env", "development")
	viper.SetDefault("kv.backend", "memory")
	viper.SetDefault("redis.url", "redis://localhost:6379")
	viper.SetDefault("redis.prefix", "unitsel:")
	viper.SetDefault("mongo.url", "mongodb://localhost:27017/unit_selector")
	viper.SetDefault("mongo.db", "unit_selector")
	viper.SetDefault("profile.endpoint", "")
	viper.SetDefault("profile.file", "config/profiles.yaml")
	viper.SetDefault("engine.config", "config/engine.yaml")

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Warning: Cannot read config file: %v", err)
	}
}

// initLogger builds the structured logger for the configured environment
func initLogger() *zap.Logger {
	env := getEnv("APP_ENV", "development")

	var cfg zap.Config
	if env == "production" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}

	logger, err := cfg.Build()
	if err != nil {
		log.Fatal("Cannot initialize logger:", err)
	}

	return logger
}

// initKVStore picks the history backend. Selection history is never
// worth refusing to boot over, so any backend failure falls back to the
// in-process store.
func initKVStore(logger *zap.Logger) (services.KVStore, func()) {
	backend := getEnv("KV_BACKEND", viper.GetString("kv.backend"))

	var fast, slow services.KVStore
	cleanup := func() {}

	if backend == "redis" || backend == "tiered" {
		redisKV, err := services.NewRedisKVService(
			getEnv("REDIS_URL", viper.GetString("redis.url")),
			viper.GetString("redis.prefix"),
			logger)
		if err != nil {
			logger.Warn("Redis unavailable, continuing without it", zap.Error(err))
		} else {
			fast = redisKV
		}
	}

	if backend == "mongo" || backend == "tiered" {
		client, err := initMongoDB(logger)
		if err != nil {
			logger.Warn("MongoDB unavailable, continuing without it", zap.Error(err))
		} else {
			mongoKV, err := services.NewMongoKVService(client.Database(viper.GetString("mongo.db")), logger)
			if err != nil {
				logger.Warn("MongoDB store unavailable, continuing without it", zap.Error(err))
			} else {
				slow = mongoKV
				cleanup = func() {
					if err := client.Disconnect(context.Background()); err != nil {
						logger.Error("Error disconnecting MongoDB", zap.Error(err))
					}
				}
			}
		}
	}

	switch {
	case fast != nil && slow != nil:
		logger.Info("History backend ready", zap.String("backend", "tiered"))
		return services.NewTieredKVService(fast, slow, logger), cleanup
	case fast != nil:
		logger.Info("History backend ready", zap.String("backend", "redis"))
		return fast, cleanup
	case slow != nil:
		logger.Info("History backend ready", zap.String("backend", "mongo"))
		return slow, cleanup
	default:
		if backend != "memory" {
			logger.Warn("Falling back to in-memory history store", zap.String("requested", backend))
		}
		return services.NewMemoryKVService(), cleanup
	}
}

// initMongoDB connects and pings MongoDB
func initMongoDB(logger *zap.Logger) (*mongo.Client, error) {
	mongoURL := getEnv("MONGO_URL", viper.GetString("mongo.url"))

	client, err := mongo.Connect(context.Background(), options.Client().ApplyURI(mongoURL))
	if err != nil {
		return nil, err
	}

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}

	logger.Info("Connected to MongoDB")
	return client, nil
}

// initProfileSource picks where site profiles come from: portal
// endpoint, yaml catalog, or the shipped defaults.
func initProfileSource(logger *zap.Logger) profile.Source {
	if endpoint := getEnv("PROFILE_ENDPOINT", viper.GetString("profile.endpoint")); endpoint != "" {
		logger.Info("Profile source: portal", zap.String("endpoint", endpoint))
		return profile.NewHTTPSource(endpoint, config.FetchTimeout(), logger)
	}

	if path := getEnv("PROFILE_FILE", viper.GetString("profile.file")); path != "" {
		src, err := profile.NewFileSource(path, logger)
		if err != nil {
			logger.Warn("Profile catalog not loaded, using defaults",
				zap.String("path", path),
				zap.Error(err))
		} else {
			logger.Info("Profile source: file catalog", zap.String("path", path))
			return src
		}
	}

	logger.Info("Profile source: shipped defaults")
	return profile.NewStaticSource(models.DefaultProfile())
}

// getEnv reads an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

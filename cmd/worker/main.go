package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/unit-selector/app/config"
	"github.com/unit-selector/app/models"
	"github.com/unit-selector/app/services"
	"github.com/unit-selector/helpers/utils"
	"github.com/unit-selector/internal/layout"
	"github.com/unit-selector/internal/profile"
)

// The warm worker keeps site profiles hot so API instances sharing the
// portal never serve stale layouts for the sites listed in the catalog.

type siteCatalog struct {
	Sites []struct {
		Code string `yaml:"code"`
		Name string `yaml:"name"`
	} `yaml:"sites"`
}

func main() {
	// 1. Load configuration
	loadConfig()

	// 2. Initialize logger
	logger := initLogger()
	defer logger.Sync()

	logger.Info("Starting Unit Selector Warm Worker")

	// 3. Engine tunables
	if engineCfg := viper.GetString("engine.config"); engineCfg != "" {
		if err := config.Load(engineCfg); err != nil {
			logger.Warn("Engine config not loaded, using defaults",
				zap.String("path", engineCfg),
				zap.Error(err))
		}
	}

	// 4. Profile stack
	resolver, err := layout.NewResolver()
	if err != nil {
		logger.Fatal("Failed to build layout resolver", zap.Error(err))
	}

	profileSource := initProfileSource(logger)
	profileService := services.NewProfileService(profileSource, profile.NewCache(config.ProfileTTL()), resolver, logger)

	// 5. Warm list
	sitesPath := getEnv("WARM_SITES", viper.GetString("warm.sites"))
	sites, err := loadSites(sitesPath)
	if err != nil {
		logger.Fatal("Cannot read warm site list",
			zap.String("path", sitesPath),
			zap.Error(err))
	}
	if len(sites) == 0 {
		logger.Warn("Warm site list is empty, nothing to warm",
			zap.String("path", sitesPath))
	}

	interval := config.ProfileTTL()
	logger.Info("Warm loop configured",
		zap.Int("sites", len(sites)),
		zap.Duration("interval", interval))

	// 6. Warm once, then on every profile TTL tick
	warmAll(profileService, sites, logger)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-quit:
			logger.Info("Shutting down worker...")
			return
		case <-ticker.C:
			warmAll(profileService, sites, logger)
		}
	}
}

func warmAll(profiles *services.ProfileService, sites []models.SiteRef, logger *zap.Logger) {
	for _, site := range sites {
		key := utils.SiteKey(site.Code, site.Name)

		ctx, cancel := context.WithTimeout(context.Background(), config.FetchTimeout())
		p, epoch, err := profiles.FetchNow(ctx, site)
		cancel()

		if err != nil {
			logger.Warn("Profile warm failed",
				zap.String("site", key),
				zap.Error(err))
			continue
		}

		logger.Info("Profile warmed",
			zap.String("site", key),
			zap.Int64("epoch", epoch),
			zap.Int("buildings", p.BuildingCount))
	}
}

func loadSites(path string) ([]models.SiteRef, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var doc siteCatalog
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, err
	}

	sites := make([]models.SiteRef, 0, len(doc.Sites))
	for _, s := range doc.Sites {
		if s.Code == "" && s.Name == "" {
			continue
		}
		sites = append(sites, models.SiteRef{Code: s.Code, Name: s.Name})
	}
	return sites, nil
}

// loadConfig loads configuration from file and env vars
func loadConfig() {
	viper.SetConfigName("app")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	viper.AddConfigPath(".")

	// Set defaults
	viper.SetDefault("app.env", "development")
	viper.SetDefault("profile.endpoint", "")
	viper.SetDefault("profile.file", "config/profiles.yaml")
	viper.SetDefault("engine.config", "config/engine.yaml")
	viper.SetDefault("warm.sites", "config/sites.yaml")

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

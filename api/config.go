package main

import (
	"context"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	MongoURI     string `env:"MONGO_URI,default=mongodb://localhost:27017"`
	MongoDB      string `env:"MONGO_DB,default=cropsight"`
	ProcessorURI string `env:"PROCESSOR_URL,default=http://127.0.0.1:8000"`
	JWTSecret    string `env:"JWT_SECRET,default=change_me"`
	Port         string `env:"PORT,default=8080"`

	LogLevel  string `env:"LOG_LEVEL,default=info"`
	LogFormat string `env:"LOG_FORMAT,default=json"`

	// CropTablePath overrides the built-in crop parameter table.
	CropTablePath    string        `env:"CROP_TABLE_PATH"`
	MaxCloudCover    float64       `env:"MAX_CLOUD_COVER,default=20"`
	AnalysisTimeout  time.Duration `env:"ANALYSIS_TIMEOUT,default=60s"`
	BatchParallelism int           `env:"BATCH_PARALLELISM,default=4"`
	CacheEnabled     bool          `env:"CACHE_ENABLED,default=true"`
}

// loadConfig reads an optional .env file, then the environment.
func loadConfig(ctx context.Context) (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return Config{}, fmt.Errorf("process config: %w", err)
	}
	if cfg.MaxCloudCover < 0 || cfg.MaxCloudCover > 100 {
		return Config{}, fmt.Errorf("MAX_CLOUD_COVER %v outside [0,100]", cfg.MaxCloudCover)
	}
	if cfg.BatchParallelism < 1 {
		cfg.BatchParallelism = 1
	}
	return cfg, nil
}

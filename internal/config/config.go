// Package config loads runtime settings for the API.
//
// Precedence, lowest to highest: built-in defaults, an optional YAML file
// (CONFIG_PATH), then environment variables. A .env file in the working
// directory is loaded into the environment first.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

const ConfigPathEnvVar = "CONFIG_PATH"

const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
	DriverMemory   = "memory"
)

type Config struct {
	Port          string `koanf:"port"`
	StoreDriver   string `koanf:"store_driver"`
	DatabaseURL   string `koanf:"database_url"`
	MongoDatabase string `koanf:"mongo_database"`

	// JWTSecret signs the tokens handed out by register/login.
	JWTSecret string        `koanf:"jwt_secret"`
	TokenTTL  time.Duration `koanf:"token_ttl"`

	UploadMaxBytes      int64 `koanf:"upload_max_bytes"`
	ImageMaxDimension   int   `koanf:"image_max_dimension"`
	ImageMaxPixels      int   `koanf:"image_max_pixels"`
	HEICQuality         int   `koanf:"heic_quality"`
	ExtractionCacheSize int   `koanf:"extraction_cache_size"`

	// CORSOrigins is a comma separated list, "*" allows everything.
	CORSOrigins    string  `koanf:"cors_origins"`
	RateLimitRPS   float64 `koanf:"rate_limit_rps"`
	RateLimitBurst int     `koanf:"rate_limit_burst"`

	MetricsUser string `koanf:"metrics_user"`
	MetricsPass string `koanf:"metrics_pass"`
	PprofSecret string `koanf:"pprof_secret"`

	MapAccessToken string `koanf:"map_access_token"`
	MapStyle       string `koanf:"map_style"`

	LogLevel  string `koanf:"log_level"`
	LogFormat string `koanf:"log_format"`
}

func defaultConfig() *Config {
	return &Config{
		Port:                "5000",
		StoreDriver:         DriverPostgres,
		MongoDatabase:       "triprecap",
		TokenTTL:            time.Hour,
		UploadMaxBytes:      25 * 1024 * 1024,
		ImageMaxDimension:   800,
		ImageMaxPixels:      0x3FFF * 0x3FFF,
		HEICQuality:         90,
		ExtractionCacheSize: 256,
		CORSOrigins:         "*",
		RateLimitRPS:        5,
		RateLimitBurst:      30,
		MapStyle:            "mapbox://styles/mapbox/streets-v11",
		LogLevel:            "info",
		LogFormat:           "json",
	}
}

// Load builds a Config from defaults, the optional YAML file and the environment.
func Load() (*Config, error) {
	// a missing .env is fine, the environment may already be populated
	_ = godotenv.Load()

	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := os.Getenv(ConfigPathEnvVar); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// envTransformFunc maps PORT -> port, DATABASE_URL -> database_url.
// MONGODB_URI is accepted as an alias of DATABASE_URL.
func envTransformFunc(key string) string {
	key = strings.ToLower(key)
	if key == "mongodb_uri" {
		return "database_url"
	}
	return key
}

func (c *Config) Validate() error {
	var errs []error

	if _, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Errorf("port %q is not a number", c.Port))
	}

	switch c.StoreDriver {
	case DriverPostgres, DriverMongo:
		if c.DatabaseURL == "" {
			errs = append(errs, fmt.Errorf("DATABASE_URL is required for the %s driver", c.StoreDriver))
		}
	case DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown store driver %q", c.StoreDriver))
	}

	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.UploadMaxBytes <= 0 {
		errs = append(errs, errors.New("upload_max_bytes must be positive"))
	}
	if c.ImageMaxDimension <= 0 {
		errs = append(errs, errors.New("image_max_dimension must be positive"))
	}
	if c.ImageMaxPixels <= 0 {
		errs = append(errs, errors.New("image_max_pixels must be positive"))
	}
	if c.HEICQuality < 1 || c.HEICQuality > 100 {
		errs = append(errs, fmt.Errorf("heic_quality %d out of range 1-100", c.HEICQuality))
	}

	return errors.Join(errs...)
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}

// AllowedOrigins splits CORSOrigins into a slice.
func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

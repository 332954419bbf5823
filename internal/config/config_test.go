package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("STORE_DRIVER", "memory")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DriverMemory, cfg.StoreDriver)
	assert.Equal(t, int64(25*1024*1024), cfg.UploadMaxBytes)
	assert.Equal(t, 800, cfg.ImageMaxDimension)
	assert.Equal(t, 268402689, cfg.ImageMaxPixels)
	assert.Equal(t, 90, cfg.HEICQuality)
	assert.Equal(t, time.Hour, cfg.TokenTTL)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("STORE_DRIVER", "mongo")
	t.Setenv("MONGODB_URI", "mongodb://localhost:27017")
	t.Setenv("PORT", "8080")
	t.Setenv("TOKEN_TTL", "15m")
	t.Setenv("CORS_ORIGINS", "http://localhost:3000, https://trip.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, "mongodb://localhost:27017", cfg.DatabaseURL)
	assert.Equal(t, 15*time.Minute, cfg.TokenTTL)
	assert.Equal(t, []string{"http://localhost:3000", "https://trip.example"}, cfg.AllowedOrigins())
}

func TestLoad_ConfigFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store_driver: memory\nport: \"7000\"\nimage_max_dimension: 640\n"), 0o600))

	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("PORT", "7001")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 640, cfg.ImageMaxDimension)
	assert.Equal(t, "7001", cfg.Port)
}

func TestValidate(t *testing.T) {
	cfg := defaultConfig()
	cfg.StoreDriver = "sqlite"
	cfg.Port = "http"
	cfg.HEICQuality = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown store driver")
	assert.Contains(t, err.Error(), "not a number")
	assert.Contains(t, err.Error(), "JWT_SECRET")
	assert.Contains(t, err.Error(), "heic_quality")

	cfg = defaultConfig()
	cfg.JWTSecret = "x"
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, DriverMySQL, cfg.DBDriver)
	assert.Equal(t, StorageLocal, cfg.StorageBackend)
	assert.Equal(t, 15*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.RefreshTokenTTL)
	assert.Equal(t, int64(10<<20), cfg.MaxUploadBytes)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DATABASE_DSN", "file:app.db")
	t.Setenv("ACCESS_TOKEN_TTL", "5m")
	t.Setenv("REDIS_DB", "3")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DriverSQLite, cfg.DBDriver)
	assert.Equal(t, "file:app.db", cfg.DatabaseDSN)
	assert.Equal(t, 5*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, 3, cfg.RedisDB)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "unknown driver", mutate: func(c *Config) { c.DBDriver = "oracle" }, wantErr: true},
		{name: "unknown storage", mutate: func(c *Config) { c.StorageBackend = "ftp" }, wantErr: true},
		{name: "s3 without bucket", mutate: func(c *Config) { c.StorageBackend = StorageS3 }, wantErr: true},
		{name: "s3 with bucket", mutate: func(c *Config) { c.StorageBackend = StorageS3; c.S3Bucket = "media" }},
		{name: "zero upload size", mutate: func(c *Config) { c.MaxUploadBytes = 0 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{DBDriver: DriverMySQL, StorageBackend: StorageLocal, MaxUploadBytes: 1}
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAllowedOrigins(t *testing.T) {
	cfg := &Config{CORSAllowedOrigins: " https://a.example , ,https://b.example"}
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins())

	cfg.CORSAllowedOrigins = ""
	assert.Nil(t, cfg.AllowedOrigins())
}

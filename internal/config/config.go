package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

// Config represents the complete server configuration
type Config struct {
	Server ServerConfig `toml:"server"`
	Auth   AuthConfig   `toml:"auth"`
	Redis  RedisConfig  `toml:"redis"`
	Minio  MinioConfig  `toml:"minio"`
	JWKS   JWKSConfig   `toml:"jwks"`
}

// ServerConfig contains HTTP listener and database settings
type ServerConfig struct {
	Port        int    `toml:"port"`
	DatabaseURL string `toml:"database_url"`
}

// AuthConfig contains token signing and lifetime settings
type AuthConfig struct {
	EncryptionKey       string `toml:"encryption_key"`
	JWTSecret           string `toml:"jwt_secret"`
	Issuer              string `toml:"issuer"`
	Audience            string `toml:"audience"`
	AccessTTLSeconds    int    `toml:"access_ttl_seconds"`
	RefreshTTLSeconds   int    `toml:"refresh_ttl_seconds"`
	StoreTimeoutSeconds int    `toml:"store_timeout_seconds"`
}

// RedisConfig contains cache and rate-limit backend settings
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

// MinioConfig contains audit archive storage settings
type MinioConfig struct {
	Endpoint  string `toml:"endpoint"`
	AccessKey string `toml:"access_key"`
	SecretKey string `toml:"secret_key"`
	UseSSL    bool   `toml:"use_ssl"`
	Bucket    string `toml:"bucket"`
}

// JWKSConfig enables the jwt-bearer grant when a URL is set
type JWKSConfig struct {
	URL      string `toml:"url"`
	Issuer   string `toml:"issuer"`
	Audience string `toml:"audience"`
}

// Load reads configuration from a TOML file when one is given, then
// applies environment overrides and defaults.
func Load(filename string) (*Config, error) {
	cfg := &Config{}
	if filename != "" {
		if _, err := toml.DecodeFile(filename, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	if cfg.Server.DatabaseURL == "" {
		return nil, fmt.Errorf("database_url is required (set DATABASE_URL)")
	}
	if cfg.Auth.EncryptionKey == "" {
		return nil, fmt.Errorf("encryption_key is required (set ENCRYPTION_KEY)")
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	setString(&c.Server.DatabaseURL, "DATABASE_URL")
	setInt(&c.Server.Port, "PORT")

	setString(&c.Auth.EncryptionKey, "ENCRYPTION_KEY")
	setString(&c.Auth.JWTSecret, "JWT_SECRET")
	setString(&c.Auth.Issuer, "TOKEN_ISSUER")
	setString(&c.Auth.Audience, "TOKEN_AUDIENCE")
	setInt(&c.Auth.AccessTTLSeconds, "ACCESS_TTL_SECONDS")
	setInt(&c.Auth.RefreshTTLSeconds, "REFRESH_TTL_SECONDS")

	setString(&c.Redis.Addr, "REDIS_ADDR")
	setString(&c.Redis.Password, "REDIS_PASSWORD")
	setInt(&c.Redis.DB, "REDIS_DB")

	setString(&c.Minio.Endpoint, "MINIO_ENDPOINT")
	setString(&c.Minio.AccessKey, "MINIO_ACCESS_KEY")
	setString(&c.Minio.SecretKey, "MINIO_SECRET_KEY")
	setString(&c.Minio.Bucket, "MINIO_BUCKET")
	if os.Getenv("MINIO_USE_SSL") == "true" {
		c.Minio.UseSSL = true
	}

	setString(&c.JWKS.URL, "JWKS_URL")
	setString(&c.JWKS.Issuer, "JWKS_ISSUER")
	setString(&c.JWKS.Audience, "JWKS_AUDIENCE")
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = "localhost:6379"
	}
	if c.Minio.Endpoint == "" {
		c.Minio.Endpoint = "localhost:9000"
	}
	if c.Minio.AccessKey == "" {
		c.Minio.AccessKey = "minioadmin"
	}
	if c.Minio.SecretKey == "" {
		c.Minio.SecretKey = "minioadmin"
	}
	if c.Minio.Bucket == "" {
		c.Minio.Bucket = "authshield-audit"
	}
	if c.Auth.Issuer == "" {
		c.Auth.Issuer = "authshield"
	}
	if c.Auth.Audience == "" {
		c.Auth.Audience = "authshield"
	}
	if c.Auth.AccessTTLSeconds == 0 {
		c.Auth.AccessTTLSeconds = 3600
	}
	if c.Auth.RefreshTTLSeconds == 0 {
		c.Auth.RefreshTTLSeconds = 30 * 24 * 3600
	}
	if c.Auth.StoreTimeoutSeconds == 0 {
		c.Auth.StoreTimeoutSeconds = 5
	}
}

// AccessTTL returns the access-token lifetime as a duration.
func (c *Config) AccessTTL() time.Duration {
	return time.Duration(c.Auth.AccessTTLSeconds) * time.Second
}

// RefreshTTL returns the refresh-token lifetime as a duration.
func (c *Config) RefreshTTL() time.Duration {
	return time.Duration(c.Auth.RefreshTTLSeconds) * time.Second
}

// StoreTimeout returns the per-call backing store deadline.
func (c *Config) StoreTimeout() time.Duration {
	return time.Duration(c.Auth.StoreTimeoutSeconds) * time.Second
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

// Package config loads the server configuration from the environment.
// An optional .env file in the working directory is read first.
package config

import (
	"errors"
	"fmt"
	"time"

	env "github.com/Netflix/go-env"
	"github.com/joho/godotenv"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMongo    = "mongo"
	StoreDriverMemory   = "memory"
)

// Config holds every tunable of the chat server.
type Config struct {
	HTTPAddr     string        `env:"HTTP_ADDR,default=:8080"`
	LogLevel     string        `env:"LOG_LEVEL,default=info"`
	JWTSecret    string        `env:"JWT_SECRET"`
	TokenTTL     time.Duration `env:"TOKEN_TTL,default=72h"`
	CookieSecure bool          `env:"COOKIE_SECURE,default=false"`

	StoreDriver   string `env:"STORE_DRIVER,default=postgres"`
	PostgresDSN   string `env:"POSTGRES_DSN,default=host=localhost user=user password=password dbname=chatdb port=5432 sslmode=disable"`
	MongoURI      string `env:"MONGO_URI,default=mongodb://localhost:27017"`
	MongoDatabase string `env:"MONGO_DATABASE,default=chat"`

	// Empty RedisAddr disables token revocation.
	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`

	MediaDir      string `env:"MEDIA_DIR,default=./media"`
	MediaBaseURL  string `env:"MEDIA_BASE_URL,default=/media"`
	MaxMediaBytes int64  `env:"MAX_MEDIA_BYTES,default=10485760"`

	AllowedOrigin string `env:"ALLOWED_ORIGIN"`
	SendBuffer    int    `env:"SEND_BUFFER,default=256"`
}

// Load reads .env (if present) and then the process environment.
func Load() (Config, error) {
	// A missing .env is the normal case outside local development.
	_ = godotenv.Load()

	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return cfg, fmt.Errorf("config error: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the values go-env cannot express as tags.
func (c Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("config error: JWT_SECRET must be set")
	}
	switch c.StoreDriver {
	case StoreDriverPostgres, StoreDriverMongo, StoreDriverMemory:
	default:
		return fmt.Errorf("config error: unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.SendBuffer <= 0 {
		return fmt.Errorf("config error: SEND_BUFFER must be positive, got %d", c.SendBuffer)
	}
	if c.MaxMediaBytes <= 0 {
		return fmt.Errorf("config error: MAX_MEDIA_BYTES must be positive, got %d", c.MaxMediaBytes)
	}
	return nil
}

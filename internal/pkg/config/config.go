package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Credential store backends.
const (
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

type Config struct {
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	API         APIConfig
	Credentials CredentialConfig
	Redis       RedisConfig
	Server      ServerConfig
}

// APIConfig locates the backend the client talks to.
type APIConfig struct {
	BaseURL string        `env:"API_BASE_URL,    default=http://127.0.0.1:8000/api"`
	Timeout time.Duration `env:"REQUEST_TIMEOUT, default=15s"`
}

type CredentialConfig struct {
	Backend string `env:"CREDENTIAL_BACKEND, default=file"`
	// File is the credential file path; empty selects the per-user default.
	File string `env:"CREDENTIAL_FILE"`
}

type RedisConfig struct {
	Addr      string `env:"REDIS_ADDR,       default=localhost:6379"`
	DB        int    `env:"REDIS_DB,         default=0"`
	KeyPrefix string `env:"REDIS_KEY_PREFIX, default=clientx"`
}

// ServerConfig configures the development backend.
type ServerConfig struct {
	Port            string        `env:"PORT,              default=8000"`
	JWTSecret       string        `env:"JWT_SECRET"`
	AccessTokenTTL  time.Duration `env:"ACCESS_TOKEN_TTL,  default=30m"`
	RenewalTokenTTL time.Duration `env:"RENEWAL_TOKEN_TTL, default=24h"`
}

// IsDevelopment reports whether pretty, verbose defaults should apply.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return nil, fmt.Errorf("config: failed to load configuration: %w", err)
	}
	switch cfg.Credentials.Backend {
	case BackendFile, BackendRedis, BackendMemory:
	default:
		return nil, fmt.Errorf("config: unknown CREDENTIAL_BACKEND %q", cfg.Credentials.Backend)
	}
	return &cfg, nil
}

package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	EnvDev  = "DEV"
	EnvProd = "PROD"

	RevocationNone     = "none"
	RevocationPostgres = "postgres"
	RevocationMemory   = "memory"
	RevocationRedis    = "redis"

	StoragePostgres = "postgres"
	StorageMemory   = "memory"

	minSecretLength = 32
)

type Config struct {
	Env         string   `env:"APP_ENV" envDefault:"PROD"`
	Host        string   `env:"HOST"`
	Port        int      `env:"PORT" envDefault:"8080"`
	Storage     string   `env:"STORAGE" envDefault:"postgres"`
	DatabaseUrl string   `env:"DATABASE_URL"`
	CorsOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`

	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	Token      Token
	Revocation Revocation
}

// Token holds the signing material. Secret is loaded once and never rotated
// while the process runs.
type Token struct {
	Secret    string        `env:"SECRET"`
	Issuer    string        `env:"TOKEN_ISSUER" envDefault:"bucketlist-api"`
	TTL       time.Duration `env:"TOKEN_TTL" envDefault:"1h"`
	ClockSkew time.Duration `env:"TOKEN_CLOCK_SKEW" envDefault:"0s"`
}

type Revocation struct {
	Backend       string        `env:"REVOCATION_BACKEND" envDefault:"postgres"`
	PruneInterval time.Duration `env:"REVOCATION_PRUNE_INTERVAL" envDefault:"10m"`
	RedisAddr     string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisDB       int           `env:"REDIS_DB" envDefault:"0"`
}

// Load reads envFile into the process environment when it exists and then
// parses the environment into a Config.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func MustLoad(envFile string) *Config {
	cfg, err := Load(envFile)
	if err != nil {
		log.Fatal("Config loading failed with error - " + err.Error())
	}
	return cfg
}

func (c *Config) Validate() error {
	if len(c.Token.Secret) < minSecretLength {
		return fmt.Errorf("SECRET must be at least %d bytes", minSecretLength)
	}
	if c.Token.TTL <= 0 {
		return errors.New("TOKEN_TTL must be positive")
	}
	if c.Token.ClockSkew < 0 {
		return errors.New("TOKEN_CLOCK_SKEW must not be negative")
	}
	if c.Token.Issuer == "" {
		return errors.New("TOKEN_ISSUER must not be empty")
	}
	switch c.Storage {
	case StoragePostgres:
		if c.DatabaseUrl == "" {
			return errors.New("DATABASE_URL is required for postgres storage")
		}
	case StorageMemory:
	default:
		return fmt.Errorf("unknown STORAGE %q", c.Storage)
	}
	switch c.Revocation.Backend {
	case RevocationNone, RevocationRedis:
	case RevocationPostgres, RevocationMemory:
		if c.Storage != c.Revocation.Backend {
			return fmt.Errorf("%s revocation requires %s storage", c.Revocation.Backend, c.Revocation.Backend)
		}
		if c.Revocation.PruneInterval <= 0 {
			return errors.New("REVOCATION_PRUNE_INTERVAL must be positive")
		}
	default:
		return fmt.Errorf("unknown REVOCATION_BACKEND %q", c.Revocation.Backend)
	}
	return nil
}

func (c *Config) IsDev() bool {
	return c.Env == EnvDev
}

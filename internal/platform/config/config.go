package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is the process configuration, read from the environment.
// A .env file, when present, seeds variables that are not already set.
type Config struct {
	Port            string        `env:"PORT" envDefault:"8080"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// StorageBackend is "memory" or "postgres".
	StorageBackend string `env:"STORAGE_BACKEND" envDefault:"memory"`
	Database       DatabaseConfig

	// ClockLocation is the IANA zone used to stamp enrollment days.
	ClockLocation string `env:"CLOCK_LOCATION" envDefault:"UTC"`
	// SeedTripsFile is a JSON fixture of trips loaded into the memory backend.
	SeedTripsFile string `env:"SEED_TRIPS_FILE"`

	// IdempotencyTTL bounds how long a stored response can be replayed. Zero keeps records forever.
	IdempotencyTTL time.Duration `env:"IDEMPOTENCY_TTL" envDefault:"24h"`

	TripLock TripLockConfig
	Auth     AuthConfig
	Log      LogConfig

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
}

type DatabaseConfig struct {
	URL      string `env:"DATABASE_URL"`
	MaxConns int32  `env:"DB_MAX_CONNS" envDefault:"10"`
	MinConns int32  `env:"DB_MIN_CONNS" envDefault:"0"`
	// Migrate applies embedded schema migrations at startup.
	Migrate bool `env:"DB_MIGRATE" envDefault:"true"`
}

// TripLockConfig selects how Register is serialized across API instances.
// "local" relies on the storage backend alone; "redis" additionally takes a
// Redis lock per trip so several instances can share one store.
type TripLockConfig struct {
	Backend  string        `env:"TRIP_LOCK_BACKEND" envDefault:"local"`
	RedisURL string        `env:"REDIS_URL"`
	TTL      time.Duration `env:"TRIP_LOCK_TTL" envDefault:"5s"`
}

// AuthConfig configures request authentication.
//
// Production: AUTH_MODE=jwt with an HS256 shared secret.
// Local dev: AUTH_MODE=dev accepts X-Debug-Subject.
type AuthConfig struct {
	Mode       string `env:"AUTH_MODE" envDefault:"jwt"`
	DevSubject string `env:"DEV_SUBJECT" envDefault:"dev|local"`
	JWT        JWTConfig
}

// JWTConfig configures bearer token verification.
type JWTConfig struct {
	Secret    string        `env:"JWT_SECRET"`
	Issuer    string        `env:"JWT_ISSUER"`
	Audience  string        `env:"JWT_AUDIENCE"`
	ClockSkew time.Duration `env:"JWT_CLOCK_SKEW" envDefault:"30s"`
}

type LogConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

// Load reads dotenv files (missing files are skipped) and then parses the environment.
// With no arguments it looks for ".env" in the working directory.
func Load(dotenvFiles ...string) (Config, error) {
	if len(dotenvFiles) == 0 {
		dotenvFiles = []string{".env"}
	}
	for _, f := range dotenvFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field requirements that struct tags cannot express.
func (c Config) Validate() error {
	var errs []error

	switch c.StorageBackend {
	case "memory":
	case "postgres":
		if strings.TrimSpace(c.Database.URL) == "" {
			errs = append(errs, errors.New("DATABASE_URL is required when STORAGE_BACKEND=postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("STORAGE_BACKEND must be memory or postgres, got %q", c.StorageBackend))
	}

	switch c.TripLock.Backend {
	case "local":
	case "redis":
		if strings.TrimSpace(c.TripLock.RedisURL) == "" {
			errs = append(errs, errors.New("REDIS_URL is required when TRIP_LOCK_BACKEND=redis"))
		}
		if c.TripLock.TTL <= 0 {
			errs = append(errs, errors.New("TRIP_LOCK_TTL must be positive"))
		}
	default:
		errs = append(errs, fmt.Errorf("TRIP_LOCK_BACKEND must be local or redis, got %q", c.TripLock.Backend))
	}

	switch c.Auth.Mode {
	case "dev":
	case "jwt":
		if c.Auth.JWT.Secret == "" || c.Auth.JWT.Issuer == "" || c.Auth.JWT.Audience == "" {
			errs = append(errs, errors.New("missing required env vars: JWT_SECRET, JWT_ISSUER, JWT_AUDIENCE"))
		}
	default:
		errs = append(errs, fmt.Errorf("AUTH_MODE must be jwt or dev, got %q", c.Auth.Mode))
	}

	if c.IdempotencyTTL < 0 {
		errs = append(errs, errors.New("IDEMPOTENCY_TTL must not be negative"))
	}

	if _, err := time.LoadLocation(c.ClockLocation); err != nil {
		errs = append(errs, fmt.Errorf("CLOCK_LOCATION: %w", err))
	}

	return errors.Join(errs...)
}

// Location returns the parsed ClockLocation, falling back to UTC.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.ClockLocation)
	if err != nil {
		return time.UTC
	}
	return loc
}

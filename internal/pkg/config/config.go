package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

const (
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS, default=*"`

	JWT       JWTConfig
	Mongo     MongoConfig
	Cache     CacheConfig
	Redis     RedisConfig
	Minio     MinioConfig
	Notify    NotifyConfig
	RateLimit RateLimitConfig
	Reminders ReminderConfig
}

type JWTConfig struct {
	SigningKey       string        `env:"JWT_SIGNING_KEY, required"`
	Issuer           string        `env:"JWT_ISSUER,      required"`
	Audience         string        `env:"JWT_AUDIENCE,    required"`
	AccessTTL        time.Duration `env:"JWT_ACCESS_TTL,     default=1h"`
	RefreshTTL       time.Duration `env:"JWT_REFRESH_TTL,    default=168h"`
	PasswordResetTTL time.Duration `env:"PASSWORD_RESET_TTL, default=1h"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=scheduling"`
}

type CacheConfig struct {
	Backend    string `env:"CACHE_BACKEND,     default=memory"`
	MaxEntries int    `env:"CACHE_MAX_ENTRIES, default=10000"`
	KeyPrefix  string `env:"CACHE_KEY_PREFIX,  default=scheduling:"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	DB       int    `env:"REDIS_DB,       default=0"`
	Password string `env:"REDIS_PASSWORD"`
}

// MinioConfig is optional; an empty endpoint disables profile picture uploads.
type MinioConfig struct {
	Endpoint      string `env:"MINIO_ENDPOINT"`
	AccessKey     string `env:"MINIO_ACCESS_KEY"`
	SecretKey     string `env:"MINIO_SECRET_KEY"`
	Bucket        string `env:"MINIO_BUCKET,          default=profile-pictures"`
	UseSSL        bool   `env:"MINIO_USE_SSL,         default=false"`
	PublicBaseURL string `env:"MINIO_PUBLIC_BASE_URL"`
}

type NotifyConfig struct {
	RabbitMQURL string `env:"RABBITMQ_URL"`
	Exchange    string `env:"NOTIFY_EXCHANGE, default=scheduling.events"`
	Workers     int    `env:"NOTIFY_WORKERS,  default=4"`
}

type RateLimitConfig struct {
	RPS   float64 `env:"AUTH_RATE_LIMIT_RPS,   default=5"`
	Burst int     `env:"AUTH_RATE_LIMIT_BURST, default=10"`
}

type ReminderConfig struct {
	SweepSchedule string `env:"REMINDER_SWEEP_SCHEDULE, default=@every 1m"`
}

// IsDevelopment reports whether the process runs with developer defaults.
func (c *Config) IsDevelopment() bool {
	switch strings.ToLower(c.Env) {
	case "dev", "development", "local":
		return true
	}
	return false
}

// Load reads configuration from environment variables using go-envconfig.
// envFile, when non-empty, is loaded first; otherwise .env is loaded in
// development. Variables already set in the environment win.
func Load(ctx context.Context, envFile string) (*Config, error) {
	if err := loadDotEnv(envFile); err != nil {
		return nil, err
	}
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("config: failed to load configuration: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

func loadDotEnv(envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return fmt.Errorf("config: load %s: %w", envFile, err)
		}
		return nil
	}
	switch strings.ToLower(os.Getenv("ENV")) {
	case "", "dev", "development", "local":
		// a missing .env is normal outside a developer checkout
		_ = godotenv.Load()
	}
	return nil
}

func (c *Config) validate() error {
	var errs []error
	switch c.Cache.Backend {
	case CacheBackendMemory, CacheBackendRedis:
	default:
		errs = append(errs, fmt.Errorf("CACHE_BACKEND must be %q or %q, got %q", CacheBackendMemory, CacheBackendRedis, c.Cache.Backend))
	}
	if c.JWT.AccessTTL <= 0 {
		errs = append(errs, errors.New("JWT_ACCESS_TTL must be positive"))
	}
	if c.JWT.RefreshTTL <= 0 {
		errs = append(errs, errors.New("JWT_REFRESH_TTL must be positive"))
	}
	if c.Notify.Workers <= 0 {
		errs = append(errs, errors.New("NOTIFY_WORKERS must be positive"))
	}
	if c.RateLimit.RPS <= 0 || c.RateLimit.Burst <= 0 {
		errs = append(errs, errors.New("AUTH_RATE_LIMIT_RPS and AUTH_RATE_LIMIT_BURST must be positive"))
	}
	return errors.Join(errs...)
}

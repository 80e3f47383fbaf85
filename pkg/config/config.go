package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	CORS     CORSConfig
	Log      LogConfig
	Standing StandingConfig
	Workflow WorkflowConfig
	Bulk     BulkConfig
	Finalize FinalizeConfig
	Rollover RolloverConfig
	Import   ImportConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	AutoMigrate  bool
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret string
	Issuer string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// StandingConfig governs the cache in front of standing reads.
type StandingConfig struct {
	CacheEnabled bool
	CacheTTL     time.Duration
}

// WorkflowConfig tunes transition rules that vary per institution.
type WorkflowConfig struct {
	RequireRejectionReason bool
}

// BulkConfig bounds bulk orchestration.
type BulkConfig struct {
	Workers           int
	MaxItems          int
	MaxReportedErrors int
}

// FinalizeConfig configures the standing finalisation queue run after a semester lock.
type FinalizeConfig struct {
	Workers    int
	MaxRetries int
}

// RolloverConfig toggles the scheduled completion of offerings in locked semesters.
type RolloverConfig struct {
	Enabled  bool
	Schedule string
}

// ImportConfig configures bulk user import.
type ImportConfig struct {
	DefaultPassword string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
		AutoMigrate:  v.GetBool("DB_AUTO_MIGRATE"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret: v.GetString("JWT_SECRET"),
		Issuer: v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Standing = StandingConfig{
		CacheEnabled: v.GetBool("ENABLE_STANDING_CACHE"),
		CacheTTL:     parseDuration(v.GetString("STANDING_CACHE_TTL"), 10*time.Minute),
	}

	cfg.Workflow = WorkflowConfig{
		RequireRejectionReason: v.GetBool("WORKFLOW_REQUIRE_REJECTION_REASON"),
	}

	cfg.Bulk = BulkConfig{
		Workers:           positiveOr(v.GetInt("BULK_WORKERS"), 4),
		MaxItems:          positiveOr(v.GetInt("BULK_MAX_ITEMS"), 1000),
		MaxReportedErrors: positiveOr(v.GetInt("BULK_MAX_REPORTED_ERRORS"), 100),
	}

	cfg.Finalize = FinalizeConfig{
		Workers:    positiveOr(v.GetInt("FINALIZE_WORKERS"), 2),
		MaxRetries: positiveOr(v.GetInt("FINALIZE_RETRIES"), 3),
	}

	cfg.Rollover = RolloverConfig{
		Enabled:  v.GetBool("ENABLE_ROLLOVER"),
		Schedule: v.GetString("ROLLOVER_SCHEDULE"),
	}

	cfg.Import = ImportConfig{
		DefaultPassword: v.GetString("IMPORT_DEFAULT_PASSWORD"),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "academic_workflow")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_AUTO_MIGRATE", true)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ENABLE_STANDING_CACHE", false)
	v.SetDefault("STANDING_CACHE_TTL", "10m")

	v.SetDefault("WORKFLOW_REQUIRE_REJECTION_REASON", false)

	v.SetDefault("BULK_WORKERS", 4)
	v.SetDefault("BULK_MAX_ITEMS", 1000)
	v.SetDefault("BULK_MAX_REPORTED_ERRORS", 100)

	v.SetDefault("FINALIZE_WORKERS", 2)
	v.SetDefault("FINALIZE_RETRIES", 3)

	v.SetDefault("ENABLE_ROLLOVER", false)
	v.SetDefault("ROLLOVER_SCHEDULE", "0 30 2 * * *")

	v.SetDefault("IMPORT_DEFAULT_PASSWORD", "changeme")
}

func positiveOr(value, fallback int) int {
	if value <= 0 {
		return fallback
	}
	return value
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

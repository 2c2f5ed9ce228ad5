package config

import (
	"errors"
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

	Database    DatabaseConfig
	Redis       RedisConfig
	JWT         JWTConfig
	CORS        CORSConfig
	Log         LogConfig
	Reservation ReservationConfig
	Schedule    ScheduleConfig
	Jobs        JobsConfig
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
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// ReservationConfig carries the policy constants of the reservation engine.
type ReservationConfig struct {
	// LockTTL bounds how long a crashed reserver can hold the per-clinic lock.
	LockTTL time.Duration
	// RateLimit / RateLimitWindow apply per user to reservation attempts.
	RateLimit       int
	RateLimitWindow time.Duration
	// NoShowThreshold blocks students whose counter reaches it.
	NoShowThreshold int
	// NoShowPenalty is added on a transition into absent and removed on the
	// way back out. Kept configurable because the magnitude is policy, not law.
	NoShowPenalty int
	// CancellationEnabled gates the cancel endpoint entirely.
	CancellationEnabled bool
}

// ScheduleConfig governs the weekly-schedule cache.
type ScheduleConfig struct {
	CacheEnabled bool
	CacheTTL     time.Duration
}

// JobsConfig tunes the background maintenance workers.
type JobsConfig struct {
	WeeklyResetEnabled   bool
	AttendanceCleanupAge time.Duration
	WorkerRetries        int
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
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

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
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret: v.GetString("JWT_SECRET"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Reservation = ReservationConfig{
		LockTTL:             parseDuration(v.GetString("RESERVATION_LOCK_TTL"), 30*time.Second),
		RateLimit:           v.GetInt("RESERVATION_RATE_LIMIT"),
		RateLimitWindow:     parseDuration(v.GetString("RESERVATION_RATE_WINDOW"), time.Minute),
		NoShowThreshold:     v.GetInt("NO_SHOW_THRESHOLD"),
		NoShowPenalty:       v.GetInt("NO_SHOW_PENALTY"),
		CancellationEnabled: v.GetBool("CANCELLATION_ENABLED"),
	}

	cfg.Schedule = ScheduleConfig{
		CacheEnabled: v.GetBool("SCHEDULE_CACHE_ENABLED"),
		CacheTTL:     parseDuration(v.GetString("SCHEDULE_CACHE_TTL"), 5*time.Minute),
	}

	cfg.Jobs = JobsConfig{
		WeeklyResetEnabled:   v.GetBool("WEEKLY_RESET_ENABLED"),
		AttendanceCleanupAge: parseDuration(v.GetString("ATTENDANCE_CLEANUP_AGE"), 14*24*time.Hour),
		WorkerRetries:        v.GetInt("JOBS_WORKER_RETRIES"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "pms_clinic")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("RESERVATION_LOCK_TTL", "30s")
	v.SetDefault("RESERVATION_RATE_LIMIT", 5)
	v.SetDefault("RESERVATION_RATE_WINDOW", "60s")
	v.SetDefault("NO_SHOW_THRESHOLD", 2)
	v.SetDefault("NO_SHOW_PENALTY", 2)
	v.SetDefault("CANCELLATION_ENABLED", true)

	// Cache is off by default: with more than one API replica the grid goes
	// stale unless every replica shares the same Redis and invalidates on
	// commit, so operators opt in explicitly.
	v.SetDefault("SCHEDULE_CACHE_ENABLED", false)
	v.SetDefault("SCHEDULE_CACHE_TTL", "5m")

	v.SetDefault("WEEKLY_RESET_ENABLED", true)
	v.SetDefault("ATTENDANCE_CLEANUP_AGE", "336h")
	v.SetDefault("JOBS_WORKER_RETRIES", 3)
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

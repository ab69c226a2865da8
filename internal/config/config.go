package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var v = newViper()

func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("REPORT_TIMEOUT", 30*time.Second)
	v.SetDefault("REPORT_CACHE_TTL", 5*time.Minute)
	v.SetDefault("REPORT_SLOW_MS", 500)
	v.SetDefault("CACHE_SWEEP_INTERVAL", time.Minute)
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("LEDGER_NOTIFY_CHANNEL", "ledger_changes")
	v.SetDefault("AUDIT_WRITE_TIMEOUT", 5*time.Second)
	v.SetDefault("RATE_LIMIT_RPS", 100.0)
	v.SetDefault("RATE_LIMIT_BURST", 20)
	v.SetDefault("LOG_LEVEL", "info")
	return v
}

// Load reads the .env file specified by BALANCEREPORTS_ENV (or .env by default),
// then loads the corresponding .secret file if it exists.
// All config is flat env vars, read through viper after loading.
func Load() error {
	envFile := os.Getenv("BALANCEREPORTS_ENV")
	if envFile == "" {
		envFile = ".env"
	}

	// Load main env file (ignore error if file doesn't exist)
	_ = godotenv.Load(envFile)

	// Load secret sidecar if it exists
	_ = godotenv.Load(envFile + ".secret")

	v = newViper()
	return nil
}

func ServerPort() int {
	port := v.GetInt("SERVER_PORT")
	if port <= 0 {
		return 8080
	}
	return port
}

func ServerAddr() string {
	return fmt.Sprintf(":%d", ServerPort())
}

func DatabaseURL() string {
	return v.GetString("DATABASE_URL")
}

// DBMaxConns caps the shared pool. Every in-flight report holds one connection.
func DBMaxConns() int32 {
	n := v.GetInt32("DB_MAX_CONNS")
	if n <= 0 {
		return 10
	}
	return n
}

// JWTSecret is the HS256 key used to verify bearer tokens.
func JWTSecret() string {
	return v.GetString("JWT_SECRET")
}

func ReportTimeout() time.Duration {
	return positiveDuration("REPORT_TIMEOUT", 30*time.Second)
}

func ReportCacheTTL() time.Duration {
	return positiveDuration("REPORT_CACHE_TTL", 5*time.Minute)
}

// ReportSlowThreshold is the generation time above which a report is logged at warn.
func ReportSlowThreshold() time.Duration {
	ms := v.GetInt("REPORT_SLOW_MS")
	if ms <= 0 {
		ms = 500
	}
	return time.Duration(ms) * time.Millisecond
}

func CacheSweepInterval() time.Duration {
	return positiveDuration("CACHE_SWEEP_INTERVAL", time.Minute)
}

// RedisAddr enables the Redis cache tier when set.
func RedisAddr() string {
	return v.GetString("REDIS_ADDR")
}

func RedisPassword() string {
	return v.GetString("REDIS_PASSWORD")
}

func RedisDB() int {
	return v.GetInt("REDIS_DB")
}

// LedgerNotifyChannel is the PostgreSQL channel carrying tenant ids of changed ledgers.
func LedgerNotifyChannel() string {
	return v.GetString("LEDGER_NOTIFY_CHANNEL")
}

func AuditWriteTimeout() time.Duration {
	return positiveDuration("AUDIT_WRITE_TIMEOUT", 5*time.Second)
}

// RateLimitRPS returns requests per second limit.
// Defaults to 100 if not set.
func RateLimitRPS() float64 {
	rps := v.GetFloat64("RATE_LIMIT_RPS")
	if rps <= 0 {
		return 100
	}
	return rps
}

// RateLimitBurst returns the burst size for rate limiting.
// Defaults to 20 if not set.
func RateLimitBurst() int {
	burst := v.GetInt("RATE_LIMIT_BURST")
	if burst <= 0 {
		return 20
	}
	return burst
}

// LogLevel returns the log level (debug, info, warn, error).
// Defaults to "info" if not set.
func LogLevel() string {
	return v.GetString("LOG_LEVEL")
}

func positiveDuration(key string, fallback time.Duration) time.Duration {
	d := v.GetDuration(key)
	if d <= 0 {
		return fallback
	}
	return d
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	t.Setenv("BALANCEREPORTS_ENV", filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, Load())

	assert.Equal(t, 8080, ServerPort())
	assert.Equal(t, ":8080", ServerAddr())
	assert.Equal(t, int32(10), DBMaxConns())
	assert.Equal(t, 30*time.Second, ReportTimeout())
	assert.Equal(t, 5*time.Minute, ReportCacheTTL())
	assert.Equal(t, 500*time.Millisecond, ReportSlowThreshold())
	assert.Equal(t, "ledger_changes", LedgerNotifyChannel())
	assert.Equal(t, 100.0, RateLimitRPS())
	assert.Equal(t, 20, RateLimitBurst())
	assert.Equal(t, "info", LogLevel())
	assert.Empty(t, RedisAddr())
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("BALANCEREPORTS_ENV", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("REPORT_CACHE_TTL", "90s")
	t.Setenv("REPORT_SLOW_MS", "250")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	require.NoError(t, Load())

	assert.Equal(t, 9090, ServerPort())
	assert.Equal(t, 90*time.Second, ReportCacheTTL())
	assert.Equal(t, 250*time.Millisecond, ReportSlowThreshold())
	assert.Equal(t, "localhost:6379", RedisAddr())
}

func TestLoad_EnvFileAndSecretSidecar(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte("DB_MAX_CONNS=25\n"), 0o600))
	require.NoError(t, os.WriteFile(envFile+".secret", []byte("JWT_SECRET=from-sidecar\n"), 0o600))

	t.Setenv("BALANCEREPORTS_ENV", envFile)
	// godotenv never overrides variables that are already set; register
	// these with t.Setenv so they are restored after the test.
	t.Setenv("DB_MAX_CONNS", "")
	t.Setenv("JWT_SECRET", "")
	os.Unsetenv("DB_MAX_CONNS")
	os.Unsetenv("JWT_SECRET")
	require.NoError(t, Load())

	assert.Equal(t, int32(25), DBMaxConns())
	assert.Equal(t, "from-sidecar", JWTSecret())
}

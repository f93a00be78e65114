package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ratrace/internal/game"
	"ratrace/internal/store"
)

func TestLoadAPIFromEnvDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	for _, k := range []string{"PORT", "RATRACE_API_ADDR", "RATRACE_API_TOKEN", "RATRACE_STORE", "RATRACE_TUNABLES", "RATRACE_VOLATILITY", "RATRACE_LOG_LEVEL", "RATRACE_REFRESH_DEBOUNCE"} {
		t.Setenv(k, "")
	}

	cfg, err := LoadAPIFromEnv()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, 2*time.Second, cfg.RefreshDebounce)
	assert.Equal(t, store.KindFile, cfg.Store.Kind)
	assert.Equal(t, "default", cfg.Store.SaveSlot)
	assert.Equal(t, slog.LevelInfo, cfg.Engine.LogLevel)
	assert.Equal(t, game.DefaultTunables(), cfg.Engine.Tunables)
}

func TestLoadAPIFromEnvOverrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("PORT", "9090")
	t.Setenv("RATRACE_API_TOKEN", " secret ")
	t.Setenv("RATRACE_STORE", "redis")
	t.Setenv("RATRACE_REDIS_KEY", "ratrace:save:ci")
	t.Setenv("RATRACE_SEED", "42")
	t.Setenv("RATRACE_VOLATILITY", "wild")
	t.Setenv("RATRACE_LOG_LEVEL", "debug")
	t.Setenv("RATRACE_REFRESH_DEBOUNCE", "not-a-duration")
	t.Setenv("RATRACE_TUNABLES", "")

	cfg, err := LoadAPIFromEnv()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, "secret", cfg.Token)
	assert.Equal(t, store.KindRedis, cfg.Store.Kind)
	assert.Equal(t, "ratrace:save:ci", cfg.Store.RedisKey)
	assert.Equal(t, int64(42), cfg.Engine.Seed)
	assert.Equal(t, "wild", cfg.Engine.Tunables.Volatility)
	assert.Equal(t, slog.LevelDebug, cfg.Engine.LogLevel)
	assert.Equal(t, 2*time.Second, cfg.RefreshDebounce)
}

func TestLoadRejectsBadStore(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("RATRACE_STORE", "postgres")
	t.Setenv("DATABASE_URL", "")
	_, err := LoadAPIFromEnv()
	assert.ErrorContains(t, err, "DATABASE_URL")

	t.Setenv("RATRACE_STORE", "floppy")
	_, err = LoadSimFromEnv()
	assert.Error(t, err)
}

func TestLoadSimFromEnv(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("RATRACE_STORE", "")
	t.Setenv("RATRACE_TUNABLES", "")
	t.Setenv("RATRACE_SIM_RUNS", "12")
	t.Setenv("RATRACE_SIM_TICK_EVERY", "250ms")

	cfg, err := LoadSimFromEnv()
	require.NoError(t, err)
	assert.Equal(t, 12, cfg.Runs)
	assert.Equal(t, 250*time.Millisecond, cfg.TickEvery)

	t.Setenv("RATRACE_SIM_RUNS", "-1")
	_, err = LoadSimFromEnv()
	assert.Error(t, err)
}

func TestDotEnvFileIsRead(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("RATRACE_API_BASE_URL=http://example.test:7000/\n"), 0o600))
	t.Setenv("RATRACE_API_BASE_URL", "")
	os.Unsetenv("RATRACE_API_BASE_URL")

	cfg := LoadCLIFromEnv()
	assert.Equal(t, "http://example.test:7000", cfg.APIBaseURL)
}

func TestLoadTunables(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tunables.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
day_weights:
  payday: 50
  expense: 10
payday_min: 2
payday_max: 4
volatility: calm
`), 0o600))

	tun, err := LoadTunables(path)
	require.NoError(t, err)
	assert.Equal(t, 50.0, tun.DayWeights[game.DayPayday])
	assert.Equal(t, 10.0, tun.DayWeights[game.DayExpense])
	assert.Equal(t, 2, tun.PaydayMin)
	assert.Equal(t, 4, tun.PaydayMax)
	assert.Equal(t, "calm", tun.Volatility)
	assert.Equal(t, game.DefaultTunables().FillerMin, tun.FillerMin)

	require.NoError(t, os.WriteFile(path, []byte("day_weights:\n  payday: -1\n"), 0o600))
	_, err = LoadTunables(path)
	assert.ErrorContains(t, err, "negative weight")

	_, err = LoadTunables(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"":      slog.LevelInfo,
		"DEBUG": slog.LevelDebug,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
		"loud":  slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLogLevel(in), in)
	}
}

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}

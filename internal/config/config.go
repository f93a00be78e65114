package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"ratrace/internal/game"
	"ratrace/internal/store"
)

type EngineConfig struct {
	Seed     int64
	Tunables game.Tunables
	LogLevel slog.Level
	LogJSON  bool
}

type APIConfig struct {
	Addr            string
	Token           string
	RefreshDebounce time.Duration
	Store           store.Options
	Engine          EngineConfig
}

type SimConfig struct {
	TickEvery time.Duration
	Runs      int
	Store     store.Options
	Engine    EngineConfig
}

type CLIConfig struct {
	APIBaseURL string
	Token      string
}

func LoadAPIFromEnv() (APIConfig, error) {
	_ = godotenv.Load()

	addr := os.Getenv("PORT")
	if addr != "" {
		if !strings.HasPrefix(addr, ":") {
			addr = ":" + addr
		}
	} else {
		addr = envDefault("RATRACE_API_ADDR", ":8080")
	}

	cfg := APIConfig{
		Addr:            addr,
		Token:           strings.TrimSpace(os.Getenv("RATRACE_API_TOKEN")),
		RefreshDebounce: envDurationDefault("RATRACE_REFRESH_DEBOUNCE", 2*time.Second),
	}
	var err error
	if cfg.Store, err = loadStore(); err != nil {
		return cfg, err
	}
	if cfg.Engine, err = loadEngine(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func LoadSimFromEnv() (SimConfig, error) {
	_ = godotenv.Load()

	cfg := SimConfig{
		TickEvery: envDurationDefault("RATRACE_SIM_TICK_EVERY", 5*time.Second),
		Runs:      envIntDefault("RATRACE_SIM_RUNS", 0),
	}
	if cfg.Runs < 0 {
		return cfg, fmt.Errorf("RATRACE_SIM_RUNS must be >= 0")
	}
	var err error
	if cfg.Store, err = loadStore(); err != nil {
		return cfg, err
	}
	if cfg.Engine, err = loadEngine(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func LoadCLIFromEnv() CLIConfig {
	_ = godotenv.Load()
	return CLIConfig{
		APIBaseURL: strings.TrimRight(envDefault("RATRACE_API_BASE_URL", "http://localhost:8080"), "/"),
		Token:      strings.TrimSpace(os.Getenv("RATRACE_API_TOKEN")),
	}
}

func loadStore() (store.Options, error) {
	kind, err := store.ParseKind(os.Getenv("RATRACE_STORE"))
	if err != nil {
		return store.Options{}, err
	}
	cfg := store.Options{
		Kind:          kind,
		SavePath:      strings.TrimSpace(os.Getenv("RATRACE_SAVE_PATH")),
		DatabaseURL:   strings.TrimSpace(os.Getenv("DATABASE_URL")),
		SaveSlot:      envDefault("RATRACE_SAVE_SLOT", "default"),
		RedisAddr:     envDefault("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       envIntDefault("REDIS_DB", 0),
		RedisKey:      envDefault("RATRACE_REDIS_KEY", "ratrace:save:default"),
	}
	if kind == store.KindPostgres && cfg.DatabaseURL == "" {
		return cfg, fmt.Errorf("DATABASE_URL is required for the postgres store")
	}
	return cfg, nil
}

func loadEngine() (EngineConfig, error) {
	cfg := EngineConfig{
		Seed:     int64(envIntDefault("RATRACE_SEED", 0)),
		Tunables: game.DefaultTunables(),
		LogLevel: ParseLogLevel(os.Getenv("RATRACE_LOG_LEVEL")),
		LogJSON:  envBoolDefault("RATRACE_LOG_JSON", true),
	}
	if path := strings.TrimSpace(os.Getenv("RATRACE_TUNABLES")); path != "" {
		tun, err := LoadTunables(path)
		if err != nil {
			return cfg, err
		}
		cfg.Tunables = tun
	}
	if v := envVolatility(); v != "" {
		cfg.Tunables.Volatility = v
	}
	cfg.Tunables = cfg.Tunables.Normalized()
	return cfg, nil
}

// LoadTunables reads a YAML tunables file. Fields left out keep their
// defaults; a day_weights map replaces the whole table.
func LoadTunables(path string) (game.Tunables, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return game.Tunables{}, fmt.Errorf("read tunables: %w", err)
	}
	var tun game.Tunables
	if err := yaml.Unmarshal(raw, &tun); err != nil {
		return game.Tunables{}, fmt.Errorf("parse tunables %s: %w", path, err)
	}
	for dt, w := range tun.DayWeights {
		if w < 0 {
			return game.Tunables{}, fmt.Errorf("parse tunables %s: negative weight for %s", path, dt)
		}
	}
	return tun.Normalized(), nil
}

// Logger builds the process logger and installs it as the slog default.
func (c EngineConfig) Logger() *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.LogLevel}
	var handler slog.Handler = slog.NewTextHandler(os.Stdout, opts)
	if c.LogJSON {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

func ParseLogLevel(v string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func envDefault(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func envDurationDefault(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func envIntDefault(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envBoolDefault(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func envVolatility() string {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("RATRACE_VOLATILITY")))
	switch v {
	case "calm", "mor", "wild":
		return v
	default:
		return ""
	}
}

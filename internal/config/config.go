// Package config загружает конфигурацию сервера из флагов
// с fallback на переменные окружения LOCALVAULT_*.
package config

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"
)

// Поддерживаемые движки хранения
const (
	EngineSQLite = "sqlite"
	EngineBolt   = "bolt"
)

// Config содержит параметры запуска сервера.
type Config struct {
	Address        string        // адрес HTTP-листенера
	DataDir        string        // каталог с базой данных
	Engine         string        // sqlite | bolt
	LogLevel       slog.Level    // уровень логирования
	IdleTimeout    time.Duration // fallback авто-блокировки до первого чтения настроек
	MaxUnlockDelay time.Duration // потолок backoff троттлера
}

// Parse читает конфигурацию из args. Значение по умолчанию каждого флага
// берется из соответствующей переменной окружения, если она задана.
func Parse(fs *flag.FlagSet, args []string) (*Config, error) {
	cfg := &Config{}

	var logLevel string
	var idleMinutes, maxDelaySeconds int

	fs.StringVar(&cfg.Address, "address", envString("LOCALVAULT_ADDRESS", "127.0.0.1:8787"), "listen address")
	fs.StringVar(&cfg.DataDir, "data-dir", envString("LOCALVAULT_DATA_DIR", defaultDataDir()), "data directory")
	fs.StringVar(&cfg.Engine, "engine", envString("LOCALVAULT_ENGINE", EngineSQLite), "storage engine: sqlite | bolt")
	fs.StringVar(&logLevel, "log-level", envString("LOCALVAULT_LOG_LEVEL", "info"), "log level: debug | info | warn | error")
	fs.IntVar(&idleMinutes, "idle-minutes", envInt("LOCALVAULT_IDLE_MINUTES", 15), "session idle timeout in minutes (fallback)")
	fs.IntVar(&maxDelaySeconds, "max-unlock-delay", envInt("LOCALVAULT_MAX_UNLOCK_DELAY", 300), "unlock throttle cap in seconds")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if cfg.Engine != EngineSQLite && cfg.Engine != EngineBolt {
		return nil, fmt.Errorf("unknown storage engine %q", cfg.Engine)
	}

	level, err := parseLogLevel(logLevel)
	if err != nil {
		return nil, err
	}
	cfg.LogLevel = level

	if idleMinutes < 1 {
		return nil, fmt.Errorf("idle-minutes must be positive, got %d", idleMinutes)
	}
	if maxDelaySeconds < 1 {
		return nil, fmt.Errorf("max-unlock-delay must be positive, got %d", maxDelaySeconds)
	}

	cfg.IdleTimeout = time.Duration(idleMinutes) * time.Minute
	cfg.MaxUnlockDelay = time.Duration(maxDelaySeconds) * time.Second

	return cfg, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch s {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", s)
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".localvault"
	}
	return home + "/.localvault"
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

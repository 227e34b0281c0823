package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

const (
	DefaultIterations    = 10000
	DefaultMaxIterations = 1000000
)

// SimulationConfig holds engine defaults and limits.
type SimulationConfig struct {
	DefaultIterations int
	MaxIterations     int
	Workers           int
	Seed              int64 // 0 seeds from the clock
}

// AppConfig holds the complete application configuration.
type AppConfig struct {
	Simulation          SimulationConfig
	DataPath            string
	LogDir              string
	CacheDir            string
	EnableMermaidCharts bool
}

// Load loads the configuration from .env files and environment variables.
func Load() (*AppConfig, error) {
	// 1. Try to load from the executable's directory (highest priority for MCP servers)
	exePath, err := os.Executable()
	exeDir := ""
	if err == nil {
		exeDir = filepath.Dir(exePath)
		envPath := filepath.Join(exeDir, ".env")
		if err := godotenv.Load(envPath); err == nil {
			log.Debug().Str("path", envPath).Msg("Loaded configuration from binary directory")
		}
	}

	// 2. Fallback to current working directory (useful for development/go run)
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found in working directory, relying on environment variables or binary-relative .env")
	}

	// 3. Resolve Data Paths
	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		if exeDir != "" {
			dataPath = exeDir
		} else {
			dataPath = "."
		}
	}

	logDir := getEnv("LOGS_FOLDER", filepath.Join(dataPath, "logs"))
	cacheDir := filepath.Join(dataPath, "cache")

	// Ensure directories exist
	if err := os.MkdirAll(logDir, 0755); err != nil {
		log.Warn().Err(err).Str("path", logDir).Msg("Failed to create log directory")
	}
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		log.Warn().Err(err).Str("path", cacheDir).Msg("Failed to create cache directory")
	}

	sim := SimulationConfig{
		DefaultIterations: getEnvInt("RISKSIM_DEFAULT_ITERATIONS", DefaultIterations),
		MaxIterations:     getEnvInt("RISKSIM_MAX_ITERATIONS", DefaultMaxIterations),
		Workers:           getEnvInt("RISKSIM_WORKERS", 1),
		Seed:              getEnvInt64("RISKSIM_SEED", 0),
	}
	if sim.MaxIterations < sim.DefaultIterations {
		log.Warn().
			Int("default", sim.DefaultIterations).
			Int("max", sim.MaxIterations).
			Msg("RISKSIM_MAX_ITERATIONS below default iterations, raising the limit")
		sim.MaxIterations = sim.DefaultIterations
	}

	cfg := &AppConfig{
		Simulation:          sim,
		DataPath:            dataPath,
		LogDir:              logDir,
		CacheDir:            cacheDir,
		EnableMermaidCharts: getEnvBool("ENABLE_MERMAID_CHARTS", false),
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		log.Warn().Str("key", key).Str("value", value).Int("fallback", fallback).Msg("Invalid positive integer in environment, using default")
		return fallback
	}
	return n
}

func getEnvInt64(key string, fallback int64) int64 {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		log.Warn().Str("key", key).Str("value", value).Msg("Invalid integer in environment, using default")
		return fallback
	}
	return n
}

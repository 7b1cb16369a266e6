package config

import (
	"os"
	"strconv"
)

type Config struct {
	// HTTP
	HTTPPort string

	// PostgreSQL (history store)
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBMaxConns int32

	// Redis (telemetry bus)
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Pipeline
	IngestWorkers        int
	HistoryChannelSize   int
	HistoryBatchSize     int
	HistoryFlushInterval int // milliseconds

	// Simulator
	SimulatorTrucks     int
	SimulatorIntervalMS int
}

func Load() *Config {
	return &Config{
		HTTPPort:             getEnv("HTTP_PORT", "8080"),
		DBHost:               getEnv("DB_HOST", "localhost"),
		DBPort:               getEnv("DB_PORT", "5432"),
		DBUser:               getEnv("DB_USER", "fleetsync_user"),
		DBPassword:           getEnv("DB_PASSWORD", "fleetsync_password"),
		DBName:               getEnv("DB_NAME", "fleetsync"),
		DBMaxConns:           int32(getEnvInt("DB_MAX_CONNS", 10)),
		RedisAddr:            getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:        getEnv("REDIS_PASSWORD", ""),
		RedisDB:              getEnvInt("REDIS_DB", 0),
		IngestWorkers:        getEnvInt("INGEST_WORKERS", 4),
		HistoryChannelSize:   getEnvInt("HISTORY_CHANNEL_SIZE", 10000),
		HistoryBatchSize:     getEnvInt("HISTORY_BATCH_SIZE", 500),
		HistoryFlushInterval: getEnvInt("HISTORY_FLUSH_INTERVAL_MS", 100),
		SimulatorTrucks:      getEnvInt("SIMULATOR_TRUCKS", 5),
		SimulatorIntervalMS:  getEnvInt("SIMULATOR_INTERVAL_MS", 2000),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
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

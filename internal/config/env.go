package config

import (
	"os"
	"strconv"
)

// FromEnv overlays LOGSHIP_* environment variables onto cfg.
func FromEnv(cfg *Config) {
	if v := os.Getenv("LOGSHIP_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("LOGSHIP_QUEUE_NAME"); v != "" {
		cfg.QueueName = v
	}
	if v := os.Getenv("LOGSHIP_ENDPOINT_URL"); v != "" {
		cfg.EndpointURL = v
	}
	if v := os.Getenv("LOGSHIP_BATCH_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.BatchSize = n
		}
	}
	if v := os.Getenv("LOGSHIP_PROXY_HOST"); v != "" {
		cfg.ProxyHost = v
	}
	if v := os.Getenv("LOGSHIP_PROXY_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.ProxyPort = n
		}
	}
	if v := os.Getenv("LOGSHIP_FSYNC"); v != "" {
		cfg.Fsync = v
	}
	if v := os.Getenv("LOGSHIP_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("LOGSHIP_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}
}

package config

import (
	"encoding/json"
	"os"
)

// Config is the top-level configuration loaded from file/env for the
// logship CLI.
type Config struct {
	// DataDir holds the persistent queue store.
	DataDir string `json:"dataDir"`
	// QueueName is the logical queue within DataDir.
	QueueName string `json:"queueName"`
	// EndpointURL is the ingestion endpoint batches are POSTed to.
	EndpointURL string `json:"endpointUrl"`
	// BatchSize caps entries per upload.
	BatchSize int `json:"batchSize"`
	// ProxyHost/ProxyPort optionally route uploads through an HTTP proxy.
	ProxyHost string `json:"proxyHost"`
	ProxyPort int    `json:"proxyPort"`
	// Fsync is the store sync policy: always|interval|never.
	Fsync string `json:"fsync"`
	// LogLevel and LogFormat configure operational logging.
	LogLevel  string `json:"logLevel"`
	LogFormat string `json:"logFormat"`
}

// Default returns built-in defaults.
func Default() Config {
	return Config{
		DataDir:   DefaultDataDir(),
		QueueName: "logship",
		BatchSize: 50,
		Fsync:     "always",
		LogLevel:  "info",
		LogFormat: "text",
	}
}

// Load reads configuration from a JSON file. If path is empty, returns
// defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg := Default()
	if err := json.Unmarshal(b, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

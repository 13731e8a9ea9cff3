package main

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/pelletier/go-toml/v2"
)

// Config is the daemon configuration, loaded from a TOML file.
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Journal JournalConfig `toml:"journal"`
}

type ServerConfig struct {
	// HTTPAddr is the listen address of the HTTP API.
	HTTPAddr string `toml:"http_addr"`

	// Transport selects the socket protocol listener: "vsock" for
	// enclave deployments, "tcp" for everything else, empty to disable
	// the socket server.
	Transport string `toml:"transport"`
	VsockPort uint32 `toml:"vsock_port"`
	TCPAddr   string `toml:"tcp_addr"`

	// MaxWorkers bounds concurrent socket connections. Overridable via
	// the AUCTION_MAX_WORKERS environment variable.
	MaxWorkers int `toml:"max_workers"`
}

type JournalConfig struct {
	// Path of the append-only CBOR event journal. Empty disables
	// journaling.
	Path string `toml:"path"`
}

func LoadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := toml.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if cfg.Server.HTTPAddr == "" {
		cfg.Server.HTTPAddr = ":8080"
	}
	if workers, err := getEnvInt("AUCTION_MAX_WORKERS"); err == nil {
		cfg.Server.MaxWorkers = workers
	}
	if cfg.Server.MaxWorkers <= 0 {
		cfg.Server.MaxWorkers = 8
	}

	return &cfg, nil
}

// getEnvInt parses an integer environment variable, failing when it is
// unset or malformed.
func getEnvInt(key string) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return 0, fmt.Errorf("environment variable %s is not set", key)
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %s (must be a valid integer)", key, value)
	}

	log.Printf("INFO: Using %s=%d from environment", key, intValue)
	return intValue, nil
}

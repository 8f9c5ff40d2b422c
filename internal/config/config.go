package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config is assembled from the environment at startup.
type Config struct {
	// Server. Without PKMNDRAFT_PORT the server binds loopback only;
	// with it, all interfaces.
	Addr string

	// TLS. Both paths present means serve HTTPS on Addr and run a plain
	// listener on port 80 that redirects everything to HTTPSHost.
	TLSCert   string
	TLSKey    string
	HTTPSHost string

	// Item database root: one subdirectory per draft set.
	DataDir string

	// Pick timing
	ItemTime  time.Duration
	SlushTime time.Duration
}

func Load() (*Config, error) {
	cfg := &Config{
		Addr:      "127.0.0.1:3030",
		TLSCert:   getEnv("HTTPS_CERT", ""),
		TLSKey:    getEnv("HTTPS_KEY", ""),
		HTTPSHost: getEnv("PKMNDRAFT_HTTPS_HOST", ""),
		DataDir:   getEnv("PKMNDRAFT_DATA", "data"),
		ItemTime:  time.Duration(getEnvInt("PKMNDRAFT_PICK_SECONDS", 8)) * time.Second,
		SlushTime: time.Duration(getEnvInt("PKMNDRAFT_SLUSH_SECONDS", 2)) * time.Second,
	}

	if port, ok := os.LookupEnv("PKMNDRAFT_PORT"); ok {
		p, err := strconv.ParseUint(port, 10, 16)
		if err != nil {
			return nil, fmt.Errorf("PKMNDRAFT_PORT must be a 16-bit integer: %w", err)
		}
		cfg.Addr = fmt.Sprintf("0.0.0.0:%d", p)
	}

	if (cfg.TLSCert == "") != (cfg.TLSKey == "") {
		return nil, fmt.Errorf("HTTPS_CERT and HTTPS_KEY must be set together")
	}

	return cfg, nil
}

// ServeTLS reports whether the server should terminate TLS itself.
func (c *Config) ServeTLS() bool {
	return c.TLSCert != "" && c.TLSKey != ""
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

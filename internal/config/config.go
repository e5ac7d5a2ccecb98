// Package config resolves runtime settings from the environment, an optional
// .env file and command line flags.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"

	"github.com/joho/godotenv"
)

// Environment variable names.
const (
	EnvDB       = "GARDEROBA_DB"
	EnvAddr     = "GARDEROBA_ADDR"
	EnvLog      = "GARDEROBA_LOG"
	EnvPassword = "GARDEROBA_PASSWORD"
)

// Defaults used when neither a flag nor the environment sets a value.
const (
	DefaultDBPath = "garderoba.sqlite3"
	DefaultAddr   = ":8080"
)

// Config is the resolved runtime configuration.
type Config struct {
	DBPath  string
	Addr    string
	LogPath string

	// Password is the initial account password. It is only used when the
	// database has no password yet.
	Password string
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance. Variables already present in the process
// environment win over the file.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("loading env file %s: %w", envFile, err)
		}
	} else {
		// A missing .env file is fine.
		if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("loading .env: %w", err)
		}
	}

	return &Config{
		DBPath:   getenvWithDefault(EnvDB, DefaultDBPath),
		Addr:     getenvWithDefault(EnvAddr, DefaultAddr),
		LogPath:  os.Getenv(EnvLog),
		Password: os.Getenv(EnvPassword),
	}, nil
}

// Override replaces every field whose value in o is non-empty.
func (c *Config) Override(o Config) {
	if o.DBPath != "" {
		c.DBPath = o.DBPath
	}
	if o.Addr != "" {
		c.Addr = o.Addr
	}
	if o.LogPath != "" {
		c.LogPath = o.LogPath
	}
	if o.Password != "" {
		c.Password = o.Password
	}
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.DBPath == "" {
		return errors.New("database path must not be empty")
	}
	if _, _, err := net.SplitHostPort(c.Addr); err != nil {
		return fmt.Errorf("invalid listen address %q: %w", c.Addr, err)
	}
	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

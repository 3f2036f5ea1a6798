package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mcdev12/scout/go/internal/reachability"
)

type Config struct {
	Local struct {
		Path string `yaml:"path"`
	} `yaml:"local"`

	Remote struct {
		Driver   string `yaml:"driver"` // mongo, postgres or memory
		URL      string `yaml:"url"`
		Database string `yaml:"database"`
	} `yaml:"remote"`

	Sync struct {
		Interval      time.Duration `yaml:"interval"`
		ProbeURL      string        `yaml:"probe_url"`
		ProbeTimeout  time.Duration `yaml:"probe_timeout"`
		RecordTimeout time.Duration `yaml:"record_timeout"`
		Offline       bool          `yaml:"offline"`
	} `yaml:"sync"`

	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`

	NATS struct {
		URL     string `yaml:"url"`
		Subject string `yaml:"subject"`
	} `yaml:"nats"`

	Log struct {
		Level string `yaml:"level"`
		File  string `yaml:"file"`
	} `yaml:"log"`
}

const (
	driverMongo    = "mongo"
	driverPostgres = "postgres"
	driverMemory   = "memory"
)

func defaultConfig() *Config {
	var c Config
	c.Local.Path = "scout.db"
	c.Remote.Driver = driverMemory
	c.Remote.Database = "scout"
	c.Sync.Interval = 30 * time.Second
	c.Sync.ProbeURL = reachability.DefaultProbeURL
	c.Sync.ProbeTimeout = 5 * time.Second
	c.Sync.RecordTimeout = 15 * time.Second
	c.Server.Port = "8080"
	c.NATS.Subject = "scout.sync.changed"
	c.Log.Level = "info"
	return &c
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// loadConfig reads path over the defaults and applies env overrides.
// A missing file is not an error.
func loadConfig(path string) (*Config, error) {
	config := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, config); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	config.Local.Path = getEnv("SCOUT_DB_PATH", config.Local.Path)
	config.Remote.Driver = getEnv("SCOUT_REMOTE_DRIVER", config.Remote.Driver)
	config.Remote.URL = getEnv("SCOUT_REMOTE_URL", config.Remote.URL)
	config.Sync.Interval = getEnvAsDuration("SCOUT_SYNC_INTERVAL", config.Sync.Interval)
	config.Sync.Offline = getEnvAsBool("SCOUT_OFFLINE", config.Sync.Offline)
	config.NATS.URL = getEnv("NATS_URL", config.NATS.URL)
	config.Server.Port = getEnv("PORT", config.Server.Port)
	config.Log.Level = getEnv("LOG_LEVEL", config.Log.Level)

	if err := config.validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) validate() error {
	switch c.Remote.Driver {
	case driverMongo:
		if c.Remote.URL == "" {
			return fmt.Errorf("remote.url is required for the %s driver", driverMongo)
		}
	case driverPostgres, driverMemory:
	default:
		return fmt.Errorf("unknown remote driver %q", c.Remote.Driver)
	}
	if c.Local.Path == "" {
		return errors.New("local.path is required")
	}
	if c.Sync.Interval <= 0 {
		return errors.New("sync.interval must be positive")
	}
	return nil
}

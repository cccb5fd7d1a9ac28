package server

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/iwvelando/hp12c/internal/config"
	"github.com/iwvelando/hp12c/pkg/constants"
	"gopkg.in/yaml.v3"
)

// Config defines runtime parameters for the keypad HTTP server.
type Config struct {
	Address     string               `yaml:"address"`
	MaxKeys     int                  `yaml:"maxKeys"`
	ReadTimeout string               `yaml:"readTimeout"`
	Logging     config.LoggingConfig `yaml:"logging"`
	readTimeout time.Duration
}

// LoadConfig loads the server configuration from YAML. If the file does not exist,
// defaults are returned without error.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{
		Address:     constants.DefaultServerAddress,
		MaxKeys:     constants.DefaultMaxKeysPerRequest,
		ReadTimeout: constants.DefaultReadTimeout.String(),
		readTimeout: constants.DefaultReadTimeout,
	}

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read server config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse server config: %w", err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ReadTimeoutDuration returns the configured request read timeout.
func (c *Config) ReadTimeoutDuration() time.Duration {
	return c.readTimeout
}

func (c *Config) normalize() error {
	if c.Address == "" {
		c.Address = constants.DefaultServerAddress
	}

	switch {
	case c.MaxKeys < 0:
		return fmt.Errorf("invalid maxKeys %d: must not be negative", c.MaxKeys)
	case c.MaxKeys == 0:
		c.MaxKeys = constants.DefaultMaxKeysPerRequest
	}

	c.readTimeout = constants.DefaultReadTimeout
	if timeout := strings.TrimSpace(c.ReadTimeout); timeout != "" {
		d, err := time.ParseDuration(timeout)
		if err != nil {
			return fmt.Errorf("invalid read timeout %q: %w", c.ReadTimeout, err)
		}
		if d > 0 {
			c.readTimeout = d
		}
	}
	return nil
}

// KeysBodyLimit returns the largest POST /api/keys body accepted when a
// request may press at most maxKeys keys. Non-positive values use the
// default key limit.
func KeysBodyLimit(maxKeys int) int64 {
	if maxKeys <= 0 {
		maxKeys = constants.DefaultMaxKeysPerRequest
	}
	return int64(maxKeys)*constants.MaxKeyTokenBytes + constants.KeysRequestOverheadBytes
}

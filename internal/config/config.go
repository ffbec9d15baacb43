// Package config loads process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"strings"

	"github.com/joeshaw/envdecode"

	"github.com/ggoodman/device-info-mcp/internal/logctx"
)

// Config for the device-info server. Defaults are provided via struct tags.
type Config struct {
	// Port to listen on, 0..65535. ENV: PORT
	Port string `env:"PORT,default=8787"`
	// Host to bind. Empty binds all interfaces. ENV: HOST
	Host string `env:"HOST"`
	// LogLevel is one of debug, info, warn or error. ENV: LOG_LEVEL
	LogLevel string `env:"LOG_LEVEL,default=info"`
	// LogFormat is text or json. ENV: LOG_FORMAT
	LogFormat string `env:"LOG_FORMAT,default=text"`

	port  int
	level slog.Level
}

// Load decodes Config from the environment and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return Config{}, fmt.Errorf("decode environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	port, err := strconv.Atoi(strings.TrimSpace(c.Port))
	if err != nil {
		return fmt.Errorf("invalid PORT %q: not a number", c.Port)
	}
	if port < 0 || port > 65535 {
		return fmt.Errorf("invalid PORT %d: out of range", port)
	}
	c.port = port

	if err := c.level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL %q: %w", c.LogLevel, err)
	}

	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("invalid LOG_FORMAT %q: want text or json", c.LogFormat)
	}
	return nil
}

// PortNumber returns the validated port.
func (c Config) PortNumber() int { return c.port }

// Addr is the listen address.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.port))
}

// NewLogger builds the process logger writing to w, decorated with
// request-scoped context attributes.
func (c Config) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.level}
	var h slog.Handler
	if strings.EqualFold(c.LogFormat, "json") {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(logctx.Handler{Handler: h})
}

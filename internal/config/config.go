// Package config resolves runtime settings from the environment and optional .env files.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sammcj/mcp-searxng/internal/registry"
	"github.com/sammcj/mcp-searxng/internal/searxng"
)

// Environment variable names
const (
	EnvSearXNGURL    = "SEARXNG_URL"
	EnvDefaultPath   = "DEFAULT_PATH"
	EnvTimeout       = "SEARXNG_TIMEOUT"
	EnvRateLimit     = "SEARXNG_RATE_LIMIT"
	EnvUserAgent     = "SEARXNG_USER_AGENT"
	EnvDisabledTools = "DISABLED_TOOLS"
)

// Defaults
const (
	DefaultSearXNGURL  = "http://host.docker.internal:8181"
	DefaultPath        = "mcp"
	DefaultHTTPPort    = 8000
	DefaultRateLimit   = 0
	DefaultTimeout     = time.Duration(0)
	DefaultServiceName = "mcp-searxng"
)

// Config holds resolved settings
type Config struct {
	SearXNGURL    string
	DefaultPath   string
	Timeout       time.Duration
	RateLimit     float64
	UserAgent     string
	DisabledTools []string
}

// LoadDotEnv loads variables from the given files into the process environment.
// Missing files are skipped and variables already set are left untouched.
func LoadDotEnv(paths ...string) error {
	for _, path := range paths {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
	}
	return nil
}

// Load resolves configuration from the process environment
func Load(version string) (*Config, error) {
	return load(os.LookupEnv, version)
}

func load(lookup func(string) (string, bool), version string) (*Config, error) {
	get := func(key, def string) string {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
		return def
	}

	cfg := &Config{
		SearXNGURL:    get(EnvSearXNGURL, DefaultSearXNGURL),
		DefaultPath:   get(EnvDefaultPath, DefaultPath),
		UserAgent:     get(EnvUserAgent, DefaultServiceName+"/"+version),
		DisabledTools: registry.ParseDisabledTools(get(EnvDisabledTools, "")),
	}

	timeout, err := ParseTimeout(get(EnvTimeout, ""))
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", EnvTimeout, err)
	}
	cfg.Timeout = timeout

	if raw := get(EnvRateLimit, ""); raw != "" {
		rps, err := strconv.ParseFloat(raw, 64)
		if err != nil || rps < 0 {
			return nil, fmt.Errorf("invalid %s %q: must be a non-negative number", EnvRateLimit, raw)
		}
		cfg.RateLimit = rps
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the backend URL and normalises it
func (c *Config) Validate() error {
	u, err := searxng.ParseBaseURL(c.SearXNGURL)
	if err != nil {
		return err
	}
	c.SearXNGURL = u.String()
	return nil
}

// HTTPPath returns the MCP endpoint path with a single leading slash
func (c *Config) HTTPPath() string {
	return HTTPPath(c.DefaultPath)
}

// HTTPPath normalises a path prefix such as "mcp" or "/mcp/" to "/mcp"
func HTTPPath(p string) string {
	p = strings.Trim(strings.TrimSpace(p), "/")
	return "/" + p
}

// ParseTimeout accepts a Go duration ("30s") or a whole number of seconds. Empty means no timeout.
func ParseTimeout(raw string) (time.Duration, error) {
	if raw == "" {
		return DefaultTimeout, nil
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		if secs < 0 {
			return 0, fmt.Errorf("timeout must not be negative")
		}
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("timeout must not be negative")
	}
	return d, nil
}

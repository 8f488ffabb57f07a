// Package config reads process configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joshharrison/timeloom/internal/calendar"
)

// Config covers process level configuration read from environment variables.
type Config struct {
	Environment     string
	HTTPBind        string
	HTTPPort        int
	MetricsEnabled  bool
	CalendarPath    string // optional default calendar file
	MaxBodyKB       int    // request body limit for the HTTP API
	SearchLimitDays int    // bound on working-day searches
	MaxDays         int    // largest |days| the API accepts for add and end-date
}

// Load reads environment variables, applies defaults, and validates the result.
func Load() (*Config, error) {
	cfg := &Config{
		Environment:     getEnvAny([]string{"TIMELOOM_ENV"}, "development"),
		HTTPBind:        getEnvAny([]string{"TIMELOOM_HTTP_BIND"}, "127.0.0.1"),
		HTTPPort:        getEnvIntAny([]string{"TIMELOOM_HTTP_PORT", "PORT"}, 7171),
		MetricsEnabled:  getEnvBoolAny([]string{"TIMELOOM_METRICS_ENABLED"}, true),
		CalendarPath:    getEnvAny([]string{"TIMELOOM_CALENDAR"}, ""),
		MaxBodyKB:       getEnvIntAny([]string{"TIMELOOM_MAX_BODY_KB"}, 1024),
		SearchLimitDays: getEnvIntAny([]string{"TIMELOOM_SEARCH_LIMIT_DAYS"}, calendar.DefaultSearchLimit),
		MaxDays:         getEnvIntAny([]string{"TIMELOOM_MAX_DAYS"}, calendar.MaxSpanDays),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges. CLI flag overrides call it again after applying.
func (c *Config) Validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("TIMELOOM_HTTP_PORT %d out of range 1-65535", c.HTTPPort)
	}
	if c.MaxBodyKB <= 0 {
		return fmt.Errorf("TIMELOOM_MAX_BODY_KB must be positive, got %d", c.MaxBodyKB)
	}
	if c.SearchLimitDays <= 0 {
		return fmt.Errorf("TIMELOOM_SEARCH_LIMIT_DAYS must be positive, got %d", c.SearchLimitDays)
	}
	if c.MaxDays <= 0 || c.MaxDays > calendar.MaxSpanDays {
		return fmt.Errorf("TIMELOOM_MAX_DAYS %d out of range 1-%d", c.MaxDays, calendar.MaxSpanDays)
	}
	return nil
}

// Addr is the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.HTTPBind, c.HTTPPort)
}

// getEnvAny returns the first non-empty environment variable value from keys, or def if none set.
func getEnvAny(keys []string, def string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return def
}

// getEnvIntAny returns the first set integer environment variable value from keys, or def.
func getEnvIntAny(keys []string, def int) int {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			if parsed, err := strconv.Atoi(v); err == nil {
				return parsed
			}
		}
	}
	return def
}

// getEnvBoolAny returns the first set boolean environment variable value from keys, or def.
func getEnvBoolAny(keys []string, def bool) bool {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			v = strings.ToLower(strings.TrimSpace(v))
			if v == "true" || v == "1" || v == "yes" {
				return true
			}
			if v == "false" || v == "0" || v == "no" {
				return false
			}
		}
	}
	return def
}

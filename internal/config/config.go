// Package config loads the proxy's runtime configuration from viper and the
// environment.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Veraticus/hours-proxy/internal/common"
	"github.com/Veraticus/hours-proxy/internal/sheets"
	"github.com/spf13/viper"
)

// Defaults.
const (
	DefaultAddr            = ":4000"
	DefaultAllowedOrigin   = "http://localhost:3000"
	DefaultUpstreamTimeout = 30 * time.Second
	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 60 * time.Second
	DefaultShutdownTimeout = 10 * time.Second
)

// Config is the complete runtime configuration.
type Config struct {
	// Sheets is nil when no spreadsheet is configured; publishing is then
	// disabled.
	Sheets   *sheets.Config
	Upstream UpstreamConfig
	Logging  LoggingConfig
	CORS     CORSConfig
	Server   ServerConfig
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// UpstreamConfig points at the time-tracking API.
type UpstreamConfig struct {
	BaseURL        string
	Timeout        time.Duration
	FilterArchived bool
}

// CORSConfig lists the browser origins allowed to call the proxy.
type CORSConfig struct {
	AllowedOrigins []string
}

// LoggingConfig selects the slog level and handler.
type LoggingConfig struct {
	Level  string
	Format string
}

// SetDefaults registers default values on v. Keys with a direct environment
// fallback are left unset so the fallback can apply.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.read_timeout", DefaultReadTimeout)
	v.SetDefault("server.write_timeout", DefaultWriteTimeout)
	v.SetDefault("server.shutdown_timeout", DefaultShutdownTimeout)
	v.SetDefault("upstream.timeout", DefaultUpstreamTimeout)
	v.SetDefault("upstream.filter_archived", true)
	v.SetDefault("sheets.enable_formatting", true)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

// Load builds a Config from v. It follows this precedence:
// 1. Viper configuration (config file or HOURS_PROXY_ env vars)
// 2. Direct environment variables (API_BASE_URL, PORT, ALLOWED_ORIGINS, ...)
// 3. Default values
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Addr:            v.GetString("server.addr"),
			ReadTimeout:     v.GetDuration("server.read_timeout"),
			WriteTimeout:    v.GetDuration("server.write_timeout"),
			ShutdownTimeout: v.GetDuration("server.shutdown_timeout"),
		},
		Upstream: UpstreamConfig{
			BaseURL:        v.GetString("upstream.base_url"),
			Timeout:        v.GetDuration("upstream.timeout"),
			FilterArchived: v.GetBool("upstream.filter_archived"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(v.GetStringSlice("cors.allowed_origins")),
		},
		Logging: LoggingConfig{
			Level:  v.GetString("logging.level"),
			Format: v.GetString("logging.format"),
		},
	}

	if cfg.Server.Addr == "" {
		if port := os.Getenv("PORT"); port != "" {
			cfg.Server.Addr = ":" + strings.TrimPrefix(port, ":")
		} else {
			cfg.Server.Addr = DefaultAddr
		}
	}
	if cfg.Upstream.BaseURL == "" {
		cfg.Upstream.BaseURL = os.Getenv("API_BASE_URL")
	}
	cfg.Upstream.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.Upstream.BaseURL), "/")
	if len(cfg.CORS.AllowedOrigins) == 0 {
		cfg.CORS.AllowedOrigins = splitList([]string{os.Getenv("ALLOWED_ORIGINS")})
	}
	if len(cfg.CORS.AllowedOrigins) == 0 {
		cfg.CORS.AllowedOrigins = []string{DefaultAllowedOrigin}
	}

	sheetsCfg, err := LoadSheetsConfig(v)
	if err != nil {
		return nil, fmt.Errorf("%w: sheets: %w", common.ErrInvalidConfig, err)
	}
	cfg.Sheets = sheetsCfg

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings that the server cannot start without.
func (c *Config) Validate() error {
	if c.Upstream.BaseURL == "" {
		return fmt.Errorf("%w: upstream.base_url (or API_BASE_URL)", common.ErrMissingConfig)
	}
	u, err := url.Parse(c.Upstream.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: upstream.base_url %q is not an absolute http(s) URL", common.ErrInvalidConfig, c.Upstream.BaseURL)
	}

	durations := []struct {
		key   string
		value time.Duration
	}{
		{"upstream.timeout", c.Upstream.Timeout},
		{"server.read_timeout", c.Server.ReadTimeout},
		{"server.write_timeout", c.Server.WriteTimeout},
		{"server.shutdown_timeout", c.Server.ShutdownTimeout},
	}
	for _, d := range durations {
		if d.value <= 0 {
			return fmt.Errorf("%w: %s must be positive, got %s", common.ErrInvalidConfig, d.key, d.value)
		}
	}

	for _, origin := range c.CORS.AllowedOrigins {
		if origin == "*" {
			continue
		}
		if u, err := url.Parse(origin); err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%w: cors.allowed_origins entry %q", common.ErrInvalidConfig, origin)
		}
	}

	if c.Sheets != nil {
		if err := c.Sheets.Validate(); err != nil {
			return fmt.Errorf("%w: sheets: %w", common.ErrInvalidConfig, err)
		}
	}
	return nil
}

// ExpandPath expands ~ and environment variables in a file path.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}

	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
		}
	}

	return os.ExpandEnv(path)
}

// splitList flattens comma-separated entries and drops blanks.
func splitList(values []string) []string {
	var out []string
	for _, value := range values {
		for _, item := range strings.Split(value, ",") {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
	}
	return out
}

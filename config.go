package sqlkit

import (
	"fmt"
	"net/url"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

// PoolConfig holds connection pool settings.
type PoolConfig struct {
	MaxOpen         int
	MaxIdle         int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// DefaultPoolConfig returns a default pool configuration.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		MaxOpen:         25,
		MaxIdle:         10,
		ConnMaxLifetime: 30 * time.Minute,
		ConnMaxIdleTime: 10 * time.Minute,
	}
}

// ValidatePoolConfig validates a pool configuration.
func ValidatePoolConfig(config PoolConfig) error {
	if config.MaxOpen <= 0 {
		return fmt.Errorf("MaxOpen must be positive, got %d", config.MaxOpen)
	}
	if config.MaxIdle < 0 {
		return fmt.Errorf("MaxIdle must be non-negative, got %d", config.MaxIdle)
	}
	if config.MaxIdle > config.MaxOpen {
		return fmt.Errorf("MaxIdle cannot be greater than MaxOpen (MaxIdle: %d, MaxOpen: %d)",
			config.MaxIdle, config.MaxOpen)
	}
	if config.ConnMaxLifetime < 0 {
		return fmt.Errorf("ConnMaxLifetime must be non-negative, got %v", config.ConnMaxLifetime)
	}
	if config.ConnMaxIdleTime < 0 {
		return fmt.Errorf("ConnMaxIdleTime must be non-negative, got %v", config.ConnMaxIdleTime)
	}
	return nil
}

// Config holds pool construction settings.
type Config struct {
	// Driver overrides the sql driver (e.g. "mysql" in prod, "sqlmock" in tests).
	Driver string
	DSN    string
	// Field-based DSN building (used when DSN is empty)
	Host     string
	Port     int
	Username string
	Password string
	Database string
	Params   map[string]string
	Pool     PoolConfig
}

// dsnFromConfig returns a DSN string.
// Priority: if Config.DSN is non-empty, return it unchanged.
// Otherwise build from host/port/username/password/database/params.
func dsnFromConfig(c Config) (string, error) {
	if strings.TrimSpace(c.DSN) != "" {
		return c.DSN, nil
	}
	addr := c.Host
	if c.Port > 0 {
		addr = fmt.Sprintf("%s:%d", c.Host, c.Port)
	}
	dbEscaped := url.PathEscape(c.Database)
	// Build query params in stable order for test determinism
	var q string
	if len(c.Params) > 0 {
		keys := make([]string, 0, len(c.Params))
		for k := range c.Params {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s=%s", k, url.QueryEscape(c.Params[k])))
		}
		q = strings.Join(parts, "&")
	}
	// auth part: do not URL-encode password; the mysql driver expects raw
	auth := ""
	if c.Username != "" {
		if c.Password != "" {
			auth = fmt.Sprintf("%s:%s@", c.Username, c.Password)
		} else {
			auth = c.Username + "@"
		}
	}
	dsn := fmt.Sprintf("%stcp(%s)/%s", auth, addr, dbEscaped)
	if q != "" {
		dsn += "?" + q
	}
	return dsn, nil
}

// applyEnv overlays SQLKIT_* environment variables onto cfg. A set variable
// always wins over the corresponding field.
func applyEnv(cfg *Config) {
	if v := os.Getenv("SQLKIT_DRIVER"); v != "" {
		cfg.Driver = v
	}
	if v := os.Getenv("SQLKIT_DSN"); v != "" {
		cfg.DSN = v
	}
	if v := os.Getenv("SQLKIT_HOST"); v != "" {
		cfg.Host = v
	}
	if v := os.Getenv("SQLKIT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Port = port
		}
	}
	if v := os.Getenv("SQLKIT_USERNAME"); v != "" {
		cfg.Username = v
	}
	if v := os.Getenv("SQLKIT_PASSWORD"); v != "" {
		cfg.Password = v
	}
	if v := os.Getenv("SQLKIT_DATABASE"); v != "" {
		cfg.Database = v
	}
	if v := os.Getenv("SQLKIT_PARAMS"); v != "" {
		params := make(map[string]string)
		for _, pair := range strings.Split(v, "&") {
			if k, val, ok := strings.Cut(pair, "="); ok {
				params[k] = val
			}
		}
		if len(params) > 0 {
			cfg.Params = params
		}
	}
}

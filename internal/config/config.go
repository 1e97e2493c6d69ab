package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config is the top-level application configuration.
type Config struct {
	API      APIConfig      `koanf:"api"`
	Sync     SyncConfig     `koanf:"sync"`
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Log      LogConfig      `koanf:"log"`
}

// APIConfig holds settings for the upstream commerce API.
type APIConfig struct {
	BaseURL string `koanf:"base_url"`
	Token   string `koanf:"token"`
	Timeout string `koanf:"timeout"`
}

// TimeoutDuration returns the parsed request timeout, or zero when unset.
// Validate guarantees the field parses.
func (c APIConfig) TimeoutDuration() time.Duration {
	if c.Timeout == "" {
		return 0
	}
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// SyncConfig holds client-side synchronization tuning: paging, debounce
// windows, scroll geometry, and cache lifetimes.
type SyncConfig struct {
	PageSize        int    `koanf:"page_size"`
	Debounce        string `koanf:"debounce"`
	ScrollThreshold int    `koanf:"scroll_threshold"`
	ItemHeight      int    `koanf:"item_height"`
	ContainerHeight int    `koanf:"container_height"`
	Overscan        int    `koanf:"overscan"`
	RecentQueryCap  int    `koanf:"recent_query_cap"`
	DetailCacheTTL  string `koanf:"detail_cache_ttl"`
}

// DebounceDuration returns the parsed debounce window. Validate guarantees
// the field parses.
func (c SyncConfig) DebounceDuration() time.Duration {
	d, _ := time.ParseDuration(c.Debounce)
	return d
}

// DetailCacheTTLDuration returns the parsed detail cache lifetime, or zero
// when unset. Validate guarantees the field parses.
func (c SyncConfig) DetailCacheTTLDuration() time.Duration {
	if c.DetailCacheTTL == "" {
		return 0
	}
	d, _ := time.ParseDuration(c.DetailCacheTTL)
	return d
}

// ServerConfig holds HTTP server settings for the development API server.
type ServerConfig struct {
	Host    string     `koanf:"host"`
	Port    int        `koanf:"port"`
	Mode    string     `koanf:"mode"`
	Timeout string     `koanf:"timeout"`
	CORS    CORSConfig `koanf:"cors"`
}

// CORSConfig holds CORS middleware settings.
type CORSConfig struct {
	AllowOrigins     []string `koanf:"allow_origins"`
	AllowMethods     []string `koanf:"allow_methods"`
	AllowHeaders     []string `koanf:"allow_headers"`
	AllowCredentials bool     `koanf:"allow_credentials"`
	MaxAge           string   `koanf:"max_age"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Driver   string         `koanf:"driver"`
	SQLite   SQLiteConfig   `koanf:"sqlite"`
	Postgres PostgresConfig `koanf:"postgres"`
	Pool     PoolConfig     `koanf:"pool"`
}

// SQLiteConfig holds SQLite-specific settings.
type SQLiteConfig struct {
	Path string `koanf:"path"`
}

// PostgresConfig holds PostgreSQL-specific settings.
type PostgresConfig struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
	DBName   string `koanf:"dbname"`
	SSLMode  string `koanf:"sslmode"`
}

// PoolConfig holds database connection pool settings.
type PoolConfig struct {
	MaxIdleConns    int    `koanf:"max_idle_conns"`
	MaxOpenConns    int    `koanf:"max_open_conns"`
	ConnMaxLifetime string `koanf:"conn_max_lifetime"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level           string `koanf:"level"`
	Format          string `koanf:"format"`
	Color           *bool  `koanf:"color"`
	FilePath        string `koanf:"file_path"`
	MaxSizeMB       int    `koanf:"max_size_mb"`
	RetentionDays   int    `koanf:"retention_days"`
	MaxBackups      int    `koanf:"max_backups"`
	CompressRotated *bool  `koanf:"compress_rotated"`
}

// Load reads configuration from a YAML file and overlays environment variables.
// Environment variables use the prefix "APP__" and double-underscore as the
// hierarchy separator. Single underscores are preserved as part of the key name.
// For example, APP__API__BASE_URL overrides api.base_url and
// APP__SYNC__PAGE_SIZE=50 overrides sync.page_size.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	// Load YAML config file.
	if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
	}

	// Overlay environment variables with prefix APP__.
	// APP__SERVER__PORT -> server.port
	// APP__SYNC__DETAIL_CACHE_TTL -> sync.detail_cache_ttl
	if err := k.Load(env.Provider("APP__", ".", func(s string) string {
		key := strings.TrimPrefix(s, "APP__")
		key = strings.ToLower(key)
		key = strings.ReplaceAll(key, "__", ".")
		return key
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks supported values, fills defaults for optional sync
// settings, and normalizes whitespace.
func (c *Config) Validate() error {
	// Validate api.base_url.
	baseURL := strings.TrimSpace(c.API.BaseURL)
	if baseURL == "" {
		return fmt.Errorf("api.base_url is required")
	}
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		return fmt.Errorf("invalid api.base_url %q: must start with http:// or https://", c.API.BaseURL)
	}
	c.API.BaseURL = strings.TrimRight(baseURL, "/")

	// Validate api.timeout (optional; must be a valid Go duration if set).
	c.API.Timeout = strings.TrimSpace(c.API.Timeout)
	if t := c.API.Timeout; t != "" {
		d, err := time.ParseDuration(t)
		if err != nil {
			return fmt.Errorf("invalid api.timeout %q: %w", c.API.Timeout, err)
		}
		if d <= 0 {
			return fmt.Errorf("invalid api.timeout %q: must be greater than 0", c.API.Timeout)
		}
	}

	// Fill sync defaults and validate overrides.
	if c.Sync.PageSize == 0 {
		c.Sync.PageSize = 20
	}
	if c.Sync.PageSize < 1 || c.Sync.PageSize > 100 {
		return fmt.Errorf("invalid sync.page_size %d: must be between 1 and 100", c.Sync.PageSize)
	}

	c.Sync.Debounce = strings.TrimSpace(c.Sync.Debounce)
	if c.Sync.Debounce == "" {
		c.Sync.Debounce = "300ms"
	}
	if d, err := time.ParseDuration(c.Sync.Debounce); err != nil {
		return fmt.Errorf("invalid sync.debounce %q: %w", c.Sync.Debounce, err)
	} else if d < 0 {
		return fmt.Errorf("invalid sync.debounce %q: must not be negative", c.Sync.Debounce)
	}

	if c.Sync.ScrollThreshold == 0 {
		c.Sync.ScrollThreshold = 200
	}
	if c.Sync.ScrollThreshold < 0 {
		return fmt.Errorf("invalid sync.scroll_threshold %d: must not be negative", c.Sync.ScrollThreshold)
	}

	if c.Sync.ItemHeight == 0 {
		c.Sync.ItemHeight = 50
	}
	if c.Sync.ItemHeight < 1 {
		return fmt.Errorf("invalid sync.item_height %d: must be positive", c.Sync.ItemHeight)
	}

	if c.Sync.ContainerHeight == 0 {
		c.Sync.ContainerHeight = 600
	}
	if c.Sync.ContainerHeight < 1 {
		return fmt.Errorf("invalid sync.container_height %d: must be positive", c.Sync.ContainerHeight)
	}

	if c.Sync.Overscan == 0 {
		c.Sync.Overscan = 3
	}
	if c.Sync.Overscan < 0 {
		return fmt.Errorf("invalid sync.overscan %d: must not be negative", c.Sync.Overscan)
	}

	if c.Sync.RecentQueryCap == 0 {
		c.Sync.RecentQueryCap = 10
	}
	if c.Sync.RecentQueryCap < 1 {
		return fmt.Errorf("invalid sync.recent_query_cap %d: must be positive", c.Sync.RecentQueryCap)
	}

	c.Sync.DetailCacheTTL = strings.TrimSpace(c.Sync.DetailCacheTTL)
	if ttl := c.Sync.DetailCacheTTL; ttl != "" {
		d, err := time.ParseDuration(ttl)
		if err != nil {
			return fmt.Errorf("invalid sync.detail_cache_ttl %q: %w", c.Sync.DetailCacheTTL, err)
		}
		if d <= 0 {
			return fmt.Errorf("invalid sync.detail_cache_ttl %q: must be greater than 0", c.Sync.DetailCacheTTL)
		}
	}

	// Validate server.mode.
	mode := strings.TrimSpace(c.Server.Mode)
	switch mode {
	case gin.DebugMode, gin.ReleaseMode, gin.TestMode:
		c.Server.Mode = mode
	default:
		return fmt.Errorf("invalid server.mode %q: must be one of %q, %q, %q", c.Server.Mode, gin.DebugMode, gin.ReleaseMode, gin.TestMode)
	}

	// Validate server.port range.
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d: must be between 1 and 65535", c.Server.Port)
	}

	// Validate server.host.
	host := strings.TrimSpace(c.Server.Host)
	if host == "" {
		return fmt.Errorf("server.host is required")
	}
	c.Server.Host = host

	// Validate database.driver.
	switch c.Database.Driver {
	case "sqlite", "postgres":
		// ok
	default:
		return fmt.Errorf("invalid database.driver %q: must be one of %q, %q", c.Database.Driver, "sqlite", "postgres")
	}

	if c.Database.Driver == "sqlite" {
		sqlitePath := strings.TrimSpace(c.Database.SQLite.Path)
		if sqlitePath == "" {
			return fmt.Errorf("database.sqlite.path is required when driver is sqlite")
		}
		c.Database.SQLite.Path = sqlitePath
	}

	// When driver is postgres, required connection fields must be valid.
	if c.Database.Driver == "postgres" {
		host := strings.TrimSpace(c.Database.Postgres.Host)
		if host == "" {
			return fmt.Errorf("database.postgres.host is required when driver is postgres")
		}
		if c.Database.Postgres.Port < 1 || c.Database.Postgres.Port > 65535 {
			return fmt.Errorf("invalid database.postgres.port %d: must be between 1 and 65535", c.Database.Postgres.Port)
		}
		user := strings.TrimSpace(c.Database.Postgres.User)
		if user == "" {
			return fmt.Errorf("database.postgres.user is required when driver is postgres")
		}
		dbName := strings.TrimSpace(c.Database.Postgres.DBName)
		if dbName == "" {
			return fmt.Errorf("database.postgres.dbname is required when driver is postgres")
		}
		sslMode := strings.TrimSpace(c.Database.Postgres.SSLMode)

		switch sslMode {
		case "disable", "allow", "prefer", "require", "verify-ca", "verify-full":
			// ok
		default:
			return fmt.Errorf("invalid database.postgres.sslmode %q: must be one of %q, %q, %q, %q, %q, %q", c.Database.Postgres.SSLMode, "disable", "allow", "prefer", "require", "verify-ca", "verify-full")
		}
		if c.Server.Mode == gin.ReleaseMode {
			switch sslMode {
			case "require", "verify-ca", "verify-full":
				// ok
			default:
				return fmt.Errorf("invalid database.postgres.sslmode %q for server.mode %q: must be one of %q, %q, %q", c.Database.Postgres.SSLMode, gin.ReleaseMode, "require", "verify-ca", "verify-full")
			}
		}

		c.Database.Postgres.Host = host
		c.Database.Postgres.User = user
		c.Database.Postgres.DBName = dbName
		c.Database.Postgres.SSLMode = sslMode
	}

	// Normalize optional duration fields: whitespace-only means unset.
	c.Server.Timeout = strings.TrimSpace(c.Server.Timeout)
	c.Server.CORS.MaxAge = strings.TrimSpace(c.Server.CORS.MaxAge)
	c.Database.Pool.ConnMaxLifetime = strings.TrimSpace(c.Database.Pool.ConnMaxLifetime)

	// Validate server.timeout (optional; must be a valid Go duration if set).
	if t := c.Server.Timeout; t != "" {
		d, err := time.ParseDuration(t)
		if err != nil {
			return fmt.Errorf("invalid server.timeout %q: %w", c.Server.Timeout, err)
		}
		if d <= 0 {
			return fmt.Errorf("invalid server.timeout %q: must be greater than 0", c.Server.Timeout)
		}
	}

	// Validate server.cors.max_age (optional; must be a valid Go duration if set).
	if ma := c.Server.CORS.MaxAge; ma != "" {
		d, err := time.ParseDuration(ma)
		if err != nil {
			return fmt.Errorf("invalid server.cors.max_age %q: must be a valid duration (e.g. \"24h\", \"3600s\"): %w", c.Server.CORS.MaxAge, err)
		}
		if d <= 0 {
			return fmt.Errorf("invalid server.cors.max_age %q: must be greater than 0", c.Server.CORS.MaxAge)
		}
	}

	// Validate database.pool.conn_max_lifetime (optional; must be positive if set).
	if lm := c.Database.Pool.ConnMaxLifetime; lm != "" {
		d, err := time.ParseDuration(lm)
		if err != nil {
			return fmt.Errorf("invalid database.pool.conn_max_lifetime %q: %w", c.Database.Pool.ConnMaxLifetime, err)
		}
		if d <= 0 {
			return fmt.Errorf("invalid database.pool.conn_max_lifetime %q: must be greater than 0", c.Database.Pool.ConnMaxLifetime)
		}
	}

	// Validate log.level.
	level := strings.ToLower(strings.TrimSpace(c.Log.Level))
	switch level {
	case "debug", "info", "warn", "error":
		c.Log.Level = level
	default:
		return fmt.Errorf("invalid log.level %q: must be one of %q, %q, %q, %q", c.Log.Level, "debug", "info", "warn", "error")
	}

	// Validate log.format.
	format := strings.ToLower(strings.TrimSpace(c.Log.Format))
	switch format {
	case "text", "json":
		c.Log.Format = format
	default:
		return fmt.Errorf("invalid log.format %q: must be one of %q, %q", c.Log.Format, "text", "json")
	}

	return nil
}

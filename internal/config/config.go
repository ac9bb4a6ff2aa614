package config

import "time"

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`

	DatabasePath string `mapstructure:"database_path" yaml:"database_path"`
	LogLevel     string `mapstructure:"log_level" yaml:"log_level"`

	JWTSecret   string        `mapstructure:"jwt_secret" yaml:"jwt_secret"`
	JWTIssuer   string        `mapstructure:"jwt_issuer" yaml:"jwt_issuer"`
	JWTAudience string        `mapstructure:"jwt_audience" yaml:"jwt_audience"`
	TokenTTL    time.Duration `mapstructure:"token_ttl" yaml:"token_ttl"`

	// SingleSessionPerUser closes the previous connection when a user signs
	// in again. When false the old socket stays open but loses presence.
	SingleSessionPerUser bool `mapstructure:"single_session_per_user" yaml:"single_session_per_user"`

	// BatchAlertMode is "first" (alert only the first chat of a batch) or
	// "per-chat" (alert every distinct chat in the batch).
	BatchAlertMode string `mapstructure:"batch_alert_mode" yaml:"batch_alert_mode"`

	PersistTimeout time.Duration `mapstructure:"persist_timeout" yaml:"persist_timeout"`
	PersistRetries int           `mapstructure:"persist_retries" yaml:"persist_retries"`

	// BroadcastOnStoreFailure keeps messages flowing to connected clients
	// even when the durable log write fails.
	BroadcastOnStoreFailure bool `mapstructure:"broadcast_on_store_failure" yaml:"broadcast_on_store_failure"`

	// WSRateLimit caps inbound WebSocket frames per connection per minute.
	// Zero disables the limit.
	WSRateLimit int `mapstructure:"ws_rate_limit" yaml:"ws_rate_limit"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              ":8080",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,

		DatabasePath: "slate.db",
		LogLevel:     "info",

		JWTSecret:   "change-me-in-production",
		JWTIssuer:   "slate-server",
		JWTAudience: "slate-clients",
		TokenTTL:    24 * time.Hour,

		SingleSessionPerUser:    true,
		BatchAlertMode:          "first",
		PersistTimeout:          5 * time.Second,
		PersistRetries:          3,
		BroadcastOnStoreFailure: true,

		WSRateLimit: 600,
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.Addr != "" {
		c.Addr = other.Addr
	}
	if other.ReadHeaderTimeout != 0 {
		c.ReadHeaderTimeout = other.ReadHeaderTimeout
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
	if other.DatabasePath != "" {
		c.DatabasePath = other.DatabasePath
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.JWTSecret != "" {
		c.JWTSecret = other.JWTSecret
	}
}

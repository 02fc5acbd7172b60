package config

import "time"

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`

	DatabasePath string `mapstructure:"database_path" yaml:"database_path"`

	JWTSecret   string        `mapstructure:"jwt_secret" yaml:"jwt_secret"`
	JWTIssuer   string        `mapstructure:"jwt_issuer" yaml:"jwt_issuer"`
	JWTAudience string        `mapstructure:"jwt_audience" yaml:"jwt_audience"`
	JWTTTL      time.Duration `mapstructure:"jwt_ttl" yaml:"jwt_ttl"`

	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`

	MaxMessageBytes  int64 `mapstructure:"max_message_bytes" yaml:"max_message_bytes"`
	InboundRateLimit int   `mapstructure:"inbound_rate_limit" yaml:"inbound_rate_limit"`

	Realtime RealtimeConfig `mapstructure:"realtime" yaml:"realtime"`
	Resolver ResolverConfig `mapstructure:"resolver" yaml:"resolver"`
}

// RealtimeConfig tunes the broadcast engine.
type RealtimeConfig struct {
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval" yaml:"heartbeat_interval"`
	StaleThreshold    time.Duration `mapstructure:"stale_threshold" yaml:"stale_threshold"`
	MaxQueueSize      int           `mapstructure:"max_queue_size" yaml:"max_queue_size"`
	MaxQueueAge       time.Duration `mapstructure:"max_queue_age" yaml:"max_queue_age"`
	MaxQueuedUsers    int           `mapstructure:"max_queued_users" yaml:"max_queued_users"`
	StatusWorkers     int           `mapstructure:"status_workers" yaml:"status_workers"`
	ChannelBuffer     int           `mapstructure:"channel_buffer" yaml:"channel_buffer"`
}

// ResolverConfig controls the circuit breaker in front of membership lookups.
type ResolverConfig struct {
	MaxFailures uint32        `mapstructure:"max_failures" yaml:"max_failures"`
	OpenTimeout time.Duration `mapstructure:"open_timeout" yaml:"open_timeout"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              ":8080",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		DatabasePath:      "builderspace.db",
		JWTSecret:         "change-me",
		JWTIssuer:         "builderspace",
		JWTAudience:       "builderspace",
		JWTTTL:            24 * time.Hour,
		LogLevel:          "info",
		LogFormat:         "console",
		MaxMessageBytes:   1 << 20,
		InboundRateLimit:  120,
		Realtime: RealtimeConfig{
			HeartbeatInterval: 30 * time.Second,
			StaleThreshold:    60 * time.Second,
			MaxQueueSize:      100,
			MaxQueueAge:       24 * time.Hour,
			MaxQueuedUsers:    10000,
			StatusWorkers:     4,
			ChannelBuffer:     256,
		},
		Resolver: ResolverConfig{
			MaxFailures: 5,
			OpenTimeout: 10 * time.Second,
		},
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
	if other.JWTSecret != "" {
		c.JWTSecret = other.JWTSecret
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.LogFormat != "" {
		c.LogFormat = other.LogFormat
	}
	if other.Realtime.HeartbeatInterval != 0 {
		c.Realtime.HeartbeatInterval = other.Realtime.HeartbeatInterval
	}
	if other.Realtime.StaleThreshold != 0 {
		c.Realtime.StaleThreshold = other.Realtime.StaleThreshold
	}
	if other.Realtime.MaxQueueSize != 0 {
		c.Realtime.MaxQueueSize = other.Realtime.MaxQueueSize
	}
	if other.Realtime.MaxQueueAge != 0 {
		c.Realtime.MaxQueueAge = other.Realtime.MaxQueueAge
	}
}

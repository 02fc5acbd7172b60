package core

import (
	"time"

	"github.com/rs/zerolog"
)

type routerConfig struct {
	heartbeatInterval time.Duration
	staleThreshold    time.Duration
	maxQueueSize      int
	maxQueueAge       time.Duration
	maxQueuedUsers    int
	statusWorkers     int
	now               func() time.Time
	logger            zerolog.Logger
}

func defaultRouterConfig() routerConfig {
	return routerConfig{
		heartbeatInterval: 30 * time.Second,
		staleThreshold:    60 * time.Second,
		maxQueueSize:      100,
		maxQueueAge:       24 * time.Hour,
		maxQueuedUsers:    defaultMaxQueuedUsers,
		statusWorkers:     4,
		now:               time.Now,
		logger:            zerolog.Nop(),
	}
}

// Option configures a Router.
type Option func(*routerConfig)

// WithLiveness sets how often connections are swept and how long they may stay silent.
func WithLiveness(interval, threshold time.Duration) Option {
	return func(c *routerConfig) {
		if interval > 0 {
			c.heartbeatInterval = interval
		}
		if threshold > 0 {
			c.staleThreshold = threshold
		}
	}
}

// WithQueueLimits bounds each offline mailbox by size and message age.
func WithQueueLimits(size int, age time.Duration) Option {
	return func(c *routerConfig) {
		c.maxQueueSize = size
		if age > 0 {
			c.maxQueueAge = age
		}
	}
}

// WithMaxQueuedUsers bounds how many users may hold a mailbox at once.
func WithMaxQueuedUsers(n int) Option {
	return func(c *routerConfig) {
		if n > 0 {
			c.maxQueuedUsers = n
		}
	}
}

// WithStatusWorkers limits concurrent member lookups during presence fan-out.
func WithStatusWorkers(n int) Option {
	return func(c *routerConfig) {
		if n > 0 {
			c.statusWorkers = n
		}
	}
}

// WithClock replaces the wall clock, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(c *routerConfig) {
		if now != nil {
			c.now = now
		}
	}
}

// WithLogger sets the router logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(c *routerConfig) {
		if logger != nil {
			c.logger = *logger
		}
	}
}

package core

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// LivenessMonitor periodically finds connections that stopped heartbeating.
type LivenessMonitor struct {
	registry  *Registry
	interval  time.Duration
	threshold time.Duration
	now       func() time.Time
	onStale   func(conn *Connection, now time.Time, threshold time.Duration) bool
	log       zerolog.Logger
}

// NewLivenessMonitor creates a monitor that sweeps every interval and hands
// connections silent for longer than threshold to onStale, which reports
// whether it actually evicted the connection.
func NewLivenessMonitor(registry *Registry, interval, threshold time.Duration, now func() time.Time, onStale func(conn *Connection, now time.Time, threshold time.Duration) bool, logger zerolog.Logger) *LivenessMonitor {
	if now == nil {
		now = time.Now
	}
	return &LivenessMonitor{
		registry:  registry,
		interval:  interval,
		threshold: threshold,
		now:       now,
		onStale:   onStale,
		log:       logger.With().Str("component", "liveness").Logger(),
	}
}

// Run sweeps until ctx is cancelled.
func (m *LivenessMonitor) Run(ctx context.Context) {
	if m.interval <= 0 {
		<-ctx.Done()
		return
	}
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep(m.now())
		}
	}
}

// Sweep evicts every connection stale at now and returns the evicted user
// IDs. A connection that heartbeats after the scan is kept.
func (m *LivenessMonitor) Sweep(now time.Time) []int64 {
	stale := m.registry.Stale(now, m.threshold)
	if len(stale) == 0 || m.onStale == nil {
		return nil
	}

	var ids []int64
	for _, conn := range stale {
		if !m.onStale(conn, now, m.threshold) {
			continue
		}
		m.log.Info().
			Int64("user_id", conn.UserID).
			Str("conn_id", conn.ID.String()).
			Msg("connection missed heartbeats")
		ids = append(ids, conn.UserID)
	}
	return ids
}

package activity

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/Aahantrikha/BuilderSpace-sub000/internal/core"
	"github.com/Aahantrikha/BuilderSpace-sub000/internal/store"
)

// Audience is the part of the router the stats consumer needs.
type Audience interface {
	OnlineUsers() []int64
	BroadcastToUsers(userIDs []int64, msg core.BroadcastMessage) core.DeliveryStats
}

// StatsBroadcaster recounts platform stats on every notice and pushes them
// to everyone online.
type StatsBroadcaster struct {
	stats    store.StatsStore
	audience Audience
	log      zerolog.Logger
}

// NewStatsBroadcaster creates the stats consumer.
func NewStatsBroadcaster(stats store.StatsStore, audience Audience, logger *zerolog.Logger) *StatsBroadcaster {
	s := &StatsBroadcaster{stats: stats, audience: audience, log: zerolog.Nop()}
	if logger != nil {
		s.log = logger.With().Str("component", "stats").Logger()
	}
	return s
}

// Handle is a HandlerFunc. Stats are best-effort: a failed count is logged
// and the notice is acked.
func (s *StatsBroadcaster) Handle(ctx context.Context, n Notice) error {
	online := s.audience.OnlineUsers()
	if len(online) == 0 {
		return nil
	}

	stats, err := s.stats.CountStats(ctx)
	if err != nil {
		s.log.Warn().Err(err).Str("trigger", string(n.Kind)).Msg("count stats")
		return nil
	}

	// addressed only to users online at count time
	delivered := s.audience.BroadcastToUsers(online, core.NewMessage(core.EventStatsUpdate, stats))
	s.log.Debug().
		Str("trigger", string(n.Kind)).
		Int("online", delivered.Online).
		Msg("stats pushed")
	return nil
}

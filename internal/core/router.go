package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

// Disconnect reasons sent to clients before their channel is closed.
const (
	ReasonSuperseded       = "superseded"
	ReasonHeartbeatTimeout = "heartbeat timeout"
	ReasonShutdown         = "server shutting down"
)

// Router delivers messages to live connections and queues them for offline
// users. Deliver-or-enqueue, connection registration with its queue drain,
// and eviction all run on one timeline so a message is never both delivered
// and queued, and never slips between a drain and a registration.
type Router struct {
	registry *Registry
	queue    *OfflineQueue
	monitor  *LivenessMonitor
	resolver MembershipResolver

	timeline sync.Mutex

	statusWorkers int
	now           func() time.Time
	log           zerolog.Logger

	runMu  sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewRouter creates a router resolving teams through resolver.
func NewRouter(resolver MembershipResolver, opts ...Option) *Router {
	cfg := defaultRouterConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	logger := cfg.logger.With().Str("component", "router").Logger()
	r := &Router{
		registry:      NewRegistry(cfg.now),
		queue:         NewOfflineQueue(cfg.maxQueueSize, cfg.maxQueueAge, cfg.maxQueuedUsers, cfg.now, &logger),
		resolver:      resolver,
		statusWorkers: cfg.statusWorkers,
		now:           cfg.now,
		log:           logger,
	}
	r.monitor = NewLivenessMonitor(r.registry, cfg.heartbeatInterval, cfg.staleThreshold, cfg.now, r.evictStale, logger)
	return r
}

// Start launches the liveness monitor.
func (r *Router) Start(ctx context.Context) {
	r.runMu.Lock()
	defer r.runMu.Unlock()
	if r.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.done = make(chan struct{})
	go func() {
		defer close(r.done)
		r.monitor.Run(ctx)
	}()
	r.log.Info().Msg("router started")
}

// Stop halts the liveness monitor and closes every live connection.
func (r *Router) Stop() {
	r.runMu.Lock()
	if r.cancel != nil {
		r.cancel()
		<-r.done
		r.cancel = nil
	}
	r.runMu.Unlock()

	r.timeline.Lock()
	conns := r.registry.Drain()
	r.timeline.Unlock()

	for _, conn := range conns {
		r.closeConn(conn, ReasonShutdown)
	}
	r.log.Info().Int("closed", len(conns)).Msg("router stopped")
}

// Monitor exposes the liveness monitor.
func (r *Router) Monitor() *LivenessMonitor {
	return r.monitor
}

// SendToUser delivers msg live or queues it. It reports whether it went out live.
func (r *Router) SendToUser(userID int64, msg BroadcastMessage) bool {
	r.timeline.Lock()
	defer r.timeline.Unlock()
	return r.deliver(userID, msg)
}

// BroadcastToUsers sends msg to each distinct user in userIDs except the sender.
func (r *Router) BroadcastToUsers(userIDs []int64, msg BroadcastMessage) DeliveryStats {
	recipients := lo.Uniq(userIDs)
	if msg.SenderID != 0 {
		recipients = lo.Without(recipients, msg.SenderID)
	}

	r.timeline.Lock()
	defer r.timeline.Unlock()
	return r.deliverAll(recipients, msg)
}

// BroadcastGroupMessage sends msg to every member of the space except exclude.
// If membership cannot be resolved nothing is sent and the error is returned.
func (r *Router) BroadcastGroupMessage(ctx context.Context, spaceID int64, msg BroadcastMessage, exclude int64) (DeliveryStats, error) {
	members, err := r.resolver.ResolveTeamMembers(ctx, KindBuilderSpace, spaceID)
	if err != nil {
		r.log.Error().Err(err).Int64("space_id", spaceID).Str("type", string(msg.Type)).Msg("resolve space members")
		return DeliveryStats{}, fmt.Errorf("resolve members of space %d: %w", spaceID, err)
	}

	stats := r.BroadcastToUsers(lo.Without(members, exclude), msg)
	r.log.Debug().
		Int64("space_id", spaceID).
		Str("type", string(msg.Type)).
		Int("online", stats.Online).
		Int("offline", stats.Offline).
		Msg("group broadcast")
	return stats, nil
}

// BroadcastScreeningMessage sends msg to the two screening participants except exclude.
func (r *Router) BroadcastScreeningMessage(applicationID, founderID, applicantID int64, msg BroadcastMessage, exclude int64) DeliveryStats {
	recipients := lo.Without([]int64{founderID, applicantID}, exclude, 0)
	stats := r.BroadcastToUsers(recipients, msg)
	r.log.Debug().
		Int64("application_id", applicationID).
		Str("type", string(msg.Type)).
		Int("online", stats.Online).
		Int("offline", stats.Offline).
		Msg("screening broadcast")
	return stats
}

// BroadcastUserStatus tells the teammates of userID, space by space, that the
// user went online or offline. A space whose members cannot be resolved is
// skipped; the others are still notified and the failures are returned joined.
func (r *Router) BroadcastUserStatus(ctx context.Context, userID int64, online bool) (DeliveryStats, error) {
	spaces, err := r.resolver.ResolveUserSpaces(ctx, userID)
	if err != nil {
		r.log.Error().Err(err).Int64("user_id", userID).Msg("resolve user spaces")
		return DeliveryStats{}, fmt.Errorf("resolve spaces of user %d: %w", userID, err)
	}
	if len(spaces) == 0 {
		return DeliveryStats{}, nil
	}

	members := make([][]int64, len(spaces))
	failures := make([]error, len(spaces))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.statusWorkers)
	for i, spaceID := range spaces {
		g.Go(func() error {
			ids, err := r.resolver.ResolveTeamMembers(gctx, KindBuilderSpace, spaceID)
			if err != nil {
				failures[i] = fmt.Errorf("resolve members of space %d: %w", spaceID, err)
				return nil
			}
			members[i] = ids
			return nil
		})
	}
	_ = g.Wait()

	eventType := EventUserOffline
	if online {
		eventType = EventUserOnline
	}

	var total DeliveryStats
	r.timeline.Lock()
	for i, spaceID := range spaces {
		if failures[i] != nil {
			continue
		}
		msg := NewMessage(eventType, PresencePayload{UserID: userID, SpaceID: spaceID, Online: online}).From(userID)
		total.Add(r.deliverAll(lo.Without(members[i], userID), msg))
	}
	r.timeline.Unlock()

	joined := errors.Join(failures...)
	if joined != nil {
		r.log.Warn().Err(joined).Int64("user_id", userID).Msg("presence partially delivered")
	}
	r.log.Debug().
		Int64("user_id", userID).
		Bool("online", online).
		Int("spaces", len(spaces)).
		Int("online_recipients", total.Online).
		Int("offline_recipients", total.Offline).
		Msg("presence broadcast")
	return total, joined
}

// Connect registers ch as the user's connection, sends the connect event,
// flushes the user's offline mailbox and announces the user to teammates.
// A previous connection of the same user is told it was superseded and closed.
func (r *Router) Connect(ctx context.Context, userID int64, ch Channel) *Connection {
	r.timeline.Lock()
	conn, superseded := r.registry.Register(userID, ch)
	queued := r.queue.Count(userID)
	_ = ch.Send(NewMessage(EventConnect, ConnectPayload{
		UserID:       userID,
		ConnectionID: conn.ID.String(),
		Queued:       queued,
		ServerTime:   r.now().UnixMilli(),
	}))
	delivered := r.queue.Drain(userID, func(msg BroadcastMessage) bool {
		return ch.Send(msg) == nil
	})
	r.timeline.Unlock()

	if superseded != nil {
		r.closeConn(superseded, ReasonSuperseded)
	}

	r.log.Info().
		Int64("user_id", userID).
		Str("conn_id", conn.ID.String()).
		Int("queued", queued).
		Int("delivered", delivered).
		Bool("superseded", superseded != nil).
		Int("online_users", r.registry.Len()).
		Msg("user connected")

	if superseded == nil {
		_, _ = r.BroadcastUserStatus(ctx, userID, true)
	}
	return conn
}

// Disconnect unregisters connID if it is still the user's current connection
// and then announces the user as offline. It reports whether anything was removed.
func (r *Router) Disconnect(ctx context.Context, userID int64, connID uuid.UUID) bool {
	r.timeline.Lock()
	removed := r.registry.UnregisterConn(userID, connID)
	r.timeline.Unlock()
	if !removed {
		return false
	}

	r.log.Info().Int64("user_id", userID).Str("conn_id", connID.String()).Msg("user disconnected")
	_, _ = r.BroadcastUserStatus(ctx, userID, false)
	return true
}

// Heartbeat refreshes connID and echoes the server time on it. It returns
// false when connID is no longer the user's current connection.
func (r *Router) Heartbeat(userID int64, connID uuid.UUID) bool {
	at, ok := r.registry.Touch(userID, connID)
	if !ok {
		return false
	}
	if conn, found := r.registry.Get(userID); found && conn.ID == connID {
		_ = conn.Channel.Send(NewMessage(EventHeartbeat, HeartbeatPayload{ServerTime: at.UnixMilli()}))
	}
	return true
}

// IsUserOnline reports whether the user has a live connection.
func (r *Router) IsUserOnline(userID int64) bool {
	return r.registry.IsOnline(userID)
}

// OnlineUsers returns the IDs of all connected users.
func (r *Router) OnlineUsers() []int64 {
	return r.registry.OnlineUsers()
}

// QueuedMessageCount returns how many messages wait for the user.
func (r *Router) QueuedMessageCount(userID int64) int {
	return r.queue.Count(userID)
}

// deliver must be called with the timeline held.
func (r *Router) deliver(userID int64, msg BroadcastMessage) bool {
	if r.registry.TrySend(userID, msg) {
		return true
	}
	r.queue.Enqueue(userID, msg)
	return false
}

// deliverAll must be called with the timeline held.
func (r *Router) deliverAll(userIDs []int64, msg BroadcastMessage) DeliveryStats {
	var stats DeliveryStats
	for _, id := range userIDs {
		if r.deliver(id, msg) {
			stats.Online++
		} else {
			stats.Offline++
		}
	}
	return stats
}

// evictStale drops conn if it is still current and still silent at now.
func (r *Router) evictStale(conn *Connection, now time.Time, threshold time.Duration) bool {
	r.timeline.Lock()
	removed := r.registry.UnregisterIfStale(conn.UserID, conn.ID, now, threshold)
	r.timeline.Unlock()
	if !removed {
		return false
	}

	r.closeConn(conn, ReasonHeartbeatTimeout)
	_, _ = r.BroadcastUserStatus(context.Background(), conn.UserID, false)
	return true
}

func (r *Router) closeConn(conn *Connection, reason string) {
	_ = conn.Channel.Send(NewMessage(EventDisconnect, DisconnectPayload{Reason: reason}))
	if err := conn.Channel.Close(reason); err != nil {
		r.log.Debug().Err(err).Int64("user_id", conn.UserID).Str("reason", reason).Msg("close channel")
	}
}

package core

import (
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Channel is the outbound side of a live client connection.
// Send must not block; it fails when the channel is closed or saturated.
type Channel interface {
	Send(msg BroadcastMessage) error
	Close(reason string) error
}

// Connection is a registered channel for one user.
type Connection struct {
	ID          uuid.UUID
	UserID      int64
	Channel     Channel
	ConnectedAt time.Time

	lastHeartbeat time.Time
}

// Registry tracks at most one live connection per user.
type Registry struct {
	mu    sync.RWMutex
	conns map[int64]*Connection
	now   func() time.Time
}

// NewRegistry creates an empty registry using now as its clock.
func NewRegistry(now func() time.Time) *Registry {
	if now == nil {
		now = time.Now
	}
	return &Registry{
		conns: make(map[int64]*Connection),
		now:   now,
	}
}

// Register stores ch as the user's connection and returns the new handle
// together with the one it superseded, if any. The superseded handle is
// dropped from tracking but not closed.
func (r *Registry) Register(userID int64, ch Channel) (conn *Connection, superseded *Connection) {
	now := r.now()
	conn = &Connection{
		ID:            uuid.New(),
		UserID:        userID,
		Channel:       ch,
		ConnectedAt:   now,
		lastHeartbeat: now,
	}

	r.mu.Lock()
	superseded = r.conns[userID]
	r.conns[userID] = conn
	r.mu.Unlock()
	return conn, superseded
}

// UnregisterConn removes the user's connection only if connID is still current.
func (r *Registry) UnregisterConn(userID int64, connID uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	conn, ok := r.conns[userID]
	if !ok || conn.ID != connID {
		return false
	}
	delete(r.conns, userID)
	return true
}

// UnregisterIfStale removes the user's connection only if connID is still
// current and its last heartbeat is older than threshold at now.
func (r *Registry) UnregisterIfStale(userID int64, connID uuid.UUID, now time.Time, threshold time.Duration) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	conn, ok := r.conns[userID]
	if !ok || conn.ID != connID || now.Sub(conn.lastHeartbeat) <= threshold {
		return false
	}
	delete(r.conns, userID)
	return true
}

// Get returns the user's current connection.
func (r *Registry) Get(userID int64) (*Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, ok := r.conns[userID]
	return conn, ok
}

// Touch refreshes the heartbeat of connID if it is the user's current connection.
func (r *Registry) Touch(userID int64, connID uuid.UUID) (time.Time, bool) {
	now := r.now()
	r.mu.Lock()
	defer r.mu.Unlock()
	conn, ok := r.conns[userID]
	if !ok || conn.ID != connID {
		return time.Time{}, false
	}
	conn.lastHeartbeat = now
	return now, true
}

// LastHeartbeat returns the last heartbeat of the user's current connection.
func (r *Registry) LastHeartbeat(userID int64) (time.Time, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, ok := r.conns[userID]
	if !ok {
		return time.Time{}, false
	}
	return conn.lastHeartbeat, true
}

// TrySend writes msg to the user's channel. It returns false if the user has
// no connection or the channel rejected the write.
func (r *Registry) TrySend(userID int64, msg BroadcastMessage) bool {
	conn, ok := r.Get(userID)
	if !ok {
		return false
	}
	return conn.Channel.Send(msg) == nil
}

// IsOnline reports whether the user has a registered connection.
func (r *Registry) IsOnline(userID int64) bool {
	_, ok := r.Get(userID)
	return ok
}

// OnlineUsers returns the IDs of all connected users in ascending order.
func (r *Registry) OnlineUsers() []int64 {
	r.mu.RLock()
	ids := make([]int64, 0, len(r.conns))
	for id := range r.conns {
		ids = append(ids, id)
	}
	r.mu.RUnlock()
	slices.Sort(ids)
	return ids
}

// Len returns the number of connected users.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// Stale returns connections whose last heartbeat is older than threshold at now.
func (r *Registry) Stale(now time.Time, threshold time.Duration) []*Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var stale []*Connection
	for _, conn := range r.conns {
		if now.Sub(conn.lastHeartbeat) > threshold {
			stale = append(stale, conn)
		}
	}
	return stale
}

// Drain removes and returns every connection.
func (r *Registry) Drain() []*Connection {
	r.mu.Lock()
	defer r.mu.Unlock()
	conns := make([]*Connection, 0, len(r.conns))
	for id, conn := range r.conns {
		conns = append(conns, conn)
		delete(r.conns, id)
	}
	return conns
}

package core

import (
	"time"

	"github.com/google/uuid"
)

// EventType is the kind of notification the core emits to clients.
type EventType string

const (
	// EventConnect confirms a freshly registered connection.
	EventConnect EventType = "connect"
	// EventDisconnect tells a client the server is dropping its connection.
	EventDisconnect EventType = "disconnect"
	// EventHeartbeat echoes an inbound heartbeat with the server time.
	EventHeartbeat EventType = "heartbeat"

	EventGroupMessage     EventType = "group_message"
	EventScreeningMessage EventType = "screening_message"

	EventLinkAdded   EventType = "link_added"
	EventLinkRemoved EventType = "link_removed"

	EventTaskCreated EventType = "task_created"
	EventTaskUpdated EventType = "task_updated"
	EventTaskDeleted EventType = "task_deleted"

	EventTeamMemberJoined     EventType = "team_member_joined"
	EventBuilderSpaceCreated  EventType = "builder_space_created"
	EventScreeningChatCreated EventType = "screening_chat_created"

	EventUserOnline  EventType = "user_online"
	EventUserOffline EventType = "user_offline"

	EventStatsUpdate EventType = "stats_update"
)

// BroadcastMessage is the envelope fanned out to recipients.
// It is passed by value and never mutated after construction.
type BroadcastMessage struct {
	ID        uuid.UUID
	Type      EventType
	Payload   any
	Timestamp time.Time
	// SenderID is only used to exclude the acting user from fan-out. Zero means none.
	SenderID int64
}

// NewMessage builds a message stamped with the current time.
func NewMessage(t EventType, payload any) BroadcastMessage {
	return BroadcastMessage{
		ID:        uuid.New(),
		Type:      t,
		Payload:   payload,
		Timestamp: time.Now(),
	}
}

// From returns a copy of m attributed to senderID.
func (m BroadcastMessage) From(senderID int64) BroadcastMessage {
	m.SenderID = senderID
	return m
}

// ConnectPayload is sent to a client right after it is registered.
type ConnectPayload struct {
	UserID       int64  `json:"user_id"`
	ConnectionID string `json:"connection_id"`
	Queued       int    `json:"queued"`
	ServerTime   int64  `json:"server_time"`
}

// DisconnectPayload carries the reason the server closed the connection.
type DisconnectPayload struct {
	Reason string `json:"reason"`
}

// HeartbeatPayload is the echo for an inbound heartbeat.
type HeartbeatPayload struct {
	ServerTime int64 `json:"server_time"`
}

// PresencePayload announces a teammate going online or offline.
type PresencePayload struct {
	UserID  int64 `json:"user_id"`
	SpaceID int64 `json:"space_id"`
	Online  bool  `json:"online"`
}

// DeliveryStats summarises a fan-out.
type DeliveryStats struct {
	Online  int `json:"online"`
	Offline int `json:"offline"`
}

// Add accumulates other into s.
func (s *DeliveryStats) Add(other DeliveryStats) {
	s.Online += other.Online
	s.Offline += other.Offline
}

// Package proto defines the JSON shapes exchanged with realtime clients.
package proto

import "encoding/json"

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// InboundTypeHeartbeat is the only inbound type the server acts on.
const InboundTypeHeartbeat = "heartbeat"

// Outbound is the envelope for every event sent to the client.
// Timestamp is in unix milliseconds.
type Outbound struct {
	Type      string `json:"type"`
	Payload   any    `json:"payload,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// ScreeningMessage is the payload of a screening_message event.
type ScreeningMessage struct {
	ID            int64  `json:"id"`
	ApplicationID int64  `json:"application_id"`
	SenderID      int64  `json:"sender_id"`
	SenderName    string `json:"sender_name,omitempty"`
	Body          string `json:"body"`
	CreatedAt     int64  `json:"created_at"`
}

// GroupMessage is the payload of a group_message event.
type GroupMessage struct {
	ID         int64  `json:"id"`
	SpaceID    int64  `json:"space_id"`
	SenderID   int64  `json:"sender_id"`
	SenderName string `json:"sender_name,omitempty"`
	Body       string `json:"body"`
	CreatedAt  int64  `json:"created_at"`
}

// Link is the payload of a link_added event.
type Link struct {
	ID        int64  `json:"id"`
	SpaceID   int64  `json:"space_id"`
	CreatorID int64  `json:"creator_id"`
	Title     string `json:"title"`
	URL       string `json:"url"`
	CreatedAt int64  `json:"created_at"`
}

// Task is the payload of task_created and task_updated events.
type Task struct {
	ID          int64  `json:"id"`
	SpaceID     int64  `json:"space_id"`
	CreatorID   int64  `json:"creator_id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Completed   bool   `json:"completed"`
	CreatedAt   int64  `json:"created_at"`
	UpdatedAt   int64  `json:"updated_at"`
}

// Removed is the payload of link_removed and task_deleted events.
type Removed struct {
	ID        int64 `json:"id"`
	SpaceID   int64 `json:"space_id"`
	RemovedBy int64 `json:"removed_by"`
}

// MemberJoined is the payload of a team_member_joined event.
type MemberJoined struct {
	SpaceID  int64  `json:"space_id"`
	UserID   int64  `json:"user_id"`
	Username string `json:"username,omitempty"`
	Role     string `json:"role"`
}

// SpaceCreated is the payload of a builder_space_created event.
type SpaceCreated struct {
	SpaceID int64  `json:"space_id"`
	PostID  int64  `json:"post_id"`
	Name    string `json:"name"`
}

// ScreeningChatCreated is the payload of a screening_chat_created event.
type ScreeningChatCreated struct {
	ApplicationID int64  `json:"application_id"`
	PostID        int64  `json:"post_id"`
	PostTitle     string `json:"post_title"`
	FounderID     int64  `json:"founder_id"`
	ApplicantID   int64  `json:"applicant_id"`
}

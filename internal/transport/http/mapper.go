package http

import (
	"github.com/samber/lo"

	"github.com/Aahantrikha/BuilderSpace-sub000/internal/core"
	"github.com/Aahantrikha/BuilderSpace-sub000/internal/proto"
	"github.com/Aahantrikha/BuilderSpace-sub000/internal/store"
)

// UserResponse is the public view of a user.
type UserResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// AuthResponse represents the authentication response body.
type AuthResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// PostResponse is the public view of a post.
type PostResponse struct {
	ID          int64  `json:"id"`
	OwnerID     int64  `json:"owner_id"`
	Kind        string `json:"kind"`
	Title       string `json:"title"`
	Description string `json:"description"`
	CreatedAt   int64  `json:"created_at"`
}

// ApplicationResponse is the public view of an application.
type ApplicationResponse struct {
	ID          int64  `json:"id"`
	PostID      int64  `json:"post_id"`
	ApplicantID int64  `json:"applicant_id"`
	Message     string `json:"message"`
	Status      string `json:"status"`
	CreatedAt   int64  `json:"created_at"`
	UpdatedAt   int64  `json:"updated_at"`
}

// SpaceResponse is the public view of a Builder Space.
type SpaceResponse struct {
	ID        int64  `json:"id"`
	PostID    int64  `json:"post_id"`
	Name      string `json:"name"`
	CreatedAt int64  `json:"created_at"`
}

// PresenceResponse lists the caller's online teammates.
type PresenceResponse struct {
	Online []int64 `json:"online"`
}

// QueueResponse reports how many events wait for the caller.
type QueueResponse struct {
	Queued int `json:"queued"`
}

func toOutbound(msg core.BroadcastMessage) proto.Outbound {
	return proto.Outbound{
		Type:      string(msg.Type),
		Payload:   msg.Payload,
		Timestamp: msg.Timestamp.UnixMilli(),
	}
}

func toUser(u *store.User) UserResponse {
	return UserResponse{ID: u.ID, Username: u.Username}
}

func toPost(p *store.Post) PostResponse {
	return PostResponse{
		ID:          p.ID,
		OwnerID:     p.OwnerID,
		Kind:        string(p.Kind),
		Title:       p.Title,
		Description: p.Description,
		CreatedAt:   p.CreatedAt.UnixMilli(),
	}
}

func toApplication(a *store.Application) ApplicationResponse {
	return ApplicationResponse{
		ID:          a.ID,
		PostID:      a.PostID,
		ApplicantID: a.ApplicantID,
		Message:     a.Message,
		Status:      string(a.Status),
		CreatedAt:   a.CreatedAt.UnixMilli(),
		UpdatedAt:   a.UpdatedAt.UnixMilli(),
	}
}

func toSpace(s *store.Space) SpaceResponse {
	return SpaceResponse{ID: s.ID, PostID: s.PostID, Name: s.Name, CreatedAt: s.CreatedAt.UnixMilli()}
}

func toScreeningMessage(m *store.ScreeningMessage) proto.ScreeningMessage {
	return proto.ScreeningMessage{
		ID:            m.ID,
		ApplicationID: m.ApplicationID,
		SenderID:      m.SenderID,
		Body:          m.Body,
		CreatedAt:     m.CreatedAt.UnixMilli(),
	}
}

func toGroupMessage(m *store.GroupMessage) proto.GroupMessage {
	return proto.GroupMessage{
		ID:        m.ID,
		SpaceID:   m.SpaceID,
		SenderID:  m.SenderID,
		Body:      m.Body,
		CreatedAt: m.CreatedAt.UnixMilli(),
	}
}

func toLink(l *store.Link) proto.Link {
	return proto.Link{
		ID:        l.ID,
		SpaceID:   l.SpaceID,
		CreatorID: l.CreatorID,
		Title:     l.Title,
		URL:       l.URL,
		CreatedAt: l.CreatedAt.UnixMilli(),
	}
}

func toTask(t *store.Task) proto.Task {
	return proto.Task{
		ID:          t.ID,
		SpaceID:     t.SpaceID,
		CreatorID:   t.CreatorID,
		Title:       t.Title,
		Description: t.Description,
		Completed:   t.Completed,
		CreatedAt:   t.CreatedAt.UnixMilli(),
		UpdatedAt:   t.UpdatedAt.UnixMilli(),
	}
}

// mapAll applies fn to every element, keeping JSON arrays non-null.
func mapAll[T, R any](in []T, fn func(T) R) []R {
	if len(in) == 0 {
		return []R{}
	}
	return lo.Map(in, func(item T, _ int) R { return fn(item) })
}

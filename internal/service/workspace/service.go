// Package workspace runs the collaboration tools of a Builder Space: group
// chat, shared links, tasks, the member list and teammate presence.
package workspace

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/Aahantrikha/BuilderSpace-sub000/internal/core"
	"github.com/Aahantrikha/BuilderSpace-sub000/internal/proto"
	"github.com/Aahantrikha/BuilderSpace-sub000/internal/service"
	"github.com/Aahantrikha/BuilderSpace-sub000/internal/store"
)

// Store is the persistence a workspace needs.
type Store interface {
	store.UserStore
	store.SpaceStore
	store.MessageStore
	store.BoardStore
}

// Notifier is the part of the router a workspace fans out through.
type Notifier interface {
	BroadcastGroupMessage(ctx context.Context, spaceID int64, msg core.BroadcastMessage, exclude int64) (core.DeliveryStats, error)
	IsUserOnline(userID int64) bool
}

// Service implements the workspace tools.
type Service struct {
	store    Store
	gate     service.Authorizer
	notifier Notifier
	log      zerolog.Logger
}

// NewService creates the workspace service.
func NewService(st Store, gate service.Authorizer, notifier Notifier, logger *zerolog.Logger) *Service {
	s := &Service{store: st, gate: gate, notifier: notifier, log: zerolog.Nop()}
	if logger != nil {
		s.log = logger.With().Str("component", "workspace").Logger()
	}
	return s
}

// ==== Group chat ====

// MessageInput is a chat message body.
type MessageInput struct {
	Body string `json:"body" validate:"required,max=4000"`
}

// SendGroupMessage stores a message in the space chat and delivers it to the other members.
func (s *Service) SendGroupMessage(ctx context.Context, actorID, spaceID int64, in MessageInput) (*store.GroupMessage, error) {
	if err := service.Validate(in); err != nil {
		return nil, err
	}
	if err := s.gate.Authorize(ctx, actorID, core.KindGroupChat, spaceID); err != nil {
		return nil, err
	}

	msg := &store.GroupMessage{SpaceID: spaceID, SenderID: actorID, Body: in.Body}
	if err := s.store.SaveGroupMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("save group message: %w", err)
	}

	payload := proto.GroupMessage{
		ID:        msg.ID,
		SpaceID:   spaceID,
		SenderID:  actorID,
		Body:      msg.Body,
		CreatedAt: msg.CreatedAt.UnixMilli(),
	}
	if sender, err := s.store.GetUserByID(ctx, actorID); err == nil {
		payload.SenderName = sender.Username
	}
	s.broadcast(ctx, spaceID, core.EventGroupMessage, payload, actorID)
	return msg, nil
}

// GroupHistory returns a page of the space chat.
func (s *Service) GroupHistory(ctx context.Context, actorID, spaceID int64, limit int, beforeID *int64) ([]*store.GroupMessage, error) {
	if err := s.gate.Authorize(ctx, actorID, core.KindGroupChat, spaceID); err != nil {
		return nil, err
	}
	msgs, err := s.store.ListGroupMessages(ctx, spaceID, limit, beforeID)
	if err != nil {
		return nil, fmt.Errorf("list group messages: %w", err)
	}
	return msgs, nil
}

// ==== Shared links ====

// LinkInput describes a link to share.
type LinkInput struct {
	Title string `json:"title" validate:"required,max=200"`
	URL   string `json:"url" validate:"required,http_url,max=2048"`
}

// AddLink puts a link on the space's board.
func (s *Service) AddLink(ctx context.Context, actorID, spaceID int64, in LinkInput) (*store.Link, error) {
	if err := service.Validate(in); err != nil {
		return nil, err
	}
	if err := s.gate.Authorize(ctx, actorID, core.KindLinkBoard, spaceID); err != nil {
		return nil, err
	}

	link := &store.Link{SpaceID: spaceID, CreatorID: actorID, Title: in.Title, URL: in.URL}
	if err := s.store.CreateLink(ctx, link); err != nil {
		return nil, fmt.Errorf("create link: %w", err)
	}

	s.broadcast(ctx, spaceID, core.EventLinkAdded, proto.Link{
		ID:        link.ID,
		SpaceID:   spaceID,
		CreatorID: actorID,
		Title:     link.Title,
		URL:       link.URL,
		CreatedAt: link.CreatedAt.UnixMilli(),
	}, actorID)
	return link, nil
}

// ListLinks returns the space's links.
func (s *Service) ListLinks(ctx context.Context, actorID, spaceID int64) ([]*store.Link, error) {
	if err := s.gate.Authorize(ctx, actorID, core.KindLinkBoard, spaceID); err != nil {
		return nil, err
	}
	links, err := s.store.ListLinks(ctx, spaceID)
	if err != nil {
		return nil, fmt.Errorf("list links: %w", err)
	}
	return links, nil
}

// RemoveLink deletes a link; only its creator may do so.
func (s *Service) RemoveLink(ctx context.Context, actorID, linkID int64) error {
	if err := s.gate.AuthorizeOwner(ctx, actorID, core.KindSharedLink, linkID); err != nil {
		return err
	}
	link, err := s.store.GetLink(ctx, linkID)
	if err != nil {
		return s.lookupErr(err, "link")
	}
	if err := s.store.DeleteLink(ctx, linkID); err != nil {
		return s.lookupErr(err, "link")
	}

	s.broadcast(ctx, link.SpaceID, core.EventLinkRemoved, proto.Removed{ID: linkID, SpaceID: link.SpaceID, RemovedBy: actorID}, actorID)
	return nil
}

// ==== Tasks ====

// TaskInput describes a new task.
type TaskInput struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=5000"`
}

// TaskUpdate carries the optional fields of a task edit.
type TaskUpdate struct {
	Title       *string `json:"title" validate:"omitnil,min=1,max=200"`
	Description *string `json:"description" validate:"omitnil,max=5000"`
	Completed   *bool   `json:"completed"`
}

// CreateTask adds a task to the space's board.
func (s *Service) CreateTask(ctx context.Context, actorID, spaceID int64, in TaskInput) (*store.Task, error) {
	if err := service.Validate(in); err != nil {
		return nil, err
	}
	if err := s.gate.Authorize(ctx, actorID, core.KindTaskBoard, spaceID); err != nil {
		return nil, err
	}

	task := &store.Task{SpaceID: spaceID, CreatorID: actorID, Title: in.Title, Description: in.Description}
	if err := s.store.CreateTask(ctx, task); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	s.broadcast(ctx, spaceID, core.EventTaskCreated, taskPayload(task), actorID)
	return task, nil
}

// ListTasks returns the space's tasks, optionally filtered by completion.
func (s *Service) ListTasks(ctx context.Context, actorID, spaceID int64, completed *bool) ([]*store.Task, error) {
	if err := s.gate.Authorize(ctx, actorID, core.KindTaskBoard, spaceID); err != nil {
		return nil, err
	}
	tasks, err := s.store.ListTasks(ctx, spaceID, completed)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// UpdateTask edits a task; any member of its space may do so.
func (s *Service) UpdateTask(ctx context.Context, actorID, taskID int64, in TaskUpdate) (*store.Task, error) {
	if err := service.Validate(in); err != nil {
		return nil, err
	}
	if err := s.gate.Authorize(ctx, actorID, core.KindTask, taskID); err != nil {
		return nil, err
	}

	task, err := s.store.UpdateTask(ctx, taskID, store.TaskPatch{
		Title:       in.Title,
		Description: in.Description,
		Completed:   in.Completed,
	})
	if err != nil {
		return nil, s.lookupErr(err, "task")
	}
	s.broadcast(ctx, task.SpaceID, core.EventTaskUpdated, taskPayload(task), actorID)
	return task, nil
}

// DeleteTask removes a task; only its creator may do so.
func (s *Service) DeleteTask(ctx context.Context, actorID, taskID int64) error {
	if err := s.gate.AuthorizeOwner(ctx, actorID, core.KindTask, taskID); err != nil {
		return err
	}
	task, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		return s.lookupErr(err, "task")
	}
	if err := s.store.DeleteTask(ctx, taskID); err != nil {
		return s.lookupErr(err, "task")
	}

	s.broadcast(ctx, task.SpaceID, core.EventTaskDeleted, proto.Removed{ID: taskID, SpaceID: task.SpaceID, RemovedBy: actorID}, actorID)
	return nil
}

// ==== Members and presence ====

// Member is a space member as shown to teammates.
type Member struct {
	UserID   int64            `json:"user_id"`
	Username string           `json:"username"`
	Role     store.MemberRole `json:"role"`
	Online   bool             `json:"online"`
}

// Members lists the members of a space with their presence.
func (s *Service) Members(ctx context.Context, actorID, spaceID int64) ([]Member, error) {
	if err := s.gate.Authorize(ctx, actorID, core.KindBuilderSpace, spaceID); err != nil {
		return nil, err
	}
	members, err := s.store.ListSpaceMembers(ctx, spaceID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}

	out := make([]Member, 0, len(members))
	for _, m := range members {
		view := Member{UserID: m.UserID, Role: m.Role, Online: s.notifier.IsUserOnline(m.UserID)}
		if u, err := s.store.GetUserByID(ctx, m.UserID); err == nil {
			view.Username = u.Username
		}
		out = append(out, view)
	}
	return out, nil
}

// OnlineTeammates returns the IDs of users sharing a space with actorID who are online now.
func (s *Service) OnlineTeammates(ctx context.Context, actorID int64) ([]int64, error) {
	spaces, err := s.store.ListUserSpaces(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("list spaces: %w", err)
	}

	var teammates []int64
	for _, space := range spaces {
		members, err := s.store.ListSpaceMembers(ctx, space.ID)
		if err != nil {
			return nil, fmt.Errorf("list members: %w", err)
		}
		teammates = append(teammates, lo.Map(members, func(m *store.SpaceMember, _ int) int64 { return m.UserID })...)
	}

	online := lo.Filter(lo.Uniq(lo.Without(teammates, actorID)), func(id int64, _ int) bool {
		return s.notifier.IsUserOnline(id)
	})
	return online, nil
}

func (s *Service) broadcast(ctx context.Context, spaceID int64, t core.EventType, payload any, actorID int64) {
	stats, err := s.notifier.BroadcastGroupMessage(ctx, spaceID, core.NewMessage(t, payload).From(actorID), actorID)
	if err != nil {
		// the write is already committed; members will see it on their next fetch
		s.log.Warn().Err(err).Int64("space_id", spaceID).Str("type", string(t)).Msg("broadcast failed")
		return
	}
	s.log.Debug().
		Int64("space_id", spaceID).
		Str("type", string(t)).
		Int("online", stats.Online).
		Int("offline", stats.Offline).
		Msg("space event delivered")
}

func (s *Service) lookupErr(err error, what string) error {
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%s %w", what, service.ErrNotFound)
	}
	return fmt.Errorf("%s: %w", what, err)
}

func taskPayload(t *store.Task) proto.Task {
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

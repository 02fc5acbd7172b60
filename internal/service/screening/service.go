// Package screening runs the private chat between a founder and an accepted applicant.
package screening

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Aahantrikha/BuilderSpace-sub000/internal/core"
	"github.com/Aahantrikha/BuilderSpace-sub000/internal/proto"
	"github.com/Aahantrikha/BuilderSpace-sub000/internal/service"
	"github.com/Aahantrikha/BuilderSpace-sub000/internal/store"
)

// Store is the persistence screening chats need.
type Store interface {
	store.UserStore
	store.MessageStore
}

// Gate authorizes screening chat access and reports the participants the
// decision was made against.
type Gate interface {
	Authorize(ctx context.Context, actorID int64, kind core.ResourceKind, resourceID int64) error
	AuthorizeParticipant(ctx context.Context, actorID, applicationID int64) (core.Participants, error)
}

// Notifier delivers screening messages.
type Notifier interface {
	BroadcastScreeningMessage(applicationID, founderID, applicantID int64, msg core.BroadcastMessage, exclude int64) core.DeliveryStats
}

// Service implements screening chats.
type Service struct {
	store    Store
	gate     Gate
	notifier Notifier
	log      zerolog.Logger
}

// NewService creates the screening chat service.
func NewService(st Store, gate Gate, notifier Notifier, logger *zerolog.Logger) *Service {
	s := &Service{store: st, gate: gate, notifier: notifier, log: zerolog.Nop()}
	if logger != nil {
		s.log = logger.With().Str("component", "screening").Logger()
	}
	return s
}

// SendInput is a chat message body.
type SendInput struct {
	Body string `json:"body" validate:"required,max=4000"`
}

// Send stores a message from actorID and delivers it to the other participant.
func (s *Service) Send(ctx context.Context, actorID, applicationID int64, in SendInput) (*store.ScreeningMessage, error) {
	if err := service.Validate(in); err != nil {
		return nil, err
	}
	p, err := s.gate.AuthorizeParticipant(ctx, actorID, applicationID)
	if err != nil {
		return nil, err
	}

	msg := &store.ScreeningMessage{ApplicationID: applicationID, SenderID: actorID, Body: in.Body}
	if err := s.store.SaveScreeningMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("save screening message: %w", err)
	}

	payload := proto.ScreeningMessage{
		ID:            msg.ID,
		ApplicationID: applicationID,
		SenderID:      actorID,
		Body:          msg.Body,
		CreatedAt:     msg.CreatedAt.UnixMilli(),
	}
	if sender, err := s.store.GetUserByID(ctx, actorID); err == nil {
		payload.SenderName = sender.Username
	}

	stats := s.notifier.BroadcastScreeningMessage(applicationID, p.FounderID, p.ApplicantID,
		core.NewMessage(core.EventScreeningMessage, payload).From(actorID), actorID)
	s.log.Debug().
		Int64("application_id", applicationID).
		Int64("message_id", msg.ID).
		Bool("live", stats.Online > 0).
		Msg("screening message sent")
	return msg, nil
}

// History returns a page of the chat to one of its participants.
func (s *Service) History(ctx context.Context, actorID, applicationID int64, limit int, beforeID *int64) ([]*store.ScreeningMessage, error) {
	if err := s.gate.Authorize(ctx, actorID, core.KindScreeningChat, applicationID); err != nil {
		return nil, err
	}
	msgs, err := s.store.ListScreeningMessages(ctx, applicationID, limit, beforeID)
	if err != nil {
		return nil, fmt.Errorf("list screening messages: %w", err)
	}
	return msgs, nil
}

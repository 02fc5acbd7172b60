// Package teams runs the recruiting flow: posts, applications, screening
// decisions and turning accepted applicants into Builder Space members.
package teams

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Aahantrikha/BuilderSpace-sub000/internal/activity"
	"github.com/Aahantrikha/BuilderSpace-sub000/internal/core"
	"github.com/Aahantrikha/BuilderSpace-sub000/internal/proto"
	"github.com/Aahantrikha/BuilderSpace-sub000/internal/service"
	"github.com/Aahantrikha/BuilderSpace-sub000/internal/store"
)

var (
	ErrPostNotFound        = fmt.Errorf("post %w", service.ErrNotFound)
	ErrApplicationNotFound = fmt.Errorf("application %w", service.ErrNotFound)
	ErrNotPostOwner        = fmt.Errorf("%w: only the post owner can do this", service.ErrForbidden)
	ErrOwnPost             = fmt.Errorf("%w: cannot apply to your own post", service.ErrInvalidInput)
	ErrAlreadyApplied      = fmt.Errorf("%w: already applied to this post", service.ErrConflict)
	ErrNotPending          = fmt.Errorf("%w: application was already decided", service.ErrConflict)
	ErrNotAccepted         = fmt.Errorf("%w: application is not accepted", service.ErrConflict)
)

// Store is the persistence the recruiting flow needs.
type Store interface {
	store.UserStore
	store.PostStore
	store.SpaceStore
}

// Notifier is the part of the router the recruiting flow fans out through.
type Notifier interface {
	BroadcastScreeningMessage(applicationID, founderID, applicantID int64, msg core.BroadcastMessage, exclude int64) core.DeliveryStats
	BroadcastGroupMessage(ctx context.Context, spaceID int64, msg core.BroadcastMessage, exclude int64) (core.DeliveryStats, error)
}

// Service implements the recruiting flow.
type Service struct {
	store    Store
	notifier Notifier
	events   activity.Publisher
	log      zerolog.Logger
}

// NewService creates the recruiting service. events may be nil.
func NewService(st Store, notifier Notifier, events activity.Publisher, logger *zerolog.Logger) *Service {
	s := &Service{store: st, notifier: notifier, events: events, log: zerolog.Nop()}
	if s.events == nil {
		s.events = activity.Nop{}
	}
	if logger != nil {
		s.log = logger.With().Str("component", "teams").Logger()
	}
	return s
}

// CreatePostInput describes a new post.
type CreatePostInput struct {
	Kind        string `json:"kind" validate:"required,oneof=startup hackathon"`
	Title       string `json:"title" validate:"required,max=120"`
	Description string `json:"description" validate:"max=5000"`
}

// CreatePost publishes a post owned by ownerID.
func (s *Service) CreatePost(ctx context.Context, ownerID int64, in CreatePostInput) (*store.Post, error) {
	if err := service.Validate(in); err != nil {
		return nil, err
	}
	post := &store.Post{
		OwnerID:     ownerID,
		Kind:        store.PostKind(in.Kind),
		Title:       in.Title,
		Description: in.Description,
	}
	if err := s.store.CreatePost(ctx, post); err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}

	s.publish(ctx, activity.PostCreated, ownerID)
	s.log.Info().Int64("post_id", post.ID).Int64("owner_id", ownerID).Msg("post created")
	return post, nil
}

// GetPost returns one post.
func (s *Service) GetPost(ctx context.Context, postID int64) (*store.Post, error) {
	post, err := s.store.GetPost(ctx, postID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("get post: %w", err)
	}
	return post, nil
}

// ListPosts returns the newest posts, optionally of one kind.
func (s *Service) ListPosts(ctx context.Context, kind string, limit int) ([]*store.Post, error) {
	var filter *store.PostKind
	if kind != "" {
		k := store.PostKind(kind)
		if k != store.PostKindStartup && k != store.PostKindHackathon {
			return nil, fmt.Errorf("%w: kind must be one of: startup hackathon", service.ErrInvalidInput)
		}
		filter = &k
	}
	posts, err := s.store.ListPosts(ctx, filter, limit)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return posts, nil
}

// ApplyInput is the applicant's pitch.
type ApplyInput struct {
	Message string `json:"message" validate:"max=2000"`
}

// Apply records applicantID's application to postID.
func (s *Service) Apply(ctx context.Context, applicantID, postID int64, in ApplyInput) (*store.Application, error) {
	if err := service.Validate(in); err != nil {
		return nil, err
	}
	post, err := s.GetPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.OwnerID == applicantID {
		return nil, ErrOwnPost
	}

	app := &store.Application{PostID: postID, ApplicantID: applicantID, Message: in.Message}
	if err := s.store.CreateApplication(ctx, app); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, ErrAlreadyApplied
		}
		return nil, fmt.Errorf("create application: %w", err)
	}

	s.publish(ctx, activity.ApplicationCreated, applicantID)
	return app, nil
}

// ListApplications returns the applications of a post to its owner.
func (s *Service) ListApplications(ctx context.Context, actorID, postID int64) ([]*store.Application, error) {
	post, err := s.GetPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.OwnerID != actorID {
		return nil, ErrNotPostOwner
	}
	apps, err := s.store.ListApplications(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	return apps, nil
}

// AcceptApplication moves a pending application to accepted, which opens its
// screening chat, and tells the applicant.
func (s *Service) AcceptApplication(ctx context.Context, actorID, applicationID int64) (*store.Application, error) {
	app, post, err := s.decidable(ctx, actorID, applicationID)
	if err != nil {
		return nil, err
	}
	if err := s.store.UpdateApplicationStatus(ctx, app.ID, store.ApplicationAccepted); err != nil {
		return nil, fmt.Errorf("accept application: %w", err)
	}
	app.Status = store.ApplicationAccepted

	msg := core.NewMessage(core.EventScreeningChatCreated, proto.ScreeningChatCreated{
		ApplicationID: app.ID,
		PostID:        post.ID,
		PostTitle:     post.Title,
		FounderID:     post.OwnerID,
		ApplicantID:   app.ApplicantID,
	}).From(actorID)
	s.notifier.BroadcastScreeningMessage(app.ID, post.OwnerID, app.ApplicantID, msg, actorID)

	s.publish(ctx, activity.ApplicationAccepted, actorID)
	s.log.Info().Int64("application_id", app.ID).Int64("post_id", post.ID).Msg("application accepted")
	return app, nil
}

// RejectApplication moves a pending application to rejected.
func (s *Service) RejectApplication(ctx context.Context, actorID, applicationID int64) (*store.Application, error) {
	app, _, err := s.decidable(ctx, actorID, applicationID)
	if err != nil {
		return nil, err
	}
	if err := s.store.UpdateApplicationStatus(ctx, app.ID, store.ApplicationRejected); err != nil {
		return nil, fmt.Errorf("reject application: %w", err)
	}
	app.Status = store.ApplicationRejected

	s.publish(ctx, activity.ApplicationRejected, actorID)
	return app, nil
}

// AddToTeam makes an accepted applicant a member of the post's Builder Space,
// creating the space on first use. Existing members are told about the
// newcomer and, when the space is new, about the space itself.
func (s *Service) AddToTeam(ctx context.Context, actorID, applicationID int64) (*store.Space, error) {
	app, post, err := s.ownedApplication(ctx, actorID, applicationID)
	if err != nil {
		return nil, err
	}
	if app.Status != store.ApplicationAccepted {
		return nil, ErrNotAccepted
	}

	space, created, err := s.store.EnsureSpace(ctx, post.ID, post.OwnerID, post.Title)
	if err != nil {
		return nil, fmt.Errorf("ensure space: %w", err)
	}
	added, err := s.store.AddSpaceMember(ctx, space.ID, app.ApplicantID, store.RoleMember)
	if err != nil {
		return nil, fmt.Errorf("add member: %w", err)
	}

	if created {
		s.publish(ctx, activity.SpaceCreated, actorID)
		msg := core.NewMessage(core.EventBuilderSpaceCreated, proto.SpaceCreated{
			SpaceID: space.ID,
			PostID:  post.ID,
			Name:    space.Name,
		}).From(actorID)
		if _, err := s.notifier.BroadcastGroupMessage(ctx, space.ID, msg, actorID); err != nil {
			s.log.Warn().Err(err).Int64("space_id", space.ID).Msg("announce space")
		}
	}

	if added {
		s.publish(ctx, activity.MemberJoined, app.ApplicantID)
		joined := proto.MemberJoined{SpaceID: space.ID, UserID: app.ApplicantID, Role: string(store.RoleMember)}
		if user, err := s.store.GetUserByID(ctx, app.ApplicantID); err == nil {
			joined.Username = user.Username
		}
		msg := core.NewMessage(core.EventTeamMemberJoined, joined).From(actorID)
		if _, err := s.notifier.BroadcastGroupMessage(ctx, space.ID, msg, actorID); err != nil {
			s.log.Warn().Err(err).Int64("space_id", space.ID).Msg("announce member")
		}
		s.log.Info().Int64("space_id", space.ID).Int64("user_id", app.ApplicantID).Msg("member joined")
	}
	return space, nil
}

// MySpaces lists the spaces userID belongs to.
func (s *Service) MySpaces(ctx context.Context, userID int64) ([]*store.Space, error) {
	spaces, err := s.store.ListUserSpaces(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list spaces: %w", err)
	}
	return spaces, nil
}

func (s *Service) ownedApplication(ctx context.Context, actorID, applicationID int64) (*store.Application, *store.Post, error) {
	app, err := s.store.GetApplication(ctx, applicationID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, ErrApplicationNotFound
		}
		return nil, nil, fmt.Errorf("get application: %w", err)
	}
	post, err := s.GetPost(ctx, app.PostID)
	if err != nil {
		return nil, nil, err
	}
	if post.OwnerID != actorID {
		return nil, nil, ErrNotPostOwner
	}
	return app, post, nil
}

func (s *Service) decidable(ctx context.Context, actorID, applicationID int64) (*store.Application, *store.Post, error) {
	app, post, err := s.ownedApplication(ctx, actorID, applicationID)
	if err != nil {
		return nil, nil, err
	}
	if app.Status != store.ApplicationPending {
		return nil, nil, ErrNotPending
	}
	return app, post, nil
}

func (s *Service) publish(ctx context.Context, kind activity.Kind, actorID int64) {
	if err := s.events.Publish(ctx, activity.Notice{Kind: kind, ActorID: actorID}); err != nil {
		s.log.Warn().Err(err).Str("kind", string(kind)).Msg("publish activity")
	}
}

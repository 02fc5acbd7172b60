// Package access decides whether a user may touch a collaboration resource.
// Every decision is made against the membership facts in persistence at the
// time of the call; nothing is cached.
package access

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/Aahantrikha/BuilderSpace-sub000/internal/core"
	"github.com/Aahantrikha/BuilderSpace-sub000/internal/store"
)

// Gate authorizes actors against resources.
type Gate struct {
	resolver core.MembershipResolver
	log      zerolog.Logger
}

// NewGate creates a gate backed by resolver.
func NewGate(resolver core.MembershipResolver, logger *zerolog.Logger) *Gate {
	g := &Gate{resolver: resolver, log: zerolog.Nop()}
	if logger != nil {
		g.log = logger.With().Str("component", "access").Logger()
	}
	return g
}

// Authorize returns nil when actorID may read from or write to the resource.
// Screening chats admit their two participants, team scoped kinds admit the
// space members, and owned items admit the members of the item's space.
func (g *Gate) Authorize(ctx context.Context, actorID int64, kind core.ResourceKind, resourceID int64) error {
	if actorID <= 0 {
		return g.denied(deny(kind, resourceID, ReasonAuthentication), actorID)
	}

	switch {
	case kind.TwoParty():
		_, err := g.authorizeParticipant(ctx, actorID, kind, resourceID)
		return err
	case kind.TeamScoped():
		return g.authorizeMember(ctx, actorID, kind, resourceID, resourceID)
	case kind.Owned():
		own, err := g.resolver.FindCreator(ctx, kind, resourceID)
		if err != nil {
			return g.lookupErr(err, kind, resourceID)
		}
		return g.authorizeMember(ctx, actorID, kind, resourceID, own.SpaceID)
	default:
		return fmt.Errorf("authorize %s: %w", kind, core.ErrUnsupportedKind)
	}
}

// AuthorizeOwner returns nil when actorID created the item. Membership of the
// item's space is checked first, so a creator who left the team is denied
// for membership rather than ownership.
func (g *Gate) AuthorizeOwner(ctx context.Context, actorID int64, kind core.ResourceKind, itemID int64) error {
	if !kind.Owned() {
		return fmt.Errorf("authorize owner of %s: %w", kind, core.ErrUnsupportedKind)
	}
	if actorID <= 0 {
		return g.denied(deny(kind, itemID, ReasonAuthentication), actorID)
	}

	own, err := g.resolver.FindCreator(ctx, kind, itemID)
	if err != nil {
		return g.lookupErr(err, kind, itemID)
	}
	if err := g.authorizeMember(ctx, actorID, kind, itemID, own.SpaceID); err != nil {
		return err
	}
	if own.CreatorID != actorID {
		return g.denied(deny(kind, itemID, ReasonOwnership), actorID)
	}
	return nil
}

// AuthorizeParticipant authorizes actorID for the screening chat of
// applicationID and returns the participants the decision was made against.
func (g *Gate) AuthorizeParticipant(ctx context.Context, actorID, applicationID int64) (core.Participants, error) {
	if actorID <= 0 {
		return core.Participants{}, g.denied(deny(core.KindScreeningChat, applicationID, ReasonAuthentication), actorID)
	}
	return g.authorizeParticipant(ctx, actorID, core.KindScreeningChat, applicationID)
}

func (g *Gate) authorizeParticipant(ctx context.Context, actorID int64, kind core.ResourceKind, applicationID int64) (core.Participants, error) {
	p, err := g.resolver.FindTwoPartyParticipants(ctx, applicationID)
	if err != nil {
		return core.Participants{}, g.lookupErr(err, kind, applicationID)
	}
	if !p.Has(actorID) {
		return core.Participants{}, g.denied(deny(kind, applicationID, ReasonParticipant), actorID)
	}
	return p, nil
}

// authorizeMember checks actorID against the members of spaceID and reports
// denials against kind/resourceID.
func (g *Gate) authorizeMember(ctx context.Context, actorID int64, kind core.ResourceKind, resourceID, spaceID int64) error {
	members, err := g.resolver.ResolveTeamMembers(ctx, core.KindBuilderSpace, spaceID)
	if err != nil {
		return g.lookupErr(err, kind, resourceID)
	}
	if !lo.Contains(members, actorID) {
		return g.denied(deny(kind, resourceID, ReasonMembership), actorID)
	}
	return nil
}

func (g *Gate) lookupErr(err error, kind core.ResourceKind, id int64) error {
	if errors.Is(err, store.ErrNotFound) {
		return notFound(kind, id)
	}
	return fmt.Errorf("authorize %s %d: %w", kind, id, err)
}

func (g *Gate) denied(err *DeniedError, actorID int64) error {
	g.log.Debug().
		Int64("actor_id", actorID).
		Str("kind", string(err.Kind)).
		Int64("resource_id", err.ResourceID).
		Str("reason", string(err.Reason)).
		Msg("access denied")
	return err
}

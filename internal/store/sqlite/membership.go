package sqlite

import (
	"context"
	"fmt"

	"github.com/Aahantrikha/BuilderSpace-sub000/internal/core"
	"github.com/Aahantrikha/BuilderSpace-sub000/internal/store"
)

// ==== core.MembershipResolver implementation ====

// ResolveTeamMembers returns the users entitled to a collaboration resource:
// the two participants of a screening chat, or the members of a space.
func (s *SQLiteStore) ResolveTeamMembers(ctx context.Context, kind core.ResourceKind, resourceID int64) ([]int64, error) {
	switch {
	case kind.TwoParty():
		p, err := s.FindTwoPartyParticipants(ctx, resourceID)
		if err != nil {
			return nil, err
		}
		return []int64{p.FounderID, p.ApplicantID}, nil
	case kind.TeamScoped():
		return s.spaceMemberIDs(ctx, resourceID)
	default:
		return nil, fmt.Errorf("resolve members of %s: %w", kind, core.ErrUnsupportedKind)
	}
}

func (s *SQLiteStore) spaceMemberIDs(ctx context.Context, spaceID int64) ([]int64, error) {
	var exists int
	if err := s.db.QueryRowContext(ctx, `SELECT 1 FROM builder_spaces WHERE id = ?`, spaceID).Scan(&exists); err != nil {
		return nil, wrapReadErr(err, "space", spaceID)
	}
	return s.queryIDs(ctx, `SELECT user_id FROM space_members WHERE space_id = ? ORDER BY user_id`, spaceID)
}

// ResolveUserSpaces returns the IDs of the spaces userID belongs to.
func (s *SQLiteStore) ResolveUserSpaces(ctx context.Context, userID int64) ([]int64, error) {
	return s.queryIDs(ctx, `SELECT space_id FROM space_members WHERE user_id = ? ORDER BY space_id`, userID)
}

// FindCreator returns who created a shared link or task and where it lives.
func (s *SQLiteStore) FindCreator(ctx context.Context, kind core.ResourceKind, resourceID int64) (core.Ownership, error) {
	var query string
	switch kind {
	case core.KindSharedLink:
		query = `SELECT creator_id, space_id FROM shared_links WHERE id = ?`
	case core.KindTask:
		query = `SELECT creator_id, space_id FROM tasks WHERE id = ?`
	default:
		return core.Ownership{}, fmt.Errorf("find creator of %s: %w", kind, core.ErrUnsupportedKind)
	}

	var own core.Ownership
	if err := s.db.QueryRowContext(ctx, query, resourceID).Scan(&own.CreatorID, &own.SpaceID); err != nil {
		return core.Ownership{}, wrapReadErr(err, string(kind), resourceID)
	}
	return own, nil
}

// FindTwoPartyParticipants returns the founder and applicant of an accepted
// application. Applications that are not accepted have no screening chat.
func (s *SQLiteStore) FindTwoPartyParticipants(ctx context.Context, applicationID int64) (core.Participants, error) {
	query := `
		SELECT a.id, a.post_id, p.owner_id, a.applicant_id, a.status
		FROM applications a
		JOIN posts p ON p.id = a.post_id
		WHERE a.id = ?
	`
	var (
		p      core.Participants
		status store.ApplicationStatus
	)
	err := s.db.QueryRowContext(ctx, query, applicationID).Scan(&p.ApplicationID, &p.PostID, &p.FounderID, &p.ApplicantID, &status)
	if err != nil {
		return core.Participants{}, wrapReadErr(err, "screening chat", applicationID)
	}
	if status != store.ApplicationAccepted {
		return core.Participants{}, fmt.Errorf("screening chat %d is %s: %w", applicationID, status, store.ErrNotFound)
	}
	return p, nil
}

func (s *SQLiteStore) queryIDs(ctx context.Context, query string, arg int64) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("query ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ids: %w", err)
	}
	return ids, nil
}

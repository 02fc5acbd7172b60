package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"

	sq "github.com/Masterminds/squirrel"

	"github.com/Aahantrikha/BuilderSpace-sub000/internal/store"
)

// ==== SpaceStore implementation ====

// EnsureSpace returns the space of postID, creating it with founderID as its
// founder on first use.
func (s *SQLiteStore) EnsureSpace(ctx context.Context, postID, founderID int64, name string) (*store.Space, bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var space store.Space
	err = tx.QueryRowContext(ctx,
		`SELECT id, post_id, name, created_at FROM builder_spaces WHERE post_id = ?`, postID,
	).Scan(&space.ID, &space.PostID, &space.Name, &space.CreatedAt)
	switch {
	case err == nil:
		return &space, false, nil
	case !errors.Is(err, sql.ErrNoRows):
		return nil, false, fmt.Errorf("query space: %w", err)
	}

	ts := now()
	result, err := tx.ExecContext(ctx,
		`INSERT INTO builder_spaces (post_id, name, created_at) VALUES (?, ?, ?)`,
		postID, name, ts,
	)
	if err != nil {
		return nil, false, wrapWriteErr(err, "insert space")
	}
	spaceID, err := result.LastInsertId()
	if err != nil {
		return nil, false, fmt.Errorf("get last insert id: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO space_members (space_id, user_id, role, joined_at) VALUES (?, ?, ?, ?)`,
		spaceID, founderID, string(store.RoleFounder), ts,
	); err != nil {
		return nil, false, wrapWriteErr(err, "insert founder")
	}

	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("commit: %w", err)
	}

	return &store.Space{ID: spaceID, PostID: postID, Name: name, CreatedAt: ts}, true, nil
}

// GetSpace retrieves a space by ID.
func (s *SQLiteStore) GetSpace(ctx context.Context, id int64) (*store.Space, error) {
	var space store.Space
	err := s.db.QueryRowContext(ctx,
		`SELECT id, post_id, name, created_at FROM builder_spaces WHERE id = ?`, id,
	).Scan(&space.ID, &space.PostID, &space.Name, &space.CreatedAt)
	if err != nil {
		return nil, wrapReadErr(err, "space", id)
	}
	return &space, nil
}

// ListUserSpaces returns the spaces userID belongs to.
func (s *SQLiteStore) ListUserSpaces(ctx context.Context, userID int64) ([]*store.Space, error) {
	query := `
		SELECT s.id, s.post_id, s.name, s.created_at
		FROM builder_spaces s
		JOIN space_members m ON m.space_id = s.id
		WHERE m.user_id = ?
		ORDER BY s.id ASC
	`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query user spaces: %w", err)
	}
	defer rows.Close()

	var spaces []*store.Space
	for rows.Next() {
		var space store.Space
		if err := rows.Scan(&space.ID, &space.PostID, &space.Name, &space.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan space: %w", err)
		}
		spaces = append(spaces, &space)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate spaces: %w", err)
	}
	return spaces, nil
}

// AddSpaceMember records userID as a member of spaceID.
func (s *SQLiteStore) AddSpaceMember(ctx context.Context, spaceID, userID int64, role store.MemberRole) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO space_members (space_id, user_id, role, joined_at) VALUES (?, ?, ?, ?)`,
		spaceID, userID, string(role), now(),
	)
	if err != nil {
		return false, wrapWriteErr(err, "insert member")
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n == 1, nil
}

// ListSpaceMembers returns the members of a space, founder first.
func (s *SQLiteStore) ListSpaceMembers(ctx context.Context, spaceID int64) ([]*store.SpaceMember, error) {
	query := `
		SELECT space_id, user_id, role, joined_at
		FROM space_members
		WHERE space_id = ?
		ORDER BY CASE role WHEN 'founder' THEN 0 ELSE 1 END, joined_at ASC, user_id ASC
	`
	rows, err := s.db.QueryContext(ctx, query, spaceID)
	if err != nil {
		return nil, fmt.Errorf("query members: %w", err)
	}
	defer rows.Close()

	var members []*store.SpaceMember
	for rows.Next() {
		var m store.SpaceMember
		if err := rows.Scan(&m.SpaceID, &m.UserID, &m.Role, &m.JoinedAt); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate members: %w", err)
	}
	return members, nil
}

// ==== MessageStore implementation ====

// SaveScreeningMessage inserts msg and fills in its ID and creation time.
func (s *SQLiteStore) SaveScreeningMessage(ctx context.Context, msg *store.ScreeningMessage) error {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = now()
	}
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO screening_messages (application_id, sender_id, body, created_at) VALUES (?, ?, ?, ?)`,
		msg.ApplicationID, msg.SenderID, msg.Body, msg.CreatedAt,
	)
	if err != nil {
		return wrapWriteErr(err, "insert screening message")
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}
	msg.ID = id
	return nil
}

// ListScreeningMessages returns a page of the chat, oldest first.
func (s *SQLiteStore) ListScreeningMessages(ctx context.Context, applicationID int64, limit int, beforeID *int64) ([]*store.ScreeningMessage, error) {
	q := pageQuery("screening_messages", "application_id", applicationID, limit, beforeID)
	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build screening history: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query screening messages: %w", err)
	}
	defer rows.Close()

	var msgs []*store.ScreeningMessage
	for rows.Next() {
		var m store.ScreeningMessage
		if err := rows.Scan(&m.ID, &m.ApplicationID, &m.SenderID, &m.Body, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan screening message: %w", err)
		}
		msgs = append(msgs, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate screening messages: %w", err)
	}
	slices.Reverse(msgs)
	return msgs, nil
}

// SaveGroupMessage inserts msg and fills in its ID and creation time.
func (s *SQLiteStore) SaveGroupMessage(ctx context.Context, msg *store.GroupMessage) error {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = now()
	}
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO group_messages (space_id, sender_id, body, created_at) VALUES (?, ?, ?, ?)`,
		msg.SpaceID, msg.SenderID, msg.Body, msg.CreatedAt,
	)
	if err != nil {
		return wrapWriteErr(err, "insert group message")
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}
	msg.ID = id
	return nil
}

// ListGroupMessages returns a page of the group chat, oldest first.
func (s *SQLiteStore) ListGroupMessages(ctx context.Context, spaceID int64, limit int, beforeID *int64) ([]*store.GroupMessage, error) {
	q := pageQuery("group_messages", "space_id", spaceID, limit, beforeID)
	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build group history: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query group messages: %w", err)
	}
	defer rows.Close()

	var msgs []*store.GroupMessage
	for rows.Next() {
		var m store.GroupMessage
		if err := rows.Scan(&m.ID, &m.SpaceID, &m.SenderID, &m.Body, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan group message: %w", err)
		}
		msgs = append(msgs, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate group messages: %w", err)
	}
	slices.Reverse(msgs)
	return msgs, nil
}

// pageQuery selects the newest rows of a chat table, optionally older than beforeID.
func pageQuery(table, scopeCol string, scopeID int64, limit int, beforeID *int64) sq.SelectBuilder {
	q := qb.Select("id", scopeCol, "sender_id", "body", "created_at").
		From(table).
		Where(sq.Eq{scopeCol: scopeID}).
		OrderBy("id DESC").
		Limit(uint64(clampLimit(limit)))
	if beforeID != nil {
		q = q.Where(sq.Lt{"id": *beforeID})
	}
	return q
}

package sqlite

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/Aahantrikha/BuilderSpace-sub000/internal/store"
)

// ==== BoardStore implementation ====

// CreateLink inserts link and fills in its ID and creation time.
func (s *SQLiteStore) CreateLink(ctx context.Context, link *store.Link) error {
	if link.CreatedAt.IsZero() {
		link.CreatedAt = now()
	}
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO shared_links (space_id, creator_id, title, url, created_at) VALUES (?, ?, ?, ?, ?)`,
		link.SpaceID, link.CreatorID, link.Title, link.URL, link.CreatedAt,
	)
	if err != nil {
		return wrapWriteErr(err, "insert link")
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}
	link.ID = id
	return nil
}

// GetLink retrieves a link by ID.
func (s *SQLiteStore) GetLink(ctx context.Context, id int64) (*store.Link, error) {
	var link store.Link
	err := s.db.QueryRowContext(ctx,
		`SELECT id, space_id, creator_id, title, url, created_at FROM shared_links WHERE id = ?`, id,
	).Scan(&link.ID, &link.SpaceID, &link.CreatorID, &link.Title, &link.URL, &link.CreatedAt)
	if err != nil {
		return nil, wrapReadErr(err, "link", id)
	}
	return &link, nil
}

// ListLinks returns the links of a space, newest first.
func (s *SQLiteStore) ListLinks(ctx context.Context, spaceID int64) ([]*store.Link, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, space_id, creator_id, title, url, created_at FROM shared_links WHERE space_id = ? ORDER BY id DESC`,
		spaceID,
	)
	if err != nil {
		return nil, fmt.Errorf("query links: %w", err)
	}
	defer rows.Close()

	var links []*store.Link
	for rows.Next() {
		var link store.Link
		if err := rows.Scan(&link.ID, &link.SpaceID, &link.CreatorID, &link.Title, &link.URL, &link.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan link: %w", err)
		}
		links = append(links, &link)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate links: %w", err)
	}
	return links, nil
}

// DeleteLink removes a link.
func (s *SQLiteStore) DeleteLink(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM shared_links WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete link: %w", err)
	}
	return expectAffected(result, "link", id)
}

// CreateTask inserts task and fills in its ID and timestamps.
func (s *SQLiteStore) CreateTask(ctx context.Context, task *store.Task) error {
	ts := now()
	task.CreatedAt, task.UpdatedAt = ts, ts
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO tasks (space_id, creator_id, title, description, completed, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		task.SpaceID, task.CreatorID, task.Title, task.Description, task.Completed, ts, ts,
	)
	if err != nil {
		return wrapWriteErr(err, "insert task")
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}
	task.ID = id
	return nil
}

var taskColumns = []string{"id", "space_id", "creator_id", "title", "description", "completed", "created_at", "updated_at"}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*store.Task, error) {
	var t store.Task
	if err := row.Scan(&t.ID, &t.SpaceID, &t.CreatorID, &t.Title, &t.Description, &t.Completed, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

// GetTask retrieves a task by ID.
func (s *SQLiteStore) GetTask(ctx context.Context, id int64) (*store.Task, error) {
	query, args, err := qb.Select(taskColumns...).From("tasks").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get task: %w", err)
	}
	task, err := scanTask(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, wrapReadErr(err, "task", id)
	}
	return task, nil
}

// ListTasks returns the tasks of a space in creation order, optionally
// filtered by completion.
func (s *SQLiteStore) ListTasks(ctx context.Context, spaceID int64, completed *bool) ([]*store.Task, error) {
	q := qb.Select(taskColumns...).From("tasks").Where(sq.Eq{"space_id": spaceID}).OrderBy("id ASC")
	if completed != nil {
		q = q.Where(sq.Eq{"completed": *completed})
	}
	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list tasks: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*store.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}
	return tasks, nil
}

// UpdateTask applies the non-nil fields of patch and returns the updated task.
func (s *SQLiteStore) UpdateTask(ctx context.Context, id int64, patch store.TaskPatch) (*store.Task, error) {
	q := qb.Update("tasks").Set("updated_at", now()).Where(sq.Eq{"id": id})
	if patch.Title != nil {
		q = q.Set("title", *patch.Title)
	}
	if patch.Description != nil {
		q = q.Set("description", *patch.Description)
	}
	if patch.Completed != nil {
		q = q.Set("completed", *patch.Completed)
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build update task: %w", err)
	}
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, wrapWriteErr(err, "update task")
	}
	if err := expectAffected(result, "task", id); err != nil {
		return nil, err
	}
	return s.GetTask(ctx, id)
}

// DeleteTask removes a task.
func (s *SQLiteStore) DeleteTask(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return expectAffected(result, "task", id)
}

package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"

	"github.com/Aahantrikha/BuilderSpace-sub000/internal/store"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// qb builds dynamic queries; SQLite uses '?' placeholders.
var qb = sq.StatementBuilder.PlaceholderFormat(sq.Question)

// SQLiteStore implements store.Store and core.MembershipResolver for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New opens the SQLite database at dbPath and applies pending migrations.
func New(dbPath string) (*SQLiteStore, error) {
	return NewContext(context.Background(), dbPath)
}

// NewContext is New with a context bounding the migration run.
func NewContext(ctx context.Context, dbPath string) (*SQLiteStore, error) {
	s, err := Open(dbPath)
	if err != nil {
		return nil, err
	}
	if _, err := s.Migrate(ctx); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// Open opens the database without touching the schema.
func Open(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection; it also keeps :memory: databases shared.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Migrate applies all pending migrations and returns how many ran.
func (s *SQLiteStore) Migrate(ctx context.Context) (int, error) {
	fsys, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return 0, fmt.Errorf("migrations fs: %w", err)
	}
	provider, err := goose.NewProvider(goose.DialectSQLite3, s.db, fsys)
	if err != nil {
		return 0, fmt.Errorf("goose new provider: %w", err)
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return 0, fmt.Errorf("goose up: %w", err)
	}
	return len(results), nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ==== UserStore implementation ====

// CreateUser creates a new user with hashed password.
func (s *SQLiteStore) CreateUser(ctx context.Context, username, passwordHash string) (*store.User, error) {
	query := `
		INSERT INTO users (username, password_hash, created_at)
		VALUES (?, ?, ?)
	`
	result, err := s.db.ExecContext(ctx, query, username, passwordHash, now())
	if err != nil {
		return nil, wrapWriteErr(err, "insert user")
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	return s.GetUserByID(ctx, id)
}

// GetUserByID retrieves a user by ID.
func (s *SQLiteStore) GetUserByID(ctx context.Context, id int64) (*store.User, error) {
	query := `
		SELECT id, username, password_hash, created_at
		FROM users
		WHERE id = ?
	`
	var user store.User
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.CreatedAt,
	)
	if err != nil {
		return nil, wrapReadErr(err, "user", id)
	}

	return &user, nil
}

// GetUserByUsername retrieves a user by username.
func (s *SQLiteStore) GetUserByUsername(ctx context.Context, username string) (*store.User, error) {
	query := `
		SELECT id, username, password_hash, created_at
		FROM users
		WHERE username = ?
	`
	var user store.User
	err := s.db.QueryRowContext(ctx, query, username).Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.CreatedAt,
	)
	if err != nil {
		return nil, wrapReadErr(err, "user", username)
	}

	return &user, nil
}

// ==== PostStore implementation ====

// CreatePost inserts post and fills in its ID and creation time.
func (s *SQLiteStore) CreatePost(ctx context.Context, post *store.Post) error {
	if post.CreatedAt.IsZero() {
		post.CreatedAt = now()
	}
	query := `
		INSERT INTO posts (owner_id, kind, title, description, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	result, err := s.db.ExecContext(ctx, query, post.OwnerID, string(post.Kind), post.Title, post.Description, post.CreatedAt)
	if err != nil {
		return wrapWriteErr(err, "insert post")
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}
	post.ID = id
	return nil
}

// GetPost retrieves a post by ID.
func (s *SQLiteStore) GetPost(ctx context.Context, id int64) (*store.Post, error) {
	query := `
		SELECT id, owner_id, kind, title, description, created_at
		FROM posts
		WHERE id = ?
	`
	var post store.Post
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&post.ID,
		&post.OwnerID,
		&post.Kind,
		&post.Title,
		&post.Description,
		&post.CreatedAt,
	)
	if err != nil {
		return nil, wrapReadErr(err, "post", id)
	}
	return &post, nil
}

// ListPosts returns the newest posts, optionally of one kind.
func (s *SQLiteStore) ListPosts(ctx context.Context, kind *store.PostKind, limit int) ([]*store.Post, error) {
	q := qb.Select("id", "owner_id", "kind", "title", "description", "created_at").
		From("posts").
		OrderBy("id DESC").
		Limit(uint64(clampLimit(limit)))
	if kind != nil {
		q = q.Where(sq.Eq{"kind": string(*kind)})
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list posts: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query posts: %w", err)
	}
	defer rows.Close()

	var posts []*store.Post
	for rows.Next() {
		var post store.Post
		if err := rows.Scan(&post.ID, &post.OwnerID, &post.Kind, &post.Title, &post.Description, &post.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, &post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate posts: %w", err)
	}
	return posts, nil
}

// CreateApplication inserts app as pending and fills in its ID and timestamps.
func (s *SQLiteStore) CreateApplication(ctx context.Context, app *store.Application) error {
	ts := now()
	app.Status = store.ApplicationPending
	app.CreatedAt, app.UpdatedAt = ts, ts

	query := `
		INSERT INTO applications (post_id, applicant_id, message, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	result, err := s.db.ExecContext(ctx, query, app.PostID, app.ApplicantID, app.Message, string(app.Status), ts, ts)
	if err != nil {
		return wrapWriteErr(err, "insert application")
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}
	app.ID = id
	return nil
}

// GetApplication retrieves an application by ID.
func (s *SQLiteStore) GetApplication(ctx context.Context, id int64) (*store.Application, error) {
	query := `
		SELECT id, post_id, applicant_id, message, status, created_at, updated_at
		FROM applications
		WHERE id = ?
	`
	var app store.Application
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&app.ID,
		&app.PostID,
		&app.ApplicantID,
		&app.Message,
		&app.Status,
		&app.CreatedAt,
		&app.UpdatedAt,
	)
	if err != nil {
		return nil, wrapReadErr(err, "application", id)
	}
	return &app, nil
}

// ListApplications returns the applications of a post in submission order.
func (s *SQLiteStore) ListApplications(ctx context.Context, postID int64) ([]*store.Application, error) {
	query := `
		SELECT id, post_id, applicant_id, message, status, created_at, updated_at
		FROM applications
		WHERE post_id = ?
		ORDER BY id ASC
	`
	rows, err := s.db.QueryContext(ctx, query, postID)
	if err != nil {
		return nil, fmt.Errorf("query applications: %w", err)
	}
	defer rows.Close()

	var apps []*store.Application
	for rows.Next() {
		var app store.Application
		if err := rows.Scan(&app.ID, &app.PostID, &app.ApplicantID, &app.Message, &app.Status, &app.CreatedAt, &app.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan application: %w", err)
		}
		apps = append(apps, &app)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate applications: %w", err)
	}
	return apps, nil
}

// UpdateApplicationStatus sets the status of an application.
func (s *SQLiteStore) UpdateApplicationStatus(ctx context.Context, id int64, status store.ApplicationStatus) error {
	query := `UPDATE applications SET status = ?, updated_at = ? WHERE id = ?`
	result, err := s.db.ExecContext(ctx, query, string(status), now(), id)
	if err != nil {
		return wrapWriteErr(err, "update application")
	}
	return expectAffected(result, "application", id)
}

// ==== StatsStore implementation ====

// CountStats counts users, posts, applications and spaces.
func (s *SQLiteStore) CountStats(ctx context.Context) (store.Stats, error) {
	var stats store.Stats
	counters := []struct {
		table string
		dst   *int
	}{
		{"users", &stats.Users},
		{"posts", &stats.Posts},
		{"applications", &stats.Applications},
		{"builder_spaces", &stats.Spaces},
	}
	for _, c := range counters {
		query, args, err := qb.Select("COUNT(*)").From(c.table).ToSql()
		if err != nil {
			return store.Stats{}, fmt.Errorf("build count %s: %w", c.table, err)
		}
		if err := s.db.QueryRowContext(ctx, query, args...).Scan(c.dst); err != nil {
			return store.Stats{}, fmt.Errorf("count %s: %w", c.table, err)
		}
	}
	return stats, nil
}

func now() time.Time {
	return time.Now().UTC()
}

const maxListLimit = 200

func clampLimit(limit int) int {
	if limit <= 0 || limit > maxListLimit {
		return maxListLimit
	}
	return limit
}

func expectAffected(result sql.Result, what string, id any) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %v: %w", what, id, store.ErrNotFound)
	}
	return nil
}

func wrapReadErr(err error, what string, id any) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %v: %w", what, id, store.ErrNotFound)
	}
	return fmt.Errorf("query %s: %w", what, err)
}

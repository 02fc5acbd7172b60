package store

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a uniqueness constraint is violated.
	ErrConflict = errors.New("conflict")
)

// User represents a registered user.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// PostKind distinguishes startup posts from hackathon posts.
type PostKind string

const (
	PostKindStartup   PostKind = "startup"
	PostKindHackathon PostKind = "hackathon"
)

// Post is a recruiting post owned by a founder.
type Post struct {
	ID          int64
	OwnerID     int64
	Kind        PostKind
	Title       string
	Description string
	CreatedAt   time.Time
}

// ApplicationStatus tracks where an application is in screening.
type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "pending"
	ApplicationAccepted ApplicationStatus = "accepted"
	ApplicationRejected ApplicationStatus = "rejected"
)

// Application is a user's request to join a post's team.
type Application struct {
	ID          int64
	PostID      int64
	ApplicantID int64
	Message     string
	Status      ApplicationStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Space is the Builder Space of an accepted team.
type Space struct {
	ID        int64
	PostID    int64
	Name      string
	CreatedAt time.Time
}

// MemberRole defines what a user is within a space.
type MemberRole string

const (
	RoleFounder MemberRole = "founder"
	RoleMember  MemberRole = "member"
)

// SpaceMember is a membership fact.
type SpaceMember struct {
	SpaceID  int64
	UserID   int64
	Role     MemberRole
	JoinedAt time.Time
}

// ScreeningMessage is a message in the two-party chat of an application.
type ScreeningMessage struct {
	ID            int64
	ApplicationID int64
	SenderID      int64
	Body          string
	CreatedAt     time.Time
}

// GroupMessage is a message in a space's group chat.
type GroupMessage struct {
	ID        int64
	SpaceID   int64
	SenderID  int64
	Body      string
	CreatedAt time.Time
}

// Link is an entry on a space's shared link board.
type Link struct {
	ID        int64
	SpaceID   int64
	CreatorID int64
	Title     string
	URL       string
	CreatedAt time.Time
}

// Task is an entry on a space's task board.
type Task struct {
	ID          int64
	SpaceID     int64
	CreatorID   int64
	Title       string
	Description string
	Completed   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TaskPatch carries the optional fields of a task update.
type TaskPatch struct {
	Title       *string
	Description *string
	Completed   *bool
}

// Stats is the set of platform counters pushed to online users.
type Stats struct {
	Users        int `json:"users"`
	Posts        int `json:"posts"`
	Applications int `json:"applications"`
	Spaces       int `json:"spaces"`
}

// UserStore handles user persistence.
type UserStore interface {
	// CreateUser creates a new user with hashed password.
	CreateUser(ctx context.Context, username, passwordHash string) (*User, error)

	// GetUserByID retrieves a user by ID.
	GetUserByID(ctx context.Context, id int64) (*User, error)

	// GetUserByUsername retrieves a user by username.
	GetUserByUsername(ctx context.Context, username string) (*User, error)
}

// PostStore handles posts and applications.
type PostStore interface {
	CreatePost(ctx context.Context, post *Post) error
	GetPost(ctx context.Context, id int64) (*Post, error)
	ListPosts(ctx context.Context, kind *PostKind, limit int) ([]*Post, error)

	// CreateApplication fails with ErrConflict when the applicant already applied.
	CreateApplication(ctx context.Context, app *Application) error
	GetApplication(ctx context.Context, id int64) (*Application, error)
	ListApplications(ctx context.Context, postID int64) ([]*Application, error)
	UpdateApplicationStatus(ctx context.Context, id int64, status ApplicationStatus) error
}

// SpaceStore handles Builder Spaces and their membership facts.
type SpaceStore interface {
	// EnsureSpace returns the post's space, creating it with the owner as founder.
	// created reports whether this call created it.
	EnsureSpace(ctx context.Context, postID, founderID int64, name string) (space *Space, created bool, err error)
	GetSpace(ctx context.Context, id int64) (*Space, error)
	ListUserSpaces(ctx context.Context, userID int64) ([]*Space, error)

	// AddSpaceMember is idempotent; added is false when the fact already existed.
	AddSpaceMember(ctx context.Context, spaceID, userID int64, role MemberRole) (added bool, err error)
	ListSpaceMembers(ctx context.Context, spaceID int64) ([]*SpaceMember, error)
}

// MessageStore handles screening and group chat messages.
type MessageStore interface {
	SaveScreeningMessage(ctx context.Context, msg *ScreeningMessage) error
	// ListScreeningMessages returns up to limit messages older than beforeID (if set), oldest first.
	ListScreeningMessages(ctx context.Context, applicationID int64, limit int, beforeID *int64) ([]*ScreeningMessage, error)

	SaveGroupMessage(ctx context.Context, msg *GroupMessage) error
	// ListGroupMessages returns up to limit messages older than beforeID (if set), oldest first.
	ListGroupMessages(ctx context.Context, spaceID int64, limit int, beforeID *int64) ([]*GroupMessage, error)
}

// BoardStore handles shared links and tasks.
type BoardStore interface {
	CreateLink(ctx context.Context, link *Link) error
	GetLink(ctx context.Context, id int64) (*Link, error)
	ListLinks(ctx context.Context, spaceID int64) ([]*Link, error)
	DeleteLink(ctx context.Context, id int64) error

	CreateTask(ctx context.Context, task *Task) error
	GetTask(ctx context.Context, id int64) (*Task, error)
	ListTasks(ctx context.Context, spaceID int64, completed *bool) ([]*Task, error)
	UpdateTask(ctx context.Context, id int64, patch TaskPatch) (*Task, error)
	DeleteTask(ctx context.Context, id int64) error
}

// StatsStore computes platform counters.
type StatsStore interface {
	CountStats(ctx context.Context) (Stats, error)
}

// Store aggregates all storage interfaces.
type Store interface {
	UserStore
	PostStore
	SpaceStore
	MessageStore
	BoardStore
	StatsStore

	// Close closes the underlying database connection.
	Close() error
}

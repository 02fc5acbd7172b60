package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Aahantrikha/BuilderSpace-sub000/internal/activity"
	"github.com/Aahantrikha/BuilderSpace-sub000/internal/store"
)

var (
	// ErrInvalidCredentials is returned when username/password don't match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserExists is returned when trying to register with existing username.
	ErrUserExists = errors.New("user already exists")
	// ErrInvalidInput is returned when credentials fail validation.
	ErrInvalidInput = errors.New("invalid input")
)

var validate = validator.New()

// Credentials is the username/password pair used to register or log in.
type Credentials struct {
	Username string `json:"username" validate:"required,min=3,max=32,printascii"`
	// bcrypt ignores everything past 72 bytes
	Password string `json:"password" validate:"required,min=6,max=72"`
}

// Session is the outcome of a successful register or login.
type Session struct {
	Token string
	User  *store.User
}

// Service provides authentication operations.
type Service struct {
	store     store.UserStore
	jwtConfig *JWTConfig
	events    activity.Publisher
}

// NewService creates a new authentication service. events may be nil.
func NewService(userStore store.UserStore, jwtConfig *JWTConfig, events activity.Publisher) *Service {
	if events == nil {
		events = activity.Nop{}
	}
	return &Service{
		store:     userStore,
		jwtConfig: jwtConfig,
		events:    events,
	}
}

// Register creates a new user and opens a session for it.
func (s *Service) Register(ctx context.Context, creds Credentials) (*Session, error) {
	creds.Username = strings.TrimSpace(creds.Username)
	if err := validate.Struct(creds); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	hashedPassword, err := HashPassword(creds.Password)
	if err != nil {
		return nil, err
	}

	user, err := s.store.CreateUser(ctx, creds.Username, hashedPassword)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	_ = s.events.Publish(ctx, activity.Notice{Kind: activity.UserRegistered, ActorID: user.ID})
	return s.session(user)
}

// Login validates credentials and opens a session.
func (s *Service) Login(ctx context.Context, creds Credentials) (*Session, error) {
	user, err := s.store.GetUserByUsername(ctx, strings.TrimSpace(creds.Username))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	ok, err := CheckPassword(user.PasswordHash, creds.Password)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}
	return s.session(user)
}

// ValidateToken validates a JWT token and returns the claims.
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	return ValidateToken(s.jwtConfig, tokenString)
}

func (s *Service) session(user *store.User) (*Session, error) {
	token, err := GenerateToken(s.jwtConfig, user.ID, user.Username)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	return &Session{Token: token, User: user}, nil
}

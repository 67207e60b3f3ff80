package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"avtoservis/internal/auth"
	"avtoservis/internal/database"
	"avtoservis/internal/domain"
	"avtoservis/internal/events"
	"avtoservis/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Лимит попыток входа на имя пользователя в окне
const (
	loginAttemptLimit  = 10
	loginAttemptWindow = time.Minute
)

type RegisterInput struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
	Phone     string
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type UserService struct {
	users      domain.UserStore
	sessions   domain.SessionRepository
	tokens     *auth.TokenManager
	eventBus   domain.EventPublisher
	refreshTTL time.Duration
	logger     *zerolog.Logger
}

func NewUserService(
	users domain.UserStore,
	sessions domain.SessionRepository,
	tokens *auth.TokenManager,
	eventBus domain.EventPublisher,
	refreshTTL time.Duration,
	logger *zerolog.Logger,
) *UserService {
	if refreshTTL <= 0 {
		refreshTTL = 30 * 24 * time.Hour
	}
	return &UserService{
		users:      users,
		sessions:   sessions,
		tokens:     tokens,
		eventBus:   eventBus,
		refreshTTL: refreshTTL,
		logger:     logger,
	}
}

// Register creates a new account. The role is always user; promotion happens
// only through the admin surface.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.ToLower(strings.TrimSpace(in.Email))

	if username == "" {
		return nil, newValidationError("username", "is required")
	}
	if email == "" || !strings.Contains(email, "@") {
		return nil, newValidationError("email", "valid email is required")
	}
	if len(in.Password) < 8 {
		return nil, newValidationError("password", "must be at least 8 characters")
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleUser,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Phone:        in.Phone,
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, ErrDuplicateUser
		}
		return nil, err
	}

	if s.eventBus != nil {
		_ = s.eventBus.PublishJSON(events.EventUserRegistered, map[string]string{
			"user_id":  user.ID,
			"username": user.Username,
		})
	}

	return user, nil
}

func (s *UserService) Login(ctx context.Context, username, password string) (*TokenPair, *models.User, error) {
	name := strings.TrimSpace(username)

	// Счетчик попыток живет в session-хранилище, общий для всех инстансов
	allowed, err := s.sessions.CheckRateLimit(ctx, "login:"+strings.ToLower(name), loginAttemptLimit, loginAttemptWindow)
	if err != nil {
		s.logger.Warn().Err(err).Msg("login rate limit check failed")
	} else if !allowed {
		return nil, nil, ErrTooManyRequests
	}

	user, err := s.users.GetUserByUsername(ctx, name)
	if errors.Is(err, database.ErrNotFound) {
		return nil, nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, nil, err
	}

	if !auth.CheckPassword(password, user.PasswordHash) {
		return nil, nil, ErrInvalidCredentials
	}

	pair, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return pair, user, nil
}

// Refresh rotates the refresh token: the presented one is revoked and a fresh
// pair is issued.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	userID, err := s.sessions.GetRefreshToken(ctx, refreshToken)
	if err != nil || userID == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := s.sessions.RevokeRefreshToken(ctx, refreshToken); err != nil {
		s.logger.Warn().Err(err).Msg("failed to revoke refresh token")
	}

	return s.issueTokens(ctx, user)
}

func (s *UserService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.sessions.RevokeRefreshToken(ctx, refreshToken)
}

func (s *UserService) GetUser(ctx context.Context, id string) (*models.User, error) {
	user, err := s.users.GetUserByID(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrNotFound
	}
	return user, err
}

func (s *UserService) ListUsers(ctx context.Context) ([]*models.User, error) {
	return s.users.GetAllUsers(ctx)
}

func (s *UserService) ChangeRole(ctx context.Context, id, role string) error {
	if role != models.RoleUser && role != models.RoleAdmin {
		return newValidationError("role", "unknown role")
	}
	err := s.users.UpdateUserRole(ctx, id, role)
	if errors.Is(err, database.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

func (s *UserService) issueTokens(ctx context.Context, user *models.User) (*TokenPair, error) {
	access, err := s.tokens.Generate(user.ID, user.Role)
	if err != nil {
		return nil, err
	}

	refresh := uuid.NewString()
	if err := s.sessions.StoreRefreshToken(ctx, refresh, user.ID, s.refreshTTL); err != nil {
		return nil, err
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

package auth

import (
	"context"
	"time"

	"golang.org/x/crypto/bcrypt"

	"tillpoint/internal/core/apperror"
	"tillpoint/internal/core/id"
	"tillpoint/pkg/logger"
)

// ServiceConfig holds auth service configuration.
type ServiceConfig struct {
	MaxLoginAttempts  int
	LockDuration      time.Duration
	PasswordMinLength int
}

// DefaultServiceConfig returns default configuration.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		MaxLoginAttempts:  5,
		LockDuration:      15 * time.Minute,
		PasswordMinLength: 8,
	}
}

// LoginResult carries a successful login response.
type LoginResult struct {
	User        *User
	AccessToken string
	ExpiresAt   time.Time
}

// Service provides authentication logic.
type Service struct {
	users      Repository
	jwtService *JWTService
	config     ServiceConfig
}

// NewService creates a new auth service.
func NewService(users Repository, jwtService *JWTService, config ServiceConfig) *Service {
	return &Service{
		users:      users,
		jwtService: jwtService,
		config:     config,
	}
}

// Login verifies credentials and issues an access token. Failed
// attempts count toward a temporary lockout.
func (s *Service) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if apperror.IsNotFound(err) {
			// Same response as a wrong password, so usernames cannot
			// be probed.
			return nil, apperror.NewUnauthorized("invalid credentials")
		}
		return nil, err
	}

	if err := user.CanLogin(); err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		user.RecordFailedLogin(s.config.MaxLoginAttempts, s.config.LockDuration)
		if updateErr := s.users.Update(ctx, user); updateErr != nil {
			logger.Warn(ctx, "failed to record login failure", "username", username, "error", updateErr)
		}
		return nil, apperror.NewUnauthorized("invalid credentials")
	}

	user.RecordSuccessfulLogin()
	if err := s.users.Update(ctx, user); err != nil {
		logger.Warn(ctx, "failed to record login success", "username", username, "error", err)
	}

	token, expiresAt, err := s.jwtService.GenerateAccessToken(user.ID.String(), user.Username, user.Role)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}

	logger.Info(ctx, "user logged in", "userId", user.ID, "username", user.Username)
	return &LoginResult{User: user, AccessToken: token, ExpiresAt: expiresAt}, nil
}

// CreateUser registers a new user with a bcrypt-hashed password.
func (s *Service) CreateUser(ctx context.Context, username, password, fullName, role string) (*User, error) {
	if len(password) < s.config.PasswordMinLength {
		return nil, apperror.NewValidation("password too short").
			WithDetail("minLength", s.config.PasswordMinLength)
	}

	if existing, err := s.users.GetByUsername(ctx, username); err == nil && existing != nil {
		return nil, apperror.NewDuplicate("user", "username", username)
	} else if err != nil && !apperror.IsNotFound(err) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}

	user := NewUser(username, string(hash), role)
	user.FullName = fullName
	if err := user.Validate(ctx); err != nil {
		return nil, err
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	logger.Info(ctx, "user created", "userId", user.ID, "username", username, "role", role)
	return user, nil
}

// ChangePassword verifies the current password and sets a new one.
func (s *Service) ChangePassword(ctx context.Context, userID id.ID, current, next string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)); err != nil {
		return apperror.NewUnauthorized("current password is incorrect")
	}
	if len(next) < s.config.PasswordMinLength {
		return apperror.NewValidation("password too short").
			WithDetail("minLength", s.config.PasswordMinLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return apperror.NewInternal(err)
	}

	user.PasswordHash = string(hash)
	user.UpdatedAt = time.Now()
	user.Version++
	return s.users.Update(ctx, user)
}

// GetByID returns a user by ID.
func (s *Service) GetByID(ctx context.Context, userID id.ID) (*User, error) {
	return s.users.GetByID(ctx, userID)
}

// List returns all users.
func (s *Service) List(ctx context.Context) ([]*User, error) {
	return s.users.List(ctx)
}

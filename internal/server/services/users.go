// Package services contains server-side business logic. This file implements
// UserService, which handles signup, login, and session verification.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/ideforge/internal/common"
	"github.com/dmitrijs2005/ideforge/internal/logging"
	"github.com/dmitrijs2005/ideforge/internal/server/auth"
	"github.com/dmitrijs2005/ideforge/internal/server/config"
	"github.com/dmitrijs2005/ideforge/internal/server/models"
	"github.com/dmitrijs2005/ideforge/internal/server/repositories/repomanager"
)

// Session is the authenticated identity carried by a verified token.
type Session struct {
	UserID string
	Email  string
}

// AuthResult is returned by Signup and Login.
type AuthResult struct {
	User  *models.User
	Token string
}

// UserService provides authentication-related operations:
// - Signup: create users
// - Login: verify credentials and mint tokens
// - Authenticate: verify a token and recover the session
type UserService struct {
	db            *sql.DB
	repomanager   repomanager.RepositoryManager
	jwtSecret     []byte
	tokenValidity time.Duration
	log           logging.Logger
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, log logging.Logger) *UserService {
	validity := cfg.TokenValidityDuration
	if validity <= 0 {
		validity = common.SessionTTL
	}
	return &UserService{
		db:            db,
		repomanager:   m,
		jwtSecret:     []byte(cfg.SecretKey),
		tokenValidity: validity,
		log:           log.With("module", "users"),
	}
}

// TokenValidity is the lifetime of issued tokens.
func (s *UserService) TokenValidity() time.Duration { return s.tokenValidity }

func (s *UserService) Signup(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: Email and password are required", common.ErrValidation)
	}
	if len(password) < common.MinPasswordLength {
		return nil, fmt.Errorf("%w: Password must be at least %d characters", common.ErrValidation, common.MinPasswordLength)
	}
	if len(password) > common.MaxPasswordBytes {
		return nil, fmt.Errorf("%w: Password must be at most %d bytes", common.ErrValidation, common.MaxPasswordBytes)
	}

	repo := s.repomanager.Users(s.db)

	_, err := repo.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, common.ErrAlreadyExists
	case !errors.Is(err, common.ErrorNotFound):
		return nil, fmt.Errorf("error looking up user: %w", err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	// The unique index still catches a concurrent signup for the same email.
	user, err := repo.Create(ctx, email, hash)
	if err != nil {
		if errors.Is(err, common.ErrAlreadyExists) {
			return nil, common.ErrAlreadyExists
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	s.log.Info(ctx, "user signed up", "user_id", user.ID)
	return s.issue(user)
}

// Login returns common.ErrorUnauthorized for unknown emails and wrong
// passwords alike.
func (s *UserService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: Email and password are required", common.ErrValidation)
	}

	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	hash := ""
	switch {
	case err == nil:
		hash = user.PasswordHash
	case !errors.Is(err, common.ErrorNotFound):
		return nil, fmt.Errorf("error looking up user: %w", err)
	}

	ok, err := auth.CheckPassword(hash, password)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, common.ErrorUnauthorized
	}

	return s.issue(user)
}

// Authenticate verifies token and returns its session.
func (s *UserService) Authenticate(token string) (*Session, error) {
	if token == "" {
		return nil, common.ErrorUnauthorized
	}
	claims, err := auth.ParseToken(token, s.jwtSecret)
	if err != nil {
		return nil, err
	}
	return &Session{UserID: claims.UserID, Email: claims.Email}, nil
}

// Me loads the account behind a session. A token for a deleted user yields
// common.ErrorNotFound.
func (s *UserService) Me(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, fmt.Errorf("%w: User not found", common.ErrorNotFound)
		}
		return nil, err
	}
	return user, nil
}

func (s *UserService) issue(user *models.User) (*AuthResult, error) {
	token, err := auth.GenerateToken(user.ID, user.Email, s.jwtSecret, s.tokenValidity)
	if err != nil {
		return nil, fmt.Errorf("%w: sign token: %v", common.ErrorInternal, err)
	}
	return &AuthResult{User: user, Token: token}, nil
}

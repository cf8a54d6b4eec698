package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/arthub/backend/internal/auth"
	apierrors "github.com/arthub/backend/internal/errors"
	"github.com/arthub/backend/internal/models"
	"github.com/arthub/backend/internal/store"
)

// AuthResult is returned on successful registration or login
type AuthResult struct {
	Token     string      `json:"token"`
	User      models.User `json:"user"`
	ExpiresAt time.Time   `json:"expires_at"`
}

// RegisterRequest carries the signup fields
type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=30"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginRequest authenticates by username or email
type LoginRequest struct {
	Identifier string `json:"usernameOrEmail" binding:"required"`
	Password   string `json:"password" binding:"required"`
}

// Register creates an account and returns a signed token
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*AuthResult, error) {
	username := strings.TrimSpace(req.Username)
	if err := validateUsername(username); err != nil {
		return nil, err
	}

	hash, err := s.auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		ID:           newID(),
		Username:     username,
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: hash,
		CreatedAt:    now(),
		UpdatedAt:    now(),
	}
	if err := s.store.Users().Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, apierrors.BadRequest("username or email already taken")
		}
		return nil, err
	}

	s.log.Info("user registered", zap.String("username", user.Username))
	return s.issueToken(user)
}

// Login authenticates by username or email
func (s *Service) Login(ctx context.Context, req LoginRequest) (*AuthResult, error) {
	identifier := strings.TrimSpace(req.Identifier)

	var user *models.User
	var err error
	if strings.Contains(identifier, "@") {
		user, err = s.store.Users().GetByEmail(ctx, identifier)
	} else {
		user, err = s.store.Users().GetByUsername(ctx, identifier)
	}
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apierrors.Unauthorized("invalid credentials")
		}
		return nil, err
	}

	if err := s.auth.CheckPassword(user.PasswordHash, req.Password); err != nil {
		return nil, apierrors.Unauthorized("invalid credentials")
	}
	if user.Banned {
		return nil, apierrors.Forbidden("account is banned: " + user.BanReason)
	}

	return s.issueToken(user)
}

// ValidateToken resolves a bearer token to a live user record
func (s *Service) ValidateToken(ctx context.Context, token string) (*models.User, error) {
	claims, err := s.auth.ValidateToken(token)
	if err != nil {
		return nil, apierrors.Unauthorized("invalid token")
	}
	user, err := s.store.Users().GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apierrors.Unauthorized("invalid token")
		}
		return nil, err
	}
	return user, nil
}

func (s *Service) issueToken(user *models.User) (*AuthResult, error) {
	token, expiresAt, err := s.auth.GenerateToken(auth.Claims{
		UserID:   user.ID,
		Email:    user.Email,
		Username: user.Username,
		IsAdmin:  user.IsAdmin,
	})
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: *user, ExpiresAt: expiresAt}, nil
}

func validateUsername(username string) error {
	if len(username) < 3 || len(username) > 30 {
		return apierrors.ValidationError("username", "must be between 3 and 30 characters")
	}
	for _, r := range username {
		if !isUsernameRune(r) {
			return apierrors.ValidationError("username", "may only contain letters, digits, underscores and hyphens")
		}
	}
	return nil
}

func isUsernameRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '_' || r == '-':
		return true
	}
	return false
}

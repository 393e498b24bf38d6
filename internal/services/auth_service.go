package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"pos_backoffice/internal/models"
	"pos_backoffice/internal/repositories"
	"pos_backoffice/pkg/utils"

	"golang.org/x/crypto/bcrypt"
)

// --- Custom Service Errors ---
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUsernameExists     = errors.New("username already exists")
	ErrRoleNotFound       = errors.New("specified role not found")
	ErrTokenGeneration    = errors.New("failed to generate token")
)

const minPasswordLength = 8

// --- Data Transfer Objects (DTOs) ---

// LoginRequest DTO
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RegisterUserRequest DTO
type RegisterUserRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
	FullName string `json:"full_name"`
	Role     string `json:"role"` // admin or cashier; cashier when empty
}

// AuthResponse DTO
type AuthResponse struct {
	User        *models.User `json:"user"`
	AccessToken string       `json:"access_token"`
	ExpiresAt   time.Time    `json:"expires_at"`
}

// --- AuthService Interface ---
type AuthService interface {
	RegisterUser(ctx context.Context, req RegisterUserRequest) (*models.User, error)
	LoginUser(ctx context.Context, req LoginRequest) (*AuthResponse, error)
	GetUserProfile(ctx context.Context, userID int64) (*models.User, error)
	// EnsureAdmin creates the first admin account when the username is free.
	EnsureAdmin(ctx context.Context, username, password string) error
}

// --- authService Implementation ---
type authService struct {
	store  repositories.Store
	tokens *utils.TokenIssuer
}

// NewAuthService creates a new instance of AuthService.
func NewAuthService(store repositories.Store, tokens *utils.TokenIssuer) AuthService {
	return &authService{store: store, tokens: tokens}
}

func normalizeRole(role string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case "", models.RoleCashier:
		return models.RoleCashier, nil
	case models.RoleAdmin:
		return models.RoleAdmin, nil
	default:
		return "", fmt.Errorf("%w: '%s'", ErrRoleNotFound, role)
	}
}

// RegisterUser handles the business logic for user registration.
func (s *authService) RegisterUser(ctx context.Context, req RegisterUserRequest) (*models.User, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", ErrValidation)
	}
	if len(req.Password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrValidation, minPasswordLength)
	}
	role, err := normalizeRole(req.Role)
	if err != nil {
		return nil, err
	}

	hashedPasswordBytes, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     username,
		PasswordHash: string(hashedPasswordBytes),
		FullName:     utils.NewNullString(req.FullName),
		Role:         role,
		IsActive:     true,
	}
	err = s.store.WithinTx(ctx, func(r *repositories.Repos) error {
		return r.Users.Create(ctx, user)
	})
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, fmt.Errorf("%w: %s", ErrUsernameExists, username)
		}
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	utils.LogInfo("User registered", map[string]interface{}{"user_id": user.ID, "username": user.Username, "role": user.Role})
	user.PasswordHash = ""
	return user, nil
}

// LoginUser handles user login and token generation.
func (s *authService) LoginUser(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	var user *models.User
	err := s.store.WithinTx(ctx, func(r *repositories.Repos) error {
		var err error
		user, err = r.Users.FindByUsername(ctx, strings.TrimSpace(req.Username))
		return err
	})
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login attempt failed: %w", err)
	}

	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	accessToken, expiresAt, err := s.tokens.GenerateAccessToken(user.ID, user.Username, user.Role)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenGeneration, err)
	}

	user.PasswordHash = ""
	return &AuthResponse{User: user, AccessToken: accessToken, ExpiresAt: expiresAt}, nil
}

// GetUserProfile retrieves a user's profile by their ID.
func (s *authService) GetUserProfile(ctx context.Context, userID int64) (*models.User, error) {
	var user *models.User
	err := s.store.WithinTx(ctx, func(r *repositories.Repos) error {
		var err error
		user, err = r.Users.FindByID(ctx, userID)
		return err
	})
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to retrieve user profile: %w", err)
	}
	user.PasswordHash = ""
	return user, nil
}

func (s *authService) EnsureAdmin(ctx context.Context, username, password string) error {
	if strings.TrimSpace(username) == "" || password == "" {
		return nil
	}
	_, err := s.RegisterUser(ctx, RegisterUserRequest{Username: username, Password: password, Role: models.RoleAdmin})
	if errors.Is(err, ErrUsernameExists) {
		return nil
	}
	return err
}

package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"taskboard/dto"
	"taskboard/model"
	"taskboard/repository"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid username or password")

type AuthService struct {
	users     repository.UserRepository
	tokens    repository.TokenRepository
	jwt       *JWTService
	directory *UserDirectory
}

func NewAuthService(users repository.UserRepository, tokens repository.TokenRepository, jwt *JWTService, directory *UserDirectory) *AuthService {
	return &AuthService{users: users, tokens: tokens, jwt: jwt, directory: directory}
}

// Register creates an account and signs it in. Role defaults to USER.
func (s *AuthService) Register(ctx context.Context, req dto.RegisterRequest) (*dto.AuthResponse, error) {
	role := req.Role
	if role == "" {
		role = model.RoleUser
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user := &model.User{
		ID:        uuid.New().String(),
		Username:  req.Username,
		Email:     req.Email,
		Password:  string(hashed),
		Role:      role,
		CreatedAt: time.Now(),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	if s.directory != nil {
		s.directory.Invalidate(ctx)
	}
	slog.Info("user registered", "userId", user.ID, "username", user.Username, "role", user.Role)
	return s.issue(ctx, user)
}

// Login checks credentials, revokes earlier refresh tokens and issues a
// new token pair.
func (s *AuthService) Login(ctx context.Context, req dto.LoginRequest) (*dto.AuthResponse, error) {
	user, err := s.users.FindUserByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if err := s.tokens.RevokeUserTokens(ctx, user.ID); err != nil {
		return nil, err
	}
	return s.issue(ctx, user)
}

// Refresh exchanges a valid refresh token for a new access token. The
// refresh token must still be stored and unrevoked.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*dto.AuthResponse, error) {
	claims, err := s.jwt.ParseRefreshToken(refreshToken)
	if err != nil {
		return nil, err
	}
	active, err := s.tokens.ActiveRefreshTokens(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	known := false
	for _, t := range active {
		if t.TokenID == claims.ID && CompareRefreshToken(t.TokenHash, refreshToken) {
			known = true
			break
		}
	}
	if !known {
		return nil, ErrInvalidToken
	}
	user, err := s.users.FindUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	access, err := s.jwt.CreateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to create access token: %w", err)
	}
	return &dto.AuthResponse{AccessToken: access, RefreshToken: refreshToken, User: *user}, nil
}

func (s *AuthService) issue(ctx context.Context, user *model.User) (*dto.AuthResponse, error) {
	access, err := s.jwt.CreateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to create access token: %w", err)
	}
	refresh, record, err := s.jwt.CreateRefreshToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create refresh token: %w", err)
	}
	if err := s.tokens.SaveRefreshToken(ctx, record); err != nil {
		return nil, err
	}
	return &dto.AuthResponse{AccessToken: access, RefreshToken: refresh, User: *user}, nil
}

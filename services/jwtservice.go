package services

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"time"

	"taskboard/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const issuer = "taskboard"

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

type JWTConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// JWTService signs and verifies HS256 access and refresh tokens.
type JWTService struct {
	cfg JWTConfig
	now func() time.Time
}

func NewJWTService(cfg JWTConfig) *JWTService {
	if cfg.RefreshSecret == "" {
		cfg.RefreshSecret = cfg.AccessSecret
	}
	return &JWTService{cfg: cfg, now: time.Now}
}

func (s *JWTService) CreateAccessToken(user *model.User) (string, error) {
	now := s.now()
	claims := &model.AccessClaims{
		UserID:    user.ID,
		Username:  user.Username,
		Role:      user.Role,
		TokenType: model.TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.AccessTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.AccessSecret))
}

// CreateRefreshToken returns a signed refresh token together with the
// record to persist for it.
func (s *JWTService) CreateRefreshToken(userID string) (string, *model.RefreshToken, error) {
	now := s.now()
	tokenID := uuid.New().String()
	claims := &model.AccessClaims{
		UserID:    userID,
		TokenType: model.TokenTypeRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        tokenID,
			Issuer:    issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.RefreshTTL)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.RefreshSecret))
	if err != nil {
		return "", nil, err
	}
	hash, err := HashRefreshToken(signed)
	if err != nil {
		return "", nil, err
	}
	return signed, &model.RefreshToken{
		TokenID:   tokenID,
		UserID:    userID,
		TokenHash: hash,
		CreatedAt: now,
		ExpiresAt: now.Add(s.cfg.RefreshTTL),
	}, nil
}

func (s *JWTService) ParseAccessToken(tokenString string) (*model.AccessClaims, error) {
	return s.parse(tokenString, s.cfg.AccessSecret, model.TokenTypeAccess)
}

func (s *JWTService) ParseRefreshToken(tokenString string) (*model.AccessClaims, error) {
	return s.parse(tokenString, s.cfg.RefreshSecret, model.TokenTypeRefresh)
}

func (s *JWTService) parse(tokenString, secret, tokenType string) (*model.AccessClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &model.AccessClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*model.AccessClaims)
	if !ok || !token.Valid || claims.TokenType != tokenType || claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// HashRefreshToken hashes a refresh token for storage. The token is reduced
// with SHA-256 first because bcrypt only reads 72 bytes of input.
func HashRefreshToken(token string) (string, error) {
	sum := sha256.Sum256([]byte(token))
	hashed, err := bcrypt.GenerateFromPassword(sum[:], bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func CompareRefreshToken(hash, token string) bool {
	sum := sha256.Sum256([]byte(token))
	return bcrypt.CompareHashAndPassword([]byte(hash), sum[:]) == nil
}

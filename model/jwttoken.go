package model

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

type AccessClaims struct {
	UserID    string `json:"userId"`
	Username  string `json:"username"`
	Role      Role   `json:"role,omitempty"`
	TokenType string `json:"tokenType"`
	jwt.RegisteredClaims
}

// RefreshToken is the stored form of an issued refresh token. Only the
// hash of the token is persisted.
type RefreshToken struct {
	TokenID   string    `json:"tokenId" firestore:"tokenid,omitempty" gorm:"primaryKey;size:36"`
	UserID    string    `json:"userId" firestore:"userid,omitempty" gorm:"index;size:36;not null"`
	TokenHash string    `json:"-" firestore:"tokenhash,omitempty" gorm:"not null"`
	Revoked   bool      `json:"revoked" firestore:"revoked"`
	CreatedAt time.Time `json:"createdAt" firestore:"createdat,omitempty"`
	ExpiresAt time.Time `json:"expiresAt" firestore:"expiresat,omitempty"`
}

func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

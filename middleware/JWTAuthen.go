package middleware

import (
	"errors"
	"net/http"
	"strings"

	"taskboard/dto"
	"taskboard/model"
	"taskboard/services"

	"github.com/gin-gonic/gin"
)

// Context keys set by the token middlewares.
const (
	KeyUserID       = "userId"
	KeyRole         = "role"
	KeyClaims       = "claims"
	KeyRefreshToken = "refreshToken"
)

func bearerToken(c *gin.Context) (string, bool) {
	header := c.Request.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || scheme != "Bearer" || token == "" {
		return "", false
	}
	return token, true
}

func abort(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, dto.ErrorResponse{Error: msg})
}

// AccessTokenMiddleware requires a valid access token and stores its
// claims, user id and role in the context.
func AccessTokenMiddleware(jwtService *services.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Header.Get("Authorization") == "" {
			abort(c, http.StatusUnauthorized, "Authorization header is missing")
			return
		}
		token, ok := bearerToken(c)
		if !ok {
			abort(c, http.StatusUnauthorized, "Invalid token format")
			return
		}

		claims, err := jwtService.ParseAccessToken(token)
		if err != nil {
			if errors.Is(err, services.ErrExpiredToken) {
				abort(c, http.StatusUnauthorized, "Token is expired")
				return
			}
			abort(c, http.StatusUnauthorized, "Token is invalid")
			return
		}

		c.Set(KeyClaims, claims)
		c.Set(KeyUserID, claims.UserID)
		c.Set(KeyRole, claims.Role)
		c.Next()
	}
}

// AdminMiddleware lets only ADMIN callers through. It must run after
// AccessTokenMiddleware.
func AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := RoleFrom(c)
		if !ok {
			abort(c, http.StatusUnauthorized, "Claims not found")
			return
		}
		if role != model.RoleAdmin {
			abort(c, http.StatusForbidden, "Forbidden")
			return
		}
		c.Next()
	}
}

// RequirePermission lets a request through when the caller's role grants
// any of perms.
func RequirePermission(perms ...model.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := RoleFrom(c)
		if !ok {
			abort(c, http.StatusUnauthorized, "Claims not found")
			return
		}
		if !role.CanAny(perms...) {
			abort(c, http.StatusForbidden, "Forbidden")
			return
		}
		c.Next()
	}
}

// RefreshTokenMiddleware validates the refresh token carried in the
// Authorization header.
func RefreshTokenMiddleware(jwtService *services.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			abort(c, http.StatusUnauthorized, "Refresh token is missing")
			return
		}
		claims, err := jwtService.ParseRefreshToken(token)
		if err != nil {
			abort(c, http.StatusUnauthorized, "Invalid refresh token")
			return
		}
		c.Set(KeyUserID, claims.UserID)
		c.Set(KeyRefreshToken, token)
		c.Next()
	}
}

// Principal returns the authenticated caller stored by
// AccessTokenMiddleware.
func Principal(c *gin.Context) services.Principal {
	role, _ := RoleFrom(c)
	return services.Principal{UserID: c.GetString(KeyUserID), Role: role}
}

func RoleFrom(c *gin.Context) (model.Role, bool) {
	v, exists := c.Get(KeyRole)
	if !exists {
		return "", false
	}
	role, ok := v.(model.Role)
	return role, ok
}

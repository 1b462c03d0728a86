// Package controller holds the helpers shared by the HTTP handlers.
package controller

import (
	"errors"
	"log/slog"
	"net/http"

	"taskboard/dto"
	"taskboard/repository"
	"taskboard/services"

	"github.com/gin-gonic/gin"
)

// BindJSON decodes the body into req and answers 400 with field errors
// when it does not validate.
func BindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:  "Invalid input",
			Fields: dto.FieldErrors(err),
		})
		return false
	}
	return true
}

// StatusFor maps service and repository errors onto HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, repository.ErrTaskNotFound), errors.Is(err, repository.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrInvalidAssignee), errors.Is(err, services.ErrEmptyUpdate):
		return http.StatusBadRequest
	case errors.Is(err, repository.ErrUserExists):
		return http.StatusConflict
	case errors.Is(err, services.ErrInvalidCredentials),
		errors.Is(err, services.ErrInvalidToken),
		errors.Is(err, services.ErrExpiredToken):
		return http.StatusUnauthorized
	}
	return http.StatusInternalServerError
}

// RespondError writes err as a JSON error body. Unexpected errors are
// logged and hidden from the client.
func RespondError(c *gin.Context, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
		c.JSON(status, dto.ErrorResponse{Error: "Internal server error"})
		return
	}
	c.JSON(status, dto.ErrorResponse{Error: err.Error()})
}

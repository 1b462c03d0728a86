// Package repository defines the storage ports of the task API. Two
// implementations exist: gormrepo (SQLite through gorm) and firestorerepo.
package repository

import (
	"context"
	"errors"

	"taskboard/model"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrUserExists   = errors.New("user already exists")
	ErrTaskNotFound = errors.New("task not found")
)

const (
	DefaultPageSize = 100
	MaxPageSize     = 500
	// MaxPage bounds the page index so page*size cannot overflow an offset.
	MaxPage = 1_000_000
)

type UserRepository interface {
	// CreateUser stores u. It returns ErrUserExists when the username or
	// email is already taken.
	CreateUser(ctx context.Context, u *model.User) error
	FindUserByID(ctx context.Context, id string) (*model.User, error)
	FindUserByUsername(ctx context.Context, username string) (*model.User, error)
	FindUserByEmail(ctx context.Context, email string) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
}

type TaskRepository interface {
	CreateTask(ctx context.Context, t *model.Task) error
	// FindTaskByID returns the task with its assignee and creator snapshots.
	FindTaskByID(ctx context.Context, id string) (*model.Task, error)
	// UpdateTask overwrites the mutable fields of the stored task.
	UpdateTask(ctx context.Context, t *model.Task) error
	DeleteTask(ctx context.Context, id string) error
	// ListTasks returns tasks matching q ordered by creation time.
	ListTasks(ctx context.Context, q model.TaskQuery) (*model.TaskPage, error)
}

type TokenRepository interface {
	SaveRefreshToken(ctx context.Context, t *model.RefreshToken) error
	// ActiveRefreshTokens returns the unrevoked, unexpired tokens of userID.
	ActiveRefreshTokens(ctx context.Context, userID string) ([]model.RefreshToken, error)
	RevokeUserTokens(ctx context.Context, userID string) error
}

// Store bundles every repository behind one backend.
type Store interface {
	UserRepository
	TaskRepository
	TokenRepository
	// Ping checks that the backend answers.
	Ping(ctx context.Context) error
	Close() error
}

// NormalizePage clamps a page request to sane bounds.
func NormalizePage(page, size int) (int, int) {
	if page < 0 {
		page = 0
	}
	if size <= 0 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	if page > MaxPage {
		page = MaxPage
	}
	return page, size
}

package services

import (
	"context"
	"log/slog"

	"taskboard/model"
	"taskboard/repository"

	"golang.org/x/sync/singleflight"
)

const userListKey = "users:all"

// Cache is the cache-aside store used by UserDirectory.
type Cache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any) error
	Delete(ctx context.Context, key string) error
}

// UserDirectory serves the user list, optionally through a cache.
// Concurrent misses are collapsed into one repository read.
type UserDirectory struct {
	users repository.UserRepository
	cache Cache
	group singleflight.Group
}

// NewUserDirectory builds a directory; cache may be nil.
func NewUserDirectory(users repository.UserRepository, cache Cache) *UserDirectory {
	return &UserDirectory{users: users, cache: cache}
}

func (d *UserDirectory) List(ctx context.Context) ([]model.User, error) {
	if d.cache != nil {
		var cached []model.User
		found, err := d.cache.Get(ctx, userListKey, &cached)
		if err != nil {
			slog.Warn("user cache read failed", "error", err)
		}
		if found {
			return cached, nil
		}
	}

	v, err, _ := d.group.Do(userListKey, func() (any, error) {
		return d.users.ListUsers(ctx)
	})
	if err != nil {
		return nil, err
	}
	users := v.([]model.User)

	if d.cache != nil {
		if err := d.cache.Set(ctx, userListKey, users); err != nil {
			slog.Warn("user cache write failed", "error", err)
		}
	}
	return users, nil
}

func (d *UserDirectory) Get(ctx context.Context, id string) (*model.User, error) {
	return d.users.FindUserByID(ctx, id)
}

// Invalidate drops the cached user list.
func (d *UserDirectory) Invalidate(ctx context.Context) {
	if d.cache == nil {
		return
	}
	if err := d.cache.Delete(ctx, userListKey); err != nil {
		slog.Warn("user cache invalidation failed", "error", err)
	}
}

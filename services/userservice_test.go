package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"taskboard/model"
	"taskboard/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryCache is a Cache backed by a map of JSON blobs.
type memoryCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	failGet bool
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string][]byte{}}
}

func (c *memoryCache) Get(_ context.Context, key string, dest any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failGet {
		return false, errors.New("cache down")
	}
	data, ok := c.entries[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(data, dest)
}

func (c *memoryCache) Set(_ context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = data
	return nil
}

func (c *memoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

// countingUsers counts ListUsers calls on top of a real repository.
type countingUsers struct {
	repository.UserRepository
	mu    sync.Mutex
	lists int
}

func (c *countingUsers) ListUsers(ctx context.Context) ([]model.User, error) {
	c.mu.Lock()
	c.lists++
	c.mu.Unlock()
	return c.UserRepository.ListUsers(ctx)
}

func TestUserDirectory_CachesList(t *testing.T) {
	store := newTestStore(t)
	seedUser(t, store, "alice", model.RoleUser)
	users := &countingUsers{UserRepository: store}
	cache := newMemoryCache()
	dir := NewUserDirectory(users, cache)
	ctx := context.Background()

	first, err := dir.List(ctx)
	require.NoError(t, err)
	require.Len(t, first, 1)

	second, err := dir.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, first[0].ID, second[0].ID)
	assert.Equal(t, 1, users.lists, "second read is served from cache")

	seedUser(t, store, "bob", model.RoleUser)
	dir.Invalidate(ctx)
	third, err := dir.List(ctx)
	require.NoError(t, err)
	assert.Len(t, third, 2)
	assert.Equal(t, 2, users.lists)
}

func TestUserDirectory_FallsBackOnCacheError(t *testing.T) {
	store := newTestStore(t)
	seedUser(t, store, "alice", model.RoleUser)
	cache := newMemoryCache()
	cache.failGet = true

	list, err := NewUserDirectory(store, cache).List(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestUserDirectory_NoCache(t *testing.T) {
	store := newTestStore(t)
	u := seedUser(t, store, "alice", model.RoleAdmin)
	dir := NewUserDirectory(store, nil)

	list, err := dir.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 1)

	got, err := dir.Get(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)
	dir.Invalidate(context.Background())
}

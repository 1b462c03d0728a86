package seed

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"taskboard/model"
	"taskboard/repository/gormrepo"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestStore(t *testing.T) *gormrepo.Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	store := gormrepo.New(db)
	require.NoError(t, store.Migrate())
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestDefaultData(t *testing.T) {
	data, err := Default()
	require.NoError(t, err)
	assert.Len(t, data.Users, 3)
	assert.Len(t, data.Tasks, 4)
	assert.Equal(t, "ADMIN", data.Users[0].Role)
}

func TestLoadFileJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"users": [{"username": "jane", "email": "jane@example.com", "password": "secret123", "role": "USER"}],
		"tasks": [{"title": "Fix bug", "description": "Investigate crash", "status": "TODO", "priority": "HIGH",
		           "assigneeEmail": "jane@example.com", "creatorEmail": "jane@example.com"}]
	}`), 0o600))

	data, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, data.Tasks, 1)
	assert.Equal(t, "jane@example.com", data.Tasks[0].AssigneeEmail)
}

func TestParseInvalid(t *testing.T) {
	_, err := Parse([]byte("users: [oops"), "yaml")
	assert.Error(t, err)
}

func TestSeederRun(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	data := &Data{
		Users: []User{
			{Username: "admin", Email: "admin@example.com", Password: "admin12345", Role: "ADMIN"},
			{Username: "jane", Email: "jane@example.com", Password: "jane12345", Role: "user"},
			{Username: "bad", Email: "bad@example.com", Password: "bad12345", Role: "ROOT"},
		},
		Tasks: []Task{
			{Title: "Deploy", Description: "Ship the release", Status: "IN_PROGRESS", Priority: "HIGH",
				AssigneeEmail: "jane@example.com", CreatorEmail: "admin@example.com"},
			{Title: "Orphan", Description: "No such assignee", Status: "TODO", Priority: "LOW",
				AssigneeEmail: "ghost@example.com", CreatorEmail: "admin@example.com"},
			{Title: "Broken", Description: "Unknown status value", Status: "BLOCKED", Priority: "LOW",
				AssigneeEmail: "jane@example.com", CreatorEmail: "admin@example.com"},
		},
	}

	seeder := NewSeeder(store, store)
	res, err := seeder.Run(ctx, data)
	require.NoError(t, err)
	assert.Equal(t, Result{UsersCreated: 2, UsersFailed: 1, TasksCreated: 1, TasksFailed: 2}, res)

	jane, err := store.FindUserByEmail(ctx, "jane@example.com")
	require.NoError(t, err)
	assert.Equal(t, model.RoleUser, jane.Role)

	page, err := store.ListTasks(ctx, model.TaskQuery{AssigneeID: jane.ID})
	require.NoError(t, err)
	require.Len(t, page.Tasks, 1)
	assert.Equal(t, model.StatusInProgress, page.Tasks[0].Status)

	again, err := seeder.Run(ctx, &Data{Users: data.Users[:2]})
	require.NoError(t, err)
	assert.Equal(t, 2, again.UsersSkipped)
	assert.Zero(t, again.UsersCreated)
}

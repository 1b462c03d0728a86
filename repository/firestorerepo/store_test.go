package firestorerepo

import (
	"context"
	"os"
	"testing"
	"time"

	"taskboard/model"
	"taskboard/repository"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newEmulatorStore connects to the Firestore emulator; tests are skipped
// when FIRESTORE_EMULATOR_HOST is not set.
func newEmulatorStore(t *testing.T) *Store {
	t.Helper()
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}
	client, err := firestore.NewClient(context.Background(), "taskboard-test")
	require.NoError(t, err)
	s := New(client)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_TaskLifecycle(t *testing.T) {
	s := newEmulatorStore(t)
	ctx := context.Background()
	suffix := uuid.New().String()[:8]

	creator := &model.User{
		ID:        uuid.New().String(),
		Username:  "creator-" + suffix,
		Email:     "creator-" + suffix + "@example.com",
		Password:  "hash",
		Role:      model.RoleAdmin,
		CreatedAt: time.Now(),
	}
	require.NoError(t, s.CreateUser(ctx, creator))
	assert.ErrorIs(t, s.CreateUser(ctx, creator), repository.ErrUserExists)

	now := time.Now()
	task := &model.Task{
		ID:          uuid.New().String(),
		Title:       "Emulator task",
		Description: "created against the emulator",
		Status:      model.StatusTodo,
		Priority:    model.PriorityLow,
		CreatorID:   creator.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	require.NoError(t, s.CreateTask(ctx, task))

	found, err := s.FindTaskByID(ctx, task.ID)
	require.NoError(t, err)
	require.NotNil(t, found.Creator)
	assert.Equal(t, creator.Username, found.Creator.Username)

	found.Status = model.StatusDone
	found.UpdatedAt = time.Now()
	require.NoError(t, s.UpdateTask(ctx, found))

	page, err := s.ListTasks(ctx, model.TaskQuery{Status: model.StatusDone, CreatorID: creator.ID})
	require.NoError(t, err)
	require.Len(t, page.Tasks, 1)
	assert.Equal(t, task.ID, page.Tasks[0].ID)

	require.NoError(t, s.DeleteTask(ctx, task.ID))
	assert.ErrorIs(t, s.DeleteTask(ctx, task.ID), repository.ErrTaskNotFound)
	assert.ErrorIs(t, s.UpdateTask(ctx, task), repository.ErrTaskNotFound)
}

func TestStore_Ping(t *testing.T) {
	s := newEmulatorStore(t)
	assert.NoError(t, s.Ping(context.Background()))
}

package services

import (
	"context"
	"testing"
	"time"

	"taskboard/model"
	"taskboard/repository/gormrepo"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestStore(t *testing.T) *gormrepo.Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	store := gormrepo.New(db)
	require.NoError(t, store.Migrate())
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func seedUser(t *testing.T, store *gormrepo.Store, username string, role model.Role) *model.User {
	t.Helper()
	u := &model.User{
		ID:        uuid.New().String(),
		Username:  username,
		Email:     username + "@example.com",
		Password:  "unused",
		Role:      role,
		CreatedAt: time.Now(),
	}
	require.NoError(t, store.CreateUser(context.Background(), u))
	return u
}

func principal(u *model.User) Principal {
	return Principal{UserID: u.ID, Role: u.Role}
}

func testJWTService() *JWTService {
	return NewJWTService(JWTConfig{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    24 * time.Hour,
	})
}

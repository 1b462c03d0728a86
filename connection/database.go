package connection

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"taskboard/cache"
	"taskboard/config"
	"taskboard/repository"
	"taskboard/repository/firestorerepo"
	"taskboard/repository/gormrepo"
	"taskboard/services"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SQLiteConnection opens the SQLite database at path.
func SQLiteConnection(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.New(slog.NewLogLogger(slog.Default().Handler(), slog.LevelWarn), logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database %s: %w", path, err)
	}
	if path == ":memory:" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return db, nil
}

// OpenStore opens the storage backend selected by STORE_DRIVER.
func OpenStore(ctx context.Context, cfg *config.Config) (repository.Store, error) {
	switch cfg.StoreDriver {
	case config.DriverFirestore:
		client, err := FBConnection(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return firestorerepo.New(client), nil
	case config.DriverSQLite:
		db, err := SQLiteConnection(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		store := gormrepo.New(db)
		if err := store.Migrate(); err != nil {
			_ = store.Close()
			return nil, err
		}
		slog.Info("sqlite store ready", "path", cfg.SQLitePath)
		return store, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}

// OpenUserCache connects to Redis when REDIS_ADDR is set. It returns a nil
// interface when caching is disabled or Redis is unreachable, so callers
// can pass the result straight to services.NewUserDirectory.
func OpenUserCache(ctx context.Context, cfg *config.Config) (services.Cache, *cache.Cache) {
	if cfg.RedisAddr == "" {
		return nil, nil
	}
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	client, err := cache.NewClient(pingCtx, cfg.RedisAddr)
	if err != nil {
		slog.Warn("user cache disabled", "error", err)
		return nil, nil
	}
	c := cache.New(client, "taskboard:", cfg.UserCacheTTL)
	slog.Info("user cache enabled", "addr", cfg.RedisAddr, "ttl", cfg.UserCacheTTL)
	return c, c
}

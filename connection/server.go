package connection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"taskboard/cache"
	"taskboard/config"
	authcontroller "taskboard/controller/auth"
	taskcontroller "taskboard/controller/task"
	usercontroller "taskboard/controller/user"
	"taskboard/dto"
	"taskboard/middleware"
	"taskboard/repository"
	"taskboard/services"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Deps are the collaborators the HTTP API is built from.
type Deps struct {
	Store repository.Store
	JWT   *services.JWTService
	// UserCache backs GET /users; nil disables caching.
	UserCache services.Cache
	// Cache is reported on /health when set.
	Cache *cache.Cache
	// AuthLimiter throttles the /auth routes when set.
	AuthLimiter *middleware.IPRateLimiter
}

// NewRouter wires every route under /api/v1.
func NewRouter(d Deps) *gin.Engine {
	dto.UseJSONFieldNames()

	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Authorization"},
		MaxAge:          12 * time.Hour,
	}))

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "Api is running!"})
	})
	router.GET("/health", func(c *gin.Context) {
		if err := d.Store.Ping(c.Request.Context()); err != nil {
			slog.Error("health check failed", "error", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
		body := gin.H{"status": "ok"}
		if d.Cache != nil {
			if err := d.Cache.Ping(c.Request.Context()); err != nil {
				body["cache"] = gin.H{"status": "unreachable", "error": err.Error()}
			} else {
				body["cache"] = d.Cache.Stats()
			}
		}
		c.JSON(http.StatusOK, body)
	})

	directory := services.NewUserDirectory(d.Store, d.UserCache)
	authService := services.NewAuthService(d.Store, d.Store, d.JWT, directory)
	taskService := services.NewTaskService(d.Store, d.Store)

	api := router.Group("/api/v1")
	authRoutes := api.Group("")
	if d.AuthLimiter != nil {
		authRoutes.Use(middleware.RateLimitMiddleware(d.AuthLimiter))
	}
	authcontroller.SignInController(authRoutes, authService, d.JWT)
	authcontroller.SignUpController(authRoutes, authService)
	taskcontroller.TaskController(api, taskService, d.JWT)
	usercontroller.UserController(api, directory, d.JWT)

	return router
}

// NewJWTService builds the token service from cfg.
func NewJWTService(cfg *config.Config) *services.JWTService {
	return services.NewJWTService(services.JWTConfig{
		AccessSecret:  cfg.JWTSecret,
		RefreshSecret: cfg.JWTRefreshSecret,
		AccessTTL:     cfg.AccessTokenTTL,
		RefreshTTL:    cfg.RefreshTokenTTL,
	})
}

// StartServer opens the store, serves the API and blocks until a shutdown
// signal has been handled. It returns the process exit code.
func StartServer(ctx context.Context, cfg *config.Config) (int, error) {
	store, err := OpenStore(ctx, cfg)
	if err != nil {
		return 1, err
	}
	userCache, redisCache := OpenUserCache(ctx, cfg)

	var limiter *middleware.IPRateLimiter
	if cfg.AuthRateLimit > 0 {
		limiter = middleware.NewIPRateLimiter(cfg.AuthRateLimit, cfg.AuthRateBurst)
		go pruneLimiter(ctx, limiter)
	}

	router := NewRouter(Deps{
		Store:       store,
		JWT:         NewJWTService(cfg),
		UserCache:   userCache,
		Cache:       redisCache,
		AuthLimiter: limiter,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	listenErr := make(chan error, 1)
	go func() {
		slog.Info("api listening", "addr", srv.Addr, "driver", cfg.StoreDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			listenErr <- err
		}
	}()

	ops := map[string]gfshutdown.Operation{
		"http": func(ctx context.Context) error {
			if err := srv.Shutdown(ctx); err != nil {
				return err
			}
			return store.Close()
		},
	}
	if redisCache != nil {
		ops["cache"] = func(ctx context.Context) error {
			return redisCache.Close()
		}
	}
	wait := gfshutdown.GracefulShutdown(ctx, cfg.ShutdownTimeout, ops)
	select {
	case code := <-wait:
		slog.Info("server exited", "code", code)
		return code, nil
	case err := <-listenErr:
		slog.Error("server stopped", "error", err)
		if cerr := store.Close(); cerr != nil {
			slog.Error("failed to close store", "error", cerr)
		}
		if redisCache != nil {
			_ = redisCache.Close()
		}
		return 1, fmt.Errorf("failed to serve on %s: %w", srv.Addr, err)
	}
}

func pruneLimiter(ctx context.Context, l *middleware.IPRateLimiter) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Prune(10 * time.Minute)
		}
	}
}

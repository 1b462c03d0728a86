package connection

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"taskboard/config"
	"taskboard/dto"
	"taskboard/model"
	"taskboard/repository/gormrepo"
	"taskboard/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testAPI struct {
	t      *testing.T
	router *gin.Engine
	store  *gormrepo.Store
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	db, err := SQLiteConnection(":memory:")
	require.NoError(t, err)
	store := gormrepo.New(db)
	require.NoError(t, store.Migrate())
	t.Cleanup(func() { _ = store.Close() })

	jwt := services.NewJWTService(services.JWTConfig{
		AccessSecret: "test-secret",
		AccessTTL:    time.Hour,
		RefreshTTL:   24 * time.Hour,
	})
	return &testAPI{t: t, router: NewRouter(Deps{Store: store, JWT: jwt}), store: store}
}

func (a *testAPI) do(method, path, token string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func (a *testAPI) register(username string, role model.Role) dto.AuthResponse {
	a.t.Helper()
	w := a.do(http.MethodPost, "/api/v1/auth/register", "", dto.RegisterRequest{
		Username: username,
		Email:    username + "@example.com",
		Password: "password123",
		Role:     role,
	})
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
	return decode[dto.AuthResponse](a.t, w)
}

func (a *testAPI) createTask(token string, req dto.CreateTaskRequest) model.Task {
	a.t.Helper()
	w := a.do(http.MethodPost, "/api/v1/tasks", token, req)
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
	return decode[model.Task](a.t, w)
}

func TestHealthAndRoot(t *testing.T) {
	api := newTestAPI(t)
	assert.Equal(t, http.StatusOK, api.do(http.MethodGet, "/", "", nil).Code)
	w := api.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	require.NoError(t, api.store.Close())
	w = api.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"unavailable"`)
}

func TestStartServer_ReturnsWhenPortIsTaken(t *testing.T) {
	ln, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	defer ln.Close()

	cfg := &config.Config{
		Port:            strconv.Itoa(ln.Addr().(*net.TCPAddr).Port),
		JWTSecret:       "test-secret",
		StoreDriver:     config.DriverSQLite,
		SQLitePath:      ":memory:",
		ShutdownTimeout: time.Second,
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	type result struct {
		code int
		err  error
	}
	done := make(chan result, 1)
	go func() {
		code, err := StartServer(ctx, cfg)
		done <- result{code, err}
	}()

	select {
	case res := <-done:
		assert.Equal(t, 1, res.code)
		assert.Error(t, res.err)
	case <-time.After(5 * time.Second):
		t.Fatal("StartServer kept running without a listener")
	}
}

func TestAuthFlow(t *testing.T) {
	api := newTestAPI(t)
	reg := api.register("alice", "")
	assert.NotEmpty(t, reg.AccessToken)
	assert.Equal(t, model.RoleUser, reg.User.Role)
	assert.NotContains(t, api.do(http.MethodGet, "/api/v1/users/me", reg.AccessToken, nil).Body.String(), "password")

	t.Run("duplicate username", func(t *testing.T) {
		w := api.do(http.MethodPost, "/api/v1/auth/register", "", dto.RegisterRequest{
			Username: "alice", Email: "other@example.com", Password: "password123",
		})
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("invalid register body", func(t *testing.T) {
		w := api.do(http.MethodPost, "/api/v1/auth/register", "", dto.RegisterRequest{
			Username: "al", Email: "not-an-email", Password: "short",
		})
		require.Equal(t, http.StatusBadRequest, w.Code)
		resp := decode[dto.ErrorResponse](t, w)
		assert.Contains(t, resp.Fields, "username")
		assert.Contains(t, resp.Fields, "email")
		assert.Contains(t, resp.Fields, "password")
	})

	t.Run("wrong password", func(t *testing.T) {
		w := api.do(http.MethodPost, "/api/v1/auth/login", "", dto.LoginRequest{Username: "alice", Password: "nope"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("login and refresh", func(t *testing.T) {
		w := api.do(http.MethodPost, "/api/v1/auth/login", "", dto.LoginRequest{Username: "alice", Password: "password123"})
		require.Equal(t, http.StatusOK, w.Code)
		login := decode[dto.AuthResponse](t, w)

		w = api.do(http.MethodPost, "/api/v1/auth/refresh", login.RefreshToken, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		refreshed := decode[dto.AuthResponse](t, w)
		assert.NotEmpty(t, refreshed.AccessToken)

		w = api.do(http.MethodPost, "/api/v1/auth/refresh", reg.RefreshToken, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, "login revokes earlier refresh tokens")
	})

	t.Run("no token", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, api.do(http.MethodGet, "/api/v1/tasks", "", nil).Code)
	})
}

func TestTaskEndpoints(t *testing.T) {
	api := newTestAPI(t)
	admin := api.register("admin", model.RoleAdmin)
	alice := api.register("alice", model.RoleUser)
	bob := api.register("bob", model.RoleUser)

	created := api.createTask(alice.AccessToken, dto.CreateTaskRequest{
		Title:       "Fix bug",
		Description: "Investigate crash",
		Priority:    model.PriorityHigh,
		Status:      model.StatusDone,
		AssigneeID:  &alice.User.ID,
	})
	assert.Equal(t, model.StatusTodo, created.Status)
	require.NotNil(t, created.Creator)
	assert.Equal(t, "alice", created.Creator.Username)

	api.createTask(admin.AccessToken, dto.CreateTaskRequest{
		Title: "Deploy", Description: "Ship the release", Priority: model.PriorityMedium, AssigneeID: &bob.User.ID,
	})

	t.Run("create validation", func(t *testing.T) {
		w := api.do(http.MethodPost, "/api/v1/tasks", alice.AccessToken, dto.CreateTaskRequest{
			Title: "ab", Description: "short", Priority: "URGENT",
		})
		require.Equal(t, http.StatusBadRequest, w.Code)
		resp := decode[dto.ErrorResponse](t, w)
		assert.Equal(t, "title must be at least 3 characters", resp.Fields["title"])
		assert.Equal(t, "description must be at least 10 characters", resp.Fields["description"])
		assert.Equal(t, "priority must be one of LOW, MEDIUM, HIGH", resp.Fields["priority"])
	})

	t.Run("unknown assignee", func(t *testing.T) {
		ghost := "ghost"
		w := api.do(http.MethodPost, "/api/v1/tasks", admin.AccessToken, dto.CreateTaskRequest{
			Title: "Orphan", Description: "nobody is home", Priority: model.PriorityLow, AssigneeID: &ghost,
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("list scoping", func(t *testing.T) {
		w := api.do(http.MethodGet, "/api/v1/tasks", admin.AccessToken, nil)
		require.Equal(t, http.StatusOK, w.Code)
		all := decode[dto.TaskListResponse](t, w)
		assert.EqualValues(t, 2, all.TotalElements)
		assert.Equal(t, 1, all.TotalPages)
		assert.Equal(t, 100, all.Size)

		w = api.do(http.MethodGet, "/api/v1/tasks?assignee="+alice.User.ID, alice.AccessToken, nil)
		require.Equal(t, http.StatusOK, w.Code)
		own := decode[dto.TaskListResponse](t, w)
		require.Len(t, own.Content, 1)
		assert.Equal(t, "Fix bug", own.Content[0].Title)

		w = api.do(http.MethodGet, "/api/v1/tasks?assignee="+bob.User.ID, alice.AccessToken, nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
		w = api.do(http.MethodGet, "/api/v1/tasks", alice.AccessToken, nil)
		assert.Equal(t, http.StatusForbidden, w.Code)

		w = api.do(http.MethodGet, "/api/v1/tasks?status=IN_PROGRESS", admin.AccessToken, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, decode[dto.TaskListResponse](t, w).Content)

		w = api.do(http.MethodGet, "/api/v1/tasks?status=BLOCKED", admin.AccessToken, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		w = api.do(http.MethodGet, "/api/v1/tasks?page=x", admin.AccessToken, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("get", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, api.do(http.MethodGet, "/api/v1/tasks/"+created.ID, alice.AccessToken, nil).Code)
		assert.Equal(t, http.StatusForbidden, api.do(http.MethodGet, "/api/v1/tasks/"+created.ID, bob.AccessToken, nil).Code)
		assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, "/api/v1/tasks/missing", admin.AccessToken, nil).Code)
	})

	t.Run("partial update", func(t *testing.T) {
		w := api.do(http.MethodPut, "/api/v1/tasks/"+created.ID, alice.AccessToken, map[string]any{"status": "IN_PROGRESS"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		updated := decode[model.Task](t, w)
		assert.Equal(t, model.StatusInProgress, updated.Status)
		assert.Equal(t, "Fix bug", updated.Title)

		w = api.do(http.MethodPut, "/api/v1/tasks/"+created.ID, alice.AccessToken, map[string]any{})
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = api.do(http.MethodPut, "/api/v1/tasks/"+created.ID, bob.AccessToken, map[string]any{"title": "mine now"})
		assert.Equal(t, http.StatusForbidden, w.Code)

		w = api.do(http.MethodPut, "/api/v1/tasks/"+created.ID+"/status?status=DONE", alice.AccessToken, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, model.StatusDone, decode[model.Task](t, w).Status)
	})

	t.Run("listings", func(t *testing.T) {
		w := api.do(http.MethodGet, "/api/v1/tasks/my-tasks", bob.AccessToken, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, decode[[]model.Task](t, w), 1)

		w = api.do(http.MethodGet, "/api/v1/tasks/created-by-me", alice.AccessToken, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, decode[[]model.Task](t, w), 1)

		w = api.do(http.MethodGet, "/api/v1/tasks/status/TODO", admin.AccessToken, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, decode[[]model.Task](t, w), 1)

		assert.Equal(t, http.StatusForbidden, api.do(http.MethodGet, "/api/v1/tasks/status/TODO", alice.AccessToken, nil).Code)
	})

	t.Run("assign and delete", func(t *testing.T) {
		path := "/api/v1/tasks/" + created.ID
		assert.Equal(t, http.StatusForbidden, api.do(http.MethodPost, path+"/assign?assigneeId="+bob.User.ID, alice.AccessToken, nil).Code)

		w := api.do(http.MethodPost, path+"/assign?assigneeId="+bob.User.ID, admin.AccessToken, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assigned := decode[model.Task](t, w)
		require.NotNil(t, assigned.AssigneeID)
		assert.Equal(t, bob.User.ID, *assigned.AssigneeID)

		assert.Equal(t, http.StatusForbidden, api.do(http.MethodDelete, path, alice.AccessToken, nil).Code)
		assert.Equal(t, http.StatusNoContent, api.do(http.MethodDelete, path, admin.AccessToken, nil).Code)
		assert.Equal(t, http.StatusNotFound, api.do(http.MethodDelete, path, admin.AccessToken, nil).Code)
	})
}

func TestUserEndpoints(t *testing.T) {
	api := newTestAPI(t)
	alice := api.register("alice", model.RoleUser)
	api.register("bob", model.RoleUser)

	w := api.do(http.MethodGet, "/api/v1/users", alice.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	users := decode[[]model.User](t, w)
	require.Len(t, users, 2)
	assert.Equal(t, "alice", users[0].Username)

	w = api.do(http.MethodGet, "/api/v1/users/me", alice.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, alice.User.ID, decode[model.User](t, w).ID)
}

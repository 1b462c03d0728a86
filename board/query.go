package board

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"taskboard/dto"
	"taskboard/model"
)

// ErrNoSession is reported when a read is attempted while signed out.
var ErrNoSession = errors.New("no signed-in user")

// FetchResult is the outcome of one task fetch. Tasks is never nil; Err
// records why it is empty when the fetch failed.
type FetchResult struct {
	Tasks   []model.Task
	Err     error
	Filters model.TaskFilters
}

// TaskQuery reads tasks scoped to the caller's role.
type TaskQuery struct {
	api *Transport
}

func NewTaskQuery(api *Transport) *TaskQuery {
	return &TaskQuery{api: api}
}

// BuildQuery turns the filter state into query parameters. Admins get the
// assignee filter as given. Every other role, including an unknown or
// empty one, is constrained to its own tasks whatever the assignee filter
// says. Empty values are left out. A nil user yields nil.
func BuildQuery(filters model.TaskFilters, user *model.User) url.Values {
	if user == nil {
		return nil
	}
	params := url.Values{}
	if filters.Status != "" {
		params.Set("status", filters.Status)
	}
	switch {
	case !user.IsAdmin():
		params.Set("assignee", user.ID)
	case filters.Assignee != "":
		params.Set("assignee", filters.Assignee)
	}
	return params
}

// Fetch reads the tasks visible to user under filters. It never fails:
// errors come back in the result alongside an empty task list.
func (q *TaskQuery) Fetch(ctx context.Context, filters model.TaskFilters, user *model.User) FetchResult {
	res := FetchResult{Tasks: []model.Task{}, Filters: filters}
	params := BuildQuery(filters, user)
	if params == nil {
		res.Err = ErrNoSession
		return res
	}

	var page dto.TaskListResponse
	if err := q.api.Do(ctx, http.MethodGet, "/tasks", params, nil, &page); err != nil {
		slog.Warn("failed to fetch tasks", "error", err, "status", filters.Status, "assignee", params.Get("assignee"))
		res.Err = err
		return res
	}
	if page.Content != nil {
		res.Tasks = page.Content
	}
	return res
}

// FetchTasks returns Fetch(...).Tasks.
func (q *TaskQuery) FetchTasks(ctx context.Context, filters model.TaskFilters, user *model.User) []model.Task {
	return q.Fetch(ctx, filters, user).Tasks
}

// ListUsers reads the user directory.
func (q *TaskQuery) ListUsers(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := q.api.Do(ctx, http.MethodGet, "/users", nil, nil, &users); err != nil {
		return nil, err
	}
	if users == nil {
		users = []model.User{}
	}
	return users, nil
}

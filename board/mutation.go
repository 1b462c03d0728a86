package board

import (
	"context"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"taskboard/dto"
	"taskboard/model"
)

// ValidationError lists field problems found before a request was sent.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	msgs := make([]string, 0, len(keys))
	for _, k := range keys {
		msgs = append(msgs, e.Fields[k])
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// TaskMutations writes tasks. Nothing is retried and nothing is applied
// locally; callers act on the returned record.
type TaskMutations struct {
	api *Transport
}

func NewTaskMutations(api *Transport) *TaskMutations {
	return &TaskMutations{api: api}
}

// CreateTask sends draft with its status forced to TODO.
func (m *TaskMutations) CreateTask(ctx context.Context, draft dto.CreateTaskRequest) (model.Task, error) {
	draft.Status = model.StatusTodo
	if fields := dto.Validate(draft); fields != nil {
		return model.Task{}, &ValidationError{Fields: fields}
	}
	var task model.Task
	err := m.api.Do(ctx, http.MethodPost, "/tasks", nil, draft, &task)
	return task, err
}

// UpdateTask sends only the fields set in patch.
func (m *TaskMutations) UpdateTask(ctx context.Context, id string, patch dto.UpdateTaskRequest) (model.Task, error) {
	if patch.Empty() {
		return model.Task{}, &ValidationError{Fields: map[string]string{"body": "no fields to update"}}
	}
	if fields := dto.Validate(patch); fields != nil {
		return model.Task{}, &ValidationError{Fields: fields}
	}
	var task model.Task
	err := m.api.Do(ctx, http.MethodPut, "/tasks/"+url.PathEscape(id), nil, patch, &task)
	return task, err
}

func (m *TaskMutations) DeleteTask(ctx context.Context, id string) error {
	return m.api.Do(ctx, http.MethodDelete, "/tasks/"+url.PathEscape(id), nil, nil, nil)
}

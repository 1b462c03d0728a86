package dto

import "taskboard/model"

// CreateTaskRequest is the body of POST /tasks. Status is accepted on the
// wire but the server always stores TODO.
type CreateTaskRequest struct {
	Title       string         `json:"title" binding:"required,min=3"`
	Description string         `json:"description" binding:"required,min=10"`
	Priority    model.Priority `json:"priority" binding:"required,oneof=LOW MEDIUM HIGH"`
	AssigneeID  *string        `json:"assigneeId,omitempty"`
	Status      model.Status   `json:"status,omitempty"`
}

// UpdateTaskRequest is the body of PUT /tasks/{id}. Nil fields are left
// unchanged; an empty AssigneeID clears the assignee.
type UpdateTaskRequest struct {
	Title       *string         `json:"title,omitempty" binding:"omitempty,min=3"`
	Description *string         `json:"description,omitempty" binding:"omitempty,min=10"`
	Status      *model.Status   `json:"status,omitempty" binding:"omitempty,oneof=TODO IN_PROGRESS DONE"`
	Priority    *model.Priority `json:"priority,omitempty" binding:"omitempty,oneof=LOW MEDIUM HIGH"`
	AssigneeID  *string         `json:"assigneeId,omitempty"`
}

// Empty reports whether the request carries no field at all.
func (r UpdateTaskRequest) Empty() bool {
	return r.Title == nil && r.Description == nil && r.Status == nil &&
		r.Priority == nil && r.AssigneeID == nil
}

type TaskListResponse struct {
	Content       []model.Task `json:"content"`
	Page          int          `json:"page"`
	Size          int          `json:"size"`
	TotalElements int64        `json:"totalElements"`
	TotalPages    int          `json:"totalPages"`
}

package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"taskboard/dto"
	"taskboard/model"
	"taskboard/repository"

	"github.com/google/uuid"
)

var (
	ErrForbidden       = errors.New("forbidden")
	ErrInvalidAssignee = errors.New("assignee not found")
	ErrEmptyUpdate     = errors.New("no data to update")
)

// Principal is the authenticated caller of a task operation.
type Principal struct {
	UserID string
	Role   model.Role
}

// TaskService applies the role rules of the task API on top of the
// repositories.
type TaskService struct {
	tasks repository.TaskRepository
	users repository.UserRepository
	now   func() time.Time
}

func NewTaskService(tasks repository.TaskRepository, users repository.UserRepository) *TaskService {
	return &TaskService{tasks: tasks, users: users, now: time.Now}
}

// List returns a page of tasks. Callers without task:read:all must scope
// the listing to their own id.
func (s *TaskService) List(ctx context.Context, p Principal, status model.Status, assignee string, page, size int) (*model.TaskPage, error) {
	switch {
	case p.Role.Can(model.PermTaskReadAll):
	case p.Role.Can(model.PermTaskReadOwn) && assignee == p.UserID:
	default:
		return nil, ErrForbidden
	}
	if assignee != "" {
		if err := s.checkAssignee(ctx, assignee); err != nil {
			return nil, err
		}
	}
	return s.tasks.ListTasks(ctx, model.TaskQuery{
		Status:     status,
		AssigneeID: assignee,
		Page:       page,
		Size:       size,
	})
}

func (s *TaskService) Get(ctx context.Context, p Principal, id string) (*model.Task, error) {
	task, err := s.tasks.FindTaskByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.Role.Can(model.PermTaskReadAll) && !(p.Role.Can(model.PermTaskReadOwn) && task.IsAssignedTo(p.UserID)) {
		return nil, ErrForbidden
	}
	return task, nil
}

// Create stores a new task owned by p. The status is always TODO.
func (s *TaskService) Create(ctx context.Context, p Principal, req dto.CreateTaskRequest) (*model.Task, error) {
	if !p.Role.CanAny(model.PermTaskCreate, model.PermTaskCreateAll) {
		return nil, ErrForbidden
	}
	assignee, err := s.normalizeAssignee(ctx, req.AssigneeID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	task := &model.Task{
		ID:          uuid.New().String(),
		Title:       req.Title,
		Description: req.Description,
		Status:      model.StatusTodo,
		Priority:    req.Priority,
		AssigneeID:  assignee,
		CreatorID:   p.UserID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.tasks.CreateTask(ctx, task); err != nil {
		return nil, err
	}
	slog.Info("task created", "taskId", task.ID, "creatorId", p.UserID)
	return s.tasks.FindTaskByID(ctx, task.ID)
}

// Update applies the non-nil fields of req.
func (s *TaskService) Update(ctx context.Context, p Principal, id string, req dto.UpdateTaskRequest) (*model.Task, error) {
	if req.Empty() {
		return nil, ErrEmptyUpdate
	}
	task, err := s.tasks.FindTaskByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canUpdate(p, task) {
		return nil, ErrForbidden
	}

	if req.Title != nil {
		task.Title = *req.Title
	}
	if req.Description != nil {
		task.Description = *req.Description
	}
	if req.Status != nil {
		task.Status = *req.Status
	}
	if req.Priority != nil {
		task.Priority = *req.Priority
	}
	if req.AssigneeID != nil {
		assignee, err := s.normalizeAssignee(ctx, req.AssigneeID)
		if err != nil {
			return nil, err
		}
		task.AssigneeID = assignee
	}
	return s.save(ctx, task)
}

// UpdateStatus moves a task to another column. Any status may follow any
// other.
func (s *TaskService) UpdateStatus(ctx context.Context, p Principal, id string, status model.Status) (*model.Task, error) {
	task, err := s.tasks.FindTaskByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canUpdate(p, task) {
		return nil, ErrForbidden
	}
	task.Status = status
	return s.save(ctx, task)
}

func (s *TaskService) Assign(ctx context.Context, p Principal, id, assigneeID string) (*model.Task, error) {
	if !p.Role.Can(model.PermTaskAssign) {
		return nil, ErrForbidden
	}
	task, err := s.tasks.FindTaskByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkAssignee(ctx, assigneeID); err != nil {
		return nil, err
	}
	task.AssigneeID = &assigneeID
	return s.save(ctx, task)
}

func (s *TaskService) Delete(ctx context.Context, p Principal, id string) error {
	if !p.Role.Can(model.PermTaskDeleteAll) {
		return ErrForbidden
	}
	if err := s.tasks.DeleteTask(ctx, id); err != nil {
		return err
	}
	slog.Info("task deleted", "taskId", id, "userId", p.UserID)
	return nil
}

// MyTasks lists every task assigned to p.
func (s *TaskService) MyTasks(ctx context.Context, p Principal) ([]model.Task, error) {
	return s.all(ctx, model.TaskQuery{AssigneeID: p.UserID})
}

// CreatedByMe lists every task created by p.
func (s *TaskService) CreatedByMe(ctx context.Context, p Principal) ([]model.Task, error) {
	return s.all(ctx, model.TaskQuery{CreatorID: p.UserID})
}

func (s *TaskService) ByStatus(ctx context.Context, p Principal, status model.Status) ([]model.Task, error) {
	if !p.Role.Can(model.PermTaskReadAll) {
		return nil, ErrForbidden
	}
	return s.all(ctx, model.TaskQuery{Status: status})
}

func (s *TaskService) all(ctx context.Context, q model.TaskQuery) ([]model.Task, error) {
	var tasks []model.Task
	q.Size = repository.MaxPageSize
	for q.Page = 0; ; q.Page++ {
		page, err := s.tasks.ListTasks(ctx, q)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, page.Tasks...)
		if len(page.Tasks) < q.Size || int64(len(tasks)) >= page.Total {
			break
		}
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	return tasks, nil
}

func (s *TaskService) save(ctx context.Context, task *model.Task) (*model.Task, error) {
	task.UpdatedAt = s.now()
	if err := s.tasks.UpdateTask(ctx, task); err != nil {
		return nil, err
	}
	return s.tasks.FindTaskByID(ctx, task.ID)
}

// normalizeAssignee maps an empty id to "unassigned" and checks that any
// other id names an existing user.
func (s *TaskService) normalizeAssignee(ctx context.Context, id *string) (*string, error) {
	if id == nil || *id == "" {
		return nil, nil
	}
	if err := s.checkAssignee(ctx, *id); err != nil {
		return nil, err
	}
	v := *id
	return &v, nil
}

func (s *TaskService) checkAssignee(ctx context.Context, id string) error {
	if _, err := s.users.FindUserByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return fmt.Errorf("%w: %s", ErrInvalidAssignee, id)
		}
		return err
	}
	return nil
}

func canUpdate(p Principal, task *model.Task) bool {
	if p.Role.Can(model.PermTaskUpdateAll) {
		return true
	}
	return p.Role.Can(model.PermTaskUpdateOwn) && (task.CreatorID == p.UserID || task.IsAssignedTo(p.UserID))
}

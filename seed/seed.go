// Package seed loads demo users and tasks into a store.
package seed

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"taskboard/model"
	"taskboard/repository"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

//go:embed seed-data.yaml
var defaultData []byte

type User struct {
	Username string `json:"username" yaml:"username"`
	Email    string `json:"email" yaml:"email"`
	Password string `json:"password" yaml:"password"`
	Role     string `json:"role" yaml:"role"`
}

// Task references its users by email.
type Task struct {
	Title         string `json:"title" yaml:"title"`
	Description   string `json:"description" yaml:"description"`
	Status        string `json:"status" yaml:"status"`
	Priority      string `json:"priority" yaml:"priority"`
	AssigneeEmail string `json:"assigneeEmail" yaml:"assigneeEmail"`
	CreatorEmail  string `json:"creatorEmail" yaml:"creatorEmail"`
}

type Data struct {
	Users []User `json:"users" yaml:"users"`
	Tasks []Task `json:"tasks" yaml:"tasks"`
}

// Result counts what a seeding run did.
type Result struct {
	UsersCreated int
	UsersSkipped int
	UsersFailed  int
	TasksCreated int
	TasksFailed  int
}

// Default returns the embedded demo data set.
func Default() (*Data, error) {
	return Parse(defaultData, "yaml")
}

// LoadFile reads a seed file. Files ending in .json are decoded as JSON,
// anything else as YAML.
func LoadFile(path string) (*Data, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	format := "yaml"
	if strings.EqualFold(filepath.Ext(path), ".json") {
		format = "json"
	}
	return Parse(raw, format)
}

func Parse(raw []byte, format string) (*Data, error) {
	var data Data
	var err error
	if format == "json" {
		err = json.Unmarshal(raw, &data)
	} else {
		err = yaml.Unmarshal(raw, &data)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s seed data: %w", format, err)
	}
	return &data, nil
}

type Seeder struct {
	users repository.UserRepository
	tasks repository.TaskRepository
	now   func() time.Time
}

func NewSeeder(users repository.UserRepository, tasks repository.TaskRepository) *Seeder {
	return &Seeder{users: users, tasks: tasks, now: time.Now}
}

// Run creates the users first and then the tasks. Users whose email is
// already registered are reused. Rows that fail are logged and skipped.
func (s *Seeder) Run(ctx context.Context, data *Data) (Result, error) {
	var res Result
	byEmail := make(map[string]*model.User, len(data.Users))

	for _, su := range data.Users {
		existing, err := s.users.FindUserByEmail(ctx, su.Email)
		if err == nil {
			slog.Info("user already exists, skipping", "email", su.Email)
			byEmail[su.Email] = existing
			res.UsersSkipped++
			continue
		}
		if !errors.Is(err, repository.ErrUserNotFound) {
			return res, err
		}

		user, err := s.createUser(ctx, su)
		if err != nil {
			slog.Error("failed to create user", "email", su.Email, "error", err)
			res.UsersFailed++
			continue
		}
		byEmail[su.Email] = user
		res.UsersCreated++
		slog.Info("created user", "username", user.Username, "email", user.Email)
	}

	for _, st := range data.Tasks {
		if err := s.createTask(ctx, st, byEmail); err != nil {
			slog.Error("failed to create task", "title", st.Title, "error", err)
			res.TasksFailed++
			continue
		}
		res.TasksCreated++
	}
	return res, nil
}

func (s *Seeder) createUser(ctx context.Context, su User) (*model.User, error) {
	role := model.Role(strings.ToUpper(su.Role))
	if role == "" {
		role = model.RoleUser
	}
	if !role.Valid() {
		return nil, fmt.Errorf("unknown role %q", su.Role)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(su.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user := &model.User{
		ID:        uuid.New().String(),
		Username:  su.Username,
		Email:     su.Email,
		Password:  string(hashed),
		Role:      role,
		CreatedAt: s.now(),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *Seeder) createTask(ctx context.Context, st Task, byEmail map[string]*model.User) error {
	assignee, creator := byEmail[st.AssigneeEmail], byEmail[st.CreatorEmail]
	if assignee == nil || creator == nil {
		return fmt.Errorf("assignee or creator not found")
	}
	status, err := model.ParseStatus(st.Status)
	if err != nil {
		return err
	}
	priority, err := model.ParsePriority(st.Priority)
	if err != nil {
		return err
	}
	now := s.now()
	assigneeID := assignee.ID
	return s.tasks.CreateTask(ctx, &model.Task{
		ID:          uuid.New().String(),
		Title:       st.Title,
		Description: st.Description,
		Status:      status,
		Priority:    priority,
		AssigneeID:  &assigneeID,
		CreatorID:   creator.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
}

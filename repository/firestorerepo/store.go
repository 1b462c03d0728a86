package firestorerepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"taskboard/model"
	"taskboard/repository"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/firestore/apiv1/firestorepb"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	usersCollection  = "Users"
	tasksCollection  = "Tasks"
	tokensCollection = "RefreshTokens"
)

// Store implements repository.Store on Cloud Firestore. Documents are keyed
// by the entity id.
type Store struct {
	client *firestore.Client
}

var _ repository.Store = (*Store)(nil)

func New(client *firestore.Client) *Store {
	return &Store{client: client}
}

func (s *Store) Close() error {
	return s.client.Close()
}

// Ping reads at most one user document to check the backend is reachable.
func (s *Store) Ping(ctx context.Context) error {
	iter := s.client.Collection(usersCollection).Limit(1).Documents(ctx)
	defer iter.Stop()
	if _, err := iter.Next(); err != nil && !errors.Is(err, iterator.Done) {
		return fmt.Errorf("failed to reach firestore: %w", err)
	}
	return nil
}

func (s *Store) CreateUser(ctx context.Context, u *model.User) error {
	for field, value := range map[string]string{"username": u.Username, "email": u.Email} {
		docs, err := s.client.Collection(usersCollection).Where(field, "==", value).Limit(1).Documents(ctx).GetAll()
		if err != nil {
			return fmt.Errorf("failed to check existing user: %w", err)
		}
		if len(docs) > 0 {
			return repository.ErrUserExists
		}
	}
	if _, err := s.client.Collection(usersCollection).Doc(u.ID).Create(ctx, u); err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return repository.ErrUserExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (s *Store) FindUserByID(ctx context.Context, id string) (*model.User, error) {
	snap, err := s.client.Collection(usersCollection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, repository.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	var u model.User
	if err := snap.DataTo(&u); err != nil {
		return nil, fmt.Errorf("failed to parse user data: %w", err)
	}
	return &u, nil
}

func (s *Store) FindUserByUsername(ctx context.Context, username string) (*model.User, error) {
	return s.findUserWhere(ctx, "username", username)
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.findUserWhere(ctx, "email", email)
}

func (s *Store) findUserWhere(ctx context.Context, field, value string) (*model.User, error) {
	docs, err := s.client.Collection(usersCollection).Where(field, "==", value).Limit(1).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if len(docs) == 0 {
		return nil, repository.ErrUserNotFound
	}
	var u model.User
	if err := docs[0].DataTo(&u); err != nil {
		return nil, fmt.Errorf("failed to parse user data: %w", err)
	}
	return &u, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]model.User, error) {
	iter := s.client.Collection(usersCollection).OrderBy("username", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	users := []model.User{}
	for {
		doc, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list users: %w", err)
		}
		var u model.User
		if err := doc.DataTo(&u); err != nil {
			return nil, fmt.Errorf("failed to parse user data: %w", err)
		}
		users = append(users, u)
	}
	return users, nil
}

func (s *Store) CreateTask(ctx context.Context, t *model.Task) error {
	if _, err := s.client.Collection(tasksCollection).Doc(t.ID).Create(ctx, t); err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

func (s *Store) FindTaskByID(ctx context.Context, id string) (*model.Task, error) {
	snap, err := s.client.Collection(tasksCollection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, repository.ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	var t model.Task
	if err := snap.DataTo(&t); err != nil {
		return nil, fmt.Errorf("failed to parse task data: %w", err)
	}
	tasks := []model.Task{t}
	if err := s.attachUsers(ctx, tasks); err != nil {
		return nil, err
	}
	return &tasks[0], nil
}

func (s *Store) UpdateTask(ctx context.Context, t *model.Task) error {
	ref := s.client.Collection(tasksCollection).Doc(t.ID)
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if _, err := tx.Get(ref); err != nil {
			if status.Code(err) == codes.NotFound {
				return repository.ErrTaskNotFound
			}
			return fmt.Errorf("failed to retrieve task: %w", err)
		}
		return tx.Update(ref, []firestore.Update{
			{Path: "title", Value: t.Title},
			{Path: "description", Value: t.Description},
			{Path: "status", Value: t.Status},
			{Path: "priority", Value: t.Priority},
			{Path: "assigneeid", Value: t.AssigneeID},
			{Path: "updatedat", Value: t.UpdatedAt},
		})
	})
	if err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			return err
		}
		return fmt.Errorf("failed to update task: %w", err)
	}
	return nil
}

func (s *Store) DeleteTask(ctx context.Context, id string) error {
	ref := s.client.Collection(tasksCollection).Doc(id)
	if _, err := ref.Get(ctx); err != nil {
		if status.Code(err) == codes.NotFound {
			return repository.ErrTaskNotFound
		}
		return fmt.Errorf("failed to find task: %w", err)
	}
	if _, err := ref.Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return nil
}

func (s *Store) ListTasks(ctx context.Context, q model.TaskQuery) (*model.TaskPage, error) {
	page, size := repository.NormalizePage(q.Page, q.Size)

	query := s.client.Collection(tasksCollection).Query
	if q.Status != "" {
		query = query.Where("status", "==", string(q.Status))
	}
	if q.AssigneeID != "" {
		query = query.Where("assigneeid", "==", q.AssigneeID)
	}
	if q.CreatorID != "" {
		query = query.Where("creatorid", "==", q.CreatorID)
	}

	total, err := count(ctx, query)
	if err != nil {
		return nil, err
	}

	docs, err := query.OrderBy("createdat", firestore.Asc).Offset(page * size).Limit(size).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	tasks := make([]model.Task, 0, len(docs))
	for _, doc := range docs {
		var t model.Task
		if err := doc.DataTo(&t); err != nil {
			return nil, fmt.Errorf("failed to parse task data: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := s.attachUsers(ctx, tasks); err != nil {
		return nil, err
	}
	return &model.TaskPage{Tasks: tasks, Total: total}, nil
}

func count(ctx context.Context, query firestore.Query) (int64, error) {
	res, err := query.NewAggregationQuery().WithCount("all").Get(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count tasks: %w", err)
	}
	v, ok := res["all"].(*firestorepb.Value)
	if !ok {
		return 0, fmt.Errorf("unexpected count result %T", res["all"])
	}
	return v.GetIntegerValue(), nil
}

// attachUsers fills the assignee and creator snapshots with one batched read.
func (s *Store) attachUsers(ctx context.Context, tasks []model.Task) error {
	ids := map[string]bool{}
	for _, t := range tasks {
		ids[t.CreatorID] = true
		if t.AssigneeID != nil {
			ids[*t.AssigneeID] = true
		}
	}
	if len(ids) == 0 {
		return nil
	}

	refs := make([]*firestore.DocumentRef, 0, len(ids))
	for id := range ids {
		refs = append(refs, s.client.Collection(usersCollection).Doc(id))
	}
	snaps, err := s.client.GetAll(ctx, refs)
	if err != nil {
		return fmt.Errorf("failed to load task users: %w", err)
	}

	users := make(map[string]*model.User, len(snaps))
	for _, snap := range snaps {
		if !snap.Exists() {
			continue
		}
		var u model.User
		if err := snap.DataTo(&u); err != nil {
			return fmt.Errorf("failed to parse user data: %w", err)
		}
		users[snap.Ref.ID] = &u
	}

	for i := range tasks {
		tasks[i].Creator = users[tasks[i].CreatorID]
		if tasks[i].AssigneeID != nil {
			tasks[i].Assignee = users[*tasks[i].AssigneeID]
		}
	}
	return nil
}

func (s *Store) SaveRefreshToken(ctx context.Context, t *model.RefreshToken) error {
	if _, err := s.client.Collection(tokensCollection).Doc(t.TokenID).Set(ctx, t); err != nil {
		return fmt.Errorf("failed to store refresh token: %w", err)
	}
	return nil
}

func (s *Store) ActiveRefreshTokens(ctx context.Context, userID string) ([]model.RefreshToken, error) {
	docs, err := s.client.Collection(tokensCollection).
		Where("userid", "==", userID).
		Where("revoked", "==", false).
		Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to find refresh tokens: %w", err)
	}
	now := time.Now()
	var tokens []model.RefreshToken
	for _, doc := range docs {
		var t model.RefreshToken
		if err := doc.DataTo(&t); err != nil {
			return nil, fmt.Errorf("failed to parse refresh token: %w", err)
		}
		if t.ExpiresAt.After(now) {
			tokens = append(tokens, t)
		}
	}
	return tokens, nil
}

func (s *Store) RevokeUserTokens(ctx context.Context, userID string) error {
	tokens, err := s.ActiveRefreshTokens(ctx, userID)
	if err != nil {
		return err
	}
	if len(tokens) == 0 {
		return nil
	}
	batch := s.client.BulkWriter(ctx)
	for _, t := range tokens {
		ref := s.client.Collection(tokensCollection).Doc(t.TokenID)
		if _, err := batch.Update(ref, []firestore.Update{{Path: "revoked", Value: true}}); err != nil {
			batch.End()
			return fmt.Errorf("failed to revoke refresh token: %w", err)
		}
	}
	batch.End()
	return nil
}

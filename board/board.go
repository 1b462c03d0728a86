// Package board is the client side of the task board: the signed-in
// session, role-scoped task reads, task writes and the in-memory board
// state they feed.
package board

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"taskboard/dto"
	"taskboard/model"

	"golang.org/x/sync/errgroup"
)

// ErrStaleResponse is returned by Load when a newer load overtook it. Its
// result has been dropped.
var ErrStaleResponse = errors.New("stale response discarded")

// View is a consistent copy of the board state.
type View struct {
	User    *model.User
	Filters model.TaskFilters
	Columns []Column
	Users   []model.User
	// FetchErr is set when the last applied task fetch failed and the
	// columns are empty because of it.
	FetchErr error
}

// Board ties the session, the task services and the reconciler together.
// It is safe for concurrent use.
type Board struct {
	session   *Session
	query     *TaskQuery
	mutations *TaskMutations

	mu       sync.Mutex
	state    *Reconciler
	users    []model.User
	filters  model.TaskFilters
	seq      uint64
	fetchErr error

	// written counts applied mutations. While loads are in flight the
	// mutations are kept in journal so a load that read older data can
	// replay them on top of its result.
	written  uint64
	journal  []write
	inflight map[uint64]uint64
}

type write struct {
	n  uint64
	fn func(*Reconciler)
}

func New(session *Session, query *TaskQuery, mutations *TaskMutations) *Board {
	return &Board{
		session:   session,
		query:     query,
		mutations: mutations,
		state:     NewReconciler(),
		inflight:  map[uint64]uint64{},
	}
}

// NewClient wires a Board against the API at baseURL.
func NewClient(baseURL string, session *Session) (*Board, *Transport) {
	api := NewTransport(baseURL, session, nil)
	return New(session, NewTaskQuery(api), NewTaskMutations(api)), api
}

// Load fetches the tasks for the current filters and the user directory
// in parallel and applies both once they have finished. Mutations that
// completed while the fetch was running are replayed on top of its result.
// Task fetch failures leave the board empty with View.FetchErr set; a user
// directory failure is returned and keeps the previous directory.
func (b *Board) Load(ctx context.Context) error {
	return b.load(ctx, nil)
}

// SetFilters stores a new filter snapshot and reloads.
func (b *Board) SetFilters(ctx context.Context, filters model.TaskFilters) error {
	return b.load(ctx, &filters)
}

func (b *Board) load(ctx context.Context, next *model.TaskFilters) error {
	b.mu.Lock()
	if next != nil {
		b.filters = *next
	}
	b.seq++
	seq := b.seq
	filters := b.filters
	b.inflight[seq] = b.written
	b.mu.Unlock()
	user := b.session.CurrentUser()

	var (
		g      errgroup.Group
		result FetchResult
		users  []model.User
	)
	g.Go(func() error {
		result = b.query.Fetch(ctx, filters, user)
		return nil
	})
	if user != nil {
		g.Go(func() error {
			var err error
			users, err = b.query.ListUsers(ctx)
			if err != nil {
				return fmt.Errorf("failed to load users: %w", err)
			}
			return nil
		})
	}
	usersErr := g.Wait()

	b.mu.Lock()
	defer b.mu.Unlock()
	since := b.inflight[seq]
	delete(b.inflight, seq)
	defer b.trimJournal()
	if seq != b.seq {
		slog.Debug("dropping stale board load", "seq", seq, "latest", b.seq)
		return ErrStaleResponse
	}
	b.state.ReplaceAll(result.Tasks)
	b.fetchErr = result.Err
	if result.Err == nil {
		for _, w := range b.journal {
			if w.n > since {
				w.fn(b.state)
			}
		}
	}
	if user == nil {
		b.users = nil
	} else if usersErr == nil {
		b.users = users
	}
	return usersErr
}

func (b *Board) Filters() model.TaskFilters {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.filters
}

// Create sends draft and appends the stored task to the board when the
// current filters and the caller's scope would have fetched it.
func (b *Board) Create(ctx context.Context, draft dto.CreateTaskRequest) (model.Task, error) {
	task, err := b.mutations.CreateTask(ctx, draft)
	if err != nil {
		return model.Task{}, err
	}
	b.apply(func(r *Reconciler) {
		if b.visible(task) {
			r.Upsert(task)
		}
	})
	return task, nil
}

// Update sends patch and replaces the task in place. A task that is not on
// the board is only added when it is visible under the current filters.
func (b *Board) Update(ctx context.Context, id string, patch dto.UpdateTaskRequest) (model.Task, error) {
	task, err := b.mutations.UpdateTask(ctx, id, patch)
	if err != nil {
		return model.Task{}, err
	}
	b.apply(func(r *Reconciler) {
		if _, ok := r.Get(task.ID); ok || b.visible(task) {
			r.Upsert(task)
		}
	})
	return task, nil
}

func (b *Board) Delete(ctx context.Context, id string) error {
	if err := b.mutations.DeleteTask(ctx, id); err != nil {
		return err
	}
	b.apply(func(r *Reconciler) { r.Remove(id) })
	return nil
}

// apply changes the state after a successful write and journals the
// change for loads that are still running.
func (b *Board) apply(fn func(*Reconciler)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.written++
	fn(b.state)
	if len(b.inflight) > 0 {
		b.journal = append(b.journal, write{n: b.written, fn: fn})
	}
}

// trimJournal drops the writes every running load has already seen.
// Callers hold b.mu.
func (b *Board) trimJournal() {
	if len(b.inflight) == 0 {
		b.journal = nil
		return
	}
	oldest := b.written
	for _, since := range b.inflight {
		oldest = min(oldest, since)
	}
	kept := b.journal[:0]
	for _, w := range b.journal {
		if w.n > oldest {
			kept = append(kept, w)
		}
	}
	b.journal = kept
}

// visible reports whether the current filters and the caller's role scope
// would include t in a fetch. Callers hold b.mu.
func (b *Board) visible(t model.Task) bool {
	if b.filters.Status != "" && string(t.Status) != b.filters.Status {
		return false
	}
	user := b.session.CurrentUser()
	switch {
	case user == nil:
		return false
	case !user.IsAdmin():
		return t.IsAssignedTo(user.ID)
	case b.filters.Assignee != "":
		return t.IsAssignedTo(b.filters.Assignee)
	}
	return true
}

func (b *Board) ByStatus(status model.Status) []model.Task {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state.ByStatus(status)
}

func (b *Board) Tasks() []model.Task {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state.All()
}

func (b *Board) View() View {
	b.mu.Lock()
	defer b.mu.Unlock()
	users := append([]model.User(nil), b.users...)
	return View{
		User:     b.session.CurrentUser(),
		Filters:  b.filters,
		Columns:  b.state.Columns(),
		Users:    users,
		FetchErr: b.fetchErr,
	}
}

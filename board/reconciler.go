package board

import "taskboard/model"

// Reconciler keeps the board's tasks in insertion order, keyed by id.
// It is not safe for concurrent use.
type Reconciler struct {
	order []string
	tasks map[string]model.Task
}

// Column is the tasks of one status, in board order.
type Column struct {
	Status model.Status
	Tasks  []model.Task
}

func NewReconciler() *Reconciler {
	return &Reconciler{tasks: make(map[string]model.Task)}
}

// ReplaceAll drops the current contents and loads tasks in order.
func (r *Reconciler) ReplaceAll(tasks []model.Task) {
	r.order = make([]string, 0, len(tasks))
	r.tasks = make(map[string]model.Task, len(tasks))
	for _, t := range tasks {
		r.Upsert(t)
	}
}

// Upsert replaces a task in place or appends it when the id is new.
func (r *Reconciler) Upsert(task model.Task) {
	if _, ok := r.tasks[task.ID]; !ok {
		r.order = append(r.order, task.ID)
	}
	r.tasks[task.ID] = task
}

// Remove deletes the task with id; unknown ids are ignored.
func (r *Reconciler) Remove(id string) {
	if _, ok := r.tasks[id]; !ok {
		return
	}
	delete(r.tasks, id)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

func (r *Reconciler) Get(id string) (model.Task, bool) {
	t, ok := r.tasks[id]
	return t, ok
}

func (r *Reconciler) Len() int {
	return len(r.order)
}

func (r *Reconciler) All() []model.Task {
	out := make([]model.Task, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.tasks[id])
	}
	return out
}

// ByStatus returns the tasks with status, in order.
func (r *Reconciler) ByStatus(status model.Status) []model.Task {
	out := []model.Task{}
	for _, id := range r.order {
		if t := r.tasks[id]; t.Status == status {
			out = append(out, t)
		}
	}
	return out
}

// Columns returns one column per status in TODO, IN_PROGRESS, DONE order.
func (r *Reconciler) Columns() []Column {
	statuses := model.Statuses()
	cols := make([]Column, 0, len(statuses))
	for _, s := range statuses {
		cols = append(cols, Column{Status: s, Tasks: r.ByStatus(s)})
	}
	return cols
}

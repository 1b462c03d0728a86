package model

import (
	"fmt"
	"time"
)

type Status string

const (
	StatusTodo       Status = "TODO"
	StatusInProgress Status = "IN_PROGRESS"
	StatusDone       Status = "DONE"
)

// Statuses lists the board columns in display order.
func Statuses() []Status {
	return []Status{StatusTodo, StatusInProgress, StatusDone}
}

func (s Status) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

func ParseStatus(v string) (Status, error) {
	s := Status(v)
	if !s.Valid() {
		return "", fmt.Errorf("unknown status %q", v)
	}
	return s, nil
}

type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

func ParsePriority(v string) (Priority, error) {
	p := Priority(v)
	if !p.Valid() {
		return "", fmt.Errorf("unknown priority %q", v)
	}
	return p, nil
}

// Task is a card on the board. Assignee and Creator are display snapshots
// filled in by the repository; AssigneeID and CreatorID are authoritative.
type Task struct {
	ID          string    `json:"id" firestore:"taskid,omitempty" gorm:"primaryKey;size:36"`
	Title       string    `json:"title" firestore:"title,omitempty" gorm:"not null"`
	Description string    `json:"description" firestore:"description,omitempty"`
	Status      Status    `json:"status" firestore:"status,omitempty" gorm:"index;not null"`
	Priority    Priority  `json:"priority" firestore:"priority,omitempty" gorm:"not null"`
	AssigneeID  *string   `json:"assigneeId" firestore:"assigneeid" gorm:"index;size:36"`
	CreatorID   string    `json:"creatorId" firestore:"creatorid,omitempty" gorm:"index;size:36;not null"`
	CreatedAt   time.Time `json:"createdAt" firestore:"createdat,omitempty" gorm:"index"`
	UpdatedAt   time.Time `json:"updatedAt" firestore:"updatedat,omitempty"`

	Assignee *User `json:"assignee,omitempty" firestore:"-" gorm:"foreignKey:AssigneeID"`
	Creator  *User `json:"creator,omitempty" firestore:"-" gorm:"foreignKey:CreatorID"`
}

// IsAssignedTo reports whether the task is assigned to userID.
func (t *Task) IsAssignedTo(userID string) bool {
	return t.AssigneeID != nil && *t.AssigneeID == userID
}

// TaskFilters is the board's filter state. Empty strings mean "not set".
type TaskFilters struct {
	Status   string `json:"status"`
	Assignee string `json:"assignee"`
}

// TaskQuery is the server-side list query after scoping has been applied.
type TaskQuery struct {
	Status     Status
	AssigneeID string
	CreatorID  string
	Page       int
	Size       int
}

// TaskPage is one page of a task listing.
type TaskPage struct {
	Tasks []Task
	Total int64
}

package model

import "time"

type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

type User struct {
	ID        string    `json:"id" firestore:"userid,omitempty" gorm:"primaryKey;size:36"`
	Username  string    `json:"username" firestore:"username,omitempty" gorm:"uniqueIndex;not null"`
	Email     string    `json:"email" firestore:"email,omitempty" gorm:"uniqueIndex;not null"`
	Password  string    `json:"-" firestore:"password,omitempty" gorm:"not null"`
	Role      Role      `json:"role" firestore:"role,omitempty" gorm:"not null"`
	CreatedAt time.Time `json:"createdAt" firestore:"createdat,omitempty"`
}

// IsAdmin reports whether u may see every task on the board.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

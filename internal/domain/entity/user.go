package entity

import "time"

type User struct {
	ID         string    `json:"id" firestore:"uid"`
	Email      string    `json:"email" firestore:"email"`
	Username   string    `json:"username" firestore:"username"`
	IsOnline   bool      `json:"is_online" firestore:"isOnline"`
	LastActive time.Time `json:"last_active,omitempty" firestore:"lastActive,omitempty"`
	CreatedAt  time.Time `json:"created_at" firestore:"createdAt"`
}

// ProfileComplete reports whether the user has finished profile setup.
// Users without a username cannot take part in chat yet.
func (u *User) ProfileComplete() bool {
	return u.Username != ""
}

// Package models defines server-side data models persisted in the database
// and the result types returned by the orchestration services.
package models

import "time"

// User is an account. PasswordHash is a bcrypt digest and is never
// serialized.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// PublicUser is the subset of User returned to clients.
type PublicUser struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
}

// Public returns the client-facing view of u.
func (u *User) Public(withCreated bool) PublicUser {
	p := PublicUser{ID: u.ID, Email: u.Email}
	if withCreated {
		created := u.CreatedAt
		p.CreatedAt = &created
	}
	return p
}

package domain

import "time"

// User is a role-tagged identity. IsActive controls whether login is accepted.
type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	IsActive     bool
	CreatedAt    time.Time
}

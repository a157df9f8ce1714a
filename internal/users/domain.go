package users

import "time"

// User represents an operator account.
type User struct {
	ID           int64
	Email        string
	Name         string
	Role         string
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CreateInput carries the fields for a new account.
type CreateInput struct {
	Email    string
	Name     string
	Role     string
	Password string
}

// UpdateInput carries the editable fields of an account.
// Password is optional; empty means keep the current hash.
type UpdateInput struct {
	Email    string
	Name     string
	Role     string
	Password string
	IsActive bool
}

package domain

import "time"

// User is an account able to report bugs.
type User struct {
	ID           string    `json:"_id"`
	Name         string    `json:"name,omitempty"`
	Email        string    `json:"email"        validate:"required,email"`
	PasswordHash string    `json:"-"            validate:"required"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

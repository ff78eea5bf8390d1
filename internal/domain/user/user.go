package user

import (
	"time"

	"github.com/google/uuid"
)

// User is the local record for an identity resolved through the hub. The
// hub remains the system of record; rows here exist so scenes can carry an
// owner reference.
type User struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Email     *string   `json:"email,omitempty"`
	FirstName *string   `json:"first_name,omitempty"`
	LastName  *string   `json:"last_name,omitempty"`
	IsActive  bool      `json:"is_active"`
	IsAdmin   bool      `json:"is_admin"`
	Scopes    []string  `json:"scopes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UpsertUserInput mirrors the hub's user model at resolution time.
type UpsertUserInput struct {
	Username  string
	Email     *string
	FirstName *string
	LastName  *string
	IsAdmin   bool
	Scopes    []string
}

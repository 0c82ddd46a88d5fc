// Package models holds the records stored in Postgres and the value types
// shared between the stores, the page engine and the HTTP layer.
package models

import (
	"time"

	"github.com/google/uuid"
)

// User is an operator account for the admin API.
type User struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	DisplayName  string    `json:"display_name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

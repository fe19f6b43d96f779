package model

import (
	"time"

	"github.com/google/uuid"
)

// Role distinguishes regular students from content administrators.
type Role string

const (
	RoleStudent Role = "STUDENT"
	RoleAdmin   Role = "ADMIN"
)

// User mirrors an identity issued by the external auth provider.
// A row is created on the first authenticated request and never deleted
// by this service.
type User struct {
	ID         uuid.UUID `json:"id"`
	ExternalID string    `json:"external_id"`
	Role       Role      `json:"role"`
	CreatedAt  time.Time `json:"created_at"`
}

package models

import "time"

// Scope is a registered capability token, e.g. "oauth:user:create".
// Matching is exact and case-sensitive; there is no hierarchy.
type Scope struct {
	Name        string    `json:"name" db:"name"`
	Description *string   `json:"description" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

type CreateScopeRequest struct {
	Name        string  `json:"name" validate:"required"`
	Description *string `json:"description"`
}

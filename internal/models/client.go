package models

import "time"

// TenantRef is the tenant association embedded in a client record.
type TenantRef struct {
	ID   string `json:"id" db:"tenant_id"`
	Name string `json:"name" db:"tenant_name"`
}

// Client is a registered OAuth2 application.
type Client struct {
	ID           string    `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	RedirectURI  string    `json:"redirect_uri" db:"redirect_uri"`
	SecretHash   string    `json:"-" db:"secret_hash"` // HMAC-SHA256 of the secret, never serialized
	Confidential bool      `json:"confidential" db:"confidential"`
	Tenant       TenantRef `json:"tenant"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// Client creation request/response payloads
type CreateClientRequest struct {
	Name         string `json:"name" validate:"required"`
	RedirectURI  string `json:"redirect_uri"`
	Confidential bool   `json:"confidential"`
	TenantID     string `json:"tenant_id" validate:"required"`
}

// CreateClientResponse carries the plaintext secret exactly once, at
// creation time. It is never recoverable afterwards.
type CreateClientResponse struct {
	Client
	Secret string `json:"secret,omitempty"`
}

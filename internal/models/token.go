package models

import "time"

// Refresh token record. The redeemable value is never stored: the row
// is keyed by the SHA-256 hash of the opaque token handed to the client.
type RefreshToken struct {
	ID        string     `json:"id" db:"id"`
	TokenHash string     `json:"-" db:"token_hash"`
	ClientID  string     `json:"client_id" db:"client_id"`
	UserID    *string    `json:"user_id" db:"user_id"` // absent for client_credentials grant
	TenantID  string     `json:"tenant_id" db:"tenant_id"`
	Scopes    []string   `json:"scopes" db:"scopes"`
	ExpiresAt time.Time  `json:"expires_at" db:"expires_at"`
	Revoked   bool       `json:"revoked" db:"revoked"`
	RevokedAt *time.Time `json:"revoked_at" db:"revoked_at"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}

// Token endpoint request (form-encoded per RFC 6749, bindable as JSON too)
type TokenRequest struct {
	GrantType    string `json:"grant_type" form:"grant_type"`
	ClientID     string `json:"client_id" form:"client_id"`
	ClientSecret string `json:"client_secret" form:"client_secret"`
	Username     string `json:"username" form:"username"`
	Password     string `json:"password" form:"password"`
	RefreshToken string `json:"refresh_token" form:"refresh_token"`
	Assertion    string `json:"assertion" form:"assertion"`
	Scope        string `json:"scope" form:"scope"` // space-delimited
}

// Token endpoint response
type TokenResponse struct {
	AccessToken  string    `json:"access_token"`
	TokenType    string    `json:"token_type"`
	ExpiresIn    int       `json:"expires_in"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	Scope        string    `json:"scope,omitempty"`
	IssuedAt     time.Time `json:"issued_at"`
}

// Token revocation request (RFC 7009)
type RevokeTokenRequest struct {
	Token         string  `json:"token" form:"token"`
	TokenTypeHint *string `json:"token_type_hint" form:"token_type_hint"` // "access_token" or "refresh_token"
}

// Introspection response (RFC 7662)
type IntrospectionResponse struct {
	Active    bool   `json:"active"`
	Scope     string `json:"scope,omitempty"`
	ClientID  string `json:"client_id,omitempty"`
	Subject   string `json:"sub,omitempty"`
	TenantID  string `json:"tenant_id,omitempty"`
	TokenType string `json:"token_type,omitempty"`
	ExpiresAt int64  `json:"exp,omitempty"`
	IssuedAt  int64  `json:"iat,omitempty"`
}

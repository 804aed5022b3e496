package model

import "time"

// Role tags a user at registration time. It is embedded in every access
// token but no operation in the API is restricted by it.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// User represents an application user record as stored in the
// `users` table. The password hash never leaves the repository and
// service layers; handlers build their own response types.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Email        – unique, lower-cased email address.
//  PasswordHash – bcrypt hashed password.
//  Role         – USER or ADMIN.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64    // users.id
	Email        string    // users.email
	PasswordHash string    // users.password_hash
	Role         Role      // users.role
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}

// RefreshToken models an entry in the `refresh_tokens` table. Each
// refresh token belongs to a user and carries its own expiry and
// revocation marker. The plain token is not stored; only its SHA‑256
// hash.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	UserID    uint64     // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}

// Revoked reports whether the token has been explicitly invalidated.
func (t RefreshToken) Revoked() bool { return t.RevokedAt != nil }

// Expired reports whether the token's expiry lies strictly before now.
func (t RefreshToken) Expired(now time.Time) bool { return t.ExpiresAt.Before(now) }

// Identity is what a verified access token proves about its bearer.
type Identity struct {
	UserID uint64
	Role   Role
}

// Actor is the caller of a mutating operation: the verified identity plus
// the request origin recorded in the audit log.
type Actor struct {
	Identity
	IP string
}
